package schema

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/zclconf/go-cty/cty/gocty"
)

// Extract derives a Schema from a Go struct type. Exported fields carrying a
// `model` tag become properties; the cty type is implied from the field's Go
// type. Fields tagged "-" or without a tag are skipped.
func Extract(t reflect.Type) (*Schema, error) {
	if t == nil {
		return nil, fmt.Errorf("nil type")
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("cannot extract schema from %s: not a struct", t)
	}

	var props []Property
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		tag := field.Tag.Get("model")
		name := strings.Split(tag, ",")[0]
		if name == "" || name == "-" {
			continue
		}

		impliedType, err := gocty.ImpliedType(reflect.Zero(field.Type).Interface())
		if err != nil {
			return nil, fmt.Errorf("field %s: could not imply cty type from Go type %s: %w", field.Name, field.Type, err)
		}
		props = append(props, Property{
			Name: name,
			Type: impliedType,
		})
	}

	return New(props...)
}
