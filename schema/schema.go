// Package schema describes the property state of managed types as ordered
// cty-typed property sets, with validation, default coalescing, merging
// along a type hierarchy, and extraction from Go structs.
package schema

import (
	"fmt"
	"sort"
	"strings"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// Property describes a single named value carried by a managed type.
type Property struct {
	// Name is the property name as it appears on the managed type.
	Name string
	// Type is the declared cty type of the property's value.
	Type cty.Type
	// Description is optional human-readable documentation.
	Description string
	// Default is the value used when none is supplied. A property with
	// Default == cty.NilVal is required.
	Default cty.Value
}

// Required reports whether the property must be supplied explicitly.
func (p Property) Required() bool {
	return p.Default == cty.NilVal
}

// Schema is an ordered, immutable set of properties describing the state of
// a managed type. Order follows declaration order, which keeps diagnostics
// and merged schemas deterministic.
type Schema struct {
	props []Property
	index map[string]int
}

// New builds a Schema from the given properties. Property names must be
// non-empty and unique, and every property needs a concrete cty type.
func New(props ...Property) (*Schema, error) {
	s := &Schema{
		props: make([]Property, 0, len(props)),
		index: make(map[string]int, len(props)),
	}
	for _, p := range props {
		if p.Name == "" {
			return nil, fmt.Errorf("property with empty name")
		}
		if p.Type == cty.NilType {
			return nil, fmt.Errorf("property %q has no type", p.Name)
		}
		if _, exists := s.index[p.Name]; exists {
			return nil, fmt.Errorf("duplicate property %q", p.Name)
		}
		if p.Default != cty.NilVal {
			converted, err := convert.Convert(p.Default, p.Type)
			if err != nil {
				return nil, fmt.Errorf("default for property %q is not a %s: %w", p.Name, p.Type.FriendlyName(), err)
			}
			p.Default = converted
		}
		s.index[p.Name] = len(s.props)
		s.props = append(s.props, p)
	}
	return s, nil
}

// MustNew is New, panicking on error. Intended for package-level schema
// declarations where the property list is a compile-time constant.
func MustNew(props ...Property) *Schema {
	s, err := New(props...)
	if err != nil {
		panic(err)
	}
	return s
}

// Properties returns the properties in declaration order.
func (s *Schema) Properties() []Property {
	out := make([]Property, len(s.props))
	copy(out, s.props)
	return out
}

// Property returns the named property, if declared.
func (s *Schema) Property(name string) (Property, bool) {
	i, ok := s.index[name]
	if !ok {
		return Property{}, false
	}
	return s.props[i], true
}

// Len returns the number of declared properties.
func (s *Schema) Len() int {
	return len(s.props)
}

// Validate performs a strict parity check between the supplied values and
// the schema: every required property must be present, no unknown property
// may appear, and every value must be convertible to its declared type.
// All problems are reported together, not just the first.
func (s *Schema) Validate(values map[string]cty.Value) error {
	var errs []string

	for _, p := range s.props {
		v, ok := values[p.Name]
		if !ok {
			if p.Required() {
				errs = append(errs, fmt.Sprintf("required property %q is not set", p.Name))
			}
			continue
		}
		if _, err := convert.Convert(v, p.Type); err != nil {
			errs = append(errs, fmt.Sprintf("property %q: value of type %s cannot convert to %s",
				p.Name, v.Type().FriendlyName(), p.Type.FriendlyName()))
		}
	}

	unknown := make([]string, 0)
	for name := range values {
		if _, ok := s.index[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	sort.Strings(unknown)
	for _, name := range unknown {
		errs = append(errs, fmt.Sprintf("unknown property %q", name))
	}

	if len(errs) > 0 {
		return fmt.Errorf("schema validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

// CoalesceValues fills in defaults for absent optional properties and
// converts every supplied value to its declared type. The values must have
// passed Validate; a conversion failure here is returned as an error.
func (s *Schema) CoalesceValues(values map[string]cty.Value) (map[string]cty.Value, error) {
	out := make(map[string]cty.Value, len(s.props))
	for _, p := range s.props {
		v, ok := values[p.Name]
		if !ok {
			if p.Default != cty.NilVal {
				out[p.Name] = p.Default
			}
			continue
		}
		converted, err := convert.Convert(v, p.Type)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", p.Name, err)
		}
		out[p.Name] = converted
	}
	return out, nil
}

// Merge combines schemas into one, keeping the first declaration order.
// A property declared by several schemas must agree on its type; the first
// declaration wins for description and default.
func Merge(schemas ...*Schema) (*Schema, error) {
	merged := &Schema{index: make(map[string]int)}
	for _, in := range schemas {
		if in == nil {
			continue
		}
		for _, p := range in.props {
			i, exists := merged.index[p.Name]
			if !exists {
				merged.index[p.Name] = len(merged.props)
				merged.props = append(merged.props, p)
				continue
			}
			if !merged.props[i].Type.Equals(p.Type) {
				return nil, fmt.Errorf("conflicting declarations for property %q: %s vs %s",
					p.Name, merged.props[i].Type.FriendlyName(), p.Type.FriendlyName())
			}
		}
	}
	return merged, nil
}
