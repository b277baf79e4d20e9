// Package modeltype provides the type descriptor graph the registration core
// operates on. Types are declared once into a Universe, which interns them as
// immutable nodes carrying a classification tag (interface, class, abstract
// class), a managed flag, the declared supertypes in a stable order, and an
// optional no-argument constructor and property schema.
//
// Descriptors are compared by node identity: two lookups of the same name in
// the same Universe return the same *Type. The declared-supertype relation is
// acyclic by construction, because a supertype must already be declared
// before it can be referenced.
package modeltype

import (
	"fmt"
	"sort"

	"github.com/vk/modelkit/schema"
)

// Kind classifies a declared type.
type Kind uint8

const (
	// Interface is a pure capability type with no construction path.
	Interface Kind = iota
	// Class is a concrete, constructible type.
	Class
	// AbstractClass is a class that cannot be constructed directly.
	AbstractClass
)

// String returns a human-readable kind name for diagnostics.
func (k Kind) String() string {
	switch k {
	case Interface:
		return "interface"
	case Class:
		return "class"
	case AbstractClass:
		return "abstract class"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Type is a single node in the declared type graph. It is immutable after
// declaration and safe for concurrent reads.
type Type struct {
	name    string
	kind    Kind
	managed bool
	supers  []*Type
	ctor    func() any
	schema  *schema.Schema
}

// Name returns the declared type name.
func (t *Type) Name() string { return t.name }

// Kind returns the type's classification.
func (t *Type) Kind() Kind { return t.kind }

// Managed reports whether the type's implementation is schema-derived
// rather than hand-written.
func (t *Type) Managed() bool { return t.managed }

// Supertypes returns the declared supertypes in declaration order.
func (t *Type) Supertypes() []*Type {
	out := make([]*Type, len(t.supers))
	copy(out, t.supers)
	return out
}

// Constructor returns the type's no-argument constructor, or nil when the
// type does not declare one.
func (t *Type) Constructor() func() any { return t.ctor }

// Schema returns the type's declared property schema, or nil.
func (t *Type) Schema() *schema.Schema { return t.schema }

// IsInterface reports whether the type is an interface.
func (t *Type) IsInterface() bool { return t.kind == Interface }

// IsAbstract reports whether the type cannot be constructed directly.
func (t *Type) IsAbstract() bool { return t.kind != Class }

// String returns the type name. It tolerates a nil receiver so diagnostics
// can format absent types.
func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	return t.name
}

// AssignableFrom reports whether a value of type u could be treated as a t,
// i.e. whether t is u itself or appears among u's transitive supertypes.
func (t *Type) AssignableFrom(u *Type) bool {
	if u == nil {
		return false
	}
	found := false
	_ = Walk(u, func(v *Type) error {
		if v == t {
			found = true
			return errStopWalk
		}
		return nil
	})
	return found
}

// Spec declares a single type to Universe.Declare.
type Spec struct {
	// Name is the unique type name within the universe.
	Name string
	// Kind classifies the type.
	Kind Kind
	// Managed marks the type as schema-derived.
	Managed bool
	// Supertypes lists the declared supertypes. Order is significant: it
	// drives hierarchy walk order and therefore implementation inheritance.
	Supertypes []*Type
	// New is the no-argument constructor. Only concrete classes may
	// declare one.
	New func() any
	// Schema optionally carries the type's property schema.
	Schema *schema.Schema
}

// Universe is the declaration space for type descriptors. A single logical
// owner populates it sequentially; once populated it is read-only and safe
// for concurrent lookups.
type Universe struct {
	types map[string]*Type
}

// NewUniverse creates an empty Universe.
func NewUniverse() *Universe {
	return &Universe{types: make(map[string]*Type)}
}

// Declare interns a new type node from spec. It fails when the name is
// empty or already taken, when a supertype is nil, or when a constructor is
// declared on a non-concrete type.
func (u *Universe) Declare(spec Spec) (*Type, error) {
	if spec.Name == "" {
		return nil, fmt.Errorf("type with empty name")
	}
	if _, exists := u.types[spec.Name]; exists {
		return nil, fmt.Errorf("type %q already declared", spec.Name)
	}
	for i, s := range spec.Supertypes {
		if s == nil {
			return nil, fmt.Errorf("type %q: supertype %d is nil", spec.Name, i)
		}
	}
	if spec.New != nil && spec.Kind != Class {
		return nil, fmt.Errorf("type %q: only a concrete class may declare a constructor, not %s", spec.Name, spec.Kind)
	}

	t := &Type{
		name:    spec.Name,
		kind:    spec.Kind,
		managed: spec.Managed,
		supers:  append([]*Type(nil), spec.Supertypes...),
		ctor:    spec.New,
		schema:  spec.Schema,
	}
	u.types[spec.Name] = t
	return t, nil
}

// MustDeclare is Declare, panicking on error.
func (u *Universe) MustDeclare(spec Spec) *Type {
	t, err := u.Declare(spec)
	if err != nil {
		panic(err)
	}
	return t
}

// Lookup returns the declared type with the given name, if any.
func (u *Universe) Lookup(name string) (*Type, bool) {
	t, ok := u.types[name]
	return t, ok
}

// Len returns the number of declared types.
func (u *Universe) Len() int {
	return len(u.types)
}

// SortByName orders types by their display name, in place. This is the
// total display order used for listings and diagnostics.
func SortByName(types []*Type) {
	sort.Slice(types, func(i, j int) bool {
		return types[i].name < types[j].name
	})
}

// NewOf adapts a Go type parameter into a no-argument constructor.
func NewOf[T any]() func() any {
	return func() any { return new(T) }
}
