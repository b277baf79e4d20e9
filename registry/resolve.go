package registry

import (
	"fmt"
	"strings"

	"github.com/vk/modelkit/modeltype"
	"github.com/vk/modelkit/schema"
)

// ImplementationInfo combines a public type with the implementation
// registration that governs it, which may belong to an ancestor's entry
// rather than the type's own. It is computed on demand, never stored.
type ImplementationInfo struct {
	publicType   *modeltype.Type
	registration *implementationRegistration
}

// PublicType returns the type this info was resolved for.
func (i *ImplementationInfo) PublicType() *modeltype.Type { return i.publicType }

// DelegateType returns the concrete implementation type that will back
// instances of the public type.
func (i *ImplementationInfo) DelegateType() *modeltype.Type { return i.registration.implementationType }

// RegisteredBy returns the site that registered the governing implementation.
func (i *ImplementationInfo) RegisteredBy() Source { return i.registration.source }

// Create invokes the registered factory with the public type, the supplied
// instance name, and the opaque ctx, and returns the fresh instance. Every
// call produces a new instance; nothing is cached.
func (i *ImplementationInfo) Create(name string, ctx any) (any, error) {
	return i.registration.factory(i.publicType, name, ctx)
}

// String returns the public type name.
func (i *ImplementationInfo) String() string { return i.publicType.String() }

// ImplementationInfo resolves the implementation registered directly for
// publicType, without walking the hierarchy.
func (f *InstanceFactory) ImplementationInfo(publicType *modeltype.Type) (*ImplementationInfo, error) {
	entry, ok := f.entries[publicType]
	if !ok {
		return nil, fmt.Errorf("%w: cannot create a '%s' because this type is not known to %s. Known types are: %s",
			ErrUnknownType, publicType, f.displayName, f.constructibleTypeNames())
	}
	if entry.implementation == nil {
		return nil, fmt.Errorf("%w: cannot create a '%s' because this type does not have an implementation registered",
			ErrNoImplementation, publicType)
	}
	return &ImplementationInfo{publicType: publicType, registration: entry.implementation}, nil
}

// ManagedSubtypeImplementationInfo resolves the implementation a managed
// type inherits: the first ancestor entry in hierarchy walk order that
// carries one. The walk order makes the tie-break deterministic when several
// ancestors each declare an implementation.
func (f *InstanceFactory) ManagedSubtypeImplementationInfo(publicType *modeltype.Type) (*ImplementationInfo, error) {
	if publicType == nil || !publicType.Managed() {
		return nil, fmt.Errorf("%w: type '%s' is not managed", ErrNotManaged, publicType)
	}
	var info *ImplementationInfo
	f.walkRegistrations(publicType, func(entry *typeRegistration) {
		if info == nil && entry.implementation != nil {
			info = &ImplementationInfo{publicType: publicType, registration: entry.implementation}
		}
	})
	if info == nil {
		return nil, fmt.Errorf("%w: registration for '%s' is invalid because it does not extend an interface with a default implementation",
			ErrNoInheritableImplementation, publicType)
	}
	return info, nil
}

// InternalViews aggregates every internal view registered for publicType and
// for every ancestor with an entry, in hierarchy walk order, with duplicates
// across the hierarchy collapsed.
func (f *InstanceFactory) InternalViews(publicType *modeltype.Type) []*modeltype.Type {
	var views []*modeltype.Type
	seen := make(map[*modeltype.Type]struct{})
	f.walkRegistrations(publicType, func(entry *typeRegistration) {
		for _, reg := range entry.internalViews {
			if _, ok := seen[reg.internalView]; ok {
				continue
			}
			seen[reg.internalView] = struct{}{}
			views = append(views, reg.internalView)
		}
	})
	return views
}

// SupportedTypes returns every registered constructible type in display
// order. The factory's own base interface is excluded.
func (f *InstanceFactory) SupportedTypes() []*modeltype.Type {
	supported := make([]*modeltype.Type, 0, len(f.order))
	for _, t := range f.order {
		if t == f.baseInterface {
			continue
		}
		if f.entries[t].isConstructible() {
			supported = append(supported, t)
		}
	}
	modeltype.SortByName(supported)
	return supported
}

// ManagedSchema merges the property schemas declared along publicType's
// hierarchy into the effective schema of the managed type.
func (f *InstanceFactory) ManagedSchema(publicType *modeltype.Type) (*schema.Schema, error) {
	if publicType == nil || !publicType.Managed() {
		return nil, fmt.Errorf("%w: type '%s' is not managed", ErrNotManaged, publicType)
	}
	var schemas []*schema.Schema
	_ = modeltype.Walk(publicType, func(t *modeltype.Type) error {
		if s := t.Schema(); s != nil {
			schemas = append(schemas, s)
		}
		return nil
	})
	merged, err := schema.Merge(schemas...)
	if err != nil {
		return nil, fmt.Errorf("schema for managed type '%s': %w", publicType, err)
	}
	return merged, nil
}

// String returns the "known types" summary, e.g. "[LibrarySpec, JvmSpec]".
func (f *InstanceFactory) String() string {
	return "[" + f.constructibleTypeNames() + "]"
}

func (f *InstanceFactory) constructibleTypeNames() string {
	supported := f.SupportedTypes()
	if len(supported) == 0 {
		return "(None)"
	}
	names := make([]string, len(supported))
	for i, t := range supported {
		names[i] = t.Name()
	}
	return strings.Join(names, ", ")
}

// walkRegistrations walks publicType's hierarchy and delivers, in walk
// order, the entry of every visited type that is bound by the base interface
// and has a registration. This single traversal backs implementation
// inheritance and view aggregation alike, so the order and dedup policy stay
// identical across both.
func (f *InstanceFactory) walkRegistrations(publicType *modeltype.Type, visit func(*typeRegistration)) {
	_ = modeltype.Walk(publicType, func(t *modeltype.Type) error {
		if !f.baseInterface.AssignableFrom(t) {
			return nil
		}
		if entry, ok := f.entries[t]; ok {
			visit(entry)
		}
		return nil
	})
}
