package registry

import (
	"fmt"
	"log/slog"

	"github.com/vk/modelkit/modeltype"
)

// Source identifies the registration site that contributed a registration,
// e.g. a rule method signature. It is used only for diagnostics and is never
// compared beyond display.
type Source interface {
	String() string
}

// SimpleSource is a plain-text Source.
type SimpleSource string

// String returns the source text.
func (s SimpleSource) String() string { return string(s) }

// ImplementationFactory materializes an instance of publicType. The name and
// ctx arguments are externally supplied and passed through unchanged; ctx is
// typically a handle into the host's model node tree.
type ImplementationFactory func(publicType *modeltype.Type, name string, ctx any) (any, error)

// InstanceFactory is the registration table for one family of public types.
// A single logical owner populates it sequentially during the configuration
// phase; after ValidateRegistrations it is frozen and safe for concurrent
// read-only queries.
type InstanceFactory struct {
	displayName        string
	baseInterface      *modeltype.Type
	baseImplementation *modeltype.Type

	// entries plus order give linked-map semantics: lookups by type,
	// iteration in first-registration order.
	entries map[*modeltype.Type]*typeRegistration
	order   []*modeltype.Type

	frozen bool
}

// typeRegistration is the table entry for one public type. Owned exclusively
// by the InstanceFactory; builders only reference it.
type typeRegistration struct {
	publicType     *modeltype.Type
	managed        bool
	implementation *implementationRegistration
	internalViews  []internalViewRegistration
}

type implementationRegistration struct {
	source             Source
	implementationType *modeltype.Type
	factory            ImplementationFactory
}

type internalViewRegistration struct {
	source       Source
	internalView *modeltype.Type
}

// New creates an empty InstanceFactory. displayName names the factory in
// diagnostics (e.g. "ComponentSpec registry"). baseInterface is the family's
// root capability type; baseImplementation bounds every registered
// implementation type.
func New(displayName string, baseInterface, baseImplementation *modeltype.Type) *InstanceFactory {
	if baseInterface == nil || baseImplementation == nil {
		panic("registry: base interface and base implementation must not be nil")
	}
	return &InstanceFactory{
		displayName:        displayName,
		baseInterface:      baseInterface,
		baseImplementation: baseImplementation,
		entries:            make(map[*modeltype.Type]*typeRegistration),
	}
}

// DisplayName returns the factory's diagnostic name.
func (f *InstanceFactory) DisplayName() string { return f.displayName }

// BaseInterface returns the root capability type of this factory.
func (f *InstanceFactory) BaseInterface() *modeltype.Type { return f.baseInterface }

// Register returns a builder scoped to publicType's entry and to the calling
// source. The entry is created lazily on first registration; further calls
// for the same type reuse it.
func (f *InstanceFactory) Register(publicType *modeltype.Type, source Source) (*RegistrationBuilder, error) {
	if publicType == nil {
		return nil, fmt.Errorf("cannot register a nil type with %s", f.displayName)
	}
	if f.frozen {
		return nil, fmt.Errorf("%w: cannot register '%s' with %s after validation", ErrFrozen, publicType, f.displayName)
	}
	entry, ok := f.entries[publicType]
	if !ok {
		entry = &typeRegistration{
			publicType: publicType,
			managed:    publicType.Managed(),
		}
		f.entries[publicType] = entry
		f.order = append(f.order, publicType)
	}
	return &RegistrationBuilder{factory: f, source: source, entry: entry}, nil
}

// RegisterType is the bulk registration form: one implementation (when
// implementationType is non-nil) followed by each internal view, all
// attributed to source.
func (f *InstanceFactory) RegisterType(publicType *modeltype.Type, internalViews []*modeltype.Type, implementationType *modeltype.Type, factory ImplementationFactory, source Source) error {
	builder, err := f.Register(publicType, source)
	if err != nil {
		return err
	}
	if implementationType != nil {
		if err := builder.WithImplementation(implementationType, factory); err != nil {
			return err
		}
	}
	for _, view := range internalViews {
		if err := builder.WithInternalView(view); err != nil {
			return err
		}
	}
	return nil
}

// RegistrationBuilder accumulates registrations into one entry on behalf of
// one registration site. It is a short-lived value, discarded after use.
type RegistrationBuilder struct {
	factory *InstanceFactory
	source  Source
	entry   *typeRegistration
}

// WithImplementation binds an implementation type and factory to the entry's
// public type. At most one implementation may ever be registered per type; a
// violated constraint aborts this registration without touching the entry.
func (b *RegistrationBuilder) WithImplementation(implementationType *modeltype.Type, factory ImplementationFactory) error {
	f, entry := b.factory, b.entry
	if f.frozen {
		return fmt.Errorf("%w: cannot register implementation for '%s' after validation", ErrFrozen, entry.publicType)
	}
	if entry.implementation != nil {
		return fmt.Errorf("%w: cannot register implementation for type '%s' because an implementation for this type was already registered by %s",
			ErrRegistrationConflict, entry.publicType, entry.implementation.source)
	}
	if entry.managed {
		return fmt.Errorf("%w: cannot specify default implementation for managed type '%s'",
			ErrInvalidImplementation, entry.publicType)
	}
	if implementationType == nil {
		return fmt.Errorf("%w: no implementation type given for '%s'", ErrInvalidImplementation, entry.publicType)
	}
	if !f.baseImplementation.AssignableFrom(implementationType) {
		return fmt.Errorf("%w: implementation type '%s' registered for '%s' must extend '%s'",
			ErrInvalidImplementation, implementationType, entry.publicType, f.baseImplementation)
	}
	if implementationType.IsAbstract() {
		return fmt.Errorf("%w: implementation type '%s' registered for '%s' must not be abstract",
			ErrInvalidImplementation, implementationType, entry.publicType)
	}
	if implementationType.Constructor() == nil {
		return fmt.Errorf("%w: implementation type '%s' registered for '%s' must have a no-argument constructor",
			ErrInvalidImplementation, implementationType, entry.publicType)
	}
	if factory == nil {
		return fmt.Errorf("%w: no factory given for implementation type '%s' registered for '%s'",
			ErrInvalidImplementation, implementationType, entry.publicType)
	}

	slog.Debug("Registering implementation.",
		"publicType", entry.publicType.Name(),
		"implementationType", implementationType.Name(),
		"source", b.source)
	entry.implementation = &implementationRegistration{
		source:             b.source,
		implementationType: implementationType,
		factory:            factory,
	}
	return nil
}

// WithInternalView appends an internal view registration to the entry.
// Duplicates are permitted and validated independently.
func (b *RegistrationBuilder) WithInternalView(internalView *modeltype.Type) error {
	f, entry := b.factory, b.entry
	if f.frozen {
		return fmt.Errorf("%w: cannot register internal view for '%s' after validation", ErrFrozen, entry.publicType)
	}
	if internalView == nil {
		return fmt.Errorf("%w: no internal view given for '%s'", ErrInvalidInternalView, entry.publicType)
	}
	if !internalView.IsInterface() {
		return fmt.Errorf("%w: internal view '%s' registered for '%s' must be an interface",
			ErrInvalidInternalView, internalView, entry.publicType)
	}
	if entry.managed && !internalView.Managed() {
		return fmt.Errorf("%w: internal view '%s' registered for managed type '%s' must be managed",
			ErrInvalidInternalView, internalView, entry.publicType)
	}

	slog.Debug("Registering internal view.",
		"publicType", entry.publicType.Name(),
		"internalView", internalView.Name(),
		"source", b.source)
	entry.internalViews = append(entry.internalViews, internalViewRegistration{
		source:       b.source,
		internalView: internalView,
	})
	return nil
}

// isConstructible reports whether the entry names a type that can yield an
// instance: managed types inherit, others need their own implementation.
func (r *typeRegistration) isConstructible() bool {
	return r.managed || r.implementation != nil
}
