package registry

import "errors"

var (
	// ErrRegistrationConflict indicates a second implementation registered
	// for a type that already has one.
	ErrRegistrationConflict = errors.New("implementation already registered")
	// ErrInvalidImplementation indicates an implementation type that
	// violates the base implementation bound, is not concrete, lacks a
	// no-argument constructor, or targets a managed type.
	ErrInvalidImplementation = errors.New("invalid implementation")
	// ErrInvalidInternalView indicates a view descriptor that is not an
	// interface, or an unmanaged view registered for a managed type.
	ErrInvalidInternalView = errors.New("invalid internal view")
	// ErrUnknownType indicates a query for a type with no registration.
	ErrUnknownType = errors.New("unknown type")
	// ErrNotManaged indicates a managed-specific query issued against an
	// unmanaged type.
	ErrNotManaged = errors.New("type is not managed")
	// ErrNoImplementation indicates a registered type without an
	// implementation of its own.
	ErrNoImplementation = errors.New("no implementation registered")
	// ErrNoInheritableImplementation indicates a managed type whose
	// hierarchy provides no implementation to inherit.
	ErrNoInheritableImplementation = errors.New("no inheritable implementation")
	// ErrViewConformance indicates a validator-detected mismatch between a
	// registered view and the governing implementation.
	ErrViewConformance = errors.New("internal view not implemented")
	// ErrFrozen indicates a registration attempted after validation has
	// closed the table.
	ErrFrozen = errors.New("registrations are frozen")
)
