package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/modelkit/ctxlog"
	"github.com/vk/modelkit/modeltype"
)

// ValidateRegistrations checks every entry for view/implementation
// conformance and reports every violation found, not just the first, so a
// plugin author sees all problems in one pass. It runs once, after all
// registrations are collected; afterwards the table is frozen and all
// queries are safe for concurrent readers.
func (f *InstanceFactory) ValidateRegistrations(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	var errs []error
	for _, t := range f.order {
		entry := f.entries[t]
		if entry.managed {
			errs = append(errs, f.validateManaged(entry)...)
		} else {
			errs = append(errs, f.validateUnmanaged(entry)...)
		}
	}
	f.frozen = true

	if len(errs) > 0 {
		logger.Error("Registration validation failed.", "factory", f.displayName, "violations", len(errs))
		return fmt.Errorf("%s validation failed:\n%w", f.displayName, errors.Join(errs...))
	}
	logger.Debug("Registrations validated.", "factory", f.displayName, "types", len(f.order))
	return nil
}

// validateUnmanaged checks that the entry's own implementation satisfies
// every unmanaged internal view registered for the entry. Managed internal
// views are allowed not to be implemented by the default implementation.
func (f *InstanceFactory) validateUnmanaged(entry *typeRegistration) []error {
	if entry.implementation == nil {
		return nil
	}
	implementationType := entry.implementation.implementationType

	var errs []error
	for _, reg := range entry.internalViews {
		if reg.internalView.Managed() {
			continue
		}
		if !reg.internalView.AssignableFrom(implementationType) {
			errs = append(errs, fmt.Errorf("%w: registration for '%s' is invalid because the implementation type '%s' does not implement internal view '%s' (implementation type was registered by %s, internal view was registered by %s)",
				ErrViewConformance, entry.publicType, implementationType, reg.internalView,
				entry.implementation.source, reg.source))
		}
	}
	return errs
}

// validateManaged resolves the implementation the managed type inherits and
// checks every registered view against the inherited delegate. The check
// walks each view's own hierarchy: every unmanaged ancestor of the view must
// be implemented by the delegate, while managed ancestors are exempt.
func (f *InstanceFactory) validateManaged(entry *typeRegistration) []error {
	info, err := f.ManagedSubtypeImplementationInfo(entry.publicType)
	if err != nil {
		return []error{err}
	}
	delegateType := info.DelegateType()

	var errs []error
	for _, reg := range entry.internalViews {
		if err := f.validateManagedInternalView(entry, reg, info, delegateType); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

func (f *InstanceFactory) validateManagedInternalView(entry *typeRegistration, reg internalViewRegistration, info *ImplementationInfo, delegateType *modeltype.Type) error {
	return modeltype.Walk(reg.internalView, func(view *modeltype.Type) error {
		if view.Managed() || view.AssignableFrom(delegateType) {
			return nil
		}
		return fmt.Errorf("%w: registration for '%s' is invalid because the default implementation type '%s' does not implement unmanaged internal view '%s' (implementation type was registered by %s, internal view was registered by %s)",
			ErrViewConformance, entry.publicType, delegateType, view,
			info.RegisteredBy(), reg.source)
	})
}
