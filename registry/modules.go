package registry

import (
	"context"
	"fmt"

	"github.com/vk/modelkit/ctxlog"
)

// Module is the interface a plugin implements to contribute type
// registrations to an InstanceFactory.
type Module interface {
	// RegisterTypes files the module's registrations with the factory.
	RegisterTypes(f *InstanceFactory) error
}

// InstallModules runs every module's registrations against the factory in
// order. The first failing module aborts installation; registrations already
// filed by earlier modules remain in place, matching the per-call abort
// semantics of the builder API.
func InstallModules(ctx context.Context, f *InstanceFactory, modules ...Module) error {
	logger := ctxlog.FromContext(ctx)
	for _, m := range modules {
		if err := m.RegisterTypes(f); err != nil {
			return fmt.Errorf("installing module %T: %w", m, err)
		}
		logger.Debug("Installed module.", "module", fmt.Sprintf("%T", m), "factory", f.displayName)
	}
	return nil
}
