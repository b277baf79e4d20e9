package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/modelkit/modeltype"
)

// testModel is the shared hierarchy most registry tests build on:
//
//	ComponentSpec (base interface)
//	BaseComponent (base implementation bound, abstract)
//	LibrarySpec extends ComponentSpec
//	LibraryInternal (interface view)
//	DefaultLibrary extends BaseComponent, LibrarySpec, LibraryInternal
type testModel struct {
	universe    *modeltype.Universe
	base        *modeltype.Type
	baseImpl    *modeltype.Type
	library     *modeltype.Type
	libInternal *modeltype.Type
	defaultLib  *modeltype.Type
	factory     *InstanceFactory
}

type libraryInstance struct {
	name string
	ctx  any
}

func newLibraryInstance(publicType *modeltype.Type, name string, ctx any) (any, error) {
	return &libraryInstance{name: name, ctx: ctx}, nil
}

func newTestModel(t *testing.T) *testModel {
	t.Helper()
	u := modeltype.NewUniverse()
	base := u.MustDeclare(modeltype.Spec{Name: "ComponentSpec", Kind: modeltype.Interface})
	baseImpl := u.MustDeclare(modeltype.Spec{Name: "BaseComponent", Kind: modeltype.AbstractClass})
	library := u.MustDeclare(modeltype.Spec{
		Name: "LibrarySpec", Kind: modeltype.Interface,
		Supertypes: []*modeltype.Type{base},
	})
	libInternal := u.MustDeclare(modeltype.Spec{Name: "LibraryInternal", Kind: modeltype.Interface})
	defaultLib := u.MustDeclare(modeltype.Spec{
		Name: "DefaultLibrary", Kind: modeltype.Class,
		Supertypes: []*modeltype.Type{baseImpl, library, libInternal},
		New:        modeltype.NewOf[libraryInstance](),
	})
	return &testModel{
		universe:    u,
		base:        base,
		baseImpl:    baseImpl,
		library:     library,
		libInternal: libInternal,
		defaultLib:  defaultLib,
		factory:     New("component registry", base, baseImpl),
	}
}

// declareClass adds a concrete, constructible class below the base
// implementation bound, extending the given supertypes.
func (m *testModel) declareClass(t *testing.T, name string, supers ...*modeltype.Type) *modeltype.Type {
	t.Helper()
	return m.universe.MustDeclare(modeltype.Spec{
		Name: name, Kind: modeltype.Class,
		Supertypes: append([]*modeltype.Type{m.baseImpl}, supers...),
		New:        modeltype.NewOf[libraryInstance](),
	})
}

func TestRegister(t *testing.T) {
	t.Run("entry is created lazily and reused", func(t *testing.T) {
		m := newTestModel(t)

		first, err := m.factory.Register(m.library, SimpleSource("rule one"))
		require.NoError(t, err)
		require.NoError(t, first.WithInternalView(m.libInternal))

		second, err := m.factory.Register(m.library, SimpleSource("rule two"))
		require.NoError(t, err)
		require.NoError(t, second.WithImplementation(m.defaultLib, newLibraryInstance))

		// Both builders fed the same entry.
		info, err := m.factory.ImplementationInfo(m.library)
		require.NoError(t, err)
		assert.Same(t, m.defaultLib, info.DelegateType())
		assert.Len(t, m.factory.InternalViews(m.library), 1)
	})

	t.Run("nil type rejected", func(t *testing.T) {
		m := newTestModel(t)
		_, err := m.factory.Register(nil, SimpleSource("rule"))
		assert.ErrorContains(t, err, "nil type")
	})
}

func TestWithImplementation(t *testing.T) {
	t.Run("success case", func(t *testing.T) {
		m := newTestModel(t)
		b, err := m.factory.Register(m.library, SimpleSource("library rules"))
		require.NoError(t, err)
		require.NoError(t, b.WithImplementation(m.defaultLib, newLibraryInstance))

		info, err := m.factory.ImplementationInfo(m.library)
		require.NoError(t, err)
		assert.Same(t, m.defaultLib, info.DelegateType())
		assert.Equal(t, "library rules", info.RegisteredBy().String())
	})

	t.Run("second implementation conflicts and first wins", func(t *testing.T) {
		m := newTestModel(t)
		other := m.declareClass(t, "OtherLibrary", m.library)

		b, err := m.factory.Register(m.library, SimpleSource("first rule"))
		require.NoError(t, err)
		require.NoError(t, b.WithImplementation(m.defaultLib, newLibraryInstance))

		b2, err := m.factory.Register(m.library, SimpleSource("second rule"))
		require.NoError(t, err)
		err = b2.WithImplementation(other, newLibraryInstance)
		require.ErrorIs(t, err, ErrRegistrationConflict)
		assert.ErrorContains(t, err, "LibrarySpec")
		assert.ErrorContains(t, err, "first rule")

		info, err := m.factory.ImplementationInfo(m.library)
		require.NoError(t, err)
		assert.Same(t, m.defaultLib, info.DelegateType())
	})

	t.Run("managed type rejected", func(t *testing.T) {
		m := newTestModel(t)
		managed := m.universe.MustDeclare(modeltype.Spec{
			Name: "ManagedLib", Kind: modeltype.Interface, Managed: true,
			Supertypes: []*modeltype.Type{m.library},
		})

		b, err := m.factory.Register(managed, SimpleSource("rule"))
		require.NoError(t, err)
		err = b.WithImplementation(m.defaultLib, newLibraryInstance)
		require.ErrorIs(t, err, ErrInvalidImplementation)
		assert.ErrorContains(t, err, "managed type 'ManagedLib'")
	})

	t.Run("implementation must extend base implementation", func(t *testing.T) {
		m := newTestModel(t)
		// Constructible but outside the BaseComponent bound.
		stray := m.universe.MustDeclare(modeltype.Spec{
			Name: "Stray", Kind: modeltype.Class,
			Supertypes: []*modeltype.Type{m.library},
			New:        modeltype.NewOf[libraryInstance](),
		})

		b, err := m.factory.Register(m.library, SimpleSource("rule"))
		require.NoError(t, err)
		err = b.WithImplementation(stray, newLibraryInstance)
		require.ErrorIs(t, err, ErrInvalidImplementation)
		assert.ErrorContains(t, err, "must extend 'BaseComponent'")
	})

	t.Run("abstract implementation rejected", func(t *testing.T) {
		m := newTestModel(t)
		abstract := m.universe.MustDeclare(modeltype.Spec{
			Name: "AbstractLibrary", Kind: modeltype.AbstractClass,
			Supertypes: []*modeltype.Type{m.baseImpl, m.library},
		})

		b, err := m.factory.Register(m.library, SimpleSource("rule"))
		require.NoError(t, err)
		err = b.WithImplementation(abstract, newLibraryInstance)
		require.ErrorIs(t, err, ErrInvalidImplementation)
		assert.ErrorContains(t, err, "must not be abstract")
	})

	t.Run("constructor required", func(t *testing.T) {
		m := newTestModel(t)
		noCtor := m.universe.MustDeclare(modeltype.Spec{
			Name: "NoCtorLibrary", Kind: modeltype.Class,
			Supertypes: []*modeltype.Type{m.baseImpl, m.library},
		})

		b, err := m.factory.Register(m.library, SimpleSource("rule"))
		require.NoError(t, err)
		err = b.WithImplementation(noCtor, newLibraryInstance)
		require.ErrorIs(t, err, ErrInvalidImplementation)
		assert.ErrorContains(t, err, "no-argument constructor")
	})

	t.Run("nil factory rejected", func(t *testing.T) {
		m := newTestModel(t)
		b, err := m.factory.Register(m.library, SimpleSource("rule"))
		require.NoError(t, err)
		err = b.WithImplementation(m.defaultLib, nil)
		require.ErrorIs(t, err, ErrInvalidImplementation)
		assert.ErrorContains(t, err, "no factory given")
	})

	t.Run("failed registration leaves entry untouched", func(t *testing.T) {
		m := newTestModel(t)
		b, err := m.factory.Register(m.library, SimpleSource("rule"))
		require.NoError(t, err)
		require.Error(t, b.WithImplementation(m.defaultLib, nil))

		_, err = m.factory.ImplementationInfo(m.library)
		assert.ErrorIs(t, err, ErrNoImplementation)
	})
}

func TestWithInternalView(t *testing.T) {
	t.Run("non-interface rejected", func(t *testing.T) {
		m := newTestModel(t)
		b, err := m.factory.Register(m.library, SimpleSource("rule"))
		require.NoError(t, err)
		err = b.WithInternalView(m.defaultLib)
		require.ErrorIs(t, err, ErrInvalidInternalView)
		assert.ErrorContains(t, err, "must be an interface")
	})

	t.Run("unmanaged view on managed type rejected", func(t *testing.T) {
		m := newTestModel(t)
		managed := m.universe.MustDeclare(modeltype.Spec{
			Name: "ManagedLib", Kind: modeltype.Interface, Managed: true,
			Supertypes: []*modeltype.Type{m.library},
		})

		b, err := m.factory.Register(managed, SimpleSource("rule"))
		require.NoError(t, err)
		err = b.WithInternalView(m.libInternal)
		require.ErrorIs(t, err, ErrInvalidInternalView)
		assert.ErrorContains(t, err, "must be managed")
	})

	t.Run("managed view on managed type accepted", func(t *testing.T) {
		m := newTestModel(t)
		managed := m.universe.MustDeclare(modeltype.Spec{
			Name: "ManagedLib", Kind: modeltype.Interface, Managed: true,
			Supertypes: []*modeltype.Type{m.library},
		})
		managedView := m.universe.MustDeclare(modeltype.Spec{
			Name: "ManagedView", Kind: modeltype.Interface, Managed: true,
		})

		b, err := m.factory.Register(managed, SimpleSource("rule"))
		require.NoError(t, err)
		assert.NoError(t, b.WithInternalView(managedView))
	})

	t.Run("duplicates permitted", func(t *testing.T) {
		m := newTestModel(t)
		b, err := m.factory.Register(m.library, SimpleSource("rule"))
		require.NoError(t, err)
		require.NoError(t, b.WithInternalView(m.libInternal))
		require.NoError(t, b.WithInternalView(m.libInternal))

		// The aggregated view set still collapses to one.
		assert.Len(t, m.factory.InternalViews(m.library), 1)
	})
}

func TestRegisterType_Bulk(t *testing.T) {
	t.Run("implementation then views", func(t *testing.T) {
		m := newTestModel(t)
		err := m.factory.RegisterType(m.library, []*modeltype.Type{m.libInternal}, m.defaultLib, newLibraryInstance, SimpleSource("bulk rule"))
		require.NoError(t, err)

		info, err := m.factory.ImplementationInfo(m.library)
		require.NoError(t, err)
		assert.Same(t, m.defaultLib, info.DelegateType())
		assert.Equal(t, []*modeltype.Type{m.libInternal}, m.factory.InternalViews(m.library))
	})

	t.Run("views only", func(t *testing.T) {
		m := newTestModel(t)
		err := m.factory.RegisterType(m.library, []*modeltype.Type{m.libInternal}, nil, nil, SimpleSource("bulk rule"))
		require.NoError(t, err)

		_, err = m.factory.ImplementationInfo(m.library)
		assert.ErrorIs(t, err, ErrNoImplementation)
	})

	t.Run("first violation aborts", func(t *testing.T) {
		m := newTestModel(t)
		err := m.factory.RegisterType(m.library, []*modeltype.Type{m.libInternal}, m.defaultLib, nil, SimpleSource("bulk rule"))
		require.ErrorIs(t, err, ErrInvalidImplementation)
		assert.Empty(t, m.factory.InternalViews(m.library))
	})
}

func TestFrozenAfterValidation(t *testing.T) {
	m := newTestModel(t)
	b, err := m.factory.Register(m.library, SimpleSource("rule"))
	require.NoError(t, err)
	require.NoError(t, b.WithImplementation(m.defaultLib, newLibraryInstance))
	require.NoError(t, m.factory.ValidateRegistrations(context.Background()))

	_, err = m.factory.Register(m.base, SimpleSource("late rule"))
	assert.ErrorIs(t, err, ErrFrozen)

	// A builder created before the freeze cannot write either.
	assert.ErrorIs(t, b.WithInternalView(m.libInternal), ErrFrozen)
	assert.ErrorIs(t, b.WithImplementation(m.defaultLib, newLibraryInstance), ErrFrozen)
}
