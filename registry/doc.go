// Package registry is the central "glue" for the component type system.
//
// An InstanceFactory stores, per public type, at most one implementation
// registration and any number of internal view registrations. Registrations
// are contributed by independent plugin rules, possibly loaded in different
// orders, and the factory composes them: a type with no implementation of
// its own can inherit one from an ancestor in its declared hierarchy, and
// internal views aggregate across that same hierarchy.
//
// During application startup the factory is populated and then validated to
// ensure that every registered view is actually satisfied by the governing
// implementation, preventing a wide class of runtime errors. After
// validation the table is frozen and all queries are read-only.
package registry
