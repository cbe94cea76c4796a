package world

import "fmt"

// NotRegisteredError is raised as a panic when an operation names a type
// index the Schema has no entry for.
type NotRegisteredError struct {
	Kind string
	ID   int
}

func (e NotRegisteredError) Error() string {
	return fmt.Sprintf("%s id %d is not registered", e.Kind, e.ID)
}

// TooManyTypesError is returned when registration would exceed the 256
// type slots available to a kind.
type TooManyTypesError struct {
	Kind string
}

func (e TooManyTypesError) Error() string {
	return fmt.Sprintf("too many %s types registered (max 256)", e.Kind)
}

// NoSuchEntityError is returned when an entity ID is zero, free, or was
// never issued by this World.
type NoSuchEntityError struct {
	ID EntityID
}

func (e NoSuchEntityError) Error() string {
	return fmt.Sprintf("no such entity: %d", e.ID)
}

// MissingComponentError is raised as a panic by ComponentType.Get when
// the entity's chunk does not carry the requested component.
type MissingComponentError struct {
	Entity EntityID
	ID     ComponentID
}

func (e MissingComponentError) Error() string {
	return fmt.Sprintf("entity %d has no component %d", e.Entity, e.ID)
}

// MissingArrayError is raised as a panic by ArrayType.Get when the
// entity's chunk does not carry the requested array type.
type MissingArrayError struct {
	Entity EntityID
	ID     ArrayID
}

func (e MissingArrayError) Error() string {
	return fmt.Sprintf("entity %d has no array %d", e.Entity, e.ID)
}

// CycleInHierarchyError is returned when SetParent would create a cycle.
type CycleInHierarchyError struct {
	Child, Parent EntityID
}

func (e CycleInHierarchyError) Error() string {
	return fmt.Sprintf("setting parent %d of %d would create a cycle", e.Parent, e.Child)
}

// OutOfRangeError is returned for a BitMask index >= 256 or a chunk row
// past the end of its entity list.
type OutOfRangeError struct {
	What  string
	Index int
}

func (e OutOfRangeError) Error() string {
	return fmt.Sprintf("%s index %d out of range", e.What, e.Index)
}

// DoubleRegistrationError is raised as a panic in debug mode when a type
// hash is registered twice; release mode instead returns the existing ID.
type DoubleRegistrationError struct {
	Kind string
	Hash uint64
}

func (e DoubleRegistrationError) Error() string {
	return fmt.Sprintf("%s type hash %#x already registered", e.Kind, e.Hash)
}

// InvalidReferenceError is returned when an rint does not resolve to a
// live reference slot on the given entity.
type InvalidReferenceError struct {
	Entity EntityID
	RInt   RInt
}

func (e InvalidReferenceError) Error() string {
	return fmt.Sprintf("entity %d has no reference %d", e.Entity, e.RInt)
}
