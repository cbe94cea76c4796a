package world

import "fmt"

// SimpleCache is a small append-only, string-keyed cache. ComponentType,
// ArrayType, and TagType registration keep one per Go type, keyed by the
// registering Schema's address, so that a repeated call to
// RegisterComponentType[T] with the same Schema skips straight past the
// hashing and Schema lookup that registration otherwise requires.
type SimpleCache[T any] struct {
	items       []T
	itemIndices map[string]int
	maxCapacity int
}

// NewSimpleCache returns a cache that holds at most maxCapacity entries.
func NewSimpleCache[T any](maxCapacity int) *SimpleCache[T] {
	return &SimpleCache[T]{
		itemIndices: make(map[string]int),
		maxCapacity: maxCapacity,
	}
}

// GetIndex returns the slot index registered under key, if any.
func (c *SimpleCache[T]) GetIndex(key string) (int, bool) {
	index, ok := c.itemIndices[key]
	return index, ok
}

// GetItem returns a pointer to the item at index.
func (c *SimpleCache[T]) GetItem(index int) *T {
	return &c.items[index]
}

// Register stores item under key and returns its slot index. Returns an
// error once the cache has reached maxCapacity.
func (c *SimpleCache[T]) Register(key string, item T) (int, error) {
	if existing, ok := c.itemIndices[key]; ok {
		c.items[existing] = item
		return existing, nil
	}
	if len(c.itemIndices) >= c.maxCapacity {
		return -1, fmt.Errorf("cache at maximum capacity (%d)", c.maxCapacity)
	}

	idx := len(c.items)
	c.itemIndices[key] = idx
	c.items = append(c.items, item)

	return idx, nil
}

// Clear empties the cache.
func (c *SimpleCache[T]) Clear() {
	c.items = nil
	c.itemIndices = make(map[string]int)
}
