package world

import "iter"

// Cursor provides imperative iteration over the entities matching a
// Query, snapshotting the set of matching chunks at Initialize time. It
// is the lower-level counterpart to Query.Each, for callers where a
// range loop doesn't fit.
type Cursor struct {
	query *Query
	world *World

	matchedChunks []*Chunk
	chunkIndex    int
	entityIndex   int

	initialized bool
}

func newCursor(query *Query, world *World) *Cursor {
	return &Cursor{query: query, world: world}
}

// Initialize snapshots the chunks currently matching the cursor's
// query. Safe to call more than once; later calls are no-ops until
// Reset.
func (c *Cursor) Initialize() {
	if c.initialized {
		return
	}
	c.matchedChunks = c.query.matchingChunks(c.world)
	c.chunkIndex = 0
	c.entityIndex = -1
	c.initialized = true
}

// Reset clears cursor state so the next Initialize re-snapshots the
// matching chunks.
func (c *Cursor) Reset() {
	c.matchedChunks = nil
	c.chunkIndex = 0
	c.entityIndex = -1
	c.initialized = false
}

// Next advances the cursor to the next matching entity (skipping
// disabled entities if the query has ExcludeDisabled set) and reports
// whether one was found.
func (c *Cursor) Next() bool {
	c.Initialize()
	for {
		c.entityIndex++
		for c.chunkIndex < len(c.matchedChunks) && c.entityIndex >= len(c.matchedChunks[c.chunkIndex].entities) {
			c.chunkIndex++
			c.entityIndex = 0
		}
		if c.chunkIndex >= len(c.matchedChunks) {
			return false
		}
		e := c.matchedChunks[c.chunkIndex].entities[c.entityIndex]
		if c.query.excludeDisable && c.world.Disabled(e) {
			continue
		}
		return true
	}
}

// CurrentEntity returns the entity at the cursor's current position.
// Valid only after Next has returned true.
func (c *Cursor) CurrentEntity() EntityID {
	return c.matchedChunks[c.chunkIndex].entities[c.entityIndex]
}

// Entities returns an iter.Seq2 over (chunk, row) pairs for every
// matching entity, for callers that want direct chunk/row access
// instead of per-entity dispatch.
func (c *Cursor) Entities() iter.Seq2[*Chunk, int] {
	return func(yield func(*Chunk, int) bool) {
		c.Initialize()
		for _, chunk := range c.matchedChunks {
			for row := range chunk.entities {
				e := chunk.entities[row]
				if c.query.excludeDisable && c.world.Disabled(e) {
					continue
				}
				if !yield(chunk, row) {
					c.Reset()
					return
				}
			}
		}
		c.Reset()
	}
}

// TotalMatched returns the total entity count across every matching
// chunk, ignoring ExcludeDisabled.
func (c *Cursor) TotalMatched() int {
	c.Initialize()
	total := 0
	for _, chunk := range c.matchedChunks {
		total += chunk.Len()
	}
	return total
}
