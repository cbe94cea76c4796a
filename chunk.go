package world

import (
	"io"

	"github.com/TheBitDrifter/bark"
)

// chunkInitialCapacity is the number of entity slots a freshly created
// Chunk reserves before its first resize.
const chunkInitialCapacity = 8

// Chunk is a row-packed store for every entity sharing one exact
// Definition. Each entity's full component set is stored contiguously as
// one row in rows; offset and size locate a given component's bytes
// within a row. Arrays and tags carry no bytes in the row: arrays live
// in the World's per-entity array side table, and tags are implied by
// the Definition itself.
type Chunk struct {
	schema *Schema
	def    Definition

	entities []EntityID
	rows     []byte
	stride   int

	offset [MaxTypesPerKind]int
	size   [MaxTypesPerKind]int
}

// newChunk builds a Chunk for def, laying out component offsets in
// ascending ID order.
func newChunk(schema *Schema, def Definition) *Chunk {
	c := &Chunk{schema: schema, def: def}
	off := 0
	for id := range def.Components.Indices() {
		sz := schema.ComponentSize(ComponentID(id))
		c.offset[id] = off
		c.size[id] = sz
		off += sz
	}
	c.stride = off
	c.entities = make([]EntityID, 0, chunkInitialCapacity)
	c.rows = make([]byte, 0, chunkInitialCapacity*off)
	return c
}

// Len returns the number of entities currently stored in the chunk.
func (c *Chunk) Len() int { return len(c.entities) }

// Definition returns the chunk's signature.
func (c *Chunk) Definition() Definition { return c.def }

// Entities returns the chunk's entity list by row index. Callers must
// not retain the slice across a structural mutation of the chunk.
func (c *Chunk) Entities() []EntityID { return c.entities }

// addEntity appends id as a new, zero-valued row and returns its row
// index.
func (c *Chunk) addEntity(id EntityID) int {
	row := len(c.entities)
	c.entities = append(c.entities, id)
	c.rows = append(c.rows, make([]byte, c.stride)...)
	return row
}

// removeAt deletes the row at index row by swapping the last row into
// its place (if it wasn't already last) and shrinking by one. It
// reports the EntityID that was moved into row, or 0 if row was last.
func (c *Chunk) removeAt(row int) (movedEntity EntityID) {
	last := len(c.entities) - 1
	if row < 0 || row > last {
		panic(bark.AddTrace(OutOfRangeError{What: "chunk row", Index: row}))
	}
	if row != last {
		movedEntity = c.entities[last]
		c.entities[row] = movedEntity
		copy(c.rowBytes(row), c.rowBytes(last))
	}
	c.entities = c.entities[:last]
	c.rows = c.rows[:last*c.stride]
	return movedEntity
}

// rowBytes returns the full packed byte range for row.
func (c *Chunk) rowBytes(row int) []byte {
	start := row * c.stride
	return c.rows[start : start+c.stride]
}

// componentBytes returns the byte range of component id within row, or
// nil if the chunk's Definition does not carry id.
func (c *Chunk) componentBytes(row int, id ComponentID) []byte {
	if !c.def.Components.Contains(int(id)) {
		return nil
	}
	start := row*c.stride + c.offset[id]
	return c.rows[start : start+c.size[id]]
}

// Snapshot encodes c's Definition, entity list, and every registered
// component's column into w, in the same per-chunk layout
// World.Snapshot embeds one of per interned chunk.
func (c *Chunk) Snapshot(w io.Writer) error {
	var defBytes [definitionSnapshotSize]byte
	putDefinition(defBytes[:], c.def)
	if _, err := w.Write(defBytes[:]); err != nil {
		return err
	}

	if err := writeU32(w, uint32(len(c.entities))); err != nil {
		return err
	}
	for _, e := range c.entities {
		if err := writeU32(w, uint32(e)); err != nil {
			return err
		}
	}

	for id := range c.def.Components.Indices() {
		cid := ComponentID(id)
		size := c.size[id]
		for row := range c.entities {
			if _, err := w.Write(c.componentBytes(row, cid)[:size]); err != nil {
				return err
			}
		}
	}
	return nil
}

// copyRowInto copies the overlapping component bytes of src's row
// srcRow into dst's row dstRow. Components present in src but absent
// from dst are dropped; components present in dst but absent from src
// are left zero-valued.
func copyRowInto(dst *Chunk, dstRow int, src *Chunk, srcRow int) {
	shared := dst.def.Components.And(src.def.Components)
	for id := range shared.Indices() {
		cid := ComponentID(id)
		copy(dst.componentBytes(dstRow, cid), src.componentBytes(srcRow, cid))
	}
}
