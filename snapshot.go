package world

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"sort"
)

const definitionSnapshotSize = tagsMaskSize * 3 // Components + Arrays + Tags masks

func putDefinition(dst []byte, d Definition) {
	putBitMask(dst, d.Components)
	putBitMask(dst[tagsMaskSize:], d.Arrays)
	putBitMask(dst[2*tagsMaskSize:], d.Tags)
}

func getDefinition(src []byte) Definition {
	return Definition{
		Components: getBitMask(src),
		Arrays:     getBitMask(src[tagsMaskSize:]),
		Tags:       getBitMask(src[2*tagsMaskSize:]),
	}
}

// Snapshot encodes the full World state — Schema, every chunk's rows,
// the array side table, the reference vector, and per-entity hierarchy
// metadata needed to reconstruct parent/child links and reference
// slices — into a single byte slice.
//
// This goes beyond the chunk-and-row layout alone: without also
// persisting generation counters, parent/depth, and reference offsets,
// a restored World could not reproduce SetParent or AddReference state,
// so an entity-metadata block is appended after the reference vector.
func (w *World) Snapshot() []byte {
	var buf bytes.Buffer

	schemaBytes := w.schema.Snapshot()
	buf.Write(schemaBytes)

	chunks := w.chunkMap.Chunks()
	sort.Slice(chunks, func(i, j int) bool {
		return definitionLess(chunks[i].def, chunks[j].def)
	})

	writeU32(&buf, uint32(len(chunks)))
	for _, c := range chunks {
		// Errors are unreachable here: buf is an in-memory bytes.Buffer,
		// whose Write never fails.
		_ = c.Snapshot(&buf)
	}

	// Array side table: count, then (entity, arrayID, byteLen, data)*.
	writeU32(&buf, uint32(len(w.arrays)))
	keys := make([]arrayKey, 0, len(w.arrays))
	for k := range w.arrays {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].entity != keys[j].entity {
			return keys[i].entity < keys[j].entity
		}
		return keys[i].id < keys[j].id
	})
	for _, k := range keys {
		data := w.arrays[k]
		writeU32(&buf, uint32(k.entity))
		writeU16(&buf, uint16(k.id))
		writeU32(&buf, uint32(len(data)))
		buf.Write(data)
	}

	// Reference vector, verbatim.
	writeU32(&buf, uint32(len(w.references)))
	for _, r := range w.references {
		writeU32(&buf, uint32(r))
	}

	// Per-entity metadata, one record per live slot.
	live := make([]EntityID, 0)
	for e := range w.Entities() {
		live = append(live, e)
	}
	writeU32(&buf, uint32(len(live)))
	for _, e := range live {
		s := &w.slots[e]
		writeU32(&buf, uint32(e))
		writeU16(&buf, s.generation)
		writeU32(&buf, uint32(s.parent))
		writeU32(&buf, uint32(s.depth))
		buf.WriteByte(s.flags)
		writeU32(&buf, uint32(s.referenceStart))
		writeU32(&buf, uint32(s.referenceCount))
	}

	return buf.Bytes()
}

// LoadWorldSnapshot reconstructs a World from a Snapshot. The returned
// World has its own Schema, loaded from the embedded schema snapshot.
func LoadWorldSnapshot(data []byte) (*World, error) {
	if len(data) < schemaSnapshotSize {
		return nil, OutOfRangeError{What: "world snapshot length", Index: len(data)}
	}
	schema, err := LoadSchemaSnapshot(data[:schemaSnapshotSize])
	if err != nil {
		return nil, err
	}
	r := bytes.NewReader(data[schemaSnapshotSize:])

	w := NewWorld(schema)
	w.chunkMap.Clear()

	chunkCount, err := readU32(r)
	if err != nil {
		return nil, err
	}

	type pendingChunk struct {
		chunk    *Chunk
		entities []EntityID
	}
	var pending []pendingChunk
	maxEntity := EntityID(0)

	for i := uint32(0); i < chunkCount; i++ {
		var defBytes [definitionSnapshotSize]byte
		if _, err := r.Read(defBytes[:]); err != nil {
			return nil, fmt.Errorf("reading chunk definition: %w", err)
		}
		def := getDefinition(defBytes[:])

		entCount, err := readU32(r)
		if err != nil {
			return nil, err
		}
		entities := make([]EntityID, entCount)
		for j := range entities {
			v, err := readU32(r)
			if err != nil {
				return nil, err
			}
			entities[j] = EntityID(v)
			if entities[j] > maxEntity {
				maxEntity = entities[j]
			}
		}

		chunk := w.chunkMap.GetOrCreate(def)
		for _, e := range entities {
			chunk.addEntity(e)
		}

		for id := range def.Components.Indices() {
			cid := ComponentID(id)
			size := chunk.size[id]
			for row := range entities {
				b := chunk.componentBytes(row, cid)
				if _, err := r.Read(b[:size]); err != nil {
					return nil, fmt.Errorf("reading component bytes: %w", err)
				}
			}
		}

		pending = append(pending, pendingChunk{chunk: chunk, entities: entities})
	}

	// Grow the slot table to cover every referenced entity before
	// wiring in chunk/row pointers.
	for EntityID(len(w.slots)) <= maxEntity {
		w.slots = append(w.slots, entitySlot{})
	}
	for _, pc := range pending {
		for row, e := range pc.entities {
			w.slots[e].chunk = pc.chunk
			w.slots[e].row = row
			w.slots[e].state = StateActive
		}
	}

	arrayCount, err := readU32(r)
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < arrayCount; i++ {
		entV, err := readU32(r)
		if err != nil {
			return nil, err
		}
		aidV, err := readU16(r)
		if err != nil {
			return nil, err
		}
		lenV, err := readU32(r)
		if err != nil {
			return nil, err
		}
		data := make([]byte, lenV)
		if _, err := r.Read(data); err != nil {
			return nil, fmt.Errorf("reading array bytes: %w", err)
		}
		w.arrays[arrayKey{entity: EntityID(entV), id: ArrayID(aidV)}] = data
	}

	refCount, err := readU32(r)
	if err != nil {
		return nil, err
	}
	w.references = make([]EntityID, refCount)
	for i := range w.references {
		v, err := readU32(r)
		if err != nil {
			return nil, err
		}
		w.references[i] = EntityID(v)
	}

	metaCount, err := readU32(r)
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < metaCount; i++ {
		idV, err := readU32(r)
		if err != nil {
			return nil, err
		}
		gen, err := readU16(r)
		if err != nil {
			return nil, err
		}
		parentV, err := readU32(r)
		if err != nil {
			return nil, err
		}
		depthV, err := readU32(r)
		if err != nil {
			return nil, err
		}
		flags, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		refStart, err := readU32(r)
		if err != nil {
			return nil, err
		}
		refCnt, err := readU32(r)
		if err != nil {
			return nil, err
		}

		e := EntityID(idV)
		s := &w.slots[e]
		s.generation = gen
		s.parent = EntityID(parentV)
		s.depth = int(depthV)
		s.flags = flags
		s.referenceStart = int(refStart)
		s.referenceCount = int(refCnt)
	}

	// Re-derive sibling links from parent alone, since those aren't
	// persisted directly.
	for e := range w.Entities() {
		parent := w.slots[e].parent
		if parent == 0 {
			continue
		}
		ps := &w.slots[parent]
		w.slots[e].nextSibling = ps.firstChild
		if ps.firstChild != 0 {
			w.slots[ps.firstChild].prevSibling = e
		}
		ps.firstChild = e
		ps.childCount++
	}

	return w, nil
}

func definitionLess(a, b Definition) bool {
	for i := 0; i < bitMaskWords; i++ {
		if a.Components[i] != b.Components[i] {
			return a.Components[i] < b.Components[i]
		}
	}
	for i := 0; i < bitMaskWords; i++ {
		if a.Arrays[i] != b.Arrays[i] {
			return a.Arrays[i] < b.Arrays[i]
		}
	}
	for i := 0; i < bitMaskWords; i++ {
		if a.Tags[i] != b.Tags[i] {
			return a.Tags[i] < b.Tags[i]
		}
	}
	return false
}

func writeU32(w io.Writer, v uint32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	_, err := w.Write(b[:])
	return err
}

func writeU16(w io.Writer, v uint16) error {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	_, err := w.Write(b[:])
	return err
}

func readU32(r *bytes.Reader) (uint32, error) {
	var b [4]byte
	if _, err := r.Read(b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

func readU16(r *bytes.Reader) (uint16, error) {
	var b [2]byte
	if _, err := r.Read(b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b[:]), nil
}
