package world

import (
	"iter"

	"github.com/TheBitDrifter/bark"
)

// arrayKey identifies one entity's storage for one array type in the
// World's array side table.
type arrayKey struct {
	entity EntityID
	id     ArrayID
}

// World owns a Schema, a population of entities, and the chunks that
// store their component data. All structural mutation — adding or
// removing a component, array, or tag — is expressed as a row migration
// between chunks.
type World struct {
	schema   *Schema
	chunkMap *ChunkMap

	slots    []entitySlot
	freeHead int // -1 when the free list is empty

	references []EntityID

	arrays map[arrayKey][]byte

	events WorldEvents
}

// NewWorld returns an empty World bound to schema. The World does not
// take ownership of further Schema mutation: registering new types on
// schema after entities exist is legal but newly registered IDs cannot
// retroactively appear on existing chunks.
func NewWorld(schema *Schema) *World {
	return &World{
		schema:     schema,
		chunkMap:   NewChunkMap(schema),
		slots:      []entitySlot{{}}, // index 0 reserved, never a live entity
		freeHead:   -1,
		references: []EntityID{},
		arrays:     make(map[arrayKey][]byte),
		events:     Config.worldEvents,
	}
}

// Schema returns the World's Schema.
func (w *World) Schema() *Schema { return w.schema }

// CreateEntity allocates a new entity with no components, arrays, or
// tags, placing it in the default chunk.
func (w *World) CreateEntity() EntityID {
	var id EntityID
	if w.freeHead != -1 {
		idx := w.freeHead
		w.freeHead = w.slots[idx].nextFree
		id = EntityID(idx)
	} else {
		w.slots = append(w.slots, entitySlot{})
		id = EntityID(len(w.slots) - 1)
	}

	slot := &w.slots[id]
	gen := slot.generation
	*slot = entitySlot{generation: gen}
	slot.state = StateActive
	slot.chunk = w.chunkMap.Default()
	slot.row = slot.chunk.addEntity(id)

	if w.events.OnEntityCreated != nil {
		w.events.OnEntityCreated(id)
	}
	return id
}

// Alive reports whether id names a currently live entity.
func (w *World) Alive(id EntityID) bool {
	if id == 0 || int(id) >= len(w.slots) {
		return false
	}
	return w.slots[id].state == StateActive
}

func (w *World) checkAlive(id EntityID) *entitySlot {
	if !w.Alive(id) {
		panic(bark.AddTrace(NoSuchEntityError{ID: id}))
	}
	return &w.slots[id]
}

// DestroyEntity removes id and all its children (recursively), reclaims
// its chunk row, and returns the slot to the free list. Returns
// NoSuchEntityError if id is not currently alive (panicking instead in
// debug mode, see Config.SetDebugAsserts).
func (w *World) DestroyEntity(id EntityID) error {
	if !w.Alive(id) {
		return fail(NoSuchEntityError{ID: id})
	}
	slot := &w.slots[id]
	for slot.childCount > 0 {
		child := w.firstChildOrZero(id)
		_ = w.DestroyEntity(child)
		slot = &w.slots[id]
	}
	if slot.parent != 0 {
		w.detachFromParent(id)
	}
	w.removeRow(id)

	// References for destroyed entities are left in place rather than
	// compacted: the references vector is append-only, and every other
	// live entity's (referenceStart, referenceCount) slice is an offset
	// into it that a mid-vector compaction would have to rewrite.
	slot = &w.slots[id]
	slot.referenceStart = 0
	slot.referenceCount = 0
	slot.state = StateFree
	slot.chunk = nil
	slot.generation++
	slot.nextFree = w.freeHead
	w.freeHead = int(id)

	if w.events.OnEntityDestroyed != nil {
		w.events.OnEntityDestroyed(id)
	}
	return nil
}

// removeRow deletes id's row from its chunk, fixing up the slot of
// whatever entity got swapped into its place.
func (w *World) removeRow(id EntityID) {
	slot := &w.slots[id]
	moved := slot.chunk.removeAt(slot.row)
	if moved != 0 {
		w.slots[moved].row = slot.row
	}
}

// migrate moves id's row from its current chunk to dest, preserving the
// bytes of every component both chunks share.
func (w *World) migrate(id EntityID, dest *Chunk) {
	slot := &w.slots[id]
	src := slot.chunk
	if src == dest {
		return
	}
	newRow := dest.addEntity(id)
	copyRowInto(dest, newRow, src, slot.row)

	moved := src.removeAt(slot.row)
	if moved != 0 && moved != id {
		w.slots[moved].row = slot.row
	}

	if w.events.OnMigrate != nil {
		w.events.OnMigrate(id, src.def, dest.def)
	}
	slot.chunk = dest
	slot.row = newRow
}

// Entities iterates every live EntityID in no particular order.
func (w *World) Entities() iter.Seq[EntityID] {
	return func(yield func(EntityID) bool) {
		for i := 1; i < len(w.slots); i++ {
			if w.slots[i].state == StateActive {
				if !yield(EntityID(i)) {
					return
				}
			}
		}
	}
}

// Clear destroys every entity and empties the chunk map back to just
// the default chunk.
func (w *World) Clear() {
	w.slots = []entitySlot{{}}
	w.freeHead = -1
	w.references = w.references[:0]
	w.arrays = make(map[arrayKey][]byte)
	w.chunkMap.Clear()
}

// --- component access -------------------------------------------------

// definitionOf returns the Definition of the chunk id currently lives
// in.
func (w *World) definitionOf(id EntityID) Definition {
	return w.checkAlive(id).chunk.def
}

// hasComponent reports whether id's chunk carries component cid.
func (w *World) hasComponent(id EntityID, cid ComponentID) bool {
	return w.checkAlive(id).chunk.def.Components.Contains(int(cid))
}

// componentBytes returns the raw bytes backing component cid on id, or
// nil if not present. The returned slice aliases chunk storage and is
// invalidated by any structural mutation of id's chunk.
func (w *World) componentBytes(id EntityID, cid ComponentID) []byte {
	slot := w.checkAlive(id)
	return slot.chunk.componentBytes(slot.row, cid)
}

// addComponent migrates id into the chunk that adds cid to its current
// Definition (a no-op if already present) and returns the zero-valued
// bytes for cid in the new chunk.
func (w *World) addComponent(id EntityID, cid ComponentID) []byte {
	slot := w.checkAlive(id)
	if slot.chunk.def.Components.Contains(int(cid)) {
		return slot.chunk.componentBytes(slot.row, cid)
	}
	dest := w.chunkMap.GetOrCreate(slot.chunk.def.WithComponent(cid))
	w.migrate(id, dest)
	slot = &w.slots[id]
	return slot.chunk.componentBytes(slot.row, cid)
}

// removeComponent migrates id into the chunk that removes cid from its
// current Definition. No-op if cid was not present.
func (w *World) removeComponent(id EntityID, cid ComponentID) {
	slot := w.checkAlive(id)
	if !slot.chunk.def.Components.Contains(int(cid)) {
		return
	}
	dest := w.chunkMap.GetOrCreate(slot.chunk.def.WithoutComponent(cid))
	w.migrate(id, dest)
}

// --- tag access ---------------------------------------------------------

// hasTag reports whether id's chunk carries tag tid.
func (w *World) hasTag(id EntityID, tid TagID) bool {
	return w.checkAlive(id).chunk.def.Tags.Contains(int(tid))
}

// addTag migrates id into the chunk that adds tag tid.
func (w *World) addTag(id EntityID, tid TagID) {
	slot := w.checkAlive(id)
	if slot.chunk.def.Tags.Contains(int(tid)) {
		return
	}
	dest := w.chunkMap.GetOrCreate(slot.chunk.def.WithTag(tid))
	w.migrate(id, dest)
	if tid == DisabledTag {
		w.propagateDisabled(id)
	}
}

// removeTag migrates id into the chunk that removes tag tid.
func (w *World) removeTag(id EntityID, tid TagID) {
	slot := w.checkAlive(id)
	if !slot.chunk.def.Tags.Contains(int(tid)) {
		return
	}
	dest := w.chunkMap.GetOrCreate(slot.chunk.def.WithoutTag(tid))
	w.migrate(id, dest)
	if tid == DisabledTag {
		w.propagateDisabled(id)
	}
}

// Disabled reports whether id itself carries the Disabled tag or
// descends from an ancestor that does.
func (w *World) Disabled(id EntityID) bool {
	slot := w.checkAlive(id)
	return slot.chunk.def.Tags.Contains(int(DisabledTag)) || slot.disabledByAncestor()
}

// SetEnabled sets or clears the built-in Disabled tag on id. A disabled
// entity, and every entity descending from it, report Disabled() true
// and are skipped by queries built with Query.ExcludeDisabled. Returns
// NoSuchEntityError if id is not currently alive.
func (w *World) SetEnabled(id EntityID, enabled bool) error {
	if !w.Alive(id) {
		return fail(NoSuchEntityError{ID: id})
	}
	if enabled {
		w.removeTag(id, DisabledTag)
	} else {
		w.addTag(id, DisabledTag)
	}
	return nil
}

func (w *World) propagateDisabled(id EntityID) {
	for child := w.firstChildOrZero(id); child != 0; child = w.nextSiblingOrZero(child) {
		w.slots[child].setDisabledByAncestor(w.Disabled(id))
		w.propagateDisabled(child)
	}
}

// --- arrays ---------------------------------------------------------------

// hasArray reports whether id's chunk carries array aid.
func (w *World) hasArray(id EntityID, aid ArrayID) bool {
	return w.checkAlive(id).chunk.def.Arrays.Contains(int(aid))
}

// arrayBytes returns the raw backing bytes for array aid on id, or nil
// if not present.
func (w *World) arrayBytes(id EntityID, aid ArrayID) []byte {
	w.checkAlive(id)
	return w.arrays[arrayKey{id, aid}]
}

// setArrayBytes migrates id (if needed) into the chunk that adds array
// aid, and replaces its backing bytes wholesale.
func (w *World) setArrayBytes(id EntityID, aid ArrayID, data []byte) {
	slot := w.checkAlive(id)
	if !slot.chunk.def.Arrays.Contains(int(aid)) {
		dest := w.chunkMap.GetOrCreate(slot.chunk.def.WithArray(aid))
		w.migrate(id, dest)
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	w.arrays[arrayKey{id, aid}] = buf
}

// resizeArray replaces id's array aid with a buffer of newLength
// elements, preserving existing contents up to the shorter of the old
// and new lengths and zero-filling any growth. Migrates id into the
// chunk that carries aid if it doesn't already.
func (w *World) resizeArray(id EntityID, aid ArrayID, newLength int) {
	elemSize := w.schema.ArraySize(aid)
	old := w.arrayBytes(id, aid)
	buf := make([]byte, newLength*elemSize)
	copy(buf, old)
	w.setArrayBytes(id, aid, buf)
}

// setArrayElementBytes overwrites aid's backing bytes starting at
// element index with data, clipping to the array's current length. No-op
// if id does not carry aid.
func (w *World) setArrayElementBytes(id EntityID, aid ArrayID, index int, data []byte) {
	b := w.arrayBytes(id, aid)
	if b == nil {
		return
	}
	elemSize := w.schema.ArraySize(aid)
	start := index * elemSize
	if start < 0 || start >= len(b) {
		return
	}
	end := start + len(data)
	if end > len(b) {
		end = len(b)
	}
	copy(b[start:end], data[:end-start])
}

// removeArray migrates id into the chunk that removes array aid and
// drops its side-table entry.
func (w *World) removeArray(id EntityID, aid ArrayID) {
	slot := w.checkAlive(id)
	if !slot.chunk.def.Arrays.Contains(int(aid)) {
		return
	}
	dest := w.chunkMap.GetOrCreate(slot.chunk.def.WithoutArray(aid))
	w.migrate(id, dest)
	delete(w.arrays, arrayKey{id, aid})
}

// --- references ------------------------------------------------------------

// AddReference appends target to id's reference slice and returns the
// RInt local handle addressing it. Returns NoSuchEntityError if either
// id or target is not currently alive.
func (w *World) AddReference(id EntityID, target EntityID) (RInt, error) {
	if !w.Alive(id) {
		return 0, fail(NoSuchEntityError{ID: id})
	}
	if !w.Alive(target) {
		return 0, fail(NoSuchEntityError{ID: target})
	}
	slot := &w.slots[id]
	if slot.referenceCount == 0 {
		slot.referenceStart = len(w.references)
	}
	w.references = append(w.references, target)
	slot.referenceCount++
	return RInt(slot.referenceCount), nil
}

// GetReference resolves r (1-based, as returned by AddReference) to the
// EntityID it names on id. Returns InvalidReferenceError if r does not
// name a live reference slot on id, or NoSuchEntityError if id is not
// alive.
func (w *World) GetReference(id EntityID, r RInt) (EntityID, error) {
	if !w.Alive(id) {
		return 0, fail(NoSuchEntityError{ID: id})
	}
	slot := &w.slots[id]
	if r == 0 || int(r) > slot.referenceCount {
		return 0, fail(InvalidReferenceError{Entity: id, RInt: r})
	}
	target := w.references[slot.referenceStart+int(r)-1]
	if target == 0 {
		return 0, fail(InvalidReferenceError{Entity: id, RInt: r})
	}
	return target, nil
}

// RemoveReference clears the EntityID named by r on id, leaving the slot
// in place (later GetReference(id, r) calls for it will fail with
// InvalidReferenceError) so that every other reference's RInt keeps
// addressing the same slot.
func (w *World) RemoveReference(id EntityID, r RInt) error {
	if !w.Alive(id) {
		return fail(NoSuchEntityError{ID: id})
	}
	slot := &w.slots[id]
	if r == 0 || int(r) > slot.referenceCount {
		return fail(InvalidReferenceError{Entity: id, RInt: r})
	}
	w.references[slot.referenceStart+int(r)-1] = 0
	return nil
}

// ReferenceCount returns how many references id holds.
func (w *World) ReferenceCount(id EntityID) int {
	return w.checkAlive(id).referenceCount
}

// References returns the live targets of every reference id holds, in
// the order they were added. A reference cleared by RemoveReference is
// omitted.
func (w *World) References(id EntityID) []EntityID {
	slot := w.checkAlive(id)
	if slot.referenceCount == 0 {
		return nil
	}
	out := make([]EntityID, 0, slot.referenceCount)
	for i := 0; i < slot.referenceCount; i++ {
		if target := w.references[slot.referenceStart+i]; target != 0 {
			out = append(out, target)
		}
	}
	return out
}

// --- hierarchy ---------------------------------------------------------------

// SetParent attaches child under parent, detaching any previous parent.
// SetParent(child, 0) detaches child to be a root. Returns
// CycleInHierarchyError if parent is child or descends from child.
func (w *World) SetParent(child, parent EntityID) error {
	if !w.Alive(child) {
		return fail(NoSuchEntityError{ID: child})
	}
	if parent != 0 {
		if !w.Alive(parent) {
			return fail(NoSuchEntityError{ID: parent})
		}
		if parent == child || w.isAncestor(child, parent) {
			return fail(CycleInHierarchyError{Child: child, Parent: parent})
		}
	}
	if w.slots[child].parent != 0 {
		w.detachFromParent(child)
	}
	if parent != 0 {
		w.attachToParent(child, parent)
	}
	w.slots[child].setDisabledByAncestor(parent != 0 && w.Disabled(parent))
	w.propagateDisabled(child)
	return nil
}

// Parent returns id's parent, or 0 if id is a root.
func (w *World) Parent(id EntityID) EntityID {
	return w.checkAlive(id).parent
}

// Depth returns id's hierarchy depth (0 for roots).
func (w *World) Depth(id EntityID) int {
	return w.checkAlive(id).depth
}

// ChildCount returns the number of direct children id has.
func (w *World) ChildCount(id EntityID) int {
	return w.checkAlive(id).childCount
}

// Children iterates id's direct children.
func (w *World) Children(id EntityID) iter.Seq[EntityID] {
	w.checkAlive(id)
	return func(yield func(EntityID) bool) {
		for c := w.firstChildOrZero(id); c != 0; {
			next := w.nextSiblingOrZero(c)
			if !yield(c) {
				return
			}
			c = next
		}
	}
}

func (w *World) isAncestor(ancestor, id EntityID) bool {
	for p := w.slots[id].parent; p != 0; p = w.slots[p].parent {
		if p == ancestor {
			return true
		}
	}
	return false
}

// firstChildOrZero returns id's first child, or 0 if it has none. Child
// and sibling links are kept directly on the slot rather than in the
// array side table.
func (w *World) firstChildOrZero(id EntityID) EntityID {
	return w.slots[id].firstChild
}

func (w *World) nextSiblingOrZero(id EntityID) EntityID {
	return w.slots[id].nextSibling
}

func (w *World) attachToParent(child, parent EntityID) {
	cs := &w.slots[child]
	ps := &w.slots[parent]
	cs.parent = parent
	cs.nextSibling = ps.firstChild
	if ps.firstChild != 0 {
		w.slots[ps.firstChild].prevSibling = child
	}
	ps.firstChild = child
	ps.childCount++
	w.setDepth(child, ps.depth+1)
}

func (w *World) detachFromParent(child EntityID) {
	cs := &w.slots[child]
	parent := cs.parent
	ps := &w.slots[parent]

	if cs.prevSibling != 0 {
		w.slots[cs.prevSibling].nextSibling = cs.nextSibling
	} else {
		ps.firstChild = cs.nextSibling
	}
	if cs.nextSibling != 0 {
		w.slots[cs.nextSibling].prevSibling = cs.prevSibling
	}
	ps.childCount--

	cs.parent = 0
	cs.nextSibling = 0
	cs.prevSibling = 0
	w.setDepth(child, 0)
}

// setDepth sets id's cached depth and recursively cascades the update
// through every descendant, keeping each one depth+1 relative to its own
// parent. Reparenting a subtree (SetParent on an entity that already has
// children of its own) would otherwise leave every descendant's cached
// Depth() stale.
func (w *World) setDepth(id EntityID, depth int) {
	slot := &w.slots[id]
	slot.depth = depth
	for c := slot.firstChild; c != 0; c = w.slots[c].nextSibling {
		w.setDepth(c, depth+1)
	}
}
