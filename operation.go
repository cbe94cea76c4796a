package world

import (
	"unsafe"

	"github.com/TheBitDrifter/bark"
)

// OpCode enumerates the closed set of instructions an Operation can
// replay. No other mutation can appear in the stream.
type OpCode int

const (
	OpCreateEntity OpCode = iota
	OpSelectEntity
	OpSelectPreviouslyCreated
	OpClearSelection
	OpDestroySelection
	OpSetParent
	OpAddComponent
	OpSetComponent
	OpRemoveComponent
	OpAddTag
	OpRemoveTag
	OpCreateArray
	OpDestroyArray
	OpResizeArray
	OpSetArrayElement
	OpAddReference
	OpRemoveReference
)

// selector names an entity operand resolved only at replay time: either
// a concrete EntityID fixed at build time, or a back-reference to the
// n-th most recent entity created by this same Operation (offset 0 is
// the most recent), resolved against the replay's running created list
// since that entity doesn't exist yet when the instruction is built.
type selector struct {
	concrete    EntityID
	usesCreated bool
	offset      int
}

// instruction is one step of a replayable Operation. Every verb applies
// to the Operation's current selection (the set of entities most
// recently produced by CreateEntity, SelectEntity, or
// SelectPreviouslyCreated) rather than to an operand of its own, except
// for the few opcodes below that name an entity operand directly
// (SetParent's parent, AddReference's target).
type instruction struct {
	op OpCode

	count  int      // OpCreateEntity
	entity EntityID // OpSelectEntity
	offset int      // OpSelectPreviouslyCreated

	parent    selector // OpSetParent
	refTarget selector // OpAddReference

	compID ComponentID
	arrID  ArrayID
	tagID  TagID
	data   []byte // component value bytes, or array element bytes

	length int  // OpCreateArray, OpResizeArray
	index  int  // OpSetArrayElement
	rint   RInt // OpRemoveReference
}

// Operation is a deferred instruction stream: a sequence of structural
// mutations recorded without a World and replayed against one later,
// deterministically and in order. It exists so that mutation decisions
// made while iterating a Query (where mutating the World directly could
// move rows out from under the scan) can be queued up and applied once
// iteration is done.
//
// Every builder method operates on an in-flight selection cursor rather
// than an explicit per-call target: CreateEntity, SelectEntity, and
// SelectPreviouslyCreated replace the selection, and every other verb
// applies to whatever the selection currently holds. This lets one call
// — say, AddComponent after CreateEntity(3) — stamp the same component
// onto every entity the previous selecting call produced.
type Operation struct {
	instructions []instruction
	createdTotal int // total entities created so far, for SelectPreviouslyCreated bounds checking
}

// NewOperation returns an empty Operation.
func NewOperation() *Operation {
	return &Operation{}
}

// CreateEntity records creating count new entities and replaces the
// selection with all of them (most recently created last), so a
// following verb applies to every entity just created.
func (op *Operation) CreateEntity(count int) *Operation {
	op.instructions = append(op.instructions, instruction{op: OpCreateEntity, count: count})
	op.createdTotal += count
	return op
}

// SelectEntity replaces the selection with a single already-existing
// entity.
func (op *Operation) SelectEntity(id EntityID) *Operation {
	op.instructions = append(op.instructions, instruction{op: OpSelectEntity, entity: id})
	return op
}

// SelectPreviouslyCreated replaces the selection with the single entity
// created by the offset-th most recent CreateEntity instruction
// recorded so far (flattening any counts > 1): offset 0 is the most
// recently created entity, offset 1 the one before it, and so on.
// Panics if offset names an entity that hasn't been recorded yet.
func (op *Operation) SelectPreviouslyCreated(offset int) *Operation {
	if offset < 0 || offset >= op.createdTotal {
		panic(bark.AddTrace(OutOfRangeError{What: "operation created-entity offset", Index: offset}))
	}
	op.instructions = append(op.instructions, instruction{op: OpSelectPreviouslyCreated, offset: offset})
	return op
}

// ClearSelection empties the selection, so subsequent verbs (until the
// next selecting call) are no-ops.
func (op *Operation) ClearSelection() *Operation {
	op.instructions = append(op.instructions, instruction{op: OpClearSelection})
	return op
}

// DestroySelection records destroying every entity currently in the
// selection, then empties it.
func (op *Operation) DestroySelection() *Operation {
	op.instructions = append(op.instructions, instruction{op: OpDestroySelection})
	return op
}

// SetParent records attaching every entity in the selection under
// parent. parent 0 detaches to root.
func (op *Operation) SetParent(parent EntityID) *Operation {
	op.instructions = append(op.instructions, instruction{
		op: OpSetParent, parent: selector{concrete: parent},
	})
	return op
}

// SetParentPreviouslyCreated is SetParent, naming the parent by the same
// created-entity back-reference SelectPreviouslyCreated uses.
func (op *Operation) SetParentPreviouslyCreated(offset int) *Operation {
	op.instructions = append(op.instructions, instruction{
		op: OpSetParent, parent: selector{usesCreated: true, offset: offset},
	})
	return op
}

// RemoveComponent records removing component ct from every entity in
// the selection.
func (op *Operation) RemoveComponent(ct interface{ ID() ComponentID }) *Operation {
	op.instructions = append(op.instructions, instruction{
		op: OpRemoveComponent, compID: ct.ID(),
	})
	return op
}

// AddTag records adding tag tt to every entity in the selection.
func (op *Operation) AddTag(tt interface{ ID() TagID }) *Operation {
	op.instructions = append(op.instructions, instruction{
		op: OpAddTag, tagID: tt.ID(),
	})
	return op
}

// RemoveTag records removing tag tt from every entity in the selection.
func (op *Operation) RemoveTag(tt interface{ ID() TagID }) *Operation {
	op.instructions = append(op.instructions, instruction{
		op: OpRemoveTag, tagID: tt.ID(),
	})
	return op
}

// DestroyArray records removing array at from every entity in the
// selection.
func (op *Operation) DestroyArray(at interface{ ID() ArrayID }) *Operation {
	op.instructions = append(op.instructions, instruction{
		op: OpDestroyArray, arrID: at.ID(),
	})
	return op
}

// ResizeArray records resizing array at on every entity in the
// selection to newLength elements, preserving existing contents up to
// the shorter of the old and new lengths and zero-filling any growth.
func (op *Operation) ResizeArray(at interface{ ID() ArrayID }, newLength int) *Operation {
	op.instructions = append(op.instructions, instruction{
		op: OpResizeArray, arrID: at.ID(), length: newLength,
	})
	return op
}

// AddReference records appending target as a reference on every entity
// in the selection.
func (op *Operation) AddReference(target EntityID) *Operation {
	op.instructions = append(op.instructions, instruction{
		op: OpAddReference, refTarget: selector{concrete: target},
	})
	return op
}

// AddReferencePreviouslyCreated is AddReference, naming the target by
// the same created-entity back-reference SelectPreviouslyCreated uses.
func (op *Operation) AddReferencePreviouslyCreated(offset int) *Operation {
	op.instructions = append(op.instructions, instruction{
		op: OpAddReference, refTarget: selector{usesCreated: true, offset: offset},
	})
	return op
}

// RemoveReference records clearing reference r on every entity in the
// selection.
func (op *Operation) RemoveReference(r RInt) *Operation {
	op.instructions = append(op.instructions, instruction{
		op: OpRemoveReference, rint: r,
	})
	return op
}

// AddComponent records adding component ct with value to every entity in
// the selection. A package-level function, since Go methods cannot
// introduce their own type parameters.
func AddComponent[T any](op *Operation, ct ComponentType[T], value T) *Operation {
	op.instructions = append(op.instructions, instruction{
		op: OpAddComponent, compID: ct.ID(), data: valueToBytes(value),
	})
	return op
}

// SetComponent records overwriting component ct's value on every entity
// in the selection that already carries it, without adding it to
// entities that don't (use AddComponent for that).
func SetComponent[T any](op *Operation, ct ComponentType[T], value T) *Operation {
	op.instructions = append(op.instructions, instruction{
		op: OpSetComponent, compID: ct.ID(), data: valueToBytes(value),
	})
	return op
}

// CreateArray records creating array at with length zero-valued elements
// on every entity in the selection.
func CreateArray[T any](op *Operation, at ArrayType[T], length int) *Operation {
	op.instructions = append(op.instructions, instruction{
		op: OpCreateArray, arrID: at.ID(), length: length,
	})
	return op
}

// CreateArrayWithValues records creating array at on every entity in the
// selection, initialized with values.
func CreateArrayWithValues[T any](op *Operation, at ArrayType[T], values []T) *Operation {
	op.instructions = append(op.instructions, instruction{
		op: OpCreateArray, arrID: at.ID(), length: len(values), data: typedSliceToBytes(values),
	})
	return op
}

// SetArrayElements records overwriting array at's elements starting at
// index with values, on every entity in the selection.
func SetArrayElements[T any](op *Operation, at ArrayType[T], index int, values []T) *Operation {
	op.instructions = append(op.instructions, instruction{
		op: OpSetArrayElement, arrID: at.ID(), index: index, data: typedSliceToBytes(values),
	})
	return op
}

func valueToBytes[T any](v T) []byte {
	sz := int(unsafe.Sizeof(v))
	if sz == 0 {
		return nil
	}
	b := make([]byte, sz)
	*(*T)(unsafe.Pointer(&b[0])) = v
	return b
}

// Replay applies every recorded instruction to w, in order, maintaining
// the running created-entity list and selection cursor the instructions
// were built against. An entity that no longer exists by the time its
// verb runs (e.g. one destroyed earlier in the same replay) is silently
// skipped rather than aborting the whole replay.
func (op *Operation) Replay(w *World) {
	created := make([]EntityID, 0, op.createdTotal)
	var selection []EntityID

	resolve := func(s selector) (EntityID, bool) {
		if s.usesCreated {
			idx := len(created) - 1 - s.offset
			if idx < 0 || idx >= len(created) {
				return 0, false
			}
			return created[idx], true
		}
		if s.concrete == 0 {
			return 0, true
		}
		return s.concrete, w.Alive(s.concrete)
	}

	for _, in := range op.instructions {
		switch in.op {
		case OpCreateEntity:
			selection = selection[:0]
			for i := 0; i < in.count; i++ {
				e := w.CreateEntity()
				created = append(created, e)
				selection = append(selection, e)
			}
		case OpSelectEntity:
			selection = selection[:0]
			if w.Alive(in.entity) {
				selection = append(selection, in.entity)
			}
		case OpSelectPreviouslyCreated:
			selection = selection[:0]
			idx := len(created) - 1 - in.offset
			if idx >= 0 && idx < len(created) && w.Alive(created[idx]) {
				selection = append(selection, created[idx])
			}
		case OpClearSelection:
			selection = selection[:0]
		case OpDestroySelection:
			for _, e := range selection {
				_ = w.DestroyEntity(e)
			}
			selection = selection[:0]
		case OpSetParent:
			parent, ok := resolve(in.parent)
			if !ok {
				continue
			}
			for _, e := range selection {
				if w.Alive(e) {
					_ = w.SetParent(e, parent)
				}
			}
		case OpAddComponent:
			for _, e := range selection {
				if w.Alive(e) {
					b := w.addComponent(e, in.compID)
					copy(b, in.data)
				}
			}
		case OpSetComponent:
			for _, e := range selection {
				if b := w.componentBytes(e, in.compID); b != nil {
					copy(b, in.data)
				}
			}
		case OpRemoveComponent:
			for _, e := range selection {
				if w.Alive(e) {
					w.removeComponent(e, in.compID)
				}
			}
		case OpAddTag:
			for _, e := range selection {
				if w.Alive(e) {
					w.addTag(e, in.tagID)
				}
			}
		case OpRemoveTag:
			for _, e := range selection {
				if w.Alive(e) {
					w.removeTag(e, in.tagID)
				}
			}
		case OpCreateArray:
			for _, e := range selection {
				if !w.Alive(e) {
					continue
				}
				if in.data != nil {
					w.setArrayBytes(e, in.arrID, in.data)
				} else {
					w.setArrayBytes(e, in.arrID, make([]byte, in.length*w.schema.ArraySize(in.arrID)))
				}
			}
		case OpDestroyArray:
			for _, e := range selection {
				if w.Alive(e) {
					w.removeArray(e, in.arrID)
				}
			}
		case OpResizeArray:
			for _, e := range selection {
				if w.Alive(e) {
					w.resizeArray(e, in.arrID, in.length)
				}
			}
		case OpSetArrayElement:
			for _, e := range selection {
				if w.Alive(e) {
					w.setArrayElementBytes(e, in.arrID, in.index, in.data)
				}
			}
		case OpAddReference:
			target, ok := resolve(in.refTarget)
			if !ok {
				continue
			}
			for _, e := range selection {
				if w.Alive(e) {
					_, _ = w.AddReference(e, target)
				}
			}
		case OpRemoveReference:
			for _, e := range selection {
				if w.Alive(e) {
					_ = w.RemoveReference(e, in.rint)
				}
			}
		}
	}
}

// Len returns the number of recorded instructions.
func (op *Operation) Len() int { return len(op.instructions) }

// Reset empties the Operation so it can be reused.
func (op *Operation) Reset() {
	op.instructions = op.instructions[:0]
	op.createdTotal = 0
}
