package world

import "testing"

func TestOperationCreateAndAddComponent(t *testing.T) {
	schema := NewSchema()
	pos := RegisterComponentType[Position](schema)
	w := NewWorld(schema)

	op := NewOperation()
	AddComponent(op.CreateEntity(1), pos, Position{X: 5, Y: 7})
	op.Replay(w)

	q := NewQuery(Require(pos), Exclude())
	e, ok := q.TryGetFirst(w)
	if !ok {
		t.Fatal("expected one entity with Position after replay")
	}
	if got := pos.Get(w, e); got.X != 5 || got.Y != 7 {
		t.Fatalf("Get() = %+v, want {5 7}", *got)
	}
}

// TestOperationBatchCreateAppliesToWholeSelection reproduces the
// canonical Operation scenario: CreateEntity(3) followed by AddComponent
// stamps the same component onto all three entities just created, while
// a subsequent SelectPreviouslyCreated narrows the selection back down
// to one before the next AddComponent.
func TestOperationBatchCreateAppliesToWholeSelection(t *testing.T) {
	schema := NewSchema()
	pos := RegisterComponentType[Position](schema)
	vel := RegisterComponentType[Velocity](schema)
	w := NewWorld(schema)

	op := NewOperation()
	op.CreateEntity(3)
	AddComponent(op, pos, Position{X: 1, Y: 2})
	op.SelectPreviouslyCreated(0)
	AddComponent(op, vel, Velocity{X: 5, Y: 6})
	op.Replay(w)

	q := NewQuery(Require(pos), Exclude())
	var withPos []EntityID
	for e := range q.Each(w) {
		withPos = append(withPos, e)
	}
	if len(withPos) != 3 {
		t.Fatalf("expected 3 entities with Position, got %d", len(withPos))
	}

	var withVel []EntityID
	qv := NewQuery(Require(vel), Exclude())
	for e := range qv.Each(w) {
		withVel = append(withVel, e)
	}
	if len(withVel) != 1 {
		t.Fatalf("expected exactly 1 entity with Velocity, got %d", len(withVel))
	}
	if got := pos.Get(w, withVel[0]); got.X != 1 || got.Y != 2 {
		t.Fatalf("the Velocity-carrying entity should also carry Position {1 2}, got %+v", *got)
	}
}

func TestOperationSelectPreviouslyCreatedSetsParent(t *testing.T) {
	schema := NewSchema()
	w := NewWorld(schema)

	op := NewOperation()
	op.CreateEntity(1) // parent
	op.CreateEntity(1) // child
	op.SelectPreviouslyCreated(0)
	op.SetParentPreviouslyCreated(1) // reattach the child under the parent
	op.Replay(w)

	q := NewQuery(Require(), Exclude())
	var all []EntityID
	for e := range q.Each(w) {
		all = append(all, e)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 entities, got %d", len(all))
	}

	var parentCount int
	for _, e := range all {
		if w.ChildCount(e) == 1 {
			parentCount++
		}
	}
	if parentCount != 1 {
		t.Fatalf("expected exactly one entity with a child, got %d", parentCount)
	}
}

func TestOperationDestroySelectionSkipsAlreadyDestroyed(t *testing.T) {
	schema := NewSchema()
	w := NewWorld(schema)
	e := w.CreateEntity()
	_ = w.DestroyEntity(e)

	op := NewOperation()
	op.SelectEntity(e).DestroySelection()

	// Should not panic even though e is already dead.
	op.Replay(w)
}

func TestOperationRemoveComponent(t *testing.T) {
	schema := NewSchema()
	pos := RegisterComponentType[Position](schema)
	w := NewWorld(schema)
	e := w.CreateEntity()
	pos.Add(w, e, Position{X: 1})

	op := NewOperation()
	op.SelectEntity(e).RemoveComponent(pos)
	op.Replay(w)

	if pos.Has(w, e) {
		t.Fatal("Position should be gone after replaying RemoveComponent")
	}
}

func TestOperationSetComponentDoesNotAdd(t *testing.T) {
	schema := NewSchema()
	pos := RegisterComponentType[Position](schema)
	w := NewWorld(schema)
	e := w.CreateEntity()

	op := NewOperation()
	op.SelectEntity(e)
	SetComponent(op, pos, Position{X: 9, Y: 9})
	op.Replay(w)

	if pos.Has(w, e) {
		t.Fatal("SetComponent should not add a component the entity never had")
	}
}

func TestOperationResizeAndSetArrayElement(t *testing.T) {
	schema := NewSchema()
	ints := RegisterArrayType[int32](schema)
	w := NewWorld(schema)
	e := w.CreateEntity()

	op := NewOperation()
	op.SelectEntity(e)
	CreateArrayWithValues(op, ints, []int32{1, 2, 3})
	op.ResizeArray(ints, 5)
	SetArrayElements(op, ints, 4, []int32{42})
	op.Replay(w)

	got := ints.Get(w, e)
	if len(got) != 5 {
		t.Fatalf("Get() len = %d, want 5", len(got))
	}
	if got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Fatalf("original elements should survive the resize, got %v", got)
	}
	if got[4] != 42 {
		t.Fatalf("got[4] = %d, want 42", got[4])
	}
}

func TestOperationAddAndRemoveReference(t *testing.T) {
	schema := NewSchema()
	w := NewWorld(schema)
	a := w.CreateEntity()
	b := w.CreateEntity()

	op := NewOperation()
	op.SelectEntity(a).AddReference(b)
	op.Replay(w)

	if w.ReferenceCount(a) != 1 {
		t.Fatalf("ReferenceCount = %d, want 1", w.ReferenceCount(a))
	}
	if got, err := w.GetReference(a, 1); err != nil || got != b {
		t.Fatalf("GetReference = %d, %v; want %d, nil", got, err, b)
	}

	op2 := NewOperation()
	op2.SelectEntity(a).RemoveReference(1)
	op2.Replay(w)

	if _, err := w.GetReference(a, 1); err == nil {
		t.Fatal("expected an error resolving a removed reference")
	}
}

func TestOperationSelectPreviouslyCreatedOutOfRangePanics(t *testing.T) {
	op := NewOperation()
	op.CreateEntity(1)
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic selecting an offset beyond recorded creations")
		}
	}()
	op.SelectPreviouslyCreated(1)
}

func TestOperationReset(t *testing.T) {
	op := NewOperation()
	op.CreateEntity(1)
	if op.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", op.Len())
	}
	op.Reset()
	if op.Len() != 0 {
		t.Fatalf("Len() after Reset = %d, want 0", op.Len())
	}
}
