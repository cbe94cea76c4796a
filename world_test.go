package world

import "testing"

type Position struct{ X, Y float64 }
type Velocity struct{ X, Y float64 }

func newTestWorld() (*World, ComponentType[Position], ComponentType[Velocity]) {
	schema := NewSchema()
	pos := RegisterComponentType[Position](schema)
	vel := RegisterComponentType[Velocity](schema)
	return NewWorld(schema), pos, vel
}

func TestCreateEntityStartsInDefaultChunk(t *testing.T) {
	w, _, _ := newTestWorld()
	e := w.CreateEntity()
	if e == 0 {
		t.Fatal("CreateEntity should never return 0")
	}
	if !w.Alive(e) {
		t.Fatal("newly created entity should be alive")
	}
	if w.definitionOf(e) != (Definition{}) {
		t.Fatal("new entity should start in the default chunk")
	}
}

func TestAddAndGetComponent(t *testing.T) {
	w, pos, _ := newTestWorld()
	e := w.CreateEntity()

	pos.Add(w, e, Position{X: 1, Y: 2})
	if !pos.Has(w, e) {
		t.Fatal("entity should carry Position after Add")
	}
	got := pos.Get(w, e)
	if got.X != 1 || got.Y != 2 {
		t.Fatalf("Get() = %+v, want {1 2}", *got)
	}
}

func TestAddComponentIsIdempotent(t *testing.T) {
	w, pos, _ := newTestWorld()
	e := w.CreateEntity()
	pos.Add(w, e, Position{X: 1, Y: 1})
	chunkBefore := w.slots[e].chunk
	pos.Add(w, e, Position{X: 9, Y: 9})
	if w.slots[e].chunk != chunkBefore {
		t.Fatal("adding an already-present component should not migrate the entity")
	}
	if got := pos.Get(w, e); got.X != 9 {
		t.Fatal("second Add should still overwrite the value")
	}
}

func TestRemoveComponentMigrates(t *testing.T) {
	w, pos, vel := newTestWorld()
	e := w.CreateEntity()
	pos.Add(w, e, Position{X: 1, Y: 1})
	vel.Add(w, e, Velocity{X: 2, Y: 2})

	pos.Remove(w, e)
	if pos.Has(w, e) {
		t.Fatal("Position should be gone after Remove")
	}
	if !vel.Has(w, e) {
		t.Fatal("Velocity should survive removing Position")
	}
	got := vel.Get(w, e)
	if got.X != 2 || got.Y != 2 {
		t.Fatalf("Velocity data corrupted by migration: %+v", *got)
	}
}

func TestMissingComponentPanics(t *testing.T) {
	w, pos, _ := newTestWorld()
	e := w.CreateEntity()
	defer func() {
		if recover() == nil {
			t.Fatal("Get on a missing component should panic")
		}
	}()
	pos.Get(w, e)
}

func TestTryGetMissingComponent(t *testing.T) {
	w, pos, _ := newTestWorld()
	e := w.CreateEntity()
	_, ok := pos.TryGet(w, e)
	if ok {
		t.Fatal("TryGet should report ok=false for a missing component")
	}
}

func TestDestroyEntitySwapsRowCorrectly(t *testing.T) {
	w, pos, _ := newTestWorld()
	e1 := w.CreateEntity()
	e2 := w.CreateEntity()
	e3 := w.CreateEntity()
	pos.Add(w, e1, Position{X: 1})
	pos.Add(w, e2, Position{X: 2})
	pos.Add(w, e3, Position{X: 3})

	w.DestroyEntity(e1)

	if w.Alive(e1) {
		t.Fatal("e1 should be destroyed")
	}
	if !w.Alive(e2) || !w.Alive(e3) {
		t.Fatal("e2 and e3 should still be alive")
	}
	if got := pos.Get(w, e2); got.X != 2 {
		t.Errorf("e2's data corrupted after e1's destruction: %+v", *got)
	}
	if got := pos.Get(w, e3); got.X != 3 {
		t.Errorf("e3's data corrupted after e1's destruction: %+v", *got)
	}
}

func TestEntityIDReuseBumpsGeneration(t *testing.T) {
	w, _, _ := newTestWorld()
	e1 := w.CreateEntity()
	gen1 := w.slots[e1].generation
	w.DestroyEntity(e1)
	e2 := w.CreateEntity()
	if e1 != e2 {
		t.Fatalf("expected the freed slot to be reused: e1=%d e2=%d", e1, e2)
	}
	if w.slots[e2].generation == gen1 {
		t.Fatal("generation should bump on reuse")
	}
}

func TestSetParentAndChildren(t *testing.T) {
	w, _, _ := newTestWorld()
	parent := w.CreateEntity()
	child1 := w.CreateEntity()
	child2 := w.CreateEntity()

	if err := w.SetParent(child1, parent); err != nil {
		t.Fatalf("SetParent: %v", err)
	}
	if err := w.SetParent(child2, parent); err != nil {
		t.Fatalf("SetParent: %v", err)
	}

	if w.ChildCount(parent) != 2 {
		t.Errorf("ChildCount = %d, want 2", w.ChildCount(parent))
	}
	if w.Parent(child1) != parent {
		t.Error("child1's parent should be `parent`")
	}
	if w.Depth(child1) != 1 {
		t.Errorf("Depth(child1) = %d, want 1", w.Depth(child1))
	}

	seen := map[EntityID]bool{}
	for c := range w.Children(parent) {
		seen[c] = true
	}
	if !seen[child1] || !seen[child2] {
		t.Error("Children() should yield both child1 and child2")
	}
}

func TestSetParentDetectsCycle(t *testing.T) {
	w, _, _ := newTestWorld()
	a := w.CreateEntity()
	b := w.CreateEntity()
	if err := w.SetParent(b, a); err != nil {
		t.Fatalf("SetParent: %v", err)
	}
	err := w.SetParent(a, b)
	if _, ok := err.(CycleInHierarchyError); !ok {
		t.Fatalf("expected CycleInHierarchyError, got %v", err)
	}
}

func TestDestroyEntityDestroysChildren(t *testing.T) {
	w, _, _ := newTestWorld()
	parent := w.CreateEntity()
	child := w.CreateEntity()
	grandchild := w.CreateEntity()
	_ = w.SetParent(child, parent)
	_ = w.SetParent(grandchild, child)

	w.DestroyEntity(parent)

	if w.Alive(parent) || w.Alive(child) || w.Alive(grandchild) {
		t.Fatal("destroying a parent should destroy its whole subtree")
	}
}

func TestDisabledPropagatesToDescendants(t *testing.T) {
	w, _, _ := newTestWorld()
	parent := w.CreateEntity()
	child := w.CreateEntity()
	_ = w.SetParent(child, parent)

	if w.Disabled(child) {
		t.Fatal("child should not be disabled yet")
	}

	if err := w.SetEnabled(parent, false); err != nil {
		t.Fatalf("SetEnabled: %v", err)
	}
	if !w.Disabled(parent) {
		t.Fatal("parent should be disabled")
	}
	if !w.Disabled(child) {
		t.Fatal("child should be disabled by ancestor")
	}

	if err := w.SetEnabled(parent, true); err != nil {
		t.Fatalf("SetEnabled: %v", err)
	}
	if w.Disabled(parent) {
		t.Fatal("parent should be re-enabled")
	}
	if w.Disabled(child) {
		t.Fatal("child should no longer be disabled by ancestor")
	}
}

func TestSetEnabledUnknownEntity(t *testing.T) {
	w, _, _ := newTestWorld()
	if err := w.SetEnabled(EntityID(999), false); err == nil {
		t.Fatal("expected an error disabling an unknown entity")
	}
}

func TestArraySetGetRemove(t *testing.T) {
	schema := NewSchema()
	ints := RegisterArrayType[int32](schema)
	w := NewWorld(schema)
	e := w.CreateEntity()

	ints.Set(w, e, []int32{1, 2, 3})
	if !ints.Has(w, e) {
		t.Fatal("entity should carry the array after Set")
	}
	if got := ints.Get(w, e); len(got) != 3 || got[1] != 2 {
		t.Fatalf("Get() = %v, want [1 2 3]", got)
	}
	if ints.Len(w, e) != 3 {
		t.Errorf("Len() = %d, want 3", ints.Len(w, e))
	}

	ints.Remove(w, e)
	if ints.Has(w, e) {
		t.Fatal("array should be gone after Remove")
	}
}

func TestReferences(t *testing.T) {
	w, _, _ := newTestWorld()
	a := w.CreateEntity()
	b := w.CreateEntity()
	c := w.CreateEntity()

	r1, err := w.AddReference(a, b)
	if err != nil {
		t.Fatalf("AddReference: %v", err)
	}
	r2, err := w.AddReference(a, c)
	if err != nil {
		t.Fatalf("AddReference: %v", err)
	}

	if got, err := w.GetReference(a, r1); err != nil || got != b {
		t.Errorf("r1 should resolve to b, got %d, err %v", got, err)
	}
	if got, err := w.GetReference(a, r2); err != nil || got != c {
		t.Errorf("r2 should resolve to c, got %d, err %v", got, err)
	}
	if w.ReferenceCount(a) != 2 {
		t.Errorf("ReferenceCount = %d, want 2", w.ReferenceCount(a))
	}

	refs := w.References(a)
	if len(refs) != 2 || refs[0] != b || refs[1] != c {
		t.Errorf("References() = %v, want [%d %d]", refs, b, c)
	}

	if err := w.RemoveReference(a, r1); err != nil {
		t.Fatalf("RemoveReference: %v", err)
	}
	if _, err := w.GetReference(a, r1); err == nil {
		t.Fatal("expected an error resolving a removed reference")
	}
	if refs := w.References(a); len(refs) != 1 || refs[0] != c {
		t.Errorf("References() after removal = %v, want [%d]", refs, c)
	}
}

func TestInvalidReferenceReturnsError(t *testing.T) {
	w, _, _ := newTestWorld()
	a := w.CreateEntity()
	if _, err := w.GetReference(a, 1); err == nil {
		t.Fatal("expected an error for an unused RInt")
	}
}

func TestWorldClear(t *testing.T) {
	w, pos, _ := newTestWorld()
	e := w.CreateEntity()
	pos.Add(w, e, Position{X: 1})
	w.Clear()

	if w.Alive(e) {
		t.Fatal("Clear() should destroy every entity")
	}
	e2 := w.CreateEntity()
	if pos.Has(w, e2) {
		t.Fatal("a fresh entity after Clear() should carry no components")
	}
}
