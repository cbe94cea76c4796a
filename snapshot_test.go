package world

import "testing"

func TestSchemaSnapshotExactByteLayout(t *testing.T) {
	s := NewSchema()
	data := s.Snapshot()
	wantLen := 3 + 32 + 1024 + 6144
	if len(data) != wantLen {
		t.Fatalf("Snapshot() length = %d, want %d", len(data), wantLen)
	}
}

func TestWorldSnapshotRoundTrip(t *testing.T) {
	schema := NewSchema()
	pos := RegisterComponentType[Position](schema)
	ints := RegisterArrayType[int32](schema)
	w := NewWorld(schema)

	parent := w.CreateEntity()
	pos.Add(w, parent, Position{X: 1, Y: 2})

	child := w.CreateEntity()
	pos.Add(w, child, Position{X: 3, Y: 4})
	ints.Set(w, child, []int32{7, 8, 9})
	_ = w.SetParent(child, parent)
	_, _ = w.AddReference(parent, child)

	data := w.Snapshot()

	loaded, err := LoadWorldSnapshot(data)
	if err != nil {
		t.Fatalf("LoadWorldSnapshot: %v", err)
	}

	loadedPos := RegisterComponentType[Position](loaded.schema)
	loadedInts := RegisterArrayType[int32](loaded.schema)

	if !loaded.Alive(parent) || !loaded.Alive(child) {
		t.Fatal("both entities should survive the round trip")
	}
	if got := loadedPos.Get(loaded, child); got.X != 3 || got.Y != 4 {
		t.Fatalf("child Position after round trip = %+v, want {3 4}", *got)
	}
	if got := loadedInts.Get(loaded, child); len(got) != 3 || got[2] != 9 {
		t.Fatalf("child array after round trip = %v, want [7 8 9]", got)
	}
	if loaded.Parent(child) != parent {
		t.Fatal("hierarchy should survive the round trip")
	}
	if got, err := loaded.GetReference(parent, 1); err != nil || got != child {
		t.Fatalf("reference should survive the round trip, got %d, err %v", got, err)
	}
}

func TestLoadWorldSnapshotRejectsTruncatedData(t *testing.T) {
	_, err := LoadWorldSnapshot([]byte{1, 2, 3})
	if err == nil {
		t.Fatal("expected an error for truncated snapshot data")
	}
}
