package world

import (
	"testing"
	"unsafe"
)

func ptrOf(b []byte) unsafe.Pointer {
	return unsafe.Pointer(&b[0])
}

type chunkTestA struct{ V int64 }
type chunkTestB struct{ V int32 }

func TestChunkAddAndRemove(t *testing.T) {
	schema := NewSchema()
	aID, _ := schema.RegisterComponent(1, 8)
	bID, _ := schema.RegisterComponent(2, 4)
	def := Definition{}.WithComponent(aID).WithComponent(bID)

	c := newChunk(schema, def)
	if c.Len() != 0 {
		t.Fatalf("new chunk should be empty")
	}

	c.addEntity(EntityID(1))
	c.addEntity(EntityID(2))
	c.addEntity(EntityID(3))
	if c.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", c.Len())
	}

	moved := c.removeAt(0)
	if moved != EntityID(3) {
		t.Fatalf("removeAt(0) should move the last entity into the gap, got %d", moved)
	}
	if c.Len() != 2 {
		t.Fatalf("Len() after removeAt = %d, want 2", c.Len())
	}
	if c.entities[0] != EntityID(3) {
		t.Fatalf("entities[0] = %d, want 3", c.entities[0])
	}
}

func TestChunkComponentBytesLayout(t *testing.T) {
	schema := NewSchema()
	aID, _ := schema.RegisterComponent(1, 8)
	bID, _ := schema.RegisterComponent(2, 4)
	def := Definition{}.WithComponent(aID).WithComponent(bID)

	c := newChunk(schema, def)
	c.addEntity(EntityID(1))

	aBytes := c.componentBytes(0, aID)
	bBytes := c.componentBytes(0, bID)
	if len(aBytes) != 8 || len(bBytes) != 4 {
		t.Fatalf("unexpected component byte lengths: %d, %d", len(aBytes), len(bBytes))
	}

	other := ComponentID(99)
	if c.componentBytes(0, other) != nil {
		t.Fatal("componentBytes should return nil for a component not in the Definition")
	}
}

func TestCopyRowIntoSharedComponentsOnly(t *testing.T) {
	schema := NewSchema()
	aID, _ := schema.RegisterComponent(1, 8)
	bID, _ := schema.RegisterComponent(2, 8)

	srcDef := Definition{}.WithComponent(aID).WithComponent(bID)
	dstDef := Definition{}.WithComponent(aID)

	src := newChunk(schema, srcDef)
	dst := newChunk(schema, dstDef)

	src.addEntity(EntityID(1))
	*(*int64)(ptrOf(src.componentBytes(0, aID))) = 42
	*(*int64)(ptrOf(src.componentBytes(0, bID))) = 99

	dst.addEntity(EntityID(1))
	copyRowInto(dst, 0, src, 0)

	if got := *(*int64)(ptrOf(dst.componentBytes(0, aID))); got != 42 {
		t.Errorf("shared component A = %d, want 42", got)
	}
}
