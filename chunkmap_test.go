package world

import "testing"

func TestChunkMapInternsOnePerDefinition(t *testing.T) {
	schema := NewSchema()
	cid, _ := schema.RegisterComponent(1, 4)
	def := Definition{}.WithComponent(cid)

	m := NewChunkMap(schema)
	c1 := m.GetOrCreate(def)
	c2 := m.GetOrCreate(def)
	if c1 != c2 {
		t.Fatal("GetOrCreate should return the same chunk for the same Definition")
	}
}

func TestChunkMapDefaultChunkIsEmptyDefinition(t *testing.T) {
	schema := NewSchema()
	m := NewChunkMap(schema)
	if m.Default().Definition() != (Definition{}) {
		t.Fatal("default chunk should have the empty Definition")
	}
	if m.Get(Definition{}) != m.Default() {
		t.Fatal("Get(empty Definition) should return the default chunk")
	}
}

func TestChunkMapGrowsAndKeepsEntries(t *testing.T) {
	schema := NewSchema()
	m := NewChunkMap(schema)

	var defs []Definition
	for i := 0; i < 100; i++ {
		cid, _ := schema.RegisterComponent(uint64(i+1), 4)
		def := Definition{}.WithComponent(cid)
		defs = append(defs, def)
		m.GetOrCreate(def)
	}

	for _, def := range defs {
		if m.Get(def) == nil {
			t.Fatalf("chunk for %v missing after growth", def)
		}
	}
}

func TestChunkMapClearKeepsOnlyDefault(t *testing.T) {
	schema := NewSchema()
	cid, _ := schema.RegisterComponent(1, 4)
	def := Definition{}.WithComponent(cid)

	m := NewChunkMap(schema)
	m.GetOrCreate(def)
	m.Clear()

	if m.Get(def) != nil {
		t.Fatal("Clear() should drop non-default chunks")
	}
	if m.Default() == nil {
		t.Fatal("Clear() should still provide a default chunk")
	}
}
