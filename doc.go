/*
Package world provides an archetype-based Entity-Component-System (ECS)
storage engine.

A World owns a population of entities — dense 32-bit integer identities —
and associates each with a combination of three kinds of data: components
(fixed-size value records that co-locate with the entity), arrays
(per-entity variable-length sequences of a single element type), and tags
(zero-sized markers). Entities sharing the same combination of component,
array, and tag types are stored together in a chunk (archetype), so
iteration over any fixed signature becomes a cache-friendly column scan.

Core Concepts:

  - Schema: registers component/array/tag types and assigns them dense
    small-integer IDs plus sizes.
  - Chunk: a row-packed store for every entity sharing one exact
    signature; each entity's full component set lives as one contiguous
    row, addressed through a per-type offset table.
  - ChunkMap: an open-addressed hash table that interns one chunk per
    distinct signature.
  - World: orchestrates entity lifecycle and structural mutation by
    migrating rows between chunks.
  - Query: an iterator over chunks matching an include/exclude signature.
  - Operation: a deferred instruction buffer with a selection cursor,
    replayed against a World.

Basic Usage:

	schema := world.NewSchema()
	position := world.RegisterComponentType[Position](schema)
	velocity := world.RegisterComponentType[Velocity](schema)

	w := world.NewWorld(schema)
	e := w.CreateEntity()
	position.Add(w, e, Position{X: 1, Y: 2})
	velocity.Add(w, e, Velocity{X: 3, Y: 4})

	q := world.NewQuery(world.Require(position, velocity), world.Exclude())
	for e := range q.Each(w) {
		pos := position.Get(w, e)
		vel := velocity.Get(w, e)
		pos.X += vel.X
		pos.Y += vel.Y
	}

world is a standalone storage core; higher-level scheduling, serialization
transport, and the surrounding application are external collaborators.
*/
package world
