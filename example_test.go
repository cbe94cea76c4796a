package world_test

import (
	"fmt"

	"github.com/tessera-ecs/world"
)

type Position struct{ X, Y float64 }
type Velocity struct{ X, Y float64 }

func Example_basic() {
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

	pos := position.Get(w, e)
	fmt.Println(pos.X, pos.Y)
	// Output: 4 6
}

func Example_hierarchy() {
	schema := world.NewSchema()
	w := world.NewWorld(schema)

	parent := w.CreateEntity()
	child := w.CreateEntity()
	_ = w.SetParent(child, parent)

	fmt.Println(w.ChildCount(parent), w.Depth(child))
	// Output: 1 1
}
