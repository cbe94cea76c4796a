package world

import "iter"

// typeRef is satisfied by ComponentType[T], ArrayType[T], and
// TagType[T]; it lets Require and Exclude accept any mix of them.
type typeRef interface {
	addTo(*Definition)
}

// Require builds the Definition a chunk must contain every bit of to
// match a query.
func Require(refs ...typeRef) Definition {
	var d Definition
	for _, r := range refs {
		r.addTo(&d)
	}
	return d
}

// Exclude builds the Definition a chunk must share no bit with to match
// a query.
func Exclude(refs ...typeRef) Definition {
	var d Definition
	for _, r := range refs {
		r.addTo(&d)
	}
	return d
}

// Query selects chunks whose Definition contains every bit of required
// and none of excluded.
type Query struct {
	required       Definition
	excluded       Definition
	excludeDisable bool
}

// NewQuery builds a Query from a required and an excluded Definition,
// normally produced by Require and Exclude.
func NewQuery(required, excluded Definition) *Query {
	return &Query{required: required, excluded: excluded}
}

// ExcludeDisabled makes the query skip any entity for which
// World.Disabled reports true, in addition to the required/excluded
// Definition filter. Returns q for chaining.
func (q *Query) ExcludeDisabled() *Query {
	q.excludeDisable = true
	return q
}

// Matches reports whether def satisfies the query's include/exclude
// filter, ignoring per-entity Disabled state.
func (q *Query) Matches(def Definition) bool {
	return def.Contains(q.required) && !def.Overlaps(q.excluded)
}

// matchingChunks returns every chunk in w whose Definition matches q.
func (q *Query) matchingChunks(w *World) []*Chunk {
	var out []*Chunk
	for _, c := range w.chunkMap.Chunks() {
		if q.Matches(c.def) {
			out = append(out, c)
		}
	}
	return out
}

// Each iterates every entity matching the query across every matching
// chunk. It is safe to mutate the yielded entity's own components; it is
// not safe to perform structural mutation (Add/Remove component, array,
// or tag; CreateEntity; DestroyEntity) on any entity while iterating, as
// that may move rows out from under the scan.
func (q *Query) Each(w *World) iter.Seq[EntityID] {
	return func(yield func(EntityID) bool) {
		for _, c := range q.matchingChunks(w) {
			for i := 0; i < len(c.entities); i++ {
				e := c.entities[i]
				if q.excludeDisable && w.Disabled(e) {
					continue
				}
				if !yield(e) {
					return
				}
			}
		}
	}
}

// Count returns the number of entities currently matching the query.
func (q *Query) Count(w *World) int {
	n := 0
	for range q.Each(w) {
		n++
	}
	return n
}

// TryGetFirst returns the first matching entity, if any.
func (q *Query) TryGetFirst(w *World) (EntityID, bool) {
	for e := range q.Each(w) {
		return e, true
	}
	return 0, false
}

// Cursor returns an imperative Cursor over the query's current matches,
// for callers that need fine-grained control rather than a range loop.
func (q *Query) Cursor(w *World) *Cursor {
	return newCursor(q, w)
}
