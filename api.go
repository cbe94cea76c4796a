package world

import (
	"fmt"
	"reflect"
	"sync"
	"unsafe"

	"github.com/TheBitDrifter/bark"
)

// typeCacheCapacity bounds how many distinct Schemas may share one
// per-Go-type registration cache. A process juggling more Schemas than
// this for the same component type falls back to Schema's own hash
// lookup: in release mode that returns the existing ID, one map lookup
// slower; with Config.DebugAsserts on, a repeated registration for such
// a Schema panics with DoubleRegistrationError.
const typeCacheCapacity = 64

var (
	componentCaches sync.Map // reflect.Type -> *SimpleCache[ComponentID]
	arrayCaches     sync.Map // reflect.Type -> *SimpleCache[ArrayID]
	tagCaches       sync.Map // reflect.Type -> *SimpleCache[TagID]
)

func schemaKey(s *Schema) string {
	return fmt.Sprintf("%p", s)
}

func componentCacheFor[T any]() *SimpleCache[ComponentID] {
	rt := reflect.TypeFor[T]()
	if c, ok := componentCaches.Load(rt); ok {
		return c.(*SimpleCache[ComponentID])
	}
	c := NewSimpleCache[ComponentID](typeCacheCapacity)
	actual, _ := componentCaches.LoadOrStore(rt, c)
	return actual.(*SimpleCache[ComponentID])
}

func arrayCacheFor[T any]() *SimpleCache[ArrayID] {
	rt := reflect.TypeFor[T]()
	if c, ok := arrayCaches.Load(rt); ok {
		return c.(*SimpleCache[ArrayID])
	}
	c := NewSimpleCache[ArrayID](typeCacheCapacity)
	actual, _ := arrayCaches.LoadOrStore(rt, c)
	return actual.(*SimpleCache[ArrayID])
}

func tagCacheFor[T any]() *SimpleCache[TagID] {
	rt := reflect.TypeFor[T]()
	if c, ok := tagCaches.Load(rt); ok {
		return c.(*SimpleCache[TagID])
	}
	c := NewSimpleCache[TagID](typeCacheCapacity)
	actual, _ := tagCaches.LoadOrStore(rt, c)
	return actual.(*SimpleCache[TagID])
}

// ComponentType[T] is a type-safe handle onto one Schema's registration
// of Go type T as a component. It is the normal way callers add,
// inspect, and read components; the untyped ComponentID underneath is
// only needed by Query and Definition construction.
type ComponentType[T any] struct {
	id ComponentID
}

// RegisterComponentType registers T as a component on schema and
// returns its typed handle. Calling it again for the same (schema, T)
// pair is cheap and returns the same handle.
//
// Unlike Schema.RegisterComponent, this convenience wrapper always
// panics on registration failure regardless of Config.DebugAsserts: its
// single-value return leaves no room to surface TooManyTypesError to the
// caller, and the cache it consults means a well-behaved caller only
// ever reaches the underlying Schema call once per (schema, T) pair, so
// the failure is effectively a one-time setup error, not a per-call
// runtime condition. Callers that need the release-mode error path can
// call schema.RegisterComponent directly.
func RegisterComponentType[T any](schema *Schema) ComponentType[T] {
	cache := componentCacheFor[T]()
	key := schemaKey(schema)
	if idx, ok := cache.GetIndex(key); ok {
		return ComponentType[T]{id: *cache.GetItem(idx)}
	}
	var zero T
	id, err := schema.RegisterComponent(typeHash[T](), int(unsafe.Sizeof(zero)))
	if err != nil {
		panic(bark.AddTrace(err))
	}
	_, _ = cache.Register(key, id)
	return ComponentType[T]{id: id}
}

// ID returns the untyped ComponentID, for use with Definition and
// Query builders.
func (ct ComponentType[T]) ID() ComponentID { return ct.id }

// addTo sets this component's bit on d, satisfying typeRef.
func (ct ComponentType[T]) addTo(d *Definition) { d.Components.Set(int(ct.id)) }

// Has reports whether e currently carries this component.
func (ct ComponentType[T]) Has(w *World, e EntityID) bool {
	return w.hasComponent(e, ct.id)
}

// Add attaches value to e, migrating it into the chunk that carries
// this component if it doesn't already.
func (ct ComponentType[T]) Add(w *World, e EntityID, value T) {
	bytesOf := w.addComponent(e, ct.id)
	if len(bytesOf) == 0 {
		return // T is zero-sized; there are no bytes to write.
	}
	*(*T)(unsafe.Pointer(&bytesOf[0])) = value
}

// Remove detaches the component from e, migrating it back to a chunk
// without it. No-op if e didn't carry it.
func (ct ComponentType[T]) Remove(w *World, e EntityID) {
	w.removeComponent(e, ct.id)
}

// Get returns a pointer into e's row for this component. The pointer is
// only valid until the next structural mutation of e or any entity that
// migrates through the same chunk. Panics with MissingComponentError if
// e does not carry this component.
func (ct ComponentType[T]) Get(w *World, e EntityID) *T {
	b := w.componentBytes(e, ct.id)
	if b == nil {
		panic(bark.AddTrace(MissingComponentError{Entity: e, ID: ct.id}))
	}
	return (*T)(unsafe.Pointer(&b[0]))
}

// TryGet is Get without the panic: it reports ok=false instead of
// panicking when e does not carry this component.
func (ct ComponentType[T]) TryGet(w *World, e EntityID) (value *T, ok bool) {
	b := w.componentBytes(e, ct.id)
	if b == nil {
		return nil, false
	}
	return (*T)(unsafe.Pointer(&b[0])), true
}

// ArrayType[T] is a type-safe handle onto one Schema's registration of
// Go type T as an array element type.
type ArrayType[T any] struct {
	id ArrayID
}

// RegisterArrayType registers T as an array element type on schema and
// returns its typed handle. See RegisterComponentType for why this
// wrapper always panics on registration failure.
func RegisterArrayType[T any](schema *Schema) ArrayType[T] {
	cache := arrayCacheFor[T]()
	key := schemaKey(schema)
	if idx, ok := cache.GetIndex(key); ok {
		return ArrayType[T]{id: *cache.GetItem(idx)}
	}
	var zero T
	id, err := schema.RegisterArray(typeHash[T](), int(unsafe.Sizeof(zero)))
	if err != nil {
		panic(bark.AddTrace(err))
	}
	_, _ = cache.Register(key, id)
	return ArrayType[T]{id: id}
}

// ID returns the untyped ArrayID.
func (at ArrayType[T]) ID() ArrayID { return at.id }

// addTo sets this array type's bit on d, satisfying typeRef.
func (at ArrayType[T]) addTo(d *Definition) { d.Arrays.Set(int(at.id)) }

// Has reports whether e currently carries this array type.
func (at ArrayType[T]) Has(w *World, e EntityID) bool {
	return w.hasArray(e, at.id)
}

// Set replaces e's array wholesale with values, migrating e into the
// chunk that carries this array type if needed.
func (at ArrayType[T]) Set(w *World, e EntityID, values []T) {
	w.setArrayBytes(e, at.id, typedSliceToBytes(values))
}

// Remove detaches the array from e.
func (at ArrayType[T]) Remove(w *World, e EntityID) {
	w.removeArray(e, at.id)
}

// Get returns e's array as a typed slice aliasing the World's backing
// bytes. Panics with MissingArrayError if e does not carry this array
// type.
func (at ArrayType[T]) Get(w *World, e EntityID) []T {
	b := w.arrayBytes(e, at.id)
	if b == nil {
		if !w.hasArray(e, at.id) {
			panic(bark.AddTrace(MissingArrayError{Entity: e, ID: at.id}))
		}
		return nil
	}
	return bytesToTypedSlice[T](b)
}

// Len returns the number of elements in e's array, or 0 if absent.
func (at ArrayType[T]) Len(w *World, e EntityID) int {
	if !at.Has(w, e) {
		return 0
	}
	return len(at.Get(w, e))
}

func typedSliceToBytes[T any](values []T) []byte {
	if len(values) == 0 {
		return nil
	}
	var zero T
	elemSize := int(unsafe.Sizeof(zero))
	return unsafe.Slice((*byte)(unsafe.Pointer(&values[0])), len(values)*elemSize)
}

func bytesToTypedSlice[T any](b []byte) []T {
	if len(b) == 0 {
		return nil
	}
	var zero T
	elemSize := int(unsafe.Sizeof(zero))
	return unsafe.Slice((*T)(unsafe.Pointer(&b[0])), len(b)/elemSize)
}

// TagType[T] is a type-safe handle onto one Schema's registration of Go
// type T as a zero-sized tag. T is conventionally an empty struct.
type TagType[T any] struct {
	id TagID
}

// RegisterTagType registers T as a tag on schema and returns its typed
// handle. See RegisterComponentType for why this wrapper always panics
// on registration failure.
func RegisterTagType[T any](schema *Schema) TagType[T] {
	cache := tagCacheFor[T]()
	key := schemaKey(schema)
	if idx, ok := cache.GetIndex(key); ok {
		return TagType[T]{id: *cache.GetItem(idx)}
	}
	id, err := schema.RegisterTag(typeHash[T]())
	if err != nil {
		panic(bark.AddTrace(err))
	}
	_, _ = cache.Register(key, id)
	return TagType[T]{id: id}
}

// ID returns the untyped TagID.
func (tt TagType[T]) ID() TagID { return tt.id }

// addTo sets this tag's bit on d, satisfying typeRef.
func (tt TagType[T]) addTo(d *Definition) { d.Tags.Set(int(tt.id)) }

// Has reports whether e carries this tag.
func (tt TagType[T]) Has(w *World, e EntityID) bool {
	return w.hasTag(e, tt.id)
}

// Add attaches the tag to e.
func (tt TagType[T]) Add(w *World, e EntityID) {
	w.addTag(e, tt.id)
}

// Remove detaches the tag from e.
func (tt TagType[T]) Remove(w *World, e EntityID) {
	w.removeTag(e, tt.id)
}
