package world

import (
	"hash/fnv"
	"reflect"
)

// typeHash derives a stable 64-bit identity for T's Go type from its
// reflect type string (package name plus type name, e.g.
// "world.Position"). It is what Schema registration keys on, and what
// ends up embedded in a Schema snapshot's type-hash block, so two
// processes agreeing on package and type names agree on the hash. Types
// with the same name in two packages of the same name hash alike.
func typeHash[T any]() uint64 {
	var zero T
	name := reflect.TypeOf(&zero).Elem().String()
	h := fnv.New64a()
	_, _ = h.Write([]byte(name))
	return h.Sum64()
}
