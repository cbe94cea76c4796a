package world

import (
	"fmt"
	"iter"
	"math/bits"
	"strings"

	"github.com/TheBitDrifter/bark"
)

// bitMaskWords is the number of 64-bit words packed into a BitMask.
const bitMaskWords = 4

// BitMaskCapacity is the number of distinct indices a BitMask can hold:
// one bit per component, array, or tag type ID in a single 256-wide ID
// space.
const BitMaskCapacity = bitMaskWords * 64

// BitMask is a fixed 256-bit set over type indices. It is the backing
// representation for a Schema's per-kind type-ID spaces and for a
// Definition's three masks. Two BitMask values compare equal with == and
// are safe to use as a Go map key, which ChunkMap relies on.
//
// This mirrors the naming the teacher's mask.Mask/mask.Mask256 types are
// used under (Mark/Unmark/ContainsAll/ContainsAny/ContainsNone in
// storage.go and query.go) but is implemented locally: the Schema's binary
// snapshot format (spec §6) pins an exact 32-byte, four-little-endian-u64
// layout, and ChunkMap needs full bitwise algebra (Not, Xor, popcount,
// ascending iteration) that the teacher's opaque external mask type is
// never observed exercising. See DESIGN.md.
type BitMask [bitMaskWords]uint64

// NewBitMask builds a BitMask with the given indices set.
func NewBitMask(indices ...int) BitMask {
	var m BitMask
	for _, i := range indices {
		m.Set(i)
	}
	return m
}

func checkIndex(i int) {
	if i < 0 || i >= BitMaskCapacity {
		panic(bark.AddTrace(OutOfRangeError{What: "bitmask", Index: i}))
	}
}

// Set marks index i as present. Panics (via bark.AddTrace) if i is out of
// [0, BitMaskCapacity).
func (m *BitMask) Set(i int) {
	checkIndex(i)
	m[i/64] |= 1 << uint(i%64)
}

// Clear unmarks index i. Panics if i is out of range.
func (m *BitMask) Clear(i int) {
	checkIndex(i)
	m[i/64] &^= 1 << uint(i%64)
}

// Contains reports whether index i is set. Panics if i is out of range.
func (m BitMask) Contains(i int) bool {
	checkIndex(i)
	return m[i/64]&(1<<uint(i%64)) != 0
}

// Count returns the population count (number of set bits).
func (m BitMask) Count() int {
	n := 0
	for _, w := range m {
		n += bits.OnesCount64(w)
	}
	return n
}

// IsEmpty reports whether no bits are set.
func (m BitMask) IsEmpty() bool {
	return m == BitMask{}
}

// And returns the bitwise intersection of m and other.
func (m BitMask) And(other BitMask) BitMask {
	var r BitMask
	for i := range m {
		r[i] = m[i] & other[i]
	}
	return r
}

// Or returns the bitwise union of m and other.
func (m BitMask) Or(other BitMask) BitMask {
	var r BitMask
	for i := range m {
		r[i] = m[i] | other[i]
	}
	return r
}

// Xor returns the bitwise symmetric difference of m and other.
func (m BitMask) Xor(other BitMask) BitMask {
	var r BitMask
	for i := range m {
		r[i] = m[i] ^ other[i]
	}
	return r
}

// Not returns the bitwise complement of m within the full 256-bit domain.
func (m BitMask) Not() BitMask {
	var r BitMask
	for i := range m {
		r[i] = ^m[i]
	}
	return r
}

// ContainsAll reports whether m contains every index set in other:
// (m & other) == other.
func (m BitMask) ContainsAll(other BitMask) bool {
	return m.And(other) == other
}

// ContainsAny reports whether m and other share at least one set index:
// (m & other) != 0.
func (m BitMask) ContainsAny(other BitMask) bool {
	return !m.And(other).IsEmpty()
}

// ContainsNone reports whether m and other share no set indices.
func (m BitMask) ContainsNone(other BitMask) bool {
	return !m.ContainsAny(other)
}

// Indices yields set indices in ascending order.
func (m BitMask) Indices() iter.Seq[int] {
	return func(yield func(int) bool) {
		for word, w := range m {
			for w != 0 {
				b := bits.TrailingZeros64(w)
				if !yield(word*64 + b) {
					return
				}
				w &= w - 1
			}
		}
	}
}

// String lists the set indices, e.g. "{0, 3, 255}".
func (m BitMask) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	first := true
	for i := range m.Indices() {
		if !first {
			sb.WriteString(", ")
		}
		first = false
		fmt.Fprintf(&sb, "%d", i)
	}
	sb.WriteByte('}')
	return sb.String()
}

// putBitMask writes m as four little-endian uint64s (32 bytes) into dst,
// which must have len(dst) >= 32.
func putBitMask(dst []byte, m BitMask) {
	for i, w := range m {
		for b := 0; b < 8; b++ {
			dst[i*8+b] = byte(w >> (8 * b))
		}
	}
}

// getBitMask reads a BitMask from 32 bytes of little-endian uint64s.
func getBitMask(src []byte) BitMask {
	var m BitMask
	for i := range m {
		var w uint64
		for b := 0; b < 8; b++ {
			w |= uint64(src[i*8+b]) << (8 * b)
		}
		m[i] = w
	}
	return m
}
