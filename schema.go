package world

import (
	"encoding/binary"

	"github.com/TheBitDrifter/bark"
)

// ComponentID, ArrayID, and TagID are dense, Schema-scoped identifiers.
// They are only meaningful relative to the Schema that issued them: the
// same numeric ID in two different Schemas may name unrelated types.
type ComponentID uint16
type ArrayID uint16
type TagID uint16

// MaxTypesPerKind is the number of distinct component, array, or tag
// types a single Schema can register: one bit per type in a BitMask.
const MaxTypesPerKind = BitMaskCapacity

// DisabledTag is the built-in tag every Schema pre-registers at tag ID
// 0. An entity carrying it, or descending from an entity carrying it, is
// excluded from queries that call Query.ExcludeDisabled.
const DisabledTag TagID = 0

type typeEntry struct {
	size       uint16
	hash       uint64
	registered bool
}

// Schema registers component, array, and tag types for one World and
// assigns each a dense 0-based ID. Schemas are not shared globally: two
// Schema values may assign different IDs to the same Go type, and a
// Definition or Chunk from one Schema must never be used with another.
type Schema struct {
	components   [MaxTypesPerKind]typeEntry
	arrays       [MaxTypesPerKind]typeEntry
	tags         [MaxTypesPerKind]typeEntry
	componentIdx map[uint64]ComponentID
	arrayIdx     map[uint64]ArrayID
	tagIdx       map[uint64]TagID
	numComps     int
	numArrays    int
	numTags      int
}

// NewSchema returns an empty Schema with the built-in Disabled tag
// already registered at TagID 0.
func NewSchema() *Schema {
	s := &Schema{
		componentIdx: make(map[uint64]ComponentID),
		arrayIdx:     make(map[uint64]ArrayID),
		tagIdx:       make(map[uint64]TagID),
	}
	s.tags[DisabledTag] = typeEntry{size: 0, hash: disabledTagHash, registered: true}
	s.tagIdx[disabledTagHash] = DisabledTag
	s.numTags = 1
	return s
}

// disabledTagHash is a fixed sentinel hash for the built-in Disabled
// tag, distinct from any fnv hash a real registered Go type could
// produce (those are derived from a non-empty type name string).
const disabledTagHash uint64 = 0

// RegisterComponent registers a component type of the given size (in
// bytes) under hash (typically an fnv hash of the type's name) and
// returns its ComponentID. Registering the same hash twice is idempotent
// in release mode (it returns the existing ID); in debug mode
// (Config.SetDebugAsserts(true)) it instead panics with DoubleRegistrationError,
// since a second direct call under the same hash usually means a caller
// bypassed the RegisterComponentType cache by mistake. Once the Schema
// has registered MaxTypesPerKind distinct component types, further
// registrations fail with TooManyTypesError.
func (s *Schema) RegisterComponent(hash uint64, size int) (ComponentID, error) {
	if id, ok := s.componentIdx[hash]; ok {
		if Config.DebugAsserts() {
			panic(bark.AddTrace(DoubleRegistrationError{Kind: "component", Hash: hash}))
		}
		return id, nil
	}
	if s.numComps >= MaxTypesPerKind {
		return 0, fail(TooManyTypesError{Kind: "component"})
	}
	id := ComponentID(s.numComps)
	s.components[id] = typeEntry{size: uint16(size), hash: hash, registered: true}
	s.componentIdx[hash] = id
	s.numComps++
	return id, nil
}

// RegisterArray registers an array element type of the given element
// size and returns its ArrayID. See RegisterComponent for the
// idempotent-vs-DoubleRegistrationError behavior of re-registering the
// same hash, and the TooManyTypesError condition.
func (s *Schema) RegisterArray(hash uint64, elemSize int) (ArrayID, error) {
	if id, ok := s.arrayIdx[hash]; ok {
		if Config.DebugAsserts() {
			panic(bark.AddTrace(DoubleRegistrationError{Kind: "array", Hash: hash}))
		}
		return id, nil
	}
	if s.numArrays >= MaxTypesPerKind {
		return 0, fail(TooManyTypesError{Kind: "array"})
	}
	id := ArrayID(s.numArrays)
	s.arrays[id] = typeEntry{size: uint16(elemSize), hash: hash, registered: true}
	s.arrayIdx[hash] = id
	s.numArrays++
	return id, nil
}

// RegisterTag registers a zero-sized tag type and returns its TagID. See
// RegisterComponent for the idempotent-vs-DoubleRegistrationError
// behavior of re-registering the same hash, and the TooManyTypesError
// condition.
func (s *Schema) RegisterTag(hash uint64) (TagID, error) {
	if id, ok := s.tagIdx[hash]; ok {
		if Config.DebugAsserts() {
			panic(bark.AddTrace(DoubleRegistrationError{Kind: "tag", Hash: hash}))
		}
		return id, nil
	}
	if s.numTags >= MaxTypesPerKind {
		return 0, fail(TooManyTypesError{Kind: "tag"})
	}
	id := TagID(s.numTags)
	s.tags[id] = typeEntry{size: 0, hash: hash, registered: true}
	s.tagIdx[hash] = id
	s.numTags++
	return id, nil
}

// ComponentSize returns the registered size of component id.
func (s *Schema) ComponentSize(id ComponentID) int {
	s.checkComponent(id)
	return int(s.components[id].size)
}

// ArraySize returns the registered element size of array id.
func (s *Schema) ArraySize(id ArrayID) int {
	s.checkArray(id)
	return int(s.arrays[id].size)
}

// HasComponent reports whether id has been registered.
func (s *Schema) HasComponent(id ComponentID) bool {
	return int(id) < MaxTypesPerKind && s.components[id].registered
}

// HasArray reports whether id has been registered.
func (s *Schema) HasArray(id ArrayID) bool {
	return int(id) < MaxTypesPerKind && s.arrays[id].registered
}

// HasTag reports whether id has been registered.
func (s *Schema) HasTag(id TagID) bool {
	return int(id) < MaxTypesPerKind && s.tags[id].registered
}

// NumComponents returns the count of registered component types.
func (s *Schema) NumComponents() int { return s.numComps }

// NumArrays returns the count of registered array types.
func (s *Schema) NumArrays() int { return s.numArrays }

// NumTags returns the count of registered tag types, including the
// built-in Disabled tag.
func (s *Schema) NumTags() int { return s.numTags }

func (s *Schema) checkComponent(id ComponentID) {
	if !s.HasComponent(id) {
		panic(bark.AddTrace(NotRegisteredError{Kind: "component", ID: int(id)}))
	}
}

func (s *Schema) checkArray(id ArrayID) {
	if !s.HasArray(id) {
		panic(bark.AddTrace(NotRegisteredError{Kind: "array", ID: int(id)}))
	}
}

func (s *Schema) checkTag(id TagID) {
	if !s.HasTag(id) {
		panic(bark.AddTrace(NotRegisteredError{Kind: "tag", ID: int(id)}))
	}
}

// Clear resets the Schema to empty, re-registering only the built-in
// Disabled tag. Any Chunk or Definition created under the previous
// registrations becomes invalid.
func (s *Schema) Clear() {
	*s = *NewSchema()
}

// schemaSnapshotHeaderSize is 1 byte each for component/array/tag counts.
const schemaSnapshotHeaderSize = 3

// tagsMaskSize is the byte length of a BitMask's binary encoding.
const tagsMaskSize = bitMaskWords * 8

// schemaSnapshotSize is the exact, fixed length of a Schema snapshot:
// 3 header bytes, a 32-byte tags-presence mask, a 1024-byte sizes block
// (2 bytes each for 256 components + 256 arrays), and a 6144-byte
// type-hash block (8 bytes each for 256 components + 256 arrays + 256
// tags) = 3 + 32 + 1024 + 6144 = 7203 bytes.
const schemaSnapshotSize = schemaSnapshotHeaderSize + tagsMaskSize +
	(MaxTypesPerKind*2)*2 + (MaxTypesPerKind*8)*3

// Snapshot encodes the full Schema state into a fixed-length byte
// slice, per the exact layout documented on schemaSnapshotSize.
func (s *Schema) Snapshot() []byte {
	buf := make([]byte, schemaSnapshotSize)
	off := 0

	buf[0] = byte(s.numComps)
	buf[1] = byte(s.numArrays)
	buf[2] = byte(s.numTags)
	off += schemaSnapshotHeaderSize

	var tagsPresent BitMask
	for i := 0; i < s.numTags; i++ {
		tagsPresent.Set(i)
	}
	putBitMask(buf[off:], tagsPresent)
	off += tagsMaskSize

	for i := 0; i < MaxTypesPerKind; i++ {
		binary.LittleEndian.PutUint16(buf[off:], s.components[i].size)
		off += 2
	}
	for i := 0; i < MaxTypesPerKind; i++ {
		binary.LittleEndian.PutUint16(buf[off:], s.arrays[i].size)
		off += 2
	}

	for i := 0; i < MaxTypesPerKind; i++ {
		binary.LittleEndian.PutUint64(buf[off:], s.components[i].hash)
		off += 8
	}
	for i := 0; i < MaxTypesPerKind; i++ {
		binary.LittleEndian.PutUint64(buf[off:], s.arrays[i].hash)
		off += 8
	}
	for i := 0; i < MaxTypesPerKind; i++ {
		binary.LittleEndian.PutUint64(buf[off:], s.tags[i].hash)
		off += 8
	}

	return buf
}

// LoadSchemaSnapshot decodes a Schema previously produced by Snapshot.
// It returns OutOfRangeError if data is not exactly schemaSnapshotSize
// bytes long.
func LoadSchemaSnapshot(data []byte) (*Schema, error) {
	if len(data) != schemaSnapshotSize {
		return nil, OutOfRangeError{What: "schema snapshot length", Index: len(data)}
	}
	s := &Schema{
		componentIdx: make(map[uint64]ComponentID),
		arrayIdx:     make(map[uint64]ArrayID),
		tagIdx:       make(map[uint64]TagID),
	}
	off := 0
	s.numComps = int(data[0])
	s.numArrays = int(data[1])
	s.numTags = int(data[2])
	off += schemaSnapshotHeaderSize

	tagsPresent := getBitMask(data[off:])
	off += tagsMaskSize

	sizes := make([]uint16, MaxTypesPerKind*2)
	for i := range sizes {
		sizes[i] = binary.LittleEndian.Uint16(data[off:])
		off += 2
	}
	compSizes, arraySizes := sizes[:MaxTypesPerKind], sizes[MaxTypesPerKind:]

	hashes := make([]uint64, MaxTypesPerKind*3)
	for i := range hashes {
		hashes[i] = binary.LittleEndian.Uint64(data[off:])
		off += 8
	}
	compHashes := hashes[:MaxTypesPerKind]
	arrayHashes := hashes[MaxTypesPerKind : 2*MaxTypesPerKind]
	tagHashes := hashes[2*MaxTypesPerKind:]

	for i := 0; i < s.numComps; i++ {
		s.components[i] = typeEntry{size: compSizes[i], hash: compHashes[i], registered: true}
		s.componentIdx[compHashes[i]] = ComponentID(i)
	}
	for i := 0; i < s.numArrays; i++ {
		s.arrays[i] = typeEntry{size: arraySizes[i], hash: arrayHashes[i], registered: true}
		s.arrayIdx[arrayHashes[i]] = ArrayID(i)
	}
	for i := 0; i < s.numTags; i++ {
		if !tagsPresent.Contains(i) {
			continue
		}
		s.tags[i] = typeEntry{size: 0, hash: tagHashes[i], registered: true}
		s.tagIdx[tagHashes[i]] = TagID(i)
	}

	return s, nil
}
