package metadata

import (
	"fmt"

	"github.com/anyswap/substrate-client/common"
	"github.com/anyswap/substrate-client/scale"
)

// StorageMetadata storage entry metadata
type StorageMetadata struct {
	prefix   string
	modifier StorageModifier
	ty       EntryType
	def      []byte
}

// Prefix returns "<module prefix> <entry name>"
func (s *StorageMetadata) Prefix() string {
	return s.prefix
}

// Modifier returns entry modifier
func (s *StorageMetadata) Modifier() StorageModifier {
	return s.modifier
}

// Type returns entry type
func (s *StorageMetadata) Type() EntryType {
	return s.ty
}

// Default returns raw default value
func (s *StorageMetadata) Default() []byte {
	return s.def
}

// Plain returns the key of a plain entry
func (s *StorageMetadata) Plain() ([]byte, error) {
	if s.ty.Kind != PlainEntry {
		return nil, fmt.Errorf("%w: %v is %v", ErrStorageTypeMismatch, s.prefix, s.ty.Kind)
	}
	return common.Twox([]byte(s.prefix), 128), nil
}

// Map returns the map view of a map entry
func (s *StorageMetadata) Map() (*StorageMap, error) {
	if s.ty.Kind != MapEntry {
		return nil, fmt.Errorf("%w: %v is %v", ErrStorageTypeMismatch, s.prefix, s.ty.Kind)
	}
	return &StorageMap{
		prefix: []byte(s.prefix),
		hasher: s.ty.Hasher,
		def:    s.def,
	}, nil
}

// StorageMap derives keys of a map entry
type StorageMap struct {
	prefix []byte
	hasher common.StorageHasher
	def    []byte
}

// NewStorageMap new storage map
func NewStorageMap(prefix string, hasher common.StorageHasher, def []byte) *StorageMap {
	return &StorageMap{prefix: []byte(prefix), hasher: hasher, def: def}
}

// Hasher returns the hasher of the map
func (m *StorageMap) Hasher() common.StorageHasher {
	return m.hasher
}

// Key returns hash(prefix ++ encodedKey)
func (m *StorageMap) Key(encodedKey []byte) []byte {
	data := make([]byte, 0, len(m.prefix)+len(encodedKey))
	data = append(data, m.prefix...)
	data = append(data, encodedKey...)
	return m.hasher.Hash(data)
}

// KeyOf encodes key then derives the storage key
func (m *StorageMap) KeyOf(key scale.Encodeable) []byte {
	return m.Key(scale.Encode(key))
}

// Default returns raw default value
func (m *StorageMap) Default() []byte {
	return m.def
}

// DecodeDefault decodes default value into v
func (m *StorageMap) DecodeDefault(v scale.Decodeable) error {
	if err := scale.Decode(m.def, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMapValueType, err)
	}
	return nil
}
