package common

import (
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/crypto/blake2b"
)

// StorageHasher the hash algorithm a storage entry addresses its keys with
type StorageHasher uint8

// storage hashers, the values are the metadata wire tags
const (
	Blake2_128 StorageHasher = iota
	Blake2_256
	Twox128
	Twox256
	Twox64Concat
)

var storageHasherNames = []string{
	"Blake2_128",
	"Blake2_256",
	"Twox128",
	"Twox256",
	"Twox64Concat",
}

// IsValid is known hasher
func (h StorageHasher) IsValid() bool {
	return int(h) < len(storageHasherNames)
}

// String implements the stringer interface
func (h StorageHasher) String() string {
	if h.IsValid() {
		return storageHasherNames[h]
	}
	return fmt.Sprintf("StorageHasher(%d)", uint8(h))
}

// Hash digests data with the hasher. Unknown hashers return nil.
func (h StorageHasher) Hash(data []byte) []byte {
	switch h {
	case Blake2_128:
		return Blake2b128(data)
	case Blake2_256:
		hash := Blake2b256(data)
		return hash[:]
	case Twox128:
		return Twox(data, 128)
	case Twox256:
		return Twox(data, 256)
	case Twox64Concat:
		return Twox(data, 64)
	default:
		return nil
	}
}

// Blake2b128 16 bytes blake2b digest
func Blake2b128(data []byte) []byte {
	hasher, err := blake2b.New(16, nil)
	if err != nil {
		panic(err) // only on invalid size
	}
	_, _ = hasher.Write(data)
	return hasher.Sum(nil)
}

// Blake2b256 32 bytes blake2b digest
func Blake2b256(data []byte) Hash {
	return Hash(blake2b.Sum256(data))
}

// Twox concatenates little endian xxhash64 digests of data,
// seeded 0, 1, ... until bits are produced.
func Twox(data []byte, bits int) []byte {
	rounds := bits / 64
	out := make([]byte, 8*rounds)
	for seed := 0; seed < rounds; seed++ {
		digest := xxhash.NewWithSeed(uint64(seed))
		_, _ = digest.Write(data)
		binary.LittleEndian.PutUint64(out[8*seed:], digest.Sum64())
	}
	return out
}
