package store

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/anyswap/substrate-client/common"
	"github.com/anyswap/substrate-client/log"
	"github.com/anyswap/substrate-client/substrate"
	goleveldb "github.com/syndtr/goleveldb/leveldb"
	dberrors "github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

const (
	// minCache is the minimum amount of memory in megabytes to allocate to leveldb
	// read and write caching, split half and half.
	minCache = 16

	// minHandles is the minimum number of files handles to allocate to the open
	// database files.
	minHandles = 16
)

var (
	receiptPrefix  = []byte("r")
	metadataPrefix = []byte("m")
)

// LevelDB is a persistent receipt store and metadata cache.
type LevelDB struct {
	path  string        // filename
	lvldb *goleveldb.DB // LevelDB instance
}

// NewLevelDB returns a leveldb store.
func NewLevelDB(path string, cache int, handles int) (*LevelDB, error) {
	// Ensure we have some minimal caching and file guarantees
	if cache < minCache {
		cache = minCache
	}
	if handles < minHandles {
		handles = minHandles
	}
	options := &opt.Options{
		Filter:                 filter.NewBloomFilter(10),
		DisableSeeksCompaction: true,
		OpenFilesCacheCapacity: handles,
		BlockCacheCapacity:     cache / 2 * opt.MiB,
		WriteBuffer:            cache / 4 * opt.MiB, // Two of these are used internally
	}
	log.Info("Allocated cache and file handles", "database", path, "cache", fmt.Sprintf("%dMB", cache), "handles", handles)

	// Open the db and recover any potential corruptions
	db, err := goleveldb.OpenFile(path, options)
	if dberrors.IsCorrupted(err) {
		log.Warn("recover corrupted database", "database", path, "err", err)
		db, err = goleveldb.RecoverFile(path, nil)
	}
	if err != nil {
		return nil, err
	}
	return &LevelDB{path: path, lvldb: db}, nil
}

// Path returns the path to the database directory.
func (db *LevelDB) Path() string {
	return db.path
}

// Close flushes any pending data to disk and closes
// all io accesses to the underlying key-value store.
func (db *LevelDB) Close() error {
	return db.lvldb.Close()
}

// PutReceipt implements ReceiptStore
func (db *LevelDB) PutReceipt(result *substrate.ExtrinsicSuccess) error {
	value, err := json.Marshal(NewReceipt(result))
	if err != nil {
		return err
	}
	return db.lvldb.Put(receiptKey(result.Extrinsic), value, nil)
}

// GetReceipt implements ReceiptStore
func (db *LevelDB) GetReceipt(txHash common.Hash) (*Receipt, error) {
	value, err := db.lvldb.Get(receiptKey(txHash), nil)
	if err != nil {
		if isNotFoundErr(err) {
			return nil, fmt.Errorf("%w: %v", ErrReceiptNotFound, txHash)
		}
		return nil, err
	}
	receipt := &Receipt{}
	if err = json.Unmarshal(value, receipt); err != nil {
		return nil, err
	}
	return receipt, nil
}

// PutMetadata implements substrate.MetadataCache
func (db *LevelDB) PutMetadata(genesis common.Hash, specVersion uint32, blob []byte) error {
	return db.lvldb.Put(metadataKey(genesis, specVersion), blob, nil)
}

// GetMetadata implements substrate.MetadataCache
func (db *LevelDB) GetMetadata(genesis common.Hash, specVersion uint32) ([]byte, error) {
	blob, err := db.lvldb.Get(metadataKey(genesis, specVersion), nil)
	if err != nil {
		if isNotFoundErr(err) {
			return nil, fmt.Errorf("%w: %v version %d", ErrMetadataNotFound, genesis, specVersion)
		}
		return nil, err
	}
	return blob, nil
}

func isNotFoundErr(err error) bool {
	return err == dberrors.ErrNotFound
}

func receiptKey(txHash common.Hash) []byte {
	return append(append([]byte{}, receiptPrefix...), txHash[:]...)
}

func metadataKey(genesis common.Hash, specVersion uint32) []byte {
	key := append(append([]byte{}, metadataPrefix...), genesis[:]...)
	var version [4]byte
	binary.BigEndian.PutUint32(version[:], specVersion)
	return append(key, version[:]...)
}
