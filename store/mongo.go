package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/anyswap/substrate-client/common"
	"github.com/anyswap/substrate-client/log"
	"github.com/anyswap/substrate-client/params"
	"github.com/anyswap/substrate-client/substrate"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"gopkg.in/mgo.v2"
	"gopkg.in/mgo.v2/bson"
)

const (
	tbReceipts = "Receipts"
	tbMetadata = "Metadata"

	dialTimeout = 10 * time.Second
)

// ErrItemIsDup duplicate key
var ErrItemIsDup = errors.New("mgoError: item is duplicate")

// Mongo is a mongodb receipt store and metadata cache.
type Mongo struct {
	session  *mgo.Session
	receipts *mgo.Collection
	metadata *mgo.Collection
}

// MgoReceipt receipt document
type MgoReceipt struct {
	Key       string        `bson:"_id"`
	Block     string        `bson:"block"`
	Events    []MgoRawEvent `bson:"events"`
	Timestamp int64         `bson:"timestamp"`
}

// MgoRawEvent event document
type MgoRawEvent struct {
	Module      string `bson:"module"`
	Variant     string `bson:"variant"`
	ModuleIndex uint8  `bson:"moduleIndex"`
	EventIndex  uint8  `bson:"eventIndex"`
	Data        string `bson:"data"`
}

// MgoMetadata metadata document
type MgoMetadata struct {
	Key         string `bson:"_id"`
	Genesis     string `bson:"genesis"`
	SpecVersion uint32 `bson:"specVersion"`
	Blob        []byte `bson:"blob"`
}

// DialMongo connects the database of config
func DialMongo(config *params.MongoDBConfig) (*Mongo, error) {
	dialInfo, err := mgo.ParseURL(config.GetURL())
	if err != nil {
		return nil, err
	}
	dialInfo.Database = config.DBName
	dialInfo.Timeout = dialTimeout
	log.Info("[mongodb] connect database start.", "addrs", dialInfo.Addrs, "dbName", dialInfo.Database)
	session, err := mgo.DialWithInfo(dialInfo)
	if err != nil {
		return nil, mgoError(err)
	}
	session.SetMode(mgo.Monotonic, true)
	session.SetSafe(&mgo.Safe{FSync: true})
	database := session.DB(dialInfo.Database)
	m := &Mongo{
		session:  session,
		receipts: initCollection(database, tbReceipts, "block", "timestamp"),
		metadata: initCollection(database, tbMetadata, "genesis"),
	}
	log.Info("[mongodb] connect database finished.", "dbName", dialInfo.Database)
	return m, nil
}

func initCollection(database *mgo.Database, table string, indexKey ...string) *mgo.Collection {
	collection := database.C(table)
	if len(indexKey) != 0 {
		if err := collection.EnsureIndexKey(indexKey...); err != nil {
			log.Warn("[mongodb] ensure index failed", "table", table, "keys", indexKey, "err", err)
		}
	}
	return collection
}

// Close closes the session
func (m *Mongo) Close() error {
	m.session.Close()
	return nil
}

// PutReceipt implements ReceiptStore
func (m *Mongo) PutReceipt(result *substrate.ExtrinsicSuccess) error {
	doc := newMgoReceipt(NewReceipt(result))
	_, err := m.receipts.UpsertId(doc.Key, doc)
	if err == nil {
		log.Info("[mongodb] put receipt success", "extrinsic", doc.Key, "block", doc.Block)
	} else {
		log.Debug("[mongodb] put receipt failed", "extrinsic", doc.Key, "err", err)
	}
	return mgoError(err)
}

// GetReceipt implements ReceiptStore
func (m *Mongo) GetReceipt(txHash common.Hash) (*Receipt, error) {
	var doc MgoReceipt
	err := m.receipts.FindId(txHash.Hex()).One(&doc)
	if errors.Is(err, mgo.ErrNotFound) {
		return nil, fmt.Errorf("%w: %v", ErrReceiptNotFound, txHash)
	}
	if err != nil {
		return nil, mgoError(err)
	}
	return doc.toReceipt()
}

// PutMetadata implements substrate.MetadataCache
func (m *Mongo) PutMetadata(genesis common.Hash, specVersion uint32, blob []byte) error {
	doc := &MgoMetadata{
		Key:         metadataDocKey(genesis, specVersion),
		Genesis:     genesis.Hex(),
		SpecVersion: specVersion,
		Blob:        blob,
	}
	_, err := m.metadata.UpsertId(doc.Key, doc)
	return mgoError(err)
}

// GetMetadata implements substrate.MetadataCache
func (m *Mongo) GetMetadata(genesis common.Hash, specVersion uint32) ([]byte, error) {
	var doc MgoMetadata
	err := m.metadata.Find(bson.M{"genesis": genesis.Hex(), "specVersion": specVersion}).One(&doc)
	if errors.Is(err, mgo.ErrNotFound) {
		return nil, fmt.Errorf("%w: %v version %d", ErrMetadataNotFound, genesis, specVersion)
	}
	if err != nil {
		return nil, mgoError(err)
	}
	return doc.Blob, nil
}

func metadataDocKey(genesis common.Hash, specVersion uint32) string {
	return fmt.Sprintf("%v:%d", genesis.Hex(), specVersion)
}

func newMgoReceipt(receipt *Receipt) *MgoReceipt {
	doc := &MgoReceipt{
		Key:       receipt.Extrinsic.Hex(),
		Block:     receipt.Block.Hex(),
		Events:    make([]MgoRawEvent, 0, len(receipt.Events)),
		Timestamp: receipt.Timestamp,
	}
	for _, event := range receipt.Events {
		doc.Events = append(doc.Events, MgoRawEvent{
			Module:      event.Module,
			Variant:     event.Variant,
			ModuleIndex: event.ModuleIndex,
			EventIndex:  event.EventIndex,
			Data:        hexutil.Encode(event.Data),
		})
	}
	return doc
}

func (doc *MgoReceipt) toReceipt() (*Receipt, error) {
	receipt := &Receipt{
		Extrinsic: common.HexToHash(doc.Key),
		Block:     common.HexToHash(doc.Block),
		Events:    make([]ReceiptEvent, 0, len(doc.Events)),
		Timestamp: doc.Timestamp,
	}
	for _, event := range doc.Events {
		data, err := hexutil.Decode(event.Data)
		if err != nil {
			return nil, fmt.Errorf("receipt %v event %v.%v: %w", doc.Key, event.Module, event.Variant, err)
		}
		receipt.Events = append(receipt.Events, ReceiptEvent{
			Module:      event.Module,
			Variant:     event.Variant,
			ModuleIndex: event.ModuleIndex,
			EventIndex:  event.EventIndex,
			Data:        data,
		})
	}
	return receipt, nil
}

func mgoError(err error) error {
	if err != nil {
		if mgo.IsDup(err) {
			return ErrItemIsDup
		}
		return common.NewKindError(common.ErrTransport, "mgoError: "+err.Error())
	}
	return nil
}
