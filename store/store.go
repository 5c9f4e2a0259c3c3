// Package store persists extrinsic receipts and metadata blobs.
package store

import (
	"time"

	"github.com/anyswap/substrate-client/common"
	"github.com/anyswap/substrate-client/events"
	"github.com/anyswap/substrate-client/substrate"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// store errors
var (
	ErrReceiptNotFound  = common.NewKindError(common.ErrNotFound, "receipt not found")
	ErrMetadataNotFound = common.NewKindError(common.ErrNotFound, "metadata not found")
)

// ReceiptStore keeps finalized extrinsics
type ReceiptStore interface {
	PutReceipt(result *substrate.ExtrinsicSuccess) error
	GetReceipt(txHash common.Hash) (*Receipt, error)
}

// Store receipts and metadata
type Store interface {
	ReceiptStore
	substrate.MetadataCache
	Close() error
}

var (
	_ Store = &LevelDB{}
	_ Store = &Mongo{}
)

// Receipt a finalized extrinsic
type Receipt struct {
	Extrinsic common.Hash    `json:"extrinsic"`
	Block     common.Hash    `json:"block"`
	Events    []ReceiptEvent `json:"events"`
	Timestamp int64          `json:"timestamp"`
}

// ReceiptEvent an event of the extrinsic
type ReceiptEvent struct {
	Module      string        `json:"module"`
	Variant     string        `json:"variant"`
	ModuleIndex uint8         `json:"moduleIndex"`
	EventIndex  uint8         `json:"eventIndex"`
	Data        hexutil.Bytes `json:"data"`
}

// NewReceipt new receipt of result at now
func NewReceipt(result *substrate.ExtrinsicSuccess) *Receipt {
	receipt := &Receipt{
		Extrinsic: result.Extrinsic,
		Block:     result.Block,
		Events:    make([]ReceiptEvent, 0, len(result.Events)),
		Timestamp: time.Now().Unix(),
	}
	for _, event := range result.Events {
		receipt.Events = append(receipt.Events, ReceiptEvent{
			Module:      event.Module,
			Variant:     event.Variant,
			ModuleIndex: event.ModuleIndex,
			EventIndex:  event.EventIndex,
			Data:        event.Data,
		})
	}
	return receipt
}

// ExtrinsicSuccess converts back to the client result
func (r *Receipt) ExtrinsicSuccess() *substrate.ExtrinsicSuccess {
	result := &substrate.ExtrinsicSuccess{
		Extrinsic: r.Extrinsic,
		Block:     r.Block,
	}
	for _, event := range r.Events {
		result.Events = append(result.Events, events.RawEvent{
			Module:      event.Module,
			Variant:     event.Variant,
			ModuleIndex: event.ModuleIndex,
			EventIndex:  event.EventIndex,
			Data:        event.Data,
		})
	}
	return result
}
