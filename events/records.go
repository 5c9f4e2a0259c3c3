// Package events decodes the block wide System Events storage value into
// records without static event types, using the argument type names found
// in the metadata and a registry of primitive type sizes.
package events

import (
	"fmt"

	"github.com/anyswap/substrate-client/common"
	"github.com/anyswap/substrate-client/scale"
)

// events errors
var (
	ErrInvalidPhase        = common.NewKindError(common.ErrEncoding, "invalid event phase")
	ErrTypeSizeUnavailable = common.NewKindError(common.ErrEncoding, "type size unavailable")
	ErrTrailingBytes       = common.NewKindError(common.ErrEncoding, "trailing bytes after events")
)

// PhaseKind phase kind
type PhaseKind uint8

// phase kinds
const (
	ApplyExtrinsic PhaseKind = iota
	Finalization
	Initialization
)

// Phase the block execution phase an event was emitted in
type Phase struct {
	Kind           PhaseKind
	ExtrinsicIndex uint32 // ApplyExtrinsic only
}

// IsApplyExtrinsic is emitted while applying the extrinsic at index
func (p Phase) IsApplyExtrinsic(index int) bool {
	return p.Kind == ApplyExtrinsic && int(p.ExtrinsicIndex) == index
}

// String implements the stringer interface
func (p Phase) String() string {
	switch p.Kind {
	case ApplyExtrinsic:
		return fmt.Sprintf("ApplyExtrinsic(%d)", p.ExtrinsicIndex)
	case Finalization:
		return "Finalization"
	case Initialization:
		return "Initialization"
	default:
		return fmt.Sprintf("Phase(%d)", uint8(p.Kind))
	}
}

// EncodeTo implements scale.Encodeable
func (p Phase) EncodeTo(e *scale.Encoder) {
	e.PushByte(byte(p.Kind))
	if p.Kind == ApplyExtrinsic {
		e.EncodeUint32(p.ExtrinsicIndex)
	}
}

// DecodeFrom implements scale.Decodeable
func (p *Phase) DecodeFrom(d *scale.Decoder) error {
	tag, err := d.ReadByte()
	if err != nil {
		return err
	}
	p.Kind = PhaseKind(tag)
	switch p.Kind {
	case ApplyExtrinsic:
		p.ExtrinsicIndex, err = d.DecodeUint32()
		return err
	case Finalization, Initialization:
		p.ExtrinsicIndex = 0
		return nil
	default:
		return fmt.Errorf("%w: tag %d", ErrInvalidPhase, tag)
	}
}

// RawEvent an event with its undecoded argument bytes
type RawEvent struct {
	Module      string
	Variant     string
	ModuleIndex uint8
	EventIndex  uint8
	Data        []byte
}

// String implements the stringer interface
func (e RawEvent) String() string {
	return fmt.Sprintf("%v.%v(0x%x)", e.Module, e.Variant, e.Data)
}

// EventRecord a record of the System Events storage value
type EventRecord struct {
	Phase  Phase
	Event  RawEvent
	Topics []common.Hash
}

// EncodeTo implements scale.Encodeable
func (r *EventRecord) EncodeTo(e *scale.Encoder) {
	r.Phase.EncodeTo(e)
	e.PushByte(r.Event.ModuleIndex)
	e.PushByte(r.Event.EventIndex)
	e.Write(r.Event.Data)
	e.EncodeCompact(uint64(len(r.Topics)))
	for _, topic := range r.Topics {
		e.Write(topic[:])
	}
}

// EncodeRecords encodes records as a System Events storage value
func EncodeRecords(records []EventRecord) []byte {
	e := scale.NewEncoder()
	e.EncodeCompact(uint64(len(records)))
	for i := range records {
		records[i].EncodeTo(e)
	}
	return e.Bytes()
}
