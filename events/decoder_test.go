package events

import (
	"bytes"
	"errors"
	"testing"

	"github.com/anyswap/substrate-client/common"
	"github.com/anyswap/substrate-client/metadata"
	"github.com/anyswap/substrate-client/scale"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMetadata(t *testing.T) *metadata.Metadata {
	runtime := &metadata.RuntimeMetadata{Modules: []metadata.ModuleDecl{
		{
			Name: "System",
			Events: []metadata.EventDecl{
				{Name: "ExtrinsicSuccess"},
				{Name: "ExtrinsicFailed", Args: []string{"DispatchError"}},
			},
		},
		{
			Name:  "Timestamp",
			Calls: []metadata.CallDecl{{Name: "set"}},
		},
		{
			Name:  "Balances",
			Calls: []metadata.CallDecl{{Name: "transfer"}},
			Events: []metadata.EventDecl{
				{Name: "NewAccount", Args: []string{"AccountId", "Balance"}},
				{Name: "Transfer", Args: []string{"AccountId", "AccountId", "Balance", "Balance"}},
			},
		},
		{
			Name: "Contracts",
			Events: []metadata.EventDecl{
				{Name: "Contract", Args: []string{"AccountId", "Bytes"}},
				{Name: "Mixed", Args: []string{"Vec<(u8,Vec<bool>)>", "Option<Hash>", "Compact<u64>"}},
				{Name: "Exotic", Args: []string{"CustomThing"}},
				{Name: "Markers", Args: []string{"Vec<PhantomData>", "Vec<u32>"}},
			},
		},
	}}
	meta, err := metadata.Parse(runtime.Encode())
	require.Nil(t, err)
	return meta
}

func transferData(amount uint64) []byte {
	e := scale.NewEncoder()
	e.Write(bytes.Repeat([]byte{1}, 32))
	e.Write(bytes.Repeat([]byte{2}, 32))
	var b [16]byte
	b[0] = byte(amount)
	e.Write(b[:])
	e.Write(make([]byte, 16))
	return e.Bytes()
}

func TestDecodeEvents(t *testing.T) {
	decoder := NewDecoder(testMetadata(t))

	mixed := scale.NewEncoder()
	mixed.EncodeCompact(2)
	mixed.PushByte(7)
	mixed.EncodeCompact(2)
	mixed.EncodeBool(true)
	mixed.EncodeBool(false)
	mixed.PushByte(8)
	mixed.EncodeCompact(0)
	mixed.PushByte(1)
	mixed.Write(bytes.Repeat([]byte{9}, 32))
	mixed.EncodeCompact(1 << 40)

	contract := scale.NewEncoder()
	contract.Write(bytes.Repeat([]byte{3}, 32))
	contract.EncodeBytes([]byte("hello"))

	records := []EventRecord{
		{Phase: Phase{Kind: ApplyExtrinsic, ExtrinsicIndex: 0}, Event: RawEvent{ModuleIndex: 0, EventIndex: 0}},
		{Phase: Phase{Kind: ApplyExtrinsic, ExtrinsicIndex: 1}, Event: RawEvent{ModuleIndex: 1, EventIndex: 1, Data: transferData(5)}},
		{Phase: Phase{Kind: ApplyExtrinsic, ExtrinsicIndex: 1}, Event: RawEvent{ModuleIndex: 2, EventIndex: 0, Data: contract.Bytes()}},
		{Phase: Phase{Kind: ApplyExtrinsic, ExtrinsicIndex: 2}, Event: RawEvent{ModuleIndex: 2, EventIndex: 1, Data: mixed.Bytes()}},
		{
			Phase:  Phase{Kind: ApplyExtrinsic, ExtrinsicIndex: 2},
			Event:  RawEvent{ModuleIndex: 0, EventIndex: 1, Data: []byte{1, 3, 4}},
			Topics: []common.Hash{common.Blake2b256([]byte("topic"))},
		},
		{Phase: Phase{Kind: Finalization}, Event: RawEvent{ModuleIndex: 0, EventIndex: 0}},
	}

	decoded, err := decoder.DecodeEvents(EncodeRecords(records))
	require.Nil(t, err)
	require.Len(t, decoded, len(records))

	names := []string{}
	for i, record := range decoded {
		assert.Equal(t, records[i].Phase, record.Phase)
		assert.Equal(t, records[i].Event.ModuleIndex, record.Event.ModuleIndex)
		assert.Equal(t, records[i].Event.EventIndex, record.Event.EventIndex)
		assert.Equal(t, len(records[i].Event.Data), len(record.Event.Data))
		if len(records[i].Event.Data) > 0 {
			assert.Equal(t, records[i].Event.Data, record.Event.Data)
		}
		assert.Equal(t, len(records[i].Topics), len(record.Topics))
		names = append(names, record.Event.Module+"."+record.Event.Variant)
	}
	assert.Equal(t, []string{
		"System.ExtrinsicSuccess",
		"Balances.Transfer",
		"Contracts.Contract",
		"Contracts.Mixed",
		"System.ExtrinsicFailed",
		"System.ExtrinsicSuccess",
	}, names)
	assert.Equal(t, records[4].Topics, decoded[4].Topics)

	assert.True(t, decoded[1].Phase.IsApplyExtrinsic(1))
	assert.False(t, decoded[1].Phase.IsApplyExtrinsic(2))
	assert.False(t, decoded[5].Phase.IsApplyExtrinsic(0))
	assert.Equal(t, "Finalization", decoded[5].Phase.String())
}

func TestDecodeEventsErrors(t *testing.T) {
	decoder := NewDecoder(testMetadata(t))

	unknownModule := []EventRecord{{Event: RawEvent{ModuleIndex: 9}}}
	_, err := decoder.DecodeEvents(EncodeRecords(unknownModule))
	assert.True(t, errors.Is(err, metadata.ErrEventNotFound))

	unknownEvent := []EventRecord{{Event: RawEvent{ModuleIndex: 1, EventIndex: 7}}}
	_, err = decoder.DecodeEvents(EncodeRecords(unknownEvent))
	assert.True(t, errors.Is(err, metadata.ErrEventNotFound))

	exotic := []EventRecord{{Event: RawEvent{ModuleIndex: 2, EventIndex: 2, Data: []byte{1}}}}
	_, err = decoder.DecodeEvents(EncodeRecords(exotic))
	assert.True(t, errors.Is(err, ErrTypeSizeUnavailable))

	decoder.RegisterTypeSize("CustomThing", 1)
	decoded, err := decoder.DecodeEvents(EncodeRecords(exotic))
	require.Nil(t, err)
	assert.Equal(t, []byte{1}, decoded[0].Event.Data)

	truncated := EncodeRecords([]EventRecord{{Event: RawEvent{ModuleIndex: 1, EventIndex: 1, Data: transferData(1)[:40]}}})
	_, err = decoder.DecodeEvents(truncated)
	assert.True(t, errors.Is(err, common.ErrEncoding))

	_, err = decoder.DecodeEvents([]byte{4, 3})
	assert.True(t, errors.Is(err, ErrInvalidPhase))

	trailing := append(EncodeRecords(nil), 0)
	_, err = decoder.DecodeEvents(trailing)
	assert.True(t, errors.Is(err, ErrTrailingBytes))
}

func TestDecodeEventsHugeVecLength(t *testing.T) {
	decoder := NewDecoder(testMetadata(t))

	markers := scale.NewEncoder()
	markers.EncodeCompact(1 << 40)
	markers.EncodeCompact(1)
	markers.EncodeUint32(7)
	records := []EventRecord{{Event: RawEvent{ModuleIndex: 2, EventIndex: 3, Data: markers.Bytes()}}}
	decoded, err := decoder.DecodeEvents(EncodeRecords(records))
	require.Nil(t, err)
	require.Len(t, decoded, 1)
	assert.Equal(t, "Markers", decoded[0].Event.Variant)
	assert.Equal(t, markers.Bytes(), decoded[0].Event.Data)

	lying := scale.NewEncoder()
	lying.EncodeCompact(0)
	lying.EncodeCompact(1 << 40)
	lying.EncodeUint32(7)
	records = []EventRecord{{Event: RawEvent{ModuleIndex: 2, EventIndex: 3, Data: lying.Bytes()}}}
	_, err = decoder.DecodeEvents(EncodeRecords(records))
	assert.True(t, errors.Is(err, scale.ErrUnexpectedEOF))
}

func TestCheckMissingTypeSizes(t *testing.T) {
	decoder := NewDecoder(testMetadata(t))
	missing := decoder.CheckMissingTypeSizes()
	assert.Equal(t, 1, missing.Cardinality())
	assert.True(t, missing.Contains("CustomThing"))

	decoder.RegisterTypeSize("CustomThing", 4)
	assert.Equal(t, 0, decoder.CheckMissingTypeSizes().Cardinality())

	assert.Nil(t, decoder.RegisterTypeAlias("CustomThing", "(Unsized,u8)"))
	decoder2 := NewDecoder(testMetadata(t))
	assert.Nil(t, decoder2.RegisterTypeAlias("CustomThing", "(Unsized,u8)"))
	assert.True(t, decoder2.CheckMissingTypeSizes().Contains("CustomThing"))

	assert.True(t, errors.Is(decoder2.RegisterTypeAlias("Broken", "Vec<u8"), metadata.ErrInvalidEventArg))
}
