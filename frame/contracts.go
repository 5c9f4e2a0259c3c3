package frame

import (
	"context"
	"fmt"
	"math/big"

	"github.com/anyswap/substrate-client/common"
	"github.com/anyswap/substrate-client/metadata"
	"github.com/anyswap/substrate-client/scale"
	"github.com/anyswap/substrate-client/signer"
	"github.com/anyswap/substrate-client/substrate"
	"github.com/anyswap/substrate-client/types"
)

// Contracts module
var Contracts = &Module{
	Name:  "Contracts",
	Calls: []string{"put_code", "instantiate", "call"},
	Events: []Event{
		{Name: "Instantiated", Args: []string{"AccountId", "AccountId"}},
		{Name: "CodeStored", Args: []string{"Hash"}},
	},
	TypeSizes: map[string]int{
		"Gas": 8,
	},
}

// PutCodeCall encodes contracts.put_code(code), stores the wasm code
func PutCodeCall(meta *metadata.Metadata, code []byte) ([]byte, error) {
	return meta.Call(Contracts.Name, "put_code", scale.Bytes(code))
}

// InstantiateCall encodes contracts.instantiate(compact endowment,
// compact gas limit, code hash, data)
func InstantiateCall(meta *metadata.Metadata, endowment *big.Int, gasLimit uint64, codeHash common.Hash, data []byte) ([]byte, error) {
	amount, err := scale.NewCompactBig(endowment)
	if err != nil {
		return nil, fmt.Errorf("instantiate endowment: %w", err)
	}
	return meta.Call(Contracts.Name, "instantiate",
		amount,
		scale.Compact(gasLimit),
		scale.Raw(codeHash[:]),
		scale.Bytes(data),
	)
}

// CallCall encodes contracts.call(dest, value, compact gas limit, data)
func CallCall(meta *metadata.Metadata, dest types.AccountID, value *big.Int, gasLimit uint64, data []byte) ([]byte, error) {
	amount, err := scale.NewU128(value)
	if err != nil {
		return nil, fmt.Errorf("call value: %w", err)
	}
	return meta.Call(Contracts.Name, "call",
		types.Address{AccountID: dest},
		amount,
		scale.Compact(gasLimit),
		scale.Bytes(data),
	)
}

// CodeStoredEvent code stored event
type CodeStoredEvent struct {
	CodeHash common.Hash
}

// DecodeFrom implements scale.Decodeable
func (e *CodeStoredEvent) DecodeFrom(d *scale.Decoder) error {
	b, err := d.Next(common.HashLength)
	if err != nil {
		return err
	}
	e.CodeHash = common.BytesToHash(b)
	return nil
}

// InstantiatedEvent instantiated event
type InstantiatedEvent struct {
	Caller   types.AccountID
	Contract types.AccountID
}

// DecodeFrom implements scale.Decodeable
func (e *InstantiatedEvent) DecodeFrom(d *scale.Decoder) error {
	if err := e.Caller.DecodeFrom(d); err != nil {
		return err
	}
	return e.Contract.DecodeFrom(d)
}

// FindCodeStored decodes the Contracts.CodeStored event of the extrinsic
func FindCodeStored(result *substrate.ExtrinsicSuccess) (*CodeStoredEvent, error) {
	event := &CodeStoredEvent{}
	if err := DecodeEvent(result, Contracts.Name, "CodeStored", event); err != nil {
		return nil, err
	}
	return event, nil
}

// FindInstantiated decodes the Contracts.Instantiated event of the extrinsic
func FindInstantiated(result *substrate.ExtrinsicSuccess) (*InstantiatedEvent, error) {
	event := &InstantiatedEvent{}
	if err := DecodeEvent(result, Contracts.Name, "Instantiated", event); err != nil {
		return nil, err
	}
	return event, nil
}

// PutCodeAndWatch stores code and waits until finalized
func PutCodeAndWatch(ctx context.Context, c *substrate.Client, s signer.Signer, code []byte) (*substrate.ExtrinsicSuccess, error) {
	call, err := PutCodeCall(c.Metadata(), code)
	if err != nil {
		return nil, err
	}
	return c.SubmitAndWatchExtrinsic(ctx, call, s)
}

// InstantiateAndWatch instantiates stored code and waits until finalized
func InstantiateAndWatch(ctx context.Context, c *substrate.Client, s signer.Signer, endowment *big.Int, gasLimit uint64, codeHash common.Hash, data []byte) (*substrate.ExtrinsicSuccess, error) {
	call, err := InstantiateCall(c.Metadata(), endowment, gasLimit, codeHash, data)
	if err != nil {
		return nil, err
	}
	return c.SubmitAndWatchExtrinsic(ctx, call, s)
}

// CallAndWatch calls a contract and waits until finalized
func CallAndWatch(ctx context.Context, c *substrate.Client, s signer.Signer, dest types.AccountID, value *big.Int, gasLimit uint64, data []byte) (*substrate.ExtrinsicSuccess, error) {
	call, err := CallCall(c.Metadata(), dest, value, gasLimit, data)
	if err != nil {
		return nil, err
	}
	return c.SubmitAndWatchExtrinsic(ctx, call, s)
}
