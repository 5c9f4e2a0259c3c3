package frame

import (
	"context"
	"fmt"
	"math/big"

	"github.com/anyswap/substrate-client/metadata"
	"github.com/anyswap/substrate-client/scale"
	"github.com/anyswap/substrate-client/signer"
	"github.com/anyswap/substrate-client/substrate"
	"github.com/anyswap/substrate-client/types"
)

// Balances module
var Balances = &Module{
	Name:  "Balances",
	Calls: []string{"transfer"},
	Events: []Event{
		{Name: "Transfer", Args: []string{"AccountId", "AccountId", "Balance"}},
	},
}

// TransferCall encodes balances.transfer(dest, compact value)
func TransferCall(meta *metadata.Metadata, dest types.AccountID, value *big.Int) ([]byte, error) {
	amount, err := scale.NewCompactBig(value)
	if err != nil {
		return nil, fmt.Errorf("transfer value: %w", err)
	}
	return meta.Call(Balances.Name, "transfer", types.Address{AccountID: dest}, amount)
}

// TransferEvent a balance transfer
type TransferEvent struct {
	From   types.AccountID
	To     types.AccountID
	Amount *big.Int
}

// DecodeFrom implements scale.Decodeable
func (e *TransferEvent) DecodeFrom(d *scale.Decoder) (err error) {
	if err = e.From.DecodeFrom(d); err != nil {
		return err
	}
	if err = e.To.DecodeFrom(d); err != nil {
		return err
	}
	e.Amount, err = d.DecodeUint128()
	return err
}

// FindTransfer decodes the Balances.Transfer event of the extrinsic
func FindTransfer(result *substrate.ExtrinsicSuccess) (*TransferEvent, error) {
	event := &TransferEvent{}
	if err := DecodeEvent(result, Balances.Name, "Transfer", event); err != nil {
		return nil, err
	}
	return event, nil
}

// TransferAndWatch transfers value to dest and waits until finalized
func TransferAndWatch(ctx context.Context, c *substrate.Client, s signer.Signer, dest types.AccountID, value *big.Int) (*substrate.ExtrinsicSuccess, error) {
	call, err := TransferCall(c.Metadata(), dest, value)
	if err != nil {
		return nil, err
	}
	return c.SubmitAndWatchExtrinsic(ctx, call, s)
}
