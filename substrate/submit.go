package substrate

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anyswap/substrate-client/common"
	"github.com/anyswap/substrate-client/events"
	"github.com/anyswap/substrate-client/log"
	"github.com/anyswap/substrate-client/signer"
	"github.com/anyswap/substrate-client/types"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"golang.org/x/sync/errgroup"
)

// ExtrinsicSuccess a finalized extrinsic and the events it emitted
type ExtrinsicSuccess struct {
	Block     common.Hash
	Extrinsic common.Hash
	Events    []events.RawEvent
}

// FindEvent returns the first event of module with the name
func (s *ExtrinsicSuccess) FindEvent(module, name string) (*events.RawEvent, bool) {
	for i := range s.Events {
		if s.Events[i].Module == module && s.Events[i].Variant == name {
			return &s.Events[i], true
		}
	}
	return nil, false
}

type blockPosition struct {
	block    common.Hash
	position int
}

// events values of blocks seen before the extrinsic is located
const maxRecentBlocks = 64

// recentBlocks keeps the events values of the last maxRecentBlocks blocks
type recentBlocks struct {
	data  map[common.Hash][]byte
	order []common.Hash
}

func newRecentBlocks() *recentBlocks {
	return &recentBlocks{data: make(map[common.Hash][]byte)}
}

func (r *recentBlocks) add(block common.Hash, data []byte) {
	if _, exist := r.data[block]; !exist {
		if len(r.order) == maxRecentBlocks {
			delete(r.data, r.order[0])
			r.order = r.order[1:]
		}
		r.order = append(r.order, block)
	}
	r.data[block] = data
}

func (r *recentBlocks) get(block common.Hash) ([]byte, bool) {
	data, exist := r.data[block]
	return data, exist
}

// CreateSignedExtrinsic signs call with the nonce for the chain of genesis
func CreateSignedExtrinsic(call []byte, nonce uint32, genesis common.Hash, s signer.Signer) (*types.Extrinsic, error) {
	extra := types.NewSignedExtra(nonce)
	payload := &types.SignedPayload{Call: call, Extra: extra, GenesisHash: genesis}
	signature, err := s.Sign(payload.SigningTarget())
	if err != nil {
		return nil, err
	}
	if len(signature) != types.SignatureLength {
		return nil, fmt.Errorf("%w: %d", ErrWrongSignature, len(signature))
	}
	return &types.Extrinsic{
		Signer:    s.AccountID(),
		Signature: signature,
		Extra:     extra,
		Call:      call,
	}, nil
}

// SubmitExtrinsic call author_submitExtrinsic, does not wait for inclusion
func (c *Client) SubmitExtrinsic(ctx context.Context, ext *types.Extrinsic) (common.Hash, error) {
	var result common.Hash
	if err := c.requester.Request(ctx, "author_submitExtrinsic", &result, hexutil.Bytes(ext.Encode())); err != nil {
		return common.Hash{}, err
	}
	return result, nil
}

// SubmitAndWatch submits ext and watches its status until finalized,
// returns the hash of the block it is finalized in.
func (c *Client) SubmitAndWatch(ctx context.Context, ext *types.Extrinsic) (common.Hash, error) {
	encoded := ext.Encode()
	txHash := types.ExtrinsicHash(encoded)
	sub, err := c.subscribe(ctx, "author_submitAndWatchExtrinsic", "author_unwatchExtrinsic", hexutil.Bytes(encoded))
	if err != nil {
		return common.Hash{}, err
	}
	defer sub.Unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return common.Hash{}, ctx.Err()
		case err := <-sub.Err():
			return common.Hash{}, err
		case msg, ok := <-sub.Notifications():
			if !ok {
				return common.Hash{}, fmt.Errorf("%w: watching extrinsic %v", ErrStreamTerminated, txHash)
			}
			var status types.TransactionStatus
			if err := json.Unmarshal(msg, &status); err != nil {
				return common.Hash{}, fmt.Errorf("%w: transaction status %v", common.ErrEncoding, err)
			}
			log.Debug("extrinsic status", "txHash", txHash, "status", status)
			if !status.IsTerminal() {
				continue
			}
			switch status.Kind {
			case types.StatusFinalized:
				return status.Block, nil
			case types.StatusUsurped:
				return common.Hash{}, fmt.Errorf("%w: %v by %v", ErrExtrinsicUsurped, txHash, status.By)
			case types.StatusDropped:
				return common.Hash{}, fmt.Errorf("%w: %v", ErrExtrinsicDropped, txHash)
			case types.StatusInvalid:
				return common.Hash{}, fmt.Errorf("%w: %v", ErrExtrinsicInvalid, txHash)
			default:
				return common.Hash{}, fmt.Errorf("%w: %v in block %v", ErrExtrinsicFinalityTimeout, txHash, status.Block)
			}
		}
	}
}

// LocateExtrinsic returns the position of the extrinsic in the block
func (c *Client) LocateExtrinsic(ctx context.Context, block, txHash common.Hash) (int, error) {
	signedBlock, err := c.Block(ctx, block)
	if err != nil {
		return 0, err
	}
	position := signedBlock.ExtrinsicIndex(txHash)
	if position < 0 {
		return 0, fmt.Errorf("%w: %v in block %v", ErrExtrinsicNotFound, txHash, block)
	}
	return position, nil
}

// WaitForBlockEvents consumes the System Events subscription until the
// change set of block, returns the events of the extrinsic at position.
func (c *Client) WaitForBlockEvents(ctx context.Context, sub Subscription, block common.Hash, position int) ([]events.RawEvent, error) {
	located := make(chan blockPosition, 1)
	located <- blockPosition{block: block, position: position}
	return c.waitForEvents(ctx, sub, located)
}

// waitForEvents keeps the events of recent blocks seen before the target is located
func (c *Client) waitForEvents(ctx context.Context, sub Subscription, located <-chan blockPosition) ([]events.RawEvent, error) {
	key := EventsStorageKey()
	seen := newRecentBlocks()
	var target *blockPosition
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case err := <-sub.Err():
			return nil, err
		case pos := <-located:
			located = nil
			target = &pos
			if data, exist := seen.get(pos.block); exist {
				return c.attributeEvents(data, pos.position)
			}
			seen = nil
		case msg, ok := <-sub.Notifications():
			if !ok {
				return nil, fmt.Errorf("%w: waiting for block events", ErrStreamTerminated)
			}
			var changes types.StorageChangeSet
			if err := json.Unmarshal(msg, &changes); err != nil {
				return nil, fmt.Errorf("%w: storage change set %v", common.ErrEncoding, err)
			}
			data, _ := changes.Find(key)
			if target == nil {
				seen.add(changes.Block, data)
				continue
			}
			if changes.Block != target.block {
				log.Trace("skip events of other block", "block", changes.Block, "want", target.block)
				continue
			}
			return c.attributeEvents(data, target.position)
		}
	}
}

func (c *Client) attributeEvents(data []byte, position int) ([]events.RawEvent, error) {
	if len(data) == 0 {
		return nil, nil
	}
	records, err := c.decoder.DecodeEvents(data)
	if err != nil {
		return nil, err
	}
	var result []events.RawEvent
	for _, record := range records {
		if record.Phase.IsApplyExtrinsic(position) {
			result = append(result, record.Event)
		}
	}
	return result, nil
}

// SubmitAndWatchExtrinsic signs call, submits it and waits until it is
// finalized, returns the block, the extrinsic hash and its events.
func (c *Client) SubmitAndWatchExtrinsic(ctx context.Context, call []byte, s signer.Signer) (*ExtrinsicSuccess, error) {
	account := s.AccountID()

	var (
		nonce   uint32
		genesis common.Hash
		sub     Subscription
	)
	prepare, prepareCtx := errgroup.WithContext(ctx)
	prepare.Go(func() (err error) {
		nonce, err = c.FetchNonce(prepareCtx, account)
		return err
	})
	prepare.Go(func() (err error) {
		genesis, err = c.FetchGenesisHash(prepareCtx)
		return err
	})
	prepare.Go(func() (err error) {
		sub, err = c.SubscribeEvents(prepareCtx)
		return err
	})
	if err := prepare.Wait(); err != nil {
		if sub != nil {
			sub.Unsubscribe()
		}
		return nil, err
	}
	defer sub.Unsubscribe()

	ext, err := CreateSignedExtrinsic(call, nonce, genesis, s)
	if err != nil {
		return nil, err
	}
	result := &ExtrinsicSuccess{Extrinsic: ext.Hash()}
	log.Info("submit extrinsic", "txHash", result.Extrinsic, "account", account, "nonce", nonce)

	located := make(chan blockPosition, 1)
	watch, watchCtx := errgroup.WithContext(ctx)
	watch.Go(func() error {
		block, err := c.SubmitAndWatch(watchCtx, ext)
		if err != nil {
			return err
		}
		position, err := c.LocateExtrinsic(watchCtx, block, result.Extrinsic)
		if err != nil {
			return err
		}
		result.Block = block
		located <- blockPosition{block: block, position: position}
		return nil
	})
	watch.Go(func() (err error) {
		result.Events, err = c.waitForEvents(watchCtx, sub, located)
		return err
	})
	if err := watch.Wait(); err != nil {
		log.Warn("submit extrinsic failed", "txHash", result.Extrinsic, "err", err)
		return nil, err
	}
	log.Info("extrinsic finalized", "txHash", result.Extrinsic, "block", result.Block, "events", len(result.Events))
	return result, nil
}
