// Package substrate submits signed extrinsics to a substrate node and
// reports their inclusion and events.
package substrate

import (
	"context"
	"errors"
	"fmt"

	"github.com/anyswap/substrate-client/common"
	"github.com/anyswap/substrate-client/events"
	"github.com/anyswap/substrate-client/log"
	"github.com/anyswap/substrate-client/metadata"
	"github.com/anyswap/substrate-client/rpc/wsclient"
	"github.com/anyswap/substrate-client/scale"
	"github.com/anyswap/substrate-client/types"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

const (
	systemModule       = "System"
	accountNonceEntry  = "AccountNonce"
	systemEventsPrefix = "System Events"
)

// EventsStorageKey the storage key of the System Events value
func EventsStorageKey() []byte {
	return common.Twox([]byte(systemEventsPrefix), 128)
}

// Client substrate node client
type Client struct {
	requester  Requester
	subscriber Subscriber
	meta       *metadata.Metadata
	decoder    *events.Decoder
}

// Dial connects to the websocket endpoint and fetches the metadata
func Dial(ctx context.Context, endpoint string) (*Client, error) {
	remote, err := wsclient.NewRemote(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	c, err := NewClient(ctx, NewWSTransport(remote))
	if err != nil {
		remote.Close()
		return nil, err
	}
	return c, nil
}

// NewClient new client, subscriptions are available if requester is also a Subscriber
func NewClient(ctx context.Context, requester Requester) (*Client, error) {
	c := &Client{requester: requester}
	if subscriber, ok := requester.(Subscriber); ok {
		c.subscriber = subscriber
	}
	meta, err := c.FetchMetadata(ctx)
	if err != nil {
		return nil, err
	}
	c.setMetadata(meta)
	return c, nil
}

// NewClientWithMetadata new client with known metadata
func NewClientWithMetadata(requester Requester, meta *metadata.Metadata) *Client {
	c := &Client{requester: requester}
	if subscriber, ok := requester.(Subscriber); ok {
		c.subscriber = subscriber
	}
	c.setMetadata(meta)
	return c
}

func (c *Client) setMetadata(meta *metadata.Metadata) {
	c.meta = meta
	c.decoder = events.NewDecoder(meta)
	if missing := c.decoder.CheckMissingTypeSizes(); missing.Cardinality() > 0 {
		log.Warn("event argument types without size", "types", missing.String())
	}
}

// Close closes the transport if it can be closed
func (c *Client) Close() {
	if closer, ok := c.requester.(interface{ Close() }); ok {
		closer.Close()
	}
}

// Metadata the node metadata
func (c *Client) Metadata() *metadata.Metadata {
	return c.meta
}

// Decoder the events decoder, register extra type sizes on it
func (c *Client) Decoder() *events.Decoder {
	return c.decoder
}

// FetchMetadataBlob call state_getMetadata
func (c *Client) FetchMetadataBlob(ctx context.Context) ([]byte, error) {
	var result hexutil.Bytes
	if err := c.requester.Request(ctx, "state_getMetadata", &result); err != nil {
		return nil, err
	}
	return result, nil
}

// FetchMetadata call state_getMetadata and parse the result
func (c *Client) FetchMetadata(ctx context.Context) (*metadata.Metadata, error) {
	blob, err := c.FetchMetadataBlob(ctx)
	if err != nil {
		return nil, err
	}
	return metadata.Parse(blob)
}

// FetchStorage call state_getStorage, absent value is ErrStorageValueNotFound
func (c *Client) FetchStorage(ctx context.Context, key []byte) ([]byte, error) {
	var result *hexutil.Bytes
	if err := c.requester.Request(ctx, "state_getStorage", &result, hexutil.Bytes(key)); err != nil {
		return nil, err
	}
	if result == nil {
		return nil, fmt.Errorf("%w: key %v", ErrStorageValueNotFound, hexutil.Encode(key))
	}
	return *result, nil
}

// FetchNonce reads System.AccountNonce of account, absent value is the map default
func (c *Client) FetchNonce(ctx context.Context, account types.AccountID) (uint32, error) {
	module, err := c.meta.Module(systemModule)
	if err != nil {
		return 0, err
	}
	storage, err := module.Storage(accountNonceEntry)
	if err != nil {
		return 0, err
	}
	nonceMap, err := storage.Map()
	if err != nil {
		return 0, err
	}
	var nonce scale.U32
	data, err := c.FetchStorage(ctx, nonceMap.KeyOf(account))
	switch {
	case err == nil:
		if err = scale.Decode(data, &nonce); err != nil {
			return 0, fmt.Errorf("decode nonce of %v: %w", account, err)
		}
	case errors.Is(err, ErrStorageValueNotFound):
		if err = nonceMap.DecodeDefault(&nonce); err != nil {
			return 0, err
		}
	default:
		return 0, err
	}
	return uint32(nonce), nil
}

// FetchGenesisHash call chain_getBlockHash(0)
func (c *Client) FetchGenesisHash(ctx context.Context) (common.Hash, error) {
	var result *common.Hash
	if err := c.requester.Request(ctx, "chain_getBlockHash", &result, 0); err != nil {
		return common.Hash{}, err
	}
	if result == nil {
		return common.Hash{}, ErrGenesisNotFound
	}
	return *result, nil
}

// FinalizedHead call chain_getFinalizedHead
func (c *Client) FinalizedHead(ctx context.Context) (common.Hash, error) {
	var result *common.Hash
	if err := c.requester.Request(ctx, "chain_getFinalizedHead", &result); err != nil {
		return common.Hash{}, err
	}
	if result == nil {
		return common.Hash{}, ErrBlockNotFound
	}
	return *result, nil
}

// Header call chain_getHeader
func (c *Client) Header(ctx context.Context, hash common.Hash) (*types.RPCHeader, error) {
	var result *types.RPCHeader
	if err := c.requester.Request(ctx, "chain_getHeader", &result, hash); err != nil {
		return nil, err
	}
	if result == nil {
		return nil, fmt.Errorf("%w: %v", ErrBlockNotFound, hash)
	}
	return result, nil
}

// Block call chain_getBlock
func (c *Client) Block(ctx context.Context, hash common.Hash) (*types.RPCSignedBlock, error) {
	var result *types.RPCSignedBlock
	if err := c.requester.Request(ctx, "chain_getBlock", &result, hash); err != nil {
		return nil, err
	}
	if result == nil {
		return nil, fmt.Errorf("%w: %v", ErrBlockNotFound, hash)
	}
	return result, nil
}

// SubscribeEvents subscribes the System Events storage value
func (c *Client) SubscribeEvents(ctx context.Context) (Subscription, error) {
	keys := []hexutil.Bytes{EventsStorageKey()}
	return c.subscribe(ctx, "state_subscribeStorage", "state_unsubscribeStorage", keys)
}

func (c *Client) subscribe(ctx context.Context, method, unsubscribeMethod string, params ...interface{}) (Subscription, error) {
	if c.subscriber == nil {
		return nil, ErrSubscriptionUnsupported
	}
	return c.subscriber.Subscribe(ctx, method, unsubscribeMethod, params...)
}

// RuntimeVersion call state_getRuntimeVersion
func (c *Client) RuntimeVersion(ctx context.Context) (*types.RuntimeVersion, error) {
	var result *types.RuntimeVersion
	if err := c.requester.Request(ctx, "state_getRuntimeVersion", &result); err != nil {
		return nil, err
	}
	if result == nil {
		return nil, fmt.Errorf("%w: runtime version", common.ErrNotFound)
	}
	return result, nil
}
