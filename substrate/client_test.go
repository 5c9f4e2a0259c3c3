package substrate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/anyswap/substrate-client/common"
	"github.com/anyswap/substrate-client/events"
	"github.com/anyswap/substrate-client/metadata"
	"github.com/anyswap/substrate-client/scale"
	"github.com/anyswap/substrate-client/signer"
	"github.com/anyswap/substrate-client/types"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testGenesis = common.HexToHash("0x1111111111111111111111111111111111111111111111111111111111111111")
	testBlock   = common.HexToHash("0xb1b1b1b1b1b1b1b1b1b1b1b1b1b1b1b1b1b1b1b1b1b1b1b1b1b1b1b1b1b1b1b1")
	otherBlock  = common.HexToHash("0xb2b2b2b2b2b2b2b2b2b2b2b2b2b2b2b2b2b2b2b2b2b2b2b2b2b2b2b2b2b2b2b2")
)

func testRuntime() *metadata.RuntimeMetadata {
	return &metadata.RuntimeMetadata{Modules: []metadata.ModuleDecl{
		{
			Name: "System",
			Storage: &metadata.StorageDecl{
				Prefix: "System",
				Entries: []metadata.EntryDecl{
					{
						Name:     "AccountNonce",
						Modifier: metadata.ModifierDefault,
						Type:     metadata.EntryType{Kind: metadata.MapEntry, Hasher: common.Blake2_256, Key: "T::AccountId", Value: "T::Index"},
						Default:  []byte{0, 0, 0, 0},
					},
					{
						Name:     "Events",
						Modifier: metadata.ModifierDefault,
						Type:     metadata.EntryType{Kind: metadata.PlainEntry, Value: "Vec<EventRecord<T::Event, T::Hash>>"},
						Default:  []byte{0},
					},
				},
			},
			Events: []metadata.EventDecl{
				{Name: "ExtrinsicSuccess"},
				{Name: "ExtrinsicFailed", Args: []string{"DispatchError"}},
			},
		},
		{
			Name:  "Balances",
			Calls: []metadata.CallDecl{{Name: "transfer"}},
			Events: []metadata.EventDecl{
				{Name: "Transfer", Args: []string{"AccountId", "AccountId", "Balance"}},
			},
		},
	}}
}

func testMetadata(t *testing.T) *metadata.Metadata {
	meta, err := metadata.Parse(testRuntime().Encode())
	require.Nil(t, err)
	return meta
}

func testSigner(t *testing.T) *signer.Ed25519Signer {
	s, err := signer.NewEd25519Signer(bytes.Repeat([]byte{7}, 32))
	require.Nil(t, err)
	return s
}

func transferEvent(amount uint64) events.RawEvent {
	e := scale.NewEncoder()
	e.Write(bytes.Repeat([]byte{1}, 32))
	e.Write(bytes.Repeat([]byte{2}, 32))
	var b [16]byte
	b[0] = byte(amount)
	e.Write(b[:])
	return events.RawEvent{Module: "Balances", Variant: "Transfer", ModuleIndex: 1, EventIndex: 0, Data: e.Bytes()}
}

var (
	successEvent = events.RawEvent{Module: "System", Variant: "ExtrinsicSuccess", ModuleIndex: 0, EventIndex: 0}
	failedEvent  = events.RawEvent{Module: "System", Variant: "ExtrinsicFailed", ModuleIndex: 0, EventIndex: 1, Data: []byte{1, 1, 2}}
)

func applyExtrinsic(i uint32) events.Phase {
	return events.Phase{Kind: events.ApplyExtrinsic, ExtrinsicIndex: i}
}

func blockEvents(amount uint64) []byte {
	return events.EncodeRecords([]events.EventRecord{
		{Phase: applyExtrinsic(0), Event: successEvent},
		{Phase: applyExtrinsic(1), Event: transferEvent(amount)},
		{Phase: applyExtrinsic(1), Event: successEvent},
		{Phase: applyExtrinsic(2), Event: failedEvent},
		{Phase: events.Phase{Kind: events.Finalization}, Event: successEvent},
	})
}

func changeSet(block common.Hash, data []byte) types.StorageChangeSet {
	value := hexutil.Bytes(data)
	return types.StorageChangeSet{
		Block:   block,
		Changes: []types.StorageChange{{Key: EventsStorageKey(), Data: &value}},
	}
}

type fakeSubscription struct {
	notifications chan json.RawMessage
	errCh         chan error
	once          sync.Once
	unsubscribed  chan struct{}
}

func newFakeSubscription() *fakeSubscription {
	return &fakeSubscription{
		notifications: make(chan json.RawMessage, 32),
		errCh:         make(chan error, 1),
		unsubscribed:  make(chan struct{}),
	}
}

func (s *fakeSubscription) Notifications() <-chan json.RawMessage { return s.notifications }

func (s *fakeSubscription) Err() <-chan error { return s.errCh }

func (s *fakeSubscription) Unsubscribe() { s.once.Do(func() { close(s.unsubscribed) }) }

func (s *fakeSubscription) isUnsubscribed() bool {
	select {
	case <-s.unsubscribed:
		return true
	default:
		return false
	}
}

func (s *fakeSubscription) push(t *testing.T, v interface{}) {
	var msg []byte
	if raw, ok := v.(string); ok {
		msg = []byte(raw)
	} else {
		var err error
		msg, err = json.Marshal(v)
		require.Nil(t, err)
	}
	s.notifications <- msg
}

// fakeNode answers the json-rpc methods the client uses
type fakeNode struct {
	t *testing.T

	mu      sync.Mutex
	meta    []byte
	storage map[string][]byte
	genesis *common.Hash
	blocks  map[common.Hash]*types.RPCSignedBlock

	// on author_submitAndWatchExtrinsic
	includeIn    common.Hash
	statuses     []string
	closeWatch   bool
	eventChanges []types.StorageChangeSet

	metaFetches int
	submitted   [][]byte
	eventSubs   []*fakeSubscription
	watchSubs   []*fakeSubscription
}

func newFakeNode(t *testing.T) *fakeNode {
	genesis := testGenesis
	return &fakeNode{
		t:         t,
		meta:      testRuntime().Encode(),
		storage:   make(map[string][]byte),
		genesis:   &genesis,
		blocks:    make(map[common.Hash]*types.RPCSignedBlock),
		includeIn: testBlock,
		statuses: []string{
			`"ready"`,
			`{"broadcast":["QmPeer"]}`,
			fmt.Sprintf(`{"inBlock":"%v"}`, testBlock.Hex()),
			fmt.Sprintf(`{"finalized":"%v"}`, testBlock.Hex()),
		},
		eventChanges: []types.StorageChangeSet{
			changeSet(otherBlock, blockEvents(9)),
			changeSet(testBlock, blockEvents(5)),
		},
	}
}

func (n *fakeNode) Request(ctx context.Context, method string, result interface{}, params ...interface{}) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	var value interface{}
	switch method {
	case "state_getMetadata":
		n.metaFetches++
		value = hexutil.Bytes(n.meta)
	case "state_getRuntimeVersion":
		value = &types.RuntimeVersion{SpecName: "node", SpecVersion: 7}
	case "state_getStorage":
		key := params[0].(hexutil.Bytes)
		if data, exist := n.storage[key.String()]; exist {
			value = hexutil.Bytes(data)
		}
	case "chain_getBlockHash":
		if n.genesis != nil {
			value = n.genesis
		}
	case "chain_getBlock":
		if block, exist := n.blocks[params[0].(common.Hash)]; exist {
			value = block
		}
	case "author_submitExtrinsic":
		encoded := params[0].(hexutil.Bytes)
		n.submitted = append(n.submitted, encoded)
		value = types.ExtrinsicHash(encoded)
	default:
		return fmt.Errorf("%w: method %v not found", common.ErrTransport, method)
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, result)
}

func (n *fakeNode) Subscribe(ctx context.Context, method, unsubscribeMethod string, params ...interface{}) (Subscription, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	sub := newFakeSubscription()
	switch method {
	case "state_subscribeStorage":
		assert.Equal(n.t, "state_unsubscribeStorage", unsubscribeMethod)
		keys := params[0].([]hexutil.Bytes)
		assert.Equal(n.t, hexutil.Bytes(EventsStorageKey()), keys[0])
		n.eventSubs = append(n.eventSubs, sub)
	case "author_submitAndWatchExtrinsic":
		assert.Equal(n.t, "author_unwatchExtrinsic", unsubscribeMethod)
		encoded := params[0].(hexutil.Bytes)
		n.submitted = append(n.submitted, encoded)
		n.watchSubs = append(n.watchSubs, sub)
		if n.includeIn != (common.Hash{}) {
			n.blocks[n.includeIn] = &types.RPCSignedBlock{Block: types.RPCBlock{
				Extrinsics: []hexutil.Bytes{{0x04, 0x00}, encoded, {0x04, 0x01}},
			}}
		}
		for _, status := range n.statuses {
			sub.push(n.t, status)
		}
		if n.closeWatch {
			close(sub.notifications)
		}
		for _, eventSub := range n.eventSubs {
			for _, changes := range n.eventChanges {
				eventSub.push(n.t, changes)
			}
		}
	default:
		return nil, fmt.Errorf("%w: method %v not found", common.ErrTransport, method)
	}
	return sub, nil
}

func (n *fakeNode) allUnsubscribed() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, sub := range append(n.eventSubs, n.watchSubs...) {
		if !sub.isUnsubscribed() {
			return false
		}
	}
	return true
}

func newTestClient(t *testing.T, node *fakeNode) *Client {
	c, err := NewClient(context.Background(), node)
	require.Nil(t, err)
	return c
}

func TestSubmitAndWatchExtrinsic(t *testing.T) {
	node := newFakeNode(t)
	c := newTestClient(t, node)
	s := testSigner(t)

	account := s.AccountID()
	nonceMap := metadata.NewStorageMap("System AccountNonce", common.Blake2_256, nil)
	node.storage[hexutil.Encode(nonceMap.KeyOf(account))] = []byte{5, 0, 0, 0}

	call, err := c.Metadata().Call("Balances", "transfer", scale.Raw{0xff}, scale.Compact(100))
	require.Nil(t, err)

	success, err := c.SubmitAndWatchExtrinsic(context.Background(), call, s)
	require.Nil(t, err)

	require.Len(t, node.submitted, 1)
	submitted := node.submitted[0]
	assert.Equal(t, types.ExtrinsicHash(submitted), success.Extrinsic)
	assert.Equal(t, testBlock, success.Block)
	assert.Equal(t, []events.RawEvent{transferEvent(5), successEvent}, success.Events)

	transfer, found := success.FindEvent("Balances", "Transfer")
	require.True(t, found)
	assert.Equal(t, transferEvent(5).Data, transfer.Data)
	_, found = success.FindEvent("System", "ExtrinsicFailed")
	assert.False(t, found)

	ext, err := types.DecodeExtrinsic(submitted)
	require.Nil(t, err)
	assert.Equal(t, account, ext.Signer)
	assert.Equal(t, uint32(5), ext.Extra.Nonce)
	assert.Equal(t, call, ext.Call)
	payload := &types.SignedPayload{Call: ext.Call, Extra: ext.Extra, GenesisHash: testGenesis}
	assert.True(t, signer.Verify(account, payload.SigningTarget(), ext.Signature))

	assert.True(t, node.allUnsubscribed())
}

func TestSubmitOutcomeErrors(t *testing.T) {
	tests := []struct {
		name     string
		statuses []string
		close    bool
		want     error
	}{
		{"dropped", []string{`"ready"`, `{"broadcast":["QmPeer"]}`, `"dropped"`}, false, ErrExtrinsicDropped},
		{"invalid", []string{`"future"`, `"invalid"`}, false, ErrExtrinsicInvalid},
		{"usurped", []string{`"ready"`, fmt.Sprintf(`{"usurped":"%v"}`, otherBlock.Hex())}, false, ErrExtrinsicUsurped},
		{"finality timeout", []string{fmt.Sprintf(`{"finalityTimeout":"%v"}`, testBlock.Hex())}, false, ErrExtrinsicFinalityTimeout},
		{"stream terminated", []string{`"ready"`, fmt.Sprintf(`{"inBlock":"%v"}`, testBlock.Hex())}, true, ErrStreamTerminated},
	}
	for _, test := range tests {
		node := newFakeNode(t)
		node.statuses = test.statuses
		node.closeWatch = test.close
		c := newTestClient(t, node)

		_, err := c.SubmitAndWatchExtrinsic(context.Background(), []byte{1, 0}, testSigner(t))
		require.NotNil(t, err, test.name)
		assert.True(t, errors.Is(err, test.want), "%v: %v", test.name, err)
		assert.True(t, node.allUnsubscribed(), test.name)
	}
}

func TestSubmitAndWatchIntermediateStatuses(t *testing.T) {
	node := newFakeNode(t)
	node.statuses = []string{
		`"future"`,
		`"ready"`,
		fmt.Sprintf(`{"inBlock":"%v"}`, otherBlock.Hex()),
		fmt.Sprintf(`{"retracted":"%v"}`, otherBlock.Hex()),
		`{"broadcast":[]}`,
		fmt.Sprintf(`{"inBlock":"%v"}`, testBlock.Hex()),
		fmt.Sprintf(`{"finalized":"%v"}`, testBlock.Hex()),
	}
	c := newTestClient(t, node)

	ext, err := CreateSignedExtrinsic([]byte{1, 0}, 0, testGenesis, testSigner(t))
	require.Nil(t, err)
	block, err := c.SubmitAndWatch(context.Background(), ext)
	require.Nil(t, err)
	assert.Equal(t, testBlock, block)
	assert.True(t, node.allUnsubscribed())
}

func TestRecentBlocks(t *testing.T) {
	recent := newRecentBlocks()
	hashOf := func(i int) common.Hash { return common.BytesToHash([]byte{byte(i), 0x01}) }
	for i := 0; i < maxRecentBlocks+6; i++ {
		recent.add(hashOf(i), []byte{byte(i)})
	}
	recent.add(hashOf(maxRecentBlocks+5), []byte{0xff})
	assert.Len(t, recent.data, maxRecentBlocks)
	assert.Len(t, recent.order, maxRecentBlocks)

	_, exist := recent.get(hashOf(5))
	assert.False(t, exist)
	data, exist := recent.get(hashOf(6))
	assert.True(t, exist)
	assert.Equal(t, []byte{6}, data)
	data, _ = recent.get(hashOf(maxRecentBlocks + 5))
	assert.Equal(t, []byte{0xff}, data)
}

func TestSubmitOutcomeKinds(t *testing.T) {
	for _, err := range []error{ErrExtrinsicDropped, ErrExtrinsicInvalid, ErrExtrinsicUsurped, ErrExtrinsicFinalityTimeout} {
		assert.True(t, errors.Is(err, common.ErrTxOutcome), err.Error())
	}
	assert.True(t, errors.Is(ErrStreamTerminated, common.ErrTransport))
	assert.True(t, errors.Is(ErrGenesisNotFound, common.ErrNotFound))
}

func TestGenesisNotFound(t *testing.T) {
	node := newFakeNode(t)
	node.genesis = nil
	c := newTestClient(t, node)

	_, err := c.SubmitAndWatchExtrinsic(context.Background(), []byte{1, 0}, testSigner(t))
	assert.True(t, errors.Is(err, ErrGenesisNotFound))
	assert.Len(t, node.submitted, 0)
	assert.True(t, node.allUnsubscribed())
}

func TestExtrinsicNotInBlock(t *testing.T) {
	node := newFakeNode(t)
	node.includeIn = common.Hash{}
	c := newTestClient(t, node)

	_, err := c.SubmitAndWatchExtrinsic(context.Background(), []byte{1, 0}, testSigner(t))
	assert.True(t, errors.Is(err, ErrBlockNotFound), "%v", err)

	node = newFakeNode(t)
	c = newTestClient(t, node)
	node.blocks[testBlock] = &types.RPCSignedBlock{Block: types.RPCBlock{Extrinsics: []hexutil.Bytes{{0x04, 0x00}}}}
	position, err := c.LocateExtrinsic(context.Background(), testBlock, common.HexToHash("0x01"))
	assert.Equal(t, 0, position)
	assert.True(t, errors.Is(err, ErrExtrinsicNotFound))
	assert.True(t, errors.Is(err, common.ErrNotFound))
}

func TestWaitForBlockEvents(t *testing.T) {
	c := NewClientWithMetadata(newFakeNode(t), testMetadata(t))

	sub := newFakeSubscription()
	sub.push(t, changeSet(otherBlock, blockEvents(9)))
	sub.push(t, `{"block":"0x0000000000000000000000000000000000000000000000000000000000000003","changes":[]}`)
	sub.push(t, changeSet(testBlock, blockEvents(5)))

	evs, err := c.WaitForBlockEvents(context.Background(), sub, testBlock, 2)
	require.Nil(t, err)
	assert.Equal(t, []events.RawEvent{failedEvent}, evs)

	// a change set without the events value has no events
	sub = newFakeSubscription()
	sub.push(t, types.StorageChangeSet{Block: testBlock})
	evs, err = c.WaitForBlockEvents(context.Background(), sub, testBlock, 1)
	require.Nil(t, err)
	assert.Len(t, evs, 0)

	sub = newFakeSubscription()
	sub.push(t, changeSet(otherBlock, blockEvents(9)))
	close(sub.notifications)
	_, err = c.WaitForBlockEvents(context.Background(), sub, testBlock, 1)
	assert.True(t, errors.Is(err, ErrStreamTerminated))

	sub = newFakeSubscription()
	sub.errCh <- fmt.Errorf("%w: connection reset", common.ErrTransport)
	_, err = c.WaitForBlockEvents(context.Background(), sub, testBlock, 1)
	assert.True(t, errors.Is(err, common.ErrTransport))
}

func TestFetchNonce(t *testing.T) {
	node := newFakeNode(t)
	c := newTestClient(t, node)
	account := testSigner(t).AccountID()

	nonce, err := c.FetchNonce(context.Background(), account)
	require.Nil(t, err)
	assert.Equal(t, uint32(0), nonce)

	nonceMap := metadata.NewStorageMap("System AccountNonce", common.Blake2_256, nil)
	node.storage[hexutil.Encode(nonceMap.KeyOf(account))] = []byte{0x2a, 1, 0, 0}
	nonce, err = c.FetchNonce(context.Background(), account)
	require.Nil(t, err)
	assert.Equal(t, uint32(298), nonce)

	_, err = c.FetchStorage(context.Background(), []byte{1, 2, 3})
	assert.True(t, errors.Is(err, ErrStorageValueNotFound))
}

func TestCreateSignedExtrinsic(t *testing.T) {
	s := testSigner(t)
	for _, size := range []int{10, 300} {
		call := bytes.Repeat([]byte{9}, size)
		ext, err := CreateSignedExtrinsic(call, 3, testGenesis, s)
		require.Nil(t, err)

		payload := &types.SignedPayload{Call: call, Extra: types.NewSignedExtra(3), GenesisHash: testGenesis}
		encoded := payload.Encode()
		if len(encoded) > types.MaxRawPayloadLength {
			hash := common.Blake2b256(encoded)
			assert.True(t, signer.Verify(s.AccountID(), hash[:], ext.Signature))
			assert.False(t, signer.Verify(s.AccountID(), encoded, ext.Signature))
		} else {
			assert.True(t, signer.Verify(s.AccountID(), encoded, ext.Signature))
		}

		decoded, err := types.DecodeExtrinsic(ext.Encode())
		require.Nil(t, err)
		assert.Equal(t, ext.Call, decoded.Call)
		assert.Equal(t, ext.Hash(), types.ExtrinsicHash(ext.Encode()))
	}
}

func TestSubscriptionUnsupported(t *testing.T) {
	type requestOnly struct{ Requester }
	c := NewClientWithMetadata(requestOnly{newFakeNode(t)}, testMetadata(t))

	_, err := c.SubscribeEvents(context.Background())
	assert.True(t, errors.Is(err, ErrSubscriptionUnsupported))
	_, err = c.SubmitAndWatchExtrinsic(context.Background(), []byte{1, 0}, testSigner(t))
	assert.True(t, errors.Is(err, ErrSubscriptionUnsupported))

	hash, err := c.FetchGenesisHash(context.Background())
	require.Nil(t, err)
	assert.Equal(t, testGenesis, hash)

	ext, err := CreateSignedExtrinsic([]byte{1, 0}, 0, testGenesis, testSigner(t))
	require.Nil(t, err)
	txHash, err := c.SubmitExtrinsic(context.Background(), ext)
	require.Nil(t, err)
	assert.Equal(t, ext.Hash(), txHash)
}
