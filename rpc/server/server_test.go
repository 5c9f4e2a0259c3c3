package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anyswap/substrate-client/common"
	"github.com/anyswap/substrate-client/internal/clientapi"
	"github.com/anyswap/substrate-client/metadata"
	"github.com/anyswap/substrate-client/store"
	"github.com/anyswap/substrate-client/substrate"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testHead    = common.Blake2b256([]byte("head"))
	testReceipt = &store.Receipt{
		Extrinsic: common.Blake2b256([]byte("extrinsic")),
		Block:     testHead,
		Events:    []store.ReceiptEvent{{Module: "System", Variant: "ExtrinsicSuccess", Data: []byte{1}}},
		Timestamp: 1600000000,
	}
)

// node answering with canned json results
type fakeNode struct {
	storage map[string]string
}

func (n *fakeNode) Request(ctx context.Context, method string, result interface{}, params ...interface{}) error {
	var res interface{}
	switch method {
	case "state_getStorage":
		key := hexutil.Encode(params[0].(hexutil.Bytes))
		if value, ok := n.storage[key]; ok {
			res = value
		}
	case "state_getRuntimeVersion":
		res = map[string]interface{}{"specName": "node", "specVersion": 9}
	case "chain_getFinalizedHead":
		res = testHead
	default:
		return common.NewKindError(common.ErrTransport, "method not found: "+method)
	}
	bs, err := json.Marshal(res)
	if err != nil {
		return err
	}
	return json.Unmarshal(bs, result)
}

type memReceipts map[common.Hash]*store.Receipt

func (m memReceipts) PutReceipt(result *substrate.ExtrinsicSuccess) error {
	m[result.Extrinsic] = store.NewReceipt(result)
	return nil
}

func (m memReceipts) GetReceipt(txHash common.Hash) (*store.Receipt, error) {
	if receipt, ok := m[txHash]; ok {
		return receipt, nil
	}
	return nil, fmt.Errorf("%w: %v", store.ErrReceiptNotFound, txHash)
}

func newTestServer(t *testing.T) (*httptest.Server, []byte) {
	runtime := &metadata.RuntimeMetadata{Modules: []metadata.ModuleDecl{
		{
			Name: "System",
			Storage: &metadata.StorageDecl{
				Prefix: "System",
				Entries: []metadata.EntryDecl{
					{Name: "Number", Type: metadata.EntryType{Kind: metadata.PlainEntry, Value: "T::BlockNumber"}, Default: []byte{0, 0, 0, 0}},
				},
			},
			Events: []metadata.EventDecl{{Name: "ExtrinsicSuccess", Args: []string{"DispatchInfo"}}},
		},
		{
			Name:  "Balances",
			Calls: []metadata.CallDecl{{Name: "transfer"}},
		},
	}}
	meta, err := metadata.Parse(runtime.Encode())
	require.Nil(t, err)

	numberKey := common.Twox([]byte("System Number"), 128)
	node := &fakeNode{storage: map[string]string{hexutil.Encode(numberKey): "0x2a000000"}}
	client := substrate.NewClientWithMetadata(node, meta)
	service := clientapi.NewService(client, memReceipts{testReceipt.Extrinsic: testReceipt})
	return httptest.NewServer(initRouter(service)), numberKey
}

func get(t *testing.T, url string, v interface{}) string {
	resp, err := http.Get(url)
	require.Nil(t, err)
	defer resp.Body.Close()
	body, err := ioutil.ReadAll(resp.Body)
	require.Nil(t, err)
	if v != nil {
		require.Nil(t, json.Unmarshal(body, v), string(body))
	}
	return string(body)
}

func TestRestAPI(t *testing.T) {
	server, numberKey := newTestServer(t)
	defer server.Close()

	var info clientapi.ServerInfo
	get(t, server.URL+"/serverinfo", &info)
	assert.Equal(t, []string{"Balances", "System"}, info.Modules)
	assert.Equal(t, 1, info.Stores)

	var module clientapi.ModuleInfo
	get(t, server.URL+"/module/System", &module)
	assert.Equal(t, []string{"Number"}, module.Storage)
	require.Len(t, module.Events, 1)
	assert.Equal(t, []string{"DispatchInfo"}, module.Events[0].Args)

	var key hexutil.Bytes
	get(t, server.URL+"/storagekey/System/Number", &key)
	assert.Equal(t, numberKey, []byte(key))

	var value hexutil.Bytes
	get(t, server.URL+"/storage/System/Number", &value)
	assert.Equal(t, []byte{42, 0, 0, 0}, []byte(value))

	var head common.Hash
	get(t, server.URL+"/finalized", &head)
	assert.Equal(t, testHead, head)

	var receipt store.Receipt
	get(t, server.URL+"/receipt/"+testReceipt.Extrinsic.Hex(), &receipt)
	assert.Equal(t, testReceipt.Block, receipt.Block)

	assert.Contains(t, get(t, server.URL+"/receipt/0x1234", nil), "wrong extrinsic hash")
	assert.Contains(t, get(t, server.URL+"/receipt/"+testHead.Hex(), nil), "receipt not found")
	assert.Contains(t, get(t, server.URL+"/module/Contracts", nil), "rpcError")

	resp, err := http.Post(server.URL+"/serverinfo", "application/json", nil)
	require.Nil(t, err)
	body, _ := ioutil.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(body), "Forbid 'POST'")
}

func callRPC(t *testing.T, url, method string, params ...interface{}) (json.RawMessage, *struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}) {
	reqBody, err := json.Marshal(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
		"params":  params,
	})
	require.Nil(t, err)
	resp, err := http.Post(url+"/rpc", "application/json", bytes.NewReader(reqBody))
	require.Nil(t, err)
	defer resp.Body.Close()
	var res struct {
		Result json.RawMessage `json:"result"`
		Error  *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.Nil(t, json.NewDecoder(resp.Body).Decode(&res))
	return res.Result, res.Error
}

func TestRPCAPI(t *testing.T) {
	server, _ := newTestServer(t)
	defer server.Close()

	result, rpcErr := callRPC(t, server.URL, "subxt.GetVersionInfo")
	require.Nil(t, rpcErr)
	assert.Contains(t, string(result), "0.1.0")

	result, rpcErr = callRPC(t, server.URL, "subxt.GetRuntimeVersion")
	require.Nil(t, rpcErr)
	var version clientapi.RuntimeVersion
	require.Nil(t, json.Unmarshal(result, &version))
	assert.Equal(t, uint32(9), version.SpecVersion)

	result, rpcErr = callRPC(t, server.URL, "subxt.GetStorage", clientapi.StorageKeyArgs{Module: "System", Entry: "Number"})
	require.Nil(t, rpcErr)
	assert.Equal(t, `"0x2a000000"`, string(result))

	result, rpcErr = callRPC(t, server.URL, "subxt.GetReceipt", testReceipt.Extrinsic.Hex())
	require.Nil(t, rpcErr)
	var receipt store.Receipt
	require.Nil(t, json.Unmarshal(result, &receipt))
	assert.Equal(t, testReceipt.Extrinsic, receipt.Extrinsic)
	assert.Equal(t, []byte{1}, []byte(receipt.Events[0].Data))

	_, rpcErr = callRPC(t, server.URL, "subxt.GetReceipt", testHead.Hex())
	require.NotNil(t, rpcErr)
	assert.Equal(t, -32098, rpcErr.Code)

	_, rpcErr = callRPC(t, server.URL, "subxt.GetStorage", clientapi.StorageKeyArgs{Module: "System", Entry: "Missing"})
	require.NotNil(t, rpcErr)
	assert.Equal(t, -32000, rpcErr.Code)
}
