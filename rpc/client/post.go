package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/anyswap/substrate-client/common"
	"github.com/anyswap/substrate-client/log"
)

const (
	defaultTimeout   = 60 * time.Second
	defaultRequestID = 1

	maxReadContentLength int64 = 1024 * 1024 * 10 // 10M
)

// RequestBody json-rpc request
type RequestBody struct {
	Version string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
	ID      uint64        `json:"id"`
}

// NewRequestBody new json-rpc 2.0 request
func NewRequestBody(id uint64, method string, params ...interface{}) *RequestBody {
	if params == nil {
		params = []interface{}{}
	}
	return &RequestBody{
		Version: "2.0",
		Method:  method,
		Params:  params,
		ID:      id,
	}
}

// JSONError json-rpc error object
type JSONError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (err *JSONError) Error() string {
	if err.Data != nil {
		return fmt.Sprintf("json-rpc error %d, %s, %v", err.Code, err.Message, err.Data)
	}
	return fmt.Sprintf("json-rpc error %d, %s", err.Code, err.Message)
}

type jsonrpcResponse struct {
	Version string          `json:"jsonrpc,omitempty"`
	ID      json.RawMessage `json:"id,omitempty"`
	Error   *JSONError      `json:"error,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
}

// WrapRPCQueryError wrap rpc error as transport error
func WrapRPCQueryError(err error, method string, params ...interface{}) error {
	return fmt.Errorf("%w: call '%s %v' failed, err='%v'", common.ErrTransport, method, params, err)
}

// RPCPost post json-rpc request to url
func RPCPost(ctx context.Context, result interface{}, url, method string, params ...interface{}) error {
	return RPCPostRequest(ctx, url, NewRequestBody(defaultRequestID, method, params...), result, defaultTimeout)
}

// RPCPostRequest post json-rpc request to url, decode result into result
func RPCPostRequest(ctx context.Context, url string, reqBody *RequestBody, result interface{}, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	resp, err := HTTPPost(ctx, url, reqBody, nil)
	if err != nil {
		return err
	}
	return getResultFromJSONResponse(result, resp)
}

func getResultFromJSONResponse(result interface{}, resp *http.Response) error {
	defer resp.Body.Close()
	body, err := ioutil.ReadAll(io.LimitReader(resp.Body, maxReadContentLength))
	if err != nil {
		return fmt.Errorf("read body error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("wrong response status %v. message: %v", resp.StatusCode, string(body))
	}

	var jsonResp jsonrpcResponse
	err = json.Unmarshal(body, &jsonResp)
	if err != nil {
		return fmt.Errorf("unmarshal body error: %v", err)
	}
	if jsonResp.Error != nil {
		return jsonResp.Error
	}
	if result == nil {
		return nil
	}
	err = json.Unmarshal(jsonResp.Result, result)
	if err != nil {
		return fmt.Errorf("unmarshal result error: %v", err)
	}
	return nil
}

// Client json-rpc over http client, requests are tried on each url in turn
type Client struct {
	urls    []string
	timeout time.Duration
	nextID  uint64
}

// NewClient new client, timeout 0 means the default 60 seconds
func NewClient(timeout time.Duration, urls ...string) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{urls: urls, timeout: timeout}
}

// Request implements json-rpc requester
func (c *Client) Request(ctx context.Context, method string, result interface{}, params ...interface{}) (err error) {
	if len(c.urls) == 0 {
		return WrapRPCQueryError(fmt.Errorf("no gateway url"), method, params...)
	}
	reqBody := NewRequestBody(atomic.AddUint64(&c.nextID, 1), method, params...)
	for _, url := range c.urls {
		err = RPCPostRequest(ctx, url, reqBody, result, c.timeout)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			break
		}
		log.Debug("rpc request failed", "url", url, "method", method, "err", err)
	}
	return WrapRPCQueryError(err, method, params...)
}
