// Package wsclient provides a websocket JSON-RPC client with subscriptions.
package wsclient

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/anyswap/substrate-client/common"
	"github.com/anyswap/substrate-client/log"
	"github.com/anyswap/substrate-client/rpc/client"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Time allowed to connect to server.
	dialTimeout = 5 * time.Second

	unsubscribeTimeout = 10 * time.Second

	maxMessageSize = 1024 * 1024 * 16
)

// ErrConnectionClosed is returned to pending requests and subscriptions
// once the connection is gone.
var ErrConnectionClosed = common.NewKindError(common.ErrTransport, "websocket connection closed")

type response struct {
	result json.RawMessage
	err    error
}

type request struct {
	ctx  context.Context
	body *client.RequestBody
	sub  *Subscription
	done chan response
}

func (req *request) finish(result json.RawMessage, err error) {
	select {
	case req.done <- response{result: result, err: err}:
	default:
	}
}

type message struct {
	Version string            `json:"jsonrpc,omitempty"`
	ID      *uint64           `json:"id,omitempty"`
	Method  string            `json:"method,omitempty"`
	Params  json.RawMessage   `json:"params,omitempty"`
	Result  json.RawMessage   `json:"result,omitempty"`
	Error   *client.JSONError `json:"error,omitempty"`
}

type notificationParams struct {
	Subscription json.RawMessage `json:"subscription"`
	Result       json.RawMessage `json:"result"`
}

// Remote is a websocket JSON-RPC session. To close the connection, use Close().
type Remote struct {
	endpoint string
	ws       *websocket.Conn

	outgoing    chan *request
	unsubscribe chan *Subscription
	closing     chan struct{}
	closed      chan struct{}
	closeOnce   sync.Once

	nextID uint64
}

// NewRemote returns a new remote session connected to the specified
// server endpoint URI.
func NewRemote(ctx context.Context, endpoint string) (*Remote, error) {
	log.Info("connect to websocket endpoint", "endpoint", endpoint)
	dialer := &websocket.Dialer{
		Proxy:            websocket.DefaultDialer.Proxy,
		HandshakeTimeout: dialTimeout,
	}
	ws, _, err := dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return nil, common.NewKindError(common.ErrTransport, "dial "+endpoint+" failed: "+err.Error())
	}
	ws.SetReadLimit(maxMessageSize)
	r := &Remote{
		endpoint:    endpoint,
		ws:          ws,
		outgoing:    make(chan *request, 10),
		unsubscribe: make(chan *Subscription),
		closing:     make(chan struct{}),
		closed:      make(chan struct{}),
	}

	go r.run()
	return r, nil
}

// Close shuts down the Remote session and blocks until all internal
// goroutines have been cleaned up.
// Any commands that are pending a response will return with an error.
func (r *Remote) Close() {
	r.closeOnce.Do(func() { close(r.closing) })
	<-r.closed
}

// Closed is closed when the session ended
func (r *Remote) Closed() <-chan struct{} {
	return r.closed
}

// Request implements json-rpc requester
func (r *Remote) Request(ctx context.Context, method string, result interface{}, params ...interface{}) error {
	raw, err := r.call(ctx, nil, method, params...)
	if err != nil {
		return client.WrapRPCQueryError(err, method, params...)
	}
	if result == nil {
		return nil
	}
	if err = json.Unmarshal(raw, result); err != nil {
		return client.WrapRPCQueryError(err, method, params...)
	}
	return nil
}

// Subscribe calls method and routes the notifications of the returned
// subscription id to the result. unsubscribeMethod is called on Unsubscribe.
func (r *Remote) Subscribe(ctx context.Context, method, unsubscribeMethod string, params ...interface{}) (*Subscription, error) {
	sub := newSubscription(r, method, unsubscribeMethod)
	if _, err := r.call(ctx, sub, method, params...); err != nil {
		return nil, client.WrapRPCQueryError(err, method, params...)
	}
	go sub.forward()
	return sub, nil
}

func (r *Remote) call(ctx context.Context, sub *Subscription, method string, params ...interface{}) (json.RawMessage, error) {
	req := &request{
		ctx:  ctx,
		body: client.NewRequestBody(atomic.AddUint64(&r.nextID, 1), method, params...),
		sub:  sub,
		done: make(chan response, 1),
	}
	select {
	case r.outgoing <- req:
	case <-r.closed:
		return nil, ErrConnectionClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case resp := <-req.done:
		return resp.result, resp.err
	case <-r.closed:
		select {
		case resp := <-req.done:
			return resp.result, resp.err
		default:
			return nil, ErrConnectionClosed
		}
	case <-ctx.Done():
		if sub != nil {
			go r.dropLateSubscription(req)
		}
		return nil, ctx.Err()
	}
}

// dropLateSubscription cancels a subscription whose response arrives
// after the caller gave up waiting.
func (r *Remote) dropLateSubscription(req *request) {
	var resp response
	select {
	case resp = <-req.done:
	case <-r.closed:
		return
	}
	// id stays empty when the run loop already cancelled it
	if resp.err != nil || req.sub.id == "" {
		return
	}
	req.sub.Unsubscribe()
}

// run spawns the read/write pumps and then runs until Close() is called
// or the connection is lost.
func (r *Remote) run() {
	outbound := make(chan []byte)
	inbound := make(chan []byte)
	writeDone := make(chan struct{})
	pending := make(map[uint64]*request)
	subs := make(map[string]*Subscription)

	defer func() {
		close(outbound) // Shuts down the writePump

		// Cancel all pending commands and subscriptions with an error
		for _, req := range pending {
			req.finish(nil, ErrConnectionClosed)
		}
		for _, sub := range subs {
			sub.fail(ErrConnectionClosed)
		}
		close(r.closed)

		// Drain the inbound channel and block until it is closed,
		// indicating that the readPump has returned.
		for range inbound {
		}
	}()

	// Spawn read/write goroutines
	go func() {
		defer close(writeDone)
		defer r.ws.Close()
		r.writePump(outbound)
	}()
	go func() {
		defer close(inbound)
		r.readPump(inbound)
	}()

	// Main run loop
	for {
		select {
		case <-r.closing:
			return

		case <-writeDone:
			log.Warn("websocket write pump exited", "endpoint", r.endpoint)
			return

		case req := <-r.outgoing:
			b, err := json.Marshal(req.body)
			if err != nil {
				req.finish(nil, err)
				continue
			}
			pending[req.body.ID] = req
			select {
			case outbound <- b:
			case <-writeDone:
				return
			}

		case sub := <-r.unsubscribe:
			delete(subs, sub.id)

		case in, ok := <-inbound:
			if !ok {
				log.Warn("websocket connection closed by server", "endpoint", r.endpoint)
				return
			}
			var msg message
			if err := json.Unmarshal(in, &msg); err != nil {
				log.Warn("websocket unmarshal message failed", "err", err)
				continue
			}

			// Stream message
			if msg.ID == nil && msg.Method != "" {
				r.dispatch(subs, &msg)
				continue
			}
			if msg.ID == nil {
				log.Debug("websocket unexpected message", "message", string(in))
				continue
			}

			// Command response message
			req, ok := pending[*msg.ID]
			if !ok {
				log.Debug("websocket unexpected response", "id", *msg.ID)
				continue
			}
			delete(pending, *msg.ID)
			if msg.Error != nil {
				req.finish(nil, msg.Error)
				continue
			}
			if req.sub != nil {
				key := subscriptionKey(msg.Result)
				if req.ctx.Err() != nil {
					go r.cancelSubscription(req.sub.unsubscribeMethod, msg.Result)
				} else {
					req.sub.id = key
					req.sub.rawID = msg.Result
					subs[key] = req.sub
				}
			}
			req.finish(msg.Result, nil)
		}
	}
}

func (r *Remote) dispatch(subs map[string]*Subscription, msg *message) {
	var params notificationParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		log.Warn("websocket unmarshal notification failed", "method", msg.Method, "err", err)
		return
	}
	sub, ok := subs[subscriptionKey(params.Subscription)]
	if !ok {
		log.Debug("websocket notification of unknown subscription", "method", msg.Method, "subscription", string(params.Subscription))
		return
	}
	sub.deliver(params.Result)
}

func (r *Remote) cancelSubscription(unsubscribeMethod string, id json.RawMessage) {
	if unsubscribeMethod == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), unsubscribeTimeout)
	defer cancel()
	if err := r.Request(ctx, unsubscribeMethod, nil, id); err != nil {
		log.Debug("websocket unsubscribe failed", "method", unsubscribeMethod, "id", string(id), "err", err)
	}
}

func subscriptionKey(id json.RawMessage) string {
	return string(bytes.TrimSpace(id))
}

// Reads from the websocket and sends to inbound channel.
// Expects to receive PONGs at specified interval, or logs an error and returns.
func (r *Remote) readPump(inbound chan<- []byte) {
	_ = r.ws.SetReadDeadline(time.Now().Add(pongWait))
	r.ws.SetPongHandler(func(string) error { return r.ws.SetReadDeadline(time.Now().Add(pongWait)) })
	for {
		_, message, err := r.ws.ReadMessage()
		if err != nil {
			log.Debug("websocket read failed", "err", err)
			return
		}
		log.Trace("websocket received", "message", string(message))
		_ = r.ws.SetReadDeadline(time.Now().Add(pongWait))
		inbound <- message
	}
}

// Consumes from the outbound channel and sends them over the websocket.
// Also sends PING messages at the specified interval.
// Returns when outbound channel is closed, or an error is encountered.
func (r *Remote) writePump(outbound <-chan []byte) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-outbound:
			_ = r.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = r.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			log.Trace("websocket send", "message", string(message))
			if err := r.ws.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Warn("websocket write failed", "err", err)
				return
			}

		case <-ticker.C:
			_ = r.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := r.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Warn("websocket ping failed", "err", err)
				return
			}
		}
	}
}
