package substrate

import (
	"context"
	"encoding/json"

	"github.com/anyswap/substrate-client/rpc/wsclient"
)

// Requester sends json-rpc requests
type Requester interface {
	Request(ctx context.Context, method string, result interface{}, params ...interface{}) error
}

// Subscription a server push stream
type Subscription interface {
	Notifications() <-chan json.RawMessage
	Err() <-chan error
	Unsubscribe()
}

// Subscriber opens subscriptions
type Subscriber interface {
	Subscribe(ctx context.Context, method, unsubscribeMethod string, params ...interface{}) (Subscription, error)
}

// Transport requester and subscriber
type Transport interface {
	Requester
	Subscriber
}

type wsTransport struct {
	*wsclient.Remote
}

// NewWSTransport adapts a websocket remote to Transport
func NewWSTransport(remote *wsclient.Remote) Transport {
	return &wsTransport{Remote: remote}
}

// Subscribe implements Subscriber
func (t *wsTransport) Subscribe(ctx context.Context, method, unsubscribeMethod string, params ...interface{}) (Subscription, error) {
	sub, err := t.Remote.Subscribe(ctx, method, unsubscribeMethod, params...)
	if err != nil {
		return nil, err
	}
	return sub, nil
}
