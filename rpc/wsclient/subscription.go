package wsclient

import (
	"encoding/json"
	"sync"
)

// Subscription is a server push stream of a Remote
type Subscription struct {
	remote            *Remote
	method            string
	unsubscribeMethod string
	id                string
	rawID             json.RawMessage

	mu     sync.Mutex
	queue  []json.RawMessage
	signal chan struct{}

	notifications chan json.RawMessage
	errCh         chan error
	quit          chan struct{}
	quitOnce      sync.Once
	unsubOnce     sync.Once
}

func newSubscription(remote *Remote, method, unsubscribeMethod string) *Subscription {
	return &Subscription{
		remote:            remote,
		method:            method,
		unsubscribeMethod: unsubscribeMethod,
		signal:            make(chan struct{}, 1),
		notifications:     make(chan json.RawMessage),
		errCh:             make(chan error, 1),
		quit:              make(chan struct{}),
	}
}

// ID subscription id assigned by the server
func (s *Subscription) ID() string {
	return s.id
}

// Method subscribe method
func (s *Subscription) Method() string {
	return s.method
}

// Notifications the notification results in arrival order,
// closed when the subscription ends.
func (s *Subscription) Notifications() <-chan json.RawMessage {
	return s.notifications
}

// Err receives the error that ended the subscription.
// Nothing is sent when the subscription is unsubscribed.
func (s *Subscription) Err() <-chan error {
	return s.errCh
}

// Unsubscribe stops the notifications and tells the server, it can be called many times
func (s *Subscription) Unsubscribe() {
	s.unsubOnce.Do(func() {
		s.stop()
		select {
		case s.remote.unsubscribe <- s:
		case <-s.remote.closed:
			return
		}
		s.remote.cancelSubscription(s.unsubscribeMethod, s.rawID)
	})
}

// deliver never blocks, called in the run loop of the remote
func (s *Subscription) deliver(result json.RawMessage) {
	s.mu.Lock()
	s.queue = append(s.queue, result)
	s.mu.Unlock()
	select {
	case s.signal <- struct{}{}:
	default:
	}
}

func (s *Subscription) fail(err error) {
	select {
	case s.errCh <- err:
	default:
	}
	s.stop()
}

func (s *Subscription) stop() {
	s.quitOnce.Do(func() { close(s.quit) })
}

func (s *Subscription) forward() {
	defer close(s.notifications)
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.mu.Unlock()
			select {
			case <-s.signal:
				continue
			case <-s.quit:
				return
			}
		}
		next := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		select {
		case s.notifications <- next:
		case <-s.quit:
			return
		}
	}
}
