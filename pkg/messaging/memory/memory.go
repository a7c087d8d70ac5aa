package memory

import (
	"context"
	"errors"
	"sync"
)

var ErrClosed = errors.New("broker closed")

const subscriberBuffer = 100

type subscriber struct {
	ch   chan []byte
	done chan struct{}
	once sync.Once

	// mu guards closing ch against in-flight sends.
	mu     sync.RWMutex
	closed bool
}

func (s *subscriber) send(ctx context.Context, msg []byte) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil
	}
	select {
	case s.ch <- msg:
		return nil
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// stop releases blocked senders first, then closes ch once they are gone.
func (s *subscriber) stop() {
	s.once.Do(func() {
		close(s.done)
		s.mu.Lock()
		s.closed = true
		close(s.ch)
		s.mu.Unlock()
	})
}

// Broker is an in-process fan-out broker used when Redis is not configured.
type Broker struct {
	mu     sync.Mutex
	subs   map[string][]*subscriber
	closed bool
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[string][]*subscriber)}
}

// Publish delivers payload to every current subscriber of channel. The
// subscriber list is snapshotted so a slow consumer never holds the broker
// lock.
func (b *Broker) Publish(ctx context.Context, channel string, payload []byte) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrClosed
	}
	subs := append([]*subscriber(nil), b.subs[channel]...)
	b.mu.Unlock()

	for _, sub := range subs {
		if err := sub.send(ctx, append([]byte(nil), payload...)); err != nil {
			return err
		}
	}
	return nil
}

func (b *Broker) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrClosed
	}

	sub := &subscriber{
		ch:   make(chan []byte, subscriberBuffer),
		done: make(chan struct{}),
	}
	b.subs[channel] = append(b.subs[channel], sub)

	go func() {
		select {
		case <-ctx.Done():
			b.unsubscribe(channel, sub)
		case <-sub.done:
		}
	}()
	return sub.ch, nil
}

func (b *Broker) unsubscribe(channel string, sub *subscriber) {
	b.mu.Lock()
	subs := b.subs[channel]
	for i, s := range subs {
		if s == sub {
			b.subs[channel] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	b.mu.Unlock()
	sub.stop()
}

func (b *Broker) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	var all []*subscriber
	for channel, subs := range b.subs {
		all = append(all, subs...)
		delete(b.subs, channel)
	}
	b.mu.Unlock()

	for _, sub := range all {
		sub.stop()
	}
	return nil
}
