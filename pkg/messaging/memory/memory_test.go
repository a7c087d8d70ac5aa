package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrokerFanOut(t *testing.T) {
	b := NewBroker()
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first, err := b.Subscribe(ctx, "booking.created")
	require.NoError(t, err)
	second, err := b.Subscribe(ctx, "booking.created")
	require.NoError(t, err)

	require.NoError(t, b.Publish(ctx, "booking.created", []byte(`{"time":"10"}`)))
	require.NoError(t, b.Publish(ctx, "other", []byte(`{}`)))

	for _, ch := range []<-chan []byte{first, second} {
		select {
		case msg := <-ch:
			assert.JSONEq(t, `{"time":"10"}`, string(msg))
		case <-time.After(time.Second):
			t.Fatal("message not delivered")
		}
	}
}

func TestBrokerUnsubscribesOnCancel(t *testing.T) {
	b := NewBroker()
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := b.Subscribe(ctx, "booking.created")
	require.NoError(t, err)

	cancel()
	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}
}

func TestBrokerClosed(t *testing.T) {
	b := NewBroker()
	require.NoError(t, b.Close())

	assert.ErrorIs(t, b.Publish(context.Background(), "x", nil), ErrClosed)
	_, err := b.Subscribe(context.Background(), "x")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestBrokerUnsubscribeWhilePublisherBlocked(t *testing.T) {
	b := NewBroker()
	defer b.Close()

	subCtx, cancelSub := context.WithCancel(context.Background())
	_, err := b.Subscribe(subCtx, "booking.created")
	require.NoError(t, err)

	for i := 0; i < subscriberBuffer; i++ {
		require.NoError(t, b.Publish(context.Background(), "booking.created", []byte("{}")))
	}

	published := make(chan error, 1)
	go func() {
		published <- b.Publish(context.Background(), "booking.created", []byte("{}"))
	}()

	cancelSub()
	select {
	case err := <-published:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("publisher still blocked after subscriber cancelled")
	}

	subscribed := make(chan error, 1)
	go func() {
		_, err := b.Subscribe(context.Background(), "other")
		subscribed <- err
	}()
	select {
	case err := <-subscribed:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("subscribe blocked behind a stalled publisher")
	}
}
