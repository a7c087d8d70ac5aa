package notification

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-booking/internal/model"
	"github.com/jwalitptl/clinic-booking/pkg/messaging/memory"
)

type mockEmail struct {
	mock.Mock
}

func (m *mockEmail) SendCustom(ctx context.Context, to, subject, content string) error {
	args := m.Called(ctx, to, subject, content)
	return args.Error(0)
}

func payload(t *testing.T) []byte {
	t.Helper()
	raw, err := json.Marshal(model.BookingCreatedPayload{
		BookingID:    uuid.New(),
		DoctorID:     uuid.New(),
		DoctorEmail:  "doc@x.io",
		PatientEmail: "pat@x.io",
		Slot:         "14",
		BookedAt:     time.Now(),
	})
	require.NoError(t, err)
	return raw
}

func TestHandleBookingCreatedEmailsBothParties(t *testing.T) {
	m := &mockEmail{}
	m.On("SendCustom", mock.Anything, "pat@x.io", "Appointment confirmed for 14:00", mock.Anything).Return(nil).Once()
	m.On("SendCustom", mock.Anything, "doc@x.io", "New appointment booked", mock.Anything).Return(nil).Once()

	svc := NewService(m, memory.NewBroker(), zerolog.Nop())
	require.NoError(t, svc.HandleBookingCreated(context.Background(), payload(t)))

	m.AssertExpectations(t)
}

func TestHandleBookingCreatedStopsOnFailure(t *testing.T) {
	m := &mockEmail{}
	m.On("SendCustom", mock.Anything, "pat@x.io", mock.Anything, mock.Anything).Return(errors.New("smtp down")).Once()

	svc := NewService(m, memory.NewBroker(), zerolog.Nop())
	err := svc.HandleBookingCreated(context.Background(), payload(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "smtp down")

	m.AssertExpectations(t)
	m.AssertNotCalled(t, "SendCustom", mock.Anything, "doc@x.io", mock.Anything, mock.Anything)
}

func TestHandleBookingCreatedRejectsBadPayload(t *testing.T) {
	svc := NewService(&mockEmail{}, memory.NewBroker(), zerolog.Nop())

	assert.Error(t, svc.HandleBookingCreated(context.Background(), []byte("{")))
	assert.Error(t, svc.HandleBookingCreated(context.Background(), []byte(`{"time":"10"}`)))
}

// signalBroker reports when the consumer has subscribed.
type signalBroker struct {
	*memory.Broker
	subscribed chan struct{}
}

func (b *signalBroker) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	ch, err := b.Broker.Subscribe(ctx, channel)
	close(b.subscribed)
	return ch, err
}

func TestRunConsumesBrokerMessages(t *testing.T) {
	broker := &signalBroker{Broker: memory.NewBroker(), subscribed: make(chan struct{})}
	defer broker.Close()

	sent := make(chan string, 2)
	m := &mockEmail{}
	m.On("SendCustom", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil).
		Run(func(args mock.Arguments) { sent <- args.String(1) }).
		Twice()

	svc := NewService(m, broker, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- svc.Run(ctx) }()

	select {
	case <-broker.subscribed:
	case <-time.After(time.Second):
		t.Fatal("consumer did not subscribe")
	}
	require.NoError(t, broker.Publish(ctx, model.EventBookingCreated, payload(t)))

	var got []string
	for len(got) < 2 {
		select {
		case to := <-sent:
			got = append(got, to)
		case <-time.After(time.Second):
			t.Fatalf("expected two emails, got %v", got)
		}
	}
	assert.Equal(t, []string{"pat@x.io", "doc@x.io"}, got)

	cancel()
	assert.NoError(t, <-errCh)
	m.AssertExpectations(t)
}
