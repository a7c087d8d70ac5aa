package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jwalitptl/clinic-booking/internal/email"
	"github.com/jwalitptl/clinic-booking/internal/model"
	"github.com/jwalitptl/clinic-booking/pkg/messaging"
)

// Service turns booking.created events into confirmation emails for the
// patient and the doctor.
type Service struct {
	emailSvc email.Service
	broker   messaging.Broker
	logger   zerolog.Logger
}

func NewService(emailSvc email.Service, broker messaging.Broker, logger zerolog.Logger) *Service {
	return &Service{
		emailSvc: emailSvc,
		broker:   broker,
		logger:   logger,
	}
}

// Run consumes booking events until ctx is cancelled.
func (s *Service) Run(ctx context.Context) error {
	msgs, err := s.broker.Subscribe(ctx, model.EventBookingCreated)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", model.EventBookingCreated, err)
	}

	s.logger.Info().Str("channel", model.EventBookingCreated).Msg("notification consumer started")
	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("notification consumer stopped")
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			if err := s.HandleBookingCreated(ctx, msg); err != nil {
				s.logger.Error().Err(err).Msg("failed to handle booking event")
			}
		}
	}
}

// HandleBookingCreated sends both confirmation emails for one event.
func (s *Service) HandleBookingCreated(ctx context.Context, payload []byte) error {
	var evt model.BookingCreatedPayload
	if err := json.Unmarshal(payload, &evt); err != nil {
		return fmt.Errorf("invalid booking payload: %w", err)
	}
	if evt.PatientEmail == "" || evt.DoctorEmail == "" || evt.Slot == "" {
		return fmt.Errorf("incomplete booking payload for booking %s", evt.BookingID)
	}

	subject := fmt.Sprintf("Appointment confirmed for %s:00", evt.Slot)

	if err := s.emailSvc.SendCustom(ctx, evt.PatientEmail, subject,
		fmt.Sprintf("Your appointment with %s is booked for %s:00.\nBooking reference: %s\n",
			evt.DoctorEmail, evt.Slot, evt.BookingID)); err != nil {
		return fmt.Errorf("failed to notify patient: %w", err)
	}

	if err := s.emailSvc.SendCustom(ctx, evt.DoctorEmail, "New appointment booked",
		fmt.Sprintf("%s booked your %s:00 slot.\nBooking reference: %s\n",
			evt.PatientEmail, evt.Slot, evt.BookingID)); err != nil {
		return fmt.Errorf("failed to notify doctor: %w", err)
	}

	s.logger.Debug().Str("booking_id", evt.BookingID.String()).Msg("booking notifications sent")
	return nil
}
