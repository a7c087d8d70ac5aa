package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/clinic-booking/internal/model"
	"github.com/jwalitptl/clinic-booking/internal/repository"
	apperrors "github.com/jwalitptl/clinic-booking/pkg/errors"
	"github.com/jwalitptl/clinic-booking/pkg/metrics"
)

const (
	MsgDoctorNotFound = "Doctor not found."
	MsgInvalidSlot    = "Invalid time slot."
	MsgSlotTaken      = "Time slot already booked."
	MsgUnknownPatient = "Unauthorized access."
)

type Service struct {
	accounts repository.AccountRepository
	doctors  repository.DoctorRepository
	bookings repository.BookingRepository
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

func NewService(
	accounts repository.AccountRepository,
	doctors repository.DoctorRepository,
	bookings repository.BookingRepository,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *Service {
	return &Service{
		accounts: accounts,
		doctors:  doctors,
		bookings: bookings,
		metrics:  m,
		logger:   logger,
	}
}

// Book reserves slot on the doctor's calendar for the patient. The booking
// and its booking.created outbox event are stored atomically; a slot lost
// to a concurrent request is reported as already booked.
func (s *Service) Book(ctx context.Context, patientID, doctorID uuid.UUID, slot string) (*model.Booking, error) {
	doctor, err := s.getDoctor(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	if !doctor.OffersSlot(slot) {
		return nil, apperrors.BadRequest(MsgInvalidSlot, fmt.Errorf("slot %q not offered", slot))
	}

	patient, err := s.accounts.Get(ctx, patientID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, apperrors.Unauthorized(MsgUnknownPatient, err)
		}
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	if patient.Role != model.RolePatient {
		return nil, apperrors.Forbidden(MsgUnknownPatient, nil)
	}

	booked, err := s.bookings.BookedSlots(ctx, doctor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load booked slots: %w", err)
	}
	for _, b := range booked {
		if b == slot {
			return nil, s.conflict(doctor.ID, slot, nil)
		}
	}

	booking := &model.Booking{
		ID:           uuid.New(),
		DoctorID:     doctor.ID,
		PatientID:    patient.ID,
		PatientEmail: patient.Email,
		Slot:         slot,
	}
	evt, err := model.NewOutboxEvent(model.EventBookingCreated, model.BookingCreatedPayload{
		BookingID:    booking.ID,
		DoctorID:     doctor.ID,
		DoctorEmail:  doctor.Email,
		PatientEmail: patient.Email,
		ClinicID:     doctor.ClinicID,
		Slot:         slot,
		BookedAt:     time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	if err := s.bookings.Create(ctx, booking, evt); err != nil {
		if errors.Is(err, model.ErrDuplicate) {
			return nil, s.conflict(doctor.ID, slot, err)
		}
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	s.metrics.Bookings.Inc()
	s.logger.Info().
		Str("booking_id", booking.ID.String()).
		Str("doctor_id", doctor.ID.String()).
		Str("slot", slot).
		Msg("booking created")
	return booking, nil
}

// DoctorBookings lists a doctor's bookings ordered by hour.
func (s *Service) DoctorBookings(ctx context.Context, doctorID uuid.UUID) ([]*model.Booking, error) {
	bookings, err := s.bookings.ListByDoctor(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	model.SortBookings(bookings)
	return bookings, nil
}

// Availability splits the doctor's catalog into booked and open slots.
func (s *Service) Availability(ctx context.Context, doctorID uuid.UUID) (*model.Availability, error) {
	doctor, err := s.getDoctor(ctx, doctorID)
	if err != nil {
		return nil, err
	}

	booked, err := s.bookings.BookedSlots(ctx, doctor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load booked slots: %w", err)
	}

	taken := make(map[string]struct{}, len(booked))
	for _, b := range booked {
		taken[b] = struct{}{}
	}
	open := make([]string, 0, len(doctor.AllTime))
	for _, slot := range doctor.AllTime {
		if _, ok := taken[slot]; !ok {
			open = append(open, slot)
		}
	}
	model.SortSlots(booked)
	model.SortSlots(open)

	return &model.Availability{Doctor: doctor, Booked: booked, Open: open}, nil
}

func (s *Service) getDoctor(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	doctor, err := s.doctors.Get(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, apperrors.NotFound(MsgDoctorNotFound, err)
		}
		return nil, fmt.Errorf("failed to get doctor: %w", err)
	}
	return doctor, nil
}

func (s *Service) conflict(doctorID uuid.UUID, slot string, err error) error {
	s.metrics.BookingConflicts.Inc()
	s.logger.Info().Str("doctor_id", doctorID.String()).Str("slot", slot).Msg("slot already booked")
	return apperrors.Conflict(MsgSlotTaken, err)
}
