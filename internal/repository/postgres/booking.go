package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/clinic-booking/internal/model"
	"github.com/jwalitptl/clinic-booking/internal/repository"
)

type bookingRepository struct {
	BaseRepository
}

func NewBookingRepository(base BaseRepository) repository.BookingRepository {
	return &bookingRepository{base}
}

func (r *bookingRepository) Create(ctx context.Context, booking *model.Booking, evt *model.OutboxEvent) error {
	if booking.ID == uuid.Nil {
		booking.ID = uuid.New()
	}
	booking.CreatedAt = time.Now().UTC()

	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.NamedExecContext(ctx, `
			INSERT INTO bookings (id, doctor_id, patient_id, patient_email, slot, created_at)
			VALUES (:id, :doctor_id, :patient_id, :patient_email, :slot, :created_at)
		`, booking); err != nil {
			return err
		}
		if evt == nil {
			return nil
		}
		return insertOutboxEvent(ctx, tx, evt)
	})
	return mapError("failed to create booking", err)
}

func (r *bookingRepository) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.Booking, error) {
	query := `
		SELECT id, doctor_id, patient_id, patient_email, slot, created_at
		FROM bookings
		WHERE doctor_id = $1
	`
	var bookings []*model.Booking
	if err := r.db.SelectContext(ctx, &bookings, query, doctorID); err != nil {
		return nil, mapError("failed to list bookings", err)
	}
	model.SortBookings(bookings)
	return bookings, nil
}

func (r *bookingRepository) BookedSlots(ctx context.Context, doctorID uuid.UUID) ([]string, error) {
	var slots []string
	if err := r.db.SelectContext(ctx, &slots, `SELECT slot FROM bookings WHERE doctor_id = $1`, doctorID); err != nil {
		return nil, mapError("failed to list booked slots", err)
	}
	model.SortSlots(slots)
	return slots, nil
}
