package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-booking/internal/model"
)

// All repository interfaces in one file. Implementations return
// model.ErrNotFound and model.ErrDuplicate (wrapped) for missing rows and
// unique violations.
type (
	// AccountRepository handles account operations
	AccountRepository interface {
		Create(ctx context.Context, account *model.Account) error
		Get(ctx context.Context, id uuid.UUID) (*model.Account, error)
		GetByEmail(ctx context.Context, email string) (*model.Account, error)
	}

	// DoctorRepository stores a doctor account and its profile together.
	DoctorRepository interface {
		Create(ctx context.Context, doctor *model.Doctor) error
		Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error)
		List(ctx context.Context, filters model.DoctorFilters) ([]*model.Doctor, error)
	}

	ClinicRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.Clinic, error)
		List(ctx context.Context) ([]*model.Clinic, error)
		// SeedIfEmpty inserts clinics only when none exist and reports how
		// many rows were written.
		SeedIfEmpty(ctx context.Context, clinics []*model.Clinic) (int, error)
	}

	BookingRepository interface {
		// Create stores the booking and, when evt is non-nil, the outbox
		// event in the same transaction.
		Create(ctx context.Context, booking *model.Booking, evt *model.OutboxEvent) error
		ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.Booking, error)
		BookedSlots(ctx context.Context, doctorID uuid.UUID) ([]string, error)
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		// ClaimPending moves up to limit pending events to PROCESSING and
		// returns them.
		ClaimPending(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		MarkProcessed(ctx context.Context, id uuid.UUID) error
		// MarkFailed records the error; the event returns to PENDING until
		// maxRetries is reached, then stays FAILED.
		MarkFailed(ctx context.Context, id uuid.UUID, errMsg string, maxRetries int) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}

	HealthChecker interface {
		Ping(ctx context.Context) error
	}
)

// Repositories bundles every repository a backend provides.
type Repositories struct {
	Accounts AccountRepository
	Doctors  DoctorRepository
	Clinics  ClinicRepository
	Bookings BookingRepository
	Outbox   OutboxRepository
	Health   HealthChecker
}
