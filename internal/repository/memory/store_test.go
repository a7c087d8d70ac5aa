package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-booking/internal/model"
)

func TestEmailUniqueAcrossRoles(t *testing.T) {
	ctx := context.Background()
	repos, _ := NewRepositories()

	n, err := repos.Clinics.SeedIfEmpty(ctx, model.DefaultClinics())
	require.NoError(t, err)
	require.Equal(t, 3, n)
	clinics, err := repos.Clinics.List(ctx)
	require.NoError(t, err)

	require.NoError(t, repos.Accounts.Create(ctx, &model.Account{
		Email: "a@x.io", PasswordHash: "h", Role: model.RolePatient,
	}))

	err = repos.Doctors.Create(ctx, &model.Doctor{
		Account:   model.Account{Email: "A@X.io", PasswordHash: "h"},
		ClinicID:  clinics[0].ID,
		Specialty: model.SpecialtyCardiology,
	})
	assert.ErrorIs(t, err, model.ErrDuplicate)

	acc, err := repos.Accounts.GetByEmail(ctx, " a@X.IO ")
	require.NoError(t, err)
	assert.Equal(t, model.RolePatient, acc.Role)
}

func TestDoctorRequiresExistingClinic(t *testing.T) {
	repos, _ := NewRepositories()

	err := repos.Doctors.Create(context.Background(), &model.Doctor{
		Account:   model.Account{Email: "d@x.io", PasswordHash: "h"},
		ClinicID:  uuid.New(),
		Specialty: model.SpecialtyENT,
	})
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestSeedIfEmptyIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repos, _ := NewRepositories()

	_, err := repos.Clinics.SeedIfEmpty(ctx, model.DefaultClinics())
	require.NoError(t, err)
	n, err := repos.Clinics.SeedIfEmpty(ctx, model.DefaultClinics())
	require.NoError(t, err)
	assert.Zero(t, n)

	clinics, err := repos.Clinics.List(ctx)
	require.NoError(t, err)
	assert.Len(t, clinics, 3)
	assert.Equal(t, "Clinic 1", clinics[0].Name)
}

func TestBookingUniquePerDoctorSlot(t *testing.T) {
	ctx := context.Background()
	repos, store := NewRepositories()

	_, err := repos.Clinics.SeedIfEmpty(ctx, model.DefaultClinics())
	require.NoError(t, err)
	clinics, _ := repos.Clinics.List(ctx)

	doc := &model.Doctor{
		Account:   model.Account{Email: "d@x.io", PasswordHash: "h"},
		ClinicID:  clinics[0].ID,
		Specialty: model.SpecialtyENT,
	}
	require.NoError(t, repos.Doctors.Create(ctx, doc))
	assert.Equal(t, model.DefaultSlotCatalog, doc.AllTime)

	evt, err := model.NewOutboxEvent(model.EventBookingCreated, map[string]string{"time": "14"})
	require.NoError(t, err)

	for _, slot := range []string{"14", "10", "21"} {
		require.NoError(t, repos.Bookings.Create(ctx, &model.Booking{
			DoctorID: doc.ID, PatientID: uuid.New(), PatientEmail: "p@x.io", Slot: slot,
		}, evt))
		evt = nil
	}

	err = repos.Bookings.Create(ctx, &model.Booking{DoctorID: doc.ID, PatientID: uuid.New(), Slot: "10"}, nil)
	assert.ErrorIs(t, err, model.ErrDuplicate)

	slots, err := repos.Bookings.BookedSlots(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"10", "14", "21"}, slots)

	bookings, err := repos.Bookings.ListByDoctor(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, bookings, 3)
	assert.Equal(t, "10", bookings[0].Slot)

	assert.Len(t, store.OutboxEvents(), 1)
}

func TestOutboxLifecycle(t *testing.T) {
	ctx := context.Background()
	repos, store := NewRepositories()

	for i := 0; i < 3; i++ {
		evt, err := model.NewOutboxEvent(model.EventBookingCreated, map[string]int{"n": i})
		require.NoError(t, err)
		require.NoError(t, repos.Outbox.Create(ctx, evt))
	}

	claimed, err := repos.Outbox.ClaimPending(ctx, 2)
	require.NoError(t, err)
	require.Len(t, claimed, 2)

	again, err := repos.Outbox.ClaimPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, again, 1)

	require.NoError(t, repos.Outbox.MarkProcessed(ctx, claimed[0].ID))
	require.NoError(t, repos.Outbox.MarkFailed(ctx, claimed[1].ID, "boom", 2))
	require.NoError(t, repos.Outbox.MarkFailed(ctx, again[0].ID, "boom", 1))

	byID := map[uuid.UUID]*model.OutboxEvent{}
	for _, e := range store.OutboxEvents() {
		byID[e.ID] = e
	}
	assert.Equal(t, model.OutboxStatusProcessed, byID[claimed[0].ID].Status)
	assert.Equal(t, model.OutboxStatusPending, byID[claimed[1].ID].Status)
	assert.Equal(t, 1, byID[claimed[1].ID].RetryCount)
	assert.Equal(t, model.OutboxStatusFailed, byID[again[0].ID].Status)

	n, err := repos.Outbox.DeleteProcessedBefore(ctx, time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Len(t, store.OutboxEvents(), 2)

	assert.ErrorIs(t, repos.Outbox.MarkProcessed(ctx, uuid.New()), model.ErrNotFound)
}
