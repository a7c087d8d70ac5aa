package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-booking/internal/model"
	"github.com/jwalitptl/clinic-booking/internal/repository"
)

// Store keeps every table in maps behind one mutex. It enforces the same
// uniqueness and foreign-key rules as the postgres schema.
type Store struct {
	mu       sync.RWMutex
	accounts map[uuid.UUID]*model.Account
	emails   map[string]uuid.UUID
	doctors  map[uuid.UUID]*model.Doctor
	clinics  map[uuid.UUID]*model.Clinic
	bookings map[uuid.UUID][]*model.Booking
	outbox   []*model.OutboxEvent
}

func NewStore() *Store {
	return &Store{
		accounts: make(map[uuid.UUID]*model.Account),
		emails:   make(map[string]uuid.UUID),
		doctors:  make(map[uuid.UUID]*model.Doctor),
		clinics:  make(map[uuid.UUID]*model.Clinic),
		bookings: make(map[uuid.UUID][]*model.Booking),
	}
}

// NewRepositories returns every repository backed by a fresh store.
func NewRepositories() (*repository.Repositories, *Store) {
	s := NewStore()
	return &repository.Repositories{
		Accounts: (*accountRepository)(s),
		Doctors:  (*doctorRepository)(s),
		Clinics:  (*clinicRepository)(s),
		Bookings: (*bookingRepository)(s),
		Outbox:   (*outboxRepository)(s),
		Health:   s,
	}, s
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) insertAccount(a *model.Account) error {
	key := model.NormalizeEmail(a.Email)
	if _, ok := s.emails[key]; ok {
		return fmt.Errorf("failed to create account: %w", model.ErrDuplicate)
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	now := time.Now().UTC()
	a.CreatedAt, a.UpdatedAt = now, now

	cp := *a
	s.accounts[a.ID] = &cp
	s.emails[key] = a.ID
	return nil
}

type accountRepository Store

func (r *accountRepository) Create(ctx context.Context, account *model.Account) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertAccount(account)
}

func (r *accountRepository) Get(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[id]
	if !ok {
		return nil, fmt.Errorf("failed to get account: %w", model.ErrNotFound)
	}
	cp := *a
	return &cp, nil
}

func (r *accountRepository) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.emails[model.NormalizeEmail(email)]
	if !ok {
		return nil, fmt.Errorf("failed to get account by email: %w", model.ErrNotFound)
	}
	cp := *s.accounts[id]
	return &cp, nil
}

type doctorRepository Store

func (r *doctorRepository) Create(ctx context.Context, doctor *model.Doctor) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.clinics[doctor.ClinicID]; !ok {
		return fmt.Errorf("failed to create doctor: clinic %s: %w", doctor.ClinicID, model.ErrNotFound)
	}
	doctor.Role = model.RoleDoctor
	if len(doctor.AllTime) == 0 {
		doctor.AllTime = model.NewSlotCatalog()
	}
	if err := s.insertAccount(&doctor.Account); err != nil {
		return err
	}
	s.doctors[doctor.ID] = copyDoctor(doctor)
	return nil
}

func (r *doctorRepository) Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.doctors[id]
	if !ok {
		return nil, fmt.Errorf("failed to get doctor: %w", model.ErrNotFound)
	}
	return copyDoctor(d), nil
}

func (r *doctorRepository) List(ctx context.Context, filters model.DoctorFilters) ([]*model.Doctor, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*model.Doctor, 0)
	for _, d := range s.doctors {
		if filters.ClinicID != uuid.Nil && d.ClinicID != filters.ClinicID {
			continue
		}
		if filters.Specialty != "" && d.Specialty != filters.Specialty {
			continue
		}
		out = append(out, copyDoctor(d))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func copyDoctor(d *model.Doctor) *model.Doctor {
	cp := *d
	cp.AllTime = append([]string(nil), d.AllTime...)
	return &cp
}

type clinicRepository Store

func (r *clinicRepository) Get(ctx context.Context, id uuid.UUID) (*model.Clinic, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.clinics[id]
	if !ok {
		return nil, fmt.Errorf("failed to get clinic: %w", model.ErrNotFound)
	}
	cp := *c
	return &cp, nil
}

func (r *clinicRepository) List(ctx context.Context) ([]*model.Clinic, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*model.Clinic, 0, len(s.clinics))
	for _, c := range s.clinics {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *clinicRepository) SeedIfEmpty(ctx context.Context, clinics []*model.Clinic) (int, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.clinics) > 0 {
		return 0, nil
	}
	now := time.Now().UTC()
	for _, c := range clinics {
		if c.ID == uuid.Nil {
			c.ID = uuid.New()
		}
		c.CreatedAt, c.UpdatedAt = now, now
		cp := *c
		s.clinics[c.ID] = &cp
	}
	return len(clinics), nil
}

type bookingRepository Store

func (r *bookingRepository) Create(ctx context.Context, booking *model.Booking, evt *model.OutboxEvent) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.doctors[booking.DoctorID]; !ok {
		return fmt.Errorf("failed to create booking: doctor %s: %w", booking.DoctorID, model.ErrNotFound)
	}
	for _, b := range s.bookings[booking.DoctorID] {
		if b.Slot == booking.Slot {
			return fmt.Errorf("failed to create booking: %w", model.ErrDuplicate)
		}
	}

	if booking.ID == uuid.Nil {
		booking.ID = uuid.New()
	}
	booking.CreatedAt = time.Now().UTC()
	cp := *booking
	s.bookings[booking.DoctorID] = append(s.bookings[booking.DoctorID], &cp)

	if evt != nil {
		s.appendOutbox(evt)
	}
	return nil
}

func (r *bookingRepository) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.Booking, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*model.Booking, 0, len(s.bookings[doctorID]))
	for _, b := range s.bookings[doctorID] {
		cp := *b
		out = append(out, &cp)
	}
	model.SortBookings(out)
	return out, nil
}

func (r *bookingRepository) BookedSlots(ctx context.Context, doctorID uuid.UUID) ([]string, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.bookings[doctorID]))
	for _, b := range s.bookings[doctorID] {
		out = append(out, b.Slot)
	}
	model.SortSlots(out)
	return out, nil
}
