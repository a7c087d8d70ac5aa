package clinic

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/clinic-booking/internal/model"
	"github.com/jwalitptl/clinic-booking/internal/repository"
	apperrors "github.com/jwalitptl/clinic-booking/pkg/errors"
)

const (
	MsgInvalidClinic    = "Please select a valid clinic."
	MsgInvalidSpecialty = "Please select a valid specialty."

	clinicsKey = "clinics"
)

// DoctorQuery filters the doctor directory. Both fields are optional raw
// form values.
type DoctorQuery struct {
	ClinicID  string
	Specialty string
}

// DoctorListing is the result of a directory lookup. InvalidSpecialty is set
// when the specialty filter was unknown and dropped.
type DoctorListing struct {
	Clinic           *model.Clinic   `json:"clinic,omitempty"`
	Specialty        model.Specialty `json:"specialty,omitempty"`
	Doctors          []*model.Doctor `json:"doctors"`
	InvalidSpecialty bool            `json:"invalid_specialty,omitempty"`
}

type Service struct {
	clinics repository.ClinicRepository
	doctors repository.DoctorRepository
	cache   *cache.Cache
	logger  zerolog.Logger
}

// NewService caches the clinic list for cacheTTL. Clinics change only
// through SeedDefaults, which invalidates the entry.
func NewService(clinics repository.ClinicRepository, doctors repository.DoctorRepository, cacheTTL time.Duration, logger zerolog.Logger) *Service {
	return &Service{
		clinics: clinics,
		doctors: doctors,
		cache:   cache.New(cacheTTL, 2*cacheTTL),
		logger:  logger,
	}
}

// SeedDefaults writes the default clinics when none exist.
func (s *Service) SeedDefaults(ctx context.Context) (int, error) {
	n, err := s.clinics.SeedIfEmpty(ctx, model.DefaultClinics())
	if err != nil {
		return 0, fmt.Errorf("failed to seed clinics: %w", err)
	}
	if n > 0 {
		s.cache.Delete(clinicsKey)
		s.logger.Info().Int("count", n).Msg("seeded default clinics")
	}
	return n, nil
}

func (s *Service) ListClinics(ctx context.Context) ([]*model.Clinic, error) {
	if cached, ok := s.cache.Get(clinicsKey); ok {
		return cached.([]*model.Clinic), nil
	}

	clinics, err := s.clinics.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list clinics: %w", err)
	}
	s.cache.SetDefault(clinicsKey, clinics)
	return clinics, nil
}

// GetClinic resolves a raw clinic id from a form.
func (s *Service) GetClinic(ctx context.Context, rawID string) (*model.Clinic, error) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, apperrors.BadRequest(MsgInvalidClinic, err)
	}

	clinic, err := s.clinics.Get(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, apperrors.NotFound(MsgInvalidClinic, err)
		}
		return nil, fmt.Errorf("failed to get clinic: %w", err)
	}
	return clinic, nil
}

// ListDoctors returns doctors matching the query. An unknown specialty is
// reported through InvalidSpecialty and the lookup falls back to the clinic
// filter alone; an unknown clinic is an error.
func (s *Service) ListDoctors(ctx context.Context, q DoctorQuery) (*DoctorListing, error) {
	listing := &DoctorListing{}
	var filters model.DoctorFilters

	if q.ClinicID != "" {
		clinic, err := s.GetClinic(ctx, q.ClinicID)
		if err != nil {
			return nil, err
		}
		listing.Clinic = clinic
		filters.ClinicID = clinic.ID
	}

	if q.Specialty != "" {
		sp, err := model.ParseSpecialty(q.Specialty)
		if err != nil {
			listing.InvalidSpecialty = true
		} else {
			listing.Specialty = sp
			filters.Specialty = sp
		}
	}

	doctors, err := s.doctors.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list doctors: %w", err)
	}
	listing.Doctors = doctors
	return listing, nil
}

// Specialties lists the selectable specialties in display order.
func (s *Service) Specialties() []model.Specialty {
	return model.Specialties()
}
