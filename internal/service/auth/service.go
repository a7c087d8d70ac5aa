package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/clinic-booking/internal/model"
	"github.com/jwalitptl/clinic-booking/internal/repository"
	apperrors "github.com/jwalitptl/clinic-booking/pkg/errors"
	"github.com/jwalitptl/clinic-booking/pkg/metrics"
	"github.com/jwalitptl/clinic-booking/pkg/security"
)

const (
	MsgMissingFields      = "Email and password are required."
	MsgInvalidEmail       = "Please enter a valid email address."
	MsgInvalidRole        = "Please select a valid role."
	MsgEmailTaken         = "Email already registered under another role."
	MsgPatientWithCode    = "Patients should not enter a doctor code."
	MsgInvalidDoctorCode  = "Invalid doctor code."
	MsgInvalidClinic      = "Please select a valid clinic."
	MsgInvalidSpecialty   = "Please select a valid specialty."
	MsgPasswordTooShort   = "Password must be at least 8 characters."
	MsgInvalidCredentials = "Invalid credentials."
)

// ClinicResolver looks up the clinic a doctor registers with.
type ClinicResolver interface {
	GetClinic(ctx context.Context, rawID string) (*model.Clinic, error)
}

type Service struct {
	accounts repository.AccountRepository
	doctors  repository.DoctorRepository
	clinics  ClinicResolver
	gate     AccessGate
	hasher   security.PasswordHasher
	validate *validator.Validate
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

func NewService(
	accounts repository.AccountRepository,
	doctors repository.DoctorRepository,
	clinics ClinicResolver,
	gate AccessGate,
	hasher security.PasswordHasher,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *Service {
	return &Service{
		accounts: accounts,
		doctors:  doctors,
		clinics:  clinics,
		gate:     gate,
		hasher:   hasher,
		validate: validator.New(),
		metrics:  m,
		logger:   logger,
	}
}

// Register creates one patient or doctor account, or rejects the request
// with a user-facing AppError.
func (s *Service) Register(ctx context.Context, req *model.RegisterRequest) (*model.Account, error) {
	email := model.NormalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, apperrors.BadRequest(MsgMissingFields, nil)
	}
	if err := s.validate.Var(email, "email"); err != nil {
		return nil, apperrors.BadRequest(MsgInvalidEmail, err)
	}
	if !req.Role.Valid() {
		return nil, apperrors.BadRequest(MsgInvalidRole, fmt.Errorf("role %q", req.Role))
	}

	if _, err := s.accounts.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.Conflict(MsgEmailTaken, nil)
	} else if !errors.Is(err, model.ErrNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	code := strings.TrimSpace(req.DoctorCode)

	if req.Role == model.RolePatient {
		if code != "" {
			return nil, apperrors.BadRequest(MsgPatientWithCode, nil)
		}
		hash, err := s.hashPassword(req.Password)
		if err != nil {
			return nil, err
		}
		account := &model.Account{Email: email, PasswordHash: hash, Role: model.RolePatient}
		if err := s.accounts.Create(ctx, account); err != nil {
			return nil, s.mapCreateError(err)
		}
		s.registered(account)
		return account, nil
	}

	if err := s.gate.Allow(ctx, email, code); err != nil {
		s.logger.Warn().Str("email", email).Msg("doctor registration rejected by access gate")
		return nil, apperrors.Forbidden(MsgInvalidDoctorCode, err)
	}

	clinic, err := s.clinics.GetClinic(ctx, req.ClinicID)
	if err != nil {
		return nil, err
	}
	specialty, err := model.ParseSpecialty(req.Specialty)
	if err != nil {
		return nil, apperrors.BadRequest(MsgInvalidSpecialty, err)
	}

	hash, err := s.hashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	doctor := &model.Doctor{
		Account:   model.Account{Email: email, PasswordHash: hash, Role: model.RoleDoctor},
		ClinicID:  clinic.ID,
		Specialty: specialty,
		AllTime:   model.NewSlotCatalog(),
	}
	if err := s.doctors.Create(ctx, doctor); err != nil {
		return nil, s.mapCreateError(err)
	}
	s.registered(&doctor.Account)
	return &doctor.Account, nil
}

// Login verifies credentials. Unknown email and wrong password return the
// same error after the same amount of hashing work.
func (s *Service) Login(ctx context.Context, email, password string) (*model.Account, error) {
	email = model.NormalizeEmail(email)

	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, model.ErrNotFound) {
			return nil, fmt.Errorf("failed to look up account: %w", err)
		}
		s.hasher.CompareDummy(password)
		s.metrics.LoginFailures.Inc()
		return nil, apperrors.Unauthorized(MsgInvalidCredentials, nil)
	}

	if err := s.hasher.Compare(account.PasswordHash, password); err != nil {
		s.metrics.LoginFailures.Inc()
		return nil, apperrors.Unauthorized(MsgInvalidCredentials, nil)
	}
	return account, nil
}

func (s *Service) hashPassword(password string) (string, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		if errors.Is(err, security.ErrPasswordTooShort) {
			return "", apperrors.BadRequest(MsgPasswordTooShort, err)
		}
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return hash, nil
}

// mapCreateError turns a unique violation lost to a concurrent registration
// into the same answer as the pre-check.
func (s *Service) mapCreateError(err error) error {
	switch {
	case errors.Is(err, model.ErrDuplicate):
		return apperrors.Conflict(MsgEmailTaken, err)
	case errors.Is(err, model.ErrNotFound):
		return apperrors.NotFound(MsgInvalidClinic, err)
	default:
		return fmt.Errorf("failed to create account: %w", err)
	}
}

func (s *Service) registered(account *model.Account) {
	s.metrics.Registrations.WithLabelValues(string(account.Role)).Inc()
	s.logger.Info().Str("account_id", account.ID.String()).Str("role", string(account.Role)).Msg("account registered")
}
