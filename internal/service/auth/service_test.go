package auth

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jwalitptl/clinic-booking/internal/model"
	"github.com/jwalitptl/clinic-booking/internal/repository"
	"github.com/jwalitptl/clinic-booking/internal/repository/memory"
	"github.com/jwalitptl/clinic-booking/internal/service/clinic"
	apperrors "github.com/jwalitptl/clinic-booking/pkg/errors"
	"github.com/jwalitptl/clinic-booking/pkg/invite"
	"github.com/jwalitptl/clinic-booking/pkg/metrics"
	"github.com/jwalitptl/clinic-booking/pkg/security"
)

type fixture struct {
	svc      *Service
	repos    *repository.Repositories
	metrics  *metrics.Metrics
	clinicID string
}

func newFixture(t *testing.T, gate AccessGate) *fixture {
	t.Helper()
	ctx := context.Background()

	repos, _ := memory.NewRepositories()
	clinicSvc := clinic.NewService(repos.Clinics, repos.Doctors, time.Minute, zerolog.Nop())
	_, err := clinicSvc.SeedDefaults(ctx)
	require.NoError(t, err)
	clinics, err := clinicSvc.ListClinics(ctx)
	require.NoError(t, err)

	if gate == nil {
		gate = NewSharedCodeGate("doc123")
	}
	m := metrics.New("test")
	svc := NewService(repos.Accounts, repos.Doctors, clinicSvc, gate,
		security.NewBcryptHasher(bcrypt.MinCost), m, zerolog.Nop())

	return &fixture{svc: svc, repos: repos, metrics: m, clinicID: clinics[0].ID.String()}
}

func (f *fixture) patient(email string) *model.RegisterRequest {
	return &model.RegisterRequest{Email: email, Password: "password1", Role: model.RolePatient}
}

func (f *fixture) doctor(email, code string) *model.RegisterRequest {
	return &model.RegisterRequest{
		Email:      email,
		Password:   "password1",
		Role:       model.RoleDoctor,
		ClinicID:   f.clinicID,
		DoctorCode: code,
		Specialty:  "cardiology",
	}
}

func assertMessage(t *testing.T, err error, msg string) {
	t.Helper()
	appErr, ok := apperrors.As(err)
	require.True(t, ok, "expected AppError, got %v", err)
	assert.Equal(t, msg, appErr.Message)
}

func TestRegisterPatient(t *testing.T) {
	f := newFixture(t, nil)

	acc, err := f.svc.Register(context.Background(), f.patient("  Jane@Example.COM "))
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", acc.Email)
	assert.Equal(t, model.RolePatient, acc.Role)
	assert.NotEqual(t, "password1", acc.PasswordHash)
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.Registrations.WithLabelValues("patient")))
}

func TestRegisterRejectsEmailAcrossRoles(t *testing.T) {
	ctx := context.Background()

	t.Run("patient then doctor", func(t *testing.T) {
		f := newFixture(t, nil)
		_, err := f.svc.Register(ctx, f.patient("same@x.io"))
		require.NoError(t, err)

		_, err = f.svc.Register(ctx, f.doctor(" SAME@x.io", "doc123"))
		assertMessage(t, err, MsgEmailTaken)
		assert.Equal(t, apperrors.ErrConflict, apperrors.CodeOf(err))
	})

	t.Run("doctor then patient", func(t *testing.T) {
		f := newFixture(t, nil)
		_, err := f.svc.Register(ctx, f.doctor("same@x.io", "doc123"))
		require.NoError(t, err)

		_, err = f.svc.Register(ctx, f.patient("Same@X.io"))
		assertMessage(t, err, MsgEmailTaken)

		acc, err := f.repos.Accounts.GetByEmail(ctx, "same@x.io")
		require.NoError(t, err)
		assert.Equal(t, model.RoleDoctor, acc.Role)
	})
}

func TestRegisterPatientWithDoctorCode(t *testing.T) {
	f := newFixture(t, nil)
	req := f.patient("p@x.io")
	req.DoctorCode = "doc123"

	_, err := f.svc.Register(context.Background(), req)
	assertMessage(t, err, MsgPatientWithCode)

	_, err = f.repos.Accounts.GetByEmail(context.Background(), "p@x.io")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestRegisterDoctorRequiresSharedCode(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		code string
		ok   bool
	}{
		{"doc123", true},
		{" doc123 ", true},
		{"DOC123", false},
		{"doc12", false},
		{"doc1234", false},
		{"", false},
	}

	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			f := newFixture(t, nil)
			acc, err := f.svc.Register(ctx, f.doctor("d@x.io", tc.code))

			if tc.ok {
				require.NoError(t, err)
				assert.Equal(t, model.RoleDoctor, acc.Role)
				doc, err := f.repos.Doctors.Get(ctx, acc.ID)
				require.NoError(t, err)
				assert.Equal(t, model.SpecialtyCardiology, doc.Specialty)
				assert.Equal(t, model.DefaultSlotCatalog, doc.AllTime)
				return
			}

			assertMessage(t, err, MsgInvalidDoctorCode)
			_, err = f.repos.Accounts.GetByEmail(ctx, "d@x.io")
			assert.ErrorIs(t, err, model.ErrNotFound)
		})
	}
}

func TestRegisterDoctorValidatesClinicAndSpecialty(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	req := f.doctor("d@x.io", "doc123")
	req.ClinicID = "00000000-0000-0000-0000-000000000001"
	_, err := f.svc.Register(ctx, req)
	assertMessage(t, err, clinic.MsgInvalidClinic)

	req = f.doctor("d@x.io", "doc123")
	req.ClinicID = "garbage"
	_, err = f.svc.Register(ctx, req)
	assertMessage(t, err, clinic.MsgInvalidClinic)

	req = f.doctor("d@x.io", "doc123")
	req.Specialty = "wizardry"
	_, err = f.svc.Register(ctx, req)
	assertMessage(t, err, MsgInvalidSpecialty)

	_, err = f.repos.Accounts.GetByEmail(ctx, "d@x.io")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestRegisterFailsClosedOnBadInput(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	_, err := f.svc.Register(ctx, &model.RegisterRequest{Email: "  ", Password: "password1", Role: model.RolePatient})
	assertMessage(t, err, MsgMissingFields)

	_, err = f.svc.Register(ctx, &model.RegisterRequest{Email: "not-an-email", Password: "password1", Role: model.RolePatient})
	assertMessage(t, err, MsgInvalidEmail)

	_, err = f.svc.Register(ctx, &model.RegisterRequest{Email: "a@x.io", Password: "password1", Role: "admin"})
	assertMessage(t, err, MsgInvalidRole)

	_, err = f.svc.Register(ctx, &model.RegisterRequest{Email: "a@x.io", Password: "short", Role: model.RolePatient})
	assertMessage(t, err, MsgPasswordTooShort)
}

func TestRegisterDoctorWithInvite(t *testing.T) {
	ctx := context.Background()
	signer, err := invite.NewSigner("0123456789abcdef0123456789abcdef")
	require.NoError(t, err)
	f := newFixture(t, NewInviteGate(signer))

	token, err := signer.Issue("invited@x.io", time.Hour)
	require.NoError(t, err)

	_, err = f.svc.Register(ctx, f.doctor("other@x.io", token))
	assertMessage(t, err, MsgInvalidDoctorCode)

	_, err = f.svc.Register(ctx, f.doctor("doc123@x.io", "doc123"))
	assertMessage(t, err, MsgInvalidDoctorCode)

	acc, err := f.svc.Register(ctx, f.doctor("Invited@X.io", token))
	require.NoError(t, err)
	assert.Equal(t, "invited@x.io", acc.Email)
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	_, err := f.svc.Register(ctx, f.patient("p@x.io"))
	require.NoError(t, err)
	_, err = f.svc.Register(ctx, f.doctor("d@x.io", "doc123"))
	require.NoError(t, err)

	acc, err := f.svc.Login(ctx, " P@X.io ", "password1")
	require.NoError(t, err)
	assert.Equal(t, model.RolePatient, acc.Role)

	acc, err = f.svc.Login(ctx, "d@x.io", "password1")
	require.NoError(t, err)
	assert.Equal(t, model.RoleDoctor, acc.Role)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	_, err := f.svc.Register(ctx, f.patient("p@x.io"))
	require.NoError(t, err)

	_, wrongPassword := f.svc.Login(ctx, "p@x.io", "password2")
	_, unknownEmail := f.svc.Login(ctx, "nobody@x.io", "password1")

	require.Error(t, wrongPassword)
	require.Error(t, unknownEmail)
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
	assert.Equal(t, apperrors.CodeOf(wrongPassword), apperrors.CodeOf(unknownEmail))
	assertMessage(t, wrongPassword, MsgInvalidCredentials)
	assert.Equal(t, float64(2), testutil.ToFloat64(f.metrics.LoginFailures))
}
