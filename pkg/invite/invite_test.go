package invite

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestIssueAndVerify(t *testing.T) {
	s, err := NewSigner(testSecret)
	require.NoError(t, err)

	token, err := s.Issue(" Dr.House@Clinic.io ", time.Hour)
	require.NoError(t, err)

	claims, err := s.Verify(token, "dr.house@clinic.io")
	require.NoError(t, err)
	assert.Equal(t, "dr.house@clinic.io", claims.Email)
	assert.NotEmpty(t, claims.ID)
}

func TestVerifyRejectsOtherEmail(t *testing.T) {
	s, err := NewSigner(testSecret)
	require.NoError(t, err)

	token, err := s.Issue("a@clinic.io", time.Hour)
	require.NoError(t, err)

	_, err = s.Verify(token, "b@clinic.io")
	assert.ErrorIs(t, err, ErrEmailMismatch)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	s, err := NewSigner(testSecret)
	require.NoError(t, err)

	issued := time.Now().Add(-2 * time.Hour)
	s.now = func() time.Time { return issued }
	token, err := s.Issue("a@clinic.io", time.Hour)
	require.NoError(t, err)

	s.now = time.Now
	_, err = s.Verify(token, "a@clinic.io")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsForeignSignature(t *testing.T) {
	a, err := NewSigner(testSecret)
	require.NoError(t, err)
	b, err := NewSigner(strings.Repeat("z", 32))
	require.NoError(t, err)

	token, err := a.Issue("a@clinic.io", time.Hour)
	require.NoError(t, err)

	_, err = b.Verify(token, "a@clinic.io")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = a.Verify("doc123", "a@clinic.io")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewSignerRequiresStrongSecret(t *testing.T) {
	_, err := NewSigner("short")
	assert.ErrorIs(t, err, ErrSecretTooWeak)
}
