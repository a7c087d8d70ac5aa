package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/jwalitptl/clinic-booking/pkg/invite"
)

var ErrAccessDenied = errors.New("doctor access code rejected")

// AccessGate decides whether a doctor may self-register with code.
type AccessGate interface {
	Allow(ctx context.Context, email, code string) error
}

type sharedCodeGate struct {
	code []byte
}

// NewSharedCodeGate accepts exactly one configured access code.
func NewSharedCodeGate(code string) AccessGate {
	return &sharedCodeGate{code: []byte(code)}
}

func (g *sharedCodeGate) Allow(_ context.Context, _, code string) error {
	if len(g.code) == 0 || subtle.ConstantTimeCompare([]byte(strings.TrimSpace(code)), g.code) != 1 {
		return ErrAccessDenied
	}
	return nil
}

type inviteGate struct {
	signer *invite.Signer
}

// NewInviteGate accepts invite tokens issued for the registering email.
func NewInviteGate(signer *invite.Signer) AccessGate {
	return &inviteGate{signer: signer}
}

func (g *inviteGate) Allow(_ context.Context, email, code string) error {
	if _, err := g.signer.Verify(code, email); err != nil {
		return errors.Join(ErrAccessDenied, err)
	}
	return nil
}
