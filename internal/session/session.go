package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-booking/internal/model"
)

var ErrNotFound = errors.New("session not found")

// Session is the server-side state behind the session cookie.
type Session struct {
	ID        string     `json:"id"`
	AccountID uuid.UUID  `json:"account_id"`
	Role      model.Role `json:"role"`
	Flashes   []string   `json:"flashes,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func newSession() *Session {
	return &Session{ID: uuid.NewString(), CreatedAt: time.Now().UTC()}
}

// Authenticated reports whether the session carries an identity.
func (s *Session) Authenticated() bool {
	return s.AccountID != uuid.Nil && s.Role.Valid()
}

// Store persists sessions by id.
type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, sess *Session, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}
