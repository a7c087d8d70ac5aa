package session

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/clinic-booking/internal/model"
)

const (
	contextKey = "session_state"
	managerKey = "session_manager"
)

type Options struct {
	CookieName string
	TTL        time.Duration
	Secure     bool
}

// Manager binds sessions to requests through an opaque cookie.
type Manager struct {
	store Store
	opts  Options
}

func NewManager(store Store, opts Options) *Manager {
	return &Manager{store: store, opts: opts}
}

type state struct {
	sess      *Session
	stale     string // id replaced during this request, deleted afterwards
	dirty     bool
	cookieSet bool
	fresh     bool // id not yet known to the client
}

// Middleware loads the session named by the cookie, or starts an empty one,
// and persists it after the handler if it changed.
func (m *Manager) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		st := &state{}
		if id, err := c.Cookie(m.opts.CookieName); err == nil && id != "" {
			sess, err := m.store.Get(c.Request.Context(), id)
			switch {
			case err == nil:
				st.sess = sess
			case errors.Is(err, ErrNotFound):
			default:
				log.Error().Err(err).Msg("failed to load session")
			}
		}
		if st.sess == nil {
			st.sess = newSession()
			st.fresh = true
		}
		c.Set(contextKey, st)
		c.Set(managerKey, m)

		c.Next()

		if st.stale != "" {
			if err := m.store.Delete(c.Request.Context(), st.stale); err != nil {
				log.Error().Err(err).Msg("failed to delete previous session")
			}
		}
		if st.dirty {
			if err := m.store.Save(c.Request.Context(), st.sess, m.opts.TTL); err != nil {
				log.Error().Err(err).Str("request_id", c.GetString("request_id")).Msg("failed to save session")
			}
		}
	}
}

func current(c *gin.Context) (*state, *Manager) {
	v, ok := c.Get(contextKey)
	if !ok {
		panic("session middleware not installed")
	}
	return v.(*state), c.MustGet(managerKey).(*Manager)
}

// touch marks the session for saving and issues the cookie if the client
// does not hold the current id yet.
func touch(c *gin.Context) *Session {
	st, m := current(c)
	st.dirty = true
	if st.fresh && !st.cookieSet {
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(m.opts.CookieName, st.sess.ID, int(m.opts.TTL.Seconds()), "/", "", m.opts.Secure, true)
		st.cookieSet = true
	}
	return st.sess
}

// Get returns the request's session. It never returns nil inside the
// middleware.
func Get(c *gin.Context) *Session {
	st, _ := current(c)
	return st.sess
}

// AddFlash queues a message for the next rendered page.
func AddFlash(c *gin.Context, msg string) {
	sess := touch(c)
	sess.Flashes = append(sess.Flashes, msg)
}

// Flashes returns and clears queued messages.
func Flashes(c *gin.Context) []string {
	st, _ := current(c)
	if len(st.sess.Flashes) == 0 {
		return []string{}
	}
	out := st.sess.Flashes
	st.sess.Flashes = nil
	touch(c)
	return out
}

// Login stores the identity under a new session id so an id issued before
// authentication cannot be reused after it.
func Login(c *gin.Context, accountID uuid.UUID, role model.Role) {
	renew(c)
	sess := touch(c)
	sess.AccountID = accountID
	sess.Role = role
}

// Logout drops the identity and rotates the id. Pending flashes survive.
func Logout(c *gin.Context) {
	renew(c)
	sess := touch(c)
	sess.AccountID = uuid.Nil
	sess.Role = ""
}

func renew(c *gin.Context) {
	st, _ := current(c)
	if !st.fresh && st.stale == "" {
		st.stale = st.sess.ID
	}
	st.sess.ID = uuid.NewString()
	st.cookieSet = false
	st.fresh = true
}
