package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-booking/internal/model"
	"github.com/jwalitptl/clinic-booking/internal/session"
)

const (
	MsgUnauthorized = "Unauthorized access."
	LoginPath       = "/login"

	ContextAccountID = "account_id"
)

// RequireRole admits only sessions authenticated with role. Everyone else is
// sent to the login page with a flash. Checked on every request.
func RequireRole(role model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := session.Get(c)
		if !sess.Authenticated() || sess.Role != role {
			session.AddFlash(c, MsgUnauthorized)
			c.Redirect(http.StatusFound, LoginPath)
			c.Abort()
			return
		}
		c.Set(ContextAccountID, sess.AccountID)
		c.Next()
	}
}
