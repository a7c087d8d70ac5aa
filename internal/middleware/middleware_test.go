package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-booking/internal/model"
	"github.com/jwalitptl/clinic-booking/internal/session"
	apperrors "github.com/jwalitptl/clinic-booking/pkg/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequestIDKeepsValidHeader(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(ContextRequestID)) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderXRequestID, "abc-123")
	w := serve(r, req)
	assert.Equal(t, "abc-123", w.Body.String())
	assert.Equal(t, "abc-123", w.Header().Get(HeaderXRequestID))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderXRequestID, "bad id\n"+strings.Repeat("x", 80))
	w = serve(r, req)
	_, err := uuid.Parse(w.Body.String())
	assert.NoError(t, err)
}

func TestRecoveryReturnsJSON(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), Recovery())
	r.GET("/", func(c *gin.Context) { panic("boom") })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Internal server error")
	assert.Contains(t, w.Body.String(), w.Header().Get(HeaderXRequestID))
}

func TestRateLimiterIsPerClient(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 0.001, Burst: 1, IdleTTL: time.Minute})

	assert.True(t, rl.Allow("10.0.0.1"))
	assert.False(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.2"))
}

func TestRateLimitMiddleware(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 0.001, Burst: 1})
	r := gin.New()
	r.POST("/login", rl.RateLimit(), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	assert.Equal(t, http.StatusNoContent, serve(r, httptest.NewRequest(http.MethodPost, "/login", nil)).Code)
	w := serve(r, httptest.NewRequest(http.MethodPost, "/login", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
}

func TestSizeLimitRejectsLargeBodies(t *testing.T) {
	r := gin.New()
	r.Use(SizeLimit(8))
	r.POST("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	assert.Equal(t, http.StatusNoContent, serve(r, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("small"))).Code)
	assert.Equal(t, http.StatusRequestEntityTooLarge, serve(r, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("far too large"))).Code)
}

func TestSecurityHeaders(t *testing.T) {
	r := gin.New()
	r.Use(SecurityHeaders(DefaultSecurityConfig(false)))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"))
	assert.Contains(t, w.Header().Get("Content-Security-Policy"), "frame-ancestors 'none'")
}

func TestCORSAllowsConfiguredOrigin(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"https://clinic.example"}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://clinic.example")
	w := serve(r, req)
	assert.Equal(t, "https://clinic.example", w.Header().Get("Access-Control-Allow-Origin"))

	open := gin.New()
	open.Use(CORS(nil))
	open.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	w = serve(open, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestSlotValidator(t *testing.T) {
	require.NoError(t, RegisterValidators())
	require.NoError(t, RegisterValidators())

	r := gin.New()
	r.POST("/", func(c *gin.Context) {
		var req model.DashboardAction
		if err := c.ShouldBind(&req); err != nil {
			c.Status(http.StatusBadRequest)
			return
		}
		c.Status(http.StatusNoContent)
	})

	post := func(body string) int {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return serve(r, req).Code
	}
	assert.Equal(t, http.StatusNoContent, post("time=14"))
	assert.Equal(t, http.StatusNoContent, post("doc_id="+uuid.NewString()))
	assert.Equal(t, http.StatusBadRequest, post("time=25"))
	assert.Equal(t, http.StatusBadRequest, post("time=noon"))
}

func TestRequireRole(t *testing.T) {
	m := session.NewManager(session.NewMemoryStore(time.Minute), session.Options{CookieName: "sid", TTL: time.Hour})
	accountID := uuid.New()

	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/as/:role", func(c *gin.Context) {
		session.Login(c, accountID, model.Role(c.Param("role")))
		c.Status(http.StatusNoContent)
	})
	r.GET("/doctor", RequireRole(model.RoleDoctor), func(c *gin.Context) {
		c.String(http.StatusOK, c.MustGet(ContextAccountID).(uuid.UUID).String())
	})
	r.GET("/flashes", func(c *gin.Context) {
		c.JSON(http.StatusOK, session.Flashes(c))
	})

	withCookie := func(path string, ck *http.Cookie) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if ck != nil {
			req.AddCookie(ck)
		}
		return serve(r, req)
	}
	cookieOf := func(w *httptest.ResponseRecorder) *http.Cookie {
		for _, ck := range w.Result().Cookies() {
			if ck.Name == "sid" {
				return ck
			}
		}
		return nil
	}

	w := withCookie("/doctor", nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, LoginPath, w.Header().Get("Location"))
	anon := cookieOf(w)
	require.NotNil(t, anon)
	assert.JSONEq(t, `["Unauthorized access."]`, withCookie("/flashes", anon).Body.String())

	patient := cookieOf(withCookie("/as/patient", nil))
	require.NotNil(t, patient)
	assert.Equal(t, http.StatusFound, withCookie("/doctor", patient).Code)

	doctor := cookieOf(withCookie("/as/doctor", nil))
	require.NotNil(t, doctor)
	w = withCookie("/doctor", doctor)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, accountID.String(), w.Body.String())
}

func TestLoggerRecordsAppErrorBehindRedirect(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	defer func() { log.Logger = prev }()

	r := gin.New()
	r.Use(Logger())
	r.POST("/dashboard", func(c *gin.Context) {
		_ = c.Error(apperrors.Conflict("Time slot already booked.", nil))
		c.Redirect(http.StatusFound, "/dashboard")
	})

	w := serve(r, httptest.NewRequest(http.MethodPost, "/dashboard", nil))
	require.Equal(t, http.StatusFound, w.Code)

	out := buf.String()
	assert.Contains(t, out, `"level":"warn"`)
	assert.Contains(t, out, `"status":302`)
	assert.Contains(t, out, `"error_status":409`)
	assert.Contains(t, out, `"error":"Time slot already booked."`)
}
