package router

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"golang.org/x/time/rate"

	authh "github.com/jwalitptl/clinic-booking/internal/handler/auth"
	"github.com/jwalitptl/clinic-booking/internal/handler/doctor"
	"github.com/jwalitptl/clinic-booking/internal/handler/health"
	"github.com/jwalitptl/clinic-booking/internal/handler/patient"
	"github.com/jwalitptl/clinic-booking/internal/middleware"
	"github.com/jwalitptl/clinic-booking/internal/repository"
	"github.com/jwalitptl/clinic-booking/internal/service/auth"
	"github.com/jwalitptl/clinic-booking/internal/service/booking"
	"github.com/jwalitptl/clinic-booking/internal/service/clinic"
	"github.com/jwalitptl/clinic-booking/internal/session"
	"github.com/jwalitptl/clinic-booking/pkg/metrics"
	"github.com/jwalitptl/clinic-booking/pkg/tracing"
)

type Handler interface {
	RegisterRoutes(gin.IRouter)
}

// Services are the dependencies the HTTP surface is built from.
type Services struct {
	Auth     *auth.Service
	Clinics  *clinic.Service
	Bookings *booking.Service
	Health   repository.HealthChecker
	Sessions *session.Manager
	Metrics  *metrics.Metrics
}

type RouterConfig struct {
	RateLimitEnabled bool
	RateLimit        rate.Limit
	RateBurst        int
	AllowedOrigins   []string
	TrustedProxies   []string
	SecureCookies    bool
	Mode             string
}

type Router struct {
	engine   *gin.Engine
	config   RouterConfig
	svc      Services
	authH    *authh.Handler
	patientH Handler
	doctorH  Handler
	healthH  *health.Handler
	limiter  *middleware.RateLimiter
}

func NewRouter(svc Services, config RouterConfig) (*Router, error) {
	if config.Mode != "" {
		gin.SetMode(config.Mode)
	}
	if err := middleware.RegisterValidators(); err != nil {
		return nil, err
	}

	engine := gin.New()
	// Rate limiting keys on ClientIP, so only configured proxies may set it.
	if err := engine.SetTrustedProxies(config.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}

	r := &Router{
		engine:   engine,
		config:   config,
		svc:      svc,
		authH:    authh.NewHandler(svc.Auth, svc.Clinics),
		patientH: patient.NewHandler(svc.Clinics, svc.Bookings),
		doctorH:  doctor.NewHandler(svc.Bookings),
		healthH:  health.NewHandler(svc.Health),
	}
	if config.RateLimitEnabled {
		r.limiter = middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:  config.RateLimit,
			Burst: config.RateBurst,
		})
	}

	// Add core middlewares
	engine.Use(
		otelgin.Middleware(tracing.ServiceName),
		middleware.RequestID(),
		middleware.Recovery(),
		middleware.Logger(),
		svc.Metrics.Middleware(),
		middleware.SecurityHeaders(middleware.DefaultSecurityConfig(config.SecureCookies)),
		middleware.CORS(config.AllowedOrigins),
		middleware.SizeLimit(middleware.DefaultMaxBodySize),
	)

	return r, nil
}

func (r *Router) Setup() {
	r.healthH.RegisterRoutes(r.engine)
	r.engine.GET("/metrics", gin.WrapH(r.svc.Metrics.Handler()))

	// Everything a browser sees runs with a session.
	pages := r.engine.Group("", r.svc.Sessions.Middleware())

	var limited []gin.HandlerFunc
	if r.limiter != nil {
		limited = append(limited, r.limiter.RateLimit())
	}
	r.authH.RegisterRoutes(pages, limited...)
	r.patientH.RegisterRoutes(pages)
	r.doctorH.RegisterRoutes(pages)
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
