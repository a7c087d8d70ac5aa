package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/clinic-booking/internal/config"
	"github.com/jwalitptl/clinic-booking/internal/email"
	"github.com/jwalitptl/clinic-booking/internal/repository"
	"github.com/jwalitptl/clinic-booking/internal/repository/memory"
	"github.com/jwalitptl/clinic-booking/internal/repository/postgres"
	"github.com/jwalitptl/clinic-booking/internal/router"
	"github.com/jwalitptl/clinic-booking/internal/service/auth"
	"github.com/jwalitptl/clinic-booking/internal/service/booking"
	"github.com/jwalitptl/clinic-booking/internal/service/clinic"
	"github.com/jwalitptl/clinic-booking/internal/service/notification"
	"github.com/jwalitptl/clinic-booking/internal/session"
	"github.com/jwalitptl/clinic-booking/pkg/invite"
	"github.com/jwalitptl/clinic-booking/pkg/logger"
	"github.com/jwalitptl/clinic-booking/pkg/messaging"
	memorybroker "github.com/jwalitptl/clinic-booking/pkg/messaging/memory"
	redisbroker "github.com/jwalitptl/clinic-booking/pkg/messaging/redis"
	"github.com/jwalitptl/clinic-booking/pkg/metrics"
	"github.com/jwalitptl/clinic-booking/pkg/security"
	"github.com/jwalitptl/clinic-booking/pkg/tracing"
	"github.com/jwalitptl/clinic-booking/pkg/worker"
)

const clinicCacheTTL = 10 * time.Minute

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	l := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	if err := run(cfg, l); err != nil {
		l.Fatal().Err(err).Msg("server stopped with error")
	}
	l.Info().Msg("server exited properly")
}

func run(cfg *config.Config, l zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New("clinic")

	shutdownTracing, err := tracing.Init(ctx, tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		Endpoint:    cfg.Tracing.Endpoint,
		Insecure:    cfg.Tracing.Insecure,
		SampleRatio: cfg.Tracing.SampleRatio,
	})
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			l.Warn().Err(err).Msg("failed to flush traces")
		}
	}()

	// Initialize storage
	repos, closeDB, err := openRepositories(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer closeDB()

	var redisClient *redis.Client
	if cfg.NeedsRedis() {
		redisClient, err = openRedis(ctx, cfg.Redis.URL)
		if err != nil {
			return err
		}
		defer redisClient.Close()
	}

	var sessionStore session.Store
	if cfg.Session.Store == "redis" {
		sessionStore = session.NewRedisStore(redisClient)
	} else {
		sessionStore = session.NewMemoryStore(time.Minute)
	}

	var broker messaging.Broker
	if cfg.Outbox.Broker == "redis" {
		broker = redisbroker.NewRedisBroker(redisClient, redisbroker.Config{}, logger.Component(l, "broker"))
	} else {
		broker = memorybroker.NewBroker()
	}
	defer broker.Close()

	gate, err := doctorGate(cfg.Registration)
	if err != nil {
		return err
	}

	// Initialize services
	clinicSvc := clinic.NewService(repos.Clinics, repos.Doctors, clinicCacheTTL, logger.Component(l, "clinic"))
	authSvc := auth.NewService(
		repos.Accounts,
		repos.Doctors,
		clinicSvc,
		gate,
		security.NewBcryptHasher(cfg.Registration.BcryptCost),
		m,
		logger.Component(l, "auth"),
	)
	bookingSvc := booking.NewService(repos.Accounts, repos.Doctors, repos.Bookings, m, logger.Component(l, "booking"))

	if _, err := clinicSvc.SeedDefaults(ctx); err != nil {
		return err
	}

	var mailer email.Service
	if cfg.SMTP.Enabled() {
		mailer = email.NewSMTPService(email.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		})
	} else {
		mailer = email.NewLogService(logger.Component(l, "email"))
	}
	notificationSvc := notification.NewService(mailer, broker, logger.Component(l, "notification"))

	outboxProcessor, err := worker.NewOutboxProcessor(repos.Outbox, broker, worker.OutboxProcessorConfig{
		BatchSize:    cfg.Outbox.BatchSize,
		PollInterval: cfg.Outbox.PollInterval,
		MaxRetries:   cfg.Outbox.MaxRetries,
	}, logger.Component(l, "outbox"), m)
	if err != nil {
		return err
	}
	cleanup, err := worker.NewOutboxCleanupWorker(repos.Outbox, cfg.Outbox.CleanupSchedule, cfg.Outbox.Retention, logger.Component(l, "outbox_cleanup"), m)
	if err != nil {
		return err
	}

	// Setup router
	r, err := router.NewRouter(router.Services{
		Auth:     authSvc,
		Clinics:  clinicSvc,
		Bookings: bookingSvc,
		Health:   repos.Health,
		Sessions: session.NewManager(sessionStore, session.Options{
			CookieName: cfg.Session.CookieName,
			TTL:        cfg.Session.TTL,
			Secure:     cfg.Session.Secure,
		}),
		Metrics: m,
	}, router.RouterConfig{
		RateLimitEnabled: cfg.RateLimit.Enabled,
		RateLimit:        rate.Limit(cfg.RateLimit.RequestsPerSecond),
		RateBurst:        cfg.RateLimit.Burst,
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		TrustedProxies:   cfg.Server.TrustedProxies,
		SecureCookies:    cfg.Session.Secure,
		Mode:             cfg.Server.Mode,
	})
	if err != nil {
		return err
	}
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Background workers share the signal context.
	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		outboxProcessor.Start(ctx)
	}()
	go func() {
		defer wg.Done()
		cleanup.Start(ctx)
	}()
	go func() {
		defer wg.Done()
		if err := notificationSvc.Run(ctx); err != nil {
			l.Error().Err(err).Msg("notification consumer failed")
		}
	}()

	serveErr := make(chan error, 1)
	go func() {
		l.Info().Int("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		stop()
		wg.Wait()
		return fmt.Errorf("failed to start server: %w", err)
	}
	l.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	wg.Wait()
	return nil
}

func openRepositories(ctx context.Context, cfg config.DatabaseConfig) (*repository.Repositories, func(), error) {
	if cfg.Driver == "memory" {
		log.Warn().Msg("using in-memory storage; data is lost on restart")
		repos, _ := memory.NewRepositories()
		return repos, func() {}, nil
	}

	db, err := postgres.NewDB(ctx, postgres.Options{
		DSN:             cfg.DSN,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	})
	if err != nil {
		return nil, nil, err
	}
	if err := postgres.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, nil, err
	}
	return postgres.NewRepositories(db), func() { db.Close() }, nil
}

func openRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

func doctorGate(cfg config.RegistrationConfig) (auth.AccessGate, error) {
	if cfg.DoctorGate == "invite" {
		signer, err := invite.NewSigner(cfg.InviteSecret)
		if err != nil {
			return nil, fmt.Errorf("failed to create invite signer: %w", err)
		}
		return auth.NewInviteGate(signer), nil
	}
	return auth.NewSharedCodeGate(cfg.DoctorCode), nil
}
