package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/vamsi-krishn/EHR-system/internal/config"
	"github.com/vamsi-krishn/EHR-system/internal/email"
	"github.com/vamsi-krishn/EHR-system/internal/handler"
	appointmentHandler "github.com/vamsi-krishn/EHR-system/internal/handler/appointment"
	authHandler "github.com/vamsi-krishn/EHR-system/internal/handler/auth"
	doctorHandler "github.com/vamsi-krishn/EHR-system/internal/handler/doctor"
	patientHandler "github.com/vamsi-krishn/EHR-system/internal/handler/patient"
	permissionHandler "github.com/vamsi-krishn/EHR-system/internal/handler/permission"
	recordHandler "github.com/vamsi-krishn/EHR-system/internal/handler/record"
	"github.com/vamsi-krishn/EHR-system/internal/middleware"
	"github.com/vamsi-krishn/EHR-system/internal/repository/memory"
	"github.com/vamsi-krishn/EHR-system/internal/repository/snapshot"
	"github.com/vamsi-krishn/EHR-system/internal/router"
	"github.com/vamsi-krishn/EHR-system/internal/seed"
	"github.com/vamsi-krishn/EHR-system/internal/service"
	appointmentService "github.com/vamsi-krishn/EHR-system/internal/service/appointment"
	identityService "github.com/vamsi-krishn/EHR-system/internal/service/identity"
	notificationService "github.com/vamsi-krishn/EHR-system/internal/service/notification"
	permissionService "github.com/vamsi-krishn/EHR-system/internal/service/permission"
	recordService "github.com/vamsi-krishn/EHR-system/internal/service/record"
	internalWorker "github.com/vamsi-krishn/EHR-system/internal/worker"
	"github.com/vamsi-krishn/EHR-system/pkg/auth"
	"github.com/vamsi-krishn/EHR-system/pkg/latency"
	"github.com/vamsi-krishn/EHR-system/pkg/logger"
	"github.com/vamsi-krishn/EHR-system/pkg/messaging"
	"github.com/vamsi-krishn/EHR-system/pkg/messaging/redis"
	"github.com/vamsi-krishn/EHR-system/pkg/metrics"
	"github.com/vamsi-krishn/EHR-system/pkg/security"
	"github.com/vamsi-krishn/EHR-system/pkg/worker"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(&logger.Config{
		Level:      logger.ParseLevel(cfg.Log.Level),
		TimeFormat: time.RFC3339,
		Output:     os.Stdout,
		Console:    cfg.Log.Console,
	})
	logger.SetGlobal(appLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	registry := metrics.NewRegistry()
	appMetrics := metrics.New("ehr", registry)

	// Ledger state: restore the last snapshot, or seed an empty ledger
	// nothing drains the outbox when events are off, so record none
	db := memory.NewDB(memory.WithEvents(cfg.Events.Enabled))

	store, err := openSnapshotStore(ctx, cfg.Persistence)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open snapshot store")
	}
	var snapshotWorker *worker.SnapshotWorker
	restored := false
	if store != nil {
		defer store.Close()
		snapshotWorker = worker.NewSnapshotWorker(db, store, cfg.Persistence.Interval, appLogger, appMetrics)
		if restored, err = snapshotWorker.Restore(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to restore ledger")
		}
	}
	if !restored && cfg.Seed.Enabled {
		if err := seed.Load(db); err != nil {
			log.Fatal().Err(err).Msg("failed to seed ledger")
		}
		log.Info().Msg("ledger seeded with fixtures")
	}

	// Initialize repositories
	identityRepo := memory.NewIdentityRepository(db)
	recordRepo := memory.NewMedicalRecordRepository(db)
	appointmentRepo := memory.NewAppointmentRepository(db)
	permissionRepo := memory.NewPermissionRepository(db)
	outboxRepo := memory.NewOutboxRepository(db)

	// Initialize services
	var sim latency.Simulator = latency.None()
	if cfg.Latency.Enabled {
		sim = latency.NewFixed(cfg.Latency.Overrides, cfg.Latency.Scale)
	}
	runner := service.NewRunner(sim, appMetrics)

	policy, err := identityService.ParseDuplicatePolicy(cfg.Identity.DuplicatePolicy)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid identity configuration")
	}
	identitySvc := identityService.NewService(identityRepo, recordRepo, appointmentRepo, runner, policy, appLogger)
	recordSvc := recordService.NewService(recordRepo, identitySvc, runner, appLogger)
	appointmentSvc := appointmentService.NewService(appointmentRepo, identitySvc, runner, appLogger)
	permissionSvc := permissionService.NewService(permissionRepo, identitySvc, runner, appLogger)

	jwtSvc, err := auth.NewJWTService(auth.Config{
		Secret: cfg.JWT.Secret,
		Issuer: cfg.JWT.Issuer,
		TTL:    cfg.JWT.TTL,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize sessions")
	}

	// Background workers
	var wg sync.WaitGroup
	runWorker := func(fn func(context.Context)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn(ctx)
		}()
	}

	var broker messaging.Broker
	if cfg.Events.Enabled {
		broker, err = newBroker(ctx, cfg, appLogger)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create message broker")
		}
		defer broker.Close()

		outboxProcessor, err := worker.NewOutboxProcessor(outboxRepo, broker, cfg.Events.ToWorkerConfig(), appLogger, appMetrics)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid outbox configuration")
		}
		runWorker(outboxProcessor.Start)

		cleanup := internalWorker.NewOutboxCleanupWorker(outboxRepo, cfg.Events.Retention, cfg.Events.CleanupInterval, appLogger)
		runWorker(cleanup.Start)

		if cfg.Notifications.Enabled {
			emailSvc, err := newEmailService(cfg, appLogger)
			if err != nil {
				log.Fatal().Err(err).Msg("failed to initialize email")
			}
			notifier := notificationService.NewService(broker, identitySvc, emailSvc, appLogger)
			runWorker(func(ctx context.Context) {
				if err := notifier.Start(ctx); err != nil {
					appLogger.Error(err, "notification subscriber failed")
				}
			})
		}
	}

	if snapshotWorker != nil {
		runWorker(snapshotWorker.Start)
	}

	// Initialize handlers
	access := handler.NewAccess(permissionSvc, cfg.Authorization.EnforceRecordAccess)
	h := handler.NewHandler(registry, nil)

	var rateLimit rate.Limit
	if cfg.RateLimit.Enabled {
		rateLimit = rate.Limit(cfg.RateLimit.RequestsPerSecond)
	}

	// Setup router
	r := router.NewRouter(
		middleware.NewAuthMiddleware(jwtSvc),
		authHandler.NewHandler(identitySvc, jwtSvc),
		h,
		[]router.Handler{
			patientHandler.NewHandler(identitySvc, recordSvc, permissionSvc, access),
			doctorHandler.NewHandler(identitySvc),
			recordHandler.NewHandler(recordSvc, identitySvc, access),
			appointmentHandler.NewHandler(appointmentSvc),
			permissionHandler.NewHandler(permissionSvc),
		},
		router.RouterConfig{
			Mode:      ginMode(cfg.Server.Mode),
			RateLimit: rateLimit,
			RateBurst: cfg.RateLimit.Burst,
			CORSConfig: middleware.CORSConfig{
				AllowOrigins:     cfg.CORS.AllowedOrigins,
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           cfg.CORS.MaxAge,
			},
			Timeout:       cfg.Server.RequestTimeout,
			MaxBodySize:   cfg.Server.MaxBodyBytes,
			PHIAudit:      cfg.Server.PHIAudit,
			MetricsPrefix: "ehr_http",
			Registry:      registry,
		},
	)
	r.Setup()

	// Create server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	// stop workers; the snapshot worker saves once more on the way out
	cancel()
	wg.Wait()

	log.Info().Msg("server exited properly")
}

func openSnapshotStore(ctx context.Context, cfg config.PersistenceConfig) (snapshot.Store, error) {
	var opts []snapshot.Option
	if cfg.EncryptionKey != "" {
		key, err := security.ParseKey(cfg.EncryptionKey)
		if err != nil {
			return nil, err
		}
		enc, err := security.NewAESEncryptor(key)
		if err != nil {
			return nil, err
		}
		opts = append(opts, snapshot.WithEncryptor(enc))
	}

	switch strings.ToLower(cfg.Driver) {
	case "", "none":
		return nil, nil
	case "postgres":
		return snapshot.NewSQLStore(ctx, "postgres", cfg.DSN, opts...)
	case "sqlite", "sqlite3":
		return snapshot.NewSQLStore(ctx, "sqlite3", cfg.DSN, opts...)
	case "leveldb":
		return snapshot.NewLevelStore(cfg.Path, opts...)
	}
	return nil, fmt.Errorf("unknown persistence driver %q", cfg.Driver)
}

func newBroker(ctx context.Context, cfg *config.Config, appLogger *logger.Logger) (messaging.Broker, error) {
	if cfg.Events.Broker == "redis" {
		return redis.NewRedisBroker(ctx, cfg.Redis.ToBrokerConfig(), appLogger.ZL)
	}
	return messaging.NewLocalBroker(appLogger.ZL), nil
}

func newEmailService(cfg *config.Config, appLogger *logger.Logger) (email.Service, error) {
	if cfg.Notifications.Transport == "smtp" {
		return email.NewSMTPService(cfg.SMTP.ToEmailConfig())
	}
	return email.NewLogService(appLogger), nil
}

func ginMode(mode string) string {
	switch mode {
	case gin.DebugMode, gin.TestMode:
		return mode
	}
	return gin.ReleaseMode
}
