package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/LOSS98/tunis-gp/internal/api"
	"github.com/LOSS98/tunis-gp/internal/api/handler"
	"github.com/LOSS98/tunis-gp/internal/api/middleware"
	"github.com/LOSS98/tunis-gp/internal/app/service"
	"github.com/LOSS98/tunis-gp/internal/app/worker"
	"github.com/LOSS98/tunis-gp/internal/common/security"
	"github.com/LOSS98/tunis-gp/internal/domain/repository"
	"github.com/LOSS98/tunis-gp/internal/platform/config"
	"github.com/LOSS98/tunis-gp/internal/platform/database"
	"github.com/LOSS98/tunis-gp/internal/platform/kv"
	"github.com/LOSS98/tunis-gp/internal/platform/logger"

	"go.uber.org/zap"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	// 2. Initialize Logger
	log, err := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Output: cfg.LogOutput,
	}, logger.DefaultServiceName)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	zap.ReplaceGlobals(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Initialize Database
	db, err := database.Connect(ctx, cfg)
	if err != nil {
		log.Fatal("database unavailable", zap.Error(err))
	}
	defer database.Close(db)

	if cfg.MigrateOnStart {
		if err := database.Migrate(db); err != nil {
			log.Fatal("migrations failed", zap.Error(err))
		}
	}

	// 4. Initialize Redis (optional)
	rdb, err := kv.ConnectRedis(ctx, cfg)
	if err != nil {
		log.Fatal("redis unavailable", zap.Error(err))
	}
	defer kv.CloseRedis(rdb)

	var limiter middleware.Limiter = kv.NewMemoryLimiter()
	var locker worker.Locker
	healthChecks := map[string]handler.Check{
		"database": db.PingContext,
	}
	if rdb != nil {
		limiter = kv.NewRedisLimiter(rdb, "tunis_gp:ratelimit")
		locker = kv.NewRedisLocker(rdb, cfg.SweepLockKey, cfg.SweepLockTTL)
		healthChecks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	loc, err := time.LoadLocation(cfg.EventTimezone)
	if err != nil {
		log.Fatal("invalid event timezone", zap.Error(err))
	}
	tokens := security.NewTokenIssuer(cfg.JWTKey, cfg.JWTExp)

	// 5. Initialize Repositories
	participantRepo := repository.NewPgParticipantRepository(db)
	roleRepo := repository.NewPgRoleRepository(db)
	identificationRepo := repository.NewPgIdentificationRepository(db)
	invitationRepo := repository.NewPgInvitationRepository(db)
	resetRepo := repository.NewPgPasswordResetRepository(db)
	eventRepo := repository.NewPgEventRepository(db)
	participationRepo := repository.NewPgParticipationRepository(db)
	waterRepo := repository.NewPgWaterRepository(db)

	// 6. Initialize Services
	authService := service.NewAuthService(participantRepo, roleRepo, invitationRepo, resetRepo, tokens,
		service.LogNotifier{Log: log}, service.AuthConfig{
			PasswordMinLength: cfg.PasswordMinLength,
			ResetTTL:          cfg.PasswordResetTTL,
			ResetBaseURL:      cfg.PasswordResetBaseURL,
		})
	identificationService := service.NewIdentificationService(identificationRepo, participantRepo, eventRepo,
		service.IdentificationConfig{
			TTL:         cfg.QRTokenTTL,
			ScanBaseURL: cfg.QRScanBaseURL,
			Location:    loc,
		})
	services := api.Services{
		Auth:           authService,
		Identification: identificationService,
		Participants:   service.NewParticipantService(participantRepo, roleRepo, participationRepo, eventRepo, loc),
		Invitations:    service.NewInvitationService(invitationRepo, participantRepo, roleRepo),
		Events:         service.NewEventService(eventRepo, participationRepo, loc),
		Participations: service.NewParticipationService(participationRepo, participantRepo, eventRepo, loc),
		Water:          service.NewWaterService(waterRepo, participantRepo),
	}

	if cfg.BootstrapAdminEmail != "" {
		if err := authService.EnsureBootstrapAdmin(ctx, cfg.BootstrapAdminEmail, cfg.BootstrapAdminPassword); err != nil {
			log.Fatal("bootstrap admin failed", zap.Error(err))
		}
	}

	// 7. Initialize Sweep Worker (as a goroutine)
	workerCtx, workerCancel := context.WithCancel(ctx)
	defer workerCancel()
	sweepWorker := worker.NewSweepWorker(identificationService, locker, cfg.SweepInterval)
	go sweepWorker.Start(workerCtx)

	// 8. Initialize Router & HTTP Server
	router := api.NewRouter(services, api.Options{
		Tokens:         tokens,
		Logger:         log,
		Limiter:        limiter,
		LoginRateLimit: cfg.LoginRateLimit,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		HealthChecks:   healthChecks,
	})

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 70 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 9. Graceful Shutdown
	go func() {
		log.Info("server starting", zap.String("port", cfg.APIPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("could not listen", zap.String("port", cfg.APIPort), zap.Error(err))
		}
	}()

	<-ctx.Done()

	log.Info("shutting down server")
	workerCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown failed", zap.Error(err))
		return
	}
	log.Info("server and worker stopped gracefully")
}
