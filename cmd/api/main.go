package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/saturnino-fabrica-de-software/classroll/internal/api"
	"github.com/saturnino-fabrica-de-software/classroll/internal/audit"
	"github.com/saturnino-fabrica-de-software/classroll/internal/auth"
	"github.com/saturnino-fabrica-de-software/classroll/internal/config"
	"github.com/saturnino-fabrica-de-software/classroll/internal/database"
	"github.com/saturnino-fabrica-de-software/classroll/internal/domain"
	"github.com/saturnino-fabrica-de-software/classroll/internal/face"
	"github.com/saturnino-fabrica-de-software/classroll/internal/ratelimit"
	"github.com/saturnino-fabrica-de-software/classroll/internal/repository"
	"github.com/saturnino-fabrica-de-software/classroll/internal/service"
	"github.com/saturnino-fabrica-de-software/classroll/internal/supabase"
	"github.com/saturnino-fabrica-de-software/classroll/internal/vectorindex"
	"github.com/saturnino-fabrica-de-software/classroll/internal/ws"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Environment)
	slog.SetDefault(logger)

	logger.Info("starting Classroll API",
		slog.String("environment", cfg.Environment),
		slog.Int("port", cfg.Port),
		slog.String("provider", cfg.ProviderType),
		slog.String("vector_index", cfg.VectorIndex),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Backing store
	store := supabase.NewClient(supabase.Config{
		URL:        cfg.SupabaseURL,
		ServiceKey: cfg.SupabaseServiceKey,
		Timeout:    cfg.StoreTimeout,
	})
	checks := map[string]database.Pinger{"store": store}

	// Optional Postgres pool for pgvector and shared rate limit counters
	var pool *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		pool, err = database.NewPgxPool(ctx, database.DefaultPoolConfig(cfg.DatabaseURL))
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pool.Close()
		checks["database"] = pool
	}

	// Face recognition collaborators
	embeddings, err := face.NewEmbeddingProvider(cfg)
	if err != nil {
		return fmt.Errorf("failed to create embedding provider: %w", err)
	}

	index, err := newVectorIndex(cfg, pool)
	if err != nil {
		return fmt.Errorf("failed to create vector index: %w", err)
	}

	// Repositories
	users := repository.NewUserRepository(store)
	subjects := repository.NewSubjectRepository(store)
	enrollments := repository.NewEnrollmentRepository(store)
	students := repository.NewStudentRepository(store)
	attendance := repository.NewAttendanceRepository(store)

	// Services
	resolver := service.NewResolver(index, cfg.MinSimilarity(), cfg.FaceQueryTopK, logger)
	faces := service.NewFaceService(embeddings, index, resolver).
		WithStrictRegistration(cfg.StrictFaceRegistration)
	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.JWTIssuer, cfg.AccessTokenTTL)
	auditLogger := audit.NewSlogLogger(logger)
	hub := ws.NewHub()
	guard := service.NewGuard(subjects, enrollments)

	attendanceService := service.NewAttendanceService(service.AttendanceServiceConfig{
		Guard:        guard,
		Recorder:     service.NewRecorder(attendance),
		Faces:        faces,
		Users:        users,
		Attendance:   attendance,
		Enrollments:  enrollments,
		Publisher:    hub,
		Audit:        auditLogger,
		Logger:       logger,
		FacePolicy:   domain.DuplicatePolicy(cfg.AttendanceFacePolicy),
		ManualPolicy: domain.DuplicatePolicy(cfg.AttendanceManualPolicy),
	})

	// Setup router
	router := api.NewRouter(logger, &api.Dependencies{
		Config:     cfg,
		Auth:       service.NewAuthService(users, tokens, faces, auditLogger, logger),
		Subjects:   service.NewSubjectService(guard, subjects, enrollments, users, logger),
		Students:   service.NewStudentService(students, faces, faces, auditLogger, logger),
		Attendance: attendanceService,
		Viewer:     guard,
		Tokens:     tokens,
		Hub:        hub,
		Counter:    newCounter(cfg, pool, logger),
		Checks:     checks,
	})
	router.Setup()

	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		logger.Info("server listening", slog.String("addr", addr))
		if err := router.Listen(addr); err != nil {
			errChan <- err
		}
	}()

	// Wait for shutdown signal or error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}

	logger.Info("shutting down server...")

	done := make(chan error, 1)
	go func() { done <- router.Shutdown() }()

	select {
	case err := <-done:
		if err != nil {
			logger.Error("shutdown error", slog.Any("error", err))
		}
	case <-time.After(10 * time.Second):
		logger.Warn("shutdown timed out")
	}

	logger.Info("server stopped")
	return nil
}

// newVectorIndex keeps a missing pool an untyped nil for the factory
func newVectorIndex(cfg *config.Config, pool *pgxpool.Pool) (vectorindex.Index, error) {
	if pool == nil {
		return face.NewVectorIndex(cfg, nil)
	}
	return face.NewVectorIndex(cfg, pool)
}

// newCounter shares rate limit windows across instances when Postgres is configured
func newCounter(cfg *config.Config, pool *pgxpool.Pool, logger *slog.Logger) ratelimit.Counter {
	if pool != nil {
		return ratelimit.NewPostgresCounter(pool, cfg.RateLimitWindow).WithLogger(logger)
	}
	return ratelimit.NewMemoryCounter(cfg.RateLimitWindow)
}
