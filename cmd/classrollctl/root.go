package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/saturnino-fabrica-de-software/classroll/internal/audit"
	"github.com/saturnino-fabrica-de-software/classroll/internal/config"
	"github.com/saturnino-fabrica-de-software/classroll/internal/database"
	"github.com/saturnino-fabrica-de-software/classroll/internal/domain"
	"github.com/saturnino-fabrica-de-software/classroll/internal/face"
	"github.com/saturnino-fabrica-de-software/classroll/internal/repository"
	"github.com/saturnino-fabrica-de-software/classroll/internal/service"
	"github.com/saturnino-fabrica-de-software/classroll/internal/supabase"
	"github.com/saturnino-fabrica-de-software/classroll/internal/vectorindex"
)

// operator is the identity recorded in audit events for CLI actions
var operator = domain.Caller{UserID: "classrollctl", Type: domain.UserTypeTeacher}

var rootCmd = &cobra.Command{
	Use:   "classrollctl",
	Short: "Operator tool for the Classroll attendance backend",
	Long: `classrollctl talks to the same store, embedding provider and vector index
as the API server. It reads the same environment variables (or .env file).

Use it to bulk-enroll registry students from a folder of photos, to check
what the recognizer sees in an image, and to mint access tokens for testing.

Commands that touch embeddings need a persistent index (VECTOR_INDEX=pinecone
or pgvector); the in-process memory index would be discarded on exit.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}

// app holds the collaborators the commands share
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	students *service.StudentService
	faces    *service.FaceService
	close    func()
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := requirePersistentIndex(cfg); err != nil {
		return nil, err
	}

	// Keep the terminal for command output
	logger := config.NewLogger("production").With("component", "classrollctl")

	store := supabase.NewClient(supabase.Config{
		URL:        cfg.SupabaseURL,
		ServiceKey: cfg.SupabaseServiceKey,
		Timeout:    cfg.StoreTimeout,
	})

	embeddings, err := face.NewEmbeddingProvider(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding provider: %w", err)
	}

	closeFn := func() {}
	var index vectorindex.Index
	if cfg.DatabaseURL != "" {
		pool, err := database.NewPgxPool(ctx, database.DefaultPoolConfig(cfg.DatabaseURL))
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		closeFn = pool.Close
		index, err = face.NewVectorIndex(cfg, pool)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to create vector index: %w", err)
		}
	} else {
		index, err = face.NewVectorIndex(cfg, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create vector index: %w", err)
		}
	}

	resolver := service.NewResolver(index, cfg.MinSimilarity(), cfg.FaceQueryTopK, logger)
	faces := service.NewFaceService(embeddings, index, resolver).
		WithStrictRegistration(cfg.StrictFaceRegistration)

	students := service.NewStudentService(
		repository.NewStudentRepository(store),
		faces,
		faces,
		audit.NewSlogLogger(logger),
		logger,
	)

	return &app{
		cfg:      cfg,
		logger:   logger,
		students: students,
		faces:    faces,
		close:    closeFn,
	}, nil
}

// requirePersistentIndex rejects index types whose contents die with the process
func requirePersistentIndex(cfg *config.Config) error {
	if face.IndexType(cfg.VectorIndex) == face.IndexTypeMemory {
		return fmt.Errorf("VECTOR_INDEX=%s keeps embeddings in this process only; use pinecone or pgvector", cfg.VectorIndex)
	}
	return nil
}
