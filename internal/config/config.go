package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// Server
	Port           int           `envconfig:"PORT" default:"3000"`
	Environment    string        `envconfig:"ENV" default:"development"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"30s"`
	CORSOrigins    string        `envconfig:"CORS_ORIGINS" default:"*"`

	// Backing store
	SupabaseURL        string        `envconfig:"SUPABASE_URL" required:"true"`
	SupabaseServiceKey string        `envconfig:"SUPABASE_SERVICE_KEY" required:"true"`
	StoreTimeout       time.Duration `envconfig:"STORE_TIMEOUT" default:"10s"`

	// Security
	JWTSecret      string        `envconfig:"JWT_SECRET" required:"true"`
	JWTIssuer      string        `envconfig:"JWT_ISSUER" default:"classroll-api"`
	AccessTokenTTL time.Duration `envconfig:"ACCESS_TOKEN_TTL" default:"30m"`

	// Provider
	ProviderType             string `envconfig:"PROVIDER_TYPE" default:"deepface"`
	DeepFaceURL              string `envconfig:"DEEPFACE_URL" default:"http://localhost:5000"`
	DeepFaceModel            string `envconfig:"DEEPFACE_MODEL" default:"Facenet512"`
	DeepFaceDetector         string `envconfig:"DEEPFACE_DETECTOR" default:"opencv"`
	DeepFaceFallbackDetector string `envconfig:"DEEPFACE_FALLBACK_DETECTOR" default:"retinaface"`
	ProviderRetryCount       int    `envconfig:"PROVIDER_RETRY_COUNT" default:"0"`

	// Vector index
	VectorIndex       string `envconfig:"VECTOR_INDEX" default:"pinecone"`
	PineconeHost      string `envconfig:"PINECONE_HOST"`
	PineconeAPIKey    string `envconfig:"PINECONE_API_KEY"`
	PineconeNamespace string `envconfig:"PINECONE_NAMESPACE"`
	DatabaseURL       string `envconfig:"DATABASE_URL"`

	// Recognition
	FaceThreshold          float64 `envconfig:"FACE_THRESHOLD" default:"0.4"`
	FaceQueryTopK          int     `envconfig:"FACE_QUERY_TOP_K" default:"5"`
	StrictFaceRegistration bool    `envconfig:"STRICT_FACE_REGISTRATION" default:"false"`

	// Attendance
	AttendanceFacePolicy   string `envconfig:"ATTENDANCE_FACE_POLICY" default:"append"`
	AttendanceManualPolicy string `envconfig:"ATTENDANCE_MANUAL_POLICY" default:"noop"`

	// Rate limiting on recognition endpoints
	RateLimitMax    int           `envconfig:"RATE_LIMIT_MAX" default:"60"`
	RateLimitWindow time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`
}

// DatabaseConfig is the subset of settings migrations need
type DatabaseConfig struct {
	DatabaseURL  string `envconfig:"DATABASE_URL" required:"true"`
	DatabaseName string `envconfig:"DATABASE_NAME" default:"classroll"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

// LoadDatabase reads only the database settings, for tools that do not serve traffic.
func LoadDatabase() (*DatabaseConfig, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	var cfg DatabaseConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load database config: %w", err)
	}
	return &cfg, nil
}

func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

func (c *Config) Validate() error {
	if c.FaceThreshold < 0 || c.FaceThreshold > 1 {
		return fmt.Errorf("FACE_THRESHOLD must be within [0,1], got %v", c.FaceThreshold)
	}
	if c.FaceQueryTopK < 1 {
		return fmt.Errorf("FACE_QUERY_TOP_K must be at least 1, got %d", c.FaceQueryTopK)
	}
	if c.ProviderRetryCount < 0 {
		return fmt.Errorf("PROVIDER_RETRY_COUNT must not be negative")
	}

	switch c.ProviderType {
	case "deepface":
		if c.DeepFaceURL == "" {
			return errors.New("DEEPFACE_URL is required for the deepface provider")
		}
	case "mock":
	default:
		return fmt.Errorf("unknown PROVIDER_TYPE %q", c.ProviderType)
	}

	switch c.VectorIndex {
	case "pinecone":
		if c.PineconeHost == "" || c.PineconeAPIKey == "" {
			return errors.New("PINECONE_HOST and PINECONE_API_KEY are required for the pinecone index")
		}
	case "pgvector":
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the pgvector index")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown VECTOR_INDEX %q", c.VectorIndex)
	}

	for name, policy := range map[string]string{
		"ATTENDANCE_FACE_POLICY":   c.AttendanceFacePolicy,
		"ATTENDANCE_MANUAL_POLICY": c.AttendanceManualPolicy,
	} {
		if policy != "append" && policy != "noop" {
			return fmt.Errorf("%s must be append or noop, got %q", name, policy)
		}
	}

	return nil
}

// MinSimilarity is the lowest similarity score accepted as a match.
func (c *Config) MinSimilarity() float64 {
	return 1 - c.FaceThreshold
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
