package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	// DefaultJWTSecret is the development fallback signing secret. It is
	// rejected by Validate outside development mode.
	DefaultJWTSecret = "default_secret_key"

	DefaultTokenTTL = 24 * time.Hour
)

// Storage drivers.
const (
	StoreDriverJSON     = "json"
	StoreDriverPostgres = "postgres"

	BlobDriverLocal = "local"
	BlobDriverMinio = "minio"
	BlobDriverGCS   = "gcs"

	MQDriverNone     = "none"
	MQDriverRabbitMQ = "rabbitmq"
	MQDriverPubSub   = "pubsub"
)

type Config struct {
	Env         string
	ServerPort  int
	FrontendURL string
	Auth        AuthConfig
	GitHub      GitHubConfig
	RateLimit   RateLimitConfig
	Store       StoreConfig
	Database    DatabaseConfig
	Minio       MinioConfig
	GCS         GCSConfig
	MQ          MQConfig
	RabbitMQ    RabbitMQConfig
	PubSub      PubSubConfig
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

type GitHubConfig struct {
	ClientID     string
	ClientSecret string
	CallbackURL  string
}

type RateLimitConfig struct {
	// AuthPerMinute is the per-IP request budget on /api/auth routes.
	// Zero disables limiting.
	AuthPerMinute int
}

type StoreConfig struct {
	Driver     string
	BlobDriver string
	DataDir    string
	// Prefix scopes document keys inside the blob bucket.
	Prefix string
}

type DatabaseConfig struct {
	Host          string
	Port          int
	User          string
	Password      string
	DBName        string
	UseSSL        bool
	MaxOpenConns  int
	MigrationsDir string
}

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type GCSConfig struct {
	Bucket          string
	ProjectID       string
	CredentialsFile string
}

type MQConfig struct {
	Driver  string
	Channel string
}

type RabbitMQConfig struct {
	URL           string
	Durable       bool
	Queue         string
	PrefetchCount int
}

type PubSubConfig struct {
	ProjectID          string
	CredentialsFile    string
	SubscriptionSuffix string
}

func LoadConfig() Config {
	if IsDevelopment(os.Getenv("ENV")) {
		godotenv.Load()
	}

	return Config{
		Env:         getEnv("ENV", "development"),
		ServerPort:  getEnvInt("PORT", 3001),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", DefaultJWTSecret),
			TokenTTL:  getEnvDuration("JWT_EXPIRES_IN", DefaultTokenTTL),
		},
		GitHub: GitHubConfig{
			ClientID:     getEnv("GITHUB_CLIENT_ID", ""),
			ClientSecret: getEnv("GITHUB_CLIENT_SECRET", ""),
			CallbackURL:  getEnv("GITHUB_CALLBACK_URL", "http://localhost:5173/auth/github/callback"),
		},
		RateLimit: RateLimitConfig{
			AuthPerMinute: getEnvInt("RATE_LIMIT_AUTH_PER_MINUTE", 30),
		},
		Store: StoreConfig{
			Driver:     getEnv("STORE_DRIVER", StoreDriverJSON),
			BlobDriver: getEnv("BLOB_DRIVER", BlobDriverLocal),
			DataDir:    getEnv("DATA_DIR", "./data"),
			Prefix:     getEnv("STORAGE_PREFIX", ""),
		},
		Database: DatabaseConfig{
			Host:          getEnv("DB_HOST", "localhost"),
			Port:          getEnvInt("DB_PORT", 5432),
			User:          getEnv("DB_USER", "viajes"),
			Password:      getEnv("DB_PASSWORD", "password"),
			DBName:        getEnv("DB_NAME", "viajes_db"),
			UseSSL:        getEnvBool("DB_USE_SSL", false),
			MaxOpenConns:  getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MigrationsDir: getEnv("DB_MIGRATIONS_DIR", "internal/db/migrations"),
		},
		Minio: MinioConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", "viajes-data"),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		GCS: GCSConfig{
			Bucket:          getEnv("GCS_BUCKET", ""),
			ProjectID:       getEnv("GCS_PROJECT_ID", ""),
			CredentialsFile: getEnv("GCS_CREDENTIALS_FILE", ""),
		},
		MQ: MQConfig{
			Driver:  getEnv("MQ_DRIVER", MQDriverNone),
			Channel: getEnv("MQ_CHANNEL", "travel-requests"),
		},
		RabbitMQ: RabbitMQConfig{
			URL:           getEnv("RABBITMQ_URL", ""),
			Durable:       getEnvBool("RABBITMQ_DURABLE", true),
			Queue:         getEnv("RABBITMQ_QUEUE", ""),
			PrefetchCount: getEnvInt("RABBITMQ_PREFETCH_COUNT", 10),
		},
		PubSub: PubSubConfig{
			ProjectID:          getEnv("PUBSUB_PROJECT_ID", ""),
			CredentialsFile:    getEnv("PUBSUB_CREDENTIALS_FILE", ""),
			SubscriptionSuffix: getEnv("PUBSUB_SUBSCRIPTION_SUFFIX", "-sub"),
		},
	}
}

// IsDevelopment reports whether env names a development or test deployment.
func IsDevelopment(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "", "dev", "development", "test":
		return true
	}
	return false
}

// Development reports whether the configuration runs in development mode.
func (c Config) Development() bool {
	return IsDevelopment(c.Env)
}

// InsecureDefaults lists the development fallbacks still in effect.
func (c Config) InsecureDefaults() []string {
	var defaults []string
	if c.Auth.JWTSecret == DefaultJWTSecret {
		defaults = append(defaults, "JWT_SECRET")
	}
	return defaults
}

// Validate checks required settings. Outside development mode the insecure
// fallbacks are rejected instead of silently applied.
func (c Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		errs = append(errs, errors.New("JWT_SECRET must not be empty"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("JWT_EXPIRES_IN must be a positive duration"))
	}
	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d is out of range", c.ServerPort))
	}

	switch c.Store.Driver {
	case StoreDriverJSON, StoreDriverPostgres:
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver))
	}
	switch c.Store.BlobDriver {
	case BlobDriverLocal, BlobDriverMinio, BlobDriverGCS:
	default:
		errs = append(errs, fmt.Errorf("unknown BLOB_DRIVER %q", c.Store.BlobDriver))
	}
	switch c.MQ.Driver {
	case MQDriverNone, MQDriverRabbitMQ, MQDriverPubSub:
	default:
		errs = append(errs, fmt.Errorf("unknown MQ_DRIVER %q", c.MQ.Driver))
	}

	if !c.Development() {
		if c.Auth.JWTSecret == DefaultJWTSecret {
			errs = append(errs, errors.New("JWT_SECRET must be set outside development"))
		}
		if c.GitHub.ClientID != "" && c.GitHub.ClientSecret == "" {
			errs = append(errs, errors.New("GITHUB_CLIENT_SECRET is required when GITHUB_CLIENT_ID is set"))
		}
	}

	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(key); exists {
		var value int
		fmt.Sscanf(valueStr, "%d", &value)
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if valueStr, exists := os.LookupEnv(key); exists {
		value, err := strconv.ParseBool(strings.TrimSpace(valueStr))
		if err != nil {
			return defaultValue
		}
		return value
	}
	return defaultValue
}

// getEnvDuration returns zero for an unparsable value so Validate reports it.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if valueStr, exists := os.LookupEnv(key); exists {
		value, err := time.ParseDuration(strings.TrimSpace(valueStr))
		if err != nil {
			return 0
		}
		return value
	}
	return defaultValue
}
