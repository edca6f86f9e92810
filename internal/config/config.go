package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Prefix de todas las variables de entorno (GECKOHUB_HTTP_ADDR, GECKOHUB_LOG_LEVEL, ...).
const Prefix = "GECKOHUB"

type Config struct {
	HTTP     HTTPConfig     `envconfig:"HTTP"`
	Log      LogConfig      `envconfig:"LOG"`
	Postgres PostgresConfig `envconfig:"POSTGRES"`
	Auth     AuthConfig     `envconfig:"AUTH"`
	Blob     BlobConfig     `envconfig:"BLOB"`
}

type HTTPConfig struct {
	Addr         string        `envconfig:"ADDR" default:":8080"`
	ReadTimeout  time.Duration `envconfig:"READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" default:"10s"`
	IdleTimeout  time.Duration `envconfig:"IDLE_TIMEOUT" default:"60s"`
	CORSOrigins  []string      `envconfig:"CORS_ORIGINS" default:"http://localhost:3000"`
}

type LogConfig struct {
	Level  string `envconfig:"LEVEL" default:"info"`
	Format string `envconfig:"FORMAT" default:"text"`
	App    string `envconfig:"APP" default:"geckohub"`
}

// PostgresConfig: DSN vacío => repos in-memory (modo dev).
type PostgresConfig struct {
	DSN              string        `envconfig:"DSN"`
	MaxOpenConns     int           `envconfig:"MAX_OPEN_CONNS" default:"10"`
	StatementTimeout time.Duration `envconfig:"STATEMENT_TIMEOUT" default:"30s"`
	Migrate          bool          `envconfig:"MIGRATE" default:"true"`
}

type AuthConfig struct {
	Secret      string        `envconfig:"SECRET"`
	Issuer      string        `envconfig:"ISSUER" default:"geckohub"`
	AccessTTL   time.Duration `envconfig:"ACCESS_TTL" default:"1h"`
	RefreshTTL  time.Duration `envconfig:"REFRESH_TTL" default:"168h"`
	DevMode     bool          `envconfig:"DEV_MODE" default:"false"`
	AdminEmails []string      `envconfig:"ADMIN_EMAILS"`
}

type BlobConfig struct {
	Driver      string `envconfig:"DRIVER" default:"local"`
	LocalDir    string `envconfig:"LOCAL_DIR" default:"media"`
	PublicURL   string `envconfig:"PUBLIC_URL" default:"/media"`
	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY"`
	S3SecretKey string `envconfig:"S3_SECRET_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"geckohub"`
	S3UseSSL    bool   `envconfig:"S3_USE_SSL" default:"false"`
	S3PublicURL string `envconfig:"S3_PUBLIC_URL"`
	MaxUploadMB int64  `envconfig:"MAX_UPLOAD_MB" default:"10"`
}

// Load lee un .env opcional (envFile vacío => ".env") y luego el entorno.
func Load(envFile string) (*Config, error) {
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load env file %s: %w", envFile, err)
	}

	cfg := &Config{}
	if err := envconfig.Process(Prefix, cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if strings.TrimSpace(c.HTTP.Addr) == "" {
		return errors.New("GECKOHUB_HTTP_ADDR must not be empty")
	}
	if !c.Auth.DevMode && strings.TrimSpace(c.Auth.Secret) == "" {
		return errors.New("GECKOHUB_AUTH_SECRET must be provided unless GECKOHUB_AUTH_DEV_MODE=true")
	}
	if c.Auth.AccessTTL <= 0 || c.Auth.RefreshTTL <= 0 {
		return errors.New("token TTLs must be positive")
	}

	switch c.Blob.Driver {
	case "local":
		if strings.TrimSpace(c.Blob.LocalDir) == "" {
			return errors.New("GECKOHUB_BLOB_LOCAL_DIR must be provided for the local driver")
		}
	case "s3":
		if c.Blob.S3Endpoint == "" || c.Blob.S3AccessKey == "" || c.Blob.S3SecretKey == "" {
			return errors.New("GECKOHUB_BLOB_S3_ENDPOINT, _S3_ACCESS_KEY and _S3_SECRET_KEY must be provided for the s3 driver")
		}
	default:
		return fmt.Errorf("unsupported blob driver %q", c.Blob.Driver)
	}

	if c.Blob.MaxUploadMB <= 0 {
		c.Blob.MaxUploadMB = 10
	}
	return nil
}

// IsAdminEmail indica si el email fue configurado como administrador.
func (a AuthConfig) IsAdminEmail(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, e := range a.AdminEmails {
		if strings.ToLower(strings.TrimSpace(e)) == email && email != "" {
			return true
		}
	}
	return false
}
