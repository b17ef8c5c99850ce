package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Storage  StorageConfig
	OCR      OCRConfig
	Order    OrderConfig
	GigaChat GigaChatConfig
	Session  SessionConfig
	Logger   LoggerConfig
	Sentry   SentryConfig
}

type LoggerConfig struct {
	Level string `envconfig:"LOG_LEVEL" default:"info"`
}

type SentryConfig struct {
	DSN         string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"APP_ENV" default:"development"`
	Release     string `envconfig:"APP_RELEASE"`
}

type ServerConfig struct {
	Port         string        `envconfig:"SERVER_PORT" default:"8080"`
	ReadTimeout  time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"30s"`
	WriteTimeout time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"60s"`
	// BodyLimit must leave room for the multipart envelope around an upload.
	BodyLimit int `envconfig:"SERVER_BODY_LIMIT" default:"12582912"`
}

type DatabaseConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" default:"postgres"`
	Password string `envconfig:"DB_PASSWORD" default:"postgres"`
	DBName   string `envconfig:"DB_NAME" default:"freight_insure"`
	SSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	MaxConns int32  `envconfig:"DB_MAX_CONNS" default:"10"`
}

// StorageConfig selects where uploaded documents are kept. Driver is
// "local" or "s3"; an S3 endpoint switches to path-style addressing for
// minIO and compatible stores.
type StorageConfig struct {
	Driver        string        `envconfig:"STORAGE_DRIVER" default:"local"`
	LocalDir      string        `envconfig:"STORAGE_LOCAL_DIR" default:"uploads"`
	PublicBaseURL string        `envconfig:"STORAGE_PUBLIC_BASE_URL" default:"http://localhost:8080/uploads"`
	S3Bucket      string        `envconfig:"AWS_S3_BUCKET"`
	S3Region      string        `envconfig:"AWS_REGION" default:"us-east-1"`
	S3Endpoint    string        `envconfig:"AWS_S3_ENDPOINT"`
	S3AccessKey   string        `envconfig:"AWS_ACCESS_KEY_ID"`
	S3SecretKey   string        `envconfig:"AWS_SECRET_ACCESS_KEY"`
	S3DisableSSL  bool          `envconfig:"AWS_S3_DISABLE_SSL" default:"false"`
	URLLifetime   time.Duration `envconfig:"AWS_S3_URL_LIFETIME" default:"1h"`
	MaxFileSize   int64         `envconfig:"UPLOAD_MAX_FILE_SIZE" default:"10485760"`
}

type OCRConfig struct {
	Provider string        `envconfig:"OCR_PROVIDER" default:"remote"`
	BaseURL  string        `envconfig:"OCR_BASE_URL" default:"http://localhost:9000"`
	Timeout  time.Duration `envconfig:"OCR_TIMEOUT" default:"60s"`
}

type OrderConfig struct {
	BaseURL string        `envconfig:"ORDER_BASE_URL" default:"http://localhost:9000"`
	Timeout time.Duration `envconfig:"ORDER_TIMEOUT" default:"30s"`
	// ServiceToken is sent when the inbound request carried no operator token.
	ServiceToken string `envconfig:"ORDER_SERVICE_TOKEN"`
}

type GigaChatConfig struct {
	APIKey             string `envconfig:"GIGACHAT_API_KEY"`
	Scope              string `envconfig:"GIGACHAT_SCOPE" default:"GIGACHAT_API_PERS"`
	Model              string `envconfig:"GIGACHAT_MODEL" default:"GigaChat"`
	InsecureSkipVerify bool   `envconfig:"GIGACHAT_INSECURE_SKIP_VERIFY" default:"true"`
}

type SessionConfig struct {
	TTL           time.Duration `envconfig:"SESSION_TTL" default:"2h"`
	SweepInterval time.Duration `envconfig:"SESSION_SWEEP_INTERVAL" default:"5m"`
}

func Load() (*Config, error) {
	// .env is optional; plain environment variables work for Docker/K8s
	for _, envFile := range []string{".env", "../.env", "../../.env"} {
		if err := godotenv.Load(envFile); err == nil {
			break
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load env config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case "local":
	case "s3":
		if c.Storage.S3Bucket == "" {
			return fmt.Errorf("AWS_S3_BUCKET is required for the s3 storage driver")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.Storage.Driver)
	}

	switch c.OCR.Provider {
	case "remote":
	case "gigachat":
		if c.GigaChat.APIKey == "" {
			return fmt.Errorf("GIGACHAT_API_KEY is required for the gigachat OCR provider")
		}
	default:
		return fmt.Errorf("unknown OCR_PROVIDER %q", c.OCR.Provider)
	}
	return nil
}
