// Package config loads server configuration from the environment.
//
// Values come from real environment variables first; a .env file in the
// working directory (if present) fills in anything not already set.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// PlaceholderAssetPath is where the bundled placeholder image is served.
// Without PLACEHOLDER_IMAGE_URL, stories saved without an image point at
// it under SERVER_URL.
const PlaceholderAssetPath = "/assets/placeholder.svg"

// Media backends.
const (
	MediaBackendLocal = "local"
	MediaBackendMinio = "minio"
)

// Config contains server configuration parameters.
type Config struct {
	Port                int      `env:"PORT" envDefault:"8000"`
	LogLevel            int      `env:"LOG_LEVEL" envDefault:"0"`
	DBPath              string   `env:"DB_PATH" envDefault:"data/travel.db"`
	ServerURL           string   `env:"SERVER_URL" envDefault:"http://localhost:8000"`
	PlaceholderImageURL string   `env:"PLACEHOLDER_IMAGE_URL"`
	AssetsDir           string   `env:"ASSETS_DIR" envDefault:"assets"`
	CORSAllowedOrigins  []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	JWT                 JWT
	Media               Media `envPrefix:"MEDIA_"`
	Minio               Minio `envPrefix:"MINIO_"`
}

// JWT contains token signing and password hashing parameters.
type JWT struct {
	Secret     string        `env:"ACCESS_TOKEN_SECRET,required,notEmpty"`
	TokenTTL   time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"72h"`
	BcryptCost int           `env:"BCRYPT_COST" envDefault:"10"`
}

// Media contains image upload parameters.
type Media struct {
	Backend        string `env:"BACKEND" envDefault:"local"`
	UploadDir      string `env:"UPLOAD_DIR" envDefault:"uploads"`
	MaxUploadBytes int64  `env:"MAX_UPLOAD_BYTES" envDefault:"10485760"`
}

// Minio contains object storage parameters, used when Media.Backend is "minio".
type Minio struct {
	Endpoint  string `env:"ENDPOINT" envDefault:"localhost:9000"`
	AccessKey string `env:"ACCESS_KEY" envDefault:"travel-access-key"`
	SecretKey string `env:"SECRET_KEY" envDefault:"travel-secret-key"`
	Bucket    string `env:"BUCKET_NAME" envDefault:"travel-images"`
	UseSSL    bool   `env:"USE_SSL" envDefault:"false"`
}

// NewConfig loads configuration from environment variables, after loading
// the optional .env file.
func NewConfig() (*Config, error) {
	return Load(".env")
}

// Load is NewConfig with explicit dotenv file paths. Missing files are
// ignored; malformed ones are an error.
func Load(dotenvFiles ...string) (*Config, error) {
	for _, f := range dotenvFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.PlaceholderImageURL == "" {
		cfg.PlaceholderImageURL = strings.TrimRight(cfg.ServerURL, "/") + PlaceholderAssetPath
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Media.Backend {
	case MediaBackendLocal, MediaBackendMinio:
	default:
		return fmt.Errorf("config: unknown MEDIA_BACKEND %q", c.Media.Backend)
	}
	if c.Media.MaxUploadBytes <= 0 {
		return fmt.Errorf("config: MEDIA_MAX_UPLOAD_BYTES must be positive")
	}
	return nil
}
