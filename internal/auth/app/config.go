package app

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/instamakaan/makaan/pkg/cryptox"
	"github.com/instamakaan/makaan/pkg/httpx"
	"github.com/instamakaan/makaan/pkg/jwtx"
)

// Store drivers accepted by AUTH_STORE_DRIVER.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	Issuer   string `yaml:"issuer"`   // Optional: iss claim (default: instamakaan)
	Audience string `yaml:"audience"` // Optional: aud claim (default: instamakaan_users)

	SigningSecret         string `yaml:"signing_secret"`          // Required: HS256 secret, at least 32 bytes
	SigningKeyID          string `yaml:"signing_key_id"`          // Optional: kid header (default: derived from the secret)
	PreviousSigningSecret string `yaml:"previous_signing_secret"` // Optional: still accepted for verification during rotation

	AccessTTL  time.Duration `yaml:"access_ttl"`  // Optional: access token lifetime (default: 24h)
	RefreshTTL time.Duration `yaml:"refresh_ttl"` // Optional: refresh token lifetime (default: 168h)

	StoreDriver  string `yaml:"store_driver"`  // Optional: sqlite or postgres (default: sqlite)
	DatabaseFile string `yaml:"database_file"` // Optional: SQLite database path (default: ./auth.db)
	DatabaseURL  string `yaml:"database_url"`  // Required for postgres: connection string

	PepperFile     string `yaml:"pepper_file"`     // Optional: pepper file, created when missing (default: ./pepper)
	PasswordScheme string `yaml:"password_scheme"` // Optional: argon2id or bcrypt (default: argon2id)
	HashWorkers    int    `yaml:"hash_workers"`    // Optional: concurrent hash operations (default: NumCPU)

	BootstrapAdminEmail  string `yaml:"bootstrap_admin_email"`  // Optional: ADMIN account created on first start
	BootstrapAdminSecret string `yaml:"bootstrap_admin_secret"` // Required with BootstrapAdminEmail

	TrustedProxies string `yaml:"trusted_proxies"` // Optional: proxies allowed to set X-Forwarded-For, comma separated IPs or CIDRs

	Env                  string        `yaml:"env"`                   // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        `yaml:"log_level"`             // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        `yaml:"log_format"`            // Log format (json, text) (default: json)
	Port                 int           `yaml:"port"`                  // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration `yaml:"shutdown_grace_period"` // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration `yaml:"housekeeping_interval"` // Housekeeping interval (default: 1h)
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		Issuer:               "instamakaan",
		Audience:             "instamakaan_users",
		AccessTTL:            jwtx.DefaultAccessTokenTTL,
		RefreshTTL:           jwtx.DefaultRefreshTokenTTL,
		StoreDriver:          DriverSQLite,
		DatabaseFile:         "auth.db",
		PepperFile:           "pepper",
		PasswordScheme:       string(cryptox.SchemeArgon2id),
		Env:                  "dev",
		LogLevel:             "info",
		LogFormat:            "json",
		Port:                 8080,
		ShutdownGracePeriod:  10 * time.Second,
		HousekeepingInterval: 1 * time.Hour,
	}
}

// LoadConfig builds the configuration from defaults, then the YAML file
// named by AUTH_CONFIG_FILE (if any), then the environment. Environment
// variables win. Secrets may be given as <NAME>_FILE pointing at a file.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()

	if path := os.Getenv("AUTH_CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.loadEnv(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) loadEnv() error {
	c.Issuer = getEnvOrDefault("AUTH_ISSUER", c.Issuer)
	c.Audience = getEnvOrDefault("AUTH_AUDIENCE", c.Audience)
	c.SigningKeyID = getEnvOrDefault("AUTH_KEY_ID", c.SigningKeyID)
	c.AccessTTL = getEnvDurationOrDefault("AUTH_ACCESS_TTL", c.AccessTTL)
	c.RefreshTTL = getEnvDurationOrDefault("AUTH_REFRESH_TTL", c.RefreshTTL)
	c.StoreDriver = strings.ToLower(getEnvOrDefault("AUTH_STORE_DRIVER", c.StoreDriver))
	c.DatabaseFile = getEnvOrDefault("AUTH_DATABASE_FILE", c.DatabaseFile)
	c.PepperFile = getEnvOrDefault("AUTH_PEPPER_FILE", c.PepperFile)
	c.PasswordScheme = strings.ToLower(getEnvOrDefault("AUTH_PASSWORD_SCHEME", c.PasswordScheme))
	c.HashWorkers = getEnvIntOrDefault("AUTH_HASH_WORKERS", c.HashWorkers)
	c.BootstrapAdminEmail = getEnvOrDefault("AUTH_BOOTSTRAP_ADMIN_EMAIL", c.BootstrapAdminEmail)
	c.TrustedProxies = getEnvOrDefault("RATELIMIT_TRUSTED_PROXIES", c.TrustedProxies)
	c.Env = getEnvOrDefault("ENV", c.Env)
	c.LogLevel = getEnvOrDefault("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnvOrDefault("LOG_FORMAT", c.LogFormat)
	c.Port = getEnvIntOrDefault("PORT", c.Port)
	c.ShutdownGracePeriod = getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", c.ShutdownGracePeriod)
	c.HousekeepingInterval = getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", c.HousekeepingInterval)

	secrets := []struct {
		key string
		dst *string
	}{
		{"AUTH_SIGNING_SECRET", &c.SigningSecret},
		{"AUTH_SIGNING_SECRET_PREVIOUS", &c.PreviousSigningSecret},
		{"AUTH_DATABASE_URL", &c.DatabaseURL},
		{"AUTH_BOOTSTRAP_ADMIN_SECRET", &c.BootstrapAdminSecret},
	}
	for _, s := range secrets {
		v, err := getSecretOrDefault(s.key, *s.dst)
		if err != nil {
			return err
		}
		*s.dst = v
	}
	return nil
}

// Validate reports every problem at once, wrapped in ErrInvalidConfig.
func (c Config) Validate() error {
	var problems []string

	switch {
	case c.SigningSecret == "":
		problems = append(problems, "AUTH_SIGNING_SECRET (or AUTH_SIGNING_SECRET_FILE) is required")
	case len(c.SigningSecret) < jwtx.MinSecretBytes:
		problems = append(problems, fmt.Sprintf("AUTH_SIGNING_SECRET must be at least %d bytes", jwtx.MinSecretBytes))
	}
	if c.PreviousSigningSecret != "" && len(c.PreviousSigningSecret) < jwtx.MinSecretBytes {
		problems = append(problems, fmt.Sprintf("AUTH_SIGNING_SECRET_PREVIOUS must be at least %d bytes", jwtx.MinSecretBytes))
	}

	if c.AccessTTL <= 0 {
		problems = append(problems, "AUTH_ACCESS_TTL must be positive")
	}
	if c.RefreshTTL <= 0 {
		problems = append(problems, "AUTH_REFRESH_TTL must be positive")
	}

	switch c.StoreDriver {
	case DriverSQLite:
		if c.DatabaseFile == "" {
			problems = append(problems, "AUTH_DATABASE_FILE is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			problems = append(problems, "AUTH_DATABASE_URL is required for the postgres driver")
		}
	default:
		problems = append(problems, fmt.Sprintf("AUTH_STORE_DRIVER %q is not one of sqlite, postgres", c.StoreDriver))
	}

	if _, err := cryptox.ParseScheme(c.PasswordScheme); err != nil {
		problems = append(problems, fmt.Sprintf("AUTH_PASSWORD_SCHEME %q is not one of argon2id, bcrypt", c.PasswordScheme))
	}
	if c.PepperFile == "" {
		problems = append(problems, "AUTH_PEPPER_FILE is required")
	}

	if c.BootstrapAdminEmail != "" && c.BootstrapAdminSecret == "" {
		problems = append(problems, "AUTH_BOOTSTRAP_ADMIN_SECRET is required with AUTH_BOOTSTRAP_ADMIN_EMAIL")
	}

	if _, err := httpx.ParseTrustedProxies(c.TrustedProxies); err != nil {
		problems = append(problems, fmt.Sprintf("RATELIMIT_TRUSTED_PROXIES: %v", err))
	}

	if c.Port <= 0 || c.Port > 65535 {
		problems = append(problems, fmt.Sprintf("PORT %d is out of range", c.Port))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer minutes (for backwards compatibility)
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}

// getSecretOrDefault reads key, or the file named by key_FILE. The file
// form wins so a mounted secret overrides a stale variable.
func getSecretOrDefault(key, defaultValue string) (string, error) {
	if path := os.Getenv(key + "_FILE"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read %s_FILE: %w", key, err)
		}
		return strings.TrimSpace(string(raw)), nil
	}
	return getEnvOrDefault(key, defaultValue), nil
}
