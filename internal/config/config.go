// Package config loads runtime settings from defaults, an optional YAML
// file, environment variables and command-line flags, in that order.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// SeedAdmin holds credentials for an Admin account created at startup.
// Seeding is skipped when Email is empty.
type SeedAdmin struct {
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

// Config holds runtime settings for the server.
type Config struct {
	Port           string        `yaml:"port"`
	DatabasePath   string        `yaml:"database_path"`
	JWTSecret      string        `yaml:"jwt_secret"`
	TokenTTL       time.Duration `yaml:"token_ttl"`
	TokenCarrier   string        `yaml:"token_carrier"` // "header" or "cookie"
	CookieSecure   bool          `yaml:"cookie_secure"`
	PasswordHasher string        `yaml:"password_hasher"` // "bcrypt" or "argon2id"
	BcryptCost     int           `yaml:"bcrypt_cost"`
	LogLevel       string        `yaml:"log_level"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	SeedAdmin      SeedAdmin     `yaml:"seed_admin"`
}

// Defaults returns the development defaults. JWTSecret has no default.
func Defaults() Config {
	return Config{
		Port:           "8080",
		DatabasePath:   "quill.db",
		TokenTTL:       24 * time.Hour,
		TokenCarrier:   "header",
		CookieSecure:   true,
		PasswordHasher: "bcrypt",
		BcryptCost:     12,
		LogLevel:       "info",
		SeedAdmin:      SeedAdmin{Name: "Administrator"},
	}
}

// Load builds a Config from defaults, the YAML file named by --config or
// QUILL_CONFIG, environment variables read through getenv, and finally the
// flags in args. The result is validated.
func Load(args []string, getenv func(string) string) (*Config, error) {
	if getenv == nil {
		getenv = os.Getenv
	}

	cfg := Defaults()

	fs := pflag.NewFlagSet("quill", pflag.ContinueOnError)
	configPath := fs.StringP("config", "c", getenv("QUILL_CONFIG"), "path to a YAML config file")
	port := fs.StringP("port", "p", "", "HTTP listen port")
	dbPath := fs.String("database-path", "", "SQLite database file")
	ttl := fs.Duration("token-ttl", 0, "lifetime of issued tokens")
	carrier := fs.String("token-carrier", "", "credential carrier: header or cookie")
	hasher := fs.String("password-hasher", "", "password hasher: bcrypt or argon2id")
	cost := fs.Int("bcrypt-cost", 0, "bcrypt cost (4-14)")
	logLevel := fs.String("log-level", "", "log level: debug, info, warn or error")
	origins := fs.StringSlice("allowed-origins", nil, "CORS origins allowed to call the API")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if *configPath != "" {
		if err := loadFile(&cfg, *configPath); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(&cfg, getenv); err != nil {
		return nil, err
	}

	if fs.Changed("port") {
		cfg.Port = *port
	}
	if fs.Changed("database-path") {
		cfg.DatabasePath = *dbPath
	}
	if fs.Changed("token-ttl") {
		cfg.TokenTTL = *ttl
	}
	if fs.Changed("token-carrier") {
		cfg.TokenCarrier = *carrier
	}
	if fs.Changed("password-hasher") {
		cfg.PasswordHasher = *hasher
	}
	if fs.Changed("bcrypt-cost") {
		cfg.BcryptCost = *cost
	}
	if fs.Changed("log-level") {
		cfg.LogLevel = *logLevel
	}
	if fs.Changed("allowed-origins") {
		cfg.AllowedOrigins = *origins
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config, getenv func(string) string) error {
	setString := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}

	setString("PORT", &cfg.Port)
	setString("DATABASE_PATH", &cfg.DatabasePath)
	setString("JWT_SECRET", &cfg.JWTSecret)
	setString("TOKEN_CARRIER", &cfg.TokenCarrier)
	setString("PASSWORD_HASHER", &cfg.PasswordHasher)
	setString("LOG_LEVEL", &cfg.LogLevel)
	setString("SEED_ADMIN_NAME", &cfg.SeedAdmin.Name)
	setString("SEED_ADMIN_EMAIL", &cfg.SeedAdmin.Email)
	setString("SEED_ADMIN_PASSWORD", &cfg.SeedAdmin.Password)

	if v := getenv("TOKEN_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid TOKEN_TTL: %w", err)
		}
		cfg.TokenTTL = d
	}
	// Secure cookies stay on unless explicitly disabled for local development.
	if v := getenv("COOKIE_SECURE"); v != "" {
		cfg.CookieSecure = v != "false"
	}
	if v := getenv("BCRYPT_COST"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid BCRYPT_COST: %w", err)
		}
		cfg.BcryptCost = n
	}
	if v := getenv("ALLOWED_ORIGINS"); v != "" {
		cfg.AllowedOrigins = nil
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
			}
		}
	}
	return nil
}

// Validate reports every setting that would prevent a safe start.
func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	} else if len(c.JWTSecret) < 32 {
		errs = append(errs, errors.New("JWT_SECRET must be at least 32 characters for HMAC-SHA256 security"))
	}
	if c.Port == "" {
		errs = append(errs, errors.New("port must not be empty"))
	}
	if c.DatabasePath == "" {
		errs = append(errs, errors.New("database path must not be empty"))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, fmt.Errorf("token TTL must be positive, got %s", c.TokenTTL))
	}
	switch c.TokenCarrier {
	case "header", "cookie":
	default:
		errs = append(errs, fmt.Errorf("token carrier must be header or cookie, got %q", c.TokenCarrier))
	}
	switch c.PasswordHasher {
	case "bcrypt", "argon2id":
	default:
		errs = append(errs, fmt.Errorf("password hasher must be bcrypt or argon2id, got %q", c.PasswordHasher))
	}
	if c.BcryptCost < 4 || c.BcryptCost > 14 {
		errs = append(errs, fmt.Errorf("BCRYPT_COST must be between 4 and 14, got %d", c.BcryptCost))
	}
	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	if c.SeedAdmin.Email != "" && c.SeedAdmin.Password == "" {
		errs = append(errs, errors.New("seed admin password is required when a seed admin email is set"))
	}
	return errors.Join(errs...)
}

// SlogLevel parses LogLevel.
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	return level, nil
}
