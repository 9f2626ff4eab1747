package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jardindethes/storefront-api/internal/platform/textutil"
)

const (
	defaultEnvFile               = ".env"
	defaultPort                  = "8080"
	defaultReadTimeout           = 15 * time.Second
	defaultWriteTimeout          = 30 * time.Second
	defaultIdleTimeout           = 120 * time.Second
	defaultBackendTimeout        = 10 * time.Second
	defaultRedisAddr             = "localhost:6379"
	defaultSessionHeader         = "X-Session-ID"
	defaultFreeShippingThreshold = "45.00"
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server  ServerConfig
	Backend BackendConfig
	Redis   RedisConfig
	PSP     PSPConfig
	Session SessionConfig
	Pricing PricingConfig
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// BackendConfig locates the remote catalog/order API.
type BackendConfig struct {
	BaseURL      string
	ImageBaseURL string
	Timeout      time.Duration
}

// RedisConfig stores cart persistence parameters.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// PSPConfig collects payment provider credentials.
type PSPConfig struct {
	StripeAPIKey string
}

// SessionConfig controls how the storefront session is identified.
type SessionConfig struct {
	Header string
}

// PricingConfig tunes the monetary rules applied at checkout.
type PricingConfig struct {
	FreeShippingThreshold decimal.Decimal
}

// ValidationError is returned when required configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
}

// WithEnvFile overrides the .env file path used for local overrides.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap injects an explicit key/value map for environment lookups. Values in the map
// take precedence over system environment variables. The option may be repeated; later
// maps overlay earlier ones.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = textutil.MergeStringMaps(o.envMap, values)
	}
}

// WithoutSystemEnv disables reading from os.Getenv, relying only on provided maps and .env files.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// Load assembles the application configuration by combining defaults, .env overrides,
// and environment variables.
func Load(opts ...Option) (Config, error) {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
	}

	for _, opt := range opts {
		opt(&options)
	}

	dotEnvValues, err := loadDotEnv(options.envFile)
	if err != nil {
		return Config{}, err
	}

	lookup := func(key string) (string, bool) {
		if options.envMap != nil {
			if value, ok := options.envMap[key]; ok {
				return value, true
			}
		}
		if options.useSystemEnv {
			if value, ok := os.LookupEnv(key); ok {
				return value, true
			}
		}
		if dotEnvValues != nil {
			if value, ok := dotEnvValues[key]; ok {
				return value, true
			}
		}
		return "", false
	}

	cfg := Config{
		Server: ServerConfig{
			Port:         stringWithDefault(lookup, "STOREFRONT_SERVER_PORT", defaultPort),
			ReadTimeout:  durationWithDefault(lookup, "STOREFRONT_SERVER_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout: durationWithDefault(lookup, "STOREFRONT_SERVER_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:  durationWithDefault(lookup, "STOREFRONT_SERVER_IDLE_TIMEOUT", defaultIdleTimeout),
		},
		Backend: BackendConfig{
			BaseURL:      stringWithDefault(lookup, "STOREFRONT_BACKEND_BASE_URL", ""),
			ImageBaseURL: stringWithDefault(lookup, "STOREFRONT_BACKEND_IMAGE_BASE_URL", ""),
			Timeout:      durationWithDefault(lookup, "STOREFRONT_BACKEND_TIMEOUT", defaultBackendTimeout),
		},
		Redis: RedisConfig{
			Addr:     stringWithDefault(lookup, "STOREFRONT_REDIS_ADDR", defaultRedisAddr),
			Password: stringWithDefault(lookup, "STOREFRONT_REDIS_PASSWORD", ""),
			DB:       intWithDefault(lookup, "STOREFRONT_REDIS_DB", 0),
		},
		PSP: PSPConfig{
			StripeAPIKey: stringWithDefault(lookup, "STOREFRONT_PSP_STRIPE_API_KEY", ""),
		},
		Session: SessionConfig{
			Header: stringWithDefault(lookup, "STOREFRONT_SESSION_HEADER", defaultSessionHeader),
		},
		Pricing: PricingConfig{
			FreeShippingThreshold: decimalWithDefault(lookup, "STOREFRONT_FREE_SHIPPING_THRESHOLD", defaultFreeShippingThreshold),
		},
	}

	if cfg.Backend.ImageBaseURL == "" {
		cfg.Backend.ImageBaseURL = cfg.Backend.BaseURL
	}

	return cfg, nil
}

// Validate reports the configuration fields required for production use.
func (c Config) Validate() error {
	var missing []string
	if strings.TrimSpace(c.Backend.BaseURL) == "" {
		missing = append(missing, "Backend.BaseURL")
	}
	if strings.TrimSpace(c.Redis.Addr) == "" {
		missing = append(missing, "Redis.Addr")
	}
	if c.Pricing.FreeShippingThreshold.IsNegative() {
		missing = append(missing, "Pricing.FreeShippingThreshold")
	}
	if len(missing) > 0 {
		return &ValidationError{fields: missing}
	}
	return nil
}

type lookupFunc func(key string) (string, bool)

func stringWithDefault(lookup lookupFunc, key, fallback string) string {
	if value, ok := lookup(key); ok {
		trimmed := strings.TrimSpace(value)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func intWithDefault(lookup lookupFunc, key string, fallback int) int {
	if value, ok := lookup(key); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return parsed
		}
	}
	return fallback
}

func durationWithDefault(lookup lookupFunc, key string, fallback time.Duration) time.Duration {
	if value, ok := lookup(key); ok {
		if parsed, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && parsed > 0 {
			return parsed
		}
	}
	return fallback
}

func decimalWithDefault(lookup lookupFunc, key string, fallback string) decimal.Decimal {
	if value, ok := lookup(key); ok {
		if parsed, err := decimal.NewFromString(strings.TrimSpace(value)); err == nil {
			return parsed
		}
	}
	parsed, err := decimal.NewFromString(fallback)
	if err != nil {
		return decimal.Zero
	}
	return parsed
}

func loadDotEnv(path string) (map[string]string, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open env file %s: %w", path, err)
	}
	defer func() {
		_ = file.Close()
	}()

	values := make(map[string]string)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		if key == "" {
			continue
		}
		value := strings.TrimSpace(parts[1])
		value = strings.Trim(value, `"'`)
		values[key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read env file %s: %w", path, err)
	}
	return values, nil
}
