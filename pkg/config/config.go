// Package config loads reconcheck settings from defaults, an optional .env
// file and the process environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-playground/validator"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"

	"github.com/Sternrassler/reconcheck/pkg/client"
	"github.com/Sternrassler/reconcheck/pkg/endpoint"
	"github.com/Sternrassler/reconcheck/pkg/input"
	"github.com/Sternrassler/reconcheck/pkg/logging"
	"github.com/Sternrassler/reconcheck/pkg/report"
)

// DefaultEnvFile is loaded when present; its absence is not an error.
const DefaultEnvFile = ".env"

// ErrInvalid is returned when the configuration fails validation.
var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	Auth     AuthConfig     `koanf:"auth" validate:"-"`
	Network  NetworkConfig  `koanf:"network"`
	Proxy    ProxyConfig    `koanf:"proxy"`
	Services ServicesConfig `koanf:"services"`
	Paths    PathsConfig    `koanf:"paths"`
	Logger   LoggerConfig   `koanf:"logger"`
}

// AuthConfig is checked by RequireAuth rather than Validate, so commands
// that never send a request work without a token.
type AuthConfig struct {
	Token string `koanf:"token"`
}

type NetworkConfig struct {
	MaxWorkers int `koanf:"max_workers" validate:"min=1"`
	// RequestTimeout is in seconds
	RequestTimeout int  `koanf:"request_timeout" validate:"min=1"`
	TLSInsecure    bool `koanf:"tls_insecure"`
}

type ProxyConfig struct {
	Enabled bool   `koanf:"enabled"`
	Host    string `koanf:"host" validate:"required"`
	Port    int    `koanf:"port" validate:"min=1,max=65535"`
}

type ServicesConfig struct {
	Hermes             string `koanf:"hermes" validate:"required,url"`
	RefundOrchestrator string `koanf:"refund_orchestrator" validate:"required,url"`
	PaymentService     string `koanf:"payment_service" validate:"required,url"`
}

type PathsConfig struct {
	AssetsDir  string `koanf:"assets_dir" validate:"required"`
	OutputDir  string `koanf:"output_dir" validate:"required"`
	OutputFile string `koanf:"output_file" validate:"required"`
}

type LoggerConfig struct {
	Level  string `koanf:"level" validate:"loglevel"`
	Pretty bool   `koanf:"pretty"`
}

// envKeys maps the supported environment variables to config keys.
var envKeys = map[string]string{
	"AUTHORIZATION_TOKEN":          "auth.token",
	"MAX_WORKERS":                  "network.max_workers",
	"REQUEST_TIMEOUT":              "network.request_timeout",
	"TLS_INSECURE":                 "network.tls_insecure",
	"PROXY_ENABLED":                "proxy.enabled",
	"PROXY_HOST":                   "proxy.host",
	"PROXY_PORT":                   "proxy.port",
	"HERMES_BASE_URL":              "services.hermes",
	"REFUND_ORCHESTRATOR_BASE_URL": "services.refund_orchestrator",
	"PAYMENT_SERVICE_BASE_URL":     "services.payment_service",
	"ASSETS_DIR":                   "paths.assets_dir",
	"OUTPUT_DIR":                   "paths.output_dir",
	"OUTPUT_FILE":                  "paths.output_file",
	"LOG_LEVEL":                    "logger.level",
	"LOG_PRETTY":                   "logger.pretty",
}

func defaults() map[string]interface{} {
	bases := endpoint.DefaultBaseURLs()
	return map[string]interface{}{
		"network.max_workers":          80,
		"network.request_timeout":      15,
		"network.tls_insecure":         true,
		"proxy.enabled":                true,
		"proxy.host":                   "localhost",
		"proxy.port":                   1080,
		"services.hermes":              bases.Hermes,
		"services.refund_orchestrator": bases.RefundOrchestrator,
		"services.payment_service":     bases.PaymentService,
		"paths.assets_dir":             input.DefaultAssetsDir,
		"paths.output_dir":             report.DefaultOutputDir,
		"paths.output_file":            "api_responses.csv",
		"logger.level":                 "info",
		"logger.pretty":                false,
	}
}

// Load reads envFile into the process environment (values in the file win
// over already exported ones) and layers the environment over the defaults.
// A missing envFile is only an error when it is not DefaultEnvFile. Call
// Validate once any overrides are applied.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		err := godotenv.Overload(envFile)
		switch {
		case err == nil:
		case errors.Is(err, fs.ErrNotExist) && envFile == DefaultEnvFile:
		default:
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	err := k.Load(env.Provider("", ".", func(s string) string {
		return envKeys[s]
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	return cfg, nil
}

// Validate checks every section except Auth. Load does not call it, so
// callers can apply flag overrides first.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.RegisterValidation("loglevel", func(fl validator.FieldLevel) bool {
		return logging.IsValidLevel(fl.Field().String())
	}); err != nil {
		return err
	}
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// RequireAuth fails when no authorization token is configured.
func (c *Config) RequireAuth() error {
	if c.Auth.Token == "" {
		return fmt.Errorf("%w: AUTHORIZATION_TOKEN not found in environment; set it in your .env file or environment variables", ErrInvalid)
	}
	return nil
}

// RequestTimeout returns the per-request timeout.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Network.RequestTimeout) * time.Second
}

// ProxyAddr returns host:port of the SOCKS5 proxy, or "" when disabled.
func (c *Config) ProxyAddr() string {
	if !c.Proxy.Enabled {
		return ""
	}
	return c.Proxy.Host + ":" + strconv.Itoa(c.Proxy.Port)
}

// BaseURLs returns the configured service hosts.
func (c *Config) BaseURLs() endpoint.BaseURLs {
	return endpoint.BaseURLs{
		Hermes:             c.Services.Hermes,
		RefundOrchestrator: c.Services.RefundOrchestrator,
		PaymentService:     c.Services.PaymentService,
	}
}

// ClientConfig returns the HTTP client settings.
func (c *Config) ClientConfig() client.Config {
	cfg := client.DefaultConfig(c.Auth.Token)
	cfg.Timeout = c.RequestTimeout()
	cfg.InsecureSkipVerify = c.Network.TLSInsecure
	cfg.ProxyAddr = c.ProxyAddr()
	cfg.MaxIdleConnsPerHost = c.Network.MaxWorkers
	return cfg
}

// OutputPath returns the report path. Absolute OUTPUT_FILE values are used
// as-is, relative ones are placed under the output directory.
func (c *Config) OutputPath() string {
	if filepath.IsAbs(c.Paths.OutputFile) {
		return c.Paths.OutputFile
	}
	return filepath.Join(c.Paths.OutputDir, c.Paths.OutputFile)
}
