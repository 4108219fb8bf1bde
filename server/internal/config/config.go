package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values for the server configuration.
const (
	DefaultHTTPPort        = 8080
	DefaultPasswordEnv     = "ADMIN_PASSWORD"
	DefaultAllowedOrigin   = "*"
	DefaultRateLimitRPS    = 1.0
	DefaultRateLimitBurst  = 5
	DefaultWSInterval      = 30 * time.Second
	DefaultDriver          = "sqlite"
	DefaultSQLiteDSN       = "file:standings.db"
	DefaultDSNEnv          = "POSTGRESQL_URL"
	DefaultUpstreamBaseURL = "https://simsolutionil.emperorservers.com"
	DefaultUpstreamTimeout = 10 * time.Second
	DefaultNotifyTop       = 10
)

// Config is the full server configuration parsed from config.yaml.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Upstream UpstreamConfig `yaml:"upstream"`
	Notify   NotifyConfig   `yaml:"notify"`
}

// ServerConfig holds the HTTP surface settings.
type ServerConfig struct {
	// HTTPPort is the port the REST API and WebSocket hub listen on (default 8080).
	HTTPPort int `yaml:"http_port"`

	// Admin configures the credential required by the load endpoints.
	Admin AdminConfig `yaml:"admin"`

	CORS CORSConfig `yaml:"cors"`

	// RateLimit throttles the admin endpoints.
	RateLimit RateLimitConfig `yaml:"rate_limit"`

	WS WSConfig `yaml:"ws"`
}

// AdminConfig names the environment variable holding the admin password.
type AdminConfig struct {
	PasswordEnv string `yaml:"password_env"`
}

// Password returns the admin password resolved from the environment.
// An empty result means no admin request can be authorized.
func (a AdminConfig) Password() string {
	if a.PasswordEnv == "" {
		return ""
	}
	return os.Getenv(a.PasswordEnv)
}

// CORSConfig controls the Access-Control-Allow-Origin response header.
type CORSConfig struct {
	AllowedOrigin string `yaml:"allowed_origin"`
}

// RateLimitConfig is a token bucket applied to admin requests.
// RPS <= 0 disables throttling.
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// WSConfig controls the standings broadcast hub.
type WSConfig struct {
	// Interval is how often the current standings are pushed to connected
	// clients in addition to the push after every ingestion.
	Interval time.Duration `yaml:"interval"`
}

// DatabaseConfig selects the standings store backend.
type DatabaseConfig struct {
	// Driver is one of: sqlite | postgres.
	Driver string `yaml:"driver"`

	// DSN is a literal connection string. It is ignored when the variable
	// named by DSNEnv is set.
	DSN string `yaml:"dsn"`

	// DSNEnv is the name of the environment variable that holds the
	// connection string.
	DSNEnv string `yaml:"dsn_env"`
}

// EffectiveDSN returns the connection string from the environment when set,
// otherwise the literal DSN.
func (d DatabaseConfig) EffectiveDSN() string {
	if d.DSNEnv != "" {
		if v := os.Getenv(d.DSNEnv); v != "" {
			return v
		}
	}
	return d.DSN
}

// UpstreamConfig points at the racing-server results API.
type UpstreamConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// NotifyConfig lists webhook targets informed after every ingestion.
type NotifyConfig struct {
	Webhooks []WebhookConfig `yaml:"webhooks"`

	// Top is how many standings rows are included in a notification.
	Top int `yaml:"top"`
}

// WebhookConfig defines one webhook delivery target.
type WebhookConfig struct {
	// Type is one of: slack | teams | http.
	Type string `yaml:"type"`

	// URLEnv is the name of the environment variable that holds the webhook URL.
	URLEnv string `yaml:"url_env"`
}

// URL returns the webhook URL resolved from the environment.
func (w WebhookConfig) URL() string {
	if w.URLEnv == "" {
		return ""
	}
	return os.Getenv(w.URLEnv)
}

// Load reads and parses the config file at path. An empty path yields the
// defaults, so the server can run from environment variables alone.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse yaml: %w", err)
		}
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort: DefaultHTTPPort,
			Admin:    AdminConfig{PasswordEnv: DefaultPasswordEnv},
			CORS:     CORSConfig{AllowedOrigin: DefaultAllowedOrigin},
			RateLimit: RateLimitConfig{
				RPS:   DefaultRateLimitRPS,
				Burst: DefaultRateLimitBurst,
			},
			WS: WSConfig{Interval: DefaultWSInterval},
		},
		Database: DatabaseConfig{
			Driver: DefaultDriver,
			DSN:    DefaultSQLiteDSN,
			DSNEnv: DefaultDSNEnv,
		},
		Upstream: UpstreamConfig{
			BaseURL: DefaultUpstreamBaseURL,
			Timeout: DefaultUpstreamTimeout,
		},
		Notify: NotifyConfig{Top: DefaultNotifyTop},
	}
}

// validate checks structural constraints on the parsed configuration.
func validate(cfg *Config) error {
	if cfg.Server.HTTPPort <= 0 || cfg.Server.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port %d is out of range [1, 65535]", cfg.Server.HTTPPort)
	}
	if cfg.Server.RateLimit.RPS > 0 && cfg.Server.RateLimit.Burst < 1 {
		return fmt.Errorf("server.rate_limit.burst must be at least 1 when rps is set")
	}
	if cfg.Server.WS.Interval <= 0 {
		return fmt.Errorf("server.ws.interval must be positive")
	}
	switch cfg.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("database.driver %q unknown: want sqlite|postgres", cfg.Database.Driver)
	}
	if cfg.Database.EffectiveDSN() == "" {
		return fmt.Errorf("database: no dsn configured")
	}
	u, err := url.Parse(cfg.Upstream.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("upstream.base_url %q is not an absolute URL", cfg.Upstream.BaseURL)
	}
	if cfg.Upstream.Timeout <= 0 {
		return fmt.Errorf("upstream.timeout must be positive")
	}
	for i, wh := range cfg.Notify.Webhooks {
		switch wh.Type {
		case "slack", "teams", "http":
		default:
			return fmt.Errorf("notify.webhooks[%d].type %q unknown: want slack|teams|http", i, wh.Type)
		}
	}
	if cfg.Notify.Top < 0 {
		return fmt.Errorf("notify.top must not be negative")
	}
	return nil
}
