package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	p := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return p
}

func TestLoad_EmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.HTTPPort != DefaultHTTPPort {
		t.Errorf("http_port: got %d, want %d", cfg.Server.HTTPPort, DefaultHTTPPort)
	}
	if cfg.Server.Admin.PasswordEnv != DefaultPasswordEnv {
		t.Errorf("password_env: got %q, want %q", cfg.Server.Admin.PasswordEnv, DefaultPasswordEnv)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("driver: got %q, want sqlite", cfg.Database.Driver)
	}
	if cfg.Upstream.BaseURL != DefaultUpstreamBaseURL {
		t.Errorf("base_url: got %q, want %q", cfg.Upstream.BaseURL, DefaultUpstreamBaseURL)
	}
	if cfg.Upstream.Timeout != DefaultUpstreamTimeout {
		t.Errorf("timeout: got %v, want %v", cfg.Upstream.Timeout, DefaultUpstreamTimeout)
	}
	if cfg.Server.CORS.AllowedOrigin != "*" {
		t.Errorf("allowed_origin: got %q, want *", cfg.Server.CORS.AllowedOrigin)
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	p := writeConfig(t, `server:
  http_port: 9000
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.HTTPPort != 9000 {
		t.Errorf("http_port: got %d, want 9000", cfg.Server.HTTPPort)
	}
	if cfg.Server.RateLimit.Burst != DefaultRateLimitBurst {
		t.Errorf("rate_limit.burst: got %d, want %d", cfg.Server.RateLimit.Burst, DefaultRateLimitBurst)
	}
	if cfg.Server.WS.Interval != DefaultWSInterval {
		t.Errorf("ws.interval: got %v, want %v", cfg.Server.WS.Interval, DefaultWSInterval)
	}
}

func TestLoad_Full(t *testing.T) {
	p := writeConfig(t, `server:
  http_port: 9091
  admin:
    password_env: LEAGUE_ADMIN
  cors:
    allowed_origin: https://league.example
  rate_limit:
    rps: 2
    burst: 3
  ws:
    interval: 5s
database:
  driver: postgres
  dsn: postgres://localhost/league
  dsn_env: ""
upstream:
  base_url: http://results.local:8000
  timeout: 3s
notify:
  top: 5
  webhooks:
    - type: slack
      url_env: SLACK_HOOK
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Admin.PasswordEnv != "LEAGUE_ADMIN" {
		t.Errorf("password_env: got %q", cfg.Server.Admin.PasswordEnv)
	}
	if cfg.Server.CORS.AllowedOrigin != "https://league.example" {
		t.Errorf("allowed_origin: got %q", cfg.Server.CORS.AllowedOrigin)
	}
	if cfg.Server.RateLimit.RPS != 2 || cfg.Server.RateLimit.Burst != 3 {
		t.Errorf("rate_limit: got %+v, want rps=2 burst=3", cfg.Server.RateLimit)
	}
	if cfg.Server.WS.Interval != 5*time.Second {
		t.Errorf("ws.interval: got %v, want 5s", cfg.Server.WS.Interval)
	}
	if cfg.Database.Driver != "postgres" {
		t.Errorf("driver: got %q, want postgres", cfg.Database.Driver)
	}
	if got := cfg.Database.EffectiveDSN(); got != "postgres://localhost/league" {
		t.Errorf("EffectiveDSN: got %q", got)
	}
	if cfg.Upstream.Timeout != 3*time.Second {
		t.Errorf("upstream.timeout: got %v, want 3s", cfg.Upstream.Timeout)
	}
	if cfg.Notify.Top != 5 || len(cfg.Notify.Webhooks) != 1 {
		t.Fatalf("notify: got %+v", cfg.Notify)
	}
	if cfg.Notify.Webhooks[0].Type != "slack" {
		t.Errorf("webhook type: got %q, want slack", cfg.Notify.Webhooks[0].Type)
	}
}

func TestAdminPassword_FromEnv(t *testing.T) {
	t.Setenv("TEST_LEAGUE_ADMIN", "hunter2")
	p := writeConfig(t, `server:
  admin:
    password_env: TEST_LEAGUE_ADMIN
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := cfg.Server.Admin.Password(); got != "hunter2" {
		t.Errorf("Password(): got %q, want hunter2", got)
	}
}

func TestAdminPassword_NoEnvName(t *testing.T) {
	a := AdminConfig{}
	if got := a.Password(); got != "" {
		t.Errorf("Password(): got %q, want empty", got)
	}
}

func TestEffectiveDSN_EnvWins(t *testing.T) {
	t.Setenv("TEST_LEAGUE_DSN", "postgres://env/league")
	d := DatabaseConfig{Driver: "postgres", DSN: "postgres://file/league", DSNEnv: "TEST_LEAGUE_DSN"}
	if got := d.EffectiveDSN(); got != "postgres://env/league" {
		t.Errorf("EffectiveDSN: got %q, want env value", got)
	}
}

func TestEffectiveDSN_EnvUnsetFallsBack(t *testing.T) {
	d := DatabaseConfig{DSN: "file:league.db", DSNEnv: "TEST_LEAGUE_DSN_UNSET"}
	if got := d.EffectiveDSN(); got != "file:league.db" {
		t.Errorf("EffectiveDSN: got %q, want literal dsn", got)
	}
}

func TestWebhookURL_FromEnv(t *testing.T) {
	t.Setenv("TEST_HOOK_URL", "https://hooks.example/abc")
	wh := WebhookConfig{Type: "http", URLEnv: "TEST_HOOK_URL"}
	if got := wh.URL(); got != "https://hooks.example/abc" {
		t.Errorf("URL(): got %q", got)
	}
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"port":        "server:\n  http_port: 70000\n",
		"driver":      "database:\n  driver: mysql\n",
		"base_url":    "upstream:\n  base_url: not-a-url\n",
		"timeout":     "upstream:\n  timeout: -1s\n",
		"burst":       "server:\n  rate_limit:\n    rps: 1\n    burst: 0\n",
		"webhook":     "notify:\n  webhooks:\n    - type: pager\n",
		"ws_interval": "server:\n  ws:\n    interval: 0s\n",
		"empty_dsn":   "database:\n  dsn: \"\"\n  dsn_env: \"\"\n",
		"bad_yaml":    "server: [unterminated\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, content)); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/path/config.yaml"); err == nil {
		t.Fatal("expected error for missing file, got nil")
	}
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	p := writeConfig(t, "server:\n  http_port: 8081\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan *Config, 16)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, p, func(c *Config) {
			select {
			case reloaded <- c:
			default:
			}
		})
	}()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(p, []byte("server:\n  http_port: 8082\n"), 0o600); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}

	// A truncating write can surface as several events; the last reload wins.
	deadline := time.After(3 * time.Second)
	for got := 0; got != 8082; {
		select {
		case c := <-reloaded:
			got = c.Server.HTTPPort
		case <-deadline:
			t.Fatal("timed out waiting for reload with http_port 8082")
		}
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Watch returned %v", err)
	}
}
