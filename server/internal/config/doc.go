// Package config loads the league server configuration from a YAML file.
//
// Config fields:
//   - Server.HTTPPort          : port for the REST API and WebSocket hub (default 8080)
//   - Server.Admin.PasswordEnv : env var holding the admin password (default ADMIN_PASSWORD)
//   - Server.CORS.AllowedOrigin: Access-Control-Allow-Origin value (default "*")
//   - Server.RateLimit         : token bucket for admin endpoints (default 1 rps, burst 5)
//   - Server.WS.Interval       : periodic standings broadcast (default 30s)
//   - Database.Driver          : "sqlite" or "postgres" (default sqlite)
//   - Database.DSN / DSNEnv    : connection string; DSNEnv wins when set (default POSTGRESQL_URL)
//   - Upstream.BaseURL         : racing-server results API
//   - Upstream.Timeout         : per-request timeout for the results API (default 10s)
//   - Notify.Webhooks / Top    : post-ingestion webhook targets and table size
//
// Load(path) applies defaults before unmarshalling, then validates. Watch(path)
// reloads the file on change so the admin password, rate limit and webhook
// targets can be rotated without a restart.
package config
