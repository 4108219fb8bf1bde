package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/simleague/standings/server/internal/config"
	"github.com/simleague/standings/server/internal/store"
)

const defaultTimeout = 10 * time.Second

// Event describes one committed ingestion.
type Event struct {
	Kind         string           `json:"kind"`
	Source       string           `json:"source,omitempty"`
	Entries      int              `json:"entries"`
	Created      int              `json:"created"`
	Updated      int              `json:"updated"`
	BonusDrivers []string         `json:"bonus_drivers"`
	Standings    []store.Standing `json:"-"`
	At           time.Time        `json:"at"`
}

// Notifier posts ingestion events to the configured webhooks.
//
// Notifier is safe for concurrent use; SetConfig may be called while a
// delivery is in flight.
type Notifier struct {
	mu       sync.RWMutex
	webhooks []config.WebhookConfig
	top      int

	client *http.Client
}

// New creates a Notifier from the notification configuration.
// A Notifier with no webhooks is valid and Send becomes a no-op.
func New(cfg config.NotifyConfig) *Notifier {
	n := &Notifier{client: &http.Client{Timeout: defaultTimeout}}
	n.SetConfig(cfg)
	return n
}

// SetConfig replaces the webhook targets and the table size.
func (n *Notifier) SetConfig(cfg config.NotifyConfig) {
	hooks := make([]config.WebhookConfig, len(cfg.Webhooks))
	copy(hooks, cfg.Webhooks)

	n.mu.Lock()
	n.webhooks = hooks
	n.top = cfg.Top
	n.mu.Unlock()
}

// Top is the number of standings rows an Event should carry.
func (n *Notifier) Top() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.top
}

// Enabled reports whether any webhook is configured.
func (n *Notifier) Enabled() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.webhooks) > 0
}

// Send delivers ev to every webhook whose URL resolves. Failures are logged
// and counted; the first one is returned.
func (n *Notifier) Send(ctx context.Context, ev Event) error {
	n.mu.RLock()
	hooks := n.webhooks
	n.mu.RUnlock()

	var first error
	for _, wh := range hooks {
		url := wh.URL()
		if url == "" {
			slog.Debug("notify: webhook url not set, skipping", "type", wh.Type, "env", wh.URLEnv)
			continue
		}

		var err error
		switch wh.Type {
		case "slack":
			err = n.sendSlack(ctx, url, ev)
		case "teams":
			err = n.sendTeams(ctx, url, ev)
		case "http":
			err = n.sendHTTP(ctx, url, ev)
		default:
			slog.Warn("notify: unknown webhook type, skipping", "type", wh.Type)
			continue
		}

		if err != nil {
			slog.Error("notify: webhook delivery failed", "type", wh.Type, "kind", ev.Kind, "err", err)
			if first == nil {
				first = fmt.Errorf("notify: %s: %w", wh.Type, err)
			}
			continue
		}
		slog.Debug("notify: webhook delivered", "type", wh.Type, "kind", ev.Kind)
	}
	return first
}
