package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/simleague/standings/server/internal/config"
	"github.com/simleague/standings/server/internal/store"
)

type capture struct {
	mu     sync.Mutex
	bodies []string
}

func (c *capture) server(t *testing.T, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type: got %q", ct)
		}
		b, _ := io.ReadAll(r.Body)
		c.mu.Lock()
		c.bodies = append(c.bodies, string(b))
		c.mu.Unlock()
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func (c *capture) all() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.bodies...)
}

func event() Event {
	return Event{
		Kind:         "race",
		Entries:      2,
		Created:      2,
		BonusDrivers: []string{"A"},
		Standings: []store.Standing{
			{DriverID: "A", FullName: "Driver A", ShortName: "AAA", Points: 31, FastestLaps: 1},
			{DriverID: "B", FullName: "Driver B", ShortName: "BBB", Points: 26},
		},
	}
}

func TestSend_NoWebhooks(t *testing.T) {
	n := New(config.NotifyConfig{Top: 5})
	if n.Enabled() {
		t.Error("Enabled: got true with no webhooks")
	}
	if err := n.Send(context.Background(), event()); err != nil {
		t.Errorf("Send: %v", err)
	}
	if n.Top() != 5 {
		t.Errorf("Top: got %d, want 5", n.Top())
	}
}

func TestSend_Slack(t *testing.T) {
	var c capture
	srv := c.server(t, http.StatusOK)
	t.Setenv("TEST_SLACK_URL", srv.URL)

	n := New(config.NotifyConfig{Webhooks: []config.WebhookConfig{{Type: "slack", URLEnv: "TEST_SLACK_URL"}}})
	if err := n.Send(context.Background(), event()); err != nil {
		t.Fatalf("Send: %v", err)
	}

	bodies := c.all()
	if len(bodies) != 1 {
		t.Fatalf("deliveries: got %d, want 1", len(bodies))
	}
	var msg map[string]string
	if err := json.Unmarshal([]byte(bodies[0]), &msg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	text := msg["text"]
	if !strings.Contains(text, "Race results loaded: 2 entries, 2 new drivers") {
		t.Errorf("headline missing: %q", text)
	}
	if !strings.Contains(text, "Driver A") || !strings.Contains(text, "AAA") {
		t.Errorf("table missing: %q", text)
	}
}

func TestSend_TeamsAndHTTP(t *testing.T) {
	var teams, generic capture
	t.Setenv("TEST_TEAMS_URL", teams.server(t, http.StatusOK).URL)
	t.Setenv("TEST_HTTP_URL", generic.server(t, http.StatusAccepted).URL)

	n := New(config.NotifyConfig{Webhooks: []config.WebhookConfig{
		{Type: "teams", URLEnv: "TEST_TEAMS_URL"},
		{Type: "http", URLEnv: "TEST_HTTP_URL"},
	}})
	ev := event()
	ev.Kind = "qualifying"
	if err := n.Send(context.Background(), ev); err != nil {
		t.Fatalf("Send: %v", err)
	}

	if got := teams.all(); len(got) != 1 || !strings.Contains(got[0], `"@type":"MessageCard"`) ||
		!strings.Contains(got[0], "Qualifying results loaded") {
		t.Errorf("teams payload: %v", got)
	}

	got := generic.all()
	if len(got) != 1 {
		t.Fatalf("http deliveries: got %d, want 1", len(got))
	}
	var payload struct {
		Event     Event         `json:"event"`
		Standings []standingRow `json:"standings"`
	}
	if err := json.Unmarshal([]byte(got[0]), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Event.Kind != "qualifying" || payload.Event.Created != 2 {
		t.Errorf("event: got %+v", payload.Event)
	}
	if len(payload.Standings) != 2 || payload.Standings[0].SteamID != "A" || payload.Standings[0].Points != 31 {
		t.Errorf("standings: got %+v", payload.Standings)
	}
}

func TestSend_FailureReportedButOthersDelivered(t *testing.T) {
	var bad, good capture
	t.Setenv("TEST_BAD_URL", bad.server(t, http.StatusInternalServerError).URL)
	t.Setenv("TEST_GOOD_URL", good.server(t, http.StatusOK).URL)

	n := New(config.NotifyConfig{Webhooks: []config.WebhookConfig{
		{Type: "http", URLEnv: "TEST_BAD_URL"},
		{Type: "slack", URLEnv: "TEST_GOOD_URL"},
	}})
	err := n.Send(context.Background(), event())
	if err == nil || !strings.Contains(err.Error(), "HTTP 500") {
		t.Errorf("Send: got %v, want HTTP 500 error", err)
	}
	if len(good.all()) != 1 {
		t.Error("second webhook should still be delivered")
	}
}

func TestSend_UnsetURLSkipped(t *testing.T) {
	n := New(config.NotifyConfig{Webhooks: []config.WebhookConfig{{Type: "slack", URLEnv: "TEST_UNSET_WEBHOOK_URL"}}})
	if !n.Enabled() {
		t.Error("Enabled: got false with one webhook")
	}
	if err := n.Send(context.Background(), event()); err != nil {
		t.Errorf("Send: %v", err)
	}
}

func TestSetConfig_ReplacesTargets(t *testing.T) {
	var first, second capture
	t.Setenv("TEST_FIRST_URL", first.server(t, http.StatusOK).URL)
	t.Setenv("TEST_SECOND_URL", second.server(t, http.StatusOK).URL)

	n := New(config.NotifyConfig{Webhooks: []config.WebhookConfig{{Type: "http", URLEnv: "TEST_FIRST_URL"}}})
	n.SetConfig(config.NotifyConfig{Top: 3, Webhooks: []config.WebhookConfig{{Type: "http", URLEnv: "TEST_SECOND_URL"}}})

	if err := n.Send(context.Background(), event()); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(first.all()) != 0 || len(second.all()) != 1 {
		t.Errorf("deliveries: first=%d second=%d, want 0 and 1", len(first.all()), len(second.all()))
	}
	if n.Top() != 3 {
		t.Errorf("Top: got %d, want 3", n.Top())
	}
}
