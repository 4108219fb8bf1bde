package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/simleague/standings/server/internal/standings"
	"github.com/simleague/standings/server/internal/store"
)

type standingRow struct {
	SteamID       string `json:"steam_id"`
	Name          string `json:"name"`
	ShortName     string `json:"short_name"`
	Points        int    `json:"points"`
	PolePositions int    `json:"pole_positions"`
	FastestLaps   int    `json:"fastest_laps"`
}

func (n *Notifier) sendSlack(ctx context.Context, url string, ev Event) error {
	body, _ := json.Marshal(map[string]string{
		"text": fmt.Sprintf("*%s*\n```\n%s\n```", headline(ev), standings.Table(ev.Standings)),
	})
	return n.post(ctx, url, body)
}

func (n *Notifier) sendTeams(ctx context.Context, url string, ev Event) error {
	payload := map[string]interface{}{
		"@type":      "MessageCard",
		"@context":   "http://schema.org/extensions",
		"themeColor": kindColor(ev.Kind),
		"summary":    headline(ev),
		"title":      headline(ev),
		"text":       "<pre>" + standings.Table(ev.Standings) + "</pre>",
	}
	body, _ := json.Marshal(payload)
	return n.post(ctx, url, body)
}

func (n *Notifier) sendHTTP(ctx context.Context, url string, ev Event) error {
	rows := make([]standingRow, 0, len(ev.Standings))
	for _, s := range ev.Standings {
		rows = append(rows, toRow(s))
	}
	body, _ := json.Marshal(map[string]interface{}{"event": ev, "standings": rows})
	return n.post(ctx, url, body)
}

func (n *Notifier) post(ctx context.Context, url string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("http post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned HTTP %d", resp.StatusCode)
	}
	return nil
}

func headline(ev Event) string {
	what := "Race"
	if ev.Kind == "qualifying" {
		what = "Qualifying"
	}
	return fmt.Sprintf("%s results loaded: %d entries, %d new drivers", what, ev.Entries, ev.Created)
}

func kindColor(kind string) string {
	if kind == "qualifying" {
		return "FFAB40"
	}
	return "00D4FF"
}

func toRow(s store.Standing) standingRow {
	return standingRow{
		SteamID:       s.DriverID,
		Name:          s.FullName,
		ShortName:     s.ShortName,
		Points:        s.Points,
		PolePositions: s.PolePositions,
		FastestLaps:   s.FastestLaps,
	}
}
