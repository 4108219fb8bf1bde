package api

import (
	"time"

	"github.com/simleague/standings/server/internal/store"
)

// LoadRequest is the body of POST /load-result and POST /load-result-qualifier.
type LoadRequest struct {
	AdminPassword string `json:"admin_password"`

	// Result optionally names a specific result file on the racing server.
	// When empty the most recent session of the endpoint's kind is loaded.
	Result string `json:"result,omitempty"`
}

// StandingResponse is one row of GET /standings.
type StandingResponse struct {
	SteamID       string `json:"steam_id"`
	Name          string `json:"name"`
	ShortName     string `json:"short_name"`
	Points        int    `json:"points"`
	PolePositions int    `json:"pole_positions"`
	FastestLaps   int    `json:"fastest_laps"`
}

// SnapshotResponse is the full standings table with its generation time. It
// is the payload streamed to websocket clients.
type SnapshotResponse struct {
	Standings   []StandingResponse `json:"standings"`
	GeneratedAt string             `json:"generated_at"` // RFC3339
}

// HealthResponse is the payload for GET /healthz.
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Drivers  int    `json:"drivers"`
}

// errorResponse is the JSON error body.
type errorResponse struct {
	Detail string `json:"detail"`
}

// ToStandings maps store rows to their JSON representation. The result is
// never nil so an empty table encodes as [].
func ToStandings(rows []store.Standing) []StandingResponse {
	out := make([]StandingResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, StandingResponse{
			SteamID:       r.DriverID,
			Name:          r.FullName,
			ShortName:     r.ShortName,
			Points:        r.Points,
			PolePositions: r.PolePositions,
			FastestLaps:   r.FastestLaps,
		})
	}
	return out
}

// BuildSnapshot wraps rows in a SnapshotResponse stamped with now.
func BuildSnapshot(rows []store.Standing, now time.Time) SnapshotResponse {
	return SnapshotResponse{
		Standings:   ToStandings(rows),
		GeneratedAt: now.UTC().Format(time.RFC3339),
	}
}
