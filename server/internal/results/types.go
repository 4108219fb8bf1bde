package results

import "math"

// Kind selects race or qualifying results in the upstream listing.
type Kind string

const (
	Race       Kind = "R"
	Qualifying Kind = "Q"
)

// String returns a human-readable name for logs and metric labels.
func (k Kind) String() string {
	switch k {
	case Race:
		return "race"
	case Qualifying:
		return "qualifying"
	default:
		return "unknown"
	}
}

// NoLap is the lap time the racing server reports for a driver, or a session,
// without a single valid lap.
const NoLap int64 = math.MaxInt32

// Entry is one driver's line in a session leaderboard.
type Entry struct {
	// Position is the 1-based finishing position.
	Position  int
	PlayerID  string
	FirstName string
	LastName  string
	ShortName string
	// BestLap is the driver's best lap in milliseconds.
	BestLap int64
}

// DriverID returns the stable driver key: the player id without its
// one-character type marker. Entries produced by this package always carry
// a player id of at least two characters.
func (e Entry) DriverID() string {
	return e.PlayerID[1:]
}

// Session is a parsed result document.
type Session struct {
	Kind Kind
	// Source is the URL the document was downloaded from.
	Source string
	// BestLap is the fastest lap of the whole session in milliseconds.
	BestLap int64
	// Entries is ordered by finishing position.
	Entries []Entry
}

// HasFastestLap reports whether e set the session's fastest lap. Every driver
// sharing the exact best time qualifies.
func (s *Session) HasFastestLap(e Entry) bool {
	return s.BestLap != NoLap && e.BestLap == s.BestLap
}

// --- upstream wire format ---------------------------------------------------

type listResponse struct {
	Results []listItem `json:"results"`
}

type listItem struct {
	ResultsJSONURL string `json:"results_json_url"`
}

type resultDocument struct {
	SessionResult *sessionResult `json:"sessionResult"`
}

type sessionResult struct {
	LeaderBoardLines *[]leaderBoardLine `json:"leaderBoardLines"`
	BestLap          *int64             `json:"bestlap"`
}

type leaderBoardLine struct {
	CurrentDriver *currentDriver `json:"currentDriver"`
	Timing        *timing        `json:"timing"`
}

type currentDriver struct {
	PlayerID  string `json:"playerId"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	ShortName string `json:"shortName"`
}

type timing struct {
	BestLap *int64 `json:"bestLap"`
}
