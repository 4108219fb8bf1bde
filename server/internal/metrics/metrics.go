package metrics

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"sort"
	"sync"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"
)

// Metric names exposed on /metrics.
const (
	IngestionsTotal     = "league_ingestions_total"
	DriversCreatedTotal = "league_drivers_created_total"
	PointsAwardedTotal  = "league_points_awarded_total"
	LastIngestion       = "league_last_ingestion_timestamp_seconds"
	StandingsRows       = "league_standings_rows"
)

// Outcome labels for IngestionsTotal.
const (
	OutcomeOK           = "ok"
	OutcomeUnauthorized = "unauthorized"
	OutcomeInvalid      = "invalid_request"
	OutcomeUpstream     = "upstream_error"
	OutcomeNoResults    = "no_results"
	OutcomeMalformed    = "malformed"
	OutcomeStore        = "store_error"
)

type kindOutcome struct{ kind, outcome string }

// Registry accumulates ingestion counters and renders them in the
// Prometheus text exposition format. It is safe for concurrent use.
type Registry struct {
	mu         sync.Mutex
	ingestions map[kindOutcome]float64
	created    map[string]float64
	awarded    map[string]float64
	last       map[string]float64
	rows       float64
	now        func() time.Time
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{
		ingestions: make(map[kindOutcome]float64),
		created:    make(map[string]float64),
		awarded:    make(map[string]float64),
		last:       make(map[string]float64),
		now:        time.Now,
	}
}

// ObserveIngestion counts one ingestion attempt of kind with its outcome.
// Successful attempts also update the last-ingestion timestamp.
func (r *Registry) ObserveIngestion(kind, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ingestions[kindOutcome{kind, outcome}]++
	if outcome == OutcomeOK {
		r.last[kind] = float64(r.now().Unix())
	}
}

// AddApplied records the drivers created and points awarded by one ingestion.
func (r *Registry) AddApplied(kind string, created, points int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created[kind] += float64(created)
	r.awarded[kind] += float64(points)
}

// SetStandingsRows records the current size of the standings table.
func (r *Registry) SetStandingsRows(n int) {
	r.mu.Lock()
	r.rows = float64(n)
	r.mu.Unlock()
}

// Families returns a point-in-time copy of all metrics, sorted by name.
func (r *Registry) Families() []*dto.MetricFamily {
	r.mu.Lock()
	defer r.mu.Unlock()

	ingestions := make([]*dto.Metric, 0, len(r.ingestions))
	keys := make([]kindOutcome, 0, len(r.ingestions))
	for k := range r.ingestions {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].kind != keys[j].kind {
			return keys[i].kind < keys[j].kind
		}
		return keys[i].outcome < keys[j].outcome
	})
	for _, k := range keys {
		ingestions = append(ingestions, counter(r.ingestions[k], "kind", k.kind, "outcome", k.outcome))
	}

	return []*dto.MetricFamily{
		family(DriversCreatedTotal, "Drivers added to the standings table.", dto.MetricType_COUNTER,
			byKind(r.created, counter)),
		family(IngestionsTotal, "Result ingestions by session kind and outcome.", dto.MetricType_COUNTER,
			ingestions),
		family(LastIngestion, "Unix time of the last successful ingestion.", dto.MetricType_GAUGE,
			byKind(r.last, gauge)),
		family(PointsAwardedTotal, "League points awarded by ingestions.", dto.MetricType_COUNTER,
			byKind(r.awarded, counter)),
		family(StandingsRows, "Drivers currently in the standings table.", dto.MetricType_GAUGE,
			[]*dto.Metric{gauge(r.rows)}),
	}
}

// WriteText writes all metric families in the text exposition format.
func (r *Registry) WriteText(w io.Writer) error {
	for _, mf := range r.Families() {
		if len(mf.Metric) == 0 {
			continue
		}
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("metrics: encode %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

// ServeHTTP serves the text exposition on GET.
func (r *Registry) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var buf bytes.Buffer
	if err := r.WriteText(&buf); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", string(expfmt.NewFormat(expfmt.TypeTextPlain)))
	w.Write(buf.Bytes()) //nolint:errcheck
}

// --- helpers ----------------------------------------------------------------

func family(name, help string, typ dto.MetricType, ms []*dto.Metric) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name:   proto.String(name),
		Help:   proto.String(help),
		Type:   typ.Enum(),
		Metric: ms,
	}
}

func byKind(values map[string]float64, mk func(float64, ...string) *dto.Metric) []*dto.Metric {
	kinds := make([]string, 0, len(values))
	for k := range values {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	out := make([]*dto.Metric, 0, len(kinds))
	for _, k := range kinds {
		out = append(out, mk(values[k], "kind", k))
	}
	return out
}

func counter(v float64, labels ...string) *dto.Metric {
	return &dto.Metric{Label: labelPairs(labels), Counter: &dto.Counter{Value: proto.Float64(v)}}
}

func gauge(v float64, labels ...string) *dto.Metric {
	return &dto.Metric{Label: labelPairs(labels), Gauge: &dto.Gauge{Value: proto.Float64(v)}}
}

// labelPairs turns alternating name, value strings into label pairs.
func labelPairs(kv []string) []*dto.LabelPair {
	out := make([]*dto.LabelPair, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		out = append(out, &dto.LabelPair{Name: proto.String(kv[i]), Value: proto.String(kv[i+1])})
	}
	return out
}
