package ingest

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/simleague/standings/server/internal/auth"
	"github.com/simleague/standings/server/internal/metrics"
	"github.com/simleague/standings/server/internal/notify"
	"github.com/simleague/standings/server/internal/results"
	"github.com/simleague/standings/server/internal/standings"
	"github.com/simleague/standings/server/internal/store"
)

// notifyTimeout bounds one round of webhook deliveries.
const notifyTimeout = 15 * time.Second

// Fetcher retrieves a parsed session from the racing server.
// *results.Client implements it.
type Fetcher interface {
	Latest(ctx context.Context, kind results.Kind) (*results.Session, error)
	Download(ctx context.Context, kind results.Kind, name string) (*results.Session, error)
}

// Applier merges a session into the standings table.
// *standings.Aggregator implements it.
type Applier interface {
	Apply(ctx context.Context, sess *results.Session) (standings.Summary, error)
}

// Reader reads the committed table. *store.Store implements it.
type Reader interface {
	List(ctx context.Context, limit int) ([]store.Standing, error)
	Count(ctx context.Context) (int, error)
}

// Broadcaster is told when the table changed. *ws.Hub implements it.
type Broadcaster interface {
	Notify()
}

// Notifier delivers post-ingestion messages. *notify.Notifier implements it.
type Notifier interface {
	Enabled() bool
	Top() int
	Send(ctx context.Context, ev notify.Event) error
}

// Options carries the optional collaborators of a Service. Nil fields are
// skipped.
type Options struct {
	Metrics  *metrics.Registry
	Hub      Broadcaster
	Notifier Notifier
}

// Request is one admin load.
type Request struct {
	Kind     results.Kind
	Password string
	// Result names a specific result file; empty means the latest session.
	Result string
}

// Service runs the ingestion pipeline: authorize, fetch, apply, then fan the
// committed change out to metrics, websocket clients and webhooks.
type Service struct {
	guard *auth.Guard
	fetch Fetcher
	agg   Applier
	store Reader
	opts  Options

	wg sync.WaitGroup
}

// New wires a Service.
func New(guard *auth.Guard, fetch Fetcher, agg Applier, st Reader, opts Options) *Service {
	return &Service{guard: guard, fetch: fetch, agg: agg, store: st, opts: opts}
}

// Load authorizes req, fetches the session and applies it in one store
// transaction. Nothing is written unless every step succeeds.
//
// Returned errors wrap auth.ErrUnauthorized, the results sentinels, or a store
// failure from the aggregator.
func (s *Service) Load(ctx context.Context, req Request) (standings.Summary, error) {
	kind := req.Kind.String()

	if err := s.guard.Check(req.Password); err != nil {
		slog.Warn("ingest: unauthorized load rejected", "kind", kind)
		s.observe(kind, metrics.OutcomeUnauthorized)
		return standings.Summary{}, err
	}

	sess, err := s.fetchSession(ctx, req)
	if err != nil {
		slog.Error("ingest: fetch failed", "kind", kind, "result", req.Result, "err", err)
		s.observe(kind, outcome(err))
		return standings.Summary{}, err
	}

	sum, err := s.agg.Apply(ctx, sess)
	if err != nil {
		slog.Error("ingest: apply failed", "kind", kind, "source", sess.Source, "err", err)
		s.observe(kind, metrics.OutcomeStore)
		return standings.Summary{}, err
	}

	s.observe(kind, metrics.OutcomeOK)
	s.committed(ctx, sum, sess.Source)
	return sum, nil
}

// Wait blocks until in-flight webhook deliveries finish.
func (s *Service) Wait() {
	s.wg.Wait()
}

func (s *Service) fetchSession(ctx context.Context, req Request) (*results.Session, error) {
	if req.Result != "" {
		return s.fetch.Download(ctx, req.Kind, req.Result)
	}
	return s.fetch.Latest(ctx, req.Kind)
}

// committed runs after a successful transaction. Its failures are logged only;
// the ingestion itself has already succeeded.
func (s *Service) committed(ctx context.Context, sum standings.Summary, source string) {
	kind := sum.Kind.String()

	if m := s.opts.Metrics; m != nil {
		m.AddApplied(kind, sum.Created, sum.PointsAwarded)
		if n, err := s.store.Count(ctx); err == nil {
			m.SetStandingsRows(n)
		} else {
			slog.Warn("ingest: count standings", "err", err)
		}
	}

	if s.opts.Hub != nil {
		s.opts.Hub.Notify()
	}

	if n := s.opts.Notifier; n != nil && n.Enabled() {
		top, err := s.store.List(ctx, n.Top())
		if err != nil {
			slog.Warn("ingest: list standings for notification", "err", err)
			return
		}
		ev := notify.Event{
			Kind:         kind,
			Source:       source,
			Entries:      sum.Entries,
			Created:      sum.Created,
			Updated:      sum.Updated,
			BonusDrivers: sum.BonusDrivers,
			Standings:    top,
			At:           time.Now().UTC(),
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
			defer cancel()
			n.Send(ctx, ev) //nolint:errcheck // logged by the notifier
		}()
	}
}

func (s *Service) observe(kind, outcome string) {
	if s.opts.Metrics != nil {
		s.opts.Metrics.ObserveIngestion(kind, outcome)
	}
}

// outcome classifies a fetch error for the ingestion counter.
func outcome(err error) string {
	switch {
	case errors.Is(err, results.ErrInvalidResultName):
		return metrics.OutcomeInvalid
	case errors.Is(err, results.ErrNoResultsFound):
		return metrics.OutcomeNoResults
	case errors.Is(err, results.ErrMalformedData):
		return metrics.OutcomeMalformed
	default:
		return metrics.OutcomeUpstream
	}
}
