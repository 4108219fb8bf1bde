package standings

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/simleague/standings/server/internal/points"
	"github.com/simleague/standings/server/internal/results"
	"github.com/simleague/standings/server/internal/store"
)

// Updater runs a read-modify-write over the whole standings table as one
// transaction. *store.Store implements it.
type Updater interface {
	Update(ctx context.Context, fn func(*store.Batch) error) error
}

// Summary describes what one ingestion changed.
type Summary struct {
	Kind results.Kind
	// Entries is the number of leaderboard lines processed.
	Entries int
	// Created and Updated count distinct drivers.
	Created int
	Updated int
	// BonusDrivers holds the ids that received the fastest-lap or pole bonus.
	BonusDrivers []string
	// PointsAwarded is the total added across all drivers.
	PointsAwarded int
}

// Aggregator merges session results into the standings table.
type Aggregator struct {
	store Updater
}

// New returns an Aggregator writing through st.
func New(st Updater) *Aggregator {
	return &Aggregator{store: st}
}

// Apply dispatches on the session kind.
func (a *Aggregator) Apply(ctx context.Context, sess *results.Session) (Summary, error) {
	switch sess.Kind {
	case results.Race:
		return a.ApplyRace(ctx, sess)
	case results.Qualifying:
		return a.ApplyQualifying(ctx, sess)
	default:
		return Summary{}, fmt.Errorf("standings: unknown session kind %q", sess.Kind)
	}
}

// ApplyRace adds finishing-position points for every entry, plus the
// fastest-lap bonus and counter for every entry matching the session best lap.
func (a *Aggregator) ApplyRace(ctx context.Context, sess *results.Session) (Summary, error) {
	return a.apply(ctx, results.Race, sess, func(st *store.Standing, e results.Entry) int {
		awarded := points.ForPosition(e.Position)
		if sess.HasFastestLap(e) {
			st.FastestLaps++
			awarded += points.FastestLapBonus
		}
		return awarded
	})
}

// ApplyQualifying awards no position points; entries matching the session
// best lap get a pole position and the pole bonus.
func (a *Aggregator) ApplyQualifying(ctx context.Context, sess *results.Session) (Summary, error) {
	return a.apply(ctx, results.Qualifying, sess, func(st *store.Standing, e results.Entry) int {
		if !sess.HasFastestLap(e) {
			return 0
		}
		st.PolePositions++
		return points.PoleBonus
	})
}

// score mutates the counters of st for entry e and returns the points earned.
type score func(st *store.Standing, e results.Entry) int

func (a *Aggregator) apply(ctx context.Context, kind results.Kind, sess *results.Session, fn score) (Summary, error) {
	var sum Summary
	err := a.store.Update(ctx, func(b *store.Batch) error {
		sum = Summary{Kind: kind, Entries: len(sess.Entries)}
		seen := make(map[string]bool, len(sess.Entries))

		for _, e := range sess.Entries {
			id := e.DriverID()
			st, created := b.GetOrCreate(id, FullName(e.FirstName, e.LastName), e.ShortName)
			if !seen[id] {
				seen[id] = true
				if created {
					sum.Created++
				} else {
					sum.Updated++
				}
			}

			before := st.FastestLaps + st.PolePositions
			awarded := fn(st, e)
			st.Points += awarded
			sum.PointsAwarded += awarded
			if st.FastestLaps+st.PolePositions > before {
				sum.BonusDrivers = append(sum.BonusDrivers, id)
			}
		}
		return nil
	})
	if err != nil {
		return Summary{}, fmt.Errorf("standings: apply %s: %w", kind, err)
	}

	slog.Info("standings: session applied",
		"kind", kind.String(),
		"source", sess.Source,
		"entries", sum.Entries,
		"created", sum.Created,
		"updated", sum.Updated,
		"bonus", len(sum.BonusDrivers),
		"points", sum.PointsAwarded,
	)
	return sum, nil
}
