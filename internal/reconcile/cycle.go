package reconcile

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"festivalrisk/internal/feed"
)

// Cycle results reported to the Recorder.
const (
	ResultSuccess   = "success"
	ResultFailed    = "failed"
	ResultFetch     = "fetch_error"
	ResultEmptyFeed = "empty_feed"
	ResultOverlap   = "skipped_overlap"
)

// Fetcher retrieves the current feed snapshot.
type Fetcher interface {
	Fetch(ctx context.Context) (feed.Snapshot, error)
}

// Recorder receives the outcome of every cycle.
type Recorder interface {
	RecordCycle(result string, rep Report, elapsed time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) RecordCycle(string, Report, time.Duration) {}

// Syncer runs a fetch followed by an engine run.
type Syncer struct {
	fetcher  Fetcher
	engine   *Engine
	recorder Recorder
	logger   zerolog.Logger
	now      func() time.Time
}

// NewSyncer wires a fetcher to an engine. A nil recorder discards results.
func NewSyncer(f Fetcher, e *Engine, r Recorder, logger zerolog.Logger) *Syncer {
	if r == nil {
		r = nopRecorder{}
	}
	return &Syncer{fetcher: f, engine: e, recorder: r, logger: logger, now: time.Now}
}

// RunOnce performs a single sync cycle. The fetch is bounded by the feed
// client's own timeout; storage is left untouched when it fails.
func (s *Syncer) RunOnce(ctx context.Context) (Report, error) {
	started := s.now()

	snap, err := s.fetcher.Fetch(ctx)
	if err != nil {
		elapsed := s.now().Sub(started)
		s.recorder.RecordCycle(ResultFetch, Report{}, elapsed)
		s.logger.Error().Err(err).Dur("elapsed", elapsed).Msg("feed fetch failed")
		return Report{}, err
	}

	rep, err := s.engine.Run(ctx, snap)
	elapsed := s.now().Sub(started)
	switch {
	case errors.Is(err, ErrEmptySnapshot):
		s.recorder.RecordCycle(ResultEmptyFeed, rep, elapsed)
		s.logger.Warn().Dur("elapsed", elapsed).Msg("feed returned no artists, keeping stored data")
		return rep, err
	case err != nil:
		s.recorder.RecordCycle(ResultFailed, rep, elapsed)
		s.logger.Error().Err(err).Dur("elapsed", elapsed).Msg("sync cycle rolled back")
		return rep, err
	}

	s.recorder.RecordCycle(ResultSuccess, rep, elapsed)
	s.logger.Info().
		Int("artists_inserted", rep.ArtistsInserted).
		Int("artists_updated", rep.ArtistsUpdated).
		Int("artists_deleted", rep.ArtistsDeleted).
		Int("stages_created", rep.StagesCreated).
		Int("events_inserted", rep.EventsInserted).
		Int("events_dropped", rep.EventParseErrors+rep.EventsUnresolved).
		Int("feed_items_skipped", rep.FeedItemsSkipped).
		Bool("events_replaced", rep.EventsReplaced).
		Dur("elapsed", elapsed).
		Msg("sync cycle committed")
	return rep, nil
}
