// Package reconcile converges stored artists, stages and events on a feed
// snapshot and runs that convergence on a schedule.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"festivalrisk/internal/feed"
	"festivalrisk/internal/festival"
	"festivalrisk/internal/models"
	"festivalrisk/internal/store"
)

// ErrEmptySnapshot is returned for a snapshot without artists. Applying it
// would prune every stored artist, so the cycle stops before writing.
var ErrEmptySnapshot = errors.New("feed snapshot contains no artists")

// Store opens the transaction a cycle writes through.
type Store interface {
	BeginSync(ctx context.Context) (store.SyncTx, error)
}

// Report counts what one cycle did.
type Report struct {
	ArtistsInserted  int  `json:"artists_inserted"`
	ArtistsUpdated   int  `json:"artists_updated"`
	ArtistsDeleted   int  `json:"artists_deleted"`
	ArtistsSkipped   int  `json:"artists_skipped"`
	FeedItemsSkipped int  `json:"feed_items_skipped"`
	StagesCreated    int  `json:"stages_created"`
	EventsReplaced   bool `json:"events_replaced"`
	EventsDeleted    int  `json:"events_deleted"`
	EventsInserted   int  `json:"events_inserted"`
	EventParseErrors int  `json:"event_parse_errors"`
	EventsUnresolved int  `json:"events_unresolved"`
	EventEndsDropped int  `json:"event_ends_dropped"`
}

// Options configures an Engine.
type Options struct {
	// SentinelStage names the stage used for events without a location.
	SentinelStage string
	// Location is used for feed timestamps that carry no offset.
	Location *time.Location
	Logger   zerolog.Logger
	Now      func() time.Time
}

// Engine applies feed snapshots to storage.
type Engine struct {
	store    Store
	sentinel string
	loc      *time.Location
	logger   zerolog.Logger
	now      func() time.Time
}

// NewEngine creates an engine writing through s.
func NewEngine(s Store, opts Options) *Engine {
	if opts.SentinelStage == "" {
		opts.SentinelStage = "TBA"
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Engine{
		store:    s,
		sentinel: opts.SentinelStage,
		loc:      opts.Location,
		logger:   opts.Logger,
		now:      opts.Now,
	}
}

// Run applies one snapshot inside a single transaction: artist upsert,
// stale artist pruning, stage creation and finally the event replacement.
// Any write error rolls the whole cycle back.
func (e *Engine) Run(ctx context.Context, snap feed.Snapshot) (Report, error) {
	rep := Report{FeedItemsSkipped: len(snap.Skipped)}
	if len(snap.Artists) == 0 {
		return rep, ErrEmptySnapshot
	}

	tx, err := e.store.BeginSync(ctx)
	if err != nil {
		return rep, err
	}
	defer func() {
		if tx != nil {
			_ = tx.Rollback()
		}
	}()

	existing, err := tx.ArtistIDs(ctx)
	if err != nil {
		return rep, err
	}

	ap := planArtists(snap, existing)
	rep.ArtistsSkipped = ap.skipped
	for _, ref := range ap.skippedRefs {
		e.logger.Warn().Str("artist", ref).Msg("skipping artist row without slug or title, or with a repeated slug")
	}

	now := e.now().UTC()
	if _, err := tx.InsertArtists(ctx, ap.inserts, now); err != nil {
		return rep, err
	}
	rep.ArtistsInserted = len(ap.inserts)
	if _, err := tx.UpdateArtists(ctx, ap.updates, now); err != nil {
		return rep, err
	}
	rep.ArtistsUpdated = len(ap.updates)

	deleted, err := tx.DeleteArtists(ctx, ap.stale)
	if err != nil {
		return rep, err
	}
	rep.ArtistsDeleted = int(deleted)

	if len(snap.Events) > 0 {
		if err := e.replaceEvents(ctx, tx, snap.Events, ap.accepted, &rep); err != nil {
			return rep, err
		}
	}

	if err := tx.Commit(); err != nil {
		return rep, err
	}
	tx = nil

	return rep, nil
}

func (e *Engine) replaceEvents(ctx context.Context, tx store.SyncTx, events []feed.Event, accepted map[string]struct{}, rep *Report) error {
	parsed := parseEvents(events, accepted, e.loc, e.sentinel)
	rep.EventParseErrors = parsed.parseErrors
	rep.EventsUnresolved = parsed.unresolved
	rep.EventEndsDropped = parsed.endsDropped
	for _, d := range parsed.dropped {
		e.logger.Warn().Str("artist", d.slug).Str("reason", d.reason).Msg("dropping feed event")
	}

	// Stages first: event rows need a valid stage id.
	stageIDs, err := tx.StageIDs(ctx)
	if err != nil {
		return err
	}
	if missing := missingStages(parsed.stageNames, stageIDs); len(missing) > 0 {
		created, err := tx.InsertStages(ctx, missing)
		if err != nil {
			return err
		}
		rep.StagesCreated = int(created)
		if stageIDs, err = tx.StageIDs(ctx); err != nil {
			return err
		}
	}

	rows := make([]models.Event, 0, len(parsed.events))
	for _, pe := range parsed.events {
		id, ok := stageIDs[pe.stage]
		if !ok {
			rep.EventsUnresolved++
			e.logger.Warn().Str("artist", pe.event.ArtistSlug).Str("stage", pe.stage).Msg("stage could not be resolved")
			continue
		}
		ev := pe.event
		ev.StageID = id
		rows = append(rows, ev)
	}

	deleted, err := tx.DeleteEvents(ctx)
	if err != nil {
		return err
	}
	inserted, err := tx.InsertEvents(ctx, rows)
	if err != nil {
		return err
	}
	rep.EventsReplaced = true
	rep.EventsDeleted = int(deleted)
	rep.EventsInserted = int(inserted)
	return nil
}

type artistPlan struct {
	inserts     []models.Artist
	updates     []models.Artist
	stale       []string
	accepted    map[string]struct{}
	skipped     int
	skippedRefs []string
}

// planArtists splits the snapshot into inserts and updates keyed by slug
// and lists the stored slugs the feed no longer reports.
func planArtists(snap feed.Snapshot, existing map[string]int64) artistPlan {
	p := artistPlan{accepted: make(map[string]struct{}, len(snap.Artists))}
	for _, a := range snap.Artists {
		slug := strings.TrimSpace(a.Slug)
		title := strings.TrimSpace(a.Title)
		if slug == "" || title == "" {
			p.skipped++
			p.skippedRefs = append(p.skippedRefs, slug)
			continue
		}
		if _, dup := p.accepted[slug]; dup {
			p.skipped++
			p.skippedRefs = append(p.skippedRefs, slug)
			continue
		}
		p.accepted[slug] = struct{}{}

		row := models.Artist{
			Slug:        slug,
			Title:       title,
			Nationality: a.Nationality,
			Description: a.Description,
			ImageURL:    a.ImageURL,
			SpotifyLink: a.SpotifyLink,
		}
		if _, ok := existing[slug]; ok {
			p.updates = append(p.updates, row)
		} else {
			p.inserts = append(p.inserts, row)
		}
	}

	reported := snap.Slugs
	if reported == nil {
		reported = p.accepted
	}
	for slug := range existing {
		if _, ok := reported[slug]; !ok {
			p.stale = append(p.stale, slug)
		}
	}
	sort.Strings(p.stale)
	return p
}

type pendingEvent struct {
	event models.Event
	stage string
}

type droppedEvent struct {
	slug   string
	reason string
}

type parsedEvents struct {
	events      []pendingEvent
	stageNames  []string
	dropped     []droppedEvent
	parseErrors int
	unresolved  int
	endsDropped int
}

// parseEvents normalises feed events. Rows with an unparseable start time
// or an artist outside the accepted set are dropped and counted.
func parseEvents(events []feed.Event, accepted map[string]struct{}, loc *time.Location, sentinel string) parsedEvents {
	var out parsedEvents
	seenStage := make(map[string]struct{})
	for _, fe := range events {
		slug := strings.TrimSpace(fe.ArtistSlug)
		if _, ok := accepted[slug]; !ok {
			out.unresolved++
			out.dropped = append(out.dropped, droppedEvent{slug: slug, reason: "unknown artist"})
			continue
		}
		start, err := festival.ParseTimestamp(fe.StartTime, loc)
		if err != nil {
			out.parseErrors++
			out.dropped = append(out.dropped, droppedEvent{slug: slug, reason: fmt.Sprintf("start time: %v", err)})
			continue
		}

		ev := models.Event{ArtistSlug: slug, StartTime: start}
		if strings.TrimSpace(fe.EndTime) != "" {
			end, err := festival.ParseTimestamp(fe.EndTime, loc)
			if err != nil {
				out.endsDropped++
			} else {
				ev.EndTime = &end
			}
		}

		stage := strings.TrimSpace(fe.StageName)
		if stage == "" {
			stage = sentinel
		}
		if _, ok := seenStage[stage]; !ok {
			seenStage[stage] = struct{}{}
			out.stageNames = append(out.stageNames, stage)
		}
		out.events = append(out.events, pendingEvent{event: ev, stage: stage})
	}
	return out
}

func missingStages(names []string, known map[string]int64) []string {
	var missing []string
	for _, n := range names {
		if _, ok := known[n]; !ok {
			missing = append(missing, n)
		}
	}
	return missing
}
