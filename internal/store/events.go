package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"festivalrisk/internal/models"
)

const eventDetailQuery = `
		SELECT e.id, e.artist_slug, e.stage_id, e.start_time, e.end_time, a.title, s.name
		FROM events e
		JOIN artists a ON a.slug = e.artist_slug
		JOIN stages s ON s.id = e.stage_id
`

// EventsBetween returns events starting in [start, end) with artist and
// stage resolved, ordered by start time.
func (s *Store) EventsBetween(ctx context.Context, start, end time.Time) ([]models.EventDetail, error) {
	return s.queryEvents(ctx, eventDetailQuery+`
		WHERE e.start_time >= $1 AND e.start_time < $2
		ORDER BY e.start_time ASC, s.name ASC
	`, start, end)
}

// EventsForArtist returns the schedule of one artist.
func (s *Store) EventsForArtist(ctx context.Context, slug string) ([]models.EventDetail, error) {
	return s.queryEvents(ctx, eventDetailQuery+`
		WHERE e.artist_slug = $1
		ORDER BY e.start_time ASC
	`, slug)
}

// ListEventDetails returns the whole schedule.
func (s *Store) ListEventDetails(ctx context.Context) ([]models.EventDetail, error) {
	return s.queryEvents(ctx, eventDetailQuery+`
		ORDER BY e.start_time ASC, s.name ASC
	`)
}

// EventStartTimes lists the distinct start times in the schedule.
func (s *Store) EventStartTimes(ctx context.Context) ([]time.Time, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT start_time
		FROM events
		ORDER BY start_time ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("select start times: %w", err)
	}
	defer rows.Close()

	var starts []time.Time
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scan start time: %w", err)
		}
		starts = append(starts, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate start times: %w", err)
	}
	return starts, nil
}

func (s *Store) queryEvents(ctx context.Context, query string, args ...any) ([]models.EventDetail, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select events: %w", err)
	}
	defer rows.Close()

	var events []models.EventDetail
	for rows.Next() {
		var (
			e   models.EventDetail
			end sql.NullTime
		)
		if err := rows.Scan(&e.ID, &e.ArtistSlug, &e.StageID, &e.StartTime, &end, &e.ArtistTitle, &e.StageName); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if end.Valid {
			t := end.Time
			e.EndTime = &t
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}
