package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"festivalrisk/internal/models"
)

// SyncTx is the write surface of one reconciliation cycle. Everything runs
// inside a single database transaction that is discarded unless Commit
// succeeds.
type SyncTx interface {
	ArtistIDs(ctx context.Context) (map[string]int64, error)
	StageIDs(ctx context.Context) (map[string]int64, error)
	InsertArtists(ctx context.Context, artists []models.Artist, now time.Time) (int64, error)
	UpdateArtists(ctx context.Context, artists []models.Artist, now time.Time) (int64, error)
	DeleteArtists(ctx context.Context, slugs []string) (int64, error)
	InsertStages(ctx context.Context, names []string) (int64, error)
	DeleteEvents(ctx context.Context) (int64, error)
	InsertEvents(ctx context.Context, events []models.Event) (int64, error)
	Commit() error
	Rollback() error
}

type syncTx struct {
	tx *sql.Tx
}

// BeginSync opens the transaction used by a reconciliation cycle.
func (s *Store) BeginSync(ctx context.Context) (SyncTx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin sync tx: %w", err)
	}
	return &syncTx{tx: tx}, nil
}

func (t *syncTx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("commit sync tx: %w", err)
	}
	return nil
}

func (t *syncTx) Rollback() error {
	return t.tx.Rollback()
}

func (t *syncTx) ArtistIDs(ctx context.Context) (map[string]int64, error) {
	return t.lookup(ctx, `SELECT slug, id FROM artists`)
}

func (t *syncTx) StageIDs(ctx context.Context) (map[string]int64, error) {
	return t.lookup(ctx, `SELECT name, id FROM stages`)
}

func (t *syncTx) lookup(ctx context.Context, query string) (map[string]int64, error) {
	rows, err := t.tx.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("lookup: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var (
			key string
			id  int64
		)
		if err := rows.Scan(&key, &id); err != nil {
			return nil, fmt.Errorf("scan lookup: %w", err)
		}
		out[key] = id
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lookup: %w", err)
	}
	return out, nil
}

// artistArrays splits artists into parallel text arrays for unnest.
func artistArrays(artists []models.Artist) []any {
	cols := make([][]string, 6)
	for _, a := range artists {
		cols[0] = append(cols[0], a.Slug)
		cols[1] = append(cols[1], a.Title)
		cols[2] = append(cols[2], a.Nationality)
		cols[3] = append(cols[3], a.Description)
		cols[4] = append(cols[4], a.ImageURL)
		cols[5] = append(cols[5], a.SpotifyLink)
	}
	args := make([]any, len(cols))
	for i, c := range cols {
		args[i] = pq.Array(c)
	}
	return args
}

func (t *syncTx) InsertArtists(ctx context.Context, artists []models.Artist, now time.Time) (int64, error) {
	if len(artists) == 0 {
		return 0, nil
	}
	args := append(artistArrays(artists), now)
	res, err := t.tx.ExecContext(ctx, `
		INSERT INTO artists (slug, title, nationality, description, image_url, spotify_link, created_at, updated_at)
		SELECT u.slug, u.title, u.nationality, u.description, u.image_url, u.spotify_link, $7, $7
		FROM unnest($1::text[], $2::text[], $3::text[], $4::text[], $5::text[], $6::text[])
			AS u(slug, title, nationality, description, image_url, spotify_link)
	`, args...)
	if err != nil {
		return 0, fmt.Errorf("insert artists: %w", err)
	}
	return res.RowsAffected()
}

func (t *syncTx) UpdateArtists(ctx context.Context, artists []models.Artist, now time.Time) (int64, error) {
	if len(artists) == 0 {
		return 0, nil
	}
	args := append(artistArrays(artists), now)
	res, err := t.tx.ExecContext(ctx, `
		UPDATE artists AS a
		SET title = u.title,
			nationality = u.nationality,
			description = u.description,
			image_url = u.image_url,
			spotify_link = u.spotify_link,
			updated_at = $7
		FROM unnest($1::text[], $2::text[], $3::text[], $4::text[], $5::text[], $6::text[])
			AS u(slug, title, nationality, description, image_url, spotify_link)
		WHERE a.slug = u.slug
	`, args...)
	if err != nil {
		return 0, fmt.Errorf("update artists: %w", err)
	}
	return res.RowsAffected()
}

// DeleteArtists removes artists by slug. Their events and assessments go
// with them through ON DELETE CASCADE.
func (t *syncTx) DeleteArtists(ctx context.Context, slugs []string) (int64, error) {
	if len(slugs) == 0 {
		return 0, nil
	}
	res, err := t.tx.ExecContext(ctx, `
		DELETE FROM artists
		WHERE slug = ANY($1::text[])
	`, pq.Array(slugs))
	if err != nil {
		return 0, fmt.Errorf("delete artists: %w", err)
	}
	return res.RowsAffected()
}

func (t *syncTx) InsertStages(ctx context.Context, names []string) (int64, error) {
	if len(names) == 0 {
		return 0, nil
	}
	res, err := t.tx.ExecContext(ctx, `
		INSERT INTO stages (name)
		SELECT unnest($1::text[])
		ON CONFLICT (name) DO NOTHING
	`, pq.Array(names))
	if err != nil {
		return 0, fmt.Errorf("insert stages: %w", err)
	}
	return res.RowsAffected()
}

func (t *syncTx) DeleteEvents(ctx context.Context) (int64, error) {
	res, err := t.tx.ExecContext(ctx, `DELETE FROM events`)
	if err != nil {
		return 0, fmt.Errorf("delete events: %w", err)
	}
	return res.RowsAffected()
}

func (t *syncTx) InsertEvents(ctx context.Context, events []models.Event) (int64, error) {
	if len(events) == 0 {
		return 0, nil
	}
	var (
		slugs  = make([]string, 0, len(events))
		stages = make([]int64, 0, len(events))
		starts = make([]string, 0, len(events))
		ends   = make([]sql.NullString, 0, len(events))
	)
	for _, e := range events {
		slugs = append(slugs, e.ArtistSlug)
		stages = append(stages, e.StageID)
		starts = append(starts, e.StartTime.Format(time.RFC3339))
		var end sql.NullString
		if e.EndTime != nil {
			end = sql.NullString{String: e.EndTime.Format(time.RFC3339), Valid: true}
		}
		ends = append(ends, end)
	}

	res, err := t.tx.ExecContext(ctx, `
		INSERT INTO events (artist_slug, stage_id, start_time, end_time)
		SELECT u.artist_slug, u.stage_id, u.start_time, u.end_time
		FROM unnest($1::text[], $2::bigint[], $3::timestamptz[], $4::timestamptz[])
			AS u(artist_slug, stage_id, start_time, end_time)
	`, pq.Array(slugs), pq.Array(stages), pq.Array(starts), pq.Array(ends))
	if err != nil {
		return 0, fmt.Errorf("insert events: %w", err)
	}
	return res.RowsAffected()
}
