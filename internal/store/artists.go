package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"festivalrisk/internal/models"
)

const artistColumns = `id, slug, title, nationality, description, image_url, spotify_link, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArtist(row rowScanner) (models.Artist, error) {
	var a models.Artist
	err := row.Scan(&a.ID, &a.Slug, &a.Title, &a.Nationality, &a.Description,
		&a.ImageURL, &a.SpotifyLink, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

// ListArtists returns every artist ordered by title.
func (s *Store) ListArtists(ctx context.Context) ([]models.Artist, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+artistColumns+`
		FROM artists
		ORDER BY title ASC, slug ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("select artists: %w", err)
	}
	defer rows.Close()

	var artists []models.Artist
	for rows.Next() {
		a, err := scanArtist(rows)
		if err != nil {
			return nil, fmt.Errorf("scan artist: %w", err)
		}
		artists = append(artists, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate artists: %w", err)
	}
	return artists, nil
}

// ArtistBySlug loads a single artist.
func (s *Store) ArtistBySlug(ctx context.Context, slug string) (models.Artist, error) {
	a, err := scanArtist(s.db.QueryRowContext(ctx, `
		SELECT `+artistColumns+`
		FROM artists
		WHERE slug = $1
	`, slug))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Artist{}, ErrArtistNotFound
		}
		return models.Artist{}, fmt.Errorf("select artist: %w", err)
	}
	return a, nil
}
