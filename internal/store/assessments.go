package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"festivalrisk/internal/models"
)

const assessmentColumns = `id, artist_slug, risk_level, intensity_level, density_level, remarks, crowd_profile, notes, updated_at`

func scanAssessment(row rowScanner) (models.RiskAssessment, error) {
	var (
		ra                       models.RiskAssessment
		risk, intensity, density sql.NullString
	)
	err := row.Scan(&ra.ID, &ra.ArtistSlug, &risk, &intensity, &density,
		&ra.Remarks, &ra.CrowdProfile, &ra.Notes, &ra.UpdatedAt)
	ra.RiskLevel = models.Level(risk.String)
	ra.IntensityLevel = models.Level(intensity.String)
	ra.DensityLevel = models.Level(density.String)
	return ra, err
}

// Assessments returns every assessment keyed by artist slug.
func (s *Store) Assessments(ctx context.Context) (map[string]models.RiskAssessment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+assessmentColumns+`
		FROM risk_assessments
	`)
	if err != nil {
		return nil, fmt.Errorf("select assessments: %w", err)
	}
	defer rows.Close()

	out := make(map[string]models.RiskAssessment)
	for rows.Next() {
		ra, err := scanAssessment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan assessment: %w", err)
		}
		out[ra.ArtistSlug] = ra
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate assessments: %w", err)
	}
	return out, nil
}

// AssessmentBySlug returns the assessment of one artist, or nil when none
// has been written yet.
func (s *Store) AssessmentBySlug(ctx context.Context, slug string) (*models.RiskAssessment, error) {
	ra, err := scanAssessment(s.db.QueryRowContext(ctx, `
		SELECT `+assessmentColumns+`
		FROM risk_assessments
		WHERE artist_slug = $1
	`, slug))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select assessment: %w", err)
	}
	return &ra, nil
}

// UpsertAssessment creates or replaces the assessment for an artist.
func (s *Store) UpsertAssessment(ctx context.Context, slug string, in models.AssessmentInput) (models.RiskAssessment, error) {
	ra, err := scanAssessment(s.db.QueryRowContext(ctx, `
		INSERT INTO risk_assessments (artist_slug, risk_level, intensity_level, density_level, remarks, crowd_profile, notes, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (artist_slug) DO UPDATE SET
			risk_level = EXCLUDED.risk_level,
			intensity_level = EXCLUDED.intensity_level,
			density_level = EXCLUDED.density_level,
			remarks = EXCLUDED.remarks,
			crowd_profile = EXCLUDED.crowd_profile,
			notes = EXCLUDED.notes,
			updated_at = NOW()
		RETURNING `+assessmentColumns+`
	`, slug, levelArg(in.RiskLevel), levelArg(in.IntensityLevel), levelArg(in.DensityLevel),
		in.Remarks, in.CrowdProfile, in.Notes))
	if err != nil {
		if isForeignKeyViolation(err) {
			return models.RiskAssessment{}, ErrArtistNotFound
		}
		return models.RiskAssessment{}, fmt.Errorf("upsert assessment: %w", err)
	}
	return ra, nil
}

func levelArg(l models.Level) sql.NullString {
	return sql.NullString{String: string(l), Valid: l != models.LevelUnset}
}
