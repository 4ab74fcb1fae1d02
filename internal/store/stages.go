package store

import (
	"context"
	"fmt"

	"festivalrisk/internal/models"
)

// ListStages returns all stages except the one named exclude, ordered by name.
func (s *Store) ListStages(ctx context.Context, exclude string) ([]models.Stage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name
		FROM stages
		WHERE name <> $1
		ORDER BY name ASC
	`, exclude)
	if err != nil {
		return nil, fmt.Errorf("select stages: %w", err)
	}
	defer rows.Close()

	var stages []models.Stage
	for rows.Next() {
		var st models.Stage
		if err := rows.Scan(&st.ID, &st.Name); err != nil {
			return nil, fmt.Errorf("scan stage: %w", err)
		}
		stages = append(stages, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stages: %w", err)
	}
	return stages, nil
}
