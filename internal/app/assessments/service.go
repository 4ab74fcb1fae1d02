package assessments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"festivalrisk/internal/models"
	"festivalrisk/internal/store"
)

// ErrInvalidLevel is returned when a level is not low, medium, high or empty.
var ErrInvalidLevel = errors.New("invalid level")

// Store persists assessments.
type Store interface {
	UpsertAssessment(ctx context.Context, slug string, in models.AssessmentInput) (models.RiskAssessment, error)
}

// Service validates and saves staff assessments.
type Service interface {
	Save(ctx context.Context, slug string, in models.AssessmentInput) (models.RiskAssessment, error)
}

type service struct {
	store Store
}

// New wires a Service backed by the provided Store.
func New(store Store) Service {
	return &service{store: store}
}

func (s *service) Save(ctx context.Context, slug string, in models.AssessmentInput) (models.RiskAssessment, error) {
	if err := ctx.Err(); err != nil {
		return models.RiskAssessment{}, err
	}

	slug = strings.TrimSpace(slug)
	if slug == "" {
		return models.RiskAssessment{}, store.ErrArtistNotFound
	}

	var err error
	if in.RiskLevel, err = normalize("risk_level", in.RiskLevel); err != nil {
		return models.RiskAssessment{}, err
	}
	if in.IntensityLevel, err = normalize("intensity_level", in.IntensityLevel); err != nil {
		return models.RiskAssessment{}, err
	}
	if in.DensityLevel, err = normalize("density_level", in.DensityLevel); err != nil {
		return models.RiskAssessment{}, err
	}
	in.Remarks = strings.TrimSpace(in.Remarks)
	in.CrowdProfile = strings.TrimSpace(in.CrowdProfile)
	in.Notes = strings.TrimSpace(in.Notes)

	return s.store.UpsertAssessment(ctx, slug, in)
}

func normalize(field string, l models.Level) (models.Level, error) {
	l = models.Level(strings.ToLower(strings.TrimSpace(string(l))))
	if !l.Valid() {
		return "", fmt.Errorf("%w: %s %q", ErrInvalidLevel, field, string(l))
	}
	return l, nil
}
