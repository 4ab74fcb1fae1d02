package artists

import (
	"context"
	"sort"
	"strings"
	"time"

	"festivalrisk/internal/models"
)

// Store exposes the artist, event and assessment queries the views need.
type Store interface {
	ListArtists(ctx context.Context) ([]models.Artist, error)
	ArtistBySlug(ctx context.Context, slug string) (models.Artist, error)
	ListEventDetails(ctx context.Context) ([]models.EventDetail, error)
	EventsForArtist(ctx context.Context, slug string) ([]models.EventDetail, error)
	Assessments(ctx context.Context) (map[string]models.RiskAssessment, error)
	AssessmentBySlug(ctx context.Context, slug string) (*models.RiskAssessment, error)
}

// Service provides the artist overview and detail views.
type Service interface {
	Overview(ctx context.Context) ([]models.ArtistDetail, error)
	Detail(ctx context.Context, slug string) (models.ArtistDetail, error)
	WithAssessments(ctx context.Context) ([]models.ArtistAssessment, error)
}

type service struct {
	store Store
	loc   *time.Location
}

// New constructs an artist Service. Event times are presented in loc.
func New(store Store, loc *time.Location) Service {
	if loc == nil {
		loc = time.UTC
	}
	return &service{store: store, loc: loc}
}

func (s *service) Overview(ctx context.Context) ([]models.ArtistDetail, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	artists, err := s.store.ListArtists(ctx)
	if err != nil {
		return nil, err
	}
	events, err := s.store.ListEventDetails(ctx)
	if err != nil {
		return nil, err
	}
	assessments, err := s.store.Assessments(ctx)
	if err != nil {
		return nil, err
	}

	bySlug := make(map[string][]models.EventDetail)
	for _, e := range s.localize(events) {
		bySlug[e.ArtistSlug] = append(bySlug[e.ArtistSlug], e)
	}

	out := make([]models.ArtistDetail, 0, len(artists))
	for _, a := range artists {
		d := models.ArtistDetail{Artist: a, Events: bySlug[a.Slug]}
		if ra, ok := assessments[a.Slug]; ok {
			ra := ra
			d.Assessment = &ra
		}
		sortEvents(d.Events)
		out = append(out, d)
	}
	sortByTitle(out, func(d models.ArtistDetail) string { return d.Title })
	return out, nil
}

func (s *service) Detail(ctx context.Context, slug string) (models.ArtistDetail, error) {
	if err := ctx.Err(); err != nil {
		return models.ArtistDetail{}, err
	}

	artist, err := s.store.ArtistBySlug(ctx, slug)
	if err != nil {
		return models.ArtistDetail{}, err
	}
	events, err := s.store.EventsForArtist(ctx, slug)
	if err != nil {
		return models.ArtistDetail{}, err
	}
	assessment, err := s.store.AssessmentBySlug(ctx, slug)
	if err != nil {
		return models.ArtistDetail{}, err
	}

	d := models.ArtistDetail{Artist: artist, Assessment: assessment, Events: s.localize(events)}
	sortEvents(d.Events)
	return d, nil
}

func (s *service) WithAssessments(ctx context.Context) ([]models.ArtistAssessment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	artists, err := s.store.ListArtists(ctx)
	if err != nil {
		return nil, err
	}
	assessments, err := s.store.Assessments(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]models.ArtistAssessment, 0, len(artists))
	for _, a := range artists {
		row := models.ArtistAssessment{Artist: a}
		if ra, ok := assessments[a.Slug]; ok {
			ra := ra
			row.Assessment = &ra
		}
		out = append(out, row)
	}
	sortByTitle(out, func(a models.ArtistAssessment) string { return a.Artist.Title })
	return out, nil
}

func (s *service) localize(events []models.EventDetail) []models.EventDetail {
	for i := range events {
		events[i].StartTime = events[i].StartTime.In(s.loc)
		if events[i].EndTime != nil {
			end := events[i].EndTime.In(s.loc)
			events[i].EndTime = &end
		}
	}
	return events
}

func sortEvents(events []models.EventDetail) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].StartTime.Before(events[j].StartTime)
	})
}

func sortByTitle[T any](items []T, title func(T) string) {
	sort.SliceStable(items, func(i, j int) bool {
		return strings.ToLower(title(items[i])) < strings.ToLower(title(items[j]))
	})
}
