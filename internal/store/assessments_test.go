package store

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"festivalrisk/internal/models"
)

var (
	artistRowColumns     = []string{"id", "slug", "title", "nationality", "description", "image_url", "spotify_link", "created_at", "updated_at"}
	assessmentRowColumns = []string{"id", "artist_slug", "risk_level", "intensity_level", "density_level", "remarks", "crowd_profile", "notes", "updated_at"}
)

func TestArtistBySlug(t *testing.T) {
	now := time.Date(2025, 8, 1, 9, 0, 0, 0, time.UTC)
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM artists WHERE slug = $1`)).
		WithArgs("alpha").
		WillReturnRows(sqlmock.NewRows(artistRowColumns).
			AddRow(int64(4), "alpha", "Alpha", "DK", "", "", "", now, now))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM artists WHERE slug = $1`)).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	s := New(db)
	a, err := s.ArtistBySlug(context.Background(), "alpha")
	if err != nil {
		t.Fatalf("ArtistBySlug returned error: %v", err)
	}
	if a.ID != 4 || a.Nationality != "DK" {
		t.Fatalf("unexpected artist %+v", a)
	}

	if _, err := s.ArtistBySlug(context.Background(), "ghost"); !errors.Is(err, ErrArtistNotFound) {
		t.Fatalf("expected ErrArtistNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAssessmentsNullLevels(t *testing.T) {
	now := time.Date(2025, 8, 1, 9, 0, 0, 0, time.UTC)
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM risk_assessments`)).
		WillReturnRows(sqlmock.NewRows(assessmentRowColumns).
			AddRow(int64(1), "alpha", "high", nil, "low", "pyro", "", "", now).
			AddRow(int64(2), "beta", nil, nil, nil, "", "", "", now))

	all, err := New(db).Assessments(context.Background())
	if err != nil {
		t.Fatalf("Assessments returned error: %v", err)
	}
	if all["alpha"].RiskLevel != models.LevelHigh || all["alpha"].IntensityLevel != models.LevelUnset {
		t.Fatalf("unexpected alpha levels %+v", all["alpha"])
	}
	if all["beta"].RiskLevel != models.LevelUnset {
		t.Fatalf("expected unset level for NULL, got %q", all["beta"].RiskLevel)
	}
}

func TestAssessmentBySlugMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE artist_slug = $1`)).
		WithArgs("alpha").
		WillReturnError(sql.ErrNoRows)

	ra, err := New(db).AssessmentBySlug(context.Background(), "alpha")
	if err != nil || ra != nil {
		t.Fatalf("expected nil assessment without error, got %+v, %v", ra, err)
	}
}

func TestUpsertAssessment(t *testing.T) {
	now := time.Date(2025, 8, 1, 9, 0, 0, 0, time.UTC)
	in := models.AssessmentInput{RiskLevel: models.LevelMedium, Remarks: "front barrier"}

	t.Run("stores unset levels as NULL", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		if err != nil {
			t.Fatalf("sqlmock.New: %v", err)
		}
		defer db.Close()

		mock.ExpectQuery(regexp.QuoteMeta(`ON CONFLICT (artist_slug) DO UPDATE`)).
			WithArgs("alpha", "medium", nil, nil, "front barrier", "", "").
			WillReturnRows(sqlmock.NewRows(assessmentRowColumns).
				AddRow(int64(3), "alpha", "medium", nil, nil, "front barrier", "", "", now))

		ra, err := New(db).UpsertAssessment(context.Background(), "alpha", in)
		if err != nil {
			t.Fatalf("UpsertAssessment returned error: %v", err)
		}
		if ra.ID != 3 || ra.RiskLevel != models.LevelMedium {
			t.Fatalf("unexpected assessment %+v", ra)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Fatalf("unmet expectations: %v", err)
		}
	})

	t.Run("keeps each level independent", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		if err != nil {
			t.Fatalf("sqlmock.New: %v", err)
		}
		defer db.Close()

		mock.ExpectQuery(regexp.QuoteMeta(`
			INSERT INTO risk_assessments (artist_slug, risk_level, intensity_level, density_level, remarks, crowd_profile, notes, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
			ON CONFLICT (artist_slug) DO UPDATE SET
		`)).
			WithArgs("band-x", "high", nil, "medium", "Front barrier", "Teens", "Call security lead").
			WillReturnRows(sqlmock.NewRows(assessmentRowColumns).
				AddRow(int64(5), "band-x", "high", nil, "medium", "Front barrier", "Teens", "Call security lead", now))

		ra, err := New(db).UpsertAssessment(context.Background(), "band-x", models.AssessmentInput{
			RiskLevel:    models.LevelHigh,
			DensityLevel: models.LevelMedium,
			Remarks:      "Front barrier",
			CrowdProfile: "Teens",
			Notes:        "Call security lead",
		})
		if err != nil {
			t.Fatalf("UpsertAssessment returned error: %v", err)
		}
		if ra.RiskLevel != models.LevelHigh || ra.IntensityLevel != models.LevelUnset || ra.DensityLevel != models.LevelMedium {
			t.Fatalf("unexpected levels: %#v", ra)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Fatalf("unmet expectations: %v", err)
		}
	})

	t.Run("unknown artist", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		if err != nil {
			t.Fatalf("sqlmock.New: %v", err)
		}
		defer db.Close()

		mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO risk_assessments`)).
			WillReturnError(&pgconn.PgError{Code: "23503"})

		if _, err := New(db).UpsertAssessment(context.Background(), "ghost", in); !errors.Is(err, ErrArtistNotFound) {
			t.Fatalf("expected ErrArtistNotFound, got %v", err)
		}
	})
}
