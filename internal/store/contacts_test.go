package store

import (
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"festivalrisk/internal/models"
)

var contactRowColumns = []string{"id", "name", "phone", "role", "category", "sort_order", "is_active", "created_at", "updated_at"}

func TestListContactsFilters(t *testing.T) {
	now := time.Date(2025, 8, 1, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		filter models.ContactFilter
		query  string
		args   []driver.Value
	}{
		{
			name:  "no filter",
			query: `FROM contacts WHERE is_active = TRUE ORDER BY category ASC, sort_order ASC, name ASC`,
		},
		{
			name:   "search and category",
			filter: models.ContactFilter{Search: " medic ", Category: "Safety"},
			query:  `WHERE is_active = TRUE AND (name ILIKE $1 OR phone ILIKE $1 OR role ILIKE $1 OR category ILIKE $1) AND category = $2 ORDER BY`,
			args:   []driver.Value{"%medic%", "Safety"},
		},
		{
			name:   "category only",
			filter: models.ContactFilter{Category: "Logistics"},
			query:  `WHERE is_active = TRUE AND category = $1 ORDER BY`,
			args:   []driver.Value{"Logistics"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			if err != nil {
				t.Fatalf("sqlmock.New: %v", err)
			}
			defer db.Close()

			exp := mock.ExpectQuery(regexp.QuoteMeta(tc.query))
			if len(tc.args) > 0 {
				exp = exp.WithArgs(tc.args...)
			}
			exp.WillReturnRows(sqlmock.NewRows(contactRowColumns).
				AddRow(int64(1), "Medic tent", "+45 1234", "First aid", "Safety", 1, true, now, now))

			contacts, err := New(db).ListContacts(context.Background(), tc.filter)
			if err != nil {
				t.Fatalf("ListContacts error: %v", err)
			}
			if len(contacts) != 1 || contacts[0].Name != "Medic tent" || !contacts[0].IsActive {
				t.Fatalf("unexpected contacts: %#v", contacts)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Fatalf("unmet expectations: %v", err)
			}
		})
	}
}

func TestDeactivateContactNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta(`SET is_active = FALSE`)).
		WithArgs(int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := New(db).DeactivateContact(context.Background(), 9); !errors.Is(err, ErrContactNotFound) {
		t.Fatalf("expected ErrContactNotFound, got %v", err)
	}
}

func TestSeedContactsSkipsWhenPopulated(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM contacts`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectRollback()

	n, err := New(db).SeedContacts(context.Background(), []models.Contact{{Name: "Gate A"}})
	if err != nil || n != 0 {
		t.Fatalf("expected no-op seed, got %d, %v", n, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSeedContactsInsertsAll(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM contacts`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO contacts`)).
		WithArgs("Gate A", "+45 1111", "Entrance lead", "Gates", 1).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO contacts`)).
		WithArgs("Medic", "+45 2222", "Doctor", "Safety", 2).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	n, err := New(db).SeedContacts(context.Background(), []models.Contact{
		{Name: "Gate A", Phone: "+45 1111", Role: "Entrance lead", Category: "Gates", SortOrder: 1},
		{Name: "Medic", Phone: "+45 2222", Role: "Doctor", Category: "Safety", SortOrder: 2},
	})
	if err != nil || n != 2 {
		t.Fatalf("expected 2 seeded contacts, got %d, %v", n, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
