package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"festivalrisk/internal/models"
)

// ErrContactNotFound indicates no active contact has the requested id.
var ErrContactNotFound = errors.New("contact not found")

const contactColumns = `id, name, phone, role, category, sort_order, is_active, created_at, updated_at`

func scanContact(row rowScanner) (models.Contact, error) {
	var c models.Contact
	err := row.Scan(&c.ID, &c.Name, &c.Phone, &c.Role, &c.Category, &c.SortOrder,
		&c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// ListContacts returns active contacts matching the filter, grouped by
// category and ordered within it.
func (s *Store) ListContacts(ctx context.Context, filter models.ContactFilter) ([]models.Contact, error) {
	var (
		conditions = []string{"is_active = TRUE"}
		args       []any
	)
	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+search+"%")
		n := len(args)
		conditions = append(conditions, fmt.Sprintf(
			"(name ILIKE $%d OR phone ILIKE $%d OR role ILIKE $%d OR category ILIKE $%d)", n, n, n, n))
	}
	if category := strings.TrimSpace(filter.Category); category != "" {
		args = append(args, category)
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)))
	}

	query := `SELECT ` + contactColumns + ` FROM contacts WHERE ` + strings.Join(conditions, " AND ") +
		` ORDER BY category ASC, sort_order ASC, name ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select contacts: %w", err)
	}
	defer rows.Close()

	var contacts []models.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contacts: %w", err)
	}
	return contacts, nil
}

// ContactCategories lists the distinct categories of active contacts.
func (s *Store) ContactCategories(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT category
		FROM contacts
		WHERE is_active = TRUE AND category <> ''
		ORDER BY category ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("select categories: %w", err)
	}
	defer rows.Close()

	var categories []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return categories, nil
}

// CreateContact inserts an active contact.
func (s *Store) CreateContact(ctx context.Context, c models.Contact) (models.Contact, error) {
	created, err := scanContact(s.db.QueryRowContext(ctx, `
		INSERT INTO contacts (name, phone, role, category, sort_order)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+contactColumns+`
	`, c.Name, c.Phone, c.Role, c.Category, c.SortOrder))
	if err != nil {
		return models.Contact{}, fmt.Errorf("insert contact: %w", err)
	}
	return created, nil
}

// UpdateContact replaces the editable fields of an active contact.
func (s *Store) UpdateContact(ctx context.Context, id int64, c models.Contact) (models.Contact, error) {
	updated, err := scanContact(s.db.QueryRowContext(ctx, `
		UPDATE contacts
		SET name = $1, phone = $2, role = $3, category = $4, sort_order = $5, updated_at = NOW()
		WHERE id = $6 AND is_active = TRUE
		RETURNING `+contactColumns+`
	`, c.Name, c.Phone, c.Role, c.Category, c.SortOrder, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Contact{}, ErrContactNotFound
		}
		return models.Contact{}, fmt.Errorf("update contact: %w", err)
	}
	return updated, nil
}

// DeactivateContact hides a contact from listings without deleting the row.
func (s *Store) DeactivateContact(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE contacts
		SET is_active = FALSE, updated_at = NOW()
		WHERE id = $1 AND is_active = TRUE
	`, id)
	if err != nil {
		return fmt.Errorf("deactivate contact: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deactivate contact: %w", err)
	}
	if n == 0 {
		return ErrContactNotFound
	}
	return nil
}

// SeedContacts inserts contacts in one transaction when the table is
// empty. It reports how many rows were written.
func (s *Store) SeedContacts(ctx context.Context, contacts []models.Contact) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if tx != nil {
			_ = tx.Rollback()
		}
	}()

	var count int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM contacts`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count contacts: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	for _, c := range contacts {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO contacts (name, phone, role, category, sort_order)
			VALUES ($1, $2, $3, $4, $5)
		`, c.Name, c.Phone, c.Role, c.Category, c.SortOrder); err != nil {
			return 0, fmt.Errorf("insert contact %q: %w", c.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}
	tx = nil

	return len(contacts), nil
}
