package contacts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"festivalrisk/internal/models"
)

// ErrInvalidContact is returned when a contact lacks a name or a phone number.
var ErrInvalidContact = errors.New("contact requires name and phone")

// Store describes the contact persistence operations.
type Store interface {
	ListContacts(ctx context.Context, filter models.ContactFilter) ([]models.Contact, error)
	ContactCategories(ctx context.Context) ([]string, error)
	CreateContact(ctx context.Context, c models.Contact) (models.Contact, error)
	UpdateContact(ctx context.Context, id int64, c models.Contact) (models.Contact, error)
	DeactivateContact(ctx context.Context, id int64) error
	SeedContacts(ctx context.Context, contacts []models.Contact) (int, error)
}

// Service manages the staff contact directory.
type Service interface {
	List(ctx context.Context, filter models.ContactFilter) ([]models.Contact, error)
	Categories(ctx context.Context) ([]string, error)
	Create(ctx context.Context, c models.Contact) (models.Contact, error)
	Update(ctx context.Context, id int64, c models.Contact) (models.Contact, error)
	Delete(ctx context.Context, id int64) error
	Seed(ctx context.Context, contacts []models.Contact) (int, error)
}

type service struct {
	store Store
}

// New wires a Service backed by the provided Store.
func New(store Store) Service {
	return &service{store: store}
}

func (s *service) List(ctx context.Context, filter models.ContactFilter) ([]models.Contact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	filter.Search = strings.TrimSpace(filter.Search)
	filter.Category = strings.TrimSpace(filter.Category)
	return s.store.ListContacts(ctx, filter)
}

func (s *service) Categories(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.ContactCategories(ctx)
}

func (s *service) Create(ctx context.Context, c models.Contact) (models.Contact, error) {
	if err := ctx.Err(); err != nil {
		return models.Contact{}, err
	}
	c, err := clean(c)
	if err != nil {
		return models.Contact{}, err
	}
	return s.store.CreateContact(ctx, c)
}

func (s *service) Update(ctx context.Context, id int64, c models.Contact) (models.Contact, error) {
	if err := ctx.Err(); err != nil {
		return models.Contact{}, err
	}
	c, err := clean(c)
	if err != nil {
		return models.Contact{}, err
	}
	return s.store.UpdateContact(ctx, id, c)
}

func (s *service) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.store.DeactivateContact(ctx, id)
}

func (s *service) Seed(ctx context.Context, contacts []models.Contact) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	cleaned := make([]models.Contact, 0, len(contacts))
	for i, c := range contacts {
		c, err := clean(c)
		if err != nil {
			return 0, fmt.Errorf("seed entry %d: %w", i, err)
		}
		cleaned = append(cleaned, c)
	}
	return s.store.SeedContacts(ctx, cleaned)
}

func clean(c models.Contact) (models.Contact, error) {
	c.Name = strings.TrimSpace(c.Name)
	c.Phone = strings.TrimSpace(c.Phone)
	c.Role = strings.TrimSpace(c.Role)
	c.Category = strings.TrimSpace(c.Category)
	if c.Name == "" || c.Phone == "" {
		return models.Contact{}, ErrInvalidContact
	}
	return c, nil
}
