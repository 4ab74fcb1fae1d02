package models

import "time"

// Contact is an entry in the staff contact directory.
type Contact struct {
	ID        int64     `json:"id" yaml:"-"`
	Name      string    `json:"name" yaml:"name"`
	Phone     string    `json:"phone" yaml:"phone"`
	Role      string    `json:"role" yaml:"role"`
	Category  string    `json:"category" yaml:"category"`
	SortOrder int       `json:"sort_order" yaml:"sort_order"`
	IsActive  bool      `json:"is_active" yaml:"-"`
	CreatedAt time.Time `json:"created_at" yaml:"-"`
	UpdatedAt time.Time `json:"updated_at" yaml:"-"`
}

// ContactFilter narrows contact listings.
type ContactFilter struct {
	Search   string
	Category string
}
