package site

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/evcraddock/comment-utils/internal/db"
)

// Repository provides access to sites.
type Repository struct {
	db *db.DB
}

// NewRepository creates a site repository.
func NewRepository(d *db.DB) *Repository {
	return &Repository{db: d}
}

// Get returns a site by ID.
func (r *Repository) Get(id int64) (*Site, error) {
	var s Site
	err := r.db.QueryRow("SELECT id, domain, name FROM sites WHERE id = ?", id).
		Scan(&s.ID, &s.Domain, &s.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("site %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying site %d: %w", id, err)
	}
	return &s, nil
}

// Save inserts a site or updates the domain and name of an existing one.
func (r *Repository) Save(s *Site) error {
	if s.ID == 0 {
		return fmt.Errorf("site ID is required")
	}
	if s.Domain == "" {
		return fmt.Errorf("site domain is required")
	}

	_, err := r.db.Exec(
		`INSERT INTO sites (id, domain, name) VALUES (?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET domain = excluded.domain, name = excluded.name`,
		s.ID, s.Domain, s.Name,
	)
	if err != nil {
		return fmt.Errorf("saving site %d: %w", s.ID, err)
	}
	return nil
}
