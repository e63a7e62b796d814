package comment

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/evcraddock/comment-utils/internal/db"
)

// Hook is notified around every Save. A PreSave error aborts the save
// and is returned to the caller; nothing is written.
type Hook interface {
	PreSave(c *Comment) error
	PostSave(c *Comment, created bool) error
}

// Repository provides CRUD operations for comments.
type Repository struct {
	db    *db.DB
	hooks []Hook
	now   func() time.Time
}

// NewRepository creates a comment repository.
func NewRepository(d *db.DB) *Repository {
	return &Repository{db: d, now: time.Now}
}

// AddHook registers a hook to run around saves, in registration order.
func (r *Repository) AddHook(h Hook) {
	r.hooks = append(r.hooks, h)
}

// Dialect returns the SQL dialect of the underlying database.
func (r *Repository) Dialect() db.Dialect {
	return r.db.Dialect
}

const selectColumns = `id, content_type, object_id, site_id, free, user_id, person_name, comment,
	ip_address, user_agent, referrer, submit_date, is_public`

// Save inserts a new comment (ID == 0) or updates an existing one.
// Hooks run before and after the write.
func (r *Repository) Save(c *Comment) error {
	if c.Text == "" {
		return fmt.Errorf("comment text is required")
	}
	if c.ContentType == "" || c.ObjectID == "" {
		return fmt.Errorf("content type and object ID are required")
	}
	if c.SiteID == 0 {
		c.SiteID = 1
	}
	if c.SubmitDate.IsZero() {
		c.SubmitDate = r.now()
	}
	c.SubmitDate = c.SubmitDate.UTC()

	for _, h := range r.hooks {
		if err := h.PreSave(c); err != nil {
			return fmt.Errorf("saving comment: %w", err)
		}
	}

	created := c.ID == 0
	if created {
		if err := r.insert(c); err != nil {
			return err
		}
	} else if err := r.update(c); err != nil {
		return err
	}

	for _, h := range r.hooks {
		if err := h.PostSave(c, created); err != nil {
			return fmt.Errorf("after saving comment %d: %w", c.ID, err)
		}
	}

	return nil
}

func (r *Repository) insert(c *Comment) error {
	err := r.db.QueryRow(
		`INSERT INTO comments
		(content_type, object_id, site_id, free, user_id, person_name, comment, ip_address, user_agent, referrer, submit_date, is_public)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		c.ContentType, c.ObjectID, c.SiteID, c.Free, c.UserID, c.PersonName, c.Text,
		c.IPAddress, c.UserAgent, c.Referrer, c.SubmitDate, c.IsPublic,
	).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("inserting comment: %w", err)
	}
	return nil
}

func (r *Repository) update(c *Comment) error {
	result, err := r.db.Exec(
		`UPDATE comments SET content_type = ?, object_id = ?, site_id = ?, free = ?, user_id = ?,
		person_name = ?, comment = ?, ip_address = ?, user_agent = ?, referrer = ?, submit_date = ?, is_public = ?
		WHERE id = ?`,
		c.ContentType, c.ObjectID, c.SiteID, c.Free, c.UserID, c.PersonName, c.Text,
		c.IPAddress, c.UserAgent, c.Referrer, c.SubmitDate, c.IsPublic, c.ID,
	)
	if err != nil {
		return fmt.Errorf("updating comment %d: %w", c.ID, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("comment %d not found", c.ID)
	}
	return nil
}

// Get returns a comment by ID.
func (r *Repository) Get(id int64) (*Comment, error) {
	row := r.db.QueryRow(fmt.Sprintf("SELECT %s FROM comments WHERE id = ?", selectColumns), id)

	c, err := scanComment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("comment %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying comment %d: %w", id, err)
	}
	return c, nil
}

// Filter selects comments. Zero-valued fields do not filter.
type Filter struct {
	ContentType     string
	ObjectID        string
	SiteID          int64
	Free            *bool
	Public          *bool
	PersonName      string
	SubmittedBefore time.Time
	// Reverse orders newest first; the default is oldest first.
	Reverse bool
	Limit   int
}

func (f Filter) where() (string, []any) {
	var conditions []string
	var args []any

	if f.ContentType != "" {
		conditions = append(conditions, "content_type = ?")
		args = append(args, f.ContentType)
	}
	if f.ObjectID != "" {
		conditions = append(conditions, "object_id = ?")
		args = append(args, f.ObjectID)
	}
	if f.SiteID != 0 {
		conditions = append(conditions, "site_id = ?")
		args = append(args, f.SiteID)
	}
	if f.Free != nil {
		conditions = append(conditions, "free = ?")
		args = append(args, *f.Free)
	}
	if f.Public != nil {
		conditions = append(conditions, "is_public = ?")
		args = append(args, *f.Public)
	}
	if f.PersonName != "" {
		conditions = append(conditions, "person_name = ?")
		args = append(args, f.PersonName)
	}
	if !f.SubmittedBefore.IsZero() {
		conditions = append(conditions, "submit_date < ?")
		args = append(args, f.SubmittedBefore.UTC())
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// List returns comments matching f ordered by submit date.
func (r *Repository) List(f Filter) (comments []*Comment, err error) {
	where, args := f.where()
	query := fmt.Sprintf("SELECT %s FROM comments%s", selectColumns, where)
	if f.Reverse {
		query += " ORDER BY submit_date DESC, id DESC"
	} else {
		query += " ORDER BY submit_date ASC, id ASC"
	}
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing comments: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning comment: %w", err)
		}
		comments = append(comments, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating comments: %w", err)
	}

	return comments, nil
}

// Count returns the number of comments matching f. Ordering and limit are ignored.
func (r *Repository) Count(f Filter) (int64, error) {
	where, args := f.where()

	var n int64
	if err := r.db.QueryRow("SELECT COUNT(*) FROM comments"+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting comments: %w", err)
	}
	return n, nil
}

// Delete removes a comment by ID.
func (r *Repository) Delete(id int64) error {
	result, err := r.db.Exec("DELETE FROM comments WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting comment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("comment %d not found", id)
	}

	return nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanComment(s scanner) (*Comment, error) {
	var c Comment
	var userID sql.NullInt64
	if err := s.Scan(&c.ID, &c.ContentType, &c.ObjectID, &c.SiteID, &c.Free, &userID, &c.PersonName,
		&c.Text, &c.IPAddress, &c.UserAgent, &c.Referrer, &c.SubmitDate, &c.IsPublic); err != nil {
		return nil, err
	}
	if userID.Valid {
		id := userID.Int64
		c.UserID = &id
	}
	return &c, nil
}
