package comment

import (
	"fmt"
)

// DefaultMostCommented is the number of objects MostCommented returns when
// num is not positive.
const DefaultMostCommented = 5

// Model describes the table holding objects of one commentable content type.
type Model struct {
	Table       string
	PK          string
	ContentType string
}

// Ranked is one object and its public comment count.
type Ranked struct {
	ObjectID string `json:"object_id"`
	Count    int64  `json:"comment_count"`
}

// MostCommented returns the num objects in m.Table with the most public
// comments, highest first. Objects without comments are included with a
// count of zero. Pass free=false to count registered-user comments instead
// of anonymous ones.
func (r *Repository) MostCommented(m Model, num int, free bool) (ranked []Ranked, err error) {
	if m.Table == "" || m.PK == "" || m.ContentType == "" {
		return nil, fmt.Errorf("table, primary key and content type are required")
	}
	if num <= 0 {
		num = DefaultMostCommented
	}

	qn := r.db.Dialect.Quote
	pk := fmt.Sprintf("CAST(%s.%s AS TEXT)", qn(m.Table), qn(m.PK))

	subquery := fmt.Sprintf(`SELECT COUNT(*)
		FROM %[1]s
		WHERE %[1]s.%[2]s = ?
		AND %[1]s.%[3]s = %[4]s
		AND %[1]s.%[5]s = ?
		AND %[1]s.%[6]s = ?`,
		qn("comments"), qn("content_type"), qn("object_id"), pk, qn("is_public"), qn("free"),
	)

	query := fmt.Sprintf(`SELECT %[1]s, (%[2]s) AS comment_count
		FROM %[3]s
		ORDER BY comment_count DESC, %[3]s.%[4]s ASC
		LIMIT ?`,
		pk, subquery, qn(m.Table), qn(m.PK),
	)

	rows, err := r.db.Query(query, m.ContentType, true, free, num)
	if err != nil {
		return nil, fmt.Errorf("querying most commented %s: %w", m.ContentType, err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	for rows.Next() {
		var rk Ranked
		if err := rows.Scan(&rk.ObjectID, &rk.Count); err != nil {
			return nil, fmt.Errorf("scanning ranked object: %w", err)
		}
		ranked = append(ranked, rk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating ranked objects: %w", err)
	}

	return ranked, nil
}

// ObjectLoader loads commentable objects by ID. *contenttype.ContentType
// satisfies it.
type ObjectLoader interface {
	Label() string
	Object(objectID string) (any, error)
}

// RankedObject is a most-commented object and its public comment count.
type RankedObject struct {
	Object any   `json:"object"`
	Count  int64 `json:"comment_count"`
}

// MostCommentedObjects is MostCommented with every ranked ID loaded through
// loader. An empty m.ContentType defaults to the loader's label.
func (r *Repository) MostCommentedObjects(m Model, loader ObjectLoader, num int, free bool) ([]RankedObject, error) {
	if m.ContentType == "" {
		m.ContentType = loader.Label()
	}
	ranked, err := r.MostCommented(m, num, free)
	if err != nil {
		return nil, err
	}

	objects := make([]RankedObject, 0, len(ranked))
	for _, rk := range ranked {
		obj, err := loader.Object(rk.ObjectID)
		if err != nil {
			return nil, fmt.Errorf("loading %s %s: %w", m.ContentType, rk.ObjectID, err)
		}
		objects = append(objects, RankedObject{Object: obj, Count: rk.Count})
	}
	return objects, nil
}
