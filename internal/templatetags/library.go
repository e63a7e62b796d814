// Package templatetags exposes public comment lists, counts and the
// moderation predicates to pongo2 and html/template templates.
package templatetags

import (
	"fmt"
	"html/template"

	"github.com/evcraddock/comment-utils/internal/comment"
	"github.com/evcraddock/comment-utils/internal/contenttype"
	"github.com/evcraddock/comment-utils/internal/moderation"
)

// Library holds what the template helpers query.
type Library struct {
	Comments     *comment.Repository
	ContentTypes *contenttype.Registry
	// Moderator may be nil, in which case every object is open and
	// unmoderated.
	Moderator *moderation.Moderator
	SiteID    int64
}

func (l *Library) siteID() int64 {
	if l.SiteID == 0 {
		return 1
	}
	return l.SiteID
}

// contentType resolves an "app.model" label.
func (l *Library) contentType(label string) (*contenttype.ContentType, error) {
	return l.ContentTypes.Lookup(label)
}

// objectKey returns objectID as stored in comments. A nil or empty ID
// names no object.
func objectKey(objectID any) (string, bool) {
	if objectID == nil {
		return "", false
	}
	key := fmt.Sprint(objectID)
	return key, key != ""
}

// PublicComments returns the public comments on an object, oldest first
// unless reversed. free selects anonymous comments instead of registered ones.
// An empty object ID matches nothing.
func (l *Library) PublicComments(label string, objectID any, free, reversed bool) ([]*comment.Comment, error) {
	ct, err := l.contentType(label)
	if err != nil {
		return nil, err
	}
	key, ok := objectKey(objectID)
	if !ok {
		return nil, nil
	}
	public := true
	return l.Comments.List(comment.Filter{
		ContentType: ct.Label(),
		ObjectID:    key,
		SiteID:      l.siteID(),
		Free:        &free,
		Public:      &public,
		Reverse:     reversed,
	})
}

// PublicCommentCount counts the public comments on an object.
func (l *Library) PublicCommentCount(label string, objectID any, free bool) (int64, error) {
	ct, err := l.contentType(label)
	if err != nil {
		return 0, err
	}
	key, ok := objectKey(objectID)
	if !ok {
		return 0, nil
	}
	public := true
	return l.Comments.Count(comment.Filter{
		ContentType: ct.Label(),
		ObjectID:    key,
		SiteID:      l.siteID(),
		Free:        &free,
		Public:      &public,
	})
}

// CommentsOpen reports whether obj accepts new comments.
func (l *Library) CommentsOpen(obj any) (bool, error) {
	if l.Moderator == nil {
		return true, nil
	}
	return l.Moderator.CommentsOpen(obj)
}

// CommentsModerated reports whether new comments on obj are held for approval.
func (l *Library) CommentsModerated(obj any) (bool, error) {
	if l.Moderator == nil {
		return false, nil
	}
	return l.Moderator.CommentsModerated(obj)
}

// MostCommented returns the num objects of a content type with the most
// public anonymous comments, loaded through the content type. table names
// the host table holding the objects, keyed by an "id" column.
func (l *Library) MostCommented(label, table string, num int) ([]comment.RankedObject, error) {
	ct, err := l.contentType(label)
	if err != nil {
		return nil, err
	}
	return l.Comments.MostCommentedObjects(comment.Model{Table: table, PK: "id", ContentType: ct.Label()}, ct, num, true)
}

// FuncMap returns the helpers for html/template:
//
//	{{range publicFreeComments "weblog.entry" .Entry.ID}}...{{end}}
//	{{publicCommentCount "weblog.entry" .Entry.ID}}
//	{{if commentsOpen .Entry}}...{{end}}
//
// The list helpers take an optional trailing true to list newest first.
func (l *Library) FuncMap() template.FuncMap {
	list := func(free bool) func(string, any, ...bool) ([]*comment.Comment, error) {
		return func(label string, objectID any, reversed ...bool) ([]*comment.Comment, error) {
			return l.PublicComments(label, objectID, free, len(reversed) > 0 && reversed[0])
		}
	}
	count := func(free bool) func(string, any) (int64, error) {
		return func(label string, objectID any) (int64, error) {
			return l.PublicCommentCount(label, objectID, free)
		}
	}

	return template.FuncMap{
		"publicComments":         list(false),
		"publicFreeComments":     list(true),
		"publicCommentCount":     count(false),
		"publicFreeCommentCount": count(true),
		"commentsOpen":           l.CommentsOpen,
		"commentsModerated":      l.CommentsModerated,
		"mostCommented":          l.MostCommented,
	}
}
