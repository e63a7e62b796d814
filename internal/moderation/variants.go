package moderation

import (
	"fmt"
	"strings"

	"github.com/evcraddock/comment-utils/internal/comment"
)

// NewAkismetModerator returns a CommentModerator with the Akismet check on.
func NewAkismetModerator(opts Options, env *Env) *CommentModerator {
	opts.Akismet = true
	return NewCommentModerator(opts, env)
}

// AlwaysModerate holds every new comment for approval.
type AlwaysModerate struct {
	*CommentModerator
}

// NewAlwaysModerate creates an AlwaysModerate policy.
func NewAlwaysModerate(opts Options, env *Env) *AlwaysModerate {
	return &AlwaysModerate{NewCommentModerator(opts, env)}
}

// Moderate implements Policy.
func (AlwaysModerate) Moderate(*comment.Comment, any) (bool, error) { return true, nil }

// CommentsModerated implements Policy.
func (AlwaysModerate) CommentsModerated(any) (bool, error) { return true, nil }

// NoComments refuses every new comment.
type NoComments struct {
	*CommentModerator
}

// NewNoComments creates a NoComments policy.
func NewNoComments(opts Options, env *Env) *NoComments {
	return &NoComments{NewCommentModerator(opts, env)}
}

// Allow implements Policy.
func (NoComments) Allow(*comment.Comment, any) (bool, error) { return false, nil }

// CommentsOpen implements Policy.
func (NoComments) CommentsOpen(any) (bool, error) { return false, nil }

// ModerateFirstTimers holds comments from authors who have never had a
// comment approved. Nameless authors have no history and are always held.
type ModerateFirstTimers struct {
	*CommentModerator
}

// NewModerateFirstTimers creates a ModerateFirstTimers policy. env.Comments
// is required.
func NewModerateFirstTimers(opts Options, env *Env) *ModerateFirstTimers {
	return &ModerateFirstTimers{NewCommentModerator(opts, env)}
}

// Moderate implements Policy.
func (m *ModerateFirstTimers) Moderate(c *comment.Comment, _ any) (bool, error) {
	if m.env.Comments == nil {
		return false, fmt.Errorf("first-timer moderation needs a comment store")
	}
	name := strings.TrimSpace(c.PersonName)
	if name == "" {
		return true, nil
	}
	public := true
	n, err := m.env.Comments.Count(comment.Filter{PersonName: name, Public: &public})
	if err != nil {
		return false, fmt.Errorf("counting approved comments for %q: %w", c.PersonName, err)
	}
	return n == 0, nil
}
