package moderation

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/evcraddock/comment-utils/internal/akismet"
	"github.com/evcraddock/comment-utils/internal/comment"
	"github.com/evcraddock/comment-utils/internal/site"
)

// Options configures a CommentModerator. Field names refer to exported
// fields of the content object, by Go name or json tag.
type Options struct {
	// Akismet sends new comments to the Akismet spam check and moderates
	// the ones it reports as spam.
	Akismet bool `yaml:"akismet" json:"akismet"`
	// AutoCloseField names a time field; comments are disallowed once
	// CloseAfter days have passed since it.
	AutoCloseField string `yaml:"auto_close_field" json:"auto_close_field"`
	CloseAfter     int    `yaml:"close_after" json:"close_after"`
	// AutoModerateField names a time field; comments are moderated once
	// ModerateAfter days have passed since it.
	AutoModerateField string `yaml:"auto_moderate_field" json:"auto_moderate_field"`
	ModerateAfter     int    `yaml:"moderate_after" json:"moderate_after"`
	// EmailNotification emails the site managers about new comments.
	EmailNotification bool `yaml:"email_notification" json:"email_notification"`
	// EnableField names a bool field; comments are disallowed while it is false.
	EnableField string `yaml:"enable_field" json:"enable_field"`
	// ModerateField names a bool field; while it is true, comments are
	// reported as moderated.
	ModerateField string `yaml:"moderate_field" json:"moderate_field"`
}

// SpamChecker is the subset of the Akismet client used for moderation.
type SpamChecker interface {
	VerifyKey() (bool, error)
	CommentCheck(cm akismet.Comment) (bool, error)
}

// Notifier delivers new-comment notifications.
type Notifier interface {
	CommentPosted(c *comment.Comment, obj any, s *site.Site) error
}

// SiteSource looks up sites by ID.
type SiteSource interface {
	Get(id int64) (*site.Site, error)
}

// CommentCounter counts stored comments.
type CommentCounter interface {
	Count(f comment.Filter) (int64, error)
}

// Env holds the collaborators policies consult. Nil fields disable the
// features that need them.
type Env struct {
	Spam     SpamChecker
	Notifier Notifier
	Sites    SiteSource
	Comments CommentCounter
	Now      func() time.Time
}

func (e *Env) now() time.Time {
	if e == nil || e.Now == nil {
		return time.Now()
	}
	return e.Now()
}

// Policy decides what happens to comments on one model.
type Policy interface {
	// Allow reports whether c may be posted on obj at all.
	Allow(c *comment.Comment, obj any) (bool, error)
	// Moderate reports whether c should be held as non-public.
	Moderate(c *comment.Comment, obj any) (bool, error)
	// Notify reports a saved comment. Failures are logged, not returned.
	Notify(c *comment.Comment, obj any)
	CommentsOpen(obj any) (bool, error)
	CommentsModerated(obj any) (bool, error)
}

// CommentModerator is the Policy built from Options.
type CommentModerator struct {
	Options
	env *Env
}

// NewCommentModerator creates a moderator applying opts.
func NewCommentModerator(opts Options, env *Env) *CommentModerator {
	if env == nil {
		env = &Env{}
	}
	return &CommentModerator{Options: opts, env: env}
}

// Settings returns the options in effect, including ones a variant forces.
func (m *CommentModerator) Settings() Options {
	return m.Options
}

// Allow implements Policy.
func (m *CommentModerator) Allow(_ *comment.Comment, obj any) (bool, error) {
	return m.CommentsOpen(obj)
}

// Moderate implements Policy.
func (m *CommentModerator) Moderate(c *comment.Comment, obj any) (bool, error) {
	aged, err := m.moderateAged(obj)
	if err != nil || aged {
		return aged, err
	}
	if m.Akismet {
		return m.isSpam(c), nil
	}
	return false, nil
}

// CommentsOpen implements Policy.
func (m *CommentModerator) CommentsOpen(obj any) (bool, error) {
	if m.EnableField != "" {
		enabled, err := boolField(obj, m.EnableField)
		if err != nil {
			return false, err
		}
		if !enabled {
			return false, nil
		}
	}
	if m.AutoCloseField != "" && m.CloseAfter > 0 {
		closed, err := m.elapsed(obj, m.AutoCloseField, m.CloseAfter)
		if err != nil {
			return false, err
		}
		if closed {
			return false, nil
		}
	}
	return true, nil
}

// CommentsModerated implements Policy.
func (m *CommentModerator) CommentsModerated(obj any) (bool, error) {
	if m.ModerateField != "" {
		moderated, err := boolField(obj, m.ModerateField)
		if err != nil {
			return false, err
		}
		if moderated {
			return true, nil
		}
	}
	return m.moderateAged(obj)
}

// Notify implements Policy.
func (m *CommentModerator) Notify(c *comment.Comment, obj any) {
	if !m.EmailNotification || m.env.Notifier == nil {
		return
	}

	s := &site.Site{ID: c.SiteID}
	if m.env.Sites != nil {
		found, err := m.env.Sites.Get(c.SiteID)
		if err != nil {
			slog.Warn("looking up site for notification", "site_id", c.SiteID, "error", err)
		} else {
			s = found
		}
	}

	if err := m.env.Notifier.CommentPosted(c, obj, s); err != nil {
		notificationsTotal.WithLabelValues("failed").Inc()
		slog.Warn("comment notification failed", "comment_id", c.ID, "error", err)
		return
	}
	notificationsTotal.WithLabelValues("sent").Inc()
}

func (m *CommentModerator) moderateAged(obj any) (bool, error) {
	if m.AutoModerateField == "" || m.ModerateAfter <= 0 {
		return false, nil
	}
	return m.elapsed(obj, m.AutoModerateField, m.ModerateAfter)
}

// elapsed reports whether at least days have passed since the time in
// the named field. An unset time never elapses.
func (m *CommentModerator) elapsed(obj any, name string, days int) (bool, error) {
	then, ok, err := timeField(obj, name)
	if err != nil || !ok {
		return false, err
	}
	n, err := daysSince(m.env.now(), then)
	if err != nil {
		return false, fmt.Errorf("field %s: %w", name, err)
	}
	return n >= days, nil
}

// isSpam asks Akismet about c. An unverified key or a failed request
// counts as not spam.
func (m *CommentModerator) isSpam(c *comment.Comment) bool {
	if m.env.Spam == nil {
		return false
	}

	valid, err := m.env.Spam.VerifyKey()
	if err != nil {
		spamChecksTotal.WithLabelValues("error").Inc()
		slog.Warn("akismet key verification failed", "error", err)
		return false
	}
	if !valid {
		spamChecksTotal.WithLabelValues("invalid_key").Inc()
		slog.Warn("akismet key is invalid; skipping spam check")
		return false
	}

	spam, err := m.env.Spam.CommentCheck(akismet.Comment{
		Content:   c.Text,
		Author:    c.PersonName,
		UserIP:    c.IPAddress,
		UserAgent: c.UserAgent,
		Referrer:  c.Referrer,
		Type:      "comment",
	})
	if err != nil {
		spamChecksTotal.WithLabelValues("error").Inc()
		slog.Warn("akismet comment check failed", "error", err)
		return false
	}
	if spam {
		spamChecksTotal.WithLabelValues("spam").Inc()
	} else {
		spamChecksTotal.WithLabelValues("ham").Inc()
	}
	return spam
}
