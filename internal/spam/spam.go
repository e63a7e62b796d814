// Package spam removes stale comments that were never made public.
package spam

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/evcraddock/comment-utils/internal/comment"
	"github.com/evcraddock/comment-utils/internal/contenttype"
)

// DefaultAge is the number of days after which a non-public comment is
// considered spam.
const DefaultAge = 14

// Store is the comment storage used by DeleteSpam.
type Store interface {
	List(f comment.Filter) ([]*comment.Comment, error)
	Delete(id int64) error
}

// Options controls DeleteSpam.
type Options struct {
	// Age in days past which a non-public comment is spam.
	Age int
	// DryRun counts the comments without deleting them.
	DryRun bool
	// Verbosity 2 prints each deleted comment.
	Verbosity int
	// Now defaults to time.Now.
	Now func() time.Time
}

// Validate checks the option ranges.
func (o Options) Validate() error {
	if o.Age < 0 {
		return fmt.Errorf("age must not be negative, got %d", o.Age)
	}
	if o.Verbosity < 0 || o.Verbosity > 2 {
		return fmt.Errorf("verbosity must be 0, 1 or 2, got %d", o.Verbosity)
	}
	return nil
}

// DeleteSpam deletes non-public comments submitted more than opts.Age days
// ago and writes a summary to out. It returns the number of matching
// comments, which in a dry run were left in place.
func DeleteSpam(store Store, types *contenttype.Registry, opts Options, out io.Writer) (int, error) {
	if err := opts.Validate(); err != nil {
		return 0, err
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	public := false
	cutoff := now().AddDate(0, 0, -opts.Age)
	spam, err := store.List(comment.Filter{Public: &public, SubmittedBefore: cutoff})
	if err != nil {
		return 0, fmt.Errorf("finding spam comments: %w", err)
	}

	if !opts.DryRun {
		for _, c := range spam {
			if opts.Verbosity > 1 {
				if _, err := fmt.Fprintf(out, "Deleting spam comment '%s' on '%s', from %s\n",
					c, describeObject(types, c), c.SubmitDate.Format("2006-01-02")); err != nil {
					return 0, fmt.Errorf("writing output: %w", err)
				}
			}
			if err := store.Delete(c.ID); err != nil {
				return 0, fmt.Errorf("deleting comment %d: %w", c.ID, err)
			}
		}
	}

	slog.Info("spam cleanup", "matched", len(spam), "dry_run", opts.DryRun, "cutoff", cutoff)
	if _, err := fmt.Fprintf(out, "Deleted %d spam comments\n", len(spam)); err != nil {
		return 0, fmt.Errorf("writing output: %w", err)
	}
	return len(spam), nil
}

// describeObject returns the display form of the object c is attached to.
// Objects that cannot be loaded are named by label and ID.
func describeObject(types *contenttype.Registry, c *comment.Comment) string {
	fallback := c.ContentType + " " + c.ObjectID
	if types == nil {
		return fallback
	}
	ct, err := types.Lookup(c.ContentType)
	if err != nil {
		return fallback
	}
	obj, err := ct.Object(c.ObjectID)
	if err != nil {
		slog.Debug("loading comment object", "comment_id", c.ID, "error", err)
		return fallback
	}
	return fmt.Sprint(obj)
}
