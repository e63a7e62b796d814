package email

import (
	_ "embed"
	"fmt"

	"github.com/flosch/pongo2/v6"

	"github.com/evcraddock/comment-utils/internal/comment"
	"github.com/evcraddock/comment-utils/internal/site"
)

//go:embed templates/comment_notification_email.txt
var defaultNotificationTemplate string

// Notifier emails site managers about new comments.
type Notifier struct {
	sender   Sender
	managers []string
	tpl      *pongo2.Template
}

// NewNotifier creates a notifier. templatePath may name a pongo2 template
// file to use instead of the built-in one.
func NewNotifier(sender Sender, managers []string, templatePath string) (*Notifier, error) {
	var (
		tpl *pongo2.Template
		err error
	)
	if templatePath != "" {
		tpl, err = pongo2.FromFile(templatePath)
	} else {
		tpl, err = pongo2.FromString(defaultNotificationTemplate)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing notification template: %w", err)
	}

	return &Notifier{sender: sender, managers: managers, tpl: tpl}, nil
}

// Subject returns the notification subject for a comment on obj.
func Subject(s *site.Site, obj any) string {
	return fmt.Sprintf("[%s] Comment: \"%s\"", s.String(), fmt.Sprint(obj))
}

// Render returns the notification body for a comment on obj.
func (n *Notifier) Render(c *comment.Comment, obj any, s *site.Site) (string, error) {
	body, err := n.tpl.Execute(pongo2.Context{
		"comment":        c,
		"content_object": fmt.Sprint(obj),
		"object":         obj,
		"site":           s,
	})
	if err != nil {
		return "", fmt.Errorf("rendering notification: %w", err)
	}
	return body, nil
}

// CommentPosted sends the notification for c to every manager.
func (n *Notifier) CommentPosted(c *comment.Comment, obj any, s *site.Site) error {
	if len(n.managers) == 0 {
		return fmt.Errorf("no managers configured")
	}

	body, err := n.Render(c, obj, s)
	if err != nil {
		return err
	}

	if err := n.sender.Send(n.managers, Subject(s, obj), body); err != nil {
		return fmt.Errorf("sending notification for comment %d: %w", c.ID, err)
	}
	return nil
}
