// Package comment provides the comment domain model and data access.
package comment

import (
	"fmt"
	"time"
)

// Comment is a comment attached to an object of some content type.
// Free comments are anonymous; the rest belong to a registered user.
type Comment struct {
	ID          int64     `json:"id"`
	ContentType string    `json:"content_type"`
	ObjectID    string    `json:"object_id"`
	SiteID      int64     `json:"site_id"`
	Free        bool      `json:"free"`
	UserID      *int64    `json:"user_id,omitempty"`
	PersonName  string    `json:"person_name"`
	Text        string    `json:"comment"`
	IPAddress   string    `json:"ip_address"`
	UserAgent   string    `json:"user_agent,omitempty"`
	Referrer    string    `json:"referrer,omitempty"`
	SubmitDate  time.Time `json:"submit_date"`
	IsPublic    bool      `json:"is_public"`
}

// String returns the author and the start of the text.
func (c *Comment) String() string {
	name := c.PersonName
	if name == "" {
		name = "anonymous"
	}
	return fmt.Sprintf("%s: %s", name, truncate(c.Text, 100))
}

// truncate shortens a string to maxLen runes, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
