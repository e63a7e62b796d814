// Package site provides the site domain model and data access.
package site

// Site is one deployment that comments are attached to.
type Site struct {
	ID     int64  `json:"id"`
	Domain string `json:"domain"`
	Name   string `json:"name"`
}

// String returns the site's display name.
func (s *Site) String() string {
	if s.Name != "" {
		return s.Name
	}
	return s.Domain
}
