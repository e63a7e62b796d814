// Package client provides an HTTP client for the comment web endpoints.
package client

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"

	"github.com/evcraddock/comment-utils/internal/comment"
)

// Client talks to a server built with package web.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new API client.
func New(baseURL string) *Client {
	hc := cleanhttp.DefaultPooledClient()
	hc.Timeout = 30 * time.Second
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: hc,
	}
}

// Error is a non-2xx response from the server.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (HTTP %d)", e.Message, e.StatusCode)
}

// Post is a new comment for PostComment. A zero UserID posts a free
// (anonymous) comment.
type Post struct {
	ContentType string
	ObjectID    string
	Name        string
	Text        string
	UserID      int64
}

// PostComment submits a comment. A comment held for moderation comes back
// with IsPublic false; a closed object returns an *Error with status 403.
func (c *Client) PostComment(p Post) (*comment.Comment, error) {
	form := url.Values{
		"content_type": {p.ContentType},
		"object_id":    {p.ObjectID},
		"name":         {p.Name},
		"comment":      {p.Text},
		"free":         {strconv.FormatBool(p.UserID == 0)},
	}
	if p.UserID != 0 {
		form.Set("user_id", strconv.FormatInt(p.UserID, 10))
	}

	req, err := http.NewRequest("POST", c.baseURL+"/comments/post/", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var comm comment.Comment
	if err := c.do(req, &comm); err != nil {
		return nil, err
	}
	return &comm, nil
}

// ListOptions controls ListComments. Registered lists registered-user
// comments instead of free ones; Reversed lists newest first.
type ListOptions struct {
	Registered bool
	Reversed   bool
}

// CommentList is the response from GET /api/comments.
type CommentList struct {
	Comments  []*comment.Comment `json:"comments"`
	Count     int64              `json:"count"`
	Open      bool               `json:"comments_open"`
	Moderated bool               `json:"comments_moderated"`
}

// ListComments returns the public comments on one object along with its
// moderation state.
func (c *Client) ListComments(label, objectID string, opts ListOptions) (*CommentList, error) {
	q := url.Values{
		"content_type": {label},
		"object_id":    {objectID},
	}
	if opts.Registered {
		q.Set("free", "false")
	}
	if opts.Reversed {
		q.Set("reversed", "true")
	}

	var list CommentList
	if err := c.get("/api/comments?"+q.Encode(), &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// Health checks that the server is up.
func (c *Client) Health() error {
	var resp struct {
		Status string `json:"status"`
	}
	if err := c.get("/health", &resp); err != nil {
		return err
	}
	if resp.Status != "ok" {
		return fmt.Errorf("unexpected health status %q", resp.Status)
	}
	return nil
}

// get performs a GET request and decodes the response.
func (c *Client) get(path string, result any) error {
	req, err := http.NewRequest("GET", c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	return c.do(req, result)
}

// do executes an HTTP request and handles errors.
func (c *Client) do(req *http.Request, result any) error {
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			slog.Warn("closing response body", "error", cerr)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		msg := http.StatusText(resp.StatusCode)
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			msg = errResp.Error
		}
		return &Error{StatusCode: resp.StatusCode, Message: msg}
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}
