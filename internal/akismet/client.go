// Package akismet checks comments against the Akismet spam-detection service.
package akismet

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const (
	defaultBaseURL = "https://rest.akismet.com"
	apiVersion     = "1.1"
	userAgent      = "comment-utils/1.0 | Akismet/1.1"
)

// Comment holds the fields Akismet uses to classify a comment.
type Comment struct {
	Content     string
	Author      string
	AuthorEmail string
	UserIP      string
	UserAgent   string
	Referrer    string
	// Type is the Akismet comment_type; empty means "comment".
	Type string
}

// Client talks to the Akismet REST API.
type Client struct {
	httpClient *http.Client
	apiKey     string
	blogURL    string

	// Overridable for testing. When set, the key is not used as a subdomain.
	baseURL string
}

// NewClient creates an Akismet client for the given key and site URL.
func NewClient(apiKey, blogURL string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("akismet API key is required")
	}
	if blogURL == "" {
		return nil, fmt.Errorf("akismet blog URL is required")
	}
	return &Client{
		httpClient: newHTTPClient(2),
		apiKey:     apiKey,
		blogURL:    blogURL,
	}, nil
}

// VerifyKey reports whether the API key is valid for the blog URL.
func (c *Client) VerifyKey() (bool, error) {
	form := url.Values{
		"key":  {c.apiKey},
		"blog": {c.blogURL},
	}

	body, _, err := c.post(c.endpoint("verify-key", false), form)
	if err != nil {
		return false, fmt.Errorf("verifying key: %w", err)
	}

	switch body {
	case "valid":
		return true, nil
	case "invalid":
		return false, nil
	default:
		return false, fmt.Errorf("verifying key: unexpected response %q", body)
	}
}

// CommentCheck reports whether Akismet classifies the comment as spam.
func (c *Client) CommentCheck(cm Comment) (bool, error) {
	commentType := cm.Type
	if commentType == "" {
		commentType = "comment"
	}

	form := url.Values{
		"blog":            {c.blogURL},
		"user_ip":         {cm.UserIP},
		"user_agent":      {cm.UserAgent},
		"referrer":        {cm.Referrer},
		"comment_type":    {commentType},
		"comment_content": {cm.Content},
	}
	if cm.Author != "" {
		form.Set("comment_author", cm.Author)
	}
	if cm.AuthorEmail != "" {
		form.Set("comment_author_email", cm.AuthorEmail)
	}

	body, header, err := c.post(c.endpoint("comment-check", true), form)
	if err != nil {
		return false, fmt.Errorf("checking comment: %w", err)
	}

	switch body {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		if help := header.Get("X-akismet-debug-help"); help != "" {
			return false, fmt.Errorf("checking comment: %s", help)
		}
		return false, fmt.Errorf("checking comment: unexpected response %q", body)
	}
}

// endpoint builds the URL for a method. Keyed methods are sent to the
// key's subdomain.
func (c *Client) endpoint(method string, keyed bool) string {
	if c.baseURL != "" {
		return fmt.Sprintf("%s/%s/%s", c.baseURL, apiVersion, method)
	}
	if keyed {
		return fmt.Sprintf("https://%s.rest.akismet.com/%s/%s", url.PathEscape(c.apiKey), apiVersion, method)
	}
	return fmt.Sprintf("%s/%s/%s", defaultBaseURL, apiVersion, method)
}

// post sends a form and returns the trimmed response body and headers.
func (c *Client) post(endpoint string, form url.Values) (body string, header http.Header, err error) {
	req, err := http.NewRequest("POST", endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("sending request: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing body: %w", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return "", nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return "", nil, fmt.Errorf("reading response: %w", err)
	}

	return strings.TrimSpace(string(raw)), resp.Header, nil
}
