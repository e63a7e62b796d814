package akismet

import "net/http"

// SetTestURL points a client at a test server and disables retries.
// This should only be used in tests.
func SetTestURL(c *Client, baseURL string) {
	c.baseURL = baseURL
	c.httpClient = &http.Client{}
}
