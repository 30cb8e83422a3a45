package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Issue holds the tracker metadata the pipeline consumes: the workflow
// state (only actionable issues get validated), attachment URLs, and the
// documentation-only flag derived from labels.
type Issue struct {
	Key               string   `json:"key"`
	Status            string   `json:"status"`
	Labels            []string `json:"labels"`
	Attachments       []string `json:"attachments"`
	DocumentationOnly bool     `json:"documentation_only"`
}

// Client provides issue-tracker operations. Interface for testing.
type Client interface {
	Issue(ctx context.Context, key string) (*Issue, error)
	PostComment(ctx context.Context, key string, body string) error
}

// HTTPClient talks to a JIRA-compatible REST API.
type HTTPClient struct {
	baseURL  string
	username string
	password string
	http     *http.Client
}

// NewHTTPClient creates a tracker client. Credentials may be empty for
// read-only anonymous access.
func NewHTTPClient(baseURL, username, password string) *HTTPClient {
	return &HTTPClient{
		baseURL:  strings.TrimRight(baseURL, "/"),
		username: username,
		password: password,
		http:     &http.Client{Timeout: 30 * time.Second},
	}
}

// issueResponse mirrors the subset of the tracker's issue JSON we read.
type issueResponse struct {
	Key    string `json:"key"`
	Fields struct {
		Status struct {
			Name string `json:"name"`
		} `json:"status"`
		Labels     []string `json:"labels"`
		Attachment []struct {
			Filename string `json:"filename"`
			Content  string `json:"content"`
			Created  string `json:"created"`
		} `json:"attachment"`
	} `json:"fields"`
}

// docLabels mark issues whose patch is documentation-only and therefore
// exempt from the test-presence gate.
var docLabels = map[string]bool{
	"documentation": true,
	"docs-only":     true,
}

// Issue fetches issue metadata: status, labels, and attachment URLs.
func (c *HTTPClient) Issue(ctx context.Context, key string) (*Issue, error) {
	url := fmt.Sprintf("%s/rest/api/2/issue/%s?fields=status,labels,attachment", c.baseURL, key)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build issue request: %w", err)
	}
	c.auth(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch issue %s: %w", key, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch issue %s: unexpected status %s", key, resp.Status)
	}

	var ir issueResponse
	if err := json.NewDecoder(resp.Body).Decode(&ir); err != nil {
		return nil, fmt.Errorf("parse issue %s JSON: %w", key, err)
	}

	issue := &Issue{
		Key:    ir.Key,
		Status: ir.Fields.Status.Name,
		Labels: ir.Fields.Labels,
	}
	for _, a := range ir.Fields.Attachment {
		issue.Attachments = append(issue.Attachments, a.Content)
	}
	for _, l := range issue.Labels {
		if docLabels[strings.ToLower(l)] {
			issue.DocumentationOnly = true
		}
	}
	return issue, nil
}

// PostComment posts the report as an issue comment. Callers treat this as
// best-effort: a failed post never fails the run.
func (c *HTTPClient) PostComment(ctx context.Context, key string, body string) error {
	payload, err := json.Marshal(map[string]string{"body": body})
	if err != nil {
		return fmt.Errorf("marshal comment: %w", err)
	}

	url := fmt.Sprintf("%s/rest/api/2/issue/%s/comment", c.baseURL, key)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build comment request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.auth(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("post comment to %s: %w", key, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("post comment to %s: unexpected status %s", key, resp.Status)
	}
	return nil
}

func (c *HTTPClient) auth(req *http.Request) {
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}
}
