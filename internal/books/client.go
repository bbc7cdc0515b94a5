// Package books is a small client for the Zoho Books v3 REST API covering the
// read-only endpoints the report needs: projects, expenses, bills, invoices,
// contacts and record attachments.
package books

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/garyjia/books-report/internal/models"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// HTTPClient interface for testability
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config holds Books client configuration
type Config struct {
	BaseURL        string
	AuthToken      string
	AuthScheme     string // e.g. "Zoho-oauthtoken"
	OrganizationID string
	Timeout        time.Duration
	RateLimit      float64 // requests per second, <= 0 disables limiting
	RateBurst      int
	MaxRetries     int
}

// Client is an authenticated Books API client. It is safe for concurrent use.
type Client struct {
	baseURL    *url.URL
	authHeader string
	orgID      string
	httpClient HTTPClient
	limiter    *rate.Limiter
	retry      *RetryStrategy
	calls      atomic.Int64
	logger     *zap.Logger
}

// NewClient creates a new Books client
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.AuthToken == "" {
		return nil, fmt.Errorf("auth token is required")
	}
	if cfg.OrganizationID == "" {
		return nil, fmt.Errorf("organization id is required")
	}

	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}

	scheme := cfg.AuthScheme
	if scheme == "" {
		scheme = "Zoho-oauthtoken"
	}

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	burst := cfg.RateBurst
	if burst < 1 {
		burst = 1
	}

	return &Client{
		baseURL:    base,
		authHeader: scheme + " " + cfg.AuthToken,
		orgID:      cfg.OrganizationID,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(limit, burst),
		retry:      NewRetryStrategy(cfg.MaxRetries),
		logger:     logger,
	}, nil
}

// SetHTTPClient replaces the underlying HTTP client (for testing)
func (c *Client) SetHTTPClient(h HTTPClient) {
	c.httpClient = h
}

// SetRetryStrategy replaces the retry strategy (for testing)
func (c *Client) SetRetryStrategy(s *RetryStrategy) {
	c.retry = s
}

// Calls returns the number of HTTP requests issued so far, retries included
func (c *Client) Calls() int64 {
	return c.calls.Load()
}

// ListRecords fetches one page of a record collection
func (c *Client) ListRecords(ctx context.Context, t models.RecordType, page, perPage int) ([]Record, bool, error) {
	fields, err := c.getJSON(ctx, t.Collection(), pageQuery(page, perPage))
	if err != nil {
		return nil, false, err
	}

	var raws []rawRecord
	if err := decodeField(fields, t.Collection(), &raws); err != nil {
		return nil, false, err
	}
	var pc PageContext
	if err := decodeField(fields, "page_context", &pc); err != nil {
		return nil, false, err
	}

	records := make([]Record, 0, len(raws))
	for _, r := range raws {
		records = append(records, r.normalize(t))
	}
	return records, pc.HasMorePage, nil
}

// GetRecord fetches a record's detail including its line items
func (c *Client) GetRecord(ctx context.Context, t models.RecordType, id string) (*Record, error) {
	fields, err := c.getJSON(ctx, t.Collection()+"/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}

	var raw rawRecord
	if err := decodeField(fields, t.Singular(), &raw); err != nil {
		return nil, err
	}
	rec := raw.normalize(t)
	return &rec, nil
}

// GetProject fetches a project; unknown ids yield ErrNotFound
func (c *Client) GetProject(ctx context.Context, id string) (*Project, error) {
	fields, err := c.getJSON(ctx, "projects/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}

	var p Project
	if err := decodeField(fields, "project", &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListProjects fetches one page of the project list
func (c *Client) ListProjects(ctx context.Context, page, perPage int) ([]Project, bool, error) {
	fields, err := c.getJSON(ctx, "projects", pageQuery(page, perPage))
	if err != nil {
		return nil, false, err
	}

	var projects []Project
	if err := decodeField(fields, "projects", &projects); err != nil {
		return nil, false, err
	}
	var pc PageContext
	if err := decodeField(fields, "page_context", &pc); err != nil {
		return nil, false, err
	}
	return projects, pc.HasMorePage, nil
}

// GetContact fetches a vendor/customer contact
func (c *Client) GetContact(ctx context.Context, id string) (*Contact, error) {
	fields, err := c.getJSON(ctx, "contacts/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}

	var contact Contact
	if err := decodeField(fields, "contact", &contact); err != nil {
		return nil, err
	}
	return &contact, nil
}

// Open issues a GET for a binary resource such as "bills/42/attachment".
// The caller owns the returned body.
func (c *Client) Open(ctx context.Context, path string) (*http.Response, error) {
	return c.do(ctx, path, nil)
}

// getJSON performs a GET and decodes the top level object. A non-zero Books
// error code is reported as ErrAPI.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values) (map[string]json.RawMessage, error) {
	resp, err := c.do(ctx, path, query)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var fields map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&fields); err != nil {
		return nil, fmt.Errorf("failed to decode %s response: %w", path, err)
	}

	if raw, ok := fields["code"]; ok {
		var code int
		if err := json.Unmarshal(raw, &code); err == nil && code != 0 {
			var msg string
			_ = json.Unmarshal(fields["message"], &msg)
			return nil, fmt.Errorf("%w: %s: code %d: %s", ErrAPI, path, code, msg)
		}
	}

	return fields, nil
}

// do performs an authenticated GET with rate limiting and retries.
// Only 200 responses are returned; the body is the caller's to close.
func (c *Client) do(ctx context.Context, path string, query url.Values) (*http.Response, error) {
	endpoint := c.resolve(path, query)

	var lastErr error
	for attempt := 1; attempt <= c.retry.MaxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait for %s: %w", path, err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Authorization", c.authHeader)

		c.calls.Add(1)
		resp, err := c.httpClient.Do(req)
		switch {
		case err != nil:
			lastErr = fmt.Errorf("request %s failed: %w", path, err)
			if !c.retry.IsTemporaryError(err) {
				return nil, lastErr
			}
		case resp.StatusCode == http.StatusOK:
			return resp, nil
		default:
			lastErr = statusError(path, resp)
			if !c.retry.IsRetryableStatusCode(resp.StatusCode) {
				return nil, lastErr
			}
		}

		if attempt < c.retry.MaxAttempts {
			c.logger.Debug("Retrying Books request",
				zap.String("path", path),
				zap.Int("attempt", attempt),
				zap.Error(lastErr))
			if err := c.retry.wait(ctx, attempt); err != nil {
				return nil, err
			}
		}
	}

	return nil, fmt.Errorf("%s failed after %d attempts: %w", path, c.retry.MaxAttempts, lastErr)
}

// resolve builds the absolute URL for a path relative to the base URL and
// always carries the organization id
func (c *Client) resolve(path string, query url.Values) string {
	u := c.baseURL.ResolveReference(&url.URL{Path: path})

	q := url.Values{}
	for k, vs := range query {
		q[k] = append([]string(nil), vs...)
	}
	q.Set("organization_id", c.orgID)
	u.RawQuery = q.Encode()

	return u.String()
}

// statusError consumes and closes a non-200 response
func statusError(path string, resp *http.Response) error {
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	msg := strings.TrimSpace(string(body))
	var apiErr struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Message != "" {
		msg = apiErr.Message
	}

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s: %s", ErrNotFound, path, msg)
	}
	return fmt.Errorf("%w %d for %s: %s", ErrUnexpectedStatus, resp.StatusCode, path, msg)
}

func pageQuery(page, perPage int) url.Values {
	q := url.Values{}
	q.Set("page", fmt.Sprintf("%d", page))
	q.Set("per_page", fmt.Sprintf("%d", perPage))
	return q
}

func decodeField(fields map[string]json.RawMessage, key string, out any) error {
	raw, ok := fields[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrMissingField, key)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return nil
}
