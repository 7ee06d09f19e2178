// File: internal/client/client.go
// Description: HTTP client for the remote tender-analysis service. Implements
// schemas.AnalysisService plus the catalog/listing endpoints the CLI commands
// use. Transport-level failures are reported as *TransportError so callers
// can tell them apart from application-level job failures.

package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/bidlens/bidlens-cli/api/schemas"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// Defaults for the service client.
const (
	DefaultTimeout      = 60 * time.Second
	DefaultRateLimitRPS = 10
)

// Config holds the transport settings for the service client.
type Config struct {
	// BaseURL is the root of the analysis service, e.g. "http://localhost:8000".
	BaseURL string
	// Timeout bounds each individual request round trip.
	Timeout time.Duration
	// RateLimitRPS caps outbound requests per second. Zero uses the default.
	RateLimitRPS float64
	// Headers are added to every request (auth tokens, tenant ids, ...).
	Headers map[string]string
}

// TransportError is a submission or poll request that failed below the
// application level: a network error, a timeout, or a non-success HTTP status.
type TransportError struct {
	Op     string // "submit_text", "get_job", ...
	Status int    // HTTP status, 0 for network-level failures
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: service returned HTTP %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Client talks to the analysis service over HTTP.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	headers    map[string]string
	limiter    *rate.Limiter
	logger     *zap.Logger
}

// New validates the configuration and builds a client.
func New(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("service base URL is not configured")
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid service base URL %q: %w", cfg.BaseURL, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("service base URL %q must be http or https", cfg.BaseURL)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	rps := cfg.RateLimitRPS
	if rps <= 0 {
		rps = DefaultRateLimitRPS
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    base,
		headers:    cfg.Headers,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		logger:     logger,
	}, nil
}

// SubmitText submits raw text for asynchronous analysis.
func (c *Client) SubmitText(ctx context.Context, text, filename string) (*schemas.JobSnapshot, error) {
	payload := map[string]any{
		"text":       text,
		"async_mode": true,
	}
	if filename != "" {
		payload["filename"] = filename
	}
	body, err := jsonAPI.Marshal(payload)
	if err != nil {
		return nil, &TransportError{Op: "submit_text", Err: err}
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/analyze/text", bytes.NewReader(body))
	if err != nil {
		return nil, &TransportError{Op: "submit_text", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	var snap schemas.JobSnapshot
	if err := c.do(req, "submit_text", &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// SubmitFile uploads a document for asynchronous analysis.
func (c *Client) SubmitFile(ctx context.Context, path string) (*schemas.JobSnapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &TransportError{Op: "submit_file", Err: err}
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, &TransportError{Op: "submit_file", Err: err}
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, &TransportError{Op: "submit_file", Err: err}
	}
	if err := mw.Close(); err != nil {
		return nil, &TransportError{Op: "submit_file", Err: err}
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/analyze/file?async_mode=true", &buf)
	if err != nil {
		return nil, &TransportError{Op: "submit_file", Err: err}
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var snap schemas.JobSnapshot
	if err := c.do(req, "submit_file", &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// GetJob fetches the current snapshot of a job.
func (c *Client) GetJob(ctx context.Context, jobID string) (*schemas.JobSnapshot, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/jobs/"+url.PathEscape(jobID), nil)
	if err != nil {
		return nil, &TransportError{Op: "get_job", Err: err}
	}
	var snap schemas.JobSnapshot
	if err := c.do(req, "get_job", &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// ListJobs returns the service's recent jobs, newest first.
func (c *Client) ListJobs(ctx context.Context) ([]schemas.JobSnapshot, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/jobs", nil)
	if err != nil {
		return nil, &TransportError{Op: "list_jobs", Err: err}
	}
	var out struct {
		Jobs []schemas.JobSnapshot `json:"jobs"`
	}
	if err := c.do(req, "list_jobs", &out); err != nil {
		return nil, err
	}
	return out.Jobs, nil
}

// Rules fetches the service's rule catalog.
func (c *Client) Rules(ctx context.Context) ([]schemas.Rule, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/rules", nil)
	if err != nil {
		return nil, &TransportError{Op: "rules", Err: err}
	}
	var out struct {
		Rules []schemas.Rule `json:"rules"`
	}
	if err := c.do(req, "rules", &out); err != nil {
		return nil, err
	}
	return out.Rules, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.New().String())
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	return req, nil
}

// do executes the request under the rate limiter and decodes a JSON response
// into out. Non-2xx statuses become a *TransportError carrying the service's
// error detail when one is present.
func (c *Client) do(req *http.Request, op string, out any) error {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return &TransportError{Op: op, Err: err}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	c.logger.Debug("service request",
		zap.String("op", op),
		zap.String("method", req.Method),
		zap.String("url", req.URL.String()),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &TransportError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("%s", errorDetail(body))}
	}

	if out == nil {
		return nil
	}
	if err := jsonAPI.Unmarshal(body, out); err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("decoding response: %w", err)}
	}
	return nil
}

// errorDetail extracts the service's {"detail": "..."} error body, falling
// back to the raw body.
func errorDetail(body []byte) string {
	var out struct {
		Detail string `json:"detail"`
	}
	if err := jsonAPI.Unmarshal(body, &out); err == nil && out.Detail != "" {
		return out.Detail
	}
	s := strings.TrimSpace(string(body))
	if s == "" {
		return "no error detail"
	}
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
