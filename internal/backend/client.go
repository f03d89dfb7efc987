package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/maauso/clipdesk/internal/request"
)

// Static errors for backend client operations.
var (
	// ErrBaseURLRequired is returned when the base URL is not provided.
	ErrBaseURLRequired = errors.New("backend: base URL is required")
	// ErrInvalidBaseURL is returned when the base URL cannot be parsed.
	ErrInvalidBaseURL = errors.New("backend: invalid base URL")
	// ErrFilenameRequired is returned when an upload has no file name.
	ErrFilenameRequired = errors.New("backend: file name is required")
	// ErrNoFilenameReturned is returned when a successful upload carries no handle.
	ErrNoFilenameReturned = errors.New("backend: upload succeeded but no filename returned")
	// ErrDownloadURLRequired is returned when Download is called without a reference.
	ErrDownloadURLRequired = errors.New("backend: download URL is required")
	// ErrRequestFailed is returned when the server answers with a non-2xx status
	// and a body that is not a JSON result.
	ErrRequestFailed = errors.New("backend: request failed")
)

// maxErrorBody bounds how much of an unexpected response body is kept in errors.
const maxErrorBody = 4096

// Client defines the interface for interacting with the processing service.
type Client interface {
	// Upload sends a file as multipart form data and returns the server handle.
	Upload(ctx context.Context, name string, data io.Reader) (UploadResult, error)

	// Process submits a processing request and returns the outcome.
	Process(ctx context.Context, req request.ProcessingRequest) (ProcessResult, error)

	// Download streams the result behind a download reference into w.
	Download(ctx context.Context, ref string, w io.Writer) (int64, error)

	// ResolveURL turns a download reference into an absolute URL.
	ResolveURL(ref string) (string, error)
}

// Compile-time check that HTTPClient implements Client.
var _ Client = (*HTTPClient)(nil)

// HTTPClient is the HTTP implementation of Client.
type HTTPClient struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     *slog.Logger
}

// ClientOption is a function that configures an HTTPClient.
type ClientOption func(*HTTPClient)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(hc *HTTPClient) {
		hc.httpClient = c
	}
}

// WithTimeout sets a client-side timeout for every call. Zero disables it.
func WithTimeout(d time.Duration) ClientOption {
	return func(hc *HTTPClient) {
		hc.httpClient = &http.Client{Timeout: d, Transport: hc.httpClient.Transport}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) ClientOption {
	return func(hc *HTTPClient) {
		hc.logger = l
	}
}

// NewClient creates a new backend HTTP client for the service at baseURL.
// No timeout is applied unless WithTimeout or WithHTTPClient sets one.
func NewClient(baseURL string, opts ...ClientOption) (*HTTPClient, error) {
	if baseURL == "" {
		return nil, ErrBaseURLRequired
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, baseURL)
	}

	c := &HTTPClient{
		baseURL:    u,
		httpClient: &http.Client{},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the service base URL.
func (c *HTTPClient) BaseURL() string {
	return c.baseURL.String()
}

// Upload sends data as the multipart field "file" to POST /upload.
// A response with ok=false is returned as a result, not an error.
func (c *HTTPClient) Upload(ctx context.Context, name string, data io.Reader) (UploadResult, error) {
	if name == "" {
		return UploadResult{}, ErrFilenameRequired
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		part, err := mw.CreateFormFile("file", name)
		if err == nil {
			_, err = io.Copy(part, data)
		}
		if err == nil {
			err = mw.Close()
		}
		_ = pw.CloseWithError(err)
	}()

	var resp uploadResponse
	if err := c.doRequest(ctx, http.MethodPost, c.endpoint("/upload"), mw.FormDataContentType(), pr, &resp); err != nil {
		_ = pr.Close()
		return UploadResult{}, err
	}

	if resp.OK && resp.Filename == "" {
		return UploadResult{}, ErrNoFilenameReturned
	}
	return UploadResult{OK: resp.OK, Filename: resp.Filename}, nil
}

// Process submits req to POST /process.
// A response with ok=false is returned as a result, not an error, even when
// it arrives with a 5xx status.
func (c *HTTPClient) Process(ctx context.Context, req request.ProcessingRequest) (ProcessResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return ProcessResult{}, fmt.Errorf("backend: marshal request: %w", err)
	}

	var resp processResponse
	if err := c.doRequest(ctx, http.MethodPost, c.endpoint("/process"), "application/json", bytes.NewReader(body), &resp); err != nil {
		return ProcessResult{}, err
	}

	return ProcessResult{
		OK:          resp.OK,
		Stdout:      resp.Stdout,
		Stderr:      resp.Stderr,
		DownloadURL: resp.DownloadURL,
		Detail:      resp.Detail,
		Error:       resp.Error,
	}, nil
}

// ResolveURL resolves ref against the base URL. Absolute references are
// returned unchanged.
func (c *HTTPClient) ResolveURL(ref string) (string, error) {
	if ref == "" {
		return "", ErrDownloadURLRequired
	}
	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("backend: parse download URL: %w", err)
	}
	return c.baseURL.ResolveReference(u).String(), nil
}

// Download copies the resource behind ref into w.
func (c *HTTPClient) Download(ctx context.Context, ref string, w io.Writer) (int64, error) {
	target, err := c.ResolveURL(ref)
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 0, fmt.Errorf("backend: create download request: %w", err)
	}
	req.Header.Set("X-Request-Id", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("backend: download request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return 0, fmt.Errorf("%w with status %d: %s", ErrRequestFailed, resp.StatusCode, string(b))
	}

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("backend: copy download data: %w", err)
	}
	return n, nil
}

func (c *HTTPClient) endpoint(path string) string {
	return c.baseURL.JoinPath(path).String()
}

// doRequest performs a single HTTP request and decodes the JSON body into
// result. The body is decoded regardless of status so that ok=false results
// reach the caller; only an undecodable non-2xx body is an error.
func (c *HTTPClient) doRequest(ctx context.Context, method, target, contentType string, body io.Reader, result any) error {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("backend: create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("backend: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("backend: read response: %w", err)
	}

	c.logger.Debug("backend call",
		slog.String("method", method),
		slog.String("url", target),
		slog.String("request_id", requestID),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)),
	)

	decodeErr := json.Unmarshal(respBody, result)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if decodeErr == nil {
			return nil
		}
		if len(respBody) > maxErrorBody {
			respBody = respBody[:maxErrorBody]
		}
		return fmt.Errorf("%w with status %d: %s", ErrRequestFailed, resp.StatusCode, string(respBody))
	}
	if decodeErr != nil {
		return fmt.Errorf("backend: unmarshal response: %w", decodeErr)
	}
	return nil
}
