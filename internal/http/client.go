package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"strings"
	"time"

	ioutils "github.com/handiism/bulk-downloader/internal/io"
	"github.com/handiism/bulk-downloader/internal/logging"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// DefaultTimeout bounds a single request attempt, body included.
const DefaultTimeout = 120 * time.Second

// DefaultUserAgent is sent unless a request overrides it.
const DefaultUserAgent = "bulk-downloader"

// Config holds client settings.
type Config struct {
	// Timeout bounds each attempt. Zero uses DefaultTimeout.
	Timeout time.Duration

	// UserAgent header value. Empty uses DefaultUserAgent.
	UserAgent string

	// Retries is the number of extra attempts after a transient failure.
	Retries int

	// RetryCooldown is the wait before the first retry.
	RetryCooldown time.Duration

	// RetryExponent multiplies the cooldown after every retry.
	RetryExponent float64

	// RequestsPerSecond paces request starts. Zero disables pacing.
	RequestsPerSecond float64
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() Config {
	return Config{
		Timeout:       DefaultTimeout,
		UserAgent:     DefaultUserAgent,
		Retries:       0,
		RetryCooldown: 200 * time.Millisecond,
		RetryExponent: 4.0,
	}
}

// RequestOptions shapes a single request.
type RequestOptions struct {
	// Headers are added to the request.
	Headers map[string]string

	// Referer sets the Referer header.
	Referer string

	// Anonymous drops credentials (Cookie and Authorization headers).
	Anonymous bool
}

// IsShaped reports whether the options carry custom headers or a referer.
func (o RequestOptions) IsShaped() bool {
	return len(o.Headers) > 0 || o.Referer != ""
}

// Response is a fully read response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte

	// FileName is the name announced by Content-Disposition, if any.
	FileName string
}

// Client wraps HTTP operations for batch downloads.
//
// Client provides:
//   - Configured User-Agent header
//   - Per-attempt timeout handling with typed errors
//   - Retry with exponential cooldown for transient failures
//   - File download with progress tracking
//
// Example usage:
//
//	client := NewClient(DefaultConfig())
//
//	// Fetch bytes
//	resp, err := client.Fetch(ctx, "https://example.com/a.png", RequestOptions{})
//
//	// Download file with progress
//	err = client.DownloadFile(ctx, url, "/path/to/a.png", RequestOptions{}, func(written, total int64) {
//	    fmt.Printf("%d/%d\n", written, total)
//	})
type Client struct {
	httpClient *http.Client
	config     Config
	limiter    *rate.Limiter
	logger     zerolog.Logger
}

// NewClient creates a new HTTP client.
//
// The underlying http.Client has no fixed timeout; every attempt gets its
// own deadline derived from Config.Timeout.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	if cfg.RetryExponent < 1 {
		cfg.RetryExponent = 1
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	return &Client{
		httpClient: &http.Client{},
		config:     cfg,
		limiter:    limiter,
		logger:     logging.NewLogger("http"),
	}
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// Timeout returns the per-attempt timeout.
func (c *Client) Timeout() time.Duration {
	return c.config.Timeout
}

// ProgressWriter wraps a writer to track download progress.
//
// Example:
//
//	pw := &ProgressWriter{
//	    Writer: file,
//	    Total:  contentLength,
//	    OnUpdate: func(written, total int64) {
//	        fmt.Printf("%d / %d bytes\n", written, total)
//	    },
//	}
//	io.Copy(pw, response.Body)
type ProgressWriter struct {
	// Writer is the underlying writer to write data to.
	Writer io.Writer

	// Total is the expected total bytes (from Content-Length header).
	Total int64

	// Written is the current number of bytes written.
	Written int64

	// OnUpdate is called after each Write with current progress.
	OnUpdate func(written, total int64)
}

// Write implements io.Writer, tracking progress and calling OnUpdate.
func (pw *ProgressWriter) Write(p []byte) (int, error) {
	n, err := pw.Writer.Write(p)
	pw.Written += int64(n)
	if pw.OnUpdate != nil {
		pw.OnUpdate(pw.Written, pw.Total)
	}
	return n, err
}

// Fetch performs a GET request and returns the whole body in memory.
//
// Returns an error if:
//   - The transport fails (*NetworkError)
//   - The attempt exceeds the timeout (*TimeoutError)
//   - The response status is not 2xx (*HTTPStatusError)
//
// Transient failures are retried up to Config.Retries times.
//
// Example:
//
//	resp, err := client.Fetch(ctx, "https://example.com/image.jpg", RequestOptions{Referer: "https://example.com/"})
func (c *Client) Fetch(ctx context.Context, url string, opts RequestOptions) (*Response, error) {
	var result *Response
	err := c.withRetry(ctx, url, func(ctx context.Context) error {
		resp, err := c.do(ctx, url, opts)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return c.classify(ctx, url, err)
		}

		result = &Response{
			StatusCode: resp.StatusCode,
			Header:     resp.Header,
			Body:       body,
			FileName:   ParseContentDisposition(resp.Header.Get("Content-Disposition")),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetString performs a GET request and returns the response body as a string.
//
// This is a convenience wrapper around Fetch for text content like HTML.
func (c *Client) GetString(ctx context.Context, url string, opts RequestOptions) (string, error) {
	resp, err := c.Fetch(ctx, url, opts)
	if err != nil {
		return "", err
	}
	return string(resp.Body), nil
}

// DownloadFile streams a resource to destPath without buffering it in memory.
//
// The content is written to destPath+".part" and renamed once complete, so a
// failed download never leaves a truncated file behind.
//
// Parameters:
//   - ctx: Context for cancellation
//   - url: URL to download from
//   - destPath: Local file path to save to
//   - opts: Request shaping
//   - onProgress: Optional callback called with (bytesWritten, totalBytes)
//     Pass nil to disable progress tracking
func (c *Client) DownloadFile(ctx context.Context, url, destPath string, opts RequestOptions, onProgress func(written, total int64)) error {
	_, err := c.DownloadTo(ctx, url, opts, func(string) (string, error) {
		return destPath, nil
	}, onProgress)
	return err
}

// DownloadTo streams a resource to a path chosen once the response headers
// are in.
//
// dest receives the name announced by Content-Disposition (empty when there
// is none) and returns the destination path. It is only called for 2xx
// responses and may be called again when an attempt is retried. The written
// path is returned.
func (c *Client) DownloadTo(ctx context.Context, url string, opts RequestOptions, dest func(fileName string) (string, error), onProgress func(written, total int64)) (string, error) {
	var destPath string
	err := c.withRetry(ctx, url, func(ctx context.Context) error {
		resp, err := c.do(ctx, url, opts)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		destPath, err = dest(ParseContentDisposition(resp.Header.Get("Content-Disposition")))
		if err != nil {
			return err
		}

		var body io.Reader = resp.Body
		if onProgress != nil {
			body = io.TeeReader(resp.Body, &ProgressWriter{
				Writer:   io.Discard,
				Total:    resp.ContentLength,
				OnUpdate: onProgress,
			})
		}

		if err := ioutils.WriteFileAtomic(ctx, destPath, body); err != nil {
			return c.classify(ctx, url, err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return destPath, nil
}

// do sends one GET request and checks the status code.
// The caller must close the body of a non-nil response.
func (c *Client) do(ctx context.Context, url string, opts RequestOptions) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &NetworkError{URL: url, Err: err}
	}
	c.applyOptions(req, opts)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.classify(ctx, url, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, &HTTPStatusError{URL: url, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	return resp, nil
}

func (c *Client) applyOptions(req *http.Request, opts RequestOptions) {
	req.Header.Set("User-Agent", c.config.UserAgent)
	for key, value := range opts.Headers {
		if opts.Anonymous && isCredentialHeader(key) {
			continue
		}
		req.Header.Set(key, value)
	}
	if opts.Referer != "" {
		req.Header.Set("Referer", opts.Referer)
	}
}

func isCredentialHeader(key string) bool {
	switch strings.ToLower(key) {
	case "cookie", "authorization":
		return true
	}
	return false
}

// classify maps a transport error to NetworkError or TimeoutError.
// Cancellation of ctx itself is returned unchanged.
func (c *Client) classify(ctx context.Context, url string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &TimeoutError{URL: url, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &TimeoutError{URL: url, Err: err}
	}
	if ctx.Err() != nil && errors.Is(err, context.Canceled) {
		return err
	}
	return &NetworkError{URL: url, Err: err}
}

// withRetry runs attempt with a fresh per-attempt timeout until it succeeds,
// fails permanently, or retries are exhausted.
func (c *Client) withRetry(ctx context.Context, url string, attempt func(ctx context.Context) error) error {
	var err error
	for tries := 0; tries <= c.config.Retries; tries++ {
		if tries > 0 {
			c.logger.Warn().
				Err(err).
				Str("url", url).
				Int("attempt", tries+1).
				Msg("Retrying request")
			if waitErr := c.waitForRetry(ctx, tries-1); waitErr != nil {
				return waitErr
			}
		}

		if c.limiter != nil {
			if waitErr := c.limiter.Wait(ctx); waitErr != nil {
				return waitErr
			}
		}

		attemptCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
		err = attempt(attemptCtx)
		cancel()

		if err == nil || !retryable(err) || ctx.Err() != nil {
			return err
		}
	}

	if c.config.Retries > 0 {
		return fmt.Errorf("after %d attempts: %w", c.config.Retries+1, err)
	}
	return err
}

func (c *Client) waitForRetry(ctx context.Context, tries int) error {
	cooldown := float64(c.config.RetryCooldown) * math.Pow(c.config.RetryExponent, float64(tries))
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(time.Duration(cooldown)):
		return nil
	}
}
