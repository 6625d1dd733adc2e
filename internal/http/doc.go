// Package http provides the HTTP client used to fetch batch resources.
//
// The Client in this package handles:
//   - Per-request timeouts with typed errors (NetworkError, TimeoutError, HTTPStatusError)
//   - Request shaping: custom headers, referer, anonymous requests
//   - Optional retries with exponential cooldown for transient failures
//   - Optional request pacing
//   - Filename discovery from Content-Disposition headers and URLs
//
// # Basic Usage
//
//	client := http.NewClient(http.DefaultConfig())
//
//	// Fetch a resource into memory
//	resp, err := client.Fetch(ctx, "https://example.com/a.png", http.RequestOptions{})
//
//	// Stream a resource to disk with progress callback
//	client.DownloadFile(ctx, url, "/path/to/a.png", http.RequestOptions{}, func(written, total int64) {
//	    fmt.Printf("%d/%d\n", written, total)
//	})
//
// # Errors
//
// Use errors.As to tell failures apart:
//
//	var statusErr *http.HTTPStatusError
//	if errors.As(err, &statusErr) {
//	    fmt.Println(statusErr.StatusCode)
//	}
package http
