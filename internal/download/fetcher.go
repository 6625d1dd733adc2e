package download

import (
	"context"
	"fmt"
	"time"

	"github.com/handiism/bulk-downloader/internal/http"
	ioutils "github.com/handiism/bulk-downloader/internal/io"
	"github.com/handiism/bulk-downloader/internal/model"
	"github.com/rs/zerolog"
)

// Fetcher retrieves request payloads into memory.
type Fetcher struct {
	client *http.Client
	opts   http.RequestOptions
	logger zerolog.Logger
}

// NewFetcher creates a Fetcher that shapes every request with opts.
func NewFetcher(client *http.Client, opts http.RequestOptions, logger zerolog.Logger) *Fetcher {
	return &Fetcher{client: client, opts: opts, logger: logger}
}

// Fetch downloads req and returns its result with a resolved file name.
// index is the request's position in the batch; batch selects the
// "file-<n>" fallback name instead of "file".
func (f *Fetcher) Fetch(ctx context.Context, req model.Request, index int, batch bool) model.FetchResult {
	start := time.Now()
	resp, err := f.client.Fetch(ctx, req.URL, f.opts)
	fetchDuration.Observe(time.Since(start).Seconds())
	fetchesTotal.WithLabelValues(resultLabel(err)).Inc()

	if err != nil {
		f.logger.Debug().
			Err(err).
			Str("url", req.URL).
			Int("index", index).
			Dur("duration", time.Since(start)).
			Msg("Fetch failed")
		return model.FetchResult{
			Index:    index,
			URL:      req.URL,
			FileName: ResolveFileName(req.FileName, "", req.URL, index, batch),
			Err:      err,
		}
	}

	fetchedBytesTotal.Add(float64(len(resp.Body)))
	name := ResolveFileName(req.FileName, resp.FileName, req.URL, index, batch)

	f.logger.Debug().
		Str("url", req.URL).
		Str("name", name).
		Int("index", index).
		Int("bytes", len(resp.Body)).
		Dur("duration", time.Since(start)).
		Msg("Fetched")

	return model.FetchResult{
		Index:    index,
		URL:      req.URL,
		FileName: name,
		Data:     resp.Body,
	}
}

// ResolveFileName picks the output name for a request.
//
// Priority: caller hint, then the Content-Disposition name, then the last
// URL path segment, then "file" ("file-<index+1>" in batch context). The
// result is always sanitized.
func ResolveFileName(hint, disposition, rawURL string, index int, batch bool) string {
	for _, candidate := range []string{hint, disposition, http.InferFileName(rawURL)} {
		if candidate != "" {
			return ioutils.SanitizeFileName(candidate)
		}
	}
	if batch {
		return fmt.Sprintf("%s-%d", ioutils.DefaultFileName, index+1)
	}
	return ioutils.DefaultFileName
}
