package save

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/handiism/bulk-downloader/internal/http"
	"github.com/handiism/bulk-downloader/internal/logging"
	"github.com/rs/zerolog"
)

// ErrURLUnsupported is returned when a URL save is requested from a Saver
// that cannot fetch URLs itself.
var ErrURLUnsupported = errors.New("saver does not support saving from url")

// SaveError reports a failed save.
type SaveError struct {
	Name string
	Err  error
}

// Error implements the error interface.
func (e *SaveError) Error() string {
	return fmt.Sprintf("save %q: %v", e.Name, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *SaveError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the save was abandoned because it took too long.
func (e *SaveError) Timeout() bool {
	return errors.Is(e.Err, context.DeadlineExceeded)
}

// Persister runs saves against a Saver.
//
// Each save resolves exactly once: with the saver's result, with a timeout
// when the saver does not return in time, or with an error when it panics.
type Persister struct {
	saver   Saver
	timeout time.Duration
	tempDir string
	logger  zerolog.Logger
}

// NewPersister creates a Persister. A timeout of zero disables the guard.
func NewPersister(saver Saver, timeout time.Duration) *Persister {
	return &Persister{
		saver:   saver,
		timeout: timeout,
		logger:  logging.NewLogger("save"),
	}
}

// SetTempDir sets where blobs are staged. Empty uses the system default.
func (p *Persister) SetTempDir(dir string) {
	p.tempDir = dir
}

// Save stages data as a blob and hands it to the saver under name.
// The blob is released before Save returns, whatever the outcome.
func (p *Persister) Save(ctx context.Context, name string, data []byte) (string, error) {
	blob, err := Stage(p.tempDir, data)
	if err != nil {
		return "", &SaveError{Name: name, Err: err}
	}
	defer func() {
		if err := blob.Release(); err != nil {
			p.logger.Warn().Err(err).Str("path", blob.Path()).Msg("Failed to release blob")
		}
	}()

	return p.guard(ctx, name, func(ctx context.Context) (string, error) {
		return p.saver.Save(ctx, blob.Path(), name)
	})
}

// SaveURL asks the saver to fetch url itself and store it under the name
// picked by name. Errors carry url as their name.
func (p *Persister) SaveURL(ctx context.Context, url string, name NameFunc, opts http.RequestOptions) (string, error) {
	urlSaver, ok := p.saver.(URLSaver)
	if !ok {
		return "", &SaveError{Name: url, Err: ErrURLUnsupported}
	}

	return p.guard(ctx, url, func(ctx context.Context) (string, error) {
		return urlSaver.SaveURL(ctx, url, name, opts)
	})
}

// SupportsURL reports whether the underlying saver can save from a URL.
func (p *Persister) SupportsURL() bool {
	_, ok := p.saver.(URLSaver)
	return ok
}

type saveResult struct {
	path string
	err  error
}

func (p *Persister) guard(ctx context.Context, name string, fn func(ctx context.Context) (string, error)) (string, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	done := make(chan saveResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- saveResult{err: fmt.Errorf("saver panic: %v", r)}
			}
		}()
		path, err := fn(ctx)
		done <- saveResult{path: path, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return "", &SaveError{Name: name, Err: res.err}
		}
		p.logger.Debug().Str("name", name).Str("path", res.path).Msg("Saved")
		return res.path, nil
	case <-ctx.Done():
		return "", &SaveError{Name: name, Err: ctx.Err()}
	}
}
