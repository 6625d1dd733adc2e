package history

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	ioutils "github.com/handiism/bulk-downloader/internal/io"
)

// FileLedger stores the ledger as a JSON object of URL to mark time.
//
// The whole document is rewritten on every change.
type FileLedger struct {
	path    string
	entries map[string]string
	mu      sync.Mutex
}

// OpenFileLedger loads the ledger at path. A missing file yields an empty
// ledger; the file is created on the first change.
func OpenFileLedger(path string) (*FileLedger, error) {
	l := &FileLedger{path: path, entries: make(map[string]string)}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return l, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return l, nil
	}
	if err := json.Unmarshal(data, &l.entries); err != nil {
		return nil, fmt.Errorf("parse ledger %s: %w", path, err)
	}
	return l, nil
}

// Has implements Ledger.
func (l *FileLedger) Has(ctx context.Context, url string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.entries[url]
	return ok, nil
}

// Mark implements Ledger.
func (l *FileLedger) Mark(ctx context.Context, urls ...string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := timestamp()
	for _, url := range urls {
		l.entries[url] = now
	}
	return l.flush(ctx)
}

// Remove implements Ledger.
func (l *FileLedger) Remove(ctx context.Context, urls ...string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, url := range urls {
		delete(l.entries, url)
	}
	return l.flush(ctx)
}

// Clear implements Ledger.
func (l *FileLedger) Clear(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = make(map[string]string)
	return l.flush(ctx)
}

// List implements Ledger.
func (l *FileLedger) List(ctx context.Context) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	urls := make([]string, 0, len(l.entries))
	for url := range l.entries {
		urls = append(urls, url)
	}
	sort.Strings(urls)
	return urls, nil
}

func (l *FileLedger) flush(ctx context.Context) error {
	data, err := json.MarshalIndent(l.entries, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(l.path); dir != "" {
		if err := ioutils.EnsureDir(dir); err != nil {
			return err
		}
	}
	if err := ioutils.WriteFileAtomic(ctx, l.path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write ledger: %w", err)
	}
	return nil
}
