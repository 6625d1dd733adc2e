package save

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/handiism/bulk-downloader/internal/http"
	ioutils "github.com/handiism/bulk-downloader/internal/io"
)

// ErrNoClient is returned by DiskSaver.SaveURL when no HTTP client is set.
var ErrNoClient = errors.New("saver has no http client")

// Saver copies a staged file to its destination and returns the final path.
type Saver interface {
	Save(ctx context.Context, src, name string) (string, error)
}

// NameFunc picks the file name of a resource saved from its URL. It receives
// the name announced by the server, empty when there is none, and is called
// at most once per save.
type NameFunc func(announced string) string

// StaticName returns a NameFunc that ignores the announced name.
func StaticName(name string) NameFunc {
	return func(string) string { return name }
}

// URLSaver is a Saver that can also save a resource straight from its URL.
type URLSaver interface {
	Saver
	SaveURL(ctx context.Context, url string, name NameFunc, opts http.RequestOptions) (string, error)
}

// DiskSaver saves files into a directory.
//
// With SaveAs set an existing file is never overwritten: the first unused
// "name (n).ext" is chosen instead. Without it the destination is replaced.
type DiskSaver struct {
	Dir    string
	SaveAs bool

	client *http.Client
	mu     sync.Mutex
}

// NewDiskSaver creates a DiskSaver writing into dir. client is used by
// SaveURL and may be nil when only staged files are saved.
func NewDiskSaver(dir string, saveAs bool, client *http.Client) *DiskSaver {
	return &DiskSaver{Dir: dir, SaveAs: saveAs, client: client}
}

// Save copies src into the directory under name.
//
// Free space is checked against the size of src before writing.
func (s *DiskSaver) Save(ctx context.Context, src, name string) (string, error) {
	info, err := os.Stat(src)
	if err != nil {
		return "", err
	}

	if err := ioutils.EnsureDir(s.Dir); err != nil {
		return "", err
	}
	if err := ioutils.CheckFreeSpace(s.Dir, uint64(info.Size())); err != nil {
		return "", err
	}

	dst, err := s.reserve(name)
	if err != nil {
		return "", err
	}
	if err := ioutils.CopyFile(ctx, src, dst); err != nil {
		s.abandon(dst)
		return "", err
	}
	return dst, nil
}

// SaveURL downloads url straight into the directory. The name is chosen
// once the response headers arrive, so a Content-Disposition name can be
// taken into account.
func (s *DiskSaver) SaveURL(ctx context.Context, url string, name NameFunc, opts http.RequestOptions) (string, error) {
	if s.client == nil {
		return "", ErrNoClient
	}
	if err := ioutils.EnsureDir(s.Dir); err != nil {
		return "", err
	}

	var dst string
	path, err := s.client.DownloadTo(ctx, url, opts, func(announced string) (string, error) {
		if dst != "" {
			return dst, nil
		}
		reserved, err := s.reserve(name(announced))
		if err != nil {
			return "", err
		}
		dst = reserved
		return dst, nil
	}, nil)
	if err != nil {
		if dst != "" {
			s.abandon(dst)
		}
		return "", err
	}
	return path, nil
}

// reserve picks the destination path for name. In SaveAs mode an empty
// placeholder is created under the lock so concurrent saves of the same
// name end up in different files.
func (s *DiskSaver) reserve(name string) (string, error) {
	name = ioutils.SanitizeFileName(name)
	if !s.SaveAs {
		return filepath.Join(s.Dir, name), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := ioutils.AvailablePath(s.Dir, name)
	placeholder, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return "", err
	}
	return path, placeholder.Close()
}

func (s *DiskSaver) abandon(path string) {
	if s.SaveAs {
		os.Remove(path)
	}
}
