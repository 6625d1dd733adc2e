// Package archive packs fetched payloads into a single zip container.
//
// Entry names are de-duplicated case-insensitively before packing, and an
// optional top-level folder groups every entry:
//
//	data, err := archive.NewArchiver().Pack(ctx, entries, archive.Options{Folder: "photos"}, func(percent int) {
//	    fmt.Printf("%d%%\n", percent)
//	})
package archive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"

	ioutils "github.com/handiism/bulk-downloader/internal/io"
)

// DefaultName is used when a batch has no archive name.
const DefaultName = "download.zip"

// ArchiveError reports a failure while serializing the container.
type ArchiveError struct {
	Entry string
	Err   error
}

// Error implements the error interface.
func (e *ArchiveError) Error() string {
	if e.Entry != "" {
		return fmt.Sprintf("archive entry %q: %v", e.Entry, e.Err)
	}
	return fmt.Sprintf("archive: %v", e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *ArchiveError) Unwrap() error {
	return e.Err
}

// Entry is one file to pack.
type Entry struct {
	Name string
	Data []byte
}

// Options controls packing.
type Options struct {
	// Folder, when set, is a top-level directory holding every entry.
	Folder string

	// Level is the deflate level. Zero uses flate.DefaultCompression.
	Level int
}

// Archiver builds zip containers in memory.
type Archiver struct {
	now func() time.Time
}

// NewArchiver creates a new Archiver.
func NewArchiver() *Archiver {
	return &Archiver{now: time.Now}
}

// Pack writes entries into one zip archive and returns its bytes.
//
// Entry names are passed through ioutils.UniqueFileNames, so the archive
// never holds two entries whose names differ only in case. onProgress, if
// set, receives 0 before the first entry, a non-decreasing percentage of
// payload bytes written, and 100 once the archive is complete.
//
// Any failure returns *ArchiveError and no data.
func (a *Archiver) Pack(ctx context.Context, entries []Entry, opts Options, onProgress func(percent int)) ([]byte, error) {
	report := func(int) {}
	if onProgress != nil {
		last := -1
		report = func(percent int) {
			if percent > last {
				last = percent
				onProgress(percent)
			}
		}
	}

	var total int64
	names := make([]string, len(entries))
	for i, entry := range entries {
		total += int64(len(entry.Data))
		names[i] = ioutils.SanitizeFileName(entry.Name)
	}
	names = ioutils.UniqueFileNames(names)

	level := opts.Level
	if level == 0 {
		level = flate.DefaultCompression
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, level)
	})

	report(0)

	folder := ""
	if strings.TrimSpace(opts.Folder) != "" {
		folder = ioutils.SanitizeFileName(opts.Folder)
	}
	if folder != "" {
		if _, err := zw.CreateHeader(&zip.FileHeader{Name: folder + "/", Modified: a.now()}); err != nil {
			return nil, &ArchiveError{Entry: folder + "/", Err: err}
		}
	}

	var written int64
	for i, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, &ArchiveError{Err: err}
		}

		name := names[i]
		if folder != "" {
			name = path.Join(folder, name)
		}

		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     name,
			Method:   zip.Deflate,
			Modified: a.now(),
		})
		if err != nil {
			return nil, &ArchiveError{Entry: name, Err: err}
		}
		if _, err := w.Write(entry.Data); err != nil {
			return nil, &ArchiveError{Entry: name, Err: err}
		}

		written += int64(len(entry.Data))
		if total > 0 {
			report(int(written * 99 / total))
		}
	}

	if err := zw.Close(); err != nil {
		return nil, &ArchiveError{Err: err}
	}

	report(100)
	return buf.Bytes(), nil
}

// FileName normalizes an archive name: empty names become DefaultName, a
// ".zip" extension is appended when missing, and illegal characters are
// replaced.
func FileName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return DefaultName
	}
	if !strings.HasSuffix(strings.ToLower(name), ".zip") {
		name += ".zip"
	}
	return ioutils.SanitizeFileName(name)
}
