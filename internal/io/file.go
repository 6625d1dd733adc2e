package ioutils

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// DefaultFileName replaces names that sanitize to nothing.
const DefaultFileName = "file"

// PartSuffix is appended to files while they are being written.
const PartSuffix = ".part"

// Characters: < > : " / \ | ? * and control characters (0x00-0x1f)
var invalidChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)

// CopyFile copies a file from source to destination.
//
// The destination is written through WriteFileAtomic, so a failed copy never
// leaves a truncated file under the destination name.
//
// Example:
//
//	err := CopyFile(ctx, "/tmp/blob-123", "/downloads/photos.zip")
func CopyFile(ctx context.Context, src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	return WriteFileAtomic(ctx, dst, sourceFile)
}

// WriteFileAtomic streams r into path.
//
// Data is written to path+".part" first and renamed into place once fully
// written and synced. The partial file is removed on any failure, including
// context cancellation between chunks.
//
// Example:
//
//	err := WriteFileAtomic(ctx, "/downloads/a.png", resp.Body)
func WriteFileAtomic(ctx context.Context, path string, r io.Reader) (err error) {
	tmp := path + PartSuffix
	file, err := os.Create(tmp)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			file.Close()
			os.Remove(tmp)
		}
	}()

	if _, err = io.Copy(file, &contextReader{ctx: ctx, r: r}); err != nil {
		return err
	}
	if err = file.Sync(); err != nil {
		return err
	}
	if err = file.Close(); err != nil {
		return err
	}

	return os.Rename(tmp, path)
}

// contextReader stops a copy once its context is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (cr *contextReader) Read(p []byte) (int, error) {
	if err := cr.ctx.Err(); err != nil {
		return 0, err
	}
	return cr.r.Read(p)
}

// SanitizeFileName replaces characters that are invalid in file names.
//
// The following transformations are applied:
//   - Invalid characters (<>:"/\|?* and control chars 0x00-0x1f) → underscore
//   - Leading and trailing whitespace → removed
//   - Trailing dots → removed, so "." and ".." never name a path
//   - Empty result → "file"
//
// Example:
//
//	SanitizeFileName("Song: Part 1/2") // Returns "Song_ Part 1_2"
//	SanitizeFileName("  a?.png ")      // Returns "a_.png"
//	SanitizeFileName("Track...")       // Returns "Track"
//	SanitizeFileName("..")             // Returns "file"
func SanitizeFileName(name string) string {
	name = invalidChars.ReplaceAllString(name, "_")
	name = strings.TrimSpace(name)
	name = strings.TrimSpace(strings.TrimRight(name, "."))
	if name == "" {
		return DefaultFileName
	}
	return name
}

// EnsureDir creates a directory and all parent directories if they don't exist.
//
// Directories are created with mode 0755 (rwxr-xr-x).
// If the directory already exists, no error is returned.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}

// AvailablePath returns a path inside dir for name that does not exist yet.
//
// When dir/name is taken, " (n)" is inserted before the extension with n
// starting at 2, the same scheme NameTable uses within a batch.
func AvailablePath(dir, name string) string {
	candidate := filepath.Join(dir, name)
	if _, err := os.Stat(candidate); os.IsNotExist(err) {
		return candidate
	}

	base, ext := SplitExt(name)
	for n := 2; ; n++ {
		candidate = filepath.Join(dir, suffixed(base, ext, n))
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}
