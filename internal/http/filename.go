package http

import (
	"net/url"
	"regexp"
	"strings"

	ioutils "github.com/handiism/bulk-downloader/internal/io"
)

var (
	dispositionUTF8   = regexp.MustCompile(`(?i)filename\*\s*=\s*UTF-8''([^;]+)`)
	dispositionQuoted = regexp.MustCompile(`(?i)filename\s*=\s*"([^"]+)"`)
	dispositionBare   = regexp.MustCompile(`(?i)filename\s*=\s*([^;]+)`)
)

// ParseContentDisposition extracts a sanitized filename from a
// Content-Disposition header value.
//
// The forms are tried in this order:
//   - filename*=UTF-8''percent%20encoded.png
//   - filename="quoted name.png"
//   - filename=bare.png
//
// Returns "" when no filename is present.
func ParseContentDisposition(value string) string {
	if value == "" {
		return ""
	}

	if m := dispositionUTF8.FindStringSubmatch(value); m != nil {
		name, err := url.PathUnescape(strings.TrimSpace(m[1]))
		if err != nil {
			name = m[1]
		}
		return ioutils.SanitizeFileName(name)
	}
	if m := dispositionQuoted.FindStringSubmatch(value); m != nil {
		return ioutils.SanitizeFileName(m[1])
	}
	if m := dispositionBare.FindStringSubmatch(value); m != nil {
		return ioutils.SanitizeFileName(m[1])
	}
	return ""
}

// InferFileName derives a sanitized filename from the last non-empty path
// segment of rawURL. Query and fragment are ignored.
//
// Returns "" when the URL has no usable path segment.
//
// Example:
//
//	InferFileName("https://a/img/x%20y.png?w=100") // "x y.png"
func InferFileName(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	segments := strings.Split(u.Path, "/")
	for i := len(segments) - 1; i >= 0; i-- {
		if segments[i] == "" {
			continue
		}
		return ioutils.SanitizeFileName(segments[i])
	}
	return ""
}
