// Package manifest writes a listing of a finished batch next to its output.
//
// Supported formats:
//   - M3U: one saved name per line, optionally with #EXTINF source lines
//   - PLS: INI-style entries with the source URL as title
//   - JSON: the full report, failures included
//
// Example:
//
//	creator := manifest.NewCreator(manifest.FormatM3U, true)
//	content, err := creator.Create(report)
package manifest

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	ioutils "github.com/handiism/bulk-downloader/internal/io"
	"github.com/handiism/bulk-downloader/internal/model"
)

// Format is a manifest file format.
type Format int

const (
	// FormatM3U lists saved names, one per line.
	FormatM3U Format = iota

	// FormatPLS is the INI-style playlist format.
	FormatPLS

	// FormatJSON is the report encoded as JSON.
	FormatJSON
)

// FormatForPath picks the format from the file extension.
// Unknown extensions use M3U.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pls":
		return FormatPLS
	case ".json":
		return FormatJSON
	default:
		return FormatM3U
	}
}

// Creator renders batch reports.
type Creator struct {
	format   Format
	extended bool // M3U only: add #EXTINF lines with the source URL
}

// NewCreator creates a Creator. extended is ignored for formats other
// than M3U.
func NewCreator(format Format, extended bool) *Creator {
	return &Creator{format: format, extended: extended}
}

// Create renders the manifest for report.
func (c *Creator) Create(report *model.Report) (string, error) {
	switch c.format {
	case FormatPLS:
		return c.createPLS(report), nil
	case FormatJSON:
		return c.createJSON(report)
	default:
		return c.createM3U(report), nil
	}
}

// Write renders the manifest and stores it atomically at path.
func (c *Creator) Write(ctx context.Context, path string, report *model.Report) error {
	content, err := c.Create(report)
	if err != nil {
		return err
	}
	if err := ioutils.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	return ioutils.WriteFileAtomic(ctx, path, strings.NewReader(content))
}

func (c *Creator) createM3U(report *model.Report) string {
	var sb strings.Builder

	if c.extended {
		sb.WriteString("#EXTM3U\n")
	}
	for _, item := range report.Successes {
		if c.extended {
			fmt.Fprintf(&sb, "#EXTINF:-1,%s\n", item.URL)
		}
		sb.WriteString(item.Name + "\n")
	}
	return sb.String()
}

func (c *Creator) createPLS(report *model.Report) string {
	var sb strings.Builder

	sb.WriteString("[playlist]\n")
	for i, item := range report.Successes {
		idx := i + 1
		fmt.Fprintf(&sb, "File%d=%s\n", idx, item.Name)
		fmt.Fprintf(&sb, "Title%d=%s\n", idx, item.URL)
		fmt.Fprintf(&sb, "Length%d=-1\n", idx)
	}
	fmt.Fprintf(&sb, "NumberOfEntries=%d\n", len(report.Successes))
	sb.WriteString("Version=2\n")
	return sb.String()
}

type jsonFailure struct {
	URL   string `json:"url"`
	Name  string `json:"name,omitempty"`
	Error string `json:"error"`
}

type jsonReport struct {
	*model.Report
	Failures []jsonFailure `json:"failures"`
}

func (c *Creator) createJSON(report *model.Report) (string, error) {
	failures := make([]jsonFailure, len(report.Failures))
	for i, item := range report.Failures {
		failures[i] = jsonFailure{URL: item.URL, Name: item.Name}
		if item.Err != nil {
			failures[i].Error = item.Err.Error()
		}
	}

	data, err := json.MarshalIndent(jsonReport{Report: report, Failures: failures}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding manifest: %w", err)
	}
	return string(data) + "\n", nil
}
