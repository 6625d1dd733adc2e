package manifest

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/handiism/bulk-downloader/internal/model"
)

func testReport() *model.Report {
	return &model.Report{
		BatchID: "batch-1",
		Mode:    model.ModeFiles,
		Successes: []model.SavedItem{
			{URL: "https://example.com/a.png", Name: "a.png"},
			{URL: "https://example.com/b.png", Name: "b (2).png"},
		},
		Failures: []model.FailedItem{
			{URL: "https://example.com/c.png", Err: errors.New("404 Not Found")},
		},
	}
}

func TestCreator_M3U(t *testing.T) {
	content, err := NewCreator(FormatM3U, false).Create(testReport())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if content != "a.png\nb (2).png\n" {
		t.Errorf("content = %q", content)
	}
}

func TestCreator_M3UExtended(t *testing.T) {
	content, err := NewCreator(FormatM3U, true).Create(testReport())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if !strings.HasPrefix(content, "#EXTM3U\n") {
		t.Error("extended M3U should start with #EXTM3U")
	}
	if !strings.Contains(content, "#EXTINF:-1,https://example.com/a.png\na.png\n") {
		t.Errorf("missing EXTINF entry:\n%s", content)
	}
}

func TestCreator_PLS(t *testing.T) {
	content, err := NewCreator(FormatPLS, false).Create(testReport())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	for _, want := range []string{"[playlist]\n", "File2=b (2).png\n", "Title1=https://example.com/a.png\n", "NumberOfEntries=2\n"} {
		if !strings.Contains(content, want) {
			t.Errorf("PLS missing %q:\n%s", want, content)
		}
	}
}

func TestCreator_JSON(t *testing.T) {
	content, err := NewCreator(FormatJSON, false).Create(testReport())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	var decoded struct {
		BatchID   string            `json:"batch_id"`
		Successes []model.SavedItem `json:"successes"`
		Failures  []jsonFailure     `json:"failures"`
	}
	if err := json.Unmarshal([]byte(content), &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if decoded.BatchID != "batch-1" || len(decoded.Successes) != 2 {
		t.Errorf("decoded = %+v", decoded)
	}
	if len(decoded.Failures) != 1 || decoded.Failures[0].Error != "404 Not Found" {
		t.Errorf("Failures = %+v", decoded.Failures)
	}
}

func TestFormatForPath(t *testing.T) {
	tests := []struct {
		path string
		want Format
	}{
		{"out/list.m3u", FormatM3U},
		{"out/list.PLS", FormatPLS},
		{"report.json", FormatJSON},
		{"list.txt", FormatM3U},
	}
	for _, tt := range tests {
		if got := FormatForPath(tt.path); got != tt.want {
			t.Errorf("FormatForPath(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestCreator_Write(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "batch.m3u")
	if err := NewCreator(FormatM3U, false).Write(context.Background(), path, testReport()); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(data) != "a.png\nb (2).png\n" {
		t.Errorf("file = %q", data)
	}
}
