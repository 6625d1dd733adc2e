package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func TestParseHeaders(t *testing.T) {
	tests := []struct {
		name    string
		pairs   []string
		want    map[string]string
		wantErr bool
	}{
		{"equals", []string{"X-Token=abc"}, map[string]string{"X-Token": "abc"}, false},
		{"colon", []string{"Cookie: a=1"}, map[string]string{"Cookie": "a=1"}, false},
		{"value with equals", []string{"Cookie=a=1; b=2"}, map[string]string{"Cookie": "a=1; b=2"}, false},
		{"missing separator", []string{"X-Token"}, nil, true},
		{"empty key", []string{"=abc"}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseHeaders(tt.pairs)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseHeaders() error = %v, wantErr %v", err, tt.wantErr)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("header %q = %q, want %q", k, got[k], v)
				}
			}
		})
	}
}

func TestReadRequests(t *testing.T) {
	input := `# gallery
https://example.com/a.png

https://example.com/b.png  holiday photo.png
`
	reqs, err := readRequests(strings.NewReader(input))
	if err != nil {
		t.Fatalf("readRequests() error = %v", err)
	}
	if len(reqs) != 2 {
		t.Fatalf("len = %d, want 2", len(reqs))
	}
	if reqs[0].URL != "https://example.com/a.png" || reqs[0].FileName != "" {
		t.Errorf("reqs[0] = %+v", reqs[0])
	}
	if reqs[1].FileName != "holiday photo.png" {
		t.Errorf("reqs[1].FileName = %q", reqs[1].FileName)
	}
}

func TestOptionsSettings_FlagsOverrideConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(configPath, []byte(`{"concurrency": 8, "referer": "https://config/"}`), 0644); err != nil {
		t.Fatal(err)
	}

	opts := &options{}
	root := newRootCmd(opts)
	cmd, _, err := root.Find([]string{"files"})
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if err := cmd.ParseFlags([]string{"--config", configPath, "--referer", "https://flag/", "-H", "X-Token=abc", "--prefix", "prepend"}); err != nil {
		t.Fatalf("ParseFlags() error = %v", err)
	}

	settings, err := opts.settings(cmd)
	if err != nil {
		t.Fatalf("settings() error = %v", err)
	}

	if settings.Concurrency != 8 {
		t.Errorf("Concurrency = %d, want 8 from config", settings.Concurrency)
	}
	if settings.Referer != "https://flag/" {
		t.Errorf("Referer = %q, want flag value", settings.Referer)
	}
	if settings.Headers["X-Token"] != "abc" {
		t.Errorf("Headers = %v", settings.Headers)
	}
	if settings.PrefixMode != "prepend" {
		t.Errorf("PrefixMode = %q", settings.PrefixMode)
	}
}

func TestArchiveCommand(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/ok/") {
			w.Write([]byte("content of " + r.URL.Path))
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	dir := t.TempDir()
	var stderr bytes.Buffer

	root := newRootCmd(&options{})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&stderr)
	root.SetArgs([]string{
		"--config", filepath.Join(dir, "settings.json"),
		"--history", "",
		"--log-level", "error",
		"-o", dir,
		"archive", "--name", "photos",
		server.URL + "/ok/a.png",
		server.URL + "/missing.png",
		server.URL + "/ok/b.png",
	})

	if err := root.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if !strings.Contains(stderr.String(), "completed: success 2 / failure 1") {
		t.Errorf("stderr missing summary:\n%s", stderr.String())
	}

	reader, err := zip.OpenReader(filepath.Join(dir, "photos.zip"))
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer reader.Close()

	var names []string
	for _, f := range reader.File {
		names = append(names, f.Name)
	}
	if strings.Join(names, ",") != "a.png,b.png" {
		t.Errorf("entries = %v, want [a.png b.png]", names)
	}

	w := httptest.NewRecorder()
	promhttp.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	if !strings.Contains(w.Body.String(), `bulkdl_batches_total{mode="archive",result="success"}`) {
		t.Error("metrics should count the archive batch")
	}
}

func TestFilesCommand_AllFailed(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	dir := t.TempDir()
	root := newRootCmd(&options{})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{
		"--config", filepath.Join(dir, "settings.json"),
		"--history", "",
		"--log-level", "error",
		"-o", dir,
		"files", server.URL + "/a.png",
	})

	if err := root.Execute(); err == nil {
		t.Fatal("Execute() should fail when every download fails")
	}
}

func TestBatchCommand_InvalidStrategy(t *testing.T) {
	dir := t.TempDir()
	root := newRootCmd(&options{})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{
		"--config", filepath.Join(dir, "settings.json"),
		"--strategy", "sideways",
		"files", "https://example.com/a.png",
	})

	if err := root.Execute(); err == nil {
		t.Fatal("Execute() should reject an unknown strategy")
	}
}

func TestHistoryCommands(t *testing.T) {
	dir := t.TempDir()
	historyPath := filepath.Join(dir, "history.json")
	if err := os.WriteFile(historyPath, []byte(`{"https://a/1":"2024-01-01T00:00:00Z","https://a/2":"2024-01-01T00:00:00Z"}`), 0644); err != nil {
		t.Fatal(err)
	}

	run := func(args ...string) string {
		t.Helper()
		var out bytes.Buffer
		root := newRootCmd(&options{})
		root.SetOut(&out)
		root.SetErr(&bytes.Buffer{})
		root.SetArgs(append([]string{"--config", filepath.Join(dir, "settings.json"), "--history", historyPath, "--log-level", "error", "history"}, args...))
		if err := root.Execute(); err != nil {
			t.Fatalf("history %v error = %v", args, err)
		}
		return out.String()
	}

	if got := run("list"); got != "https://a/1\nhttps://a/2\n" {
		t.Errorf("list = %q", got)
	}
	run("forget", "https://a/1")
	if got := run("list"); got != "https://a/2\n" {
		t.Errorf("list after forget = %q", got)
	}
	run("clear")
	if got := run("list"); got != "" {
		t.Errorf("list after clear = %q", got)
	}
}
