package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 2 * time.Second
	}
	return NewClient(cfg)
}

func TestClient_Fetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Disposition", `attachment; filename="report.pdf"`)
		w.Write([]byte("pdf-bytes"))
	}))
	defer server.Close()

	client := newTestClient(Config{})
	resp, err := client.Fetch(context.Background(), server.URL+"/download?id=1", RequestOptions{})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if string(resp.Body) != "pdf-bytes" {
		t.Errorf("Body = %q, want %q", resp.Body, "pdf-bytes")
	}
	if resp.FileName != "report.pdf" {
		t.Errorf("FileName = %q, want %q", resp.FileName, "report.pdf")
	}
}

func TestClient_Fetch_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := newTestClient(Config{})
	_, err := client.Fetch(context.Background(), server.URL+"/missing.png", RequestOptions{})

	var statusErr *HTTPStatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("Fetch() error = %v, want *HTTPStatusError", err)
	}
	if statusErr.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d, want 404", statusErr.StatusCode)
	}
}

func TestClient_Fetch_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client := newTestClient(Config{Timeout: 50 * time.Millisecond})
	_, err := client.Fetch(context.Background(), server.URL+"/slow", RequestOptions{})

	var timeoutErr *TimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Fatalf("Fetch() error = %v, want *TimeoutError", err)
	}
}

func TestClient_Fetch_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := newTestClient(Config{})
	_, err := client.Fetch(context.Background(), url+"/gone", RequestOptions{})

	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("Fetch() error = %v, want *NetworkError", err)
	}
}

func TestClient_Fetch_RequestOptions(t *testing.T) {
	var got http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
	}))
	defer server.Close()

	tests := []struct {
		name       string
		opts       RequestOptions
		wantCookie bool
	}{
		{
			name: "credentials kept",
			opts: RequestOptions{
				Headers: map[string]string{"Cookie": "session=1", "X-Token": "abc"},
				Referer: "https://origin.example/",
			},
			wantCookie: true,
		},
		{
			name: "anonymous drops credentials",
			opts: RequestOptions{
				Headers:   map[string]string{"Cookie": "session=1", "Authorization": "Bearer t", "X-Token": "abc"},
				Referer:   "https://origin.example/",
				Anonymous: true,
			},
			wantCookie: false,
		},
	}

	client := newTestClient(Config{UserAgent: "test-agent"})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := client.Fetch(context.Background(), server.URL, tt.opts); err != nil {
				t.Fatalf("Fetch() error = %v", err)
			}

			if got.Get("Referer") != "https://origin.example/" {
				t.Errorf("Referer = %q", got.Get("Referer"))
			}
			if got.Get("X-Token") != "abc" {
				t.Errorf("X-Token = %q", got.Get("X-Token"))
			}
			if got.Get("User-Agent") != "test-agent" {
				t.Errorf("User-Agent = %q", got.Get("User-Agent"))
			}
			if (got.Get("Cookie") != "") != tt.wantCookie {
				t.Errorf("Cookie = %q, wantCookie %v", got.Get("Cookie"), tt.wantCookie)
			}
			if tt.opts.Anonymous && got.Get("Authorization") != "" {
				t.Errorf("Authorization should be dropped, got %q", got.Get("Authorization"))
			}
		})
	}
}

func TestClient_Fetch_Retries(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		wantRequests int32
	}{
		{"server error is retried", http.StatusBadGateway, 3},
		{"too many requests is retried", http.StatusTooManyRequests, 3},
		{"not found is final", http.StatusNotFound, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var requests int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&requests, 1)
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			client := newTestClient(Config{Retries: 2, RetryCooldown: time.Millisecond, RetryExponent: 1})
			_, err := client.Fetch(context.Background(), server.URL, RequestOptions{})

			var statusErr *HTTPStatusError
			if !errors.As(err, &statusErr) {
				t.Fatalf("Fetch() error = %v, want *HTTPStatusError", err)
			}
			if got := atomic.LoadInt32(&requests); got != tt.wantRequests {
				t.Errorf("requests = %d, want %d", got, tt.wantRequests)
			}
		})
	}
}

func TestClient_Fetch_RetrySucceeds(t *testing.T) {
	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&requests, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	client := newTestClient(Config{Retries: 1, RetryCooldown: time.Millisecond})
	resp, err := client.Fetch(context.Background(), server.URL, RequestOptions{})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if string(resp.Body) != "ok" {
		t.Errorf("Body = %q", resp.Body)
	}
}

func TestClient_DownloadFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("streamed content"))
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "out.txt")
	var lastWritten int64

	client := newTestClient(Config{})
	err := client.DownloadFile(context.Background(), server.URL, dest, RequestOptions{}, func(written, total int64) {
		lastWritten = written
	})
	if err != nil {
		t.Fatalf("DownloadFile() error = %v", err)
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(data) != "streamed content" {
		t.Errorf("content = %q", data)
	}
	if lastWritten != int64(len("streamed content")) {
		t.Errorf("progress written = %d", lastWritten)
	}
}

func TestClient_DownloadFile_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "out.txt")
	client := newTestClient(Config{})
	err := client.DownloadFile(context.Background(), server.URL, dest, RequestOptions{}, nil)

	var statusErr *HTTPStatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("DownloadFile() error = %v, want *HTTPStatusError", err)
	}
	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Error("destination should not exist after a failed download")
	}
}

func TestClient_DownloadTo_AnnouncedName(t *testing.T) {
	tests := []struct {
		name        string
		disposition string
		want        string
	}{
		{"announced", `attachment; filename="report.pdf"`, "report.pdf"},
		{"none", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.disposition != "" {
					w.Header().Set("Content-Disposition", tt.disposition)
				}
				w.Write([]byte("body"))
			}))
			defer server.Close()

			dir := t.TempDir()
			var announced string
			client := newTestClient(Config{})
			path, err := client.DownloadTo(context.Background(), server.URL+"/download", RequestOptions{}, func(fileName string) (string, error) {
				announced = fileName
				return filepath.Join(dir, "out"), nil
			}, nil)
			if err != nil {
				t.Fatalf("DownloadTo() error = %v", err)
			}

			if announced != tt.want {
				t.Errorf("announced = %q, want %q", announced, tt.want)
			}
			if path != filepath.Join(dir, "out") {
				t.Errorf("path = %q", path)
			}
		})
	}
}

func TestClient_DownloadTo_StatusErrorSkipsDest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	called := false
	client := newTestClient(Config{})
	_, err := client.DownloadTo(context.Background(), server.URL, RequestOptions{}, func(string) (string, error) {
		called = true
		return filepath.Join(t.TempDir(), "out"), nil
	}, nil)

	var statusErr *HTTPStatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("DownloadTo() error = %v, want *HTTPStatusError", err)
	}
	if called {
		t.Error("dest should not be called for a failed response")
	}
}

func TestRequestOptions_IsShaped(t *testing.T) {
	if (RequestOptions{}).IsShaped() {
		t.Error("empty options should not be shaped")
	}
	if (RequestOptions{Anonymous: true}).IsShaped() {
		t.Error("anonymous alone should not be shaped")
	}
	if !(RequestOptions{Referer: "x"}).IsShaped() {
		t.Error("referer should be shaped")
	}
	if !(RequestOptions{Headers: map[string]string{"a": "b"}}).IsShaped() {
		t.Error("headers should be shaped")
	}
}
