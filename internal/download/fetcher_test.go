package download

import (
	"context"
	"errors"
	nethttp "net/http"
	"net/http/httptest"
	"testing"

	"github.com/handiism/bulk-downloader/internal/http"
	"github.com/handiism/bulk-downloader/internal/logging"
	"github.com/handiism/bulk-downloader/internal/model"
)

func TestResolveFileName(t *testing.T) {
	tests := []struct {
		name        string
		hint        string
		disposition string
		url         string
		index       int
		batch       bool
		want        string
	}{
		{"hint wins", "mine.png", "server.png", "https://a/url.png", 0, true, "mine.png"},
		{"disposition over url", "", "server.png", "https://a/url.png", 0, true, "server.png"},
		{"url segment", "", "", "https://a/dir/url.png?x=1", 0, true, "url.png"},
		{"batch fallback", "", "", "https://a/", 2, true, "file-3"},
		{"single fallback", "", "", "https://a/", 2, false, "file"},
		{"hint sanitized", "a:b?.png", "", "https://a/x", 0, true, "a_b_.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveFileName(tt.hint, tt.disposition, tt.url, tt.index, tt.batch)
			if got != tt.want {
				t.Errorf("ResolveFileName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFetcher_Fetch(t *testing.T) {
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		switch r.URL.Path {
		case "/named":
			w.Header().Set("Content-Disposition", `attachment; filename="from-header.txt"`)
			w.Write([]byte("named"))
		case "/plain.txt":
			w.Write([]byte("plain"))
		default:
			nethttp.NotFound(w, r)
		}
	}))
	defer server.Close()

	fetcher := NewFetcher(http.NewClient(http.Config{}), http.RequestOptions{}, logging.NewLogger("test"))

	tests := []struct {
		name     string
		req      model.Request
		wantName string
		wantData string
		wantErr  bool
	}{
		{"content disposition", model.Request{URL: server.URL + "/named"}, "from-header.txt", "named", false},
		{"url name", model.Request{URL: server.URL + "/plain.txt"}, "plain.txt", "plain", false},
		{"hint", model.Request{URL: server.URL + "/named", FileName: "hint.bin"}, "hint.bin", "named", false},
		{"missing", model.Request{URL: server.URL + "/missing.png"}, "missing.png", "", true},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := fetcher.Fetch(context.Background(), tt.req, i, true)

			if result.Index != i || result.URL != tt.req.URL {
				t.Errorf("result identity = (%d, %q)", result.Index, result.URL)
			}
			if result.FileName != tt.wantName {
				t.Errorf("FileName = %q, want %q", result.FileName, tt.wantName)
			}
			if tt.wantErr {
				var statusErr *http.HTTPStatusError
				if !errors.As(result.Err, &statusErr) {
					t.Errorf("Err = %v, want *HTTPStatusError", result.Err)
				}
				if result.Data != nil {
					t.Error("failed result should carry no data")
				}
				return
			}
			if result.Err != nil {
				t.Fatalf("Err = %v", result.Err)
			}
			if string(result.Data) != tt.wantData {
				t.Errorf("Data = %q, want %q", result.Data, tt.wantData)
			}
		})
	}
}

func TestParseStrategyAndPrefixMode(t *testing.T) {
	if s, err := ParseStrategy(""); err != nil || s != StrategyAuto {
		t.Errorf("ParseStrategy(\"\") = %q, %v", s, err)
	}
	if s, err := ParseStrategy("direct"); err != nil || s != StrategyDirect {
		t.Errorf("ParseStrategy(direct) = %q, %v", s, err)
	}
	if _, err := ParseStrategy("teleport"); err == nil {
		t.Error("ParseStrategy(teleport) should fail")
	}

	if m, err := ParsePrefixMode("prepend"); err != nil || m != PrefixPrepend {
		t.Errorf("ParsePrefixMode(prepend) = %q, %v", m, err)
	}
	if m, err := ParsePrefixMode(""); err != nil || m != PrefixNone {
		t.Errorf("ParsePrefixMode(\"\") = %q, %v", m, err)
	}
	if _, err := ParsePrefixMode("append"); err == nil {
		t.Error("ParsePrefixMode(append) should fail")
	}
}
