package save

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/handiism/bulk-downloader/internal/http"
)

type saverFunc func(ctx context.Context, src, name string) (string, error)

func (f saverFunc) Save(ctx context.Context, src, name string) (string, error) {
	return f(ctx, src, name)
}

func assertEmptyDir(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("staging dir should be empty, has %d entries", len(entries))
	}
}

func TestPersister_Save(t *testing.T) {
	staging := t.TempDir()
	var seen string

	persister := NewPersister(saverFunc(func(ctx context.Context, src, name string) (string, error) {
		data, err := os.ReadFile(src)
		if err != nil {
			return "", err
		}
		seen = string(data)
		return "/out/" + name, nil
	}), time.Second)
	persister.SetTempDir(staging)

	path, err := persister.Save(context.Background(), "a.zip", []byte("zip-bytes"))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if path != "/out/a.zip" {
		t.Errorf("path = %q", path)
	}
	if seen != "zip-bytes" {
		t.Errorf("saver saw %q", seen)
	}
	assertEmptyDir(t, staging)
}

func TestPersister_Save_Failures(t *testing.T) {
	tests := []struct {
		name        string
		saver       saverFunc
		wantTimeout bool
	}{
		{
			name: "saver error",
			saver: func(ctx context.Context, src, name string) (string, error) {
				return "", errors.New("disk full")
			},
		},
		{
			name: "saver panics",
			saver: func(ctx context.Context, src, name string) (string, error) {
				panic("boom")
			},
		},
		{
			name: "saver hangs",
			saver: func(ctx context.Context, src, name string) (string, error) {
				time.Sleep(time.Second)
				return "late", nil
			},
			wantTimeout: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			staging := t.TempDir()
			persister := NewPersister(tt.saver, 50*time.Millisecond)
			persister.SetTempDir(staging)

			_, err := persister.Save(context.Background(), "a.zip", []byte("data"))

			var saveErr *SaveError
			if !errors.As(err, &saveErr) {
				t.Fatalf("Save() error = %v, want *SaveError", err)
			}
			if saveErr.Name != "a.zip" {
				t.Errorf("Name = %q", saveErr.Name)
			}
			if saveErr.Timeout() != tt.wantTimeout {
				t.Errorf("Timeout() = %v, want %v", saveErr.Timeout(), tt.wantTimeout)
			}
			assertEmptyDir(t, staging)
		})
	}
}

func TestPersister_SaveURL_Unsupported(t *testing.T) {
	persister := NewPersister(saverFunc(func(ctx context.Context, src, name string) (string, error) {
		return "", nil
	}), 0)

	if persister.SupportsURL() {
		t.Error("SupportsURL() = true for a plain Saver")
	}

	_, err := persister.SaveURL(context.Background(), "https://a/b", StaticName("b"), http.RequestOptions{})
	if !errors.Is(err, ErrURLUnsupported) {
		t.Errorf("SaveURL() error = %v, want ErrURLUnsupported", err)
	}
}
