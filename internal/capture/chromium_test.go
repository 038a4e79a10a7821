package capture

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestOptionsDefaults(t *testing.T) {
	o, err := Options{URL: "http://127.0.0.1/week", OutputPath: "out.png"}.withDefaults()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.Width != DefaultWidth || o.Height != DefaultHeight || o.Timeout != DefaultTimeout {
		t.Fatalf("defaults not applied: %+v", o)
	}

	o, err = Options{URL: "u", OutputPath: "o", Width: 800, Height: 300, Timeout: time.Second}.withDefaults()
	if err != nil || o.Width != 800 || o.Height != 300 || o.Timeout != time.Second {
		t.Fatalf("explicit values overwritten: %+v, %v", o, err)
	}
}

func TestCapturePNGValidates(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"missing url", Options{OutputPath: "out.png"}},
		{"missing output", Options{URL: "http://127.0.0.1/week"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := CapturePNG(context.Background(), tt.opts); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestWriteFileAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "preview.png")
	if err := writeFileAtomic(path, []byte("png")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := writeFileAtomic(path, []byte("png2")); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil || string(got) != "png2" {
		t.Fatalf("unexpected content %q, %v", got, err)
	}
	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Fatalf("expected temp files to be cleaned up, found %d entries", len(entries))
	}
}

func TestCaptureTasks(t *testing.T) {
	var png []byte
	if got := len(captureTasks(Options{URL: "u"}, &png)); got != 4 {
		t.Fatalf("expected 4 tasks without headers, got %d", got)
	}
	opts := Options{URL: "u", Headers: BasicAuthHeaders("admin", "secret")}
	if got := len(captureTasks(opts, &png)); got != 6 {
		t.Fatalf("expected 6 tasks with headers, got %d", got)
	}
}

func TestBasicAuthHeaders(t *testing.T) {
	h := BasicAuthHeaders("admin", "secret")
	if h["Authorization"] != "Basic YWRtaW46c2VjcmV0" {
		t.Fatalf("unexpected header %q", h["Authorization"])
	}
}
