package events

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	appLog "weekcal/internal/log"
	"weekcal/internal/model"
)

const defaultTimeout = 15 * time.Second

// Window is the span of dates a load is for, [Start, End). Sources that
// can produce unbounded data, such as recurring feeds, use it to limit
// expansion; a plain document ignores it.
type Window struct {
	Start time.Time
	End   time.Time
}

// Loader produces the dataset used for one render. Implementations never
// fail: any problem degrades to an empty dataset.
type Loader interface {
	Load(ctx context.Context, w Window) model.Dataset
}

// Options configures a Fetcher.
type Options struct {
	// Location is an http(s) URL, a file:// URL or a filesystem path.
	Location string
	// CacheDir enables the conditional-request disk cache for HTTP
	// locations. Empty disables caching.
	CacheDir string
	// Timeout bounds a single HTTP request. Zero uses 15s.
	Timeout time.Duration
	// Client overrides the HTTP client (tests).
	Client *http.Client
}

// Result is the outcome of fetching a document.
type Result struct {
	Body      []byte
	FromCache bool
}

// cacheEntry holds HTTP cache metadata for one URL.
type cacheEntry struct {
	URL          string    `json:"url"`
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Fetcher retrieves a document from a URL or a local file. HTTP fetches
// honour ETag / Last-Modified when a cache directory is configured.
type Fetcher struct {
	location string
	cacheDir string
	client   *http.Client
}

// NewFetcher creates a Fetcher for opts.Location.
func NewFetcher(opts Options) *Fetcher {
	client := opts.Client
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	return &Fetcher{
		location: opts.Location,
		cacheDir: opts.CacheDir,
		client:   client,
	}
}

// Location returns the configured source location.
func (f *Fetcher) Location() string {
	return f.location
}

// Load fetches and decodes the events document. Fetch and decode errors
// are logged and replaced by an empty dataset.
func (f *Fetcher) Load(ctx context.Context, _ Window) model.Dataset {
	res, err := f.Fetch(ctx)
	if err != nil {
		appLog.Warn("events fetch failed; using empty dataset", "location", RedactURL(f.location), "err", err)
		return model.Dataset{}
	}
	data, err := Decode(res.Body)
	if err != nil {
		appLog.Error("events decode failed; using empty dataset", err, "location", RedactURL(f.location))
		return model.Dataset{}
	}
	appLog.Debug("events loaded", "location", RedactURL(f.location), "events", data.Len(), "from_cache", res.FromCache)
	return data
}

// Fetch returns the raw document body.
func (f *Fetcher) Fetch(ctx context.Context) (Result, error) {
	if f.location == "" {
		return Result{}, errors.New("events: location is empty")
	}

	u, err := url.Parse(f.location)
	if err == nil {
		switch u.Scheme {
		case "http", "https":
			return f.fetchHTTP(ctx)
		case "file":
			return readFile(u.Path)
		}
	}
	return readFile(f.location)
}

func readFile(path string) (Result, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("events: read %s: %w", path, err)
	}
	return Result{Body: body}, nil
}

func (f *Fetcher) fetchHTTP(ctx context.Context) (Result, error) {
	var (
		cachePath  string
		meta       cacheEntry
		cachedBody []byte
	)
	if f.cacheDir != "" {
		cachePath = f.cachePathForURL(f.location)
		if err := os.MkdirAll(cachePath, 0o700); err != nil {
			return Result{}, err
		}
		meta, _ = loadCacheMeta(cachePath)
		cachedBody, _ = os.ReadFile(filepath.Join(cachePath, "body"))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.location, nil)
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Accept", "application/json, text/calendar;q=0.9, */*;q=0.1")
	if len(cachedBody) > 0 {
		if meta.ETag != "" {
			req.Header.Set("If-None-Match", meta.ETag)
		}
		if meta.LastModified != "" {
			req.Header.Set("If-Modified-Since", meta.LastModified)
		}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		if len(cachedBody) > 0 {
			appLog.Error("fetch network error, using cached body", err, "url", RedactURL(f.location))
			return Result{Body: cachedBody, FromCache: true}, nil
		}
		return Result{}, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return Result{}, err
		}
		if cachePath != "" {
			newMeta := cacheEntry{
				URL:          f.location,
				ETag:         resp.Header.Get("ETag"),
				LastModified: resp.Header.Get("Last-Modified"),
			}
			if err := saveCache(cachePath, newMeta, body); err != nil {
				appLog.Error("cache save failed", err, "url", RedactURL(f.location))
			}
		}
		appLog.Debug("fetch success", "url", RedactURL(f.location), "status", resp.StatusCode)
		return Result{Body: body}, nil

	case resp.StatusCode == http.StatusNotModified && len(cachedBody) > 0:
		appLog.Debug("fetch not modified; using cache", "url", RedactURL(f.location))
		return Result{Body: cachedBody, FromCache: true}, nil

	default:
		if len(cachedBody) > 0 {
			appLog.Error("fetch non-OK, using cached body", errors.New(resp.Status), "url", RedactURL(f.location), "status", resp.StatusCode)
			return Result{Body: cachedBody, FromCache: true}, nil
		}
		return Result{}, fmt.Errorf("events: unexpected status %s", resp.Status)
	}
}

func (f *Fetcher) cachePathForURL(u string) string {
	sum := sha256.Sum256([]byte(u))
	return filepath.Join(f.cacheDir, hex.EncodeToString(sum[:8]))
}

func loadCacheMeta(cachePath string) (cacheEntry, error) {
	var meta cacheEntry
	data, err := os.ReadFile(filepath.Join(cachePath, "meta.json"))
	if err != nil {
		return meta, err
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return cacheEntry{}, err
	}
	return meta, nil
}

func saveCache(cachePath string, meta cacheEntry, body []byte) error {
	// Body first so meta never points at a missing body.
	if err := os.WriteFile(filepath.Join(cachePath, "body"), body, 0o600); err != nil {
		return err
	}
	meta.UpdatedAt = time.Now().UTC()
	data, err := json.MarshalIndent(&meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(cachePath, "meta.json"), data, 0o600)
}

// RedactURL keeps only scheme and host of u so tokens in paths or query
// strings stay out of the logs. Non-URL locations are returned as is.
func RedactURL(u string) string {
	i := strings.Index(u, "://")
	if i == -1 {
		return u
	}
	rest := u[i+3:]
	if j := strings.IndexByte(rest, '/'); j != -1 {
		return u[:i+3+j] + "/...(redacted)"
	}
	return u
}
