package capture

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// Defaults sized for a 17-column week table.
const (
	DefaultWidth   = 1600
	DefaultHeight  = 600
	DefaultTimeout = 30 * time.Second
)

// ReadySelector is the element the week page exposes once the table is in
// the DOM.
const ReadySelector = `[data-ready="true"]`

// Options defines one headless Chromium screenshot.
type Options struct {
	// URL to capture, e.g. "http://127.0.0.1:8080/week".
	URL string
	// OutputPath is where the PNG is written.
	OutputPath string
	// Viewport in pixels; zero uses the defaults.
	Width  int
	Height int
	// Timeout bounds the whole capture; zero uses DefaultTimeout.
	Timeout time.Duration
	// Headers are sent with every request the page makes, e.g. the
	// Authorization header for a server behind basic auth.
	Headers map[string]string
}

// BasicAuthHeaders returns the Authorization header for user and pass.
func BasicAuthHeaders(user, pass string) map[string]string {
	token := base64.StdEncoding.EncodeToString([]byte(user + ":" + pass))
	return map[string]string{"Authorization": "Basic " + token}
}

func (o Options) withDefaults() (Options, error) {
	if o.URL == "" {
		return o, errors.New("capture: URL is required")
	}
	if o.OutputPath == "" {
		return o, errors.New("capture: OutputPath is required")
	}
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	return o, nil
}

// CapturePNG opens opts.URL in headless Chromium, waits for ReadySelector
// and writes a full-page PNG to opts.OutputPath. The file is replaced
// atomically so the web server never serves a half-written preview.
func CapturePNG(parentCtx context.Context, opts Options) error {
	opts, err := opts.withDefaults()
	if err != nil {
		return err
	}

	ctx, cancel := chromedp.NewContext(parentCtx)
	defer cancel()

	ctx, timeoutCancel := context.WithTimeout(ctx, opts.Timeout)
	defer timeoutCancel()

	var png []byte
	if err := chromedp.Run(ctx, captureTasks(opts, &png)); err != nil {
		return fmt.Errorf("capture: chromedp run failed: %w", err)
	}

	return writeFileAtomic(opts.OutputPath, png)
}

func captureTasks(opts Options, png *[]byte) chromedp.Tasks {
	tasks := chromedp.Tasks{
		chromedp.EmulateViewport(int64(opts.Width), int64(opts.Height)),
	}
	if len(opts.Headers) > 0 {
		headers := make(network.Headers, len(opts.Headers))
		for k, v := range opts.Headers {
			headers[k] = v
		}
		tasks = append(tasks, network.Enable(), network.SetExtraHTTPHeaders(headers))
	}
	return append(tasks,
		chromedp.Navigate(opts.URL),
		chromedp.WaitVisible(ReadySelector, chromedp.ByQuery),
		chromedp.FullScreenshot(png, 100),
	)
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("capture: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".preview-*.png")
	if err != nil {
		return fmt.Errorf("capture: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("capture: failed to write PNG: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("capture: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("capture: %w", err)
	}
	return os.Rename(tmpName, path)
}
