package files

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// IsRemote reports whether source is an http(s) URL.
func IsRemote(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// Opener reads dataset and boundary sources from disk or over HTTP.
type Opener struct {
	client *http.Client
	logger *slog.Logger
}

// NewOpener creates an opener whose HTTP fetches time out after timeout.
func NewOpener(timeout time.Duration, logger *slog.Logger) *Opener {
	if logger == nil {
		logger = slog.Default()
	}
	return &Opener{
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// Open returns a reader for source. The caller closes it.
func (o *Opener) Open(ctx context.Context, source string) (io.ReadCloser, error) {
	if source == "" {
		return nil, fmt.Errorf("empty source")
	}
	if IsRemote(source) {
		return o.fetch(ctx, source)
	}

	o.logger.DebugContext(ctx, "Opening local source", slog.String("path", source))
	f, err := os.Open(source)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", source, err)
	}
	return f, nil
}

func (o *Opener) fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", url, err)
	}

	start := time.Now()
	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("failed to fetch %s: HTTP error! status: %d", url, resp.StatusCode)
	}

	o.logger.InfoContext(ctx, "Fetched remote source",
		slog.String("url", url),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)))
	return resp.Body, nil
}

// EnsureDirectory creates path and its parents.
func EnsureDirectory(path string) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", path, err)
	}
	return nil
}

// EnsureParent creates the directory that will hold file.
func EnsureParent(file string) error {
	return EnsureDirectory(filepath.Dir(file))
}
