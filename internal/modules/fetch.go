package modules

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"time"
)

// DefaultFetchTimeout bounds a single remote module download.
const DefaultFetchTimeout = 30 * time.Second

// Source is the raw text of a module and where it was read from.
type Source struct {
	URL      *url.URL
	Filename string
	Data     []byte
}

// Fetcher reads module sources from disk or over HTTP, caching remote sources.
type Fetcher struct {
	client   *http.Client
	cache    *Cache
	reload   bool
	logger   *slog.Logger
	download func(u *url.URL) func()
}

// NewFetcher creates a fetcher storing remote sources in cache.
func NewFetcher(cache *Cache, reload bool, client *http.Client, logger *slog.Logger) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: DefaultFetchTimeout}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{
		client: client,
		cache:  cache,
		reload: reload,
		logger: logger.WithGroup("fetcher"),
	}
}

// Fetch returns the source of the module at u.
func (f *Fetcher) Fetch(ctx context.Context, u *url.URL) (*Source, error) {
	switch u.Scheme {
	case "file":
		return f.fetchFile(u)
	case "http", "https":
		return f.fetchRemote(ctx, u)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
}

func (f *Fetcher) fetchFile(u *url.URL) (*Source, error) {
	data, err := os.ReadFile(u.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrModuleNotFound, u)
		}
		return nil, fmt.Errorf("failed to read %s: %w", u, err)
	}
	return &Source{URL: u, Filename: u.Path, Data: data}, nil
}

func (f *Fetcher) fetchRemote(ctx context.Context, u *url.URL) (*Source, error) {
	local := f.cache.SourcePath(u)
	if !f.reload {
		if data, err := os.ReadFile(local); err == nil {
			f.logger.Debug("Using cached source", "url", u.String(), "path", local)
			return &Source{URL: u, Filename: local, Data: data}, nil
		}
	}

	if f.download != nil {
		done := f.download(u)
		defer done()
	}

	f.logger.Debug("Downloading module", "url", u.String())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", u, err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", u, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			f.logger.Warn("Failed to close response body", "url", u.String(), "error", err)
		}
	}()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrModuleNotFound, u)
	case resp.StatusCode >= 300:
		return nil, fmt.Errorf("failed to download %s: status %s", u, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read body of %s: %w", u, err)
	}
	if err := writeFile(local, data); err != nil {
		return nil, fmt.Errorf("failed to cache %s: %w", u, err)
	}
	return &Source{URL: u, Filename: local, Data: data}, nil
}
