// Package fetch provides the shared HTTP fetcher for metadata providers,
// backed by a content-addressed on-disk response cache keyed by request
// URL. The cache is what lets repeated Offline or low-bandwidth operation
// still answer from previous network results.
package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/vonnieda/dimple/feature/library"
)

// Fetcher performs cached HTTP GETs on behalf of providers.
type Fetcher struct {
	client *http.Client
	dir    string
	logger *zap.Logger
}

// New creates a fetcher caching into dir. The directory is created on
// first write.
func New(dir string, timeout time.Duration, logger *zap.Logger) *Fetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Fetcher{
		client: &http.Client{Timeout: timeout},
		dir:    dir,
		logger: logger,
	}
}

// Get returns the response body for url according to the network mode:
// Online serves cache hits and fetches misses, Offline serves only the
// cache, Force always fetches and refreshes the cache.
func (f *Fetcher) Get(ctx context.Context, url string, mode library.NetworkMode) ([]byte, error) {
	path := f.cachePath(url)

	if mode != library.Force {
		if data, err := os.ReadFile(path); err == nil {
			return data, nil
		}
	}
	if mode == library.Offline {
		return nil, fmt.Errorf("offline and %s is not cached", url)
	}

	data, err := f.fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	if err := f.cacheWrite(path, data); err != nil {
		// The response is still good; a broken cache only costs bandwidth.
		f.logger.Warn("failed to cache provider response",
			zap.String("url", url), zap.Error(err))
	}
	return data, nil
}

func (f *Fetcher) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", url, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "dimple/1.0 (https://github.com/vonnieda/dimple)")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response from %s: %w", url, err)
	}
	return data, nil
}

// cachePath addresses a response by the SHA-256 of its request URL.
func (f *Fetcher) cachePath(url string) string {
	sum := sha256.Sum256([]byte(url))
	return filepath.Join(f.dir, hex.EncodeToString(sum[:]))
}

func (f *Fetcher) cacheWrite(path string, data []byte) error {
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return err
	}
	// Write-then-rename keeps concurrent readers off half-written files.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
