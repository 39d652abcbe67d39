// Package sources scrapes the statistics sources into raw result rows.
// Scrapers only read what the pages say; normalization and scoring
// happen downstream.
package sources

import (
	"context"
	"crypto/sha1"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"nfwa/internal/config"
)

// Fetcher is a polite cached HTTP getter. Every fetched page lands in
// the cache dir under a slug+hash name, and cache hits never touch the
// network, so re-syncs are cheap and reproducible.
type Fetcher struct {
	cfg        config.Config
	httpClient *http.Client
	limiter    *RateLimiter
}

func NewFetcher(cfg config.Config) *Fetcher {
	return &Fetcher{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: time.Duration(cfg.HTTPTimeoutSeconds) * time.Second},
		limiter:    NewRateLimiter(time.Duration(cfg.PoliteDelayMs) * time.Millisecond),
	}
}

func (f *Fetcher) Fetch(ctx context.Context, pageURL string) ([]byte, error) {
	cachePath := filepath.Join(f.cfg.CacheDir, cacheFilename(pageURL))
	if f.cfg.CacheEnabled {
		if body, err := os.ReadFile(cachePath); err == nil && len(body) > 0 {
			return body, nil
		}
	}

	body, err := f.fetchRemote(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	if f.cfg.CacheEnabled {
		if err := os.MkdirAll(f.cfg.CacheDir, 0o755); err == nil {
			_ = os.WriteFile(cachePath, body, 0o644)
		}
	}
	return body, nil
}

func (f *Fetcher) fetchRemote(ctx context.Context, pageURL string) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= 4; attempt++ {
		f.limiter.WaitTurn()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", f.cfg.UserAgent)

		resp, err := f.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			if isRetryableStatus(resp.StatusCode) && attempt < 4 {
				backoff := time.Duration(250*(1<<(attempt-1))+rand.Intn(100)) * time.Millisecond
				time.Sleep(backoff)
				lastErr = fmt.Errorf("status %d", resp.StatusCode)
				continue
			}
			return nil, fmt.Errorf("fetch %s: status %d", pageURL, resp.StatusCode)
		}
		return body, nil
	}

	if lastErr == nil {
		lastErr = errors.New("request failed")
	}
	return nil, fmt.Errorf("fetch %s: %w", pageURL, lastErr)
}

func isRetryableStatus(status int) bool {
	switch status {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

var cacheSlugRe = regexp.MustCompile(`[^a-zA-Z0-9]+`)

func cacheFilename(pageURL string) string {
	digest := fmt.Sprintf("%x", sha1.Sum([]byte(pageURL)))[:16]
	path := strings.TrimPrefix(strings.TrimPrefix(pageURL, "https://"), "http://")
	slug := strings.Trim(cacheSlugRe.ReplaceAllString(path, "_"), "_")
	slug = strings.ToLower(slug)
	if len(slug) > 80 {
		slug = slug[:80]
	}
	if slug == "" {
		slug = "page"
	}
	return slug + "_" + digest + ".html"
}
