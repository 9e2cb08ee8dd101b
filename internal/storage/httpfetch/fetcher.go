// Package httpfetch downloads source documents over HTTP with a host
// allow list and a size cap.
package httpfetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"agridocs/internal/config"
	"agridocs/internal/domain"
)

// Fetcher implements port.FileFetcher. The allow list is checked
// before any request goes out, so the service cannot be steered at
// internal endpoints.
type Fetcher struct {
	allowedDomains []string
	maxBytes       int64
	client         *http.Client
}

func NewFetcher(cfg config.FetchConfig) *Fetcher {
	maxBytes := cfg.MaxFileSizeMB * 1024 * 1024
	if maxBytes <= 0 {
		maxBytes = 50 * 1024 * 1024
	}
	return &Fetcher{
		allowedDomains: cfg.AllowedDomains,
		maxBytes:       maxBytes,
		client:         &http.Client{Timeout: cfg.Timeout},
	}
}

func (f *Fetcher) Fetch(ctx context.Context, fileURL string) ([]byte, error) {
	parsed, err := url.Parse(fileURL)
	if err != nil || parsed.Host == "" {
		return nil, domain.ErrInvalidFileURL
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, domain.ErrInvalidFileURL
	}
	if !f.hostAllowed(parsed.Hostname()) {
		return nil, domain.ErrDisallowedURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("httpfetch.Fetcher.Fetch: build request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDownloadFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d", domain.ErrDownloadFailed, resp.StatusCode)
	}
	if resp.ContentLength > f.maxBytes {
		return nil, domain.ErrFileTooLarge
	}

	// Read one byte past the cap so oversized bodies without a
	// Content-Length are still rejected.
	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", domain.ErrDownloadFailed, err)
	}
	if int64(len(data)) > f.maxBytes {
		return nil, domain.ErrFileTooLarge
	}
	return data, nil
}

// hostAllowed matches the host against the allow list; a list entry
// also covers its subdomains.
func (f *Fetcher) hostAllowed(host string) bool {
	host = strings.ToLower(host)
	for _, allowed := range f.allowedDomains {
		allowed = strings.ToLower(strings.TrimSpace(allowed))
		if allowed == "" {
			continue
		}
		if host == allowed || strings.HasSuffix(host, "."+allowed) {
			return true
		}
	}
	return false
}
