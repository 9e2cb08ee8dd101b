package httpfetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agridocs/internal/config"
	"agridocs/internal/domain"
)

func newTestFetcher(srv *httptest.Server, maxMB int64) *Fetcher {
	u, _ := url.Parse(srv.URL)
	return NewFetcher(config.FetchConfig{
		AllowedDomains: []string{u.Hostname()},
		MaxFileSizeMB:  maxMB,
		Timeout:        5 * time.Second,
	})
}

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("%PDF-1.7 content"))
	}))
	defer srv.Close()

	data, err := newTestFetcher(srv, 1).Fetch(context.Background(), srv.URL+"/doc.pdf")
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7 content", string(data))
}

func TestFetchRejectsDisallowedHost(t *testing.T) {
	f := NewFetcher(config.FetchConfig{
		AllowedDomains: []string{"storage.example.com"},
		MaxFileSizeMB:  1,
	})

	_, err := f.Fetch(context.Background(), "https://internal.service.local/doc.pdf")
	assert.ErrorIs(t, err, domain.ErrDisallowedURL)
}

func TestFetchAllowsSubdomains(t *testing.T) {
	f := NewFetcher(config.FetchConfig{AllowedDomains: []string{"example.com"}})
	assert.True(t, f.hostAllowed("bucket.example.com"))
	assert.True(t, f.hostAllowed("example.com"))
	assert.False(t, f.hostAllowed("notexample.com"))
	assert.False(t, f.hostAllowed("example.com.attacker.net"))
}

func TestFetchRejectsBadURL(t *testing.T) {
	f := NewFetcher(config.FetchConfig{AllowedDomains: []string{"example.com"}})

	_, err := f.Fetch(context.Background(), "::not a url::")
	assert.ErrorIs(t, err, domain.ErrInvalidFileURL)

	_, err = f.Fetch(context.Background(), "ftp://example.com/doc.pdf")
	assert.ErrorIs(t, err, domain.ErrInvalidFileURL)
}

func TestFetchNon2xxFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := newTestFetcher(srv, 1).Fetch(context.Background(), srv.URL+"/missing.pdf")
	assert.ErrorIs(t, err, domain.ErrDownloadFailed)
}

func TestFetchSizeCap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 2*1024*1024)))
	}))
	defer srv.Close()

	_, err := newTestFetcher(srv, 1).Fetch(context.Background(), srv.URL+"/big.bin")
	assert.ErrorIs(t, err, domain.ErrFileTooLarge)
}
