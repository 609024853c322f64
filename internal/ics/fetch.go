package ics

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	appLog "gcalctl/internal/log"
)

// maxBody bounds how much of a remote feed is read.
const maxBody = 10 << 20

// Fetcher reads iCalendar payloads from local files or http(s) URLs.
type Fetcher struct {
	client *http.Client
}

// NewFetcher creates a Fetcher. A zero timeout means 15s.
func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Fetcher{client: &http.Client{Timeout: timeout}}
}

// Load returns the payload at location, which is either a file path, "-"
// for stdin, or an http(s) URL.
func (f *Fetcher) Load(ctx context.Context, location string) ([]byte, error) {
	switch {
	case location == "-":
		return io.ReadAll(io.LimitReader(os.Stdin, maxBody))
	case strings.HasPrefix(location, "http://"), strings.HasPrefix(location, "https://"):
		return f.fetch(ctx, location)
	default:
		return os.ReadFile(location)
	}
}

func (f *Fetcher) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/calendar")

	appLog.Debug("ics: fetch start", "url", redactURL(url))
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", redactURL(url), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: %s", redactURL(url), resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, err
	}
	appLog.Info("ics: fetch success", "url", redactURL(url), "bytes", len(body))
	return body, nil
}

// redactURL hides path and query of a feed URL for logging; private feed
// URLs embed secrets.
//
//	https://example.com/path/to/private.ics?token=abcd -> https://example.com/...(redacted)
func redactURL(u string) string {
	i := strings.Index(u, "://")
	if i < 0 {
		return "ics://...(redacted)"
	}
	rest := u[i+3:]
	if j := strings.IndexByte(rest, '/'); j >= 0 {
		rest = rest[:j]
	}
	return u[:i+3] + rest + "/...(redacted)"
}
