// Package fetch retrieves raw asset bytes for a locator.
//
// Supported locators are http(s) URLs, file URLs, data URIs and plain
// filesystem paths. Network requests are always anonymous: no cookie jar is
// consulted and credentials embedded in the URL are stripped.
package fetch

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// DefaultMaxBytes bounds a single asset payload.
const DefaultMaxBytes = 32 << 20

var (
	// ErrUnsupportedScheme is returned for locators with an unknown scheme.
	ErrUnsupportedScheme = errors.New("fetch: unsupported scheme")

	// ErrTooLarge is returned when a payload exceeds the configured limit.
	ErrTooLarge = errors.New("fetch: payload too large")

	// ErrBadDataURI is returned for malformed data URIs.
	ErrBadDataURI = errors.New("fetch: malformed data URI")
)

// StatusError reports a non-2xx HTTP response.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch: %s: HTTP %d %s", e.URL, e.Code, http.StatusText(e.Code))
}

// Fetcher retrieves asset bytes. The zero value is usable.
type Fetcher struct {
	// Client performs HTTP requests. nil means a default client. A cookie jar
	// on Client is never consulted.
	Client *http.Client

	// BaseDir resolves relative filesystem paths.
	BaseDir string

	// MaxBytes limits payload size. Zero means DefaultMaxBytes.
	MaxBytes int64

	// UserAgent is sent with HTTP requests when set.
	UserAgent string
}

var anonymousClient = &http.Client{}

// Fetch returns the bytes addressed by locator.
func (f *Fetcher) Fetch(ctx context.Context, locator string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch {
	case strings.HasPrefix(locator, "data:"):
		return f.fetchData(locator)
	case hasScheme(locator, "http"), hasScheme(locator, "https"):
		return f.fetchHTTP(ctx, locator)
	case hasScheme(locator, "file"):
		u, err := url.Parse(locator)
		if err != nil {
			return nil, fmt.Errorf("fetch: parse %q: %w", locator, err)
		}
		return f.fetchFile(filepath.FromSlash(u.Path))
	case strings.Contains(locator, "://"):
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, locator)
	default:
		return f.fetchFile(locator)
	}
}

func hasScheme(locator, scheme string) bool {
	return len(locator) > len(scheme)+3 && strings.EqualFold(locator[:len(scheme)+3], scheme+"://")
}

func (f *Fetcher) limit() int64 {
	if f.MaxBytes > 0 {
		return f.MaxBytes
	}
	return DefaultMaxBytes
}

func (f *Fetcher) fetchHTTP(ctx context.Context, locator string) ([]byte, error) {
	u, err := url.Parse(locator)
	if err != nil {
		return nil, fmt.Errorf("fetch: parse %q: %w", locator, err)
	}
	u.User = nil

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("fetch: new request: %w", err)
	}
	req.Header.Set("Accept", "image/*")
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}

	resp, err := f.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{URL: u.String(), Code: resp.StatusCode}
	}
	return f.readAll(resp.Body)
}

// client returns f.Client without its cookie jar.
func (f *Fetcher) client() *http.Client {
	switch {
	case f.Client == nil:
		return anonymousClient
	case f.Client.Jar == nil:
		return f.Client
	}
	c := *f.Client
	c.Jar = nil
	return &c
}

func (f *Fetcher) fetchFile(path string) ([]byte, error) {
	if !filepath.IsAbs(path) && f.BaseDir != "" {
		path = filepath.Join(f.BaseDir, path)
	}
	//nolint:gosec // asset paths come from the project definition
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("fetch: open: %w", err)
	}
	defer func() { _ = file.Close() }()
	return f.readAll(file)
}

// fetchData decodes data:[<mediatype>][;base64],<payload>.
func (f *Fetcher) fetchData(locator string) ([]byte, error) {
	header, payload, ok := strings.Cut(strings.TrimPrefix(locator, "data:"), ",")
	if !ok {
		return nil, ErrBadDataURI
	}

	var data []byte
	if strings.HasSuffix(strings.ToLower(header), ";base64") {
		decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
		if err != nil {
			decoded, err = base64.RawStdEncoding.DecodeString(strings.TrimSpace(payload))
			if err != nil {
				return nil, fmt.Errorf("%w: %w", ErrBadDataURI, err)
			}
		}
		data = decoded
	} else {
		unescaped, err := url.PathUnescape(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrBadDataURI, err)
		}
		data = []byte(unescaped)
	}

	if int64(len(data)) > f.limit() {
		return nil, ErrTooLarge
	}
	return data, nil
}

func (f *Fetcher) readAll(r io.Reader) ([]byte, error) {
	limit := f.limit()
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("fetch: read: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, ErrTooLarge
	}
	return data, nil
}
