package nftpreview

import (
	"log/slog"
	"net/http"
	"time"
)

// Option configures a Compositor during creation.
//
// Example:
//
//	comp := nftpreview.NewCompositor(loader,
//	    nftpreview.WithLogger(logger),
//	    nftpreview.WithPrefetch(false),
//	)
type Option func(*compositorOptions)

type compositorOptions struct {
	logger   *slog.Logger
	prefetch bool
}

func defaultOptions() compositorOptions {
	return compositorOptions{prefetch: true}
}

// WithLogger sets the logger for a Compositor. Without it the package logger
// (see SetLogger) is used.
func WithLogger(l *slog.Logger) Option {
	return func(o *compositorOptions) {
		o.logger = l
	}
}

// WithPrefetch enables or disables look-ahead loading. When enabled (the
// default) the image of the next layer is requested while the current one
// is drawn. Draw order is the same either way.
func WithPrefetch(enabled bool) Option {
	return func(o *compositorOptions) {
		o.prefetch = enabled
	}
}

// LoaderOption configures an ImageLoader during creation.
//
// Example:
//
//	loader := nftpreview.NewImageLoader(
//	    nftpreview.WithBaseDir("./assets"),
//	    nftpreview.WithTimeout(10*time.Second),
//	    nftpreview.WithCacheSize(128),
//	)
type LoaderOption func(*loaderOptions)

type loaderOptions struct {
	client    *http.Client
	timeout   time.Duration
	baseDir   string
	maxBytes  int64
	userAgent string
	cacheSize int
	logger    *slog.Logger
}

// Loader defaults.
const (
	DefaultLoadTimeout = 30 * time.Second
	DefaultUserAgent   = "nftpreview"
)

func defaultLoaderOptions() loaderOptions {
	return loaderOptions{
		timeout:   DefaultLoadTimeout,
		userAgent: DefaultUserAgent,
	}
}

// WithHTTPClient sets the client used for http and https locators. Its
// cookie jar, if any, is ignored so requests never include credentials.
func WithHTTPClient(c *http.Client) LoaderOption {
	return func(o *loaderOptions) {
		o.client = c
	}
}

// WithTimeout bounds each load. Zero or negative disables the bound.
func WithTimeout(d time.Duration) LoaderOption {
	return func(o *loaderOptions) {
		o.timeout = d
	}
}

// WithBaseDir resolves relative filesystem locators against dir.
func WithBaseDir(dir string) LoaderOption {
	return func(o *loaderOptions) {
		o.baseDir = dir
	}
}

// WithMaxBytes caps the size of a fetched image payload.
func WithMaxBytes(n int64) LoaderOption {
	return func(o *loaderOptions) {
		o.maxBytes = n
	}
}

// WithUserAgent sets the User-Agent header of http requests.
func WithUserAgent(ua string) LoaderOption {
	return func(o *loaderOptions) {
		o.userAgent = ua
	}
}

// WithCacheSize keeps up to n decoded images keyed by locator. Zero (the
// default) disables caching.
func WithCacheSize(n int) LoaderOption {
	return func(o *loaderOptions) {
		o.cacheSize = n
	}
}

// WithLoaderLogger sets the logger for an ImageLoader.
func WithLoaderLogger(l *slog.Logger) LoaderOption {
	return func(o *loaderOptions) {
		o.logger = l
	}
}

// PreviewOption configures a Preview during creation.
type PreviewOption func(*previewOptions)

type previewOptions struct {
	canvas   *Canvas
	animate  bool
	duration time.Duration
	logger   *slog.Logger
}

func defaultPreviewOptions() previewOptions {
	return previewOptions{
		animate:  true,
		duration: 300 * time.Millisecond,
	}
}

// WithCanvas makes the preview render into c instead of a canvas of its own.
func WithCanvas(c *Canvas) PreviewOption {
	return func(o *previewOptions) {
		o.canvas = c
	}
}

// WithEntrance enables or disables the entrance animation played after each
// completed render, and sets its duration.
func WithEntrance(enabled bool, d time.Duration) PreviewOption {
	return func(o *previewOptions) {
		o.animate = enabled
		if d > 0 {
			o.duration = d
		}
	}
}

// WithPreviewLogger sets the logger for a Preview.
func WithPreviewLogger(l *slog.Logger) PreviewOption {
	return func(o *previewOptions) {
		o.logger = l
	}
}
