package nftpreview

import (
	"context"
	"errors"
	"image"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/gogpu/nftpreview/internal/cache"
	"github.com/gogpu/nftpreview/internal/fetch"
	intImage "github.com/gogpu/nftpreview/internal/image"
)

// Loader turns a locator into a decoded image. Failures should be returned
// as *LoadError. Implementations must honor ctx cancellation; the compositor
// cancels loads that belong to a superseded composite.
type Loader interface {
	Load(ctx context.Context, locator string) (image.Image, error)
}

// LoaderFunc adapts an ordinary function to the Loader interface.
type LoaderFunc func(ctx context.Context, locator string) (image.Image, error)

// Load calls f(ctx, locator).
func (f LoaderFunc) Load(ctx context.Context, locator string) (image.Image, error) {
	return f(ctx, locator)
}

var errEmptyLocator = errors.New("nftpreview: empty locator")

// ImageLoader loads images from http(s) URLs, file URLs, data URIs and
// filesystem paths. HTTP requests are anonymous. Payloads are sniffed before
// decoding; PNG, JPEG, GIF, WebP, BMP and TIFF are supported.
//
// Concurrent loads of one locator share a single fetch. With WithCacheSize
// decoded images are kept in an LRU cache.
type ImageLoader struct {
	fetcher *fetch.Fetcher
	timeout time.Duration
	cache   *cache.LRU[string, image.Image]
	group   singleflight.Group
	logger  *slog.Logger
}

var _ Loader = (*ImageLoader)(nil)

// NewImageLoader creates an ImageLoader.
func NewImageLoader(opts ...LoaderOption) *ImageLoader {
	o := defaultLoaderOptions()
	for _, opt := range opts {
		opt(&o)
	}
	l := &ImageLoader{
		fetcher: &fetch.Fetcher{
			Client:    o.client,
			BaseDir:   o.baseDir,
			MaxBytes:  o.maxBytes,
			UserAgent: o.userAgent,
		},
		timeout: o.timeout,
		logger:  o.logger,
	}
	if o.cacheSize > 0 {
		l.cache = cache.New[string, image.Image](o.cacheSize)
	}
	return l
}

// Load fetches, sniffs and decodes the image at locator.
func (l *ImageLoader) Load(ctx context.Context, locator string) (image.Image, error) {
	if locator == "" {
		return nil, &LoadError{Locator: locator, Err: errEmptyLocator}
	}
	if l.cache != nil {
		if img, ok := l.cache.Get(locator); ok {
			orLogger(l.logger).Debug("nftpreview: image cache hit", "locator", locator)
			return img, nil
		}
	}

	ch := l.group.DoChan(locator, func() (any, error) {
		return l.load(ctx, locator)
	})
	select {
	case <-ctx.Done():
		return nil, &LoadError{Locator: locator, Err: ctx.Err()}
	case res := <-ch:
		if res.Err != nil {
			// A shared load canceled by another caller is retried with ours.
			if res.Shared && ctx.Err() == nil && errors.Is(res.Err, context.Canceled) {
				return l.load(ctx, locator)
			}
			return nil, res.Err
		}
		return res.Val.(image.Image), nil
	}
}

func (l *ImageLoader) load(ctx context.Context, locator string) (image.Image, error) {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	data, err := l.fetcher.Fetch(ctx, locator)
	if err != nil {
		return nil, &LoadError{Locator: locator, Err: err}
	}
	img, format, err := intImage.Decode(data)
	if err != nil {
		return nil, &LoadError{Locator: locator, Err: err}
	}
	orLogger(l.logger).Debug("nftpreview: image loaded", "locator", locator,
		"format", format, "bytes", len(data), "size", img.Bounds().Size())

	if l.cache != nil {
		l.cache.Set(locator, img)
	}
	return img, nil
}

// CacheStats reports image cache usage.
type CacheStats = cache.Stats

// CacheStats reports cache usage. It returns the zero value when caching is
// disabled.
func (l *ImageLoader) CacheStats() CacheStats {
	if l.cache == nil {
		return CacheStats{}
	}
	return l.cache.Stats()
}

// Purge drops every cached image.
func (l *ImageLoader) Purge() {
	if l.cache != nil {
		l.cache.Clear()
	}
}
