// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package nftpreview

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
)

// Compositor draws resolved layer lists onto a surface. Composite may be
// called concurrently; each call starts a new generation and any older
// composite still in flight stops touching the surface as soon as it
// notices.
type Compositor struct {
	loader   Loader
	logger   *slog.Logger
	prefetch bool

	// mu serializes every surface mutation and guards the fields below.
	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
}

// NewCompositor creates a compositor that obtains images from loader.
func NewCompositor(loader Loader, opts ...Option) *Compositor {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Compositor{
		loader:   loader,
		logger:   o.logger,
		prefetch: o.prefetch,
	}
}

// Generation returns the token of the most recently started composite.
func (c *Compositor) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

// resizer is implemented by surfaces whose size follows the preview config.
type resizer interface {
	Resize(width, height int)
}

type loadResult struct {
	img image.Image
	err error
}

// Composite clears surface, fills the configured background and draws list
// in order, each layer scaled to the full cfg size with its own opacity and
// composite operation. Layers whose image fails to load or draw are skipped.
//
// If another Composite starts before this one finishes, this one returns a
// Superseded outcome without mutating the surface any further.
func (c *Compositor) Composite(ctx context.Context, list []DrawEntry, surface Surface, cfg PreviewConfig) Outcome {
	return c.start(ctx, list, surface, cfg).wait()
}

// run is one composite generation.
type run struct {
	c      *Compositor
	ctx    context.Context
	runCtx context.Context
	cancel context.CancelFunc
	log    *slog.Logger
	gen    uint64
	dc     DrawingContext
	err    error
	list   []DrawEntry
	w, h   int
}

// start claims a new generation and prepares the surface. Everything the
// previous generation would still draw is invalidated before start returns.
func (c *Compositor) start(ctx context.Context, list []DrawEntry, surface Surface, cfg PreviewConfig) *run {
	r := &run{c: c, ctx: ctx, log: orLogger(c.logger), list: list}
	r.w, r.h = cfg.Size()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	r.gen = c.gen
	if c.cancel != nil {
		c.cancel()
	}
	r.runCtx, r.cancel = context.WithCancel(ctx)
	c.cancel = r.cancel
	r.dc, r.err = c.begin(surface, cfg, r.w, r.h, r.log)
	return r
}

// wait loads and draws the entries of r and reports the outcome.
func (r *run) wait() Outcome {
	defer r.cancel()
	c, log, gen := r.c, r.log, r.gen

	if r.err != nil {
		log.Warn("nftpreview: composite aborted", "generation", gen, "err", r.err)
		return Outcome{Kind: Failure, Generation: gen, Err: r.err}
	}

	out := Outcome{Generation: gen}
	if len(r.list) == 0 {
		log.Info("nftpreview: composite done", "generation", gen, "layers", 0)
		return out
	}

	list := r.list
	next := c.load(r.runCtx, list[0])
	for i, e := range list {
		var res loadResult
		select {
		case res = <-next:
		case <-r.runCtx.Done():
			res = loadResult{err: r.runCtx.Err()}
		}
		next = nil
		if c.prefetch && i+1 < len(list) {
			next = c.load(r.runCtx, list[i+1])
		}

		c.mu.Lock()
		if current := c.gen; current != gen {
			c.mu.Unlock()
			log.Debug("nftpreview: composite superseded", "generation", gen, "current", current)
			return Outcome{Kind: Superseded, Generation: gen, Drawn: out.Drawn, Failed: out.Failed, Err: ErrSuperseded}
		}
		if err := r.ctx.Err(); err != nil {
			c.mu.Unlock()
			return Outcome{Kind: Failure, Generation: gen, Drawn: out.Drawn, Failed: out.Failed, Err: err}
		}
		if res.err == nil {
			res.err = c.draw(r.dc, e, res.img, r.w, r.h)
		}
		c.mu.Unlock()

		if res.err != nil {
			lerr := asLoadError(e.Locator(), res.err)
			out.Failed = append(out.Failed, LayerFailure{LayerID: e.Layer.ID, Locator: e.Locator(), Err: lerr})
			log.Warn("nftpreview: layer skipped", "generation", gen, "layer", e.Layer.ID, "locator", e.Locator(), "err", res.err)
		} else {
			out.Drawn = append(out.Drawn, e.Layer.ID)
			log.Debug("nftpreview: layer drawn", "generation", gen, "layer", e.Layer.ID,
				"opacity", e.Layer.EffectiveOpacity(), "op", e.Layer.EffectiveBlendMode())
		}

		if next == nil && i+1 < len(list) {
			next = c.load(r.runCtx, list[i+1])
		}
	}

	switch {
	case len(out.Failed) == 0:
		out.Kind = Success
	case len(out.Drawn) == 0:
		out.Kind = Failure
		out.Err = ErrAllLayersFailed
	default:
		out.Kind = PartialSuccess
	}
	log.Info("nftpreview: composite done", "generation", gen, "outcome", out.Kind,
		"drawn", len(out.Drawn), "failed", len(out.Failed))
	return out
}

// begin prepares the surface for a new generation. Called with c.mu held.
func (c *Compositor) begin(surface Surface, cfg PreviewConfig, w, h int, log *slog.Logger) (DrawingContext, error) {
	if surface == nil {
		return nil, fmt.Errorf("%w: nil surface", ErrContextUnavailable)
	}
	if r, ok := surface.(resizer); ok {
		r.Resize(w, h)
	}
	dc, err := surface.Context()
	if err != nil {
		if !errors.Is(err, ErrContextUnavailable) {
			err = fmt.Errorf("%w: %w", ErrContextUnavailable, err)
		}
		return nil, err
	}
	if dc == nil {
		return nil, ErrContextUnavailable
	}

	dc.ClearRect(0, 0, w, h)
	if cfg.Background == "" {
		return dc, nil
	}
	bg, err := ParseColor(cfg.Background)
	if err != nil {
		log.Warn("nftpreview: background ignored", "background", cfg.Background, "err", err)
		return dc, nil
	}
	dc.Save()
	defer dc.Restore()
	dc.SetGlobalAlpha(1)
	dc.SetGlobalCompositeOperation(SourceOver)
	dc.FillRect(0, 0, w, h, bg)
	return dc, nil
}

// load starts loading e in the background.
func (c *Compositor) load(ctx context.Context, e DrawEntry) <-chan loadResult {
	ch := make(chan loadResult, 1)
	go func() {
		var res loadResult
		defer func() {
			if r := recover(); r != nil {
				res = loadResult{err: fmt.Errorf("nftpreview: loader panicked: %v", r)}
			}
			ch <- res
		}()
		if c.loader == nil {
			res.err = errors.New("nftpreview: no loader")
			return
		}
		res.img, res.err = c.loader.Load(ctx, e.Locator())
		if res.err == nil && res.img == nil {
			res.err = errors.New("nftpreview: loader returned no image")
		}
	}()
	return ch
}

// draw paints one layer. The context state is restored even when the draw
// fails or panics. Called with c.mu held.
func (c *Compositor) draw(dc DrawingContext, e DrawEntry, img image.Image, w, h int) (err error) {
	dc.Save()
	defer dc.Restore()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("nftpreview: draw panicked: %v", r)
		}
	}()
	dc.SetGlobalAlpha(e.Layer.EffectiveOpacity())
	dc.SetGlobalCompositeOperation(e.Layer.EffectiveBlendMode())
	return dc.DrawImage(img, 0, 0, w, h)
}

func asLoadError(locator string, err error) *LoadError {
	var le *LoadError
	if errors.As(err, &le) {
		return le
	}
	return &LoadError{Locator: locator, Err: err}
}
