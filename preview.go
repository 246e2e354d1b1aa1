package nftpreview

import (
	"context"
	"log/slog"
	"sync"

	"github.com/gogpu/nftpreview/animation"
)

// Source supplies the layer state a Preview renders. *store.Store satisfies
// it.
type Source interface {
	Snapshot() Snapshot
	Subscribe(fn func(Snapshot)) (unsubscribe func())
}

// Status is the loading indicator and error message shown with a preview.
type Status struct {
	Loading bool
	Error   string
}

// Preview keeps a canvas in sync with a Source. Every state change starts a
// new composite; an older composite still in flight is superseded and never
// touches the status again.
type Preview struct {
	src     Source
	comp    *Compositor
	canvas  *Canvas
	logger  *slog.Logger
	animate bool

	fade  *animation.Animation
	scale *animation.Animation

	// startMu makes request order match compositor generation order.
	startMu sync.Mutex

	// notifyMu orders status changes with their listener calls.
	notifyMu sync.Mutex

	mu        sync.Mutex
	status    Status
	request   uint64
	listeners []func(Status)
	frame     animation.Frame
}

// NewPreview creates a preview of src. A nil comp uses a compositor backed
// by a default ImageLoader.
func NewPreview(src Source, comp *Compositor, opts ...PreviewOption) *Preview {
	o := defaultPreviewOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if comp == nil {
		comp = NewCompositor(NewImageLoader())
	}
	canvas := o.canvas
	if canvas == nil {
		canvas = NewCanvas(DefaultWidth, DefaultHeight)
	}

	p := &Preview{
		src:     src,
		comp:    comp,
		canvas:  canvas,
		logger:  o.logger,
		animate: o.animate,
		frame:   animation.Identity,
	}
	if o.animate {
		aopts := animation.Options{Duration: o.duration}
		p.fade = animation.NewFade(animation.TargetFunc(func(f animation.Frame) {
			p.mu.Lock()
			p.frame.Opacity = f.Opacity
			p.mu.Unlock()
		}), aopts)
		p.scale = animation.NewScale(animation.TargetFunc(func(f animation.Frame) {
			p.mu.Lock()
			p.frame.Scale = f.Scale
			p.mu.Unlock()
		}), aopts)
	}
	return p
}

// Canvas returns the canvas the preview draws into. Its size follows the
// preview config of the rendered snapshot.
func (p *Preview) Canvas() *Canvas {
	return p.canvas
}

// Status returns the current status.
func (p *Preview) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// Presentation returns the current entrance animation frame. It never
// affects the canvas pixels.
func (p *Preview) Presentation() animation.Frame {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.frame
}

// OnStatus registers fn to be called with every status change, in order.
func (p *Preview) OnStatus(fn func(Status)) {
	p.mu.Lock()
	p.listeners = append(p.listeners, fn)
	p.mu.Unlock()
}

// Start renders the current snapshot and re-renders after every change of
// the source until the returned stop function is called. Each request claims
// its generation before the notification returns, so the canvas ends on the
// latest snapshot. stop waits for renders in flight to return.
func (p *Preview) Start(ctx context.Context) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	var (
		mu      sync.Mutex
		stopped bool
		wg      sync.WaitGroup
	)
	render := func(snap func() Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		if stopped {
			return
		}
		req, r := p.claim(ctx, snap)
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.complete(req, r)
		}()
	}

	unsubscribe := p.src.Subscribe(func(s Snapshot) {
		render(func() Snapshot { return s })
	})
	render(p.src.Snapshot)

	var once sync.Once
	return func() {
		once.Do(func() {
			unsubscribe()
			mu.Lock()
			stopped = true
			mu.Unlock()
			cancel()
			wg.Wait()
			p.fade.Stop()
			p.scale.Stop()
		})
	}
}

// Render composites one snapshot into the canvas and updates the status. A
// superseded render leaves the status to the newer one.
func (p *Preview) Render(ctx context.Context, snap Snapshot) Outcome {
	req, r := p.claim(ctx, func() Snapshot { return snap })
	return p.complete(req, r)
}

// claim claims the next request id and compositor generation together.
// snap is read while both are held.
func (p *Preview) claim(ctx context.Context, snap func() Snapshot) (uint64, *run) {
	p.startMu.Lock()
	defer p.startMu.Unlock()
	s := snap()
	req := p.begin()
	return req, p.comp.start(ctx, s.DrawList(), p.canvas, s.Config)
}

func (p *Preview) complete(req uint64, r *run) Outcome {
	out := r.wait()
	if out.Kind == Superseded {
		return out
	}

	if !p.finish(req, out) {
		return out
	}
	if out.Kind != Failure && p.animate {
		p.fade.Play()
		p.scale.Play()
	}
	return out
}

func (p *Preview) begin() uint64 {
	p.notifyMu.Lock()
	defer p.notifyMu.Unlock()

	p.mu.Lock()
	p.request++
	req := p.request
	p.status = Status{Loading: true}
	listeners := p.listeners
	p.mu.Unlock()

	for _, fn := range listeners {
		fn(Status{Loading: true})
	}
	return req
}

// finish applies the outcome of request req and reports whether req was
// still the latest.
func (p *Preview) finish(req uint64, out Outcome) bool {
	st := Status{}
	if out.Kind == Failure {
		st.Error = out.Message()
	}

	p.notifyMu.Lock()
	defer p.notifyMu.Unlock()

	p.mu.Lock()
	if req != p.request {
		p.mu.Unlock()
		orLogger(p.logger).Debug("nftpreview: stale render status dropped", "request", req)
		return false
	}
	p.status = st
	listeners := p.listeners
	p.mu.Unlock()

	for _, fn := range listeners {
		fn(st)
	}
	return true
}
