// Package animation plays short property animations (fade, slide, scale) on
// a presentation target. Frames are computed on a ticker goroutine and pushed
// to the target; the last frame is always delivered, so the target keeps the
// end state once an animation finishes.
package animation

import (
	"sync"
	"time"
)

// Defaults applied to zero Options fields.
const (
	DefaultDuration = 300 * time.Millisecond
	FrameInterval   = 16 * time.Millisecond
)

// Frame is the presentation state of a target at one instant. Translations
// are percentages of the target size.
type Frame struct {
	Opacity    float64
	Scale      float64
	TranslateX float64
	TranslateY float64
}

// Identity is the resting frame: opaque, unscaled, untranslated.
var Identity = Frame{Opacity: 1, Scale: 1}

// Target receives frames.
type Target interface {
	SetFrame(Frame)
}

// TargetFunc adapts a function to the Target interface.
type TargetFunc func(Frame)

// SetFrame calls f(fr).
func (f TargetFunc) SetFrame(fr Frame) { f(fr) }

// Options configures an animation.
type Options struct {
	Duration   time.Duration // Zero means DefaultDuration.
	Delay      time.Duration
	Easing     Easing // nil means Ease.
	OnComplete func() // Called after the final frame of Play or Reverse.
}

func (o Options) withDefaults() Options {
	if o.Duration <= 0 {
		o.Duration = DefaultDuration
	}
	if o.Easing == nil {
		o.Easing = Ease
	}
	return o
}

// Controls drives an animation.
type Controls interface {
	Play()
	Reverse()
	Stop()
}

// Direction selects where a slide enters from.
type Direction int

// Slide directions.
const (
	Left Direction = iota
	Right
	Up
	Down
)

func (d Direction) String() string {
	switch d {
	case Right:
		return "right"
	case Up:
		return "up"
	case Down:
		return "down"
	default:
		return "left"
	}
}

// Animation interpolates between two frames. A nil *Animation is a valid
// Controls that does nothing.
type Animation struct {
	target Target
	opts   Options
	from   Frame
	to     Frame

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

var _ Controls = (*Animation)(nil)

func newAnimation(target Target, opts Options, from, to Frame) *Animation {
	if target == nil {
		return nil
	}
	return &Animation{target: target, opts: opts.withDefaults(), from: from, to: to}
}

// NewFade animates opacity from 0 to 1.
func NewFade(target Target, opts Options) *Animation {
	return newAnimation(target, opts, Frame{Opacity: 0, Scale: 1}, Identity)
}

// NewScale animates scale from 0 to 1.
func NewScale(target Target, opts Options) *Animation {
	return newAnimation(target, opts, Frame{Opacity: 1, Scale: 0}, Identity)
}

// NewSlide animates a translation from fully offset in dir to the resting
// position.
func NewSlide(target Target, opts Options, dir Direction) *Animation {
	from := Identity
	switch dir {
	case Right:
		from.TranslateX = 100
	case Up:
		from.TranslateY = -100
	case Down:
		from.TranslateY = 100
	default:
		from.TranslateX = -100
	}
	return newAnimation(target, opts, from, Identity)
}

// Play runs the animation forward, canceling any run in progress.
func (a *Animation) Play() {
	if a == nil {
		return
	}
	a.start(a.from, a.to)
}

// Reverse runs the animation backward, canceling any run in progress.
func (a *Animation) Reverse() {
	if a == nil {
		return
	}
	a.start(a.to, a.from)
}

// Stop cancels the run in progress without delivering further frames or
// calling OnComplete. It must not be called from Target.SetFrame.
func (a *Animation) Stop() {
	if a == nil {
		return
	}
	a.mu.Lock()
	done := a.cancelLocked()
	a.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Wait blocks until the current run finishes or is stopped.
func (a *Animation) Wait() {
	if a == nil {
		return
	}
	a.mu.Lock()
	done := a.done
	a.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (a *Animation) cancelLocked() chan struct{} {
	if a.stop == nil {
		return nil
	}
	close(a.stop)
	done := a.done
	a.stop, a.done = nil, nil
	return done
}

func (a *Animation) start(from, to Frame) {
	a.mu.Lock()
	prev := a.cancelLocked()
	stop, done := make(chan struct{}), make(chan struct{})
	a.stop, a.done = stop, done
	a.mu.Unlock()

	if prev != nil {
		<-prev
	}
	go a.run(from, to, stop, done)
}

func (a *Animation) run(from, to Frame, stop, done chan struct{}) {
	defer close(done)

	if a.opts.Delay > 0 {
		timer := time.NewTimer(a.opts.Delay)
		select {
		case <-stop:
			timer.Stop()
			return
		case <-timer.C:
		}
	}

	ticker := time.NewTicker(FrameInterval)
	defer ticker.Stop()

	begin := time.Now()
	a.target.SetFrame(from)
	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			t := float64(now.Sub(begin)) / float64(a.opts.Duration)
			if t >= 1 {
				a.target.SetFrame(to)
				a.mu.Lock()
				if a.stop == stop {
					a.stop, a.done = nil, nil
				}
				a.mu.Unlock()
				if a.opts.OnComplete != nil {
					a.opts.OnComplete()
				}
				return
			}
			a.target.SetFrame(Lerp(from, to, a.opts.Easing(t)))
		}
	}
}

// Lerp interpolates between two frames.
func Lerp(from, to Frame, p float64) Frame {
	return Frame{
		Opacity:    from.Opacity + (to.Opacity-from.Opacity)*p,
		Scale:      from.Scale + (to.Scale-from.Scale)*p,
		TranslateX: from.TranslateX + (to.TranslateX-from.TranslateX)*p,
		TranslateY: from.TranslateY + (to.TranslateY-from.TranslateY)*p,
	}
}
