package nftpreview

import (
	"context"
	"errors"
	"image"
	"image/color"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/gogpu/nftpreview/animation"
)

// fakeSource is a minimal Source.
type fakeSource struct {
	mu   sync.Mutex
	snap Snapshot
	subs map[int]func(Snapshot)
	next int
}

func newFakeSource(s Snapshot) *fakeSource {
	return &fakeSource{snap: s, subs: map[int]func(Snapshot){}}
}

func (f *fakeSource) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap.Clone()
}

func (f *fakeSource) Subscribe(fn func(Snapshot)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.next
	f.next++
	f.subs[id] = fn
	return func() {
		f.mu.Lock()
		delete(f.subs, id)
		f.mu.Unlock()
	}
}

func (f *fakeSource) set(s Snapshot) {
	f.mu.Lock()
	f.snap = s
	subs := make([]func(Snapshot), 0, len(f.subs))
	for _, fn := range f.subs {
		subs = append(subs, fn)
	}
	f.mu.Unlock()
	for _, fn := range subs {
		fn(s.Clone())
	}
}

func snapshotOf(cfg PreviewConfig, layers ...Layer) Snapshot {
	s := Snapshot{Layers: map[string]Layer{}, Selection: Selection{}, Config: cfg}
	for _, l := range layers {
		s.Layers[l.ID] = l
		s.Order = append(s.Order, l.ID)
		if len(l.Assets) > 0 {
			s.Selection[l.ID] = l.Assets[0].ID
		}
	}
	return s
}

func layerAt(id, url string, z int) Layer {
	return Layer{ID: id, Visible: true, ZIndex: z, Assets: []Asset{{ID: "a", URL: url}}}
}

type statusLog struct {
	mu sync.Mutex
	s  []Status
}

func (l *statusLog) add(s Status) {
	l.mu.Lock()
	l.s = append(l.s, s)
	l.mu.Unlock()
}

func (l *statusLog) all() []Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Status(nil), l.s...)
}

func TestPreviewRenderStatus(t *testing.T) {
	snap := snapshotOf(small, layerAt("bg", "red", 0))
	p := NewPreview(newFakeSource(snap), NewCompositor(testLoader()), WithEntrance(false, 0))
	var log statusLog
	p.OnStatus(log.add)

	out := p.Render(context.Background(), snap)
	if out.Kind != Success {
		t.Fatalf("Kind = %v", out.Kind)
	}
	want := []Status{{Loading: true}, {}}
	if got := log.all(); !slices.Equal(got, want) {
		t.Errorf("statuses = %+v, want %+v", got, want)
	}
	if p.Canvas().Width() != 4 {
		t.Errorf("canvas width = %d, want 4", p.Canvas().Width())
	}
}

func TestPreviewFailureStatus(t *testing.T) {
	snap := snapshotOf(small, layerAt("bg", "nope.png", 0))
	p := NewPreview(newFakeSource(snap), NewCompositor(testLoader()), WithEntrance(false, 0))
	p.Render(context.Background(), snap)

	st := p.Status()
	if st.Loading || st.Error != "failed to load image: nope.png" {
		t.Errorf("Status() = %+v", st)
	}

	// A following success clears the error.
	p.Render(context.Background(), snapshotOf(small, layerAt("bg", "red", 0)))
	if st := p.Status(); st != (Status{}) {
		t.Errorf("Status() after success = %+v, want zero", st)
	}
}

func TestPreviewPartialClearsError(t *testing.T) {
	snap := snapshotOf(small, layerAt("a", "nope.png", 0), layerAt("b", "red", 1))
	p := NewPreview(newFakeSource(snap), NewCompositor(testLoader()), WithEntrance(false, 0))
	out := p.Render(context.Background(), snap)
	if out.Kind != PartialSuccess {
		t.Fatalf("Kind = %v", out.Kind)
	}
	if st := p.Status(); st != (Status{}) {
		t.Errorf("Status() = %+v, want zero", st)
	}
}

func TestPreviewSupersededLeavesStatus(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	loader := LoaderFunc(func(ctx context.Context, loc string) (image.Image, error) {
		if loc == "slow" {
			started <- struct{}{}
			<-release
			return nil, errors.New("late failure")
		}
		return green, nil
	})
	p := NewPreview(newFakeSource(Snapshot{}), NewCompositor(loader), WithEntrance(false, 0))
	var log statusLog

	first := make(chan Outcome, 1)
	go func() { first <- p.Render(context.Background(), snapshotOf(small, layerAt("s", "slow", 0))) }()
	<-started

	p.OnStatus(log.add)
	if out := p.Render(context.Background(), snapshotOf(small, layerAt("g", "green", 0))); out.Kind != Success {
		t.Fatalf("second Kind = %v", out.Kind)
	}
	close(release)
	if out := <-first; out.Kind != Superseded {
		t.Errorf("first Kind = %v, want superseded", out.Kind)
	}

	if st := p.Status(); st != (Status{}) {
		t.Errorf("Status() = %+v, want zero", st)
	}
	want := []Status{{Loading: true}, {}}
	if got := log.all(); !slices.Equal(got, want) {
		t.Errorf("statuses = %+v, want %+v", got, want)
	}
	if got := pixelAt(p.Canvas(), 0, 0); got != (color.RGBA{0, 255, 0, 255}) {
		t.Errorf("pixel = %v, want green", got)
	}
}

func TestPreviewStartFollowsSource(t *testing.T) {
	src := newFakeSource(snapshotOf(small, layerAt("bg", "red", 0)))
	p := NewPreview(src, NewCompositor(testLoader()), WithEntrance(false, 0))

	done := make(chan Status, 16)
	p.OnStatus(func(s Status) {
		if !s.Loading {
			done <- s
		}
	})
	stop := p.Start(context.Background())
	defer stop()

	waitIdle := func() {
		t.Helper()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("render did not finish")
		}
	}
	waitIdle()
	if got := pixelAt(p.Canvas(), 0, 0); got != (color.RGBA{255, 0, 0, 255}) {
		t.Errorf("pixel = %v, want red", got)
	}

	src.set(snapshotOf(small, layerAt("bg", "blue", 0)))
	waitIdle()
	if got := pixelAt(p.Canvas(), 0, 0); got != (color.RGBA{0, 0, 255, 255}) {
		t.Errorf("pixel = %v, want blue", got)
	}

	stop()
	src.mu.Lock()
	n := len(src.subs)
	src.mu.Unlock()
	if n != 0 {
		t.Errorf("%d subscriptions left after stop", n)
	}
}

func TestPreviewStartEndsOnLatestSnapshot(t *testing.T) {
	for i := range 50 {
		src := newFakeSource(snapshotOf(small, layerAt("bg", "red", 0)))
		p := NewPreview(src, NewCompositor(testLoader()), WithEntrance(false, 0))
		stop := p.Start(context.Background())

		src.set(snapshotOf(small, layerAt("bg", "green", 0)))
		src.set(snapshotOf(small, layerAt("bg", "red", 0)))
		src.set(snapshotOf(small, layerAt("bg", "blue", 0)))

		deadline := time.Now().Add(5 * time.Second)
		for p.Status().Loading {
			if time.Now().After(deadline) {
				t.Fatalf("run %d: render did not finish", i)
			}
			time.Sleep(time.Millisecond)
		}
		stop()

		if got := pixelAt(p.Canvas(), 0, 0); got != (color.RGBA{0, 0, 255, 255}) {
			t.Fatalf("run %d: pixel = %v, want blue from the last snapshot", i, got)
		}
		if st := p.Status(); st.Error != "" {
			t.Errorf("run %d: status = %+v, want no error", i, st)
		}
	}
}

func TestPreviewStopIgnoresLaterNotifications(t *testing.T) {
	src := newFakeSource(snapshotOf(small, layerAt("bg", "red", 0)))
	comp := NewCompositor(testLoader())
	p := NewPreview(src, comp, WithEntrance(false, 0))
	stop := p.Start(context.Background())
	stop()

	gen := comp.Generation()
	src.set(snapshotOf(small, layerAt("bg", "blue", 0)))
	if got := comp.Generation(); got != gen {
		t.Errorf("Generation() = %d after stop, want %d", got, gen)
	}
}

func TestPreviewEntranceAnimation(t *testing.T) {
	snap := snapshotOf(small, layerAt("bg", "red", 0))
	p := NewPreview(newFakeSource(snap), NewCompositor(testLoader()), WithEntrance(true, 20*time.Millisecond))
	if got := p.Presentation(); got != animation.Identity {
		t.Errorf("initial Presentation() = %+v, want identity", got)
	}
	before := p.Canvas()

	p.Render(context.Background(), snap)
	pix := before.Image().Pix
	p.fade.Wait()
	p.scale.Wait()

	if got := p.Presentation(); got != animation.Identity {
		t.Errorf("Presentation() after entrance = %+v, want identity", got)
	}
	if !slices.Equal(pix, p.Canvas().Image().Pix) {
		t.Error("entrance animation changed canvas pixels")
	}
}

func TestPreviewWithCanvas(t *testing.T) {
	c := NewCanvas(1, 1)
	p := NewPreview(newFakeSource(Snapshot{}), nil, WithCanvas(c))
	if p.Canvas() != c {
		t.Error("WithCanvas not applied")
	}
}
