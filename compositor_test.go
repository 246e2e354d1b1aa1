package nftpreview

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"slices"
	"sync"
	"testing"
	"time"
)

func entry(id, url string, z int) DrawEntry {
	return DrawEntry{
		Layer: Layer{ID: id, Visible: true, ZIndex: z, Assets: []Asset{{ID: "a", URL: url}}},
		Asset: Asset{ID: "a", URL: url},
	}
}

// mapLoader serves images by locator and fails for anything else.
type mapLoader struct {
	mu     sync.Mutex
	images map[string]image.Image
	calls  []string
}

func (m *mapLoader) Load(_ context.Context, locator string) (image.Image, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, locator)
	if img, ok := m.images[locator]; ok {
		return img, nil
	}
	return nil, &LoadError{Locator: locator, Err: errors.New("not found")}
}

var (
	red   = solidImage(4, 4, color.NRGBA{255, 0, 0, 255})
	green = solidImage(4, 4, color.NRGBA{0, 255, 0, 255})
	blue  = solidImage(4, 4, color.NRGBA{0, 0, 255, 255})
)

func testLoader() *mapLoader {
	return &mapLoader{images: map[string]image.Image{"red": red, "green": green, "blue": blue}}
}

var small = PreviewConfig{Width: 4, Height: 4}

func TestCompositeSuccess(t *testing.T) {
	comp := NewCompositor(testLoader())
	canvas := NewCanvas(1, 1)

	out := comp.Composite(context.Background(), []DrawEntry{entry("bg", "red", 0), entry("top", "green", 1)}, canvas, small)
	if out.Kind != Success {
		t.Fatalf("Kind = %v, want success (err %v)", out.Kind, out.Err)
	}
	if !slices.Equal(out.Drawn, []string{"bg", "top"}) {
		t.Errorf("Drawn = %v, want [bg top]", out.Drawn)
	}
	if canvas.Width() != 4 || canvas.Height() != 4 {
		t.Errorf("canvas not resized to config: %dx%d", canvas.Width(), canvas.Height())
	}
	if got := pixelAt(canvas, 2, 2); got != (color.RGBA{0, 255, 0, 255}) {
		t.Errorf("pixel = %v, want top layer green", got)
	}
	if out.Message() != "" {
		t.Errorf("Message() = %q, want empty", out.Message())
	}
}

func TestCompositeEmptyListClearsAndFillsBackground(t *testing.T) {
	comp := NewCompositor(testLoader())
	canvas := NewCanvas(4, 4)
	canvas.FillRect(0, 0, 4, 4, White)

	out := comp.Composite(context.Background(), nil, canvas, PreviewConfig{Width: 4, Height: 4, Background: "#0000ff"})
	if out.Kind != Success {
		t.Fatalf("Kind = %v, want success", out.Kind)
	}
	if got := pixelAt(canvas, 0, 0); got != (color.RGBA{0, 0, 255, 255}) {
		t.Errorf("pixel = %v, want background blue", got)
	}

	comp.Composite(context.Background(), nil, canvas, small)
	if got := pixelAt(canvas, 0, 0); got != (color.RGBA{}) {
		t.Errorf("pixel = %v, want cleared", got)
	}
}

func TestCompositeInvalidBackgroundIgnored(t *testing.T) {
	comp := NewCompositor(testLoader())
	canvas := NewCanvas(4, 4)
	out := comp.Composite(context.Background(), []DrawEntry{entry("bg", "red", 0)}, canvas,
		PreviewConfig{Width: 4, Height: 4, Background: "not-a-color"})
	if out.Kind != Success {
		t.Errorf("Kind = %v, want success", out.Kind)
	}
}

func TestCompositePartialFailureIsolated(t *testing.T) {
	comp := NewCompositor(testLoader())

	failed := NewCanvas(4, 4)
	out := comp.Composite(context.Background(), []DrawEntry{entry("a", "missing.png", 0), entry("b", "blue", 1)}, failed, small)
	if out.Kind != PartialSuccess {
		t.Fatalf("Kind = %v, want partial", out.Kind)
	}
	if !slices.Equal(out.FailedIDs(), []string{"a"}) || !slices.Equal(out.Drawn, []string{"b"}) {
		t.Errorf("Failed = %v, Drawn = %v", out.FailedIDs(), out.Drawn)
	}
	var le *LoadError
	if !errors.As(out.Failed[0].Err, &le) || le.Locator != "missing.png" {
		t.Errorf("Failed[0].Err = %v, want *LoadError for missing.png", out.Failed[0].Err)
	}
	if out.Message() != "failed to load image: missing.png" {
		t.Errorf("Message() = %q", out.Message())
	}

	alone := NewCanvas(4, 4)
	comp.Composite(context.Background(), []DrawEntry{entry("b", "blue", 1)}, alone, small)
	if !bytes.Equal(failed.Image().Pix, alone.Image().Pix) {
		t.Error("surface with failed layer differs from surface without it")
	}
}

func TestCompositeAllLayersFailed(t *testing.T) {
	comp := NewCompositor(testLoader())
	out := comp.Composite(context.Background(), []DrawEntry{entry("a", "x", 0), entry("b", "y", 1)}, NewCanvas(4, 4), small)
	if out.Kind != Failure || !errors.Is(out.Err, ErrAllLayersFailed) {
		t.Errorf("outcome = (%v, %v), want (failure, ErrAllLayersFailed)", out.Kind, out.Err)
	}
	if out.Message() != "failed to load images: x, y" {
		t.Errorf("Message() = %q", out.Message())
	}
}

type brokenSurface struct{}

func (brokenSurface) Context() (DrawingContext, error) { return nil, errors.New("no 2d") }

func TestCompositeContextUnavailable(t *testing.T) {
	loader := testLoader()
	comp := NewCompositor(loader)
	for name, s := range map[string]Surface{"nil": nil, "broken": brokenSurface{}, "zero canvas": zeroSurface{}} {
		t.Run(name, func(t *testing.T) {
			out := comp.Composite(context.Background(), []DrawEntry{entry("a", "red", 0)}, s, small)
			if out.Kind != Failure || !errors.Is(out.Err, ErrContextUnavailable) {
				t.Errorf("outcome = (%v, %v), want (failure, ErrContextUnavailable)", out.Kind, out.Err)
			}
			if out.Message() != "Canvas context not available" {
				t.Errorf("Message() = %q", out.Message())
			}
		})
	}
	if len(loader.calls) != 0 {
		t.Errorf("loads attempted without a context: %v", loader.calls)
	}
}

type zeroSurface struct{}

func (zeroSurface) Context() (DrawingContext, error) { return NewCanvas(0, 0).Context() }

// recordingContext logs every call it receives.
type recordingContext struct {
	*Canvas
	mu       sync.Mutex
	log      []string
	failDraw bool
	panic    bool
}

func (r *recordingContext) record(s string) {
	r.mu.Lock()
	r.log = append(r.log, s)
	r.mu.Unlock()
}

func (r *recordingContext) Context() (DrawingContext, error) { return r, nil }
func (r *recordingContext) Save()                            { r.record("save"); r.Canvas.Save() }
func (r *recordingContext) Restore()                         { r.record("restore"); r.Canvas.Restore() }

func (r *recordingContext) SetGlobalAlpha(a float64) {
	r.record(fmt.Sprintf("alpha %v", a))
	r.Canvas.SetGlobalAlpha(a)
}

func (r *recordingContext) SetGlobalCompositeOperation(op CompositeOp) {
	r.record("op " + string(op))
	r.Canvas.SetGlobalCompositeOperation(op)
}

func (r *recordingContext) DrawImage(img image.Image, x, y, w, h int) error {
	r.record(fmt.Sprintf("draw alpha=%v op=%v", r.Canvas.GlobalAlpha(), r.Canvas.GlobalCompositeOperation()))
	if r.panic {
		panic("draw exploded")
	}
	if r.failDraw {
		return errors.New("draw failed")
	}
	return r.Canvas.DrawImage(img, x, y, w, h)
}

func TestCompositeRestoresStateAfterEachLayer(t *testing.T) {
	rc := &recordingContext{Canvas: NewCanvas(4, 4)}
	hat := entry("hat", "red", 1)
	hat.Layer.Opacity = Opacity(0.5)
	top := entry("top", "green", 2)

	comp := NewCompositor(testLoader())
	out := comp.Composite(context.Background(), []DrawEntry{hat, top}, rc, small)
	if out.Kind != Success {
		t.Fatalf("Kind = %v", out.Kind)
	}

	var draws []string
	for _, l := range rc.log {
		if len(l) > 4 && l[:4] == "draw" {
			draws = append(draws, l)
		}
	}
	want := []string{"draw alpha=0.5 op=source-over", "draw alpha=1 op=source-over"}
	if !slices.Equal(draws, want) {
		t.Errorf("draws = %v, want %v", draws, want)
	}
	if rc.GlobalAlpha() != 1 || rc.GlobalCompositeOperation() != SourceOver {
		t.Errorf("final state = (%v, %v), want defaults", rc.GlobalAlpha(), rc.GlobalCompositeOperation())
	}
}

func TestCompositeClampsOpacity(t *testing.T) {
	tests := []struct {
		opacity float64
		want    color.RGBA
	}{
		{-0.5, color.RGBA{}},
		{2, color.RGBA{255, 0, 0, 255}},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.opacity), func(t *testing.T) {
			e := entry("bg", "red", 0)
			e.Layer.Opacity = Opacity(tt.opacity)
			canvas := NewCanvas(4, 4)

			out := NewCompositor(testLoader()).Composite(context.Background(), []DrawEntry{e}, canvas, small)
			if out.Kind != Success {
				t.Fatalf("Kind = %v, want success", out.Kind)
			}
			if got := pixelAt(canvas, 1, 1); got != tt.want {
				t.Errorf("pixel = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCompositeRestoresAfterFailedDraw(t *testing.T) {
	for _, tc := range []struct {
		name       string
		fail, boom bool
	}{{"error", true, false}, {"panic", false, true}} {
		t.Run(tc.name, func(t *testing.T) {
			rc := &recordingContext{Canvas: NewCanvas(4, 4), failDraw: tc.fail, panic: tc.boom}
			e := entry("a", "red", 0)
			e.Layer.Opacity = Opacity(0.25)
			e.Layer.BlendMode = Multiply

			out := NewCompositor(testLoader()).Composite(context.Background(), []DrawEntry{e}, rc, small)
			if out.Kind != Failure || len(out.Failed) != 1 {
				t.Fatalf("outcome = %v with %d failures", out.Kind, len(out.Failed))
			}
			if rc.GlobalAlpha() != 1 || rc.GlobalCompositeOperation() != SourceOver {
				t.Errorf("state not restored: (%v, %v)", rc.GlobalAlpha(), rc.GlobalCompositeOperation())
			}
			saves, restores := 0, 0
			for _, l := range rc.log {
				switch l {
				case "save":
					saves++
				case "restore":
					restores++
				}
			}
			if saves != restores {
				t.Errorf("save/restore unbalanced: %d/%d", saves, restores)
			}
		})
	}
}

func TestCompositeDeterministic(t *testing.T) {
	list := []DrawEntry{entry("a", "red", 0), entry("b", "green", 1), entry("c", "blue", 2)}
	list[1].Layer.Opacity = Opacity(0.4)
	list[2].Layer.BlendMode = Screen

	render := func(prefetch bool) []byte {
		c := NewCanvas(4, 4)
		NewCompositor(testLoader(), WithPrefetch(prefetch)).Composite(context.Background(), list, c, small)
		return c.Image().Pix
	}
	first := render(true)
	for range 5 {
		if !bytes.Equal(first, render(true)) {
			t.Fatal("repeated composites differ")
		}
	}
	if !bytes.Equal(first, render(false)) {
		t.Error("prefetch changes the result")
	}
}

// gateLoader blocks loads of gated locators until released.
type gateLoader struct {
	inner   Loader
	gated   map[string]chan struct{}
	started chan string
}

func (g *gateLoader) Load(ctx context.Context, locator string) (image.Image, error) {
	if ch, ok := g.gated[locator]; ok {
		g.started <- locator
		select {
		case <-ch:
		case <-ctx.Done():
			// Simulate a loader that ignores cancellation until released.
			<-ch
		}
	}
	return g.inner.Load(ctx, locator)
}

func TestCompositeSuperseded(t *testing.T) {
	release := make(chan struct{})
	g := &gateLoader{
		inner:   testLoader(),
		gated:   map[string]chan struct{}{"slow-red": release},
		started: make(chan string, 4),
	}
	g.inner.(*mapLoader).images["slow-red"] = red

	comp := NewCompositor(g, WithPrefetch(false))
	canvas := NewCanvas(4, 4)

	first := make(chan Outcome, 1)
	go func() {
		first <- comp.Composite(context.Background(),
			[]DrawEntry{entry("bg", "green", 0), entry("slow", "slow-red", 1)}, canvas, small)
	}()

	select {
	case <-g.started:
	case <-time.After(5 * time.Second):
		t.Fatal("first composite never reached the slow layer")
	}

	second := comp.Composite(context.Background(), []DrawEntry{entry("only", "blue", 0)}, canvas, small)
	if second.Kind != Success || second.Generation != 2 {
		t.Fatalf("second = (%v, gen %d), want (success, 2)", second.Kind, second.Generation)
	}
	want := canvas.Image().Pix

	close(release)
	out := <-first
	if out.Kind != Superseded || !errors.Is(out.Err, ErrSuperseded) {
		t.Errorf("first = (%v, %v), want superseded", out.Kind, out.Err)
	}
	if !bytes.Equal(canvas.Image().Pix, want) {
		t.Error("superseded composite mutated the surface")
	}
	if got := pixelAt(canvas, 1, 1); got != (color.RGBA{0, 0, 255, 255}) {
		t.Errorf("pixel = %v, want second generation blue", got)
	}
	if comp.Generation() != 2 {
		t.Errorf("Generation() = %d, want 2", comp.Generation())
	}
}

func TestCompositeCancelsSupersededLoads(t *testing.T) {
	canceled := make(chan struct{})
	loader := LoaderFunc(func(ctx context.Context, locator string) (image.Image, error) {
		if locator == "hang" {
			<-ctx.Done()
			close(canceled)
			return nil, ctx.Err()
		}
		return red, nil
	})
	comp := NewCompositor(loader)
	done := make(chan Outcome, 1)
	go func() {
		done <- comp.Composite(context.Background(), []DrawEntry{entry("h", "hang", 0)}, NewCanvas(4, 4), small)
	}()

	// Wait for the first generation to start.
	for comp.Generation() == 0 {
		time.Sleep(time.Millisecond)
	}
	comp.Composite(context.Background(), nil, NewCanvas(4, 4), small)

	select {
	case <-canceled:
	case <-time.After(5 * time.Second):
		t.Fatal("load of superseded generation was not canceled")
	}
	if out := <-done; out.Kind != Superseded {
		t.Errorf("Kind = %v, want superseded", out.Kind)
	}
}

func TestCompositeCallerCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	loader := LoaderFunc(func(ctx context.Context, _ string) (image.Image, error) {
		cancel()
		<-ctx.Done()
		return nil, ctx.Err()
	})
	out := NewCompositor(loader).Composite(ctx, []DrawEntry{entry("a", "x", 0)}, NewCanvas(4, 4), small)
	if out.Kind != Failure || !errors.Is(out.Err, context.Canceled) {
		t.Errorf("outcome = (%v, %v), want (failure, context.Canceled)", out.Kind, out.Err)
	}
}

func TestCompositeLoaderReturningNil(t *testing.T) {
	loader := LoaderFunc(func(context.Context, string) (image.Image, error) { return nil, nil })
	out := NewCompositor(loader).Composite(context.Background(), []DrawEntry{entry("a", "x", 0)}, NewCanvas(4, 4), small)
	if out.Kind != Failure {
		t.Errorf("Kind = %v, want failure", out.Kind)
	}
}

func TestCompositePrefetchLoadsAhead(t *testing.T) {
	release := make(chan struct{})
	started := make(chan string, 4)
	loader := LoaderFunc(func(ctx context.Context, locator string) (image.Image, error) {
		started <- locator
		if locator == "first" {
			<-release
		}
		return red, nil
	})
	rc := &recordingContext{Canvas: NewCanvas(4, 4)}
	done := make(chan Outcome, 1)
	go func() {
		done <- NewCompositor(loader).Composite(context.Background(),
			[]DrawEntry{entry("a", "first", 0), entry("b", "second", 1), entry("c", "third", 2)}, rc, small)
	}()
	if got := <-started; got != "first" {
		t.Fatalf("first load = %q", got)
	}
	close(release)
	if got := <-started; got != "second" {
		t.Errorf("second load = %q, want second", got)
	}
	if out := <-done; out.Kind != Success || !slices.Equal(out.Drawn, []string{"a", "b", "c"}) {
		t.Errorf("outcome = (%v, %v)", out.Kind, out.Drawn)
	}
}

func TestOutcomeKindString(t *testing.T) {
	for k, want := range map[OutcomeKind]string{Success: "success", PartialSuccess: "partial", Failure: "failure", Superseded: "superseded", 9: "OutcomeKind(9)"} {
		if got := k.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", int(k), got, want)
		}
	}
}
