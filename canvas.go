// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package nftpreview

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"sync"

	"github.com/gogpu/nftpreview/internal/blend"
	intImage "github.com/gogpu/nftpreview/internal/image"
	"github.com/gogpu/nftpreview/internal/parallel"
)

// Surface hands out the drawing context a composite renders into.
type Surface interface {
	// Context returns the drawing context, or an error wrapping
	// ErrContextUnavailable when none can be obtained.
	Context() (DrawingContext, error)
}

// DrawingContext is the subset of a 2D canvas context the compositor uses.
type DrawingContext interface {
	Save()
	Restore()
	GlobalAlpha() float64
	SetGlobalAlpha(a float64)
	GlobalCompositeOperation() CompositeOp
	SetGlobalCompositeOperation(op CompositeOp)
	ClearRect(x, y, w, h int)
	FillRect(x, y, w, h int, c RGBA)
	DrawImage(img image.Image, x, y, w, h int) error
}

type drawState struct {
	alpha float64
	op    CompositeOp
}

var defaultState = drawState{alpha: 1, op: SourceOver}

// Canvas is an in-memory 2D surface backed by a premultiplied RGBA buffer.
// It implements Surface, DrawingContext and image.Image and is safe for
// concurrent use.
type Canvas struct {
	mu    sync.Mutex
	pix   *image.RGBA
	state drawState
	stack []drawState
}

var (
	_ Surface        = (*Canvas)(nil)
	_ DrawingContext = (*Canvas)(nil)
	_ image.Image    = (*Canvas)(nil)
)

// NewCanvas creates a transparent canvas of the given size. Negative
// dimensions are treated as zero.
func NewCanvas(width, height int) *Canvas {
	return &Canvas{
		pix:   image.NewRGBA(image.Rect(0, 0, max(width, 0), max(height, 0))),
		state: defaultState,
	}
}

// Context returns c itself. A nil or zero-sized canvas has no context.
func (c *Canvas) Context() (DrawingContext, error) {
	if c == nil {
		return nil, fmt.Errorf("%w: nil canvas", ErrContextUnavailable)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pix == nil || c.pix.Rect.Empty() {
		return nil, fmt.Errorf("%w: canvas has no pixels", ErrContextUnavailable)
	}
	return c, nil
}

// Resize changes the canvas dimensions. As with an HTML canvas, a size change
// discards the pixels and resets the drawing state. Resizing to the current
// size is a no-op.
func (c *Canvas) Resize(width, height int) {
	width, height = max(width, 0), max(height, 0)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pix != nil && c.pix.Rect.Dx() == width && c.pix.Rect.Dy() == height {
		return
	}
	c.pix = image.NewRGBA(image.Rect(0, 0, width, height))
	c.state = defaultState
	c.stack = nil
}

// Width returns the canvas width in pixels.
func (c *Canvas) Width() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pix.Rect.Dx()
}

// Height returns the canvas height in pixels.
func (c *Canvas) Height() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pix.Rect.Dy()
}

// Image returns a copy of the current pixels.
func (c *Canvas) Image() *image.RGBA {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := image.NewRGBA(c.pix.Rect)
	copy(out.Pix, c.pix.Pix)
	return out
}

// ColorModel implements image.Image.
func (c *Canvas) ColorModel() color.Model { return color.RGBAModel }

// Bounds implements image.Image.
func (c *Canvas) Bounds() image.Rectangle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pix.Rect
}

// At implements image.Image.
func (c *Canvas) At(x, y int) color.Color {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pix.RGBAAt(x, y)
}

// Save pushes the current alpha and composite operation.
func (c *Canvas) Save() {
	c.mu.Lock()
	c.stack = append(c.stack, c.state)
	c.mu.Unlock()
}

// Restore pops the state pushed by the matching Save. Restore without a
// matching Save does nothing.
func (c *Canvas) Restore() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n := len(c.stack); n > 0 {
		c.state = c.stack[n-1]
		c.stack = c.stack[:n-1]
	}
}

// GlobalAlpha returns the alpha applied to subsequent drawing.
func (c *Canvas) GlobalAlpha() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.alpha
}

// SetGlobalAlpha sets the alpha applied to subsequent drawing. Values outside
// [0, 1] are ignored.
func (c *Canvas) SetGlobalAlpha(a float64) {
	if math.IsNaN(a) || a < 0 || a > 1 {
		return
	}
	c.mu.Lock()
	c.state.alpha = a
	c.mu.Unlock()
}

// GlobalCompositeOperation returns the active composite operation.
func (c *Canvas) GlobalCompositeOperation() CompositeOp {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.op
}

// SetGlobalCompositeOperation sets the composite operation for subsequent
// drawing. Unknown operations are ignored.
func (c *Canvas) SetGlobalCompositeOperation(op CompositeOp) {
	parsed, err := ParseCompositeOp(string(op))
	if err != nil {
		return
	}
	c.mu.Lock()
	c.state.op = parsed
	c.mu.Unlock()
}

// ClearRect sets the pixels in the rectangle to transparent black.
func (c *Canvas) ClearRect(x, y, w, h int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r := image.Rect(x, y, x+w, y+h).Intersect(c.pix.Rect)
	for row := r.Min.Y; row < r.Max.Y; row++ {
		clear(c.pix.Pix[c.pix.PixOffset(r.Min.X, row):c.pix.PixOffset(r.Max.X, row)])
	}
}

// FillRect composites a solid color over the rectangle.
func (c *Canvas) FillRect(x, y, w, h int, fill RGBA) {
	cr, cg, cb, ca := fill.premultiplied()
	c.mu.Lock()
	defer c.mu.Unlock()
	mode, alpha := c.state.op.mode(), unitByte(c.state.alpha)
	r := image.Rect(x, y, x+w, y+h).Intersect(c.pix.Rect)
	parallel.Rows(r.Dy(), func(y0, y1 int) {
		for row := r.Min.Y + y0; row < r.Min.Y+y1; row++ {
			dst := c.pix.Pix[c.pix.PixOffset(r.Min.X, row):c.pix.PixOffset(r.Max.X, row)]
			blend.Solid(dst, cr, cg, cb, ca, mode, alpha)
		}
	})
}

// DrawImage scales img to exactly w×h and composites it at (x, y) using the
// current alpha and composite operation.
func (c *Canvas) DrawImage(img image.Image, x, y, w, h int) error {
	if img == nil {
		return fmt.Errorf("nftpreview: draw nil image")
	}
	if w <= 0 || h <= 0 {
		return nil
	}
	if img.Bounds().Empty() {
		return fmt.Errorf("nftpreview: draw empty image")
	}
	src := intImage.Resample(img, w, h)

	c.mu.Lock()
	defer c.mu.Unlock()
	mode, alpha := c.state.op.mode(), unitByte(c.state.alpha)
	r := image.Rect(x, y, x+w, y+h).Intersect(c.pix.Rect)
	parallel.Rows(r.Dy(), func(y0, y1 int) {
		for row := r.Min.Y + y0; row < r.Min.Y+y1; row++ {
			dst := c.pix.Pix[c.pix.PixOffset(r.Min.X, row):c.pix.PixOffset(r.Max.X, row)]
			s := src.Pix[src.PixOffset(r.Min.X-x, row-y):src.PixOffset(r.Max.X-x, row-y)]
			blend.Span(dst, s, mode, alpha)
		}
	})
	return nil
}
