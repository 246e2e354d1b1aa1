package image

import (
	"image"

	xdraw "golang.org/x/image/draw"
)

// Resample returns src scaled to exactly width×height as premultiplied RGBA.
// Sources that already match the size are converted without filtering.
func Resample(src image.Image, width, height int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	if width <= 0 || height <= 0 {
		return dst
	}

	sb := src.Bounds()
	if sb.Dx() == width && sb.Dy() == height {
		xdraw.Draw(dst, dst.Bounds(), src, sb.Min, xdraw.Src)
		return dst
	}
	xdraw.BiLinear.Scale(dst, dst.Bounds(), src, sb, xdraw.Src, nil)
	return dst
}
