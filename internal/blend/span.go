package blend

// Span composites src onto dst in place. Both slices hold premultiplied RGBA
// pixels; only the first min(len(dst), len(src)) bytes are touched. alpha
// scales source coverage the way globalAlpha does on a canvas.
func Span(dst, src []byte, mode Mode, alpha byte) {
	fn := FuncFor(mode)
	n := min(len(dst), len(src)) &^ 3
	for i := 0; i < n; i += 4 {
		sr, sg, sb, sa := ScaleAlpha(src[i], src[i+1], src[i+2], src[i+3], alpha)
		dst[i], dst[i+1], dst[i+2], dst[i+3] = fn(sr, sg, sb, sa, dst[i], dst[i+1], dst[i+2], dst[i+3])
	}
}

// Solid composites a single premultiplied color onto every pixel of dst.
func Solid(dst []byte, r, g, b, a byte, mode Mode, alpha byte) {
	fn := FuncFor(mode)
	sr, sg, sb, sa := ScaleAlpha(r, g, b, a, alpha)
	n := len(dst) &^ 3
	for i := 0; i < n; i += 4 {
		dst[i], dst[i+1], dst[i+2], dst[i+3] = fn(sr, sg, sb, sa, dst[i], dst[i+1], dst[i+2], dst[i+3])
	}
}
