package blend

// Non-separable modes operate on the whole RGB triplet. Inputs to the helpers
// below are straight colors in [0, 1].

// lum returns BT.601 luminance.
func lum(r, g, b float64) float64 {
	return 0.30*r + 0.59*g + 0.11*b
}

func sat(r, g, b float64) float64 {
	return max(r, g, b) - min(r, g, b)
}

// clipColor pulls out-of-gamut components toward the luminance.
func clipColor(r, g, b float64) (float64, float64, float64) {
	l := lum(r, g, b)
	n := min(r, g, b)
	x := max(r, g, b)

	if n < 0 {
		r = l + (r-l)*l/(l-n)
		g = l + (g-l)*l/(l-n)
		b = l + (b-l)*l/(l-n)
	}
	if x > 1 {
		r = l + (r-l)*(1-l)/(x-l)
		g = l + (g-l)*(1-l)/(x-l)
		b = l + (b-l)*(1-l)/(x-l)
	}
	return r, g, b
}

func setLum(r, g, b, l float64) (float64, float64, float64) {
	d := l - lum(r, g, b)
	return clipColor(r+d, g+d, b+d)
}

func setSat(r, g, b, s float64) (float64, float64, float64) {
	c := [3]float64{r, g, b}

	// Order the channel indices as lo <= mid <= hi.
	lo, mid, hi := 0, 1, 2
	if c[lo] > c[mid] {
		lo, mid = mid, lo
	}
	if c[mid] > c[hi] {
		mid, hi = hi, mid
	}
	if c[lo] > c[mid] {
		lo, mid = mid, lo
	}

	if c[hi] > c[lo] {
		c[mid] = (c[mid] - c[lo]) * s / (c[hi] - c[lo])
		c[hi] = s
	} else {
		c[mid], c[hi] = 0, 0
	}
	c[lo] = 0
	return c[0], c[1], c[2]
}

func hue(sr, sg, sb, sa, dr, dg, db, da byte) (byte, byte, byte, byte) {
	return nonSeparable(sr, sg, sb, sa, dr, dg, db, da, func(sr, sg, sb, dr, dg, db float64) (float64, float64, float64) {
		r, g, b := setSat(sr, sg, sb, sat(dr, dg, db))
		return setLum(r, g, b, lum(dr, dg, db))
	})
}

func saturation(sr, sg, sb, sa, dr, dg, db, da byte) (byte, byte, byte, byte) {
	return nonSeparable(sr, sg, sb, sa, dr, dg, db, da, func(sr, sg, sb, dr, dg, db float64) (float64, float64, float64) {
		r, g, b := setSat(dr, dg, db, sat(sr, sg, sb))
		return setLum(r, g, b, lum(dr, dg, db))
	})
}

func colorMode(sr, sg, sb, sa, dr, dg, db, da byte) (byte, byte, byte, byte) {
	return nonSeparable(sr, sg, sb, sa, dr, dg, db, da, func(sr, sg, sb, dr, dg, db float64) (float64, float64, float64) {
		return setLum(sr, sg, sb, lum(dr, dg, db))
	})
}

func luminosity(sr, sg, sb, sa, dr, dg, db, da byte) (byte, byte, byte, byte) {
	return nonSeparable(sr, sg, sb, sa, dr, dg, db, da, func(sr, sg, sb, dr, dg, db float64) (float64, float64, float64) {
		return setLum(dr, dg, db, lum(sr, sg, sb))
	})
}

// nonSeparable composites B(Cs, Cb) with the same coverage formula as
// separable.
func nonSeparable(
	sr, sg, sb, sa, dr, dg, db, da byte,
	fn func(sr, sg, sb, dr, dg, db float64) (float64, float64, float64),
) (byte, byte, byte, byte) {
	if sa == 0 {
		return dr, dg, db, da
	}
	if da == 0 {
		return sr, sg, sb, sa
	}

	straight := func(c, a byte) float64 { return float64(unpremul(c, a)) / 255 }
	br, bg, bb := fn(
		straight(sr, sa), straight(sg, sa), straight(sb, sa),
		straight(dr, da), straight(dg, da), straight(db, da),
	)

	invSa := 255 - sa
	invDa := 255 - da
	both := mulDiv255(sa, da)
	channel := func(s, d byte, mixed float64) byte {
		return addClamp(addClamp(mulDiv255(d, invSa), mulDiv255(s, invDa)), mulDiv255(both, unitToByte(mixed)))
	}

	return channel(sr, dr, br), channel(sg, dg, bg), channel(sb, db, bb), addClamp(sa, mulDiv255(da, invSa))
}
