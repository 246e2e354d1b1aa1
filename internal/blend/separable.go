package blend

import "math"

// separable applies a per-channel blend function B(s, d) that works on straight
// (unpremultiplied) channels and composites the result with source-over
// coverage:
//
//	result = (1 - Sa)*D + (1 - Da)*S + Sa*Da*B(s, d)
func separable(sr, sg, sb, sa, dr, dg, db, da byte, fn func(s, d byte) byte) (byte, byte, byte, byte) {
	if sa == 0 {
		return dr, dg, db, da
	}
	if da == 0 {
		return sr, sg, sb, sa
	}

	invSa := 255 - sa
	invDa := 255 - da
	both := mulDiv255(sa, da)

	channel := func(s, d byte) byte {
		mixed := fn(unpremul(s, sa), unpremul(d, da))
		return addClamp(addClamp(mulDiv255(d, invSa), mulDiv255(s, invDa)), mulDiv255(both, mixed))
	}

	return channel(sr, dr), channel(sg, dg), channel(sb, db), addClamp(sa, mulDiv255(da, invSa))
}

func multiply(sr, sg, sb, sa, dr, dg, db, da byte) (byte, byte, byte, byte) {
	return separable(sr, sg, sb, sa, dr, dg, db, da, mulDiv255)
}

func screen(sr, sg, sb, sa, dr, dg, db, da byte) (byte, byte, byte, byte) {
	return separable(sr, sg, sb, sa, dr, dg, db, da, screenChannel)
}

// overlay is hard-light with source and backdrop swapped.
func overlay(sr, sg, sb, sa, dr, dg, db, da byte) (byte, byte, byte, byte) {
	return separable(sr, sg, sb, sa, dr, dg, db, da, func(s, d byte) byte {
		return hardLightChannel(d, s)
	})
}

func darken(sr, sg, sb, sa, dr, dg, db, da byte) (byte, byte, byte, byte) {
	return separable(sr, sg, sb, sa, dr, dg, db, da, func(s, d byte) byte { return min(s, d) })
}

func lighten(sr, sg, sb, sa, dr, dg, db, da byte) (byte, byte, byte, byte) {
	return separable(sr, sg, sb, sa, dr, dg, db, da, func(s, d byte) byte { return max(s, d) })
}

func colorDodge(sr, sg, sb, sa, dr, dg, db, da byte) (byte, byte, byte, byte) {
	return separable(sr, sg, sb, sa, dr, dg, db, da, func(s, d byte) byte {
		if d == 0 {
			return 0
		}
		if s == 255 {
			return 255
		}
		v := uint32(d) * 255 / uint32(255-s)
		if v > 255 {
			return 255
		}
		return byte(v)
	})
}

func colorBurn(sr, sg, sb, sa, dr, dg, db, da byte) (byte, byte, byte, byte) {
	return separable(sr, sg, sb, sa, dr, dg, db, da, func(s, d byte) byte {
		if d == 255 {
			return 255
		}
		if s == 0 {
			return 0
		}
		v := uint32(255-d) * 255 / uint32(s)
		if v > 255 {
			return 0
		}
		return 255 - byte(v)
	})
}

func hardLight(sr, sg, sb, sa, dr, dg, db, da byte) (byte, byte, byte, byte) {
	return separable(sr, sg, sb, sa, dr, dg, db, da, hardLightChannel)
}

func softLight(sr, sg, sb, sa, dr, dg, db, da byte) (byte, byte, byte, byte) {
	return separable(sr, sg, sb, sa, dr, dg, db, da, func(s, d byte) byte {
		cs := float64(s) / 255
		cb := float64(d) / 255

		var v float64
		if cs <= 0.5 {
			v = cb - (1-2*cs)*cb*(1-cb)
		} else {
			var dx float64
			if cb <= 0.25 {
				dx = ((16*cb-12)*cb + 4) * cb
			} else {
				dx = math.Sqrt(cb)
			}
			v = cb + (2*cs-1)*(dx-cb)
		}
		return unitToByte(v)
	})
}

func difference(sr, sg, sb, sa, dr, dg, db, da byte) (byte, byte, byte, byte) {
	return separable(sr, sg, sb, sa, dr, dg, db, da, func(s, d byte) byte {
		if s > d {
			return s - d
		}
		return d - s
	})
}

func exclusion(sr, sg, sb, sa, dr, dg, db, da byte) (byte, byte, byte, byte) {
	return separable(sr, sg, sb, sa, dr, dg, db, da, func(s, d byte) byte {
		v := int(s) + int(d) - 2*int(mulDiv255(s, d))
		if v < 0 {
			return 0
		}
		if v > 255 {
			return 255
		}
		return byte(v)
	})
}

// screenChannel computes 1 - (1-s)*(1-d).
func screenChannel(s, d byte) byte {
	return 255 - mulDiv255(255-s, 255-d)
}

// hardLightChannel multiplies when the source is dark and screens when it is
// light.
func hardLightChannel(s, d byte) byte {
	if s <= 127 {
		return mulDiv255(byte(min(uint16(s)*2, 255)), d)
	}
	return screenChannel(byte(uint16(s)*2-255), d)
}

func unitToByte(v float64) byte {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return byte(math.Round(v * 255))
}
