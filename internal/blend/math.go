package blend

// mulDiv255 returns round(a*b/255) without a division.
func mulDiv255(a, b byte) byte {
	t := uint32(a)*uint32(b) + 128
	return byte((t + t>>8) >> 8)
}

// addClamp adds two bytes, saturating at 255.
func addClamp(a, b byte) byte {
	sum := uint16(a) + uint16(b)
	if sum > 255 {
		return 255
	}
	return byte(sum)
}

// unpremul converts a premultiplied channel back to straight color.
func unpremul(c, a byte) byte {
	if a == 0 {
		return 0
	}
	v := (uint32(c)*255 + uint32(a)/2) / uint32(a)
	if v > 255 {
		return 255
	}
	return byte(v)
}

// ScaleAlpha multiplies a premultiplied pixel by a coverage value in [0, 255].
func ScaleAlpha(r, g, b, a, k byte) (byte, byte, byte, byte) {
	if k == 255 {
		return r, g, b, a
	}
	return mulDiv255(r, k), mulDiv255(g, k), mulDiv255(b, k), mulDiv255(a, k)
}
