package nftpreview

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

// RGBA is a straight (non-premultiplied) color with components in [0, 1].
type RGBA struct {
	R, G, B, A float64
}

// Common colors.
var (
	Black       = RGB(0, 0, 0)
	White       = RGB(1, 1, 1)
	Transparent = RGBA{}
)

// RGB creates an opaque color.
func RGB(r, g, b float64) RGBA {
	return RGBA{R: r, G: g, B: b, A: 1}
}

// FromColor converts a standard color.Color.
func FromColor(c color.Color) RGBA {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return RGBA{
		R: float64(n.R) / 255,
		G: float64(n.G) / 255,
		B: float64(n.B) / 255,
		A: float64(n.A) / 255,
	}
}

// Color converts c to a color.NRGBA.
func (c RGBA) Color() color.Color {
	return color.NRGBA{R: unitByte(c.R), G: unitByte(c.G), B: unitByte(c.B), A: unitByte(c.A)}
}

// premultiplied returns c as premultiplied 8-bit channels.
func (c RGBA) premultiplied() (r, g, b, a byte) {
	a = unitByte(c.A)
	return unitByte(c.R * c.A), unitByte(c.G * c.A), unitByte(c.B * c.A), a
}

func unitByte(v float64) byte {
	if v <= 0 || math.IsNaN(v) {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return byte(math.Round(v * 255))
}

// ParseColor parses a CSS color: #rgb, #rgba, #rrggbb, #rrggbbaa,
// rgb()/rgba(), hsl()/hsla(), "transparent" or an SVG color keyword.
func ParseColor(s string) (RGBA, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case s == "":
		return RGBA{}, fmt.Errorf("nftpreview: empty color")
	case s == "transparent":
		return Transparent, nil
	case strings.HasPrefix(s, "#"):
		return parseHex(s[1:])
	case strings.HasPrefix(s, "rgb"):
		return parseFunc(s, "rgb", parseRGBArgs)
	case strings.HasPrefix(s, "hsl"):
		return parseFunc(s, "hsl", parseHSLArgs)
	}
	if c, ok := colornames.Map[s]; ok {
		return FromColor(c), nil
	}
	return RGBA{}, fmt.Errorf("nftpreview: unknown color %q", s)
}

func parseHex(hex string) (RGBA, error) {
	var digits [8]uint32
	for i := 0; i < len(hex); i++ {
		v, err := strconv.ParseUint(hex[i:i+1], 16, 8)
		if err != nil || i >= len(digits) {
			return RGBA{}, fmt.Errorf("nftpreview: invalid hex color %q", "#"+hex)
		}
		digits[i] = uint32(v)
	}

	var r, g, b, a uint32 = 0, 0, 0, 255
	switch len(hex) {
	case 3, 4:
		r, g, b = digits[0]*17, digits[1]*17, digits[2]*17
		if len(hex) == 4 {
			a = digits[3] * 17
		}
	case 6, 8:
		r, g, b = digits[0]<<4|digits[1], digits[2]<<4|digits[3], digits[4]<<4|digits[5]
		if len(hex) == 8 {
			a = digits[6]<<4 | digits[7]
		}
	default:
		return RGBA{}, fmt.Errorf("nftpreview: invalid hex color %q", "#"+hex)
	}
	return RGBA{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255, A: float64(a) / 255}, nil
}

// parseFunc handles name(a, b, c) and name(a, b, c, alpha) with either comma
// or whitespace separators and an optional "/ alpha".
func parseFunc(s, name string, conv func(args []string) (RGBA, error)) (RGBA, error) {
	body := strings.TrimPrefix(strings.TrimPrefix(s, name), "a")
	if !strings.HasPrefix(body, "(") || !strings.HasSuffix(body, ")") {
		return RGBA{}, fmt.Errorf("nftpreview: malformed color %q", s)
	}
	body = strings.NewReplacer(",", " ", "/", " ").Replace(body[1 : len(body)-1])
	args := strings.Fields(body)
	if len(args) != 3 && len(args) != 4 {
		return RGBA{}, fmt.Errorf("nftpreview: malformed color %q", s)
	}
	c, err := conv(args)
	if err != nil {
		return RGBA{}, fmt.Errorf("nftpreview: color %q: %w", s, err)
	}
	return c, nil
}

func parseRGBArgs(args []string) (RGBA, error) {
	var ch [3]float64
	for i := range 3 {
		v, err := parseComponent(args[i], 255)
		if err != nil {
			return RGBA{}, err
		}
		ch[i] = v
	}
	a, err := parseAlpha(args)
	if err != nil {
		return RGBA{}, err
	}
	return RGBA{R: ch[0], G: ch[1], B: ch[2], A: a}, nil
}

func parseHSLArgs(args []string) (RGBA, error) {
	h, err := parseFinite(strings.TrimSuffix(args[0], "deg"))
	if err != nil {
		return RGBA{}, err
	}
	s, err := parseComponent(args[1], 1)
	if err != nil {
		return RGBA{}, err
	}
	l, err := parseComponent(args[2], 1)
	if err != nil {
		return RGBA{}, err
	}
	a, err := parseAlpha(args)
	if err != nil {
		return RGBA{}, err
	}
	c := HSL(h, s, l)
	c.A = a
	return c, nil
}

// parseComponent parses "n" (scaled by 1/scale) or "n%", clamped to [0, 1].
func parseComponent(s string, scale float64) (float64, error) {
	var v float64
	var err error
	if pct, ok := strings.CutSuffix(s, "%"); ok {
		v, err = parseFinite(pct)
		v /= 100
	} else {
		v, err = parseFinite(s)
		v /= scale
	}
	if err != nil {
		return 0, err
	}
	return math.Max(0, math.Min(1, v)), nil
}

// parseFinite parses a float, rejecting NaN and infinities.
func parseFinite(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite value %q", s)
	}
	return v, nil
}

func parseAlpha(args []string) (float64, error) {
	if len(args) < 4 {
		return 1, nil
	}
	return parseComponent(args[3], 1)
}

// HSL creates an opaque color from hue in degrees and saturation and
// lightness in [0, 1].
func HSL(h, s, l float64) RGBA {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	h /= 360

	c := (1 - math.Abs(2*l-1)) * s
	x := c * (1 - math.Abs(math.Mod(h*6, 2)-1))
	m := l - c/2

	var r, g, b float64
	switch {
	case h < 1.0/6:
		r, g, b = c, x, 0
	case h < 2.0/6:
		r, g, b = x, c, 0
	case h < 3.0/6:
		r, g, b = 0, c, x
	case h < 4.0/6:
		r, g, b = 0, x, c
	case h < 5.0/6:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	return RGB(r+m, g+m, b+m)
}
