package animation

import "math"

// Easing maps linear progress in [0, 1] to eased progress.
type Easing func(t float64) float64

// CSS timing functions.
var (
	Linear    Easing = func(t float64) float64 { return t }
	Ease             = CubicBezier(0.25, 0.1, 0.25, 1)
	EaseIn           = CubicBezier(0.42, 0, 1, 1)
	EaseOut          = CubicBezier(0, 0, 0.58, 1)
	EaseInOut        = CubicBezier(0.42, 0, 0.58, 1)
)

// ParseEasing returns the easing for a CSS timing keyword.
func ParseEasing(name string) (Easing, bool) {
	switch name {
	case "linear":
		return Linear, true
	case "ease", "":
		return Ease, true
	case "ease-in":
		return EaseIn, true
	case "ease-out":
		return EaseOut, true
	case "ease-in-out":
		return EaseInOut, true
	}
	return nil, false
}

// CubicBezier returns the CSS cubic-bezier(x1, y1, x2, y2) timing function.
// x1 and x2 are clamped to [0, 1].
func CubicBezier(x1, y1, x2, y2 float64) Easing {
	x1 = math.Max(0, math.Min(1, x1))
	x2 = math.Max(0, math.Min(1, x2))

	// Polynomial coefficients of B(s) = ((a*s + b)*s + c)*s.
	cx := 3 * x1
	bx := 3*(x2-x1) - cx
	ax := 1 - cx - bx
	cy := 3 * y1
	by := 3*(y2-y1) - cy
	ay := 1 - cy - by

	sampleX := func(s float64) float64 { return ((ax*s+bx)*s + cx) * s }
	sampleY := func(s float64) float64 { return ((ay*s+by)*s + cy) * s }
	slopeX := func(s float64) float64 { return (3*ax*s+2*bx)*s + cx }

	const eps = 1e-7
	solve := func(x float64) float64 {
		s := x
		for range 8 {
			dx := sampleX(s) - x
			if math.Abs(dx) < eps {
				return s
			}
			d := slopeX(s)
			if math.Abs(d) < 1e-6 {
				break
			}
			s -= dx / d
		}

		lo, hi := 0.0, 1.0
		s = x
		for lo < hi {
			v := sampleX(s)
			if math.Abs(v-x) < eps {
				return s
			}
			if x > v {
				lo = s
			} else {
				hi = s
			}
			s = (lo + hi) / 2
			if hi-lo < eps {
				break
			}
		}
		return s
	}

	return func(t float64) float64 {
		switch {
		case t <= 0:
			return 0
		case t >= 1:
			return 1
		}
		return sampleY(solve(t))
	}
}
