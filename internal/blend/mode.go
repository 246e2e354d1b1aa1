// Package blend implements the pixel combination rules behind the canvas
// globalCompositeOperation property.
//
// All functions work on premultiplied RGBA bytes. Porter-Duff operators follow
// "Compositing Digital Images" (1984); the separable and non-separable blend
// modes follow W3C Compositing and Blending Level 1:
// https://www.w3.org/TR/compositing-1/
package blend

// Mode selects a compositing operator or blend mode.
type Mode uint8

const (
	SourceOver      Mode = iota // S + D*(1-Sa) [default]
	SourceIn                    // S*Da
	SourceOut                   // S*(1-Da)
	SourceAtop                  // S*Da + D*(1-Sa)
	DestinationOver             // S*(1-Da) + D
	DestinationIn               // D*Sa
	DestinationOut              // D*(1-Sa)
	DestinationAtop             // S*(1-Da) + D*Sa
	Lighter                     // S + D, clamped
	Copy                        // S
	Xor                         // S*(1-Da) + D*(1-Sa)

	Multiply
	Screen
	Overlay
	Darken
	Lighten
	ColorDodge
	ColorBurn
	HardLight
	SoftLight
	Difference
	Exclusion

	Hue
	Saturation
	Color
	Luminosity

	modeCount
)

// Func combines one premultiplied source pixel with one premultiplied
// destination pixel.
type Func func(sr, sg, sb, sa, dr, dg, db, da byte) (r, g, b, a byte)

var funcs = [modeCount]Func{
	SourceOver:      sourceOver,
	SourceIn:        sourceIn,
	SourceOut:       sourceOut,
	SourceAtop:      sourceAtop,
	DestinationOver: destinationOver,
	DestinationIn:   destinationIn,
	DestinationOut:  destinationOut,
	DestinationAtop: destinationAtop,
	Lighter:         lighter,
	Copy:            copySource,
	Xor:             xor,

	Multiply:   multiply,
	Screen:     screen,
	Overlay:    overlay,
	Darken:     darken,
	Lighten:    lighten,
	ColorDodge: colorDodge,
	ColorBurn:  colorBurn,
	HardLight:  hardLight,
	SoftLight:  softLight,
	Difference: difference,
	Exclusion:  exclusion,

	Hue:        hue,
	Saturation: saturation,
	Color:      colorMode,
	Luminosity: luminosity,
}

// Valid reports whether m names a known mode.
func (m Mode) Valid() bool {
	return m < modeCount
}

// FuncFor returns the pixel function for m, falling back to SourceOver for
// unknown modes.
func FuncFor(m Mode) Func {
	if !m.Valid() {
		return sourceOver
	}
	return funcs[m]
}
