package nftpreview

import (
	"fmt"
	"strings"

	"github.com/gogpu/nftpreview/internal/blend"
)

// CompositeOp names a canvas globalCompositeOperation value.
type CompositeOp string

// Composite operations.
const (
	SourceOver      CompositeOp = "source-over"
	SourceIn        CompositeOp = "source-in"
	SourceOut       CompositeOp = "source-out"
	SourceAtop      CompositeOp = "source-atop"
	DestinationOver CompositeOp = "destination-over"
	DestinationIn   CompositeOp = "destination-in"
	DestinationOut  CompositeOp = "destination-out"
	DestinationAtop CompositeOp = "destination-atop"
	Lighter         CompositeOp = "lighter"
	Copy            CompositeOp = "copy"
	Xor             CompositeOp = "xor"
	Multiply        CompositeOp = "multiply"
	Screen          CompositeOp = "screen"
	Overlay         CompositeOp = "overlay"
	Darken          CompositeOp = "darken"
	Lighten         CompositeOp = "lighten"
	ColorDodge      CompositeOp = "color-dodge"
	ColorBurn       CompositeOp = "color-burn"
	HardLight       CompositeOp = "hard-light"
	SoftLight       CompositeOp = "soft-light"
	Difference      CompositeOp = "difference"
	Exclusion       CompositeOp = "exclusion"
	Hue             CompositeOp = "hue"
	Saturation      CompositeOp = "saturation"
	ColorOp         CompositeOp = "color"
	Luminosity      CompositeOp = "luminosity"

	// Normal is accepted as an alias of SourceOver.
	Normal CompositeOp = "normal"
)

var compositeModes = map[CompositeOp]blend.Mode{
	SourceOver:      blend.SourceOver,
	SourceIn:        blend.SourceIn,
	SourceOut:       blend.SourceOut,
	SourceAtop:      blend.SourceAtop,
	DestinationOver: blend.DestinationOver,
	DestinationIn:   blend.DestinationIn,
	DestinationOut:  blend.DestinationOut,
	DestinationAtop: blend.DestinationAtop,
	Lighter:         blend.Lighter,
	Copy:            blend.Copy,
	Xor:             blend.Xor,
	Multiply:        blend.Multiply,
	Screen:          blend.Screen,
	Overlay:         blend.Overlay,
	Darken:          blend.Darken,
	Lighten:         blend.Lighten,
	ColorDodge:      blend.ColorDodge,
	ColorBurn:       blend.ColorBurn,
	HardLight:       blend.HardLight,
	SoftLight:       blend.SoftLight,
	Difference:      blend.Difference,
	Exclusion:       blend.Exclusion,
	Hue:             blend.Hue,
	Saturation:      blend.Saturation,
	ColorOp:         blend.Color,
	Luminosity:      blend.Luminosity,
}

// ParseCompositeOp normalizes s and reports whether it names a supported
// operation. "normal" maps to SourceOver.
func ParseCompositeOp(s string) (CompositeOp, error) {
	op := CompositeOp(strings.ToLower(strings.TrimSpace(s)))
	if op == Normal {
		return SourceOver, nil
	}
	if _, ok := compositeModes[op]; !ok {
		return "", fmt.Errorf("nftpreview: unknown composite operation %q", s)
	}
	return op, nil
}

// Valid reports whether op is a supported operation (including Normal).
func (op CompositeOp) Valid() bool {
	_, err := ParseCompositeOp(string(op))
	return err == nil
}

func (op CompositeOp) mode() blend.Mode {
	parsed, err := ParseCompositeOp(string(op))
	if err != nil {
		return blend.SourceOver
	}
	return compositeModes[parsed]
}
