package nftpreview

import (
	"maps"
	"math"
)

// Default preview dimensions used when a config leaves them unset.
const (
	DefaultWidth  = 500
	DefaultHeight = 500
)

// Asset is one concrete image a layer can display.
type Asset struct {
	ID  string `mapstructure:"id" json:"id" yaml:"id"`
	URL string `mapstructure:"url" json:"url" yaml:"url"`
}

// Layer is a named, orderable, visibility-toggleable trait layer.
type Layer struct {
	ID      string `mapstructure:"id" json:"id" yaml:"id"`
	Name    string `mapstructure:"name" json:"name" yaml:"name"`
	Visible bool   `mapstructure:"visible" json:"visible" yaml:"visible"`
	ZIndex  int    `mapstructure:"zIndex" json:"zIndex" yaml:"zIndex"`

	// Opacity is nil when the layer does not set one; it then draws fully
	// opaque.
	Opacity *float64 `mapstructure:"opacity" json:"opacity,omitempty" yaml:"opacity,omitempty"`

	// BlendMode is empty when the layer does not set one; it then draws with
	// source-over.
	BlendMode CompositeOp `mapstructure:"blendMode" json:"blendMode,omitempty" yaml:"blendMode,omitempty"`

	Assets []Asset `mapstructure:"assets" json:"assets,omitempty" yaml:"assets,omitempty"`
}

// Asset returns the asset with the given id.
func (l Layer) Asset(id string) (Asset, bool) {
	for _, a := range l.Assets {
		if a.ID == id {
			return a, true
		}
	}
	return Asset{}, false
}

// EffectiveOpacity returns the opacity the layer draws with, clamped to
// [0, 1]. A nil or NaN opacity draws fully opaque.
func (l Layer) EffectiveOpacity() float64 {
	if l.Opacity == nil || math.IsNaN(*l.Opacity) {
		return 1
	}
	return min(max(*l.Opacity, 0), 1)
}

// EffectiveBlendMode returns the composite operation the layer draws with.
func (l Layer) EffectiveBlendMode() CompositeOp {
	if l.BlendMode == "" {
		return SourceOver
	}
	return l.BlendMode
}

// Clone returns a deep copy of l.
func (l Layer) Clone() Layer {
	if l.Opacity != nil {
		v := *l.Opacity
		l.Opacity = &v
	}
	if l.Assets != nil {
		l.Assets = append([]Asset(nil), l.Assets...)
	}
	return l
}

// Opacity returns a pointer to v, for literal Layer definitions.
func Opacity(v float64) *float64 {
	return &v
}

// Selection maps a layer id to the id of its chosen asset. Entries may refer
// to layers or assets that no longer exist.
type Selection map[string]string

// PreviewConfig describes the target surface.
type PreviewConfig struct {
	Width  int `mapstructure:"width" json:"width" yaml:"width"`
	Height int `mapstructure:"height" json:"height" yaml:"height"`

	// Background is a CSS color painted below every layer. Empty means none.
	Background string `mapstructure:"background" json:"background,omitempty" yaml:"background,omitempty"`
}

// Size returns the configured dimensions, falling back to the defaults for
// unset values.
func (c PreviewConfig) Size() (width, height int) {
	width, height = c.Width, c.Height
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	return width, height
}

// Snapshot is an immutable view of the layer state a composite works from.
type Snapshot struct {
	Layers    map[string]Layer
	Order     []string
	Selection Selection
	Config    PreviewConfig
}

// Clone returns a deep copy that shares no memory with s.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{Config: s.Config}
	if s.Layers != nil {
		out.Layers = make(map[string]Layer, len(s.Layers))
		for id, l := range s.Layers {
			out.Layers[id] = l.Clone()
		}
	}
	if s.Order != nil {
		out.Order = append([]string(nil), s.Order...)
	}
	if s.Selection != nil {
		out.Selection = maps.Clone(s.Selection)
	}
	return out
}

// DrawList resolves the snapshot into the ordered layers to draw.
func (s Snapshot) DrawList() []DrawEntry {
	return Resolve(s.Layers, s.Order, s.Selection)
}
