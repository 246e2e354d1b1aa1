package store

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/spf13/viper"

	"github.com/gogpu/nftpreview"
)

// Project file keys with defaults.
const (
	KeyWidth  = "preview.width"
	KeyHeight = "preview.height"
)

// ErrInvalidProject is returned for project files that parse but describe an
// unusable layer set.
var ErrInvalidProject = errors.New("store: invalid project")

// projectLayer is a layer entry in a project file. Selected names the asset
// chosen for the layer.
type projectLayer struct {
	nftpreview.Layer `mapstructure:",squash"`
	Selected         string `mapstructure:"selected"`
}

type projectFile struct {
	Preview nftpreview.PreviewConfig `mapstructure:"preview"`
	Layers  []projectLayer           `mapstructure:"layers"`
	Order   []string                 `mapstructure:"order"`
}

// LoadProject reads a project file (YAML, JSON or TOML, chosen by extension)
// into a snapshot:
//
//	preview:
//	  width: 500
//	  height: 500
//	  background: "#ffffff"
//	layers:
//	  - id: bg
//	    name: Background
//	    visible: true
//	    zIndex: 0
//	    selected: blue
//	    assets:
//	      - id: blue
//	        url: assets/bg/blue.png
//	  - id: hat
//	    visible: true
//	    zIndex: 1
//	    opacity: 0.8
//	    blendMode: multiply
//	    selected: cap
//	    assets:
//	      - id: cap
//	        url: https://example.com/hat/cap.png
//
// Without an explicit order the layers keep their file order.
func LoadProject(path string) (nftpreview.Snapshot, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetDefault(KeyWidth, nftpreview.DefaultWidth)
	v.SetDefault(KeyHeight, nftpreview.DefaultHeight)

	if err := v.ReadInConfig(); err != nil {
		return nftpreview.Snapshot{}, fmt.Errorf("store: read project %s: %w", path, err)
	}
	return decodeProject(v)
}

func decodeProject(v *viper.Viper) (nftpreview.Snapshot, error) {
	var pf projectFile
	if err := v.Unmarshal(&pf); err != nil {
		return nftpreview.Snapshot{}, fmt.Errorf("store: decode project: %w", err)
	}

	snap := nftpreview.Snapshot{
		Layers:    make(map[string]nftpreview.Layer, len(pf.Layers)),
		Selection: nftpreview.Selection{},
		Config:    pf.Preview,
	}
	if snap.Config.Width < 0 || snap.Config.Height < 0 {
		return nftpreview.Snapshot{}, fmt.Errorf("%w: negative preview size %dx%d", ErrInvalidProject, snap.Config.Width, snap.Config.Height)
	}
	if bg := snap.Config.Background; bg != "" {
		if _, err := nftpreview.ParseColor(bg); err != nil {
			return nftpreview.Snapshot{}, fmt.Errorf("%w: %w", ErrInvalidProject, err)
		}
	}

	for i, pl := range pf.Layers {
		l := pl.Layer
		l.ID = strings.TrimSpace(l.ID)
		if l.ID == "" {
			return nftpreview.Snapshot{}, fmt.Errorf("%w: layer %d has no id", ErrInvalidProject, i)
		}
		if _, dup := snap.Layers[l.ID]; dup {
			return nftpreview.Snapshot{}, fmt.Errorf("%w: duplicate layer id %q", ErrInvalidProject, l.ID)
		}
		if l.Opacity != nil && (math.IsNaN(*l.Opacity) || *l.Opacity < 0 || *l.Opacity > 1) {
			return nftpreview.Snapshot{}, fmt.Errorf("%w: layer %q opacity %v outside [0, 1]", ErrInvalidProject, l.ID, *l.Opacity)
		}
		if l.BlendMode != "" {
			op, err := nftpreview.ParseCompositeOp(string(l.BlendMode))
			if err != nil {
				return nftpreview.Snapshot{}, fmt.Errorf("%w: layer %q: %w", ErrInvalidProject, l.ID, err)
			}
			l.BlendMode = op
		}
		if l.Name == "" {
			l.Name = l.ID
		}

		snap.Layers[l.ID] = l
		if pl.Selected != "" {
			snap.Selection[l.ID] = pl.Selected
		}
		if len(pf.Order) == 0 {
			snap.Order = append(snap.Order, l.ID)
		}
	}
	if len(pf.Order) > 0 {
		snap.Order = pf.Order
	}
	return snap, nil
}
