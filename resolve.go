package nftpreview

import (
	"cmp"
	"slices"
)

// DrawEntry is a visible layer paired with its resolved asset.
type DrawEntry struct {
	Layer Layer
	Asset Asset
}

// Locator returns the address of the asset to draw.
func (e DrawEntry) Locator() string {
	return e.Asset.URL
}

// Resolve produces the draw list for a set of layers.
//
// order is projected through layers (unknown and repeated ids are skipped),
// hidden layers are dropped, and each remaining layer is paired with the
// asset selection names for it. Layers without a resolvable asset are
// dropped. The result is sorted by ascending ZIndex; equal z-indices keep
// their projected order.
func Resolve(layers map[string]Layer, order []string, selection Selection) []DrawEntry {
	entries := make([]DrawEntry, 0, len(order))
	seen := make(map[string]bool, len(order))

	for _, id := range order {
		if seen[id] {
			continue
		}
		seen[id] = true

		layer, ok := layers[id]
		if !ok || !layer.Visible {
			continue
		}
		assetID, ok := selection[id]
		if !ok {
			continue
		}
		asset, ok := layer.Asset(assetID)
		if !ok || asset.URL == "" {
			continue
		}
		entries = append(entries, DrawEntry{Layer: layer, Asset: asset})
	}

	slices.SortStableFunc(entries, func(a, b DrawEntry) int {
		return cmp.Compare(a.Layer.ZIndex, b.Layer.ZIndex)
	})
	return entries
}
