// Package nftpreview composites layered trait images into a single preview.
//
// # Overview
//
// A collection is described by layers (background, body, hat, ...), each with
// a set of selectable assets. Given the layers, their order and the asset
// selected for each one, nftpreview resolves the visible layers, loads the
// selected images and draws them bottom to top onto a canvas, honoring each
// layer's z-index, opacity and blend mode.
//
// # Quick Start
//
//	import "github.com/gogpu/nftpreview"
//
//	comp := nftpreview.NewCompositor(nftpreview.NewImageLoader(
//	    nftpreview.WithBaseDir("./assets"),
//	))
//	canvas := nftpreview.NewCanvas(500, 500)
//
//	out := comp.Composite(ctx, snap.DrawList(), canvas, snap.Config)
//	if out.Kind == nftpreview.Failure {
//	    log.Println(out.Message())
//	}
//
// # Architecture
//
// The package is organized into:
//   - Resolver: Resolve turns layers, order and selection into a draw list
//   - Compositor: draws a draw list onto a Surface, one generation at a time
//   - Loader: ImageLoader fetches and decodes http(s), file, data: and path
//     locators
//   - Canvas: an in-memory Surface with canvas-style alpha and composite
//     operations
//   - Preview: keeps a Canvas in sync with a Source such as store.Store and
//     exposes loading and error status
//
// # Failures
//
// A layer whose image cannot be loaded or drawn is skipped; the others are
// still drawn. Outcome reports which layers were skipped. When every layer of
// a non-empty list fails the outcome is Failure with ErrAllLayersFailed.
//
// # Concurrency
//
// Starting a composite supersedes any composite still running on the same
// Compositor: its pending loads are canceled and it makes no further changes
// to the surface.
//
// # Coordinate System
//
// Origin (0,0) is at the top-left; every layer is drawn scaled to cover the
// full preview size.
package nftpreview
