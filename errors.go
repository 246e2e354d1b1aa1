package nftpreview

import "errors"

var (
	// ErrContextUnavailable is returned when a surface cannot provide a
	// drawing context. Nothing is drawn.
	ErrContextUnavailable = errors.New("nftpreview: drawing context unavailable")

	// ErrSuperseded marks a composite abandoned because a newer one started.
	ErrSuperseded = errors.New("nftpreview: composite superseded")

	// ErrAllLayersFailed is returned when every layer of a non-empty draw
	// list failed to load or draw.
	ErrAllLayersFailed = errors.New("nftpreview: all layers failed")
)

// LoadError reports an image that could not be loaded.
type LoadError struct {
	Locator string
	Err     error
}

func (e *LoadError) Error() string {
	return "failed to load image: " + e.Locator
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
