package nftpreview

import (
	"errors"
	"fmt"
	"strings"
)

// OutcomeKind classifies a finished composite.
type OutcomeKind int

const (
	// Success means every layer in the draw list was drawn. An empty list
	// is a success.
	Success OutcomeKind = iota

	// PartialSuccess means at least one layer was drawn and at least one
	// failed.
	PartialSuccess

	// Failure means nothing useful was drawn: the drawing context was
	// unavailable or every layer failed.
	Failure

	// Superseded means a newer composite started before this one finished.
	// The surface belongs to the newer composite and no status should be
	// reported for this one.
	Superseded
)

func (k OutcomeKind) String() string {
	switch k {
	case Success:
		return "success"
	case PartialSuccess:
		return "partial"
	case Failure:
		return "failure"
	case Superseded:
		return "superseded"
	default:
		return fmt.Sprintf("OutcomeKind(%d)", int(k))
	}
}

// LayerFailure records a layer that was skipped.
type LayerFailure struct {
	LayerID string
	Locator string
	Err     error
}

// Outcome is the result of one composite.
type Outcome struct {
	Kind       OutcomeKind
	Generation uint64

	// Drawn lists the ids of the layers drawn, in draw order.
	Drawn []string

	// Failed lists the layers skipped, in draw order.
	Failed []LayerFailure

	// Err is set for Failure and Superseded outcomes.
	Err error
}

// FailedIDs returns the ids of the failed layers in draw order.
func (o Outcome) FailedIDs() []string {
	ids := make([]string, len(o.Failed))
	for i, f := range o.Failed {
		ids[i] = f.LayerID
	}
	return ids
}

// Message returns a single human-readable description of the problem, or ""
// for a clean success.
func (o Outcome) Message() string {
	switch {
	case errors.Is(o.Err, ErrContextUnavailable):
		return "Canvas context not available"
	case o.Kind == Superseded:
		return ""
	case len(o.Failed) == 1:
		return o.Failed[0].Err.Error()
	case len(o.Failed) > 1:
		locs := make([]string, len(o.Failed))
		for i, f := range o.Failed {
			locs[i] = f.Locator
		}
		return "failed to load images: " + strings.Join(locs, ", ")
	case o.Err != nil:
		return o.Err.Error()
	}
	return ""
}
