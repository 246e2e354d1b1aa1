// Package store holds the editable layer state of a preview and notifies
// subscribers after every change.
package store

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/gogpu/nftpreview"
)

// ErrUnknownLayer is returned when a mutation names a layer that does not
// exist.
var ErrUnknownLayer = errors.New("store: unknown layer")

var _ nftpreview.Source = (*Store)(nil)

// Store is a mutable container of layers, their order, the selected asset per
// layer and the preview config. It is safe for concurrent use.
//
// Selections are not cleaned up when layers or assets go away; resolving a
// draw list ignores stale entries.
type Store struct {
	// notifyMu orders notifications the same way as the mutations.
	notifyMu sync.Mutex

	mu     sync.Mutex
	state  nftpreview.Snapshot
	subs   map[int]func(nftpreview.Snapshot)
	nextID int
}

// New creates an empty store with the default preview config.
func New() *Store {
	return &Store{
		state: nftpreview.Snapshot{
			Layers:    map[string]nftpreview.Layer{},
			Selection: nftpreview.Selection{},
			Config:    nftpreview.PreviewConfig{Width: nftpreview.DefaultWidth, Height: nftpreview.DefaultHeight},
		},
		subs: map[int]func(nftpreview.Snapshot){},
	}
}

// NewFrom creates a store holding a copy of snap.
func NewFrom(snap nftpreview.Snapshot) *Store {
	s := New()
	s.state = normalize(snap)
	return s
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() nftpreview.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Subscribe registers fn to be called with a fresh snapshot after every
// mutation. Calls are made outside the store lock, in mutation order; fn must
// not mutate the store itself.
func (s *Store) Subscribe(fn func(nftpreview.Snapshot)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// AddLayer adds l on top of the order. Adding an existing id replaces the
// layer in place.
func (s *Store) AddLayer(l nftpreview.Layer) {
	s.mutate(func(st *nftpreview.Snapshot) error {
		if _, ok := st.Layers[l.ID]; !ok {
			st.Order = append(st.Order, l.ID)
		}
		st.Layers[l.ID] = l.Clone()
		return nil
	})
}

// UpdateLayer applies fn to the layer with the given id. The id itself cannot
// be changed.
func (s *Store) UpdateLayer(id string, fn func(*nftpreview.Layer)) error {
	return s.mutate(func(st *nftpreview.Snapshot) error {
		l, ok := st.Layers[id]
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownLayer, id)
		}
		l = l.Clone()
		fn(&l)
		l.ID = id
		st.Layers[id] = l
		return nil
	})
}

// RemoveLayer deletes a layer and drops it from the order. Removing an
// unknown id does nothing.
func (s *Store) RemoveLayer(id string) {
	s.mutate(func(st *nftpreview.Snapshot) error {
		if _, ok := st.Layers[id]; !ok {
			return errNoChange
		}
		delete(st.Layers, id)
		st.Order = slices.DeleteFunc(st.Order, func(o string) bool { return o == id })
		return nil
	})
}

// SetSelectedTrait selects assetID for layerID. Neither has to exist.
func (s *Store) SetSelectedTrait(layerID, assetID string) {
	s.mutate(func(st *nftpreview.Snapshot) error {
		st.Selection[layerID] = assetID
		return nil
	})
}

// SetLayerOrder replaces the layer order. Unknown ids are kept and skipped
// when resolving.
func (s *Store) SetLayerOrder(order []string) {
	s.mutate(func(st *nftpreview.Snapshot) error {
		st.Order = slices.Clone(order)
		return nil
	})
}

// SetPreviewConfig replaces the preview config.
func (s *Store) SetPreviewConfig(cfg nftpreview.PreviewConfig) {
	s.mutate(func(st *nftpreview.Snapshot) error {
		st.Config = cfg
		return nil
	})
}

// Replace swaps in a copy of snap as the whole state.
func (s *Store) Replace(snap nftpreview.Snapshot) {
	s.mutate(func(st *nftpreview.Snapshot) error {
		*st = normalize(snap)
		return nil
	})
}

var errNoChange = errors.New("no change")

// mutate applies fn to the state and notifies subscribers if it succeeded.
func (s *Store) mutate(fn func(*nftpreview.Snapshot) error) error {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	if err := fn(&s.state); err != nil {
		s.mu.Unlock()
		if errors.Is(err, errNoChange) {
			return nil
		}
		return err
	}
	snap := s.state.Clone()
	subs := make([]func(nftpreview.Snapshot), 0, len(s.subs))
	for _, id := range slices.Sorted(maps.Keys(s.subs)) {
		subs = append(subs, s.subs[id])
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(snap.Clone())
	}
	return nil
}

func normalize(snap nftpreview.Snapshot) nftpreview.Snapshot {
	out := snap.Clone()
	if out.Layers == nil {
		out.Layers = map[string]nftpreview.Layer{}
	}
	if out.Selection == nil {
		out.Selection = nftpreview.Selection{}
	}
	return out
}
