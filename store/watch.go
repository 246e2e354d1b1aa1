// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/gogpu/nftpreview"
)

// DefaultDebounce is how long Watch waits for a burst of file events to
// settle before reloading.
const DefaultDebounce = 100 * time.Millisecond

// WatchOption configures Watch.
type WatchOption func(*watchOptions)

type watchOptions struct {
	logger   *slog.Logger
	debounce time.Duration
	onReload func(error)
}

// WithLogger sets the logger for reload diagnostics. The default is the
// nftpreview package logger.
func WithLogger(l *slog.Logger) WatchOption {
	return func(o *watchOptions) {
		o.logger = l
	}
}

// WithDebounce sets the settle time between the last file event and the
// reload.
func WithDebounce(d time.Duration) WatchOption {
	return func(o *watchOptions) {
		o.debounce = d
	}
}

// WithOnReload registers fn to be called after every reload attempt with
// its error, nil on success.
func WithOnReload(fn func(error)) WatchOption {
	return func(o *watchOptions) {
		o.onReload = fn
	}
}

// Watch reloads the project file at path into s whenever it changes, until
// ctx is done. The containing directory is watched so that editors that save
// by renaming are picked up. A project that fails to load is logged and the
// store keeps its previous state.
func Watch(ctx context.Context, path string, s *Store, opts ...WatchOption) error {
	o := watchOptions{debounce: DefaultDebounce}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = nftpreview.Logger()
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("store: watch %s: %w", path, err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("store: watch: %w", err)
	}
	defer func() { _ = w.Close() }()
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("store: watch %s: %w", filepath.Dir(abs), err)
	}

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			timer.Reset(o.debounce)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			o.logger.Warn("store: watch error", "path", abs, "err", err)
		case <-timer.C:
			snap, err := LoadProject(abs)
			if err != nil {
				o.logger.Warn("store: project reload failed", "path", abs, "err", err)
			} else {
				s.Replace(snap)
				o.logger.Info("store: project reloaded", "path", abs, "layers", len(snap.Layers))
			}
			if o.onReload != nil {
				o.onReload(err)
			}
		}
	}
}
