// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// defaultDebounce is how long to wait after the last write before
// re-running the handler.
const defaultDebounce = 200 * time.Millisecond

// changeHandler is called once at start and after every debounced change.
type changeHandler func(ctx context.Context) error

// watchFile runs onChange for path, then again whenever path changes.
//
// Description:
//
//	Watches the parent directory rather than the file itself, since
//	editors commonly replace a file on save. Events for other files are
//	ignored. Bursts of events inside the debounce window trigger a single
//	call. Handler errors are logged and watching continues.
//
// Inputs:
//
//	ctx - Cancel to stop watching.
//	path - File to watch.
//	debounce - Quiet period before onChange runs.
//	logger - Receives handler and watcher errors.
//	onChange - Work to do on each change.
//
// Outputs:
//
//	error - Non-nil only if the watcher could not be started.
func watchFile(ctx context.Context, path string, debounce time.Duration, logger *slog.Logger, onChange changeHandler) error {
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	target, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(target), err)
	}

	run := func() {
		if err := onChange(ctx); err != nil {
			logger.Warn("Change handler failed", "path", path, "error", err)
		}
	}
	run()

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			logger.Debug("File changed", "path", path, "op", event.Op.String())
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			run()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error", "error", err)
		}
	}
}
