package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ukaji3/xpln-go/internal/logger"
)

// settleDelay coalesces the burst of events an editor produces on save.
const settleDelay = 200 * time.Millisecond

// watchFile runs fn once and again after every change to path until ctx ends.
// Failures of fn are logged and do not stop watching.
func watchFile(ctx context.Context, path string, fn func() error) error {
	target, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	// Editors often replace the file, so watch its directory.
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(target), err)
	}

	runOnce := func() {
		if err := fn(); err != nil {
			logger.Warn("%v", err)
		}
	}
	runOnce()

	timer := time.NewTimer(settleDelay)
	timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if isInputChange(ev, target) {
				logger.Debug("change detected: %s", ev)
				timer.Reset(settleDelay)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error: %v", err)
		case <-timer.C:
			runOnce()
		}
	}
}

// isInputChange reports whether ev rewrites the file at target.
func isInputChange(ev fsnotify.Event, target string) bool {
	name, err := filepath.Abs(ev.Name)
	if err != nil || name != target {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename)
}
