package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// configDebounce collapses the burst of events an editor save produces
const configDebounce = 300 * time.Millisecond

// watchConfig calls onChange once the file at path settles after a change, until ctx is done.
// The parent directory is watched so editors that replace the file by rename are seen too.
func watchConfig(ctx context.Context, path string, logger *zap.Logger, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create config watcher: %w", err)
	}

	path = filepath.Clean(path)
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}

	go func() {
		defer watcher.Close()

		ticker := time.NewTicker(configDebounce / 3)
		defer ticker.Stop()

		var pending time.Time
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != path {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
					pending = time.Now()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("config watcher error", zap.Error(err))
			case <-ticker.C:
				if !pending.IsZero() && time.Since(pending) >= configDebounce {
					pending = time.Time{}
					onChange()
				}
			}
		}
	}()
	return nil
}
