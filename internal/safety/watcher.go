// SPDX-License-Identifier: MIT

package safety

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/lepetpal/lepetpal/internal/config"
	"github.com/lepetpal/lepetpal/internal/log"
	"github.com/lepetpal/lepetpal/internal/metrics"
)

// Watch hot-reloads joint limits whenever the calibration file changes. It
// blocks until ctx is cancelled and returns nil on clean shutdown. The
// watcher observes the parent directory so editors that replace the file
// (write to temp, rename over) are still caught.
func (g *Gate) Watch(ctx context.Context, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("calibration watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("calibration watcher: watch %s: %w", dir, err)
	}

	logger := log.WithComponent("safety")
	logger.Info().
		Str("event", "safety.watch_started").
		Str("path", path).
		Msg("watching calibration file")

	target := filepath.Clean(path)
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
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			cal, err := config.LoadCalibration(path)
			if err != nil {
				metrics.IncCalibrationReload(false)
				logger.Warn().
					Err(err).
					Str("event", "safety.reload_failed").
					Str("path", path).
					Msg("calibration reload failed, keeping active limits")
				continue
			}
			g.SetLimits(cal)
			metrics.IncCalibrationReload(true)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn().Err(err).Str("event", "safety.watch_error").Msg("calibration watcher error")
		}
	}
}
