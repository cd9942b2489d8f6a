package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch monitors the settings file and invokes onChange with freshly
// loaded settings whenever the settings window rewrites it. It blocks
// until the context is cancelled. The data directory is watched rather
// than the file itself because most writers replace the file.
func Watch(ctx context.Context, onChange func(Settings)) error {
	path, err := SettingsPath()
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch settings dir: %w", err)
	}

	logger := slog.Default().With("component", "config")
	logger.Info("watching settings", "path", path)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != settingsFile {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			settings, err := LoadSettings()
			if err != nil {
				logger.Warn("reload settings failed", "error", err)
				continue
			}
			logger.Info("settings reloaded")
			onChange(*settings)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("settings watcher error", "error", err)
		}
	}
}
