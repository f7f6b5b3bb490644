package config

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/gatewarden/gatewarden/internal/logger"
)

// Watch monitors the config file and invokes onChange with the freshly
// loaded configuration every time the file is rewritten. It blocks until
// the context is cancelled.
//
// Only a successfully loaded and validated config reaches onChange; an
// edit that breaks validation is logged and skipped, so a typo cannot
// take down a running server. Secrets still come from the environment on
// reload, so only file-backed settings (notably the log level) change.
func Watch(ctx context.Context, configPath string, onChange func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Watch the directory rather than the file: editors replace files
	// on save, which drops a file-level watch.
	dir := filepath.Dir(configPath)
	if err := watcher.Add(dir); err != nil {
		return err
	}

	logger.Debug("watching config file", "path", configPath)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Name != configPath {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			cfg, err := Load(configPath)
			if err != nil {
				logger.Warn("config reload skipped", logger.Err(err))
				continue
			}

			logger.Info("config file changed, reloading", "path", configPath)
			onChange(cfg)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("config watcher error", logger.Err(err))
		}
	}
}
