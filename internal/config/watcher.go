package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

const watchDebounce = 500 * time.Millisecond

// Watch emits on the returned channel whenever one of the files changes,
// debounced so editor save patterns produce a single signal. The watcher
// goroutine runs until the context is canceled. Interactive mode uses this
// to pick up panel roster edits between sessions.
func Watch(ctx context.Context, logger zerolog.Logger, files ...string) <-chan struct{} {
	reloadCh := make(chan struct{}, 1)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create config watcher")
		return reloadCh
	}

	for _, file := range files {
		absPath, err := filepath.Abs(file)
		if err != nil {
			logger.Warn().Str("file", file).Msg("Could not resolve config file path for watching")
			continue
		}
		if err := watcher.Add(absPath); err != nil {
			logger.Warn().Str("file", file).Err(err).Msg("Could not watch config file")
		} else {
			logger.Debug().Str("file", absPath).Msg("Watching config file")
		}
	}

	go func() {
		defer watcher.Close()
		defer close(reloadCh)

		// The debounce timer starts stopped; the single loop goroutine owns
		// both the timer and the channel, so closing reloadCh is safe.
		timer := time.NewTimer(watchDebounce)
		if !timer.Stop() {
			<-timer.C
		}
		var changed string

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				// Writes and creates cover both in-place saves and the
				// rename-over saves editors do.
				if event.Op.Has(fsnotify.Write) || event.Op.Has(fsnotify.Create) {
					changed = event.Name
					if !timer.Stop() {
						select {
						case <-timer.C:
						default:
						}
					}
					timer.Reset(watchDebounce)
				}
			case <-timer.C:
				logger.Info().Str("file", changed).Msg("Config change detected")
				select {
				case reloadCh <- struct{}{}:
				default:
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Error().Err(err).Msg("Config watcher error")
			}
		}
	}()

	return reloadCh
}
