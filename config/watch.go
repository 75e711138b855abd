package config

import (
	"github.com/fsnotify/fsnotify"

	"github.com/edgeflag/flagcore/errors"
	"github.com/edgeflag/flagcore/logger"
)

// OfflineSetter is the subset of client.Client's lifecycle surface
// Watch needs, kept as an interface here so config does not import
// client (which in turn imports config's Config type).
type OfflineSetter interface {
	SetOffline(bool)
}

// Watcher watches a config file for changes and applies the offline
// toggle live using fsnotify.
type Watcher struct {
	fsw  *fsnotify.Watcher
	done chan struct{}
}

// Watch starts watching configPath and applies a reloaded Offline
// value to target on every write event. Call Close to stop.
func Watch(configPath string, target OfflineSetter) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create config watcher")
	}
	if err := fsw.Add(configPath); err != nil {
		_ = fsw.Close()
		return nil, errors.Wrapf(err, "failed to watch config file %s", configPath)
	}

	w := &Watcher{fsw: fsw, done: make(chan struct{})}

	go func() {
		for {
			select {
			case event, ok := <-fsw.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				cfg, err := LoadFromFile(configPath)
				if err != nil {
					logger.Warnw("config: reload failed, keeping previous settings", logger.FieldError, err.Error())
					continue
				}
				target.SetOffline(cfg.Offline)
			case err, ok := <-fsw.Errors:
				if !ok {
					return
				}
				logger.Warnw("config: watcher error", logger.FieldError, err.Error())
			case <-w.done:
				return
			}
		}
	}()

	return w, nil
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}
