// Package watch turns changes in the config directory into reload requests.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/mattjoyce/islet/internal/bus"
)

// Sender receives reload requests.
type Sender interface {
	Send(cmd bus.BackendCommand)
}

// Watcher watches one directory, non-recursively. It never touches shared
// state; every relevant event becomes a ReloadConfig sent to the backend
// pipeline.
type Watcher struct {
	fsw    *fsnotify.Watcher
	dir    string
	out    Sender
	logger *slog.Logger
}

// New starts watching dir.
func New(dir string, out Sender, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch config dir %s: %w", dir, err)
	}
	return &Watcher{fsw: fsw, dir: dir, out: out, logger: logger}, nil
}

// Run forwards events until ctx is done, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()
	w.logger.Info("watching config directory", "dir", w.dir)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !Relevant(ev) {
				continue
			}
			w.logger.Debug("config directory changed", "op", ev.Op.String(), "path", ev.Name)
			w.out.Send(bus.ReloadConfig{Reason: fmt.Sprintf("%s %s", strings.ToLower(ev.Op.String()), filepath.Base(ev.Name))})
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("config watcher error", "error", err)
		}
	}
}

// Relevant reports whether ev should trigger a reload: a create or write of
// a file that is not an editor or temp artifact. Removes, renames and
// attribute changes are ignored.
func Relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
		return false
	}
	return !isTempFile(filepath.Base(ev.Name))
}

func isTempFile(name string) bool {
	switch {
	case name == "" || name == "4913":
		return true
	case strings.HasPrefix(name, ".") || strings.HasPrefix(name, "#"):
		return true
	case strings.HasSuffix(name, "~"):
		return true
	}
	switch filepath.Ext(name) {
	case ".swp", ".swx", ".swo", ".tmp", ".bak":
		return true
	}
	return false
}
