// Package watcher monitors extension directories and reloads extension
// configuration when it changes on disk.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/blackwell-systems/pkgmux/internal/action"
	"github.com/blackwell-systems/pkgmux/internal/event"
	"github.com/blackwell-systems/pkgmux/internal/extension"
	"github.com/blackwell-systems/pkgmux/internal/op"
)

// debounce coalesces the burst of filesystem events an editor save
// produces into a single reload.
const debounce = 500 * time.Millisecond

// Dir pairs an extension directory with the ID prefix its extensions
// load under ("" for user scope, "system-" for system scope).
type Dir struct {
	Path     string
	IDPrefix string
}

// Emitter delivers the config-changed event after a reload.
type Emitter interface {
	Dispatch(ctx context.Context, name event.Name, vars action.Vars) event.Report
}

// Watcher reloads the extension registry when plugin.conf files change
// and fires config-changed so extensions can react.
type Watcher struct {
	dirs     []Dir
	registry *extension.Registry
	emitter  Emitter

	fs     *fsnotify.Watcher
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// New creates a watcher over the given extension directories.
func New(dirs []Dir, registry *extension.Registry, emitter Emitter) (*Watcher, error) {
	if registry == nil {
		return nil, fmt.Errorf("registry cannot be nil")
	}

	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create filesystem watcher: %w", err)
	}

	w := &Watcher{
		dirs:     dirs,
		registry: registry,
		emitter:  emitter,
		fs:       fs,
		stopCh:   make(chan struct{}),
	}

	watching := 0
	for _, d := range dirs {
		entries, err := os.ReadDir(d.Path)
		if err != nil {
			continue // missing dirs are fine; nothing to watch there yet
		}
		if err := fs.Add(d.Path); err != nil {
			fs.Close()
			return nil, fmt.Errorf("watch %s: %w", d.Path, err)
		}
		watching++
		// plugin.conf edits happen inside the per-extension subdirs.
		for _, entry := range entries {
			if entry.IsDir() {
				_ = fs.Add(filepath.Join(d.Path, entry.Name()))
			}
		}
	}
	if watching == 0 {
		fs.Close()
		return nil, fmt.Errorf("no extension directories to watch")
	}

	return w, nil
}

// Start begins processing filesystem events until Stop is called.
func (w *Watcher) Start() {
	w.wg.Add(1)
	go w.run()
}

// run coalesces bursts of events and reloads once per burst. A new
// extension directory appearing is added to the watch set.
func (w *Watcher) run() {
	defer w.wg.Done()

	var timer *time.Timer
	var timerCh <-chan time.Time

	for {
		select {
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if ev.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					_ = w.fs.Add(ev.Name)
				}
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
				timerCh = timer.C
			} else {
				timer.Reset(debounce)
			}

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			fmt.Fprintf(os.Stderr, "watcher: %v\n", err)

		case <-timerCh:
			timer = nil
			timerCh = nil
			w.reload()

		case <-w.stopCh:
			return
		}
	}
}

// reload re-parses every extension directory and swaps the registry
// contents. Parse failures leave the previous registry state in place.
func (w *Watcher) reload() {
	var all []*extension.Extension
	for _, d := range w.dirs {
		exts, err := extension.LoadDir(d.Path, d.IDPrefix)
		if err != nil {
			fmt.Fprintf(os.Stderr, "watcher: reload %s: %v\n", d.Path, err)
			return
		}
		all = append(all, exts...)
	}

	w.registry.Reload(all)

	if w.emitter != nil {
		opCtx := op.NewContext("", "", nil, op.ScopeUser, nil)
		w.emitter.Dispatch(context.Background(), event.ConfigChanged, action.BuildVars(opCtx, nil))
	}
}

// Stop halts the watcher and waits for the event loop to exit.
func (w *Watcher) Stop() error {
	close(w.stopCh)
	err := w.fs.Close()
	w.wg.Wait()
	return err
}
