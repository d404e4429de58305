package stream

import (
	"context"
	"time"

	"github.com/fsnotify/fsnotify"

	"rholsp/internal/logging"
)

// FileEvent is one filesystem change surfaced by a Watcher, normalized
// away from fsnotify's op bitmask into the four shapes the workspace
// indexer cares about.
type FileEvent struct {
	Path string
	Op   FileOp
}

// FileOp classifies a FileEvent.
type FileOp int

const (
	OpWrite FileOp = iota
	OpCreate
	OpRemove
	OpRename
)

// Watcher wraps fsnotify with a blocking-channel-plus-interval-tick
// idiom so shutdown is always observed promptly even while idle,
// emitting normalized FileEvents on a channel ready to feed Debounce
// and the rest of the edit-stream pipeline.
type Watcher struct {
	fsw *fsnotify.Watcher
}

// NewWatcher creates a Watcher with no paths yet registered.
func NewWatcher() (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{fsw: fsw}, nil
}

// Add registers a directory or file for watching.
func (w *Watcher) Add(path string) error {
	return w.fsw.Add(path)
}

// Close releases the underlying fsnotify watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// Run starts the event loop, emitting normalized events on the returned
// channel until ctx is cancelled, at which point the channel is closed
// and the underlying watcher released. An internal tick keeps the
// select loop alive even when both the event and error channels are
// idle, so ctx cancellation is never left waiting on an external I/O
// source.
func (w *Watcher) Run(ctx context.Context) <-chan FileEvent {
	out := make(chan FileEvent)
	log := logging.Get(logging.CategoryStream)

	go func() {
		defer close(out)
		defer w.fsw.Close()

		tick := time.NewTicker(250 * time.Millisecond)
		defer tick.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-tick.C:
				// keeps the loop responsive to ctx cancellation even
				// when fsnotify is silent.
			case ev, ok := <-w.fsw.Events:
				if !ok {
					return
				}
				fe, recognized := normalize(ev)
				if !recognized {
					continue
				}
				select {
				case out <- fe:
				case <-ctx.Done():
					return
				}
			case err, ok := <-w.fsw.Errors:
				if !ok {
					return
				}
				log.Warn("watcher error: %v", err)
			}
		}
	}()

	return out
}

func normalize(ev fsnotify.Event) (FileEvent, bool) {
	switch {
	case ev.Op&fsnotify.Write == fsnotify.Write:
		return FileEvent{Path: ev.Name, Op: OpWrite}, true
	case ev.Op&fsnotify.Create == fsnotify.Create:
		return FileEvent{Path: ev.Name, Op: OpCreate}, true
	case ev.Op&fsnotify.Remove == fsnotify.Remove:
		return FileEvent{Path: ev.Name, Op: OpRemove}, true
	case ev.Op&fsnotify.Rename == fsnotify.Rename:
		return FileEvent{Path: ev.Name, Op: OpRename}, true
	default:
		return FileEvent{}, false
	}
}
