// Package warmstart implements the persistent file-modification
// tracker (spec section 6's warm-start cache layout): a disk-backed
// URI → last-indexed-mtime map that lets a restarted server skip
// reindexing files unchanged since its previous run. The cache is
// advisory — any load failure is logged and treated as a cold start,
// never a fatal error.
package warmstart

import (
	"encoding/gob"
	"os"
	"path/filepath"
	"sync"
	"time"

	"rholsp/internal/logging"
)

// Timestamp is a gob-stable encoding of a modification time: plain
// Sec/Nsec fields rather than time.Time itself, since time.Time carries
// a monotonic reading that is meaningless once decoded in a later
// process and gob silently drops on encode anyway — storing the wall
// clock components explicitly keeps the on-disk format unambiguous
// across restarts.
type Timestamp struct {
	Sec  int64
	Nsec int64
}

// FromTime converts a time.Time to its wall-clock Timestamp.
func FromTime(t time.Time) Timestamp {
	return Timestamp{Sec: t.Unix(), Nsec: int64(t.Nanosecond())}
}

// Time converts a Timestamp back to a time.Time (UTC, no monotonic
// reading attached).
func (ts Timestamp) Time() time.Time {
	return time.Unix(ts.Sec, ts.Nsec).UTC()
}

const fileName = "file_timestamps.bin"

// Tracker is the in-memory, periodically-persisted warm-start cache.
type Tracker struct {
	mu      sync.RWMutex
	cacheDir string
	entries map[string]Timestamp
}

// Load reads the warm-start cache from cacheDir. A missing or corrupt
// cache file is logged (category warm_start) and treated as empty —
// the caller proceeds cold, never with an error.
func Load(cacheDir string) *Tracker {
	t := &Tracker{cacheDir: cacheDir, entries: make(map[string]Timestamp)}

	f, err := os.Open(filepath.Join(cacheDir, fileName))
	if err != nil {
		if !os.IsNotExist(err) {
			logging.Get(logging.CategoryWarmStart).Warn("warm-start cache open failed, starting cold: %v", err)
		}
		return t
	}
	defer f.Close()

	var entries map[string]Timestamp
	if err := gob.NewDecoder(f).Decode(&entries); err != nil {
		logging.Get(logging.CategoryWarmStart).Warn("warm-start cache decode failed, starting cold: %v", err)
		return t
	}
	t.entries = entries
	return t
}

// Save atomically persists the tracker to "${cacheDir}/file_timestamps.bin"
// via temp-file-then-rename, so a crash mid-write never corrupts the
// previous cache.
func (t *Tracker) Save() error {
	t.mu.RLock()
	snapshot := make(map[string]Timestamp, len(t.entries))
	for k, v := range t.entries {
		snapshot[k] = v
	}
	t.mu.RUnlock()

	if err := os.MkdirAll(t.cacheDir, 0o755); err != nil {
		return err
	}
	target := filepath.Join(t.cacheDir, fileName)
	tmp, err := os.CreateTemp(t.cacheDir, fileName+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if err := gob.NewEncoder(tmp).Encode(snapshot); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, target)
}

// ShouldReindex reports whether uri's current filesystem mtime is newer
// than (or absent from) the cache — i.e. whether a fresh index pass is
// needed rather than a warm-start skip.
func (t *Tracker) ShouldReindex(uri string, mtime time.Time) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	cached, ok := t.entries[uri]
	if !ok {
		return true
	}
	return mtime.After(cached.Time())
}

// MarkIndexed records mtime as uri's last-indexed time.
func (t *Tracker) MarkIndexed(uri string, mtime time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[uri] = FromTime(mtime)
}

// Remove drops uri from the cache (on document delete).
func (t *Tracker) Remove(uri string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, uri)
}

// Len reports how many URIs the cache currently tracks.
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}
