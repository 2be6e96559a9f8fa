// Package watch ingests files dropped into a directory once they stop
// changing.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"reel/internal/catalog"
	"reel/internal/footage"
	"reel/internal/logging"
	"reel/internal/services"
)

// Ingester stores a dropped file.
type Ingester interface {
	Ingest(ctx context.Context, source string, opts footage.IngestOptions) (*catalog.Footage, footage.Outcome, error)
}

type pendingFile struct {
	size    int64
	modTime time.Time
	seen    time.Time
}

// Watcher scans dir and ingests files that have been stable for settle.
type Watcher struct {
	dir          string
	settle       time.Duration
	removeSource bool
	ingester     Ingester
	logger       *slog.Logger

	mu      sync.Mutex
	pending map[string]pendingFile
	handled map[string]pendingFile
	now     func() time.Time
}

// New constructs a watcher for dir.
func New(dir string, settle time.Duration, removeSource bool, ingester Ingester, logger *slog.Logger) *Watcher {
	return &Watcher{
		dir:          dir,
		settle:       settle,
		removeSource: removeSource,
		ingester:     ingester,
		logger:       logging.NewComponentLogger(logger, "watch"),
		pending:      make(map[string]pendingFile),
		handled:      make(map[string]pendingFile),
		now:          time.Now,
	}
}

// ValidateDir rejects a drop directory that is, or sits inside, one of the
// reserved roots. Files moved into such a root would be seen again as drops.
func ValidateDir(dir string, reserved ...string) error {
	target := resolvePath(dir)
	for _, root := range reserved {
		if strings.TrimSpace(root) == "" {
			continue
		}
		rel, err := filepath.Rel(resolvePath(root), target)
		if err != nil {
			continue
		}
		if rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))) {
			return services.Wrap(services.ErrConfiguration, "watch", "validate dir",
				fmt.Sprintf("%s is inside %s", dir, root), nil)
		}
	}
	return nil
}

func resolvePath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = filepath.Clean(path)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	return abs
}

// Run watches until ctx is cancelled. Files already present are picked up
// on start. A file is handled once per size and mtime, so a failed file is
// retried only after it changes.
func (w *Watcher) Run(ctx context.Context) error {
	info, err := os.Stat(w.dir)
	if err != nil {
		return fmt.Errorf("watch dir: %w", err)
	}
	if !info.IsDir() {
		return services.Wrap(services.ErrConfiguration, "watch", "start", w.dir+" is not a directory", nil)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()
	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	w.logger.Info("watching drop directory",
		logging.String("dir", w.dir),
		logging.Duration("settle", w.settle),
	)

	if err := w.Scan(); err != nil {
		return err
	}

	interval := w.settle / 2
	if interval < 100*time.Millisecond {
		interval = 100 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Chmod) != 0 {
				w.observe(event.Name)
			}
			if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				w.forget(event.Name)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", logging.Error(err))
		case <-ticker.C:
			w.Flush(ctx)
		}
	}
}

// Scan queues every regular file currently in the directory.
func (w *Watcher) Scan() error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("read watch dir: %w", err)
	}
	for _, entry := range entries {
		if entry.Type().IsRegular() {
			w.observe(filepath.Join(w.dir, entry.Name()))
		}
	}
	return nil
}

// Flush ingests every queued file that has not changed for the settle
// interval and returns how many were ingested.
func (w *Watcher) Flush(ctx context.Context) int {
	ready := w.ready()
	ingested := 0
	for _, item := range ready {
		if ctx.Err() != nil {
			break
		}
		path := item.path
		w.mu.Lock()
		w.handled[path] = item.state
		w.mu.Unlock()
		record, _, err := w.ingester.Ingest(ctx, path, footage.IngestOptions{RemoveSource: w.removeSource})
		if err != nil {
			logging.WarnWithContext(w.logger, "ingest of dropped file failed", "watch_ingest_failed",
				logging.String("path", path),
				logging.String("kind", services.Kind(err)),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "fix or replace the file; it is retried when it changes"),
			)
			continue
		}
		ingested++
		w.logger.Info("dropped file ingested",
			logging.String("path", path),
			logging.Int64(logging.FieldFootageID, record.ID),
		)
	}
	return ingested
}

func (w *Watcher) observe(path string) {
	if skipName(filepath.Base(path)) {
		return
	}
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if done, ok := w.handled[path]; ok && done.size == info.Size() && done.modTime.Equal(info.ModTime()) {
		return
	}
	delete(w.handled, path)
	prev, ok := w.pending[path]
	if ok && prev.size == info.Size() && prev.modTime.Equal(info.ModTime()) {
		return
	}
	w.pending[path] = pendingFile{size: info.Size(), modTime: info.ModTime(), seen: w.now()}
}

func (w *Watcher) forget(path string) {
	w.mu.Lock()
	delete(w.pending, path)
	delete(w.handled, path)
	w.mu.Unlock()
}

type readyFile struct {
	path  string
	state pendingFile
}

// ready returns pending files whose size and mtime held for the settle
// interval, removing them from the queue.
func (w *Watcher) ready() []readyFile {
	w.mu.Lock()
	defer w.mu.Unlock()
	now := w.now()
	var ready []readyFile
	for path, entry := range w.pending {
		info, err := os.Stat(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				delete(w.pending, path)
			}
			continue
		}
		if info.Size() != entry.size || !info.ModTime().Equal(entry.modTime) {
			w.pending[path] = pendingFile{size: info.Size(), modTime: info.ModTime(), seen: now}
			continue
		}
		if now.Sub(entry.seen) < w.settle {
			continue
		}
		delete(w.pending, path)
		ready = append(ready, readyFile{path: path, state: entry})
	}
	return ready
}

// skipName ignores hidden and partial files.
func skipName(name string) bool {
	return strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".part") || strings.HasSuffix(name, ".tmp")
}
