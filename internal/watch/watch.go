// Package watch exports table files to CSV as the logger appends to them.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/tobread/internal/export"
	"github.com/bft-labs/tobread/pkg/log"
	"github.com/bft-labs/tobread/pkg/source"
	"github.com/bft-labs/tobread/pkg/state"
	"github.com/bft-labs/tobread/pkg/tob"
)

// Options configures a Watcher.
type Options struct {
	// Dir is the directory holding table files.
	Dir string

	// OutputDir receives one CSV per table file.
	OutputDir string

	// Pattern selects table files by base name.
	Pattern string

	// Debounce is the quiet period after the last write to a file before
	// it is exported.
	Debounce time.Duration

	// Once exports the current files and returns without watching.
	Once bool

	Export export.Options
}

// Watcher keeps CSV exports of a directory of table files current.
type Watcher struct {
	opts   Options
	repo   state.Repository
	logger log.Logger

	st state.State

	mu     sync.Mutex
	timers map[string]*time.Timer
	due    chan string

	// owned by the Run goroutine
	retries map[string]*backoff
}

// maxRetries bounds how often a failing export is retried before the file
// waits for its next write.
const maxRetries = 5

// New creates a Watcher. Progress is loaded from and saved to repo.
func New(opts Options, repo state.Repository, logger log.Logger) *Watcher {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	if opts.Debounce <= 0 {
		opts.Debounce = 500 * time.Millisecond
	}
	return &Watcher{
		opts:    opts,
		repo:    repo,
		logger:  logger,
		timers:  make(map[string]*time.Timer),
		due:     make(chan string, 16),
		retries: make(map[string]*backoff),
	}
}

// Run exports every matching file, then exports files again as they change
// until ctx is cancelled. With Once set it returns after the first sweep.
func (w *Watcher) Run(ctx context.Context) error {
	// Cancelled on every return so pending debounce timers never block on due.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	st, err := w.repo.Load(ctx)
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}
	w.st = st

	if err := os.MkdirAll(w.opts.OutputDir, 0o755); err != nil {
		return fmt.Errorf("output dir: %w", err)
	}

	var watcher *fsnotify.Watcher
	if !w.opts.Once {
		// Subscribe before the sweep so appends during it are not missed.
		watcher, err = fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("create watcher: %w", err)
		}
		defer watcher.Close()
		if err := watcher.Add(w.opts.Dir); err != nil {
			return fmt.Errorf("watch %s: %w", w.opts.Dir, err)
		}
	}

	if err := w.sweep(ctx); err != nil {
		return err
	}
	if w.opts.Once {
		return nil
	}

	w.logger.Info("Watching for table changes", log.String("dir", w.opts.Dir), log.String("pattern", w.opts.Pattern))
	defer w.stopTimers()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case path := <-w.due:
			w.handle(ctx, path)

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !w.matches(event.Name) {
				continue
			}
			switch {
			case event.Op&(fsnotify.Write|fsnotify.Create) != 0:
				delete(w.retries, event.Name)
				w.schedule(ctx, event.Name, w.opts.Debounce)
			case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				w.forget(ctx, event.Name)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("Watcher error", log.Err(err))
		}
	}
}

// sweep exports every matching file in Dir, oldest name first.
func (w *Watcher) sweep(ctx context.Context) error {
	entries, err := os.ReadDir(w.opts.Dir)
	if err != nil {
		return fmt.Errorf("read dir: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		p := filepath.Join(w.opts.Dir, e.Name())
		if w.matches(p) {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		w.handle(ctx, p)
	}
	return nil
}

func (w *Watcher) handle(ctx context.Context, path string) {
	exported, err := w.ExportFile(ctx, path)
	if err != nil {
		w.retry(ctx, path, err)
		return
	}
	delete(w.retries, path)
	if exported {
		if err := w.repo.Save(ctx, w.st); err != nil {
			w.logger.Error("Failed to save state", log.Err(err))
		}
	}
}

// ExportFile writes the CSV for the table at path when its valid record
// count changed since the last export. It reports whether a CSV was
// written.
func (w *Watcher) ExportFile(ctx context.Context, path string) (bool, error) {
	src, err := source.Open(path)
	if err != nil {
		return false, err
	}
	defer src.Close()

	f, err := tob.Open(src, tob.WithLogger(w.logger))
	if err != nil {
		return false, err
	}
	n, err := f.Count()
	if err != nil {
		return false, err
	}
	if !w.st.Changed(path, n) {
		w.logger.Debug("Table unchanged", log.String("file", path), log.Int("records", n))
		return false, nil
	}

	out := filepath.Join(w.opts.OutputDir, CSVName(path))
	tmp := out + ".tmp"
	fh, err := os.Create(tmp)
	if err != nil {
		return false, err
	}
	sum, err := export.WriteCSV(ctx, fh, f, w.opts.Export)
	if cerr := fh.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp)
		return false, err
	}
	if err := os.Rename(tmp, out); err != nil {
		return false, err
	}

	w.st.Record(path, n, sum.Last)
	w.logger.Info("Exported table",
		log.String("file", path),
		log.String("csv", out),
		log.Int("records", sum.Records),
		log.String("compression", src.Compression().String()),
	)
	return true, nil
}

// State returns the current export progress.
func (w *Watcher) State() state.State {
	return w.st
}

func (w *Watcher) matches(path string) bool {
	pattern := w.opts.Pattern
	if pattern == "" {
		pattern = "*"
	}
	ok, _ := filepath.Match(pattern, filepath.Base(path))
	return ok && !strings.HasSuffix(path, ".tmp")
}

// retry schedules another export of a file that failed, typically because
// it was read while still being copied in.
func (w *Watcher) retry(ctx context.Context, path string, err error) {
	if w.opts.Once || ctx.Err() != nil {
		w.logger.Error("Export failed", log.String("file", path), log.Err(err))
		return
	}
	b, ok := w.retries[path]
	if !ok {
		b = newBackoff(w.opts.Debounce, 30*time.Second)
		w.retries[path] = b
	}
	delay, attempt := b.Next()
	if attempt >= maxRetries {
		delete(w.retries, path)
		w.logger.Error("Export failed, giving up until next write", log.String("file", path), log.Err(err))
		return
	}
	w.logger.Warn("Export failed, retrying", log.String("file", path), log.Duration("delay", delay), log.Err(err))
	w.schedule(ctx, path, delay)
}

// schedule exports path once it has been quiet for delay.
func (w *Watcher) schedule(ctx context.Context, path string, delay time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.timers[path]; ok {
		t.Stop()
	}
	w.timers[path] = time.AfterFunc(delay, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()
		select {
		case w.due <- path:
		case <-ctx.Done():
		}
	})
}

func (w *Watcher) forget(ctx context.Context, path string) {
	w.mu.Lock()
	if t, ok := w.timers[path]; ok {
		t.Stop()
		delete(w.timers, path)
	}
	w.mu.Unlock()
	delete(w.retries, path)

	if _, ok := w.st.Tables[path]; !ok {
		return
	}
	w.st.Forget(path)
	w.logger.Info("Table removed", log.String("file", path))
	if err := w.repo.Save(ctx, w.st); err != nil {
		w.logger.Error("Failed to save state", log.Err(err))
	}
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for p, t := range w.timers {
		t.Stop()
		delete(w.timers, p)
	}
}

// CSVName maps a table file name to its CSV name, dropping compression and
// .dat suffixes: "CR1000_Table1.dat.gz" becomes "CR1000_Table1.csv".
func CSVName(path string) string {
	name := filepath.Base(path)
	for _, ext := range []string{".gz", ".zst", ".dat"} {
		name = strings.TrimSuffix(name, ext)
	}
	return name + ".csv"
}
