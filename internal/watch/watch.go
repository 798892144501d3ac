package watch

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"vocalsub/internal/logging"
)

const (
	defaultSettle = 5 * time.Second
	minTick       = 10 * time.Millisecond
)

// Processor handles one settled file. Errors are logged; the watcher moves on.
type Processor func(ctx context.Context, path string) error

// Options configures a Watcher.
type Options struct {
	Dir        string
	Extensions []string
	// Settle is how long a file must stay unchanged before processing.
	Settle time.Duration
	// ForcePolling skips fsnotify and rescans the directory every tick.
	ForcePolling bool
	Logger       *slog.Logger
}

type fileKey struct {
	size int64
	mod  time.Time
}

type candidate struct {
	key         fileKey
	stableSince time.Time
}

// Watcher watches one inbox directory.
type Watcher struct {
	dir        string
	extensions []string
	settle     time.Duration
	polling    bool
	process    Processor
	logger     *slog.Logger

	pending   map[string]candidate
	processed map[string]fileKey
}

// New constructs a watcher.
func New(opts Options, process Processor) *Watcher {
	settle := opts.Settle
	if settle <= 0 {
		settle = defaultSettle
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	exts := make([]string, 0, len(opts.Extensions))
	for _, ext := range opts.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts = append(exts, ext)
	}
	return &Watcher{
		dir:        opts.Dir,
		extensions: exts,
		settle:     settle,
		polling:    opts.ForcePolling,
		process:    process,
		logger:     logging.NewComponentLogger(logger, "watch"),
		pending:    make(map[string]candidate),
		processed:  make(map[string]fileKey),
	}
}

// Run blocks until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	if strings.TrimSpace(w.dir) == "" {
		return errors.New("watch directory is required")
	}
	if w.process == nil {
		return errors.New("watch processor is required")
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return err
	}

	var (
		events <-chan fsnotify.Event
		errs   <-chan error
	)
	if !w.polling {
		watcher, err := w.startNotify()
		if err != nil {
			logging.WarnWithContext(w.logger, "fsnotify not available, falling back to polling", "watch_polling",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "raise fs.inotify.max_user_watches if this persists"),
				logging.String(logging.FieldImpact, "new files are detected on the next poll"),
			)
			w.polling = true
		} else {
			defer watcher.Close()
			events, errs = watcher.Events, watcher.Errors
		}
	}

	tick := max(w.settle/4, minTick)
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	w.logger.Info("watching inbox",
		logging.String("dir", w.dir),
		logging.Bool("polling", w.polling),
		logging.Duration("settle", w.settle),
	)
	w.scan()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				w.logger.Warn("fsnotify watcher closed, switching to polling")
				events, errs = nil, nil
				w.polling = true
				continue
			}
			if ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write) {
				w.observe(ev.Name)
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			w.logger.Warn("fsnotify error", logging.Error(err))
		case <-ticker.C:
			if w.polling {
				w.scan()
			}
			w.processSettled(ctx)
		}
	}
}

func (w *Watcher) startNotify() (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(w.dir); err != nil {
		_ = watcher.Close()
		return nil, err
	}
	return watcher, nil
}

// Matches reports whether path has one of the watched extensions.
func (w *Watcher) Matches(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return false
	}
	return slices.Contains(w.extensions, strings.ToLower(filepath.Ext(base)))
}

func (w *Watcher) scan() {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		w.logger.Warn("inbox scan failed", logging.Error(err))
		return
	}
	for _, entry := range entries {
		if entry.Type().IsRegular() {
			w.observe(filepath.Join(w.dir, entry.Name()))
		}
	}
}

func (w *Watcher) observe(path string) {
	if !w.Matches(path) {
		return
	}
	if _, ok := w.pending[path]; ok {
		return
	}
	key, err := statKey(path)
	if err != nil {
		return
	}
	if done, ok := w.processed[path]; ok && done == key {
		return
	}
	w.pending[path] = candidate{key: key, stableSince: time.Now()}
}

func (w *Watcher) processSettled(ctx context.Context) {
	if len(w.pending) == 0 {
		return
	}
	paths := make([]string, 0, len(w.pending))
	for path := range w.pending {
		paths = append(paths, path)
	}
	slices.Sort(paths)

	now := time.Now()
	for _, path := range paths {
		if ctx.Err() != nil {
			return
		}
		cand := w.pending[path]
		key, err := statKey(path)
		if err != nil {
			delete(w.pending, path)
			continue
		}
		if key != cand.key {
			w.pending[path] = candidate{key: key, stableSince: now}
			continue
		}
		if now.Sub(cand.stableSince) < w.settle {
			continue
		}
		delete(w.pending, path)
		w.processed[path] = key
		w.run(ctx, path)
	}
}

func (w *Watcher) run(ctx context.Context, path string) {
	logger := w.logger.With(logging.String(logging.FieldVideo, path))
	logger.Info("processing inbox file", logging.String(logging.FieldEventType, "watch_process"))
	started := time.Now()
	if err := w.process(ctx, path); err != nil {
		logging.ErrorWithContext(logger, "inbox file failed", "watch_failure",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "fix the cause and touch the file to retry"),
		)
		return
	}
	logger.Info("inbox file processed",
		logging.String(logging.FieldEventType, "watch_complete"),
		logging.Duration("duration", time.Since(started)),
	)
}

func statKey(path string) (fileKey, error) {
	info, err := os.Stat(path)
	if err != nil {
		return fileKey{}, err
	}
	if !info.Mode().IsRegular() {
		return fileKey{}, errors.New("not a regular file")
	}
	return fileKey{size: info.Size(), mod: info.ModTime()}, nil
}
