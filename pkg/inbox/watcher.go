// Package inbox turns files dropped into a directory into vault notes.
package inbox

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/athapong/ontonote/pkg/apperr"
	"github.com/athapong/ontonote/pkg/metrics"
	"github.com/athapong/ontonote/pkg/notes"
	"github.com/athapong/ontonote/pkg/source"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ProcessedDir is the subdirectory that receives handled files.
const ProcessedDir = "processed"

const (
	defaultDebounce = 500 * time.Millisecond
	queueSize       = 64
)

// Processor creates a note from a request.
type Processor interface {
	ProcessNewNote(ctx context.Context, req notes.NoteRequest) (*notes.NoteResult, error)
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets how long a file must stay quiet before it is processed.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// Watcher processes supported files in a directory one at a time.
type Watcher struct {
	dir       string
	processed string
	proc      Processor
	logger    *logrus.Logger
	debounce  time.Duration

	mu      sync.Mutex
	timers  map[string]*time.Timer
	pending mapset.Set[string]
	queue   chan string
}

// New prepares a watcher for dir, creating dir and its processed
// subdirectory when missing.
func New(dir string, proc Processor, logger *logrus.Logger, opts ...Option) (*Watcher, error) {
	if dir == "" {
		return nil, apperr.Config("create inbox", "no inbox directory")
	}
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	w := &Watcher{
		dir:       dir,
		processed: filepath.Join(dir, ProcessedDir),
		proc:      proc,
		logger:    logger,
		debounce:  defaultDebounce,
		timers:    make(map[string]*time.Timer),
		pending:   mapset.NewSet[string](),
		queue:     make(chan string, queueSize),
	}
	for _, opt := range opts {
		opt(w)
	}
	if err := os.MkdirAll(w.processed, 0755); err != nil {
		return nil, apperr.IO("create inbox", w.processed, err)
	}
	return w, nil
}

// Run queues the files already in the directory, then watches it for new
// ones until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return apperr.IO("watch inbox", w.dir, err)
	}
	defer fw.Close()
	if err := fw.Add(w.dir); err != nil {
		return apperr.IO("watch inbox", w.dir, err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.work(ctx)
	}()
	defer func() {
		w.stopTimers()
		wg.Wait()
	}()

	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return apperr.IO("scan inbox", w.dir, err)
	}
	for _, e := range entries {
		if !e.IsDir() {
			w.enqueue(ctx, filepath.Join(w.dir, e.Name()))
		}
	}

	w.logger.WithField("dir", w.dir).Info("Watching inbox")
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Inbox watcher stopped")
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				w.schedule(ctx, event.Name)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.WithError(err).Warn("Inbox watch error")
		}
	}
}

// schedule restarts the quiet period of path.
func (w *Watcher) schedule(ctx context.Context, path string) {
	if !source.Supported(path) {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.timers[path]; ok {
		t.Stop()
	}
	w.timers[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()
		w.enqueue(ctx, path)
	})
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.timers {
		t.Stop()
		delete(w.timers, path)
	}
}

func (w *Watcher) enqueue(ctx context.Context, path string) {
	if !source.Supported(path) || !w.pending.Add(path) {
		return
	}
	select {
	case w.queue <- path:
		metrics.InboxQueueLength.Set(float64(len(w.queue)))
	case <-ctx.Done():
		w.pending.Remove(path)
	}
}

func (w *Watcher) work(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case path := <-w.queue:
			metrics.InboxQueueLength.Set(float64(len(w.queue)))
			if _, err := w.Process(ctx, path); err != nil {
				w.logger.WithError(err).WithField("file", path).Error("Inbox file not processed")
			}
			w.pending.Remove(path)
		}
	}
}

// Process turns one file into a note and moves it to the processed
// directory. The file stays in place when processing fails.
func (w *Watcher) Process(ctx context.Context, path string) (*notes.NoteResult, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, apperr.NotFound("process inbox file", path)
		}
		return nil, apperr.IO("process inbox file", path, err)
	}
	content, err := source.Load(path)
	if err != nil {
		return nil, err
	}

	res, err := w.proc.ProcessNewNote(ctx, notes.NoteRequest{Content: content})
	if err != nil {
		return nil, err
	}

	dest, err := w.moveProcessed(path)
	if err != nil {
		return res, err
	}
	w.logger.WithFields(logrus.Fields{
		"file":  filepath.Base(path),
		"moved": dest,
		"note":  res.Path,
	}).Info("Inbox file processed")
	return res, nil
}

func (w *Watcher) moveProcessed(path string) (string, error) {
	dest := filepath.Join(w.processed, filepath.Base(path))
	if _, err := os.Stat(dest); err == nil {
		ext := filepath.Ext(path)
		stem := filepath.Base(path[:len(path)-len(ext)])
		dest = filepath.Join(w.processed, fmt.Sprintf("%s-%d%s", stem, time.Now().UnixNano(), ext))
	}
	if err := os.Rename(path, dest); err != nil {
		return "", apperr.IO("move inbox file", path, errors.Wrap(err, "rename"))
	}
	return dest, nil
}
