// Package watch keeps a project in sync with a local directory. Changed
// files are collected until the tree has been quiet for a while and then
// sent to the project in one upload.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/framebox/internal/hosting"
	"github.com/fyrsmithlabs/framebox/internal/ignore"
	"github.com/fyrsmithlabs/framebox/internal/logging"
)

// DefaultQuietPeriod is how long the tree must be still before a batch is sent.
const DefaultQuietPeriod = 500 * time.Millisecond

// ErrWatcherFailed indicates the filesystem watcher failed to initialize.
var ErrWatcherFailed = errors.New("failed to initialize filesystem watcher")

// Uploader sends files to a project.
type Uploader interface {
	UploadFiles(ctx context.Context, id string, uploads []hosting.Upload) (*hosting.UploadResult, error)
}

// Batch is the outcome of one upload.
type Batch struct {
	// Files are the relative names sent, sorted.
	Files  []string
	Result *hosting.UploadResult
	Err    error
}

// Syncer uploads changed files under a directory to one project.
type Syncer struct {
	root      string
	projectID string
	api       Uploader
	quiet     time.Duration
	logger    *logging.Logger
	metrics   *Metrics
	onBatch   func(Batch)
	exclude   *ignore.Matcher

	watcher *fsnotify.Watcher
	pending map[string]struct{}
}

// Option configures a Syncer.
type Option func(*Syncer)

// WithQuietPeriod sets the quiet period. Non-positive values are ignored.
func WithQuietPeriod(d time.Duration) Option {
	return func(s *Syncer) {
		if d > 0 {
			s.quiet = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Syncer) {
		if l != nil {
			s.logger = l.Named("watch")
		}
	}
}

// WithMetrics sets the metrics to update.
func WithMetrics(m *Metrics) Option {
	return func(s *Syncer) { s.metrics = m }
}

// WithBatchHook is called after every upload attempt.
func WithBatchHook(fn func(Batch)) Option {
	return func(s *Syncer) { s.onBatch = fn }
}

// New watches root and every directory below it. Paths matched by the
// exclude files in root (see ignore.DefaultFiles) are never uploaded.
func New(root, projectID string, api Uploader, opts ...Option) (*Syncer, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}

	exclude, err := ignore.Load(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to read exclude files: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWatcherFailed, err)
	}

	s := &Syncer{
		root:      abs,
		projectID: projectID,
		api:       api,
		quiet:     DefaultQuietPeriod,
		logger:    logging.NewNop(),
		metrics:   NewMetrics(nil),
		exclude:   exclude,
		watcher:   watcher,
		pending:   make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.addTree(abs, false); err != nil {
		_ = watcher.Close()
		return nil, err
	}
	return s, nil
}

// Root returns the absolute directory being watched.
func (s *Syncer) Root() string {
	return s.root
}

// Run processes events until ctx is cancelled. Files still pending when ctx
// ends are dropped. The watcher is closed on return.
func (s *Syncer) Run(ctx context.Context) error {
	defer s.watcher.Close()

	ctx = logging.WithProjectID(ctx, s.projectID)
	s.logger.Info(ctx, "watching directory",
		zap.String("root", s.root),
		zap.Duration("quiet_period", s.quiet),
		zap.Int("exclude_patterns", s.exclude.Len()))

	timer := time.NewTimer(s.quiet)
	timer.Stop()
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil

		case event, ok := <-s.watcher.Events:
			if !ok {
				return nil
			}
			if s.handle(ctx, event) {
				timer.Reset(s.quiet)
				fire = timer.C
			}

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return nil
			}
			s.metrics.WatchErrors.Inc()
			s.logger.Warn(ctx, "file watcher error", zap.Error(err))

		case <-fire:
			fire = nil
			s.flush(ctx)
		}
	}
}

// Close stops a Syncer whose Run was never called.
func (s *Syncer) Close() error {
	return s.watcher.Close()
}

// handle records a change and reports whether anything became pending.
func (s *Syncer) handle(ctx context.Context, event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return false
	}

	info, err := os.Stat(event.Name)
	if err != nil {
		return false
	}
	if info.IsDir() {
		if !event.Has(fsnotify.Create) {
			return false
		}
		// Files can land in a new directory before it is watched.
		if err := s.addTree(event.Name, true); err != nil {
			s.logger.Warn(ctx, "failed to watch new directory", zap.String("path", event.Name), zap.Error(err))
		}
		return len(s.pending) > 0
	}
	return s.enqueue(event.Name, info)
}

// enqueue adds a regular file to the pending set.
func (s *Syncer) enqueue(path string, info fs.FileInfo) bool {
	if !info.Mode().IsRegular() || ignored(filepath.Base(path)) {
		return false
	}
	rel, err := filepath.Rel(s.root, path)
	if err != nil || s.exclude.Match(filepath.ToSlash(rel), false) {
		return false
	}
	s.pending[filepath.ToSlash(rel)] = struct{}{}
	s.metrics.Pending.Set(float64(len(s.pending)))
	return true
}

// addTree watches dir and its subdirectories. With collect set, files
// already inside are queued too.
func (s *Syncer) addTree(dir string, collect bool) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != s.root && s.skipDir(path, d.Name()) {
				return filepath.SkipDir
			}
			if err := s.watcher.Add(path); err != nil {
				return fmt.Errorf("watching %s: %w", path, err)
			}
			return nil
		}
		if collect {
			if info, err := d.Info(); err == nil {
				s.enqueue(path, info)
			}
		}
		return nil
	})
}

// flush uploads every pending file in one request.
func (s *Syncer) flush(ctx context.Context) {
	names := make([]string, 0, len(s.pending))
	for name := range s.pending {
		names = append(names, name)
	}
	sort.Strings(names)
	clear(s.pending)
	s.metrics.Pending.Set(0)

	uploads := make([]hosting.Upload, 0, len(names))
	sent := make([]string, 0, len(names))
	for _, name := range names {
		u, err := hosting.UploadFromFile(filepath.Join(s.root, filepath.FromSlash(name)), name)
		if err != nil {
			s.logger.Debug(ctx, "skipping vanished file", zap.String("file", name), zap.Error(err))
			continue
		}
		uploads = append(uploads, u)
		sent = append(sent, name)
	}
	if len(uploads) == 0 {
		return
	}

	result, err := s.api.UploadFiles(ctx, s.projectID, uploads)
	batch := Batch{Files: sent, Result: result, Err: err}
	if err != nil {
		s.metrics.Batches.WithLabelValues("failure").Inc()
		s.logger.Error(ctx, "sync upload failed", zap.Int("files", len(sent)), zap.Error(err))
	} else {
		s.metrics.Batches.WithLabelValues("success").Inc()
		s.metrics.FilesUploaded.Add(float64(len(result.Uploaded)))
		s.logger.Info(ctx, "synced files",
			zap.Int("files", len(result.Uploaded)),
			zap.Int64("bytes", result.TotalSize),
		)
	}
	if s.onBatch != nil {
		s.onBatch(batch)
	}
}

// skipDir reports whether the directory at path is left unwatched.
func (s *Syncer) skipDir(path, name string) bool {
	if ignored(name) {
		return true
	}
	rel, err := filepath.Rel(s.root, path)
	return err == nil && s.exclude.Match(filepath.ToSlash(rel), true)
}

// ignored matches hidden files and common editor temporaries.
func ignored(name string) bool {
	return strings.HasPrefix(name, ".") ||
		strings.HasSuffix(name, "~") ||
		strings.HasSuffix(name, ".swp") ||
		strings.HasSuffix(name, ".tmp")
}
