// Package stream tails a file that a test runner rewrites while it runs.
// Every change publishes the whole current content, so it is only suitable
// for producers that rewrite the file rather than append to it.
package stream

import (
	"context"
	"errors"
	"io"
	"iter"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/semaphore"

	"github.com/hugo-lorenzo-mato/jestbridge/internal/core"
	"github.com/hugo-lorenzo-mato/jestbridge/internal/fsutil"
	"github.com/hugo-lorenzo-mato/jestbridge/internal/logging"
)

// ErrStopped is returned by Next once Stop was called and the backlog is drained.
var ErrStopped = core.ErrState(core.CodeStreamStopped, "stream stopped")

// Option configures a Stream.
type Option func(*Stream)

// WithLogger sets the logger for stream diagnostics.
func WithLogger(l *logging.Logger) Option {
	return func(s *Stream) {
		s.logger = l
	}
}

// WithDebounce coalesces change notifications arriving within d into a single
// read. Zero reads on every notification.
func WithDebounce(d time.Duration) Option {
	return func(s *Stream) {
		s.debounce = d
	}
}

// Stream is one live subscription to a file's content. The descriptor and the
// watcher belong to the stream and are released by the background task after
// Stop.
type Stream struct {
	path     string
	logger   *logging.Logger
	debounce time.Duration

	file    *os.File
	watcher *fsnotify.Watcher
	permit  *semaphore.Weighted
	queue   *queue

	ctx    context.Context
	cancel context.CancelFunc
	stop   sync.Once
	fatal  chan error
	done   chan struct{}

	mu      sync.Mutex
	closing bool
	timer   *time.Timer
	reads   sync.WaitGroup
	err     error
}

// Open starts streaming path. The file's content at open time is read before
// Open returns, so the first Next call yields it even if the file never
// changes again.
func Open(ctx context.Context, path string, opts ...Option) (*Stream, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, core.ErrValidation(core.CodeInvalidPath, "resolving stream path").WithCause(err)
	}

	s := &Stream{
		path:   abs,
		logger: logging.NewNop(),
		permit: semaphore.NewWeighted(1),
		queue:  newQueue(),
		fatal:  make(chan error, 1),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	file, err := fsutil.OpenScoped(abs)
	if err != nil {
		return nil, err
	}
	s.file = file

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		_ = file.Close()
		return nil, core.ErrIO(core.CodeWatchFailed, "creating watcher").WithCause(err)
	}
	// The parent directory is watched so that a producer replacing the file
	// through a rename is seen as well as one rewriting it in place.
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		_ = watcher.Close()
		_ = file.Close()
		return nil, core.ErrIO(core.CodeWatchFailed, "watching directory").
			WithCause(err).
			WithDetail("path", filepath.Dir(abs))
	}
	s.watcher = watcher
	s.ctx, s.cancel = context.WithCancel(ctx)

	if err := s.readAndPublish(); err != nil {
		s.cancel()
		_ = watcher.Close()
		_ = file.Close()
		return nil, err
	}

	go s.run()

	s.logger.Debug("stream opened", "path", abs)
	return s, nil
}

// Path returns the absolute path being streamed.
func (s *Stream) Path() string {
	return s.path
}

// Next blocks until a snapshot is available and returns it. Snapshots are
// delivered in the order they were read. After Stop or a fatal I/O error,
// queued snapshots are still returned before the terminal error.
func (s *Stream) Next(ctx context.Context) ([]byte, error) {
	return s.queue.pop(ctx)
}

// Chunks iterates over snapshots until the stream ends. A clean stop ends
// the iteration silently; any other terminal error is yielded once.
func (s *Stream) Chunks(ctx context.Context) iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		for {
			chunk, err := s.Next(ctx)
			if err != nil {
				if !errors.Is(err, ErrStopped) {
					yield(nil, err)
				}
				return
			}
			if !yield(chunk, nil) {
				return
			}
		}
	}
}

// Stop asks the background task to release the watcher and the descriptor.
// It returns immediately; Done is closed once teardown completes. Calling
// Stop more than once is a no-op.
func (s *Stream) Stop() error {
	s.stop.Do(s.cancel)
	return nil
}

// Done is closed after the stream has released its resources.
func (s *Stream) Done() <-chan struct{} {
	return s.done
}

// Err returns the fatal error that ended the stream, or nil after a clean stop.
func (s *Stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Stream) run() {
	defer close(s.done)

	for {
		select {
		case <-s.ctx.Done():
			s.teardown(nil)
			return

		case err := <-s.fatal:
			s.teardown(err)
			return

		case event, ok := <-s.watcher.Events:
			if !ok {
				s.teardown(core.ErrIO(core.CodeWatchFailed, "watcher closed unexpectedly"))
				return
			}
			if s.relevant(event) {
				s.trigger()
			}

		case err, ok := <-s.watcher.Errors:
			if !ok {
				s.teardown(core.ErrIO(core.CodeWatchFailed, "watcher closed unexpectedly"))
				return
			}
			s.teardown(core.ErrIO(core.CodeWatchFailed, "watching file").WithCause(err))
			return
		}
	}
}

func (s *Stream) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != s.path {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create) != 0
}

func (s *Stream) trigger() {
	if s.debounce <= 0 {
		s.spawnRead()
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.debounce, s.spawnRead)
}

// spawnRead starts one read-and-publish. Reads run concurrently with the
// watch loop but are serialised by the permit.
func (s *Stream) spawnRead() {
	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		return
	}
	s.reads.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.reads.Done()
		if err := s.readAndPublish(); err != nil {
			select {
			case s.fatal <- err:
			default:
			}
		}
	}()
}

// readAndPublish re-stats the file and publishes its whole content from
// offset zero.
func (s *Stream) readAndPublish() error {
	if err := s.permit.Acquire(s.ctx, 1); err != nil {
		// Stopping; the teardown owns the descriptor from here on.
		return nil
	}
	defer s.permit.Release(1)

	skip, err := s.refreshDescriptor()
	if err != nil {
		return err
	}
	if skip {
		return nil
	}

	info, err := s.file.Stat()
	if err != nil {
		return core.ErrIO(core.CodeStatFailed, "stat streamed file").WithCause(err).WithDetail("path", s.path)
	}

	buf := make([]byte, info.Size())
	n, err := s.file.ReadAt(buf, 0)
	if err != nil && !errors.Is(err, io.EOF) {
		return core.ErrIO(core.CodeReadFailed, "reading streamed file").WithCause(err).WithDetail("path", s.path)
	}

	s.queue.push(buf[:n])
	s.logger.Debug("stream snapshot published", "path", s.path, "bytes", n)
	return nil
}

// refreshDescriptor reopens the file when the path now names a different
// file than the one held open, which is what an atomic rename-over leaves
// behind. It reports skip when the path is momentarily absent.
func (s *Stream) refreshDescriptor() (bool, error) {
	pathInfo, err := os.Stat(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return true, nil
		}
		return false, core.ErrIO(core.CodeStatFailed, "stat streamed path").WithCause(err).WithDetail("path", s.path)
	}

	fdInfo, err := s.file.Stat()
	if err != nil {
		return false, core.ErrIO(core.CodeStatFailed, "stat streamed file").WithCause(err).WithDetail("path", s.path)
	}
	if os.SameFile(pathInfo, fdInfo) {
		return false, nil
	}

	replacement, err := fsutil.OpenScoped(s.path)
	if err != nil {
		return false, err
	}
	if err := s.file.Close(); err != nil {
		_ = replacement.Close()
		return false, core.ErrIO(core.CodeCloseFailed, "closing replaced descriptor").WithCause(err).WithDetail("path", s.path)
	}
	s.file = replacement
	s.logger.Debug("stream descriptor reopened", "path", s.path)
	return false, nil
}

func (s *Stream) teardown(cause error) {
	s.mu.Lock()
	s.closing = true
	if s.timer != nil {
		s.timer.Stop()
	}
	s.mu.Unlock()

	s.cancel()
	watchErr := s.watcher.Close()
	s.reads.Wait()
	closeErr := s.file.Close()

	err := cause
	if err == nil && closeErr != nil {
		err = core.ErrIO(core.CodeCloseFailed, "closing streamed file").WithCause(closeErr).WithDetail("path", s.path)
	}
	if err == nil && watchErr != nil {
		err = core.ErrIO(core.CodeWatchFailed, "closing watcher").WithCause(watchErr)
	}

	if err != nil {
		s.logger.Error("stream failed", "path", s.path, "error", err)
		s.mu.Lock()
		s.err = err
		s.mu.Unlock()
		s.queue.close(err)
		return
	}

	s.logger.Debug("stream stopped", "path", s.path)
	s.queue.close(ErrStopped)
}
