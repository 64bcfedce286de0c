package services

import (
	"context"
	"sync"
	"time"

	"experiment-go/server/internal/storage"

	"go.uber.org/zap"
)

// FileReader reads back a locally stored session file.
type FileReader interface {
	Read(name string) ([]byte, error)
}

// Scheduler retries cloud uploads that failed when a session was submitted.
// The local file is the source of truth, so a retry always sends its latest
// content.
type Scheduler struct {
	log      *zap.Logger
	files    FileReader
	uploader storage.Uploader
	interval time.Duration

	mu      sync.Mutex
	pending map[string]struct{}
}

func NewScheduler(log *zap.Logger, files FileReader, uploader storage.Uploader, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Scheduler{
		log:      log,
		files:    files,
		uploader: uploader,
		interval: interval,
		pending:  make(map[string]struct{}),
	}
}

// Enqueue marks a file for upload on the next tick. Queuing the same file
// twice uploads it once.
func (s *Scheduler) Enqueue(name string) {
	s.mu.Lock()
	s.pending[name] = struct{}{}
	s.mu.Unlock()
	s.log.Info("Queued upload retry", zap.String("file", name))
}

// Pending returns the number of files waiting for upload.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Start runs the retry loop in a goroutine until ctx is cancelled. The
// returned channel is closed once the loop has exited.
func (s *Scheduler) Start(ctx context.Context) <-chan struct{} {
	s.log.Info("Starting upload retry scheduler...", zap.Duration("interval", s.interval))
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.log.Info("Upload retry scheduler stopped", zap.Int("pending", s.Pending()))
				return
			case <-ticker.C:
				s.RetryPending(ctx)
			}
		}
	}()
	return done
}

// RetryPending attempts every queued upload once. Files that fail again stay
// queued; files that can no longer be read are dropped.
func (s *Scheduler) RetryPending(ctx context.Context) {
	s.mu.Lock()
	names := make([]string, 0, len(s.pending))
	for name := range s.pending {
		names = append(names, name)
	}
	s.mu.Unlock()

	if len(names) == 0 {
		return
	}
	s.log.Debug("Retrying uploads", zap.Int("count", len(names)))

	for _, name := range names {
		if ctx.Err() != nil {
			return
		}

		content, err := s.files.Read(name)
		if err != nil {
			s.log.Error("Dropping upload retry, local file unreadable", zap.String("file", name), zap.Error(err))
			s.remove(name)
			continue
		}

		if err := s.uploader.Upload(ctx, name, content); err != nil {
			s.log.Warn("Upload retry failed", zap.String("file", name), zap.Error(err))
			continue
		}
		s.remove(name)
		s.log.Info("Upload retry succeeded", zap.String("file", name))
	}
}

func (s *Scheduler) remove(name string) {
	s.mu.Lock()
	delete(s.pending, name)
	s.mu.Unlock()
}
