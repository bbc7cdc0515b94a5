package attachment

import (
	"context"
	"sync"
	"time"

	"github.com/garyjia/books-report/internal/models"
	"go.uber.org/zap"
)

// Fetcher performs a single download
type Fetcher interface {
	Download(ctx context.Context, intent models.AttachmentIntent) (*models.AttachmentFile, error)
}

// Stats summarises what the queue did during a run
type Stats struct {
	Enqueued  int
	Completed int
	Failed    int
	Abandoned int
}

// Queue is a detached pool of download workers. Enqueue never blocks the
// caller; Close waits for the backlog until its context ends and abandons
// whatever is left.
type Queue struct {
	fetcher         Fetcher
	workers         int
	downloadTimeout time.Duration
	logger          *zap.Logger

	mu      sync.Mutex
	cond    *sync.Cond
	pending []models.AttachmentIntent
	started bool
	closed  bool
	stats   Stats
	files   []models.AttachmentFile

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewQueue creates a queue with the given number of workers
func NewQueue(fetcher Fetcher, workers int, logger *zap.Logger) *Queue {
	if workers < 1 {
		workers = 1
	}
	q := &Queue{
		fetcher:         fetcher,
		workers:         workers,
		downloadTimeout: 2 * time.Minute,
		logger:          logger,
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// SetDownloadTimeout bounds a single download (for testing)
func (q *Queue) SetDownloadTimeout(d time.Duration) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.downloadTimeout = d
}

// Start launches the workers. The queue is detached from ctx's deadline but
// follows its cancellation.
func (q *Queue) Start(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}
	if q.started {
		return nil
	}
	q.started = true
	q.ctx, q.cancel = context.WithCancel(ctx)

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.work(i)
	}

	q.logger.Debug("Attachment queue started", zap.Int("workers", q.workers))
	return nil
}

// Enqueue schedules a download. It returns false once the queue is closed.
func (q *Queue) Enqueue(intent models.AttachmentIntent) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.pending = append(q.pending, intent)
	q.stats.Enqueued++
	q.cond.Signal()
	return true
}

// Close stops accepting work and drains the backlog until ctx is done.
// Anything still pending or in flight at that point is abandoned.
func (q *Queue) Close(ctx context.Context) Stats {
	q.mu.Lock()
	q.closed = true
	started := q.started
	q.cond.Broadcast()
	q.mu.Unlock()

	if !started {
		q.mu.Lock()
		defer q.mu.Unlock()
		q.stats.Abandoned += len(q.pending)
		q.pending = nil
		return q.stats
	}

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		q.mu.Lock()
		q.stats.Abandoned += len(q.pending)
		left := len(q.pending)
		q.pending = nil
		q.mu.Unlock()

		q.logger.Warn("Abandoning attachment downloads",
			zap.Int("pending", left),
			zap.Error(ctx.Err()))
		q.cancel()
		<-done
	}
	q.cancel()

	q.mu.Lock()
	defer q.mu.Unlock()
	return q.stats
}

// Files returns the attachments written so far
func (q *Queue) Files() []models.AttachmentFile {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]models.AttachmentFile(nil), q.files...)
}

func (q *Queue) work(id int) {
	defer q.wg.Done()

	for {
		intent, ok := q.next()
		if !ok {
			return
		}

		if q.ctx.Err() != nil {
			q.record(nil, q.ctx.Err(), true)
			continue
		}

		ctx, cancel := context.WithTimeout(q.ctx, q.downloadTimeout)
		file, err := q.fetcher.Download(ctx, intent)
		cancel()

		if err != nil {
			q.logger.Warn("Failed to download attachment",
				zap.Int("worker", id),
				zap.String("record_type", string(intent.Type)),
				zap.String("record_id", intent.RecordID),
				zap.Error(err))
		}
		q.record(file, err, q.ctx.Err() != nil)
	}
}

// next blocks until an intent is available or the queue is closed and empty
func (q *Queue) next() (models.AttachmentIntent, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.pending) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.pending) == 0 {
		return models.AttachmentIntent{}, false
	}

	intent := q.pending[0]
	q.pending = q.pending[1:]
	return intent, true
}

func (q *Queue) record(file *models.AttachmentFile, err error, abandoned bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	switch {
	case err == nil && file != nil:
		q.stats.Completed++
		q.files = append(q.files, *file)
	case abandoned:
		q.stats.Abandoned++
	default:
		q.stats.Failed++
	}
}
