package attachment

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/garyjia/books-report/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockFetcher records downloads and fails the ids listed in failIDs
type MockFetcher struct {
	mu      sync.Mutex
	seen    []string
	failIDs map[string]bool
	block   bool
}

func (m *MockFetcher) Download(ctx context.Context, intent models.AttachmentIntent) (*models.AttachmentFile, error) {
	m.mu.Lock()
	m.seen = append(m.seen, intent.RecordID)
	fail := m.failIDs[intent.RecordID]
	block := m.block
	m.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if fail {
		return nil, errors.New("download failed")
	}
	return &models.AttachmentFile{Intent: intent, FilePath: "/tmp/" + intent.RecordID}, nil
}

func (m *MockFetcher) Seen() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.seen...)
}

func intent(id string) models.AttachmentIntent {
	return models.AttachmentIntent{Type: models.RecordTypeExpense, RecordID: id, BaseName: id}
}

func TestQueue_DrainsBacklogOnClose(t *testing.T) {
	fetcher := &MockFetcher{failIDs: map[string]bool{"e-3": true}}
	q := NewQueue(fetcher, 2, zap.NewNop())
	require.NoError(t, q.Start(context.Background()))

	for _, id := range []string{"e-1", "e-2", "e-3", "e-4"} {
		assert.True(t, q.Enqueue(intent(id)))
	}

	stats := q.Close(context.Background())

	assert.Equal(t, Stats{Enqueued: 4, Completed: 3, Failed: 1}, stats)
	assert.ElementsMatch(t, []string{"e-1", "e-2", "e-3", "e-4"}, fetcher.Seen())
	assert.Len(t, q.Files(), 3)
}

func TestQueue_EnqueueAfterCloseIsRejected(t *testing.T) {
	q := NewQueue(&MockFetcher{}, 1, zap.NewNop())
	require.NoError(t, q.Start(context.Background()))
	q.Close(context.Background())

	assert.False(t, q.Enqueue(intent("late")))
	assert.ErrorIs(t, q.Start(context.Background()), ErrQueueClosed)
}

func TestQueue_CloseAbandonsAfterGracePeriod(t *testing.T) {
	fetcher := &MockFetcher{block: true}
	q := NewQueue(fetcher, 1, zap.NewNop())
	require.NoError(t, q.Start(context.Background()))

	q.Enqueue(intent("e-1"))
	q.Enqueue(intent("e-2"))
	q.Enqueue(intent("e-3"))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	stats := q.Close(ctx)

	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, 3, stats.Enqueued)
	assert.Equal(t, 0, stats.Completed)
	assert.Equal(t, 3, stats.Abandoned+stats.Failed)
	assert.GreaterOrEqual(t, stats.Abandoned, 2)
}

func TestQueue_CloseWithoutStart(t *testing.T) {
	fetcher := &MockFetcher{}
	q := NewQueue(fetcher, 1, zap.NewNop())
	q.Enqueue(intent("e-1"))

	stats := q.Close(context.Background())

	assert.Equal(t, Stats{Enqueued: 1, Abandoned: 1}, stats)
	assert.Empty(t, fetcher.Seen())
}
