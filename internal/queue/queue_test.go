package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func task(id string, priority int) *Task {
	return &Task{ID: id, URL: "https://example.com/" + id + ".html", Priority: priority, CreatedAt: time.Now()}
}

func TestInMemoryQueue_PopsByPriority(t *testing.T) {
	q := NewInMemoryQueue()
	require.NoError(t, q.Push(task("low", 0)))
	require.NoError(t, q.Push(task("high", 5)))
	require.NoError(t, q.Push(task("mid", 2)))

	ctx := context.Background()
	for _, want := range []string{"high", "mid", "low"} {
		got, err := q.Pop(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, got.ID)
	}
}

func TestInMemoryQueue_ClosedQueueDrainsThenReports(t *testing.T) {
	q := NewInMemoryQueue()
	require.NoError(t, q.Push(task("a", 0)))
	require.NoError(t, q.Close())

	assert.ErrorIs(t, q.Push(task("b", 0)), ErrQueueClosed)

	got, err := q.Pop(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a", got.ID)

	_, err = q.Pop(context.Background())
	assert.ErrorIs(t, err, ErrQueueClosed)
}

func TestBatchQueue_PopBatchRespectsBatchSize(t *testing.T) {
	q := NewInMemoryQueue()
	b := NewBatchQueue(q, 2)

	require.NoError(t, b.PushBatch([]*Task{task("a", 0), task("b", 0), task("c", 0)}))
	require.NoError(t, q.Close())

	ctx := context.Background()

	batch, err := b.PopBatch(ctx)
	require.NoError(t, err)
	require.Len(t, batch, 2)
	assert.Equal(t, "a", batch[0].ID)
	assert.Equal(t, "b", batch[1].ID)

	batch, err = b.PopBatch(ctx)
	require.NoError(t, err)
	require.Len(t, batch, 1, "final short batch carries the remainder")
	assert.Equal(t, "c", batch[0].ID)

	_, err = b.PopBatch(ctx)
	assert.ErrorIs(t, err, ErrQueueEmpty, "a drained closed queue ends the batch loop")
}
