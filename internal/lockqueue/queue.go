// Package lockqueue maintains the persistent queue of posts awaiting
// their lock deadline. Entries are post IDs scored by creation time in
// unix milliseconds; everything else about a post is fetched live at
// processing time so flair and lock state are never stale.
package lockqueue

import (
	"context"
	"time"

	"lockbot/internal/storage"
)

// Key is the sorted-set key holding pending post IDs.
const Key = "post_lock_queue"

type Queue struct {
	store storage.Store
}

func New(store storage.Store) *Queue {
	return &Queue{store: store}
}

// Enqueue inserts or re-scores a post. Enqueuing the same ID twice
// leaves exactly one entry carrying the latest score.
func (q *Queue) Enqueue(ctx context.Context, postID string, createdAt time.Time) error {
	return q.store.ZAdd(ctx, Key, storage.ZMember{Member: postID, Score: createdAt.UnixMilli()})
}

// EnqueueAll batches a set of posts in one store round trip. Used by
// backlog seeding.
func (q *Queue) EnqueueAll(ctx context.Context, members []storage.ZMember) error {
	return q.store.ZAdd(ctx, Key, members...)
}

// Due returns up to limit posts created at or before cutoff, earliest
// first.
func (q *Queue) Due(ctx context.Context, cutoff time.Time, limit int) ([]storage.ZMember, error) {
	return q.store.ZRangeByScore(ctx, Key, 0, cutoff.UnixMilli(), limit)
}

// PeekEarliest returns the single earliest pending post, or nil when the
// queue is empty. The reconciler uses this to find the next due time
// without pulling a batch.
func (q *Queue) PeekEarliest(ctx context.Context) (*storage.ZMember, error) {
	ms, err := q.store.ZRangeByRank(ctx, Key, 0, 0)
	if err != nil {
		return nil, err
	}
	if len(ms) == 0 {
		return nil, nil
	}
	m := ms[0]
	return &m, nil
}

// Remove drops the given post IDs. Absent IDs are ignored.
func (q *Queue) Remove(ctx context.Context, postIDs []string) error {
	if len(postIDs) == 0 {
		return nil
	}
	return q.store.ZRem(ctx, Key, postIDs)
}
