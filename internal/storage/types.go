package storage

import (
	"context"
	"errors"
	"time"
)

var ErrClosed = errors.New("storage closed")

// Config configures storage.
//
// Driver values:
//   - "sqlite": SQLite database file (default)
//   - "memory": process-local, for tests
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// ZMember is one entry of a sorted set: an opaque member plus its
// integer score. The queue stores post IDs scored by creation time in
// unix milliseconds.
type ZMember struct {
	Member string
	Score  int64
}

// Store is the persistence API used by the queue and the lockdown
// service. Mutations are idempotent: ZAdd upserts the score of an
// existing member, ZRem ignores members that are already gone.
type Store interface {
	Set(ctx context.Context, key, value string) error
	// Get returns (value, ok, err); ok is false when the key is unset.
	Get(ctx context.Context, key string) (string, bool, error)

	ZAdd(ctx context.Context, key string, members ...ZMember) error
	// ZRangeByScore returns members with min <= score <= max, ascending
	// by score. limit <= 0 means unbounded. Same-score members keep a
	// stable order (the driver's tiebreak, not part of the contract).
	ZRangeByScore(ctx context.Context, key string, min, max int64, limit int) ([]ZMember, error)
	// ZRangeByRank returns members by ascending-score rank, inclusive;
	// rank 0 is the lowest score. Used to peek the earliest entry.
	ZRangeByRank(ctx context.Context, key string, start, stop int) ([]ZMember, error)
	ZRem(ctx context.Context, key string, members []string) error

	Close() error
}
