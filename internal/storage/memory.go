package storage

import (
	"context"
	"sort"
	"sync"
)

// memoryStore mirrors the sqlite driver's semantics without a file on
// disk. Used by tests and available via driver "memory".
type memoryStore struct {
	mu   sync.Mutex
	kv   map[string]string
	zset map[string]map[string]int64 // key -> member -> score
}

func NewMemory() Store {
	return &memoryStore{
		kv:   map[string]string{},
		zset: map[string]map[string]int64{},
	}
}

func (s *memoryStore) Close() error { return nil }

func (s *memoryStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.kv[key] = value
	return nil
}

func (s *memoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.kv[key]
	return v, ok, nil
}

func (s *memoryStore) ZAdd(_ context.Context, key string, members ...ZMember) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	set := s.zset[key]
	if set == nil {
		set = map[string]int64{}
		s.zset[key] = set
	}
	for _, m := range members {
		set[m.Member] = m.Score
	}
	return nil
}

func (s *memoryStore) ZRangeByScore(_ context.Context, key string, min, max int64, limit int) ([]ZMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []ZMember
	for member, score := range s.zset[key] {
		if score >= min && score <= max {
			out = append(out, ZMember{Member: member, Score: score})
		}
	}
	sortMembers(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memoryStore) ZRangeByRank(_ context.Context, key string, start, stop int) ([]ZMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if start < 0 || stop < start {
		return nil, nil
	}
	var all []ZMember
	for member, score := range s.zset[key] {
		all = append(all, ZMember{Member: member, Score: score})
	}
	sortMembers(all)
	if start >= len(all) {
		return nil, nil
	}
	if stop >= len(all) {
		stop = len(all) - 1
	}
	return all[start : stop+1], nil
}

func (s *memoryStore) ZRem(_ context.Context, key string, members []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	set := s.zset[key]
	for _, m := range members {
		delete(set, m)
	}
	return nil
}

// sortMembers matches the sqlite driver's ORDER BY score, member so both
// drivers expose the same stable same-score ordering.
func sortMembers(ms []ZMember) {
	sort.Slice(ms, func(i, j int) bool {
		if ms[i].Score != ms[j].Score {
			return ms[i].Score < ms[j].Score
		}
		return ms[i].Member < ms[j].Member
	})
}
