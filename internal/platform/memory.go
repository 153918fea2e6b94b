package platform

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Memory is an in-process Client used by tests. Seed the exported maps
// before use; mutate nothing concurrently with calls unless you hold no
// expectations about ordering.
type Memory struct {
	mu sync.Mutex

	Posts      map[string]*Post
	Mods       []string
	UserFlairs map[string]*UserFlair // username -> flair (nil value = user exists, no flair)
	Missing    map[string]bool       // usernames resolving to ErrNotFound

	LockFail map[string]bool // post IDs whose Lock call fails
	FlairErr error           // forced SetPostFlair failure

	LockCalls      []string
	FlairCalls     map[string]string // post ID -> template applied
	ModeratorCalls int
	UserFlairCalls int
}

func NewMemory() *Memory {
	return &Memory{
		Posts:      map[string]*Post{},
		UserFlairs: map[string]*UserFlair{},
		Missing:    map[string]bool{},
		LockFail:   map[string]bool{},
		FlairCalls: map[string]string{},
	}
}

func (m *Memory) AddPost(p *Post) *Memory {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Posts[p.ID] = p
	return m
}

func (m *Memory) Post(_ context.Context, id string) (*Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.Posts[id]
	if !ok {
		return nil, fmt.Errorf("%w: post %s", ErrNotFound, id)
	}
	cp := *p
	return &cp, nil
}

func (m *Memory) Moderators(context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ModeratorCalls++
	return append([]string(nil), m.Mods...), nil
}

func (m *Memory) UserFlair(_ context.Context, username string) (*UserFlair, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UserFlairCalls++
	if m.Missing[username] {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, username)
	}
	return m.UserFlairs[username], nil
}

func (m *Memory) RecentPosts(_ context.Context, limit int) ([]*Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	posts := make([]*Post, 0, len(m.Posts))
	for _, p := range m.Posts {
		cp := *p
		posts = append(posts, &cp)
	}
	sort.Slice(posts, func(i, j int) bool { return posts[i].CreatedAt.After(posts[j].CreatedAt) })
	if limit > 0 && len(posts) > limit {
		posts = posts[:limit]
	}
	return posts, nil
}

func (m *Memory) Lock(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LockFail[id] {
		return fmt.Errorf("platform: lock %s: service unavailable", id)
	}
	m.LockCalls = append(m.LockCalls, id)
	if p, ok := m.Posts[id]; ok {
		p.Locked = true
	}
	return nil
}

func (m *Memory) SetPostFlair(_ context.Context, id, templateID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FlairErr != nil {
		return m.FlairErr
	}
	m.FlairCalls[id] = templateID
	return nil
}
