package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"lockbot/pkg/logx"
)

func openDrivers(t *testing.T) map[string]Store {
	t.Helper()
	sqlite, err := Open(Config{
		Driver:      "sqlite",
		Path:        filepath.Join(t.TempDir(), "lockbot.db"),
		BusyTimeout: time.Second,
	}, logx.Nop())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	return map[string]Store{
		"memory": NewMemory(),
		"sqlite": sqlite,
	}
}

func TestKV(t *testing.T) {
	ctx := context.Background()
	for name, st := range openDrivers(t) {
		t.Run(name, func(t *testing.T) {
			defer func() { _ = st.Close() }()

			if _, ok, err := st.Get(ctx, "cron"); err != nil || ok {
				t.Fatalf("Get on empty store: ok=%v err=%v", ok, err)
			}
			if err := st.Set(ctx, "cron", "30 4 * * *"); err != nil {
				t.Fatalf("Set: %v", err)
			}
			if err := st.Set(ctx, "cron", "15 9 * * *"); err != nil {
				t.Fatalf("Set overwrite: %v", err)
			}
			v, ok, err := st.Get(ctx, "cron")
			if err != nil || !ok {
				t.Fatalf("Get: ok=%v err=%v", ok, err)
			}
			if v != "15 9 * * *" {
				t.Fatalf("Get = %q, want overwritten value", v)
			}
		})
	}
}

func TestZAddIdempotent(t *testing.T) {
	ctx := context.Background()
	for name, st := range openDrivers(t) {
		t.Run(name, func(t *testing.T) {
			defer func() { _ = st.Close() }()

			if err := st.ZAdd(ctx, "q", ZMember{Member: "p1", Score: 100}); err != nil {
				t.Fatalf("ZAdd: %v", err)
			}
			if err := st.ZAdd(ctx, "q", ZMember{Member: "p1", Score: 250}); err != nil {
				t.Fatalf("ZAdd rescore: %v", err)
			}

			got, err := st.ZRangeByScore(ctx, "q", 0, 1000, 0)
			if err != nil {
				t.Fatalf("ZRangeByScore: %v", err)
			}
			if len(got) != 1 {
				t.Fatalf("expected one entry after duplicate ZAdd, got %d", len(got))
			}
			if got[0].Member != "p1" || got[0].Score != 250 {
				t.Fatalf("entry = %+v, want p1 with latest score 250", got[0])
			}
		})
	}
}

func TestZRangeOrderingAndLimit(t *testing.T) {
	ctx := context.Background()
	for name, st := range openDrivers(t) {
		t.Run(name, func(t *testing.T) {
			defer func() { _ = st.Close() }()

			members := []ZMember{
				{Member: "p3", Score: 300},
				{Member: "p1", Score: 100},
				{Member: "p2", Score: 200},
				{Member: "p4", Score: 200}, // same score as p2
			}
			if err := st.ZAdd(ctx, "q", members...); err != nil {
				t.Fatalf("ZAdd: %v", err)
			}

			got, err := st.ZRangeByScore(ctx, "q", 0, 250, 0)
			if err != nil {
				t.Fatalf("ZRangeByScore: %v", err)
			}
			want := []string{"p1", "p2", "p4"}
			if len(got) != len(want) {
				t.Fatalf("got %d members, want %d", len(got), len(want))
			}
			for i, m := range got {
				if m.Member != want[i] {
					t.Fatalf("position %d = %s, want %s", i, m.Member, want[i])
				}
			}

			limited, err := st.ZRangeByScore(ctx, "q", 0, 1000, 2)
			if err != nil {
				t.Fatalf("ZRangeByScore limit: %v", err)
			}
			if len(limited) != 2 || limited[0].Member != "p1" {
				t.Fatalf("limited range = %+v, want first two by score", limited)
			}
		})
	}
}

func TestZRangeByRankPeek(t *testing.T) {
	ctx := context.Background()
	for name, st := range openDrivers(t) {
		t.Run(name, func(t *testing.T) {
			defer func() { _ = st.Close() }()

			if got, err := st.ZRangeByRank(ctx, "q", 0, 0); err != nil || len(got) != 0 {
				t.Fatalf("rank peek on empty set: %v %v", got, err)
			}
			if err := st.ZAdd(ctx, "q",
				ZMember{Member: "later", Score: 900},
				ZMember{Member: "earliest", Score: 50},
			); err != nil {
				t.Fatalf("ZAdd: %v", err)
			}
			got, err := st.ZRangeByRank(ctx, "q", 0, 0)
			if err != nil {
				t.Fatalf("ZRangeByRank: %v", err)
			}
			if len(got) != 1 || got[0].Member != "earliest" {
				t.Fatalf("rank 0 = %+v, want lowest-score member", got)
			}
		})
	}
}

func TestZRem(t *testing.T) {
	ctx := context.Background()
	for name, st := range openDrivers(t) {
		t.Run(name, func(t *testing.T) {
			defer func() { _ = st.Close() }()

			if err := st.ZAdd(ctx, "q",
				ZMember{Member: "p1", Score: 1},
				ZMember{Member: "p2", Score: 2},
			); err != nil {
				t.Fatalf("ZAdd: %v", err)
			}
			// Removing a mix of present and absent members must succeed.
			if err := st.ZRem(ctx, "q", []string{"p1", "ghost"}); err != nil {
				t.Fatalf("ZRem: %v", err)
			}
			got, err := st.ZRangeByScore(ctx, "q", 0, 100, 0)
			if err != nil {
				t.Fatalf("ZRangeByScore: %v", err)
			}
			if len(got) != 1 || got[0].Member != "p2" {
				t.Fatalf("after ZRem: %+v, want only p2", got)
			}
			if err := st.ZRem(ctx, "q", nil); err != nil {
				t.Fatalf("ZRem empty: %v", err)
			}
		})
	}
}
