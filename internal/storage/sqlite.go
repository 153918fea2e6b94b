package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"lockbot/pkg/logx"
)

//go:embed migrations.sql
var migrationsFS embed.FS

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if cfg.BusyTimeout > 0 {
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeout.Milliseconds()))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	st := &sqliteStore{db: db, log: log}
	if err := st.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

func (s *sqliteStore) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteStore) Set(ctx context.Context, key, value string) error {
	if s == nil || s.db == nil {
		return ErrClosed
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv(key, value) VALUES(?,?)
		 ON CONFLICT(key) DO UPDATE SET value=excluded.value`,
		key, value,
	)
	return err
}

func (s *sqliteStore) Get(ctx context.Context, key string) (string, bool, error) {
	if s == nil || s.db == nil {
		return "", false, ErrClosed
	}
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *sqliteStore) ZAdd(ctx context.Context, key string, members ...ZMember) error {
	if s == nil || s.db == nil {
		return ErrClosed
	}
	if len(members) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO zset(key, member, score) VALUES(?,?,?)
		 ON CONFLICT(key, member) DO UPDATE SET score=excluded.score`,
	)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	for _, m := range members {
		if _, err := stmt.ExecContext(ctx, key, m.Member, m.Score); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *sqliteStore) ZRangeByScore(ctx context.Context, key string, min, max int64, limit int) ([]ZMember, error) {
	if s == nil || s.db == nil {
		return nil, ErrClosed
	}
	if limit <= 0 {
		limit = -1 // sqlite: no limit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT member, score FROM zset
		 WHERE key = ? AND score >= ? AND score <= ?
		 ORDER BY score, member
		 LIMIT ?`,
		key, min, max, limit,
	)
	if err != nil {
		return nil, err
	}
	return scanMembers(rows)
}

func (s *sqliteStore) ZRangeByRank(ctx context.Context, key string, start, stop int) ([]ZMember, error) {
	if s == nil || s.db == nil {
		return nil, ErrClosed
	}
	if start < 0 || stop < start {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT member, score FROM zset
		 WHERE key = ?
		 ORDER BY score, member
		 LIMIT ? OFFSET ?`,
		key, stop-start+1, start,
	)
	if err != nil {
		return nil, err
	}
	return scanMembers(rows)
}

func (s *sqliteStore) ZRem(ctx context.Context, key string, members []string) error {
	if s == nil || s.db == nil {
		return ErrClosed
	}
	if len(members) == 0 {
		return nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(members)), ",")
	args := make([]any, 0, len(members)+1)
	args = append(args, key)
	for _, m := range members {
		args = append(args, m)
	}
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM zset WHERE key = ? AND member IN (`+placeholders+`)`,
		args...,
	)
	return err
}

func scanMembers(rows *sql.Rows) ([]ZMember, error) {
	defer func() { _ = rows.Close() }()
	var out []ZMember
	for rows.Next() {
		var m ZMember
		if err := rows.Scan(&m.Member, &m.Score); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
