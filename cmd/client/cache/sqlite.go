// Package cache 는 마지막으로 받은 분석 데이터를 로컬 SQLite 에 보관한다.
// 네트워크가 끊겼을 때 "오프라인/이전 데이터" 를 보여주기 위한 용도다.
package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
    key        TEXT PRIMARY KEY,
    payload    TEXT NOT NULL,
    fetched_at INTEGER NOT NULL
);`

type Store struct {
	db  *sql.DB
	now func() time.Time
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	// sqlite 는 쓰기 연결이 하나뿐이다.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Put 은 value 를 JSON 으로 저장한다. 같은 key 는 덮어쓴다.
func (s *Store) Put(ctx context.Context, key string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache put %s: %w", key, err)
	}

	_, err = s.db.ExecContext(ctx, `
        INSERT INTO snapshots (key, payload, fetched_at)
        VALUES (?, ?, ?)
        ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, fetched_at = excluded.fetched_at`,
		key, string(payload), s.now().UnixNano())
	if err != nil {
		return fmt.Errorf("cache put %s: %w", key, err)
	}
	return nil
}

// Get 은 key 의 스냅샷을 out 에 디코딩한다. 없으면 ok 가 false.
func (s *Store) Get(ctx context.Context, key string, out any) (fetchedAt time.Time, ok bool, err error) {
	var (
		payload string
		nanos   int64
	)
	err = s.db.QueryRowContext(ctx, `SELECT payload, fetched_at FROM snapshots WHERE key = ?`, key).Scan(&payload, &nanos)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("cache get %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(payload), out); err != nil {
		return time.Time{}, false, fmt.Errorf("cache decode %s: %w", key, err)
	}
	return time.Unix(0, nanos), true, nil
}

// Purge 는 모든 스냅샷을 지운다. 로그아웃이나 계좌 연동 해제 시 호출한다.
func (s *Store) Purge(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM snapshots`)
	return err
}
