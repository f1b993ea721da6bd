package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/iWorld-y/covid_radar/app/covid_radar/pkg/model"
)

// Dialect 区分 SQL 方言
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// SQLStore 基于 database/sql 的存储，Observation 以校验过的 JSON 保存
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

var _ Store = (*SQLStore)(nil)

// NewSQLStore 打开数据库并初始化表结构
func NewSQLStore(ctx context.Context, dialect Dialect, dsn string) (*SQLStore, error) {
	db, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	if dialect == DialectSQLite {
		// 单连接：内存库每个连接都是独立的库，文件库也只有一个写者
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &SQLStore{db: db, dialect: dialect, now: time.Now}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) initSchema(ctx context.Context) error {
	seq, payload := "BIGSERIAL PRIMARY KEY", "JSONB"
	if s.dialect == DialectSQLite {
		seq, payload = "INTEGER PRIMARY KEY AUTOINCREMENT", "TEXT"
	}
	queries := []string{
		`CREATE TABLE IF NOT EXISTS latest_snapshots (
			source_key TEXT PRIMARY KEY,
			payload ` + payload + ` NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS observation_history (
			seq ` + seq + `,
			id TEXT NOT NULL UNIQUE,
			source_key TEXT NOT NULL,
			payload ` + payload + ` NOT NULL,
			recorded_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_observation_history_source ON observation_history (source_key, seq)`,
	}

	for _, query := range queries {
		if _, err := s.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query %s: %w", query, err)
		}
	}
	return nil
}

var placeholder = regexp.MustCompile(`\$\d+`)

// bind 把 $n 占位符改写为当前方言的写法；查询中的占位符按顺序各出现一次
func (s *SQLStore) bind(query string) string {
	if s.dialect == DialectSQLite {
		return placeholder.ReplaceAllString(query, "?")
	}
	return query
}

func (s *SQLStore) ReadLatest(ctx context.Context, key string) (*model.Observation, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, s.bind(`SELECT payload FROM latest_snapshots WHERE source_key = $1`), key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read latest snapshot: %w", err)
	}
	obs, err := model.Decode(payload)
	if err != nil {
		return nil, fmt.Errorf("latest snapshot %q: %w", key, err)
	}
	return obs, nil
}

func (s *SQLStore) WriteLatest(ctx context.Context, key string, obs model.Observation) error {
	payload, err := model.Encode(obs)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, s.bind(`
		INSERT INTO latest_snapshots (source_key, payload, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (source_key) DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`),
		key, string(payload), s.now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to write latest snapshot: %w", err)
	}
	return nil
}

func (s *SQLStore) AppendHistory(ctx context.Context, key string, obs model.Observation) error {
	payload, err := model.Encode(obs)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, s.bind(`
		INSERT INTO observation_history (id, source_key, payload, recorded_at)
		VALUES ($1, $2, $3, $4)`),
		uuid.NewString(), key, string(payload), s.now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to append history: %w", err)
	}
	return nil
}

func (s *SQLStore) ListHistory(ctx context.Context, key string, limit int) ([]model.HistoryEntry, error) {
	query := `SELECT id, source_key, payload, recorded_at FROM observation_history WHERE source_key = $1 ORDER BY seq DESC`
	args := []any{key}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, s.bind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	var entries []model.HistoryEntry
	for rows.Next() {
		var (
			e          model.HistoryEntry
			payload    []byte
			recordedAt string
		)
		if err := rows.Scan(&e.ID, &e.SourceKey, &payload, &recordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history: %w", err)
		}
		obs, err := model.Decode(payload)
		if err != nil {
			return nil, fmt.Errorf("history entry %s: %w", e.ID, err)
		}
		e.Observation = *obs
		if e.RecordedAt, err = time.Parse(time.RFC3339Nano, recordedAt); err != nil {
			return nil, fmt.Errorf("history entry %s: bad recorded_at %q: %w", e.ID, recordedAt, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
