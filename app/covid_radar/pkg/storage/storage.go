package storage

import (
	"context"
	"fmt"

	"github.com/iWorld-y/covid_radar/app/covid_radar/pkg/config"
	"github.com/iWorld-y/covid_radar/app/covid_radar/pkg/model"
)

// LatestStore 每个数据源一个槽位，保存最近一次观测
type LatestStore interface {
	// ReadLatest 读取最近一次观测，不存在时返回 nil, nil
	ReadLatest(ctx context.Context, key string) (*model.Observation, error)
	// WriteLatest 无条件覆盖最近一次观测
	WriteLatest(ctx context.Context, key string, obs model.Observation) error
}

// HistoryLog 只追加的历史日志
type HistoryLog interface {
	AppendHistory(ctx context.Context, key string, obs model.Observation) error
	// ListHistory 按写入顺序倒序返回，limit <= 0 表示全部
	ListHistory(ctx context.Context, key string, limit int) ([]model.HistoryEntry, error)
}

// Store 组合 latest 与 history 两种存储
type Store interface {
	LatestStore
	HistoryLog
	Close() error
}

// New 根据配置创建存储
func New(ctx context.Context, cfg config.DBConfig) (Store, error) {
	switch cfg.Driver {
	case "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		path := cfg.Path
		if path == "" {
			path = "covid_radar.db"
		}
		return NewSQLStore(ctx, DialectSQLite, path)
	case "postgres":
		connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode)
		return NewSQLStore(ctx, DialectPostgres, connStr)
	default:
		return nil, fmt.Errorf("unknown storage driver: %s", cfg.Driver)
	}
}
