package repo

import (
	"context"

	"github.com/iWorld-y/covid_radar/app/covid_radar/pkg/model"
)

// SnapshotRepo 观测数据仓库接口
type SnapshotRepo interface {
	// GetLatest 获取最新观测，不存在时返回 nil, nil
	GetLatest(ctx context.Context, key string) (*model.Observation, error)
	// ListHistory 获取历史记录，最新的在前
	ListHistory(ctx context.Context, key string, limit int) ([]model.HistoryEntry, error)
	// Ping 检查存储是否可用
	Ping(ctx context.Context) error
}
