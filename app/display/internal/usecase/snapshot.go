package usecase

import (
	"context"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/covid_radar/app/covid_radar/pkg/model"
	"github.com/iWorld-y/covid_radar/app/display/internal/domain"
	"github.com/iWorld-y/covid_radar/app/display/internal/repo"
)

const (
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 500
)

// SnapshotUseCase 观测数据查询业务逻辑
type SnapshotUseCase struct {
	repo repo.SnapshotRepo
	log  *log.Helper
}

// NewSnapshotUseCase 创建观测数据业务逻辑实例
func NewSnapshotUseCase(repo repo.SnapshotRepo, logger log.Logger) *SnapshotUseCase {
	return &SnapshotUseCase{repo: repo, log: log.NewHelper(logger)}
}

// Latest 获取数据源的最新观测
func (uc *SnapshotUseCase) Latest(ctx context.Context, key string) (*domain.Snapshot, error) {
	obs, err := uc.repo.GetLatest(ctx, key)
	if err != nil {
		uc.log.Errorf("read latest %s: %v", key, err)
		return nil, errors.InternalServer("STORAGE_ERROR", "failed to read latest snapshot")
	}
	if obs == nil {
		return nil, errors.NotFound("SNAPSHOT_NOT_FOUND", "no snapshot for source "+key)
	}
	return &domain.Snapshot{SourceKey: key, Observation: *obs}, nil
}

// History 获取数据源的历史记录；limit <= 0 使用默认值，超过上限时截断
func (uc *SnapshotUseCase) History(ctx context.Context, key string, limit int) (*domain.HistoryPage, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	entries, err := uc.repo.ListHistory(ctx, key, limit)
	if err != nil {
		uc.log.Errorf("list history %s: %v", key, err)
		return nil, errors.InternalServer("STORAGE_ERROR", "failed to list history")
	}
	if entries == nil {
		entries = []model.HistoryEntry{}
	}
	return &domain.HistoryPage{SourceKey: key, Count: len(entries), Entries: entries}, nil
}

// Healthy 存储是否可用
func (uc *SnapshotUseCase) Healthy(ctx context.Context) error {
	return uc.repo.Ping(ctx)
}
