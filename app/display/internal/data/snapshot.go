package data

import (
	"context"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/covid_radar/app/covid_radar/pkg/model"
	"github.com/iWorld-y/covid_radar/app/display/internal/repo"
)

type snapshotRepo struct {
	data *Data
	log  *log.Helper
}

func NewSnapshotRepo(data *Data, logger log.Logger) repo.SnapshotRepo {
	return &snapshotRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

func (r *snapshotRepo) GetLatest(ctx context.Context, key string) (*model.Observation, error) {
	return r.data.store.ReadLatest(ctx, key)
}

func (r *snapshotRepo) ListHistory(ctx context.Context, key string, limit int) ([]model.HistoryEntry, error) {
	return r.data.store.ListHistory(ctx, key, limit)
}

// Ping 通过一次读取确认存储可用
func (r *snapshotRepo) Ping(ctx context.Context) error {
	_, err := r.data.store.ReadLatest(ctx, "")
	return err
}
