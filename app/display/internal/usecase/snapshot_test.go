package usecase

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/covid_radar/app/covid_radar/pkg/model"
)

// mockSnapshotRepo 模拟观测数据仓库
type mockSnapshotRepo struct {
	latest    map[string]*model.Observation
	history   []model.HistoryEntry
	lastLimit int
	err       error
}

func (m *mockSnapshotRepo) GetLatest(ctx context.Context, key string) (*model.Observation, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.latest[key], nil
}

func (m *mockSnapshotRepo) ListHistory(ctx context.Context, key string, limit int) ([]model.HistoryEntry, error) {
	m.lastLimit = limit
	if m.err != nil {
		return nil, m.err
	}
	return m.history, nil
}

func (m *mockSnapshotRepo) Ping(ctx context.Context) error {
	return m.err
}

func TestSnapshotUseCase_Latest(t *testing.T) {
	repo := &mockSnapshotRepo{latest: map[string]*model.Observation{
		"covid-no": {Total: 221, ObservedAt: time.Date(2020, 3, 20, 10, 15, 0, 0, time.UTC)},
	}}
	uc := NewSnapshotUseCase(repo, log.DefaultLogger)

	snap, err := uc.Latest(context.Background(), "covid-no")
	if err != nil {
		t.Fatalf("Latest() error = %v", err)
	}
	if snap.SourceKey != "covid-no" || snap.Observation.Total != 221 {
		t.Errorf("Latest() = %+v", snap)
	}

	_, err = uc.Latest(context.Background(), "missing")
	if !errors.IsNotFound(err) {
		t.Errorf("Latest(missing) error = %v, want NotFound", err)
	}
}

func TestSnapshotUseCase_HistoryLimit(t *testing.T) {
	repo := &mockSnapshotRepo{}
	uc := NewSnapshotUseCase(repo, log.DefaultLogger)

	tests := []struct {
		in, want int
	}{
		{0, DefaultHistoryLimit},
		{-3, DefaultHistoryLimit},
		{5, 5},
		{MaxHistoryLimit + 1, MaxHistoryLimit},
	}
	for _, tt := range tests {
		page, err := uc.History(context.Background(), "covid-no", tt.in)
		if err != nil {
			t.Fatalf("History(%d) error = %v", tt.in, err)
		}
		if repo.lastLimit != tt.want {
			t.Errorf("History(%d) repo limit = %d, want %d", tt.in, repo.lastLimit, tt.want)
		}
		if page.Entries == nil || page.Count != 0 {
			t.Errorf("History(%d) empty page = %+v, want non-nil empty entries", tt.in, page)
		}
	}
}

func TestSnapshotUseCase_StorageError(t *testing.T) {
	uc := NewSnapshotUseCase(&mockSnapshotRepo{err: stderrors.New("db down")}, log.DefaultLogger)

	if _, err := uc.Latest(context.Background(), "x"); errors.Code(err) != 500 {
		t.Errorf("Latest() code = %d, want 500", errors.Code(err))
	}
	if _, err := uc.History(context.Background(), "x", 1); errors.Code(err) != 500 {
		t.Errorf("History() code = %d, want 500", errors.Code(err))
	}
	if err := uc.Healthy(context.Background()); err == nil {
		t.Error("Healthy() error = nil")
	}
}
