package server

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/iWorld-y/covid_radar/app/covid_radar/pkg/storage"
	"github.com/iWorld-y/covid_radar/app/display/internal/conf"
	"github.com/iWorld-y/covid_radar/app/display/internal/usecase"
)

// togglingRepo Ping 的结果可在运行中切换
type togglingRepo struct {
	storeRepo
	down atomic.Bool
}

func (r *togglingRepo) Ping(ctx context.Context) error {
	if r.down.Load() {
		return errors.New("db down")
	}
	return nil
}

func servingStatus(t *testing.T, hw *HealthWatcher) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()
	resp, err := hw.Health().Check(context.Background(), &healthpb.HealthCheckRequest{})
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	return resp.Status
}

func TestHealthWatcherRefreshes(t *testing.T) {
	repo := &togglingRepo{storeRepo: storeRepo{store: storage.NewMemoryStore()}}
	uc := usecase.NewSnapshotUseCase(repo, log.DefaultLogger)
	hw := NewHealthWatcher(&conf.Server{Grpc: &conf.GRPC{HealthInterval: "10ms"}}, uc, log.DefaultLogger)

	if got := servingStatus(t, hw); got != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("initial status = %v, want SERVING", got)
	}

	go hw.Start(context.Background())
	defer hw.Stop(context.Background())

	repo.down.Store(true)
	deadline := time.Now().Add(2 * time.Second)
	for servingStatus(t, hw) != healthpb.HealthCheckResponse_NOT_SERVING {
		if time.Now().After(deadline) {
			t.Fatal("status never became NOT_SERVING after storage went down")
		}
		time.Sleep(5 * time.Millisecond)
	}

	repo.down.Store(false)
	deadline = time.Now().Add(2 * time.Second)
	for servingStatus(t, hw) != healthpb.HealthCheckResponse_SERVING {
		if time.Now().After(deadline) {
			t.Fatal("status never recovered to SERVING")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHealthWatcherDefaultInterval(t *testing.T) {
	repo := &togglingRepo{storeRepo: storeRepo{store: storage.NewMemoryStore()}}
	hw := NewHealthWatcher(nil, usecase.NewSnapshotUseCase(repo, log.DefaultLogger), log.DefaultLogger)
	if hw.interval != defaultHealthInterval {
		t.Errorf("interval = %v, want %v", hw.interval, defaultHealthInterval)
	}
	if err := hw.Stop(context.Background()); err != nil {
		t.Fatal(err)
	}
	// Stop 可重复调用
	if err := hw.Stop(context.Background()); err != nil {
		t.Fatal(err)
	}
}
