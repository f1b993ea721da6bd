package server

import (
	"context"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	"github.com/go-kratos/kratos/v2/transport/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/iWorld-y/covid_radar/app/display/internal/conf"
	"github.com/iWorld-y/covid_radar/app/display/internal/usecase"
)

const defaultHealthInterval = 15 * time.Second

// HealthWatcher 按间隔检查存储并刷新 grpc.health.v1 的服务状态。
// 实现 transport.Server，由 kratos.App 管理启动与停止。
type HealthWatcher struct {
	hs       *health.Server
	uc       *usecase.SnapshotUseCase
	interval time.Duration
	log      *log.Helper
	done     chan struct{}
}

// NewHealthWatcher 创建时立即检查一次，保证服务启动前状态已确定
func NewHealthWatcher(c *conf.Server, uc *usecase.SnapshotUseCase, logger log.Logger) *HealthWatcher {
	interval := defaultHealthInterval
	if c != nil && c.Grpc != nil && c.Grpc.HealthInterval != "" {
		if d, err := time.ParseDuration(c.Grpc.HealthInterval); err == nil && d > 0 {
			interval = d
		}
	}
	w := &HealthWatcher{
		hs:       health.NewServer(),
		uc:       uc,
		interval: interval,
		log:      log.NewHelper(logger),
		done:     make(chan struct{}),
	}
	w.check(context.Background())
	return w
}

// Health 返回被刷新的 health.Server
func (w *HealthWatcher) Health() *health.Server {
	return w.hs
}

func (w *HealthWatcher) check(ctx context.Context) {
	status := healthpb.HealthCheckResponse_SERVING
	if err := w.uc.Healthy(ctx); err != nil {
		w.log.Errorf("storage unavailable: %v", err)
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	w.hs.SetServingStatus("", status)
}

// Start 阻塞直到 Stop 被调用或 ctx 结束
func (w *HealthWatcher) Start(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-w.done:
			return nil
		case <-ticker.C:
			w.check(ctx)
		}
	}
}

// Stop 停止刷新并把状态置为 NOT_SERVING
func (w *HealthWatcher) Stop(context.Context) error {
	select {
	case <-w.done:
	default:
		close(w.done)
	}
	w.hs.Shutdown()
	return nil
}

func NewGRPCServer(c *conf.Server, hw *HealthWatcher, logger log.Logger) *grpc.Server {
	var opts = []grpc.ServerOption{
		grpc.Middleware(
			recovery.Recovery(),
		),
		grpc.CustomHealth(),
	}
	if c != nil && c.Grpc != nil {
		if c.Grpc.Addr != "" {
			opts = append(opts, grpc.Address(c.Grpc.Addr))
		}
		if c.Grpc.Timeout != "" {
			if d, err := time.ParseDuration(c.Grpc.Timeout); err == nil {
				opts = append(opts, grpc.Timeout(d))
			}
		}
	}

	srv := grpc.NewServer(opts...)
	healthpb.RegisterHealthServer(srv, hw.Health())
	return srv
}
