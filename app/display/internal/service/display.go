package service

import (
	"strconv"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/transport/http"

	"github.com/iWorld-y/covid_radar/app/display/internal/usecase"
)

type DisplayService struct {
	uc  *usecase.SnapshotUseCase
	log *log.Helper
}

func NewDisplayService(uc *usecase.SnapshotUseCase, logger log.Logger) *DisplayService {
	return &DisplayService{
		uc:  uc,
		log: log.NewHelper(logger),
	}
}

// RegisterRoutes 注册只读 JSON 接口
func (s *DisplayService) RegisterRoutes(srv *http.Server) {
	r := srv.Route("/")
	r.GET("/api/sources/{key}/latest", s.GetLatest)
	r.GET("/api/sources/{key}/history", s.ListHistory)
	r.GET("/health", s.Health)
}

func (s *DisplayService) GetLatest(ctx http.Context) error {
	snap, err := s.uc.Latest(ctx, ctx.Vars().Get("key"))
	if err != nil {
		return err
	}
	return ctx.Result(200, snap)
}

func (s *DisplayService) ListHistory(ctx http.Context) error {
	var limit int
	if raw := ctx.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return errors.BadRequest("INVALID_LIMIT", "limit must be an integer")
		}
		limit = n
	}
	page, err := s.uc.History(ctx, ctx.Vars().Get("key"), limit)
	if err != nil {
		return err
	}
	return ctx.Result(200, page)
}

func (s *DisplayService) Health(ctx http.Context) error {
	if err := s.uc.Healthy(ctx); err != nil {
		s.log.Errorf("health check failed: %v", err)
		return errors.ServiceUnavailable("UNHEALTHY", "storage unavailable")
	}
	return ctx.Result(200, map[string]string{"status": "ok"})
}
