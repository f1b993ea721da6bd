package main

import (
	"github.com/go-kratos/kratos/v2"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/transport/grpc"
	"github.com/go-kratos/kratos/v2/transport/http"

	"github.com/iWorld-y/covid_radar/app/display/internal/conf"
	"github.com/iWorld-y/covid_radar/app/display/internal/data"
	"github.com/iWorld-y/covid_radar/app/display/internal/server"
	"github.com/iWorld-y/covid_radar/app/display/internal/service"
	"github.com/iWorld-y/covid_radar/app/display/internal/usecase"
)

// initApp 组装 data -> usecase -> service -> server
func initApp(cs *conf.Server, cd *conf.Data, logger log.Logger) (*kratos.App, func(), error) {
	d, cleanup, err := data.NewData(cd, logger)
	if err != nil {
		return nil, nil, err
	}
	uc := usecase.NewSnapshotUseCase(data.NewSnapshotRepo(d, logger), logger)
	svc := service.NewDisplayService(uc, logger)

	hs := server.NewHTTPServer(cs, svc, logger)
	hw := server.NewHealthWatcher(cs, uc, logger)
	gs := server.NewGRPCServer(cs, hw, logger)
	return newApp(logger, hs, gs, hw), cleanup, nil
}

func newApp(logger log.Logger, hs *http.Server, gs *grpc.Server, hw *server.HealthWatcher) *kratos.App {
	return kratos.New(
		kratos.ID(id),
		kratos.Name(Name),
		kratos.Version(Version),
		kratos.Metadata(map[string]string{}),
		kratos.Logger(logger),
		kratos.Server(hs, gs, hw),
	)
}
