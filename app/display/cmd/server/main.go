package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/go-kratos/kratos/v2/config"
	"github.com/go-kratos/kratos/v2/config/file"
	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/covid_radar/app/display/internal/conf"
)

// go build -ldflags "-X main.Version=x.y.z"
var (
	// Name 服务名，出现在日志与 kratos 元数据中
	Name = "covid-radar-display"
	// Version 由构建时注入
	Version string
	// flagconf 与采集任务共用同一个存储的展示服务配置
	flagconf string

	id, _ = os.Hostname()
)

func init() {
	flag.StringVar(&flagconf, "conf", "app/display/configs/config.yaml", "config path, eg: -conf config.yaml")
}

// loadBootstrap 读取 kratos 配置并检查存储配置是否存在
func loadBootstrap(path string) (*conf.Bootstrap, error) {
	c := config.New(config.WithSource(file.NewSource(path)))
	defer c.Close()

	if err := c.Load(); err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	var bc conf.Bootstrap
	if err := c.Scan(&bc); err != nil {
		return nil, fmt.Errorf("scan %s: %w", path, err)
	}
	if bc.Data == nil || bc.Data.Database == nil || bc.Data.Database.Driver == "" {
		return nil, fmt.Errorf("%s: data.database.driver is required", path)
	}
	if bc.Server == nil {
		bc.Server = &conf.Server{}
	}
	return &bc, nil
}

func main() {
	flag.Parse()
	logger := log.With(log.NewStdLogger(os.Stdout),
		"ts", log.DefaultTimestamp,
		"caller", log.DefaultCaller,
		"service.id", id,
		"service.name", Name,
		"service.version", Version,
	)
	helper := log.NewHelper(logger)

	bc, err := loadBootstrap(flagconf)
	if err != nil {
		helper.Errorf("config: %v", err)
		os.Exit(1)
	}

	app, cleanup, err := initApp(bc.Server, bc.Data, logger)
	if err != nil {
		helper.Errorf("init: %v", err)
		os.Exit(1)
	}
	defer cleanup()

	if err := app.Run(); err != nil {
		helper.Errorf("run: %v", err)
	}
}
