package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iWorld-y/covid_radar/app/covid_radar/pkg/config"
	"github.com/iWorld-y/covid_radar/app/covid_radar/pkg/emit"
	"github.com/iWorld-y/covid_radar/app/covid_radar/pkg/engine"
	"github.com/iWorld-y/covid_radar/app/covid_radar/pkg/fetch"
	"github.com/iWorld-y/covid_radar/app/covid_radar/pkg/logger"
	"github.com/iWorld-y/covid_radar/app/covid_radar/pkg/storage"
)

type options struct {
	confPath string
	once     bool
	interval time.Duration
	export   string
}

func main() {
	var opts options
	flag.StringVar(&opts.confPath, "conf", "configs/config.yaml", "配置文件路径")
	flag.BoolVar(&opts.once, "once", false, "只运行一次后退出")
	flag.DurationVar(&opts.interval, "interval", 0, "运行间隔，覆盖配置中的 interval")
	flag.StringVar(&opts.export, "export", "", "导出指定数据源的历史到 xlsx，格式 key=path")
	flag.Parse()

	os.Exit(run(opts))
}

// run 返回进程退出码；所有资源在返回前通过 defer 释放
func run(opts options) int {
	// 1. 加载配置
	cfg, err := config.LoadConfig(opts.confPath)
	if err != nil {
		log.Printf("无法加载配置文件: %v", err)
		return 1
	}
	if err := cfg.Validate(); err != nil {
		log.Printf("配置错误: %v", err)
		return 1
	}
	if opts.interval > 0 {
		cfg.Interval = opts.interval
	}

	// 2. 初始化日志
	if err := logger.InitLogger(cfg.Log.Level, cfg.Log.File, cfg.Log.Format); err != nil {
		log.Printf("无法初始化日志: %v", err)
		return 1
	}
	logger.Log.Info("启动疫情雷达...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. 初始化存储
	store, err := storage.New(ctx, cfg.DB)
	if err != nil {
		logger.Log.Errorf("无法初始化存储: %v", err)
		return 1
	}
	defer store.Close()
	logger.Log.Infof("存储已就绪: %s", cfg.DB.Driver)

	if opts.export != "" {
		if err := exportHistory(ctx, store, opts.export); err != nil {
			logger.Log.Errorf("导出失败: %v", err)
			return 1
		}
		return 0
	}

	// 4. 初始化输出
	emitter, closer, err := emit.New(cfg.Emit)
	if err != nil {
		logger.Log.Errorf("无法初始化输出: %v", err)
		return 1
	}
	defer closer.Close()

	eng := engine.NewEngine(cfg, fetch.NewDocumentFetcher(cfg.Fetch), store, emitter)

	if opts.once {
		if _, err := eng.Run(ctx); err != nil {
			logger.Log.Errorf("运行失败: %v", err)
			return 1
		}
		return 0
	}

	runLoop(ctx, eng, cfg.Interval)
	logger.Log.Info("已退出")
	return 0
}

// runLoop 立即运行一次，之后按间隔运行，直到收到退出信号
func runLoop(ctx context.Context, eng *engine.Engine, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := eng.Run(ctx); err != nil {
			logger.Log.Errorf("运行失败: %v", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
