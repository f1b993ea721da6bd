package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/iWorld-y/covid_radar/app/covid_radar/pkg/config"
	"github.com/iWorld-y/covid_radar/app/covid_radar/pkg/emit"
	"github.com/iWorld-y/covid_radar/app/covid_radar/pkg/extract"
	"github.com/iWorld-y/covid_radar/app/covid_radar/pkg/logger"
	"github.com/iWorld-y/covid_radar/app/covid_radar/pkg/model"
	"github.com/iWorld-y/covid_radar/app/covid_radar/pkg/storage"
	"github.com/iWorld-y/covid_radar/app/covid_radar/pkg/tracker"
)

// TextFetcher 取得数据源当前报告的纯文本
type TextFetcher interface {
	FetchDocumentText(ctx context.Context, src config.SourceConfig) (string, error)
}

// CollaboratorError 外部协作方（抓取、存储、输出）失败
type CollaboratorError struct {
	Op  string
	Err error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *CollaboratorError) Unwrap() error {
	return e.Err
}

// Result 单个数据源一次运行的结果
type Result struct {
	SourceKey   string
	Observation model.Observation
	Appended    bool
}

// Engine 核心处理引擎
type Engine struct {
	cfg       *config.Config
	fetcher   TextFetcher
	extractor *extract.Extractor
	latest    storage.LatestStore
	history   storage.HistoryLog
	emitter   emit.Emitter
}

// NewEngine 创建引擎实例
func NewEngine(cfg *config.Config, fetcher TextFetcher, store storage.Store, emitter emit.Emitter) *Engine {
	return &Engine{
		cfg:       cfg,
		fetcher:   fetcher,
		extractor: extract.NewExtractor(),
		latest:    store,
		history:   store,
		emitter:   emitter,
	}
}

// WithExtractor 替换抽取器，主要用于注入时钟
func (e *Engine) WithExtractor(x *extract.Extractor) *Engine {
	e.extractor = x
	return e
}

// Run 依次处理所有数据源；单个数据源失败不影响其余数据源
func (e *Engine) Run(ctx context.Context) ([]Result, error) {
	logger.Log.Infof("开始运行，共 %d 个数据源", len(e.cfg.Sources))

	var (
		results []Result
		errs    []error
	)
	for _, src := range e.cfg.Sources {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		res, err := e.RunSource(ctx, src)
		if err != nil {
			logger.WithSource(src.Key).Errorf("处理失败: %v", err)
			errs = append(errs, fmt.Errorf("source %s: %w", src.Key, err))
			continue
		}
		results = append(results, *res)
	}

	logger.Log.Infof("运行结束，成功 %d 个，失败 %d 个", len(results), len(errs))
	return results, errors.Join(errs...)
}

// RunSource 抓取 -> 抽取 -> 比较 -> 输出 -> 写历史（仅变化时） -> 写 latest
func (e *Engine) RunSource(ctx context.Context, src config.SourceConfig) (*Result, error) {
	log := logger.WithSource(src.Key)

	layout, err := e.cfg.Layout(src.Layout)
	if err != nil {
		return nil, err
	}

	text, err := e.fetcher.FetchDocumentText(ctx, src)
	if err != nil {
		return nil, &CollaboratorError{Op: "fetch", Err: err}
	}

	obs, err := e.extractor.Extract(text, layout, src.URL)
	if err != nil {
		return nil, err
	}
	log.Infof("抽取完成: total=%v, 地区数=%d", obs.Total, len(obs.Breakdown))

	previous, err := e.latest.ReadLatest(ctx, src.Key)
	if err != nil {
		return nil, &CollaboratorError{Op: "read latest", Err: err}
	}

	decision := tracker.Decide(previous, *obs)

	if err := e.emitter.Emit(ctx, decision.Latest); err != nil {
		return nil, &CollaboratorError{Op: "emit", Err: err}
	}

	if decision.ShouldAppend {
		if previous == nil {
			log.Info("首次运行，写入历史")
		} else {
			log.Infof("数据发生变化，写入历史:\n%s", decision.Diff)
		}
		if err := e.history.AppendHistory(ctx, src.Key, decision.Latest); err != nil {
			return nil, &CollaboratorError{Op: "append history", Err: err}
		}
	} else {
		log.Info("数据未变化，跳过历史")
	}

	if err := e.latest.WriteLatest(ctx, src.Key, decision.Latest); err != nil {
		return nil, &CollaboratorError{Op: "write latest", Err: err}
	}

	return &Result{SourceKey: src.Key, Observation: decision.Latest, Appended: decision.ShouldAppend}, nil
}
