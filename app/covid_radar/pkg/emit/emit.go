package emit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/iWorld-y/covid_radar/app/covid_radar/pkg/config"
	"github.com/iWorld-y/covid_radar/app/covid_radar/pkg/logger"
	"github.com/iWorld-y/covid_radar/app/covid_radar/pkg/model"
)

// Emitter 每次运行都会收到一份记录，无论数据是否变化
type Emitter interface {
	Emit(ctx context.Context, obs model.Observation) error
}

// JSONLEmitter 每条记录写一行 JSON
type JSONLEmitter struct {
	mu     sync.Mutex
	w      io.Writer
	closer io.Closer
}

func NewJSONLEmitter(w io.Writer) *JSONLEmitter {
	return &JSONLEmitter{w: w}
}

// OpenJSONL 以追加方式打开 JSONL 文件
func OpenJSONL(path string) (*JSONLEmitter, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &JSONLEmitter{w: f, closer: f}, nil
}

func (e *JSONLEmitter) Emit(ctx context.Context, obs model.Observation) error {
	payload, err := model.Encode(obs)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, err := e.w.Write(append(payload, '\n')); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	return nil
}

func (e *JSONLEmitter) Close() error {
	if e.closer == nil {
		return nil
	}
	return e.closer.Close()
}

// LogEmitter 通过日志输出记录
type LogEmitter struct{}

func (LogEmitter) Emit(_ context.Context, obs model.Observation) error {
	payload, err := json.Marshal(obs)
	if err != nil {
		return err
	}
	logger.Log.WithField("total", obs.Total).Infof("记录: %s", payload)
	return nil
}

// Multi 依次调用所有 Emitter，汇总错误
type Multi []Emitter

func (m Multi) Emit(ctx context.Context, obs model.Observation) error {
	var errs []error
	for _, e := range m {
		if err := e.Emit(ctx, obs); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// New 根据配置组装 Emitter，返回的 closer 需要在退出时调用
func New(cfg config.EmitConfig) (Emitter, io.Closer, error) {
	var (
		m      Multi
		closer io.Closer = nopCloser{}
	)
	if cfg.JSONLPath != "" {
		j, err := OpenJSONL(cfg.JSONLPath)
		if err != nil {
			return nil, nil, err
		}
		m = append(m, j)
		closer = j
	}
	if cfg.Log || len(m) == 0 {
		m = append(m, LogEmitter{})
	}
	return m, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
