package fetch

import (
	"bytes"
	"context"
	"os/exec"
	"time"

	"github.com/iWorld-y/covid_radar/app/covid_radar/pkg/logger"
)

// Runner 执行外部命令，测试中可替换
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	start := time.Now()

	cmd := exec.CommandContext(ctx, name, args...)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb

	err := cmd.Run()
	entry := logger.Log.WithField("cmd", name).WithField("duration", time.Since(start))
	if err != nil {
		entry.WithField("stderr", errb.String()).Errorf("命令执行失败: %v", err)
		return out.Bytes(), errb.Bytes(), err
	}
	entry.Debug("命令执行完成")
	return out.Bytes(), errb.Bytes(), nil
}
