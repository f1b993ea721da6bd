// Package tracker 决定一次新的观测是否需要写入历史记录。
package tracker

import (
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/iWorld-y/covid_radar/app/covid_radar/pkg/model"
)

// Decision 比较结果；Latest 总是需要写入 latest 存储
type Decision struct {
	ShouldAppend bool
	Latest       model.Observation
	// Diff 为人类可读的差异，首次运行或无变化时为空
	Diff string
}

// nil 与空的 slice/map 视为相同，存储往返不会制造虚假变化
var compareOpts = cmp.Options{cmpopts.EquateEmpty()}

// StripTimestamp 返回去掉 observedAt 的副本，不修改入参
func StripTimestamp(o model.Observation) model.Observation {
	c := o.Clone()
	c.ObservedAt = time.Time{}
	return c
}

// Equal 判断两次观测在历史意义上是否相同
func Equal(a, b model.Observation) bool {
	return cmp.Equal(StripTimestamp(a), StripTimestamp(b), compareOpts)
}

// Decide 比较上一次与本次观测。previous 为 nil 表示首次运行，总是追加。
func Decide(previous *model.Observation, current model.Observation) Decision {
	d := Decision{Latest: current.Clone()}
	if previous == nil {
		d.ShouldAppend = true
		return d
	}

	prev, cur := StripTimestamp(*previous), StripTimestamp(current)
	if cmp.Equal(prev, cur, compareOpts) {
		return d
	}
	d.ShouldAppend = true
	d.Diff = cmp.Diff(prev, cur, compareOpts)
	return d
}
