package model

import "time"

// RegionCount 单个地区的计数
type RegionCount struct {
	Region string  `json:"region"`
	Count  float64 `json:"count"`
}

// Observation 一次运行从报告中抽取出的结构化快照
type Observation struct {
	Total        float64            `json:"total"`
	Breakdown    []RegionCount      `json:"breakdown"`
	ExtraSignals map[string]float64 `json:"extraSignals,omitempty"`
	SourceURL    string             `json:"sourceUrl"`
	ObservedAt   time.Time          `json:"observedAt"`
}

// HistoryEntry 历史日志中的一条记录，写入后不再修改
type HistoryEntry struct {
	ID          string      `json:"id"`
	SourceKey   string      `json:"sourceKey"`
	Observation Observation `json:"observation"`
	RecordedAt  time.Time   `json:"recordedAt"`
}

// Clone 返回深拷贝，调用方可以随意修改副本
func (o Observation) Clone() Observation {
	c := o
	if o.Breakdown != nil {
		c.Breakdown = make([]RegionCount, len(o.Breakdown))
		copy(c.Breakdown, o.Breakdown)
	}
	if o.ExtraSignals != nil {
		c.ExtraSignals = make(map[string]float64, len(o.ExtraSignals))
		for k, v := range o.ExtraSignals {
			c.ExtraSignals[k] = v
		}
	}
	return c
}

// BreakdownSum 各地区计数之和
func (o Observation) BreakdownSum() float64 {
	var sum float64
	for _, rc := range o.Breakdown {
		sum += rc.Count
	}
	return sum
}

// TruncateToMinute 截断到分钟并转为 UTC
func TruncateToMinute(t time.Time) time.Time {
	return t.UTC().Truncate(time.Minute)
}
