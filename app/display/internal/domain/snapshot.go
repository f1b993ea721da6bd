package domain

import "github.com/iWorld-y/covid_radar/app/covid_radar/pkg/model"

// Snapshot 某个数据源的最新观测
type Snapshot struct {
	SourceKey   string            `json:"sourceKey"`
	Observation model.Observation `json:"observation"`
}

// HistoryPage 某个数据源的历史记录，最新的在前
type HistoryPage struct {
	SourceKey string               `json:"sourceKey"`
	Count     int                  `json:"count"`
	Entries   []model.HistoryEntry `json:"entries"`
}
