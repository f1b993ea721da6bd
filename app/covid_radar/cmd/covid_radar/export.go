package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/iWorld-y/covid_radar/app/covid_radar/pkg/emit"
	"github.com/iWorld-y/covid_radar/app/covid_radar/pkg/logger"
	"github.com/iWorld-y/covid_radar/app/covid_radar/pkg/storage"
)

// exportHistory value 形如 key=path
func exportHistory(ctx context.Context, store storage.HistoryLog, value string) error {
	key, path, ok := strings.Cut(value, "=")
	if !ok || key == "" || path == "" {
		return fmt.Errorf("invalid -export value %q, want key=path", value)
	}
	entries, err := store.ListHistory(ctx, key, 0)
	if err != nil {
		return err
	}
	if err := emit.ExportHistoryXLSX(entries, path); err != nil {
		return err
	}
	logger.Log.Infof("已导出 %d 条历史记录到 %s", len(entries), path)
	return nil
}
