package emit

import (
	"fmt"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/iWorld-y/covid_radar/app/covid_radar/pkg/model"
)

const historySheet = "History"

// ExportHistoryXLSX 导出历史记录：按时间正序，每行一条记录，每个地区一列
func ExportHistoryXLSX(entries []model.HistoryEntry, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), historySheet); err != nil {
		return err
	}

	var regions, signals []string
	regionCol, signalCol := map[string]bool{}, map[string]bool{}
	for i := len(entries) - 1; i >= 0; i-- {
		obs := entries[i].Observation
		for _, rc := range obs.Breakdown {
			if !regionCol[rc.Region] {
				regionCol[rc.Region] = true
				regions = append(regions, rc.Region)
			}
		}
		names := make([]string, 0, len(obs.ExtraSignals))
		for name := range obs.ExtraSignals {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if !signalCol[name] {
				signalCol[name] = true
				signals = append(signals, name)
			}
		}
	}

	headers := append([]string{"Recorded At", "Observed At", "Source URL", "Total"}, regions...)
	headers = append(headers, signals...)
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(historySheet, cell, h)
	}

	row := 2
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(historySheet, cell, v)
		}
		write(1, e.RecordedAt.UTC().Format(time.RFC3339))
		write(2, e.Observation.ObservedAt.UTC().Format(time.RFC3339))
		write(3, e.Observation.SourceURL)
		write(4, e.Observation.Total)

		counts := make(map[string]float64, len(e.Observation.Breakdown))
		for _, rc := range e.Observation.Breakdown {
			counts[rc.Region] = rc.Count
		}
		for j, region := range regions {
			if v, ok := counts[region]; ok {
				write(5+j, v)
			}
		}
		for j, name := range signals {
			if v, ok := e.Observation.ExtraSignals[name]; ok {
				write(5+len(regions)+j, v)
			}
		}
		row++
	}

	_ = f.SetColWidth(historySheet, "A", "B", 22)
	_ = f.SetColWidth(historySheet, "C", "C", 40)

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}
