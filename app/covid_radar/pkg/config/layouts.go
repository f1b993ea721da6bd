package config

import "github.com/iWorld-y/covid_radar/app/covid_radar/pkg/extract"

// DefaultLinkSelector 报告列表页中最新报告链接的选择器
const DefaultLinkSelector = ".fhi-list li a"

// DirectLink 作为 link_selector 时表示 url 本身就是报告
const DirectLink = "-"

// NorwayCounties2020 2020 年起的 11 个郡，按报告中的固定顺序
var NorwayCounties2020 = []string{
	"Agder",
	"Innlandet",
	"Møre og Romsdal",
	"Nordland",
	"Oslo",
	"Rogaland",
	"Troms og Finnmark",
	"Trøndelag",
	"Vestfold og Telemark",
	"Vestland",
	"Viken",
}

// BuiltinLayouts 返回已知报告版本的布局，每次调用返回新的 map
func BuiltinLayouts() map[string]extract.LayoutSpec {
	return map[string]extract.LayoutSpec{
		// 日报：郡名后紧跟阳性人数，总数为各郡之和
		"fhi-daily-2020": {
			SectionMarker:       "Fylke Antall positive",
			ExpectedRegionCount: len(NorwayCounties2020),
			LabelPattern:        `\D+`,
			NumberPattern:       `\d+`,
			TotalPolicy:         extract.TotalSum,
		},
		// 周报：每个郡三列（人数、占比、每十万人），总数取 "Totalt" 行
		"fhi-weekly-2020": {
			SectionMarker:       "Fylke Antall Andel Per 100 000",
			ExpectedRegionCount: len(NorwayCounties2020),
			NumberPattern:       `\d+(?:,\d+)?`,
			NumberStride:        3,
			NumberOffset:        0,
			DecimalComma:        true,
			TotalPolicy:         extract.TotalLabeled,
			TotalPattern:        `Totalt\s+(\d+)`,
			KnownRegions:        NorwayCounties2020,
			SecondaryFacts: []extract.FactSpec{
				{Name: "deaths", Pattern: `(\d+)\s+dødsfall`},
			},
		},
		// 周报的每十万人发病率视图，计数允许小数
		"fhi-weekly-rate-2020": {
			SectionMarker:        "Fylke Antall Andel Per 100 000",
			ExpectedRegionCount:  len(NorwayCounties2020),
			NumberPattern:        `\d+(?:,\d+)?`,
			NumberStride:         3,
			NumberOffset:         2,
			DecimalComma:         true,
			DecimalCountsAllowed: true,
			TotalPolicy:          extract.TotalSum,
			KnownRegions:         NorwayCounties2020,
		},
	}
}
