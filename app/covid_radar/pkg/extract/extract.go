package extract

import (
	"strings"
	"time"

	"github.com/iWorld-y/covid_radar/app/covid_radar/pkg/model"
)

// Extractor 把报告文本转换为 Observation，不持有任何持久状态
type Extractor struct {
	now func() time.Time
}

// NewExtractor 创建使用系统时钟的 Extractor
func NewExtractor() *Extractor {
	return &Extractor{now: time.Now}
}

// NewExtractorWithClock 创建使用指定时钟的 Extractor
func NewExtractorWithClock(now func() time.Time) *Extractor {
	return &Extractor{now: now}
}

// Extract 按布局抽取，observedAt 取当前时间
func (e *Extractor) Extract(rawText string, layout LayoutSpec, sourceURL string) (*model.Observation, error) {
	return Extract(rawText, layout, sourceURL, e.now())
}

// Extract 从 rawText 中抽取总数、地区明细和附加数值。
// 地区与计数按位置配对：报告中的地区顺序固定，标签只做可选的合法性校验。
func Extract(rawText string, layout LayoutSpec, sourceURL string, now time.Time) (*model.Observation, error) {
	l, err := compile(layout)
	if err != nil {
		return nil, err
	}
	n := l.def.ExpectedRegionCount

	_, section, found := strings.Cut(rawText, l.def.SectionMarker)
	if !found {
		return nil, newError(ErrMarkerNotFound, "marker %q", l.def.SectionMarker)
	}

	labels, numbers := tokenize(section, l)
	if len(labels) < n {
		return nil, newError(ErrInsufficientTokens, "found %d labels, need %d", len(labels), n)
	}
	counts := project(numbers, l.def.NumberStride, l.def.NumberOffset)
	if len(counts) < n {
		return nil, newError(ErrInsufficientTokens, "found %d counts after stride %d, need %d", len(counts), l.def.NumberStride, n)
	}

	breakdown := make([]model.RegionCount, 0, n)
	seen := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		region := labels[i]
		key := foldLabel(region)
		if _, dup := seen[key]; dup {
			return nil, newError(ErrDuplicateRegion, "%q at position %d", region, i)
		}
		seen[key] = struct{}{}
		if l.regions != nil {
			if _, ok := l.regions[key]; !ok {
				return nil, newError(ErrUnknownRegion, "%q at position %d", region, i)
			}
		}

		count, err := parseNumber(counts[i], l.def.DecimalComma, l.def.DecimalCountsAllowed)
		if err != nil {
			return nil, err
		}
		breakdown = append(breakdown, model.RegionCount{Region: region, Count: count})
	}

	obs := &model.Observation{
		Breakdown:  breakdown,
		SourceURL:  sourceURL,
		ObservedAt: model.TruncateToMinute(now),
	}

	switch l.def.TotalPolicy {
	case TotalLabeled:
		m := l.total.FindStringSubmatch(section)
		if m == nil {
			return nil, newError(ErrTotalNotFound, "pattern %q", l.def.TotalPattern)
		}
		total, err := parseNumber(m[1], l.def.DecimalComma, l.def.DecimalCountsAllowed)
		if err != nil {
			return nil, err
		}
		obs.Total = total
	default:
		obs.Total = obs.BreakdownSum()
	}

	// 附加数值在全文中查找，与分段无关；找不到时直接省略
	for _, f := range l.facts {
		m := f.re.FindStringSubmatch(rawText)
		if m == nil {
			continue
		}
		v, err := parseNumber(m[1], l.def.DecimalComma, true)
		if err != nil {
			return nil, newError(ErrMalformedNumber, "secondary fact %q: token %q", f.name, m[1])
		}
		if obs.ExtraSignals == nil {
			obs.ExtraSignals = make(map[string]float64, len(l.facts))
		}
		obs.ExtraSignals[f.name] = v
	}

	return obs, nil
}
