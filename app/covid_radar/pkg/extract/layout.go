package extract

import (
	"regexp"
	"strings"
)

// 总数计算策略
const (
	TotalSum     = "sum"
	TotalLabeled = "labeled"
)

const (
	DefaultLabelPattern   = `\D+`
	DefaultNumberPattern  = `\d+(?:[.,]\d+)?`
	DefaultMinLabelLength = 2
)

// FactSpec 从全文中抓取的附加数值，例如累计死亡数
type FactSpec struct {
	Name    string `yaml:"name"`
	Pattern string `yaml:"pattern"` // 必须包含一个数值捕获组
}

// LayoutSpec 描述某一版本报告的文本排布
type LayoutSpec struct {
	SectionMarker        string     `yaml:"section_marker"`
	ExpectedRegionCount  int        `yaml:"expected_region_count"`
	LabelPattern         string     `yaml:"label_pattern"`
	NumberPattern        string     `yaml:"number_pattern"`
	MinLabelLength       int        `yaml:"min_label_length"`
	NumberStride         int        `yaml:"number_stride"`
	NumberOffset         int        `yaml:"number_offset"`
	DecimalCountsAllowed bool       `yaml:"decimal_counts_allowed"`
	DecimalComma         bool       `yaml:"decimal_comma"`
	TotalPolicy          string     `yaml:"total_policy"`
	TotalPattern         string     `yaml:"total_pattern"`
	SecondaryFacts       []FactSpec `yaml:"secondary_facts"`
	KnownRegions         []string   `yaml:"known_regions"`
}

type compiledFact struct {
	name string
	re   *regexp.Regexp
}

// compiledLayout 是校验并编译后的 LayoutSpec
type compiledLayout struct {
	def     LayoutSpec
	label   *regexp.Regexp
	number  *regexp.Regexp
	total   *regexp.Regexp
	facts   []compiledFact
	regions map[string]struct{}
}

// Validate 检查布局配置是否可用
func (l LayoutSpec) Validate() error {
	_, err := compile(l)
	return err
}

func compile(l LayoutSpec) (*compiledLayout, error) {
	if l.SectionMarker == "" {
		return nil, newError(ErrInvalidLayout, "section_marker is empty")
	}
	if l.ExpectedRegionCount < 1 {
		return nil, newError(ErrInvalidLayout, "expected_region_count must be positive, got %d", l.ExpectedRegionCount)
	}
	if l.LabelPattern == "" {
		l.LabelPattern = DefaultLabelPattern
	}
	if l.NumberPattern == "" {
		l.NumberPattern = DefaultNumberPattern
	}
	if l.MinLabelLength <= 0 {
		l.MinLabelLength = DefaultMinLabelLength
	}
	if l.NumberStride <= 0 {
		l.NumberStride = 1
	}
	if l.NumberOffset < 0 || l.NumberOffset >= l.NumberStride {
		return nil, newError(ErrInvalidLayout, "number_offset %d outside stride %d", l.NumberOffset, l.NumberStride)
	}
	if l.TotalPolicy == "" {
		l.TotalPolicy = TotalSum
	}

	c := &compiledLayout{def: l}
	var err error
	if c.label, err = regexp.Compile(l.LabelPattern); err != nil {
		return nil, newError(ErrInvalidLayout, "label_pattern: %v", err)
	}
	if c.number, err = regexp.Compile(l.NumberPattern); err != nil {
		return nil, newError(ErrInvalidLayout, "number_pattern: %v", err)
	}

	switch l.TotalPolicy {
	case TotalSum:
	case TotalLabeled:
		if c.total, err = compileCapture(l.TotalPattern); err != nil {
			return nil, newError(ErrInvalidLayout, "total_pattern: %v", err)
		}
	default:
		return nil, newError(ErrInvalidLayout, "unknown total_policy %q", l.TotalPolicy)
	}

	for _, f := range l.SecondaryFacts {
		if strings.TrimSpace(f.Name) == "" {
			return nil, newError(ErrInvalidLayout, "secondary fact without name")
		}
		re, err := compileCapture(f.Pattern)
		if err != nil {
			return nil, newError(ErrInvalidLayout, "secondary fact %q: %v", f.Name, err)
		}
		c.facts = append(c.facts, compiledFact{name: f.Name, re: re})
	}

	if len(l.KnownRegions) > 0 {
		c.regions = make(map[string]struct{}, len(l.KnownRegions))
		for _, r := range l.KnownRegions {
			c.regions[foldLabel(r)] = struct{}{}
		}
	}
	return c, nil
}

func compileCapture(pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, errEmptyPattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	if re.NumSubexp() < 1 {
		return nil, errNoCaptureGroup
	}
	return re, nil
}
