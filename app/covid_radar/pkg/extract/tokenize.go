package extract

import (
	"math"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// tokenize 把文本拆成标签流和数字流，两者都保持文档顺序
func tokenize(segment string, l *compiledLayout) (labels, numbers []string) {
	for _, raw := range l.label.FindAllString(segment, -1) {
		label := cleanLabel(raw)
		if len([]rune(label)) < l.def.MinLabelLength {
			continue
		}
		labels = append(labels, label)
	}
	numbers = l.number.FindAllString(segment, -1)
	return labels, numbers
}

// cleanLabel 替换非法 UTF-8，去掉首尾空白和标点，并把内部空白折叠成单个空格。
// 非法字节必须在这里替换，否则 JSON 往返后标签会变化。
func cleanLabel(s string) string {
	s = strings.ToValidUTF8(s, "\uFFFD")
	s = strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r)
	})
	return strings.Join(strings.Fields(s), " ")
}

// project 按 stride/offset 只保留每组中真正的计数列
func project(numbers []string, stride, offset int) []string {
	if stride <= 1 {
		return numbers
	}
	out := make([]string, 0, len(numbers)/stride+1)
	for i := offset; i < len(numbers); i += stride {
		out = append(out, numbers[i])
	}
	return out
}

// parseNumber 解析数字 token；decimalComma 时先把 ',' 规范为 '.'
func parseNumber(tok string, decimalComma, allowFraction bool) (float64, error) {
	s := strings.TrimSpace(tok)
	if decimalComma {
		s = strings.ReplaceAll(s, ",", ".")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, newError(ErrMalformedNumber, "token %q", tok)
	}
	if v < 0 {
		return 0, newError(ErrMalformedNumber, "negative count %q", tok)
	}
	if !allowFraction && v != math.Trunc(v) {
		return 0, newError(ErrMalformedNumber, "non-integer count %q", tok)
	}
	return v, nil
}

// foldLabel 用于与已知地区集合比对：去重音、忽略大小写和多余空白
func foldLabel(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, cleanLabel(s))
	if err != nil {
		folded = cleanLabel(s)
	}
	return strings.ToLower(folded)
}
