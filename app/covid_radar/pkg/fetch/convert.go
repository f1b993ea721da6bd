package fetch

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"net/url"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/go-shiori/go-readability"
)

// Converter 把下载的文档转换为纯文本
type Converter interface {
	Convert(ctx context.Context, doc *Document) (string, error)
}

// PDFConverter 调用 pdftotext 转换 PDF；Page > 0 时只转换该页
type PDFConverter struct {
	Bin    string
	Page   int
	runner Runner
}

// NewPDFConverter bin 为空时使用 PATH 中的 pdftotext
func NewPDFConverter(bin string, page int) *PDFConverter {
	if bin == "" {
		bin = "pdftotext"
	}
	return &PDFConverter{Bin: bin, Page: page, runner: execRunner{}}
}

func (c *PDFConverter) Convert(ctx context.Context, doc *Document) (string, error) {
	tmp, err := os.CreateTemp("", "covid-radar-*.pdf")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(doc.Body); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write temp pdf: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}

	// pdftotext -layout -enc UTF-8 [-f N -l N] <path> -
	args := []string{"-layout", "-enc", "UTF-8"}
	if c.Page > 0 {
		p := strconv.Itoa(c.Page)
		args = append(args, "-f", p, "-l", p)
	}
	args = append(args, tmp.Name(), "-")

	out, errb, err := c.runner.Run(ctx, c.Bin, args...)
	if err != nil {
		return "", fmt.Errorf("pdftotext %s: %w: %s", doc.URL, err, strings.TrimSpace(string(errb)))
	}
	return string(out), nil
}

// HTMLConverter 用 readability 提取正文文本
type HTMLConverter struct{}

func (HTMLConverter) Convert(_ context.Context, doc *Document) (string, error) {
	pageURL, err := url.Parse(doc.URL)
	if err != nil {
		return "", fmt.Errorf("invalid document url %q: %w", doc.URL, err)
	}
	article, err := readability.FromReader(bytes.NewReader(doc.Body), pageURL)
	if err != nil {
		return "", fmt.Errorf("readability %s: %w", doc.URL, err)
	}
	return article.TextContent, nil
}

// AutoConverter 根据 Content-Type 或扩展名选择转换器
type AutoConverter struct {
	PDF  Converter
	HTML Converter
}

func (c AutoConverter) Convert(ctx context.Context, doc *Document) (string, error) {
	if isPDF(doc) {
		return c.PDF.Convert(ctx, doc)
	}
	return c.HTML.Convert(ctx, doc)
}

func isPDF(doc *Document) bool {
	if mt, _, err := mime.ParseMediaType(doc.ContentType); err == nil {
		switch mt {
		case "application/pdf":
			return true
		case "text/html", "application/xhtml+xml":
			return false
		}
	}
	if u, err := url.Parse(doc.URL); err == nil && strings.EqualFold(path.Ext(u.Path), ".pdf") {
		return true
	}
	return bytes.HasPrefix(doc.Body, []byte("%PDF-"))
}
