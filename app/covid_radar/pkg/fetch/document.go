package fetch

import (
	"context"
	"fmt"

	"github.com/iWorld-y/covid_radar/app/covid_radar/pkg/config"
	"github.com/iWorld-y/covid_radar/app/covid_radar/pkg/logger"
)

// DocumentFetcher 落地页 -> 报告链接 -> 文档 -> 文本
type DocumentFetcher struct {
	fetcher   *Fetcher
	pdftotext string
	runner    Runner
}

// NewDocumentFetcher 创建文档抓取器
func NewDocumentFetcher(cfg config.FetchConfig) *DocumentFetcher {
	return &DocumentFetcher{
		fetcher:   NewFetcher(cfg),
		pdftotext: cfg.Pdftotext,
		runner:    execRunner{},
	}
}

// FetchDocumentText 取得数据源当前报告的纯文本
func (d *DocumentFetcher) FetchDocumentText(ctx context.Context, src config.SourceConfig) (string, error) {
	docURL := src.URL
	if src.LinkSelector != "" && src.LinkSelector != config.DirectLink {
		link, err := d.fetcher.ResolveLink(ctx, src.URL, src.LinkSelector)
		if err != nil {
			return "", fmt.Errorf("resolve report link: %w", err)
		}
		docURL = link
	}
	logger.WithSource(src.Key).Infof("报告地址: %s", docURL)

	doc, err := d.fetcher.Get(ctx, docURL)
	if err != nil {
		return "", fmt.Errorf("download report: %w", err)
	}

	text, err := d.converter(src).Convert(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("convert report: %w", err)
	}
	return text, nil
}

func (d *DocumentFetcher) converter(src config.SourceConfig) Converter {
	pdf := NewPDFConverter(d.pdftotext, src.Page)
	pdf.runner = d.runner
	switch src.DocumentType {
	case "pdf":
		return pdf
	case "html":
		return HTMLConverter{}
	default:
		return AutoConverter{PDF: pdf, HTML: HTMLConverter{}}
	}
}
