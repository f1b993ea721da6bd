package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/time/rate"

	"github.com/iWorld-y/covid_radar/app/covid_radar/pkg/config"
	"github.com/iWorld-y/covid_radar/app/covid_radar/pkg/logger"
)

// ErrLinkNotFound 落地页中没有匹配选择器的链接
var ErrLinkNotFound = errors.New("fetch: no link matches selector")

// Document 下载得到的原始文档
type Document struct {
	URL         string
	ContentType string
	Body        []byte
}

// Fetcher 限流的 HTTP 下载器
type Fetcher struct {
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string
}

// NewFetcher 创建下载器，RPM 为每分钟允许的请求数
func NewFetcher(cfg config.FetchConfig) *Fetcher {
	limit := rate.Inf
	if cfg.RPM > 0 {
		limit = rate.Limit(float64(cfg.RPM) / 60.0)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &Fetcher{
		client:    &http.Client{Timeout: cfg.Timeout},
		limiter:   rate.NewLimiter(limit, burst),
		userAgent: cfg.UserAgent,
	}
}

// Get 下载一个 URL，非 200 视为错误
func (f *Fetcher) Get(ctx context.Context, rawURL string) (*Document, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	logger.Log.Debugf("下载: %s", rawURL)
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s returned status %d", rawURL, resp.StatusCode)
	}

	return &Document{
		URL:         resp.Request.URL.String(),
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

// ResolveLink 下载落地页并返回第一个匹配选择器的链接（绝对地址）
func (f *Fetcher) ResolveLink(ctx context.Context, landingURL, selector string) (string, error) {
	page, err := f.Get(ctx, landingURL)
	if err != nil {
		return "", err
	}
	base, err := url.Parse(page.URL)
	if err != nil {
		return "", fmt.Errorf("invalid landing url %q: %w", page.URL, err)
	}
	return SelectLink(page.Body, base, selector)
}

// SelectLink 在 HTML 中查找第一个匹配 selector 且带 href 的元素，并相对 base 解析
func SelectLink(page []byte, base *url.URL, selector string) (string, error) {
	sel, err := cascadia.Parse(selector)
	if err != nil {
		return "", fmt.Errorf("invalid selector %q: %w", selector, err)
	}
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return "", fmt.Errorf("failed to parse landing page: %w", err)
	}

	for _, n := range cascadia.QueryAll(doc, sel) {
		href := strings.TrimSpace(attr(n, "href"))
		if href == "" {
			continue
		}
		ref, err := url.Parse(href)
		if err != nil {
			return "", fmt.Errorf("invalid href %q: %w", href, err)
		}
		return base.ResolveReference(ref).String(), nil
	}
	return "", fmt.Errorf("%w: %s", ErrLinkNotFound, selector)
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
