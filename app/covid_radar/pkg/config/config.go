package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/iWorld-y/covid_radar/app/covid_radar/pkg/extract"
)

// Config 项目配置结构体
type Config struct {
	Log      LogConfig                     `yaml:"log"`
	DB       DBConfig                      `yaml:"db"`
	Fetch    FetchConfig                   `yaml:"fetch"`
	Emit     EmitConfig                    `yaml:"emit"`
	Interval time.Duration                 `yaml:"interval"`
	Layouts  map[string]extract.LayoutSpec `yaml:"layouts"`
	Sources  []SourceConfig                `yaml:"sources"`
}

// LogConfig 日志相关配置
type LogConfig struct {
	Level  string `yaml:"level"`
	File   string `yaml:"file"`
	Format string `yaml:"format"` // text | json
}

// DBConfig 数据库相关配置；Driver 为 postgres、sqlite 或 memory
type DBConfig struct {
	Driver   string `yaml:"driver"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`
	Path     string `yaml:"path"` // sqlite 文件路径
}

// FetchConfig 抓取相关配置
type FetchConfig struct {
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
	RPM       int           `yaml:"rpm"`
	Burst     int           `yaml:"burst"`
	Pdftotext string        `yaml:"pdftotext"`
}

// EmitConfig 每次运行的记录输出
type EmitConfig struct {
	JSONLPath string `yaml:"jsonl_path"`
	Log       bool   `yaml:"log"`
}

// SourceConfig 一个被监控的报告来源，Key 对应 latest 存储中的一个槽位
type SourceConfig struct {
	Key          string `yaml:"key"`
	URL          string `yaml:"url"`
	LinkSelector string `yaml:"link_selector"`
	DocumentType string `yaml:"document_type"` // pdf | html | auto
	Page         int    `yaml:"page"`
	Layout       string `yaml:"layout"`
}

// LoadConfig 从指定路径加载配置并补齐默认值
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse 解析 YAML 配置内容
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.DB.Driver == "" {
		c.DB.Driver = "memory"
	}
	if c.DB.Port == 0 {
		c.DB.Port = 5432
	}
	if c.DB.SSLMode == "" {
		c.DB.SSLMode = "disable"
	}
	if c.Fetch.Timeout <= 0 {
		c.Fetch.Timeout = 2 * time.Minute
	}
	if c.Fetch.UserAgent == "" {
		c.Fetch.UserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	}
	if c.Fetch.RPM <= 0 {
		c.Fetch.RPM = 30
	}
	if c.Fetch.Burst <= 0 {
		c.Fetch.Burst = 1
	}
	if c.Fetch.Pdftotext == "" {
		c.Fetch.Pdftotext = "pdftotext"
	}
	if c.Interval <= 0 {
		c.Interval = time.Hour
	}

	// 内置布局作为底，配置文件中的同名布局覆盖内置
	merged := BuiltinLayouts()
	for name, l := range c.Layouts {
		merged[name] = l
	}
	c.Layouts = merged

	for i := range c.Sources {
		s := &c.Sources[i]
		if s.LinkSelector == "" {
			s.LinkSelector = DefaultLinkSelector
		}
		if s.DocumentType == "" {
			s.DocumentType = "auto"
		}
	}
}

// Validate 检查配置是否完整
func (c *Config) Validate() error {
	if len(c.Sources) == 0 {
		return fmt.Errorf("no sources configured")
	}
	seen := make(map[string]struct{}, len(c.Sources))
	for _, s := range c.Sources {
		if s.Key == "" {
			return fmt.Errorf("source without key (url %q)", s.URL)
		}
		if _, dup := seen[s.Key]; dup {
			return fmt.Errorf("duplicate source key %q", s.Key)
		}
		seen[s.Key] = struct{}{}
		if s.URL == "" {
			return fmt.Errorf("source %q: url is empty", s.Key)
		}
		switch s.DocumentType {
		case "pdf", "html", "auto":
		default:
			return fmt.Errorf("source %q: unknown document_type %q", s.Key, s.DocumentType)
		}
		if _, err := c.Layout(s.Layout); err != nil {
			return fmt.Errorf("source %q: %w", s.Key, err)
		}
	}
	switch c.DB.Driver {
	case "memory", "sqlite":
	case "postgres":
		if c.DB.Host == "" || c.DB.Name == "" {
			return fmt.Errorf("postgres requires db.host and db.name")
		}
	default:
		return fmt.Errorf("unknown db driver %q", c.DB.Driver)
	}
	return nil
}

// Layout 按名称取出并校验布局
func (c *Config) Layout(name string) (extract.LayoutSpec, error) {
	l, ok := c.Layouts[name]
	if !ok {
		return extract.LayoutSpec{}, fmt.Errorf("unknown layout %q", name)
	}
	if err := l.Validate(); err != nil {
		return extract.LayoutSpec{}, fmt.Errorf("layout %q: %w", name, err)
	}
	return l, nil
}
