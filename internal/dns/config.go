package dns

import (
	"strings"
	"time"
)

const (
	DefaultGFWListURL = "https://raw.githubusercontent.com/gfwlist/gfwlist/master/gfwlist.txt"
	DefaultTLDsURL    = "https://github.com/fanck0605/tld_spider/raw/main/tlds.json"
	DefaultOutputFile = "gfwlist.conf"

	// SourceEmbedded 使用内置公共后缀表，不下载 TLD 列表
	SourceEmbedded = "embedded"
)

// Config 规则转换配置
type Config struct {
	// 参考文档来源：http(s) URL、file:// URL 或本地路径
	Sources struct {
		GFWList         string `yaml:"gfwlist"`
		GFWListEncoding string `yaml:"gfwlist_encoding"`
		TLDs            string `yaml:"tlds"`
		TLDFormat       string `yaml:"tld_format"`
		PublicSuffix    string `yaml:"public_suffix"`
	} `yaml:"sources"`

	// 输出配置
	Output struct {
		File         string   `yaml:"file"`
		Group        string   `yaml:"group"`
		ExtraDomains []string `yaml:"extra_domains"`

		// node_exporter textfile collector 路径，为空则不导出
		MetricsTextfile string `yaml:"metrics_textfile"`
	} `yaml:"output"`

	// 同步配置
	Sync struct {
		Interval  int    `yaml:"interval"`
		Timeout   int    `yaml:"timeout"`
		UserAgent string `yaml:"user_agent"`
	} `yaml:"sync"`
}

// GetGFWListSource 获取黑名单来源
func (c *Config) GetGFWListSource() string {
	if strings.TrimSpace(c.Sources.GFWList) == "" {
		return DefaultGFWListURL
	}
	return strings.TrimSpace(c.Sources.GFWList)
}

// GetGFWListEncoding 获取黑名单编码
func (c *Config) GetGFWListEncoding() string {
	if c.Sources.GFWListEncoding == "" {
		return EncodingBase64
	}
	return c.Sources.GFWListEncoding
}

// GetTLDSource 获取 TLD 列表来源，返回空字符串表示使用内置后缀表
func (c *Config) GetTLDSource() string {
	src := strings.TrimSpace(c.Sources.TLDs)
	switch src {
	case "":
		return DefaultTLDsURL
	case SourceEmbedded:
		return ""
	default:
		return src
	}
}

// GetTLDFormat 获取 TLD 列表格式
func (c *Config) GetTLDFormat() string {
	if c.Sources.TLDFormat == "" {
		return TLDFormatAuto
	}
	return c.Sources.TLDFormat
}

// GetPublicSuffixSource 获取公共后缀列表来源（可选）
func (c *Config) GetPublicSuffixSource() string {
	return strings.TrimSpace(c.Sources.PublicSuffix)
}

// GetOutputFile 获取输出文件路径
func (c *Config) GetOutputFile() string {
	if c.Output.File == "" {
		return DefaultOutputFile
	}
	return c.Output.File
}

// GetGroup 获取 SmartDNS 分组名
func (c *Config) GetGroup() string {
	if c.Output.Group == "" {
		return DefaultGroup
	}
	return c.Output.Group
}

// GetSyncInterval 获取同步间隔
func (c *Config) GetSyncInterval() time.Duration {
	if c.Sync.Interval <= 0 {
		return 6 * time.Hour // 默认6小时
	}
	return time.Duration(c.Sync.Interval) * time.Second
}

// GetSyncTimeout 获取单个文档的下载超时
func (c *Config) GetSyncTimeout() time.Duration {
	if c.Sync.Timeout <= 0 {
		return time.Minute
	}
	return time.Duration(c.Sync.Timeout) * time.Second
}

// GetUserAgent 获取下载时使用的 User-Agent
func (c *Config) GetUserAgent() string {
	if c.Sync.UserAgent == "" {
		return "gfwlist2smartdns/1.0"
	}
	return c.Sync.UserAgent
}
