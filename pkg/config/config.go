package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/winspan/gfwlist2smartdns/internal/dns"
	"github.com/winspan/gfwlist2smartdns/pkg/logger"
)

// Config 应用配置结构
type Config struct {
	// 规则转换配置
	dns.Config `yaml:",inline"`

	// 服务器配置（仅常驻模式使用）
	Server struct {
		Listen     string `yaml:"listen"`
		AdminToken string `yaml:"admin_token"`
	} `yaml:"server"`

	// 日志配置
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"logging"`

	// 监控配置
	Monitoring struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"monitoring"`
}

// LoadConfig 加载配置文件；路径为空时只使用默认值
func LoadConfig(configPath string) (*Config, error) {
	var config Config

	if configPath != "" {
		// 检查配置文件是否存在
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("配置文件不存在: %s", configPath)
		}

		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}

		// 解析 YAML
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("解析配置文件失败: %w", err)
		}
	}

	// 设置默认值
	setDefaults(&config)

	// 验证配置
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("配置验证失败: %w", err)
	}

	return &config, nil
}

// setDefaults 设置默认配置值
func setDefaults(config *Config) {
	// 日志默认值
	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}
	if config.Logging.Format == "" {
		config.Logging.Format = "text"
	}
	if config.Logging.Output == "" {
		config.Logging.Output = "stderr"
	}

	// 监控默认值
	if config.Monitoring.Path == "" {
		config.Monitoring.Path = "/metrics"
	}
}

// validateConfig 验证配置
func validateConfig(config *Config) error {
	if _, err := logger.ParseLevel(config.Logging.Level); err != nil {
		return err
	}
	switch config.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("无效的日志格式: %s", config.Logging.Format)
	}

	switch strings.ToLower(config.GetGFWListEncoding()) {
	case dns.EncodingAuto, dns.EncodingBase64, dns.EncodingPlain:
	default:
		return fmt.Errorf("无效的黑名单编码: %s", config.Sources.GFWListEncoding)
	}
	switch strings.ToLower(config.GetTLDFormat()) {
	case dns.TLDFormatAuto, dns.TLDFormatFlat, dns.TLDFormatJSON:
	default:
		return fmt.Errorf("无效的 TLD 列表格式: %s", config.Sources.TLDFormat)
	}
	if config.GetTLDSource() == "" && config.GetPublicSuffixSource() != "" {
		return fmt.Errorf("使用内置后缀表时不能同时指定公共后缀列表")
	}
	if strings.ContainsAny(config.GetGroup(), "/ \t") {
		return fmt.Errorf("无效的分组名: %q", config.GetGroup())
	}

	return nil
}

// Validate 在命令行参数覆盖后重新验证配置
func (c *Config) Validate() error {
	return validateConfig(c)
}

// LoggerConfig 生成日志记录器配置
func (c *Config) LoggerConfig() *logger.Config {
	level, _ := logger.ParseLevel(c.Logging.Level)
	return &logger.Config{
		Level:  level,
		Format: c.Logging.Format,
		Output: c.Logging.Output,
	}
}

// IsServeMode 是否以常驻模式运行
func (c *Config) IsServeMode() bool {
	return c.Server.Listen != ""
}
