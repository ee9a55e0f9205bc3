package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Level 日志级别
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
	FATAL
)

// String 返回日志级别的字符串表示
func (l Level) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	case FATAL:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel 解析日志级别字符串
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DEBUG, nil
	case "", "info":
		return INFO, nil
	case "warn", "warning":
		return WARN, nil
	case "error":
		return ERROR, nil
	case "fatal":
		return FATAL, nil
	default:
		return INFO, fmt.Errorf("无效的日志级别: %s", s)
	}
}

// Logger 日志记录器
type Logger struct {
	mu     sync.Mutex
	level  Level
	output io.Writer
	format string
	file   *os.File
	prefix string
	exit   func(int)
}

// Config 日志配置
type Config struct {
	Level  Level  `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
	Prefix string `yaml:"prefix"`
}

// NewLogger 创建新的日志记录器
func NewLogger(config *Config) (*Logger, error) {
	logger := &Logger{
		level:  config.Level,
		format: config.Format,
		prefix: config.Prefix,
		exit:   os.Exit,
	}

	// 设置输出
	if err := logger.setOutput(config.Output); err != nil {
		return nil, err
	}

	return logger, nil
}

// New 创建写入指定 io.Writer 的日志记录器
func New(w io.Writer, level Level, format, prefix string) *Logger {
	return &Logger{level: level, output: w, format: format, prefix: prefix, exit: os.Exit}
}

// setOutput 设置日志输出
func (l *Logger) setOutput(output string) error {
	switch output {
	case "", "stderr":
		l.output = os.Stderr
	case "stdout":
		l.output = os.Stdout
	default:
		// 作为文件路径处理
		return l.setFileOutput(output)
	}
	return nil
}

// setFileOutput 设置文件输出
func (l *Logger) setFileOutput(path string) error {
	// 确保目录存在
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("创建日志目录失败: %v", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("打开日志文件失败: %v", err)
	}

	l.file = file
	l.output = file
	return nil
}

// formatMessage 格式化日志消息
func (l *Logger) formatMessage(level Level, message string) string {
	timestamp := time.Now().Format("2006-01-02 15:04:05.000")

	switch l.format {
	case "json":
		b, err := json.Marshal(struct {
			Timestamp string `json:"timestamp"`
			Level     string `json:"level"`
			Prefix    string `json:"prefix,omitempty"`
			Message   string `json:"message"`
		}{timestamp, level.String(), l.prefix, message})
		if err == nil {
			return string(b)
		}
		fallthrough
	default:
		if l.prefix == "" {
			return fmt.Sprintf("[%s] %s %s", timestamp, level.String(), message)
		}
		return fmt.Sprintf("[%s] %s [%s] %s", timestamp, level.String(), l.prefix, message)
	}
}

// Log 按指定级别记录日志
func (l *Logger) Log(level Level, message string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level < l.level || l.output == nil {
		return
	}
	fmt.Fprintln(l.output, l.formatMessage(level, message))
}

// Debug 记录调试日志
func (l *Logger) Debug(format string, args ...interface{}) {
	l.Log(DEBUG, fmt.Sprintf(format, args...))
}

// Info 记录信息日志
func (l *Logger) Info(format string, args ...interface{}) {
	l.Log(INFO, fmt.Sprintf(format, args...))
}

// Warn 记录警告日志
func (l *Logger) Warn(format string, args ...interface{}) {
	l.Log(WARN, fmt.Sprintf(format, args...))
}

// Error 记录错误日志
func (l *Logger) Error(format string, args ...interface{}) {
	l.Log(ERROR, fmt.Sprintf(format, args...))
}

// Fatal 记录致命错误日志并退出
func (l *Logger) Fatal(format string, args ...interface{}) {
	l.Log(FATAL, fmt.Sprintf(format, args...))
	l.Close()
	l.exit(1)
}

// Writer 返回底层输出，供标准库 log 重定向使用
func (l *Logger) Writer() io.Writer {
	return l.output
}

// SetLevel 设置日志级别
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	l.level = level
	l.mu.Unlock()
}

// GetLevel 获取日志级别
func (l *Logger) GetLevel() Level {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

// Close 关闭日志记录器
func (l *Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}
