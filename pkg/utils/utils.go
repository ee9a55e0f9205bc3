package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"strings"
)

// FileUtils 文件工具函数
type FileUtils struct{}

// EnsureDir 确保目录存在
func (f *FileUtils) EnsureDir(path string) error {
	if path == "" || path == "." {
		return nil
	}
	return os.MkdirAll(path, 0755)
}

// IsLocalPath 判断来源是否为本地文件（非 http/https）
func (f *FileUtils) IsLocalPath(source string) bool {
	return !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://")
}

// CryptoUtils 加密工具函数
type CryptoUtils struct{}

// SHA256Hash 计算 SHA256 哈希
func (c *CryptoUtils) SHA256Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// 全局工具实例
var (
	File   = &FileUtils{}
	Crypto = &CryptoUtils{}
)

// 便捷函数
func EnsureDir(path string) error {
	return File.EnsureDir(path)
}

func IsLocalPath(source string) bool {
	return File.IsLocalPath(source)
}

func SHA256Hash(data []byte) string {
	return Crypto.SHA256Hash(data)
}
