package dns

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/winspan/gfwlist2smartdns/pkg/utils"
)

// DefaultGroup SmartDNS 默认的上游分组
const DefaultGroup = "foreign"

// RenderConf 生成 SmartDNS 配置内容，每个域名一行
func RenderConf(domains []string, group string) []byte {
	if group == "" {
		group = DefaultGroup
	}
	var buf bytes.Buffer
	for _, d := range domains {
		fmt.Fprintf(&buf, "nameserver /%s/%s\n", d, group)
	}
	return buf.Bytes()
}

// WriteConf 原子写入配置文件：先写临时文件再重命名，失败时保留旧文件
func WriteConf(path string, domains []string, group string) error {
	dir := filepath.Dir(path)
	if err := utils.EnsureDir(dir); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	w := bufio.NewWriter(tmp)
	if _, err := w.Write(RenderConf(domains, group)); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush %s: %w", tmpName, err)
	}
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmpName, err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
