package dns

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/winspan/gfwlist2smartdns/pkg/utils"
)

// Fetcher 获取参考文档
type Fetcher interface {
	Fetch(ctx context.Context, source string) ([]byte, error)
}

// HTTPFetcher 支持 http(s) URL、file:// URL 与本地路径
type HTTPFetcher struct {
	httpc     *http.Client
	userAgent string
	timeout   time.Duration
}

// NewHTTPFetcher 创建下载器，timeout 作用于每个文档的整个下载过程
func NewHTTPFetcher(timeout time.Duration, userAgent string) *HTTPFetcher {
	return &HTTPFetcher{
		httpc:     &http.Client{Timeout: timeout},
		userAgent: userAgent,
		timeout:   timeout,
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, source string) ([]byte, error) {
	if utils.IsLocalPath(source) {
		b, err := os.ReadFile(strings.TrimPrefix(source, "file://"))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", source, err)
		}
		return b, nil
	}

	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", source, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get %s: unexpected status: %s", source, resp.Status)
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", source, err)
	}
	return b, nil
}
