package dns

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/winspan/gfwlist2smartdns/pkg/utils"
)

// ErrEmptyResult 黑名单没有产出任何域名
var ErrEmptyResult = errors.New("rule sync got empty domain set")

// 参考文档名称
const (
	DocGFWList      = "gfwlist"
	DocTLDs         = "tlds"
	DocPublicSuffix = "public_suffix"
)

type SyncManager struct {
	cfg     *Config
	fetcher Fetcher

	// 同一时刻只运行一个同步
	runMu sync.Mutex

	// 同步状态跟踪
	mu        sync.RWMutex
	lastSync  time.Time
	syncStats struct {
		totalSyncs      int64
		successfulSyncs int64
		failedSyncs     int64
		lastError       string
	}
	lastStats Stats
	conf      []byte

	// 参考文档来源统计
	sources map[string]*SourceStatus
}

// SourceStatus 参考文档来源信息
type SourceStatus struct {
	URL          string        `json:"url"`
	LastSync     time.Time     `json:"last_sync"`
	LastSuccess  time.Time     `json:"last_success"`
	LastError    string        `json:"last_error"`
	Bytes        int           `json:"bytes"`
	Checksum     string        `json:"checksum"`
	Status       string        `json:"status"` // success, error, pending
	ResponseTime time.Duration `json:"response_time"`
}

func NewSyncManager(cfg *Config, fetcher Fetcher) *SyncManager {
	if fetcher == nil {
		fetcher = NewHTTPFetcher(cfg.GetSyncTimeout(), cfg.GetUserAgent())
	}
	m := &SyncManager{
		cfg:     cfg,
		fetcher: fetcher,
		sources: make(map[string]*SourceStatus),
	}
	m.initSources()
	return m
}

// initSources 初始化参考文档来源
func (m *SyncManager) initSources() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sources[DocGFWList] = &SourceStatus{URL: m.cfg.GetGFWListSource(), Status: "pending"}
	if src := m.cfg.GetTLDSource(); src != "" {
		m.sources[DocTLDs] = &SourceStatus{URL: src, Status: "pending"}
	}
	if src := m.cfg.GetPublicSuffixSource(); src != "" {
		m.sources[DocPublicSuffix] = &SourceStatus{URL: src, Status: "pending"}
	}
}

func (m *SyncManager) Start(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.GetSyncInterval())
	defer ticker.Stop()

	// 初始同步
	_ = m.SyncNow(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = m.SyncNow(ctx)
		}
	}
}

// SyncNow 执行一次同步并记录结果
func (m *SyncManager) SyncNow(ctx context.Context) error {
	res, err := m.Run(ctx)
	if err != nil {
		log.Printf("规则同步失败: %v", err)
		return err
	}
	log.Printf("规则同步完成: %d 行, %d 条规则, %d 个域名, %d 条被跳过",
		res.Stats.Lines, res.Stats.Rules, res.Len(), len(res.Diagnostics)-res.Stats.Rewritten)
	return nil
}

// Run 下载参考文档、转换规则并写出配置文件。任何文档失败都会中止整个同步，
// 此时不会写出配置，已有文件保持不变。
func (m *SyncManager) Run(ctx context.Context) (res *Result, err error) {
	m.runMu.Lock()
	defer m.runMu.Unlock()

	start := time.Now()

	m.mu.Lock()
	m.lastSync = start
	m.syncStats.totalSyncs++
	m.mu.Unlock()

	defer func() {
		syncDuration.Observe(time.Since(start).Seconds())

		m.mu.Lock()
		if err != nil {
			m.syncStats.failedSyncs++
			m.syncStats.lastError = err.Error()
			syncCounter.WithLabelValues("error").Inc()
		} else {
			m.syncStats.successfulSyncs++
			m.syncStats.lastError = ""
			syncCounter.WithLabelValues("success").Inc()
		}
		m.mu.Unlock()

		if werr := WriteMetricsTextfile(m.cfg.Output.MetricsTextfile); werr != nil {
			log.Printf("写入指标文件失败: %v", werr)
		}
	}()

	var docs SuffixDocuments
	docs.TLDFormat = m.cfg.GetTLDFormat()
	if src := m.cfg.GetTLDSource(); src != "" {
		if docs.TLD, err = m.fetch(ctx, DocTLDs, src); err != nil {
			return nil, err
		}
	}
	if src := m.cfg.GetPublicSuffixSource(); src != "" {
		if docs.PublicSuffix, err = m.fetch(ctx, DocPublicSuffix, src); err != nil {
			return nil, err
		}
	}

	table, err := BuildSuffixTable(docs)
	if err != nil {
		return nil, fmt.Errorf("build suffix table: %w", err)
	}

	raw, err := m.fetch(ctx, DocGFWList, m.cfg.GetGFWListSource())
	if err != nil {
		return nil, err
	}
	content, err := DecodeBlocklist(raw, m.cfg.GetGFWListEncoding())
	if err != nil {
		m.markError(DocGFWList, err)
		return nil, err
	}

	res, err = ParseGFWList(content, table)
	if err != nil {
		m.markError(DocGFWList, err)
		return nil, err
	}
	for _, d := range m.cfg.Output.ExtraDomains {
		host, err := extractHost(strings.TrimSpace(d))
		if err != nil {
			res.note(skip(SeverityWarning, ReasonInvalidHost, d, "ignored extra domain: %s (%v)", d, err))
			continue
		}
		res.Add(d, host, table)
	}
	if res.Len() == 0 {
		return nil, ErrEmptyResult
	}

	domains := res.Domains()
	if err := WriteConf(m.cfg.GetOutputFile(), domains, m.cfg.GetGroup()); err != nil {
		return nil, fmt.Errorf("write conf: %w", err)
	}

	observeResult(res, table)

	m.mu.Lock()
	m.lastStats = res.Stats
	m.conf = RenderConf(domains, m.cfg.GetGroup())
	m.mu.Unlock()

	return res, nil
}

func (m *SyncManager) fetch(ctx context.Context, name, source string) ([]byte, error) {
	start := time.Now()
	b, err := m.fetcher.Fetch(ctx, source)
	elapsed := time.Since(start)
	fetchDuration.WithLabelValues(name).Observe(elapsed.Seconds())

	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.sources[name]
	if !ok {
		st = &SourceStatus{URL: source}
		m.sources[name] = st
	}
	st.LastSync = time.Now()
	st.ResponseTime = elapsed

	if err != nil {
		st.Status = "error"
		st.LastError = err.Error()
		return nil, fmt.Errorf("fetch %s: %w", name, err)
	}
	st.Status = "success"
	st.LastSuccess = st.LastSync
	st.LastError = ""
	st.Bytes = len(b)
	st.Checksum = utils.SHA256Hash(b)
	return b, nil
}

func (m *SyncManager) markError(name string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if st, ok := m.sources[name]; ok {
		st.Status = "error"
		st.LastError = err.Error()
	}
}

// Conf 返回最近一次成功同步生成的配置内容
func (m *SyncManager) Conf() []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.conf
}

// GetSyncStatus 获取同步状态
func (m *SyncManager) GetSyncStatus() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// 计算成功率
	var successRate float64
	if m.syncStats.totalSyncs > 0 {
		successRate = float64(m.syncStats.successfulSyncs) / float64(m.syncStats.totalSyncs) * 100
	}

	sources := make(map[string]SourceStatus, len(m.sources))
	for k, v := range m.sources {
		sources[k] = *v
	}

	return map[string]interface{}{
		"last_sync":        m.lastSync,
		"total_syncs":      m.syncStats.totalSyncs,
		"successful_syncs": m.syncStats.successfulSyncs,
		"failed_syncs":     m.syncStats.failedSyncs,
		"success_rate":     successRate,
		"last_error":       m.syncStats.lastError,
		"last_stats":       m.lastStats,
		"sources":          sources,
		"output":           m.cfg.GetOutputFile(),
		"group":            m.cfg.GetGroup(),
	}
}
