package dns

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"fmt"
	"sort"
	"strings"
)

// 黑名单文档编码
const (
	EncodingAuto   = "auto"
	EncodingBase64 = "base64"
	EncodingPlain  = "plain"
)

// Stats 单次解析的统计
type Stats struct {
	Lines     int            `json:"lines"`
	Rules     int            `json:"rules"`
	Hosts     int            `json:"hosts"`
	Domains   int            `json:"domains"`
	Skipped   map[Reason]int `json:"skipped"`
	Rewritten int            `json:"rewritten"`
}

// Result 解析结果：去重后的可注册域名集合以及诊断记录
type Result struct {
	domains     map[string]struct{}
	Diagnostics []Diagnostic
	Stats       Stats
}

func newResult() *Result {
	return &Result{
		domains: make(map[string]struct{}),
		Stats:   Stats{Skipped: make(map[Reason]int)},
	}
}

// Add 将主机名归类后加入集合
func (r *Result) Add(rule, host string, table SuffixTable) bool {
	r.Stats.Hosts++
	domain, ok := Classify(host, table)
	if !ok {
		r.note(skip(SeverityWarning, ReasonUnclassified, rule, "ignored invalid domain: %s", host))
		return false
	}
	r.domains[domain] = struct{}{}
	r.Stats.Domains = len(r.domains)
	return true
}

func (r *Result) note(d Diagnostic) {
	r.Diagnostics = append(r.Diagnostics, d)
	switch d.Reason {
	case ReasonLossy:
		r.Stats.Rewritten++
	case ReasonNotARule:
	default:
		r.Stats.Skipped[d.Reason]++
	}
}

// Domains 返回按字典序排序的域名列表
func (r *Result) Domains() []string {
	return setToSlice(r.domains)
}

// Len 域名数量
func (r *Result) Len() int {
	return len(r.domains)
}

// ParseGFWList 逐行处理已解码的 gfwlist 内容；读取中断时返回错误，不返回部分结果
func ParseGFWList(content string, table SuffixTable) (*Result, error) {
	res := newResult()

	scanner := bufio.NewScanner(strings.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		res.Stats.Lines++

		kind := KindOf(line)
		if kind == RuleEmpty {
			continue
		}
		if kind == RuleRegex || kind == RuleLiteral {
			res.Stats.Rules++
		}

		hosts, diags := Reduce(line)
		for _, d := range diags {
			res.note(d)
		}
		for _, h := range hosts {
			res.Add(strings.TrimSpace(line), h, table)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan blocklist at line %d: %w", res.Stats.Lines+1, err)
	}
	return res, nil
}

// DecodeBlocklist 按编码解出黑名单原文
func DecodeBlocklist(raw []byte, encoding string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case EncodingPlain:
		return string(raw), nil
	case EncodingBase64:
		return decodeBase64(raw)
	case "", EncodingAuto:
		if looksPlain(raw) {
			return string(raw), nil
		}
		return decodeBase64(raw)
	default:
		return "", fmt.Errorf("unsupported blocklist encoding: %s", encoding)
	}
}

func decodeBase64(raw []byte) (string, error) {
	// StdEncoding already ignores '\r' and '\n'.
	b, err := base64.StdEncoding.DecodeString(string(bytes.TrimSpace(raw)))
	if err != nil {
		return "", fmt.Errorf("decode base64 blocklist: %w", err)
	}
	return string(b), nil
}

func looksPlain(raw []byte) bool {
	trimmed := bytes.TrimSpace(raw)
	return bytes.HasPrefix(trimmed, []byte("[AutoProxy")) ||
		bytes.HasPrefix(trimmed, []byte("!")) ||
		bytes.Contains(trimmed, []byte("\n!"))
}

func setToSlice(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for d := range set {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}
