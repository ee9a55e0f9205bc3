package dns

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/weppos/publicsuffix-go/publicsuffix"
	xpsl "golang.org/x/net/publicsuffix"
)

// ErrEmptyTable 参考文档中没有任何有效后缀
var ErrEmptyTable = errors.New("suffix table is empty")

// extraSLDParts 出现在真实二级公共后缀中、但本身不是顶级域的标签（如 go.jp、or.jp）
var extraSLDParts = map[string]struct{}{
	"a":  {},
	"go": {},
	"or": {},
	"pp": {},
}

// TLD 文档格式
const (
	TLDFormatAuto = "auto"
	TLDFormatFlat = "flat"
	TLDFormatJSON = "json"
)

// TableKind 后缀表的构建方式
type TableKind string

const (
	TableFlat        TableKind = "flat"
	TableComposite   TableKind = "tld+psl"
	TableCountryCode TableKind = "country-code"
	TableEmbedded    TableKind = "embedded"
)

// SuffixTable 可注册后缀的成员判定
type SuffixTable interface {
	// IsSuffix reports whether candidate (lowercase punycode) is a registrable suffix.
	IsSuffix(candidate string) bool
	Kind() TableKind
	Len() int
}

// SuffixDocuments 构建后缀表所需的参考文档
type SuffixDocuments struct {
	TLD          []byte
	TLDFormat    string
	PublicSuffix []byte
}

// BuildSuffixTable 根据可用的参考文档选择并构建后缀表
func BuildSuffixTable(docs SuffixDocuments) (SuffixTable, error) {
	if len(bytes.TrimSpace(docs.TLD)) == 0 {
		if len(bytes.TrimSpace(docs.PublicSuffix)) != 0 {
			return nil, fmt.Errorf("public suffix list given without a tld list")
		}
		return EmbeddedTable{}, nil
	}

	all, cc, err := parseTLDs(docs.TLD, docs.TLDFormat)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("tld list: %w", ErrEmptyTable)
	}

	if len(bytes.TrimSpace(docs.PublicSuffix)) != 0 {
		return buildComposite(all, docs.PublicSuffix)
	}
	if cc != nil {
		return &CountryCodeTable{all: all, cc: cc}, nil
	}
	return &FlatTable{set: all}, nil
}

// parseTLDs 解析 TLD 文档；JSON 格式时额外返回国家代码顶级域集合
func parseTLDs(doc []byte, format string) (all, cc map[string]struct{}, err error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", TLDFormatAuto:
		if bytes.HasPrefix(bytes.TrimSpace(doc), []byte("[")) {
			return parseTLDJSON(doc)
		}
		all, err = parseTLDFlat(doc)
		return all, nil, err
	case TLDFormatJSON:
		return parseTLDJSON(doc)
	case TLDFormatFlat:
		all, err = parseTLDFlat(doc)
		return all, nil, err
	default:
		return nil, nil, fmt.Errorf("unsupported tld format: %s", format)
	}
}

func parseTLDFlat(doc []byte) (map[string]struct{}, error) {
	set := make(map[string]struct{})
	scanner := bufio.NewScanner(bytes.NewReader(doc))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}
		// IANA lists are one TLD per line; tolerate trailing columns.
		line = strings.Fields(line)[0]

		tld, err := toASCII(line)
		if err != nil {
			return nil, fmt.Errorf("tld list: %w", err)
		}
		set[tld] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("tld list: %w", err)
	}
	return set, nil
}

type tldEntry struct {
	TLD  string `json:"tld"`
	Type string `json:"type"`
}

func parseTLDJSON(doc []byte) (all, cc map[string]struct{}, err error) {
	var entries []tldEntry
	if err := json.Unmarshal(doc, &entries); err != nil {
		return nil, nil, fmt.Errorf("tld json: %w", err)
	}

	all = make(map[string]struct{}, len(entries))
	cc = make(map[string]struct{})
	for _, e := range entries {
		if strings.TrimSpace(e.TLD) == "" {
			continue
		}
		tld, err := toASCII(strings.TrimPrefix(strings.TrimSpace(e.TLD), "."))
		if err != nil {
			return nil, nil, fmt.Errorf("tld json: %w", err)
		}
		all[tld] = struct{}{}
		if e.Type == "country-code" {
			cc[tld] = struct{}{}
		}
	}
	return all, cc, nil
}

// buildComposite 在 TLD 集合之上补充公共后缀列表中的二级后缀（co.jp、com.hk 等）
func buildComposite(base map[string]struct{}, psl []byte) (*CompositeTable, error) {
	rules, err := publicsuffix.NewList().Load(bytes.NewReader(psl), &publicsuffix.ParserOption{
		PrivateDomains: true,
	})
	if err != nil {
		return nil, fmt.Errorf("public suffix list: %w", err)
	}

	set := make(map[string]struct{}, len(base)+len(rules)/2)
	for tld := range base {
		set[tld] = struct{}{}
	}

	for _, rule := range rules {
		if rule.Type == publicsuffix.ExceptionType {
			continue
		}
		value, err := toASCII(rule.Value)
		if err != nil {
			return nil, fmt.Errorf("public suffix list: %w", err)
		}
		labels := strings.Split(value, ".")
		if len(labels) < 2 {
			continue
		}
		tld, sld := labels[len(labels)-1], labels[len(labels)-2]
		if _, ok := base[tld]; !ok {
			continue
		}
		_, sldIsTLD := base[sld]
		_, sldIsExtra := extraSLDParts[sld]
		if sldIsTLD || sldIsExtra {
			set[sld+"."+tld] = struct{}{}
		}
	}
	return &CompositeTable{set: set}, nil
}

// FlatTable 仅由 TLD 列表构成的后缀表
type FlatTable struct {
	set map[string]struct{}
}

// NewFlatTable 由给定后缀直接构建后缀表
func NewFlatTable(suffixes ...string) *FlatTable {
	set := make(map[string]struct{}, len(suffixes))
	for _, s := range suffixes {
		if s, err := toASCII(s); err == nil {
			set[s] = struct{}{}
		}
	}
	return &FlatTable{set: set}
}

func (t *FlatTable) IsSuffix(candidate string) bool {
	_, ok := t.set[candidate]
	return ok
}

func (t *FlatTable) Kind() TableKind { return TableFlat }
func (t *FlatTable) Len() int        { return len(t.set) }

// CompositeTable TLD 列表与公共后缀列表二级后缀的并集
type CompositeTable struct {
	set map[string]struct{}
}

func (t *CompositeTable) IsSuffix(candidate string) bool {
	_, ok := t.set[candidate]
	return ok
}

func (t *CompositeTable) Kind() TableKind { return TableComposite }
func (t *CompositeTable) Len() int        { return len(t.set) }

// CountryCodeTable 由带类型信息的 TLD 文档构建：
// 除单个 TLD 外，x.cc（x 为 TLD 或常见二级标签）与 cc.tld 也视为后缀
type CountryCodeTable struct {
	all map[string]struct{}
	cc  map[string]struct{}
}

func (t *CountryCodeTable) IsSuffix(candidate string) bool {
	i := strings.IndexByte(candidate, '.')
	if i < 0 {
		_, ok := t.all[candidate]
		return ok
	}
	sld, tld := candidate[:i], candidate[i+1:]
	if strings.IndexByte(tld, '.') >= 0 {
		return false
	}

	_, tldAny := t.all[tld]
	_, tldCC := t.cc[tld]
	_, sldAny := t.all[sld]
	_, sldCC := t.cc[sld]
	_, sldExtra := extraSLDParts[sld]

	// example.jp.net
	if tldAny && sldCC {
		return true
	}
	// example.com.hk, example.go.jp
	return tldCC && (sldAny || sldExtra)
}

func (t *CountryCodeTable) Kind() TableKind { return TableCountryCode }
func (t *CountryCodeTable) Len() int        { return len(t.all) }

// EmbeddedTable 使用 x/net/publicsuffix 内置的 ICANN 后缀，离线时使用
type EmbeddedTable struct{}

func (EmbeddedTable) IsSuffix(candidate string) bool {
	if candidate == "" {
		return false
	}
	suffix, icann := xpsl.PublicSuffix(candidate)
	return icann && suffix == candidate
}

func (EmbeddedTable) Kind() TableKind { return TableEmbedded }
func (EmbeddedTable) Len() int        { return 0 }
