package dns

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
	mdns "github.com/miekg/dns"
)

// RuleKind gfwlist 规则行的类别
type RuleKind int

const (
	RuleEmpty RuleKind = iota
	RuleComment
	RuleHeader
	RuleException
	RuleRegex
	RuleLiteral
)

// KindOf 判断规则行的类别
func KindOf(line string) RuleKind {
	line = strings.TrimSpace(line)
	switch {
	case line == "":
		return RuleEmpty
	case strings.HasPrefix(line, "!"):
		return RuleComment
	case strings.HasPrefix(line, "["):
		return RuleHeader
	case strings.HasPrefix(line, "@"):
		return RuleException
	case strings.HasPrefix(line, "/"):
		return RuleRegex
	default:
		return RuleLiteral
	}
}

const regexTimeout = 200 * time.Millisecond

func mustCompile(expr string) *regexp2.Regexp {
	re := regexp2.MustCompile(expr, regexp2.None)
	re.MatchTimeout = regexTimeout
	return re
}

var (
	// prefix (group) suffix, where group is unescaped and not quantified.
	reGroupedOr = mustCompile(`^(.*)(?<!\\)\((.*?)(?<!\\)\)(?![*+?{])(.*)$`)

	// Quantified structure is dropped outright: the zero-occurrence reading.
	reQuantified = []*regexp2.Regexp{
		mustCompile(`(?<!\\)\(.*(?<!\\)\)[*+?]`),
		mustCompile(`(?<!\\)\(.*(?<!\\)\)\{.*?\}`),
		mustCompile(`(?<!\\)\[.*(?<!\\)\][*+?]`),
		mustCompile(`(?<!\\)\[.*(?<!\\)\]\{.*?\}`),
		mustCompile(`(?<!\\)\\.[*+?]`),
		mustCompile(`(?<!\\)\\.\{.*?\}`),
		mustCompile(`.[*+?]`),
		mustCompile(`.\{.*?\}`),
	}

	reInnerGlob = mustCompile(`(?<=\w)\*(?=\w)`)
	reScheme    = mustCompile(`^\w+?://`)
)

// Reduce 将一行 gfwlist 规则化简为零个或多个主机名（ASCII 形式）。
// 无法表示为具体域名的规则不产出主机名，原因记录在诊断中。
func Reduce(line string) ([]string, []Diagnostic) {
	line = strings.TrimSpace(line)

	switch KindOf(line) {
	case RuleEmpty:
		return nil, nil
	case RuleComment, RuleHeader, RuleException:
		return nil, []Diagnostic{skip(SeverityDebug, ReasonNotARule, line, "not a domain rule: %s", line)}
	case RuleRegex:
		candidates, diags := expandRegex(line)
		var hosts []string
		for _, c := range candidates {
			host, d := reduceLiteral(line, c)
			diags = append(diags, d...)
			if host != "" {
				hosts = append(hosts, host)
			}
		}
		return hosts, diags
	default:
		host, diags := reduceLiteral(line, line)
		if host == "" {
			return nil, diags
		}
		return []string{host}, diags
	}
}

// expandRegex 处理 /.../ 形式的受限正则规则
func expandRegex(line string) ([]string, []Diagnostic) {
	body := strings.TrimPrefix(line, "/")
	body = strings.TrimSuffix(body, "/")
	body = strings.TrimLeft(body, "^")
	body = strings.TrimRight(body, "$")
	body = strings.ReplaceAll(body, `\/`, "/")

	var (
		out   []string
		diags []Diagnostic
	)
	for _, rule := range expandGroupedOr(body) {
		if strings.Contains(rule, `\..*`) {
			diags = append(diags, skip(SeverityWarning, ReasonUnboundedRegex, line, "ignored regex rule: %s", rule))
			continue
		}

		reduced, err := stripQuantified(rule)
		if err != nil {
			diags = append(diags, skip(SeverityWarning, ReasonInvalidHost, line, "ignored regex rule: %s (%v)", rule, err))
			continue
		}
		if reduced != body {
			diags = append(diags, lossy(line, body, reduced))
		}
		out = append(out, reduced)
	}
	return out, diags
}

// expandGroupedOr 将 (a|b|c) 形式的分组按笛卡尔积展开
func expandGroupedOr(rule string) []string {
	m, err := reGroupedOr.FindStringMatch(rule)
	if err != nil || m == nil {
		return []string{rule}
	}

	prefix := m.GroupByNumber(1).String()
	items := strings.Split(m.GroupByNumber(2).String(), "|")
	suffix := m.GroupByNumber(3).String()

	var out []string
	for _, item := range items {
		out = append(out, expandGroupedOr(prefix+item+suffix)...)
	}
	return out
}

func stripQuantified(rule string) (string, error) {
	for _, re := range reQuantified {
		var err error
		if rule, err = re.Replace(rule, "", -1, -1); err != nil {
			return "", err
		}
	}
	return strings.ReplaceAll(rule, `\.`, "."), nil
}

// reduceLiteral 处理普通（glob/主机名）规则，rule 为原始规则行，仅用于诊断
func reduceLiteral(rule, s string) (string, []Diagnostic) {
	s = percentDecode(s)

	if !strings.Contains(s, ".") {
		return "", []Diagnostic{skip(SeverityWarning, ReasonNoDot, rule, "ignored keyword rule: %s", s)}
	}
	if strings.Contains(s, ".*") {
		return "", []Diagnostic{skip(SeverityWarning, ReasonUnboundedGlob, rule, "ignored glob rule: %s", s)}
	}

	var diags []Diagnostic
	replaced, err := replaceGlobs(s)
	if err != nil {
		return "", []Diagnostic{skip(SeverityWarning, ReasonInvalidHost, rule, "ignored glob rule: %s (%v)", s, err)}
	}
	if replaced != s {
		diags = append(diags, lossy(rule, s, replaced))
	}

	stripped, err := stripPrefix(replaced)
	if err != nil {
		return "", append(diags, skip(SeverityWarning, ReasonInvalidHost, rule, "ignored invalid rule: %s (%v)", replaced, err))
	}

	host, err := extractHost(stripped)
	if err != nil {
		return "", append(diags, skip(SeverityWarning, ReasonInvalidHost, rule, "ignored invalid domain: %s (%v)", stripped, err))
	}
	return host, diags
}

// percentDecode 逐个解码 %XX 转义，非法转义原样保留
func percentDecode(s string) string {
	if !strings.Contains(s, "%") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) {
			if v, err := strconv.ParseUint(s[i+1:i+3], 16, 8); err == nil {
				b.WriteByte(byte(v))
				i += 2
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return strings.ToValidUTF8(b.String(), "\uFFFD")
}

// replaceGlobs 词字符之间的 * 替换为路径分隔符，其余 * 直接删除
func replaceGlobs(s string) (string, error) {
	if !strings.Contains(s, "*") {
		return s, nil
	}
	out, err := reInnerGlob.Replace(s, "/", -1, -1)
	if err != nil {
		return "", err
	}
	return strings.ReplaceAll(out, "*", ""), nil
}

func stripPrefix(s string) (string, error) {
	s = strings.TrimLeft(s, "|")
	s, err := reScheme.Replace(s, "", -1, 1)
	if err != nil {
		return "", err
	}
	return strings.TrimLeft(s, "."), nil
}

// extractHost 以 https:// 为前缀解析 URL，取出主机名并转为 punycode。
// 只解析路径之前的部分，路径中的内容不影响结果。
func extractHost(s string) (string, error) {
	if i := strings.IndexAny(s, "/?#"); i >= 0 {
		s = s[:i]
	}
	u, err := url.Parse("https://" + s)
	if err != nil {
		return "", err
	}

	host, err := toASCII(u.Hostname())
	if err != nil {
		return "", err
	}
	if net.ParseIP(host) != nil {
		return "", fmt.Errorf("ip address %s", host)
	}
	if !strings.Contains(host, ".") {
		return "", fmt.Errorf("no dot in host %q", host)
	}
	if _, ok := mdns.IsDomainName(host); !ok {
		return "", fmt.Errorf("malformed host %q", host)
	}
	return host, nil
}
