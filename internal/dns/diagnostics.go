package dns

import "fmt"

// Severity 诊断级别
type Severity int

const (
	SeverityDebug Severity = iota
	SeverityInfo
	SeverityWarning
)

// String 返回诊断级别的字符串表示
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	default:
		return "unknown"
	}
}

// Reason 规则被跳过或被改写的原因
type Reason string

const (
	ReasonNotARule       Reason = "not-a-rule"
	ReasonUnboundedRegex Reason = "unbounded-regex"
	ReasonNoDot          Reason = "no-dot"
	ReasonUnboundedGlob  Reason = "unbounded-glob"
	ReasonInvalidHost    Reason = "invalid-host"
	ReasonUnclassified   Reason = "unclassified"
	ReasonLossy          Reason = "lossy"
)

// Diagnostic 单条规则处理过程中产生的诊断记录
type Diagnostic struct {
	Severity Severity `json:"severity"`
	Reason   Reason   `json:"reason"`
	Rule     string   `json:"rule"`
	Message  string   `json:"message"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("[%s] %s: %s", d.Severity, d.Reason, d.Message)
}

// Dropped reports whether the diagnostic means a rule contributed nothing.
func (d Diagnostic) Dropped() bool {
	return d.Reason != ReasonLossy && d.Reason != ReasonNotARule
}

func skip(severity Severity, reason Reason, rule, format string, args ...interface{}) Diagnostic {
	return Diagnostic{
		Severity: severity,
		Reason:   reason,
		Rule:     rule,
		Message:  fmt.Sprintf(format, args...),
	}
}

func lossy(rule, from, to string) Diagnostic {
	return Diagnostic{
		Severity: SeverityInfo,
		Reason:   ReasonLossy,
		Rule:     rule,
		Message:  fmt.Sprintf("%s -> %s", from, to),
	}
}
