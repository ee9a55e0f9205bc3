package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/winspan/gfwlist2smartdns/internal/dns"
	"github.com/winspan/gfwlist2smartdns/pkg/config"
	"github.com/winspan/gfwlist2smartdns/pkg/logger"
)

func TestApplyArgs(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		wantFile  string
		wantGroup string
		wantErr   bool
	}{
		{name: "none", args: nil, wantFile: "gfwlist.conf", wantGroup: "foreign"},
		{name: "output", args: []string{"out.conf"}, wantFile: "out.conf", wantGroup: "foreign"},
		{name: "output and group", args: []string{"out.conf", "china"}, wantFile: "out.conf", wantGroup: "china"},
		{name: "too many", args: []string{"a", "b", "c"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := config.LoadConfig("")
			if err != nil {
				t.Fatal(err)
			}
			err = applyArgs(cfg, tt.args)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("applyArgs() error = nil, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("applyArgs() error = %v", err)
			}
			if cfg.GetOutputFile() != tt.wantFile || cfg.GetGroup() != tt.wantGroup {
				t.Errorf("file = %q group = %q, want %q %q", cfg.GetOutputFile(), cfg.GetGroup(), tt.wantFile, tt.wantGroup)
			}
		})
	}
}

func TestReport(t *testing.T) {
	var buf bytes.Buffer
	lg := logger.New(&buf, logger.INFO, "text", "")

	report(lg, []dns.Diagnostic{
		{Severity: dns.SeverityWarning, Reason: dns.ReasonNoDot, Message: "ignored keyword rule: foo"},
		{Severity: dns.SeverityInfo, Reason: dns.ReasonLossy, Message: "a -> b"},
		{Severity: dns.SeverityDebug, Reason: dns.ReasonNotARule, Message: "not a domain rule: ! x"},
	})

	out := buf.String()
	if !strings.Contains(out, "WARN no-dot: ignored keyword rule: foo") {
		t.Errorf("missing warning in %q", out)
	}
	if !strings.Contains(out, "INFO lossy: a -> b") {
		t.Errorf("missing info in %q", out)
	}
	if strings.Contains(out, "not a domain rule") {
		t.Errorf("debug diagnostic logged at info level: %q", out)
	}
}
