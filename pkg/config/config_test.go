package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/winspan/gfwlist2smartdns/internal/dns"
	"github.com/winspan/gfwlist2smartdns/pkg/logger"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.GetGFWListSource() != dns.DefaultGFWListURL {
		t.Errorf("gfwlist source = %q", cfg.GetGFWListSource())
	}
	if cfg.GetTLDSource() != dns.DefaultTLDsURL {
		t.Errorf("tlds source = %q", cfg.GetTLDSource())
	}
	if cfg.GetOutputFile() != "gfwlist.conf" || cfg.GetGroup() != "foreign" {
		t.Errorf("output = %q group = %q", cfg.GetOutputFile(), cfg.GetGroup())
	}
	if cfg.GetGFWListEncoding() != dns.EncodingBase64 {
		t.Errorf("encoding = %q", cfg.GetGFWListEncoding())
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "text" || cfg.Logging.Output != "stderr" {
		t.Errorf("logging = %+v", cfg.Logging)
	}
	if cfg.Monitoring.Path != "/metrics" {
		t.Errorf("monitoring path = %q", cfg.Monitoring.Path)
	}
	if cfg.IsServeMode() {
		t.Errorf("IsServeMode() = true without listen address")
	}
}

func TestLoadConfig_File(t *testing.T) {
	path := writeConfig(t, `
sources:
  gfwlist: /srv/gfwlist.txt
  gfwlist_encoding: plain
  tlds: embedded
output:
  file: /etc/smartdns/gfwlist.conf
  group: proxy
  extra_domains:
    - example.net
sync:
  interval: 3600
  timeout: 30
server:
  listen: 127.0.0.1:8053
  admin_token: secret
logging:
  level: debug
  format: json
monitoring:
  enabled: true
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.GetGFWListSource() != "/srv/gfwlist.txt" || cfg.GetGFWListEncoding() != dns.EncodingPlain {
		t.Errorf("sources = %+v", cfg.Sources)
	}
	if cfg.GetTLDSource() != "" {
		t.Errorf("embedded tlds source = %q, want empty", cfg.GetTLDSource())
	}
	if cfg.GetGroup() != "proxy" || len(cfg.Output.ExtraDomains) != 1 {
		t.Errorf("output = %+v", cfg.Output)
	}
	if cfg.GetSyncInterval().Seconds() != 3600 || cfg.GetSyncTimeout().Seconds() != 30 {
		t.Errorf("sync = %+v", cfg.Sync)
	}
	if !cfg.IsServeMode() || cfg.Server.AdminToken != "secret" {
		t.Errorf("server = %+v", cfg.Server)
	}

	lc := cfg.LoggerConfig()
	if lc.Level != logger.DEBUG || lc.Format != "json" {
		t.Errorf("logger config = %+v", lc)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Errorf("missing file: error = nil")
	}

	tests := []struct {
		name string
		body string
	}{
		{"bad yaml", "sources: [\n"},
		{"bad level", "logging:\n  level: loud\n"},
		{"bad format", "logging:\n  format: xml\n"},
		{"bad encoding", "sources:\n  gfwlist_encoding: gzip\n"},
		{"bad tld format", "sources:\n  tld_format: csv\n"},
		{"embedded with psl", "sources:\n  tlds: embedded\n  public_suffix: /srv/psl.dat\n"},
		{"bad group", "output:\n  group: \"a/b\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadConfig(writeConfig(t, tt.body)); err == nil {
				t.Fatalf("LoadConfig() error = nil, want error")
			}
		})
	}
}

func TestValidate_AfterOverride(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Output.Group = "has space"
	if err := cfg.Validate(); err == nil {
		t.Errorf("Validate() error = nil, want error")
	}
}
