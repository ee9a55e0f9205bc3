package dns

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRenderConf(t *testing.T) {
	got := string(RenderConf([]string{"a.com", "b.org"}, "china"))
	want := "nameserver /a.com/china\nnameserver /b.org/china\n"
	if got != want {
		t.Fatalf("RenderConf() = %q, want %q", got, want)
	}

	if got := string(RenderConf([]string{"a.com"}, "")); got != "nameserver /a.com/foreign\n" {
		t.Errorf("RenderConf() default group = %q", got)
	}
	if got := RenderConf(nil, "x"); len(got) != 0 {
		t.Errorf("RenderConf(nil) = %q, want empty", got)
	}
}

func TestWriteConf(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "gfwlist.conf")

	if err := WriteConf(path, []string{"example.com"}, "foreign"); err != nil {
		t.Fatalf("WriteConf() error = %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(b) != "nameserver /example.com/foreign\n" {
		t.Errorf("output = %q", b)
	}

	// Overwrite replaces the whole file.
	if err := WriteConf(path, []string{"a.net", "b.net"}, "proxy"); err != nil {
		t.Fatalf("WriteConf() error = %v", err)
	}
	b, _ = os.ReadFile(path)
	if string(b) != "nameserver /a.net/proxy\nnameserver /b.net/proxy\n" {
		t.Errorf("output = %q", b)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %v", entries)
	}
}

func TestWriteConf_TargetIsDirectory(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "out")
	if err := os.Mkdir(bad, 0755); err != nil {
		t.Fatal(err)
	}

	if err := WriteConf(bad, []string{"example.com"}, "foreign"); err == nil {
		t.Fatalf("WriteConf() to a directory error = nil, want error")
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %v", entries)
	}
}
