package remule

import (
	"io/ioutil"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigFallsBackToEmbeddedDefault(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "does-not-exist.yaml")

	cfg, err := LoadConfig(missing)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.DBUri == "" {
		t.Error("DBUri from embedded default is empty")
	}
	if cfg.PaceIntervalMs <= 0 {
		t.Errorf("PaceIntervalMs = %d, want > 0", cfg.PaceIntervalMs)
	}
}

func TestLoadConfigReadsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "remule.yaml")
	writeFile(t, path, "DBUri: \"custom.db\"\nBindAddr: \"127.0.0.1:5000\"\n")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.DBUri != "custom.db" {
		t.Errorf("DBUri = %q, want %q", cfg.DBUri, "custom.db")
	}
	if cfg.BindAddr != "127.0.0.1:5000" {
		t.Errorf("BindAddr = %q, want %q", cfg.BindAddr, "127.0.0.1:5000")
	}
}

func TestPaceIntervalDefaultsToOneSecond(t *testing.T) {
	cfg := &Config{}
	if got := cfg.PaceInterval(); got != time.Second {
		t.Errorf("PaceInterval() = %v, want %v", got, time.Second)
	}

	cfg.PaceIntervalMs = 250
	if got := cfg.PaceInterval(); got != 250*time.Millisecond {
		t.Errorf("PaceInterval() = %v, want %v", got, 250*time.Millisecond)
	}
}

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	if err := ioutil.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("write %q: %v", path, err)
	}
}
