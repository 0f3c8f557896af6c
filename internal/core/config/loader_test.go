package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpFile, err := os.CreateTemp(t.TempDir(), "config_*.yaml")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	if _, err := tmpFile.Write([]byte(content)); err != nil {
		t.Fatalf("Failed to write to temp file: %v", err)
	}
	tmpFile.Close()
	return tmpFile.Name()
}

func TestLoad_EnvSubstitution(t *testing.T) {
	t.Setenv("TEST_TOOLKIT_DIR", "/opt/pacman")

	cfg, err := Load(writeConfig(t, `
toolkit:
  dir: ${TEST_TOOLKIT_DIR}
`))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Toolkit.Dir != "/opt/pacman" {
		t.Errorf("Expected dir /opt/pacman, got %s", cfg.Toolkit.Dir)
	}
	if got := cfg.Toolkit.RescueScriptPath(); got != "/opt/pacman/flash_rescue.sh" {
		t.Errorf("Expected rescue script under toolkit dir, got %s", got)
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(ToolkitDirEnv, "/srv/toolkit")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	ic := cfg.Interceptor
	if ic.PollInterval != 50*time.Millisecond {
		t.Errorf("expected 50ms poll interval, got %v", ic.PollInterval)
	}
	if ic.WriteTimeout != time.Second {
		t.Errorf("expected 1s write timeout, got %v", ic.WriteTimeout)
	}
	if ic.InitialBackoff != 2*time.Second || ic.MaxBackoff != 30*time.Second {
		t.Errorf("unexpected backoff defaults: %v / %v", ic.InitialBackoff, ic.MaxBackoff)
	}
	if ic.MaxAttempts != 10 {
		t.Errorf("expected ceiling 10, got %d", ic.MaxAttempts)
	}
	if ic.MTKTool != "mtk" {
		t.Errorf("expected mtk tool fallback 'mtk', got %q", ic.MTKTool)
	}
	if cfg.Toolkit.Dir != "/srv/toolkit" {
		t.Errorf("expected toolkit dir from env, got %s", cfg.Toolkit.Dir)
	}
	if got := cfg.Toolkit.FirmwarePath(); got != filepath.Join("/srv/toolkit", "firmware") {
		t.Errorf("unexpected firmware path %s", got)
	}
}

func TestLoad_DurationsAndProductIDs(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
interceptor:
  poll_interval: 20ms
  write_timeout: 250ms
  read_timeout: 30ms
  initial_backoff: 1s
  max_backoff: 8s
  max_attempts: 3
  fastboot_product_ids: [0x4ee7, 0x0d02]
server:
  port: 9100
`))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	ic := cfg.Interceptor
	if ic.PollInterval != 20*time.Millisecond || ic.ReadTimeout != 30*time.Millisecond {
		t.Errorf("durations not parsed: %v %v", ic.PollInterval, ic.ReadTimeout)
	}
	if ic.WriteTimeout != 250*time.Millisecond {
		t.Errorf("write timeout not parsed: %v", ic.WriteTimeout)
	}
	if ic.MaxAttempts != 3 {
		t.Errorf("expected 3 attempts, got %d", ic.MaxAttempts)
	}
	if len(ic.FastbootProductIDs) != 2 || ic.FastbootProductIDs[0] != 0x4ee7 {
		t.Errorf("unexpected product ids %v", ic.FastbootProductIDs)
	}
	if cfg.Server.Port != 9100 {
		t.Errorf("expected port 9100, got %d", cfg.Server.Port)
	}
}

func TestLoad_RejectsInvertedBackoff(t *testing.T) {
	_, err := Load(writeConfig(t, `
interceptor:
  initial_backoff: 10s
  max_backoff: 5s
`))
	if err == nil {
		t.Fatal("expected validation error for max_backoff < initial_backoff")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
