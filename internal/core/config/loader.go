package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v2"
)

// ToolkitDirEnv overrides the toolkit directory when the config leaves it empty.
const ToolkitDirEnv = "PACMAN_TOOLKIT_DIR"

// Default returns the configuration used when no file is given.
func Default() *AppConfig {
	cfg := &AppConfig{}
	applyDefaults(cfg)
	return cfg
}

// Load reads configuration from a YAML file. An empty path yields the defaults.
func Load(path string) (*AppConfig, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects policies the engine cannot run with.
func (c *AppConfig) Validate() error {
	ic := c.Interceptor
	if ic.PollInterval < 0 || ic.WriteTimeout < 0 || ic.ReadTimeout < 0 {
		return fmt.Errorf("interceptor intervals must not be negative")
	}
	if ic.MaxBackoff < ic.InitialBackoff {
		return fmt.Errorf("max_backoff (%s) is lower than initial_backoff (%s)", ic.MaxBackoff, ic.InitialBackoff)
	}
	if ic.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be at least 1, got %d", ic.MaxAttempts)
	}
	return nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Toolkit.Dir == "" {
		cfg.Toolkit.Dir = defaultToolkitDir()
	}
	if cfg.Toolkit.RescueScript == "" {
		cfg.Toolkit.RescueScript = "flash_rescue.sh"
	}
	if cfg.Toolkit.FirmwareDir == "" {
		cfg.Toolkit.FirmwareDir = "firmware"
	}
	if cfg.Toolkit.MTKDir == "" {
		cfg.Toolkit.MTKDir = "mtkclient"
	}
	if len(cfg.Toolkit.RequiredFirmware) == 0 {
		cfg.Toolkit.RequiredFirmware = []string{"boot.img"}
	}

	ic := &cfg.Interceptor
	if ic.PollInterval == 0 {
		ic.PollInterval = 50 * time.Millisecond
	}
	if ic.WriteTimeout == 0 {
		ic.WriteTimeout = time.Second
	}
	if ic.ReadTimeout == 0 {
		ic.ReadTimeout = 50 * time.Millisecond
	}
	if ic.InitialBackoff == 0 {
		ic.InitialBackoff = 2 * time.Second
	}
	if ic.MaxBackoff == 0 {
		ic.MaxBackoff = 30 * time.Second
	}
	if ic.MaxAttempts == 0 {
		ic.MaxAttempts = 10
	}
	if ic.MTKTool == "" {
		ic.MTKTool = "mtk"
	}
	if ic.Python == "" {
		ic.Python = "python3"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

// defaultToolkitDir prefers $PACMAN_TOOLKIT_DIR, then the directory holding the binary.
func defaultToolkitDir() string {
	if dir := os.Getenv(ToolkitDirEnv); dir != "" {
		return dir
	}
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe)
}
