package config

import (
	"path/filepath"
	"time"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Toolkit     ToolkitConfig     `yaml:"toolkit"`
	Interceptor InterceptorConfig `yaml:"interceptor"`
	Server      ServerConfig      `yaml:"server"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// ToolkitConfig locates the files the interceptor hands off to.
// Relative paths are resolved against Dir.
type ToolkitConfig struct {
	Dir              string   `yaml:"dir"`
	RescueScript     string   `yaml:"rescue_script"`
	FirmwareDir      string   `yaml:"firmware_dir"`
	MTKDir           string   `yaml:"mtk_dir"`
	RequiredFirmware []string `yaml:"required_firmware"`
}

// InterceptorConfig holds polling and retry policy.
type InterceptorConfig struct {
	PollInterval       time.Duration `yaml:"poll_interval"`
	WriteTimeout       time.Duration `yaml:"write_timeout"`
	ReadTimeout        time.Duration `yaml:"read_timeout"`
	InitialBackoff     time.Duration `yaml:"initial_backoff"`
	MaxBackoff         time.Duration `yaml:"max_backoff"`
	MaxAttempts        int           `yaml:"max_attempts"`
	FastbootProductIDs []uint16      `yaml:"fastboot_product_ids"`
	MTKTool            string        `yaml:"mtk_tool"`
	Python             string        `yaml:"python"`
}

// ServerConfig holds HTTP status server settings. Port 0 disables the server.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// RescueScriptPath returns the absolute path of the rescue script.
func (t ToolkitConfig) RescueScriptPath() string {
	return t.resolve(t.RescueScript)
}

// FirmwarePath returns the absolute path of the firmware directory.
func (t ToolkitConfig) FirmwarePath() string {
	return t.resolve(t.FirmwareDir)
}

// MTKPath returns the absolute path of the bundled mtkclient checkout.
func (t ToolkitConfig) MTKPath() string {
	return t.resolve(t.MTKDir)
}

func (t ToolkitConfig) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(t.Dir, p)
}
