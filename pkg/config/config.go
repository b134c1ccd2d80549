package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Toolchain
	SDKPath    string   `yaml:"sdk_path"` // exported as N64_INST to the build
	BuildTool  string   `yaml:"build_tool"`
	BuildFlags []string `yaml:"build_flags"`
	BuildJobs  int      `yaml:"build_jobs"`

	// External programs
	Emulator      string   `yaml:"emulator"`
	EmulatorFlags []string `yaml:"emulator_flags"`
	Editor        string   `yaml:"editor"`

	// Logging
	LogLevel string `yaml:"log_level"`

	// UI Settings
	ColorTheme      string `yaml:"color_theme"`
	DateFormat      string `yaml:"date_format"`
	CopyToClipboard bool   `yaml:"copy_to_clipboard"`

	// Assets
	DefaultAssetFolder string `yaml:"default_asset_folder"`

	// Watch
	WatchDebounceMS int  `yaml:"watch_debounce_ms"`
	WatchRegenerate bool `yaml:"watch_regenerate"`
}

// DefaultConfig returns a Config struct with default values
func DefaultConfig() *Config {
	return &Config{
		SDKPath:            os.Getenv("N64_INST"),
		BuildTool:          "make",
		BuildFlags:         []string{},
		BuildJobs:          4,
		Emulator:           "ares",
		EmulatorFlags:      []string{},
		Editor:             "",
		LogLevel:           "warn",
		ColorTheme:         "auto",
		DateFormat:         "2006-01-02",
		CopyToClipboard:    true,
		DefaultAssetFolder: "/",
		WatchDebounceMS:    500,
		WatchRegenerate:    true,
	}
}

// DefaultPath returns the user config location
// Follows XDG Base Directory specification on Unix and uses AppData on Windows
func DefaultPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, "nst", "config.yaml"), nil
	}

	if appData := os.Getenv("APPDATA"); appData != "" {
		return filepath.Join(appData, "nst", "config.yaml"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(homeDir, ".config", "nst", "config.yaml"), nil
}

// Load reads configuration from the specified file path
func Load(path string) (*Config, error) {
	// Start with default config
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		// If file doesn't exist, return default config (not an error)
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Apply defaults for essential values if missing
	if cfg.BuildTool == "" {
		cfg.BuildTool = "make"
	}
	if cfg.BuildJobs <= 0 {
		cfg.BuildJobs = 4
	}
	if cfg.DateFormat == "" {
		cfg.DateFormat = "2006-01-02"
	}
	if cfg.DefaultAssetFolder == "" {
		cfg.DefaultAssetFolder = "/"
	}
	if cfg.WatchDebounceMS <= 0 {
		cfg.WatchDebounceMS = 500
	}
	if cfg.BuildFlags == nil {
		cfg.BuildFlags = []string{}
	}
	if cfg.EmulatorFlags == nil {
		cfg.EmulatorFlags = []string{}
	}

	if !isValidLogLevel(cfg.LogLevel) {
		cfg.LogLevel = "warn"
	}

	return cfg, nil
}

// Save persists the current configuration to the specified file path
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func isValidLogLevel(level string) bool {
	validLevels := []string{"debug", "info", "warn", "error"}
	for _, valid := range validLevels {
		if level == valid {
			return true
		}
	}
	return false
}
