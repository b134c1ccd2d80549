package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg == nil {
		t.Fatal("DefaultConfig() returned nil")
	}

	if cfg.BuildTool != "make" {
		t.Errorf("expected default BuildTool='make', got %q", cfg.BuildTool)
	}

	if cfg.Emulator != "ares" {
		t.Errorf("expected default Emulator='ares', got %q", cfg.Emulator)
	}

	if cfg.Editor != "" {
		t.Errorf("expected default Editor='', got %q", cfg.Editor)
	}

	if cfg.BuildJobs != 4 {
		t.Errorf("expected default BuildJobs=4, got %d", cfg.BuildJobs)
	}

	if cfg.LogLevel != "warn" {
		t.Errorf("expected default LogLevel='warn', got %q", cfg.LogLevel)
	}
}

func TestDefaultPath_XDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")

	path, err := DefaultPath()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := filepath.Join("/tmp/xdg", "nst", "config.yaml")
	if path != expected {
		t.Errorf("DefaultPath() = %q, want %q", path, expected)
	}
}

func TestLoad_NonExistentFile(t *testing.T) {
	// Loading a non-existent file should return default config
	cfg, err := Load("/nonexistent/path/config.yaml")

	if err != nil {
		t.Fatalf("unexpected error loading non-existent file: %v", err)
	}

	if cfg == nil {
		t.Fatal("Load() returned nil config")
	}

	if cfg.BuildTool != "make" {
		t.Errorf("expected default BuildTool='make', got %q", cfg.BuildTool)
	}
}

func TestSave_And_Load(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.SDKPath = "/opt/libdragon"
	cfg.Emulator = "cen64"
	cfg.EmulatorFlags = []string{"pifdata.bin"}
	cfg.Editor = "code"
	cfg.BuildJobs = 8

	if err := cfg.Save(configPath); err != nil {
		t.Fatalf("failed to save config: %v", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Fatal("config file was not created")
	}

	loadedCfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if loadedCfg.SDKPath != cfg.SDKPath {
		t.Errorf("SDKPath: expected %q, got %q", cfg.SDKPath, loadedCfg.SDKPath)
	}

	if loadedCfg.Emulator != cfg.Emulator {
		t.Errorf("Emulator: expected %q, got %q", cfg.Emulator, loadedCfg.Emulator)
	}

	if len(loadedCfg.EmulatorFlags) != 1 || loadedCfg.EmulatorFlags[0] != "pifdata.bin" {
		t.Errorf("EmulatorFlags: got %v", loadedCfg.EmulatorFlags)
	}

	if loadedCfg.Editor != cfg.Editor {
		t.Errorf("Editor: expected %q, got %q", cfg.Editor, loadedCfg.Editor)
	}

	if loadedCfg.BuildJobs != cfg.BuildJobs {
		t.Errorf("BuildJobs: expected %d, got %d", cfg.BuildJobs, loadedCfg.BuildJobs)
	}
}

func TestLoad_AppliesDefaults(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.yaml")

	// Partial config (missing build_tool and build_jobs)
	yamlContent := `editor: nvim
emulator: ares
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to create test config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.BuildTool != "make" {
		t.Errorf("expected default BuildTool='make', got %q", cfg.BuildTool)
	}

	if cfg.BuildJobs != 4 {
		t.Errorf("expected default BuildJobs=4, got %d", cfg.BuildJobs)
	}

	if cfg.Editor != "nvim" {
		t.Errorf("expected Editor='nvim', got %q", cfg.Editor)
	}
}

func TestLoad_EmptyAndInvalidValues(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.yaml")

	yamlContent := `build_tool: ""
build_jobs: -3
log_level: chatty
default_asset_folder: ""
watch_debounce_ms: 0
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to create test config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.BuildTool != "make" {
		t.Errorf("expected BuildTool='make' for empty value, got %q", cfg.BuildTool)
	}
	if cfg.BuildJobs != 4 {
		t.Errorf("expected BuildJobs=4 for negative value, got %d", cfg.BuildJobs)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("expected LogLevel='warn' for invalid value, got %q", cfg.LogLevel)
	}
	if cfg.DefaultAssetFolder != "/" {
		t.Errorf("expected DefaultAssetFolder='/', got %q", cfg.DefaultAssetFolder)
	}
	if cfg.WatchDebounceMS != 500 {
		t.Errorf("expected WatchDebounceMS=500, got %d", cfg.WatchDebounceMS)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.yaml")

	if err := os.WriteFile(configPath, []byte("build_jobs: [unclosed"), 0644); err != nil {
		t.Fatalf("failed to create test config file: %v", err)
	}

	if _, err := Load(configPath); err == nil {
		t.Error("expected error for invalid YAML")
	}
}
