package workspace

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew_Layout(t *testing.T) {
	w, err := New("/test/game")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name     string
		got      string
		expected string
	}{
		{"RootPath", w.RootPath, "/test/game"},
		{"AssetsPath", w.AssetsPath, "/test/game/assets"},
		{"MetaPath", w.MetaPath, "/test/game/.nst"},
		{"DescriptorsPath", w.DescriptorsPath, "/test/game/.nst/assets"},
		{"ScenesPath", w.ScenesPath, "/test/game/.nst/scenes"},
		{"SourcePath", w.SourcePath, "/test/game/src"},
		{"BuildPath", w.BuildPath, "/test/game/build"},
		{"ProjectFile", w.ProjectFile(), "/test/game/project.json"},
		{"EnvFile", w.EnvFile(), "/test/game/.env"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != filepath.FromSlash(tt.expected) {
				t.Errorf("%s = %q, want %q", tt.name, tt.got, tt.expected)
			}
		})
	}
}

func TestWorkspace_Paths(t *testing.T) {
	w, _ := New("/game")

	tests := []struct {
		name     string
		got      string
		expected string
	}{
		{"asset", w.GetAssetPath("sprites", "hero.png"), "/game/assets/sprites/hero.png"},
		{"descriptor", w.GetDescriptorPath("hero.image.json"), "/game/.nst/assets/hero.image.json"},
		{"scene", w.GetScenePath("1.scene.json"), "/game/.nst/scenes/1.scene.json"},
		{"source", w.GetSourcePath("scenes", "scene_1.c"), "/game/src/scenes/scene_1.c"},
		{"rom", w.RomPath("demo"), "/game/demo.z64"},
		{"abs relative", w.Abs("assets/sprites/hero.png"), "/game/assets/sprites/hero.png"},
		{"abs absolute", w.Abs("/elsewhere/x.png"), "/elsewhere/x.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != filepath.FromSlash(tt.expected) {
				t.Errorf("got %q, want %q", tt.got, tt.expected)
			}
		})
	}
}

func TestWorkspace_Rel(t *testing.T) {
	w, _ := New("/game")

	rel, err := w.Rel(filepath.Join("/game", "assets", "sprites", "hero.png"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rel != "assets/sprites/hero.png" {
		t.Errorf("Rel() = %q", rel)
	}
}

func TestWorkspace_InitializeAndExists(t *testing.T) {
	w, _ := New(t.TempDir())

	if w.Exists() {
		t.Fatal("fresh directory should not look like a project")
	}

	if err := w.Initialize(); err != nil {
		t.Fatalf("Initialize() error: %v", err)
	}

	for _, dir := range []string{w.AssetsPath, w.DescriptorsPath, w.ScenesPath, w.GetSourcePath("scripts")} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Errorf("expected directory %s", dir)
		}
	}

	if err := os.WriteFile(w.ProjectFile(), []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}
	if !w.Exists() {
		t.Error("Exists() should be true once project.json is written")
	}
}

func TestFind(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, ProjectFileName), []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(root, "src", "scenes")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	w, err := Find(nested)
	if err != nil {
		t.Fatalf("Find() error: %v", err)
	}

	want, _ := filepath.EvalSymlinks(root)
	got, _ := filepath.EvalSymlinks(w.RootPath)
	if got != want {
		t.Errorf("Find() root = %q, want %q", got, want)
	}
}

func TestFind_NotFound(t *testing.T) {
	_, err := Find(t.TempDir())
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err != nil && !strings.Contains(err.Error(), "parent") {
		t.Errorf("error should mention parent directories: %v", err)
	}
}

func TestWorkspace_CleanBuild(t *testing.T) {
	w, _ := New(t.TempDir())
	if err := os.MkdirAll(filepath.Join(w.BuildPath, "obj"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(w.FilesystemPath, 0755); err != nil {
		t.Fatal(err)
	}

	if err := w.CleanBuild(); err != nil {
		t.Fatalf("CleanBuild() error: %v", err)
	}
	if _, err := os.Stat(w.BuildPath); !os.IsNotExist(err) {
		t.Error("build directory should be removed")
	}
	if _, err := os.Stat(w.FilesystemPath); !os.IsNotExist(err) {
		t.Error("filesystem directory should be removed")
	}
}
