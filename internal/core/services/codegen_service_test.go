package services

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/kamal-hamza/nst/internal/adapters/repository"
	"github.com/kamal-hamza/nst/internal/core/domain"
	"github.com/kamal-hamza/nst/internal/core/ports/mocks"
	"github.com/kamal-hamza/nst/pkg/workspace"
)

type codegenFixture struct {
	svc      *CodegenService
	ws       *workspace.Workspace
	projects *mocks.MockProjectRepository
	scenes   *SceneService
	assets   *mocks.MockAssetRepository
}

func setupCodegen(t *testing.T) *codegenFixture {
	t.Helper()
	ws, err := workspace.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	project := newProject(t)
	project.Modules.Audio = true
	project.Modules.Mixer = true

	projects := mocks.NewMockProjectRepository(project)
	sceneRepo := mocks.NewMockSceneRepository()
	assets := mocks.NewMockAssetRepository()

	return &codegenFixture{
		svc:      NewCodegenService(ws, projects, sceneRepo, assets, nil),
		ws:       ws,
		projects: projects,
		scenes:   NewSceneService(projects, sceneRepo, nil),
		assets:   assets,
	}
}

func readGenerated(t *testing.T, ws *workspace.Workspace, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(ws.RootPath, filepath.FromSlash(rel)))
	if err != nil {
		t.Fatalf("expected %s to be generated: %v", rel, err)
	}
	return string(data)
}

func TestCodegen_GenerateAll(t *testing.T) {
	f := setupCodegen(t)
	ctx := context.Background()

	title, _ := f.scenes.Create(ctx, `Title "Screen"`)
	level, _ := f.scenes.Create(ctx, "Level")
	f.scenes.AddScript(ctx, level.ID, "player_move")
	f.scenes.SetBackground(ctx, title.ID, "#102030", true)

	hero, _ := domain.NewAsset(domain.TypeImage, domain.AssetMeta{Name: "hero", FilePath: "assets/sprites/hero.png"})
	hero.(*domain.ImageAsset).Width = 64
	hero.(*domain.ImageAsset).Height = 32
	hero.(*domain.ImageAsset).SliceH = 4
	theme, _ := domain.NewAsset(domain.TypeSound, domain.AssetMeta{Name: "theme", FilePath: "assets/sounds/theme.xm"})
	jump, _ := domain.NewAsset(domain.TypeSound, domain.AssetMeta{Name: "jump", FilePath: "assets/sounds/jump.wav"})
	jump.(*domain.SoundAsset).Loop = true
	f.assets.Save(ctx, hero)
	f.assets.Save(ctx, theme)
	f.assets.Save(ctx, jump)

	result, err := f.svc.GenerateAll(ctx)
	if err != nil {
		t.Fatalf("GenerateAll failed: %v", err)
	}

	expected := []string{
		"Makefile",
		"src/setup.h",
		"src/setup.c",
		"src/scenes/scene_table.h",
		"src/scenes/scene_table.c",
		"src/main.c",
		"src/scenes/scene_1.c",
		"src/scenes/scene_2.c",
		"src/scripts/player_move.c",
	}
	for _, rel := range expected {
		if !slices.Contains(result.Written, rel) {
			t.Errorf("expected %s to be written, got %v", rel, result.Written)
		}
	}
	if len(result.Skipped) != 0 {
		t.Errorf("nothing should be skipped on first run, got %v", result.Skipped)
	}

	makefile := readGenerated(t, f.ws, "Makefile")
	for _, want := range []string{
		"N64_ROM_TITLE = \"Test Game\"",
		"src/scenes/scene_2.c",
		"src/scripts/player_move.c",
		"$(FS_DIR)/hero.sprite: assets/sprites/hero.png",
		"--tiles 16,32",
		"$(FS_DIR)/theme.xm64: assets/sounds/theme.xm",
		"--wav-loop true",
		"test_game.z64: $(BUILD_DIR)/test_game.dfs",
		"\trm -rf $(BUILD_DIR)",
	} {
		if !strings.Contains(makefile, want) {
			t.Errorf("Makefile missing %q:\n%s", want, makefile)
		}
	}
	lines := strings.Split(makefile, "\n")
	for i, line := range lines {
		if strings.HasPrefix(line, "$(FS_DIR)/theme.xm64:") && i+3 < len(lines) {
			if strings.Contains(lines[i+3], "--wav") {
				t.Errorf("xm modules must not receive wav flags: %s", lines[i+3])
			}
		}
	}

	setup := readGenerated(t, f.ws, "src/setup.c")
	for _, want := range []string{"debug_init_isviewer();", "display_init(", "DEPTH_16_BPP", "audio_init(", "mixer_init(", "joypad_init();"} {
		if !strings.Contains(setup, want) {
			t.Errorf("setup.c missing %q", want)
		}
	}
	if strings.Contains(setup, "t3d_init") {
		t.Error("disabled modules must not be initialized")
	}

	table := readGenerated(t, f.ws, "src/scenes/scene_table.c")
	for _, want := range []string{
		`{ 1, "Title \"Screen\"", { 16, 32, 48 }, true, scene_1_init`,
		"const int initial_scene_id = 1;",
		"player_move_update(dt);",
		"mixer_try_play();",
	} {
		if !strings.Contains(table, want) {
			t.Errorf("scene_table.c missing %q:\n%s", want, table)
		}
	}
}

func TestCodegen_NeverOverwritesSkeletons(t *testing.T) {
	f := setupCodegen(t)
	ctx := context.Background()

	scene, _ := f.scenes.Create(ctx, "Main")
	f.scenes.AddScript(ctx, scene.ID, "enemy_ai")

	if _, err := f.svc.GenerateAll(ctx); err != nil {
		t.Fatalf("GenerateAll failed: %v", err)
	}

	userCode := "// hand written\n"
	for _, rel := range []string{"src/scenes/scene_1.c", "src/scripts/enemy_ai.c", "src/main.c"} {
		if err := os.WriteFile(filepath.Join(f.ws.RootPath, filepath.FromSlash(rel)), []byte(userCode), 0644); err != nil {
			t.Fatal(err)
		}
	}

	f.scenes.Rename(ctx, scene.ID, "Renamed")
	result, err := f.svc.GenerateAll(ctx)
	if err != nil {
		t.Fatalf("second GenerateAll failed: %v", err)
	}

	for _, rel := range []string{"src/scenes/scene_1.c", "src/scripts/enemy_ai.c", "src/main.c"} {
		if got := readGenerated(t, f.ws, rel); got != userCode {
			t.Errorf("%s was overwritten", rel)
		}
		if !slices.Contains(result.Skipped, rel) {
			t.Errorf("%s should be reported as skipped", rel)
		}
	}

	if !strings.Contains(readGenerated(t, f.ws, "src/scenes/scene_table.c"), `"Renamed"`) {
		t.Error("scene table should be regenerated")
	}
}

func TestCodegen_NoScenes(t *testing.T) {
	f := setupCodegen(t)

	if _, err := f.svc.GenerateAll(context.Background()); err != nil {
		t.Fatalf("GenerateAll failed: %v", err)
	}

	table := readGenerated(t, f.ws, "src/scenes/scene_table.c")
	if !strings.Contains(table, `"empty"`) {
		t.Error("an empty project still needs a placeholder scene entry")
	}
}

func TestCodegen_InvalidProject(t *testing.T) {
	f := setupCodegen(t)
	ctx := context.Background()

	p, _ := f.projects.Load(ctx)
	p.Modules.Audio = false
	f.projects.Save(ctx, p)

	if _, err := f.svc.GenerateAll(ctx); err == nil {
		t.Error("mixer without audio should fail validation")
	}
	if _, err := os.Stat(filepath.Join(f.ws.RootPath, "Makefile")); !os.IsNotExist(err) {
		t.Error("nothing should be written for an invalid project")
	}
}

func TestCodegen_BadDescriptorIsAnError(t *testing.T) {
	ws, err := workspace.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := ws.Initialize(); err != nil {
		t.Fatal(err)
	}
	descriptor := `{"name": "hero", "file_path": "assets/sprites/hero.png", "width": 64, "height": 32, "slice_h": 2, "slice_v": 0}`
	if err := os.WriteFile(ws.GetDescriptorPath("hero.image.json"), []byte(descriptor), 0644); err != nil {
		t.Fatal(err)
	}

	svc := NewCodegenService(ws, mocks.NewMockProjectRepository(newProject(t)), mocks.NewMockSceneRepository(), repository.NewFileAssetRepository(ws), nil)
	if _, err := svc.GenerateAll(context.Background()); err == nil {
		t.Fatal("a descriptor with zero slices should fail generation")
	}
	if _, err := os.Stat(filepath.Join(ws.RootPath, "Makefile")); !os.IsNotExist(err) {
		t.Error("nothing should be written when descriptors fail to load")
	}
}

func TestConversionRule_ZeroSlicesSkipsTiles(t *testing.T) {
	img := &domain.ImageAsset{
		AssetMeta: domain.AssetMeta{Name: "hero", FilePath: "assets/sprites/hero.png"},
		Width:     64, Height: 32, SliceH: 2, SliceV: 0, Format: "RGBA16",
	}
	if rule := conversionRule(img); strings.Contains(rule.Command, "--tiles") {
		t.Errorf("tiles need both slice counts, got %q", rule.Command)
	}
}

func TestConversionRule(t *testing.T) {
	font := &domain.FontAsset{AssetMeta: domain.AssetMeta{Name: "ui", FilePath: "assets/fonts/ui.ttf"}, Size: 12, RangeStart: 0x20, RangeEnd: 0x7e, Outline: true}
	gen := &domain.GeneralAsset{AssetMeta: domain.AssetMeta{Name: "lvl", FilePath: "assets/files/lvl.bin"}, Compress: true}
	tiled := &domain.TiledMapAsset{AssetMeta: domain.AssetMeta{Name: "map", FilePath: "assets/maps/map.tmx"}}

	tests := []struct {
		asset   domain.Asset
		output  string
		command string
	}{
		{font, "ui.font64", "$(N64_MKFONT) --size 12 --range 20-7e --outline 1"},
		{gen, "lvl.bin", "$(N64_MKASSET) -c 2"},
		{tiled, "map.tmx", `cp "$<" $@`},
	}

	for _, tt := range tests {
		rule := conversionRule(tt.asset)
		if rule.Output != tt.output {
			t.Errorf("%s: expected output %s, got %s", tt.asset.Meta().Name, tt.output, rule.Output)
		}
		if !strings.HasPrefix(rule.Command, tt.command) {
			t.Errorf("%s: expected command to start with %q, got %q", tt.asset.Meta().Name, tt.command, rule.Command)
		}
	}
}
