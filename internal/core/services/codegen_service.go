package services

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"text/template"

	"github.com/kamal-hamza/nst/internal/core/domain"
	"github.com/kamal-hamza/nst/internal/core/ports"
	"github.com/kamal-hamza/nst/pkg/workspace"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var codeTemplates = template.Must(template.ParseFS(templateFS, "templates/*.tmpl"))

// CodegenService stamps out the build files and C skeletons of a project
type CodegenService struct {
	ws       *workspace.Workspace
	projects ports.ProjectRepository
	scenes   ports.SceneRepository
	assets   ports.AssetRepository
	logger   *slog.Logger
}

func NewCodegenService(ws *workspace.Workspace, projects ports.ProjectRepository, scenes ports.SceneRepository, assets ports.AssetRepository, logger *slog.Logger) *CodegenService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CodegenService{
		ws:       ws,
		projects: projects,
		scenes:   scenes,
		assets:   assets,
		logger:   logger,
	}
}

// GenerateResult lists project relative paths that were written or left alone
type GenerateResult struct {
	Written []string
	Skipped []string
}

// sceneView is what templates see of a scene
type sceneView struct {
	ID      int
	Name    string
	Symbol  string
	R, G, B uint8
	Fill    bool
	Scripts []string
}

// assetRule is one conversion rule in the Makefile
type assetRule struct {
	Source  string
	Output  string
	Tag     string
	Command string
}

type codegenData struct {
	Project        *domain.Project
	Depth          string
	Scenes         []sceneView
	Scripts        []string
	Assets         []assetRule
	InitialSceneID int
}

type outputFile struct {
	template  string
	path      []string // relative to the project root
	data      any
	overwrite bool
}

// GenerateAll writes the Makefile, setup and scene table from the current
// project state. Scene, script and main skeletons are only created when
// missing so user code is never replaced.
func (s *CodegenService) GenerateAll(ctx context.Context) (*GenerateResult, error) {
	data, err := s.collect(ctx)
	if err != nil {
		return nil, err
	}

	files := []outputFile{
		{"Makefile.tmpl", []string{"Makefile"}, data, true},
		{"setup.h.tmpl", []string{"src", "setup.h"}, data, true},
		{"setup.c.tmpl", []string{"src", "setup.c"}, data, true},
		{"scene_table.h.tmpl", []string{"src", "scenes", "scene_table.h"}, data, true},
		{"scene_table.c.tmpl", []string{"src", "scenes", "scene_table.c"}, data, true},
		{"main.c.tmpl", []string{"src", "main.c"}, data, false},
	}
	for _, scene := range data.Scenes {
		files = append(files, outputFile{"scene.c.tmpl", []string{"src", "scenes", scene.Symbol + ".c"}, scene, false})
	}
	for _, script := range data.Scripts {
		files = append(files, outputFile{"script.c.tmpl", []string{"src", "scripts", script + ".c"}, script, false})
	}

	result := &GenerateResult{Written: []string{}, Skipped: []string{}}
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rel := path.Join(f.path...)
		target := filepath.Join(append([]string{s.ws.RootPath}, f.path...)...)

		if !f.overwrite {
			if _, err := os.Stat(target); err == nil {
				result.Skipped = append(result.Skipped, rel)
				continue
			}
		}

		if err := renderTo(target, f.template, f.data); err != nil {
			return nil, err
		}
		result.Written = append(result.Written, rel)
	}

	s.logger.Info("generated sources", "written", len(result.Written), "skipped", len(result.Skipped))
	return result, nil
}

func (s *CodegenService) collect(ctx context.Context) (*codegenData, error) {
	project, err := s.projects.Load(ctx)
	if err != nil {
		return nil, err
	}
	if err := project.Validate(); err != nil {
		return nil, fmt.Errorf("invalid project settings: %w", err)
	}

	scenes, err := s.scenes.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list scenes: %w", err)
	}

	reg, err := s.assets.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load assets: %w", err)
	}

	title := strings.ReplaceAll(project.Title, `"`, "")
	p := *project
	p.Title = title

	data := &codegenData{
		Project:        &p,
		Depth:          "DEPTH_16_BPP",
		Scenes:         make([]sceneView, 0, len(scenes)),
		Scripts:        []string{},
		Assets:         make([]assetRule, 0, reg.Len()),
		InitialSceneID: project.InitialSceneID,
	}
	if project.Display.BitDepth == 32 {
		data.Depth = "DEPTH_32_BPP"
	}

	for _, scene := range scenes {
		r, g, b := scene.RGB()
		data.Scenes = append(data.Scenes, sceneView{
			ID:      scene.ID,
			Name:    cString(scene.Name),
			Symbol:  scene.Symbol(),
			R:       r,
			G:       g,
			B:       b,
			Fill:    scene.FillBackground,
			Scripts: scene.Scripts,
		})
		data.Scripts = append(data.Scripts, scene.Scripts...)
	}

	if len(scenes) > 0 && !containsScene(scenes, data.InitialSceneID) {
		data.InitialSceneID = scenes[0].ID
	}

	for _, a := range reg.All() {
		data.Assets = append(data.Assets, conversionRule(a))
	}

	return data, nil
}

func renderTo(target, name string, data any) error {
	var buf bytes.Buffer
	if err := codeTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Errorf("failed to render %s: %w", name, err)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", target, err)
	}
	if err := os.WriteFile(target, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", target, err)
	}
	return nil
}

// conversionRule maps an asset to the SDK tool that packs it into the ROM filesystem
func conversionRule(a domain.Asset) assetRule {
	m := a.Meta()
	rule := assetRule{
		Source: m.FilePath,
		Output: strings.TrimPrefix(domain.RomPath(a), "rom:/"),
	}

	switch v := a.(type) {
	case *domain.ImageAsset:
		rule.Tag = "SPRITE"
		args := []string{"$(N64_MKSPRITE)", "-f", v.Format}
		if v.Dither != "" && v.Dither != "NONE" {
			args = append(args, "--dither", v.Dither)
		}
		if (v.SliceH > 1 || v.SliceV > 1) && v.SliceH > 0 && v.SliceV > 0 && v.Width > 0 && v.Height > 0 {
			args = append(args, "--tiles", fmt.Sprintf("%d,%d", v.Width/v.SliceH, v.Height/v.SliceV))
		}
		rule.Command = strings.Join(append(args, "-o", "$(dir $@)", `"$<"`), " ")

	case *domain.SoundAsset:
		rule.Tag = "AUDIO"
		args := []string{"$(N64_AUDIOCONV)"}
		if strings.HasSuffix(rule.Output, ".wav64") {
			if v.Compress {
				args = append(args, "--wav-compress", "1")
			} else {
				args = append(args, "--wav-compress", "0")
			}
			if v.Mono {
				args = append(args, "--wav-mono")
			}
			if v.Resample > 0 {
				args = append(args, "--wav-resample", strconv.Itoa(v.Resample))
			}
			if v.Loop {
				args = append(args, "--wav-loop", "true")
				if v.LoopStart > 0 {
					args = append(args, "--wav-loop-offset", strconv.Itoa(v.LoopStart))
				}
			}
		}
		rule.Command = strings.Join(append(args, "-o", "$(dir $@)", `"$<"`), " ")

	case *domain.FontAsset:
		rule.Tag = "FONT"
		args := []string{
			"$(N64_MKFONT)",
			"--size", strconv.Itoa(v.Size),
			"--range", fmt.Sprintf("%x-%x", v.RangeStart, v.RangeEnd),
		}
		if v.Outline {
			args = append(args, "--outline", "1")
		}
		rule.Command = strings.Join(append(args, "-o", "$(dir $@)", `"$<"`), " ")

	case *domain.GeneralAsset:
		rule.Tag = "FILE"
		rule.Command = `cp "$<" $@`
		if v.Compress {
			rule.Command = `$(N64_MKASSET) -c 2 -o $(dir $@) "$<"`
		}

	default:
		rule.Tag = "MAP"
		rule.Command = `cp "$<" $@`
	}

	return rule
}

func containsScene(scenes []*domain.Scene, id int) bool {
	for _, s := range scenes {
		if s.ID == id {
			return true
		}
	}
	return false
}

// cString escapes a display name for use inside a C string literal
func cString(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == '"' || r == '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		case r < 0x20 || r > 0x7E:
			b.WriteByte('_')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
