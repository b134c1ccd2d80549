package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/kamal-hamza/nst/internal/core/ports"
	"github.com/kamal-hamza/nst/pkg/config"
	"github.com/kamal-hamza/nst/pkg/workspace"
)

// ErrRomMissing is returned by Run when the project has not been built yet
var ErrRomMissing = errors.New("rom not built")

// BuildService drives the external toolchain: build, clean, run and edit
type BuildService struct {
	ws        *workspace.Workspace
	projects  ports.ProjectRepository
	toolchain ports.Toolchain
	launcher  ports.Launcher
	codegen   *CodegenService
	config    *config.Config
	logger    *slog.Logger
}

func NewBuildService(
	ws *workspace.Workspace,
	projects ports.ProjectRepository,
	toolchain ports.Toolchain,
	launcher ports.Launcher,
	codegen *CodegenService,
	cfg *config.Config,
	logger *slog.Logger,
) *BuildService {
	if logger == nil {
		logger = slog.Default()
	}
	return &BuildService{
		ws:        ws,
		projects:  projects,
		toolchain: toolchain,
		launcher:  launcher,
		codegen:   codegen,
		config:    cfg,
		logger:    logger,
	}
}

// BuildRequest represents a request to build the ROM
type BuildRequest struct {
	SkipGenerate bool
	OnOutput     func(line string)
}

// BuildResponse represents the outcome of a build
type BuildResponse struct {
	ExitCode  int
	RomPath   string
	Generated *GenerateResult
}

// Build regenerates the build files (unless skipped) and runs the toolchain
func (s *BuildService) Build(ctx context.Context, req BuildRequest) (*BuildResponse, error) {
	project, err := s.projects.Load(ctx)
	if err != nil {
		return nil, err
	}

	resp := &BuildResponse{RomPath: s.ws.RomPath(project.RomName)}

	if !req.SkipGenerate && s.codegen != nil {
		gen, err := s.codegen.GenerateAll(ctx)
		if err != nil {
			return nil, err
		}
		resp.Generated = gen
	}

	s.logger.Info("building", "rom", project.RomName)

	code, err := s.toolchain.Build(ctx, req.OnOutput)
	resp.ExitCode = code
	if err != nil {
		s.logger.Error("build failed", "exit_code", code, "err", err)
		return resp, fmt.Errorf("build failed: %w", err)
	}

	s.logger.Info("build finished", "rom", resp.RomPath)
	return resp, nil
}

// Clean removes build outputs through the toolchain
func (s *BuildService) Clean(ctx context.Context, onOutput func(line string)) (int, error) {
	code, err := s.toolchain.Clean(ctx, onOutput)
	if err != nil {
		return code, fmt.Errorf("clean failed: %w", err)
	}
	return code, nil
}

// Run opens the built ROM in the emulator without waiting for it
func (s *BuildService) Run(ctx context.Context) (string, error) {
	project, err := s.projects.Load(ctx)
	if err != nil {
		return "", err
	}

	rom := s.ws.RomPath(project.RomName)
	if info, err := os.Stat(rom); err != nil || !info.Mode().IsRegular() {
		return "", fmt.Errorf("%w: %s (run a build first)", ErrRomMissing, rom)
	}

	emulator := s.config.Emulator
	if project.Toolchain.Emulator != "" {
		emulator = project.Toolchain.Emulator
	}
	if emulator == "" {
		return "", fmt.Errorf("no emulator configured (set emulator in config or toolchain.emulator in the project)")
	}

	args := append(append([]string{}, s.config.EmulatorFlags...), rom)
	if err := s.launcher.Launch(ctx, emulator, args...); err != nil {
		return "", err
	}

	s.logger.Info("launched emulator", "emulator", emulator, "rom", rom)
	return emulator, nil
}

// Edit opens target (the project root when empty) in the configured editor
// without waiting for it
func (s *BuildService) Edit(ctx context.Context, target string) (string, error) {
	project, err := s.projects.Load(ctx)
	if err != nil {
		return "", err
	}

	if target == "" {
		target = s.ws.RootPath
	} else {
		target = s.ws.Abs(target)
	}

	editor := s.config.Editor
	if project.Toolchain.Editor != "" {
		editor = project.Toolchain.Editor
	}
	if editor == "" {
		editor = os.Getenv("VISUAL")
	}

	// an empty editor makes the launcher fall back to the OS default handler
	if err := s.launcher.Launch(ctx, editor, target); err != nil {
		return "", err
	}

	s.logger.Info("opened editor", "editor", editor, "target", target)
	return editor, nil
}
