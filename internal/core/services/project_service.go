package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/kamal-hamza/nst/internal/core/domain"
	"github.com/kamal-hamza/nst/internal/core/ports"
	"github.com/kamal-hamza/nst/pkg/workspace"
)

// ErrProjectExists is returned when creating a project over an existing one
var ErrProjectExists = errors.New("project already exists")

const gitignoreContent = `# build outputs
build/
filesystem/
*.z64
*.v64
*.elf
*.dfs

# local environment
.env
`

const envTemplate = `# Environment for toolchain commands run by nst (make, emulator, editor).
# N64_INST=/opt/libdragon
`

// ProjectService creates and edits the project descriptor
type ProjectService struct {
	ws     *workspace.Workspace
	repo   ports.ProjectRepository
	logger *slog.Logger
}

func NewProjectService(ws *workspace.Workspace, repo ports.ProjectRepository, logger *slog.Logger) *ProjectService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProjectService{ws: ws, repo: repo, logger: logger}
}

// Create lays out a new project directory and writes project.json
func (s *ProjectService) Create(ctx context.Context, name string) (*domain.Project, error) {
	if s.ws.Exists() {
		return nil, fmt.Errorf("%w in %s", ErrProjectExists, s.ws.RootPath)
	}

	project, err := domain.NewProject(name)
	if err != nil {
		return nil, err
	}

	if err := s.ws.Initialize(); err != nil {
		return nil, err
	}

	for _, dir := range domain.AssetTypes {
		if err := os.MkdirAll(filepath.Join(s.ws.AssetsPath, dir.Dir()), 0755); err != nil {
			return nil, fmt.Errorf("failed to create asset directory: %w", err)
		}
	}

	if err := writeIfMissing(filepath.Join(s.ws.RootPath, ".gitignore"), gitignoreContent); err != nil {
		return nil, err
	}
	if err := writeIfMissing(s.ws.EnvFile(), envTemplate); err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to write project file: %w", err)
	}

	s.logger.Info("created project", "name", project.Name, "rom", project.RomName, "path", s.ws.RootPath)
	return project, nil
}

// Load reads the project descriptor
func (s *ProjectService) Load(ctx context.Context) (*domain.Project, error) {
	return s.repo.Load(ctx)
}

// Set changes one setting by dotted key. The project is only written when
// the result still validates.
func (s *ProjectService) Set(ctx context.Context, key, value string) (*domain.Project, error) {
	project, err := s.repo.Load(ctx)
	if err != nil {
		return nil, err
	}

	if err := project.Set(key, value); err != nil {
		return nil, err
	}
	if err := project.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to write project file: %w", err)
	}

	s.logger.Debug("project setting changed", "key", key, "value", value)
	return project, nil
}

// Get returns the value of one setting by dotted key
func (s *ProjectService) Get(ctx context.Context, key string) (string, error) {
	project, err := s.repo.Load(ctx)
	if err != nil {
		return "", err
	}
	for _, kv := range project.Settings() {
		if kv[0] == key {
			return kv[1], nil
		}
	}
	return "", fmt.Errorf("%w: %s", domain.ErrUnknownSetting, key)
}

func writeIfMissing(path, content string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}
