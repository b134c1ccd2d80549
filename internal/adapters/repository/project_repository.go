package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/kamal-hamza/nst/internal/core/domain"
	"github.com/kamal-hamza/nst/internal/core/ports"
	"github.com/kamal-hamza/nst/pkg/workspace"
)

// ProjectRepository reads and writes project.json
type ProjectRepository struct {
	ws *workspace.Workspace
	mu sync.Mutex
}

func NewProjectRepository(ws *workspace.Workspace) *ProjectRepository {
	return &ProjectRepository{ws: ws}
}

var _ ports.ProjectRepository = (*ProjectRepository)(nil)

// Load reads the project descriptor
func (r *ProjectRepository) Load(ctx context.Context) (*domain.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := os.ReadFile(r.ws.ProjectFile())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrProjectNotExists, r.ws.RootPath)
		}
		return nil, fmt.Errorf("failed to read project file: %w", err)
	}

	var project domain.Project
	if err := json.Unmarshal(data, &project); err != nil {
		return nil, fmt.Errorf("malformed project file: %w", err)
	}
	if project.RomName == "" {
		return nil, fmt.Errorf("malformed project file: missing rom_name")
	}

	return &project, nil
}

// Save writes the project descriptor
func (r *ProjectRepository) Save(ctx context.Context, project *domain.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := json.MarshalIndent(project, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode project: %w", err)
	}

	if err := os.MkdirAll(r.ws.RootPath, 0755); err != nil {
		return fmt.Errorf("failed to create project directory: %w", err)
	}

	return writeFileAtomic(r.ws.ProjectFile(), data)
}
