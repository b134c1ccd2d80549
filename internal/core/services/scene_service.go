package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kamal-hamza/nst/internal/core/domain"
	"github.com/kamal-hamza/nst/internal/core/ports"
)

// SceneService manages scenes and the scripts attached to them
type SceneService struct {
	projects ports.ProjectRepository
	scenes   ports.SceneRepository
	logger   *slog.Logger
}

func NewSceneService(projects ports.ProjectRepository, scenes ports.SceneRepository, logger *slog.Logger) *SceneService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SceneService{projects: projects, scenes: scenes, logger: logger}
}

// Create allocates the next scene id and stores a new scene. The first
// scene of a project becomes the initial scene.
func (s *SceneService) Create(ctx context.Context, name string) (*domain.Scene, error) {
	if err := domain.ValidateSceneName(name); err != nil {
		return nil, err
	}

	project, err := s.projects.Load(ctx)
	if err != nil {
		return nil, err
	}

	id := project.AllocateSceneID()
	scene, err := domain.NewScene(id, name)
	if err != nil {
		return nil, err
	}

	if project.InitialSceneID == 0 {
		project.InitialSceneID = id
	}

	// the counter is persisted first so a failed scene write never reuses an id
	if err := s.projects.Save(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}
	if err := s.scenes.Save(ctx, scene); err != nil {
		return nil, fmt.Errorf("failed to save scene: %w", err)
	}

	s.logger.Info("created scene", "id", id, "name", name)
	return scene, nil
}

func (s *SceneService) List(ctx context.Context) ([]*domain.Scene, error) {
	return s.scenes.List(ctx)
}

func (s *SceneService) Get(ctx context.Context, id int) (*domain.Scene, error) {
	return s.scenes.Get(ctx, id)
}

// Rename changes the display name of a scene
func (s *SceneService) Rename(ctx context.Context, id int, name string) (*domain.Scene, error) {
	if err := domain.ValidateSceneName(name); err != nil {
		return nil, err
	}
	return s.update(ctx, id, func(scene *domain.Scene) error {
		scene.Name = name
		return nil
	})
}

// SetBackground changes the clear colour and whether the scene fills it every frame
func (s *SceneService) SetBackground(ctx context.Context, id int, hex string, fill bool) (*domain.Scene, error) {
	return s.update(ctx, id, func(scene *domain.Scene) error {
		if hex != "" {
			if err := scene.SetBackground(hex); err != nil {
				return err
			}
		}
		scene.FillBackground = fill
		return nil
	})
}

// Delete removes a scene. If it was the initial scene the lowest remaining
// id takes its place.
func (s *SceneService) Delete(ctx context.Context, id int) error {
	if err := s.scenes.Delete(ctx, id); err != nil {
		return err
	}

	project, err := s.projects.Load(ctx)
	if err != nil {
		return err
	}

	if project.InitialSceneID == id {
		remaining, err := s.scenes.List(ctx)
		if err != nil {
			return err
		}
		project.InitialSceneID = 0
		if len(remaining) > 0 {
			project.InitialSceneID = remaining[0].ID
		}
		if err := s.projects.Save(ctx, project); err != nil {
			return fmt.Errorf("failed to update project: %w", err)
		}
	}

	s.logger.Info("deleted scene", "id", id)
	return nil
}

// SetInitial marks the scene the game boots into
func (s *SceneService) SetInitial(ctx context.Context, id int) error {
	if _, err := s.scenes.Get(ctx, id); err != nil {
		return err
	}

	project, err := s.projects.Load(ctx)
	if err != nil {
		return err
	}
	project.InitialSceneID = id
	return s.projects.Save(ctx, project)
}

// AddScript attaches a script to a scene. Script names are unique across
// the project because each becomes a C source file.
func (s *SceneService) AddScript(ctx context.Context, id int, name string) (*domain.Scene, error) {
	if err := domain.ValidateScriptName(name); err != nil {
		return nil, err
	}

	all, err := s.scenes.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, other := range all {
		if other.HasScript(name) {
			return nil, fmt.Errorf("%w: %q is attached to scene %d", domain.ErrDuplicateScript, name, other.ID)
		}
	}

	return s.update(ctx, id, func(scene *domain.Scene) error {
		return scene.AddScript(name)
	})
}

// RemoveScript detaches a script. Its source file is left on disk.
func (s *SceneService) RemoveScript(ctx context.Context, id int, name string) (*domain.Scene, error) {
	return s.update(ctx, id, func(scene *domain.Scene) error {
		return scene.RemoveScript(name)
	})
}

// FindScript returns the scene a script is attached to
func (s *SceneService) FindScript(ctx context.Context, name string) (*domain.Scene, error) {
	all, err := s.scenes.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, scene := range all {
		if scene.HasScript(name) {
			return scene, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrScriptNotFound, name)
}

func (s *SceneService) update(ctx context.Context, id int, fn func(*domain.Scene) error) (*domain.Scene, error) {
	scene, err := s.scenes.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(scene); err != nil {
		return nil, err
	}
	if err := s.scenes.Save(ctx, scene); err != nil {
		return nil, fmt.Errorf("failed to save scene: %w", err)
	}
	return scene, nil
}
