package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/kamal-hamza/nst/internal/core/domain"
	"github.com/kamal-hamza/nst/internal/core/ports"
	"github.com/kamal-hamza/nst/pkg/workspace"
)

// SceneRepository stores one JSON descriptor per scene: .nst/scenes/<id>.scene.json
type SceneRepository struct {
	ws *workspace.Workspace
	mu sync.RWMutex
}

func NewSceneRepository(ws *workspace.Workspace) *SceneRepository {
	return &SceneRepository{ws: ws}
}

var _ ports.SceneRepository = (*SceneRepository)(nil)

// List returns all scenes ordered by id
func (r *SceneRepository) List(ctx context.Context) ([]*domain.Scene, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries, err := os.ReadDir(r.ws.ScenesPath)
	if err != nil {
		if os.IsNotExist(err) {
			return []*domain.Scene{}, nil
		}
		return nil, fmt.Errorf("failed to read scenes directory: %w", err)
	}

	scenes := []*domain.Scene{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".scene.json") {
			continue
		}
		id, err := strconv.Atoi(strings.TrimSuffix(entry.Name(), ".scene.json"))
		if err != nil {
			continue
		}
		scene, err := r.read(id)
		if err != nil {
			return nil, err
		}
		scenes = append(scenes, scene)
	}

	sort.Slice(scenes, func(i, j int) bool {
		return scenes[i].ID < scenes[j].ID
	})

	return scenes, nil
}

// Get retrieves a scene by id
func (r *SceneRepository) Get(ctx context.Context, id int) (*domain.Scene, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.read(id)
}

func (r *SceneRepository) read(id int) (*domain.Scene, error) {
	data, err := os.ReadFile(r.ws.GetScenePath(domain.SceneFilename(id)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %d", domain.ErrSceneNotFound, id)
		}
		return nil, fmt.Errorf("failed to read scene %d: %w", id, err)
	}

	var scene domain.Scene
	if err := json.Unmarshal(data, &scene); err != nil {
		return nil, fmt.Errorf("malformed scene %d: %w", id, err)
	}
	if scene.ID != id {
		return nil, fmt.Errorf("malformed scene %d: descriptor has id %d", id, scene.ID)
	}
	if scene.Scripts == nil {
		scene.Scripts = []string{}
	}

	return &scene, nil
}

// Save persists a scene
func (r *SceneRepository) Save(ctx context.Context, scene *domain.Scene) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.MkdirAll(r.ws.ScenesPath, 0755); err != nil {
		return fmt.Errorf("failed to create scenes directory: %w", err)
	}

	data, err := json.MarshalIndent(scene, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode scene: %w", err)
	}

	return writeFileAtomic(r.ws.GetScenePath(domain.SceneFilename(scene.ID)), data)
}

// Delete removes a scene descriptor
func (r *SceneRepository) Delete(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.Remove(r.ws.GetScenePath(domain.SceneFilename(id))); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %d", domain.ErrSceneNotFound, id)
		}
		return fmt.Errorf("failed to delete scene %d: %w", id, err)
	}
	return nil
}
