package mocks

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/kamal-hamza/nst/internal/core/domain"
)

// MockAssetRepository is an in-memory AssetRepository for testing
type MockAssetRepository struct {
	mu     sync.RWMutex
	assets map[string]domain.Asset
	Saves  int
}

func NewMockAssetRepository() *MockAssetRepository {
	return &MockAssetRepository{
		assets: make(map[string]domain.Asset),
	}
}

func assetKey(t domain.AssetType, name string) string {
	return domain.DescriptorName(name, t)
}

// LoadAll returns a fresh registry holding every stored asset, sorted by name
func (m *MockAssetRepository) LoadAll(ctx context.Context) (*domain.Registry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	reg := domain.NewRegistry()
	for _, a := range m.assets {
		if err := reg.Add(a); err != nil {
			return nil, err
		}
	}
	reg.SortByName()
	return reg, nil
}

func (m *MockAssetRepository) Save(ctx context.Context, asset domain.Asset) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.assets[assetKey(asset.Type(), asset.Meta().Name)] = asset
	m.Saves++
	return nil
}

func (m *MockAssetRepository) Delete(ctx context.Context, t domain.AssetType, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := assetKey(t, name)
	if _, ok := m.assets[key]; !ok {
		return fmt.Errorf("%w: %s %q", domain.ErrAssetNotFound, t, name)
	}
	delete(m.assets, key)
	return nil
}

func (m *MockAssetRepository) Exists(ctx context.Context, t domain.AssetType, name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.assets[assetKey(t, name)]
	return ok
}

// MockProjectRepository keeps a single project in memory
type MockProjectRepository struct {
	mu      sync.Mutex
	project *domain.Project
}

func NewMockProjectRepository(project *domain.Project) *MockProjectRepository {
	return &MockProjectRepository{project: project}
}

func (m *MockProjectRepository) Load(ctx context.Context) (*domain.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.project == nil {
		return nil, domain.ErrProjectNotExists
	}
	p := *m.project
	return &p, nil
}

func (m *MockProjectRepository) Save(ctx context.Context, project *domain.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p := *project
	m.project = &p
	return nil
}

// MockSceneRepository is an in-memory SceneRepository
type MockSceneRepository struct {
	mu     sync.RWMutex
	scenes map[int]*domain.Scene
}

func NewMockSceneRepository() *MockSceneRepository {
	return &MockSceneRepository{
		scenes: make(map[int]*domain.Scene),
	}
}

func (m *MockSceneRepository) List(ctx context.Context) ([]*domain.Scene, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	scenes := make([]*domain.Scene, 0, len(m.scenes))
	for _, s := range m.scenes {
		c := *s
		c.Scripts = append([]string{}, s.Scripts...)
		scenes = append(scenes, &c)
	}
	sort.Slice(scenes, func(i, j int) bool { return scenes[i].ID < scenes[j].ID })
	return scenes, nil
}

func (m *MockSceneRepository) Get(ctx context.Context, id int) (*domain.Scene, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.scenes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", domain.ErrSceneNotFound, id)
	}
	c := *s
	c.Scripts = append([]string{}, s.Scripts...)
	return &c, nil
}

func (m *MockSceneRepository) Save(ctx context.Context, scene *domain.Scene) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := *scene
	c.Scripts = append([]string{}, scene.Scripts...)
	m.scenes[scene.ID] = &c
	return nil
}

func (m *MockSceneRepository) Delete(ctx context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.scenes[id]; !ok {
		return fmt.Errorf("%w: %d", domain.ErrSceneNotFound, id)
	}
	delete(m.scenes, id)
	return nil
}

// MockProbe records probed paths and optionally fails
type MockProbe struct {
	mu     sync.Mutex
	Calls  []string
	Err    error
	Width  int
	Height int
}

func NewMockProbe() *MockProbe {
	return &MockProbe{Width: 32, Height: 32}
}

func (m *MockProbe) Probe(ctx context.Context, path string, asset domain.Asset) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, path)
	if m.Err != nil {
		return m.Err
	}
	if img, ok := asset.(*domain.ImageAsset); ok {
		img.Width, img.Height = m.Width, m.Height
	}
	return nil
}

// MockToolchain records build/clean calls
type MockToolchain struct {
	mu       sync.Mutex
	Calls    []string
	Output   []string
	ExitCode int
	Err      error
}

func NewMockToolchain() *MockToolchain {
	return &MockToolchain{}
}

func (m *MockToolchain) Build(ctx context.Context, onOutput func(line string)) (int, error) {
	return m.record("build", onOutput)
}

func (m *MockToolchain) Clean(ctx context.Context, onOutput func(line string)) (int, error) {
	return m.record("clean", onOutput)
}

func (m *MockToolchain) record(call string, onOutput func(string)) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, call)
	if onOutput != nil {
		for _, line := range m.Output {
			onOutput(line)
		}
	}
	return m.ExitCode, m.Err
}

// MockLauncher records launched programs
type MockLauncher struct {
	mu       sync.Mutex
	Launched [][]string
	Err      error
}

func NewMockLauncher() *MockLauncher {
	return &MockLauncher{}
}

func (m *MockLauncher) Launch(ctx context.Context, program string, args ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return m.Err
	}
	m.Launched = append(m.Launched, append([]string{program}, args...))
	return nil
}
