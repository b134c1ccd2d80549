package ports

import (
	"context"

	"github.com/kamal-hamza/nst/internal/core/domain"
)

// AssetRepository defines the port for per-asset descriptor persistence
type AssetRepository interface {
	// LoadAll reads every descriptor into a fresh registry
	LoadAll(ctx context.Context) (*domain.Registry, error)

	// Save writes (or overwrites) the descriptor of a single asset
	Save(ctx context.Context, asset domain.Asset) error

	// Delete removes the descriptor of a single asset
	Delete(ctx context.Context, t domain.AssetType, name string) error

	// Exists checks if a descriptor for the asset exists
	Exists(ctx context.Context, t domain.AssetType, name string) bool
}

// ProjectRepository defines the port for the project descriptor
type ProjectRepository interface {
	Load(ctx context.Context) (*domain.Project, error)
	Save(ctx context.Context, project *domain.Project) error
}

// SceneRepository defines the port for scene descriptors
type SceneRepository interface {
	// List returns all scenes ordered by id
	List(ctx context.Context) ([]*domain.Scene, error)

	Get(ctx context.Context, id int) (*domain.Scene, error)
	Save(ctx context.Context, scene *domain.Scene) error
	Delete(ctx context.Context, id int) error
}

// MediaProbe extracts type-specific metadata from a source file at import time
type MediaProbe interface {
	// Probe fills in payload fields of the asset from the file at path
	Probe(ctx context.Context, path string, asset domain.Asset) error
}

// Toolchain defines the port for invoking the external build system
type Toolchain interface {
	// Build compiles the project; output lines are passed to onOutput
	Build(ctx context.Context, onOutput func(line string)) (exitCode int, err error)

	// Clean removes build outputs
	Clean(ctx context.Context, onOutput func(line string)) (exitCode int, err error)
}

// Launcher defines the port for detached external programs (emulator, editor)
type Launcher interface {
	// Launch starts the program without waiting for it to exit
	Launch(ctx context.Context, program string, args ...string) error
}
