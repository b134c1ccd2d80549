package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ProjectFileName marks the root directory of a project
const ProjectFileName = "project.json"

// ErrNotFound is returned by Find when no project root is above the start directory
var ErrNotFound = errors.New("no project found")

// Workspace represents the on-disk layout of a project
type Workspace struct {
	RootPath        string
	AssetsPath      string // copied source assets, grouped by type
	MetaPath        string // .nst/ tool metadata
	DescriptorsPath string // .nst/assets/<name>.<type>.json
	ScenesPath      string // .nst/scenes/<id>.scene.json
	SourcePath      string // src/ C sources (generated and user)
	BuildPath       string // build/ intermediate objects
	FilesystemPath  string // filesystem/ converted assets packed into the ROM
}

// New creates a Workspace rooted at dir
func New(dir string) (*Workspace, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project root: %w", err)
	}

	meta := filepath.Join(root, ".nst")
	return &Workspace{
		RootPath:        root,
		AssetsPath:      filepath.Join(root, "assets"),
		MetaPath:        meta,
		DescriptorsPath: filepath.Join(meta, "assets"),
		ScenesPath:      filepath.Join(meta, "scenes"),
		SourcePath:      filepath.Join(root, "src"),
		BuildPath:       filepath.Join(root, "build"),
		FilesystemPath:  filepath.Join(root, "filesystem"),
	}, nil
}

// Find walks up from start until it finds a directory containing project.json
func Find(start string) (*Workspace, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", start, err)
	}

	for {
		if info, err := os.Stat(filepath.Join(dir, ProjectFileName)); err == nil && !info.IsDir() {
			return New(dir)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, fmt.Errorf("%w in %s or any parent directory", ErrNotFound, start)
		}
		dir = parent
	}
}

// Initialize creates the project directory structure if it doesn't exist
func (w *Workspace) Initialize() error {
	directories := []string{
		w.RootPath,
		w.AssetsPath,
		w.MetaPath,
		w.DescriptorsPath,
		w.ScenesPath,
		w.SourcePath,
		filepath.Join(w.SourcePath, "scenes"),
		filepath.Join(w.SourcePath, "scripts"),
	}

	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// Exists checks if the project descriptor is present
func (w *Workspace) Exists() bool {
	info, err := os.Stat(w.ProjectFile())
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}

// ProjectFile returns the path of project.json
func (w *Workspace) ProjectFile() string {
	return filepath.Join(w.RootPath, ProjectFileName)
}

// EnvFile returns the path of the project's .env file
func (w *Workspace) EnvFile() string {
	return filepath.Join(w.RootPath, ".env")
}

// GetAssetPath returns the full path for a copied asset file
func (w *Workspace) GetAssetPath(typeDir, filename string) string {
	return filepath.Join(w.AssetsPath, typeDir, filename)
}

// GetDescriptorPath returns the full path for an asset descriptor
func (w *Workspace) GetDescriptorPath(filename string) string {
	return filepath.Join(w.DescriptorsPath, filename)
}

// GetScenePath returns the full path for a scene descriptor
func (w *Workspace) GetScenePath(filename string) string {
	return filepath.Join(w.ScenesPath, filename)
}

// GetSourcePath returns the full path for a file under src/
func (w *Workspace) GetSourcePath(elem ...string) string {
	return filepath.Join(append([]string{w.SourcePath}, elem...)...)
}

// RomPath returns where the build places the final ROM image
func (w *Workspace) RomPath(romName string) string {
	return filepath.Join(w.RootPath, romName+".z64")
}

// Abs resolves a project relative path
func (w *Workspace) Abs(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(w.RootPath, filepath.FromSlash(rel))
}

// Rel converts an absolute path under the project into a slash separated
// project relative path, as stored in descriptors
func (w *Workspace) Rel(path string) (string, error) {
	rel, err := filepath.Rel(w.RootPath, path)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

// CleanBuild removes the build and filesystem output directories
func (w *Workspace) CleanBuild() error {
	for _, dir := range []string{w.BuildPath, w.FilesystemPath} {
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("failed to remove %s: %w", dir, err)
		}
	}
	return nil
}
