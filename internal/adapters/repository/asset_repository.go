package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/kamal-hamza/nst/internal/core/domain"
	"github.com/kamal-hamza/nst/internal/core/ports"
	"github.com/kamal-hamza/nst/pkg/workspace"
)

// FileAssetRepository stores one JSON descriptor per asset:
// .nst/assets/<name>.<type>.json
type FileAssetRepository struct {
	ws *workspace.Workspace
	mu sync.RWMutex
}

func NewFileAssetRepository(ws *workspace.Workspace) *FileAssetRepository {
	return &FileAssetRepository{ws: ws}
}

var _ ports.AssetRepository = (*FileAssetRepository)(nil)

// LoadAll reads every descriptor into a fresh registry.
// Each type is decoded in its own goroutine; lists are sorted by name so the
// result does not depend on directory order.
func (r *FileAssetRepository) LoadAll(ctx context.Context) (*domain.Registry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries, err := os.ReadDir(r.ws.DescriptorsPath)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.NewRegistry(), nil
		}
		return nil, fmt.Errorf("failed to read asset descriptors: %w", err)
	}

	byType := make(map[domain.AssetType][]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name, t, ok := domain.ParseDescriptorName(entry.Name())
		if !ok {
			continue
		}
		byType[t] = append(byType[t], name)
	}

	results := make([][]domain.Asset, len(domain.AssetTypes))

	g, gctx := errgroup.WithContext(ctx)
	for i, t := range domain.AssetTypes {
		i, t := i, t
		names := byType[t]
		if len(names) == 0 {
			continue
		}
		g.Go(func() error {
			assets := make([]domain.Asset, 0, len(names))
			for _, name := range names {
				if err := gctx.Err(); err != nil {
					return err
				}
				a, err := r.read(t, name)
				if err != nil {
					return err
				}
				assets = append(assets, a)
			}
			results[i] = assets
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	reg := domain.NewRegistry()
	for _, assets := range results {
		for _, a := range assets {
			if err := reg.Add(a); err != nil {
				return nil, err
			}
		}
	}
	reg.SortByName()

	return reg, nil
}

// read decodes a single descriptor. Missing required fields fail the read.
func (r *FileAssetRepository) read(t domain.AssetType, name string) (domain.Asset, error) {
	path := r.ws.GetDescriptorPath(domain.DescriptorName(name, t))

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read descriptor %s: %w", filepath.Base(path), err)
	}

	asset, err := domain.NewAsset(t, domain.AssetMeta{})
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(data, asset); err != nil {
		return nil, fmt.Errorf("malformed descriptor %s: %w", filepath.Base(path), err)
	}

	meta := asset.Meta()
	if meta.Name == "" || meta.FilePath == "" {
		return nil, fmt.Errorf("malformed descriptor %s: missing name or file_path", filepath.Base(path))
	}
	if meta.Name != name {
		return nil, fmt.Errorf("malformed descriptor %s: name %q does not match filename", filepath.Base(path), meta.Name)
	}
	if err := domain.ValidateAsset(asset); err != nil {
		return nil, fmt.Errorf("malformed descriptor %s: %w", filepath.Base(path), err)
	}

	return asset, nil
}

// Save persists a single asset descriptor
func (r *FileAssetRepository) Save(ctx context.Context, asset domain.Asset) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.MkdirAll(r.ws.DescriptorsPath, 0755); err != nil {
		return fmt.Errorf("failed to create descriptor directory: %w", err)
	}

	data, err := json.MarshalIndent(asset, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode descriptor: %w", err)
	}

	path := r.ws.GetDescriptorPath(domain.DescriptorName(asset.Meta().Name, asset.Type()))
	return writeFileAtomic(path, data)
}

// Delete removes a single asset descriptor
func (r *FileAssetRepository) Delete(ctx context.Context, t domain.AssetType, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	path := r.ws.GetDescriptorPath(domain.DescriptorName(name, t))
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s %q", domain.ErrAssetNotFound, t, name)
		}
		return fmt.Errorf("failed to delete descriptor: %w", err)
	}
	return nil
}

// Exists checks if a descriptor exists for the asset
func (r *FileAssetRepository) Exists(ctx context.Context, t domain.AssetType, name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, err := os.Stat(r.ws.GetDescriptorPath(domain.DescriptorName(name, t)))
	return err == nil
}

// writeFileAtomic writes to a temp file in the same directory and renames it
// over the target, so readers never see a half written descriptor
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", filepath.Base(path), err)
	}
	return nil
}
