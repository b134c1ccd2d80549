package services

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/zeebo/blake3"

	"github.com/kamal-hamza/nst/internal/core/domain"
	"github.com/kamal-hamza/nst/internal/core/ports"
	"github.com/kamal-hamza/nst/pkg/workspace"
)

// AssetService manages the asset registry: import, delete, move and update
type AssetService struct {
	ws     *workspace.Workspace
	repo   ports.AssetRepository
	probe  ports.MediaProbe
	logger *slog.Logger
	now    func() time.Time
}

func NewAssetService(ws *workspace.Workspace, repo ports.AssetRepository, probe ports.MediaProbe, logger *slog.Logger) *AssetService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AssetService{
		ws:     ws,
		repo:   repo,
		probe:  probe,
		logger: logger,
		now:    time.Now,
	}
}

// Load reads every asset descriptor into a fresh registry
func (s *AssetService) Load(ctx context.Context) (*domain.Registry, error) {
	reg, err := s.repo.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load assets: %w", err)
	}
	return reg, nil
}

// Tree loads the registry and builds the folder tree over it.
// The tree references records in the returned registry.
func (s *AssetService) Tree(ctx context.Context) (*domain.Node, *domain.Registry, error) {
	reg, err := s.Load(ctx)
	if err != nil {
		return nil, nil, err
	}
	return domain.BuildTree(reg), reg, nil
}

// ImportRequest describes a file to bring into the project
type ImportRequest struct {
	SourcePath string
	Type       domain.AssetType // TypeFolder infers the type from the extension
	Name       string           // empty derives the name from the filename
	Folder     string           // virtual destination folder
	Fields     map[string]string
}

// ImportResponse describes the imported asset
type ImportResponse struct {
	Asset    domain.Asset
	DestPath string
}

// Import copies a source file into assets/<type dir>/ and writes its
// descriptor. On any failure the project is left as it was.
func (s *AssetService) Import(ctx context.Context, req ImportRequest) (*ImportResponse, error) {
	info, err := os.Stat(req.SourcePath)
	if err != nil {
		return nil, fmt.Errorf("source file not found: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("source %s is not a regular file", req.SourcePath)
	}

	t := req.Type
	if t == domain.TypeFolder {
		t = domain.InferAssetType(req.SourcePath)
	}
	ext := strings.ToLower(filepath.Ext(req.SourcePath))
	if !t.Accepts(ext) {
		return nil, fmt.Errorf("%w: %s files cannot be imported as %s", domain.ErrUnsupportedType, ext, t)
	}

	name := req.Name
	if name == "" {
		name = domain.GenerateAssetName(req.SourcePath)
	}
	if err := domain.ValidateAssetName(name); err != nil {
		return nil, err
	}

	if s.repo.Exists(ctx, t, name) {
		return nil, fmt.Errorf("%w: %s %q", domain.ErrDuplicateAsset, t, name)
	}

	destPath := s.ws.GetAssetPath(t.Dir(), name+ext)
	relPath, err := s.ws.Rel(destPath)
	if err != nil {
		return nil, err
	}
	if src, err := filepath.Abs(req.SourcePath); err == nil && src == destPath {
		return nil, fmt.Errorf("%s is already the stored copy of an asset", req.SourcePath)
	}

	asset, err := domain.NewAsset(t, domain.AssetMeta{
		Name:              name,
		DestinationFolder: domain.NormalizeFolder(req.Folder),
		FilePath:          relPath,
		OriginalName:      filepath.Base(req.SourcePath),
		ImportedAt:        s.now().UTC().Truncate(time.Second),
	})
	if err != nil {
		return nil, err
	}

	reg, err := s.repo.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	if clash := romPathOwner(reg, asset); clash != nil {
		return nil, fmt.Errorf("%w: %s %q would also be packed as %s (taken by %s %q)",
			domain.ErrDuplicateAsset, t, name, domain.RomPath(asset), clash.Type(), clash.Meta().Name)
	}

	for key, value := range req.Fields {
		if err := domain.SetAssetField(asset, key, value); err != nil {
			return nil, err
		}
	}

	hash, size, err := copyWithHash(ctx, req.SourcePath, destPath)
	if err != nil {
		return nil, err
	}

	committed := false
	defer func() {
		if !committed {
			os.Remove(destPath)
		}
	}()

	meta := asset.Meta()
	meta.Hash = hash
	meta.Size = size

	if s.probe != nil {
		if err := s.probe.Probe(ctx, destPath, asset); err != nil {
			return nil, fmt.Errorf("failed to inspect %s: %w", meta.OriginalName, err)
		}
	}
	if err := domain.ValidateAsset(asset); err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, asset); err != nil {
		return nil, fmt.Errorf("failed to save descriptor: %w", err)
	}
	committed = true

	s.logger.Info("imported asset", "type", t, "name", name, "folder", meta.DestinationFolder, "file", relPath)

	return &ImportResponse{Asset: asset, DestPath: destPath}, nil
}

// Delete removes the descriptor and the copied file of an asset
func (s *AssetService) Delete(ctx context.Context, t domain.AssetType, name string) (domain.Asset, error) {
	reg, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}

	asset, err := reg.Remove(t, name)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Delete(ctx, t, name); err != nil {
		return nil, err
	}

	path := s.ws.Abs(asset.Meta().FilePath)
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Warn("descriptor removed but asset file remains", "path", path, "err", err)
	}

	s.logger.Info("deleted asset", "type", t, "name", name)
	return asset, nil
}

// Move changes the virtual destination folder of an asset
func (s *AssetService) Move(ctx context.Context, t domain.AssetType, name, folder string) (domain.Asset, error) {
	return s.modify(ctx, t, name, func(a domain.Asset) error {
		a.Meta().DestinationFolder = domain.NormalizeFolder(folder)
		return nil
	})
}

// Update sets type specific fields of an asset. Either all fields apply or none.
func (s *AssetService) Update(ctx context.Context, t domain.AssetType, name string, fields map[string]string) (domain.Asset, error) {
	return s.modify(ctx, t, name, func(a domain.Asset) error {
		for key, value := range fields {
			if err := domain.SetAssetField(a, key, value); err != nil {
				return err
			}
		}
		return domain.ValidateAsset(a)
	})
}

func (s *AssetService) modify(ctx context.Context, t domain.AssetType, name string, fn func(domain.Asset) error) (domain.Asset, error) {
	reg, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}

	asset := reg.Find(t, name)
	if asset == nil {
		return nil, fmt.Errorf("%w: %s %q", domain.ErrAssetNotFound, t, name)
	}

	if err := fn(asset); err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, asset); err != nil {
		return nil, fmt.Errorf("failed to save descriptor: %w", err)
	}
	return asset, nil
}

// Resolve finds the single asset matching name, optionally restricted to a
// type. Names shared across types are reported as ambiguous.
func (s *AssetService) Resolve(reg *domain.Registry, t domain.AssetType, name string) (domain.Asset, error) {
	if t != domain.TypeFolder {
		if a := reg.Find(t, name); a != nil {
			return a, nil
		}
		return nil, fmt.Errorf("%w: %s %q", domain.ErrAssetNotFound, t, name)
	}

	matches := reg.Lookup(name)
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %q", domain.ErrAssetNotFound, name)
	case 1:
		return matches[0], nil
	}

	types := make([]string, len(matches))
	for i, m := range matches {
		types[i] = m.Type().String()
	}
	return nil, fmt.Errorf("asset name %q is ambiguous (%s), specify --type", name, strings.Join(types, ", "))
}

// Verify recomputes the hash of every copied file and reports assets whose
// file is missing or changed since import
func (s *AssetService) Verify(ctx context.Context, reg *domain.Registry) ([]string, error) {
	var problems []string
	for _, a := range reg.All() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		meta := a.Meta()
		hash, err := hashFile(s.ws.Abs(meta.FilePath))
		if err != nil {
			problems = append(problems, fmt.Sprintf("%s %q: %v", a.Type(), meta.Name, err))
			continue
		}
		if meta.Hash != "" && hash != meta.Hash {
			problems = append(problems, fmt.Sprintf("%s %q: file changed since import", a.Type(), meta.Name))
		}
	}
	return problems, nil
}

// romPathOwner returns the registered asset that already packs to the same
// ROM file as a, or nil. The ROM filesystem is flat, so two outputs with one
// name would overwrite each other.
func romPathOwner(reg *domain.Registry, a domain.Asset) domain.Asset {
	target := domain.RomPath(a)
	for _, other := range reg.All() {
		if other.Type() == a.Type() && other.Meta().Name == a.Meta().Name {
			continue
		}
		if domain.RomPath(other) == target {
			return other
		}
	}
	return nil
}

// copyWithHash copies src to dst through a temp file, returning the BLAKE3
// hash and size of what was written
func copyWithHash(ctx context.Context, src, dst string) (string, int64, error) {
	srcFile, err := os.Open(src)
	if err != nil {
		return "", 0, fmt.Errorf("failed to open source file: %w", err)
	}
	defer srcFile.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return "", 0, fmt.Errorf("failed to create asset directory: %w", err)
	}

	tmpPath := dst + ".nst"
	done := false
	defer func() {
		if !done {
			os.Remove(tmpPath)
		}
	}()

	dstFile, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create %s: %w", tmpPath, err)
	}
	defer dstFile.Close()

	hasher := blake3.New()
	size, err := io.Copy(io.MultiWriter(dstFile, hasher), &contextReader{ctx: ctx, reader: srcFile})
	if err != nil {
		return "", 0, fmt.Errorf("failed to copy file: %w", err)
	}
	if err := dstFile.Close(); err != nil {
		return "", 0, fmt.Errorf("failed to write %s: %w", dst, err)
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		return "", 0, fmt.Errorf("failed to move file into place: %w", err)
	}
	done = true

	return hex.EncodeToString(hasher.Sum(nil)), size, nil
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	hasher := blake3.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

type contextReader struct {
	ctx    context.Context
	reader io.Reader
}

func (r *contextReader) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.reader.Read(p)
}
