package services

import (
	"context"
	"fmt"

	"github.com/kamal-hamza/nst/internal/core/domain"
	"github.com/kamal-hamza/nst/internal/core/ports"
)

// StatsService summarizes the content of a project
type StatsService struct {
	assets ports.AssetRepository
	scenes ports.SceneRepository
}

func NewStatsService(assets ports.AssetRepository, scenes ports.SceneRepository) *StatsService {
	return &StatsService{assets: assets, scenes: scenes}
}

// TypeStats is the asset count and total file size for one asset type
type TypeStats struct {
	Type  domain.AssetType
	Count int
	Bytes int64
}

// ProjectStats is returned by Collect
type ProjectStats struct {
	Types      []TypeStats // one entry per importable type, in registry order
	Assets     int
	Bytes      int64
	Folders    int // virtual folders below the root
	Scenes     int
	Scripts    int
	Largest    domain.Asset
	LastImport domain.Asset
}

// Collect loads the registry and scenes and aggregates them
func (s *StatsService) Collect(ctx context.Context) (*ProjectStats, error) {
	reg, err := s.assets.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load assets: %w", err)
	}

	stats := &ProjectStats{}
	for _, t := range domain.AssetTypes {
		ts := TypeStats{Type: t}
		for _, a := range reg.OfType(t) {
			m := a.Meta()
			ts.Count++
			ts.Bytes += m.Size

			if stats.Largest == nil || m.Size > stats.Largest.Meta().Size {
				stats.Largest = a
			}
			if stats.LastImport == nil || m.ImportedAt.After(stats.LastImport.Meta().ImportedAt) {
				stats.LastImport = a
			}
		}
		stats.Types = append(stats.Types, ts)
		stats.Assets += ts.Count
		stats.Bytes += ts.Bytes
	}

	stats.Folders, _ = domain.BuildTree(reg).Count()

	if s.scenes != nil {
		scenes, err := s.scenes.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list scenes: %w", err)
		}
		stats.Scenes = len(scenes)
		for _, scene := range scenes {
			stats.Scripts += len(scene.Scripts)
		}
	}

	return stats, nil
}
