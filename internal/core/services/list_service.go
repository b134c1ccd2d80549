package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/kamal-hamza/nst/internal/core/domain"
	"github.com/kamal-hamza/nst/internal/core/ports"
)

// ListService handles listing, filtering and searching assets
type ListService struct {
	repo ports.AssetRepository
}

func NewListService(repo ports.AssetRepository) *ListService {
	return &ListService{repo: repo}
}

// ListRequest represents a request to list assets
type ListRequest struct {
	Type    domain.AssetType // TypeFolder lists every type
	Folder  string           // only assets in this folder or below (optional)
	SortBy  string           // "name" (default), "size", "date", "type"
	Reverse bool
}

// ListResponse represents the listed assets
type ListResponse struct {
	Assets []domain.Asset
	Total  int
}

// Execute lists assets with optional filtering and sorting
func (s *ListService) Execute(ctx context.Context, req ListRequest) (*ListResponse, error) {
	reg, err := s.repo.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}

	var assets []domain.Asset
	if req.Type == domain.TypeFolder {
		assets = reg.All()
	} else {
		assets = reg.OfType(req.Type)
	}

	if req.Folder != "" {
		assets = filterByFolder(assets, req.Folder)
	}

	sortAssets(assets, req.SortBy, req.Reverse)

	return &ListResponse{Assets: assets, Total: len(assets)}, nil
}

// filterByFolder keeps assets whose destination folder is folder or a descendant
func filterByFolder(assets []domain.Asset, folder string) []domain.Asset {
	prefix := domain.NormalizeFolder(folder)
	if prefix == "/" {
		return assets
	}

	filtered := []domain.Asset{}
	for _, a := range assets {
		f := domain.NormalizeFolder(a.Meta().DestinationFolder)
		if f == prefix || strings.HasPrefix(f, prefix+"/") {
			filtered = append(filtered, a)
		}
	}
	return filtered
}

func sortAssets(assets []domain.Asset, sortBy string, reverse bool) {
	sort.SliceStable(assets, func(i, j int) bool {
		a, b := assets[i].Meta(), assets[j].Meta()
		var less bool
		switch sortBy {
		case "size":
			less = a.Size < b.Size
		case "date":
			less = a.ImportedAt.Before(b.ImportedAt)
		case "type":
			if assets[i].Type() != assets[j].Type() {
				less = assets[i].Type() < assets[j].Type()
			} else {
				less = a.Name < b.Name
			}
		default:
			less = strings.ToLower(a.Name) < strings.ToLower(b.Name)
		}
		if reverse {
			return !less
		}
		return less
	})
}

// SearchRequest represents a search query
type SearchRequest struct {
	Query string
}

// SearchResponse represents search results, best match first
type SearchResponse struct {
	Assets []domain.Asset
	Total  int
}

// Search performs fuzzy search over asset names, folders and original filenames
func (s *ListService) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	reg, err := s.repo.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}

	all := reg.All()
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return &SearchResponse{Assets: all, Total: len(all)}, nil
	}

	matches := rankAssets(all, query)
	return &SearchResponse{Assets: matches, Total: len(matches)}, nil
}

type scoredAsset struct {
	asset domain.Asset
	score int
}

func rankAssets(assets []domain.Asset, query string) []domain.Asset {
	var scored []scoredAsset

	for _, a := range assets {
		m := a.Meta()
		// name matches rank above folder matches, which rank above original filename matches
		if score := fuzzyMatchScore(m.Name, query); score > 0 {
			scored = append(scored, scoredAsset{a, score + 1000})
		} else if score := fuzzyMatchScore(m.DestinationFolder, query); score > 0 {
			scored = append(scored, scoredAsset{a, score + 500})
		} else if score := fuzzyMatchScore(m.OriginalName, query); score > 0 {
			scored = append(scored, scoredAsset{a, score + 200})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	result := make([]domain.Asset, len(scored))
	for i, s := range scored {
		result[i] = s.asset
	}
	return result
}

// fuzzyMatchScore returns 0 when query is not a subsequence of text and a
// higher score the tighter and earlier the match is
func fuzzyMatchScore(text, query string) int {
	if text == "" || query == "" {
		return 0
	}

	if text == query {
		return 10000
	}

	lowerText := strings.ToLower(text)
	lowerQuery := strings.ToLower(query)

	if lowerText == lowerQuery {
		return 9000
	}

	if strings.Contains(lowerText, lowerQuery) {
		if strings.HasPrefix(lowerText, lowerQuery) {
			return 7000
		}
		return 5000
	}

	t := []rune(lowerText)
	q := []rune(lowerQuery)

	score, qi, run, last := 0, 0, 0, -1
	for ti := 0; ti < len(t) && qi < len(q); ti++ {
		if t[ti] != q[qi] {
			continue
		}
		score += 100
		if ti == last+1 {
			run++
			score += run * 50
		} else {
			run = 0
		}
		if ti == 0 || isSeparator(t[ti-1]) {
			score += 200
		}
		last = ti
		qi++
	}

	if qi != len(q) {
		return 0
	}

	// penalize gaps
	score -= (last + 1 - len(q)) * 10
	if score < 1 {
		score = 1
	}
	return score
}

func isSeparator(r rune) bool {
	return r == '_' || r == '-' || r == '/' || r == ' ' || r == '.'
}
