package services

import (
	"bufio"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/kamal-hamza/nst/internal/core/domain"
	"github.com/kamal-hamza/nst/pkg/workspace"
)

// maxSourceLine bounds a single source line; generated tables and embedded
// data arrays can run far past bufio's default
const maxSourceLine = 4 * 1024 * 1024

// SourceService searches the project's C sources
type SourceService struct {
	ws *workspace.Workspace
}

func NewSourceService(ws *workspace.Workspace) *SourceService {
	return &SourceService{ws: ws}
}

// SourceMatch is a single matching line
type SourceMatch struct {
	File    string // project relative, slash separated
	LineNum int
	Content string
}

// Grep returns every line under src/ containing query (case insensitive).
// An empty query returns all non-blank lines.
func (s *SourceService) Grep(ctx context.Context, query string) ([]SourceMatch, error) {
	files, err := s.sourceFiles()
	if err != nil {
		return nil, err
	}

	lower := strings.ToLower(query)
	return s.scanAll(ctx, files, func(line string) bool {
		return strings.TrimSpace(line) != "" && (lower == "" || strings.Contains(strings.ToLower(line), lower))
	})
}

// AssetUsage pairs an asset with the source lines that load it
type AssetUsage struct {
	Asset      domain.Asset
	References []SourceMatch
}

// Usage reports, for every asset in registry order, where its ROM path
// ("rom:/hero.sprite") appears in the sources
func (s *SourceService) Usage(ctx context.Context, reg *domain.Registry) ([]AssetUsage, error) {
	files, err := s.sourceFiles()
	if err != nil {
		return nil, err
	}

	matches, err := s.scanAll(ctx, files, func(line string) bool {
		return strings.Contains(line, "rom:/")
	})
	if err != nil {
		return nil, err
	}

	assets := reg.All()
	usage := make([]AssetUsage, len(assets))
	for i, a := range assets {
		usage[i].Asset = a
		romPath := domain.RomPath(a)
		for _, m := range matches {
			if containsPath(m.Content, romPath) {
				usage[i].References = append(usage[i].References, m)
			}
		}
	}
	return usage, nil
}

// containsPath matches romPath only when it is not a prefix of a longer path
func containsPath(line, romPath string) bool {
	for {
		idx := strings.Index(line, romPath)
		if idx < 0 {
			return false
		}
		end := idx + len(romPath)
		if end == len(line) || !isPathChar(line[end]) {
			return true
		}
		line = line[end:]
	}
}

func isPathChar(c byte) bool {
	return c == '_' || c == '-' || c == '.' || c == '/' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func (s *SourceService) sourceFiles() ([]string, error) {
	var files []string
	err := filepath.WalkDir(s.ws.SourcePath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch filepath.Ext(path) {
		case ".c", ".h", ".cpp", ".hpp":
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read sources: %w", err)
	}
	return files, nil
}

func (s *SourceService) scanAll(ctx context.Context, files []string, keep func(string) bool) ([]SourceMatch, error) {
	var (
		mu  sync.Mutex
		all []SourceMatch
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for _, path := range files {
		path := path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			m, err := s.scanFile(path, keep)
			if err != nil {
				return err
			}
			mu.Lock()
			all = append(all, m...)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	sortMatches(all)
	return all, nil
}

// sortMatches orders matches by file, then line
func sortMatches(matches []SourceMatch) {
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].File != matches[j].File {
			return matches[i].File < matches[j].File
		}
		return matches[i].LineNum < matches[j].LineNum
	})
}

func (s *SourceService) scanFile(path string, keep func(string) bool) ([]SourceMatch, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", filepath.Base(path), err)
	}
	defer file.Close()

	rel, err := s.ws.Rel(path)
	if err != nil {
		rel = path
	}

	var matches []SourceMatch
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxSourceLine)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		if text := scanner.Text(); keep(text) {
			matches = append(matches, SourceMatch{File: rel, LineNum: lineNum, Content: text})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan %s at line %d: %w", rel, lineNum+1, err)
	}
	return matches, nil
}
