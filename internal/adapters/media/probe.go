package media

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"image"
	_ "image/gif"  // GIF decoder registration
	_ "image/jpeg" // JPEG decoder registration
	_ "image/png"  // PNG decoder registration
	"os"
	"path/filepath"
	"strings"

	"github.com/bogem/id3v2"
	_ "golang.org/x/image/bmp"  // BMP decoder registration
	_ "golang.org/x/image/tiff" // TIFF decoder registration
	_ "golang.org/x/image/webp" // WebP decoder registration

	"github.com/kamal-hamza/nst/internal/core/domain"
	"github.com/kamal-hamza/nst/internal/core/ports"
)

// Probe implements ports.MediaProbe by reading just enough of each file
// to fill in the type specific fields of a record
type Probe struct{}

func NewProbe() *Probe {
	return &Probe{}
}

var _ ports.MediaProbe = (*Probe)(nil)

// Probe inspects the file at path and updates asset in place
func (p *Probe) Probe(ctx context.Context, path string, asset domain.Asset) error {
	switch a := asset.(type) {
	case *domain.ImageAsset:
		w, h, err := ImageSize(path)
		if err != nil {
			return err
		}
		a.Width, a.Height = w, h
	case *domain.SoundAsset:
		if strings.EqualFold(filepath.Ext(path), ".mp3") {
			title, artist, err := ReadTags(path)
			if err != nil {
				return err
			}
			a.Title, a.Artist = title, artist
		}
	case *domain.TiledMapAsset:
		info, err := ReadTiledMap(path)
		if err != nil {
			return err
		}
		a.MapInfo = *info
	case *domain.LDtkMapAsset:
		info, err := ReadLDtkMap(path)
		if err != nil {
			return err
		}
		a.MapInfo = *info
	}
	return nil
}

// ImageSize decodes only the header of an image file
func ImageSize(path string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to decode image %s: %w", filepath.Base(path), err)
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return 0, 0, fmt.Errorf("%s image %s has no pixels", format, filepath.Base(path))
	}
	return cfg.Width, cfg.Height, nil
}

// ReadTags returns the ID3 title and artist of an mp3 file.
// Files without a tag yield empty strings.
func ReadTags(path string) (title, artist string, err error) {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return "", "", fmt.Errorf("failed to read id3 tags: %w", err)
	}
	defer tag.Close()

	return strings.TrimSpace(tag.Title()), strings.TrimSpace(tag.Artist()), nil
}

type tmxMap struct {
	Tilesets []struct {
		Source string `xml:"source,attr"`
		Name   string `xml:"name,attr"`
		Image  struct {
			Source string `xml:"source,attr"`
		} `xml:"image"`
	} `xml:"tileset"`
	Layers       []struct{} `xml:"layer"`
	ObjectGroups []struct{} `xml:"objectgroup"`
	ImageLayers  []struct{} `xml:"imagelayer"`
	Groups       []struct{} `xml:"group"`
}

type tmjMap struct {
	Layers   []json.RawMessage `json:"layers"`
	Tilesets []struct {
		Source string `json:"source"`
		Image  string `json:"image"`
		Name   string `json:"name"`
	} `json:"tilesets"`
}

// ReadTiledMap counts the top level layers and tileset references of a
// Tiled map in either TMX (XML) or TMJ (JSON) form
func ReadTiledMap(path string) (*domain.MapInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read map: %w", err)
	}

	info := &domain.MapInfo{Tilesets: []string{}}

	if strings.EqualFold(filepath.Ext(path), ".tmj") {
		var m tmjMap
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("malformed tiled map %s: %w", filepath.Base(path), err)
		}
		info.Layers = len(m.Layers)
		for _, ts := range m.Tilesets {
			info.Tilesets = append(info.Tilesets, firstNonEmpty(ts.Source, ts.Image, ts.Name))
		}
		return info, nil
	}

	var m tmxMap
	if err := xml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("malformed tiled map %s: %w", filepath.Base(path), err)
	}
	info.Layers = len(m.Layers) + len(m.ObjectGroups) + len(m.ImageLayers) + len(m.Groups)
	for _, ts := range m.Tilesets {
		info.Tilesets = append(info.Tilesets, firstNonEmpty(ts.Source, ts.Image.Source, ts.Name))
	}
	return info, nil
}

type ldtkProject struct {
	Defs struct {
		Layers []struct {
			Identifier string `json:"identifier"`
		} `json:"layers"`
		Tilesets []struct {
			Identifier string `json:"identifier"`
			RelPath    string `json:"relPath"`
		} `json:"tilesets"`
	} `json:"defs"`
}

// ReadLDtkMap counts the layer definitions and tilesets of an LDtk project
func ReadLDtkMap(path string) (*domain.MapInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read map: %w", err)
	}

	var p ldtkProject
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("malformed ldtk project %s: %w", filepath.Base(path), err)
	}

	info := &domain.MapInfo{Layers: len(p.Defs.Layers), Tilesets: []string{}}
	for _, ts := range p.Defs.Tilesets {
		info.Tilesets = append(info.Tilesets, firstNonEmpty(ts.RelPath, ts.Identifier))
	}
	return info, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
