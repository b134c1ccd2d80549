package domain

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// AssetType tags what kind of record an asset (or tree node) carries
type AssetType int

const (
	TypeFolder AssetType = iota
	TypeImage
	TypeSound
	TypeFont
	TypeTiledMap
	TypeLDtkMap
	TypeGeneral
)

// AssetTypes lists every importable type in registry iteration order
var AssetTypes = []AssetType{
	TypeImage,
	TypeSound,
	TypeFont,
	TypeTiledMap,
	TypeLDtkMap,
	TypeGeneral,
}

// String returns the descriptor suffix for the type ("image", "sound", ...)
func (t AssetType) String() string {
	switch t {
	case TypeFolder:
		return "folder"
	case TypeImage:
		return "image"
	case TypeSound:
		return "sound"
	case TypeFont:
		return "font"
	case TypeTiledMap:
		return "tiled"
	case TypeLDtkMap:
		return "ldtk"
	case TypeGeneral:
		return "general"
	default:
		return fmt.Sprintf("unknown(%d)", int(t))
	}
}

// Dir returns the subdirectory of assets/ where files of this type are copied
func (t AssetType) Dir() string {
	switch t {
	case TypeImage:
		return "sprites"
	case TypeSound:
		return "sounds"
	case TypeFont:
		return "fonts"
	case TypeTiledMap, TypeLDtkMap:
		return "maps"
	default:
		return "files"
	}
}

// ParseAssetType converts a descriptor suffix or common alias to an AssetType
func ParseAssetType(s string) (AssetType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "image", "sprite", "img":
		return TypeImage, nil
	case "sound", "audio", "sfx":
		return TypeSound, nil
	case "font":
		return TypeFont, nil
	case "tiled", "tmx":
		return TypeTiledMap, nil
	case "ldtk":
		return TypeLDtkMap, nil
	case "general", "file":
		return TypeGeneral, nil
	}
	return TypeFolder, fmt.Errorf("%w: %q", ErrUnsupportedType, s)
}

var typeExtensions = map[AssetType][]string{
	TypeImage:    {".png", ".bmp", ".jpg", ".jpeg", ".webp", ".tif", ".tiff"},
	TypeSound:    {".wav", ".mp3", ".aiff", ".xm", ".ym"},
	TypeFont:     {".ttf", ".otf", ".bdf"},
	TypeTiledMap: {".tmx", ".tmj"},
	TypeLDtkMap:  {".ldtk"},
}

// Accepts reports whether a source file with the given extension can be
// imported as this type. General files accept anything.
func (t AssetType) Accepts(ext string) bool {
	if t == TypeGeneral {
		return true
	}
	ext = strings.ToLower(ext)
	for _, e := range typeExtensions[t] {
		if e == ext {
			return true
		}
	}
	return false
}

// InferAssetType guesses the asset type from a source file extension
func InferAssetType(path string) AssetType {
	ext := strings.ToLower(filepath.Ext(path))
	for _, t := range AssetTypes {
		if t != TypeGeneral && t.Accepts(ext) {
			return t
		}
	}
	return TypeGeneral
}

// AssetMeta holds the fields every asset record shares
type AssetMeta struct {
	Name              string    `json:"name"`
	DestinationFolder string    `json:"destination_folder"` // virtual grouping path, e.g. "/sprites/player"
	FilePath          string    `json:"file_path"`          // project relative path of the copied file
	OriginalName      string    `json:"original_name"`
	Hash              string    `json:"hash"` // BLAKE3 of the file contents
	Size              int64     `json:"size"`
	ImportedAt        time.Time `json:"imported_at"`
}

// Asset is implemented by every typed asset record
type Asset interface {
	Meta() *AssetMeta
	Type() AssetType
}

// ImageAsset is a sprite or texture, optionally sliced into a sheet
type ImageAsset struct {
	AssetMeta
	Width  int    `json:"width"`
	Height int    `json:"height"`
	SliceH int    `json:"slice_h"`
	SliceV int    `json:"slice_v"`
	Format string `json:"format"`
	Dither string `json:"dither"`
}

func (a *ImageAsset) Meta() *AssetMeta { return &a.AssetMeta }
func (a *ImageAsset) Type() AssetType  { return TypeImage }

// SoundAsset is a sample or module track
type SoundAsset struct {
	AssetMeta
	Loop      bool   `json:"loop"`
	LoopStart int    `json:"loop_start"`
	Compress  bool   `json:"compress"`
	Mono      bool   `json:"mono"`
	Resample  int    `json:"resample"`
	Title     string `json:"title,omitempty"`
	Artist    string `json:"artist,omitempty"`
}

func (a *SoundAsset) Meta() *AssetMeta { return &a.AssetMeta }
func (a *SoundAsset) Type() AssetType  { return TypeSound }

// FontAsset is a TrueType/bitmap font rasterized at build time
type FontAsset struct {
	AssetMeta
	Size       int  `json:"size"`
	RangeStart int  `json:"range_start"`
	RangeEnd   int  `json:"range_end"`
	Outline    bool `json:"outline"`
}

func (a *FontAsset) Meta() *AssetMeta { return &a.AssetMeta }
func (a *FontAsset) Type() AssetType  { return TypeFont }

// MapInfo is what gets extracted from a Tiled or LDtk map at import time
type MapInfo struct {
	Layers   int      `json:"layers"`
	Tilesets []string `json:"tilesets"`
}

type TiledMapAsset struct {
	AssetMeta
	MapInfo
}

func (a *TiledMapAsset) Meta() *AssetMeta { return &a.AssetMeta }
func (a *TiledMapAsset) Type() AssetType  { return TypeTiledMap }

type LDtkMapAsset struct {
	AssetMeta
	MapInfo
}

func (a *LDtkMapAsset) Meta() *AssetMeta { return &a.AssetMeta }
func (a *LDtkMapAsset) Type() AssetType  { return TypeLDtkMap }

// GeneralAsset is any other file bundled into the ROM filesystem
type GeneralAsset struct {
	AssetMeta
	Compress bool `json:"compress"`
}

func (a *GeneralAsset) Meta() *AssetMeta { return &a.AssetMeta }
func (a *GeneralAsset) Type() AssetType  { return TypeGeneral }

// NewAsset returns an empty record of the given type
func NewAsset(t AssetType, meta AssetMeta) (Asset, error) {
	switch t {
	case TypeImage:
		return &ImageAsset{AssetMeta: meta, SliceH: 1, SliceV: 1, Format: "RGBA16", Dither: "NONE"}, nil
	case TypeSound:
		return &SoundAsset{AssetMeta: meta, Compress: true}, nil
	case TypeFont:
		return &FontAsset{AssetMeta: meta, Size: 16, RangeStart: 0x20, RangeEnd: 0x7E}, nil
	case TypeTiledMap:
		return &TiledMapAsset{AssetMeta: meta}, nil
	case TypeLDtkMap:
		return &LDtkMapAsset{AssetMeta: meta}, nil
	case TypeGeneral:
		return &GeneralAsset{AssetMeta: meta}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, t)
}

// DescriptorName returns the metadata filename for an asset: <name>.<type>.json
func DescriptorName(name string, t AssetType) string {
	return fmt.Sprintf("%s.%s.json", name, t)
}

// ParseDescriptorName splits "<name>.<type>.json" back into its parts
func ParseDescriptorName(filename string) (string, AssetType, bool) {
	base := strings.TrimSuffix(filename, ".json")
	if base == filename {
		return "", TypeFolder, false
	}
	idx := strings.LastIndex(base, ".")
	if idx <= 0 {
		return "", TypeFolder, false
	}
	t, err := ParseAssetType(base[idx+1:])
	if err != nil {
		return "", TypeFolder, false
	}
	return base[:idx], t, true
}

var assetNameRe = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidateAssetName checks that a name is usable as a filename and ROM path
func ValidateAssetName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: asset name cannot be empty", ErrInvalidName)
	}
	if len(name) > 64 {
		return fmt.Errorf("%w: asset name too long (max 64 characters)", ErrInvalidName)
	}
	if !assetNameRe.MatchString(name) {
		return fmt.Errorf("%w: asset name %q contains invalid characters", ErrInvalidName, name)
	}
	return nil
}

// NormalizeFolder canonicalizes a destination folder to "/a/b" form ("/" for root)
func NormalizeFolder(folder string) string {
	segments := SplitFolder(folder)
	if len(segments) == 0 {
		return "/"
	}
	return "/" + strings.Join(segments, "/")
}

// GenerateAssetName derives an asset name from a source filename
// "Hero Walk.png" -> "hero_walk"
func GenerateAssetName(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	name := strings.ToLower(base)

	reg := regexp.MustCompile(`[^a-z0-9_-]+`)
	name = reg.ReplaceAllString(name, "_")
	name = strings.Trim(name, "_-")

	reg = regexp.MustCompile(`_+`)
	return reg.ReplaceAllString(name, "_")
}

// RomPath returns the path the asset has inside the ROM filesystem
func RomPath(a Asset) string {
	m := a.Meta()
	switch a.Type() {
	case TypeImage:
		return "rom:/" + m.Name + ".sprite"
	case TypeSound:
		ext := strings.ToLower(filepath.Ext(m.FilePath))
		switch ext {
		case ".xm":
			return "rom:/" + m.Name + ".xm64"
		case ".ym":
			return "rom:/" + m.Name + ".ym64"
		}
		return "rom:/" + m.Name + ".wav64"
	case TypeFont:
		return "rom:/" + m.Name + ".font64"
	default:
		return "rom:/" + filepath.Base(m.FilePath)
	}
}
