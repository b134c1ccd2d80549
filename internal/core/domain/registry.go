package domain

import (
	"fmt"
	"sort"
	"strings"
)

// Registry owns the typed asset lists of a project.
// Trees built from it hold pointers into these lists and must be rebuilt
// after any Add or Remove.
type Registry struct {
	Images    []*ImageAsset
	Sounds    []*SoundAsset
	Fonts     []*FontAsset
	TiledMaps []*TiledMapAsset
	LDtkMaps  []*LDtkMapAsset
	Generals  []*GeneralAsset
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{}
}

// All returns every record in iteration order: images, sounds, fonts,
// tiled maps, LDtk maps, general files. Within a type, list order is kept.
func (r *Registry) All() []Asset {
	all := make([]Asset, 0, r.Len())
	for _, t := range AssetTypes {
		all = append(all, r.OfType(t)...)
	}
	return all
}

// OfType returns the records of a single type in list order
func (r *Registry) OfType(t AssetType) []Asset {
	switch t {
	case TypeImage:
		return toAssets(r.Images)
	case TypeSound:
		return toAssets(r.Sounds)
	case TypeFont:
		return toAssets(r.Fonts)
	case TypeTiledMap:
		return toAssets(r.TiledMaps)
	case TypeLDtkMap:
		return toAssets(r.LDtkMaps)
	case TypeGeneral:
		return toAssets(r.Generals)
	}
	return nil
}

// Len returns the total number of records
func (r *Registry) Len() int {
	return len(r.Images) + len(r.Sounds) + len(r.Fonts) +
		len(r.TiledMaps) + len(r.LDtkMaps) + len(r.Generals)
}

// Find returns the record with the given type and name, or nil
func (r *Registry) Find(t AssetType, name string) Asset {
	for _, a := range r.OfType(t) {
		if a.Meta().Name == name {
			return a
		}
	}
	return nil
}

// Lookup searches every type for a record with the given name
func (r *Registry) Lookup(name string) []Asset {
	var matches []Asset
	for _, a := range r.All() {
		if a.Meta().Name == name {
			matches = append(matches, a)
		}
	}
	return matches
}

// Search returns records whose name, folder or original filename contain query
func (r *Registry) Search(query string) []Asset {
	query = strings.ToLower(query)
	var matches []Asset
	for _, a := range r.All() {
		m := a.Meta()
		if strings.Contains(strings.ToLower(m.Name), query) ||
			strings.Contains(strings.ToLower(m.DestinationFolder), query) ||
			strings.Contains(strings.ToLower(m.OriginalName), query) {
			matches = append(matches, a)
		}
	}
	return matches
}

// Add appends a record. Names must be unique within a type.
func (r *Registry) Add(a Asset) error {
	name := a.Meta().Name
	if r.Find(a.Type(), name) != nil {
		return fmt.Errorf("%w: %s %q", ErrDuplicateAsset, a.Type(), name)
	}

	switch v := a.(type) {
	case *ImageAsset:
		r.Images = append(r.Images, v)
	case *SoundAsset:
		r.Sounds = append(r.Sounds, v)
	case *FontAsset:
		r.Fonts = append(r.Fonts, v)
	case *TiledMapAsset:
		r.TiledMaps = append(r.TiledMaps, v)
	case *LDtkMapAsset:
		r.LDtkMaps = append(r.LDtkMaps, v)
	case *GeneralAsset:
		r.Generals = append(r.Generals, v)
	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedType, a)
	}
	return nil
}

// Remove deletes the record with the given type and name
func (r *Registry) Remove(t AssetType, name string) (Asset, error) {
	var removed Asset
	switch t {
	case TypeImage:
		r.Images, removed = removeNamed(r.Images, name)
	case TypeSound:
		r.Sounds, removed = removeNamed(r.Sounds, name)
	case TypeFont:
		r.Fonts, removed = removeNamed(r.Fonts, name)
	case TypeTiledMap:
		r.TiledMaps, removed = removeNamed(r.TiledMaps, name)
	case TypeLDtkMap:
		r.LDtkMaps, removed = removeNamed(r.LDtkMaps, name)
	case TypeGeneral:
		r.Generals, removed = removeNamed(r.Generals, name)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, t)
	}

	if removed == nil {
		return nil, fmt.Errorf("%w: %s %q", ErrAssetNotFound, t, name)
	}
	return removed, nil
}

// SortByName orders every type list by asset name
func (r *Registry) SortByName() {
	sortNamed(r.Images)
	sortNamed(r.Sounds)
	sortNamed(r.Fonts)
	sortNamed(r.TiledMaps)
	sortNamed(r.LDtkMaps)
	sortNamed(r.Generals)
}

func toAssets[T Asset](list []T) []Asset {
	out := make([]Asset, len(list))
	for i, a := range list {
		out[i] = a
	}
	return out
}

func removeNamed[T Asset](list []T, name string) ([]T, Asset) {
	for i, a := range list {
		if a.Meta().Name == name {
			return append(list[:i:i], list[i+1:]...), a
		}
	}
	return list, nil
}

func sortNamed[T Asset](list []T) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Meta().Name < list[j].Meta().Name
	})
}
