package domain

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ImageFormats are the texture formats the sprite converter understands
var ImageFormats = []string{"RGBA16", "RGBA32", "CI4", "CI8", "IA4", "IA8", "I4", "I8"}

// DitherModes are the dithering algorithms applied when reducing colour depth
var DitherModes = []string{"NONE", "RANDOM", "ORDERED", "BAYER", "NOISE"}

// SetAssetField assigns a type specific metadata field by key,
// e.g. "slice_h" on an image or "loop" on a sound
func SetAssetField(a Asset, key, value string) error {
	key = strings.ToLower(strings.TrimSpace(key))
	value = strings.TrimSpace(value)

	switch v := a.(type) {
	case *ImageAsset:
		switch key {
		case "slice_h":
			return setPositive(&v.SliceH, key, value)
		case "slice_v":
			return setPositive(&v.SliceV, key, value)
		case "format":
			return setChoice(&v.Format, key, value, ImageFormats)
		case "dither":
			return setChoice(&v.Dither, key, value, DitherModes)
		}
	case *SoundAsset:
		switch key {
		case "loop":
			return setBool(&v.Loop, key, value)
		case "loop_start":
			return setInt(&v.LoopStart, key, value)
		case "compress":
			return setBool(&v.Compress, key, value)
		case "mono":
			return setBool(&v.Mono, key, value)
		case "resample":
			return setInt(&v.Resample, key, value)
		}
	case *FontAsset:
		switch key {
		case "size":
			return setPositive(&v.Size, key, value)
		case "range_start":
			return setCodepoint(&v.RangeStart, key, value)
		case "range_end":
			return setCodepoint(&v.RangeEnd, key, value)
		case "outline":
			return setBool(&v.Outline, key, value)
		}
	case *GeneralAsset:
		if key == "compress" {
			return setBool(&v.Compress, key, value)
		}
	}

	return fmt.Errorf("%w: %s has no field %q", ErrUnknownSetting, a.Type(), key)
}

// ValidateAsset checks cross-field constraints of a record
func ValidateAsset(a Asset) error {
	switch v := a.(type) {
	case *ImageAsset:
		if v.SliceH < 1 || v.SliceV < 1 {
			return fmt.Errorf("image %q: slice counts must be at least 1", v.Name)
		}
		if v.Width > 0 && v.Width%v.SliceH != 0 {
			return fmt.Errorf("image %q: width %d is not divisible by slice_h %d", v.Name, v.Width, v.SliceH)
		}
		if v.Height > 0 && v.Height%v.SliceV != 0 {
			return fmt.Errorf("image %q: height %d is not divisible by slice_v %d", v.Name, v.Height, v.SliceV)
		}
	case *SoundAsset:
		if v.LoopStart < 0 {
			return fmt.Errorf("sound %q: loop_start cannot be negative", v.Name)
		}
	case *FontAsset:
		if v.RangeStart > v.RangeEnd {
			return fmt.Errorf("font %q: range_start 0x%X is after range_end 0x%X", v.Name, v.RangeStart, v.RangeEnd)
		}
	}
	return nil
}

// AssetFields flattens the editable fields of a record for display, sorted by key
func AssetFields(a Asset) [][2]string {
	fields := map[string]string{}

	switch v := a.(type) {
	case *ImageAsset:
		fields["width"] = strconv.Itoa(v.Width)
		fields["height"] = strconv.Itoa(v.Height)
		fields["slice_h"] = strconv.Itoa(v.SliceH)
		fields["slice_v"] = strconv.Itoa(v.SliceV)
		fields["format"] = v.Format
		fields["dither"] = v.Dither
	case *SoundAsset:
		fields["loop"] = strconv.FormatBool(v.Loop)
		fields["loop_start"] = strconv.Itoa(v.LoopStart)
		fields["compress"] = strconv.FormatBool(v.Compress)
		fields["mono"] = strconv.FormatBool(v.Mono)
		fields["resample"] = strconv.Itoa(v.Resample)
		if v.Title != "" {
			fields["title"] = v.Title
		}
		if v.Artist != "" {
			fields["artist"] = v.Artist
		}
	case *FontAsset:
		fields["size"] = strconv.Itoa(v.Size)
		fields["range_start"] = fmt.Sprintf("0x%X", v.RangeStart)
		fields["range_end"] = fmt.Sprintf("0x%X", v.RangeEnd)
		fields["outline"] = strconv.FormatBool(v.Outline)
	case *TiledMapAsset:
		fields["layers"] = strconv.Itoa(v.Layers)
		fields["tilesets"] = strings.Join(v.Tilesets, ", ")
	case *LDtkMapAsset:
		fields["layers"] = strconv.Itoa(v.Layers)
		fields["tilesets"] = strings.Join(v.Tilesets, ", ")
	case *GeneralAsset:
		fields["compress"] = strconv.FormatBool(v.Compress)
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	kv := make([][2]string, len(keys))
	for i, k := range keys {
		kv[i] = [2]string{k, fields[k]}
	}
	return kv
}

func setPositive(dst *int, key, value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("%s expects an integer: %w", key, err)
	}
	if n < 1 {
		return fmt.Errorf("%s must be at least 1", key)
	}
	*dst = n
	return nil
}

// setCodepoint accepts decimal or 0x-prefixed hex
func setCodepoint(dst *int, key, value string) error {
	n, err := strconv.ParseInt(value, 0, 32)
	if err != nil {
		return fmt.Errorf("%s expects a codepoint: %w", key, err)
	}
	if n < 0 || n > 0x10FFFF {
		return fmt.Errorf("%s out of range: %s", key, value)
	}
	*dst = int(n)
	return nil
}

func setChoice(dst *string, key, value string, choices []string) error {
	upper := strings.ToUpper(value)
	for _, c := range choices {
		if c == upper {
			*dst = c
			return nil
		}
	}
	return fmt.Errorf("%s must be one of %s", key, strings.Join(choices, ", "))
}
