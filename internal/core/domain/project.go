package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Modules are the SDK subsystems a project can enable
type Modules struct {
	Audio      bool `json:"audio"`
	Mixer      bool `json:"mixer"`
	Controller bool `json:"controller"`
	Display    bool `json:"display"`
	RDPQ       bool `json:"rdpq"`
	RSPQ       bool `json:"rspq"`
	Timer      bool `json:"timer"`
	Debug      bool `json:"debug"`
	Fonts      bool `json:"fonts"`
	Tiled      bool `json:"tiled"`
	LDtk       bool `json:"ldtk"`
	T3D        bool `json:"t3d"`
}

// ModuleNames lists module keys in the order they are initialized
var ModuleNames = []string{
	"debug", "display", "rspq", "rdpq", "timer", "controller",
	"audio", "mixer", "fonts", "tiled", "ldtk", "t3d",
}

// flags maps module keys to their fields
func (m *Modules) flags() map[string]*bool {
	return map[string]*bool{
		"audio":      &m.Audio,
		"mixer":      &m.Mixer,
		"controller": &m.Controller,
		"display":    &m.Display,
		"rdpq":       &m.RDPQ,
		"rspq":       &m.RSPQ,
		"timer":      &m.Timer,
		"debug":      &m.Debug,
		"fonts":      &m.Fonts,
		"tiled":      &m.Tiled,
		"ldtk":       &m.LDtk,
		"t3d":        &m.T3D,
	}
}

// Enabled returns the enabled module keys in initialization order
func (m *Modules) Enabled() []string {
	flags := m.flags()
	var enabled []string
	for _, name := range ModuleNames {
		if *flags[name] {
			enabled = append(enabled, name)
		}
	}
	return enabled
}

// IsEnabled reports whether the named module is on
func (m *Modules) IsEnabled(name string) bool {
	f, ok := m.flags()[name]
	return ok && *f
}

// DisplaySettings configure the video output
type DisplaySettings struct {
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	BitDepth int    `json:"bit_depth"` // 16 or 32
	Gamma    string `json:"gamma"`     // NONE, CORRECT, CORRECT_DITHER
	Filters  string `json:"filters"`   // RESAMPLE, DEDITHER, RESAMPLE_ANTIALIAS, RESAMPLE_ANTIALIAS_DEDITHER
	Buffers  int    `json:"buffers"`   // 2 or 3
}

// MemorySettings configure memory usage
type MemorySettings struct {
	HeapKB       int  `json:"heap_kb"`
	ExpansionPak bool `json:"expansion_pak"`
}

// ToolchainSettings override user config for this project
type ToolchainSettings struct {
	Emulator  string `json:"emulator,omitempty"`
	Editor    string `json:"editor,omitempty"`
	BuildJobs int    `json:"build_jobs,omitempty"`
}

// Project is the content of project.json
type Project struct {
	Name           string            `json:"name"`
	RomName        string            `json:"rom_name"`
	Title          string            `json:"title"`
	Modules        Modules           `json:"modules"`
	Display        DisplaySettings   `json:"display"`
	Memory         MemorySettings    `json:"memory"`
	NextSceneID    int               `json:"next_scene_id"`
	InitialSceneID int               `json:"initial_scene_id"`
	Toolchain      ToolchainSettings `json:"toolchain"`
}

var romNameRe = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// NewProject creates a project with the default module set
func NewProject(name string) (*Project, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: project name cannot be empty", ErrInvalidName)
	}

	romName := GenerateAssetName(name)
	if romName == "" {
		return nil, fmt.Errorf("%w: cannot derive a rom name from %q", ErrInvalidName, name)
	}

	title := name
	if len(title) > 20 {
		title = title[:20]
	}

	return &Project{
		Name:    name,
		RomName: romName,
		Title:   title,
		Modules: Modules{
			Debug:      true,
			Display:    true,
			RSPQ:       true,
			RDPQ:       true,
			Timer:      true,
			Controller: true,
		},
		Display: DisplaySettings{
			Width:    320,
			Height:   240,
			BitDepth: 16,
			Gamma:    "NONE",
			Filters:  "RESAMPLE",
			Buffers:  3,
		},
		Memory: MemorySettings{
			HeapKB: 0,
		},
		NextSceneID: 1,
	}, nil
}

// AllocateSceneID returns the next unused scene id and advances the counter
func (p *Project) AllocateSceneID() int {
	if p.NextSceneID < 1 {
		p.NextSceneID = 1
	}
	id := p.NextSceneID
	p.NextSceneID++
	return id
}

// Validate checks the settings that end up in generated code
func (p *Project) Validate() error {
	if !romNameRe.MatchString(p.RomName) {
		return fmt.Errorf("%w: rom name %q", ErrInvalidName, p.RomName)
	}
	if len(p.Title) > 20 {
		return fmt.Errorf("title %q longer than 20 characters", p.Title)
	}
	if p.Display.BitDepth != 16 && p.Display.BitDepth != 32 {
		return fmt.Errorf("display.bit_depth must be 16 or 32, got %d", p.Display.BitDepth)
	}
	if p.Display.Buffers < 2 || p.Display.Buffers > 3 {
		return fmt.Errorf("display.buffers must be 2 or 3, got %d", p.Display.Buffers)
	}
	if p.Modules.Mixer && !p.Modules.Audio {
		return fmt.Errorf("module mixer requires audio")
	}
	return nil
}

// Set assigns a setting addressed by a dotted key, e.g. "modules.audio" or "display.width"
func (p *Project) Set(key, value string) error {
	section, field, _ := strings.Cut(key, ".")

	switch section {
	case "name":
		p.Name = value
		return nil
	case "rom_name":
		if !romNameRe.MatchString(value) {
			return fmt.Errorf("%w: rom name %q", ErrInvalidName, value)
		}
		p.RomName = value
		return nil
	case "title":
		if len(value) > 20 {
			return fmt.Errorf("title longer than 20 characters")
		}
		p.Title = value
		return nil
	case "initial_scene_id":
		return setInt(&p.InitialSceneID, key, value)
	case "modules":
		flag, ok := p.Modules.flags()[field]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownSetting, key)
		}
		return setBool(flag, key, value)
	case "display":
		switch field {
		case "width":
			return setInt(&p.Display.Width, key, value)
		case "height":
			return setInt(&p.Display.Height, key, value)
		case "bit_depth":
			return setInt(&p.Display.BitDepth, key, value)
		case "buffers":
			return setInt(&p.Display.Buffers, key, value)
		case "gamma":
			p.Display.Gamma = strings.ToUpper(value)
			return nil
		case "filters":
			p.Display.Filters = strings.ToUpper(value)
			return nil
		}
	case "memory":
		switch field {
		case "heap_kb":
			return setInt(&p.Memory.HeapKB, key, value)
		case "expansion_pak":
			return setBool(&p.Memory.ExpansionPak, key, value)
		}
	case "toolchain":
		switch field {
		case "emulator":
			p.Toolchain.Emulator = value
			return nil
		case "editor":
			p.Toolchain.Editor = value
			return nil
		case "build_jobs":
			return setInt(&p.Toolchain.BuildJobs, key, value)
		}
	}

	return fmt.Errorf("%w: %s", ErrUnknownSetting, key)
}

// Settings flattens the project into dotted key/value pairs for display
func (p *Project) Settings() [][2]string {
	kv := [][2]string{
		{"name", p.Name},
		{"rom_name", p.RomName},
		{"title", p.Title},
		{"initial_scene_id", strconv.Itoa(p.InitialSceneID)},
		{"next_scene_id", strconv.Itoa(p.NextSceneID)},
	}

	flags := p.Modules.flags()
	for _, name := range ModuleNames {
		kv = append(kv, [2]string{"modules." + name, strconv.FormatBool(*flags[name])})
	}

	kv = append(kv,
		[2]string{"display.width", strconv.Itoa(p.Display.Width)},
		[2]string{"display.height", strconv.Itoa(p.Display.Height)},
		[2]string{"display.bit_depth", strconv.Itoa(p.Display.BitDepth)},
		[2]string{"display.gamma", p.Display.Gamma},
		[2]string{"display.filters", p.Display.Filters},
		[2]string{"display.buffers", strconv.Itoa(p.Display.Buffers)},
		[2]string{"memory.heap_kb", strconv.Itoa(p.Memory.HeapKB)},
		[2]string{"memory.expansion_pak", strconv.FormatBool(p.Memory.ExpansionPak)},
		[2]string{"toolchain.emulator", p.Toolchain.Emulator},
		[2]string{"toolchain.editor", p.Toolchain.Editor},
		[2]string{"toolchain.build_jobs", strconv.Itoa(p.Toolchain.BuildJobs)},
	)
	return kv
}

func setInt(dst *int, key, value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("%s expects an integer: %w", key, err)
	}
	*dst = n
	return nil
}

func setBool(dst *bool, key, value string) error {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("%s expects true/false: %w", key, err)
	}
	*dst = b
	return nil
}
