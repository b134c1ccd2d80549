package domain

import (
	"errors"
	"reflect"
	"testing"
)

func TestNewProject(t *testing.T) {
	p, err := NewProject("Space Blaster")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if p.RomName != "space_blaster" {
		t.Errorf("RomName = %q, want space_blaster", p.RomName)
	}
	if p.NextSceneID != 1 {
		t.Errorf("NextSceneID = %d, want 1", p.NextSceneID)
	}
	if err := p.Validate(); err != nil {
		t.Errorf("default project should validate: %v", err)
	}

	if _, err := NewProject("   "); !errors.Is(err, ErrInvalidName) {
		t.Errorf("expected ErrInvalidName, got %v", err)
	}
}

func TestNewProject_TruncatesTitle(t *testing.T) {
	p, err := NewProject("A Very Long Project Name Indeed")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.Title) != 20 {
		t.Errorf("title length = %d, want 20", len(p.Title))
	}
}

func TestProject_AllocateSceneID(t *testing.T) {
	p := &Project{}

	ids := []int{p.AllocateSceneID(), p.AllocateSceneID(), p.AllocateSceneID()}
	if !reflect.DeepEqual(ids, []int{1, 2, 3}) {
		t.Errorf("allocated ids = %v", ids)
	}
	if p.NextSceneID != 4 {
		t.Errorf("NextSceneID = %d, want 4", p.NextSceneID)
	}
}

func TestProject_Set(t *testing.T) {
	p, _ := NewProject("demo")

	tests := []struct {
		key     string
		value   string
		wantErr bool
		check   func(*Project) bool
	}{
		{"modules.audio", "true", false, func(p *Project) bool { return p.Modules.Audio }},
		{"modules.debug", "false", false, func(p *Project) bool { return !p.Modules.Debug }},
		{"display.width", "640", false, func(p *Project) bool { return p.Display.Width == 640 }},
		{"display.gamma", "correct", false, func(p *Project) bool { return p.Display.Gamma == "CORRECT" }},
		{"memory.heap_kb", "512", false, func(p *Project) bool { return p.Memory.HeapKB == 512 }},
		{"memory.expansion_pak", "1", false, func(p *Project) bool { return p.Memory.ExpansionPak }},
		{"rom_name", "game", false, func(p *Project) bool { return p.RomName == "game" }},
		{"toolchain.emulator", "ares", false, func(p *Project) bool { return p.Toolchain.Emulator == "ares" }},
		{"rom_name", "bad name", true, nil},
		{"title", "this title is far too long", true, nil},
		{"display.width", "wide", true, nil},
		{"modules.networking", "true", true, nil},
		{"nope", "1", true, nil},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			err := p.Set(tt.key, tt.value)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Set(%q, %q) expected error", tt.key, tt.value)
				}
				return
			}
			if err != nil {
				t.Fatalf("Set(%q, %q) unexpected error: %v", tt.key, tt.value, err)
			}
			if !tt.check(p) {
				t.Errorf("Set(%q, %q) not applied", tt.key, tt.value)
			}
		})
	}
}

func TestProject_SetUnknownIsSentinel(t *testing.T) {
	p, _ := NewProject("demo")
	if err := p.Set("modules.bogus", "true"); !errors.Is(err, ErrUnknownSetting) {
		t.Errorf("expected ErrUnknownSetting, got %v", err)
	}
}

func TestProject_Validate(t *testing.T) {
	p, _ := NewProject("demo")

	p.Modules.Mixer = true
	p.Modules.Audio = false
	if err := p.Validate(); err == nil {
		t.Error("mixer without audio should fail validation")
	}

	p.Modules.Audio = true
	p.Display.BitDepth = 24
	if err := p.Validate(); err == nil {
		t.Error("24-bit display should fail validation")
	}
}

func TestModules_Enabled(t *testing.T) {
	m := Modules{Audio: true, Debug: true, Display: true}
	want := []string{"debug", "display", "audio"}
	if got := m.Enabled(); !reflect.DeepEqual(got, want) {
		t.Errorf("Enabled() = %v, want %v", got, want)
	}
	if !m.IsEnabled("audio") || m.IsEnabled("mixer") || m.IsEnabled("unknown") {
		t.Error("IsEnabled returned wrong values")
	}
}

func TestProject_Settings(t *testing.T) {
	p, _ := NewProject("demo")
	kv := p.Settings()

	found := map[string]string{}
	for _, pair := range kv {
		found[pair[0]] = pair[1]
	}
	if found["modules.display"] != "true" {
		t.Errorf("modules.display = %q", found["modules.display"])
	}
	if found["display.width"] != "320" {
		t.Errorf("display.width = %q", found["display.width"])
	}
}
