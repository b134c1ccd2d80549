package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// Scene is a game state with its own update/draw loop and attached scripts
type Scene struct {
	ID              int      `json:"id"`
	Name            string   `json:"name"`
	BackgroundColor string   `json:"background_color"`
	FillBackground  bool     `json:"fill_background"`
	Scripts         []string `json:"scripts"`
}

var (
	identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	hexColorRe   = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
	sceneSymRe   = regexp.MustCompile(`^scene_[0-9]+(_|$)`)
)

// NewScene creates a scene with the given id and name
func NewScene(id int, name string) (*Scene, error) {
	if err := ValidateSceneName(name); err != nil {
		return nil, err
	}
	return &Scene{
		ID:              id,
		Name:            name,
		BackgroundColor: "#000000",
		FillBackground:  true,
		Scripts:         []string{},
	}, nil
}

// ValidateSceneName checks a scene display name
func ValidateSceneName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: scene name cannot be empty", ErrInvalidName)
	}
	if len(name) > 64 {
		return fmt.Errorf("%w: scene name too long (max 64 characters)", ErrInvalidName)
	}
	return nil
}

// ValidateScriptName checks that a script name is a valid C identifier,
// since it becomes the prefix of the generated functions
func ValidateScriptName(name string) error {
	if !identifierRe.MatchString(name) {
		return fmt.Errorf("%w: script name %q must be a C identifier", ErrInvalidName, name)
	}
	if reservedScriptNames[name] || sceneSymRe.MatchString(name) {
		return fmt.Errorf("%w: script name %q clashes with generated or libdragon symbols", ErrInvalidName, name)
	}
	return nil
}

// reservedScriptNames would produce <name>_init/_update/_draw functions that
// collide with the generated setup and scene table or with libdragon
var reservedScriptNames = map[string]bool{
	"main":       true,
	"setup":      true,
	"scene":      true,
	"audio":      true,
	"mixer":      true,
	"display":    true,
	"joypad":     true,
	"controller": true,
	"timer":      true,
	"rdpq":       true,
	"rspq":       true,
	"dfs":        true,
	"debug":      true,
	"console":    true,
	"graphics":   true,
	"t3d":        true,
}

// SetBackground sets the clear colour from a "#rrggbb" string
func (s *Scene) SetBackground(hex string) error {
	if !hexColorRe.MatchString(hex) {
		return fmt.Errorf("background color %q must look like #rrggbb", hex)
	}
	s.BackgroundColor = strings.ToLower(hex)
	return nil
}

// RGB returns the background colour components
func (s *Scene) RGB() (r, g, b uint8) {
	var rr, gg, bb uint32
	if _, err := fmt.Sscanf(s.BackgroundColor, "#%02x%02x%02x", &rr, &gg, &bb); err != nil {
		return 0, 0, 0
	}
	return uint8(rr), uint8(gg), uint8(bb)
}

// HasScript reports whether the scene has the named script attached
func (s *Scene) HasScript(name string) bool {
	for _, sc := range s.Scripts {
		if sc == name {
			return true
		}
	}
	return false
}

// AddScript attaches a script to the end of the scene's script list
func (s *Scene) AddScript(name string) error {
	if err := ValidateScriptName(name); err != nil {
		return err
	}
	if s.HasScript(name) {
		return fmt.Errorf("%w: %q in scene %d", ErrDuplicateScript, name, s.ID)
	}
	s.Scripts = append(s.Scripts, name)
	return nil
}

// RemoveScript detaches a script
func (s *Scene) RemoveScript(name string) error {
	for i, sc := range s.Scripts {
		if sc == name {
			s.Scripts = append(s.Scripts[:i:i], s.Scripts[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %q in scene %d", ErrScriptNotFound, name, s.ID)
}

// Symbol returns the C identifier prefix used for the scene's functions
func (s *Scene) Symbol() string {
	return fmt.Sprintf("scene_%d", s.ID)
}

// SceneFilename returns the descriptor filename for a scene id
func SceneFilename(id int) string {
	return fmt.Sprintf("%d.scene.json", id)
}
