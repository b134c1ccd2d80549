package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/kamal-hamza/nst/internal/adapters/repository"
	"github.com/kamal-hamza/nst/internal/core/domain"
	"github.com/kamal-hamza/nst/internal/core/ports/mocks"
	"github.com/kamal-hamza/nst/pkg/workspace"
)

func TestProjectService_Create(t *testing.T) {
	ws, err := workspace.New(filepath.Join(t.TempDir(), "game"))
	if err != nil {
		t.Fatal(err)
	}
	svc := NewProjectService(ws, repository.NewProjectRepository(ws), nil)
	ctx := context.Background()

	project, err := svc.Create(ctx, "Space Rescue")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if project.RomName != "space_rescue" {
		t.Errorf("unexpected rom name %q", project.RomName)
	}

	for _, p := range []string{
		ws.ProjectFile(),
		ws.EnvFile(),
		filepath.Join(ws.RootPath, ".gitignore"),
		ws.DescriptorsPath,
		ws.ScenesPath,
		filepath.Join(ws.SourcePath, "scripts"),
	} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("expected %s to exist: %v", p, err)
		}
	}
	for _, at := range domain.AssetTypes {
		if _, err := os.Stat(filepath.Join(ws.AssetsPath, at.Dir())); err != nil {
			t.Errorf("missing asset directory for %s", at)
		}
	}

	if _, err := svc.Create(ctx, "Again"); !errors.Is(err, ErrProjectExists) {
		t.Errorf("expected ErrProjectExists, got %v", err)
	}
}

func TestProjectService_CreateKeepsExistingEnv(t *testing.T) {
	ws, err := workspace.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(ws.EnvFile(), []byte("N64_INST=/opt/n64\n"), 0644); err != nil {
		t.Fatal(err)
	}

	svc := NewProjectService(ws, repository.NewProjectRepository(ws), nil)
	if _, err := svc.Create(context.Background(), "Game"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	data, _ := os.ReadFile(ws.EnvFile())
	if string(data) != "N64_INST=/opt/n64\n" {
		t.Errorf(".env should not be replaced, got %q", data)
	}
}

func TestProjectService_SetAndGet(t *testing.T) {
	ws, _ := workspace.New(t.TempDir())
	projects := mocks.NewMockProjectRepository(newProject(t))
	svc := NewProjectService(ws, projects, nil)
	ctx := context.Background()

	tests := []struct {
		key     string
		value   string
		want    string
		wantErr bool
	}{
		{"display.width", "640", "640", false},
		{"modules.audio", "true", "true", false},
		{"memory.expansion_pak", "yes", "", true},
		{"display.buffers", "5", "", true},
		{"modules.mixer", "true", "true", false},
		{"nonsense.key", "1", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			_, err := svc.Set(ctx, tt.key, tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Set(%s=%s) error = %v, wantErr %v", tt.key, tt.value, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			got, err := svc.Get(ctx, tt.key)
			if err != nil {
				t.Fatalf("Get failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Get(%s) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestProjectService_SetInvalidIsNotSaved(t *testing.T) {
	ws, _ := workspace.New(t.TempDir())
	projects := mocks.NewMockProjectRepository(newProject(t))
	svc := NewProjectService(ws, projects, nil)
	ctx := context.Background()

	// mixer without audio fails validation
	if _, err := svc.Set(ctx, "modules.mixer", "true"); err == nil {
		t.Fatal("expected validation error")
	}

	p, _ := projects.Load(ctx)
	if p.Modules.Mixer {
		t.Error("invalid change should not be persisted")
	}
}

func TestProjectService_GetUnknown(t *testing.T) {
	ws, _ := workspace.New(t.TempDir())
	svc := NewProjectService(ws, mocks.NewMockProjectRepository(newProject(t)), nil)

	if _, err := svc.Get(context.Background(), "display.depth"); !errors.Is(err, domain.ErrUnknownSetting) {
		t.Errorf("expected ErrUnknownSetting, got %v", err)
	}
}
