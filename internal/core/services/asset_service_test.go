package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/kamal-hamza/nst/internal/core/domain"
	"github.com/kamal-hamza/nst/internal/core/ports/mocks"
	"github.com/kamal-hamza/nst/pkg/workspace"
)

func setupAssetService(t *testing.T) (*AssetService, *mocks.MockAssetRepository, *mocks.MockProbe, *workspace.Workspace) {
	t.Helper()
	ws, err := workspace.New(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create workspace: %v", err)
	}
	if err := ws.Initialize(); err != nil {
		t.Fatalf("failed to initialize workspace: %v", err)
	}

	repo := mocks.NewMockAssetRepository()
	probe := mocks.NewMockProbe()
	return NewAssetService(ws, repo, probe, nil), repo, probe, ws
}

func writeSource(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to create source file: %v", err)
	}
	return path
}

func TestAssetService_Import(t *testing.T) {
	svc, repo, probe, ws := setupAssetService(t)
	ctx := context.Background()

	src := writeSource(t, "Hero Walk.png", "fake image content")

	resp, err := svc.Import(ctx, ImportRequest{
		SourcePath: src,
		Folder:     "sprites//player/",
		Fields:     map[string]string{"slice_h": "4"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	img, ok := resp.Asset.(*domain.ImageAsset)
	if !ok {
		t.Fatalf("expected an image asset, got %T", resp.Asset)
	}
	if img.Name != "hero_walk" {
		t.Errorf("expected generated name hero_walk, got %s", img.Name)
	}
	if img.DestinationFolder != "/sprites/player" {
		t.Errorf("expected normalized folder, got %s", img.DestinationFolder)
	}
	if img.FilePath != "assets/sprites/hero_walk.png" {
		t.Errorf("unexpected file path %s", img.FilePath)
	}
	if img.OriginalName != "Hero Walk.png" {
		t.Errorf("unexpected original name %s", img.OriginalName)
	}
	if img.SliceH != 4 || img.Width != 32 {
		t.Errorf("fields or probe not applied: %+v", img)
	}
	if len(img.Hash) != 64 {
		t.Errorf("expected a 256-bit hex hash, got %q", img.Hash)
	}
	if img.Size != int64(len("fake image content")) {
		t.Errorf("unexpected size %d", img.Size)
	}

	stored, err := os.ReadFile(ws.Abs(img.FilePath))
	if err != nil {
		t.Fatalf("copied file missing: %v", err)
	}
	if string(stored) != "fake image content" {
		t.Error("stored content does not match source")
	}
	if len(probe.Calls) != 1 || probe.Calls[0] != resp.DestPath {
		t.Errorf("probe should inspect the copied file, calls: %v", probe.Calls)
	}
	if !repo.Exists(ctx, domain.TypeImage, "hero_walk") {
		t.Error("descriptor not saved")
	}
}

func TestAssetService_ImportRejectsDuplicate(t *testing.T) {
	svc, repo, _, _ := setupAssetService(t)
	ctx := context.Background()

	src := writeSource(t, "jump.wav", "RIFF")
	if _, err := svc.Import(ctx, ImportRequest{SourcePath: src}); err != nil {
		t.Fatalf("first import failed: %v", err)
	}
	saves := repo.Saves

	_, err := svc.Import(ctx, ImportRequest{SourcePath: src})
	if !errors.Is(err, domain.ErrDuplicateAsset) {
		t.Fatalf("expected ErrDuplicateAsset, got %v", err)
	}
	if repo.Saves != saves {
		t.Error("a rejected import must not write anything")
	}

	// same name under a different type is allowed
	if _, err := svc.Import(ctx, ImportRequest{SourcePath: src, Type: domain.TypeGeneral}); err != nil {
		t.Errorf("same name as a general file should be accepted: %v", err)
	}
}

func TestAssetService_ImportRejectsRomPathClash(t *testing.T) {
	tests := []struct {
		name   string
		first  string
		second string
		t      domain.AssetType
	}{
		{"map and general file", "level.tmx", "level.tmx", domain.TypeGeneral},
		{"sprite and packed file", "hero.png", "hero.sprite", domain.TypeGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, _, ws := setupAssetService(t)
			ctx := context.Background()

			if _, err := svc.Import(ctx, ImportRequest{SourcePath: writeSource(t, tt.first, "first")}); err != nil {
				t.Fatalf("first import failed: %v", err)
			}
			saves := repo.Saves

			_, err := svc.Import(ctx, ImportRequest{SourcePath: writeSource(t, tt.second, "second"), Type: tt.t})
			if !errors.Is(err, domain.ErrDuplicateAsset) {
				t.Fatalf("expected ErrDuplicateAsset, got %v", err)
			}
			if repo.Saves != saves {
				t.Error("a rejected import must not write a descriptor")
			}
			if _, err := os.Stat(ws.GetAssetPath(tt.t.Dir(), tt.second)); !os.IsNotExist(err) {
				t.Error("a rejected import must not copy the file")
			}
		})
	}
}

func TestAssetService_ImportValidation(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		req     ImportRequest
		wantErr error
	}{
		{"bad name", "a.png", ImportRequest{Name: "bad name!"}, domain.ErrInvalidName},
		{"wrong extension for type", "a.txt", ImportRequest{Type: domain.TypeImage}, domain.ErrUnsupportedType},
		{"name from symbols only", "!!!.png", ImportRequest{}, domain.ErrInvalidName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _, _ := setupAssetService(t)
			tt.req.SourcePath = writeSource(t, tt.file, "x")

			_, err := svc.Import(context.Background(), tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestAssetService_ImportMissingSource(t *testing.T) {
	svc, _, _, _ := setupAssetService(t)

	if _, err := svc.Import(context.Background(), ImportRequest{SourcePath: "/nonexistent/file.png"}); err == nil {
		t.Error("expected error for missing source")
	}
}

func TestAssetService_ImportProbeFailureLeavesNoFile(t *testing.T) {
	svc, repo, probe, ws := setupAssetService(t)
	probe.Err = errors.New("corrupt")

	src := writeSource(t, "broken.png", "x")
	if _, err := svc.Import(context.Background(), ImportRequest{SourcePath: src}); err == nil {
		t.Fatal("expected probe error")
	}

	if _, err := os.Stat(ws.GetAssetPath("sprites", "broken.png")); !os.IsNotExist(err) {
		t.Error("copied file should be removed after a failed import")
	}
	if repo.Saves != 0 {
		t.Error("descriptor must not be written after a failed import")
	}
}

func TestAssetService_ImportUnevenSlicesRejected(t *testing.T) {
	svc, _, probe, _ := setupAssetService(t)
	probe.Width = 30

	src := writeSource(t, "sheet.png", "x")
	_, err := svc.Import(context.Background(), ImportRequest{
		SourcePath: src,
		Fields:     map[string]string{"slice_h": "4"},
	})
	if err == nil {
		t.Error("expected error for a width not divisible by slice_h")
	}
}

func TestAssetService_DeleteThenTree(t *testing.T) {
	svc, _, _, ws := setupAssetService(t)
	ctx := context.Background()

	for _, f := range []string{"hero.png", "enemy.png"} {
		if _, err := svc.Import(ctx, ImportRequest{SourcePath: writeSource(t, f, f), Folder: "/sprites"}); err != nil {
			t.Fatalf("import %s failed: %v", f, err)
		}
	}

	removed, err := svc.Delete(ctx, domain.TypeImage, "hero")
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := os.Stat(ws.Abs(removed.Meta().FilePath)); !os.IsNotExist(err) {
		t.Error("asset file should be removed")
	}

	root, _, err := svc.Tree(ctx)
	if err != nil {
		t.Fatalf("Tree failed: %v", err)
	}
	sprites := root.Folder("/sprites")
	if sprites == nil || len(sprites.Children) != 1 || sprites.Children[0].Name != "enemy" {
		t.Errorf("tree should only contain enemy under /sprites")
	}

	if _, err := svc.Delete(ctx, domain.TypeImage, "hero"); !errors.Is(err, domain.ErrAssetNotFound) {
		t.Errorf("expected ErrAssetNotFound, got %v", err)
	}
}

func TestAssetService_MoveAndUpdate(t *testing.T) {
	svc, repo, _, _ := setupAssetService(t)
	ctx := context.Background()

	if _, err := svc.Import(ctx, ImportRequest{SourcePath: writeSource(t, "theme.xm", "xm")}); err != nil {
		t.Fatalf("import failed: %v", err)
	}

	if _, err := svc.Move(ctx, domain.TypeSound, "theme", "music/overworld"); err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	if _, err := svc.Update(ctx, domain.TypeSound, "theme", map[string]string{"loop": "true", "loop_start": "128"}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	reg, _ := repo.LoadAll(ctx)
	snd := reg.Find(domain.TypeSound, "theme").(*domain.SoundAsset)
	if snd.DestinationFolder != "/music/overworld" {
		t.Errorf("unexpected folder %s", snd.DestinationFolder)
	}
	if !snd.Loop || snd.LoopStart != 128 {
		t.Errorf("fields not updated: %+v", snd)
	}

	if _, err := svc.Update(ctx, domain.TypeSound, "theme", map[string]string{"slice_h": "2"}); !errors.Is(err, domain.ErrUnknownSetting) {
		t.Errorf("expected ErrUnknownSetting, got %v", err)
	}
	if _, err := svc.Move(ctx, domain.TypeImage, "theme", "/x"); !errors.Is(err, domain.ErrAssetNotFound) {
		t.Errorf("expected ErrAssetNotFound, got %v", err)
	}
}

func TestAssetService_Resolve(t *testing.T) {
	svc, repo, _, _ := setupAssetService(t)
	ctx := context.Background()

	for _, f := range []string{"coin.png", "coin.wav", "star.png"} {
		if _, err := svc.Import(ctx, ImportRequest{SourcePath: writeSource(t, f, f)}); err != nil {
			t.Fatalf("import %s failed: %v", f, err)
		}
	}
	reg, _ := repo.LoadAll(ctx)

	if a, err := svc.Resolve(reg, domain.TypeFolder, "star"); err != nil || a.Type() != domain.TypeImage {
		t.Errorf("expected unique image star, got %v %v", a, err)
	}
	if _, err := svc.Resolve(reg, domain.TypeFolder, "coin"); err == nil {
		t.Error("expected ambiguity error for coin")
	}
	if a, err := svc.Resolve(reg, domain.TypeSound, "coin"); err != nil || a.Type() != domain.TypeSound {
		t.Errorf("typed lookup failed: %v", err)
	}
	if _, err := svc.Resolve(reg, domain.TypeFolder, "missing"); !errors.Is(err, domain.ErrAssetNotFound) {
		t.Errorf("expected ErrAssetNotFound, got %v", err)
	}
}

func TestAssetService_Verify(t *testing.T) {
	svc, repo, _, ws := setupAssetService(t)
	ctx := context.Background()

	resp, err := svc.Import(ctx, ImportRequest{SourcePath: writeSource(t, "data.bin", "original")})
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}

	reg, _ := repo.LoadAll(ctx)
	problems, err := svc.Verify(ctx, reg)
	if err != nil || len(problems) != 0 {
		t.Fatalf("fresh import should verify cleanly: %v %v", problems, err)
	}

	if err := os.WriteFile(ws.Abs(resp.Asset.Meta().FilePath), []byte("changed"), 0644); err != nil {
		t.Fatal(err)
	}
	problems, _ = svc.Verify(ctx, reg)
	if len(problems) != 1 {
		t.Errorf("expected one changed file, got %v", problems)
	}
}
