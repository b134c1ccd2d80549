package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	fuzzyfinder "github.com/ktr0731/go-fuzzyfinder"

	"github.com/kamal-hamza/nst/internal/core/domain"
	"github.com/kamal-hamza/nst/pkg/ui"
)

// errCancelled is returned when the user backs out of a picker or prompt
var errCancelled = errors.New("cancelled")

// parseTypeFlag turns a --type value into an asset type. Empty means any type.
func parseTypeFlag(value string) (domain.AssetType, error) {
	if value == "" {
		return domain.TypeFolder, nil
	}
	return domain.ParseAssetType(value)
}

// parseFields parses key=value arguments
func parseFields(pairs []string) (map[string]string, error) {
	fields := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("expected key=value, got %q", pair)
		}
		fields[key] = strings.TrimSpace(value)
	}
	return fields, nil
}

// selectAsset resolves the asset named in args, or opens a fuzzy finder
// when no name is given
func selectAsset(ctx context.Context, args []string, typeFlag string) (domain.Asset, error) {
	t, err := parseTypeFlag(typeFlag)
	if err != nil {
		return nil, err
	}

	reg, err := assetService.Load(ctx)
	if err != nil {
		return nil, err
	}

	if len(args) > 0 {
		return assetService.Resolve(reg, t, args[0])
	}

	candidates := reg.All()
	if t != domain.TypeFolder {
		candidates = reg.OfType(t)
	}
	return pickAsset(candidates)
}

// pickAsset lets the user choose one asset interactively
func pickAsset(assets []domain.Asset) (domain.Asset, error) {
	if len(assets) == 0 {
		return nil, fmt.Errorf("%w: project has no assets", domain.ErrAssetNotFound)
	}

	idx, err := fuzzyfinder.Find(
		assets,
		func(i int) string {
			m := assets[i].Meta()
			return fmt.Sprintf("%s %s  %s", ui.AssetIcon(assets[i].Type().String()), m.Name, m.DestinationFolder)
		},
		fuzzyfinder.WithPromptString("asset> "),
		fuzzyfinder.WithPreviewWindow(func(i, w, h int) string {
			if i == -1 {
				return ""
			}
			return assetDetails(assets[i])
		}),
	)
	if err != nil {
		return nil, errCancelled
	}
	return assets[idx], nil
}

// assetDetails renders the plain text summary used by previews and `nst show`
func assetDetails(a domain.Asset) string {
	m := a.Meta()
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (%s)\n\n", m.Name, a.Type())
	fmt.Fprintf(&sb, "folder:    %s\n", m.DestinationFolder)
	fmt.Fprintf(&sb, "file:      %s\n", m.FilePath)
	fmt.Fprintf(&sb, "rom path:  %s\n", domain.RomPath(a))
	fmt.Fprintf(&sb, "original:  %s\n", m.OriginalName)
	fmt.Fprintf(&sb, "size:      %s\n", humanize.Bytes(uint64(m.Size)))
	if !m.ImportedAt.IsZero() {
		fmt.Fprintf(&sb, "imported:  %s\n", humanize.Time(m.ImportedAt))
	}
	fields := domain.AssetFields(a)
	if len(fields) > 0 {
		sb.WriteString("\n")
		for _, kv := range fields {
			fmt.Fprintf(&sb, "%-10s %s\n", kv[0]+":", kv[1])
		}
	}
	return sb.String()
}

// confirm asks a yes/no question on stdin
func confirm(question string) bool {
	fmt.Print(ui.StyleWarning.Render(question + " (y/N): "))
	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	response = strings.ToLower(strings.TrimSpace(response))
	return response == "y" || response == "yes"
}

// editorArgs returns the arguments that open path at line in editor
func editorArgs(editor, path string, line int) []string {
	lower := strings.ToLower(editor)

	switch {
	// VS Code family needs -g for file:line
	case strings.Contains(lower, "code") ||
		strings.Contains(lower, "cursor") ||
		strings.Contains(lower, "windsurf"):
		return []string{"-g", fmt.Sprintf("%s:%d", path, line)}

	case strings.Contains(lower, "subl") ||
		strings.Contains(lower, "zed") ||
		strings.Contains(lower, "idea") ||
		strings.Contains(lower, "clion"):
		return []string{fmt.Sprintf("%s:%d", path, line)}

	case editor == "":
		return []string{path}

	default:
		return []string{fmt.Sprintf("+%d", line), path}
	}
}

// preferredEditor returns the editor from the project, the config or $EDITOR
func preferredEditor(ctx context.Context) string {
	if project, err := projectService.Load(ctx); err == nil && project.Toolchain.Editor != "" {
		return project.Toolchain.Editor
	}
	if appConfig != nil && appConfig.Editor != "" {
		return appConfig.Editor
	}
	return os.Getenv("EDITOR")
}

// terminalEditor reports whether editor takes over the terminal, in which
// case it has to run attached instead of detached
func terminalEditor(editor string) bool {
	fields := strings.Fields(editor)
	if len(fields) == 0 {
		return false
	}
	switch filepath.Base(fields[0]) {
	case "vi", "vim", "nvim", "nano", "emacs", "hx", "helix", "micro", "kak", "joe":
		return true
	}
	return false
}

// openAtLine opens a project file at line in the preferred editor
func openAtLine(ctx context.Context, path string, line int) error {
	editor := preferredEditor(ctx)
	args := editorArgs(editor, path, line)

	if !terminalEditor(editor) {
		return launcher.Launch(ctx, editor, args...)
	}

	fields := strings.Fields(editor)
	c := exec.CommandContext(ctx, fields[0], append(fields[1:], args...)...)
	c.Dir = appWorkspace.RootPath
	c.Stdin = os.Stdin
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	return c.Run()
}
