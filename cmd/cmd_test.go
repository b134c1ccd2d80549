package cmd

import (
	"strings"
	"testing"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kamal-hamza/nst/internal/core/domain"
	"github.com/kamal-hamza/nst/internal/core/ports/mocks"
	"github.com/kamal-hamza/nst/internal/core/services"
	"github.com/kamal-hamza/nst/pkg/workspace"
)

// TestCommandStructure verifies that all commands are properly registered
func TestCommandStructure(t *testing.T) {
	commands := []string{
		"init", "import", "list", "find", "show", "set", "move", "delete",
		"browse", "scene", "project", "generate", "build", "clean", "run",
		"edit", "watch", "stats", "doctor", "grep", "snapshot", "config", "version",
	}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			cmd, _, err := rootCmd.Find([]string{cmdName})
			require.NoError(t, err, "command %q not found", cmdName)
			require.NotNil(t, cmd)
			assert.Equal(t, cmdName, cmd.Name())
			assert.NotEmpty(t, cmd.Use)
		})
	}
}

// TestRootCommandExists verifies the root command is properly configured
func TestRootCommandExists(t *testing.T) {
	require.NotNil(t, rootCmd)
	assert.Equal(t, "nst", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotNil(t, rootCmd.PersistentPreRunE)
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("project"))
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("verbose"))
}

// TestCommandsHaveHelp verifies all commands have help text
func TestCommandsHaveHelp(t *testing.T) {
	commands := rootCmd.Commands()
	require.NotEmpty(t, commands)

	for _, cmd := range commands {
		t.Run(cmd.Name(), func(t *testing.T) {
			assert.NotEmpty(t, cmd.Short, "command %q has no Short description", cmd.Name())
			for _, sub := range cmd.Commands() {
				assert.NotEmpty(t, sub.Short, "subcommand %q of %q has no Short description", sub.Name(), cmd.Name())
			}
		})
	}
}

// TestServiceInitialization verifies services can be initialized with mocks
func TestServiceInitialization(t *testing.T) {
	ws, err := workspace.New(t.TempDir())
	require.NoError(t, err)

	project, err := domain.NewProject("Test Game")
	require.NoError(t, err)

	assets := mocks.NewMockAssetRepository()
	projects := mocks.NewMockProjectRepository(project)
	scenes := mocks.NewMockSceneRepository()

	assert.NotNil(t, services.NewAssetService(ws, assets, mocks.NewMockProbe(), nil))
	assert.NotNil(t, services.NewListService(assets))
	assert.NotNil(t, services.NewSceneService(projects, scenes, nil))
	assert.NotNil(t, services.NewStatsService(assets, scenes))
	assert.NotNil(t, services.NewSourceService(ws))

	codegen := services.NewCodegenService(ws, projects, scenes, assets, nil)
	assert.NotNil(t, services.NewBuildService(ws, projects, mocks.NewMockToolchain(), mocks.NewMockLauncher(), codegen, nil, nil))
}

// TestSubcommands verifies specific subcommands exist
func TestSubcommands(t *testing.T) {
	tests := []struct {
		path []string
	}{
		{[]string{"scene", "new"}},
		{[]string{"scene", "list"}},
		{[]string{"scene", "rename"}},
		{[]string{"scene", "delete"}},
		{[]string{"scene", "initial"}},
		{[]string{"scene", "bg"}},
		{[]string{"scene", "view"}},
		{[]string{"scene", "script", "add"}},
		{[]string{"scene", "script", "remove"}},
		{[]string{"project", "show"}},
		{[]string{"project", "get"}},
		{[]string{"project", "set"}},
	}

	for _, tt := range tests {
		name := strings.Join(tt.path, "_")
		t.Run(name, func(t *testing.T) {
			cmd, _, err := rootCmd.Find(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.path[len(tt.path)-1], cmd.Name())
		})
	}
}

// TestFlagsExist verifies important flags are registered
func TestFlagsExist(t *testing.T) {
	tests := []struct {
		command  []string
		flagName string
	}{
		{[]string{"list"}, "type"},
		{[]string{"list"}, "folder"},
		{[]string{"list"}, "sort"},
		{[]string{"list"}, "reverse"},
		{[]string{"list"}, "tree"},
		{[]string{"import"}, "type"},
		{[]string{"import"}, "name"},
		{[]string{"import"}, "folder"},
		{[]string{"import"}, "set"},
		{[]string{"find"}, "copy"},
		{[]string{"delete"}, "force"},
		{[]string{"show"}, "type"},
		{[]string{"init"}, "git"},
		{[]string{"init"}, "scene"},
		{[]string{"build"}, "no-generate"},
		{[]string{"build"}, "jobs"},
		{[]string{"build"}, "run"},
		{[]string{"watch"}, "build"},
		{[]string{"stats"}, "chart"},
		{[]string{"snapshot"}, "status"},
		{[]string{"scene", "bg"}, "no-fill"},
		{[]string{"scene", "delete"}, "force"},
	}

	for _, tt := range tests {
		t.Run(strings.Join(tt.command, "_")+"_"+tt.flagName, func(t *testing.T) {
			cmd, _, err := rootCmd.Find(tt.command)
			require.NoError(t, err)
			assert.NotNil(t, cmd.Flags().Lookup(tt.flagName), "flag --%s not found on %v", tt.flagName, tt.command)
		})
	}
}

// TestCommandAliases verifies command aliases work
func TestCommandAliases(t *testing.T) {
	tests := []struct {
		alias   string
		command string
	}{
		{"ls", "list"},
		{"add", "import"},
		{"f", "find"},
		{"mv", "move"},
		{"rm", "delete"},
		{"b", "build"},
		{"gen", "generate"},
		{"g", "grep"},
		{"ui", "browse"},
		{"snap", "snapshot"},
		{"v", "version"},
	}

	for _, tt := range tests {
		t.Run(tt.alias, func(t *testing.T) {
			cmd, _, err := rootCmd.Find([]string{tt.alias})
			require.NoError(t, err)
			assert.Equal(t, tt.command, cmd.Name())
		})
	}
}

// TestProjectlessCommands verifies commands that must run outside a project
func TestProjectlessCommands(t *testing.T) {
	for _, name := range []string{"init", "version", "config"} {
		cmd, _, err := rootCmd.Find([]string{name})
		require.NoError(t, err)
		assert.True(t, projectlessCommands[cmd.Name()], "%s should not require a project", name)
	}
	assert.False(t, projectlessCommands["build"])
}

func TestParseFields(t *testing.T) {
	fields, err := parseFields([]string{"slice_h=4", " dither = ORDERED ", "empty="})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"slice_h": "4", "dither": "ORDERED", "empty": ""}, fields)

	_, err = parseFields([]string{"novalue"})
	assert.Error(t, err)

	_, err = parseFields([]string{"=4"})
	assert.Error(t, err)
}

func TestParseTypeFlag(t *testing.T) {
	typ, err := parseTypeFlag("")
	require.NoError(t, err)
	assert.Equal(t, domain.TypeFolder, typ)

	typ, err = parseTypeFlag("sound")
	require.NoError(t, err)
	assert.Equal(t, domain.TypeSound, typ)

	_, err = parseTypeFlag("video")
	assert.Error(t, err)
}

func TestParseSceneID(t *testing.T) {
	id, err := parseSceneID("#3")
	require.NoError(t, err)
	assert.Equal(t, 3, id)

	for _, bad := range []string{"0", "-1", "main"} {
		_, err := parseSceneID(bad)
		assert.ErrorIs(t, err, domain.ErrSceneNotFound, bad)
	}
}

func TestEditorArgs(t *testing.T) {
	tests := []struct {
		editor string
		want   []string
	}{
		{"code", []string{"-g", "main.c:12"}},
		{"/usr/bin/cursor", []string{"-g", "main.c:12"}},
		{"subl", []string{"main.c:12"}},
		{"zed", []string{"main.c:12"}},
		{"nvim", []string{"+12", "main.c"}},
		{"", []string{"main.c"}},
	}

	for _, tt := range tests {
		t.Run(tt.editor, func(t *testing.T) {
			assert.Equal(t, tt.want, editorArgs(tt.editor, "main.c", 12))
		})
	}
}

func TestTerminalEditor(t *testing.T) {
	assert.True(t, terminalEditor("vim"))
	assert.True(t, terminalEditor("/usr/local/bin/nvim"))
	assert.True(t, terminalEditor("emacs -nw"))
	assert.False(t, terminalEditor("code --wait"))
	assert.False(t, terminalEditor(""))
}

func TestRenderTree(t *testing.T) {
	reg := domain.NewRegistry()
	hero := &domain.ImageAsset{AssetMeta: domain.AssetMeta{Name: "hero", DestinationFolder: "/sprites/player"}}
	theme := &domain.SoundAsset{AssetMeta: domain.AssetMeta{Name: "theme", DestinationFolder: "/"}}
	require.NoError(t, reg.Add(hero))
	require.NoError(t, reg.Add(theme))

	out := renderTree(domain.BuildTree(reg))
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 5)

	assert.Contains(t, lines[0], domain.RootName)
	assert.Contains(t, lines[1], "├── ")
	assert.Contains(t, lines[1], "sprites")
	assert.Contains(t, lines[2], "│   └── ")
	assert.Contains(t, lines[2], "player")
	assert.Contains(t, lines[3], "│       └── ")
	assert.Contains(t, lines[3], "hero")
	assert.Contains(t, lines[3], "(image)")
	assert.Contains(t, lines[4], "└── ")
	assert.Contains(t, lines[4], "theme")
}

func TestSceneItems(t *testing.T) {
	scene := &domain.Scene{ID: 2, Name: "Level", Scripts: []string{"player_move"}}
	hero := &domain.ImageAsset{AssetMeta: domain.AssetMeta{Name: "hero"}}
	theme := &domain.SoundAsset{AssetMeta: domain.AssetMeta{Name: "theme", FilePath: "assets/sounds/theme.xm"}}

	usage := []services.AssetUsage{
		{Asset: hero, References: []services.SourceMatch{
			{File: "src/scripts/player_move.c", LineNum: 7, Content: `sprite_load("rom:/hero.sprite");`},
			{File: "src/scenes/scene_1.c", LineNum: 3},
		}},
		{Asset: theme},
	}

	items := sceneItems(scene, usage)
	require.Len(t, items, 3)
	assert.Equal(t, "src/scenes/scene_2.c", items[0].file)
	assert.Equal(t, "src/scripts/player_move.c", items[1].file)
	assert.True(t, items[2].asset)
	assert.Equal(t, 7, items[2].line)
	assert.Contains(t, items[2].label, "rom:/hero.sprite")
}

func TestWatchRelevant(t *testing.T) {
	ws, err := workspace.New(t.TempDir())
	require.NoError(t, err)

	tests := []struct {
		name  string
		event fsnotify.Event
		want  bool
	}{
		{"project file", fsnotify.Event{Name: ws.ProjectFile(), Op: fsnotify.Write}, true},
		{"descriptor", fsnotify.Event{Name: ws.GetDescriptorPath("hero.image.json"), Op: fsnotify.Create}, true},
		{"scene removed", fsnotify.Event{Name: ws.GetScenePath("1.scene.json"), Op: fsnotify.Remove}, true},
		{"chmod only", fsnotify.Event{Name: ws.ProjectFile(), Op: fsnotify.Chmod}, false},
		{"temp file", fsnotify.Event{Name: ws.GetDescriptorPath(".hero.image.json.tmp"), Op: fsnotify.Create}, false},
		{"other root file", fsnotify.Event{Name: ws.Abs("Makefile"), Op: fsnotify.Write}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, watchRelevant(ws, tt.event))
		})
	}
}

func TestLookupEnv(t *testing.T) {
	env := []string{"PATH=/bin", "N64_INST=/opt/old", "N64_INSTX=no", "N64_INST=/opt/libdragon"}
	assert.Equal(t, "/opt/libdragon", lookupEnv(env, "N64_INST"))
	assert.Equal(t, "", lookupEnv(env, "HOME"))
}
