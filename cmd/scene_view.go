package cmd

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"

	"github.com/kamal-hamza/nst/internal/core/domain"
	"github.com/kamal-hamza/nst/internal/core/services"
)

var sceneViewCmd = &cobra.Command{
	Use:   "view [id]",
	Short: "Explore scenes, their scripts and the assets they load",
	Long: `Opens a full screen scene explorer.

Keys:
  h/l, ←/→     previous/next scene
  j/k, ↑/↓     move through the scene's files and assets
  Enter        open the selected file in the editor
  q, Esc       quit`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSceneView,
}

func runSceneView(cmd *cobra.Command, args []string) error {
	ctx := getContext()

	scenes, err := sceneService.List(ctx)
	if err != nil {
		return err
	}
	if len(scenes) == 0 {
		return fmt.Errorf("%w: project has no scenes", domain.ErrSceneNotFound)
	}

	start := 0
	if len(args) == 1 {
		id, err := parseSceneID(args[0])
		if err != nil {
			return err
		}
		start = -1
		for i, s := range scenes {
			if s.ID == id {
				start = i
			}
		}
		if start < 0 {
			return fmt.Errorf("%w: %d", domain.ErrSceneNotFound, id)
		}
	}

	reg, err := assetService.Load(ctx)
	if err != nil {
		return err
	}
	usage, err := sourceService.Usage(ctx, reg)
	if err != nil {
		return err
	}

	view, err := NewSceneView(scenes, usage, start)
	if err != nil {
		return err
	}
	view.open = func(file string, line int) error {
		if terminalEditor(preferredEditor(ctx)) {
			if err := view.screen.Suspend(); err != nil {
				return err
			}
			defer view.screen.Resume()
		}
		return openAtLine(ctx, appWorkspace.Abs(file), line)
	}
	return view.Run()
}

// sceneItem is a selectable row: a source file or an asset loaded from one
type sceneItem struct {
	label string
	file  string
	line  int
	asset bool
}

// SceneView is a terminal scene explorer
type SceneView struct {
	scenes        []*domain.Scene
	usage         []services.AssetUsage
	current       int
	screen        tcell.Screen
	width         int
	height        int
	scrollOffset  int
	selectedIndex int
	status        string
	open          func(file string, line int) error
}

// NewSceneView creates a scene explorer starting at scenes[start]
func NewSceneView(scenes []*domain.Scene, usage []services.AssetUsage, start int) (*SceneView, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}

	width, height := screen.Size()
	return &SceneView{
		scenes:  scenes,
		usage:   usage,
		current: start,
		screen:  screen,
		width:   width,
		height:  height,
	}, nil
}

// Run starts the event loop
func (v *SceneView) Run() error {
	defer v.screen.Fini()

	v.screen.Clear()
	v.render()

	for {
		switch ev := v.screen.PollEvent().(type) {
		case *tcell.EventResize:
			v.width, v.height = ev.Size()
			v.screen.Sync()
			v.render()

		case *tcell.EventKey:
			if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC || ev.Rune() == 'q' {
				return nil
			}
			v.handleKeyPress(ev)
			v.render()
		}
	}
}

func (v *SceneView) handleKeyPress(ev *tcell.EventKey) {
	v.status = ""

	switch ev.Key() {
	case tcell.KeyUp, tcell.KeyCtrlP:
		v.moveCursor(-1)
	case tcell.KeyDown, tcell.KeyCtrlN:
		v.moveCursor(1)
	case tcell.KeyLeft:
		v.switchScene(-1)
	case tcell.KeyRight, tcell.KeyTab:
		v.switchScene(1)
	case tcell.KeyEnter:
		v.openSelected()
	case tcell.KeyHome:
		v.selectedIndex, v.scrollOffset = 0, 0
	case tcell.KeyEnd:
		v.selectedIndex = len(v.items()) - 1
		v.adjustScroll()
	}

	switch ev.Rune() {
	case 'j':
		v.moveCursor(1)
	case 'k':
		v.moveCursor(-1)
	case 'h':
		v.switchScene(-1)
	case 'l':
		v.switchScene(1)
	case 'g':
		v.selectedIndex, v.scrollOffset = 0, 0
	case 'G':
		v.selectedIndex = len(v.items()) - 1
		v.adjustScroll()
	}
}

func (v *SceneView) switchScene(delta int) {
	n := len(v.scenes)
	v.current = ((v.current+delta)%n + n) % n
	v.selectedIndex, v.scrollOffset = 0, 0
}

func (v *SceneView) moveCursor(delta int) {
	items := v.items()
	if len(items) == 0 {
		return
	}
	v.selectedIndex = max(0, min(v.selectedIndex+delta, len(items)-1))
	v.adjustScroll()
}

func (v *SceneView) adjustScroll() {
	visible := v.listHeight()
	if v.selectedIndex < v.scrollOffset {
		v.scrollOffset = v.selectedIndex
	}
	if v.selectedIndex >= v.scrollOffset+visible {
		v.scrollOffset = v.selectedIndex - visible + 1
	}
}

func (v *SceneView) listHeight() int {
	return max(1, v.height-9)
}

func (v *SceneView) openSelected() {
	items := v.items()
	if v.open == nil || v.selectedIndex >= len(items) {
		return
	}
	item := items[v.selectedIndex]
	if err := v.open(item.file, item.line); err != nil {
		v.status = err.Error()
		return
	}
	v.status = "opened " + item.file
}

// items lists the scene's source, its scripts and every asset loaded from them
func (v *SceneView) items() []sceneItem {
	return sceneItems(v.scenes[v.current], v.usage)
}

func sceneItems(scene *domain.Scene, usage []services.AssetUsage) []sceneItem {
	files := []string{"src/scenes/" + scene.Symbol() + ".c"}
	for _, script := range scene.Scripts {
		files = append(files, "src/scripts/"+script+".c")
	}

	items := make([]sceneItem, 0, len(files))
	for _, f := range files {
		items = append(items, sceneItem{label: f, file: f, line: 1})
	}

	for _, u := range usage {
		for _, ref := range u.References {
			if !containsString(files, ref.File) {
				continue
			}
			items = append(items, sceneItem{
				label: fmt.Sprintf("%s  %s:%d", domain.RomPath(u.Asset), ref.File, ref.LineNum),
				file:  ref.File,
				line:  ref.LineNum,
				asset: true,
			})
		}
	}
	return items
}

func containsString(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}

func (v *SceneView) render() {
	v.screen.Clear()

	scene := v.scenes[v.current]
	r, g, b := scene.RGB()
	muted := tcell.StyleDefault.Foreground(tcell.ColorGray)

	y := 0
	v.drawText(0, y, fmt.Sprintf("┌─ %s  (scene %d, %d/%d)", scene.Name, scene.ID, v.current+1, len(v.scenes)),
		tcell.StyleDefault.Bold(true).Foreground(tcell.ColorPurple))
	y++
	v.drawText(0, y, "│  background ", muted)
	v.drawText(14, y, "    ", tcell.StyleDefault.Background(tcell.NewRGBColor(int32(r), int32(g), int32(b))))
	fill := "cleared every frame"
	if !scene.FillBackground {
		fill = "not cleared"
	}
	v.drawText(19, y, scene.BackgroundColor+" "+fill, muted)
	y++
	v.drawText(0, y, "└"+strings.Repeat("─", 60), muted)
	y += 2

	items := v.items()
	assets := 0
	for _, it := range items {
		if it.asset {
			assets++
		}
	}
	v.drawText(0, y, fmt.Sprintf("Files: %d │ Asset loads: %d", len(items)-assets, assets),
		tcell.StyleDefault.Foreground(tcell.ColorYellow))
	y += 2

	end := min(len(items), v.scrollOffset+v.listHeight())
	for i := v.scrollOffset; i < end; i++ {
		it := items[i]
		style := tcell.StyleDefault.Foreground(tcell.ColorGreen)
		marker := "▸ "
		if it.asset {
			style = tcell.StyleDefault.Foreground(tcell.Color51)
			marker = "  ↳ "
		}
		prefix := "  "
		if i == v.selectedIndex {
			style = style.Reverse(true)
			prefix = "▶ "
		}
		v.drawText(0, y, prefix+marker+it.label, style)
		y++
	}

	footerY := v.height - 2
	v.drawText(0, footerY, strings.Repeat("─", v.width), muted)
	help := "h/l: Scene │ j/k: Move │ Enter: Open │ q/Esc: Quit"
	if v.status != "" {
		help = v.status
	}
	v.drawText(0, footerY+1, help, muted)

	v.screen.Show()
}

func (v *SceneView) drawText(x, y int, text string, style tcell.Style) {
	col := x
	for _, r := range text {
		if col >= v.width {
			break
		}
		v.screen.SetContent(col, y, r, nil, style)
		col++
	}
}
