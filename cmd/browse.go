package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/kamal-hamza/nst/internal/adapters/toolchain"
	"github.com/kamal-hamza/nst/internal/core/domain"
	"github.com/kamal-hamza/nst/internal/core/services"
	"github.com/kamal-hamza/nst/pkg/ui"
)

var browseCmd = &cobra.Command{
	Use:     "browse",
	Aliases: []string{"ui"},
	Short:   "Browse assets in a full screen content browser (alias: ui)",
	Long: `Launch a full screen content browser over the project's asset tree.

Keyboard Shortcuts:
  Navigation:
    ↑/k ↓/j     Move
    g / G       Jump to top / bottom
    Enter/Space Expand or collapse a folder
    PgUp/PgDn   Scroll the preview

  Actions:
    e           Open the asset file
    y           Copy the ROM path
    d           Delete the asset
    b           Build the ROM
    l           Toggle the build log
    r           Reload from disk

  General:
    /           Search
    ?           Help
    q           Quit`,
	Args: cobra.NoArgs,
	RunE: runBrowse,
}

func runBrowse(cmd *cobra.Command, args []string) error {
	ctx := getContext()

	root, _, err := assetService.Tree(ctx)
	if err != nil {
		return fmt.Errorf("failed to load assets: %w", err)
	}

	ref := &programRef{}
	m := newBrowseModel(ctx, root, ref)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	ref.program = p

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("error running browser: %w", err)
	}
	return nil
}

// programRef lets commands running in the background send messages back to
// the program that owns the model
type programRef struct {
	program *tea.Program
}

func (r *programRef) send(msg tea.Msg) {
	if r != nil && r.program != nil {
		r.program.Send(msg)
	}
}

type browseMode int

const (
	browseList browseMode = iota
	browseSearch
	browseHelp
	browseConfirmDelete
)

// browseRow is one visible line of the flattened tree
type browseRow struct {
	node  *domain.Node
	depth int
}

type browseModel struct {
	ctx          context.Context
	ref          *programRef
	root         *domain.Node
	collapsed    map[string]bool
	rows         []browseRow
	cursor       int
	offset       int
	mode         browseMode
	searchInput  textinput.Model
	preview      viewport.Model
	help         help.Model
	keys         browseKeyMap
	width        int
	height       int
	ready        bool
	showLog      bool
	building     bool
	buildLog     []string
	message      string
	messageStyle lipgloss.Style
	deleteTarget domain.Asset
}

type browseKeyMap struct {
	Up       key.Binding
	Down     key.Binding
	Top      key.Binding
	Bottom   key.Binding
	Toggle   key.Binding
	Edit     key.Binding
	Copy     key.Binding
	Delete   key.Binding
	Build    key.Binding
	Log      key.Binding
	Reload   key.Binding
	Search   key.Binding
	Help     key.Binding
	Quit     key.Binding
	Escape   key.Binding
	Confirm  key.Binding
	Cancel   key.Binding
	PageUp   key.Binding
	PageDown key.Binding
}

func (k browseKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Toggle, k.Build, k.Search, k.Help, k.Quit}
}

func (k browseKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Top, k.Bottom, k.Toggle, k.PageUp, k.PageDown},
		{k.Edit, k.Copy, k.Delete, k.Build, k.Log, k.Reload},
		{k.Search, k.Help, k.Escape, k.Quit},
	}
}

var browseKeys = browseKeyMap{
	Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Top:      key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "top")),
	Bottom:   key.NewBinding(key.WithKeys("G"), key.WithHelp("G", "bottom")),
	Toggle:   key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "expand/collapse")),
	Edit:     key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "open file")),
	Copy:     key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy rom path")),
	Delete:   key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
	Build:    key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "build")),
	Log:      key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "build log")),
	Reload:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
	Search:   key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
	Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Escape:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	Confirm:  key.NewBinding(key.WithKeys("y", "Y"), key.WithHelp("y", "confirm")),
	Cancel:   key.NewBinding(key.WithKeys("n", "N", "esc"), key.WithHelp("n/esc", "cancel")),
	PageUp:   key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "scroll preview")),
	PageDown: key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "scroll preview")),
}

func newBrowseModel(ctx context.Context, root *domain.Node, ref *programRef) browseModel {
	ti := textinput.New()
	ti.Placeholder = "Search assets..."
	ti.CharLimit = 100
	ti.Width = 50

	vp := viewport.New(60, 20)
	vp.Style = lipgloss.NewStyle().Foreground(ui.ColorDefault)

	m := browseModel{
		ctx:         ctx,
		ref:         ref,
		root:        root,
		collapsed:   map[string]bool{},
		searchInput: ti,
		preview:     vp,
		help:        help.New(),
		keys:        browseKeys,
	}
	m.rebuildRows()
	return m
}

// Messages

type browseStatusMsg struct {
	message string
	style   lipgloss.Style
}

type browseReloadMsg struct{}

type buildLineMsg string

type buildDoneMsg struct {
	resp *services.BuildResponse
	err  error
}

func (m browseModel) Init() tea.Cmd {
	return nil
}

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.ready = true
		m.preview.Width = max(20, m.width-m.listWidth()-6)
		m.preview.Height = max(5, m.height-10)
		m.refreshPreview()
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case browseSearch:
			return m.updateSearch(msg)
		case browseHelp:
			if key.Matches(msg, m.keys.Escape, m.keys.Help, m.keys.Quit) {
				m.mode = browseList
			}
			return m, nil
		case browseConfirmDelete:
			return m.updateConfirmDelete(msg)
		default:
			return m.updateList(msg)
		}

	case browseStatusMsg:
		m.message = msg.message
		m.messageStyle = msg.style
		return m, nil

	case browseReloadMsg:
		if root, _, err := assetService.Tree(m.ctx); err == nil {
			m.root = root
			m.rebuildRows()
			m.refreshPreview()
		}
		return m, nil

	case buildLineMsg:
		m.buildLog = append(m.buildLog, string(msg))
		if len(m.buildLog) > 500 {
			m.buildLog = m.buildLog[len(m.buildLog)-500:]
		}
		if m.showLog {
			m.refreshPreview()
			m.preview.GotoBottom()
		}
		return m, nil

	case buildDoneMsg:
		m.building = false
		if msg.err != nil {
			m.message = msg.err.Error()
			m.messageStyle = ui.StyleError
		} else {
			m.message = "Built " + msg.resp.RomPath
			m.messageStyle = ui.StyleSuccess
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.preview, cmd = m.preview.Update(msg)
	return m, cmd
}

func (m browseModel) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)

	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)

	case key.Matches(msg, m.keys.Top):
		m.cursor, m.offset = 0, 0
		m.refreshPreview()

	case key.Matches(msg, m.keys.Bottom):
		m.cursor = len(m.rows) - 1
		m.adjustOffset()
		m.refreshPreview()

	case key.Matches(msg, m.keys.PageUp):
		m.preview.ViewUp()

	case key.Matches(msg, m.keys.PageDown):
		m.preview.ViewDown()

	case key.Matches(msg, m.keys.Toggle):
		if node := m.selected(); node != nil && node.IsFolder() && node.Parent() != nil {
			m.collapsed[node.Path()] = !m.collapsed[node.Path()]
			m.rebuildRows()
		}

	case key.Matches(msg, m.keys.Edit):
		if a := m.selectedAsset(); a != nil {
			return m, m.openAsset(a)
		}

	case key.Matches(msg, m.keys.Copy):
		if a := m.selectedAsset(); a != nil {
			return m, copyRomPath(a)
		}

	case key.Matches(msg, m.keys.Delete):
		if a := m.selectedAsset(); a != nil {
			m.deleteTarget = a
			m.mode = browseConfirmDelete
		}

	case key.Matches(msg, m.keys.Build):
		if m.building || runner.Busy() {
			m.message = toolchain.ErrBusy.Error()
			m.messageStyle = ui.StyleWarning
			return m, nil
		}
		m.building = true
		m.buildLog = nil
		m.message = "Building..."
		m.messageStyle = ui.StyleInfo
		return m, m.build()

	case key.Matches(msg, m.keys.Log):
		m.showLog = !m.showLog
		m.refreshPreview()
		if m.showLog {
			m.preview.GotoBottom()
		}

	case key.Matches(msg, m.keys.Reload):
		return m, func() tea.Msg { return browseReloadMsg{} }

	case key.Matches(msg, m.keys.Search):
		m.mode = browseSearch
		m.searchInput.Focus()
		return m, textinput.Blink

	case key.Matches(msg, m.keys.Help):
		m.mode = browseHelp
	}

	return m, nil
}

func (m browseModel) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.mode = browseList
		m.searchInput.Blur()
		m.searchInput.SetValue("")
		m.rebuildRows()
		return m, nil

	case msg.Type == tea.KeyEnter:
		m.mode = browseList
		m.searchInput.Blur()
		return m, nil

	case msg.Type == tea.KeyUp:
		m.moveCursor(-1)
		return m, nil

	case msg.Type == tea.KeyDown:
		m.moveCursor(1)
		return m, nil
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	m.rebuildRows()
	return m, cmd
}

func (m browseModel) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		target := m.deleteTarget
		m.deleteTarget = nil
		m.mode = browseList
		return m, deleteAsset(m.ctx, target)

	case key.Matches(msg, m.keys.Cancel):
		m.deleteTarget = nil
		m.mode = browseList
	}
	return m, nil
}

// rebuildRows flattens the tree, honouring collapsed folders, or lists the
// search results when a query is active
func (m *browseModel) rebuildRows() {
	m.rows = nil

	query := strings.TrimSpace(m.searchInput.Value())
	if query != "" {
		resp, err := listService.Search(m.ctx, services.SearchRequest{Query: query})
		if err == nil {
			for _, a := range resp.Assets {
				m.rows = append(m.rows, browseRow{node: &domain.Node{Name: a.Meta().Name, Type: a.Type(), Asset: a}})
			}
		}
	} else {
		m.root.Walk(func(node *domain.Node, depth int) bool {
			m.rows = append(m.rows, browseRow{node: node, depth: depth})
			return node.Parent() == nil || !m.collapsed[node.Path()]
		})
	}

	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.adjustOffset()
	m.refreshPreview()
}

func (m *browseModel) moveCursor(delta int) {
	if len(m.rows) == 0 {
		return
	}
	m.cursor = max(0, min(m.cursor+delta, len(m.rows)-1))
	m.adjustOffset()
	m.refreshPreview()
}

func (m *browseModel) listHeight() int {
	return max(3, m.height-10)
}

func (m *browseModel) listWidth() int {
	return max(30, int(float64(m.width)*0.4))
}

func (m *browseModel) adjustOffset() {
	h := m.listHeight()
	if m.cursor >= m.offset+h {
		m.offset = m.cursor - h + 1
	}
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
}

func (m *browseModel) selected() *domain.Node {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return nil
	}
	return m.rows[m.cursor].node
}

func (m *browseModel) selectedAsset() domain.Asset {
	if node := m.selected(); node != nil && !node.IsFolder() {
		return node.Asset
	}
	return nil
}

func (m *browseModel) refreshPreview() {
	if m.showLog {
		if len(m.buildLog) == 0 {
			m.preview.SetContent(ui.StyleMuted.Render("No build output yet. Press 'b' to build."))
		} else {
			m.preview.SetContent(strings.Join(m.buildLog, "\n"))
		}
		return
	}

	node := m.selected()
	switch {
	case node == nil:
		m.preview.SetContent("")
	case node.IsFolder():
		folders, leaves := node.Count()
		m.preview.SetContent(fmt.Sprintf("%s %s\n\n%d folders\n%d assets",
			ui.AssetIcon("folder"), node.Path(), folders, leaves))
	default:
		m.preview.SetContent(assetDetails(node.Asset) + "\n" + descriptorPreview(node.Asset))
	}
	m.preview.GotoTop()
}

// descriptorPreview returns the asset's descriptor file with JSON highlighting
func descriptorPreview(a domain.Asset) string {
	path := appWorkspace.GetDescriptorPath(domain.DescriptorName(a.Meta().Name, a.Type()))
	data, err := os.ReadFile(path)
	if err != nil {
		return ui.StyleMuted.Render("descriptor unavailable: " + err.Error())
	}
	return highlight(string(data), "json")
}

// highlight applies terminal syntax highlighting for the given language
func highlight(content, language string) string {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := styles.Get("monokai")
	if style == nil {
		style = styles.Fallback
	}

	iterator, err := lexer.Tokenise(nil, content)
	if err != nil {
		return content
	}

	var buf strings.Builder
	if err := formatters.TTY16m.Format(&buf, style, iterator); err != nil {
		return content
	}
	return buf.String()
}

// Views

func (m browseModel) View() string {
	if !m.ready {
		return "\n  Loading assets..."
	}

	switch m.mode {
	case browseHelp:
		return m.viewHelp()
	case browseConfirmDelete:
		return m.viewConfirmDelete()
	}

	var s strings.Builder
	s.WriteString(m.renderHeader())
	s.WriteString("\n")
	s.WriteString(m.renderSearchBar())
	s.WriteString("\n\n")

	listWidth := m.listWidth()
	list := lipgloss.NewStyle().Width(listWidth).Render(m.renderRows(listWidth))
	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, list, "  ", m.renderPreview()))
	s.WriteString("\n")
	s.WriteString(m.renderFooter())

	return s.String()
}

func (m browseModel) renderHeader() string {
	title := lipgloss.NewStyle().Foreground(ui.ColorPrimary).Bold(true).Padding(0, 1).
		Render(ui.AssetIcon("folder") + " NST Content Browser")

	folders, leaves := m.root.Count()
	stats := ui.StyleMuted.Render(fmt.Sprintf("%d assets  %d folders  %s", leaves, folders, appWorkspace.RootPath))

	spacer := max(0, m.width-lipgloss.Width(title)-lipgloss.Width(stats))
	return lipgloss.JoinHorizontal(lipgloss.Top, title, strings.Repeat(" ", spacer), stats)
}

func (m browseModel) renderSearchBar() string {
	border := ui.ColorMuted
	prompt := ui.StyleMuted.Render("/ ")
	if m.mode == browseSearch {
		border = ui.ColorPrimary
		prompt = ui.StylePrimary.Render("/ ")
	}

	content := prompt + m.searchInput.View()
	if m.mode != browseSearch && m.searchInput.Value() == "" {
		content = prompt + ui.StyleMuted.Render("Press / to search...")
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1).
		Width(max(10, m.width-4)).
		Render(content)
}

func (m browseModel) renderRows(width int) string {
	if len(m.rows) == 0 {
		empty := "No assets. Import some with 'nst import'."
		if m.searchInput.Value() != "" {
			empty = "No assets match your search."
		}
		return lipgloss.NewStyle().Foreground(ui.ColorMuted).Italic(true).Padding(1, 2).Render(empty)
	}

	var s strings.Builder
	end := min(len(m.rows), m.offset+m.listHeight())
	for i := m.offset; i < end; i++ {
		row := m.rows[i]
		node := row.node

		cursor := "  "
		style := lipgloss.NewStyle().Foreground(ui.ColorDefault)
		if i == m.cursor {
			cursor = ui.StylePrimary.Render("▶ ")
			style = ui.StylePrimary
		}

		marker := ""
		label := node.Name
		if node.IsFolder() {
			marker = "▾ "
			if m.collapsed[node.Path()] {
				marker = "▸ "
			}
			label = ui.StyleBold.Render(label)
		}

		line := fmt.Sprintf("%s%s%s%s %s",
			cursor,
			strings.Repeat("  ", row.depth),
			marker,
			ui.AssetIcon(node.Type.String()),
			style.Render(label),
		)
		if !node.IsFolder() {
			line += " " + ui.StyleMuted.Render(humanize.Bytes(uint64(node.Asset.Meta().Size)))
		}
		s.WriteString(lipgloss.NewStyle().MaxWidth(width).Render(line) + "\n")
	}
	return s.String()
}

func (m browseModel) renderPreview() string {
	title := "Preview"
	if m.showLog {
		title = "Build Log"
	}
	header := lipgloss.NewStyle().Foreground(ui.ColorMuted).
		Render(fmt.Sprintf("%s • %d%%", title, int(m.preview.ScrollPercent()*100)))

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ui.ColorMuted).
		Render(header + "\n" + m.preview.View())
}

func (m browseModel) renderFooter() string {
	status := ui.StyleMuted.Render("Ready")
	if m.message != "" {
		status = m.messageStyle.Render(m.message)
	}

	return lipgloss.NewStyle().
		BorderTop(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(ui.ColorMuted).
		Padding(0, 1).
		Render(lipgloss.JoinVertical(lipgloss.Left, status, m.help.ShortHelpView(m.keys.ShortHelp())))
}

func (m browseModel) viewHelp() string {
	title := lipgloss.NewStyle().Bold(true).Foreground(ui.ColorPrimary).Padding(1, 2).
		Render("NST Content Browser - Keyboard Shortcuts")

	h := m.help
	h.ShowAll = true
	return title + "\n\n" + lipgloss.NewStyle().Padding(0, 2).Render(h.View(m.keys)) +
		"\n\n" + ui.StyleMuted.Render("  Press ESC or ? to return")
}

func (m browseModel) viewConfirmDelete() string {
	if m.deleteTarget == nil {
		return ""
	}

	meta := m.deleteTarget.Meta()
	content := fmt.Sprintf("%s\n\n%s\n%s\n\n%s",
		lipgloss.NewStyle().Foreground(ui.ColorWarning).Bold(true).Render(ui.IconWarning+"  Delete Asset?"),
		lipgloss.NewStyle().Foreground(ui.ColorPrimary).Bold(true).Render(meta.Name),
		ui.StyleMuted.Render(meta.FilePath),
		lipgloss.NewStyle().Foreground(ui.ColorDefault).MarginTop(1).Render("Press 'y' to confirm, 'n' or ESC to cancel"),
	)

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ui.ColorWarning).
		Padding(1, 2).
		Width(60).
		Align(lipgloss.Center).
		Render(content)

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

// Commands

func (m browseModel) build() tea.Cmd {
	ctx, ref := m.ctx, m.ref
	return func() tea.Msg {
		start := time.Now()
		resp, err := buildService.Build(ctx, services.BuildRequest{
			OnOutput: func(line string) { ref.send(buildLineMsg(line)) },
		})
		if err == nil {
			ref.send(buildLineMsg(fmt.Sprintf("finished in %s", time.Since(start).Round(time.Millisecond))))
		}
		return buildDoneMsg{resp: resp, err: err}
	}
}

func (m browseModel) openAsset(a domain.Asset) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		path := appWorkspace.Abs(a.Meta().FilePath)
		if err := launcher.Launch(ctx, "", path); err != nil {
			return browseStatusMsg{message: err.Error(), style: ui.StyleError}
		}
		return browseStatusMsg{message: "Opened " + a.Meta().FilePath, style: ui.StyleSuccess}
	}
}

func copyRomPath(a domain.Asset) tea.Cmd {
	return func() tea.Msg {
		path := domain.RomPath(a)
		if err := clipboard.WriteAll(path); err != nil {
			return browseStatusMsg{message: "Clipboard unavailable: " + err.Error(), style: ui.StyleWarning}
		}
		return browseStatusMsg{message: "Copied " + path, style: ui.StyleSuccess}
	}
}

func deleteAsset(ctx context.Context, a domain.Asset) tea.Cmd {
	return func() tea.Msg {
		if a == nil {
			return nil
		}
		if _, err := assetService.Delete(ctx, a.Type(), a.Meta().Name); err != nil {
			return browseStatusMsg{message: "Failed to delete: " + err.Error(), style: ui.StyleError}
		}
		return tea.Sequence(
			func() tea.Msg {
				return browseStatusMsg{message: "Deleted " + a.Meta().Name, style: ui.StyleSuccess}
			},
			func() tea.Msg { return browseReloadMsg{} },
		)()
	}
}
