package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/matzehuels/chaintwin/pkg/flow"
	"github.com/matzehuels/chaintwin/pkg/view"
)

func (c *CLI) exploreCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "explore <study>",
		Short: "Explore a study interactively in the terminal",
		Long: `Drive the highlight state of a study from the keyboard:

  tab / ↓   hover the next node      shift+tab / ↑   hover the previous node
  enter     pin or unpin the node    esc             close the pinned panel
  1-9       toggle a route           0               clear the route
  + / -     zoom in / out            r               reset zoom
  y         copy the render command   q               quit`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.completeStudy,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !isInteractive() {
				return fmt.Errorf("explore needs an interactive terminal; use inspect or render instead")
			}
			reg, err := c.registry()
			if err != nil {
				return err
			}
			sts, err := resolveStudies(reg, args, false)
			if err != nil {
				return err
			}
			m := newExploreModel(view.New(sts[0].Graph))
			_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
			return err
		},
	}
}

// isInteractive reports whether stdin and stdout are both terminals.
func isInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// =============================================================================
// Key bindings
// =============================================================================

type exploreKeyMap struct {
	Next, Prev, Pin, Unpin key.Binding
	Route, Clear           key.Binding
	ZoomIn, ZoomOut, Reset key.Binding
	Yank, Quit             key.Binding
}

var exploreKeys = exploreKeyMap{
	Next:    key.NewBinding(key.WithKeys("tab", "down", "j"), key.WithHelp("tab/↓", "next")),
	Prev:    key.NewBinding(key.WithKeys("shift+tab", "up", "k"), key.WithHelp("shift+tab/↑", "prev")),
	Pin:     key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "pin")),
	Unpin:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "unpin")),
	Route:   key.NewBinding(key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"), key.WithHelp("1-9", "route")),
	Clear:   key.NewBinding(key.WithKeys("0"), key.WithHelp("0", "clear route")),
	ZoomIn:  key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "zoom in")),
	ZoomOut: key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "zoom out")),
	Reset:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset zoom")),
	Yank:    key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy render command")),
	Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

func (k exploreKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Pin, k.Unpin, k.Route, k.Clear, k.ZoomIn, k.ZoomOut, k.Reset, k.Yank, k.Quit}
}

func (k exploreKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Next, k.Prev, k.Pin, k.Unpin},
		{k.Route, k.Clear},
		{k.ZoomIn, k.ZoomOut, k.Reset},
		{k.Yank, k.Quit},
	}
}

// =============================================================================
// exploreModel - keyboard-driven view state
// =============================================================================

type exploreModel struct {
	view   *view.View
	nodes  []flow.Node
	routes []flow.Route
	cursor int // index into nodes, -1 before the first hover
	help   help.Model
	status string // last rejected event
	notice string
}

// copyToClipboard is replaced in tests.
var copyToClipboard = clipboard.WriteAll

func newExploreModel(v *view.View) exploreModel {
	g := v.Graph()
	return exploreModel{
		view:   v,
		nodes:  g.Nodes(),
		routes: g.Routes(),
		cursor: -1,
		help:   help.New(),
	}
}

func (m exploreModel) Init() tea.Cmd { return nil }

func (m exploreModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
	case tea.KeyMsg:
		m.status, m.notice = "", ""
		switch {
		case key.Matches(msg, exploreKeys.Quit):
			return m, tea.Quit
		case key.Matches(msg, exploreKeys.Next):
			m.move(1)
		case key.Matches(msg, exploreKeys.Prev):
			m.move(-1)
		case key.Matches(msg, exploreKeys.Pin):
			if m.cursor >= 0 {
				m.report(m.view.Click(m.nodes[m.cursor].ID))
			}
		case key.Matches(msg, exploreKeys.Unpin):
			m.view.Unpin()
		case key.Matches(msg, exploreKeys.Clear):
			m.view.ClearRoute()
		case key.Matches(msg, exploreKeys.ZoomIn):
			m.view.ZoomIn()
		case key.Matches(msg, exploreKeys.ZoomOut):
			m.view.ZoomOut()
		case key.Matches(msg, exploreKeys.Reset):
			m.view.ResetZoom()
		case key.Matches(msg, exploreKeys.Yank):
			line := reproduceCommand(m.view.Graph().Name(), m.view.Snapshot())
			if err := copyToClipboard(line); err != nil {
				m.status = "clipboard unavailable: " + err.Error()
			} else {
				m.notice = "copied: " + line
			}
		case key.Matches(msg, exploreKeys.Route):
			if i := int(msg.String()[0] - '1'); i < len(m.routes) {
				m.report(m.view.SelectRoute(m.routes[i].ID))
			}
		}
	}
	return m, nil
}
// move hovers the node d steps away, wrapping around.
func (m *exploreModel) move(d int) {
	if len(m.nodes) == 0 {
		return
	}
	if m.cursor < 0 && d < 0 {
		m.cursor = 0
	}
	m.cursor = (m.cursor + d + len(m.nodes)) % len(m.nodes)
	m.report(m.view.HoverEnter(m.nodes[m.cursor].ID))
}

// reproduceCommand is the render invocation that draws the current state.
func reproduceCommand(study string, snap view.Snapshot) string {
	parts := []string{appName, "render", study}
	if snap.Route != "" {
		parts = append(parts, "--route", string(snap.Route))
	}
	if snap.Hovered != "" {
		parts = append(parts, "--hover", string(snap.Hovered))
	}
	if snap.Selected != "" {
		parts = append(parts, "--selected", string(snap.Selected))
	}
	if snap.Zoom != 0 && snap.Zoom != view.DefaultZoom {
		parts = append(parts, "--zoom", strconv.FormatFloat(snap.Zoom, 'f', -1, 64))
	}
	return strings.Join(parts, " ")
}

func (m *exploreModel) report(err error) {
	if err != nil {
		m.status = err.Error()
	}
}

func (m exploreModel) View() string {
	v := m.view
	g := v.Graph()
	var b strings.Builder

	b.WriteString(StyleTitle.Render(g.Title()))
	b.WriteString("  " + StyleDim.Render(fmt.Sprintf("%s · zoom %.2f", v.Mode(), v.Zoom())))
	b.WriteString("\n\n")

	var legend []string
	for i, r := range m.routes {
		label := fmt.Sprintf("%d %s", i+1, r.DisplayLabel())
		if r.ID == v.SelectedRoute() {
			legend = append(legend, StyleActive.Render("● "+label))
		} else {
			legend = append(legend, StyleDim.Render("○ "+label))
		}
	}
	b.WriteString(strings.Join(legend, "   "))
	b.WriteString("\n\n")

	var list strings.Builder
	for i, n := range m.nodes {
		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}
		pin := " "
		if v.Selected() == n.ID {
			pin = "●"
		}
		line := fmt.Sprintf("%s%s %-22s %s", cursor, pin, n.DisplayLabel(), categoryStyle(n.Category).Render(string(n.Category)))
		switch {
		case v.IsNodeHighlighted(n.ID):
			line = StyleActive.Render(line)
		case v.Mode() == view.RouteActive && !v.IsNodeFocused(n.ID):
			line = StyleDim.Render(line)
		}
		list.WriteString(line + "\n")
	}

	body := list.String()
	if p, ok := v.ActivePanel(); ok {
		body = lipgloss.JoinHorizontal(lipgloss.Top, body, "  ", renderPanel(p))
	}
	b.WriteString(body)

	if edges := v.HighlightedEdges(); len(edges) > 0 {
		keys := make([]string, len(edges))
		for i, e := range edges {
			keys[i] = e.Key()
		}
		b.WriteString("\n" + StyleDim.Render("edges: ") + StyleActive.Render(strings.Join(keys, "  ")))
	}
	if m.status != "" {
		b.WriteString("\n" + StyleWarning.Render(m.status))
	}
	if m.notice != "" {
		b.WriteString("\n" + StyleSuccess.Render(m.notice))
	}
	b.WriteString("\n\n" + m.help.View(exploreKeys))
	return b.String()
}
