//go:build nng

// Command plasma-tui is an interactive query shell: type a path
// expression, hit enter, watch result rows land in a table. Scoped to
// one view instead of a multi-panel dashboard, since plasma's CLI
// surface is a single query loop rather than a storage inspector.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/plasmagraph/plasmadb/internal/graph"
	"github.com/plasmagraph/plasmadb/internal/graphstore"
	"github.com/plasmagraph/plasmadb/internal/logging"
	"github.com/plasmagraph/plasmadb/internal/pathtuple"
	"github.com/plasmagraph/plasmadb/internal/peer"
	"github.com/plasmagraph/plasmadb/internal/peer/mangos"
	"github.com/plasmagraph/plasmadb/internal/plan"
	"github.com/plasmagraph/plasmadb/internal/planner"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF00FF")).
			MarginLeft(2).
			MarginTop(1)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			MarginTop(1).
			MarginLeft(2)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FF00")).
			Bold(true)
)

type queryRanMsg struct {
	rows []pathtuple.PT
	err  error
}

type model struct {
	pr     *peer.Peer
	input  textinput.Model
	table  table.Model
	help   string
	status string
	isErr  bool
}

func initialModel(pr *peer.Peer) model {
	ti := textinput.New()
	ti.Placeholder = "music synths synth  (edge labels separated by spaces, last one named by projection)"
	ti.CharLimit = 200
	ti.Width = 70
	ti.Focus()

	columns := []table.Column{
		{Title: "PVar", Width: 16},
		{Title: "Node", Width: 24},
		{Title: "Properties", Width: 48},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(false),
		table.WithHeight(12),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#00FFFF")).
		BorderBottom(true).
		Bold(true)
	t.SetStyles(styles)

	return model{
		pr:     pr,
		input:  ti,
		table:  t,
		help:   "enter: run query  ·  ctrl+c: quit",
		status: "ready",
	}
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "enter":
			hops := strings.Fields(m.input.Value())
			m.status = "running..."
			m.isErr = false
			return m, runQuery(m.pr, hops)
		}
	case queryRanMsg:
		if msg.err != nil {
			m.isErr = true
			m.status = msg.err.Error()
			return m, nil
		}
		m.isErr = false
		m.status = fmt.Sprintf("%d row(s)", len(msg.rows))
		m.table.SetRows(rowsToTable(msg.rows))
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("plasma query shell"))
	b.WriteString("\n\n")
	b.WriteString("  " + m.input.View())
	b.WriteString("\n\n")
	b.WriteString(m.table.View())
	b.WriteString("\n\n  ")
	if m.isErr {
		b.WriteString(errorStyle.Render(m.status))
	} else {
		b.WriteString(successStyle.Render(m.status))
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(m.help))
	return b.String()
}

// runQuery builds a plan from a whitespace-separated list of edge
// labels (the last hop is the one projected) and runs it rooted at
// graph.RootID.
func runQuery(pr *peer.Peer, hops []string) tea.Cmd {
	return func() tea.Msg {
		if len(hops) == 0 {
			return queryRanMsg{err: fmt.Errorf("type one or more edge labels")}
		}
		var in planner.Input
		lastPVar := plan.PathVar("result")
		for i, label := range hops {
			pvar := plan.PathVar(fmt.Sprintf("hop%d", i))
			if i == len(hops)-1 {
				pvar = lastPVar
			}
			in.Path = append(in.Path, planner.PathSegment{
				PVar:  pvar,
				Preds: []planner.EdgePredSpec{{Label: label}},
			})
		}
		in.Projection = []plan.ProjectItem{{PVar: lastPVar}}

		p, err := planner.Build(in)
		if err != nil {
			return queryRanMsg{err: err}
		}
		p.HTL = 16

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		rows, err := pr.Query(ctx, p, map[plan.PathVar]any{"ROOT-ID": graph.RootID})
		return queryRanMsg{rows: rows, err: err}
	}
}

func rowsToTable(rows []pathtuple.PT) []table.Row {
	out := make([]table.Row, 0, len(rows))
	for _, pt := range rows {
		for _, key := range pt.Keys() {
			b, ok := pt.Get(key)
			if !ok {
				continue
			}
			propsJSON, _ := json.Marshal(propsToAny(b.Props))
			out = append(out, table.Row{string(key), string(b.Node), string(propsJSON)})
		}
	}
	return out
}

func propsToAny(props map[string]graph.Value) map[string]any {
	out := make(map[string]any, len(props))
	for k, v := range props {
		out[k] = v.Any()
	}
	return out
}

func main() {
	selfURL := flag.String("self", "plasma://localhost:9100", "this shell's own plasma://host:port")
	graphPath := flag.String("graph", "", "path to a graph dump JSON file")
	flag.Parse()

	store := graphstore.New()
	if *graphPath != "" {
		loaded, err := graphstore.LoadDump(*graphPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "plasma-tui: load graph: %v\n", err)
			os.Exit(1)
		}
		store = loaded
	}

	pr := peer.New(*selfURL, mangos.NewFactory(), store, logging.NewDefaultLogger())

	prog := tea.NewProgram(initialModel(pr))
	if _, err := prog.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "plasma-tui: %v\n", err)
		os.Exit(1)
	}
}

