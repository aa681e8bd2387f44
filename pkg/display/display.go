package display

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	result "github.com/cloud-bulldozer/perf-analyze/pkg/results"
)

var (
	baseStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240"))
	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

const defaultHeight = 15

// Model browses the loaded data points in a table.
type Model struct {
	table table.Model
	title string
}

// Columns returns the table layout; the cost column only exists when priced.
func Columns(priced bool) []table.Column {
	cols := []table.Column{
		{Title: "Run", Width: 16},
		{Title: "File", Width: 24},
		{Title: "QPS", Width: 6},
		{Title: "Tok/s", Width: 10},
		{Title: "Per Token (ms)", Width: 14},
		{Title: "Normalized (ms)", Width: 15},
	}
	if priced {
		cols = append(cols, table.Column{Title: "$/M Tokens", Width: 10})
	}
	return cols
}

func optional(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}

// Rows flattens every run into table rows, in run order.
func Rows(runs []result.RunSet, price *float64) []table.Row {
	var rows []table.Row
	for _, rs := range runs {
		for _, r := range rs.Records {
			m := r.Metrics
			row := table.Row{
				rs.Name,
				r.File,
				strconv.FormatFloat(m.RequestRate, 'g', -1, 64),
				strconv.FormatFloat(m.Throughput, 'f', 1, 64),
				optional(m.AvgPerTokenLatencyMs),
				optional(m.AvgNormalizedLatencyMs),
			}
			if price != nil {
				row = append(row, optional(result.RecordCost(r, price)))
			}
			rows = append(rows, row)
		}
	}
	return rows
}

// New builds the model for the given runs.
func New(runs []result.RunSet, price *float64) Model {
	t := table.New(
		table.WithColumns(Columns(price != nil)),
		table.WithRows(Rows(runs, price)),
		table.WithFocused(true),
		table.WithHeight(defaultHeight),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)
	return Model{
		table: t,
		title: fmt.Sprintf("%d run(s), %d point(s)", len(runs), result.Count(runs)),
	}
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if h := msg.Height - 6; h > 3 {
			m.table.SetHeight(h)
		}
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		}
	}
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	return m.title + "\n" + baseStyle.Render(m.table.View()) + "\n" +
		helpStyle.Render("↑/↓ move • q quit") + "\n"
}

// Show runs the interactive table until the user quits.
func Show(runs []result.RunSet, price *float64) error {
	_, err := tea.NewProgram(New(runs, price)).Run()
	return err
}
