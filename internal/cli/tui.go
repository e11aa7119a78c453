package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/opsdeck/opsdeck/pkg/entity"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// backlogCommand creates the backlog command, an interactive browser over
// unplaced entities. Selecting one places it on the graph canvas.
func (c *CLI) backlogCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backlog",
		Short: "Browse the backlog and place entities on the canvas",
		Long: `Browse the backlog and place entities on the canvas.

The backlog holds every entity without a canvas position. Selecting an
entry assigns it a position below the existing nodes; run 'opsdeck layout'
afterwards to tidy the graph up.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runBacklog(cmd.Context())
		},
	}

	return cmd
}

func (c *CLI) runBacklog(ctx context.Context) error {
	con, err := c.openConsole(ctx)
	if err != nil {
		return err
	}
	defer con.Close()

	view, err := con.sync.Rebuild(ctx)
	if err != nil {
		return fmt.Errorf("rebuild view: %w", err)
	}
	if len(view.Backlog) == 0 {
		printInfo("Backlog is empty")
		return nil
	}

	model := newBacklogModel(view.Backlog)
	final, err := tea.NewProgram(model, tea.WithContext(ctx)).Run()
	if err != nil {
		return fmt.Errorf("run backlog browser: %w", err)
	}

	m, ok := final.(backlogModel)
	if !ok || m.selected == nil {
		return nil
	}

	// Drop the entity below the current canvas content.
	ref := m.selected.Ref()
	x := 40.0
	y := 40.0 + float64(len(view.Nodes))*140.0
	if err := con.sync.Place(ctx, ref, x, y); err != nil {
		return fmt.Errorf("place %s: %w", ref.NodeID(), err)
	}

	printSuccess("Placed %s at %.0f,%.0f", StyleHighlight.Render(ref.NodeID()), x, y)
	printNextStep("Tidy up", "opsdeck layout")

	return nil
}

// backlogModel is the bubbletea model for backlog browsing.
type backlogModel struct {
	records  []*entity.Record
	cursor   int
	offset   int
	height   int
	selected *entity.Record
}

func newBacklogModel(records []*entity.Record) backlogModel {
	return backlogModel{records: records, height: 15}
}

func (m backlogModel) Init() tea.Cmd {
	return nil
}

func (m backlogModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
				if m.cursor < m.offset {
					m.offset = m.cursor
				}
			}
		case "down", "j":
			if m.cursor < len(m.records)-1 {
				m.cursor++
				if m.cursor >= m.offset+m.height {
					m.offset = m.cursor - m.height + 1
				}
			}
		case "enter":
			m.selected = m.records[m.cursor]
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.height = msg.Height - 6
		if m.height < 5 {
			m.height = 5
		}
	}
	return m, nil
}

func (m backlogModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Backlog"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ place on canvas  q quit"))
	b.WriteString("\n\n")

	end := m.offset + m.height
	if end > len(m.records) {
		end = len(m.records)
	}

	rows := [][]string{}
	for i := m.offset; i < end; i++ {
		rec := m.records[i]

		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}

		scheduled := "—"
		if rec.ScheduledDate != nil {
			scheduled = rec.ScheduledDate.Format("2006-01-02")
		}

		rows = append(rows, []string{
			cursor,
			rec.Ref().NodeID(),
			rec.Title,
			scheduled,
			formatRelativeTime(rec.CreatedAt),
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Ref", "Title", "Scheduled", "Created").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if m.offset+row == m.cursor {
				return listSelectedStyle
			}
			if col == 3 || col == 4 {
				return listDimStyle
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.cursor+1, len(m.records))))

	return b.String()
}

// formatRelativeTime renders a timestamp as a short "ago" string.
func formatRelativeTime(t time.Time) string {
	if t.IsZero() {
		return "—"
	}

	diff := time.Since(t)
	switch {
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	default:
		return t.Format("Jan 2, 2006")
	}
}
