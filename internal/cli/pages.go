package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/JoaaoVerona/pageflow/pkg/paginate"
)

// pagesCommand creates the pages command for inspecting layouts.
func (c *CLI) pagesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "pages [layout.json]",
		Short: "Summarize the pages of a layout file",
		Long: `Summarize the pages of a layout file.

Prints one row per page: body fragment count, footnote fragment count, the
reserved footnote band height, and the occupied vertical extent.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			layout, err := paginate.ReadLayoutFile(args[0])
			if err != nil {
				return fmt.Errorf("load layout %s: %w", args[0], err)
			}
			fmt.Println(renderPagesTable(layout))
			return nil
		},
	}
}

// renderPagesTable renders the per-page summary table.
func renderPagesTable(l paginate.Layout) string {
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	rows := make([][]string, 0, len(l.Pages))
	for _, p := range l.Pages {
		body := p.BodyFragments()
		notes := p.FootnoteFragments()

		var bottom float64
		for _, f := range body {
			if f.Bottom() > bottom {
				bottom = f.Bottom()
			}
		}

		rows = append(rows, []string{
			fmt.Sprintf("%d", p.Index+1),
			fmt.Sprintf("%d", len(body)),
			fmt.Sprintf("%d", len(notes)),
			fmt.Sprintf("%.1f", p.FootnoteReserved),
			fmt.Sprintf("%.1f / %.1f", bottom, p.BandBottom()),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Page", "Body", "Notes", "Reserved", "Filled / Band").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if col == 0 {
				return lipgloss.NewStyle().Foreground(colorCyan)
			}
			return lipgloss.NewStyle().Foreground(colorGray)
		})

	return t.Render()
}
