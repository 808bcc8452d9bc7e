package table

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	ltable "github.com/charmbracelet/lipgloss/table"
)

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("51")).
			Bold(true).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().
			Padding(0, 1)

	missingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Padding(0, 1)

	borderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("238"))

	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))
)

// Render returns a bordered preview of the first n rows of t. Missing cells
// show as NaN.
func Render(t *Table, n int) string {
	head := t.Head(n)

	rows := make([][]string, len(head.Rows))
	for i, row := range head.Rows {
		rows[i] = make([]string, len(row))
		for j, c := range row {
			rows[i][j] = c.String()
		}
	}

	lt := ltable.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(t.Columns...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == ltable.HeaderRow {
				return headerStyle
			}
			if row >= 0 && row < len(head.Rows) && col < len(head.Rows[row]) && head.Rows[row][col].IsMissing() {
				return missingStyle
			}
			return cellStyle
		})

	out := lt.String()
	if t.Len() > head.Len() {
		out += "\n" + footerStyle.Render(fmt.Sprintf("... %d more rows", t.Len()-head.Len()))
	}
	return out
}
