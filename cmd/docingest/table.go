package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// column describes one table column. Numeric columns are right-aligned.
type column struct {
	title   string
	numeric bool
}

func textCol(title string) column { return column{title: title} }

func numCol(title string) column { return column{title: title, numeric: true} }

// renderTable draws rows under cols. Short rows are padded with blanks and
// extra cells are dropped.
func renderTable(cols []column, rows [][]string) string {
	if len(cols) == 0 {
		return ""
	}
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(cols))
	configs := make([]table.ColumnConfig, len(cols))
	for i, c := range cols {
		header[i] = c.title
		align := text.AlignLeft
		if c.numeric {
			align = text.AlignRight
		}
		configs[i] = table.ColumnConfig{Number: i + 1, Align: align, AlignHeader: text.AlignLeft}
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	for _, row := range rows {
		r := make(table.Row, len(cols))
		for i := range r {
			r[i] = ""
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}
	return tw.Render()
}
