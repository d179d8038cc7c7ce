package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// tableColumn describes one column of CLI table output. A maxWidth above
// zero trims longer cells, which keeps long archive names from wrapping
// the whole table.
type tableColumn struct {
	header   string
	align    text.Align
	maxWidth int
}

func leftColumn(header string) tableColumn {
	return tableColumn{header: header, align: text.AlignLeft}
}

func rightColumn(header string) tableColumn {
	return tableColumn{header: header, align: text.AlignRight}
}

func (c tableColumn) trimmedTo(width int) tableColumn {
	c.maxWidth = width
	return c
}

// renderTable renders rows under columns. Short rows are padded with empty
// cells and extra cells are dropped.
func renderTable(columns []tableColumn, rows [][]string) string {
	if len(columns) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, 0, len(columns))
	configs := make([]table.ColumnConfig, 0, len(columns))
	for i, col := range columns {
		header = append(header, col.header)
		cfg := table.ColumnConfig{
			Number:      i + 1,
			Align:       col.align,
			AlignHeader: text.AlignLeft,
		}
		if col.maxWidth > 0 {
			cfg.WidthMax = col.maxWidth
			cfg.WidthMaxEnforcer = text.Trim
		}
		configs = append(configs, cfg)
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		cells := make(table.Row, len(columns))
		for i := range cells {
			cells[i] = ""
			if i < len(row) {
				cells[i] = row[i]
			}
		}
		tw.AppendRow(cells)
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}
