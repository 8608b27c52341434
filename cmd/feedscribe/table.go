package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// column describes one table column. Numeric columns align right; a status
// column is coloured by outcome when the output is a terminal.
type column struct {
	title   string
	numeric bool
	status  bool
}

// wrapWidth bounds descriptions and failure reasons, which can run long.
const wrapWidth = 60

func renderTable(cols []column, rows [][]string, colorize bool) string {
	if len(cols) == 0 {
		return ""
	}
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(cols))
	configs := make([]table.ColumnConfig, len(cols))
	for i, c := range cols {
		header[i] = c.title
		cfg := table.ColumnConfig{
			Number:           i + 1,
			AlignHeader:      text.AlignLeft,
			WidthMax:         wrapWidth,
			WidthMaxEnforcer: text.WrapSoft,
		}
		if c.numeric {
			cfg.Align = text.AlignRight
		}
		if c.status && colorize {
			cfg.Transformer = func(v any) string {
				s := fmt.Sprint(v)
				return paint(s, outcomeTone(s), true)
			}
		}
		configs[i] = cfg
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	for _, row := range rows {
		r := make(table.Row, len(cols))
		for i := range r {
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}
	return tw.Render()
}
