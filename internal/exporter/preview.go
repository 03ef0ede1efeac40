package exporter

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// PreviewOptions limits what Preview prints.
type PreviewOptions struct {
	// Limit is the maximum number of rows shown; 0 shows every row.
	Limit int
	// MaxCellWidth trims wider cells, such as long series; 0 disables trimming.
	MaxCellWidth int
}

// Preview renders g as a table for a terminal. Rows beyond the limit are
// summarized in the footer.
func Preview(w io.Writer, g Grid, opts PreviewOptions) error {
	header := make(table.Row, 0, len(g.Header)+1)
	header = append(header, "")
	for _, h := range g.Header {
		header = append(header, h)
	}

	shown := g.Records
	if opts.Limit > 0 && len(shown) > opts.Limit {
		shown = shown[:opts.Limit]
	}
	rows := make([]table.Row, 0, len(shown))
	for i, rec := range shown {
		row := make(table.Row, 0, len(rec)+1)
		row = append(row, i)
		for _, c := range rec {
			row = append(row, c)
		}
		rows = append(rows, row)
	}

	t := table.NewWriter()
	t.AppendHeader(header)
	t.AppendRows(rows)
	if hidden := len(g.Records) - len(shown); hidden > 0 {
		t.AppendFooter(table.Row{"", fmt.Sprintf("... %d more rows", hidden)})
	}
	t.SetStyle(table.StyleLight)
	t.Style().Format = table.FormatOptions{
		Footer: text.FormatDefault,
		Header: text.FormatDefault,
		Row:    text.FormatDefault,
	}
	t.Style().Options.DrawBorder = false
	if opts.MaxCellWidth > 0 {
		configs := make([]table.ColumnConfig, 0, len(g.Header))
		for j := range g.Header {
			configs = append(configs, table.ColumnConfig{
				Number:           j + 2,
				WidthMax:         opts.MaxCellWidth,
				WidthMaxEnforcer: text.Trim,
			})
		}
		t.SetColumnConfigs(configs)
	}
	t.SuppressTrailingSpaces()

	if _, err := io.WriteString(w, t.Render()+"\n"); err != nil {
		return fmt.Errorf("failed to write preview: %w", err)
	}
	return nil
}
