// Package output provides terminal rendering helpers for CLI commands.
package output

import (
	"io"

	"github.com/olekukonko/tablewriter"
)

// TableData holds ad-hoc tabular data for terminal output.
type TableData struct {
	headers []string
	rows    [][]string
}

// NewTableData creates a new TableData with the given headers.
func NewTableData(headers ...string) *TableData {
	return &TableData{
		headers: headers,
		rows:    make([][]string, 0),
	}
}

// AddRow adds a row to the table.
func (t *TableData) AddRow(row ...string) {
	t.rows = append(t.rows, row)
}

// PrintTable writes the data as a formatted table to the writer.
func PrintTable(w io.Writer, data *TableData) error {
	table := tablewriter.NewWriter(w)
	table.SetHeader(data.headers)

	// Clean, border-free output
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)

	for _, row := range data.rows {
		table.Append(row)
	}

	table.Render()
	return nil
}
