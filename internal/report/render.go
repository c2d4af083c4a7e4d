package report

import (
	"encoding/csv"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
)

const noImagePlaceholder = "なし"

// RenderTable writes the first limit rows as a terminal table. limit
// <= 0 renders everything.
func (r *Report) RenderTable(w io.Writer, limit int) {
	if limit <= 0 || limit > len(r.Rows) {
		limit = len(r.Rows)
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"#", "数量", "SKU", "ASIN", "画像"})
	for i, row := range r.Rows[:limit] {
		image := row.ImageURL
		if image == "" {
			image = noImagePlaceholder
		}
		t.AppendRow(table.Row{i + 1, row.Quantity, row.SKU, row.Identifier, image})
	}
	t.Render()
}

// WriteCSV writes the report back out as UTF-8 CSV with the original
// columns followed by rakuten_url and image_url.
func (r *Report) WriteCSV(w io.Writer) error {
	writer := csv.NewWriter(w)

	header := append(append([]string{}, r.Columns...), "rakuten_url", "image_url")
	err := writer.Write(header)
	if err != nil {
		return err
	}
	for _, row := range r.Rows {
		record := append(append([]string{}, row.Fields...), row.RakutenURL, row.ImageURL)
		err := writer.Write(record)
		if err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}
