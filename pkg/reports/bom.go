package reports

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/rmax-ai/blockgen/pkg/diagram"
)

// BOMRow is one component line of the bill of materials.
type BOMRow struct {
	BlockID   string           `json:"block_id"`
	Category  diagram.Category `json:"category"`
	Title     string           `json:"title"`
	Index     int              `json:"index"`
	Component string           `json:"component"`
}

// BOMRows flattens the component lists of d in block order.
func BOMRows(d diagram.Diagram) []BOMRow {
	var rows []BOMRow
	for _, b := range d.Blocks {
		for i, c := range b.Components {
			rows = append(rows, BOMRow{
				BlockID:   b.ID,
				Category:  b.Type,
				Title:     b.Title,
				Index:     i,
				Component: c,
			})
		}
	}
	return rows
}

// BOMReport lists every component of every block.
type BOMReport struct {
	format ReportFormat
}

// NewBOMReport creates a new BOMReport generator.
func NewBOMReport(format ReportFormat) *BOMReport {
	return &BOMReport{format: format}
}

// Generate renders the bill of materials of d.
func (r *BOMReport) Generate(ctx context.Context, d diagram.Diagram) (io.Reader, error) {
	rows := BOMRows(d)
	if r.format == ReportFormatJSON {
		return encodeJSON(rows)
	}

	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)

	// Write CSV headers
	headers := []string{"block_id", "category", "title", "index", "component"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write headers: %w", err)
	}

	for _, row := range rows {
		record := []string{
			row.BlockID,
			string(row.Category),
			row.Title,
			strconv.Itoa(row.Index),
			row.Component,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("csv writer error: %w", err)
	}

	return buf, nil
}

func encodeJSON(v any) (io.Reader, error) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("failed to encode json: %w", err)
	}
	return buf, nil
}
