package reports

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/rmax-ai/blockgen/pkg/diagram"
)

// ConnectionRow is one line of the interconnect report. Dangling is set
// when either endpoint names a block that is not in the diagram.
type ConnectionRow struct {
	Source      string `json:"source"`
	SourceTitle string `json:"source_title"`
	Target      string `json:"target"`
	TargetTitle string `json:"target_title"`
	Label       string `json:"label"`
	Dangling    bool   `json:"dangling"`
}

// ConnectionRows resolves the endpoints of every connection of d.
func ConnectionRows(d diagram.Diagram) []ConnectionRow {
	rows := make([]ConnectionRow, 0, len(d.Connections))
	for _, c := range d.Connections {
		row := ConnectionRow{Source: c.Source, Target: c.Target, Label: c.Label}
		src, okSrc := d.Block(c.Source)
		tgt, okTgt := d.Block(c.Target)
		row.SourceTitle = src.Title
		row.TargetTitle = tgt.Title
		row.Dangling = !okSrc || !okTgt
		rows = append(rows, row)
	}
	return rows
}

// ConnectionsReport lists the interconnects between blocks.
type ConnectionsReport struct {
	format ReportFormat
}

func NewConnectionsReport(format ReportFormat) *ConnectionsReport {
	return &ConnectionsReport{format: format}
}

func (r *ConnectionsReport) Generate(ctx context.Context, d diagram.Diagram) (io.Reader, error) {
	rows := ConnectionRows(d)
	if r.format == ReportFormatJSON {
		return encodeJSON(rows)
	}

	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)

	headers := []string{"source", "source_title", "target", "target_title", "label", "dangling"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write headers: %w", err)
	}
	for _, row := range rows {
		record := []string{
			row.Source,
			row.SourceTitle,
			row.Target,
			row.TargetTitle,
			row.Label,
			strconv.FormatBool(row.Dangling),
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
