package reports

import (
	"context"
	"io"

	"github.com/rmax-ai/blockgen/pkg/diagram"
)

type ReportType string

const (
	ReportTypeBOM         ReportType = "bom"
	ReportTypeConnections ReportType = "connections"
)

type ReportFormat string

const (
	ReportFormatCSV  ReportFormat = "csv"
	ReportFormatJSON ReportFormat = "json"
)

// Generator renders a report for one diagram.
type Generator interface {
	Generate(ctx context.Context, d diagram.Diagram) (io.Reader, error)
}
