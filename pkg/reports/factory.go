package reports

import (
	"fmt"
)

// NewReportGenerator creates a report generator based on the report type.
func NewReportGenerator(reportType ReportType, format ReportFormat) (Generator, error) {
	switch format {
	case ReportFormatCSV, ReportFormatJSON:
	case "":
		format = ReportFormatCSV
	default:
		return nil, fmt.Errorf("unknown report format: %s", format)
	}

	switch reportType {
	case ReportTypeBOM:
		return NewBOMReport(format), nil
	case ReportTypeConnections:
		return NewConnectionsReport(format), nil
	default:
		return nil, fmt.Errorf("unknown report type: %s", reportType)
	}
}
