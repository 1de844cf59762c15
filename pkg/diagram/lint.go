package diagram

import "fmt"

// Finding is a non-fatal problem in an otherwise valid diagram.
type Finding struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

const (
	FindingDuplicateID       = "duplicate_id"
	FindingDuplicateCategory = "duplicate_category"
	FindingMissingCategory   = "missing_category"
	FindingDanglingSource    = "dangling_source"
	FindingDanglingTarget    = "dangling_target"
)

// Lint reports what Validate deliberately lets through: repeated block ids,
// repeated or absent categories, and connections whose endpoints do not
// name a block. Renderers skip dangling connections.
func Lint(d Diagram) []Finding {
	var findings []Finding

	ids := make(map[string]bool, len(d.Blocks))
	seen := make(map[Category]int, len(d.Blocks))
	for _, b := range d.Blocks {
		if ids[b.ID] {
			findings = append(findings, Finding{
				Kind:    FindingDuplicateID,
				Message: fmt.Sprintf("block id %q appears more than once", b.ID),
			})
		}
		ids[b.ID] = true
		seen[b.Type]++
	}

	for _, c := range Categories() {
		switch n := seen[c]; {
		case n == 0:
			findings = append(findings, Finding{
				Kind:    FindingMissingCategory,
				Message: fmt.Sprintf("no %s block", c),
			})
		case n > 1:
			findings = append(findings, Finding{
				Kind:    FindingDuplicateCategory,
				Message: fmt.Sprintf("%d %s blocks", n, c),
			})
		}
	}

	for i, c := range d.Connections {
		if !ids[c.Source] {
			findings = append(findings, Finding{
				Kind:    FindingDanglingSource,
				Message: fmt.Sprintf("connections[%d]: source %q is not a block", i, c.Source),
			})
		}
		if !ids[c.Target] {
			findings = append(findings, Finding{
				Kind:    FindingDanglingTarget,
				Message: fmt.Sprintf("connections[%d]: target %q is not a block", i, c.Target),
			})
		}
	}

	return findings
}
