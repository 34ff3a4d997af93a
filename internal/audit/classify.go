package audit

// CompensatingControl is recorded against every accepted moderate or low
// finding in the audit report.
const CompensatingControl = "Accepted below the blocking threshold (high/critical). Tracked in this report and upgraded when a fixed version is published."

// AcceptedFinding is a non-blocking finding with its compensating-control note.
type AcceptedFinding struct {
	Finding
	Note string `json:"note"`
}

// Classify splits findings into blocking (critical, high) and accepted
// (moderate, low). Informational findings are neither.
func Classify(findings []Finding) (blocking []Finding, accepted []AcceptedFinding) {
	blocking = []Finding{}
	accepted = []AcceptedFinding{}
	for _, f := range findings {
		switch f.Severity {
		case SeverityCritical, SeverityHigh:
			blocking = append(blocking, f)
		case SeverityModerate, SeverityLow:
			accepted = append(accepted, AcceptedFinding{Finding: f, Note: CompensatingControl})
		}
	}
	return blocking, accepted
}
