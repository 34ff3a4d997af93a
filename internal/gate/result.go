package gate

type Status string

const (
	StatusPass  Status = "PASS"
	StatusFail  Status = "FAIL"
	StatusWarn  Status = "WARN"
	StatusError Status = "ERROR"
)

// Result is one item a check evaluated: a file against a budget, a chunk
// against its size, a URL field against its derivation.
type Result struct {
	CheckID string `json:"check_id"`
	Status  Status `json:"status"`
	// Subject is the file, chunk, tier or metric the result is about.
	Subject string `json:"subject,omitempty"`
	// Line is the 1-based line of a finding, 0 when not applicable.
	Line    int    `json:"line,omitempty"`
	RuleID  string `json:"rule_id,omitempty"`
	Message string `json:"message,omitempty"`
	// Metadata contains structured data supporting the result (e.g. measured values).
	Metadata map[string]any `json:"metadata,omitempty"`
}
