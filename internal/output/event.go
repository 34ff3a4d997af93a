package output

import "policygate/internal/gate"

// Event is a lifecycle record for NDJSON streaming output.
//
// In NDJSON mode, sinks emit Events (one JSON object per line), including:
// - run.started
// - check.started
// - check.result
// - check.error
// - check.finished
// - run.finished
//
// JSON mode remains an aggregate of gate.Result values.
type Event struct {
	Type    string `json:"type"`
	CheckID string `json:"check,omitempty"`
	*gate.Result
	// Verdict fields of check.finished.
	Verdict  gate.Status `json:"verdict,omitempty"`
	Failures int         `json:"failures,omitempty"`
	Warnings int         `json:"warnings,omitempty"`
	Summary  string      `json:"summary,omitempty"`
	Report   string      `json:"report,omitempty"`
	// Error is the configuration error of check.error.
	Error string `json:"error,omitempty"`
	// Run fields of run.started / run.finished.
	Checks   int `json:"checks,omitempty"`
	Passed   int `json:"passed,omitempty"`
	ExitCode int `json:"exit_code,omitempty"`
}

const (
	EventRunStarted    = "run.started"
	EventCheckStarted  = "check.started"
	EventCheckResult   = "check.result"
	EventCheckError    = "check.error"
	EventCheckFinished = "check.finished"
	EventRunFinished   = "run.finished"
)

func eventFromResult(r gate.Result) Event {
	return Event{Type: EventCheckResult, CheckID: r.CheckID, Result: &r}
}

// FinishedEvent summarises a completed check.
func FinishedEvent(o *gate.Outcome) Event {
	return Event{
		Type:     EventCheckFinished,
		CheckID:  o.CheckID,
		Verdict:  o.Status(),
		Failures: o.Failures(),
		Warnings: o.Warnings(),
		Summary:  o.Summary(),
		Report:   o.Report,
	}
}

// ErrorEvent records a check that could not run.
func ErrorEvent(checkID string, err error) Event {
	return Event{Type: EventCheckError, CheckID: checkID, Verdict: gate.StatusError, Error: err.Error()}
}
