package gate

import "fmt"

// Outcome collects every result of one check run before a single verdict is
// produced.
type Outcome struct {
	CheckID string
	Results []Result
	// Report is the path of the report file the run wrote, if any.
	Report string
	// Advisory outcomes never fail the run (report-only mode).
	Advisory bool
}

func NewOutcome(checkID string) *Outcome {
	return &Outcome{CheckID: checkID}
}

func (o *Outcome) Add(r Result) {
	if r.CheckID == "" {
		r.CheckID = o.CheckID
	}
	o.Results = append(o.Results, r)
}

func (o *Outcome) Pass(subject, format string, args ...any) {
	o.Add(PassResult(o.CheckID, subject, fmt.Sprintf(format, args...)))
}

func (o *Outcome) Fail(subject, format string, args ...any) {
	o.Add(FailResult(o.CheckID, subject, fmt.Sprintf(format, args...)))
}

func (o *Outcome) Warn(subject, format string, args ...any) {
	o.Add(WarnResult(o.CheckID, subject, fmt.Sprintf(format, args...)))
}

func (o *Outcome) count(status Status) int {
	n := 0
	for _, r := range o.Results {
		if r.Status == status {
			n++
		}
	}
	return n
}

func (o *Outcome) Failures() int {
	return o.count(StatusFail)
}

func (o *Outcome) Warnings() int {
	return o.count(StatusWarn)
}

// Passed is the check verdict: no failing result, or an advisory run.
func (o *Outcome) Passed() bool {
	return o.Advisory || o.Failures() == 0
}

// Status is the summary status of the run.
func (o *Outcome) Status() Status {
	switch {
	case !o.Passed():
		return StatusFail
	case o.Failures() > 0 || o.Warnings() > 0:
		return StatusWarn
	default:
		return StatusPass
	}
}

// Summary is the closing console line text for the check.
func (o *Outcome) Summary() string {
	s := fmt.Sprintf("%s: %d failure(s), %d warning(s)", o.CheckID, o.Failures(), o.Warnings())
	if o.Advisory && o.Failures() > 0 {
		s += " (report-only)"
	}
	return s
}
