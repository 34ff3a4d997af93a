package gate

import "fmt"

func NewResult(checkID string, status Status, subject, message string) Result {
	return Result{
		CheckID: checkID,
		Status:  status,
		Subject: subject,
		Message: message,
	}
}

func PassResult(checkID, subject, message string) Result {
	return NewResult(checkID, StatusPass, subject, message)
}

func FailResult(checkID, subject, message string) Result {
	return NewResult(checkID, StatusFail, subject, message)
}

func WarnResult(checkID, subject, message string) Result {
	return NewResult(checkID, StatusWarn, subject, message)
}

func ErrorResult(checkID, message string) Result {
	return NewResult(checkID, StatusError, "", message)
}

// FindingResult is a FAIL located at a file line with the rule that fired.
func FindingResult(checkID, path string, line int, ruleID, message string) Result {
	res := NewResult(checkID, StatusFail, path, message)
	res.Line = line
	res.RuleID = ruleID
	return res
}

// WithMetadata returns a copy of r carrying metadata.
func (r Result) WithMetadata(metadata map[string]any) Result {
	r.Metadata = metadata
	return r
}

// Location renders the subject as path[:line].
func (r Result) Location() string {
	if r.Line > 0 {
		return fmt.Sprintf("%s:%d", r.Subject, r.Line)
	}
	return r.Subject
}
