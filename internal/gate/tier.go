package gate

// Classify applies the two-tier size policy to a measured value:
//
//   - above hard: FAIL, or WARN when the subject is legacy-exempt
//   - above warn: WARN
//   - otherwise: PASS
//
// Checks without a warn zone pass warn == hard.
func Classify(measured, hard, warn float64, legacyExempt bool) Status {
	switch {
	case measured > hard:
		if legacyExempt {
			return StatusWarn
		}
		return StatusFail
	case measured > warn:
		return StatusWarn
	default:
		return StatusPass
	}
}

// WithinBudget reports whether measured does not exceed budget.
func WithinBudget(measured, budget float64) bool {
	return measured <= budget
}
