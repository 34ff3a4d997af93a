package gate

import "context"

// Check is one standalone policy evaluator.
//
// Run returns an error only when the check could not run meaningfully
// (missing input, malformed document, missing artifact, failing tool); such
// errors are *config.Error values. Policy violations are FAIL results.
type Check interface {
	ID() string
	Title() string
	Description() string

	Run(ctx context.Context) (*Outcome, error)
}
