package audit

import (
	"context"
	_ "embed"
	"sort"

	"github.com/open-policy-agent/opa/rego"

	"policygate/internal/config"
)

//go:embed policy.rego
var policyModule string

// FailOn lists the severities the embedded policy blocks on.
var FailOn = []Severity{SeverityCritical, SeverityHigh}

// Deny evaluates the embedded severity policy and returns its sorted deny
// messages. An empty slice means the audit passes.
func Deny(ctx context.Context, totals Totals) ([]string, error) {
	return evalDeny(ctx, policyModule, totals)
}

func evalDeny(ctx context.Context, module string, totals Totals) ([]string, error) {
	query, err := rego.New(
		rego.Query("data.policygate.audit.deny"),
		rego.Module("policy.rego", module),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, config.ToolFailure("opa", "failed to prepare audit policy", err)
	}

	input := map[string]interface{}{
		"totals": map[string]interface{}{
			"critical": totals.Critical,
			"high":     totals.High,
			"moderate": totals.Moderate,
			"low":      totals.Low,
			"info":     totals.Info,
		},
	}
	results, err := query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return nil, config.ToolFailure("opa", "failed to evaluate audit policy", err)
	}

	var denials []string
	if len(results) > 0 && len(results[0].Expressions) > 0 {
		if denySet, ok := results[0].Expressions[0].Value.([]interface{}); ok {
			for _, v := range denySet {
				if msg, ok := v.(string); ok {
					denials = append(denials, msg)
				}
			}
		}
	}
	sort.Strings(denials)
	return denials, nil
}
