package checks

import (
	"context"
	"fmt"
	"io/fs"
	"regexp"
	"sort"

	"policygate/internal/config"
	"policygate/internal/gate"
	"policygate/internal/log"
	"policygate/internal/scan"
	"policygate/internal/scope"
)

const AnyBudgetID = "any-budget"

type AnyBudgetOptions struct {
	PolicyPath string
	Scope      scope.Resolver
	// Token is the disallowed marker, word-boundary matched.
	Token *regexp.Regexp
}

func DefaultAnyBudgetOptions(policyPath string) AnyBudgetOptions {
	return AnyBudgetOptions{
		PolicyPath: policyPath,
		Scope:      scope.Sources([]string{"src", "convex"}, ".ts", ".tsx"),
		Token:      regexp.MustCompile(`\bany\b`),
	}
}

// AnyBudget caps `any` usages in total and, optionally, per file.
type AnyBudget struct {
	meta
	env  Env
	opts AnyBudgetOptions
}

func NewAnyBudget(env Env, opts AnyBudgetOptions) *AnyBudget {
	return &AnyBudget{
		meta: meta{
			id:          AnyBudgetID,
			title:       "Any-usage budget",
			description: "Counts `any` type markers in src/ and convex/ and fails when the total budget or a per-file budget is exceeded.",
		},
		env:  env.withDefaults(),
		opts: opts,
	}
}

func (c *AnyBudget) Run(ctx context.Context) (*gate.Outcome, error) {
	policy, err := c.env.loadPolicy(c.opts.PolicyPath)
	if err != nil {
		return nil, err
	}
	sec, err := policy.Section("anyBudget")
	if err != nil {
		return nil, err
	}
	maxTotal, err := sec.NonNegative("maxTotal")
	if err != nil {
		return nil, err
	}
	perFile, err := sec.NumberMap("perFile")
	if err != nil {
		return nil, err
	}

	files, err := c.opts.Scope.Resolve(c.env.FS)
	if err != nil {
		return nil, fmt.Errorf("resolve scope: %w", err)
	}
	log.Debug("any-budget scope resolved", "files", len(files))

	counts := make(map[string]int, len(files))
	total := 0
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		content, err := fs.ReadFile(c.env.FS, f)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f, err)
		}
		n := scan.Count(content, c.opts.Token)
		counts[f] = n
		total += n
	}

	out := gate.NewOutcome(c.id)

	budgeted := make([]string, 0, len(perFile))
	for path := range perFile {
		budgeted = append(budgeted, path)
	}
	sort.Strings(budgeted)
	for _, path := range budgeted {
		budget := perFile[path]
		n := counts[path]
		md := map[string]any{"count": n, "budget": budget}
		msg := fmt.Sprintf("%s: %d any (budget %s)", path, n, config.FormatNumber(budget))
		if gate.WithinBudget(float64(n), budget) {
			out.Add(gate.PassResult(c.id, path, msg).WithMetadata(md))
		} else {
			out.Add(gate.FailResult(c.id, path, msg).WithMetadata(md))
		}
	}

	md := map[string]any{"count": total, "budget": maxTotal, "files": len(files)}
	msg := fmt.Sprintf("Total any usages: %d (budget %s)", total, config.FormatNumber(maxTotal))
	if gate.WithinBudget(float64(total), maxTotal) {
		out.Add(gate.PassResult(c.id, "total", msg).WithMetadata(md))
	} else {
		out.Add(gate.FailResult(c.id, "total", msg).WithMetadata(md))
	}
	return out, nil
}
