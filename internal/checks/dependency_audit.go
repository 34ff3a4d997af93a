package checks

import (
	"context"
	"fmt"

	"policygate/internal/audit"
	"policygate/internal/gate"
)

const DependencyAuditID = "dependency-audit"

type DependencyAuditOptions struct {
	Source     audit.Source
	ReportPath string
}

// DependencyAudit fails on high or critical vulnerabilities and records
// moderate and low findings as accepted with a compensating-control note.
type DependencyAudit struct {
	meta
	env  Env
	opts DependencyAuditOptions
}

func NewDependencyAudit(env Env, opts DependencyAuditOptions) *DependencyAudit {
	return &DependencyAudit{
		meta: meta{
			id:          DependencyAuditID,
			title:       "Dependency audit",
			description: "Runs the vulnerability scanner, fails on high or critical findings and reports moderate and low findings as accepted.",
		},
		env:  env.withDefaults(),
		opts: opts,
	}
}

type auditReport struct {
	GeneratedAt string                  `json:"generatedAt"`
	Source      string                  `json:"source"`
	Policy      auditPolicy             `json:"policy"`
	Totals      audit.Totals            `json:"totals"`
	Blocking    []audit.Finding         `json:"blocking"`
	Accepted    []audit.AcceptedFinding `json:"accepted"`
	Passed      bool                    `json:"passed"`
	Failures    []string                `json:"failures"`
}

type auditPolicy struct {
	FailOn              []audit.Severity `json:"failOn"`
	CompensatingControl string           `json:"compensatingControl"`
}

func findingLabel(f audit.Finding) string {
	s := fmt.Sprintf("%s %s", f.Severity, f.Package)
	if f.Range != "" {
		s += " " + f.Range
	}
	if f.Title != "" {
		s += ": " + f.Title
	}
	return s
}

func (c *DependencyAudit) Run(ctx context.Context) (*gate.Outcome, error) {
	res, err := c.opts.Source.Collect(ctx)
	if err != nil {
		return nil, err
	}
	denials, err := audit.Deny(ctx, res.Totals)
	if err != nil {
		return nil, err
	}
	if denials == nil {
		denials = []string{}
	}
	blocking, accepted := audit.Classify(res.Findings)

	out := gate.NewOutcome(c.id)
	if len(denials) > 0 {
		for _, f := range blocking {
			md := map[string]any{"severity": string(f.Severity), "url": f.URL}
			out.Add(gate.FailResult(c.id, f.Package, findingLabel(f)).WithMetadata(md))
		}
		if len(blocking) == 0 {
			for _, d := range denials {
				out.Fail("totals", "%s", d)
			}
		}
	}
	for _, a := range accepted {
		out.Warn(a.Package, "%s (accepted)", findingLabel(a.Finding))
	}
	t := res.Totals
	msg := fmt.Sprintf("%s audit: critical %d, high %d, moderate %d, low %d", res.Source, t.Critical, t.High, t.Moderate, t.Low)
	if len(denials) == 0 {
		out.Pass("totals", "%s", msg)
	}

	report := auditReport{
		GeneratedAt: c.env.generatedAt(),
		Source:      res.Source,
		Policy:      auditPolicy{FailOn: audit.FailOn, CompensatingControl: audit.CompensatingControl},
		Totals:      res.Totals,
		Blocking:    blocking,
		Accepted:    accepted,
		Passed:      len(denials) == 0,
		Failures:    denials,
	}
	if err := c.env.Reports.WriteReport(c.opts.ReportPath, report); err != nil {
		return nil, err
	}
	out.Report = c.opts.ReportPath
	return out, nil
}
