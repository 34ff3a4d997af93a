package checks

import (
	"context"
	"fmt"

	"policygate/internal/config"
	"policygate/internal/gate"
)

const BackendCoverageID = "backend-coverage"

type BackendCoverageOptions struct {
	PolicyPath  string
	SummaryPath string
}

// BackendCoverage compares the coverage summary with the active phase.
type BackendCoverage struct {
	meta
	env  Env
	opts BackendCoverageOptions
}

func NewBackendCoverage(env Env, opts BackendCoverageOptions) *BackendCoverage {
	return &BackendCoverage{
		meta: meta{
			id:          BackendCoverageID,
			title:       "Backend coverage gate",
			description: "Reads the backend coverage json-summary and fails when line or function coverage is below the active phase thresholds.",
		},
		env:  env.withDefaults(),
		opts: opts,
	}
}

type coverageThresholds struct {
	phase     string
	lines     float64
	functions float64
}

func (c *BackendCoverage) thresholds() (coverageThresholds, error) {
	policy, err := c.env.loadPolicy(c.opts.PolicyPath)
	if err != nil {
		return coverageThresholds{}, err
	}
	sec, err := policy.Section("backendCoverage")
	if err != nil {
		return coverageThresholds{}, err
	}
	active, err := sec.String("activePhase")
	if err != nil {
		return coverageThresholds{}, err
	}
	phases, err := sec.Section("phases")
	if err != nil {
		return coverageThresholds{}, err
	}
	phase, err := phases.Section(active)
	if err != nil {
		return coverageThresholds{}, err
	}
	lines, err := phase.Number("linesPct")
	if err != nil {
		return coverageThresholds{}, err
	}
	functions, err := phase.Number("functionsPct")
	if err != nil {
		return coverageThresholds{}, err
	}
	return coverageThresholds{phase: active, lines: lines, functions: functions}, nil
}

// summaryPct extracts total.<metric>.pct from an Istanbul json-summary.
func summaryPct(path string, doc map[string]any, metric string) (float64, error) {
	key := "total." + metric + ".pct"
	total, ok := doc["total"].(map[string]any)
	if !ok {
		return 0, config.MissingField(path, "total")
	}
	m, ok := total[metric].(map[string]any)
	if !ok {
		return 0, config.MissingField(path, "total."+metric)
	}
	raw, ok := m["pct"]
	if !ok {
		return 0, config.MissingField(path, key)
	}
	pct, ok := config.CoerceFinite(raw)
	if !ok {
		return 0, config.InvalidValue(path, key, fmt.Sprintf("expected a finite percentage, got %v", raw))
	}
	return pct, nil
}

func (c *BackendCoverage) Run(ctx context.Context) (*gate.Outcome, error) {
	th, err := c.thresholds()
	if err != nil {
		return nil, err
	}

	doc, err := config.ReadObject(c.opts.SummaryPath)
	if err != nil {
		if config.KindOf(err) == config.KindMissingFile {
			return nil, config.MissingArtifact(c.opts.SummaryPath, "coverage summary not found; run backend tests with coverage first")
		}
		return nil, err
	}
	lines, err := summaryPct(c.opts.SummaryPath, doc, "lines")
	if err != nil {
		return nil, err
	}
	functions, err := summaryPct(c.opts.SummaryPath, doc, "functions")
	if err != nil {
		return nil, err
	}

	out := gate.NewOutcome(c.id)
	metrics := []struct {
		label     string
		measured  float64
		threshold float64
	}{
		{label: "Lines", measured: lines, threshold: th.lines},
		{label: "Functions", measured: functions, threshold: th.functions},
	}
	for _, m := range metrics {
		msg := fmt.Sprintf("%s: %s%% (threshold %s%%)", m.label, config.FormatNumber(m.measured), config.FormatNumber(m.threshold))
		md := map[string]any{"phase": th.phase, "pct": m.measured, "threshold": m.threshold}
		if m.measured < m.threshold {
			out.Add(gate.FailResult(c.id, m.label, msg).WithMetadata(md))
		} else {
			out.Add(gate.PassResult(c.id, m.label, msg).WithMetadata(md))
		}
	}
	return out, nil
}
