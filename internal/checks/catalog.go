package checks

import (
	"fmt"
	"strings"

	"policygate/internal/audit"
	"policygate/internal/config"
	"policygate/internal/gate"
)

// IDs is the fixed catalogue order.
var IDs = []string{
	AnyBudgetID,
	FeatureFileSizeID,
	ComponentSizeID,
	BundleBudgetID,
	BackendCoverageID,
	SecretScanID,
	EnvURLsID,
	DependencyAuditID,
}

// EnvTiers returns the tiers selected by --env or --all.
func EnvTiers(cfg *config.Config) []string {
	if cfg.Checks.AllEnvs {
		return append([]string(nil), config.Tiers...)
	}
	if cfg.Checks.EnvTier != "" {
		return []string{cfg.Checks.EnvTier}
	}
	return nil
}

// AuditSource builds the configured vulnerability data source.
func AuditSource(cfg *config.Config) audit.Source {
	if cfg.Checks.AuditSource == "github" {
		return audit.GitHubSource{Repo: cfg.Checks.Repo}
	}
	return audit.NpmSource{Command: cfg.Checks.AuditCommand, Dir: cfg.Paths.Root}
}

// Build constructs one check from a validated config.
func Build(cfg *config.Config, env Env, id string) (gate.Check, error) {
	policy := cfg.Resolve(cfg.Paths.Policy)
	switch id {
	case AnyBudgetID:
		return NewAnyBudget(env, DefaultAnyBudgetOptions(policy)), nil
	case FeatureFileSizeID:
		return NewFeatureFileSize(env, DefaultFeatureFileSizeOptions(policy)), nil
	case ComponentSizeID:
		return NewComponentSize(env, DefaultComponentSizeOptions(policy)), nil
	case BundleBudgetID:
		opts := DefaultBundleBudgetOptions(policy, cfg.Resolve(cfg.Paths.BuildDir), cfg.Resolve(cfg.Paths.BundleReport))
		opts.ReportOnly = cfg.Checks.ReportOnly
		return NewBundleBudget(env, opts), nil
	case BackendCoverageID:
		return NewBackendCoverage(env, BackendCoverageOptions{
			PolicyPath:  policy,
			SummaryPath: cfg.Resolve(cfg.Paths.CoverageSummary),
		}), nil
	case SecretScanID:
		return NewSecretScan(env, DefaultSecretScanOptions(cfg.Paths.Root, cfg.Resolve(cfg.Paths.SecretAllowlist))), nil
	case EnvURLsID:
		opts := DefaultEnvURLsOptions(
			cfg.Resolve(cfg.Paths.EnvMatrix),
			cfg.Resolve(cfg.Paths.ClientEnvExample),
			cfg.Resolve(cfg.Paths.ServerEnvExample),
		)
		opts.Tiers = EnvTiers(cfg)
		opts.StrictPlaceholders = cfg.Checks.StrictPlaceholders
		opts.CheckExamples = cfg.Checks.CheckEnvExamples
		return NewEnvURLs(env, opts), nil
	case DependencyAuditID:
		return NewDependencyAudit(env, DependencyAuditOptions{
			Source:     AuditSource(cfg),
			ReportPath: cfg.Resolve(cfg.Paths.AuditReport),
		}), nil
	default:
		return nil, fmt.Errorf("unknown check %q (known: %s)", id, strings.Join(IDs, ", "))
	}
}

// Select builds the checks named by ids in catalogue order. An empty
// selector selects the whole catalogue. Unknown IDs are an error.
func Select(cfg *config.Config, env Env, ids []string) ([]gate.Check, error) {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		id = strings.ToLower(strings.TrimSpace(id))
		known := false
		for _, k := range IDs {
			if k == id {
				known = true
				break
			}
		}
		if !known {
			return nil, fmt.Errorf("unknown check %q (known: %s)", id, strings.Join(IDs, ", "))
		}
		want[id] = true
	}

	var out []gate.Check
	for _, id := range IDs {
		if len(want) > 0 && !want[id] {
			continue
		}
		c, err := Build(cfg, env, id)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}
