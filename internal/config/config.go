package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Tiers is the fixed, ordered set of deployment tiers. The first tier is the
// development tier, which is allowed plain-http URLs.
var Tiers = []string{"dev", "staging", "prod"}

type Config struct {
	// MAINTAINER NOTE: If you add/change/remove config fields that affect check
	// behavior, keep these in sync:
	// - CLI flags in internal/cli
	// - check construction in internal/checks/catalog.go
	Paths   Paths
	Checks  Checks
	Output  Output
	Runtime Runtime
}

type Paths struct {
	// Root is the repository root every other relative path is resolved
	// against (see --root).
	Root string

	// Policy is the PolicyConfig document (see --policy). JSON, or YAML by
	// extension.
	Policy string

	// EnvMatrix is the environment matrix document (see --env-matrix).
	EnvMatrix string

	// SecretAllowlist is the secret-scan allowlist (see --secret-allowlist).
	SecretAllowlist string

	// BuildDir is the bundler output directory holding hashed chunks
	// (see --build-dir).
	BuildDir string

	// CoverageSummary is the backend coverage json-summary (see --coverage-summary).
	CoverageSummary string

	// ClientEnvExample and ServerEnvExample document the variables each
	// runtime needs (see --client-env-example / --server-env-example).
	ClientEnvExample string
	ServerEnvExample string

	// BundleReport and AuditReport are the fixed report destinations.
	BundleReport string
	AuditReport  string
}

type Checks struct {
	// Selector restricts `all` and `watch` to these check IDs. Empty means the
	// whole catalogue. Values may be provided as repeated flags and/or
	// comma-separated lists.
	Selector []string

	// ReportOnly computes and writes the bundle report without failing.
	ReportOnly bool

	// EnvTier validates a single tier (see --env). Mutually exclusive with AllEnvs.
	EnvTier string

	// AllEnvs validates every tier (see --all).
	AllEnvs bool

	// StrictPlaceholders rejects placeholder-looking URL values (pre-release).
	StrictPlaceholders bool

	// CheckEnvExamples cross-checks required variable names against the
	// example env files.
	CheckEnvExamples bool

	// AuditSource selects where vulnerability data comes from.
	// Allowed values: npm, github.
	AuditSource string

	// AuditCommand is the scanner invocation for the npm source.
	AuditCommand string

	// Repo is OWNER/REPO for the github audit source.
	Repo string
}

type Output struct {
	// ConsoleFormat controls the human-facing console sink format (see --console-format).
	// Allowed values: text, json, ndjson.
	ConsoleFormat string

	// ConsoleFilterStatus filters console output by result status (see --console-filter-status).
	// Allowed values: PASS, FAIL, WARN, ERROR.
	ConsoleFilterStatus []string

	// Emit writes additional structured streams to stdout (see --emit).
	// Allowed values: json, ndjson.
	Emit []string

	// Out writes structured output to this path (see --out).
	Out string

	// OutFormat selects the format for --out (see --out-format).
	// Allowed values: json, ndjson. If empty, it is inferred from the --out file extension.
	OutFormat string

	// NoConsole suppresses the console sink (see --no-console).
	NoConsole bool

	// NoColor disables ANSI colours on the console.
	NoColor bool
}

type Runtime struct {
	// Parallel bounds how many checks `all` runs at once (see --parallel).
	// Must be >= 1.
	Parallel int

	// Debounce is the quiet period before `watch` re-runs checks.
	Debounce time.Duration

	// Verbose enables debug diagnostics on stderr.
	Verbose bool
}

func New() *Config {
	return &Config{
		Paths: Paths{
			Root:             ".",
			Policy:           "config/policy-gates.json",
			EnvMatrix:        "config/env-matrix.json",
			SecretAllowlist:  "config/security/secret-scan-allowlist.json",
			BuildDir:         "dist/assets",
			CoverageSummary:  "coverage/backend/coverage-summary.json",
			ClientEnvExample: ".env.example",
			ServerEnvExample: ".env.server.example",
			BundleReport:     "reports/bundle-budget.json",
			AuditReport:      "reports/dependency-audit.json",
		},
		Checks: Checks{
			AuditSource:  "npm",
			AuditCommand: "npm audit --json",
		},
		Output: Output{
			ConsoleFormat: "text",
		},
		Runtime: Runtime{
			Parallel: 4,
			Debounce: 300 * time.Millisecond,
		},
	}
}

// Resolve joins a configured path with the root unless it is already absolute.
func (c *Config) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Paths.Root, p)
}

func (c *Config) Validate() error {
	c.Checks.Selector = splitCommaList(c.Checks.Selector)
	c.Output.ConsoleFilterStatus = splitCommaList(c.Output.ConsoleFilterStatus)
	c.Output.Emit = splitCommaList(c.Output.Emit)

	if strings.TrimSpace(c.Paths.Root) == "" {
		return errors.New("--root must not be empty")
	}

	// Output validation
	c.Output.ConsoleFormat = normalizeEnumValue(c.Output.ConsoleFormat)
	if c.Output.ConsoleFormat == "" {
		return errors.New("--console-format must be one of: text, json, ndjson")
	}
	if c.Output.ConsoleFormat != "text" && c.Output.ConsoleFormat != "json" && c.Output.ConsoleFormat != "ndjson" {
		return fmt.Errorf("unsupported --console-format: %s (must be one of: text, json, ndjson)", c.Output.ConsoleFormat)
	}

	for i, emit := range c.Output.Emit {
		v := normalizeEnumValue(emit)
		if v != "json" && v != "ndjson" {
			return fmt.Errorf("unsupported --emit value: %s (must be one of: json, ndjson)", emit)
		}
		c.Output.Emit[i] = v
	}

	for i, st := range c.Output.ConsoleFilterStatus {
		v := strings.ToUpper(strings.TrimSpace(st))
		if v != "PASS" && v != "FAIL" && v != "WARN" && v != "ERROR" {
			return fmt.Errorf("unsupported --console-filter-status: %s (must be one of: PASS, FAIL, WARN, ERROR)", st)
		}
		c.Output.ConsoleFilterStatus[i] = v
	}

	if c.Output.Out != "" {
		c.Output.OutFormat = normalizeEnumValue(c.Output.OutFormat)
		if c.Output.OutFormat == "" {
			ext := strings.ToLower(filepath.Ext(c.Output.Out))
			switch ext {
			case ".json":
				c.Output.OutFormat = "json"
			case ".ndjson":
				c.Output.OutFormat = "ndjson"
			default:
				if ext == "" {
					return errors.New("cannot infer output format from file extension (missing extension); use --out-format")
				}
				return fmt.Errorf("cannot infer output format from file extension %q; use --out-format", ext)
			}
		} else {
			if c.Output.OutFormat != "json" && c.Output.OutFormat != "ndjson" {
				return fmt.Errorf("unsupported output format: %s", c.Output.OutFormat)
			}
		}
	}

	// Check option validation
	c.Checks.EnvTier = normalizeEnumValue(c.Checks.EnvTier)
	if c.Checks.EnvTier != "" && c.Checks.AllEnvs {
		return errors.New("--env and --all are mutually exclusive")
	}
	if c.Checks.EnvTier != "" && !IsTier(c.Checks.EnvTier) {
		return fmt.Errorf("unsupported --env: %s (must be one of: %s)", c.Checks.EnvTier, strings.Join(Tiers, ", "))
	}

	c.Checks.AuditSource = normalizeEnumValue(c.Checks.AuditSource)
	switch c.Checks.AuditSource {
	case "npm":
		if strings.TrimSpace(c.Checks.AuditCommand) == "" {
			return errors.New("--audit-command must not be empty")
		}
	case "github":
		owner, name, ok := strings.Cut(strings.TrimSpace(c.Checks.Repo), "/")
		if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
			return fmt.Errorf("--repo must be OWNER/REPO when --audit-source=github (got %q)", c.Checks.Repo)
		}
	default:
		return fmt.Errorf("unsupported --audit-source: %s (must be one of: npm, github)", c.Checks.AuditSource)
	}

	// Runtime validation
	if c.Runtime.Parallel <= 0 {
		return errors.New("--parallel must be >= 1")
	}
	if c.Runtime.Debounce <= 0 {
		return errors.New("--debounce must be > 0")
	}

	return nil
}

// IsTier reports whether name is one of the fixed deployment tiers.
func IsTier(name string) bool {
	for _, t := range Tiers {
		if t == name {
			return true
		}
	}
	return false
}

func normalizeEnumValue(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func splitCommaList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			p := strings.TrimSpace(part)
			if p == "" {
				continue
			}
			out = append(out, p)
		}
	}
	return out
}
