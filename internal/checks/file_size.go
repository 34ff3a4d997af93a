package checks

import (
	"context"
	"fmt"
	"io/fs"
	"sort"

	"policygate/internal/config"
	"policygate/internal/gate"
	"policygate/internal/log"
	"policygate/internal/scan"
	"policygate/internal/scope"
)

const (
	FeatureFileSizeID = "feature-file-size"
	ComponentSizeID   = "component-size"
)

type FileSizeOptions struct {
	PolicyPath string
	Scope      scope.Resolver
}

func DefaultFeatureFileSizeOptions(policyPath string) FileSizeOptions {
	return FileSizeOptions{
		PolicyPath: policyPath,
		Scope:      scope.Sources([]string{"src/features", "convex"}, ".ts", ".tsx"),
	}
}

func DefaultComponentSizeOptions(policyPath string) FileSizeOptions {
	rule := scope.Sources([]string{"src/components"}, ".ts", ".tsx")
	rule.PrunePrefixes = []string{"src/components/ui"}
	return FileSizeOptions{
		PolicyPath: policyPath,
		Scope:      rule,
	}
}

// sizeLimits are the thresholds one size check reads from its policy section.
type sizeLimits struct {
	hard   float64
	warn   float64
	legacy map[string]bool
}

// FileSize is the line-count gate shared by feature-file-size (hard limit
// plus legacy allowlist) and component-size (warn and hard limits).
type FileSize struct {
	meta
	env    Env
	opts   FileSizeOptions
	limits func(p *config.Policy) (sizeLimits, error)
}

func NewFeatureFileSize(env Env, opts FileSizeOptions) *FileSize {
	return &FileSize{
		meta: meta{
			id:          FeatureFileSizeID,
			title:       "Feature file size",
			description: "Fails feature and backend files above maxLines; files in legacyAllowlist only warn.",
		},
		env:    env.withDefaults(),
		opts:   opts,
		limits: featureLimits,
	}
}

func NewComponentSize(env Env, opts FileSizeOptions) *FileSize {
	return &FileSize{
		meta: meta{
			id:          ComponentSizeID,
			title:       "Component size",
			description: "Warns on UI components above warnLines and fails above maxLines, excluding UI primitives.",
		},
		env:    env.withDefaults(),
		opts:   opts,
		limits: componentLimits,
	}
}

func featureLimits(p *config.Policy) (sizeLimits, error) {
	sec, err := p.Section("featureFileSize")
	if err != nil {
		return sizeLimits{}, err
	}
	maxLines, err := sec.NonNegative("maxLines")
	if err != nil {
		return sizeLimits{}, err
	}
	legacy, err := sec.StringList("legacyAllowlist")
	if err != nil {
		return sizeLimits{}, err
	}
	set := make(map[string]bool, len(legacy))
	for _, l := range legacy {
		set[l] = true
	}
	return sizeLimits{hard: maxLines, warn: maxLines, legacy: set}, nil
}

func componentLimits(p *config.Policy) (sizeLimits, error) {
	sec, err := p.Section("componentSize")
	if err != nil {
		return sizeLimits{}, err
	}
	warnLines, err := sec.NonNegative("warnLines")
	if err != nil {
		return sizeLimits{}, err
	}
	maxLines, err := sec.NonNegative("maxLines")
	if err != nil {
		return sizeLimits{}, err
	}
	if warnLines >= maxLines {
		return sizeLimits{}, config.InvalidValue(sec.Path(), sec.Key("warnLines"),
			fmt.Sprintf("must be below maxLines (%s), got %s", config.FormatNumber(maxLines), config.FormatNumber(warnLines)))
	}
	return sizeLimits{hard: maxLines, warn: warnLines}, nil
}

func (c *FileSize) Run(ctx context.Context) (*gate.Outcome, error) {
	policy, err := c.env.loadPolicy(c.opts.PolicyPath)
	if err != nil {
		return nil, err
	}
	limits, err := c.limits(policy)
	if err != nil {
		return nil, err
	}

	files, err := c.opts.Scope.Resolve(c.env.FS)
	if err != nil {
		return nil, fmt.Errorf("resolve scope: %w", err)
	}
	log.Debug("size scope resolved", "check", c.id, "files", len(files))

	out := gate.NewOutcome(c.id)
	hard := config.FormatNumber(limits.hard)
	seen := make(map[string]bool, len(files))
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		content, err := fs.ReadFile(c.env.FS, f)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f, err)
		}
		seen[f] = true
		lines := scan.CountLines(content)
		legacy := limits.legacy[f]
		md := map[string]any{"lines": lines, "maxLines": limits.hard}

		switch gate.Classify(float64(lines), limits.hard, limits.warn, legacy) {
		case gate.StatusFail:
			out.Add(gate.FailResult(c.id, f, fmt.Sprintf("%s: %d lines (max %s)", f, lines, hard)).WithMetadata(md))
		case gate.StatusWarn:
			if legacy {
				out.Add(gate.WarnResult(c.id, f, fmt.Sprintf("%s: %d lines (max %s, legacy allowlisted)", f, lines, hard)).WithMetadata(md))
			} else {
				out.Add(gate.WarnResult(c.id, f, fmt.Sprintf("%s: %d lines (warn above %s, max %s)", f, lines, config.FormatNumber(limits.warn), hard)).WithMetadata(md))
			}
		default:
			if legacy {
				out.Add(gate.WarnResult(c.id, f, fmt.Sprintf("%s: %d lines is within %s; remove it from legacyAllowlist", f, lines, hard)).WithMetadata(md))
			}
		}
	}

	legacy := make([]string, 0, len(limits.legacy))
	for l := range limits.legacy {
		if !seen[l] {
			legacy = append(legacy, l)
		}
	}
	sort.Strings(legacy)
	for _, l := range legacy {
		out.Add(gate.WarnResult(c.id, l, fmt.Sprintf("%s: legacyAllowlist entry matches no file in scope; remove it", l)))
	}

	if out.Failures() == 0 {
		out.Add(gate.PassResult(c.id, "", fmt.Sprintf("%d files within %s lines", len(files), hard)))
	}
	return out, nil
}
