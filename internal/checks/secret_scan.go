package checks

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"policygate/internal/gate"
	"policygate/internal/git"
	"policygate/internal/log"
	"policygate/internal/scan"
)

const SecretScanID = "secret-scan"

type SecretScanOptions struct {
	AllowlistPath   string
	Tracked         git.Lister
	ExcludePrefixes []string
	Patterns        []scan.Pattern
}

func DefaultSecretScanOptions(root, allowlistPath string) SecretScanOptions {
	return SecretScanOptions{
		AllowlistPath:   allowlistPath,
		Tracked:         git.Repo{Dir: root},
		ExcludePrefixes: append([]string(nil), DefaultSecretExcludes...),
		Patterns:        SecretPatterns,
	}
}

// SecretScan matches every tracked file against the credential catalogue.
// There is no warning tier: any finding not covered by the allowlist fails.
type SecretScan struct {
	meta
	env  Env
	opts SecretScanOptions
}

func NewSecretScan(env Env, opts SecretScanOptions) *SecretScan {
	return &SecretScan{
		meta: meta{
			id:          SecretScanID,
			title:       "Secret scan",
			description: "Scans git-tracked files for credentials (private keys, API tokens, cloud keys) and fails on any finding not covered by the allowlist.",
		},
		env:  env.withDefaults(),
		opts: opts,
	}
}

func (c *SecretScan) excluded(p string) bool {
	for _, prefix := range c.opts.ExcludePrefixes {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	return false
}

func (c *SecretScan) Run(ctx context.Context) (*gate.Outcome, error) {
	allow, err := gate.LoadAllowlist(c.opts.AllowlistPath)
	if err != nil {
		return nil, err
	}
	tracked, err := c.opts.Tracked.TrackedFiles(ctx)
	if err != nil {
		return nil, err
	}

	out := gate.NewOutcome(c.id)
	scanned, suppressed := 0, 0
	for _, p := range tracked {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if c.excluded(p) {
			continue
		}
		content, err := fs.ReadFile(c.env.FS, p)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				log.Debug("tracked file missing from working tree", "path", p)
				continue
			}
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		if scan.IsBinary(content) {
			continue
		}
		scanned++

		for _, m := range scan.Find(content, c.opts.Patterns) {
			if allow.Suppresses(p, m.RuleID, m.Text) {
				suppressed++
				continue
			}
			redacted := Redact(m.Text)
			msg := fmt.Sprintf("%s:%d [%s] %s", p, m.Line, m.RuleID, redacted)
			out.Add(gate.FindingResult(c.id, p, m.Line, m.RuleID, msg).WithMetadata(map[string]any{"match": redacted}))
		}
	}

	for _, e := range allow.Unused() {
		out.Add(gate.WarnResult(c.id, e.Path,
			fmt.Sprintf("allowlist entry %s [%s] suppressed nothing; remove it", e.Path, e.RuleID)))
	}

	if out.Failures() == 0 {
		out.Add(gate.PassResult(c.id, "",
			fmt.Sprintf("%d tracked files scanned, no secrets found (%d allowlisted)", scanned, suppressed)))
	}
	log.Debug("secret scan finished", "tracked", len(tracked), "scanned", scanned, "suppressed", suppressed)
	return out, nil
}
