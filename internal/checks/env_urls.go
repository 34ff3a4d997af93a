package checks

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"policygate/internal/config"
	"policygate/internal/envpolicy"
	"policygate/internal/gate"
)

const EnvURLsID = "env-urls"

type EnvURLsOptions struct {
	MatrixPath string
	// Tiers to validate, in order. Empty is a configuration error.
	Tiers              []string
	StrictPlaceholders bool
	// CheckExamples cross-checks required variable names against the
	// example env files.
	CheckExamples   bool
	ClientExample   string
	ServerExample   string
	CallbackPath    string
	WebhookSuffix   string
	ActionSuffix    string
	DevelopmentTier string
}

func DefaultEnvURLsOptions(matrixPath, clientExample, serverExample string) EnvURLsOptions {
	return EnvURLsOptions{
		MatrixPath:      matrixPath,
		ClientExample:   clientExample,
		ServerExample:   serverExample,
		CallbackPath:    envpolicy.DefaultCallbackPath,
		WebhookSuffix:   envpolicy.DefaultWebhookSuffix,
		ActionSuffix:    envpolicy.DefaultActionSuffix,
		DevelopmentTier: config.Tiers[0],
	}
}

// EnvURLs validates the URL topology of the selected deployment tiers.
type EnvURLs struct {
	meta
	env  Env
	opts EnvURLsOptions
}

func NewEnvURLs(env Env, opts EnvURLsOptions) *EnvURLs {
	return &EnvURLs{
		meta: meta{
			id:          EnvURLsID,
			title:       "Environment URL policy",
			description: "Validates that each tier's redirect, webhook and action URLs agree with its app origin and site URL, and that non-dev tiers use https.",
		},
		env:  env.withDefaults(),
		opts: opts,
	}
}

func (c *EnvURLs) validator() envpolicy.Validator {
	v := envpolicy.NewValidator()
	if c.opts.CallbackPath != "" {
		v.CallbackPath = c.opts.CallbackPath
	}
	if c.opts.WebhookSuffix != "" {
		v.WebhookSuffix = c.opts.WebhookSuffix
	}
	if c.opts.ActionSuffix != "" {
		v.ActionSuffix = c.opts.ActionSuffix
	}
	if c.opts.DevelopmentTier != "" {
		v.DevTier = c.opts.DevelopmentTier
	}
	v.StrictPlaceholders = c.opts.StrictPlaceholders
	return v
}

func (c *EnvURLs) Run(ctx context.Context) (*gate.Outcome, error) {
	if len(c.opts.Tiers) == 0 {
		return nil, config.InvalidValue("", "env", "select a tier with --env=<tier> or validate every tier with --all")
	}
	for _, t := range c.opts.Tiers {
		if !config.IsTier(t) {
			return nil, config.InvalidValue("", "env",
				fmt.Sprintf("unknown tier %q (must be one of: %s)", t, strings.Join(config.Tiers, ", ")))
		}
	}

	matrix, err := envpolicy.LoadMatrix(c.opts.MatrixPath)
	if err != nil {
		return nil, err
	}
	profiles := make([]envpolicy.Profile, len(c.opts.Tiers))
	for i, t := range c.opts.Tiers {
		p, err := matrix.Profile(t)
		if err != nil {
			return nil, err
		}
		profiles[i] = p
	}

	out := gate.NewOutcome(c.id)
	v := c.validator()
	for i, t := range c.opts.Tiers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, f := range v.Validate(t, profiles[i]) {
			subject := t + "." + f.Field
			out.Add(gate.NewResult(c.id, f.Status, subject, fmt.Sprintf("[%s] %s", t, f.Message)))
		}
	}

	if c.opts.CheckExamples {
		client, server := matrix.RequiredNames()
		if err := c.checkExample(out, c.opts.ClientExample, client); err != nil {
			return nil, err
		}
		if err := c.checkExample(out, c.opts.ServerExample, server); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (c *EnvURLs) checkExample(out *gate.Outcome, path string, required []string) error {
	declared, err := envpolicy.LoadEnvNames(path)
	if err != nil {
		return err
	}
	name := filepath.Base(path)
	missing := envpolicy.MissingNames(required, declared)
	for _, n := range missing {
		out.Fail(name, "[examples] %s is required but missing from %s", n, name)
	}
	if len(missing) == 0 {
		out.Pass(name, "[examples] %s declares all %d required variables", name, len(required))
	}
	return nil
}
