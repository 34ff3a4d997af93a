package audit

import (
	"context"
	"strings"

	"policygate/internal/config"
	gh "policygate/internal/github"
	"policygate/internal/log"
)

// GitHubSource reads open Dependabot alerts of Owner/Repo.
type GitHubSource struct {
	Repo  string
	Token string
	// BaseURL overrides the API endpoint (GitHub Enterprise, tests).
	BaseURL string
}

func (s GitHubSource) Name() string {
	return "github"
}

func (s GitHubSource) Collect(ctx context.Context) (*Result, error) {
	owner, name, ok := strings.Cut(s.Repo, "/")
	if !ok || owner == "" || name == "" {
		return nil, config.ToolFailure("github", "repository must be OWNER/REPO, got "+s.Repo, nil)
	}

	token, source, err := gh.ResolveAuthToken(ctx, s.Token)
	if err != nil {
		return nil, config.ToolFailure("github", "cannot resolve token", err)
	}
	log.Debug("resolved github token", "source", string(source), "authenticated", token != "")

	var opts []gh.Option
	if s.BaseURL != "" {
		opts = append(opts, gh.WithBaseURL(s.BaseURL))
	}
	client, err := gh.NewClient(ctx, token, opts...)
	if err != nil {
		return nil, config.ToolFailure("github", "cannot create client", err)
	}

	alerts, err := client.OpenDependabotAlerts(ctx, owner, name)
	if err != nil {
		return nil, config.ToolFailure("github", "cannot list dependabot alerts", err)
	}

	findings := make([]Finding, 0, len(alerts))
	for _, a := range alerts {
		vuln := a.GetSecurityVulnerability()
		adv := a.GetSecurityAdvisory()
		severity := adv.GetSeverity()
		if severity == "" {
			severity = vuln.GetSeverity()
		}
		findings = append(findings, Finding{
			Package:  vuln.GetPackage().GetName(),
			Severity: ParseSeverity(severity),
			Title:    adv.GetSummary(),
			URL:      a.GetHTMLURL(),
			Range:    vuln.GetVulnerableVersionRange(),
		})
	}
	sortFindings(findings)

	return &Result{Source: "github", Totals: totalsOf(findings), Findings: findings}, nil
}
