package envpolicy

import (
	"fmt"
	"net/url"
	"strings"

	"policygate/internal/gate"
)

const (
	DefaultCallbackPath  = "/callback"
	DefaultWebhookSuffix = "/workos/webhook"
	DefaultActionSuffix  = "/workos/action"
)

// Validator checks the internal consistency of environment profiles.
type Validator struct {
	CallbackPath  string
	WebhookSuffix string
	ActionSuffix  string
	// DevTier is the only tier allowed plain-http URLs.
	DevTier string
	// StrictPlaceholders rejects values that look like unresolved templates.
	StrictPlaceholders bool
}

func NewValidator() Validator {
	return Validator{
		CallbackPath:  DefaultCallbackPath,
		WebhookSuffix: DefaultWebhookSuffix,
		ActionSuffix:  DefaultActionSuffix,
		DevTier:       "dev",
	}
}

// Finding is one evaluated property of a tier.
type Finding struct {
	Tier    string
	Field   string
	Status  gate.Status
	Message string
}

type urlField struct {
	name  string
	value string
}

func urlFields(p Profile) []urlField {
	return []urlField{
		{name: "appOrigin", value: p.AppOrigin},
		{name: "redirectUri", value: p.RedirectURI},
		{name: "siteUrl", value: p.SiteURL},
		{name: "webhookUrl", value: p.WebhookURL},
		{name: "actionUrl", value: p.ActionURL},
	}
}

// Validate evaluates every rule for one tier. All violations are collected,
// except that a missing or unparseable URL ends the tier's evaluation after
// the presence and parse findings.
func (v Validator) Validate(tier string, p Profile) []Finding {
	var out []Finding
	pass := func(field, format string, args ...any) {
		out = append(out, Finding{Tier: tier, Field: field, Status: gate.StatusPass, Message: fmt.Sprintf(format, args...)})
	}
	fail := func(field, format string, args ...any) {
		out = append(out, Finding{Tier: tier, Field: field, Status: gate.StatusFail, Message: fmt.Sprintf(format, args...)})
	}

	fields := urlFields(p)
	terminal := false
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			fail(f.name, "%s is missing or empty", f.name)
			terminal = true
		}
	}
	if len(p.ClientRequiredEnv) == 0 {
		fail("clientRequiredEnv", "clientRequiredEnv is missing or empty")
	}
	if len(p.ServerRequiredEnv) == 0 {
		fail("serverRequiredEnv", "serverRequiredEnv is missing or empty")
	}
	if terminal {
		return out
	}

	parsed := make(map[string]*url.URL, len(fields))
	for _, f := range fields {
		u, err := ParseAbsolute(f.value)
		if err != nil {
			fail(f.name, "%s is not an absolute URL: %v", f.name, err)
			terminal = true
			continue
		}
		parsed[f.name] = u
	}
	if terminal {
		return out
	}

	redirect := parsed["redirectUri"]
	if got := NormalizedPath(redirect); got != v.CallbackPath {
		fail("redirectUri", "redirectUri path must be %s, got %s", v.CallbackPath, got)
	} else {
		pass("redirectUri", "redirectUri path is %s", v.CallbackPath)
	}

	appOrigin := Origin(parsed["appOrigin"])
	if got := Origin(redirect); got != appOrigin {
		fail("redirectUri", "redirectUri origin mismatch: expected %s, got %s", appOrigin, got)
	} else {
		pass("redirectUri", "redirectUri origin matches appOrigin (%s)", appOrigin)
	}

	v.checkDerived("webhookUrl", p.SiteURL, v.WebhookSuffix, parsed["webhookUrl"], pass, fail)
	v.checkDerived("actionUrl", p.SiteURL, v.ActionSuffix, parsed["actionUrl"], pass, fail)

	if tier != v.DevTier {
		insecure := false
		for _, f := range fields {
			if scheme := strings.ToLower(parsed[f.name].Scheme); scheme != "https" {
				fail(f.name, "%s must use https outside %s, got %s", f.name, v.DevTier, scheme)
				insecure = true
			}
		}
		if !insecure {
			pass("scheme", "all URLs use https")
		}
	}

	if v.StrictPlaceholders {
		clean := true
		for _, f := range fields {
			if LooksPlaceholder(f.value) {
				fail(f.name, "%s looks like an unresolved placeholder: %s", f.name, f.value)
				clean = false
			}
		}
		if clean {
			pass("placeholders", "no placeholder values")
		}
	}

	return out
}

func (v Validator) checkDerived(field, site, suffix string, actual *url.URL, pass, fail func(string, string, ...any)) {
	expectedRaw := Derive(site, suffix)
	expectedURL, err := ParseAbsolute(expectedRaw)
	if err != nil {
		fail(field, "cannot derive %s from siteUrl: %v", field, err)
		return
	}
	expected := Normalize(expectedURL)
	got := Normalize(actual)
	if got != expected {
		fail(field, "%s mismatch: expected %s, got %s", field, expected, got)
		return
	}
	pass(field, "%s matches siteUrl + %s", field, suffix)
}
