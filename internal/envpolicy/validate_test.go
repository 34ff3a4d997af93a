package envpolicy

import (
	"strings"
	"testing"

	"policygate/internal/gate"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func prodProfile() Profile {
	return Profile{
		AppOrigin:         "https://app.acme.dev",
		RedirectURI:       "https://app.acme.dev/callback",
		SiteURL:           "https://x.convex.site",
		WebhookURL:        "https://x.convex.site/workos/webhook",
		ActionURL:         "https://x.convex.site/workos/action",
		ClientRequiredEnv: []string{"VITE_CONVEX_URL"},
		ServerRequiredEnv: []string{"WORKOS_API_KEY"},
	}
}

func failures(findings []Finding) []Finding {
	var out []Finding
	for _, f := range findings {
		if f.Status == gate.StatusFail {
			out = append(out, f)
		}
	}
	return out
}

func TestValidate_ConsistentProfilePasses(t *testing.T) {
	findings := NewValidator().Validate("prod", prodProfile())
	assert.Empty(t, failures(findings))
	assert.NotEmpty(t, findings)
}

func TestValidate_NormalizedEqualityPasses(t *testing.T) {
	tests := map[string]func(p *Profile){
		"site_trailing_slash": func(p *Profile) { p.SiteURL = "https://x.convex.site/" },
		"webhook_trailing_slash": func(p *Profile) {
			p.WebhookURL = "https://x.convex.site/workos/webhook/"
		},
		"host_case": func(p *Profile) {
			p.WebhookURL = "https://X.Convex.Site/workos/webhook"
			p.SiteURL = "HTTPS://x.convex.site"
		},
		"default_port": func(p *Profile) {
			p.ActionURL = "https://x.convex.site:443/workos/action"
			p.RedirectURI = "https://app.acme.dev:443/callback"
		},
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			p := prodProfile()
			mutate(&p)
			assert.Empty(t, failures(NewValidator().Validate("prod", p)))
		})
	}
}

func TestValidate_WebhookDifferentHostFails(t *testing.T) {
	p := prodProfile()
	p.WebhookURL = "https://y.convex.site/workos/webhook"

	fails := failures(NewValidator().Validate("prod", p))
	require.Len(t, fails, 1)
	assert.Equal(t, "webhookUrl", fails[0].Field)
	assert.Equal(t,
		"webhookUrl mismatch: expected https://x.convex.site/workos/webhook, got https://y.convex.site/workos/webhook",
		fails[0].Message)
}

func TestValidate_CollectsEveryViolation(t *testing.T) {
	p := prodProfile()
	p.RedirectURI = "https://evil.acme.dev/login"
	p.ActionURL = "http://x.convex.site/workos/action"

	fails := failures(NewValidator().Validate("prod", p))
	var msgs []string
	for _, f := range fails {
		msgs = append(msgs, f.Message)
	}
	joined := strings.Join(msgs, "\n")
	assert.Contains(t, joined, "redirectUri path must be /callback, got /login")
	assert.Contains(t, joined, "redirectUri origin mismatch")
	assert.Contains(t, joined, "actionUrl mismatch")
	assert.Contains(t, joined, "actionUrl must use https outside dev, got http")
}

func TestValidate_DevAllowsHTTP(t *testing.T) {
	p := Profile{
		AppOrigin:         "http://localhost:5173",
		RedirectURI:       "http://localhost:5173/callback",
		SiteURL:           "http://127.0.0.1:3211",
		WebhookURL:        "http://127.0.0.1:3211/workos/webhook",
		ActionURL:         "http://127.0.0.1:3211/workos/action",
		ClientRequiredEnv: []string{"VITE_CONVEX_URL"},
		ServerRequiredEnv: []string{"WORKOS_API_KEY"},
	}
	assert.Empty(t, failures(NewValidator().Validate("dev", p)))
	assert.NotEmpty(t, failures(NewValidator().Validate("staging", p)))
}

func TestValidate_MissingFieldsAreTerminal(t *testing.T) {
	p := prodProfile()
	p.SiteURL = ""
	p.ClientRequiredEnv = nil

	fails := failures(NewValidator().Validate("staging", p))
	require.Len(t, fails, 2)
	assert.Equal(t, "siteUrl", fails[0].Field)
	assert.Equal(t, "clientRequiredEnv", fails[1].Field)
}

func TestValidate_UnparseableURLIsTerminal(t *testing.T) {
	p := prodProfile()
	p.AppOrigin = "app.acme.dev"

	fails := failures(NewValidator().Validate("prod", p))
	require.Len(t, fails, 1)
	assert.Equal(t, "appOrigin", fails[0].Field)
	assert.Contains(t, fails[0].Message, "not an absolute URL")
}

func TestValidate_StrictPlaceholders(t *testing.T) {
	p := prodProfile()
	p.AppOrigin = "https://app.example.com"
	p.RedirectURI = "https://app.example.com/callback"

	v := NewValidator()
	assert.Empty(t, failures(v.Validate("prod", p)))

	v.StrictPlaceholders = true
	fails := failures(v.Validate("prod", p))
	require.Len(t, fails, 2)
	assert.Contains(t, fails[0].Message, "placeholder")
}

func TestLooksPlaceholder(t *testing.T) {
	tests := map[string]bool{
		"https://<your-deployment>.convex.site": true,
		"https://REPLACE_ME.convex.site":        true,
		"https://example.org/callback":          true,
		"https://api.example.net":               true,
		"https://x.convex.site":                 false,
		"https://examples.dev":                  false,
		"https://todo.convex.site":              true,
		"https://xxx.convex.site/callback":      true,
		"https://app.acme.dev/todo/callback":    true,
		"https://app.acme.dev/cb?state=xxx":     true,
		"TODO":                                  true,
		"https://todo-app.com":                  false,
		"https://xxx-cdn.io/assets":             false,
		"https://app.acme.dev/todos":            false,
	}
	for value, want := range tests {
		assert.Equal(t, want, LooksPlaceholder(value), value)
	}
}
