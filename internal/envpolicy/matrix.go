package envpolicy

import (
	"sort"

	"policygate/internal/config"
)

// Profile is the URL and required-variable bundle of one deployment tier.
type Profile struct {
	AppOrigin         string   `json:"appOrigin"`
	RedirectURI       string   `json:"redirectUri"`
	SiteURL           string   `json:"siteUrl"`
	WebhookURL        string   `json:"webhookUrl"`
	ActionURL         string   `json:"actionUrl"`
	ClientRequiredEnv []string `json:"clientRequiredEnv"`
	ServerRequiredEnv []string `json:"serverRequiredEnv"`
}

// Matrix is the environment matrix document.
type Matrix struct {
	path         string
	Environments map[string]Profile `json:"environments"`
}

const matrixSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["environments"],
  "properties": {
    "environments": {
      "type": "object",
      "additionalProperties": {
        "type": "object",
        "properties": {
          "appOrigin": {"type": "string"},
          "redirectUri": {"type": "string"},
          "siteUrl": {"type": "string"},
          "webhookUrl": {"type": "string"},
          "actionUrl": {"type": "string"},
          "clientRequiredEnv": {"type": "array", "items": {"type": "string"}},
          "serverRequiredEnv": {"type": "array", "items": {"type": "string"}}
        }
      }
    }
  }
}`

var compiledMatrixSchema = config.MustCompileSchema("env-matrix", matrixSchema)

// LoadMatrix reads and structurally validates the environment matrix.
// Field presence is a policy question and is left to Validator.
func LoadMatrix(path string) (*Matrix, error) {
	m := &Matrix{path: path}
	if err := config.LoadJSON(path, compiledMatrixSchema, m); err != nil {
		return nil, err
	}
	return m, nil
}

// Profile returns the named tier or a missing-field error.
func (m *Matrix) Profile(tier string) (Profile, error) {
	p, ok := m.Environments[tier]
	if !ok {
		return Profile{}, config.MissingField(m.path, "environments."+tier)
	}
	return p, nil
}

// RequiredNames is the sorted union of every tier's required variable names.
func (m *Matrix) RequiredNames() (client, server []string) {
	cs := make(map[string]struct{})
	ss := make(map[string]struct{})
	for _, p := range m.Environments {
		for _, n := range p.ClientRequiredEnv {
			cs[n] = struct{}{}
		}
		for _, n := range p.ServerRequiredEnv {
			ss[n] = struct{}{}
		}
	}
	return sortedKeys(cs), sortedKeys(ss)
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		if k != "" {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
