package gate

import (
	"strings"

	"policygate/internal/config"
)

// AllowlistEntry accepts findings of one rule at one path as known-safe.
// Without Contains every match of the rule at the path is suppressed.
type AllowlistEntry struct {
	Path     string `json:"path"`
	RuleID   string `json:"ruleId"`
	Contains string `json:"contains,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// Matches reports whether the entry covers a finding.
func (e AllowlistEntry) Matches(path, ruleID, text string) bool {
	if e.Path != path || e.RuleID != ruleID {
		return false
	}
	return e.Contains == "" || strings.Contains(text, e.Contains)
}

// Allowlist suppresses findings and remembers which entries were used so
// stale entries can be surfaced.
type Allowlist struct {
	Entries []AllowlistEntry
	used    []bool
}

func NewAllowlist(entries []AllowlistEntry) *Allowlist {
	return &Allowlist{Entries: entries, used: make([]bool, len(entries))}
}

// Suppresses reports whether any entry covers the finding. Every covering
// entry is marked as used.
func (a *Allowlist) Suppresses(path, ruleID, text string) bool {
	if a == nil {
		return false
	}
	if len(a.used) != len(a.Entries) {
		a.used = make([]bool, len(a.Entries))
	}
	suppressed := false
	for i, e := range a.Entries {
		if e.Matches(path, ruleID, text) {
			a.used[i] = true
			suppressed = true
		}
	}
	return suppressed
}

// Unused returns the entries that have not suppressed anything yet.
func (a *Allowlist) Unused() []AllowlistEntry {
	if a == nil {
		return nil
	}
	var out []AllowlistEntry
	for i, e := range a.Entries {
		if i >= len(a.used) || !a.used[i] {
			out = append(out, e)
		}
	}
	return out
}

const allowlistSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["entries"],
  "properties": {
    "entries": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["path", "ruleId"],
        "properties": {
          "path": {"type": "string", "minLength": 1},
          "ruleId": {"type": "string", "minLength": 1},
          "contains": {"type": "string", "minLength": 1},
          "reason": {"type": "string"}
        },
        "additionalProperties": false
      }
    }
  }
}`

var compiledAllowlistSchema = config.MustCompileSchema("secret-scan-allowlist", allowlistSchema)

// LoadAllowlist reads the version-controlled allowlist document. The file is
// required; an empty entries array is valid.
func LoadAllowlist(path string) (*Allowlist, error) {
	var doc struct {
		Entries []AllowlistEntry `json:"entries"`
	}
	if err := config.LoadJSON(path, compiledAllowlistSchema, &doc); err != nil {
		return nil, err
	}
	for i := range doc.Entries {
		doc.Entries[i].Path = strings.TrimPrefix(doc.Entries[i].Path, "./")
	}
	return NewAllowlist(doc.Entries), nil
}
