// Package checks holds the fixed catalogue of policy gates. Every check
// composes the shared primitives (scope resolution, policy loading, pattern
// scanning, report writing) and is independent of the others.
package checks

import (
	"io/fs"
	"os"
	"time"

	"policygate/internal/config"
	"policygate/internal/output"
)

// Env is what a check may touch outside its own options.
type Env struct {
	// Root is the repository root on disk.
	Root string
	// FS reads source files relative to Root. Defaults to os.DirFS(Root).
	FS fs.FS
	// Now stamps reports. Defaults to time.Now.
	Now func() time.Time
	// Reports persists report files. Defaults to output.JSONReportWriter.
	Reports output.ReportWriter
	// Policies shares policy documents between the checks of one run.
	Policies *config.PolicyCache
}

// NewEnv returns an Env over the directory root.
func NewEnv(root string) Env {
	return Env{Root: root}.withDefaults()
}

func (e Env) withDefaults() Env {
	if e.Root == "" {
		e.Root = "."
	}
	if e.FS == nil {
		e.FS = os.DirFS(e.Root)
	}
	if e.Now == nil {
		e.Now = time.Now
	}
	if e.Reports == nil {
		e.Reports = output.JSONReportWriter{}
	}
	if e.Policies == nil {
		e.Policies = config.NewPolicyCache()
	}
	return e
}

func (e Env) generatedAt() string {
	return e.Now().UTC().Format(time.RFC3339)
}

func (e Env) loadPolicy(path string) (*config.Policy, error) {
	return e.Policies.Load(path)
}

type meta struct {
	id          string
	title       string
	description string
}

func (m meta) ID() string          { return m.id }
func (m meta) Title() string       { return m.title }
func (m meta) Description() string { return m.description }
