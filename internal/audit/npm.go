package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"policygate/internal/config"
	"policygate/internal/log"
)

// NpmSource runs `npm audit --json` (or a compatible command) in Dir.
type NpmSource struct {
	Command string
	Dir     string
}

func (s NpmSource) Name() string {
	return "npm"
}

func (s NpmSource) Collect(ctx context.Context) (*Result, error) {
	argv := strings.Fields(s.Command)
	if len(argv) == 0 {
		return nil, config.ToolFailure("audit", "empty audit command", nil)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = s.Dir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	log.Debug("running audit command", "command", s.Command, "dir", s.Dir)
	runErr := cmd.Run()
	if runErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) {
			return nil, config.ToolFailure(argv[0], "cannot run audit command", runErr)
		}
		// A nonzero exit with output means "vulnerabilities found".
		if stdout.Len() == 0 {
			msg := strings.TrimSpace(stderr.String())
			if msg == "" {
				msg = "audit command produced no output"
			}
			return nil, config.ToolFailure(argv[0], msg, runErr)
		}
		log.Debug("audit command exited nonzero; using its output", "exit_code", exitErr.ExitCode())
	}

	res, err := ParseNpmAudit(stdout.Bytes())
	if err != nil {
		return nil, config.ToolFailure(argv[0], "unusable audit output", err)
	}
	return res, nil
}

type npmAudit struct {
	Error *struct {
		Code    string `json:"code"`
		Summary string `json:"summary"`
		Detail  string `json:"detail"`
	} `json:"error"`

	// npm >= 7
	Vulnerabilities map[string]struct {
		Name     string            `json:"name"`
		Severity string            `json:"severity"`
		Range    string            `json:"range"`
		Via      []json.RawMessage `json:"via"`
	} `json:"vulnerabilities"`

	// npm 6
	Advisories map[string]struct {
		ModuleName         string `json:"module_name"`
		Severity           string `json:"severity"`
		Title              string `json:"title"`
		URL                string `json:"url"`
		VulnerableVersions string `json:"vulnerable_versions"`
	} `json:"advisories"`

	Metadata struct {
		Vulnerabilities *struct {
			Info     int `json:"info"`
			Low      int `json:"low"`
			Moderate int `json:"moderate"`
			High     int `json:"high"`
			Critical int `json:"critical"`
		} `json:"vulnerabilities"`
	} `json:"metadata"`
}

type npmVia struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// ParseNpmAudit reads both the npm >= 7 and the npm 6 JSON formats.
func ParseNpmAudit(data []byte) (*Result, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errors.New("empty output")
	}
	var doc npmAudit
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("not JSON: %w", err)
	}
	if doc.Error != nil {
		return nil, fmt.Errorf("audit reported error %s: %s", doc.Error.Code, strings.TrimSpace(doc.Error.Summary))
	}

	var findings []Finding
	for name, v := range doc.Vulnerabilities {
		f := Finding{Package: name, Severity: ParseSeverity(v.Severity), Range: v.Range}
		if v.Name != "" {
			f.Package = v.Name
		}
		for _, raw := range v.Via {
			var via npmVia
			// Entries are either advisory objects or names of other packages.
			if err := json.Unmarshal(raw, &via); err == nil && via.Title != "" {
				f.Title = via.Title
				f.URL = via.URL
				break
			}
		}
		findings = append(findings, f)
	}
	for _, a := range doc.Advisories {
		findings = append(findings, Finding{
			Package:  a.ModuleName,
			Severity: ParseSeverity(a.Severity),
			Title:    a.Title,
			URL:      a.URL,
			Range:    a.VulnerableVersions,
		})
	}
	sortFindings(findings)

	totals := totalsOf(findings)
	if m := doc.Metadata.Vulnerabilities; m != nil {
		totals = Totals{Critical: m.Critical, High: m.High, Moderate: m.Moderate, Low: m.Low, Info: m.Info}
	}
	return &Result{Source: "npm", Totals: totals, Findings: findings}, nil
}
