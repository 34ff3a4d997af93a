package audit

import (
	"context"
	"sort"
	"strings"
)

type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityModerate Severity = "moderate"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

// ParseSeverity maps scanner severity labels onto the npm vocabulary.
// GitHub reports "medium" where npm reports "moderate".
func ParseSeverity(raw string) Severity {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "critical":
		return SeverityCritical
	case "high":
		return SeverityHigh
	case "moderate", "medium":
		return SeverityModerate
	case "low":
		return SeverityLow
	default:
		return SeverityInfo
	}
}

// Totals are vulnerability counts per severity.
type Totals struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Moderate int `json:"moderate"`
	Low      int `json:"low"`
	Info     int `json:"info"`
}

func (t *Totals) add(s Severity) {
	switch s {
	case SeverityCritical:
		t.Critical++
	case SeverityHigh:
		t.High++
	case SeverityModerate:
		t.Moderate++
	case SeverityLow:
		t.Low++
	default:
		t.Info++
	}
}

func (t Totals) Total() int {
	return t.Critical + t.High + t.Moderate + t.Low + t.Info
}

// Finding is one vulnerable package reported by a source.
type Finding struct {
	Package  string   `json:"package"`
	Severity Severity `json:"severity"`
	Title    string   `json:"title,omitempty"`
	URL      string   `json:"url,omitempty"`
	Range    string   `json:"range,omitempty"`
}

// Result is the normalized output of one audit source.
type Result struct {
	Source   string
	Totals   Totals
	Findings []Finding
}

// Source produces vulnerability data. Failures to obtain usable data are
// *config.Error values of kind tool-failure.
type Source interface {
	Name() string
	Collect(ctx context.Context) (*Result, error)
}

func totalsOf(findings []Finding) Totals {
	var t Totals
	for _, f := range findings {
		t.add(f.Severity)
	}
	return t
}

func sortFindings(findings []Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		if findings[i].Package != findings[j].Package {
			return findings[i].Package < findings[j].Package
		}
		return findings[i].Title < findings[j].Title
	})
}
