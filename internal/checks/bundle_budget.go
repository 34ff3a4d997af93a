package checks

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"policygate/internal/config"
	"policygate/internal/gate"
	"policygate/internal/log"
)

const BundleBudgetID = "bundle-budget"

// Chunk names one hashed bundler output by filename prefix and suffix,
// e.g. index-*.js.
type Chunk struct {
	Name   string
	Prefix string
	Suffix string
}

func (c Chunk) Pattern() string {
	return c.Prefix + "*" + c.Suffix
}

func (c Chunk) matches(name string) bool {
	return strings.HasPrefix(name, c.Prefix) && strings.HasSuffix(name, c.Suffix) &&
		len(name) >= len(c.Prefix)+len(c.Suffix)
}

var DefaultChunks = []Chunk{
	{Name: "entry", Prefix: "index-", Suffix: ".js"},
	{Name: "vendor", Prefix: "vendor-", Suffix: ".js"},
	{Name: "styles", Prefix: "index-", Suffix: ".css"},
}

type BundleBudgetOptions struct {
	PolicyPath string
	// BuildDir holds the hashed chunks.
	BuildDir   string
	ReportPath string
	Chunks     []Chunk
	GzipLevel  int
	// ReportOnly writes the report but never fails.
	ReportOnly bool
}

func DefaultBundleBudgetOptions(policyPath, buildDir, reportPath string) BundleBudgetOptions {
	return BundleBudgetOptions{
		PolicyPath: policyPath,
		BuildDir:   buildDir,
		ReportPath: reportPath,
		Chunks:     append([]Chunk(nil), DefaultChunks...),
		GzipLevel:  gzip.BestCompression,
	}
}

// BundleBudget compares the gzip size of each named chunk with its budget.
type BundleBudget struct {
	meta
	env  Env
	opts BundleBudgetOptions
}

func NewBundleBudget(env Env, opts BundleBudgetOptions) *BundleBudget {
	return &BundleBudget{
		meta: meta{
			id:          BundleBudgetID,
			title:       "Bundle size budget",
			description: "Gzips the entry, vendor and styles chunks of the build output and compares their size in KB with the configured budgets.",
		},
		env:  env.withDefaults(),
		opts: opts,
	}
}

type chunkMeasure struct {
	File      string  `json:"file"`
	Bytes     int64   `json:"bytes"`
	GzipBytes int64   `json:"gzipBytes"`
	GzipKB    float64 `json:"gzipKb"`
	BudgetKB  float64 `json:"budgetKb"`
	Passed    bool    `json:"passed"`
}

type bundleReport struct {
	GeneratedAt string                  `json:"generatedAt"`
	Policy      bundlePolicy            `json:"policy"`
	Measured    map[string]chunkMeasure `json:"measured"`
	Passed      bool                    `json:"passed"`
	ReportOnly  bool                    `json:"reportOnly"`
	Failures    []string                `json:"failures"`
}

type bundlePolicy struct {
	Chunks    map[string]float64 `json:"chunks"`
	GzipLevel int                `json:"gzipLevel"`
}

func (c *BundleBudget) budgets() (map[string]float64, error) {
	policy, err := c.env.loadPolicy(c.opts.PolicyPath)
	if err != nil {
		return nil, err
	}
	sec, err := policy.Section("bundleBudget")
	if err != nil {
		return nil, err
	}
	chunks, err := sec.Section("chunks")
	if err != nil {
		return nil, err
	}
	budgets := make(map[string]float64, len(c.opts.Chunks))
	known := make(map[string]bool, len(c.opts.Chunks))
	for _, ch := range c.opts.Chunks {
		known[ch.Name] = true
		kb, err := chunks.NonNegative(ch.Name)
		if err != nil {
			return nil, err
		}
		budgets[ch.Name] = kb
	}
	for _, k := range chunks.Keys() {
		if !known[k] {
			return nil, config.InvalidValue(chunks.Path(), chunks.Key(k), "unknown chunk name")
		}
	}
	return budgets, nil
}

// locate finds the single file in entries matching ch.
func (c *BundleBudget) locate(entries []os.DirEntry, ch Chunk) (string, error) {
	var found []string
	for _, e := range entries {
		if e.Type().IsRegular() && ch.matches(e.Name()) {
			found = append(found, e.Name())
		}
	}
	switch len(found) {
	case 0:
		return "", config.MissingArtifact(c.opts.BuildDir,
			fmt.Sprintf("no file matches chunk %s (%s); run the production build first", ch.Name, ch.Pattern()))
	case 1:
		return found[0], nil
	default:
		sort.Strings(found)
		return "", config.MissingArtifact(c.opts.BuildDir,
			fmt.Sprintf("ambiguous chunk %s (%s): %s", ch.Name, ch.Pattern(), strings.Join(found, ", ")))
	}
}

func (c *BundleBudget) Run(ctx context.Context) (*gate.Outcome, error) {
	budgets, err := c.budgets()
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(c.opts.BuildDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, config.MissingArtifact(c.opts.BuildDir, "build output directory does not exist; run the production build first")
		}
		return nil, config.MissingArtifact(c.opts.BuildDir, err.Error())
	}

	files := make(map[string]string, len(c.opts.Chunks))
	for _, ch := range c.opts.Chunks {
		name, err := c.locate(entries, ch)
		if err != nil {
			return nil, err
		}
		files[ch.Name] = name
	}

	out := gate.NewOutcome(c.id)
	out.Advisory = c.opts.ReportOnly
	report := bundleReport{
		GeneratedAt: c.env.generatedAt(),
		Policy:      bundlePolicy{Chunks: budgets, GzipLevel: c.opts.GzipLevel},
		Measured:    make(map[string]chunkMeasure, len(c.opts.Chunks)),
		ReportOnly:  c.opts.ReportOnly,
		Failures:    []string{},
	}

	for _, ch := range c.opts.Chunks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := files[ch.Name]
		raw, gz, err := gzipSize(filepath.Join(c.opts.BuildDir, name), c.opts.GzipLevel)
		if err != nil {
			return nil, config.MissingArtifact(filepath.Join(c.opts.BuildDir, name), err.Error())
		}
		kb := roundKB(gz)
		budget := budgets[ch.Name]
		passed := gate.WithinBudget(float64(gz), budget*1024)
		report.Measured[ch.Name] = chunkMeasure{File: name, Bytes: raw, GzipBytes: gz, GzipKB: kb, BudgetKB: budget, Passed: passed}
		log.Debug("measured chunk", "chunk", ch.Name, "file", name, "gzip_bytes", gz)

		msg := fmt.Sprintf("%s (%s): %s KB gzip (budget %s KB)", ch.Name, name, config.FormatNumber(kb), config.FormatNumber(budget))
		md := map[string]any{"file": name, "gzipBytes": gz, "gzipKb": kb, "budgetKb": budget}
		if passed {
			out.Add(gate.PassResult(c.id, ch.Name, msg).WithMetadata(md))
		} else {
			out.Add(gate.FailResult(c.id, ch.Name, msg).WithMetadata(md))
			report.Failures = append(report.Failures, msg)
		}
	}

	report.Passed = len(report.Failures) == 0
	if err := c.env.Reports.WriteReport(c.opts.ReportPath, report); err != nil {
		return nil, err
	}
	out.Report = c.opts.ReportPath
	return out, nil
}

// gzipSize returns the raw and compressed size of the file at path.
func gzipSize(path string, level int) (raw, compressed int64, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	var counter byteCounter
	zw, err := gzip.NewWriterLevel(&counter, level)
	if err != nil {
		return 0, 0, err
	}
	raw, err = io.Copy(zw, f)
	if err != nil {
		return 0, 0, err
	}
	if err := zw.Close(); err != nil {
		return 0, 0, err
	}
	return raw, counter.n, nil
}

type byteCounter struct {
	n int64
}

func (b *byteCounter) Write(p []byte) (int, error) {
	b.n += int64(len(p))
	return len(p), nil
}

// roundKB converts bytes to KB (1024) rounded to two decimals.
func roundKB(n int64) float64 {
	return math.Round(float64(n)/1024*100) / 100
}
