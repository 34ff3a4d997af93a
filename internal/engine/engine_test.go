package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"policygate/internal/config"
	"policygate/internal/gate"
	"policygate/internal/output"
)

type stubCheck struct {
	id    string
	delay time.Duration
	build func(o *gate.Outcome)
	err   error

	running *int32
	peak    *int32
}

func (c *stubCheck) ID() string          { return c.id }
func (c *stubCheck) Title() string       { return "Stub " + c.id }
func (c *stubCheck) Description() string { return "Test-only check" }

func (c *stubCheck) Run(ctx context.Context) (*gate.Outcome, error) {
	if c.running != nil {
		n := atomic.AddInt32(c.running, 1)
		defer atomic.AddInt32(c.running, -1)
		for {
			p := atomic.LoadInt32(c.peak)
			if n <= p || atomic.CompareAndSwapInt32(c.peak, p, n) {
				break
			}
		}
	}
	if c.delay > 0 {
		time.Sleep(c.delay)
	}
	if c.err != nil {
		return nil, c.err
	}
	o := gate.NewOutcome(c.id)
	if c.build != nil {
		c.build(o)
	}
	return o, nil
}

func passing(id string) *stubCheck {
	return &stubCheck{id: id, build: func(o *gate.Outcome) { o.Pass("", "all good") }}
}

func failing(id string) *stubCheck {
	return &stubCheck{id: id, build: func(o *gate.Outcome) { o.Fail("src/a.ts", "src/a.ts: too big") }}
}

func erroring(id string) *stubCheck {
	return &stubCheck{id: id, err: config.MissingFile("config/policy-gates.json", nil)}
}

func runText(t *testing.T, cfg *config.Config, checks ...gate.Check) (string, int) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	eng := NewEngine(cfg.Runtime.Parallel)
	eng.Stdout = &stdout
	eng.Stderr = &stderr
	code := eng.Run(context.Background(), cfg, checks)
	if stderr.Len() > 0 {
		t.Fatalf("unexpected stderr: %s", stderr.String())
	}
	return stdout.String(), code
}

func TestExitCodeForRun(t *testing.T) {
	tests := []struct {
		fatal, partial, violations bool
		want                       int
	}{
		{want: 0},
		{violations: true, want: 1},
		{partial: true, violations: true, want: 2},
		{fatal: true, partial: true, want: 3},
	}
	for _, tt := range tests {
		if got := exitCodeForRun(tt.fatal, tt.partial, tt.violations); got != tt.want {
			t.Errorf("exitCodeForRun(%v, %v, %v) = %d, want %d", tt.fatal, tt.partial, tt.violations, got, tt.want)
		}
	}
}

func TestEngine_SingleCheckConsole(t *testing.T) {
	cfg := config.New()

	got, code := runText(t, cfg, failing("component-size"))
	want := "FAIL src/a.ts: too big\nFAIL component-size: 1 failure(s), 0 warning(s)\n"
	if got != want {
		t.Fatalf("console mismatch:\n got %q\nwant %q", got, want)
	}
	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
}

func TestEngine_SingleCheckConfigErrorIsFatal(t *testing.T) {
	cfg := config.New()

	got, code := runText(t, cfg, erroring("any-budget"))
	if !strings.HasPrefix(got, "ERROR any-budget: missing-file: config/policy-gates.json") {
		t.Fatalf("unexpected console output: %q", got)
	}
	if code != 3 {
		t.Fatalf("exit code = %d, want 3", code)
	}
}

func TestEngine_MultiCheckSummaryAndOrder(t *testing.T) {
	cfg := config.New()
	cfg.Runtime.Parallel = 3

	slow := passing("first")
	slow.delay = 50 * time.Millisecond

	got, code := runText(t, cfg, slow, failing("second"), passing("third"))
	want := strings.Join([]string{
		"PASS all good",
		"PASS first: 0 failure(s), 0 warning(s)",
		"FAIL src/a.ts: too big",
		"FAIL second: 1 failure(s), 0 warning(s)",
		"PASS all good",
		"PASS third: 0 failure(s), 0 warning(s)",
		"Summary: 2/3 checks passed",
		"",
	}, "\n")
	if got != want {
		t.Fatalf("console mismatch:\n got %q\nwant %q", got, want)
	}
	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
}

func TestEngine_PartialFailure(t *testing.T) {
	cfg := config.New()

	got, code := runText(t, cfg, passing("a"), erroring("b"), failing("c"))
	if code != 2 {
		t.Fatalf("exit code = %d, want 2", code)
	}
	if !strings.Contains(got, "ERROR b: missing-file") || !strings.HasSuffix(got, "Summary: 1/3 checks passed\n") {
		t.Fatalf("unexpected console output:\n%s", got)
	}
}

func TestEngine_AdvisoryOutcomePasses(t *testing.T) {
	cfg := config.New()
	advisory := &stubCheck{id: "bundle-budget", build: func(o *gate.Outcome) {
		o.Advisory = true
		o.Fail("entry", "entry (index-a.js): 90 KB gzip (budget 80 KB)")
	}}

	got, code := runText(t, cfg, advisory)
	if code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}
	if !strings.Contains(got, "WARN bundle-budget: 1 failure(s), 0 warning(s) (report-only)") {
		t.Fatalf("unexpected console output:\n%s", got)
	}
}

func TestEngine_ParallelIsBounded(t *testing.T) {
	cfg := config.New()
	cfg.Runtime.Parallel = 2
	cfg.Output.NoConsole = true

	var running, peak int32
	var checks []gate.Check
	for _, id := range []string{"a", "b", "c", "d", "e", "f"} {
		c := passing(id)
		c.delay = 20 * time.Millisecond
		c.running = &running
		c.peak = &peak
		checks = append(checks, c)
	}

	_, code := runText(t, cfg, checks...)
	if code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}
	if p := atomic.LoadInt32(&peak); p > 2 || p < 1 {
		t.Fatalf("peak concurrency = %d, want 1..2", p)
	}
}

func TestEngine_NoConsole(t *testing.T) {
	cfg := config.New()
	cfg.Output.NoConsole = true

	got, _ := runText(t, cfg, failing("x"), passing("y"))
	if got != "" {
		t.Fatalf("expected no console output when NoConsole is true; got:\n%s", got)
	}
}

func TestEngine_NDJSONEvents(t *testing.T) {
	cfg := config.New()
	cfg.Output.NoConsole = true
	cfg.Output.Out = filepath.Join(t.TempDir(), "run.ndjson")
	cfg.Output.OutFormat = "ndjson"

	_, code := runText(t, cfg, passing("a"), erroring("b"))
	if code != 2 {
		t.Fatalf("exit code = %d, want 2", code)
	}

	data, err := os.ReadFile(cfg.Output.Out)
	if err != nil {
		t.Fatalf("read out file: %v", err)
	}
	var types []string
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		var ev output.Event
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			t.Fatalf("invalid ndjson line %q: %v", line, err)
		}
		types = append(types, ev.Type)
	}
	want := []string{
		output.EventRunStarted,
		output.EventCheckStarted, output.EventCheckResult, output.EventCheckFinished,
		output.EventCheckStarted, output.EventCheckError,
		output.EventRunFinished,
	}
	if strings.Join(types, ",") != strings.Join(want, ",") {
		t.Fatalf("event sequence mismatch:\n got %v\nwant %v", types, want)
	}
}

func TestEngine_BadOutputPathIsFatal(t *testing.T) {
	cfg := config.New()
	cfg.Output.Out = filepath.Join(t.TempDir(), "out.txt")

	var stderr bytes.Buffer
	eng := NewEngine(1)
	eng.Stdout = &bytes.Buffer{}
	eng.Stderr = &stderr
	if code := eng.Run(context.Background(), cfg, []gate.Check{passing("a")}); code != 3 {
		t.Fatalf("exit code = %d, want 3", code)
	}
	if !strings.Contains(stderr.String(), "Error creating output sinks") {
		t.Fatalf("unexpected stderr: %q", stderr.String())
	}
}

func TestEngine_EmitStreamFollowsConsole(t *testing.T) {
	cfg := config.New()
	cfg.Output.Emit = []string{"json"}

	got, code := runText(t, cfg, failing("component-size"))
	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	const console = "FAIL src/a.ts: too big\nFAIL component-size: 1 failure(s), 0 warning(s)\n"
	if !strings.HasPrefix(got, console) {
		t.Fatalf("console output missing:\n%s", got)
	}
	var results []gate.Result
	if err := json.Unmarshal([]byte(strings.TrimPrefix(got, console)), &results); err != nil {
		t.Fatalf("emitted stream is not a JSON array: %v\n%s", err, got)
	}
	if len(results) != 1 || results[0].Status != gate.StatusFail {
		t.Fatalf("unexpected emitted results: %+v", results)
	}
}

func TestEngine_EmitNDJSONWithoutConsole(t *testing.T) {
	cfg := config.New()
	cfg.Output.NoConsole = true
	cfg.Output.Emit = []string{"ndjson"}

	got, _ := runText(t, cfg, passing("a"))
	lines := strings.Split(strings.TrimSpace(got), "\n")
	if len(lines) != 5 {
		t.Fatalf("expected 5 events, got %d:\n%s", len(lines), got)
	}
	var first output.Event
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil || first.Type != output.EventRunStarted {
		t.Fatalf("first event = %+v (err %v), want run.started", first, err)
	}
}
