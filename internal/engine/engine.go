package engine

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"golang.org/x/sync/errgroup"

	"policygate/internal/config"
	"policygate/internal/gate"
	"policygate/internal/log"
	"policygate/internal/output"
)

func exitCodeForRun(fatal, partial, violations bool) int {
	// Exit code contract:
	// 0 = every check passed
	// 1 = policy violations
	// 2 = partial failure (some checks could not run)
	// 3 = fatal (no check ran)
	if fatal {
		return 3
	}
	if partial {
		return 2
	}
	if violations {
		return 1
	}
	return 0
}

func setupOutputManager(cfg *config.Config, stdout io.Writer) (*output.Manager, error) {
	outMgr := output.NewManager()

	// Console Sink
	if !cfg.Output.NoConsole {
		cs := output.NewConsoleSink(stdout, cfg.Output.ConsoleFormat, cfg.Output.ConsoleFilterStatus)
		if !cfg.Output.NoColor && !color.NoColor {
			cs.EnableColor()
		}
		if err := outMgr.AddSink(cs); err != nil {
			outMgr.Close()
			return nil, err
		}
	}

	// Emit Sinks (additional structured streams)
	for _, emit := range cfg.Output.Emit {
		es, err := output.NewEmitSink(stdout, emit)
		if err != nil {
			outMgr.Close()
			return nil, err
		}
		if err := outMgr.AddSink(es); err != nil {
			outMgr.Close()
			return nil, err
		}
	}

	// File Sink
	if cfg.Output.Out != "" {
		fs, err := output.NewFileSink(cfg.Resolve(cfg.Output.Out), cfg.Output.OutFormat)
		if err != nil {
			outMgr.Close()
			return nil, err
		}
		if err := outMgr.AddSink(fs); err != nil {
			outMgr.Close()
			return nil, err
		}
	}

	return outMgr, nil
}

// checkRun is the result of one check execution.
type checkRun struct {
	outcome *gate.Outcome
	err     error
}

// Summary is the aggregate verdict of a run.
type Summary struct {
	Checks   int
	Passed   int
	Failed   int
	Errored  int
	ExitCode int
}

// Engine runs a set of independent checks and aggregates their verdicts.
type Engine struct {
	// Parallel bounds how many checks run at once.
	Parallel int

	// Stdout receives the console sink. Defaults to os.Stdout.
	Stdout io.Writer
	// Stderr receives fatal setup errors. Defaults to os.Stderr.
	Stderr io.Writer
}

func NewEngine(parallel int) *Engine {
	return &Engine{Parallel: parallel}
}

func (e *Engine) stdout() io.Writer {
	if e.Stdout != nil {
		return e.Stdout
	}
	return os.Stdout
}

func (e *Engine) stderr() io.Writer {
	if e.Stderr != nil {
		return e.Stderr
	}
	return os.Stderr
}

func runCheck(ctx context.Context, c gate.Check) checkRun {
	start := time.Now()
	out, err := c.Run(ctx)
	if err == nil && out == nil {
		err = fmt.Errorf("check %s returned no outcome", c.ID())
	}
	if out != nil && out.CheckID == "" {
		out.CheckID = c.ID()
	}
	log.Debug("check finished", "check", c.ID(), "duration", time.Since(start).String(), "error", err != nil)
	return checkRun{outcome: out, err: err}
}

// execute runs checks with bounded parallelism and delivers each run on its
// own channel so callers can emit in catalogue order while later checks are
// still running.
func (e *Engine) execute(ctx context.Context, checks []gate.Check) ([]chan checkRun, func() error) {
	parallel := e.Parallel
	if parallel <= 0 {
		parallel = 1
	}

	done := make([]chan checkRun, len(checks))
	for i := range done {
		done[i] = make(chan checkRun, 1)
	}

	var g errgroup.Group
	g.SetLimit(parallel)
	scheduled := make(chan struct{})
	go func() {
		defer close(scheduled)
		for i, c := range checks {
			i, c := i, c
			g.Go(func() error {
				done[i] <- runCheck(ctx, c)
				return nil
			})
		}
	}()

	wait := func() error {
		<-scheduled
		return g.Wait()
	}
	return done, wait
}

// emit writes one check's lifecycle to the output manager and reports
// whether it passed and whether it errored.
func emit(outMgr *output.Manager, c gate.Check, run checkRun) (passed, errored bool) {
	_ = outMgr.Write(output.Event{Type: output.EventCheckStarted, CheckID: c.ID()})
	if run.err != nil {
		_ = outMgr.Write(output.ErrorEvent(c.ID(), run.err))
		return false, true
	}
	_ = outMgr.WriteOutcome(run.outcome)
	return run.outcome.Passed(), false
}

// RunChecks executes checks against an existing output manager and returns
// the aggregate verdict. Output is emitted in the order of checks.
func (e *Engine) RunChecks(ctx context.Context, checks []gate.Check, outMgr *output.Manager) Summary {
	sum := Summary{Checks: len(checks)}
	_ = outMgr.Write(output.Event{Type: output.EventRunStarted, Checks: len(checks)})

	done, wait := e.execute(ctx, checks)
	for i, c := range checks {
		passed, errored := emit(outMgr, c, <-done[i])
		switch {
		case errored:
			sum.Errored++
		case passed:
			sum.Passed++
		default:
			sum.Failed++
		}
	}
	_ = wait()

	fatal := sum.Checks > 0 && sum.Errored == sum.Checks
	sum.ExitCode = exitCodeForRun(fatal, sum.Errored > 0, sum.Failed > 0)
	_ = outMgr.Write(output.Event{Type: output.EventRunFinished, Checks: sum.Checks, Passed: sum.Passed, ExitCode: sum.ExitCode})
	return sum
}

// Run sets up the configured sinks, runs checks and returns the exit code.
func (e *Engine) Run(ctx context.Context, cfg *config.Config, checks []gate.Check) int {
	outMgr, err := setupOutputManager(cfg, e.stdout())
	if err != nil {
		fmt.Fprintf(e.stderr(), "Error creating output sinks: %v\n", err)
		return exitCodeForRun(true, false, false)
	}

	sum := e.RunChecks(ctx, checks, outMgr)
	if err := outMgr.Close(); err != nil {
		fmt.Fprintf(e.stderr(), "Error closing output sinks: %v\n", err)
	}
	log.Debug("run finished", "checks", sum.Checks, "passed", sum.Passed, "failed", sum.Failed, "errored", sum.Errored, "exit_code", sum.ExitCode)
	return sum.ExitCode
}
