// Package probe verifies that a candidate council CLI is actually
// invocable, by running it once with a trivial prompt under a hard
// wall-clock deadline.
package probe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/danmuck/councilctl/internal/observability"
	"github.com/rs/zerolog/log"
)

// DefaultTimeout bounds one probe run from spawn to classification.
const DefaultTimeout = 30 * time.Second

// DiagnosticPrompt is the fixed prompt appended after the entry's own
// args. It is deliberately trivial; the probe checks invocability, not
// answer quality.
const DiagnosticPrompt = "Reply with exactly: OK"

// waitDelay bounds how long Wait lingers after the deadline kill before
// abandoning the process table entry.
const waitDelay = 5 * time.Second

// FailureReason classifies an unsuccessful probe.
type FailureReason string

const (
	ReasonTimeout     FailureReason = "timeout"
	ReasonSpawnFailed FailureReason = "spawn_failed"
	ReasonNonZeroExit FailureReason = "non_zero_exit"
)

// Result is the outcome of one probe run. Response is the full captured
// stdout; truncation for display is the caller's concern.
type Result struct {
	Success  bool          `json:"success"`
	Response string        `json:"response,omitempty"`
	Reason   FailureReason `json:"error,omitempty"`
	Detail   string        `json:"detail,omitempty"`
	ExitCode int           `json:"exit_code,omitempty"`
	Duration time.Duration `json:"-"`
}

// Runner executes probes. Independent probes may run concurrently; each
// owns its subprocess lifetime.
type Runner struct {
	timeout time.Duration
	prompt  string
}

// NewRunner builds a runner with the given deadline. Zero or negative
// falls back to DefaultTimeout.
func NewRunner(timeout time.Duration) *Runner {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Runner{timeout: timeout, prompt: DiagnosticPrompt}
}

// Probe runs command with args followed by the diagnostic prompt and
// classifies the outcome. The subprocess is guaranteed dead by the time
// Probe returns, under every outcome.
func (r *Runner) Probe(ctx context.Context, command string, args []string) Result {
	start := time.Now()
	command = strings.TrimSpace(command)
	if command == "" {
		return r.finish(command, start, Result{
			Reason: ReasonSpawnFailed,
			Detail: "no command given",
		})
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	full := make([]string, 0, len(args)+1)
	full = append(full, args...)
	full = append(full, r.prompt)

	cmd := exec.CommandContext(ctx, command, full...) //nolint:gosec // G204: probing operator-supplied commands is the point
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	if err := cmd.Start(); err != nil {
		return r.finish(command, start, Result{
			Reason: ReasonSpawnFailed,
			Detail: err.Error(),
		})
	}

	err := cmd.Wait()
	switch {
	case ctx.Err() == context.DeadlineExceeded:
		return r.finish(command, start, Result{
			Reason: ReasonTimeout,
			Detail: fmt.Sprintf("no response within %s", r.timeout),
		})
	case err == nil:
		return r.finish(command, start, Result{
			Success:  true,
			Response: strings.TrimSpace(stdout.String()),
		})
	default:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			detail := strings.TrimSpace(stderr.String())
			if detail == "" {
				detail = err.Error()
			}
			return r.finish(command, start, Result{
				Reason:   ReasonNonZeroExit,
				Detail:   detail,
				ExitCode: exitErr.ExitCode(),
			})
		}
		return r.finish(command, start, Result{
			Reason: ReasonSpawnFailed,
			Detail: err.Error(),
		})
	}
}

func (r *Runner) finish(command string, start time.Time, res Result) Result {
	res.Duration = time.Since(start)
	outcome := "success"
	if !res.Success {
		outcome = string(res.Reason)
	}
	observability.RecordProbe(outcome, res.Duration)

	event := log.Info()
	if !res.Success {
		event = log.Warn()
	}
	event.
		Str("command", command).
		Str("outcome", outcome).
		Dur("duration", res.Duration).
		Str("output", clip(res.Response, 200)).
		Str("detail", clip(res.Detail, 200)).
		Msg("probe_finished")
	return res
}

// clip bounds a captured string for log lines only; the Result keeps the
// full text.
func clip(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
