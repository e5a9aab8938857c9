// Package retry wraps the executor with bounded retry-with-backoff for the
// transient failure classes. Blocking and single-flow: the calling chain
// suspends during each backoff, no concurrent attempts.
package retry

import (
	"context"
	"time"

	"delegate/internal/core"
	"delegate/internal/logging"
)

const DefaultMaxAttempts = 3

// DefaultDelays is the backoff schedule between attempts. When attempts
// outnumber entries, the schedule extends by appending last+2s.
var DefaultDelays = []time.Duration{1 * time.Second, 3 * time.Second, 5 * time.Second}

const delayStep = 2 * time.Second

// retryable is the subset of failure classes worth re-invoking for.
// Anything outside it returns immediately: retrying a deterministic input
// error wastes time and produces identical results.
var retryable = map[core.ResultCode]bool{
	core.CodeAgentError:           true,
	core.CodeTimeoutError:         true,
	core.CodeInvocationError:      true,
	core.CodeErrorDuringExecution: true,
}

// InvokeFunc is the wrapped single-attempt invocation.
type InvokeFunc func(ctx context.Context, req core.InvocationRequest) core.InvocationResponse

type Controller struct {
	Invoke InvokeFunc
	Logger logging.Logger

	// Sleep is replaceable in tests; defaults to time.Sleep.
	Sleep func(d time.Duration)
}

func NewController(invoke InvokeFunc, logger logging.Logger) *Controller {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Controller{Invoke: invoke, Logger: logger, Sleep: time.Sleep}
}

type Options struct {
	MaxAttempts int
	Delays      []time.Duration
}

// InvokeWithRetry runs up to MaxAttempts attempts. Attempt 0 runs
// immediately; each later attempt waits its scheduled delay first. Returns
// the first successful response, the first non-retryable failure, or the
// last response once the budget is exhausted.
func (c *Controller) InvokeWithRetry(ctx context.Context, req core.InvocationRequest, opts Options) core.InvocationResponse {
	maxAttempts := opts.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	delays := extendDelays(opts.Delays, maxAttempts)

	sleep := c.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	var resp core.InvocationResponse
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			delay := delays[attempt-1]
			c.Logger.Info("retrying agent invocation",
				"agent_id", req.AgentID, "attempt", attempt+1, "delay", delay)
			sleep(delay)
		}

		resp = c.Invoke(ctx, req)
		if resp.Success || resp.ResultCode == core.CodeNone {
			return resp
		}
		if !retryable[resp.ResultCode] {
			c.Logger.Warn("non-retryable failure",
				"agent_id", req.AgentID, "result_code", resp.ResultCode)
			return resp
		}
	}

	c.Logger.Warn("retry budget exhausted",
		"agent_id", req.AgentID, "attempts", maxAttempts, "result_code", resp.ResultCode)
	return resp
}

// extendDelays pads the schedule so every retry has a delay, appending
// last+2s as needed. It stops at maxAttempts-1 entries, not maxAttempts:
// attempt N sleeps delays[N-1] before running and nothing sleeps after the
// final attempt, so a maxAttempts-th entry could never be indexed.
func extendDelays(delays []time.Duration, maxAttempts int) []time.Duration {
	if len(delays) == 0 {
		delays = DefaultDelays
	}
	out := make([]time.Duration, len(delays))
	copy(out, delays)
	for len(out) < maxAttempts-1 {
		out = append(out, out[len(out)-1]+delayStep)
	}
	return out
}
