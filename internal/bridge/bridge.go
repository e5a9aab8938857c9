// Package bridge is the process wrapper between the executor and the agent
// binary. It is deliberately dumb: validate arguments, scrub the
// environment, redirect the agent's combined output into one file, enforce
// the wall-clock ceiling, and map the outcome onto a fixed exit-code
// contract the executor can classify.
package bridge

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"delegate/internal/core"
)

// Exit codes consumed by the executor. Invalid arguments and a missing
// agent binary are distinguished so deterministic caller errors are never
// mistaken for transient agent failures.
const (
	ExitOK          = 0
	ExitAgentError  = 1
	ExitInvalidArgs = 2
	ExitTimeout     = 124
	ExitNotFound    = 127
)

// Timeout is the hard wall-clock ceiling for one agent subprocess. A fixed
// constant, not per-request configuration: it bounds the worst-case latency
// of a single attempt.
const Timeout = 5 * time.Minute

const argCount = 6

// Options carries the few knobs the wrapper has. AgentBin defaults to the
// DELEGATE_AGENT_BIN environment variable, then "claude".
type Options struct {
	AgentBin string
	Timeout  time.Duration
	Stderr   io.Writer
	Environ  []string
}

func DefaultOptions() Options {
	return Options{
		AgentBin: agentBin(),
		Timeout:  Timeout,
		Stderr:   os.Stderr,
		Environ:  os.Environ(),
	}
}

// Args is the positional argument contract, in order.
type Args struct {
	Prompt          string
	Model           string
	OutputPath      string
	WorkingDir      string
	SecondaryConfig string
	SkipPermissions bool
}

// Run executes the wrapper with the six positional arguments and returns
// the process exit code.
func Run(argv []string, opts Options) int {
	args, err := parseArgs(argv)
	if err != nil {
		fmt.Fprintf(opts.Stderr, "agent-bridge: %v\n", err)
		return ExitInvalidArgs
	}

	bin, err := exec.LookPath(opts.AgentBin)
	if err != nil {
		fmt.Fprintf(opts.Stderr, "agent-bridge: agent binary %q not found\n", opts.AgentBin)
		return ExitNotFound
	}

	out, err := os.Create(args.OutputPath)
	if err != nil {
		fmt.Fprintf(opts.Stderr, "agent-bridge: create output file: %v\n", err)
		return ExitAgentError
	}
	defer out.Close()

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = Timeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, bin, agentArgs(args)...)
	cmd.Dir = args.WorkingDir
	cmd.Env = FilterEnv(opts.Environ)
	// The event log and diagnostic text interleave in one NDJSON stream by
	// design: both ends of the agent go to the same file.
	cmd.Stdout = out
	cmd.Stderr = out

	err = cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		fmt.Fprintf(opts.Stderr, "agent-bridge: agent timed out after %s\n", timeout)
		return ExitTimeout
	}
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return exitErr.ExitCode()
		}
		fmt.Fprintf(opts.Stderr, "agent-bridge: agent failed to start: %v\n", err)
		return ExitAgentError
	}
	return ExitOK
}

func parseArgs(argv []string) (Args, error) {
	if len(argv) != argCount {
		return Args{}, fmt.Errorf("expected %d arguments (prompt, model, output path, working dir, secondary config, skip permissions), got %d", argCount, len(argv))
	}

	args := Args{
		Prompt:          argv[0],
		Model:           argv[1],
		OutputPath:      argv[2],
		WorkingDir:      argv[3],
		SecondaryConfig: argv[4],
	}

	if strings.TrimSpace(args.Prompt) == "" {
		return Args{}, fmt.Errorf("prompt must not be empty")
	}
	if !core.Model(args.Model).Valid() {
		return Args{}, fmt.Errorf("model must be %q or %q, got %q", core.ModelSonnet, core.ModelOpus, args.Model)
	}
	info, err := os.Stat(args.WorkingDir)
	if err != nil || !info.IsDir() {
		return Args{}, fmt.Errorf("working directory %q does not exist", args.WorkingDir)
	}

	switch argv[5] {
	case "true":
		args.SkipPermissions = true
	case "false":
		args.SkipPermissions = false
	default:
		return Args{}, fmt.Errorf("skip permissions flag must be \"true\" or \"false\", got %q", argv[5])
	}

	return args, nil
}

func agentArgs(args Args) []string {
	out := []string{
		"-p", args.Prompt,
		"--model", args.Model,
		"--output-format", "stream-json",
		"--verbose",
	}
	if args.SecondaryConfig != "" {
		out = append(out, "--settings", args.SecondaryConfig)
	}
	if args.SkipPermissions {
		out = append(out, "--dangerously-skip-permissions")
	}
	return out
}

func agentBin() string {
	if bin := os.Getenv("DELEGATE_AGENT_BIN"); bin != "" {
		return bin
	}
	return "claude"
}
