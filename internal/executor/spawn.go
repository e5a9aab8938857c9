package executor

import (
	"bytes"
	"context"
	"os"
	"os/exec"
)

// SpawnRequest describes one launch of the process wrapper. The working
// directory travels inside Args (the wrapper's fourth positional argument)
// so there is exactly one channel for it.
type SpawnRequest struct {
	Args []string
}

// SpawnResult is what the executor needs back: the wrapper's exit code and
// its own captured stderr. The agent's output never flows through here; it
// lands in the invocation's output file.
type SpawnResult struct {
	ExitCode int
	Stderr   string
}

// Spawner is the narrow seam between the executor and the operating
// system, so classification logic is testable with canned exit codes and
// files instead of a real subprocess.
type Spawner interface {
	Spawn(ctx context.Context, req SpawnRequest) (SpawnResult, error)
}

// BridgeSpawner launches the agent-bridge binary. AgentBin, when set,
// tells the bridge which agent binary to resolve.
type BridgeSpawner struct {
	BridgePath string
	AgentBin   string
}

func (s BridgeSpawner) Spawn(ctx context.Context, req SpawnRequest) (SpawnResult, error) {
	cmd := exec.CommandContext(ctx, s.BridgePath, req.Args...)
	if s.AgentBin != "" {
		cmd.Env = append(os.Environ(), "DELEGATE_AGENT_BIN="+s.AgentBin)
	}

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return SpawnResult{ExitCode: exitErr.ExitCode(), Stderr: stderr.String()}, nil
		}
		return SpawnResult{}, err
	}
	return SpawnResult{ExitCode: 0, Stderr: stderr.String()}, nil
}
