package executor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"delegate/internal/audit"
	"delegate/internal/bridge"
	"delegate/internal/core"
)

// fakeSpawner returns a canned exit code and writes a canned stream file,
// standing in for the real bridge subprocess.
type fakeSpawner struct {
	exitCode   int
	stderr     string
	streamBody string
	err        error

	calls    int
	lastArgs []string
}

func (s *fakeSpawner) Spawn(ctx context.Context, req SpawnRequest) (SpawnResult, error) {
	s.calls++
	s.lastArgs = req.Args
	if s.err != nil {
		return SpawnResult{}, s.err
	}
	if s.streamBody != "" {
		// Third positional argument is the output path.
		if err := os.WriteFile(req.Args[2], []byte(s.streamBody), 0o644); err != nil {
			return SpawnResult{}, err
		}
	}
	return SpawnResult{ExitCode: s.exitCode, Stderr: s.stderr}, nil
}

func newRequest(t *testing.T) core.InvocationRequest {
	t.Helper()
	return core.InvocationRequest{
		Prompt:     "/plan do the thing",
		AgentID:    "agent-1",
		AgentName:  "test",
		Model:      core.ModelSonnet,
		OutputPath: filepath.Join(t.TempDir(), "out", "stream.jsonl"),
	}
}

func TestInvokeSuccess(t *testing.T) {
	spawner := &fakeSpawner{
		exitCode:   bridge.ExitOK,
		streamBody: `{"type":"result","subtype":"success","is_error":false,"result":"Done","session_id":"abc123","duration_ms":900}` + "\n",
	}
	exec := New(spawner, nil, nil)

	resp := exec.Invoke(context.Background(), newRequest(t))

	assert.True(t, resp.Success)
	assert.Equal(t, core.CodeNone, resp.ResultCode)
	assert.Equal(t, "Done", resp.Output)
	assert.Equal(t, "abc123", resp.SessionID)
}

func TestInvokeBuildsWrapperArgs(t *testing.T) {
	spawner := &fakeSpawner{exitCode: bridge.ExitOK, streamBody: `{"type":"result","result":"ok"}`}
	exec := New(spawner, nil, nil)
	exec.SettingsPath = "/etc/agent/settings.json"

	req := newRequest(t)
	req.SkipPermissions = true
	req.WorkingDirectory = "/work"
	exec.Invoke(context.Background(), req)

	require.Len(t, spawner.lastArgs, 6)
	assert.Equal(t, req.Prompt, spawner.lastArgs[0])
	assert.Equal(t, "sonnet", spawner.lastArgs[1])
	assert.Equal(t, req.OutputPath, spawner.lastArgs[2])
	assert.Equal(t, "/work", spawner.lastArgs[3])
	assert.Equal(t, "/etc/agent/settings.json", spawner.lastArgs[4])
	assert.Equal(t, "true", spawner.lastArgs[5])
}

func TestInvokeErrorResultTruncated(t *testing.T) {
	long := strings.Repeat("e", 1500)
	spawner := &fakeSpawner{
		exitCode:   bridge.ExitOK,
		streamBody: fmt.Sprintf(`{"type":"result","is_error":true,"result":"%s","session_id":"s"}`, long),
	}
	exec := New(spawner, nil, nil)

	resp := exec.Invoke(context.Background(), newRequest(t))

	assert.False(t, resp.Success)
	assert.Equal(t, core.CodeNone, resp.ResultCode)
	assert.True(t, strings.HasSuffix(resp.Output, TruncationSuffix))
	assert.LessOrEqual(t, len(resp.Output), 1000+len(TruncationSuffix))
}

func TestInvokeSuccessTextNeverTruncated(t *testing.T) {
	long := strings.Repeat("s", 5000)
	spawner := &fakeSpawner{
		exitCode:   bridge.ExitOK,
		streamBody: fmt.Sprintf(`{"type":"result","is_error":false,"result":"%s"}`, long),
	}
	exec := New(spawner, nil, nil)

	resp := exec.Invoke(context.Background(), newRequest(t))

	assert.True(t, resp.Success)
	assert.Equal(t, long, resp.Output)
}

func TestInvokeErrorDuringExecutionOverridesIsError(t *testing.T) {
	spawner := &fakeSpawner{
		exitCode:   bridge.ExitOK,
		streamBody: `{"type":"result","subtype":"error_during_execution","is_error":false,"result":"","session_id":"s9"}`,
	}
	exec := New(spawner, nil, nil)

	resp := exec.Invoke(context.Background(), newRequest(t))

	assert.False(t, resp.Success)
	assert.Equal(t, core.CodeErrorDuringExecution, resp.ResultCode)
	assert.Equal(t, "s9", resp.SessionID)
	assert.NotEmpty(t, resp.Output)
}

func TestInvokeTimeout(t *testing.T) {
	spawner := &fakeSpawner{
		exitCode:   bridge.ExitTimeout,
		streamBody: `{"type":"result","is_error":false,"result":"partial"}`,
	}
	exec := New(spawner, nil, nil)

	resp := exec.Invoke(context.Background(), newRequest(t))

	assert.False(t, resp.Success)
	assert.Equal(t, core.CodeTimeoutError, resp.ResultCode)
	assert.Equal(t, timeoutMessage, resp.Output)
}

func TestInvokeAgentErrorUsesStderr(t *testing.T) {
	spawner := &fakeSpawner{exitCode: 1, stderr: "rate limited\n"}
	exec := New(spawner, nil, nil)

	resp := exec.Invoke(context.Background(), newRequest(t))

	assert.False(t, resp.Success)
	assert.Equal(t, core.CodeAgentError, resp.ResultCode)
	assert.Equal(t, "rate limited", resp.Output)
}

func TestInvokeAgentErrorFallsBackToResultText(t *testing.T) {
	spawner := &fakeSpawner{
		exitCode:   1,
		streamBody: `{"type":"result","is_error":true,"result":"quota exhausted"}`,
	}
	exec := New(spawner, nil, nil)

	resp := exec.Invoke(context.Background(), newRequest(t))

	assert.Equal(t, core.CodeAgentError, resp.ResultCode)
	assert.Equal(t, "Agent error: quota exhausted", resp.Output)
}

func TestInvokeAgentErrorGenericMessage(t *testing.T) {
	spawner := &fakeSpawner{exitCode: 3}
	exec := New(spawner, nil, nil)

	resp := exec.Invoke(context.Background(), newRequest(t))

	assert.Equal(t, core.CodeAgentError, resp.ResultCode)
	assert.Equal(t, "agent failed with exit code 3", resp.Output)
}

func TestInvokeCleanExitWithoutResultEvent(t *testing.T) {
	spawner := &fakeSpawner{exitCode: bridge.ExitOK}
	exec := New(spawner, nil, nil)

	resp := exec.Invoke(context.Background(), newRequest(t))

	assert.False(t, resp.Success)
	assert.Equal(t, core.CodeAgentError, resp.ResultCode)
	assert.Equal(t, "agent produced no result event", resp.Output)
}

func TestInvokeSpawnFailureIsInvocationError(t *testing.T) {
	spawner := &fakeSpawner{err: errors.New("fork failed")}
	exec := New(spawner, nil, nil)

	resp := exec.Invoke(context.Background(), newRequest(t))

	assert.False(t, resp.Success)
	assert.Equal(t, core.CodeInvocationError, resp.ResultCode)
	assert.Contains(t, resp.Output, "fork failed")
}

func TestInvokeWritesAuditMirrors(t *testing.T) {
	root := t.TempDir()
	spawner := &fakeSpawner{
		exitCode:   bridge.ExitOK,
		streamBody: `{"type":"system"}` + "\n" + `{"type":"result","result":"ok","session_id":"s"}`,
	}
	exec := New(spawner, audit.NewWriter(root), nil)

	req := newRequest(t)
	resp := exec.Invoke(context.Background(), req)
	require.True(t, resp.Success)

	dir := filepath.Join(root, req.AgentName, req.AgentID)
	assert.FileExists(t, filepath.Join(dir, "events.json"))
	assert.FileExists(t, filepath.Join(dir, "final.json"))
}

func TestResultCodeImpliesFailure(t *testing.T) {
	spawners := []*fakeSpawner{
		{exitCode: bridge.ExitTimeout},
		{exitCode: 1},
		{exitCode: bridge.ExitOK, streamBody: `{"type":"result","subtype":"error_during_execution"}`},
		{err: errors.New("boom")},
	}
	for _, spawner := range spawners {
		exec := New(spawner, nil, nil)
		resp := exec.Invoke(context.Background(), newRequest(t))
		if resp.ResultCode != core.CodeNone {
			assert.False(t, resp.Success, "result code %s must pair with failure", resp.ResultCode)
		}
	}
}
