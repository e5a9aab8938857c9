package core

import (
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
)

// IDGenerator issues agent correlation IDs and the unique per-invocation
// output path each one owns. Injected rather than ambient so callers control
// uniqueness and tests can pin paths.
type IDGenerator interface {
	NewAgentID() string
	OutputPath(agentID string) string
}

// UUIDGenerator derives output paths under Root from random UUIDs. Two
// invocations can never share an output path.
type UUIDGenerator struct {
	Root string
}

func (g UUIDGenerator) NewAgentID() string {
	return fmt.Sprintf("agent-%s", uuid.NewString())
}

func (g UUIDGenerator) OutputPath(agentID string) string {
	return filepath.Join(g.Root, agentID, "stream.jsonl")
}

func NewRunID() string {
	return fmt.Sprintf("run-%s", uuid.NewString())
}
