// Package prompt composes slash-command prompts for the agent.
package prompt

import "strings"

// CommandMarker prefixes a command name to form the agent's slash-command
// invocation.
const CommandMarker = "/"

// BuildTemplateRequest joins a command name and its positional arguments
// into the literal prompt line sent to the agent.
func BuildTemplateRequest(commandName string, args ...string) string {
	parts := []string{CommandMarker + commandName}
	if joined := strings.TrimSpace(strings.Join(args, " ")); joined != "" {
		parts = append(parts, joined)
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}
