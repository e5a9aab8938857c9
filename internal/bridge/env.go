package bridge

import "strings"

// envAllowList names the only variables allowed to cross into the agent's
// execution context. This is a security boundary: ambient environment must
// never leak into an unattended agent run.
var envAllowList = map[string]bool{
	"PATH":               true,
	"HOME":               true,
	"USER":               true,
	"SHELL":              true,
	"TERM":               true,
	"TMPDIR":             true,
	"LANG":               true,
	"LC_ALL":             true,
	"XDG_CONFIG_HOME":    true,
	"ANTHROPIC_API_KEY":  true,
	"ANTHROPIC_BASE_URL": true,
	"CLAUDE_CONFIG_DIR":  true,
}

// FilterEnv reduces environ to the allow-listed variables.
func FilterEnv(environ []string) []string {
	out := make([]string, 0, len(envAllowList))
	for _, entry := range environ {
		name, _, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		if envAllowList[name] {
			out = append(out, entry)
		}
	}
	return out
}
