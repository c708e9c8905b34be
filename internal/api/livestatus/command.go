package livestatus

import (
	"strings"

	"github.com/oceanplexian/livestatusd/internal/api"
)

// parseCommandEntry extracts the command name and args from a
// "COMMAND [timestamp] NAME;arg1;arg2" line. Returns nil for unparseable
// input.
func parseCommandEntry(request string) *api.CommandEntry {
	line := strings.TrimSpace(strings.TrimPrefix(request, "COMMAND"))

	// Skip optional timestamp
	if strings.HasPrefix(line, "[") {
		idx := strings.Index(line, "]")
		if idx < 0 {
			return nil
		}
		line = strings.TrimSpace(line[idx+1:])
	}

	name, rest, hasArgs := strings.Cut(line, ";")
	if name == "" {
		return nil
	}
	var args []string
	if hasArgs {
		args = strings.Split(rest, ";")
	}
	return &api.CommandEntry{Name: name, Args: args}
}
