package hvlog

import "strings"

const flagPrefix = "--sup-hardening-log="

// ExtractFlag implements spec.md §4.3 / §6's argv surgery: it scans
// args for the single recognized --sup-hardening-log=PATH option and
// returns the path along with a new slice that omits its first
// occurrence; args itself is not modified. Testable property 2 of spec.md §8 is this function's
// round-trip behavior: if present, len(rest) == len(args)-1, the flag
// is gone, and all other entries keep their order.
func ExtractFlag(args []string) (path string, rest []string, found bool) {
	rest = make([]string, 0, len(args))
	for _, a := range args {
		if !found && strings.HasPrefix(a, flagPrefix) {
			path = strings.TrimPrefix(a, flagPrefix)
			found = true
			continue
		}
		rest = append(rest, a)
	}
	if !found {
		return "", args, false
	}
	return path, rest, true
}
