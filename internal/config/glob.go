package config

import "strings"

// GlobMatch reports whether value matches pattern, ignoring case.
//
// A pattern without '*' must equal the value. A single wildcard anchors the
// literal parts to the start and end of the value ("prefix*", "*suffix",
// "prefix*suffix"). With more wildcards every non-empty segment must appear
// in order, each search starting after the previous match; segments are not
// anchored, so "*mid*" is a containment check.
func GlobMatch(pattern, value string) bool {
	pattern = strings.ToLower(pattern)
	value = strings.ToLower(value)

	if !strings.Contains(pattern, "*") {
		return pattern == value
	}

	parts := strings.Split(pattern, "*")
	if len(parts) == 2 {
		prefix, suffix := parts[0], parts[1]
		return len(value) >= len(prefix)+len(suffix) &&
			strings.HasPrefix(value, prefix) &&
			strings.HasSuffix(value, suffix)
	}

	remaining := value
	for _, part := range parts {
		if part == "" {
			continue
		}
		pos := strings.Index(remaining, part)
		if pos < 0 {
			return false
		}
		remaining = remaining[pos+len(part):]
	}
	return true
}
