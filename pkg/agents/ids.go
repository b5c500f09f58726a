// pkg/agents/ids.go

package agents

import "strings"

// CompareIDs orders two vendor identifiers. Purely numeric identifiers are
// compared by value, anything else falls back to a byte-wise comparison.
// Returns -1, 0 or +1.
func CompareIDs(a, b string) int {
	if isDigits(a) && isDigits(b) {
		a = strings.TrimLeft(a, "0")
		b = strings.TrimLeft(b, "0")
		if len(a) != len(b) {
			if len(a) < len(b) {
				return -1
			}
			return 1
		}
	}
	return strings.Compare(a, b)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
