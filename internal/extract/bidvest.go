package extract

import (
	"regexp"
	"strings"
)

var bidvestRJ = regexp.MustCompile(`RJ\d{11}`)

// BidvestReference extracts every RJ<11 digits> occurrence from a ledger
// comment, deduplicates while preserving first-seen order, and joins with
// ", " (spec.md §4.2).
func BidvestReference(comment string) string {
	matches := bidvestRJ.FindAllString(comment, -1)
	if len(matches) == 0 {
		return ""
	}

	seen := make(map[string]bool, len(matches))
	var ordered []string
	for _, m := range matches {
		if !seen[m] {
			seen[m] = true
			ordered = append(ordered, m)
		}
	}
	return strings.Join(ordered, ", ")
}
