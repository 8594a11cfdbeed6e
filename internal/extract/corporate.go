package extract

import (
	"regexp"
	"strings"
)

var (
	corporateCorrectingWord = regexp.MustCompile(`(?i)(?:^|\b)[A-Za-z]+\s+J\d{5}\b`)
	corporateRJEleven       = regexp.MustCompile(`RJ\d{11}`)
	corporateTXEleven       = regexp.MustCompile(`TX\d{11}`)
	corporateJFive          = regexp.MustCompile(`(?:^|[^RT])(J\d{5})\b`)
)

// CorporateReference extracts references from a Corporate-workflow ledger
// comment, grounded on original_source/components/corporate_workflow.py's
// extract_references: manual correcting journals are passed through
// verbatim, everything else contributes RJ<11>/TX<11>/standalone J<5>
// occurrences joined with ", " (spec.md §4.2).
func CorporateReference(comment string) string {
	if strings.Contains(comment, "Correcting") {
		return comment
	}
	if corporateCorrectingWord.MatchString(comment) && !strings.HasPrefix(strings.ToUpper(strings.TrimSpace(comment)), "RJ") && !strings.HasPrefix(strings.ToUpper(strings.TrimSpace(comment)), "TX") {
		return comment
	}

	var all []string
	all = append(all, corporateRJEleven.FindAllString(comment, -1)...)
	all = append(all, corporateTXEleven.FindAllString(comment, -1)...)
	for _, m := range corporateJFive.FindAllStringSubmatch(comment, -1) {
		all = append(all, m[1])
	}

	if len(all) == 0 {
		return ""
	}
	return strings.Join(all, ", ")
}

// IsCorrectingJournal reports whether a ledger comment denotes a manual
// correcting/adjusting journal entry — the anchor for Corporate Batch 1
// (spec.md §4.8).
func IsCorrectingJournal(comment string) bool {
	return strings.Contains(comment, "Correcting")
}

var correctingJournalNumber = regexp.MustCompile(`(?i)J(\d+)`)

// CorrectingJournalNumber extracts the numeric journal id from a
// "Correcting J157158"-shaped comment, or "" if absent.
func CorrectingJournalNumber(comment string) string {
	m := correctingJournalNumber.FindStringSubmatch(comment)
	if m == nil {
		return ""
	}
	return m[1]
}
