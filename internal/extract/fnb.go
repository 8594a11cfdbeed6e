package extract

import (
	"regexp"
	"strings"
)

// FNB is the FNB statement description extractor, grounded on
// original_source/components/fnb_workflow.py's add_reference_tool:
// a fixed ordered pattern list, each tried with a case-insensitive
// search, then a trailing-code strip, then a capitalized-token fallback.
var FNB = RuleSet{
	{regexp.MustCompile(`(?i)FNB APP PAYMENT FROM\s+(.+)`), captureLast},
	// ADT CASH DEPO with a numeric terminal-id prefix before the name.
	{regexp.MustCompile(`(?i)ADT CASH DEPO00882112\s+(.+)`), captureLast},
	{regexp.MustCompile(`(?i)ADT CASH DEPOSIT\s+(.+)`), captureLast},
	{regexp.MustCompile(`(?i)ADT CASH DEPO([A-Z]+)\s+(.+)`), func(_ string, m []string) string { return strings.TrimSpace(m[2]) }},
	{regexp.MustCompile(`(?i)ADT CASH DEPO\w*\s+(.+)`), captureLast},
	{regexp.MustCompile(`(?i)CAPITEC\s+(.+)`), captureLast},
	{regexp.MustCompile(`(?i)ABSA BANK\s+(.+)`), captureLast},
	{regexp.MustCompile(`(?i)NEDBANK\s+(.+)`), captureLast},
	{regexp.MustCompile(`(?i)STANDARD BANK\s+(.+)`), captureLast},
	{regexp.MustCompile(`(?i)^([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*|[a-z]+)$`), captureLast},
}

// captureLast trims and strips a trailing long digit code off the last
// capture group of m.
func captureLast(_ string, m []string) string {
	return stripTrailingCode(strings.TrimSpace(m[len(m)-1]))
}

// FNBReference applies the FNB pattern catalogue, falling back to the
// shared capitalized-token guess, then "UNKNOWN" if nothing matches at
// all (spec.md §4.2, preserving the original's verbatim fallback).
func FNBReference(description string) string {
	desc := strings.TrimSpace(description)
	if ref := FNB.Apply(desc); ref != "" {
		return ref
	}
	if ref := capitalizedTokenFallback(desc); ref != "" {
		return ref
	}
	return "UNKNOWN"
}
