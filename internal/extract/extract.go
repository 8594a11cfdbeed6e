// Package extract derives a canonical reference string from a bank
// statement's free-text description column or a ledger's comment column,
// per workflow variant (spec.md §4.2). Each bank's format is
// idiosyncratic; extraction is a fixed, ordered list of regex patterns
// tried in sequence. FNB's statement extractor adds a final fallback that
// guesses a name from capitalized tokens.
package extract

import "regexp"

// Rule is one pattern/extractor pair. Patterns are tried in order;
// the first one that matches wins.
type Rule struct {
	Pattern *regexp.Regexp
	// Extract receives the full description and the submatch slice
	// (as returned by Pattern.FindStringSubmatch) and returns the
	// extracted reference, or "" to signal "try the next rule" even
	// though the pattern matched (e.g. a capture group came back empty).
	Extract func(desc string, m []string) string
}

// RuleSet is an ordered catalogue of rules for one bank's description format.
type RuleSet []Rule

// Apply runs the rules in order against desc and returns the first
// non-empty extraction, or "" if nothing matched.
func (rs RuleSet) Apply(desc string) string {
	for _, r := range rs {
		m := r.Pattern.FindStringSubmatch(desc)
		if m == nil {
			continue
		}
		if v := r.Extract(desc, m); v != "" {
			return v
		}
	}
	return ""
}

var trailingDigitCode = regexp.MustCompile(`\s*\d{10,}$`)

// stripTrailingCode removes a trailing run of 10+ digits, a banking
// code artefact that sometimes rides along with an extracted name.
func stripTrailingCode(s string) string {
	return trailingDigitCode.ReplaceAllString(s, "")
}

var capitalizedWord = regexp.MustCompile(`^[A-Z][a-z]+$|^[A-Z]+$`)

// capitalizedTokenFallback guesses a reference from the last one or two
// capitalized-looking tokens in desc, the fallback FNBReference reaches
// for when no FNB pattern matches (spec.md §4.2).
func capitalizedTokenFallback(desc string) string {
	var names []string
	for _, w := range splitWords(desc) {
		if capitalizedWord.MatchString(w) {
			names = append(names, w)
		}
	}
	if len(names) == 0 {
		return ""
	}
	if len(names) >= 2 {
		return names[len(names)-2] + " " + names[len(names)-1]
	}
	return names[0]
}

func splitWords(s string) []string {
	var words []string
	start := -1
	for i, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			if start >= 0 {
				words = append(words, s[start:i])
				start = -1
			}
		} else if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		words = append(words, s[start:])
	}
	return words
}
