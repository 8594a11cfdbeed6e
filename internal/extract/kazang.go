package extract

import (
	"regexp"
	"strings"
)

var kazangID = regexp.MustCompile(`(?i)#?(RJ|CSH|TX|ZVC|ECO|INN)-?(\d{6,})`)

// KazangRJNumber extracts a bank identifier (RJ/CSH/TX/ZVC/ECO/INN plus
// digits) from a Kazang ledger comment, grounded on
// original_source/components/kazang_workflow.py's extract_rj (spec.md §4.2).
func KazangRJNumber(comment string) string {
	m := kazangID.FindStringSubmatch(comment)
	if m == nil {
		return ""
	}
	return strings.ToUpper(m[1]) + m[2]
}

// KazangPaymentRef extracts the payment reference from a Kazang ledger
// comment: the name when a name precedes the phone number, otherwise the
// phone number. It reads the post-identifier tail via KazangRJAndRef
// ("Ref CSH... - (phone)", "Reversal: CSH...: phone", "Ref #RJ... - name
// phone"), stopping at the first comma/newline, then drops a trailing
// phone-number token (9+ digits) when other tokens precede it
// (spec.md §4.2).
func KazangPaymentRef(comment string) string {
	_, payRef := KazangRJAndRef(comment)
	fields := strings.Fields(payRef)
	if n := len(fields); n > 1 && len(fields[n-1]) >= 9 && strings.Trim(fields[n-1], "0123456789") == "" {
		return strings.Join(fields[:n-1], " ")
	}
	return payRef
}
