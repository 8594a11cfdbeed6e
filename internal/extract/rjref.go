package extract

import (
	"regexp"
	"strings"
)

// rjOrTx matches an RJ- or TX-prefixed reference number (6+ digits, an
// optional dash), the reference shape ABSA's ledger tool keys off
// (original_source/components/absa_workflow.py's extract_rj_and_ref).
var rjOrTx = regexp.MustCompile(`(?i)(RJ|TX)-?(\d{6,})`)
var paymentRefLabel = regexp.MustCompile(`(?i)Payment Ref[#:]?\s*([\w\s\-.,&]+)`)

// RJAndRef extracts (rjNumber, paymentRef) from an ABSA ledger comment:
//  1. find an RJ/TX reference number, if any.
//  2. a "Payment Ref:" label always wins for the payment reference.
//  3. otherwise, take whatever follows the RJ/TX number up to the next
//     comma or newline.
//  4. otherwise, the whole trimmed comment is the payment reference.
func RJAndRef(comment string) (rj string, payRef string) {
	return extractIDAndRef(comment, rjOrTx)
}

// KazangRJAndRef is RJAndRef's Kazang variant: the identifier prefix set
// is widened to RJ/CSH/TX/ZVC/ECO/INN, per spec.md §4.2.
func KazangRJAndRef(comment string) (id string, payRef string) {
	return extractIDAndRef(comment, kazangID)
}

func extractIDAndRef(comment string, idPattern *regexp.Regexp) (id string, payRef string) {
	if comment == "" {
		return "", ""
	}

	idMatch := idPattern.FindStringSubmatchIndex(comment)
	if idMatch != nil {
		id = strings.ToUpper(strings.ReplaceAll(comment[idMatch[0]:idMatch[1]], "-", ""))
	}

	if m := paymentRefLabel.FindStringSubmatch(comment); m != nil {
		return id, strings.TrimSpace(m[1])
	}

	if idMatch != nil {
		after := comment[idMatch[1]:]
		after = strings.TrimLeft(after, " .:-#()")
		cut := strings.IndexAny(after, ",\n\r")
		if cut >= 0 {
			after = after[:cut]
		}
		after = strings.TrimRight(after, ")")
		return id, strings.TrimRight(strings.TrimSpace(after), ". ")
	}

	return id, strings.TrimSpace(comment)
}
