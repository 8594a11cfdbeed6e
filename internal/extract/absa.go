package extract

import (
	"regexp"
	"strings"

	"reconcile-engine/internal/money"
)

var (
	absaFeePattern     = regexp.MustCompile(`\(\s*(\d+),(\d+)\s*\)`)
	absaPayShap        = regexp.MustCompile(`(?i)PayShap\s+Ext\s+Credit\s+([A-Z]\s+[A-Za-z]+)`)
	absaACBCredit      = regexp.MustCompile(`(?i)ACB\s+CREDIT\s+(?:CAPITEC?|CAPITE[C]?)\s+([A-Z]\s+[A-Za-z]+)`)
	absaDigitalPayment = regexp.MustCompile(`(?i)DIGITAL\s+PAYMENT\s+CR\s+ABSA\s+BANK\s+([A-Z][a-zA-Z0-9]+(?:\s+[A-Z][a-zA-Z0-9]+)*)`)
	absaDepositNo      = regexp.MustCompile(`(?i)DEPOSIT\s+NO\s*:\s*([a-zA-Z0-9]+(?:\s+[a-zA-Z0-9]+)*?)(?:\s+CONTACT\s*:|$)`)
	absaBankName       = regexp.MustCompile(`(?i)ABSA\s+BANK\s+([A-Z][a-zA-Z0-9]+(?:\s+[A-Z][a-zA-Z0-9]+)*)`)
	absaContact        = regexp.MustCompile(`(?i)CONTACT\s*:\s*(\d+)`)
)

// ABSAReferenceAndFee extracts the reference and the statement's fee
// amount from an ABSA statement description, grounded on
// original_source/components/absa_workflow.py's extract_absa_data.
// Exact pattern order matters (spec.md §9 Design Notes): PayShap, then
// ACB CREDIT, then DIGITAL PAYMENT, then DEPOSIT NO, then ABSA BANK,
// then a bare CONTACT number.
func ABSAReferenceAndFee(description string) (reference string, fee money.Cents) {
	desc := strings.TrimSpace(description)

	if m := absaFeePattern.FindStringSubmatch(desc); m != nil {
		fee = money.ParseAmount(m[1] + "." + m[2])
	}

	if strings.Contains(strings.ToUpper(desc), "STAMPED STATEMENT") {
		return "", fee
	}

	if m := absaPayShap.FindStringSubmatch(desc); m != nil {
		return strings.ToUpper(strings.TrimSpace(m[1])), fee
	}
	if m := absaACBCredit.FindStringSubmatch(desc); m != nil {
		return strings.ToUpper(strings.TrimSpace(m[1])), fee
	}
	if m := absaDigitalPayment.FindStringSubmatch(desc); m != nil {
		return strings.TrimSpace(m[1]), fee
	}
	if m := absaDepositNo.FindStringSubmatch(desc); m != nil {
		return strings.TrimSpace(m[1]), fee
	}
	if m := absaBankName.FindStringSubmatch(desc); m != nil {
		return strings.TrimSpace(m[1]), fee
	}
	if m := absaContact.FindStringSubmatch(desc); m != nil {
		return strings.TrimSpace(m[1]), fee
	}

	return "UNKNOWN", fee
}
