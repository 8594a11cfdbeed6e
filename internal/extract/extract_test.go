package extract

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFNBReference(t *testing.T) {
	require.Equal(t, "John Dube", FNBReference("FNB APP PAYMENT FROM John Dube"))
	require.Equal(t, "Thabo Mokoena", FNBReference("ADT CASH DEPOSIT Thabo Mokoena"))
	require.Equal(t, "UNKNOWN", FNBReference("###!!!"))
}

func TestFNBReference_StripsTrailingCode(t *testing.T) {
	got := FNBReference("CAPITEC Jane Ndlovu 1234567890123")
	require.Equal(t, "Jane Ndlovu", got)
}

func TestABSAReferenceAndFee(t *testing.T) {
	ref, fee := ABSAReferenceAndFee("ACB CREDIT CAPITEC K KWIYO")
	require.Equal(t, "K KWIYO", ref)
	require.Equal(t, int64(0), int64(fee))

	ref, fee = ABSAReferenceAndFee("PayShap Ext Credit P NCUBE")
	require.Equal(t, "P NCUBE", ref)
	require.Equal(t, int64(0), int64(fee))
}

func TestABSAStampedStatementHasNoReference(t *testing.T) {
	ref, fee := ABSAReferenceAndFee("STAMPED STATEMENT ( 13,00 )")
	require.Equal(t, "", ref)
	require.Equal(t, int64(1300), int64(fee))
}

func TestABSADepositNo(t *testing.T) {
	ref, _ := ABSAReferenceAndFee("DEPOSIT NO : linda CONTACT : 0821234567")
	require.Equal(t, "linda", ref)
}

func TestBidvestReference_DedupAndJoin(t *testing.T) {
	got := BidvestReference("Payment RJ12345678901 processed, ref RJ12345678901 again, also RJ98765432109")
	require.Equal(t, "RJ12345678901, RJ98765432109", got)
}

func TestBidvestReference_NoMatch(t *testing.T) {
	require.Equal(t, "", BidvestReference("no codes here"))
}

func TestCorporateReference_CorrectingVerbatim(t *testing.T) {
	got := CorporateReference("Correcting J157158")
	require.Equal(t, "Correcting J157158", got)
}

func TestCorporateReference_RJAndTX(t *testing.T) {
	got := CorporateReference("RJ49465028731 and TX32749881276")
	require.Equal(t, "RJ49465028731, TX32749881276", got)
}

func TestCorporateReference_StandaloneJFive(t *testing.T) {
	got := CorporateReference("adjustment J12345 booked")
	require.Contains(t, got, "J12345")
}

func TestKazangRJNumber(t *testing.T) {
	require.Equal(t, "CSH667941330", KazangRJNumber("Ref CSH667941330 - (6503065718)"))
	require.Equal(t, "RJ58822828410", KazangRJNumber("Ref #RJ58822828410. - Gugu 6408370691"))
}

func TestKazangPaymentRef(t *testing.T) {
	require.Equal(t, "Gugu", KazangPaymentRef("Ref #RJ58822828410. - Gugu 6408370691"))
}

func TestKazangPaymentRef_PhoneAfterColon(t *testing.T) {
	require.Equal(t, "6505166670", KazangPaymentRef("Reversal: CSH564980448: 6505166670"))
}

func TestKazangPaymentRef_PhoneInParens(t *testing.T) {
	require.Equal(t, "6503065718", KazangPaymentRef("Ref CSH667941330 - (6503065718)"))
}

func TestRJAndRef_PaymentRefLabelWins(t *testing.T) {
	rj, payref := RJAndRef("RJ123456 Payment Ref: Acme Corp Ltd")
	require.Equal(t, "RJ123456", rj)
	require.Equal(t, "Acme Corp Ltd", payref)
}

func TestRJAndRef_FallsBackToWholeComment(t *testing.T) {
	rj, payref := RJAndRef("just a plain note")
	require.Equal(t, "", rj)
	require.Equal(t, "just a plain note", payref)
}
