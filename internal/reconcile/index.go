package reconcile

import "reconcile-engine/internal/money"

// side identifies which ledger column an amount came from.
type side int

const (
	sideDebit side = iota
	sideCredit
)

// amountEntry is one (ledger row, side) pair indexed under an absolute
// amount value.
type amountEntry struct {
	ID   LedgerID
	Side side
}

// Index is the phase-1/1.5 lookup structure built once per reconcile call
// (spec.md §4.4). Zero-amount sides and blank references are never
// indexed — they can never participate in a match.
type Index struct {
	ByDate           map[int64][]LedgerID
	ByAmount         map[money.Cents][]amountEntry
	ByReferenceExact map[string][]LedgerID
}

// BuildIndex constructs the three lookup tables over ledger, in a single
// pass, preserving input row order within each bucket.
func BuildIndex(ledger []LedgerRow) *Index {
	idx := &Index{
		ByDate:           make(map[int64][]LedgerID),
		ByAmount:         make(map[money.Cents][]amountEntry),
		ByReferenceExact: make(map[string][]LedgerID),
	}
	for _, row := range ledger {
		if row.HasDate {
			day := dayNumber(row.Date)
			idx.ByDate[day] = append(idx.ByDate[day], row.ID)
		}
		if row.Debit != 0 {
			abs := row.Debit.Abs()
			idx.ByAmount[abs] = append(idx.ByAmount[abs], amountEntry{ID: row.ID, Side: sideDebit})
		}
		if row.Credit != 0 {
			abs := row.Credit.Abs()
			idx.ByAmount[abs] = append(idx.ByAmount[abs], amountEntry{ID: row.ID, Side: sideCredit})
		}
		ref := CanonicalRef(row.Reference)
		if !IsBlankRef(ref) {
			idx.ByReferenceExact[ref] = append(idx.ByReferenceExact[ref], row.ID)
		}
	}
	return idx
}

// SplitIndex is the phase-2 lookup structure, built once per phase-2 run
// over the ledger rows still unmatched at that point (spec.md §4.7.1).
type SplitIndex struct {
	ByDate  map[int64][]LedgerID
	ByWord  map[string]map[LedgerID]bool
	ledgers map[LedgerID]LedgerRow
}

// BuildSplitIndex indexes every still-unmatched ledger row by date and by
// individual reference word (tokens of length >= 3, uppercased). Each
// ByDate bucket lists its ids in ascending order.
func BuildSplitIndex(ledgerByID map[LedgerID]LedgerRow, unmatched map[LedgerID]bool) *SplitIndex {
	idx := &SplitIndex{
		ByDate:  make(map[int64][]LedgerID),
		ByWord:  make(map[string]map[LedgerID]bool),
		ledgers: ledgerByID,
	}
	for _, id := range sortedIDs(unmatched) {
		row, ok := ledgerByID[id]
		if !ok {
			continue
		}
		if row.HasDate {
			day := dayNumber(row.Date)
			idx.ByDate[day] = append(idx.ByDate[day], id)
		}
		for _, tok := range wordTokens(row.Reference) {
			set, ok := idx.ByWord[tok]
			if !ok {
				set = make(map[LedgerID]bool)
				idx.ByWord[tok] = set
			}
			set[id] = true
		}
	}
	return idx
}

// wordTokens splits a reference into uppercased tokens of length >= 3,
// the granularity word-token narrowing operates on (spec.md §4.7.1 step 1).
func wordTokens(s string) []string {
	var toks []string
	start := -1
	upper := []rune(CanonicalRef(s))
	isWord := func(r rune) bool {
		return (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
	}
	flush := func(end int) {
		if start >= 0 && end-start >= 3 {
			toks = append(toks, string(upper[start:end]))
		}
		start = -1
	}
	for i, r := range upper {
		if isWord(r) {
			if start < 0 {
				start = i
			}
		} else {
			flush(i)
		}
	}
	flush(len(upper))
	return toks
}
