package workflow

import (
	"fmt"
	"sort"
	"time"

	"reconcile-engine/internal/extract"
	"reconcile-engine/internal/money"
	"reconcile-engine/internal/reconcile"
)

// CorporateRow is the Corporate workflow's flat input shape: one table
// carrying both debit and credit legs, a journal number, and a free-text
// comment (spec.md §4.8, §6).
type CorporateRow struct {
	ID            uint32
	Date          time.Time
	HasDate       bool
	Reference     string
	ForeignDebit  money.Cents
	ForeignCredit money.Cents
	Journal       string
	Comment       string
}

// CorporateBatch names which of the five batches a pair was resolved in.
type CorporateBatch int

const (
	BatchCorrecting CorporateBatch = iota
	BatchExact
	BatchFDCommission
	BatchFCCommission
	BatchRateDifference
)

func (b CorporateBatch) String() string {
	switch b {
	case BatchCorrecting:
		return "correcting_journal"
	case BatchExact:
		return "exact_match"
	case BatchFDCommission:
		return "fd_plus_commission"
	case BatchFCCommission:
		return "fc_plus_commission"
	case BatchRateDifference:
		return "rate_difference"
	default:
		return "unknown"
	}
}

// CorporatePair is one resolved pairing. For BatchCorrecting, RowIDs is
// [matchedRowID, correctingRowID] in that order; for every other batch
// it is [debitRowID, creditRowID].
type CorporatePair struct {
	Batch  CorporateBatch
	RowIDs [2]uint32
}

// CorporateResult is the Corporate five-batch matcher's output.
type CorporateResult struct {
	Pairs     []CorporatePair
	Unmatched []uint32
}

// commissionFloor is the minimum difference (in cents) that promotes a
// pairing from "exact" to "plus commission": 1.00 (spec.md §4.8).
const commissionFloor = money.Cents(100)

// RunCorporate executes the five-batch matcher (spec.md §4.8), the
// Corporate workflow's replacement for the phased engine. Batches run in
// order and a row enters at most one; B1 (correcting journals) is
// resolved first, then B2-B5 operate within same-reference groups built
// from whatever B1 left behind, with blank references replaced by a
// per-row unique marker so they never collide with each other.
func RunCorporate(rows []CorporateRow) CorporateResult {
	matched := make(map[uint32]bool, len(rows))
	byID := make(map[uint32]CorporateRow, len(rows))
	for _, r := range rows {
		byID[r.ID] = r
	}

	var pairs []CorporatePair

	byJournal := make(map[string][]uint32)
	for _, r := range rows {
		if r.Journal != "" {
			byJournal[r.Journal] = append(byJournal[r.Journal], r.ID)
		}
	}
	for _, r := range rows {
		if matched[r.ID] || !extract.IsCorrectingJournal(r.Reference) {
			continue
		}
		num := extract.CorrectingJournalNumber(r.Reference)
		if num == "" {
			continue
		}
		for _, candID := range byJournal[num] {
			if candID == r.ID || matched[candID] {
				continue
			}
			pairs = append(pairs, CorporatePair{Batch: BatchCorrecting, RowIDs: [2]uint32{candID, r.ID}})
			matched[candID] = true
			matched[r.ID] = true
			break
		}
	}

	groups := make(map[string][]uint32)
	var groupOrder []string
	for _, r := range rows {
		if matched[r.ID] {
			continue
		}
		key := reconcile.CanonicalRef(r.Reference)
		if reconcile.IsBlankRef(key) {
			key = fmt.Sprintf("__blank_%d", r.ID)
		}
		if _, ok := groups[key]; !ok {
			groupOrder = append(groupOrder, key)
		}
		groups[key] = append(groups[key], r.ID)
	}
	sort.Strings(groupOrder)

	runBatch := func(batch CorporateBatch, predicate func(debit, credit money.Cents) bool) {
		for _, key := range groupOrder {
			ids := groups[key]
			var debits, credits []uint32
			for _, id := range ids {
				if matched[id] {
					continue
				}
				r := byID[id]
				if r.ForeignDebit > 0 {
					debits = append(debits, id)
				}
				if r.ForeignCredit > 0 {
					credits = append(credits, id)
				}
			}
			for _, did := range debits {
				if matched[did] {
					continue
				}
				for _, cid := range credits {
					if matched[cid] || cid == did {
						continue
					}
					if predicate(byID[did].ForeignDebit, byID[cid].ForeignCredit) {
						pairs = append(pairs, CorporatePair{Batch: batch, RowIDs: [2]uint32{did, cid}})
						matched[did] = true
						matched[cid] = true
						break
					}
				}
			}
		}
	}

	runBatch(BatchExact, func(d, c money.Cents) bool { return absDiff(d, c) < 1 })
	runBatch(BatchFDCommission, func(d, c money.Cents) bool { return d-c >= commissionFloor })
	runBatch(BatchFCCommission, func(d, c money.Cents) bool { return c-d >= commissionFloor })
	runBatch(BatchRateDifference, func(d, c money.Cents) bool {
		diff := absDiff(d, c)
		return diff >= 1 && diff < commissionFloor
	})

	var unmatched []uint32
	for _, r := range rows {
		if !matched[r.ID] {
			unmatched = append(unmatched, r.ID)
		}
	}
	sort.Slice(unmatched, func(i, j int) bool { return unmatched[i] < unmatched[j] })

	return CorporateResult{Pairs: pairs, Unmatched: unmatched}
}

func absDiff(a, b money.Cents) money.Cents {
	d := a - b
	return d.Abs()
}

// ValidateCorporate checks the data-integrity invariant spec.md §4.8
// requires: total debits and total credits are preserved across the
// output, and every input row appears in exactly one bucket.
func ValidateCorporate(rows []CorporateRow, result CorporateResult) bool {
	var wantDebit, wantCredit, gotDebit, gotCredit money.Cents
	byID := make(map[uint32]CorporateRow, len(rows))
	seen := make(map[uint32]bool, len(rows))
	for _, r := range rows {
		byID[r.ID] = r
		wantDebit += r.ForeignDebit
		wantCredit += r.ForeignCredit
	}

	countSeen := func(id uint32) {
		if seen[id] {
			return
		}
		seen[id] = true
		r := byID[id]
		gotDebit += r.ForeignDebit
		gotCredit += r.ForeignCredit
	}
	for _, p := range result.Pairs {
		countSeen(p.RowIDs[0])
		countSeen(p.RowIDs[1])
	}
	for _, id := range result.Unmatched {
		countSeen(id)
	}

	if len(seen) != len(rows) {
		return false
	}
	if absDiff(wantDebit, gotDebit) > 1 {
		return false
	}
	if absDiff(wantCredit, gotCredit) > 1 {
		return false
	}
	return true
}
