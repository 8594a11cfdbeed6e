// Package reconcile implements the bank-statement reconciliation core:
// index construction, the four matching phases, the split subset-sum
// DP, and result assembly (spec.md §4, components C4-C9).
package reconcile

import (
	"strings"
	"time"

	"reconcile-engine/internal/money"
)

// LedgerID is a stable integer identity for a ledger row, an arena index
// rather than a pointer — phases hand sets of ids around and union/
// intersect them, per the Design Notes in spec.md §9.
type LedgerID uint32

// StatementID is the statement-side analogue of LedgerID.
type StatementID uint32

// LedgerRow is one internal bookkeeping entry. Either Debit or Credit may
// be populated, both, or neither — real-world data, spec.md §3.
type LedgerRow struct {
	ID      LedgerID
	Date    time.Time
	HasDate bool
	// Reference is the canonical reference string as supplied by the
	// caller (already extracted, if extraction applies); comparisons
	// always go through CanonicalRef.
	Reference string
	Debit     money.Cents
	Credit    money.Cents
	// Extra carries passthrough source columns keyed by column name
	// without widening LedgerRow itself; Workflow.Run reads "comment" from
	// it. The assembled Result carries row ids only and does not include
	// these columns.
	Extra map[string]string
}

// StatementRow is one bank-issued transaction with a single signed amount.
type StatementRow struct {
	ID        StatementID
	Date      time.Time
	HasDate   bool
	Reference string
	Amount    money.Cents
	Extra     map[string]string
}

// AmountMode controls which ledger amount column a statement amount is
// compared against, per spec.md §3.
type AmountMode int

const (
	AmountBoth AmountMode = iota
	AmountDebitsOnly
	AmountCreditsOnly
)

// Settings configures matcher behaviour, spec.md §3.
type Settings struct {
	MatchDates          bool
	DateTolerance       bool
	MatchReferences     bool
	FuzzyRef            bool
	SimilarityThreshold int
	MatchAmounts        bool
	AmountMode          AmountMode

	// DisableSplitHeuristic turns off the 95%-match-rate skip documented
	// as an Open Question in spec.md §9: the original silently skips
	// split detection once the cumulative match rate is high, a
	// performance heuristic that changes results. Defaults to false
	// (heuristic active, parity with the original).
	DisableSplitHeuristic bool

	// MaxSplitCardinality bounds the subset-sum DP (spec.md §4.7.3, default 6).
	MaxSplitCardinality int
	// MaxManyToOneSplits is the global cap on splits per run (spec.md §4.7.1, default 100),
	// applied separately to phase-2 many-to-one and phase-2B one-to-many splits.
	MaxManyToOneSplits int
	// MaxGroupSize bounds how many same-reference candidates the DP ever sees (spec.md §4.7.1 step 4, default 20).
	MaxGroupSize int

	// ForeignCreditThreshold is the amount magnitude (in cents) above which
	// a row is eligible for Phase-1.5 matching (spec.md §4.6, default
	// 10000·100 — strictly greater than, per boundary test in spec.md §8).
	ForeignCreditThreshold money.Cents

	// ProgressEvery triggers the progress callback every N statement rows
	// processed inside phase 1, in addition to phase boundaries.
	ProgressEvery int
	// OnProgress is invoked with (percent, stage); may be nil.
	OnProgress func(percent int, stage string)
}

// DefaultSettings returns the engine's baseline configuration.
func DefaultSettings() Settings {
	return Settings{
		MatchDates:             true,
		DateTolerance:          false,
		MatchReferences:        true,
		FuzzyRef:               true,
		SimilarityThreshold:    85,
		MatchAmounts:           true,
		AmountMode:             AmountBoth,
		DisableSplitHeuristic:  false,
		MaxSplitCardinality:    6,
		MaxManyToOneSplits:     100,
		MaxGroupSize:           20,
		ForeignCreditThreshold: 1_000_000, // 10,000.00
		ProgressEvery:          200,
	}
}

func (s Settings) normalized() Settings {
	if s.SimilarityThreshold == 0 {
		s.SimilarityThreshold = 85
	}
	if s.MaxSplitCardinality == 0 {
		s.MaxSplitCardinality = 6
	}
	if s.MaxManyToOneSplits == 0 {
		s.MaxManyToOneSplits = 100
	}
	if s.MaxGroupSize == 0 {
		s.MaxGroupSize = 20
	}
	if s.ForeignCreditThreshold == 0 {
		s.ForeignCreditThreshold = 1_000_000
	}
	return s
}

// MatchKind classifies a one-to-one match.
type MatchKind int

const (
	Perfect MatchKind = iota
	Fuzzy
	ForeignCredit
)

func (k MatchKind) String() string {
	switch k {
	case Perfect:
		return "perfect"
	case Fuzzy:
		return "fuzzy"
	case ForeignCredit:
		return "foreign_credit"
	default:
		return "unknown"
	}
}

// Match is a one-to-one classification result.
type Match struct {
	Kind        MatchKind
	Score       int
	LedgerID    LedgerID
	StatementID StatementID
}

// SplitKind distinguishes the two split shapes.
type SplitKind int

const (
	SplitManyToOne SplitKind = iota // one statement row <- many ledger rows
	SplitOneToMany                  // one ledger row <- many statement rows
)

func (k SplitKind) String() string {
	if k == SplitManyToOne {
		return "many_to_one"
	}
	return "one_to_many"
}

// Split is a group-match result: a subset on one side summing to a
// single row on the other side, spec.md §3.
type Split struct {
	Kind  SplitKind
	Score int

	// Populated when Kind == SplitManyToOne.
	StatementID StatementID
	LedgerIDs   []LedgerID

	// Populated when Kind == SplitOneToMany.
	LedgerID     LedgerID
	StatementIDs []StatementID
}

// Counts are the aggregate tallies spec.md §4.9 requires.
type Counts struct {
	Perfect           int
	Fuzzy             int
	ForeignCredit     int
	Split             int
	TotalMatched      int
	UnmatchedLedger   int
	UnmatchedStatement int
}

// Diagnostics carries non-fatal operational detail (spec.md §4.9, §7).
type Diagnostics struct {
	PhaseDurations   map[string]time.Duration
	FuzzyCacheHits   int
	FuzzyCacheMisses int
	Notices          []string
	// FailureReason is set only for engine-level configuration errors
	// (spec.md §7, category 1); when set, no phases ran and Result's
	// tables are all empty/unmatched.
	FailureReason string
}

// Result is the complete reconciliation output, spec.md §6.
type Result struct {
	Matched            []Match
	Splits             []Split
	UnmatchedLedger    []LedgerID
	UnmatchedStatement []StatementID
	Counts             Counts
	Diagnostics        Diagnostics
}

// CanonicalRef normalizes a reference for exact comparison: uppercased,
// trimmed. Used for index keys, Perfect-match equality, and split grouping.
func CanonicalRef(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// blankReferences must never match each other (spec.md §8 boundary behaviours).
var blankReferences = map[string]bool{
	"":     true,
	"NAN":  true,
	"NONE": true,
	"NULL": true,
	"0":    true,
}

// IsBlankRef reports whether a canonical reference counts as "no reference".
func IsBlankRef(canonical string) bool {
	return blankReferences[canonical]
}

func dayNumber(t time.Time) int64 {
	return t.Unix() / 86400
}
