// Command seed generates ledger/statement CSV fixtures exercising the
// engine's matching scenarios, grounded on pramudityad/golang-
// reconciliation-service's testdata/generators (ScenarioGenerator):
// flag-driven scenario selection, a fixed seed for reproducibility, and
// one CSV pair per scenario.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"time"
)

func main() {
	var (
		outputDir = flag.String("output-dir", "generated_scenarios", "output directory for fixture files")
		seed      = flag.Int64("seed", 1, "random seed for reproducible generation")
		scenario  = flag.String("scenario", "all", "scenario to generate: all, perfect, fuzzy, foreign-credit, split, corporate")
	)
	flag.Parse()

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("failed to create output directory: %v", err)
	}
	rand.Seed(*seed)

	g := &generator{outputDir: *outputDir}

	switch *scenario {
	case "perfect":
		g.perfectMatch()
	case "fuzzy":
		g.fuzzyReference()
	case "foreign-credit":
		g.foreignCredit()
	case "split":
		g.manyToOneSplit()
	case "corporate":
		g.corporateFiveBatch()
	case "all":
		g.perfectMatch()
		g.fuzzyReference()
		g.foreignCredit()
		g.manyToOneSplit()
		g.corporateFiveBatch()
	default:
		log.Fatalf("unknown scenario: %s", *scenario)
	}

	fmt.Printf("Generated fixtures in %s (seed %d)\n", *outputDir, *seed)
}

type generator struct {
	outputDir string
}

// perfectMatch writes a ledger/statement pair whose rows agree on date,
// reference and amount exactly (spec.md §8 Scenario A).
func (g *generator) perfectMatch() {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	ledger := [][]string{{"date", "reference", "debit", "credit"}}
	statement := [][]string{{"date", "reference", "amount"}}
	for i := 0; i < 20; i++ {
		d := base.AddDate(0, 0, i).Format("2006-01-02")
		ref := fmt.Sprintf("INV%04d", 1000+i)
		amount := fmt.Sprintf("%.2f", 100.00+float64(i))
		ledger = append(ledger, []string{d, ref, amount, "0.00"})
		statement = append(statement, []string{d, ref, amount})
	}
	g.writeCSV("perfect_ledger.csv", ledger)
	g.writeCSV("perfect_statement.csv", statement)
}

// fuzzyReference writes a ledger/statement pair whose references differ
// by a small typo, requiring Levenshtein-ratio resolution (spec.md §8
// Scenario B).
func (g *generator) fuzzyReference() {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	pairs := [][2]string{
		{"JOHN SMITH", "JHON SMITH"},
		{"ACME CORP", "ACME CORPP"},
		{"BETA TRADING", "BETA TRDING"},
	}
	ledger := [][]string{{"date", "reference", "debit", "credit"}}
	statement := [][]string{{"date", "reference", "amount"}}
	for i, p := range pairs {
		d := base.AddDate(0, 0, i).Format("2006-01-02")
		amount := fmt.Sprintf("%.2f", 250.00+float64(i*10))
		ledger = append(ledger, []string{d, p[0], amount, "0.00"})
		statement = append(statement, []string{d, p[1], amount})
	}
	g.writeCSV("fuzzy_ledger.csv", ledger)
	g.writeCSV("fuzzy_statement.csv", statement)
}

// foreignCredit writes rows above the foreign-credit threshold with no
// shared reference (spec.md §4.3).
func (g *generator) foreignCredit() {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	ledger := [][]string{{"date", "reference", "debit", "credit"}}
	statement := [][]string{{"date", "reference", "amount"}}
	for i := 0; i < 5; i++ {
		d := base.AddDate(0, 0, i).Format("2006-01-02")
		amount := fmt.Sprintf("%.2f", 15000.00+float64(i*1000))
		ledger = append(ledger, []string{d, "", amount, "0.00"})
		statement = append(statement, []string{d, "", amount})
	}
	g.writeCSV("foreign_credit_ledger.csv", ledger)
	g.writeCSV("foreign_credit_statement.csv", statement)
}

// manyToOneSplit writes several ledger debits that sum to one statement
// credit sharing the same reference and date (spec.md §4.7.1).
func (g *generator) manyToOneSplit() {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	d := base.Format("2006-01-02")
	ledger := [][]string{
		{"date", "reference", "debit", "credit"},
		{d, "BULK PAYMENT 77", "300.00", "0.00"},
		{d, "BULK PAYMENT 77", "200.00", "0.00"},
	}
	statement := [][]string{
		{"date", "reference", "amount"},
		{d, "BULK PAYMENT 77", "500.00"},
	}
	g.writeCSV("split_ledger.csv", ledger)
	g.writeCSV("split_statement.csv", statement)
}

// corporateFiveBatch writes a flat Corporate-workflow table (spec.md
// §4.8): one correcting-journal pair, one exact match, one FD+commission
// pair.
func (g *generator) corporateFiveBatch() {
	rows := [][]string{
		{"reference", "foreign_debit", "foreign_credit", "journal", "comment"},
		{"INV200", "100.00", "", "157158", ""},
		{"Correcting J157158", "", "100.00", "", "Correcting J157158"},
		{"ACME", "250.00", "", "", ""},
		{"ACME", "", "250.00", "", ""},
		{"BETA", "255.00", "", "", ""},
		{"BETA", "", "250.00", "", ""},
	}
	g.writeCSV("corporate.csv", rows)
}

func (g *generator) writeCSV(name string, rows [][]string) {
	path := filepath.Join(g.outputDir, name)
	f, err := os.Create(path)
	if err != nil {
		log.Fatalf("failed to create %s: %v", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		log.Fatalf("failed to write %s: %v", path, err)
	}
	w.Flush()
}
