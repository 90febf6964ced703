package main

import (
	"fmt"
	"io"

	"github.com/mattn/go-runewidth"

	"github.com/hyperifyio/textcorpus/internal/dataset"
	"github.com/hyperifyio/textcorpus/internal/pipeline"
)

type row struct {
	label string
	value string
}

// printTable writes label/value rows with the labels padded to one display
// column width.
func printTable(w io.Writer, title string, rows []row) {
	width := 0
	for _, r := range rows {
		if n := runewidth.StringWidth(r.label); n > width {
			width = n
		}
	}
	fmt.Fprintln(w, title)
	for _, r := range rows {
		fmt.Fprintf(w, "  %s  %s\n", runewidth.FillRight(r.label, width), r.value)
	}
}

func printRunSummary(w io.Writer, s pipeline.Stats) {
	printTable(w, "Corpus: "+s.OutputDir, []row{
		{"success", fmt.Sprint(s.Success)},
		{"failed", fmt.Sprint(s.Failed)},
		{"  too short", fmt.Sprint(s.TooShort)},
		{"  duplicates", fmt.Sprint(s.Duplicates)},
		{"excluded", fmt.Sprint(s.Excluded)},
		{"total", fmt.Sprint(s.Total())},
	})
}

func printLedgerSummary(w io.Writer, path string, counts map[string]int) {
	var rows []row
	for _, outcome := range []string{"saved", "failed", "excluded"} {
		rows = append(rows, row{outcome, fmt.Sprint(counts[outcome])})
	}
	printTable(w, "Ledger: "+path, rows)
}

func printDatasetSummary(w io.Writer, dir string, s dataset.Summary) {
	printTable(w, "Dataset: "+dir, []row{
		{"files", fmt.Sprint(s.Files)},
		{"words", fmt.Sprint(s.Words)},
		{"characters", fmt.Sprint(s.Chars)},
		{"size", fmt.Sprintf("%.2f MB", s.MB())},
		{"avg words/file", fmt.Sprint(s.AvgWords)},
	})
}

func printMergeSummary(w io.Writer, r dataset.MergeResult) {
	printTable(w, "Merged into: "+r.OutputDir, []row{
		{"inputs", fmt.Sprint(r.Inputs)},
		{"scanned", fmt.Sprint(r.Scanned)},
		{"written", fmt.Sprint(r.Written)},
		{"duplicates", fmt.Sprint(r.Duplicates)},
	})
}
