// Package report renders scoring results as CSV files and console summaries.
package report

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"espre/internal/ml"
	"espre/internal/storage"

	"github.com/gocarina/gocsv"
)

// FlaggedNote marks results above the flag threshold.
const FlaggedNote = "Flagged High Risk"

// Probability renders with four decimals.
type Probability float64

func (p Probability) MarshalCSV() (string, error) {
	return strconv.FormatFloat(float64(p), 'f', 4, 64), nil
}

// Row is one line of the result CSV.
type Row struct {
	SampleID    string      `csv:"Sample_ID"`
	Prediction  string      `csv:"Prediction"`
	Probability Probability `csv:"Probability"`
	Note        string      `csv:"Note"`
}

// NewRow renders a result with the classifier's display names.
func NewRow(res ml.PredictionResult, c ml.Classifier) Row {
	row := Row{
		SampleID:    res.SampleID,
		Prediction:  c.DisplayName(res.Label),
		Probability: Probability(res.Probability),
	}
	if res.Flagged {
		row.Note = FlaggedNote
	}
	return row
}

// WriteCSV writes the header and rows.
func WriteCSV(w io.Writer, rows []Row) error {
	if err := gocsv.Marshal(&rows, w); err != nil {
		return fmt.Errorf("write result csv: %w", err)
	}
	return nil
}

// WriteFile creates path and writes rows to it.
func WriteFile(path string, rows ...Row) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create result file: %w", err)
	}
	if err := WriteCSV(f, rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

const (
	ansiRed   = "\033[1;31m"
	ansiGreen = "\033[1;32m"
	ansiReset = "\033[0m"
)

// PrintSummary writes the human-readable result block. With color, a
// positive prediction is red and a negative one green.
func PrintSummary(w io.Writer, res ml.PredictionResult, c ml.Classifier, color bool) {
	rule := strings.Repeat("=", 40)
	name := c.DisplayName(res.Label)
	if color {
		code := ansiGreen
		if res.Label == ml.Positive {
			code = ansiRed
		}
		name = code + name + ansiReset
	}

	fmt.Fprintf(w, "\n%s\n", rule)
	fmt.Fprintf(w, "  Sample: %s\n", res.SampleID)
	fmt.Fprintf(w, "  Prediction: %s\n", name)
	fmt.Fprintf(w, "  %s Probability: %.4f\n", c.DisplayName(ml.Positive), res.Probability)
	if res.Flagged {
		fmt.Fprintf(w, "  Note: %s\n", FlaggedNote)
	}
	fmt.Fprintf(w, "%s\n\n", rule)
}

// HistoryRow is one stored result as listed by the history command.
type HistoryRow struct {
	Timestamp    string      `csv:"Timestamp"`
	SampleID     string      `csv:"Sample_ID"`
	Prediction   string      `csv:"Prediction"`
	Probability  Probability `csv:"Probability"`
	Flagged      bool        `csv:"Flagged"`
	ModelVersion string      `csv:"Model_Version"`
	RunID        string      `csv:"Run_ID"`
}

// WriteHistory lists ledger records as CSV, timestamps in UTC RFC 3339.
func WriteHistory(w io.Writer, recs []storage.ResultRecord) error {
	rows := make([]HistoryRow, len(recs))
	for i, r := range recs {
		rows[i] = HistoryRow{
			Timestamp:    r.Timestamp.UTC().Format(time.RFC3339),
			SampleID:     r.SampleID,
			Prediction:   r.Prediction,
			Probability:  Probability(r.Probability),
			Flagged:      r.Flagged,
			ModelVersion: r.ModelVersion,
			RunID:        r.RunID,
		}
	}
	if err := gocsv.Marshal(&rows, w); err != nil {
		return fmt.Errorf("write history csv: %w", err)
	}
	return nil
}
