package models

import "time"

type Split string

const (
	SplitDev  Split = "dev"
	SplitTest Split = "test"
)

// ScoreReport is the outcome of one evaluation run: corpus-level structural
// match scores plus the counts they were derived from. Precision, recall and
// F1 are micro-averages over all scored pairs, rounded to the configured
// number of significant digits.
type ScoreReport struct {
	Split     Split     `json:"split"`
	WikiMode  bool      `json:"wiki_mode"`
	Precision float64   `json:"precision"`
	Recall    float64   `json:"recall"`
	F1        float64   `json:"f1"`
	Restarts  int       `json:"restart_count"`
	Matched   int       `json:"matched_triples"`
	Candidate int       `json:"candidate_triples"`
	Reference int       `json:"reference_triples"`
	Pairs     int       `json:"pairs"`
	Skipped   int       `json:"skipped_pairs"`
	CreatedAt time.Time `json:"created_at"`
}
