package models

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EvalRun is one recorded evaluation outcome. History is append-only and
// never consulted during scoring; every run computes its scores fresh.
type EvalRun struct {
	UUID      uuid.UUID      `json:"uuid"`
	CreatedAt time.Time      `json:"created_at"`
	Split     string         `json:"split"`
	WikiMode  bool           `json:"wiki_mode"`
	Precision float64        `json:"precision"`
	Recall    float64        `json:"recall"`
	F1        float64        `json:"f1"`
	Restarts  int            `json:"restart_count"`
	Pairs     int            `json:"pairs"`
	Skipped   int            `json:"skipped_pairs"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

type RunStore interface {
	CreateRun(ctx context.Context, run *EvalRun) error
	ListRuns(ctx context.Context, limit int) ([]EvalRun, error)
	Close() error
}
