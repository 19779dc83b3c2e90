package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/amrlabs/amrd/config"
	"github.com/amrlabs/amrd/internal"
	"github.com/amrlabs/amrd/pkg/models"
)

var log = internal.GetLogger()

const defaultListLimit = 20

// EvalRunSchema is the evaluation history table. Rows are append-only; the
// scoring pipeline never reads them back.
type EvalRunSchema struct {
	bun.BaseModel `bun:"table:eval_run,alias:er"`

	UUID      uuid.UUID      `bun:",pk,type:uuid"`
	CreatedAt time.Time      `bun:",notnull"`
	Split     string         `bun:",notnull"`
	WikiMode  bool           `bun:",notnull"`
	Precision float64        `bun:",notnull"`
	Recall    float64        `bun:",notnull"`
	F1        float64        `bun:"f1,notnull"`
	Restarts  int            `bun:",notnull"`
	Pairs     int            `bun:",notnull"`
	Skipped   int            `bun:",notnull"`
	Metadata  map[string]any `bun:"type:jsonb,nullzero,json_use_number"`
}

var _ models.RunStore = &RunStore{}

// RunStore keeps evaluation run history in a local sqlite database.
type RunStore struct {
	db          *bun.DB
	retryPolicy retrypolicy.RetryPolicy[sql.Result]
}

// NewRunStore opens (creating if needed) the history database at the
// configured path.
func NewRunStore(ctx context.Context, cfg *config.Config) (*RunStore, error) {
	if cfg.History.DBPath == "" {
		return nil, models.NewConfigurationError("history.db_path is required for the run store")
	}

	sqldb, err := sql.Open(sqliteshim.ShimName, cfg.History.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}
	db := bun.NewDB(sqldb, sqlitedialect.New())

	if _, err := db.NewCreateTable().
		Model(&EvalRunSchema{}).
		IfNotExists().
		Exec(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating eval_run table: %w", err)
	}
	log.Debugf("run history store open at %s", cfg.History.DBPath)

	// Concurrent writers trip sqlite's busy error; retry those with backoff
	// rather than surfacing them to the orchestrator.
	policy := retrypolicy.Builder[sql.Result]().
		HandleIf(func(_ sql.Result, err error) bool { return isBusyErr(err) }).
		WithBackoff(100*time.Millisecond, 2*time.Second).
		WithMaxRetries(5).
		Build()

	return &RunStore{db: db, retryPolicy: policy}, nil
}

func isBusyErr(err error) bool {
	if err == nil {
		return false
	}
	message := err.Error()
	return strings.Contains(message, "SQLITE_BUSY") || strings.Contains(message, "database is locked")
}

// CreateRun appends one run record. Caller metadata is merged over the
// store's own keys, caller values winning.
func (s *RunStore) CreateRun(ctx context.Context, run *models.EvalRun) error {
	if run == nil {
		return fmt.Errorf("run cannot be nil")
	}

	metadata := map[string]any{"app_version": config.VersionString}
	if err := mergo.Merge(&metadata, run.Metadata, mergo.WithOverride); err != nil {
		return fmt.Errorf("failed to merge run metadata: %w", err)
	}

	schema := &EvalRunSchema{
		UUID:      run.UUID,
		CreatedAt: run.CreatedAt,
		Split:     run.Split,
		WikiMode:  run.WikiMode,
		Precision: run.Precision,
		Recall:    run.Recall,
		F1:        run.F1,
		Restarts:  run.Restarts,
		Pairs:     run.Pairs,
		Skipped:   run.Skipped,
		Metadata:  metadata,
	}

	_, err := failsafe.Get(func() (sql.Result, error) {
		return s.db.NewInsert().Model(schema).Exec(ctx)
	}, s.retryPolicy)
	if err != nil {
		return fmt.Errorf("failed to insert eval run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (s *RunStore) ListRuns(ctx context.Context, limit int) ([]models.EvalRun, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	var rows []EvalRunSchema
	err := s.db.NewSelect().
		Model(&rows).
		Order("created_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list eval runs: %w", err)
	}

	runs := make([]models.EvalRun, len(rows))
	for i, row := range rows {
		runs[i] = models.EvalRun{
			UUID:      row.UUID,
			CreatedAt: row.CreatedAt,
			Split:     row.Split,
			WikiMode:  row.WikiMode,
			Precision: row.Precision,
			Recall:    row.Recall,
			F1:        row.F1,
			Restarts:  row.Restarts,
			Pairs:     row.Pairs,
			Skipped:   row.Skipped,
			Metadata:  row.Metadata,
		}
	}
	return runs, nil
}

func (s *RunStore) Close() error {
	return s.db.Close()
}
