package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/amrlabs/amrd/config"
	"github.com/amrlabs/amrd/pkg/eval"
	"github.com/amrlabs/amrd/pkg/models"
	"github.com/amrlabs/amrd/pkg/store"
	"github.com/amrlabs/amrd/pkg/wiki"
)

var (
	evalSplit       string
	evalRestarts    int
	evalSignificant int
	evalSeed        int64
	evalReportDir   string
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Scores a split's candidate graphs against its gold references",
	Long: "Runs the structural scorer over the configured candidate and " +
		"reference corpora for one split, wiki-augmenting candidates first " +
		"when the split has a wiki reference, and prints the micro-averaged " +
		"precision/recall/F1 report.",
	Run: func(cmd *cobra.Command, args []string) {
		if err := runEvaluate(); err != nil {
			log.Fatalf("Evaluation failed: %s", err)
		}
	},
}

// runEvaluate owns the run history store so its Close runs on every exit
// path, the error ones included.
func runEvaluate() error {
	cfg := loadConfig()
	applyEvaluateFlags(cfg)

	ctx := context.Background()

	var runStore models.RunStore
	if cfg.History.DBPath != "" {
		rs, err := store.NewRunStore(ctx, cfg)
		if err != nil {
			return fmt.Errorf("opening run history store: %w", err)
		}
		defer rs.Close()
		runStore = rs
	}

	return evaluateSplit(ctx, cfg, runStore, models.Split(evalSplit))
}

func evaluateSplit(ctx context.Context, cfg *config.Config, runStore models.RunStore, split models.Split) error {
	var augmenter models.Augmenter
	if cfg.Wiki.ServerURL != "" {
		augmenter = wiki.NewAugmenter(wiki.NewClient(cfg), cfg.Wiki.CandidateTags)
	}

	report, err := eval.NewOrchestrator(cfg, augmenter, runStore).Run(ctx, split)
	if err != nil {
		return err
	}

	fmt.Print(eval.RenderReport(report, nil))
	return nil
}

func applyEvaluateFlags(cfg *config.Config) {
	if evalRestarts > 0 {
		cfg.Eval.Restarts = evalRestarts
	}
	if evalSignificant > 0 {
		cfg.Eval.Significant = evalSignificant
	}
	if evalSeed != 0 {
		cfg.Eval.Seed = evalSeed
	}
	if evalReportDir != "" {
		cfg.Eval.ReportDir = evalReportDir
	}
}
