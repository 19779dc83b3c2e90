package cmd

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/amrlabs/amrd/pkg/store"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Lists recorded evaluation runs, newest first",
	Run: func(cmd *cobra.Command, args []string) {
		if err := runHistory(); err != nil {
			log.Fatalf("Error listing evaluation runs: %s", err)
		}
	},
}

func runHistory() error {
	cfg := loadConfig()
	if cfg.History.DBPath == "" {
		return fmt.Errorf("history.db_path must be set to list evaluation runs")
	}

	ctx := context.Background()
	runStore, err := store.NewRunStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("opening run history store: %w", err)
	}
	defer runStore.Close()

	runs, err := runStore.ListRuns(ctx, historyLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no evaluation runs recorded")
		return nil
	}

	fmt.Printf("%-36s  %-14s  %-5s  %-5s  %8s  %8s  %8s  %6s\n",
		"uuid", "when", "split", "wiki", "prec", "recall", "f1", "pairs")
	for _, run := range runs {
		mode := "off"
		if run.WikiMode {
			mode = "on"
		}
		fmt.Printf("%-36s  %-14s  %-5s  %-5s  %8.4g  %8.4g  %8.4g  %6d\n",
			run.UUID, humanize.Time(run.CreatedAt), run.Split, mode,
			run.Precision, run.Recall, run.F1, run.Pairs)
	}
	return nil
}
