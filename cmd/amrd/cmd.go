package cmd

import (
	"fmt"
	"os"

	"github.com/amrlabs/amrd/config"
	"github.com/amrlabs/amrd/internal"
	"github.com/sirupsen/logrus"

	"github.com/spf13/cobra"
)

var (
	log *logrus.Logger

	cfgFile     string
	showVersion bool
	dumpConfig  bool
	generateKey bool

	modelCheckpoint string
	modelBeamSize   int
	modelBatchSize  int
)

var cmd = &cobra.Command{
	Use:   "amrd",
	Short: "amrd serves an AMR semantic parser and scores its output against gold references",
	Run:   func(cmd *cobra.Command, args []string) { run() },
}

var dumpJsonSchemaCmd = &cobra.Command{
	Use:     "json-schema",
	Short:   "Generates JSON Schema for amrd's configuration file",
	Example: "amrd json-schema > amrd_config_schema.json",
	RunE: func(cmd *cobra.Command, args []string) error {
		schema, err := config.JSONSchema()
		if err != nil {
			return err
		}
		fmt.Println(string(schema))
		return nil
	},
}

func init() {
	cmd.AddCommand(parseCmd)
	cmd.AddCommand(evaluateCmd)
	cmd.AddCommand(historyCmd)
	cmd.AddCommand(dumpJsonSchemaCmd)

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default config.yaml)")
	cmd.PersistentFlags().BoolVarP(&showVersion, "version", "v", false, "print version number")
	cmd.PersistentFlags().BoolVarP(&dumpConfig, "dump-config", "d", false, "dump config")
	cmd.PersistentFlags().
		BoolVarP(&generateKey, "generate-token", "g", false, "generate a new JWT token")
	cmd.PersistentFlags().StringVar(&modelCheckpoint, "checkpoint", "", "model checkpoint id (overrides model.checkpoint)")
	cmd.PersistentFlags().IntVar(&modelBeamSize, "beam-size", 0, "decoder beam width (overrides model.beam_size)")
	cmd.PersistentFlags().IntVar(&modelBatchSize, "batch-size", 0, "parsing batch size (overrides model.batch_size)")

	parseCmd.Flags().StringVarP(&parseInPath, "in", "i", "", "tokenized sentences, one per line (required)")
	parseCmd.Flags().StringVarP(&parseOutPath, "out", "o", "", "AMR corpus output path (required)")
	_ = parseCmd.MarkFlagRequired("in")
	_ = parseCmd.MarkFlagRequired("out")

	evaluateCmd.Flags().StringVarP(&evalSplit, "split", "s", "", "corpus split to evaluate: dev or test (required)")
	evaluateCmd.Flags().IntVarP(&evalRestarts, "restarts", "r", 0, "scorer restart count (overrides eval.restarts)")
	evaluateCmd.Flags().IntVar(&evalSignificant, "significant", 0, "significant digits for reported scores (overrides eval.significant)")
	evaluateCmd.Flags().Int64Var(&evalSeed, "seed", 0, "seed for the scorer's randomized restarts (overrides eval.seed)")
	evaluateCmd.Flags().StringVar(&evalReportDir, "out", "", "report directory (overrides eval.report_dir)")
	_ = evaluateCmd.MarkFlagRequired("split")

	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of runs to list")
}

// Execute executes the root cobra command.
func Execute() {
	log = internal.GetLogger()
	log.SetLevel(logrus.InfoLevel)

	err := cmd.Execute()

	if err != nil {
		os.Exit(1)
	}
}
