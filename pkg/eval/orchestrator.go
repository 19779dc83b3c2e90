package eval

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/amrlabs/amrd/config"
	"github.com/amrlabs/amrd/internal"
	"github.com/amrlabs/amrd/pkg/amr"
	"github.com/amrlabs/amrd/pkg/models"
	"github.com/amrlabs/amrd/pkg/smatch"
)

var log = internal.GetLogger()

// Orchestrator runs one full evaluation pass: load the split's corpora,
// optionally wiki-augment the candidates, score every pair, aggregate and
// report. All inputs come from the validated configuration it was built
// with; a fresh run keeps no state from earlier ones.
type Orchestrator struct {
	cfg       *config.Config
	augmenter models.Augmenter
	store     models.RunStore
}

// NewOrchestrator wires an evaluation pipeline. The augmenter is only
// consulted for splits with a wiki reference configured; store may be nil
// when run history is not wanted.
func NewOrchestrator(cfg *config.Config, augmenter models.Augmenter, store models.RunStore) *Orchestrator {
	return &Orchestrator{cfg: cfg, augmenter: augmenter, store: store}
}

type runState struct {
	split      models.Split
	wikiMode   bool
	candidates []*amr.Entry
	references []*amr.Entry
	results    []*smatch.Result
	perPairF1  []float64
	warnings   []string
}

// Run evaluates one split and returns its report. Fatal errors leave no
// report file behind.
func (o *Orchestrator) Run(ctx context.Context, split models.Split) (*models.ScoreReport, error) {
	state, err := o.selectConfig(split)
	if err != nil {
		return nil, err
	}

	if err := o.loadCorpora(state); err != nil {
		return nil, err
	}

	if state.wikiMode {
		if err := o.augmentCandidates(ctx, state); err != nil {
			return nil, err
		}
	}

	if err := o.scorePairs(ctx, state); err != nil {
		return nil, err
	}

	report := o.buildReport(state)
	o.logDiagnostics(state)

	if err := o.writeReport(state, report); err != nil {
		return nil, err
	}
	o.recordRun(ctx, report)

	return report, nil
}

// selectConfig resolves the split and decides wiki mode. Unknown splits and
// missing required paths fail before any file is touched.
func (o *Orchestrator) selectConfig(split models.Split) (*runState, error) {
	var splitCfg config.SplitConfig
	switch split {
	case models.SplitDev:
		splitCfg = o.cfg.Eval.Dev
	case models.SplitTest:
		splitCfg = o.cfg.Eval.Test
	default:
		return nil, models.NewConfigurationError(fmt.Sprintf("unknown split %q, want dev or test", split))
	}

	if splitCfg.Candidates == "" {
		return nil, models.NewConfigurationError(fmt.Sprintf("split %s has no candidates path", split))
	}

	state := &runState{split: split, wikiMode: splitCfg.WikiReference != ""}
	if state.wikiMode {
		if o.augmenter == nil {
			return nil, models.NewConfigurationError(fmt.Sprintf("split %s is in wiki mode but no augmenter is configured", split))
		}
		if splitCfg.Annotations == "" {
			return nil, models.NewConfigurationError(fmt.Sprintf("split %s is in wiki mode but has no annotations path", split))
		}
	} else if splitCfg.Reference == "" {
		return nil, models.NewConfigurationError(fmt.Sprintf("split %s has no reference path", split))
	}

	log.Infof("evaluating split %s, wiki mode %t", split, state.wikiMode)
	return state, nil
}

func (o *Orchestrator) splitConfig(split models.Split) config.SplitConfig {
	if split == models.SplitTest {
		return o.cfg.Eval.Test
	}
	return o.cfg.Eval.Dev
}

// loadCorpora reads candidates and the reference artifact for the mode. The
// plain and wiki reference corpora are distinct files and never mixed.
func (o *Orchestrator) loadCorpora(state *runState) error {
	splitCfg := o.splitConfig(state.split)

	candidates, err := readCorpusFile(splitCfg.Candidates)
	if err != nil {
		return err
	}

	referencePath := splitCfg.Reference
	if state.wikiMode {
		referencePath = splitCfg.WikiReference
	}
	references, err := readCorpusFile(referencePath)
	if err != nil {
		return err
	}

	if len(candidates) != len(references) {
		return models.NewCorpusMismatchError(len(candidates), len(references))
	}

	state.candidates = candidates
	state.references = references
	log.Infof("loaded %d candidate/reference pairs", len(candidates))
	return nil
}

// augmentCandidates runs the wiki augmenter over every candidate. A
// sentence whose graph cannot be augmented keeps its original graph and the
// corpus pass continues.
func (o *Orchestrator) augmentCandidates(ctx context.Context, state *runState) error {
	annotations, err := o.readAnnotations(state, len(state.candidates))
	if err != nil {
		return err
	}

	augmented := 0
	for i, entry := range state.candidates {
		if err := ctx.Err(); err != nil {
			return err
		}
		sentence := models.SentenceFromTokens(0, entry.Tokens)
		result, err := o.augmenter.AugmentEntry(ctx, entry, &sentence, annotations[i])
		if err != nil {
			state.warn(fmt.Sprintf("pair %d: augmentation failed, scoring unaugmented graph: %v", i, err))
			continue
		}
		state.candidates[i] = result
		augmented++
	}
	log.Infof("wiki-augmented %d of %d candidates", augmented, len(state.candidates))
	return nil
}

// readAnnotations loads the split's annotation file: a JSON array holding
// one annotation list per sentence, index-aligned with the candidates. The
// path is guaranteed non-empty by selectConfig.
func (o *Orchestrator) readAnnotations(state *runState, count int) ([][]models.Annotation, error) {
	path := o.splitConfig(state.split).Annotations
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, models.NewConfigurationError(fmt.Sprintf("reading annotations file: %v", err))
	}
	var annotations [][]models.Annotation
	if err := json.Unmarshal(data, &annotations); err != nil {
		return nil, models.NewConfigurationError(fmt.Sprintf("parsing annotations file: %v", err))
	}
	if len(annotations) != count {
		return nil, models.NewConfigurationError(
			fmt.Sprintf("annotations file has %d records for %d candidates", len(annotations), count),
		)
	}
	return annotations, nil
}

func readCorpusFile(path string) ([]*amr.Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, models.NewConfigurationError(fmt.Sprintf("opening corpus: %v", err))
	}
	defer f.Close()

	entries, err := amr.ReadCorpus(f)
	if err != nil {
		return nil, fmt.Errorf("reading corpus %s: %w", path, err)
	}
	return entries, nil
}

// scorePairs scores candidates against references positionally. A pair with
// an unusable reference is excluded from aggregation with a recorded
// warning; a candidate that fails to decode contributes an empty graph so
// its reference triples still count against recall.
func (o *Orchestrator) scorePairs(ctx context.Context, state *runState) error {
	opts := smatch.Options{
		Restarts: o.cfg.Eval.Restarts,
		Seed:     o.cfg.Eval.Seed,
	}

	for i := range state.candidates {
		if err := ctx.Err(); err != nil {
			return err
		}

		reference, err := state.references[i].Decode()
		if err != nil {
			scoringErr := models.NewScoringError(i, fmt.Sprintf("reference graph unusable: %v", err))
			state.warn(scoringErr.Error())
			continue
		}

		candidate, err := state.candidates[i].Decode()
		if err != nil {
			state.warn(fmt.Sprintf("pair %d: candidate graph unusable, counted as empty: %v", i, err))
			state.results = append(state.results, &smatch.Result{
				Reference: reference.TripleCount(),
				Restarts:  opts.Restarts,
			})
			state.perPairF1 = append(state.perPairF1, 0)
			continue
		}

		result, err := smatch.Score(candidate, reference, opts)
		if err != nil {
			scoringErr := models.NewScoringError(i, err.Error())
			state.warn(scoringErr.Error())
			continue
		}
		state.results = append(state.results, result)
		state.perPairF1 = append(state.perPairF1, result.F1())
	}
	return nil
}

func (o *Orchestrator) buildReport(state *runState) *models.ScoreReport {
	total := smatch.Sum(state.results)
	significant := o.cfg.Eval.Significant
	if significant <= 0 {
		significant = smatch.DefaultSignificant
	}

	restarts := o.cfg.Eval.Restarts
	if restarts <= 0 {
		restarts = smatch.DefaultRestarts
	}

	return &models.ScoreReport{
		Split:     state.split,
		WikiMode:  state.wikiMode,
		Precision: smatch.RoundSignificant(total.Precision(), significant),
		Recall:    smatch.RoundSignificant(total.Recall(), significant),
		F1:        smatch.RoundSignificant(total.F1(), significant),
		Restarts:  restarts,
		Matched:   total.Matched,
		Candidate: total.Candidate,
		Reference: total.Reference,
		Pairs:     len(state.results),
		Skipped:   len(state.candidates) - len(state.results),
		CreatedAt: time.Now().UTC(),
	}
}

func (o *Orchestrator) writeReport(state *runState, report *models.ScoreReport) error {
	if o.cfg.Eval.ReportDir == "" {
		return nil
	}
	path, err := WriteReport(o.cfg.Eval.ReportDir, report, state.warnings)
	if err != nil {
		return err
	}
	log.Infof("wrote report to %s", path)
	return nil
}

func (o *Orchestrator) recordRun(ctx context.Context, report *models.ScoreReport) {
	if o.store == nil {
		return
	}
	run := &models.EvalRun{
		UUID:      uuid.New(),
		CreatedAt: report.CreatedAt,
		Split:     string(report.Split),
		WikiMode:  report.WikiMode,
		Precision: report.Precision,
		Recall:    report.Recall,
		F1:        report.F1,
		Restarts:  report.Restarts,
		Pairs:     report.Pairs,
		Skipped:   report.Skipped,
		Metadata: map[string]any{
			"checkpoint": o.cfg.Model.Checkpoint,
			"beam_size":  o.cfg.Model.BeamSize,
		},
	}
	if err := o.store.CreateRun(ctx, run); err != nil {
		log.Warnf("recording evaluation run failed: %v", err)
	}
}

func (s *runState) warn(message string) {
	s.warnings = append(s.warnings, message)
	log.Warn(message)
}

func (o *Orchestrator) logDiagnostics(state *runState) {
	summary := Summarize(state.perPairF1)
	log.Infof(
		"per-pair F1 over %d scored pairs: mean %.4f, stddev %.4f, median %.4f, min %.4f, max %.4f",
		len(state.perPairF1), summary.Mean, summary.StdDev, summary.Median, summary.Min, summary.Max,
	)
}
