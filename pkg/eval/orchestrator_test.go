package eval

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amrlabs/amrd/config"
	"github.com/amrlabs/amrd/pkg/models"
	"github.com/amrlabs/amrd/pkg/wiki"
)

const dogEntry = `# ::tok The dog ran
# ::node r run-02 2-3
# ::node d dog 1-2
(r / run-02
    :ARG0 (d / dog))
`

const rainEntry = `# ::tok It rains
(r2 / rain-01)
`

func writeFile(t *testing.T, dir string, name string, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func testConfig(t *testing.T, candidates string, reference string) *config.Config {
	t.Helper()
	return &config.Config{
		Eval: config.EvalConfig{
			Restarts:    10,
			Significant: 4,
			ReportDir:   t.TempDir(),
			Dev: config.SplitConfig{
				Candidates: candidates,
				Reference:  reference,
			},
		},
	}
}

func TestRunPerfectScore(t *testing.T) {
	dir := t.TempDir()
	candidates := writeFile(t, dir, "dev.candidates.amr", dogEntry)
	reference := writeFile(t, dir, "dev.reference.amr", dogEntry)

	cfg := testConfig(t, candidates, reference)
	report, err := NewOrchestrator(cfg, nil, nil).Run(context.Background(), models.SplitDev)
	require.NoError(t, err)

	assert.Equal(t, 1.0, report.Precision)
	assert.Equal(t, 1.0, report.Recall)
	assert.Equal(t, 1.0, report.F1)
	assert.Equal(t, 10, report.Restarts)
	assert.Equal(t, 1, report.Pairs)
	assert.Zero(t, report.Skipped)
	assert.False(t, report.WikiMode)

	content, err := os.ReadFile(filepath.Join(cfg.Eval.ReportDir, "report_dev.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "f1:         1\n")
	assert.Contains(t, string(content), "wiki mode:  off")
}

func TestRunUnknownSplit(t *testing.T) {
	cfg := testConfig(t, "x", "y")
	_, err := NewOrchestrator(cfg, nil, nil).Run(context.Background(), models.Split("train"))
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrConfiguration)
}

func TestRunMissingReferencePath(t *testing.T) {
	dir := t.TempDir()
	candidates := writeFile(t, dir, "dev.candidates.amr", dogEntry)

	cfg := testConfig(t, candidates, "")
	_, err := NewOrchestrator(cfg, nil, nil).Run(context.Background(), models.SplitDev)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrConfiguration)

	entries, err := os.ReadDir(cfg.Eval.ReportDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "fatal errors must not leave report files")
}

func TestRunCorpusMismatch(t *testing.T) {
	dir := t.TempDir()
	candidates := writeFile(t, dir, "dev.candidates.amr", dogEntry+"\n"+rainEntry)
	reference := writeFile(t, dir, "dev.reference.amr", dogEntry)

	cfg := testConfig(t, candidates, reference)
	_, err := NewOrchestrator(cfg, nil, nil).Run(context.Background(), models.SplitDev)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrCorpusMismatch)

	entries, err := os.ReadDir(cfg.Eval.ReportDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRunExcludesUnusableReference(t *testing.T) {
	dir := t.TempDir()
	candidates := writeFile(t, dir, "dev.candidates.amr", dogEntry+"\n"+rainEntry)
	reference := writeFile(t, dir, "dev.reference.amr", dogEntry+"\n# ::tok It rains\n(broken\n")

	cfg := testConfig(t, candidates, reference)
	report, err := NewOrchestrator(cfg, nil, nil).Run(context.Background(), models.SplitDev)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Pairs)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 1.0, report.F1)

	content, err := os.ReadFile(filepath.Join(cfg.Eval.ReportDir, "report_dev.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "warnings:")
	assert.Contains(t, string(content), "pair 1")
}

func TestRunUnusableCandidateCountsAsEmpty(t *testing.T) {
	dir := t.TempDir()
	candidates := writeFile(t, dir, "dev.candidates.amr", dogEntry+"\n# ::tok It rains\n(broken\n")
	reference := writeFile(t, dir, "dev.reference.amr", dogEntry+"\n"+rainEntry)

	cfg := testConfig(t, candidates, reference)
	report, err := NewOrchestrator(cfg, nil, nil).Run(context.Background(), models.SplitDev)
	require.NoError(t, err)

	// The broken candidate stays in the aggregate with zero candidate
	// triples, dragging recall below precision.
	assert.Equal(t, 2, report.Pairs)
	assert.Zero(t, report.Skipped)
	assert.Equal(t, 1.0, report.Precision)
	assert.Less(t, report.Recall, 1.0)
}

type stubResolver struct {
	links map[string]string
}

func (r *stubResolver) Resolve(_ context.Context, surface string) (string, error) {
	return r.links[surface], nil
}

const wikiCandidate = `# ::tok Obama spoke
# ::node p person 0-1
# ::node s speak-01 1-2
(s / speak-01
    :ARG0 (p / person))
`

const wikiReference = `# ::tok Obama spoke
(s2 / speak-01
    :ARG0 (p2 / person
        :wiki "Q76"))
`

func TestRunWikiMode(t *testing.T) {
	dir := t.TempDir()
	candidates := writeFile(t, dir, "dev.candidates.amr", wikiCandidate)
	wikiRef := writeFile(t, dir, "dev.reference.wiki.amr", wikiReference)
	annotations := writeFile(t, dir, "dev.annotations.json",
		`[[{"begin": 0, "end": 5, "tag": "PER"}]]`)

	cfg := testConfig(t, candidates, "")
	cfg.Eval.Dev.WikiReference = wikiRef
	cfg.Eval.Dev.Annotations = annotations

	augmenter := wiki.NewAugmenter(&stubResolver{links: map[string]string{"Obama": "Q76"}}, nil)
	report, err := NewOrchestrator(cfg, augmenter, nil).Run(context.Background(), models.SplitDev)
	require.NoError(t, err)

	assert.True(t, report.WikiMode)
	assert.Equal(t, 1.0, report.F1)

	_, err = os.Stat(filepath.Join(cfg.Eval.ReportDir, "report_dev_wiki.txt"))
	assert.NoError(t, err)
}

func TestRunWikiModeRequiresAnnotations(t *testing.T) {
	dir := t.TempDir()
	candidates := writeFile(t, dir, "dev.candidates.amr", wikiCandidate)
	wikiRef := writeFile(t, dir, "dev.reference.wiki.amr", wikiReference)

	cfg := testConfig(t, candidates, "")
	cfg.Eval.Dev.WikiReference = wikiRef

	augmenter := wiki.NewAugmenter(&stubResolver{}, nil)
	_, err := NewOrchestrator(cfg, augmenter, nil).Run(context.Background(), models.SplitDev)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrConfiguration)

	entries, err := os.ReadDir(cfg.Eval.ReportDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "a run without annotations must not produce a wiki report")
}

func TestRunWikiModeWithoutAugmenter(t *testing.T) {
	dir := t.TempDir()
	candidates := writeFile(t, dir, "dev.candidates.amr", wikiCandidate)
	wikiRef := writeFile(t, dir, "dev.reference.wiki.amr", wikiReference)

	cfg := testConfig(t, candidates, "")
	cfg.Eval.Dev.WikiReference = wikiRef

	_, err := NewOrchestrator(cfg, nil, nil).Run(context.Background(), models.SplitDev)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrConfiguration)
}

type fakeRunStore struct {
	runs []*models.EvalRun
}

func (s *fakeRunStore) CreateRun(_ context.Context, run *models.EvalRun) error {
	s.runs = append(s.runs, run)
	return nil
}

func (s *fakeRunStore) ListRuns(_ context.Context, _ int) ([]models.EvalRun, error) {
	return nil, nil
}

func (s *fakeRunStore) Close() error { return nil }

func TestRunRecordsHistory(t *testing.T) {
	dir := t.TempDir()
	candidates := writeFile(t, dir, "dev.candidates.amr", dogEntry)
	reference := writeFile(t, dir, "dev.reference.amr", dogEntry)

	cfg := testConfig(t, candidates, reference)
	cfg.Model.Checkpoint = "epoch-42.pt"

	store := &fakeRunStore{}
	_, err := NewOrchestrator(cfg, nil, store).Run(context.Background(), models.SplitDev)
	require.NoError(t, err)

	require.Len(t, store.runs, 1)
	run := store.runs[0]
	assert.Equal(t, "dev", run.Split)
	assert.Equal(t, 1.0, run.F1)
	assert.Equal(t, "epoch-42.pt", run.Metadata["checkpoint"])
	assert.NotEqual(t, run.UUID.String(), "00000000-0000-0000-0000-000000000000")
}

func TestRunDeterministic(t *testing.T) {
	dir := t.TempDir()
	corpus := dogEntry + "\n" + rainEntry + "\n" + wikiCandidate
	candidates := writeFile(t, dir, "dev.candidates.amr", corpus)
	reference := writeFile(t, dir, "dev.reference.amr", corpus)

	cfg := testConfig(t, candidates, reference)
	cfg.Eval.Seed = 1234

	first, err := NewOrchestrator(cfg, nil, nil).Run(context.Background(), models.SplitDev)
	require.NoError(t, err)
	second, err := NewOrchestrator(cfg, nil, nil).Run(context.Background(), models.SplitDev)
	require.NoError(t, err)

	assert.Equal(t, first.F1, second.F1)
	assert.Equal(t, first.Matched, second.Matched)
}
