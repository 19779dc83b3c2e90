package wiki

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amrlabs/amrd/pkg/amr"
	"github.com/amrlabs/amrd/pkg/models"
)

type stubResolver struct {
	links map[string]string
	errOn string
	calls int
}

func (r *stubResolver) Resolve(_ context.Context, surface string) (string, error) {
	r.calls++
	if surface == r.errOn {
		return "", errors.New("link server unavailable")
	}
	return r.links[surface], nil
}

const visitEntry = `# ::tok Obama visited Paris
# ::node p person 0-1
# ::node v visit-01 1-2
# ::node c city 2-3
(v / visit-01
    :ARG0 (p / person)
    :ARG1 (c / city))`

func visitSentence() *models.Sentence {
	s := models.SentenceFromTokens(0, []string{"Obama", "visited", "Paris"})
	return &s
}

func visitAnnotations() []models.Annotation {
	return []models.Annotation{
		{Span: models.Span{Begin: 0, End: 5}, Tag: "PER"},
		{Span: models.Span{Begin: 14, End: 19}, Tag: "LOC"},
	}
}

func TestAugmentLinksCandidateNodes(t *testing.T) {
	resolver := &stubResolver{links: map[string]string{"Obama": "Q76", "Paris": "Q90"}}
	augmenter := NewAugmenter(resolver, nil)

	augmented, err := augmenter.Augment(context.Background(), visitEntry, visitSentence(), visitAnnotations())
	require.NoError(t, err)

	graph, err := amr.Decode(mustEntry(t, augmented).Penman)
	require.NoError(t, err)

	value, ok := graph.Wiki("p")
	require.True(t, ok)
	assert.Equal(t, `"Q76"`, value)

	value, ok = graph.Wiki("c")
	require.True(t, ok)
	assert.Equal(t, `"Q90"`, value)

	_, ok = graph.Wiki("v")
	assert.False(t, ok)
}

func TestAugmentMissGetsNoLink(t *testing.T) {
	resolver := &stubResolver{links: map[string]string{}}
	augmenter := NewAugmenter(resolver, nil)

	augmented, err := augmenter.Augment(context.Background(), visitEntry, visitSentence(), visitAnnotations())
	require.NoError(t, err)

	graph, err := amr.Decode(mustEntry(t, augmented).Penman)
	require.NoError(t, err)

	value, ok := graph.Wiki("p")
	require.True(t, ok)
	assert.Equal(t, amr.NoLink, value)
}

func TestAugmentResolverFailureDegradesToNoLink(t *testing.T) {
	resolver := &stubResolver{links: map[string]string{"Paris": "Q90"}, errOn: "Obama"}
	augmenter := NewAugmenter(resolver, nil)

	augmented, err := augmenter.Augment(context.Background(), visitEntry, visitSentence(), visitAnnotations())
	require.NoError(t, err)

	graph, err := amr.Decode(mustEntry(t, augmented).Penman)
	require.NoError(t, err)

	value, _ := graph.Wiki("p")
	assert.Equal(t, amr.NoLink, value)
	value, _ = graph.Wiki("c")
	assert.Equal(t, `"Q90"`, value)
}

func TestAugmentIgnoresNonCandidateTags(t *testing.T) {
	resolver := &stubResolver{links: map[string]string{"Obama": "Q76"}}
	augmenter := NewAugmenter(resolver, []string{"ORG"})

	augmented, err := augmenter.Augment(context.Background(), visitEntry, visitSentence(), visitAnnotations())
	require.NoError(t, err)

	assert.NotContains(t, augmented, ":wiki")
	assert.Zero(t, resolver.calls)
}

const quotedEntry = `# ::tok "Obama" spoke
# ::node p person 0-1
# ::node s speak-01 1-2
(s / speak-01
    :ARG0 (p / person))`

func TestAugmentNormalizesQuotedSurfaceForms(t *testing.T) {
	resolver := &stubResolver{links: map[string]string{"Obama": "Q76"}}
	augmenter := NewAugmenter(resolver, nil)

	sentence := models.SentenceFromTokens(0, []string{`"Obama"`, "spoke"})
	annotations := []models.Annotation{{Span: models.Span{Begin: 0, End: 7}, Tag: "PER"}}

	augmented, err := augmenter.Augment(context.Background(), quotedEntry, &sentence, annotations)
	require.NoError(t, err)

	graph, err := amr.Decode(mustEntry(t, augmented).Penman)
	require.NoError(t, err)

	value, ok := graph.Wiki("p")
	require.True(t, ok)
	assert.Equal(t, `"Q76"`, value)
}

func TestAugmentEntryIsPure(t *testing.T) {
	entry, err := amr.ParseEntry(visitEntry)
	require.NoError(t, err)
	originalPenman := entry.Penman

	resolver := &stubResolver{links: map[string]string{"Obama": "Q76"}}
	augmenter := NewAugmenter(resolver, nil)

	augmented, err := augmenter.AugmentEntry(context.Background(), entry, visitSentence(), visitAnnotations())
	require.NoError(t, err)

	assert.Equal(t, originalPenman, entry.Penman)
	assert.NotEqual(t, entry.Penman, augmented.Penman)
	assert.Contains(t, augmented.Penman, ":wiki")
}

func TestAugmentSentinelPassthrough(t *testing.T) {
	resolver := &stubResolver{}
	augmenter := NewAugmenter(resolver, nil)

	sentinel := strings.TrimSpace(amr.SentinelEntry([]string{"Obama"}).String())
	sentence := models.SentenceFromTokens(0, []string{"Obama"})

	augmented, err := augmenter.Augment(context.Background(), sentinel, &sentence, visitAnnotations()[:1])
	require.NoError(t, err)

	assert.Contains(t, augmented, amr.EmptySentinel)
	assert.Zero(t, resolver.calls)
}

func TestAugmentMalformedGraph(t *testing.T) {
	augmenter := NewAugmenter(&stubResolver{}, nil)

	_, err := augmenter.Augment(context.Background(), "# ::tok x\n(broken", visitSentence(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrAugmentation)
}

func mustEntry(t *testing.T, block string) *amr.Entry {
	t.Helper()
	entry, err := amr.ParseEntry(block)
	require.NoError(t, err)
	return entry
}
