package wiki

import (
	"context"
	"strconv"
	"strings"

	"github.com/jinzhu/copier"

	"github.com/amrlabs/amrd/pkg/align"
	"github.com/amrlabs/amrd/pkg/amr"
	"github.com/amrlabs/amrd/pkg/models"
)

// DefaultCandidateTags are the annotation categories whose spans are treated
// as linkable entity mentions when no tag set is configured.
var DefaultCandidateTags = []string{"NE", "ENTITY", "PER", "ORG", "LOC", "GPE", "MISC"}

var _ models.Augmenter = &Augmenter{}

// Augmenter fills the wiki slots of a parsed graph's entity nodes. A node is
// linkable when its aligned token span overlaps an annotation carrying one
// of the candidate tags. Lookup misses mark the node with the no-link
// value; only a graph that cannot be parsed at all fails.
type Augmenter struct {
	resolver models.WikiResolver
	tags     map[string]bool
}

func NewAugmenter(resolver models.WikiResolver, candidateTags []string) *Augmenter {
	if len(candidateTags) == 0 {
		candidateTags = DefaultCandidateTags
	}
	tags := make(map[string]bool, len(candidateTags))
	for _, tag := range candidateTags {
		tags[tag] = true
	}
	return &Augmenter{resolver: resolver, tags: tags}
}

// Augment parses a serialized graph, links its entity nodes and returns the
// new serialization. The input string is never modified.
func (a *Augmenter) Augment(
	ctx context.Context,
	graph string,
	sentence *models.Sentence,
	annotations []models.Annotation,
) (string, error) {
	entry, err := amr.ParseEntry(graph)
	if err != nil {
		return "", models.NewAugmentationError("graph is not a parsable corpus entry", err)
	}
	augmented, err := a.AugmentEntry(ctx, entry, sentence, annotations)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(augmented.String()), nil
}

// AugmentEntry links the entity nodes of an already parsed entry. The input
// entry is deep-copied first and returned unchanged on the sentinel graph,
// so the transform is pure either way.
func (a *Augmenter) AugmentEntry(
	ctx context.Context,
	entry *amr.Entry,
	sentence *models.Sentence,
	annotations []models.Annotation,
) (*amr.Entry, error) {
	augmented := &amr.Entry{}
	if err := copier.CopyWithOption(augmented, entry, copier.Option{DeepCopy: true}); err != nil {
		return nil, models.NewAugmentationError("copying entry", err)
	}

	graph, err := augmented.Decode()
	if err != nil {
		return nil, models.NewAugmentationError("unparsable graph serialization", err)
	}
	if graph.IsEmpty() {
		return augmented, nil
	}

	assigned, err := align.AssignAnnotations(sentence, annotations)
	if err != nil {
		return nil, err
	}
	if len(assigned) == 0 {
		return augmented, nil
	}

	for _, alignment := range augmented.Alignments {
		if !alignment.Aligned() || !graph.HasVariable(alignment.Variable) {
			continue
		}
		nodeSpan, err := align.CharSpan(sentence, alignment.Begin, alignment.End)
		if err != nil {
			log.Warnf("node %s alignment %d-%d outside sentence, skipping: %v",
				alignment.Variable, alignment.Begin, alignment.End, err)
			continue
		}
		if !a.isCandidate(assigned, nodeSpan) {
			continue
		}

		surface := surfaceForm(sentence, alignment.Begin, alignment.End)
		value := amr.NoLink
		id, err := a.resolver.Resolve(ctx, surface)
		switch {
		case err != nil:
			// Resolution trouble degrades to no-link; augmentation of the
			// corpus must not stall on a flaky link server.
			log.Warnf("wiki resolution failed for %q, marking no-link: %v", surface, err)
		case id != "":
			value = strconv.Quote(id)
		}
		if err := graph.SetWiki(alignment.Variable, value); err != nil {
			return nil, models.NewAugmentationError("setting wiki attribute", err)
		}
	}

	augmented.Penman = graph.String()
	return augmented, nil
}

func (a *Augmenter) isCandidate(annotations []models.Annotation, nodeSpan models.Span) bool {
	for _, annotation := range annotations {
		if a.tags[annotation.Tag] && annotation.Overlaps(nodeSpan) {
			return true
		}
	}
	return false
}

func surfaceForm(sentence *models.Sentence, begin int, end int) string {
	words := make([]string, 0, end-begin)
	for _, token := range sentence.Tokens[begin:end] {
		words = append(words, amr.Normalize(token.Text))
	}
	return strings.Join(words, " ")
}
