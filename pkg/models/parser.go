package models

import (
	"context"

	"github.com/amrlabs/amrd/pkg/amr"
)

// ActionDecoder produces the transition-action sequence for one tokenized
// sentence. Implementations are expected to be safe for concurrent use.
type ActionDecoder interface {
	DecodeActions(ctx context.Context, tokens []string) ([]string, error)
}

// GraphReconstructor turns a decoded action sequence back into a serialized
// AMR graph for the sentence the actions were decoded from.
type GraphReconstructor interface {
	BuildGraph(ctx context.Context, tokens []string, actions []string) (string, error)
}

// BatchParser parses a validated batch of sentences into one serialized AMR
// graph per sentence, preserving input order.
type BatchParser interface {
	Process(ctx context.Context, input *AMRBatchInput) (*AMRBatchResponse, error)
}

// WikiResolver looks up the knowledge-base identifier for an entity surface
// form. A miss is not an error: implementations return the empty string and
// a nil error when the surface has no entry.
type WikiResolver interface {
	Resolve(ctx context.Context, surface string) (string, error)
}

// Augmenter attaches wiki links to the entity nodes of a serialized graph.
// Augmentation failures are reported per sentence via AugmentationError.
// AugmentEntry is the corpus-side variant working on already parsed entries,
// keeping their metadata block intact.
type Augmenter interface {
	Augment(ctx context.Context, graph string, sentence *Sentence, annotations []Annotation) (string, error)
	AugmentEntry(ctx context.Context, entry *amr.Entry, sentence *Sentence, annotations []Annotation) (*amr.Entry, error)
}
