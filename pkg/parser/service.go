package parser

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/amrlabs/amrd/internal"
	"github.com/amrlabs/amrd/pkg/align"
	"github.com/amrlabs/amrd/pkg/amr"
	"github.com/amrlabs/amrd/pkg/models"
)

var log = internal.GetLogger()

var _ models.BatchParser = &Service{}

// Service parses batches of sentences through the decoding collaborators.
// Batches are all-or-nothing on validation, and the response always carries
// exactly one graph per input sentence, in input order. The service keeps no
// state between calls.
type Service struct {
	decoder       models.ActionDecoder
	reconstructor models.GraphReconstructor
	concurrency   int
}

func NewService(decoder models.ActionDecoder, reconstructor models.GraphReconstructor, concurrency int) *Service {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Service{
		decoder:       decoder,
		reconstructor: reconstructor,
		concurrency:   concurrency,
	}
}

// Process validates every span in the batch, parses the sentences with
// bounded concurrency and re-sequences the results into input order. A
// sentence whose decode fails gets the empty-graph sentinel in its slot; an
// offset violation anywhere rejects the whole batch with an AlignmentError.
func (s *Service) Process(ctx context.Context, input *models.AMRBatchInput) (*models.AMRBatchResponse, error) {
	if err := align.ValidateBatch(input); err != nil {
		return nil, err
	}

	graphs := make([]string, len(input.Sentences))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.concurrency)
	for i := range input.Sentences {
		i := i
		sentence := &input.Sentences[i]
		group.Go(func() error {
			graphs[i] = s.parseSentence(groupCtx, i, sentence)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &models.AMRBatchResponse{AMRParse: graphs}, nil
}

func (s *Service) parseSentence(ctx context.Context, position int, sentence *models.Sentence) string {
	tokens := sentence.TokenTexts()

	actions, err := s.decoder.DecodeActions(ctx, tokens)
	if err != nil {
		log.Warnf("action decode failed for sentence %d, emitting empty graph: %v", position, err)
		return sentinelSlot(tokens)
	}

	graph, err := s.reconstructor.BuildGraph(ctx, tokens, actions)
	if err != nil {
		log.Warnf("graph reconstruction failed for sentence %d, emitting empty graph: %v", position, err)
		return sentinelSlot(tokens)
	}
	return graph
}

func sentinelSlot(tokens []string) string {
	return strings.TrimSpace(amr.SentinelEntry(tokens).String())
}
