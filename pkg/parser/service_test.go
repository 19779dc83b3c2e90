package parser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amrlabs/amrd/pkg/amr"
	"github.com/amrlabs/amrd/pkg/models"
	"github.com/amrlabs/amrd/pkg/smatch"
)

type stubDecoder struct {
	failOn  string
	delayOn string
	delay   time.Duration
}

func (d *stubDecoder) DecodeActions(_ context.Context, tokens []string) ([]string, error) {
	sentence := strings.Join(tokens, " ")
	if sentence == d.delayOn {
		time.Sleep(d.delay)
	}
	if sentence == d.failOn {
		return nil, errors.New("decoder rejected sentence")
	}
	actions := make([]string, len(tokens), len(tokens)+1)
	for i := range tokens {
		actions[i] = "SHIFT"
	}
	return append(actions, "CLOSE"), nil
}

type stubReconstructor struct{}

func (r *stubReconstructor) BuildGraph(_ context.Context, tokens []string, actions []string) (string, error) {
	if len(actions) == 0 {
		return "", errors.New("no actions to replay")
	}
	return fmt.Sprintf("# ::tok %s\n(p / parse-01)", strings.Join(tokens, " ")), nil
}

func makeSentence(begin int, words ...string) models.Sentence {
	tokens := make([]models.Token, len(words))
	pos := begin
	for i, word := range words {
		tokens[i] = models.Token{
			Span: models.Span{Begin: pos, End: pos + len(word)},
			Text: word,
		}
		pos += len(word) + 1
	}
	return models.Sentence{
		Span:   models.Span{Begin: begin, End: pos - 1},
		Tokens: tokens,
	}
}

func TestProcessOrderAndLength(t *testing.T) {
	// The first sentence finishes last; its slot must still come first.
	service := NewService(
		&stubDecoder{delayOn: "The dog ran", delay: 50 * time.Millisecond},
		&stubReconstructor{},
		4,
	)

	input := &models.AMRBatchInput{
		Sentences: []models.Sentence{
			makeSentence(0, "The", "dog", "ran"),
			makeSentence(12, "It", "rains"),
			makeSentence(21, "Birds", "sing"),
		},
	}

	response, err := service.Process(context.Background(), input)
	require.NoError(t, err)
	require.Len(t, response.AMRParse, 3)

	assert.Contains(t, response.AMRParse[0], "The dog ran")
	assert.Contains(t, response.AMRParse[1], "It rains")
	assert.Contains(t, response.AMRParse[2], "Birds sing")
	for _, graph := range response.AMRParse {
		assert.NotEmpty(t, graph)
	}
}

func TestProcessFailedSentenceGetsSentinel(t *testing.T) {
	service := NewService(&stubDecoder{failOn: "It rains"}, &stubReconstructor{}, 2)

	input := &models.AMRBatchInput{
		Sentences: []models.Sentence{
			makeSentence(0, "The", "dog", "ran"),
			makeSentence(12, "It", "rains"),
		},
	}

	response, err := service.Process(context.Background(), input)
	require.NoError(t, err)
	require.Len(t, response.AMRParse, 2)

	assert.Contains(t, response.AMRParse[0], "parse-01")
	assert.Contains(t, response.AMRParse[1], amr.EmptySentinel)
	assert.Contains(t, response.AMRParse[1], "# ::tok It rains")
}

func TestProcessRejectsMisalignedBatch(t *testing.T) {
	service := NewService(&stubDecoder{}, &stubReconstructor{}, 2)

	bad := makeSentence(0, "The", "dog", "ran")
	bad.Span.End = 8

	response, err := service.Process(context.Background(), &models.AMRBatchInput{
		Sentences: []models.Sentence{makeSentence(12, "It", "rains"), bad},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrAlignment)
	assert.Nil(t, response)
}

func TestProcessThenSelfScore(t *testing.T) {
	service := NewService(&stubDecoder{}, &stubReconstructor{}, 1)

	response, err := service.Process(context.Background(), &models.AMRBatchInput{
		Sentences: []models.Sentence{makeSentence(0, "The", "dog", "ran")},
	})
	require.NoError(t, err)
	require.Len(t, response.AMRParse, 1)
	require.NotEmpty(t, response.AMRParse[0])

	entry, err := amr.ParseEntry(response.AMRParse[0])
	require.NoError(t, err)
	graph, err := entry.Decode()
	require.NoError(t, err)

	result, err := smatch.Score(graph, graph, smatch.Options{})
	require.NoError(t, err)
	assert.Equal(t, 1.0, smatch.RoundSignificant(result.F1(), 4))
}

func TestProcessCancelledContext(t *testing.T) {
	service := NewService(&stubDecoder{}, &stubReconstructor{}, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := service.Process(ctx, &models.AMRBatchInput{
		Sentences: []models.Sentence{makeSentence(0, "The", "dog", "ran")},
	})
	assert.ErrorIs(t, err, context.Canceled)
}
