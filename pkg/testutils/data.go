package testutils

import (
	"strings"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/amrlabs/amrd/pkg/models"
)

// SentenceFromWords lays the words out left to right with single-space gaps
// starting at begin, producing a sentence whose offsets are consistent by
// construction.
func SentenceFromWords(begin int, words ...string) models.Sentence {
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

// GenerateBatchInput builds a valid batch of sentenceCount random sentences
// over one contiguous document, each wordsPerSentence words long.
func GenerateBatchInput(sentenceCount int, wordsPerSentence int) *models.AMRBatchInput {
	input := &models.AMRBatchInput{}
	begin := 0
	for i := 0; i < sentenceCount; i++ {
		words := make([]string, wordsPerSentence)
		for j := range words {
			words[j] = gofakeit.Word()
		}
		sentence := SentenceFromWords(begin, words...)
		input.Sentences = append(input.Sentences, sentence)
		begin = sentence.End + 1
	}
	return input
}

// AnnotateFirstToken tags the first token of the sentence, the way an
// upstream named-entity annotator would.
func AnnotateFirstToken(sentence *models.Sentence, tag string) models.Annotation {
	return models.Annotation{
		Span: sentence.Tokens[0].Span,
		Tag:  tag,
	}
}

// SampleCorpus is a small two-entry AMR corpus in the `# ::` metadata format
// the corpus reader consumes.
var SampleCorpus = strings.TrimLeft(`
# ::id test.1
# ::tok The dog ran
# ::node d dog 1-2
# ::node r run-02 2-3
(r / run-02
    :ARG0 (d / dog))

# ::id test.2
# ::tok The boy wants to go
# ::node b boy 1-2
(w / want-01
    :ARG0 (b / boy)
    :ARG1 (g / go-02
        :ARG0 b))
`, "\n")
