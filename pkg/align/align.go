package align

import (
	"fmt"

	"github.com/amrlabs/amrd/pkg/models"
)

// CheckContained fails with an AlignmentError unless child is a well-formed
// span lying fully inside parent.
func CheckContained(child models.Span, parent models.Span) error {
	if !child.Valid() {
		return models.NewAlignmentError(
			fmt.Sprintf("invalid span [%d, %d)", child.Begin, child.End),
		)
	}
	if !parent.Contains(child) {
		return models.NewAlignmentError(
			fmt.Sprintf("span [%d, %d) not contained in [%d, %d)", child.Begin, child.End, parent.Begin, parent.End),
		)
	}
	return nil
}

// ValidateBatch checks every offset in the batch: each sentence span must be
// well formed, each token must lie inside its sentence, and each annotation
// must be assignable to a single sentence. Any violation rejects the whole
// batch.
func ValidateBatch(input *models.AMRBatchInput) error {
	if input == nil || len(input.Sentences) == 0 {
		return models.NewAlignmentError("batch has no sentences")
	}
	sentenceCursor := 0
	for i := range input.Sentences {
		sentence := &input.Sentences[i]
		if !sentence.Valid() {
			return models.NewAlignmentError(
				fmt.Sprintf("sentence %d has invalid span [%d, %d)", i, sentence.Begin, sentence.End),
			)
		}
		if sentence.Begin < sentenceCursor {
			return models.NewAlignmentError(
				fmt.Sprintf("sentence %d span [%d, %d) overlaps or precedes the previous sentence", i, sentence.Begin, sentence.End),
			)
		}
		sentenceCursor = sentence.End
		if len(sentence.Tokens) == 0 {
			return models.NewAlignmentError(fmt.Sprintf("sentence %d has no tokens", i))
		}
		tokenCursor := sentence.Begin
		for j, token := range sentence.Tokens {
			if err := CheckContained(token.Span, sentence.Span); err != nil {
				return models.NewAlignmentError(
					fmt.Sprintf("token %d of sentence %d: %v", j, i, err),
				)
			}
			if token.Begin < tokenCursor {
				return models.NewAlignmentError(
					fmt.Sprintf("token %d of sentence %d overlaps or precedes the previous token", j, i),
				)
			}
			tokenCursor = token.End
		}
		if _, err := AssignAnnotations(sentence, input.Annotations); err != nil {
			return err
		}
	}
	return nil
}

// AssignAnnotations returns the annotations belonging to the sentence: those
// whose span lies fully inside the sentence span. An annotation that crosses
// the sentence boundary cannot be assigned anywhere and fails with an
// AlignmentError; annotations entirely outside the sentence are skipped.
func AssignAnnotations(sentence *models.Sentence, annotations []models.Annotation) ([]models.Annotation, error) {
	var assigned []models.Annotation
	for _, annotation := range annotations {
		if !annotation.Valid() {
			return nil, models.NewAlignmentError(
				fmt.Sprintf("annotation %q has invalid span [%d, %d)", annotation.Tag, annotation.Begin, annotation.End),
			)
		}
		switch {
		case sentence.Contains(annotation.Span):
			assigned = append(assigned, annotation)
		case sentence.Overlaps(annotation.Span):
			return nil, models.NewAlignmentError(
				fmt.Sprintf("annotation %q [%d, %d) straddles sentence boundary [%d, %d)",
					annotation.Tag, annotation.Begin, annotation.End, sentence.Begin, sentence.End),
			)
		}
	}
	return assigned, nil
}

// CharSpan maps a half-open token index range back to the character span it
// covers in the document text.
func CharSpan(sentence *models.Sentence, begin int, end int) (models.Span, error) {
	if begin < 0 || end > len(sentence.Tokens) || begin >= end {
		return models.Span{}, models.NewAlignmentError(
			fmt.Sprintf("token range [%d, %d) outside sentence with %d tokens", begin, end, len(sentence.Tokens)),
		)
	}
	return models.Span{
		Begin: sentence.Tokens[begin].Begin,
		End:   sentence.Tokens[end-1].End,
	}, nil
}
