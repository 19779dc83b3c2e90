package models

import (
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("not found")

type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

func NewNotFoundError(resource string) error {
	return &NotFoundError{Resource: resource}
}

var ErrAlignment = errors.New("alignment error")

// AlignmentError reports a batch whose offsets do not hold together, e.g. a
// token span escaping its sentence span or an annotation straddling a token
// boundary. It rejects the whole batch; no sentence from it is parsed.
type AlignmentError struct {
	Message string
}

func (e *AlignmentError) Error() string {
	return fmt.Sprintf("alignment error: %s", e.Message)
}

func (e *AlignmentError) Unwrap() error {
	return ErrAlignment
}

func NewAlignmentError(message string) error {
	return &AlignmentError{Message: message}
}

var ErrAugmentation = errors.New("augmentation error")

// AugmentationError reports a serialized graph the wiki augmenter could not
// parse. It is fatal for that sentence only; the corpus pass continues with
// the sentence unaugmented.
type AugmentationError struct {
	Message       string
	OriginalError error
}

func (e *AugmentationError) Error() string {
	if e.OriginalError != nil {
		return fmt.Sprintf("augmentation error: %s (original error: %v)", e.Message, e.OriginalError)
	}
	return fmt.Sprintf("augmentation error: %s", e.Message)
}

func (e *AugmentationError) Unwrap() error {
	return ErrAugmentation
}

func NewAugmentationError(message string, originalError error) error {
	return &AugmentationError{Message: message, OriginalError: originalError}
}

var ErrCorpusMismatch = errors.New("corpus mismatch")

// CorpusMismatchError reports candidate and reference corpora of different
// cardinality. Pairwise scoring is meaningless, so the run aborts.
type CorpusMismatchError struct {
	Candidates int
	References int
}

func (e *CorpusMismatchError) Error() string {
	return fmt.Sprintf("corpus mismatch: %d candidate graphs vs %d reference graphs", e.Candidates, e.References)
}

func (e *CorpusMismatchError) Unwrap() error {
	return ErrCorpusMismatch
}

func NewCorpusMismatchError(candidates int, references int) error {
	return &CorpusMismatchError{Candidates: candidates, References: references}
}

var ErrScoring = errors.New("scoring error")

// ScoringError reports a graph pair that could not be scored. The pair is
// excluded from the aggregate; the run itself keeps going.
type ScoringError struct {
	Pair    int
	Message string
}

func (e *ScoringError) Error() string {
	return fmt.Sprintf("scoring error for pair %d: %s", e.Pair, e.Message)
}

func (e *ScoringError) Unwrap() error {
	return ErrScoring
}

func NewScoringError(pair int, message string) error {
	return &ScoringError{Pair: pair, Message: message}
}

var ErrConfiguration = errors.New("configuration error")

// ConfigurationError reports an unusable run configuration, e.g. an unknown
// split name or a missing corpus path. It is raised before any work starts.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s", e.Message)
}

func (e *ConfigurationError) Unwrap() error {
	return ErrConfiguration
}

func NewConfigurationError(message string) error {
	return &ConfigurationError{Message: message}
}
