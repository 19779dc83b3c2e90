package models

// AMRBatchInput is one parsing request: an ordered run of sentences over a
// single document plus the flat annotation set for the whole document.
// Sentence order is the response order.
type AMRBatchInput struct {
	Sentences   []Sentence   `json:"sentences" validate:"required,min=1,dive"`
	Annotations []Annotation `json:"annotations" validate:"omitempty,dive"`
}

// AMRBatchResponse carries one serialized AMR graph per input sentence, in
// input order. A sentence the parser could not decode still occupies its
// slot, holding the empty-graph sentinel rather than nothing.
type AMRBatchResponse struct {
	AMRParse []string `json:"amr_parse"`
}
