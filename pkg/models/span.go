package models

// Span is a half-open [Begin, End) character-offset interval into the
// original document text. Offsets are never negative and Begin < End.
type Span struct {
	Begin int `json:"begin" validate:"gte=0"`
	End   int `json:"end"   validate:"gtefield=Begin"`
}

// Valid reports whether the span is well formed on its own.
func (s Span) Valid() bool {
	return s.Begin >= 0 && s.Begin < s.End
}

// Contains reports whether other lies fully within s.
func (s Span) Contains(other Span) bool {
	return other.Begin >= s.Begin && other.End <= s.End
}

// Overlaps reports whether the two half-open intervals intersect.
func (s Span) Overlaps(other Span) bool {
	return s.Begin < other.End && other.Begin < s.End
}

// Token is a single surface token with its offsets into the document text.
type Token struct {
	Span
	Text string `json:"text" validate:"required"`
}

// Sentence is an ordered token sequence covering one sentence span. Every
// token span must lie within the sentence span.
type Sentence struct {
	Span
	Tokens []Token `json:"tokens" validate:"required,min=1,dive"`
}

// TokenTexts returns the surface forms of the sentence's tokens in order.
func (s *Sentence) TokenTexts() []string {
	texts := make([]string, len(s.Tokens))
	for i, tok := range s.Tokens {
		texts[i] = tok.Text
	}
	return texts
}

// Text reconstructs the sentence's surface string from its tokens, joined on
// single spaces. Offsets are authoritative; this is for display and for
// collaborators that want the raw sentence.
func (s *Sentence) Text() string {
	text := ""
	for i, tok := range s.Tokens {
		if i > 0 {
			text += " "
		}
		text += tok.Text
	}
	return text
}

// Annotation is a tagged span over the batch's document text, e.g. a named
// entity mention. Annotations are not owned by a sentence; they are assigned
// to one by offset containment when consumed.
type Annotation struct {
	Span
	Tag string `json:"tag" validate:"required"`
}

// SentenceFromTokens rebuilds a Sentence from bare token strings, assigning
// offsets as if the tokens were joined by single spaces starting at begin.
// Corpus records store tokens without offsets, so this is how they re-enter
// span-based processing.
func SentenceFromTokens(begin int, tokens []string) Sentence {
	sentence := Sentence{Span: Span{Begin: begin, End: begin}}
	pos := begin
	for i, text := range tokens {
		if i > 0 {
			pos++
		}
		sentence.Tokens = append(sentence.Tokens, Token{
			Span: Span{Begin: pos, End: pos + len(text)},
			Text: text,
		})
		pos += len(text)
	}
	sentence.End = pos
	return sentence
}
