package amr

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const (
	idPrefix   = "# ::id"
	tokPrefix  = "# ::tok"
	nodePrefix = "# ::node"
)

// Alignment ties a variable to the half-open token index range its surface
// form covers. A negative range means the node is unaligned.
type Alignment struct {
	Variable string
	Concept  string
	Begin    int
	End      int
}

func (a Alignment) Aligned() bool {
	return a.Begin >= 0 && a.End > a.Begin
}

// Entry is one corpus record: the commented metadata block followed by the
// penman-serialized graph. Metadata the reader does not model is dropped.
type Entry struct {
	ID         string
	Tokens     []string
	Alignments []Alignment
	Penman     string
}

// ParseEntry parses a single record. Lines beginning with "# ::" carry
// metadata; the remaining non-comment lines form the graph.
func ParseEntry(block string) (*Entry, error) {
	entry := &Entry{}
	var graphLines []string
	for _, line := range strings.Split(block, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
		case strings.HasPrefix(trimmed, idPrefix):
			fields := strings.Fields(strings.TrimPrefix(trimmed, idPrefix))
			if len(fields) > 0 {
				entry.ID = fields[0]
			}
		case strings.HasPrefix(trimmed, tokPrefix):
			entry.Tokens = strings.Fields(strings.TrimPrefix(trimmed, tokPrefix))
		case strings.HasPrefix(trimmed, nodePrefix):
			alignment, err := parseAlignment(strings.TrimPrefix(trimmed, nodePrefix))
			if err != nil {
				return nil, err
			}
			entry.Alignments = append(entry.Alignments, alignment)
		case strings.HasPrefix(trimmed, "#"):
		default:
			graphLines = append(graphLines, line)
		}
	}
	entry.Penman = strings.TrimSpace(strings.Join(graphLines, "\n"))
	if entry.Penman == "" {
		return nil, fmt.Errorf("entry has no graph")
	}
	return entry, nil
}

func parseAlignment(rest string) (Alignment, error) {
	fields := strings.Fields(rest)
	if len(fields) < 2 {
		return Alignment{}, fmt.Errorf("malformed node line: %q", rest)
	}
	alignment := Alignment{
		Variable: fields[0],
		Concept:  strings.Join(fields[1:], " "),
		Begin:    -1,
		End:      -1,
	}
	last := fields[len(fields)-1]
	begin, end, ok := parseTokenRange(last)
	if ok {
		if len(fields) < 3 {
			return Alignment{}, fmt.Errorf("malformed node line: %q", rest)
		}
		alignment.Concept = strings.Join(fields[1:len(fields)-1], " ")
		alignment.Begin = begin
		alignment.End = end
	}
	return alignment, nil
}

func parseTokenRange(s string) (int, int, bool) {
	beginStr, endStr, found := strings.Cut(s, "-")
	if !found {
		return 0, 0, false
	}
	begin, err := strconv.Atoi(beginStr)
	if err != nil {
		return 0, 0, false
	}
	end, err := strconv.Atoi(endStr)
	if err != nil {
		return 0, 0, false
	}
	if begin < 0 || end <= begin {
		return 0, 0, false
	}
	return begin, end, true
}

// AlignedRange returns the token index range for a variable, if it carries
// one.
func (e *Entry) AlignedRange(variable string) (int, int, bool) {
	for _, alignment := range e.Alignments {
		if alignment.Variable == variable && alignment.Aligned() {
			return alignment.Begin, alignment.End, true
		}
	}
	return 0, 0, false
}

// Decode parses the entry's penman block.
func (e *Entry) Decode() (*Graph, error) {
	return Decode(e.Penman)
}

// String serializes the entry back into its corpus form: metadata lines
// followed by the graph.
func (e *Entry) String() string {
	var b strings.Builder
	if e.ID != "" {
		fmt.Fprintf(&b, "%s %s\n", idPrefix, e.ID)
	}
	if len(e.Tokens) > 0 {
		fmt.Fprintf(&b, "%s %s\n", tokPrefix, strings.Join(e.Tokens, " "))
	}
	for _, alignment := range e.Alignments {
		if alignment.Aligned() {
			fmt.Fprintf(&b, "%s %s %s %d-%d\n", nodePrefix, alignment.Variable, alignment.Concept, alignment.Begin, alignment.End)
		} else {
			fmt.Fprintf(&b, "%s %s %s\n", nodePrefix, alignment.Variable, alignment.Concept)
		}
	}
	b.WriteString(e.Penman)
	b.WriteString("\n")
	return b.String()
}

// SentinelEntry builds the empty-graph record for a sentence that failed to
// parse, keeping its tokens so the record stays attributable.
func SentinelEntry(tokens []string) *Entry {
	return &Entry{Tokens: tokens, Penman: EmptySentinel}
}

// ReadCorpus reads blank-line separated records from r.
func ReadCorpus(r io.Reader) ([]*Entry, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var entries []*Entry
	var block []string
	flush := func() error {
		joined := strings.TrimSpace(strings.Join(block, "\n"))
		block = block[:0]
		if joined == "" {
			return nil
		}
		entry, err := ParseEntry(joined)
		if err != nil {
			return fmt.Errorf("entry %d: %w", len(entries)+1, err)
		}
		entries = append(entries, entry)
		return nil
	}

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			if err := flush(); err != nil {
				return nil, err
			}
			continue
		}
		block = append(block, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading corpus: %w", err)
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return entries, nil
}

// WriteCorpus writes records separated by blank lines.
func WriteCorpus(w io.Writer, entries []*Entry) error {
	for i, entry := range entries {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, entry.String()); err != nil {
			return err
		}
	}
	return nil
}
