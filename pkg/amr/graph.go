package amr

import (
	"fmt"
	"strings"
)

// EmptySentinel is the serialized form of the designated empty graph. A
// sentence the parser cannot decode still occupies its response slot,
// holding this graph, so consumers never need to special-case absence.
const EmptySentinel = "(a / amr-empty)"

const emptyConcept = "amr-empty"

// WikiRelation is the attribute slot the augmenter fills with a resolved
// knowledge-base identifier, or with NoLink when resolution yields nothing.
const WikiRelation = ":wiki"

// NoLink marks an entity node that was looked up but has no entry.
const NoLink = "-"

// Normalize strips double quotes from a token, concept or constant before
// comparison. Corpora carry string constants both quoted and bare; a lone
// quote token stays as is.
func Normalize(s string) string {
	if s == `"` {
		return s
	}
	return strings.ReplaceAll(s, `"`, "")
}

// Triple is one (relation, source, target) fact extracted from a graph for
// structural comparison. Instance triples pair a variable with its concept,
// attribute triples pair a variable with a constant, and relation triples
// pair two variables.
type Triple struct {
	Relation string
	Source   string
	Target   string
}

// Edge is a labeled relation between two variables.
type Edge struct {
	Source   string
	Relation string
	Target   string
}

// Attribute is a labeled constant attached to a variable. The value keeps
// its serialized form, quotes included for string constants.
type Attribute struct {
	Source   string
	Relation string
	Value    string
}

// Graph is a rooted, directed AMR graph: concept-labeled variables joined by
// relation-labeled edges, with constant attributes hanging off variables.
type Graph struct {
	Root       string
	Variables  []string
	Concepts   map[string]string
	Edges      []Edge
	Attributes []Attribute
}

func NewGraph() *Graph {
	return &Graph{
		Concepts: make(map[string]string),
	}
}

// Empty returns the designated empty graph.
func Empty() *Graph {
	g := NewGraph()
	_ = g.AddNode("a", emptyConcept)
	return g
}

// IsEmpty reports whether the graph is the empty sentinel: a single node
// carrying the empty concept.
func (g *Graph) IsEmpty() bool {
	return len(g.Variables) == 1 && g.Concepts[g.Root] == emptyConcept
}

func (g *Graph) HasVariable(variable string) bool {
	_, ok := g.Concepts[variable]
	return ok
}

// AddNode introduces a variable with its concept label. The first node added
// becomes the root.
func (g *Graph) AddNode(variable string, concept string) error {
	if g.HasVariable(variable) {
		return fmt.Errorf("duplicate variable %q", variable)
	}
	if g.Root == "" {
		g.Root = variable
	}
	g.Variables = append(g.Variables, variable)
	g.Concepts[variable] = concept
	return nil
}

func (g *Graph) AddEdge(source string, relation string, target string) error {
	if !g.HasVariable(source) {
		return fmt.Errorf("edge source %q is not a variable", source)
	}
	if !g.HasVariable(target) {
		return fmt.Errorf("edge target %q is not a variable", target)
	}
	g.Edges = append(g.Edges, Edge{Source: source, Relation: relation, Target: target})
	return nil
}

func (g *Graph) AddAttribute(source string, relation string, value string) error {
	if !g.HasVariable(source) {
		return fmt.Errorf("attribute source %q is not a variable", source)
	}
	g.Attributes = append(g.Attributes, Attribute{Source: source, Relation: relation, Value: value})
	return nil
}

// Wiki returns the variable's wiki attribute value, if any.
func (g *Graph) Wiki(variable string) (string, bool) {
	for _, attr := range g.Attributes {
		if attr.Source == variable && attr.Relation == WikiRelation {
			return attr.Value, true
		}
	}
	return "", false
}

// SetWiki fills the variable's wiki slot, replacing any existing value. The
// slot is single-valued.
func (g *Graph) SetWiki(variable string, value string) error {
	if !g.HasVariable(variable) {
		return fmt.Errorf("wiki target %q is not a variable", variable)
	}
	for i, attr := range g.Attributes {
		if attr.Source == variable && attr.Relation == WikiRelation {
			g.Attributes[i].Value = value
			return nil
		}
	}
	g.Attributes = append(g.Attributes, Attribute{Source: variable, Relation: WikiRelation, Value: value})
	return nil
}

// InstanceTriples returns one (:instance, variable, concept) triple per node,
// in node insertion order.
func (g *Graph) InstanceTriples() []Triple {
	triples := make([]Triple, len(g.Variables))
	for i, variable := range g.Variables {
		triples[i] = Triple{Relation: ":instance", Source: variable, Target: g.Concepts[variable]}
	}
	return triples
}

// AttributeTriples returns the graph's constant-valued triples, plus a
// synthetic (:top, root, root-concept) triple so rootedness participates in
// structural comparison.
func (g *Graph) AttributeTriples() []Triple {
	triples := make([]Triple, 0, len(g.Attributes)+1)
	if g.Root != "" {
		triples = append(triples, Triple{Relation: ":top", Source: g.Root, Target: g.Concepts[g.Root]})
	}
	for _, attr := range g.Attributes {
		triples = append(triples, Triple{Relation: attr.Relation, Source: attr.Source, Target: attr.Value})
	}
	return triples
}

// RelationTriples returns the graph's variable-to-variable triples in edge
// insertion order.
func (g *Graph) RelationTriples() []Triple {
	triples := make([]Triple, len(g.Edges))
	for i, edge := range g.Edges {
		triples[i] = Triple{Relation: edge.Relation, Source: edge.Source, Target: edge.Target}
	}
	return triples
}

// TripleCount is the total number of triples the graph contributes to
// structural comparison.
func (g *Graph) TripleCount() int {
	count := len(g.Variables) + len(g.Edges) + len(g.Attributes)
	if g.Root != "" {
		count++
	}
	return count
}
