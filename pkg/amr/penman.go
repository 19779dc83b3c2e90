package amr

import (
	"fmt"
	"strings"
)

// Decode parses a penman-serialized graph. Variables may be re-referenced
// before or after their defining occurrence; an atom target that names a
// defined variable becomes an edge, any other atom becomes an attribute.
func Decode(input string) (*Graph, error) {
	tokens, err := tokenize(input)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	root, err := p.parseNode()
	if err != nil {
		return nil, err
	}
	if !p.done() {
		return nil, fmt.Errorf("trailing content after graph: %q", p.peek())
	}

	defined := make(map[string]bool)
	if err := collectVariables(root, defined); err != nil {
		return nil, err
	}

	g := NewGraph()
	if err := buildGraph(g, root, defined); err != nil {
		return nil, err
	}
	return g, nil
}

// String serializes the graph in penman form, expanding each variable at its
// first mention and writing plain variable references afterwards. Attributes
// print before edges under each node.
func (g *Graph) String() string {
	if g.Root == "" {
		return ""
	}
	var b strings.Builder
	visited := make(map[string]bool)
	g.writeNode(&b, g.Root, 1, visited)
	return b.String()
}

func (g *Graph) writeNode(b *strings.Builder, variable string, depth int, visited map[string]bool) {
	if visited[variable] {
		b.WriteString(variable)
		return
	}
	visited[variable] = true
	fmt.Fprintf(b, "(%s / %s", variable, g.Concepts[variable])
	indent := "\n" + strings.Repeat("    ", depth)
	for _, attr := range g.Attributes {
		if attr.Source != variable {
			continue
		}
		b.WriteString(indent)
		fmt.Fprintf(b, "%s %s", attr.Relation, attr.Value)
	}
	for _, edge := range g.Edges {
		if edge.Source != variable {
			continue
		}
		b.WriteString(indent)
		b.WriteString(edge.Relation)
		b.WriteString(" ")
		g.writeNode(b, edge.Target, depth+1, visited)
	}
	b.WriteString(")")
}

type rawRelation struct {
	role string
	node *rawNode
	atom string
}

type rawNode struct {
	variable  string
	concept   string
	relations []rawRelation
}

func collectVariables(node *rawNode, defined map[string]bool) error {
	if defined[node.variable] {
		return fmt.Errorf("duplicate variable %q", node.variable)
	}
	defined[node.variable] = true
	for _, rel := range node.relations {
		if rel.node == nil {
			continue
		}
		if err := collectVariables(rel.node, defined); err != nil {
			return err
		}
	}
	return nil
}

func buildGraph(g *Graph, node *rawNode, defined map[string]bool) error {
	if err := g.AddNode(node.variable, node.concept); err != nil {
		return err
	}
	for _, rel := range node.relations {
		switch {
		case rel.node != nil:
			if err := buildGraph(g, rel.node, defined); err != nil {
				return err
			}
			if err := g.AddEdge(node.variable, rel.role, rel.node.variable); err != nil {
				return err
			}
		case defined[rel.atom]:
			// The target may be defined after this point, so the edge is
			// recorded directly rather than through AddEdge.
			g.Edges = append(g.Edges, Edge{Source: node.variable, Relation: rel.role, Target: rel.atom})
		default:
			g.Attributes = append(g.Attributes, Attribute{Source: node.variable, Relation: rel.role, Value: rel.atom})
		}
	}
	return nil
}

type parser struct {
	tokens []string
	pos    int
}

func (p *parser) done() bool {
	return p.pos >= len(p.tokens)
}

func (p *parser) peek() string {
	if p.done() {
		return ""
	}
	return p.tokens[p.pos]
}

func (p *parser) next() (string, error) {
	if p.done() {
		return "", fmt.Errorf("unexpected end of graph")
	}
	tok := p.tokens[p.pos]
	p.pos++
	return tok, nil
}

func (p *parser) expect(want string) error {
	tok, err := p.next()
	if err != nil {
		return err
	}
	if tok != want {
		return fmt.Errorf("expected %q, got %q", want, tok)
	}
	return nil
}

func (p *parser) parseNode() (*rawNode, error) {
	if err := p.expect("("); err != nil {
		return nil, err
	}
	variable, err := p.next()
	if err != nil {
		return nil, err
	}
	if !isAtom(variable) {
		return nil, fmt.Errorf("expected variable, got %q", variable)
	}
	if err := p.expect("/"); err != nil {
		return nil, err
	}
	concept, err := p.next()
	if err != nil {
		return nil, err
	}
	if !isAtom(concept) {
		return nil, fmt.Errorf("expected concept, got %q", concept)
	}

	node := &rawNode{variable: variable, concept: concept}
	for {
		tok := p.peek()
		switch {
		case tok == ")":
			p.pos++
			return node, nil
		case strings.HasPrefix(tok, ":") && len(tok) > 1:
			p.pos++
			rel := rawRelation{role: tok}
			if p.peek() == "(" {
				child, err := p.parseNode()
				if err != nil {
					return nil, err
				}
				rel.node = child
			} else {
				atom, err := p.next()
				if err != nil {
					return nil, err
				}
				if atom == ")" || atom == "(" || atom == "/" {
					return nil, fmt.Errorf("expected value for %s, got %q", tok, atom)
				}
				rel.atom = atom
			}
			node.relations = append(node.relations, rel)
		case tok == "":
			return nil, fmt.Errorf("unexpected end of graph")
		default:
			return nil, fmt.Errorf("expected relation or ), got %q", tok)
		}
	}
}

func isAtom(tok string) bool {
	if tok == "" || tok == "(" || tok == ")" || tok == "/" {
		return false
	}
	return !strings.HasPrefix(tok, ":")
}

func tokenize(input string) ([]string, error) {
	var tokens []string
	i := 0
	for i < len(input) {
		c := input[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '(' || c == ')' || c == '/':
			tokens = append(tokens, string(c))
			i++
		case c == '"':
			j := i + 1
			for j < len(input) {
				if input[j] == '\\' && j+1 < len(input) {
					j += 2
					continue
				}
				if input[j] == '"' {
					break
				}
				j++
			}
			if j >= len(input) {
				return nil, fmt.Errorf("unterminated string constant at offset %d", i)
			}
			tokens = append(tokens, input[i:j+1])
			i = j + 1
		default:
			j := i
			for j < len(input) && !isDelimiter(input[j]) {
				j++
			}
			tokens = append(tokens, input[i:j])
			i = j
		}
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("empty graph")
	}
	return tokens, nil
}

func isDelimiter(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '(', ')', '"', '/':
		return true
	}
	return false
}
