package diagram

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var ErrEmptyDiagram = errors.New("diagram has no nodes")

type Node struct {
	ID    string
	Label string
}

type Edge struct {
	From  string
	To    string
	Label string
}

// Graph is the parsed form of a flowchart or mind map. Nodes keep their order
// of first appearance.
type Graph struct {
	Kind      string
	Direction string
	Nodes     []Node
	Edges     []Edge

	index map[string]int
}

// ParseError points at the statement the parser could not understand.
type ParseError struct {
	Line      int
	Statement string
	Reason    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s: %q", e.Line, e.Reason, e.Statement)
}

var (
	// -.-> --> --- ==> --o --x or "-- label -->", each with an optional |label|.
	arrowRe = regexp.MustCompile(`\s*(?:-\.->|-->|---|==>|--o\b|--x\b|--\s*([^-|>][^>|]*?)\s*-->)\s*(?:\|([^|]*)\|)?\s*`)
	nodeRe  = regexp.MustCompile(`^([A-Za-z0-9_]+)\s*(.*)$`)

	skipPrefixes = []string{"%%", "classDef ", "class ", "style ", "linkStyle ", "click ", "subgraph ", "direction "}
)

// Parse reads sanitised diagram source.
func Parse(src string) (*Graph, error) {
	lines := strings.Split(strings.ReplaceAll(src, "\r\n", "\n"), "\n")
	if head, rest, ok := strings.Cut(lines[0], ";"); ok {
		lines = append([]string{head, rest}, lines[1:]...)
	}
	header := strings.Fields(strings.TrimSpace(lines[0]))
	if len(header) == 0 || !HasKeyword(lines[0]) {
		return nil, &ParseError{Line: 1, Statement: lines[0], Reason: "missing diagram keyword"}
	}

	g := &Graph{Kind: header[0], index: make(map[string]int)}
	if len(header) > 1 {
		g.Direction = strings.TrimSuffix(header[1], ";")
	}

	var err error
	if g.Kind == "mindmap" {
		err = g.parseMindmap(lines[1:])
	} else {
		err = g.parseFlowchart(lines[1:])
	}
	if err != nil {
		return nil, err
	}
	if len(g.Nodes) == 0 {
		return nil, ErrEmptyDiagram
	}
	return g, nil
}

func (g *Graph) parseFlowchart(lines []string) error {
	for i, raw := range lines {
		lineNo := i + 2
		for _, stmt := range strings.Split(raw, ";") {
			stmt = strings.TrimSpace(stmt)
			if stmt == "" || stmt == "end" || hasAnyPrefix(stmt, skipPrefixes) {
				continue
			}

			locs := arrowRe.FindAllStringSubmatchIndex(maskLabels(stmt), -1)
			var ids []string
			var labels []string
			prev := 0
			for _, loc := range locs {
				id, err := g.addNodeToken(stmt[prev:loc[0]])
				if err != nil {
					return &ParseError{Line: lineNo, Statement: stmt, Reason: err.Error()}
				}
				ids = append(ids, id)
				labels = append(labels, edgeLabel(stmt, loc))
				prev = loc[1]
			}
			id, err := g.addNodeToken(stmt[prev:])
			if err != nil {
				return &ParseError{Line: lineNo, Statement: stmt, Reason: err.Error()}
			}
			ids = append(ids, id)

			for j := 0; j+1 < len(ids); j++ {
				g.Edges = append(g.Edges, Edge{From: ids[j], To: ids[j+1], Label: labels[j]})
			}
		}
	}
	return nil
}

// maskLabels blanks out bracketed and quoted text so arrows inside node labels
// are not taken as edges. The result has the same byte offsets as s.
func maskLabels(s string) string {
	b := []byte(s)
	depth := 0
	quoted := false
	for i, c := range b {
		switch {
		case c == '"':
			quoted = !quoted
		case quoted:
			b[i] = '#'
		case c == '[' || c == '(' || c == '{':
			depth++
		case c == ']' || c == ')' || c == '}':
			if depth > 0 {
				depth--
			}
		case depth > 0:
			b[i] = '#'
		}
	}
	return string(b)
}

func edgeLabel(stmt string, loc []int) string {
	for _, k := range []int{2, 4} {
		if loc[k] >= 0 {
			return unquote(strings.TrimSpace(stmt[loc[k]:loc[k+1]]))
		}
	}
	return ""
}

func (g *Graph) addNodeToken(tok string) (string, error) {
	tok = strings.TrimSpace(tok)
	m := nodeRe.FindStringSubmatch(tok)
	if m == nil {
		return "", errors.New("invalid node id")
	}
	id, shape := m[1], strings.TrimSpace(m[2])
	label := ""
	if shape != "" {
		var ok bool
		label, ok = shapeLabel(shape)
		if !ok {
			return "", errors.New("unbalanced node shape")
		}
	}
	g.upsert(id, label)
	return id, nil
}

func (g *Graph) upsert(id, label string) {
	if i, ok := g.index[id]; ok {
		if label != "" {
			g.Nodes[i].Label = label
		}
		return
	}
	if label == "" {
		label = id
	}
	g.index[id] = len(g.Nodes)
	g.Nodes = append(g.Nodes, Node{ID: id, Label: label})
}

var shapes = []struct{ open, close string }{
	{"((", "))"}, {"([", "])"}, {"[[", "]]"}, {"[(", ")]"}, {"{{", "}}"},
	{"[", "]"}, {"(", ")"}, {"{", "}"}, {">", "]"},
}

func shapeLabel(shape string) (string, bool) {
	for _, s := range shapes {
		if strings.HasPrefix(shape, s.open) && strings.HasSuffix(shape, s.close) && len(shape) >= len(s.open)+len(s.close) {
			inner := shape[len(s.open) : len(shape)-len(s.close)]
			return unquote(strings.TrimSpace(inner)), true
		}
	}
	return "", false
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

func (g *Graph) parseMindmap(lines []string) error {
	type frame struct {
		indent int
		id     string
	}
	var stack []frame
	n := 0
	for i, raw := range lines {
		if strings.TrimSpace(raw) == "" || strings.HasPrefix(strings.TrimSpace(raw), "%%") {
			continue
		}
		indent := len(raw) - len(strings.TrimLeft(raw, " \t"))
		text := strings.TrimSpace(raw)
		if strings.HasPrefix(text, "::icon") {
			continue
		}

		label := text
		if m := nodeRe.FindStringSubmatch(text); m != nil && m[2] != "" {
			if l, ok := shapeLabel(strings.TrimSpace(m[2])); ok {
				label = l
			}
		} else if l, ok := shapeLabel(text); ok {
			label = l
		}
		if label == "" {
			return &ParseError{Line: i + 2, Statement: text, Reason: "empty mind map node"}
		}

		n++
		id := fmt.Sprintf("n%d", n)
		g.upsert(id, label)

		for len(stack) > 0 && stack[len(stack)-1].indent >= indent {
			stack = stack[:len(stack)-1]
		}
		if len(stack) > 0 {
			g.Edges = append(g.Edges, Edge{From: stack[len(stack)-1].id, To: id})
		}
		stack = append(stack, frame{indent: indent, id: id})
	}
	return nil
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
