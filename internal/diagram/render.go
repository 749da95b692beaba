package diagram

import "strings"

// RetryHint is shown alongside the raw source when a diagram cannot be parsed.
const RetryHint = "The mind map could not be drawn. Regenerate the study aids to try again."

// View is what the client shows for a mind map: an outline when the source
// parses, otherwise the model's raw source with a hint.
type View struct {
	Raw     string
	Source  string
	Graph   *Graph
	Outline string
	Err     error
	Hint    string
}

func (v View) OK() bool { return v.Err == nil }

// String renders the view for a terminal.
func (v View) String() string {
	if v.OK() {
		return v.Outline
	}
	return v.Raw + "\n\n" + v.Hint
}

func Render(src string) View {
	return RenderWith(src, Sanitize)
}

// RenderWith renders using a caller-supplied sanitiser. Parse failures are
// reported inside the View, never returned.
func RenderWith(src string, sanitize SanitizeFunc) View {
	clean := sanitize(src)
	g, err := Parse(clean)
	if err != nil {
		return View{Raw: src, Source: clean, Err: err, Hint: RetryHint}
	}
	return View{Raw: src, Source: clean, Graph: g, Outline: Outline(g)}
}

// Outline prints the graph as an indented bullet tree. Roots are nodes without
// incoming edges; nodes reached twice are printed once and then referenced.
func Outline(g *Graph) string {
	children := make(map[string][]Edge)
	incoming := make(map[string]int)
	for _, e := range g.Edges {
		children[e.From] = append(children[e.From], e)
		incoming[e.To]++
	}

	var b strings.Builder
	seen := make(map[string]bool)

	var walk func(id, via string, depth int)
	walk = func(id, via string, depth int) {
		b.WriteString(strings.Repeat("  ", depth))
		b.WriteString("- ")
		if via != "" {
			b.WriteString("(" + via + ") ")
		}
		b.WriteString(g.label(id))
		if seen[id] {
			b.WriteString(" ↑\n")
			return
		}
		b.WriteString("\n")
		seen[id] = true
		for _, e := range children[id] {
			walk(e.To, e.Label, depth+1)
		}
	}

	for _, n := range g.Nodes {
		if incoming[n.ID] == 0 && !seen[n.ID] {
			walk(n.ID, "", 0)
		}
	}
	// Anything left sits on a cycle with no entry point.
	for _, n := range g.Nodes {
		if !seen[n.ID] {
			walk(n.ID, "", 0)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func (g *Graph) label(id string) string {
	if i, ok := g.index[id]; ok {
		return g.Nodes[i].Label
	}
	return id
}
