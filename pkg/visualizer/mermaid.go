// Package visualizer renders concept graphs as Mermaid diagrams.
package visualizer

import (
	"bytes"
	"sort"
	"strings"
	"text/template"

	"github.com/athapong/ontonote/pkg/ontology"
)

const mermaidTemplate = "```mermaid\ngraph TD\n" +
	"{{range .Edges}}    {{.From}}{{.Arrow}}{{.To}}\n{{end}}" +
	"{{range .Nodes}}    style {{.}} {{$.Style}}\n{{end}}" +
	"```"

// NodeStyle is applied to every node in the diagram.
const NodeStyle = "fill:#f9f,stroke:#333,stroke-width:2px"

const (
	solidArrow  = "-->"
	dashedArrow = "-.->"
)

var tmpl = template.Must(template.New("mermaid").Parse(mermaidTemplate))

type edge struct {
	From, Arrow, To string
}

type diagram struct {
	Edges []edge
	Nodes []string
	Style string
}

// NodeID turns a concept into a Mermaid node identifier.
func NodeID(concept string) string {
	return strings.ReplaceAll(concept, " ", "_")
}

// Render draws one edge per relationship, solid for is_a, part_of, used_for
// and unknown kinds, dashed for related_to, followed by one style line per
// distinct node in lexical order.
func Render(g *ontology.ConceptGraph) string {
	d := diagram{Style: NodeStyle}
	nodes := make(map[string]struct{})

	for _, r := range g.Relationships() {
		from, to := NodeID(r.Source), NodeID(r.Target)
		arrow := solidArrow
		if ontology.RelationKind(r.Type) == ontology.RelatedTo {
			arrow = dashedArrow
		}
		d.Edges = append(d.Edges, edge{From: from, Arrow: arrow, To: to})
		nodes[from] = struct{}{}
		nodes[to] = struct{}{}
	}

	for n := range nodes {
		d.Nodes = append(d.Nodes, n)
	}
	sort.Strings(d.Nodes)

	var buf bytes.Buffer
	// The template is static and the data has no methods that can fail.
	_ = tmpl.Execute(&buf, d)
	return buf.String()
}
