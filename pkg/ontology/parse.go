package ontology

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/athapong/ontonote/pkg/apperr"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

var (
	leadingFence  = regexp.MustCompile("^```[\\w+-]*\\s*")
	trailingFence = regexp.MustCompile("\\s*```\\s*$")
	leadingRule   = regexp.MustCompile(`^---\s*`)
	trailingRule  = regexp.MustCompile(`\s*---\s*$`)
)

// Clean strips the wrapping a model tends to put around YAML: surrounding
// whitespace, a code fence with optional language tag, and document markers.
func Clean(raw string) string {
	s := strings.TrimSpace(raw)
	s = leadingFence.ReplaceAllString(s, "")
	s = trailingFence.ReplaceAllString(s, "")
	s = leadingRule.ReplaceAllString(s, "")
	s = trailingRule.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// Parse turns a model answer into a ConceptGraph. On any failure it returns
// the empty graph together with a parse error.
func Parse(raw string) (*ConceptGraph, error) {
	g, _, err := parse(raw)
	return g, err
}

// parse also returns the entries it had to skip.
func parse(raw string) (*ConceptGraph, []string, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(Clean(raw)), &doc); err != nil {
		return Empty(), nil, apperr.Parse("parse ontology", err)
	}

	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		return Empty(), nil, apperr.Parse("parse ontology", errors.New("top-level value is not a mapping"))
	}

	var (
		concepts      []string
		relationships []Relationship
		skipped       []string
	)
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i].Value, resolve(root.Content[i+1])
		switch key {
		case "concepts":
			if isNull(value) {
				continue
			}
			if value.Kind != yaml.SequenceNode {
				skipped = append(skipped, fmt.Sprintf("concepts is not a list (line %d)", value.Line))
				continue
			}
			for _, item := range value.Content {
				item = resolve(item)
				if item.Kind != yaml.ScalarNode || isNull(item) {
					skipped = append(skipped, fmt.Sprintf("non-scalar concept at line %d", item.Line))
					continue
				}
				concepts = append(concepts, item.Value)
			}
		case "relationships":
			if isNull(value) {
				continue
			}
			if value.Kind != yaml.SequenceNode {
				skipped = append(skipped, fmt.Sprintf("relationships is not a list (line %d)", value.Line))
				continue
			}
			for _, item := range value.Content {
				item = resolve(item)
				if item.Kind != yaml.MappingNode {
					skipped = append(skipped, fmt.Sprintf("relationship at line %d is not a mapping", item.Line))
					continue
				}
				relationships = append(relationships, relationshipFrom(item))
			}
		}
	}

	return NewConceptGraph(concepts, relationships), skipped, nil
}

func relationshipFrom(n *yaml.Node) Relationship {
	var r Relationship
	for i := 0; i+1 < len(n.Content); i += 2 {
		v := resolve(n.Content[i+1])
		if v.Kind != yaml.ScalarNode || isNull(v) {
			continue
		}
		switch n.Content[i].Value {
		case "source":
			r.Source = v.Value
		case "target":
			r.Target = v.Value
		case "type":
			r.Type = v.Value
		case "description":
			r.Description = v.Value
		}
	}
	return r
}

func resolve(n *yaml.Node) *yaml.Node {
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

func isNull(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.Tag == "!!null"
}
