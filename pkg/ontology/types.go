// Package ontology models the concepts and relationships a generative model
// extracts from a note, and parses the model's YAML answer into that model.
package ontology

import (
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"
)

// RelationKind is the closed set of relationship types the pipeline understands.
type RelationKind string

const (
	IsA       RelationKind = "is_a"
	PartOf    RelationKind = "part_of"
	UsedFor   RelationKind = "used_for"
	RelatedTo RelationKind = "related_to"
)

// ParseRelationKind maps a model-produced type string onto a RelationKind.
// Unknown or empty values fall back to RelatedTo.
func ParseRelationKind(s string) RelationKind {
	switch RelationKind(s) {
	case IsA, PartOf, UsedFor, RelatedTo:
		return RelationKind(s)
	default:
		return RelatedTo
	}
}

// Relationship is a directed edge between two concepts. Type keeps the value
// exactly as the model produced it.
type Relationship struct {
	Source      string `yaml:"source" json:"source"`
	Target      string `yaml:"target" json:"target"`
	Type        string `yaml:"type" json:"type"`
	Description string `yaml:"description" json:"description"`
}

// Kind returns the normalized relation kind of r.
func (r Relationship) Kind() RelationKind {
	return ParseRelationKind(r.Type)
}

// ConceptGraph is an immutable set of concepts plus the relationships between them.
type ConceptGraph struct {
	concepts      []string
	conceptSet    mapset.Set[string]
	relationships []Relationship
}

// NewConceptGraph copies its inputs. Duplicate concepts keep their first position.
func NewConceptGraph(concepts []string, relationships []Relationship) *ConceptGraph {
	g := &ConceptGraph{
		concepts:      make([]string, 0, len(concepts)),
		conceptSet:    mapset.NewThreadUnsafeSet[string](),
		relationships: make([]Relationship, len(relationships)),
	}
	for _, c := range concepts {
		if g.conceptSet.Add(c) {
			g.concepts = append(g.concepts, c)
		}
	}
	copy(g.relationships, relationships)
	return g
}

// Empty returns a graph with no concepts and no relationships.
func Empty() *ConceptGraph {
	return NewConceptGraph(nil, nil)
}

func (g *ConceptGraph) Concepts() []string {
	out := make([]string, len(g.concepts))
	copy(out, g.concepts)
	return out
}

func (g *ConceptGraph) Relationships() []Relationship {
	out := make([]Relationship, len(g.relationships))
	copy(out, g.relationships)
	return out
}

// ConceptSet returns a fresh set holding every concept.
func (g *ConceptGraph) ConceptSet() mapset.Set[string] {
	return g.conceptSet.Clone()
}

func (g *ConceptGraph) HasConcept(c string) bool {
	return g.conceptSet.Contains(c)
}

func (g *ConceptGraph) IsEmpty() bool {
	return len(g.concepts) == 0 && len(g.relationships) == 0
}

// Neighbors returns the endpoints paired with title across all relationships,
// in relationship order and without duplicates.
func (g *ConceptGraph) Neighbors(title string) []string {
	seen := mapset.NewThreadUnsafeSet[string]()
	var out []string
	for _, r := range g.relationships {
		var other string
		switch title {
		case r.Source:
			other = r.Target
		case r.Target:
			other = r.Source
		default:
			continue
		}
		if other == "" || other == title {
			continue
		}
		if seen.Add(other) {
			out = append(out, other)
		}
	}
	return out
}

// Validate lists soft violations: self-loops and endpoints that are not
// declared concepts. The graph stays usable either way.
func (g *ConceptGraph) Validate() []string {
	var issues []string
	for i, r := range g.relationships {
		if r.Source == r.Target {
			issues = append(issues, fmt.Sprintf("relationship %d is a self-loop on %q", i, r.Source))
		}
		if !g.conceptSet.Contains(r.Source) {
			issues = append(issues, fmt.Sprintf("relationship %d source %q is not a concept", i, r.Source))
		}
		if !g.conceptSet.Contains(r.Target) {
			issues = append(issues, fmt.Sprintf("relationship %d target %q is not a concept", i, r.Target))
		}
	}
	return issues
}
