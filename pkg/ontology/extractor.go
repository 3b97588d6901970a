package ontology

import (
	"context"
	"fmt"
	"strings"

	"github.com/athapong/ontonote/pkg/apperr"
	"github.com/athapong/ontonote/pkg/metrics"
	"github.com/sirupsen/logrus"
)

// Generator produces text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

const extractionPrompt = `Analyze the following text and extract its ontology.
Answer with YAML only, using exactly this structure:

concepts:
  - concept name
relationships:
  - source: concept name
    target: concept name
    type: is_a | part_of | used_for | related_to
    description: one sentence describing the relationship

Relationship types:
- is_a: the source is a kind of the target
- part_of: the source is a component of the target
- used_for: the source is used to achieve the target
- related_to: any other association

Text:
%s`

// Extractor asks a Generator for an ontology and parses the answer.
type Extractor struct {
	gen    Generator
	logger *logrus.Logger
}

// NewExtractor creates an extractor. A nil logger gets a JSON logger.
func NewExtractor(gen Generator, logger *logrus.Logger) *Extractor {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return &Extractor{gen: gen, logger: logger}
}

// Extract always returns a usable graph. The error is nil on success, a
// backend error when generation failed, or a parse error when the answer
// could not be read; the graph is empty in both failure cases.
func (e *Extractor) Extract(ctx context.Context, text string) (*ConceptGraph, error) {
	raw, err := e.gen.Generate(ctx, Prompt(text))
	if err != nil {
		metrics.OntologyExtractions.WithLabelValues("backend_error").Inc()
		e.logger.WithError(err).Warn("Ontology generation failed")
		if !apperr.IsBackend(err) {
			err = apperr.Backend("extract ontology", err)
		}
		return Empty(), err
	}

	g, skipped, err := parse(raw)
	if err != nil {
		metrics.OntologyExtractions.WithLabelValues("parse_error").Inc()
		e.logger.WithError(err).WithField("response_length", len(raw)).Warn("Could not parse ontology")
		return g, err
	}
	for _, s := range skipped {
		e.logger.WithField("entry", s).Warn("Skipped malformed ontology entry")
	}
	for _, issue := range g.Validate() {
		e.logger.WithField("issue", issue).Debug("Ontology consistency")
	}

	metrics.OntologyExtractions.WithLabelValues("ok").Inc()
	e.logger.WithFields(logrus.Fields{
		"concepts":      len(g.concepts),
		"relationships": len(g.relationships),
	}).Info("Ontology extracted")
	return g, nil
}

// Prompt builds the extraction prompt for text.
func Prompt(text string) string {
	return fmt.Sprintf(extractionPrompt, strings.TrimSpace(text))
}
