package notes

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/athapong/ontonote/pkg/apperr"
	"github.com/athapong/ontonote/pkg/metrics"
	"github.com/athapong/ontonote/pkg/ontology"
	"github.com/athapong/ontonote/pkg/vault"
	"github.com/athapong/ontonote/services"
	"github.com/jdkato/prose/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// ExcerptLength caps the characters of each note shown to the backend.
const ExcerptLength = 200

// Suggestions are proposed connections between a text and existing notes.
type Suggestions struct {
	Graph   *ontology.ConceptGraph
	Related []string
	Text    string
}

// SuggestConnections finds documents sharing concepts with text and asks the
// backend how they relate. Without related documents the backend is not
// called and Text is empty. A backend failure returns the related documents
// together with the error.
func (p *Pipeline) SuggestConnections(ctx context.Context, text string) (*Suggestions, error) {
	timer := prometheus.NewTimer(metrics.PipelineDuration.WithLabelValues("suggest_connections"))
	defer timer.ObserveDuration()

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperr.Validation("suggest connections", "text is empty")
	}
	input := services.TruncateTokens(text, p.maxTokens)

	graph, err := p.extractor.Extract(ctx, input)
	if err != nil {
		p.logger.WithError(err).Warn("Suggesting with an empty ontology")
	}
	out := &Suggestions{Graph: graph, Related: []string{}}

	paths, err := p.store.FindRelated(graph.Concepts())
	if err != nil {
		return out, err
	}
	if len(paths) == 0 {
		p.logger.Info("No related notes found")
		return out, nil
	}

	var existing strings.Builder
	for _, path := range paths {
		doc, err := p.store.Load(path)
		if err != nil {
			p.logger.WithError(err).WithField("path", path).Warn("Skipping related note")
			continue
		}
		out.Related = append(out.Related, p.store.Relative(path))
		fmt.Fprintf(&existing, "Title: %s\nContent: %s\n\n", vault.Stem(path), Excerpt(doc.Body, ExcerptLength))
	}

	answer, err := p.gen.Generate(ctx, fmt.Sprintf(suggestPrompt, input, strings.TrimSpace(existing.String())))
	if err != nil {
		if !apperr.IsBackend(err) {
			err = apperr.Backend("suggest connections", err)
		}
		return out, err
	}
	out.Text = strings.TrimSpace(answer)

	p.logger.WithFields(logrus.Fields{
		"related":  len(out.Related),
		"concepts": len(graph.Concepts()),
	}).Info("Connections suggested")
	return out, nil
}

// Excerpt returns the leading sentences of text that fit in limit
// characters, followed by "..." when something was cut.
func Excerpt(text string, limit int) string {
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) <= limit {
		return text
	}

	var b strings.Builder
	doc, err := prose.NewDocument(text, prose.WithTagging(false), prose.WithExtraction(false))
	if err == nil {
		n := 0
		for _, s := range doc.Sentences() {
			l := utf8.RuneCountInString(s.Text)
			sep := 0
			if n > 0 {
				sep = 1
			}
			if n+sep+l > limit {
				break
			}
			if sep == 1 {
				b.WriteByte(' ')
			}
			b.WriteString(s.Text)
			n += sep + l
		}
	}
	if b.Len() == 0 {
		b.WriteString(strings.TrimSpace(string([]rune(text)[:limit])))
	}
	return b.String() + "..."
}
