// Package notes runs the note pipeline: it asks a text generation backend
// for explanatory content, extracts an ontology, tags and renders the
// result, and files it into the vault linked to related documents.
package notes

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/athapong/ontonote/pkg/apperr"
	"github.com/athapong/ontonote/pkg/metrics"
	"github.com/athapong/ontonote/pkg/ontology"
	"github.com/athapong/ontonote/pkg/tagger"
	"github.com/athapong/ontonote/pkg/templates"
	"github.com/athapong/ontonote/pkg/vault"
	"github.com/athapong/ontonote/pkg/visualizer"
	"github.com/athapong/ontonote/services"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// DefaultTitle is used when no title is given and none can be generated.
const DefaultTitle = "New Note"

const maxTitleRunes = 80

// Renderer renders a named template.
type Renderer interface {
	Render(name string, vars map[string]interface{}) (string, error)
}

// Options configures a Pipeline. Generator and Store are required.
type Options struct {
	Generator      services.Generator
	Extractor      *ontology.Extractor
	Store          *vault.Store
	Renderer       Renderer
	Logger         *logrus.Logger
	Clock          func() time.Time
	Template       string
	RelatedHeading string
	MaxInputTokens int
	Backlinks      bool
}

// Pipeline turns raw text into linked vault documents.
type Pipeline struct {
	gen       services.Generator
	extractor *ontology.Extractor
	store     *vault.Store
	renderer  Renderer
	logger    *logrus.Logger
	now       func() time.Time
	template  string
	heading   string
	maxTokens int
	backlinks bool
}

// New creates a pipeline.
func New(opts Options) (*Pipeline, error) {
	if opts.Generator == nil {
		return nil, apperr.Config("create pipeline", "no text generation backend")
	}
	if opts.Store == nil {
		return nil, apperr.Config("create pipeline", "no document store")
	}

	logger := opts.Logger
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	extractor := opts.Extractor
	if extractor == nil {
		extractor = ontology.NewExtractor(opts.Generator, logger)
	}
	now := opts.Clock
	if now == nil {
		now = time.Now
	}
	tmpl := opts.Template
	if tmpl == "" {
		tmpl = "concept.md"
	}
	heading := opts.RelatedHeading
	if heading == "" {
		heading = vault.DefaultRelatedHeading
	}

	return &Pipeline{
		gen:       opts.Generator,
		extractor: extractor,
		store:     opts.Store,
		renderer:  opts.Renderer,
		logger:    logger,
		now:       now,
		template:  tmpl,
		heading:   heading,
		maxTokens: opts.MaxInputTokens,
		backlinks: opts.Backlinks,
	}, nil
}

// Store returns the document store the pipeline writes to.
func (p *Pipeline) Store() *vault.Store {
	return p.store
}

// NoteRequest is the input of ProcessNewNote. Title and Template are optional.
type NoteRequest struct {
	Title    string
	Content  string
	Template string
}

// NoteResult describes the created document. Degraded names the steps that
// fell back to a reduced result.
type NoteResult struct {
	ID       string
	Path     string
	Title    string
	Tags     []string
	Concepts []string
	Related  []string
	Diagram  string
	Degraded []string
}

func (r *NoteResult) degrade(step string) {
	r.Degraded = append(r.Degraded, step)
	metrics.DegradedSteps.WithLabelValues(step).Inc()
}

// ProcessNewNote creates a document for req and returns where it was stored.
// Backend, parse, template and lookup failures degrade the result instead
// of aborting; only invalid input and write failures are returned as errors.
func (p *Pipeline) ProcessNewNote(ctx context.Context, req NoteRequest) (*NoteResult, error) {
	timer := prometheus.NewTimer(metrics.PipelineDuration.WithLabelValues("process_note"))
	defer timer.ObserveDuration()

	content := strings.TrimSpace(req.Content)
	if content == "" {
		metrics.NotesProcessed.WithLabelValues("rejected").Inc()
		return nil, apperr.Validation("process note", "content is empty")
	}

	res := &NoteResult{ID: uuid.New().String()}
	log := p.logger.WithField("run_id", res.ID)
	input := services.TruncateTokens(content, p.maxTokens)

	res.Title = strings.TrimSpace(req.Title)
	if res.Title == "" {
		res.Title = p.generateTitle(ctx, input, res, log)
	}
	log = log.WithField("title", res.Title)
	log.Info("Processing new note")

	generated, err := p.gen.Generate(ctx, fmt.Sprintf(explainPrompt, res.Title, input))
	if err != nil || strings.TrimSpace(generated) == "" {
		log.WithError(err).Warn("Content generation failed, keeping the original text")
		res.degrade("generate")
		generated = content
	}
	generated = strings.TrimSpace(generated)

	graph, err := p.extractor.Extract(ctx, services.TruncateTokens(generated, p.maxTokens))
	if err != nil {
		log.WithError(err).Warn("Continuing with an empty ontology")
		res.degrade("ontology")
	}
	res.Concepts = graph.Concepts()
	res.Tags = tagger.Tags(generated, graph)

	relatedPaths, err := p.store.FindRelated(res.Concepts)
	if err != nil {
		log.WithError(err).Warn("Related document lookup failed")
		res.degrade("related")
		relatedPaths = nil
	}
	self := p.store.PathFor(res.Title)
	kept := relatedPaths[:0]
	for _, path := range relatedPaths {
		// a note sharing the title is the file about to be overwritten
		if path != self {
			kept = append(kept, path)
		}
	}
	relatedPaths = kept
	res.Related = make([]string, 0, len(relatedPaths))
	for _, path := range relatedPaths {
		res.Related = append(res.Related, p.store.Relative(path))
	}

	if len(graph.Relationships()) > 0 {
		res.Diagram = visualizer.Render(graph)
	}

	now := p.now().Format(vault.TimeLayout)
	vars := map[string]interface{}{
		"title":           res.Title,
		"created":         now,
		"modified":        now,
		"type":            "concept",
		"tags":            res.Tags,
		"concepts":        res.Concepts,
		"content":         generated,
		"relationships":   graph.Relationships(),
		"mermaid_diagram": res.Diagram,
		"related_notes":   res.Related,
		"related_heading": p.heading,
	}
	rendered := p.render(firstNonEmpty(req.Template, p.template), vars, res, log)

	meta, body := p.splitRendered(rendered, log)
	if meta.Type == "" {
		meta.Type = "concept"
	}
	meta.Merge(&vault.Metadata{
		Title: res.Title,
		Tags:  vault.StringList(res.Tags),
	})

	res.Path, err = p.store.CreateFromOntology(res.Title, body, graph, meta)
	if err != nil {
		if res.Path == "" {
			metrics.NotesProcessed.WithLabelValues("error").Inc()
			log.WithError(err).Error("Failed to store note")
			return nil, err
		}
		log.WithError(err).Warn("Linking ontology neighbours failed")
		res.degrade("links")
	}

	if err := p.linkRelated(res.Path, relatedPaths, res.Related); err != nil {
		log.WithError(err).Warn("Linking related documents failed")
		res.degrade("links")
	}

	status := "success"
	if len(res.Degraded) > 0 {
		status = "degraded"
	}
	metrics.NotesProcessed.WithLabelValues(status).Inc()
	log.WithFields(logrus.Fields{
		"path":     res.Path,
		"tags":     len(res.Tags),
		"concepts": len(res.Concepts),
		"related":  len(res.Related),
		"degraded": res.Degraded,
	}).Info("Note created")
	return res, nil
}

func (p *Pipeline) generateTitle(ctx context.Context, input string, res *NoteResult, log *logrus.Entry) string {
	raw, err := p.gen.Generate(ctx, fmt.Sprintf(titlePrompt, input))
	if err != nil {
		log.WithError(err).Warn("Title generation failed")
		res.degrade("title")
		return DefaultTitle
	}
	title := cleanTitle(raw)
	if title == "" {
		res.degrade("title")
		return DefaultTitle
	}
	return title
}

// cleanTitle keeps the first non-empty line of a model answer without
// Markdown decoration or quotes.
func cleanTitle(raw string) string {
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimLeft(strings.TrimSpace(line), "# ")
		line = strings.TrimPrefix(line, "Title:")
		line = strings.Trim(line, "*_`\"'“”‘’ .:")
		if line == "" {
			continue
		}
		if utf8.RuneCountInString(line) > maxTitleRunes {
			line = string([]rune(line)[:maxTitleRunes])
		}
		return strings.TrimSpace(line)
	}
	return ""
}

func (p *Pipeline) render(name string, vars map[string]interface{}, res *NoteResult, log *logrus.Entry) string {
	if p.renderer == nil {
		return templates.Fallback(vars)
	}
	out, err := p.renderer.Render(name, vars)
	if err != nil {
		log.WithError(err).WithField("template", name).Warn("Template rendering failed, using the minimal layout")
		res.degrade("template")
		return templates.Fallback(vars)
	}
	return out
}

// splitRendered separates the header a template wrote from the body. An
// unreadable header is dropped; the structured metadata replaces it.
func (p *Pipeline) splitRendered(rendered string, log *logrus.Entry) (*vault.Metadata, string) {
	_, body, ok := vault.SplitHeader(rendered)
	if !ok {
		return &vault.Metadata{}, rendered
	}
	meta, _, err := vault.ParseDocument(rendered)
	if err != nil {
		log.WithError(err).Debug("Ignoring unreadable template header")
		return &vault.Metadata{}, body
	}
	return &meta, body
}

func (p *Pipeline) linkRelated(path string, relatedPaths, relatedNames []string) error {
	if path == "" || len(relatedNames) == 0 {
		return nil
	}
	if err := p.store.AddLinks(path, relatedNames, false); err != nil {
		return err
	}
	if !p.backlinks {
		return nil
	}
	self := p.store.Relative(path)
	for _, rp := range relatedPaths {
		if rp == path {
			continue
		}
		if err := p.store.AddBacklink(rp, self); err != nil {
			return err
		}
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
