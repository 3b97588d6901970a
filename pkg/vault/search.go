package vault

import (
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/athapong/ontonote/pkg/apperr"
	"github.com/athapong/ontonote/pkg/metrics"
	"github.com/athapong/ontonote/pkg/ontology"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/sirupsen/logrus"
)

// Walk calls fn for every document in the vault in lexical order. Hidden
// directories such as .obsidian and .templates are skipped, and so are
// documents that cannot be read or parsed.
func (s *Store) Walk(fn func(doc *Document) error) error {
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == s.root {
				return err
			}
			s.logger.WithError(err).WithField("path", path).Warn("Skipping unreadable path")
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != s.root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.EqualFold(filepath.Ext(path), documentExt) {
			return nil
		}

		doc, err := s.Load(path)
		if err != nil {
			s.logger.WithError(err).WithField("path", path).Warn("Skipping unreadable document")
			return nil
		}
		return fn(doc)
	})
	if err != nil {
		return apperr.IO("walk vault", s.root, err)
	}
	return nil
}

// FindRelated returns the paths of documents whose concepts share at least
// one entry with concepts.
func (s *Store) FindRelated(concepts []string) ([]string, error) {
	related := []string{}
	query := mapset.NewSet[string]()
	for _, c := range concepts {
		if c != "" {
			query.Add(c)
		}
	}
	if query.Cardinality() == 0 {
		return related, nil
	}

	err := s.Walk(func(doc *Document) error {
		if len(doc.Metadata.Concepts) == 0 {
			return nil
		}
		if mapset.NewSet[string](doc.Metadata.Concepts...).Intersect(query).Cardinality() > 0 {
			related = append(related, doc.Path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RelatedNotesFound.Observe(float64(len(related)))
	s.logger.WithFields(logrus.Fields{
		"concepts": query.Cardinality(),
		"matches":  len(related),
	}).Debug("Related documents found")
	return related, nil
}

// CreateFromOntology creates a document whose concepts come from g and links
// it, in both directions, to every concept g pairs with title.
func (s *Store) CreateFromOntology(title, content string, g *ontology.ConceptGraph, base *Metadata) (string, error) {
	m := base.Clone()
	m.Title = title
	m.Concepts = g.Concepts()

	path, err := s.Create(title, content, m)
	if err != nil {
		return "", err
	}

	if neighbors := g.Neighbors(title); len(neighbors) > 0 {
		if err := s.AddLinks(path, neighbors, true); err != nil {
			return path, err
		}
	}
	return path, nil
}
