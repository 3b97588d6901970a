package vault

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/athapong/ontonote/pkg/apperr"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// DefaultRelatedHeading heads the section that collects wiki links.
const DefaultRelatedHeading = "## Related Notes"

const documentExt = ".md"

// Store reads and writes documents under a vault root.
//
// Store does no locking. Concurrent writers to the same document race and
// the last write wins.
type Store struct {
	root    string
	heading string
	now     func() time.Time
	logger  *logrus.Logger
}

// Option configures a Store.
type Option func(*Store)

func WithLogger(logger *logrus.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock replaces time.Now for created and modified stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

func WithRelatedHeading(heading string) Option {
	return func(s *Store) {
		if heading = strings.TrimSpace(heading); heading != "" {
			s.heading = heading
		}
	}
}

// NewStore opens the vault at root, which must be an existing directory.
func NewStore(root string, opts ...Option) (*Store, error) {
	if strings.TrimSpace(root) == "" {
		return nil, apperr.Config("open vault", "vault path is empty")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, apperr.Config("open vault", "invalid vault path %q: %v", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, apperr.Config("open vault", "vault %q does not exist", abs)
	}
	if !info.IsDir() {
		return nil, apperr.Config("open vault", "vault %q is not a directory", abs)
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	s := &Store{
		root:    abs,
		heading: DefaultRelatedHeading,
		now:     time.Now,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Root returns the absolute vault path.
func (s *Store) Root() string {
	return s.root
}

// PathFor returns where a document titled title lives.
func (s *Store) PathFor(title string) string {
	return filepath.Join(s.root, NormalizeTitle(title)+documentExt)
}

// Relative returns path relative to the vault root, without extension.
func (s *Store) Relative(path string) string {
	rel, err := filepath.Rel(s.root, path)
	if err != nil {
		rel = filepath.Base(path)
	}
	return filepath.ToSlash(strings.TrimSuffix(rel, filepath.Ext(rel)))
}

// Locate maps a reference to a document path. References ending in .md
// are paths, absolute or relative to the vault; anything else is a title.
// Paths that leave the vault are rejected.
func (s *Store) Locate(ref string) (string, error) {
	if strings.EqualFold(filepath.Ext(ref), documentExt) {
		return s.resolve(ref)
	}
	return s.PathFor(ref), nil
}

func (s *Store) resolve(path string) (string, error) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.root, path)
	}
	path = filepath.Clean(path)
	rel, err := filepath.Rel(s.root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", apperr.Validation("resolve document", "%q is outside the vault", path)
	}
	return path, nil
}

func (s *Store) timestamp() string {
	return s.now().Format(TimeLayout)
}

// Exists reports whether a document is present at path.
func (s *Store) Exists(path string) bool {
	path, err := s.resolve(path)
	if err != nil {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Create writes a new document for title. created and modified are set to
// the current time; an existing document with the same name is replaced.
func (s *Store) Create(title, content string, meta *Metadata) (string, error) {
	if NormalizeTitle(title) == "" {
		return "", apperr.Validation("create document", "title is empty")
	}

	m := meta.Clone()
	now := s.timestamp()
	m.Created = now
	m.Modified = now

	path := s.PathFor(title)
	if s.Exists(path) {
		s.logger.WithField("path", path).Warn("Replacing existing document")
	}
	doc := &Document{Path: path, Metadata: *m, Body: content}
	if err := s.save(doc); err != nil {
		return "", err
	}

	s.logger.WithFields(logrus.Fields{
		"path":  path,
		"title": title,
	}).Info("Document created")
	return path, nil
}

// Update replaces or appends the body when content is non-nil, merges meta
// into the header, and refreshes modified.
func (s *Store) Update(path string, content *string, meta *Metadata, appendContent bool) error {
	doc, err := s.Load(path)
	if err != nil {
		return err
	}

	if content != nil {
		switch {
		case !appendContent:
			doc.Body = *content
		case doc.Body == "":
			doc.Body = *content
		default:
			doc.Body = doc.Body + "\n\n" + *content
		}
	}
	doc.Metadata.Merge(meta)
	doc.Metadata.Modified = s.timestamp()

	if err := s.save(doc); err != nil {
		return err
	}
	s.logger.WithField("path", doc.Path).Debug("Document updated")
	return nil
}

// Load reads the document at path. Relative paths are resolved against the
// vault root.
func (s *Store) Load(path string) (*Document, error) {
	path, err := s.resolve(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperr.NotFound("load document", path)
		}
		return nil, apperr.IO("load document", path, err)
	}

	meta, body, err := ParseDocument(string(data))
	if err != nil {
		return nil, errors.Wrapf(err, "document %s", path)
	}
	return &Document{Path: path, Metadata: meta, Body: body}, nil
}

func (s *Store) save(doc *Document) error {
	text, err := FormatDocument(doc.Metadata, doc.Body)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(doc.Path), 0755); err != nil {
		return apperr.IO("save document", doc.Path, err)
	}
	if err := os.WriteFile(doc.Path, []byte(text), 0644); err != nil {
		return apperr.IO("save document", doc.Path, err)
	}
	return nil
}
