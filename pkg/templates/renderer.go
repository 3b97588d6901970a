// Package templates renders notes from text/template files kept inside the
// vault, under .templates.
package templates

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"github.com/athapong/ontonote/pkg/apperr"
	"github.com/sirupsen/logrus"
)

// Dir is the template directory inside a vault.
const Dir = ".templates"

// DefaultRelatedHeading is used by Fallback when vars carry no heading.
const DefaultRelatedHeading = "## Related Notes"

var funcs = template.FuncMap{
	"join": func(items []string, sep string) string {
		return strings.Join(items, sep)
	},
	"wikilink": func(title string) string {
		return "[[" + title + "]]"
	},
}

// Renderer loads templates by name from a directory.
type Renderer struct {
	dir    string
	logger *logrus.Logger
}

// NewRenderer uses <vaultRoot>/.templates, creating it and the default
// templates when they are missing.
func NewRenderer(vaultRoot string, logger *logrus.Logger) (*Renderer, error) {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	r := &Renderer{dir: filepath.Join(vaultRoot, Dir), logger: logger}
	if err := r.ensureDefaults(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Renderer) ensureDefaults() error {
	if err := os.MkdirAll(r.dir, 0755); err != nil {
		return apperr.IO("create template dir", r.dir, err)
	}
	for name, body := range Defaults {
		path := filepath.Join(r.dir, name)
		if _, err := os.Stat(path); err == nil {
			continue
		}
		if err := os.WriteFile(path, []byte(body), 0644); err != nil {
			return apperr.IO("write default template", path, err)
		}
		r.logger.WithField("template", name).Info("Created default template")
	}
	return nil
}

// Dir returns the template directory.
func (r *Renderer) Dir() string {
	return r.dir
}

// List returns the template file names in lexical order.
func (r *Renderer) List() ([]string, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, apperr.IO("list templates", r.dir, err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".md") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Render executes the named template with vars. A name without extension
// gets ".md".
func (r *Renderer) Render(name string, vars map[string]interface{}) (string, error) {
	if name == "" || filepath.Base(name) != name {
		return "", apperr.Validation("render template", "invalid template name %q", name)
	}
	if filepath.Ext(name) == "" {
		name += ".md"
	}

	path := filepath.Join(r.dir, name)
	src, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", apperr.NotFound("render template", path)
		}
		return "", apperr.IO("render template", path, err)
	}

	tmpl, err := template.New(name).Funcs(funcs).Parse(string(src))
	if err != nil {
		return "", apperr.Parse("parse template "+name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, vars); err != nil {
		return "", apperr.Parse("execute template "+name, err)
	}
	return buf.String(), nil
}

// Fallback builds the minimal document used when a template cannot be
// rendered.
func Fallback(vars map[string]interface{}) string {
	docType := str(vars, "type")
	if docType == "" {
		docType = "note"
	}
	heading := str(vars, "related_heading")
	if heading == "" {
		heading = DefaultRelatedHeading
	}
	return fmt.Sprintf("---\ntitle: %s\ncreated: %s\nmodified: %s\ntype: %s\n---\n\n# %s\n\n%s\n\n## Diagram\n%s\n\n%s\n",
		str(vars, "title"),
		str(vars, "created"),
		str(vars, "modified"),
		docType,
		str(vars, "title"),
		str(vars, "content"),
		str(vars, "mermaid_diagram"),
		heading,
	)
}

func str(vars map[string]interface{}, key string) string {
	v, ok := vars[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
