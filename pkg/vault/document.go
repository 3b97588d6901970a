// Package vault stores notes as Markdown files with a YAML header in a
// directory tree, and maintains wiki links between them.
package vault

import (
	"path/filepath"
	"strings"

	"github.com/athapong/ontonote/pkg/apperr"
	"gopkg.in/yaml.v3"
)

// TimeLayout is the timestamp format written to created and modified.
const TimeLayout = "2006-01-02 15:04:05"

const headerDelimiter = "---"

// StringList decodes from a YAML sequence or from a comma separated scalar.
type StringList []string

func (l *StringList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		if value.Tag == "!!null" {
			*l = nil
			return nil
		}
		var out StringList
		for _, part := range strings.Split(value.Value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		*l = out
		return nil
	case yaml.SequenceNode:
		out := make(StringList, 0, len(value.Content))
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode || item.Tag == "!!null" {
				continue
			}
			out = append(out, item.Value)
		}
		*l = out
		return nil
	default:
		return &yaml.TypeError{Errors: []string{"expected a list or a comma separated string"}}
	}
}

// Metadata is the document header. Keys the pipeline does not know about
// are kept in Extra and written back unchanged.
type Metadata struct {
	Title    string                 `yaml:"title,omitempty"`
	Created  string                 `yaml:"created,omitempty"`
	Modified string                 `yaml:"modified,omitempty"`
	Type     string                 `yaml:"type,omitempty"`
	Tags     StringList             `yaml:"tags,omitempty"`
	Concepts StringList             `yaml:"concepts,omitempty"`
	Extra    map[string]interface{} `yaml:",inline"`
}

// Clone returns a deep enough copy for merging.
func (m *Metadata) Clone() *Metadata {
	if m == nil {
		return &Metadata{}
	}
	out := *m
	out.Tags = append(StringList(nil), m.Tags...)
	out.Concepts = append(StringList(nil), m.Concepts...)
	if m.Extra != nil {
		out.Extra = make(map[string]interface{}, len(m.Extra))
		for k, v := range m.Extra {
			out.Extra[k] = v
		}
	}
	return &out
}

// Merge overlays the non-zero fields of other onto m.
func (m *Metadata) Merge(other *Metadata) {
	if other == nil {
		return
	}
	if other.Title != "" {
		m.Title = other.Title
	}
	if other.Created != "" {
		m.Created = other.Created
	}
	if other.Modified != "" {
		m.Modified = other.Modified
	}
	if other.Type != "" {
		m.Type = other.Type
	}
	if other.Tags != nil {
		m.Tags = append(StringList(nil), other.Tags...)
	}
	if other.Concepts != nil {
		m.Concepts = append(StringList(nil), other.Concepts...)
	}
	for k, v := range other.Extra {
		if m.Extra == nil {
			m.Extra = make(map[string]interface{})
		}
		m.Extra[k] = v
	}
}

// Document is a note on disk.
type Document struct {
	Path     string
	Metadata Metadata
	Body     string
}

// Title returns the header title, or the file stem when the header has none.
func (d *Document) Title() string {
	if d.Metadata.Title != "" {
		return d.Metadata.Title
	}
	return Stem(d.Path)
}

// SplitHeader separates a leading "---" delimited header from the body. ok
// is false when text has no complete header.
func SplitHeader(text string) (header, body string, ok bool) {
	if strings.HasPrefix(text, headerDelimiter+"\r\n") {
		text = strings.ReplaceAll(text, "\r\n", "\n")
	}
	if !strings.HasPrefix(text, headerDelimiter+"\n") {
		return "", text, false
	}

	rest := text[len(headerDelimiter)+1:]
	end := -1
	switch {
	case rest == headerDelimiter || strings.HasPrefix(rest, headerDelimiter+"\n"):
		end = 0
	case strings.Contains(rest, "\n"+headerDelimiter+"\n"):
		end = strings.Index(rest, "\n"+headerDelimiter+"\n") + 1
	case strings.HasSuffix(rest, "\n"+headerDelimiter):
		end = len(rest) - len(headerDelimiter)
	default:
		return "", text, false
	}

	header = rest[:end]
	body = rest[end+len(headerDelimiter):]
	body = strings.TrimPrefix(body, "\n")
	body = strings.TrimPrefix(body, "\n")
	return header, body, true
}

// ParseDocument reads a header and body. Text without a header is all body.
func ParseDocument(text string) (Metadata, string, error) {
	var meta Metadata
	header, body, ok := SplitHeader(text)
	if !ok {
		return meta, text, nil
	}
	if err := yaml.Unmarshal([]byte(header), &meta); err != nil {
		return Metadata{}, body, apperr.Parse("parse header", err)
	}
	return meta, body, nil
}

// FormatDocument renders meta and body in the on-disk layout.
func FormatDocument(meta Metadata, body string) (string, error) {
	header, err := yaml.Marshal(&meta)
	if err != nil {
		return "", apperr.Parse("format header", err)
	}
	var b strings.Builder
	b.WriteString(headerDelimiter + "\n")
	b.Write(header)
	b.WriteString(headerDelimiter + "\n\n")
	b.WriteString(body)
	return b.String(), nil
}

// NormalizeTitle derives a file name from a title: lowercased, with runs of
// whitespace and path separators replaced by a single dash.
func NormalizeTitle(title string) string {
	title = strings.NewReplacer("/", " ", "\\", " ").Replace(title)
	return strings.ToLower(strings.Join(strings.Fields(title), "-"))
}

// Stem returns the file name of path without its extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
