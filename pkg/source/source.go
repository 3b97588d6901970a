// Package source reads note input from text, Markdown, HTML and PDF files.
package source

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"
	"github.com/athapong/ontonote/pkg/apperr"
	"github.com/ledongthuc/pdf"
	"github.com/pkg/errors"
)

// Extensions lists the supported file types.
var Extensions = []string{".txt", ".md", ".markdown", ".html", ".htm", ".pdf"}

// Supported reports whether path has a supported extension.
func Supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Extensions {
		if e == ext {
			return true
		}
	}
	return false
}

// Load reads path and returns its text content.
func Load(path string) (string, error) {
	if !Supported(path) {
		return "", apperr.Validation("load source", "unsupported file type %q", filepath.Ext(path))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", apperr.NotFound("load source", path)
		}
		return "", apperr.IO("load source", path, err)
	}
	return Convert(filepath.Ext(path), data)
}

// Convert extracts text from data according to ext.
func Convert(ext string, data []byte) (string, error) {
	switch strings.ToLower(ext) {
	case ".txt", ".md", ".markdown":
		return strings.TrimSpace(string(data)), nil
	case ".html", ".htm":
		return FromHTML(data)
	case ".pdf":
		return FromPDF(data)
	default:
		return "", apperr.Validation("convert source", "unsupported file type %q", ext)
	}
}

// FromHTML converts the main content of an HTML page to Markdown. The first
// of article, main and body that exists is used.
func FromHTML(data []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return "", apperr.Parse("parse html", err)
	}

	sel := doc.Find("article").First()
	if sel.Length() == 0 {
		sel = doc.Find("main").First()
	}
	if sel.Length() == 0 {
		sel = doc.Find("body")
	}
	sel.Find("script, style, nav, footer").Remove()

	html, err := goquery.OuterHtml(sel)
	if err != nil {
		return "", apperr.Parse("parse html", err)
	}
	md, err := htmltomarkdown.ConvertString(html)
	if err != nil {
		return "", apperr.Parse("convert html", err)
	}
	return strings.TrimSpace(md), nil
}

// FromPDF returns the plain text of every readable page.
func FromPDF(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", apperr.Parse("read pdf", err)
	}

	var b strings.Builder
	for pageIndex := 1; pageIndex <= r.NumPage(); pageIndex++ {
		p := r.Page(pageIndex)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			continue
		}
		b.WriteString(text)
		b.WriteString("\n")
	}

	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", apperr.Parse("read pdf", errors.New("no extractable text"))
	}
	return text, nil
}
