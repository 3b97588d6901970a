package vault

import (
	"strings"

	"github.com/athapong/ontonote/pkg/metrics"
	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/sirupsen/logrus"
)

// WikiLink formats title as [[title]].
func WikiLink(title string) string {
	return "[[" + title + "]]"
}

// HasLink reports whether body already contains the literal link to title.
// Matching is exact: case and whitespace variants count as different links.
func HasLink(body, title string) bool {
	return strings.Contains(body, WikiLink(title))
}

// AddLinks appends a link to each title under the related notes section of
// the source document. Titles already linked are skipped, so repeating a
// call changes nothing. With bidirectional set, every target document that
// exists also gets a link back to the source file stem.
//
// A failed backlink write is returned after the source has been written, so
// the graph can be left one-sided.
func (s *Store) AddLinks(sourcePath string, titles []string, bidirectional bool) error {
	doc, err := s.Load(sourcePath)
	if err != nil {
		return err
	}

	body, added := s.appendLinks(doc.Body, titles)
	if len(added) > 0 {
		doc.Body = body
		doc.Metadata.Modified = s.timestamp()
		if err := s.save(doc); err != nil {
			return err
		}
		metrics.LinksAdded.WithLabelValues("forward").Add(float64(len(added)))
		s.logger.WithFields(logrus.Fields{
			"path":  doc.Path,
			"links": added,
		}).Info("Links added")
	}

	if !bidirectional {
		return nil
	}

	stem := Stem(doc.Path)
	for _, title := range titles {
		target := s.PathFor(title)
		if target == doc.Path || !s.Exists(target) {
			continue
		}
		if err := s.AddBacklink(target, stem); err != nil {
			return err
		}
	}
	return nil
}

// AddBacklink links the document at targetPath to sourceTitle unless the
// link is already there.
func (s *Store) AddBacklink(targetPath, sourceTitle string) error {
	doc, err := s.Load(targetPath)
	if err != nil {
		return err
	}
	body, added := s.appendLinks(doc.Body, []string{sourceTitle})
	if len(added) == 0 {
		return nil
	}
	doc.Body = body
	doc.Metadata.Modified = s.timestamp()
	if err := s.save(doc); err != nil {
		return err
	}
	metrics.LinksAdded.WithLabelValues("backlink").Inc()
	s.logger.WithFields(logrus.Fields{
		"path": targetPath,
		"link": sourceTitle,
	}).Debug("Backlink added")
	return nil
}

// PreviewLinks returns a line diff of what AddLinks would change in the
// source document, or an empty string when nothing would change.
func (s *Store) PreviewLinks(sourcePath string, titles []string) (string, error) {
	doc, err := s.Load(sourcePath)
	if err != nil {
		return "", err
	}
	body, added := s.appendLinks(doc.Body, titles)
	if len(added) == 0 {
		return "", nil
	}
	return lineDiff(doc.Body, body), nil
}

func (s *Store) appendLinks(body string, titles []string) (string, []string) {
	var added []string
	for _, title := range titles {
		if title == "" || HasLink(body, title) {
			continue
		}
		body = insertUnderHeading(body, s.heading, "- "+WikiLink(title)+"\n")
		added = append(added, title)
	}
	return body, added
}

// insertUnderHeading adds line at the end of the section that starts with
// heading, creating the section at the end of body when it is missing.
func insertUnderHeading(body, heading, line string) string {
	start := headingLine(body, heading)
	if start < 0 {
		trimmed := strings.TrimRight(body, "\n")
		if trimmed == "" {
			return heading + "\n" + line
		}
		return trimmed + "\n\n" + heading + "\n" + line
	}

	sectionStart := start + len(heading)
	if nl := strings.IndexByte(body[sectionStart:], '\n'); nl >= 0 {
		sectionStart += nl + 1
	} else {
		body += "\n"
		sectionStart = len(body)
	}

	sectionEnd := len(body)
	level := headingLevel(heading)
	offset := sectionStart
	for offset < len(body) {
		next := strings.IndexByte(body[offset:], '\n')
		l := body[offset:]
		if next >= 0 {
			l = body[offset : offset+next]
		}
		if lvl := headingLevel(l); lvl > 0 && (level == 0 || lvl <= level) {
			sectionEnd = offset
			break
		}
		if next < 0 {
			break
		}
		offset += next + 1
	}

	section := body[sectionStart:sectionEnd]
	trimmed := strings.TrimRight(section, "\n")
	var replaced string
	if trimmed == "" {
		replaced = line + section
	} else {
		replaced = trimmed + "\n" + line + strings.TrimPrefix(section[len(trimmed):], "\n")
	}
	return body[:sectionStart] + replaced + body[sectionEnd:]
}

// headingLine returns the byte offset of the line equal to heading.
func headingLine(body, heading string) int {
	offset := 0
	for offset <= len(body) {
		next := strings.IndexByte(body[offset:], '\n')
		l := body[offset:]
		if next >= 0 {
			l = body[offset : offset+next]
		}
		if strings.TrimRight(l, " \t\r") == heading {
			return offset
		}
		if next < 0 {
			return -1
		}
		offset += next + 1
	}
	return -1
}

// headingLevel counts the leading # of a Markdown heading line, 0 otherwise.
func headingLevel(line string) int {
	n := 0
	for n < len(line) && line[n] == '#' {
		n++
	}
	if n == 0 || n >= len(line) || line[n] != ' ' {
		return 0
	}
	return n
}

func lineDiff(before, after string) string {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var out strings.Builder
	for _, d := range diffs {
		prefix := "  "
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			prefix = "+ "
		case diffmatchpatch.DiffDelete:
			prefix = "- "
		}
		for _, l := range strings.SplitAfter(d.Text, "\n") {
			if l == "" {
				continue
			}
			out.WriteString(prefix + strings.TrimSuffix(l, "\n") + "\n")
		}
	}
	return out.String()
}
