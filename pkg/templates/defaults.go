package templates

const defaultTemplate = `---
title: {{ .title }}
created: {{ .created }}
modified: {{ .modified }}
type: {{ or .type "note" }}
tags: {{ join .tags ", " }}
---

# {{ .title }}

{{ .content }}
{{ if .mermaid_diagram }}
## Diagram
{{ .mermaid_diagram }}
{{ end }}
{{ .related_heading }}
{{ range .related_notes }}- {{ wikilink . }}
{{ end }}`

const conceptTemplate = `---
title: {{ .title }}
created: {{ .created }}
modified: {{ .modified }}
type: concept
tags: {{ join .tags ", " }}
concepts: {{ join .concepts ", " }}
---

# {{ .title }}

{{ .content }}
{{ if .relationships }}
## Relationships
{{ range .relationships }}- **{{ .Source }}** {{ .Type }} **{{ .Target }}**{{ if .Description }}: {{ .Description }}{{ end }}
{{ end }}{{ end }}{{ if .mermaid_diagram }}
## Diagram
{{ .mermaid_diagram }}
{{ end }}
{{ .related_heading }}
{{ range .related_notes }}- {{ wikilink . }}
{{ end }}`

const dailyTemplate = `---
title: {{ .title }}
created: {{ .created }}
modified: {{ .modified }}
type: daily
tags: {{ join .tags ", " }}
---

# {{ .title }}

## Notes
{{ .content }}

## Tasks
- [ ] 

{{ .related_heading }}
{{ range .related_notes }}- {{ wikilink . }}
{{ end }}`

// Defaults are written to the template directory when missing.
var Defaults = map[string]string{
	"default.md": defaultTemplate,
	"concept.md": conceptTemplate,
	"daily.md":   dailyTemplate,
}
