package notes

import (
	"fmt"
	"strings"
)

const titlePrompt = `Identify the core topic of the following text.
Answer with a short title of a few words only, without quotes or punctuation.

Text:
%s`

const explainPrompt = `Write a structured knowledge note about "%s" based on the text below.
Use Markdown with these sections:

## Definition
## Key Features
## Related Concepts and Fields
## Practical Examples

Text:
%s`

const suggestPrompt = `A new note is being added to a knowledge base.
Suggest meaningful connections between the new note and the existing notes
below. For each suggestion name the existing note and explain the reason in
one or two sentences.

New note:
%s

Existing notes:
%s`

// Action is a one-shot text operation.
type Action string

const (
	ActionSummarize Action = "summarize"
	ActionExplain   Action = "explain"
	ActionQuestions Action = "questions"
	ActionKeywords  Action = "keywords"
	ActionExpand    Action = "expand"
)

// Actions lists every supported action.
var Actions = []Action{ActionSummarize, ActionExplain, ActionQuestions, ActionKeywords, ActionExpand}

var actionPrompts = map[Action]string{
	ActionSummarize: "Summarize the following text. Keep only the essential points:\n\n%s",
	ActionExplain:   "Explain the following concept in detail:\n\n%s",
	ActionQuestions: "Write review questions that check understanding of the following text:\n\n%s",
	ActionKeywords:  "Extract the important keywords from the following text:\n\n%s",
	ActionExpand:    "Expand on the following idea or topic and describe related material:\n\n%s",
}

// ParseAction accepts an action name in any case.
func ParseAction(s string) (Action, bool) {
	a := Action(strings.ToLower(strings.TrimSpace(s)))
	_, ok := actionPrompts[a]
	return a, ok
}

func actionPrompt(a Action, text string) string {
	return fmt.Sprintf(actionPrompts[a], text)
}
