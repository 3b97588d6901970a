package notes

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/athapong/ontonote/pkg/apperr"
	"github.com/athapong/ontonote/pkg/vault"
	"github.com/athapong/ontonote/services"
)

const sourceExcerptRunes = 100

// Assist runs a one-shot action over text and returns the backend answer.
func (p *Pipeline) Assist(ctx context.Context, action Action, text string) (string, error) {
	if _, ok := actionPrompts[action]; !ok {
		return "", apperr.Validation("assist", "unknown action %q", action)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", apperr.Validation("assist", "text is empty")
	}

	out, err := p.gen.Generate(ctx, actionPrompt(action, services.TruncateTokens(text, p.maxTokens)))
	if err != nil {
		if !apperr.IsBackend(err) {
			err = apperr.Backend("assist", err)
		}
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// SaveAssist stores an Assist answer as a timestamped note whose header
// records the action and the start of the input.
func (p *Pipeline) SaveAssist(action Action, input, output string) (string, error) {
	if strings.TrimSpace(output) == "" {
		return "", apperr.Validation("save assist", "nothing to save")
	}

	source := input
	if utf8.RuneCountInString(source) > sourceExcerptRunes {
		source = string([]rune(source)[:sourceExcerptRunes])
	}
	meta := &vault.Metadata{
		Type:  string(action),
		Extra: map[string]interface{}{"source": source + "..."},
	}
	title := "Note_" + p.now().Format("20060102_150405")
	return p.store.Create(title, output, meta)
}
