package services

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

const tokenEncoding = "cl100k_base"

var encoding = sync.OnceValues(func() (*tiktoken.Tiktoken, error) {
	return tiktoken.GetEncoding(tokenEncoding)
})

// TruncateTokens cuts text to at most max tokens. max <= 0 disables the
// limit, and text is returned unchanged when the encoding cannot be loaded.
func TruncateTokens(text string, max int) string {
	if max <= 0 || text == "" {
		return text
	}
	enc, err := encoding()
	if err != nil {
		return text
	}
	tokens := enc.Encode(text, nil, nil)
	if len(tokens) <= max {
		return text
	}
	return enc.Decode(tokens[:max])
}
