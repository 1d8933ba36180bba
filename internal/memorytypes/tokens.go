package memorytypes

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

var (
	encOnce sync.Once
	enc     *tiktoken.Tiktoken
	encErr  error
)

func encoding() (*tiktoken.Tiktoken, error) {
	encOnce.Do(func() {
		enc, encErr = tiktoken.GetEncoding("cl100k_base")
	})
	return enc, encErr
}

// TokenCount returns the cl100k_base token count for text, or a
// whitespace-split approximation if the encoding failed to load (kept
// permissive since token count here is informational, not a hard limit).
func TokenCount(text string) int {
	e, err := encoding()
	if err != nil {
		return approximateTokenCount(text)
	}
	return len(e.Encode(text, nil, nil))
}

func approximateTokenCount(text string) int {
	count := 0
	inWord := false
	for _, r := range text {
		if r == ' ' || r == '\n' || r == '\t' {
			inWord = false
			continue
		}
		if !inWord {
			count++
			inWord = true
		}
	}
	return count
}
