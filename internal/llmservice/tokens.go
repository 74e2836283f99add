package llmservice

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

const tokenEncoding = "cl100k_base"

var (
	encoderOnce sync.Once
	encoder     *tiktoken.Tiktoken
	encoderErr  error
)

// CountTokens estimates the prompt size with the cl100k_base encoding. The
// first call loads the BPE ranks, which may need network access.
func CountTokens(text string) (int, error) {
	encoderOnce.Do(func() {
		encoder, encoderErr = tiktoken.GetEncoding(tokenEncoding)
	})
	if encoderErr != nil {
		return 0, fmt.Errorf("failed to load %s encoding: %w", tokenEncoding, encoderErr)
	}
	return len(encoder.Encode(text, nil, nil)), nil
}
