// Package tokenizer wraps the cl100k_base BPE encoding used to turn
// pre-tokenized embeddings input (arrays of integer token ids) back into the
// text string the Bedrock embedding backends require.
package tokenizer

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

var (
	once sync.Once
	enc  *tiktoken.Tiktoken
	initErr error
)

func encoding() (*tiktoken.Tiktoken, error) {
	once.Do(func() {
		enc, initErr = tiktoken.GetEncoding("cl100k_base")
	})
	return enc, initErr
}

// Decode turns a slice of cl100k_base token ids back into the text they
// encode. Used for Cohere Embed requests that arrive as pre-tokenized
// integer arrays rather than plain strings.
func Decode(tokens []int64) (string, error) {
	e, err := encoding()
	if err != nil {
		return "", fmt.Errorf("tokenizer: load cl100k_base: %w", err)
	}
	ints := make([]int, len(tokens))
	for i, t := range tokens {
		ints[i] = int(t)
	}
	return e.Decode(ints), nil
}
