// Package embed holds the unified request/response schema for
// POST /v1/embeddings.
package embed

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
)

// Request is the decoded body of POST /v1/embeddings.
type Request struct {
	Model           string         `json:"model"`
	Input           Input          `json:"input"`
	EncodingFormat  string         `json:"encoding_format,omitempty"` // "float" (default) or "base64"
	EmbeddingConfig map[string]int `json:"embedding_config,omitempty"`
}

// InputKind tags which of the four shapes an embeddings input arrived as.
// The original Python backend dispatches on isinstance(str) / isinstance(list)
// / isinstance(Iterable), which is order-sensitive for the rare "single list
// of ints" case. Go's encoding/json gives every JSON array the same Go shape
// ([]any) regardless of element type, so this type inspects the first
// element's kind directly instead of inheriting that ambiguity.
type InputKind int

const (
	InputString          InputKind = iota // "hello"
	InputStringList                       // ["hello", "world"]
	InputTokenList                        // [15339, 1917]  (single pre-tokenized input)
	InputTokenListOfLists                 // [[15339, 1917], [9906]]  (batch of pre-tokenized inputs)
)

// Input is the tagged variant of the four shapes OpenAI's embeddings input
// field accepts.
type Input struct {
	Kind       InputKind
	Strings    []string  // InputString (len 1), InputStringList
	TokenLists [][]int64 // InputTokenList (len 1, one row), InputTokenListOfLists
}

func (in *Input) UnmarshalJSON(data []byte) error {
	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		in.Kind = InputString
		in.Strings = []string{asString}
		return nil
	}

	var rawItems []json.RawMessage
	if err := json.Unmarshal(data, &rawItems); err != nil {
		return fmt.Errorf("embeddings input must be a string, an array of strings, an array of integers, or an array of arrays of integers: %w", err)
	}
	if len(rawItems) == 0 {
		in.Kind = InputStringList
		in.Strings = nil
		return nil
	}

	var firstElem any
	if err := json.Unmarshal(rawItems[0], &firstElem); err != nil {
		return fmt.Errorf("invalid embeddings input element: %w", err)
	}

	switch firstElem.(type) {
	case string:
		strs := make([]string, len(rawItems))
		for i, raw := range rawItems {
			if err := json.Unmarshal(raw, &strs[i]); err != nil {
				return fmt.Errorf("embeddings input element %d is not a string: %w", i, err)
			}
		}
		in.Kind = InputStringList
		in.Strings = strs
		return nil
	case float64:
		tokens := make([]int64, len(rawItems))
		for i, raw := range rawItems {
			if err := json.Unmarshal(raw, &tokens[i]); err != nil {
				return fmt.Errorf("embeddings input element %d is not an integer: %w", i, err)
			}
		}
		in.Kind = InputTokenList
		in.TokenLists = [][]int64{tokens}
		return nil
	case []any:
		lists := make([][]int64, len(rawItems))
		for i, raw := range rawItems {
			if err := json.Unmarshal(raw, &lists[i]); err != nil {
				return fmt.Errorf("embeddings input element %d is not an array of integers: %w", i, err)
			}
		}
		in.Kind = InputTokenListOfLists
		in.TokenLists = lists
		return nil
	default:
		return fmt.Errorf("unsupported embeddings input element type %T", firstElem)
	}
}

// Response is the decoded body of a successful embeddings call.
type Response struct {
	Object string      `json:"object"`
	Data   []Embedding `json:"data"`
	Model  string      `json:"model"`
	Usage  Usage       `json:"usage"`
}

// Embedding is one output vector. Invariant: Index matches the position of
// its corresponding input in the request.
type Embedding struct {
	Object    string `json:"object"`
	Index     int    `json:"index"`
	Embedding any    `json:"embedding"` // []float32 for "float", string for "base64"
}

type Usage struct {
	PromptTokens int `json:"prompt_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// EncodeEmbedding renders one embedding vector per the requested
// encoding_format: "float" (the default) returns the vector as-is for plain
// JSON-array serialization; "base64" packs it as IEEE-754 little-endian
// float32 bytes, matching numpy's default tobytes() layout on every
// architecture this gateway targets.
func EncodeEmbedding(vec []float32, encodingFormat string) any {
	if encodingFormat != "base64" {
		return vec
	}
	buf := make([]byte, 4*len(vec))
	for i, f := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return base64.StdEncoding.EncodeToString(buf)
}
