// Package streamutil holds the generic streaming path (C4.7) shared by
// the Llama, Cohere Command R and Generic Imported chat adapters: decode each chunk's JSON, extract text
// and finish reason by field name, and emit a separate usage-only chunk
// whenever a chunk carries Bedrock's amazon-bedrock-invocationMetrics block.
// Claude's stream is driven by its own state machine (see internal/adapters/claude)
// because it must also watch for the tool-use sentinel in-band, and Mistral
// has its own loop because its chunks nest text under outputs[0].
package streamutil

import (
	"context"
	"encoding/json"

	"github.com/digitallysavvy/bedrock-gateway/internal/bedrockclient"
	"github.com/digitallysavvy/bedrock-gateway/internal/chat"
)

// FieldNames names where a family's chunk JSON keeps its generated text and
// its finish-reason string; they differ per family (e.g. Llama/Generic use
// "generation"/"stop_reason", Cohere uses "text"/"finish_reason").
type FieldNames struct {
	Text         string
	FinishReason string
}

// invocationMetrics is Bedrock's usage block, attached to the chunk that
// carries the final finish reason (or, for some families, to its own
// trailing chunk with no text).
type invocationMetrics struct {
	InputTokenCount   int `json:"inputTokenCount"`
	OutputTokenCount  int `json:"outputTokenCount"`
}

// Run decodes chunks from a bedrockclient stream and turns them into
// chat.StreamResponse values per the generic streaming contract: one chunk
// per non-empty text delta or finish reason, then an optional usage-only
// chunk when invocation metrics are present, mapped through mapFinish to
// translate the family's native finish-reason string into the unified enum.
func Run(
	ctx context.Context,
	chunks <-chan bedrockclient.StreamChunk,
	srcErrs <-chan error,
	messageID, model string,
	fields FieldNames,
	mapFinish func(string) chat.FinishReason,
) (<-chan chat.StreamResponse, <-chan error) {
	out := make(chan chat.StreamResponse)
	errs := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errs)

		firstDelta := true
		for chunk := range chunks {
			var raw map[string]any
			if err := json.Unmarshal(chunk.Bytes, &raw); err != nil {
				errs <- err
				return
			}

			text, _ := raw[fields.Text].(string)
			nativeFinish, hasFinish := raw[fields.FinishReason].(string)

			if text != "" || (hasFinish && nativeFinish != "") {
				delta := chat.Delta{}
				if firstDelta {
					delta.Role = chat.RoleAssistant
					firstDelta = false
				}
				delta.Content = text

				resp := chat.StreamResponse{
					ID:     messageID,
					Object: "chat.completion.chunk",
					Model:  model,
					Choices: []chat.StreamChoice{{
						Index: 0,
						Delta: delta,
					}},
				}
				if hasFinish && nativeFinish != "" {
					resp.Choices[0].FinishReason = mapFinish(nativeFinish)
				}
				select {
				case out <- resp:
				case <-ctx.Done():
					return
				}
			}

			if rawMetrics, ok := raw["amazon-bedrock-invocationMetrics"]; ok {
				var m invocationMetrics
				if b, err := json.Marshal(rawMetrics); err == nil {
					_ = json.Unmarshal(b, &m)
				}
				usage := chat.NewUsage(m.InputTokenCount, m.OutputTokenCount)
				select {
				case out <- chat.StreamResponse{
					ID:      messageID,
					Object:  "chat.completion.chunk",
					Model:   model,
					Choices: []chat.StreamChoice{},
					Usage:   &usage,
				}:
				case <-ctx.Done():
					return
				}
			}
		}

		if err, ok := <-srcErrs; ok && err != nil {
			errs <- err
		}
	}()

	return out, errs
}
