package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/digitallysavvy/bedrock-gateway/internal/registry"
)

type modelEntry struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	OwnedBy string `json:"owned_by"`
}

// Models handles GET /v1/models, returning the union of every supported
// chat and embeddings model id.
func (s *Server) Models(w http.ResponseWriter, r *http.Request) {
	entries := make([]modelEntry, 0, len(registry.ChatModels)+len(registry.EmbeddingModels))
	for _, m := range registry.ChatModels {
		entries = append(entries, modelEntry{ID: m.ID, Object: "model", OwnedBy: "bedrock"})
	}
	for _, m := range registry.EmbeddingModels {
		entries = append(entries, modelEntry{ID: m.ID, Object: "model", OwnedBy: "bedrock"})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"object": "list",
		"data":   entries,
	})
}
