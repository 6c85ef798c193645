package httpapi

import (
	"encoding/json"
	"net/http"

	"go.opentelemetry.io/otel/trace"

	"github.com/digitallysavvy/bedrock-gateway/internal/embed"
	"github.com/digitallysavvy/bedrock-gateway/internal/gatewayerrors"
	"github.com/digitallysavvy/bedrock-gateway/internal/registry"
	"github.com/digitallysavvy/bedrock-gateway/internal/telemetry"
)

// Embeddings handles POST /v1/embeddings.
func (s *Server) Embeddings(w http.ResponseWriter, r *http.Request) {
	var req embed.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, gatewayerrors.BadRequest("invalid request body: %v", err))
		return
	}

	family, err := registry.SelectEmbeddingsAdapter(req.Model)
	if err != nil {
		writeError(w, err)
		return
	}
	a := s.embeddingsAdapter(family)

	ctx, span := s.tracer.Start(r.Context(), "embeddings",
		trace.WithAttributes(baseSpanAttributes(string(family), req.Model)...))
	defer span.End()

	resp, err := a.Embed(ctx, &req)
	if err != nil {
		telemetry.RecordErrorOnSpan(span, err)
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
