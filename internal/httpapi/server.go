// Package httpapi wires the dispatcher and adapters to the three HTTP
// routes the gateway exposes.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/digitallysavvy/bedrock-gateway/internal/adapter"
	"github.com/digitallysavvy/bedrock-gateway/internal/adapters/claude"
	"github.com/digitallysavvy/bedrock-gateway/internal/adapters/cohere"
	"github.com/digitallysavvy/bedrock-gateway/internal/adapters/cohereembed"
	"github.com/digitallysavvy/bedrock-gateway/internal/adapters/generic"
	"github.com/digitallysavvy/bedrock-gateway/internal/adapters/llama"
	"github.com/digitallysavvy/bedrock-gateway/internal/adapters/mistral"
	"github.com/digitallysavvy/bedrock-gateway/internal/adapters/titanembed"
	"github.com/digitallysavvy/bedrock-gateway/internal/bedrockclient"
	"github.com/digitallysavvy/bedrock-gateway/internal/gatewayerrors"
	"github.com/digitallysavvy/bedrock-gateway/internal/registry"
	"github.com/digitallysavvy/bedrock-gateway/internal/telemetry"
)

// Server holds the stateless singleton adapters the dispatcher picks among.
// Built once at startup around one shared bedrockclient.Client.
type Server struct {
	tracer trace.Tracer

	claude   *claude.Adapter
	llama    *llama.Adapter
	mistral  *mistral.Adapter
	cohere   *cohere.Adapter
	generic  *generic.Adapter

	cohereEmbed *cohereembed.Adapter
	titanEmbed  *titanembed.Adapter
}

func NewServer(client *bedrockclient.Client, tracer trace.Tracer) *Server {
	return &Server{
		tracer:      tracer,
		claude:      claude.New(client),
		llama:       llama.New(client),
		mistral:     mistral.New(client),
		cohere:      cohere.New(client),
		generic:     generic.New(client),
		cohereEmbed: cohereembed.New(client),
		titanEmbed:  titanembed.New(client),
	}
}

func (s *Server) chatAdapter(family registry.ChatFamily) adapter.Chat {
	switch family {
	case registry.FamilyClaude:
		return s.claude
	case registry.FamilyLlama2, registry.FamilyLlama3:
		return s.llama
	case registry.FamilyMistral:
		return s.mistral
	case registry.FamilyCohere:
		return s.cohere
	default:
		return s.generic
	}
}

func (s *Server) embeddingsAdapter(family registry.EmbeddingsFamily) adapter.Embeddings {
	if family == registry.FamilyTitanEmbed {
		return s.titanEmbed
	}
	return s.cohereEmbed
}

// writeError maps a gatewayerrors.GatewayError (or any other error) onto an
// HTTP response shaped like OpenAI's error envelope.
func writeError(w http.ResponseWriter, err error) {
	statusCode := 500
	message := err.Error()
	if ge, ok := err.(*gatewayerrors.GatewayError); ok {
		statusCode = ge.StatusCode()
		message = ge.Message
	}
	// A 400 from Bedrock means it rejected the request body: a validation
	// failure, not an internal error.
	var ie *bedrockclient.InvokeError
	if errors.As(err, &ie) && ie.StatusCode == http.StatusBadRequest {
		statusCode = gatewayerrors.KindValidationFailure.StatusCode()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": message,
			"type":    "invalid_request_error",
		},
	})
}

func baseSpanAttributes(provider, modelID string) []attribute.KeyValue {
	return telemetry.GetBaseAttributes(provider, modelID, telemetry.DefaultSettings().WithEnabled(true), nil)
}
