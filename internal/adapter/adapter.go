// Package adapter defines the interface every model-family chat and
// embeddings adapter implements. Adapters are stateless singletons
// constructed once at startup around a shared bedrockclient.Client; nothing
// about a specific request is held past the call that serves it.
package adapter

import (
	"context"

	"github.com/digitallysavvy/bedrock-gateway/internal/chat"
	"github.com/digitallysavvy/bedrock-gateway/internal/embed"
)

// Chat is implemented by each chat model family (Claude, Llama, Mistral,
// Cohere Command R, Generic Imported).
type Chat interface {
	Generate(ctx context.Context, req *chat.Request) (*chat.Response, error)
	Stream(ctx context.Context, req *chat.Request) (<-chan chat.StreamResponse, <-chan error)
}

// Embeddings is implemented by each embeddings model family (Cohere Embed,
// Titan Embed).
type Embeddings interface {
	Embed(ctx context.Context, req *embed.Request) (*embed.Response, error)
}
