// Command gateway runs the OpenAI-compatible HTTP surface in front of
// Amazon Bedrock.
package main

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/digitallysavvy/bedrock-gateway/internal/bedrockclient"
	"github.com/digitallysavvy/bedrock-gateway/internal/config"
	"github.com/digitallysavvy/bedrock-gateway/internal/httpapi"
	"github.com/digitallysavvy/bedrock-gateway/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("gateway: %v", err)
	}

	client := bedrockclient.New(bedrockclient.Config{
		Region:          cfg.Bedrock.Region,
		BearerToken:     cfg.Bedrock.BearerToken,
		AccessKeyID:     cfg.Bedrock.AccessKeyID,
		SecretAccessKey: cfg.Bedrock.SecretAccessKey,
		SessionToken:    cfg.Bedrock.SessionToken,
	})

	settings := telemetry.DefaultSettings().WithEnabled(cfg.Debug)
	tracer := telemetry.GetTracer(settings)
	server := httpapi.NewServer(client, tracer)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST"},
	}))

	r.Post("/v1/chat/completions", server.ChatCompletions)
	r.Post("/v1/embeddings", server.Embeddings)
	r.Get("/v1/models", server.Models)

	log.Printf("gateway: listening on :%s (region=%s)", cfg.Port, cfg.Bedrock.Region)
	log.Fatal(http.ListenAndServe(":"+cfg.Port, r))
}
