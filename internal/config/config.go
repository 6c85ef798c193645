// Package config loads the gateway's process-wide configuration from the
// environment, following the struct-plus-env idiom the Bedrock provider
// client used: read once at startup, never re-read per request.
package config

import (
	"fmt"
	"os"
)

type Config struct {
	Port   string
	Debug  bool
	Bedrock BedrockConfig
}

// BedrockConfig is handed directly to bedrockclient.New.
type BedrockConfig struct {
	Region          string
	BearerToken     string
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
}

// Load reads Config from the environment, applying the same defaults as the
// gateway's reference deployment.
func Load() (*Config, error) {
	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = "us-east-1"
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	bearerToken := os.Getenv("AWS_BEARER_TOKEN_BEDROCK")
	accessKeyID := os.Getenv("AWS_ACCESS_KEY_ID")
	secretAccessKey := os.Getenv("AWS_SECRET_ACCESS_KEY")
	if bearerToken == "" && (accessKeyID == "" || secretAccessKey == "") {
		return nil, fmt.Errorf("config: set AWS_BEARER_TOKEN_BEDROCK, or both AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY")
	}

	return &Config{
		Port:  port,
		Debug: os.Getenv("DEBUG") == "true" || os.Getenv("DEBUG") == "1",
		Bedrock: BedrockConfig{
			Region:          region,
			BearerToken:     bearerToken,
			AccessKeyID:     accessKeyID,
			SecretAccessKey: secretAccessKey,
			SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
		},
	}, nil
}
