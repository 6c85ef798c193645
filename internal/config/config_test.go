package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad_RequiresCredentials(t *testing.T) {
	t.Setenv("AWS_BEARER_TOKEN_BEDROCK", "")
	t.Setenv("AWS_ACCESS_KEY_ID", "")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "")

	_, err := Load()
	require.Error(t, err)
}

func TestLoad_BearerTokenSatisfiesCredentials(t *testing.T) {
	t.Setenv("AWS_BEARER_TOKEN_BEDROCK", "tok")
	t.Setenv("AWS_ACCESS_KEY_ID", "")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "")
	t.Setenv("AWS_REGION", "")
	t.Setenv("PORT", "")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "us-east-1", cfg.Bedrock.Region)
	require.Equal(t, "8080", cfg.Port)
	require.False(t, cfg.Debug)
}

func TestLoad_DebugFlag(t *testing.T) {
	t.Setenv("AWS_BEARER_TOKEN_BEDROCK", "tok")
	t.Setenv("DEBUG", "true")

	cfg, err := Load()
	require.NoError(t, err)
	require.True(t, cfg.Debug)
}
