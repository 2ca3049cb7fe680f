package llmclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/formpilot/internal/config"
)

func setupGeminiClient(t *testing.T, handler http.HandlerFunc) *GeminiClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	logger, _ := setupTestLogger(t)
	cfg := getValidOracleConfig(config.ProviderGemini)
	cfg.Endpoint = server.URL
	cfg.APITimeout = 500 * time.Millisecond

	client, err := NewGeminiClient(context.Background(), cfg, logger)
	require.NoError(t, err)
	return client
}

func TestNewGeminiClient_MissingKey(t *testing.T) {
	logger, _ := setupTestLogger(t)
	cfg := getValidOracleConfig(config.ProviderGemini)
	cfg.APIKey = ""

	_, err := NewGeminiClient(context.Background(), cfg, logger)
	assert.ErrorIs(t, err, config.ErrMissingCredential)
}

func TestGeminiClient_Generate_Success(t *testing.T) {
	client := setupGeminiClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "test-model:generateContent"), "unexpected path %s", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"[{\"action\":\"click\",\"selector\":\"#go\"}]"}]},"finishReason":"STOP"}],"usageMetadata":{"promptTokenCount":5,"candidatesTokenCount":7,"totalTokenCount":12}}`))
	})

	out, err := client.Generate(context.Background(), createTestRequest())
	require.NoError(t, err)
	assert.Equal(t, `[{"action":"click","selector":"#go"}]`, out)
}

func TestGeminiClient_Generate_Error(t *testing.T) {
	client := setupGeminiClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"bad request","status":"INVALID_ARGUMENT"}}`))
	})

	_, err := client.Generate(context.Background(), createTestRequest())
	assert.Error(t, err)
}

func TestGeminiClient_BuildGenerationConfig(t *testing.T) {
	client := setupGeminiClient(t, func(w http.ResponseWriter, r *http.Request) {})
	client.config.MaxTokens = 256

	req := createTestRequest()
	req.Options.ForceJSONFormat = true
	genConfig := client.buildGenerationConfig(req)

	require.NotNil(t, genConfig.Temperature)
	assert.Zero(t, *genConfig.Temperature)
	assert.EqualValues(t, 256, genConfig.MaxOutputTokens)
	assert.Equal(t, "application/json", genConfig.ResponseMIMEType)
	require.NotNil(t, genConfig.SystemInstruction)
	require.Len(t, genConfig.SystemInstruction.Parts, 1)
	assert.Equal(t, "You are an automation agent.", genConfig.SystemInstruction.Parts[0].Text)
}

func TestNewGeminiClient_RetryBudget(t *testing.T) {
	logger, _ := setupTestLogger(t)
	cfg := getValidOracleConfig(config.ProviderGemini)
	cfg.APITimeout = 7 * time.Second

	client, err := NewGeminiClient(context.Background(), cfg, logger)
	require.NoError(t, err)
	assert.Equal(t, 7*time.Second, client.maxElapsed)
}
