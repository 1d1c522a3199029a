package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fusion-agent-be/pkg/llm"
)

type capturedRequest struct {
	path   string
	query  string
	header http.Header
	body   map[string]interface{}
}

func newServer(t *testing.T, status int, reply string) (*httptest.Server, *capturedRequest) {
	t.Helper()
	got := &capturedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.path = r.URL.Path
		got.query = r.URL.RawQuery
		got.header = r.Header.Clone()
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got.body))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)
	return srv, got
}

const okReply = `{"choices":[{"message":{"role":"assistant","content":"non-general"}}]}`

func TestChatCompletionsRequest(t *testing.T) {
	srv, got := newServer(t, http.StatusOK, okReply)

	p := NewProvider(Config{BaseURL: srv.URL + "/v1/", APIKey: "sk-test", Model: "gpt-4o-mini"})
	out, err := p.Generate(context.Background(), "Return only one word", llm.WithMaxTokens(5))
	require.NoError(t, err)

	assert.Equal(t, "non-general", out)
	assert.Equal(t, "/v1/chat/completions", got.path)
	assert.Equal(t, "Bearer sk-test", got.header.Get("Authorization"))
	assert.Empty(t, got.header.Get("api-key"))
	assert.Equal(t, "gpt-4o-mini", got.body["model"])
	assert.Equal(t, float64(5), got.body["max_tokens"])
	assert.Equal(t, float64(0), got.body["temperature"])

	messages, ok := got.body["messages"].([]interface{})
	require.True(t, ok)
	require.Len(t, messages, 1)
	assert.Equal(t, "user", messages[0].(map[string]interface{})["role"])
}

func TestAzureDeploymentRequest(t *testing.T) {
	srv, got := newServer(t, http.StatusOK, okReply)

	p := NewProvider(Config{BaseURL: srv.URL, APIKey: "az-key", Model: "agent-deploy", Azure: true})
	_, err := p.Generate(context.Background(), "hello")
	require.NoError(t, err)

	assert.Equal(t, "/openai/deployments/agent-deploy/chat/completions", got.path)
	assert.Equal(t, "api-version="+defaultAzureAPIVersion, got.query)
	assert.Equal(t, "az-key", got.header.Get("api-key"))
	assert.Empty(t, got.header.Get("Authorization"))
	_, hasModel := got.body["model"]
	assert.False(t, hasModel)
}

func TestAzureExplicitAPIVersion(t *testing.T) {
	srv, got := newServer(t, http.StatusOK, okReply)

	p := NewProvider(Config{BaseURL: srv.URL, Model: "dep", Azure: true, APIVersion: "2025-01-01"})
	_, err := p.Generate(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "api-version=2025-01-01", got.query)
}

func TestChatFailures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		reply   string
		wantErr string
	}{
		{name: "non-ok status", status: http.StatusTooManyRequests, reply: `{"error":{"message":"rate limited"}}`, wantErr: "status 429"},
		{name: "error envelope", status: http.StatusOK, reply: `{"error":{"message":"content filtered"}}`, wantErr: "content filtered"},
		{name: "empty choices", status: http.StatusOK, reply: `{"choices":[]}`, wantErr: "empty choices"},
		{name: "malformed body", status: http.StatusOK, reply: `{"choices":`, wantErr: "decode response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newServer(t, tt.status, tt.reply)
			_, err := NewProvider(Config{BaseURL: srv.URL, Model: "m"}).Generate(context.Background(), "q")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
