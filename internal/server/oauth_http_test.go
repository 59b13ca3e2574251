package server

import (
	"testing"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateHTTPSRequirement(t *testing.T) {
	tests := map[string]struct {
		baseURL string
		valid   bool
	}{
		"https":                {baseURL: "https://bench.example.com", valid: true},
		"http on localhost":    {baseURL: "http://localhost:8080", valid: true},
		"http on 127.0.0.1":    {baseURL: "http://127.0.0.1:8080", valid: true},
		"http on ipv6 loop":    {baseURL: "http://[::1]:9090", valid: true},
		"http on public host":  {baseURL: "http://bench.example.com"},
		"empty":                {baseURL: ""},
		"unsupported scheme":   {baseURL: "ws://bench.example.com"},
		"http on private addr": {baseURL: "http://10.0.0.12:8080"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			err := validateHTTPSRequirement(tt.baseURL)
			if tt.valid {
				assert.NoError(t, err)
				return
			}
			assert.Error(t, err)
		})
	}
}

func TestNewOAuthHTTPServerRejectsBadConfig(t *testing.T) {
	mcpSrv := mcpserver.NewMCPServer("llm-bench", "test")

	t.Run("unknown provider", func(t *testing.T) {
		_, err := NewOAuthHTTPServer(mcpSrv, "/mcp", OAuthConfig{
			BaseURL:  "https://bench.example.com",
			Provider: "okta",
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), `unsupported OAuth provider "okta"`)
	})

	t.Run("plain http base url", func(t *testing.T) {
		_, err := NewOAuthHTTPServer(mcpSrv, "/mcp", OAuthConfig{
			BaseURL:  "http://bench.example.com",
			Provider: OAuthProviderDex,
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "base URL validation failed")
	})
}
