package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	oauth "github.com/giantswarm/mcp-oauth"
	"github.com/giantswarm/mcp-oauth/providers/dex"
	oauthserver "github.com/giantswarm/mcp-oauth/server"
	"github.com/giantswarm/mcp-oauth/storage/memory"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// OAuthProviderDex is the only supported OAuth provider.
const OAuthProviderDex = "dex"

const (
	defaultReadHeaderTimeout = 10 * time.Second
	defaultIdleTimeout       = 120 * time.Second

	// Benchmark runs started through MCP can stream for a long time.
	defaultWriteTimeout = 30 * time.Minute

	maxClientsPerIP = 10
)

// OAuthConfig configures the OAuth-protected HTTP server.
type OAuthConfig struct {
	// BaseURL is the public base URL, e.g. https://bench.example.com.
	// Plain http is accepted for loopback hosts only.
	BaseURL string

	// Provider must be empty or "dex".
	Provider string

	DexIssuerURL    string
	DexClientID     string
	DexClientSecret string

	// MetricsHandler, when set, is served unauthenticated on /metrics.
	MetricsHandler http.Handler
}

func (c OAuthConfig) validate() error {
	if c.Provider != "" && c.Provider != OAuthProviderDex {
		return fmt.Errorf("unsupported OAuth provider %q (supported: %s)", c.Provider, OAuthProviderDex)
	}
	if err := validateHTTPSRequirement(c.BaseURL); err != nil {
		return fmt.Errorf("OAuth base URL validation failed: %w", err)
	}
	return nil
}

// OAuthHTTPServer serves MCP behind OAuth 2.1 bearer-token validation.
type OAuthHTTPServer struct {
	mcpServer   *mcpserver.MCPServer
	mcpEndpoint string
	metrics     http.Handler

	oauthServer  *oauth.Server
	oauthHandler *oauth.Handler
	httpServer   *http.Server
}

// NewOAuthHTTPServer creates an OAuth-protected MCP server backed by Dex and
// in-memory token storage.
func NewOAuthHTTPServer(mcpSrv *mcpserver.MCPServer, mcpEndpoint string, cfg OAuthConfig) (*OAuthHTTPServer, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	provider, err := dex.NewProvider(&dex.Config{
		IssuerURL:    cfg.DexIssuerURL,
		ClientID:     cfg.DexClientID,
		ClientSecret: cfg.DexClientSecret,
		RedirectURL:  cfg.BaseURL + "/oauth/callback",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Dex provider: %w", err)
	}

	// A single instance keeps tokens, clients and flows in memory.
	store := memory.New()
	logger := slog.Default().With("component", "oauth")

	oauthSrv, err := oauth.NewServer(provider, store, store, store, &oauthserver.Config{
		Issuer:                    cfg.BaseURL,
		AllowRefreshTokenRotation: true,
		MaxClientsPerIP:           maxClientsPerIP,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create OAuth server: %w", err)
	}

	return &OAuthHTTPServer{
		mcpServer:    mcpSrv,
		mcpEndpoint:  mcpEndpoint,
		metrics:      cfg.MetricsHandler,
		oauthServer:  oauthSrv,
		oauthHandler: oauth.NewHandler(oauthSrv, logger),
	}, nil
}

// Handler returns the OAuth, MCP, health and metrics routes.
func (s *OAuthHTTPServer) Handler() http.Handler {
	mux := newMux(s.metrics)

	h := s.oauthHandler
	h.RegisterAuthorizationServerMetadataRoutes(mux)
	h.RegisterProtectedResourceMetadataRoutes(mux, s.mcpEndpoint)
	for path, fn := range map[string]http.HandlerFunc{
		"/oauth/authorize":  h.ServeAuthorization,
		"/oauth/token":      h.ServeToken,
		"/oauth/callback":   h.ServeCallback,
		"/oauth/register":   h.ServeClientRegistration,
		"/oauth/revoke":     h.ServeTokenRevocation,
		"/oauth/introspect": h.ServeTokenIntrospection,
	} {
		mux.HandleFunc(path, fn)
	}

	// run_cot starts paid provider calls, so every MCP request needs a token.
	mcpHandler := mcpserver.NewStreamableHTTPServer(s.mcpServer,
		mcpserver.WithEndpointPath(s.mcpEndpoint),
	)
	mux.Handle(s.mcpEndpoint, h.ValidateToken(mcpHandler))
	return mux
}

// Start listens on addr and blocks until the server stops.
func (s *OAuthHTTPServer) Start(addr string) error {
	s.httpServer = newHTTPServer(addr, s.Handler())
	return s.httpServer.ListenAndServe()
}

// Shutdown stops the OAuth background workers and drains the HTTP server.
func (s *OAuthHTTPServer) Shutdown(ctx context.Context) error {
	if err := s.oauthServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown OAuth server", "error", err)
	}
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// validateHTTPSRequirement enforces HTTPS except on loopback hosts.
func validateHTTPSRequirement(baseURL string) error {
	if baseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}

	switch u.Scheme {
	case "https":
		return nil
	case "http":
		switch u.Hostname() {
		case "localhost", "127.0.0.1", "::1":
			return nil
		}
		return fmt.Errorf("OAuth 2.1 requires HTTPS outside localhost (got: %s)", baseURL)
	default:
		return fmt.Errorf("invalid URL scheme %q: must be https, or http for localhost", u.Scheme)
	}
}
