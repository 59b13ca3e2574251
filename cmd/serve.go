package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	mcptools "github.com/giantswarm/llm-bench/internal/mcp"
	"github.com/giantswarm/llm-bench/internal/server"
)

const (
	transportStdio          = "stdio"
	transportStreamableHTTP = "streamable-http"

	shutdownGrace = 10 * time.Second
)

type serveOptions struct {
	transport    string
	httpAddr     string
	httpEndpoint string
	dataRoot     string
	outputDir    string
	scoresDir    string
	oauth        oauthOptions
}

type oauthOptions struct {
	enabled         bool
	baseURL         string
	provider        string
	dexIssuerURL    string
	dexClientID     string
	dexClientSecret string
}

func newServeCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Expose the benchmark tools (list_subjects, list_models, run_cot,
extract_answers, score_results, get_results) over the Model Context Protocol.

Transports:
  - stdio: standard input/output, for IDE integration (default)
  - streamable-http: HTTP with streaming, for remote access

The HTTP transport also serves /healthz and Prometheus metrics on /metrics.
With --enable-oauth the MCP endpoint requires an OAuth 2.1 bearer token.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			reg, metrics := newMetrics()

			sc := &server.ServerContext{
				Config:    cfg,
				Client:    newClient(cfg, metrics),
				Metrics:   metrics,
				DataRoot:  opts.dataRoot,
				OutputDir: opts.outputDir,
				ScoresDir: opts.scoresDir,
			}

			mcpSrv := mcpserver.NewMCPServer("llm-bench", rootCmd.Version,
				mcpserver.WithToolCapabilities(true),
			)
			if err := mcptools.RegisterTools(mcpSrv, sc); err != nil {
				return fmt.Errorf("failed to register MCP tools: %w", err)
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			switch opts.transport {
			case transportStdio:
				if err := mcpserver.ServeStdio(mcpSrv); err != nil {
					return fmt.Errorf("stdio server stopped with error: %w", err)
				}
				return nil
			case transportStreamableHTTP:
				metricsHandler := server.MetricsHandler(reg)
				if opts.oauth.enabled {
					return serveOAuth(ctx, mcpSrv, opts, metricsHandler)
				}
				httpServer := server.NewStreamableHTTPServer(mcpSrv, opts.httpAddr, opts.httpEndpoint, metricsHandler)
				slog.Info("starting MCP server", "transport", opts.transport, "addr", opts.httpAddr,
					"endpoint", opts.httpEndpoint, "health", "/healthz", "metrics", "/metrics")
				return serveUntilDone(ctx, "HTTP server", httpServer.ListenAndServe, httpServer.Shutdown)
			default:
				return fmt.Errorf("unsupported transport: %s (supported: %s, %s)", opts.transport, transportStdio, transportStreamableHTTP)
			}
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.transport, "transport", transportStdio, "Transport type: stdio or streamable-http")
	f.StringVar(&opts.httpAddr, "http-addr", ":8080", "HTTP listen address (streamable-http)")
	f.StringVar(&opts.httpEndpoint, "http-endpoint", "/mcp", "MCP endpoint path (streamable-http)")
	f.StringVar(&opts.dataRoot, "data-root", defaultDataRoot, "BigBench dataset root containing cot-prompts/ and bbh/")
	f.StringVar(&opts.outputDir, "output-dir", defaultOutputDir, "Directory for results and answers")
	f.StringVar(&opts.scoresDir, "scores-dir", "", "Directory for score files (default: output directory)")

	f.BoolVar(&opts.oauth.enabled, "enable-oauth", false, "Require OAuth 2.1 bearer tokens on the MCP endpoint (streamable-http)")
	f.StringVar(&opts.oauth.baseURL, "oauth-base-url", "", "Public base URL of this server (e.g. https://bench.example.com)")
	f.StringVar(&opts.oauth.provider, "oauth-provider", server.OAuthProviderDex, "OAuth provider: dex")
	f.StringVar(&opts.oauth.dexIssuerURL, "dex-issuer-url", "", "Dex OIDC issuer URL (env DEX_ISSUER_URL)")
	f.StringVar(&opts.oauth.dexClientID, "dex-client-id", "", "Dex OAuth client ID (env DEX_CLIENT_ID)")
	f.StringVar(&opts.oauth.dexClientSecret, "dex-client-secret", "", "Dex OAuth client secret (env DEX_CLIENT_SECRET)")

	return cmd
}

// resolve fills unset Dex credentials from the environment and checks that
// everything the OAuth server needs is present.
func (o oauthOptions) resolve() (server.OAuthConfig, error) {
	cfg := server.OAuthConfig{
		BaseURL:         o.baseURL,
		Provider:        o.provider,
		DexIssuerURL:    flagOrEnv(o.dexIssuerURL, "DEX_ISSUER_URL"),
		DexClientID:     flagOrEnv(o.dexClientID, "DEX_CLIENT_ID"),
		DexClientSecret: flagOrEnv(o.dexClientSecret, "DEX_CLIENT_SECRET"),
	}

	required := []struct {
		value, flag, env string
	}{
		{cfg.BaseURL, "--oauth-base-url", ""},
		{cfg.DexIssuerURL, "--dex-issuer-url", "DEX_ISSUER_URL"},
		{cfg.DexClientID, "--dex-client-id", "DEX_CLIENT_ID"},
		{cfg.DexClientSecret, "--dex-client-secret", "DEX_CLIENT_SECRET"},
	}
	for _, r := range required {
		if r.value != "" {
			continue
		}
		if r.env == "" {
			return cfg, fmt.Errorf("%s is required when --enable-oauth is set", r.flag)
		}
		return cfg, fmt.Errorf("%s or %s is required when --enable-oauth is set", r.flag, r.env)
	}
	return cfg, nil
}

func flagOrEnv(value, env string) string {
	if value != "" {
		return value
	}
	return os.Getenv(env)
}

func serveOAuth(ctx context.Context, mcpSrv *mcpserver.MCPServer, opts serveOptions, metrics http.Handler) error {
	cfg, err := opts.oauth.resolve()
	if err != nil {
		return err
	}
	cfg.MetricsHandler = metrics

	oauthSrv, err := server.NewOAuthHTTPServer(mcpSrv, opts.httpEndpoint, cfg)
	if err != nil {
		return fmt.Errorf("failed to create OAuth HTTP server: %w", err)
	}

	slog.Info("starting OAuth-protected MCP server",
		"addr", opts.httpAddr,
		"base_url", cfg.BaseURL,
		"provider", cfg.Provider,
		"endpoint", opts.httpEndpoint,
		"metadata", "/.well-known/oauth-authorization-server",
		"register", "/oauth/register",
		"metrics", "/metrics",
	)
	return serveUntilDone(ctx, "OAuth HTTP server",
		func() error { return oauthSrv.Start(opts.httpAddr) },
		oauthSrv.Shutdown,
	)
}

// serveUntilDone runs start until it fails or ctx is cancelled, in which case
// shutdown is given shutdownGrace to drain connections.
func serveUntilDone(ctx context.Context, name string, start func() error, shutdown func(context.Context) error) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- start()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("%s error: %w", name, err)
		}
	case <-ctx.Done():
		slog.Info("shutdown signal received", "server", name)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error shutting down %s: %w", name, err)
		}
	}

	slog.Info("server stopped", "server", name)
	return nil
}
