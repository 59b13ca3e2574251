package cmd

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOAuthOptionsResolve(t *testing.T) {
	t.Setenv("DEX_ISSUER_URL", "https://dex.example.com")
	t.Setenv("DEX_CLIENT_ID", "from-env")
	t.Setenv("DEX_CLIENT_SECRET", "")

	opts := oauthOptions{
		baseURL:         "https://bench.example.com",
		provider:        "dex",
		dexClientID:     "from-flag",
		dexClientSecret: "s3cret",
	}
	cfg, err := opts.resolve()
	require.NoError(t, err)
	assert.Equal(t, "https://dex.example.com", cfg.DexIssuerURL)
	assert.Equal(t, "from-flag", cfg.DexClientID)
	assert.Equal(t, "s3cret", cfg.DexClientSecret)

	opts.dexClientSecret = ""
	_, err = opts.resolve()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DEX_CLIENT_SECRET")

	_, err = oauthOptions{}.resolve()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--oauth-base-url")
}

func TestServeUntilDone(t *testing.T) {
	t.Run("closed server is not an error", func(t *testing.T) {
		err := serveUntilDone(context.Background(), "test",
			func() error { return http.ErrServerClosed },
			func(context.Context) error { return nil },
		)
		assert.NoError(t, err)
	})

	t.Run("start failure", func(t *testing.T) {
		err := serveUntilDone(context.Background(), "test",
			func() error { return errors.New("address in use") },
			func(context.Context) error { return nil },
		)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "address in use")
	})

	t.Run("cancellation shuts down", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		block := make(chan struct{})
		defer close(block)
		shutdownCalled := false
		err := serveUntilDone(ctx, "test",
			func() error { <-block; return http.ErrServerClosed },
			func(context.Context) error { shutdownCalled = true; return nil },
		)
		require.NoError(t, err)
		assert.True(t, shutdownCalled)
	})
}
