package http_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/affirmrelay/internal/config"
	relayhttp "github.com/davidbz/affirmrelay/internal/http"
)

func TestServer_StartAndShutdown(t *testing.T) {
	srv := relayhttp.NewServer(&config.ServerConfig{Port: 0, ReadTimeout: 5}, nil, nil, nil)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	// Give ListenAndServe a moment to bind before shutting down.
	time.Sleep(20 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))

	select {
	case err := <-errCh:
		require.NoError(t, err, "a shutdown is not a start failure")
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after Shutdown")
	}
}

func TestServer_ShutdownBeforeStart(t *testing.T) {
	srv := relayhttp.NewServer(&config.ServerConfig{Port: 0}, nil, nil, nil)

	require.NoError(t, srv.Shutdown(context.Background()))
	require.NoError(t, srv.Start(), "a closed server refuses to start without error")
}
