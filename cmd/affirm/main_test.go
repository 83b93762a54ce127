package main

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestRun(t *testing.T) {
	var received string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		received = gjson.GetBytes(body, "message").String()
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = io.WriteString(w, `data: {"choices":[{"delta":{"content":"You are "}}]}`+"\n\n"+
			`data: {"choices":[{"delta":{"content":"enough."}}]}`+"\n\n"+
			"data: [DONE]\n\n")
	}))
	defer srv.Close()
	t.Setenv("AFFIRM_API_URL", srv.URL)

	t.Run("should read the message from arguments", func(t *testing.T) {
		var stdout, stderr bytes.Buffer

		code := run([]string{"I", "feel", "lonely"}, strings.NewReader(""), &stdout, &stderr)

		require.Zero(t, code)
		require.Equal(t, "I feel lonely", received)
		require.Equal(t, "You are enough.\n", stdout.String())
		require.Empty(t, stderr.String())
	})

	t.Run("should read the message from stdin", func(t *testing.T) {
		var stdout, stderr bytes.Buffer

		code := run(nil, strings.NewReader("tired today"), &stdout, &stderr)

		require.Zero(t, code)
		require.Equal(t, "tired today", received)
	})
}

func TestRun_ErrorExitsNonZero(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"error":"slow down","code":"RATE_LIMITED"}`)
	}))
	defer srv.Close()
	t.Setenv("AFFIRM_API_URL", srv.URL)

	var stdout, stderr bytes.Buffer
	code := run([]string{"hello there"}, strings.NewReader(""), &stdout, &stderr)

	require.Equal(t, 1, code)
	require.Empty(t, stdout.String())
	require.Equal(t, "Too many requests. Please wait a moment and try again.\n", stderr.String())
}
