package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dkeye/Scribe/internal/core"
	"github.com/dkeye/Scribe/internal/domain"
	"github.com/stretchr/testify/require"
)

func newBackend(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(Config{BaseURL: srv.URL})
	require.NoError(t, err)
	return c
}

func TestRequestCredential_Success(t *testing.T) {
	req := require.New(t)
	var got map[string]string
	c := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		req.Equal(http.MethodPost, r.Method)
		req.Equal("/api/token", r.URL.Path)
		req.NoError(json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"token":"abc","url":"wss://media.example"}`))
	})

	cred, err := c.RequestCredential(context.Background(), "standup", "Alice")

	req.NoError(err)
	req.Equal(domain.Credential{Token: "abc", MediaURL: "wss://media.example"}, cred)
	req.Equal(map[string]string{"roomId": "standup", "displayName": "Alice"}, got)
}

func TestRequestCredential_Failures(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"server error": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		},
		"missing token": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"url":"wss://media.example"}`))
		},
		"empty token": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"token":""}`))
		},
		"malformed": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<html>`))
		},
	}
	for name, h := range cases {
		t.Run(name, func(t *testing.T) {
			c := newBackend(t, h)
			_, err := c.RequestCredential(context.Background(), "standup", "Alice")
			require.ErrorIs(t, err, core.ErrCredentialUnavailable)
		})
	}
}

func TestRequestCredential_NetworkError(t *testing.T) {
	c, err := NewClient(Config{BaseURL: "http://127.0.0.1:1"})
	require.NoError(t, err)

	_, err = c.RequestCredential(context.Background(), "standup", "Alice")
	require.ErrorIs(t, err, core.ErrCredentialUnavailable)
}

func TestRequestCredential_ContextDeadline(t *testing.T) {
	release := make(chan struct{})
	c := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := c.RequestCredential(ctx, "standup", "Alice")

	require.ErrorIs(t, err, core.ErrCredentialUnavailable)
	require.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestActivate(t *testing.T) {
	req := require.New(t)
	var got map[string]string
	c := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		req.Equal("/api/attach-transcriber", r.URL.Path)
		req.NoError(json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"status":"started"}`))
	})

	req.NoError(c.Activate(context.Background(), "standup"))
	req.Equal(map[string]string{"roomId": "standup"}, got)
}

func TestActivate_StatusError(t *testing.T) {
	c := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"roomId required"}`, http.StatusBadRequest)
	})

	err := c.Activate(context.Background(), "standup")

	var se *StatusError
	require.ErrorAs(t, err, &se)
	require.Equal(t, http.StatusBadRequest, se.Code)
}
