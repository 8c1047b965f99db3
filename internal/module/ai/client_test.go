package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/plateful/server/internal/shared/config"
)

func newTestClient(url string) *HTTPClient {
	return NewHTTPClient(config.AIConfig{
		APIKey:      "test-key",
		BaseURL:     url,
		Model:       "test-model",
		MaxTokens:   100,
		Temperature: 0.7,
		Timeout:     5 * time.Second,
	})
}

func TestHTTPClient_Complete(t *testing.T) {
	t.Run("sends request and returns first choice", func(t *testing.T) {
		var gotPath, gotAuth string
		var gotBody map[string]any

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotAuth = r.Header.Get("Authorization")
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

			_ = json.NewEncoder(w).Encode(map[string]any{
				"choices": []map[string]any{
					{"message": map[string]string{"role": "assistant", "content": "hello"}},
				},
			})
		}))
		defer srv.Close()

		content, err := newTestClient(srv.URL).Complete(context.Background(), "be helpful", "hi")

		require.NoError(t, err)
		assert.Equal(t, "hello", content)
		assert.Equal(t, "/chat/completions", gotPath)
		assert.Equal(t, "Bearer test-key", gotAuth)
		assert.Equal(t, "test-model", gotBody["model"])
		assert.Len(t, gotBody["messages"], 2)
	})

	t.Run("non-2xx status surfaces the body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":"rate limited"}`, http.StatusTooManyRequests)
		}))
		defer srv.Close()

		_, err := newTestClient(srv.URL).Complete(context.Background(), "s", "u")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "429")
		assert.Contains(t, err.Error(), "rate limited")
	})

	t.Run("empty choices is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
		}))
		defer srv.Close()

		_, err := newTestClient(srv.URL).Complete(context.Background(), "s", "u")

		assert.Error(t, err)
	})
}

type flakyClient struct {
	err   error
	calls int
}

func (f *flakyClient) Complete(context.Context, string, string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return "ok", nil
}

func TestBreakerClient(t *testing.T) {
	cfg := config.AIConfig{FailureThreshold: 2, CircuitTimeout: time.Minute}

	t.Run("passes successes through", func(t *testing.T) {
		inner := &flakyClient{}
		client := NewBreakerClient(inner, cfg, zap.NewNop())

		content, err := client.Complete(context.Background(), "s", "u")

		require.NoError(t, err)
		assert.Equal(t, "ok", content)
	})

	t.Run("opens after consecutive failures", func(t *testing.T) {
		inner := &flakyClient{err: errors.New("upstream down")}
		client := NewBreakerClient(inner, cfg, zap.NewNop())

		for i := 0; i < 2; i++ {
			_, err := client.Complete(context.Background(), "s", "u")
			require.Error(t, err)
		}
		callsBeforeOpen := inner.calls

		_, err := client.Complete(context.Background(), "s", "u")
		require.Error(t, err)
		assert.Equal(t, callsBeforeOpen, inner.calls, "open circuit must not reach the provider")
	})
}
