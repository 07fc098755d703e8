package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completion(content string) string {
	body, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"role": "assistant", "content": content}},
		},
	})
	return string(body)
}

func testConfig(url string) Config {
	cfg := DefaultConfig("test-key")
	cfg.BaseURL = url
	cfg.MaxRetries = 1
	cfg.Timeout = 5 * time.Second
	return cfg
}

func TestCompleteSuccess(t *testing.T) {
	var gotAuth string
	var gotBody chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte(completion("  [{\"task_id\": 1}]  ")))
	}))
	defer srv.Close()

	c := NewHTTPClient(testConfig(srv.URL))
	got, err := c.Complete(context.Background(), "system goes here", "user goes here")
	require.NoError(t, err)

	assert.Equal(t, `[{"task_id": 1}]`, got, "content is trimmed")
	assert.Equal(t, "Bearer test-key", gotAuth)
	require.Len(t, gotBody.Messages, 2)
	assert.Equal(t, "system", gotBody.Messages[0].Role)
	assert.Equal(t, "user", gotBody.Messages[1].Role)
}

func TestCompleteRetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(completion("ok")))
	}))
	defer srv.Close()

	c := NewHTTPClient(testConfig(srv.URL))
	got, err := c.Complete(context.Background(), "", "prompt")
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, int32(2), calls.Load())
}

func TestCompleteRetriesServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewHTTPClient(testConfig(srv.URL))
	_, err := c.Complete(context.Background(), "", "prompt")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnavailable))
	assert.Equal(t, int32(2), calls.Load(), "initial attempt plus one retry")
}

func TestCompleteClientErrorIsFatal(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": {"message": "bad model"}}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(testConfig(srv.URL))
	_, err := c.Complete(context.Background(), "", "prompt")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrUnavailable), "4xx must not be retried or masked")
	assert.Equal(t, int32(1), calls.Load())
}

func TestCompleteMissingAPIKey(t *testing.T) {
	cfg := DefaultConfig("")
	c := NewHTTPClient(cfg)

	_, err := c.Complete(context.Background(), "", "prompt")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnavailable))
}

func TestCompleteContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := testConfig(srv.URL)
	cfg.MaxRetries = 3
	c := NewHTTPClient(cfg)

	start := time.Now()
	_, err := c.Complete(ctx, "", "prompt")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnavailable))
	assert.Less(t, time.Since(start), 2*time.Second, "cancellation must short-circuit the backoff")
}

func TestCompleteEmptyChoicesRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Write([]byte(`{"choices": []}`))
			return
		}
		w.Write([]byte(completion("recovered")))
	}))
	defer srv.Close()

	c := NewHTTPClient(testConfig(srv.URL))
	got, err := c.Complete(context.Background(), "", "prompt")
	require.NoError(t, err)
	assert.Equal(t, "recovered", got)
}
