package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalBackend_Complete(t *testing.T) {
	var got localRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/completion", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"content":[{"text":"Bonjour "},{"text":"le monde"}]}`))
	}))
	defer srv.Close()

	b := NewLocalBackend(srv.URL+"/completion", &http.Client{Timeout: 5 * time.Second})
	text, err := b.Complete(context.Background(), Request{
		Exchange: NewExchange("sys", "Hello world"),
		Stop:     []string{"\n", SentinelUser},
	})
	require.NoError(t, err)
	assert.Equal(t, "Bonjour le monde", text)

	assert.Equal(t, -1, got.NPredict)
	assert.Equal(t, DefaultTopK, got.TopK)
	assert.InDelta(t, DefaultTopP, got.TopP, 1e-6)
	assert.InDelta(t, DefaultRepeatPenalty, got.RepeatPenalty, 1e-6)
	assert.Contains(t, got.Prompt, "<|system|>\nsys\n")
	assert.Contains(t, got.Stop, SentinelUser)
	assert.Contains(t, got.Stop, SentinelSystem)
	assert.Contains(t, got.Stop, SentinelAssistant)
	assert.Contains(t, got.Stop, "\n")
	assert.Len(t, got.Stop, 5, "duplicates are dropped")
}

func TestLocalBackend_BoundedPrediction(t *testing.T) {
	var got localRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"content":"notes.txt"}`))
	}))
	defer srv.Close()

	b := NewLocalBackend(srv.URL, nil)
	_, err := b.Complete(context.Background(), Request{Exchange: NewExchange("", "x"), MaxTokens: 50})
	require.NoError(t, err)
	assert.Equal(t, 50, got.NPredict)
	assert.Zero(t, got.Temperature)
}

func TestLocalBackend_Failures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    Kind
		wantErr bool
	}{
		{"server error", http.StatusInternalServerError, "boom", KindHTTPStatus, true},
		{"not found", http.StatusNotFound, "", KindHTTPStatus, true},
		{"invalid json", http.StatusOK, "not json", KindMalformed, true},
		{"missing content", http.StatusOK, `{"stop":true}`, KindMalformed, true},
		{"blank content", http.StatusOK, `{"content":"  \n "}`, KindEmpty, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			b := NewLocalBackend(srv.URL, nil)
			_, err := b.Complete(context.Background(), Request{Exchange: NewExchange("", "x")})
			require.Error(t, err)
			assert.True(t, IsKind(err, tt.want), "got %v", err)
			if tt.want == KindHTTPStatus {
				assert.Equal(t, tt.status, StatusCode(err))
			}
		})
	}
}

func TestLocalBackend_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	b := NewLocalBackend(url, &http.Client{Timeout: time.Second})
	_, err := b.Complete(context.Background(), Request{Exchange: NewExchange("", "x")})
	assert.True(t, IsKind(err, KindNetwork), "got %v", err)
}

func TestLocalBackend_TimeoutIsNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer srv.Close()

	b := NewLocalBackend(srv.URL, &http.Client{Timeout: 50 * time.Millisecond})
	_, err := b.Complete(context.Background(), Request{Exchange: NewExchange("", "x")})
	assert.True(t, IsKind(err, KindNetwork), "got %v", err)
}

func TestLocalBackend_Name(t *testing.T) {
	assert.Equal(t, "local", NewLocalBackend("http://x", nil).Name())
}
