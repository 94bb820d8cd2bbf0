package clients

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(url string) *HuggingFaceClient {
	c := NewHuggingFaceClient(url, "secret-token", 5*time.Second)
	c.InitialBackoff = time.Millisecond
	c.MaxRetries = 3
	return c
}

func TestClassify_ParsesResponseShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{
			name: "nested",
			body: `[[{"label":"joy","score":0.9},{"label":"sadness","score":0.1}]]`,
		},
		{
			name: "flat",
			body: `[{"label":"joy","score":0.9},{"label":"sadness","score":0.1}]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotPath, gotAuth string
			var gotBody classificationRequest

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path
				gotAuth = r.Header.Get("Authorization")
				raw, _ := io.ReadAll(r.Body)
				_ = json.Unmarshal(raw, &gotBody)
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			classifier := newTestClient(srv.URL).Classifier("org/emotion-model")
			results, err := classifier.Classify(context.Background(), "what a day")
			require.NoError(t, err)

			assert.Equal(t, "/org/emotion-model", gotPath)
			assert.Equal(t, "Bearer secret-token", gotAuth)
			assert.Equal(t, "what a day", gotBody.Inputs)
			assert.True(t, gotBody.Options.WaitForModel)
			assert.Equal(t, CLASSIFICATION_TOP_K, gotBody.Parameters.TopK)
			require.Len(t, results, 2)
			assert.Equal(t, "joy", results[0].Label)
			assert.InDelta(t, 0.9, results[0].Score, 1e-9)
			assert.Equal(t, "org/emotion-model", classifier.Model())
		})
	}
}

func TestClassify_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{
			name:    "api error payload",
			status:  http.StatusBadRequest,
			body:    `{"error":"Input is too long"}`,
			wantMsg: "Input is too long",
		},
		{
			name:    "server error is not retried",
			status:  http.StatusServiceUnavailable,
			body:    `upstream unavailable`,
			wantMsg: "status 503",
		},
		{
			name:    "empty labels",
			status:  http.StatusOK,
			body:    `[[]]`,
			wantMsg: "no labels",
		},
		{
			name:    "garbage",
			status:  http.StatusOK,
			body:    `{"unexpected":true}`,
			wantMsg: "failed to unmarshal",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := newTestClient(srv.URL).Classifier("m").Classify(context.Background(), "text")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
			assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
		})
	}
}

func TestWarmup_RetriesWhileLoading(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":"Model is currently loading"}`))
			return
		}
		_, _ = w.Write([]byte(`[[{"label":"POSITIVE","score":0.7},{"label":"NEGATIVE","score":0.3}]]`))
	}))
	defer srv.Close()

	err := newTestClient(srv.URL).Classifier("sentiment").Warmup(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestWarmup_GivesUp(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := newTestClient(srv.URL).Classifier("sentiment").Warmup(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "warmup of sentiment failed")
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestWarmup_HonoursCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	client.InitialBackoff = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := client.Classifier("sentiment").Warmup(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
