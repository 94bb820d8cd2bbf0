package inference

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacesedan/sentiscope/config"
	"github.com/spacesedan/sentiscope/internal/models"
)

type staticClassifier struct {
	results []models.ClassificationResult
}

func (s staticClassifier) Classify(context.Context, string) ([]models.ClassificationResult, error) {
	return s.results, nil
}

func TestLoader_RunsFactoryOnce(t *testing.T) {
	calls := 0
	closed := 0
	loader := NewLoader(func(ctx context.Context) (*Handles, error) {
		calls++
		return NewHandles(staticClassifier{}, staticClassifier{}, func() error {
			closed++
			return nil
		}), nil
	})

	var wg sync.WaitGroup
	results := make([]*Handles, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			h, err := loader.Load(context.Background())
			assert.NoError(t, err)
			results[i] = h
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, calls)
	for _, h := range results {
		assert.Same(t, results[0], h)
	}

	require.NoError(t, results[0].Close())
	assert.Equal(t, 1, closed)
}

func TestLoader_MemoizesFailure(t *testing.T) {
	calls := 0
	loader := NewLoader(func(ctx context.Context) (*Handles, error) {
		calls++
		return nil, errors.New("weights missing")
	})

	for i := 0; i < 3; i++ {
		h, err := loader.Load(context.Background())
		require.Error(t, err)
		assert.Nil(t, h)
		assert.Contains(t, err.Error(), "weights missing")
	}
	assert.Equal(t, 1, calls)
}

func TestLoader_RejectsIncompleteHandles(t *testing.T) {
	loader := NewLoader(func(ctx context.Context) (*Handles, error) {
		return NewHandles(staticClassifier{}, nil, nil), nil
	})

	h, err := loader.Load(context.Background())
	require.Error(t, err)
	assert.Nil(t, h)
	assert.Contains(t, err.Error(), "incomplete")
}

func TestNilHandlesClose(t *testing.T) {
	var h *Handles
	assert.NoError(t, h.Close())
	assert.NoError(t, NewHandles(nil, nil, nil).Close())
}

func TestNewFactory(t *testing.T) {
	_, err := NewFactory(config.ModelConfig{Backend: "tensorflow"})
	assert.Error(t, err)

	f, err := NewFactory(config.ModelConfig{Backend: config.BACKEND_HUGOT})
	require.NoError(t, err)
	assert.NotNil(t, f)
}

func TestAPIFactory_WarmsUpBothModels(t *testing.T) {
	var paths []string
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()
		_, _ = w.Write([]byte(`[[{"label":"a","score":1}]]`))
	}))
	defer srv.Close()

	factory, err := NewFactory(config.ModelConfig{
		Backend:        config.BACKEND_API,
		SentimentModel: "org/sentiment",
		EmotionModel:   "org/emotion",
		InferenceURL:   srv.URL,
		Timeout:        5 * time.Second,
	})
	require.NoError(t, err)

	handles, err := NewLoader(factory).Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, handles)

	assert.Equal(t, []string{"/org/sentiment", "/org/emotion"}, paths)
	assert.NoError(t, handles.Close())
}
