package monitoring

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/spacesedan/sentiscope/internal/inference"
	"github.com/spacesedan/sentiscope/internal/logging"
	"github.com/spacesedan/sentiscope/internal/models"
)

type stubClassifier struct {
	err     error
	results []models.ClassificationResult
}

func (s stubClassifier) Classify(ctx context.Context, text string) ([]models.ClassificationResult, error) {
	return s.results, s.err
}

var healthyStub = stubClassifier{results: []models.ClassificationResult{{Label: "POSITIVE", Score: 1}}}

func TestModelHealth_Check(t *testing.T) {
	tests := []struct {
		name      string
		sentiment inference.Classifier
		emotion   inference.Classifier
		want      ModelStatus
	}{
		{"both healthy", healthyStub, healthyStub, ModelStatus{Sentiment: true, Emotion: true}},
		{"emotion failing", healthyStub, stubClassifier{err: errors.New("boom")}, ModelStatus{Sentiment: true}},
		{"sentiment empty", stubClassifier{}, healthyStub, ModelStatus{Emotion: true}},
		{"missing classifier", nil, healthyStub, ModelStatus{Emotion: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			health := NewModelHealth(inference.NewHandles(tt.sentiment, tt.emotion, nil), time.Second)

			status := health.Check(context.Background())
			assert.Equal(t, tt.want.Sentiment, status.Sentiment)
			assert.Equal(t, tt.want.Emotion, status.Emotion)
			assert.Equal(t, tt.want.Healthy(), health.healthy.Load())
			assert.False(t, status.CheckedAt.IsZero())
		})
	}
}

type switchableClassifier struct {
	err error
}

func (s *switchableClassifier) Classify(ctx context.Context, text string) ([]models.ClassificationResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return healthyStub.results, nil
}

func TestModelHealth_LogsTransitions(t *testing.T) {
	var buf bytes.Buffer
	previous := slog.Default()
	slog.SetDefault(logging.New(&buf, "info"))
	t.Cleanup(func() { slog.SetDefault(previous) })

	sentiment := &switchableClassifier{}
	health := NewModelHealth(inference.NewHandles(sentiment, healthyStub, nil), time.Second)

	health.Check(context.Background())
	assert.NotContains(t, buf.String(), "[HealthCheck] Models")

	sentiment.err = errors.New("endpoint down")
	health.Check(context.Background())
	assert.Contains(t, buf.String(), "Models became unhealthy")

	sentiment.err = nil
	health.Check(context.Background())
	assert.Contains(t, buf.String(), "Models recovered")
}
