package monitoring

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/spacesedan/sentiscope/internal/inference"
)

const (
	HEALTHCHECK_TIMEOUT = 5 * time.Second
	HEALTHCHECK_TEXT    = "health check"
)

// ModelStatus is the result of one readiness check
type ModelStatus struct {
	Sentiment bool      `json:"sentiment"`
	Emotion   bool      `json:"emotion"`
	CheckedAt time.Time `json:"checked_at"`
}

func (s ModelStatus) Healthy() bool {
	return s.Sentiment && s.Emotion
}

// ModelHealth checks both classifiers on demand and logs when the verdict changes
type ModelHealth struct {
	handles *inference.Handles
	timeout time.Duration
	checked atomic.Bool
	healthy atomic.Bool
}

func NewModelHealth(handles *inference.Handles, timeout time.Duration) *ModelHealth {
	if timeout <= 0 {
		timeout = HEALTHCHECK_TIMEOUT
	}
	return &ModelHealth{handles: handles, timeout: timeout}
}

// Check classifies a fixed sample text with each model
func (m *ModelHealth) Check(ctx context.Context) ModelStatus {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	status := ModelStatus{
		Sentiment: checkModel(ctx, "Sentiment", m.handles.Sentiment),
		Emotion:   checkModel(ctx, "Emotion", m.handles.Emotion),
		CheckedAt: time.Now().UTC(),
	}

	m.record(status.Healthy())
	return status
}

func (m *ModelHealth) record(healthy bool) {
	was := m.healthy.Swap(healthy)
	if first := !m.checked.Swap(true); first || was == healthy {
		return
	}

	if healthy {
		slog.Info("[HealthCheck] Models recovered")
	} else {
		slog.Warn("[HealthCheck] Models became unhealthy")
	}
}

func checkModel(ctx context.Context, name string, classifier inference.Classifier) bool {
	if classifier == nil {
		slog.Warn("[HealthCheck] Classifier missing", slog.String("model", name))
		return false
	}

	results, err := classifier.Classify(ctx, HEALTHCHECK_TEXT)
	if err != nil {
		slog.Warn("[HealthCheck] Classifier is unhealthy",
			slog.String("model", name),
			slog.String("error", err.Error()))
		return false
	}
	if len(results) == 0 {
		slog.Warn("[HealthCheck] Classifier returned no labels", slog.String("model", name))
		return false
	}
	return true
}
