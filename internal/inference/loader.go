package inference

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/spacesedan/sentiscope/internal/models"
)

// Classifier scores text against every label of one model
type Classifier interface {
	Classify(ctx context.Context, text string) ([]models.ClassificationResult, error)
}

// Handles is the pair of classifiers the analyzer works with. Close releases
// whatever runtime backs them and may be nil.
type Handles struct {
	Sentiment Classifier
	Emotion   Classifier
	close     func() error
}

func NewHandles(sentiment, emotion Classifier, closeFn func() error) *Handles {
	return &Handles{Sentiment: sentiment, Emotion: emotion, close: closeFn}
}

func (h *Handles) Close() error {
	if h == nil || h.close == nil {
		return nil
	}
	return h.close()
}

// Factory builds both handles from scratch
type Factory func(ctx context.Context) (*Handles, error)

// Loader constructs the handles at most once. Both the handles and a failed
// initialization are memoized, so later callers see the same result.
type Loader struct {
	factory Factory
	once    sync.Once
	handles *Handles
	err     error
}

func NewLoader(factory Factory) *Loader {
	return &Loader{factory: factory}
}

func (l *Loader) Load(ctx context.Context) (*Handles, error) {
	l.once.Do(func() {
		start := time.Now()
		slog.Info("[ModelLoader] Loading classifiers")

		handles, err := l.factory(ctx)
		if err == nil && (handles == nil || handles.Sentiment == nil || handles.Emotion == nil) {
			err = errors.New("factory returned incomplete classifier handles")
		}
		if err != nil {
			l.err = fmt.Errorf("failed to load models: %w", err)
			slog.Error("[ModelLoader] Failed to load classifiers",
				slog.String("error", err.Error()),
				slog.Duration("elapsed", time.Since(start)))
			return
		}

		l.handles = handles
		slog.Info("[ModelLoader] Classifiers ready",
			slog.Duration("elapsed", time.Since(start)))
	})

	return l.handles, l.err
}
