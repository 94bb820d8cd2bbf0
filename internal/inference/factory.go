package inference

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spacesedan/sentiscope/config"
	"github.com/spacesedan/sentiscope/internal/clients"
)

// NewFactory returns the Factory for the configured backend
func NewFactory(cfg config.ModelConfig) (Factory, error) {
	switch cfg.Backend {
	case config.BACKEND_API:
		return apiFactory(cfg), nil
	case config.BACKEND_HUGOT:
		return hugotFactory(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported inference backend: %s", cfg.Backend)
	}
}

func apiFactory(cfg config.ModelConfig) Factory {
	return func(ctx context.Context) (*Handles, error) {
		hf := clients.NewHuggingFaceClient(cfg.InferenceURL, cfg.APIToken, cfg.Timeout)

		sentiment := hf.Classifier(cfg.SentimentModel)
		emotion := hf.Classifier(cfg.EmotionModel)

		for _, c := range []*clients.HuggingFaceClassifier{sentiment, emotion} {
			if err := c.Warmup(ctx); err != nil {
				return nil, err
			}
		}

		slog.Info("[Inference] Models ready",
			slog.String("backend", config.BACKEND_API),
			slog.String("sentiment_model", sentiment.Model()),
			slog.String("emotion_model", emotion.Model()))
		return NewHandles(sentiment, emotion, nil), nil
	}
}

func hugotFactory(cfg config.ModelConfig) Factory {
	return func(ctx context.Context) (*Handles, error) {
		runtime, err := clients.NewHugotRuntime(cfg.ModelDir)
		if err != nil {
			return nil, err
		}

		sentiment, err := runtime.Classifier(cfg.SentimentModel, "sentimentPipeline")
		if err != nil {
			return nil, errors.Join(err, runtime.Close())
		}

		emotion, err := runtime.Classifier(cfg.EmotionModel, "emotionPipeline")
		if err != nil {
			return nil, errors.Join(err, runtime.Close())
		}

		slog.Info("[Inference] Models ready",
			slog.String("backend", config.BACKEND_HUGOT),
			slog.String("sentiment_model", sentiment.Model()),
			slog.String("emotion_model", emotion.Model()))
		return NewHandles(sentiment, emotion, runtime.Close), nil
	}
}
