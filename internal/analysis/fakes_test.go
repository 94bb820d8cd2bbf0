package analysis

import (
	"context"
	"errors"
	"hash/fnv"
	"strings"

	"github.com/spacesedan/sentiscope/internal/inference"
	"github.com/spacesedan/sentiscope/internal/models"
)

var emotionLabels = []string{"sadness", "joy", "love", "anger", "fear", "surprise"}

// keywordSentiment mimics a binary sentiment model: texts mentioning a negative
// cue lean NEGATIVE, everything else leans POSITIVE.
type keywordSentiment struct {
	calls int
	err   error
}

func (k *keywordSentiment) Classify(_ context.Context, text string) ([]models.ClassificationResult, error) {
	k.calls++
	if k.err != nil {
		return nil, k.err
	}
	lower := strings.ToLower(text)
	for _, cue := range []string{"worst", "sad", "nervous", "hate"} {
		if strings.Contains(lower, cue) {
			return []models.ClassificationResult{
				{Label: "NEGATIVE", Score: 0.9991},
				{Label: "POSITIVE", Score: 0.0009},
			}, nil
		}
	}
	return []models.ClassificationResult{
		{Label: "NEGATIVE", Score: 0.0002},
		{Label: "POSITIVE", Score: 0.9998},
	}, nil
}

// hashedEmotion returns a deterministic distribution over the six emotion
// labels, peaked on a keyword match or on a label picked from the text hash.
type hashedEmotion struct {
	calls   int
	failOn  string
	results []models.ClassificationResult
}

func (h *hashedEmotion) Classify(_ context.Context, text string) ([]models.ClassificationResult, error) {
	h.calls++
	if h.failOn != "" && strings.Contains(text, h.failOn) {
		return nil, errors.New("input is too long")
	}
	if h.results != nil {
		return h.results, nil
	}

	lower := strings.ToLower(text)
	peak := -1
	for i, cue := range []string{"sad", "happy", "love", "angry", "nervous", "wow"} {
		if strings.Contains(lower, cue) {
			peak = i
			break
		}
	}
	if peak < 0 {
		f := fnv.New32a()
		_, _ = f.Write([]byte(text))
		peak = int(f.Sum32() % uint32(len(emotionLabels)))
	}

	out := make([]models.ClassificationResult, len(emotionLabels))
	for i, label := range emotionLabels {
		score := 0.02
		if i == peak {
			score = 0.90
		}
		out[i] = models.ClassificationResult{Label: label, Score: score}
	}
	return out, nil
}

func newFakeAnalyzer() (*Analyzer, *keywordSentiment, *hashedEmotion) {
	s := &keywordSentiment{}
	e := &hashedEmotion{}
	return NewAnalyzer(inference.NewHandles(s, e, nil)), s, e
}
