package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/spacesedan/sentiscope/internal/apperrors"
	"github.com/spacesedan/sentiscope/internal/inference"
	"github.com/spacesedan/sentiscope/internal/models"
	"github.com/spacesedan/sentiscope/internal/sentiment"
)

const (
	STAGE_SENTIMENT = "sentiment"
	STAGE_EMOTION   = "emotion"

	// allowed drift of the emotion scores from a probability distribution
	distributionTolerance = 1e-2
)

const EmptyTextMessage = "Please enter some text to analyze."

// Analyzer turns one text into an AnalysisOutcome using the loaded classifiers
type Analyzer struct {
	sentiment inference.Classifier
	emotion   inference.Classifier
	lexicon   *sentiment.Lexicon
}

type Option func(*Analyzer)

// WithLexicon attaches a VADER cross-check score to every outcome
func WithLexicon(l *sentiment.Lexicon) Option {
	return func(a *Analyzer) {
		a.lexicon = l
	}
}

func NewAnalyzer(handles *inference.Handles, opts ...Option) *Analyzer {
	a := &Analyzer{
		sentiment: handles.Sentiment,
		emotion:   handles.Emotion,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze runs both classifiers on text. Blank input is a ValidationError and
// classifier failures come back as InferenceError; nothing is retried.
func (a *Analyzer) Analyze(ctx context.Context, text string) (models.AnalysisOutcome, error) {
	var outcome models.AnalysisOutcome

	if strings.TrimSpace(text) == "" {
		return outcome, apperrors.Validation(EmptyTextMessage)
	}

	start := time.Now()

	sentimentScores, err := a.sentiment.Classify(ctx, text)
	if err != nil {
		return outcome, apperrors.Inference(STAGE_SENTIMENT, err)
	}
	if err := checkScores(sentimentScores); err != nil {
		return outcome, apperrors.Inference(STAGE_SENTIMENT, err)
	}

	emotionScores, err := a.emotion.Classify(ctx, text)
	if err != nil {
		return outcome, apperrors.Inference(STAGE_EMOTION, err)
	}
	if err := checkScores(emotionScores); err != nil {
		return outcome, apperrors.Inference(STAGE_EMOTION, err)
	}

	emotions := SortByScore(emotionScores)
	if drift := math.Abs(sumScores(emotions) - 1); drift > distributionTolerance {
		slog.Warn("[Analyzer] Emotion scores do not sum to one",
			slog.Float64("drift", drift),
			slog.Int("labels", len(emotions)))
	}

	outcome = models.AnalysisOutcome{
		Text:      text,
		Sentiment: TopResult(sentimentScores),
		Emotions:  emotions,
	}

	if a.lexicon != nil {
		lexicon := a.lexicon.Score(text)
		outcome.Lexicon = &lexicon
	}

	slog.Debug("[Analyzer] Text analyzed",
		slog.Int("input_length", len(text)),
		slog.String("sentiment", outcome.Sentiment.Label),
		slog.String("dominant_emotion", outcome.DominantEmotion()),
		slog.Duration("elapsed", time.Since(start)))

	return outcome, nil
}

// TopResult returns the highest scoring result, the first one on ties
func TopResult(results []models.ClassificationResult) models.ClassificationResult {
	var top models.ClassificationResult
	for i, r := range results {
		if i == 0 || r.Score > top.Score {
			top = r
		}
	}
	return top
}

// SortByScore returns a copy ordered by descending score, keeping the model's
// label order for equal scores.
func SortByScore(results []models.ClassificationResult) []models.ClassificationResult {
	sorted := make([]models.ClassificationResult, len(results))
	copy(sorted, results)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})
	return sorted
}

func checkScores(results []models.ClassificationResult) error {
	if len(results) == 0 {
		return errors.New("classifier returned no labels")
	}
	for _, r := range results {
		if math.IsNaN(r.Score) || r.Score < 0 || r.Score > 1 {
			return fmt.Errorf("score %v for label %q is outside [0,1]", r.Score, r.Label)
		}
	}
	return nil
}

func sumScores(results []models.ClassificationResult) float64 {
	scores := make([]float64, len(results))
	for i, r := range results {
		scores[i] = r.Score
	}
	return floats.Sum(scores)
}
