package analysis

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/spacesedan/sentiscope/internal/apperrors"
	"github.com/spacesedan/sentiscope/internal/models"
)

// AnalyzeDataset annotates every record that carries text, one row at a time.
// Records without text stay in the table unannotated and are not counted. An
// inference failure aborts the run; a trend failure is reported in TrendError
// next to the otherwise complete result.
func (a *Analyzer) AnalyzeDataset(ctx context.Context, ds models.Dataset) (models.BatchResult, error) {
	start := time.Now()
	slog.Info("[BatchAnalyzer] Processing batch",
		slog.String("dataset", ds.ID),
		slog.String("file", ds.FileName),
		slog.Int("records", len(ds.Records)))

	records := make([]models.Record, len(ds.Records))
	copy(records, ds.Records)

	var sentiments, emotions []string
	for i := range records {
		rec := &records[i]
		if !rec.HasText {
			continue
		}
		if err := ctx.Err(); err != nil {
			return models.BatchResult{}, err
		}

		outcome, err := a.Analyze(ctx, rec.Text)
		if err != nil {
			var inferenceErr *apperrors.InferenceError
			if errors.As(err, &inferenceErr) {
				inferenceErr.Row = rec.Row
			}
			slog.Error("[BatchAnalyzer] Row analysis failed",
				slog.String("dataset", ds.ID),
				slog.Int("row", rec.Row),
				slog.String("error", err.Error()))
			return models.BatchResult{}, err
		}

		rec.Sentiment = outcome.Sentiment.Label
		rec.DominantEmotion = outcome.DominantEmotion()
		rec.Analyzed = true

		sentiments = append(sentiments, rec.Sentiment)
		emotions = append(emotions, rec.DominantEmotion)
	}

	annotated := ds
	annotated.Records = records

	result := models.BatchResult{
		Dataset:         annotated,
		Analyzed:        len(sentiments),
		SentimentCounts: ValueCounts(sentiments),
		EmotionCounts:   ValueCounts(emotions),
	}

	if ds.HasDate {
		trend, err := ComputeTrend(records)
		if err != nil {
			slog.Warn("[BatchAnalyzer] Trend unavailable",
				slog.String("dataset", ds.ID),
				slog.String("error", err.Error()))
			result.TrendError = err.Error()
		} else {
			result.Trend = &trend
		}
	}

	slog.Info("[BatchAnalyzer] Batch complete",
		slog.String("dataset", ds.ID),
		slog.Int("analyzed", result.Analyzed),
		slog.Int("skipped", len(records)-result.Analyzed),
		slog.Duration("elapsed", time.Since(start)))

	return result, nil
}

// ValueCounts tallies labels, most frequent first and alphabetical on ties
func ValueCounts(labels []string) []models.LabelCount {
	counts := make(map[string]int, len(labels))
	for _, l := range labels {
		counts[l]++
	}

	out := make([]models.LabelCount, 0, len(counts))
	for label, n := range counts {
		out = append(out, models.LabelCount{Label: label, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	return out
}
