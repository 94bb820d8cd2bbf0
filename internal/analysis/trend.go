package analysis

import (
	"errors"
	"sort"
	"time"

	"github.com/spacesedan/sentiscope/internal/apperrors"
	"github.com/spacesedan/sentiscope/internal/models"
)

const TrendErrorMessage = "Could not process date column"

type dayBucket struct {
	day        time.Time
	sentiments []string
	emotions   []string
}

// ComputeTrend groups analyzed records by calendar day and takes the modal
// sentiment and dominant emotion of each day. Records with a missing or
// unparseable date are dropped. Equal counts resolve to the lexically smallest
// label.
func ComputeTrend(records []models.Record) (models.TrendReport, error) {
	report := models.TrendReport{
		Sentiment: models.TrendSeries{Field: "sentiment"},
		Emotion:   models.TrendSeries{Field: "dominant_emotion"},
	}

	buckets := make(map[time.Time]*dayBucket)
	for _, rec := range records {
		if !rec.Analyzed {
			continue
		}
		if rec.Date == nil {
			report.Dropped++
			continue
		}

		day := models.CalendarDay(*rec.Date)
		b, ok := buckets[day]
		if !ok {
			b = &dayBucket{day: day}
			buckets[day] = b
		}
		b.sentiments = append(b.sentiments, rec.Sentiment)
		b.emotions = append(b.emotions, rec.DominantEmotion)
	}

	if len(buckets) == 0 {
		return report, apperrors.Parse(TrendErrorMessage, errors.New("no analyzed rows have a parseable date"))
	}

	days := make([]*dayBucket, 0, len(buckets))
	for _, b := range buckets {
		days = append(days, b)
	}
	sort.Slice(days, func(i, j int) bool {
		return days[i].day.Before(days[j].day)
	})

	for _, b := range days {
		label, count := ModalLabel(b.sentiments)
		report.Sentiment.Points = append(report.Sentiment.Points, models.TrendPoint{
			Date: b.day, Label: label, Count: count, Total: len(b.sentiments),
		})

		label, count = ModalLabel(b.emotions)
		report.Emotion.Points = append(report.Emotion.Points, models.TrendPoint{
			Date: b.day, Label: label, Count: count, Total: len(b.emotions),
		})
	}

	report.Sentiment.Frequencies = modalFrequencies(report.Sentiment.Points)
	report.Emotion.Frequencies = modalFrequencies(report.Emotion.Points)

	return report, nil
}

// ModalLabel returns the most frequent label and its count
func ModalLabel(labels []string) (string, int) {
	counts := make(map[string]int, len(labels))
	for _, l := range labels {
		counts[l]++
	}

	var best string
	bestCount := 0
	for label, n := range counts {
		if n > bestCount || (n == bestCount && label < best) {
			best, bestCount = label, n
		}
	}
	return best, bestCount
}

// RunningCounts returns, for every modal label of the series, how many days up
// to and including each point had that label as their mode.
func RunningCounts(series models.TrendSeries) map[string][]int {
	running := make(map[string][]int, len(series.Frequencies))
	for _, f := range series.Frequencies {
		running[f.Label] = make([]int, len(series.Points))
	}

	totals := make(map[string]int, len(series.Frequencies))
	for i, p := range series.Points {
		totals[p.Label]++
		for label := range running {
			running[label][i] = totals[label]
		}
	}
	return running
}

func modalFrequencies(points []models.TrendPoint) []models.LabelCount {
	counts := make(map[string]int)
	for _, p := range points {
		counts[p.Label]++
	}

	out := make([]models.LabelCount, 0, len(counts))
	for label, n := range counts {
		out = append(out, models.LabelCount{Label: label, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Label < out[j].Label
	})
	return out
}
