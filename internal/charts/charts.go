package charts

import (
	"bytes"
	"errors"
	"fmt"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/spacesedan/sentiscope/internal/analysis"
	"github.com/spacesedan/sentiscope/internal/models"
)

const (
	EMOTION_CHART_TITLE   = "Emotion Distribution"
	SENTIMENT_COUNT_TITLE = "Sentiment Distribution"
	EMOTION_COUNT_TITLE   = "Dominant Emotion Distribution"
	SENTIMENT_TREND_TITLE = "Sentiment Trend"
	EMOTION_TREND_TITLE   = "Emotion Trend"

	DATE_FORMAT = "2006-01-02"
)

var (
	chartWidth  = 6 * vg.Inch
	chartHeight = 4 * vg.Inch
	barWidth    = vg.Points(20)
)

// EmotionChart plots every emotion score in the order given
func EmotionChart(emotions []models.ClassificationResult) ([]byte, error) {
	if len(emotions) == 0 {
		return nil, errors.New("no emotion scores to plot")
	}

	labels := make([]string, len(emotions))
	values := make(plotter.Values, len(emotions))
	for i, e := range emotions {
		labels[i] = e.Label
		values[i] = e.Score
	}

	p := plot.New()
	p.Title.Text = EMOTION_CHART_TITLE
	p.X.Label.Text = "Emotion"
	p.Y.Label.Text = "Confidence Score"
	p.Y.Min, p.Y.Max = 0, 1

	return barChart(p, labels, values)
}

// CountChart plots label value counts, e.g. the sentiment distribution of a batch
func CountChart(title string, counts []models.LabelCount) ([]byte, error) {
	if len(counts) == 0 {
		return nil, fmt.Errorf("no counts to plot for %q", title)
	}

	labels := make([]string, len(counts))
	values := make(plotter.Values, len(counts))
	for i, c := range counts {
		labels[i] = c.Label
		values[i] = float64(c.Count)
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Label"
	p.Y.Label.Text = "Count"
	p.Y.Min = 0

	return barChart(p, labels, values)
}

// TrendChart draws one line per modal label: the running number of days on
// which that label was the mode, in date order.
func TrendChart(title string, series models.TrendSeries) ([]byte, error) {
	if len(series.Points) == 0 {
		return nil, fmt.Errorf("no trend points to plot for %q", title)
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Date"
	p.Y.Label.Text = "Days as most frequent"
	p.Y.Min = 0
	p.X.Tick.Marker = plot.TimeTicks{Format: DATE_FORMAT}
	p.Legend.Top = true

	running := analysis.RunningCounts(series)
	labels := make([]string, 0, len(running))
	for label := range running {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	for i, label := range labels {
		pts := make(plotter.XYs, len(series.Points))
		for j, point := range series.Points {
			pts[j].X = float64(point.Date.Unix())
			pts[j].Y = float64(running[label][j])
		}

		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, fmt.Errorf("failed to build %s line: %w", label, err)
		}
		line.LineStyle.Color = plotutil.Color(i)
		line.LineStyle.Width = vg.Points(2)

		p.Add(line)
		p.Legend.Add(label, line)
	}

	return render(p)
}

func barChart(p *plot.Plot, labels []string, values plotter.Values) ([]byte, error) {
	bars, err := plotter.NewBarChart(values, barWidth)
	if err != nil {
		return nil, fmt.Errorf("failed to build bar chart: %w", err)
	}
	bars.Color = plotutil.Color(0)
	bars.LineStyle.Width = 0

	p.Add(bars)
	p.NominalX(labels...)
	return render(p)
}

func render(p *plot.Plot) ([]byte, error) {
	writer, err := p.WriterTo(chartWidth, chartHeight, "png")
	if err != nil {
		return nil, fmt.Errorf("failed to create png writer: %w", err)
	}

	var buf bytes.Buffer
	if _, err := writer.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}
	return buf.Bytes(), nil
}
