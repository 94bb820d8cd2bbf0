package server

import (
	"embed"
	"encoding/base64"
	"html/template"
	"log/slog"

	"github.com/spacesedan/sentiscope/internal/analysis"
	"github.com/spacesedan/sentiscope/internal/charts"
	"github.com/spacesedan/sentiscope/internal/models"
)

//go:embed templates/index.html
var templateFS embed.FS

const (
	PAGE_TEMPLATE = "index.html"
	PREVIEW_ROWS  = 5
)

type pageData struct {
	Text    string
	Warning string
	Error   string
	Single  *singleView
	Upload  *uploadView
	Batch   *batchView
}

type singleView struct {
	Sentiment models.ClassificationResult
	Emotions  []models.ClassificationResult
	Lexicon   *models.LexiconScore
	Chart     template.URL
}

type tableView struct {
	Columns []string
	Rows    [][]string
}

type uploadView struct {
	ID       string
	FileName string
	Total    int
	TextRows int
	Table    tableView
}

type batchView struct {
	Analyzed       int
	Table          tableView
	SentimentChart template.URL
	EmotionChart   template.URL
	SentimentTrend template.URL
	EmotionTrend   template.URL
	TrendError     string
	Dropped        int
}

func loadTemplates() (*template.Template, error) {
	return template.New(PAGE_TEMPLATE).
		Funcs(template.FuncMap{"round3": analysis.Round3}).
		ParseFS(templateFS, "templates/"+PAGE_TEMPLATE)
}

func newSingleView(outcome models.AnalysisOutcome) *singleView {
	return &singleView{
		Sentiment: outcome.Sentiment,
		Emotions:  outcome.Emotions,
		Lexicon:   outcome.Lexicon,
		Chart:     chartURL(charts.EmotionChart(outcome.Emotions)),
	}
}

func newUploadView(ds models.Dataset) *uploadView {
	return &uploadView{
		ID:       ds.ID,
		FileName: ds.FileName,
		Total:    len(ds.Records),
		TextRows: ds.TextRows(),
		Table:    datasetTable(ds, ds.Head(PREVIEW_ROWS), false),
	}
}

func newBatchView(result models.BatchResult) *batchView {
	view := &batchView{
		Analyzed:       result.Analyzed,
		Table:          datasetTable(result.Dataset, result.Dataset.Records, true),
		SentimentChart: chartURL(charts.CountChart(charts.SENTIMENT_COUNT_TITLE, result.SentimentCounts)),
		EmotionChart:   chartURL(charts.CountChart(charts.EMOTION_COUNT_TITLE, result.EmotionCounts)),
		TrendError:     result.TrendError,
	}

	if result.Trend != nil {
		view.SentimentTrend = chartURL(charts.TrendChart(charts.SENTIMENT_TREND_TITLE, result.Trend.Sentiment))
		view.EmotionTrend = chartURL(charts.TrendChart(charts.EMOTION_TREND_TITLE, result.Trend.Emotion))
		view.Dropped = result.Trend.Dropped
	}
	return view
}

func datasetTable(ds models.Dataset, records []models.Record, annotated bool) tableView {
	table := tableView{Columns: []string{"text"}}
	if ds.HasDate {
		table.Columns = append(table.Columns, ds.DateColumn)
	}
	if annotated {
		table.Columns = append(table.Columns, "sentiment", "dominant_emotion")
	}

	for _, rec := range records {
		row := []string{rec.Text}
		if ds.HasDate {
			row = append(row, rec.RawDate)
		}
		if annotated {
			row = append(row, rec.Sentiment, rec.DominantEmotion)
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}

// chartURL inlines a PNG as a data URI. A chart that fails to render is
// logged and left out of the page.
func chartURL(png []byte, err error) template.URL {
	if err != nil {
		slog.Warn("[Server] Chart rendering failed", slog.String("error", err.Error()))
		return ""
	}
	return template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(png))
}
