package sentiment

import (
	"regexp"
	"strings"

	"github.com/jonreiter/govader"
	"github.com/russross/blackfriday/v2"

	"github.com/spacesedan/sentiscope/internal/models"
)

const (
	POSITIVE_THRESHOLD = 0.20
	NEGATIVE_THRESHOLD = -0.20
)

var (
	linkPattern = regexp.MustCompile(`\[(.*?)\]\((https?:\/\/[^\s\)]+)\)`)
	urlPattern  = regexp.MustCompile(`https?://\S+|www\.\S+`)
	tagPattern  = regexp.MustCompile(`<[^>]+>`)
)

// Lexicon scores text with VADER so model verdicts can be compared with a
// rule-based polarity.
type Lexicon struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

func NewLexicon() *Lexicon {
	return &Lexicon{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

func RemoveLinks(input string) string {
	input = linkPattern.ReplaceAllString(input, "$1") // Keep only the text
	return urlPattern.ReplaceAllString(input, "")
}

func ConvertMarkdownToText(input string) string {
	output := blackfriday.Run([]byte(RemoveLinks(input)), blackfriday.WithNoExtensions())
	plainText := tagPattern.ReplaceAllString(string(output), " ")
	plainText = strings.Join(strings.Fields(plainText), " ")

	return RemoveLinks(plainText)
}

func (l *Lexicon) Score(text string) models.LexiconScore {
	plainText := ConvertMarkdownToText(text)

	score := l.analyzer.PolarityScores(plainText).Compound

	return models.LexiconScore{
		Compound: score,
		Label:    Label(score),
	}
}

func Label(compound float64) string {
	switch {
	case compound >= POSITIVE_THRESHOLD:
		return "positive"
	case compound <= NEGATIVE_THRESHOLD:
		return "negative"
	default:
		return "neutral"
	}
}
