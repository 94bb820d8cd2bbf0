package analysis

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/spacesedan/sentiscope/internal/models"
)

// WriteReport prints one outcome as a plain text block, scores rounded to three
// decimals.
func WriteReport(w io.Writer, outcome models.AnalysisOutcome) error {
	if _, err := fmt.Fprintf(w, "\nInput Text: %s\n", outcome.Text); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Sentiment: %s | Confidence: %s\n",
		outcome.Sentiment.Label, Round3(outcome.Sentiment.Score)); err != nil {
		return err
	}
	if outcome.Lexicon != nil {
		if _, err := fmt.Fprintf(w, "Lexicon: %s | Compound: %s\n",
			outcome.Lexicon.Label, Round3(outcome.Lexicon.Compound)); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintln(w, "\nEmotions Detected:"); err != nil {
		return err
	}
	for _, e := range outcome.Emotions {
		if _, err := fmt.Fprintf(w, "  %s: %s\n", e.Label, Round3(e.Score)); err != nil {
			return err
		}
	}
	return nil
}

// Round3 formats a score with at most three decimals
func Round3(v float64) string {
	return strconv.FormatFloat(math.Round(v*1000)/1000, 'f', -1, 64)
}
