package models

// ClassificationResult is one label/score pair returned by a classifier
type ClassificationResult struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// LexiconScore is the VADER polarity of the markdown-stripped input, kept next to
// the model verdict so the two can be compared.
type LexiconScore struct {
	Compound float64 `json:"compound"`
	Label    string  `json:"label"`
}

// AnalysisOutcome is the normalized result for one text. Emotions are ordered by
// descending score and are never empty.
type AnalysisOutcome struct {
	Text      string                 `json:"text"`
	Sentiment ClassificationResult   `json:"sentiment"`
	Emotions  []ClassificationResult `json:"emotions"`
	Lexicon   *LexiconScore          `json:"lexicon,omitempty"`
}

func (o AnalysisOutcome) DominantEmotion() string {
	if len(o.Emotions) == 0 {
		return ""
	}
	return o.Emotions[0].Label
}

// LabelCount is one bar of a categorical distribution
type LabelCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}
