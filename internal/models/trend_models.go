package models

import "time"

// TrendPoint is the modal label of one calendar day
type TrendPoint struct {
	Date  time.Time `json:"date"`
	Label string    `json:"label"`
	Count int       `json:"count"`
	Total int       `json:"total"`
}

// TrendSeries holds the per-day modal labels of one field in chronological order
// and how often each label was modal across those days, ordered by label.
type TrendSeries struct {
	Field       string       `json:"field"`
	Points      []TrendPoint `json:"points"`
	Frequencies []LabelCount `json:"frequencies"`
}

type TrendReport struct {
	Sentiment TrendSeries `json:"sentiment"`
	Emotion   TrendSeries `json:"emotion"`
	// Dropped counts analyzed rows excluded for a missing or unparseable date
	Dropped int `json:"dropped"`
}

// CalendarDay truncates t to midnight UTC of its date
func CalendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
