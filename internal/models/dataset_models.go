package models

import "time"

type DatasetKind string

const (
	KindText DatasetKind = "text"
	KindCSV  DatasetKind = "csv"
	KindTSV  DatasetKind = "tsv"
)

// Record is one input row. Sentiment and DominantEmotion are filled in once by
// the batch flow; rows without text are never analyzed.
type Record struct {
	Row             int        `json:"row"`
	Text            string     `json:"text"`
	HasText         bool       `json:"has_text"`
	RawDate         string     `json:"raw_date,omitempty"`
	Date            *time.Time `json:"date,omitempty"`
	Sentiment       string     `json:"sentiment,omitempty"`
	DominantEmotion string     `json:"dominant_emotion,omitempty"`
	Analyzed        bool       `json:"analyzed"`
}

// Dataset is an uploaded file validated against the text/date schema
type Dataset struct {
	ID         string      `json:"id"`
	FileName   string      `json:"file_name"`
	Kind       DatasetKind `json:"kind"`
	HasDate    bool        `json:"has_date"`
	DateColumn string      `json:"date_column,omitempty"`
	Records    []Record    `json:"records"`
	UploadedAt time.Time   `json:"uploaded_at"`
}

// TextRows counts the records that carry analyzable text
func (d Dataset) TextRows() int {
	n := 0
	for _, r := range d.Records {
		if r.HasText {
			n++
		}
	}
	return n
}

// Head returns up to n leading records for previews
func (d Dataset) Head(n int) []Record {
	if n > len(d.Records) {
		n = len(d.Records)
	}
	return d.Records[:n]
}

// BatchResult is the annotated dataset plus its distributions and, when the file
// had a date column, the trend report or the reason it could not be built.
type BatchResult struct {
	Dataset         Dataset      `json:"dataset"`
	Analyzed        int          `json:"analyzed"`
	SentimentCounts []LabelCount `json:"sentiment_counts"`
	EmotionCounts   []LabelCount `json:"emotion_counts"`
	Trend           *TrendReport `json:"trend,omitempty"`
	TrendError      string       `json:"trend_error,omitempty"`
}
