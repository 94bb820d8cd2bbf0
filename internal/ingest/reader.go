package ingest

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/google/uuid"

	"github.com/spacesedan/sentiscope/internal/apperrors"
	"github.com/spacesedan/sentiscope/internal/models"
)

const (
	TEXT_COLUMN = "text"
	DATE_COLUMN = "date"

	MissingTextColumnMessage = "CSV must have a 'text' column."
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Reader turns uploaded files into validated datasets
type Reader struct {
	MaxBytes int64
	now      func() time.Time
	newID    func() string
}

func NewReader(maxBytes int64) *Reader {
	return &Reader{
		MaxBytes: maxBytes,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// KindOf maps a file name to the dataset kind its extension implies
func KindOf(fileName string) (models.DatasetKind, error) {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".txt":
		return models.KindText, nil
	case ".csv":
		return models.KindCSV, nil
	case ".tsv":
		return models.KindTSV, nil
	default:
		return "", apperrors.Validation("unsupported file type %q: upload a .txt, .csv or .tsv file", filepath.Ext(fileName))
	}
}

// Read validates the file against the text/date schema and returns it as a
// dataset with a fresh ID.
func (r *Reader) Read(fileName string, src io.Reader) (models.Dataset, error) {
	kind, err := KindOf(fileName)
	if err != nil {
		return models.Dataset{}, err
	}

	raw, err := r.readAll(src)
	if err != nil {
		return models.Dataset{}, err
	}
	raw = bytes.TrimPrefix(raw, utf8BOM)

	ds := models.Dataset{
		ID:         r.newID(),
		FileName:   filepath.Base(fileName),
		Kind:       kind,
		UploadedAt: r.now().UTC(),
	}

	switch kind {
	case models.KindText:
		ds.Records, err = readLines(raw)
	case models.KindCSV:
		err = readDelimited(raw, ',', &ds)
	case models.KindTSV:
		err = readDelimited(raw, '\t', &ds)
	}
	if err != nil {
		return models.Dataset{}, err
	}

	slog.Info("[Ingest] Dataset loaded",
		slog.String("id", ds.ID),
		slog.String("file", ds.FileName),
		slog.String("kind", string(ds.Kind)),
		slog.Int("records", len(ds.Records)),
		slog.Int("text_rows", ds.TextRows()),
		slog.Bool("has_date", ds.HasDate))
	return ds, nil
}

func (r *Reader) readAll(src io.Reader) ([]byte, error) {
	if r.MaxBytes <= 0 {
		raw, err := io.ReadAll(src)
		if err != nil {
			return nil, apperrors.Parse("could not read file", err)
		}
		return raw, nil
	}

	raw, err := io.ReadAll(io.LimitReader(src, r.MaxBytes+1))
	if err != nil {
		return nil, apperrors.Parse("could not read file", err)
	}
	if int64(len(raw)) > r.MaxBytes {
		return nil, apperrors.Validation("file exceeds the %d byte upload limit", r.MaxBytes)
	}
	return raw, nil
}

func readLines(raw []byte) ([]models.Record, error) {
	var records []models.Record

	scanner := bufio.NewScanner(bytes.NewReader(raw))
	scanner.Buffer(make([]byte, 0, 64*1024), len(raw)+1)
	row := 0
	for scanner.Scan() {
		row++
		records = append(records, newRecord(row, scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return nil, apperrors.Parse("could not read text file", err)
	}
	return records, nil
}

func readDelimited(raw []byte, comma rune, ds *models.Dataset) error {
	reader := csv.NewReader(bytes.NewReader(raw))
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return apperrors.Validation(MissingTextColumnMessage)
	}
	if err != nil {
		return apperrors.Parse("could not read header row", err)
	}

	textIdx, dateIdx := columnIndexes(header)
	if textIdx < 0 {
		return apperrors.Validation(MissingTextColumnMessage)
	}
	if dateIdx >= 0 {
		ds.HasDate = true
		ds.DateColumn = strings.TrimSpace(header[dateIdx])
	}

	row := 0
	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return apperrors.Parse(fmt.Sprintf("could not read row %d", row+1), err)
		}
		row++

		rec := newRecord(row, field(fields, textIdx))
		if dateIdx >= 0 {
			rec.RawDate = strings.TrimSpace(field(fields, dateIdx))
			rec.Date = ParseDate(rec.RawDate)
		}
		ds.Records = append(ds.Records, rec)
	}
	return nil
}

// columnIndexes finds the exact "text" column and the first column named
// "date" in any case. Missing columns are reported as -1.
func columnIndexes(header []string) (int, int) {
	textIdx, dateIdx := -1, -1
	for i, name := range header {
		name = strings.TrimSpace(name)
		if textIdx < 0 && name == TEXT_COLUMN {
			textIdx = i
		}
		if dateIdx < 0 && strings.EqualFold(name, DATE_COLUMN) {
			dateIdx = i
		}
	}
	return textIdx, dateIdx
}

// ParseDate coerces a raw cell to its UTC calendar day, nil when it cannot be
// read as a date. Parses that land before year 1 are junk like "12." and are
// rejected.
func ParseDate(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	t, err := dateparse.ParseIn(raw, time.UTC)
	if err != nil || t.Year() < 1 {
		slog.Debug("[Ingest] Unparseable date", slog.String("value", raw))
		return nil
	}
	day := models.CalendarDay(t)
	return &day
}

func newRecord(row int, text string) models.Record {
	return models.Record{
		Row:     row,
		Text:    text,
		HasText: strings.TrimSpace(text) != "",
	}
}

func field(fields []string, idx int) string {
	if idx < len(fields) {
		return fields[idx]
	}
	return ""
}
