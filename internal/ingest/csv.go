package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spacesedan/threatwatch/internal/models"
)

// Row is one data line of a bulk file. Err is set when the line could not be
// parsed; such a row is rejected on its own.
type Row struct {
	Line       int
	Submission models.RawSubmission
	Err        error
}

var columns = map[string]func(*models.RawSubmission, string){
	"raw_text": func(s *models.RawSubmission, v string) { s.RawText = models.F(v) },
	"time":     func(s *models.RawSubmission, v string) { s.Time = models.F(v) },
	"source":   func(s *models.RawSubmission, v string) { s.Source = models.F(v) },
	"lat":      func(s *models.RawSubmission, v string) { s.Lat = models.F(v) },
	"lon":      func(s *models.RawSubmission, v string) { s.Lon = models.F(v) },
	"author":   func(s *models.RawSubmission, v string) { s.Author = models.F(v) },
	"url":      func(s *models.RawSubmission, v string) { s.URL = models.F(v) },
}

// ErrNoHeader is returned for an upload without a header row.
var ErrNoHeader = errors.New("csv file has no header row")

// ReadRows parses a CSV upload. The header names the columns in any order;
// unknown columns are ignored and empty cells are treated as absent. The
// returned error is only set when the file as a whole is unreadable.
func ReadRows(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	setters := make([]func(*models.RawSubmission, string), len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		setters[i] = columns[name]
	}

	var rows []Row
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			rows = append(rows, Row{Line: parseErr.StartLine, Err: parseErr})
			continue
		}
		if err != nil {
			return rows, fmt.Errorf("read csv: %w", err)
		}

		if isBlank(record) {
			continue
		}

		line, _ := reader.FieldPos(0)
		row := Row{Line: line}
		for i, value := range record {
			if i >= len(setters) || setters[i] == nil || strings.TrimSpace(value) == "" {
				continue
			}
			setters[i](&row.Submission, value)
		}
		rows = append(rows, row)
	}

	return rows, nil
}

func isBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
