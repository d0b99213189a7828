// Package validation normalizes raw record submissions into typed records.
package validation

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/spacesedan/threatwatch/internal/models"
)

const (
	MsgInvalidTime   = "Invalid time format, must be YYYY-DD-MM HH:MM:SS"
	MsgInvalidSource = "Invalid source"
	MsgLongitude     = "Longitude must be between -180 and 180"
	MsgLatitude      = "Latitude must be between -90 and 90"
	MsgInvalidURL    = "Invalid url. Must start with http or https"
)

// FieldError is a rejected submission. Message is stable and names the
// offending field.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return e.Message
}

func missing(field string) *FieldError {
	return &FieldError{Field: field, Message: "Missing parameter " + field}
}

// MissingParameter builds the error reported for an absent required field.
func MissingParameter(field string) *FieldError {
	return missing(field)
}

// ValidateRaw checks a submission and returns the normalized record. The
// returned record has no id. Checks run in a fixed order and the first
// failure is returned.
func ValidateRaw(sub models.RawSubmission) (models.RawRecord, error) {
	required := []struct {
		name  string
		field models.Field
	}{
		{"raw_text", sub.RawText},
		{"time", sub.Time},
		{"source", sub.Source},
		{"lat", sub.Lat},
		{"lon", sub.Lon},
	}
	for _, r := range required {
		if !r.field.Present() {
			return models.RawRecord{}, missing(r.name)
		}
	}

	at, err := models.ParseTime(strings.TrimSpace(sub.Time.Value))
	if err != nil {
		return models.RawRecord{}, &FieldError{Field: "time", Message: MsgInvalidTime}
	}

	source, ok := models.ParseSource(strings.TrimSpace(sub.Source.Value))
	if !ok {
		return models.RawRecord{}, &FieldError{Field: "source", Message: MsgInvalidSource}
	}

	lon, ok := parseCoordinate(sub.Lon.Value, 180)
	if !ok {
		return models.RawRecord{}, &FieldError{Field: "lon", Message: MsgLongitude}
	}

	lat, ok := parseCoordinate(sub.Lat.Value, 90)
	if !ok {
		return models.RawRecord{}, &FieldError{Field: "lat", Message: MsgLatitude}
	}

	rec := models.RawRecord{
		RawText: sub.RawText.Value,
		Time:    models.NewTimestamp(at),
		Source:  source,
		Lat:     lat,
		Lon:     lon,
	}

	if sub.URL.Present() {
		url := strings.TrimSpace(sub.URL.Value)
		if !strings.HasPrefix(url, "http") {
			return models.RawRecord{}, &FieldError{Field: "url", Message: MsgInvalidURL}
		}
		rec.URL = &url
	}

	if sub.Author.Present() {
		author := strings.TrimSpace(sub.Author.Value)
		rec.Author = &author
	}

	return rec, nil
}

func parseCoordinate(s string, bound float64) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v < -bound || v > bound {
		return 0, false
	}
	return v, true
}

// ParseID parses a positive record id.
func ParseID(field string, f models.Field) (int64, error) {
	if !f.Present() {
		return 0, missing(field)
	}
	id, err := strconv.ParseInt(strings.TrimSpace(f.Value), 10, 64)
	if err != nil || id < 1 {
		return 0, &FieldError{Field: field, Message: fmt.Sprintf("Invalid parameter %s", field)}
	}
	return id, nil
}
