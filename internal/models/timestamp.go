package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// TimeLayout is the YYYY-DD-MM HH:MM:SS wire format for record times.
const TimeLayout = "2006-02-01 15:04:05"

// ParseTime parses s in TimeLayout. The width must match exactly.
func ParseTime(s string) (time.Time, error) {
	if len(s) != len(TimeLayout) {
		return time.Time{}, fmt.Errorf("time %q does not match %s", s, TimeLayout)
	}
	return time.ParseInLocation(TimeLayout, s, time.UTC)
}

// Timestamp serializes as TimeLayout.
type Timestamp struct {
	time.Time
}

func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC().Truncate(time.Second)}
}

func (t Timestamp) String() string {
	return t.UTC().Format(TimeLayout)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseTime(s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}
