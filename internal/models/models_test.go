package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTime(t *testing.T) {
	got, err := ParseTime("2020-26-02 15:34:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2020, time.February, 26, 15, 34, 0, 0, time.UTC), got)

	for _, bad := range []string{"2020-36-02 5:34:0", "2020-02-26 15:34:00", "2020-26-02", ""} {
		_, err := ParseTime(bad)
		assert.Error(t, err, bad)
	}
}

func TestTimestampJSON(t *testing.T) {
	ts := NewTimestamp(time.Date(2020, time.March, 1, 3, 33, 21, 999, time.UTC))
	b, err := json.Marshal(ts)
	require.NoError(t, err)
	assert.JSONEq(t, `"2020-01-03 03:33:21"`, string(b))

	var back Timestamp
	require.NoError(t, json.Unmarshal(b, &back))
	assert.True(t, ts.Equal(back.Time))
}

func TestFieldDecoding(t *testing.T) {
	var sub RawSubmission
	err := json.Unmarshal([]byte(`{"raw_text":"hi","lat":47.1,"lon":"8.5","author":null}`), &sub)
	require.NoError(t, err)

	assert.Equal(t, F("hi"), sub.RawText)
	assert.Equal(t, F("47.1"), sub.Lat)
	assert.Equal(t, F("8.5"), sub.Lon)
	assert.False(t, sub.Author.Set)
	assert.False(t, sub.URL.Set)
	assert.False(t, F("  ").Present())

	err = json.Unmarshal([]byte(`{"lat":{"x":1}}`), &sub)
	assert.Error(t, err)
}

func TestEnums(t *testing.T) {
	src, ok := ParseSource("TWITTER")
	require.True(t, ok)
	assert.Equal(t, SourceTwitter, src)

	_, ok = ParseSource("The guy on the corner")
	assert.False(t, ok)
	_, ok = ParseSource("twitter")
	assert.False(t, ok)

	tt, ok := ParseThreatType("NEGATIVE")
	require.True(t, ok)
	b, err := json.Marshal(tt)
	require.NoError(t, err)
	assert.Equal(t, `"NEGATIVE"`, string(b))

	_, err = json.Marshal(ThreatUnknown)
	assert.Error(t, err)
}

func TestWindowApply(t *testing.T) {
	items := []int{1, 2, 3}

	assert.Equal(t, []int{1, 2, 3}, Apply(items, Window{}))
	assert.Equal(t, []int{2, 3}, Apply(items, Window{Min: 2}))
	assert.Equal(t, []int{1, 2}, Apply(items, Window{Max: 2}))
	assert.Equal(t, []int{2}, Apply(items, Window{Min: 2, Max: 2}))
	assert.Equal(t, []int{}, Apply(items, Window{Min: 5}))
	assert.Equal(t, []int{1, 2, 3}, Apply(items, Window{Max: 10}))
}
