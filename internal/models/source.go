package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Source is the platform a raw record was collected from.
type Source int

const (
	SourceUnknown Source = iota
	SourceTwitter
	SourceFacebook
	SourceInstagram
	SourceReddit
	SourceYouTube
	SourceNews
	SourceOther
)

var sourceNames = map[Source]string{
	SourceTwitter:   "TWITTER",
	SourceFacebook:  "FACEBOOK",
	SourceInstagram: "INSTAGRAM",
	SourceReddit:    "REDDIT",
	SourceYouTube:   "YOUTUBE",
	SourceNews:      "NEWS",
	SourceOther:     "OTHER",
}

// ParseSource maps the wire name of a source to its value. Names are matched
// exactly.
func ParseSource(s string) (Source, bool) {
	for src, name := range sourceNames {
		if name == s {
			return src, true
		}
	}
	return SourceUnknown, false
}

func (s Source) String() string {
	if name, ok := sourceNames[s]; ok {
		return name
	}
	return "UNKNOWN"
}

func (s Source) MarshalJSON() ([]byte, error) {
	if _, ok := sourceNames[s]; !ok {
		return nil, fmt.Errorf("invalid source %d", int(s))
	}
	return json.Marshal(s.String())
}

func (s *Source) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	src, ok := ParseSource(strings.TrimSpace(name))
	if !ok {
		return fmt.Errorf("invalid source %q", name)
	}
	*s = src
	return nil
}
