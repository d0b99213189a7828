package models

import (
	"encoding/json"
	"fmt"
)

// ThreatType is the binary classifier decision recorded on a processed record.
type ThreatType int

const (
	ThreatUnknown ThreatType = iota
	ThreatNegative
	ThreatNonNegative
)

func ParseThreatType(s string) (ThreatType, bool) {
	switch s {
	case "NEGATIVE":
		return ThreatNegative, true
	case "NONNEGATIVE":
		return ThreatNonNegative, true
	default:
		return ThreatUnknown, false
	}
}

func (t ThreatType) String() string {
	switch t {
	case ThreatNegative:
		return "NEGATIVE"
	case ThreatNonNegative:
		return "NONNEGATIVE"
	default:
		return "UNKNOWN"
	}
}

func (t ThreatType) MarshalJSON() ([]byte, error) {
	if t != ThreatNegative && t != ThreatNonNegative {
		return nil, fmt.Errorf("invalid threat type %d", int(t))
	}
	return json.Marshal(t.String())
}

func (t *ThreatType) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	v, ok := ParseThreatType(name)
	if !ok {
		return fmt.Errorf("invalid threat type %q", name)
	}
	*t = v
	return nil
}
