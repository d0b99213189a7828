package models

import (
	"encoding/json"
	"errors"
	"strings"
)

// Field is an optional request value kept in its text form. JSON strings and
// numbers both decode into it; null or an absent key leave it unset.
type Field struct {
	Value string
	Set   bool
}

// F returns a set Field.
func F(v string) Field {
	return Field{Value: v, Set: true}
}

// Present reports whether the field carries a non-blank value.
func (f Field) Present() bool {
	return f.Set && strings.TrimSpace(f.Value) != ""
}

func (f Field) MarshalJSON() ([]byte, error) {
	if !f.Set {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}

func (f *Field) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	switch {
	case raw == "null":
		*f = Field{}
		return nil
	case strings.HasPrefix(raw, `"`):
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = F(s)
		return nil
	case strings.HasPrefix(raw, "{"), strings.HasPrefix(raw, "["):
		return errors.New("field must be a string or a number")
	default:
		*f = F(raw)
		return nil
	}
}
