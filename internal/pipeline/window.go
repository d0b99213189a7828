package pipeline

import (
	"strconv"
	"strings"

	"github.com/spacesedan/threatwatch/internal/models"
)

// ParseWindow turns optional min and max query values into a rank window.
// Empty strings are absent bounds. Bounds are checked before any store
// access.
func ParseWindow(minStr, maxStr string) (models.Window, error) {
	var w models.Window

	lo, err := parseBound(minStr)
	if err != nil {
		return w, err
	}
	hi, err := parseBound(maxStr)
	if err != nil {
		return w, err
	}

	if lo > 0 && hi > 0 && lo > hi {
		return w, &Error{Kind: KindRange, Message: MsgMinGreaterThanMax}
	}

	w.Min, w.Max = lo, hi
	return w, nil
}

func parseBound(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 1 {
		return 0, &Error{Kind: KindRange, Message: MsgBoundsNotPositive, Err: err}
	}
	return n, nil
}
