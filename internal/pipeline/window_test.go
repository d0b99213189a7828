package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacesedan/threatwatch/internal/models"
)

func TestParseWindow(t *testing.T) {
	w, err := ParseWindow("", "")
	require.NoError(t, err)
	assert.Equal(t, models.Window{}, w)

	w, err = ParseWindow(" 2 ", "5")
	require.NoError(t, err)
	assert.Equal(t, models.Window{Min: 2, Max: 5}, w)

	w, err = ParseWindow("3", "3")
	require.NoError(t, err)
	assert.Equal(t, models.Window{Min: 3, Max: 3}, w)

	_, err = ParseWindow("5", "2")
	assert.EqualError(t, err, MsgMinGreaterThanMax)

	_, err = ParseWindow("-1", "")
	assert.Equal(t, KindRange, KindOf(err))

	_, err = ParseWindow("1.5", "")
	assert.Equal(t, KindRange, KindOf(err))
}

func TestErrorKinds(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(assert.AnError))
	assert.Equal(t, "validation", KindValidation.String())

	err := internalError(assert.AnError)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), MsgInternal)
}
