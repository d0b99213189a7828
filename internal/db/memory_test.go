package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacesedan/threatwatch/internal/models"
)

func rawRecord(text string, minute int) models.RawRecord {
	return models.RawRecord{
		RawText: text,
		Time:    models.NewTimestamp(time.Date(2020, time.February, 26, 15, minute, 0, 0, time.UTC)),
		Source:  models.SourceTwitter,
		Lat:     47.1,
		Lon:     8.5,
	}
}

func insertRaw(t *testing.T, s Store, rec models.RawRecord) int64 {
	t.Helper()
	var id int64
	err := s.WithTx(context.Background(), func(tx Tx) error {
		var err error
		id, err = tx.InsertRaw(context.Background(), rec)
		return err
	})
	require.NoError(t, err)
	return id
}

func listRaw(t *testing.T, s Store, w models.Window) []models.RawRecord {
	t.Helper()
	var out []models.RawRecord
	err := s.WithTx(context.Background(), func(tx Tx) error {
		var err error
		out, err = tx.ListRaw(context.Background(), w)
		return err
	})
	require.NoError(t, err)
	return out
}

func TestMemoryInsertAndFind(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	id := insertRaw(t, s, rawRecord("I love Merck", 1))
	assert.Equal(t, int64(1), id)

	err := s.WithTx(ctx, func(tx Tx) error {
		found, err := tx.FindRaw(ctx, "I love Merck", rawRecord("", 1).Time.Time)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, id, found.ID)

		missing, err := tx.FindRaw(ctx, "I love merck", rawRecord("", 1).Time.Time)
		require.NoError(t, err)
		assert.Nil(t, missing)
		return nil
	})
	require.NoError(t, err)
}

func TestMemoryDuplicate(t *testing.T) {
	s := NewMemory()
	insertRaw(t, s, rawRecord("I love Merck", 1))

	err := s.WithTx(context.Background(), func(tx Tx) error {
		_, err := tx.InsertRaw(context.Background(), rawRecord("I love Merck", 1))
		return err
	})
	assert.ErrorIs(t, err, ErrDuplicate)

	// same text at another time is a different record
	insertRaw(t, s, rawRecord("I love Merck", 2))
	assert.Len(t, listRaw(t, s, models.Window{}), 2)
}

func TestMemoryRollbackKeepsCounter(t *testing.T) {
	s := NewMemory()
	insertRaw(t, s, rawRecord("one", 1))

	boom := errors.New("boom")
	err := s.WithTx(context.Background(), func(tx Tx) error {
		_, err := tx.InsertRaw(context.Background(), rawRecord("two", 2))
		require.NoError(t, err)
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.Len(t, listRaw(t, s, models.Window{}), 1)

	id := insertRaw(t, s, rawRecord("three", 3))
	assert.Equal(t, int64(3), id)
}

func TestMemoryRankWindow(t *testing.T) {
	s := NewMemory()
	for i := 0; i < 5; i++ {
		insertRaw(t, s, rawRecord("text", i))
	}

	err := s.WithTx(context.Background(), func(tx Tx) error {
		_, err := tx.DeleteRaw(context.Background(), 2)
		return err
	})
	require.NoError(t, err)

	got := listRaw(t, s, models.Window{Min: 2, Max: 3})
	require.Len(t, got, 2)
	assert.Equal(t, int64(3), got[0].ID)
	assert.Equal(t, int64(4), got[1].ID)

	assert.Len(t, listRaw(t, s, models.Window{Min: 3}), 2)
	assert.Len(t, listRaw(t, s, models.Window{Max: 1}), 1)
	assert.Empty(t, listRaw(t, s, models.Window{Min: 10}))
}

func TestMemoryProcessedLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	rawID := insertRaw(t, s, rawRecord("I hate Merck", 1))

	err := s.WithTx(ctx, func(tx Tx) error {
		_, err := tx.InsertProcessed(ctx, models.ProcessedRecord{
			Time:       models.NewTimestamp(time.Now()),
			RawID:      rawID + 10,
			ThreatType: models.ThreatNegative,
		})
		return err
	})
	require.ErrorIs(t, err, ErrRawNotFound)

	var procID int64
	err = s.WithTx(ctx, func(tx Tx) error {
		var err error
		procID, err = tx.InsertProcessed(ctx, models.ProcessedRecord{
			Time:       models.NewTimestamp(time.Now()),
			RawID:      rawID,
			ThreatType: models.ThreatNegative,
		})
		if err != nil {
			return err
		}
		return tx.MarkProcessed(ctx, rawID)
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), procID)

	raws := listRaw(t, s, models.Window{})
	require.Len(t, raws, 1)
	assert.True(t, raws[0].Processed)

	err = s.WithTx(ctx, func(tx Tx) error {
		list, err := tx.ListProcessed(ctx, models.Window{})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "I hate Merck", list[0].Raw.RawText)
		assert.Equal(t, models.ThreatNegative, list[0].ThreatType)

		_, err = tx.DeleteRaw(ctx, rawID)
		assert.Error(t, err)

		n, err := tx.DeleteProcessedForRaw(ctx, rawID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		ok, err := tx.DeleteRaw(ctx, rawID)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = tx.DeleteRaw(ctx, rawID)
		require.NoError(t, err)
		assert.False(t, ok)
		return nil
	})
	require.NoError(t, err)
}

func TestMemoryCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewMemory()
	err := s.WithTx(ctx, func(tx Tx) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, s.Ping(ctx), context.Canceled)
}
