package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacesedan/threatwatch/internal/db"
	"github.com/spacesedan/threatwatch/internal/geofence"
	"github.com/spacesedan/threatwatch/internal/models"
	"github.com/spacesedan/threatwatch/internal/relevance"
)

var rawCols = []string{"id", "raw_text", "time", "source", "lat", "lon", "author", "url", "emojis", "processed"}

func newPostgresService(t *testing.T, classifier *fakeClassifier) (*Service, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	fence, err := geofence.New(geofence.DefaultFacilities)
	require.NoError(t, err)
	rel, err := relevance.New(relevance.DefaultEntity)
	require.NoError(t, err)

	svc := NewService(db.NewPostgres(mock), fence, rel, classifier, WithClock(func() time.Time { return fixedNow }))
	return svc, mock
}

// The insert finds the unique key taken by a unit of work that committed
// after the lookup.
func TestInstantProcessLosesInsertRace(t *testing.T) {
	svc, mock := newPostgresService(t, &fakeClassifier{result: models.ThreatNegative})
	at := time.Date(2020, time.March, 1, 3, 33, 21, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM raw_records WHERE raw_text").
		WithArgs("I hate Merck", at).
		WillReturnRows(pgxmock.NewRows(rawCols))
	mock.ExpectQuery("INSERT INTO raw_records").
		WillReturnRows(pgxmock.NewRows([]string{"id"}))
	mock.ExpectQuery("SELECT (.+) FROM raw_records WHERE raw_text").
		WithArgs("I hate Merck", at).
		WillReturnRows(pgxmock.NewRows(rawCols).
			AddRow(int64(5), "I hate Merck", at, "TWITTER", 47.1, 8.5, nil, nil, false, false))
	mock.ExpectQuery("INSERT INTO processed_records").
		WithArgs(fixedNow, int64(5), "NEGATIVE").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(9)))
	mock.ExpectExec("UPDATE raw_records SET processed").
		WithArgs(int64(5)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	out, err := svc.InstantProcess(context.Background(), rawSub("I hate Merck", "2020-01-03 03:33:21", "47.1", "8.5"))
	require.NoError(t, err)
	require.Equal(t, ResultThreat, out.Result)
	assert.Equal(t, int64(9), out.Record.ID)
	assert.Equal(t, int64(5), out.Record.RawID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmitRawLosesInsertRace(t *testing.T) {
	svc, mock := newPostgresService(t, &fakeClassifier{})
	at := time.Date(2020, time.March, 1, 3, 33, 21, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM raw_records WHERE raw_text").
		WillReturnRows(pgxmock.NewRows(rawCols))
	mock.ExpectQuery("INSERT INTO raw_records").
		WillReturnRows(pgxmock.NewRows([]string{"id"}))
	mock.ExpectQuery("SELECT (.+) FROM raw_records WHERE raw_text").
		WillReturnRows(pgxmock.NewRows(rawCols).
			AddRow(int64(5), "I hate Merck", at, "TWITTER", 47.1, 8.5, nil, nil, false, false))
	mock.ExpectRollback()

	_, err := svc.SubmitRaw(context.Background(), rawSub("I hate Merck", "2020-01-03 03:33:21", "47.1", "8.5"))
	requireKind(t, err, KindConflict, MsgDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}
