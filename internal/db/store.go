package db

import (
	"context"
	"errors"
	"time"

	"github.com/spacesedan/threatwatch/internal/models"
)

var (
	// ErrDuplicate is returned when a raw record with the same text and time
	// already exists.
	ErrDuplicate = errors.New("raw record with this text and time already exists")
	// ErrNotFound is returned when a record looked up by id is absent.
	ErrNotFound = errors.New("record not found")
	// ErrRawNotFound is returned when a processed record names a raw record
	// that does not exist.
	ErrRawNotFound = errors.New("referenced raw record does not exist")
)

// Store persists raw and processed records. All reads and writes go through
// a unit of work opened by WithTx.
type Store interface {
	// WithTx runs fn in a transaction. It commits when fn returns nil and
	// rolls back otherwise.
	WithTx(ctx context.Context, fn func(tx Tx) error) error
	Ping(ctx context.Context) error
	Close()
}

// Tx is the set of record operations available inside a unit of work.
type Tx interface {
	// FindRaw returns the raw record with exactly this text and time, or nil.
	FindRaw(ctx context.Context, text string, at time.Time) (*models.RawRecord, error)
	// InsertRaw stores rec and returns its new id.
	InsertRaw(ctx context.Context, rec models.RawRecord) (int64, error)
	ListRaw(ctx context.Context, w models.Window) ([]models.RawRecord, error)
	// DeleteRaw reports whether a record was removed. Processed records must
	// be removed first with DeleteProcessedForRaw.
	DeleteRaw(ctx context.Context, id int64) (bool, error)
	MarkProcessed(ctx context.Context, rawID int64) error

	InsertProcessed(ctx context.Context, rec models.ProcessedRecord) (int64, error)
	ListProcessed(ctx context.Context, w models.Window) ([]models.ProcessedRecord, error)
	DeleteProcessed(ctx context.Context, id int64) (bool, error)
	DeleteProcessedForRaw(ctx context.Context, rawID int64) (int64, error)
}
