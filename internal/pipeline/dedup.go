package pipeline

import (
	"context"
	"errors"

	"github.com/spacesedan/threatwatch/internal/db"
	"github.com/spacesedan/threatwatch/internal/models"
)

// admitRaw inserts rec unless a raw record with the same text and time is
// already stored, in which case the stored record is returned with a
// conflict. It runs inside the caller's unit of work.
func admitRaw(ctx context.Context, tx db.Tx, rec models.RawRecord) (models.RawRecord, error) {
	existing, err := tx.FindRaw(ctx, rec.RawText, rec.Time.Time)
	if err != nil {
		return rec, internalError(err)
	}
	if existing != nil {
		return *existing, &Error{Kind: KindConflict, Message: MsgDuplicate, Err: db.ErrDuplicate}
	}

	id, err := tx.InsertRaw(ctx, rec)
	if errors.Is(err, db.ErrDuplicate) {
		// A concurrent unit of work stored the same record after the lookup.
		stored, findErr := tx.FindRaw(ctx, rec.RawText, rec.Time.Time)
		if findErr != nil {
			return rec, internalError(findErr)
		}
		if stored != nil {
			rec = *stored
		}
		return rec, &Error{Kind: KindConflict, Message: MsgDuplicate, Err: err}
	}
	if err != nil {
		return rec, internalError(err)
	}

	rec.ID = id
	rec.Processed = false
	return rec, nil
}

// IsDuplicate reports whether err is a duplicate raw record rejection.
func IsDuplicate(err error) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Kind == KindConflict
}
