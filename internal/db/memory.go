package db

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/spacesedan/threatwatch/internal/models"
)

// Memory is an in-process Store. A single mutex is held for the whole unit
// of work, so transactions are serialized. Id counters are never rolled back.
type Memory struct {
	mu        sync.Mutex
	raw       []models.RawRecord
	processed []models.ProcessedRecord
	nextRaw   int64
	nextProc  int64
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rawSnap := append([]models.RawRecord(nil), m.raw...)
	procSnap := append([]models.ProcessedRecord(nil), m.processed...)

	if err := fn(&memTx{m: m}); err != nil {
		m.raw, m.processed = rawSnap, procSnap
		return err
	}
	return nil
}

func (m *Memory) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (m *Memory) Close() {}

type memTx struct {
	m *Memory
}

func (t *memTx) FindRaw(_ context.Context, text string, at time.Time) (*models.RawRecord, error) {
	for _, r := range t.m.raw {
		if r.RawText == text && r.Time.Equal(at) {
			rec := r
			return &rec, nil
		}
	}
	return nil, nil
}

func (t *memTx) InsertRaw(ctx context.Context, rec models.RawRecord) (int64, error) {
	existing, _ := t.FindRaw(ctx, rec.RawText, rec.Time.Time)
	if existing != nil {
		return 0, ErrDuplicate
	}

	t.m.nextRaw++
	rec.ID = t.m.nextRaw
	rec.Processed = false
	t.m.raw = append(t.m.raw, rec)
	return rec.ID, nil
}

func (t *memTx) ListRaw(_ context.Context, w models.Window) ([]models.RawRecord, error) {
	out := models.Apply(t.m.raw, w)
	return append([]models.RawRecord{}, out...), nil
}

func (t *memTx) DeleteRaw(_ context.Context, id int64) (bool, error) {
	for _, p := range t.m.processed {
		if p.RawID == id {
			return false, fmt.Errorf("raw record %d is still referenced by processed record %d", id, p.ID)
		}
	}
	for i, r := range t.m.raw {
		if r.ID == id {
			t.m.raw = append(t.m.raw[:i:i], t.m.raw[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (t *memTx) MarkProcessed(_ context.Context, rawID int64) error {
	for i := range t.m.raw {
		if t.m.raw[i].ID == rawID {
			t.m.raw[i].Processed = true
			return nil
		}
	}
	return ErrNotFound
}

func (t *memTx) rawByID(id int64) (models.RawRecord, bool) {
	for _, r := range t.m.raw {
		if r.ID == id {
			return r, true
		}
	}
	return models.RawRecord{}, false
}

func (t *memTx) InsertProcessed(_ context.Context, rec models.ProcessedRecord) (int64, error) {
	if _, ok := t.rawByID(rec.RawID); !ok {
		return 0, ErrRawNotFound
	}

	t.m.nextProc++
	rec.ID = t.m.nextProc
	t.m.processed = append(t.m.processed, rec)
	return rec.ID, nil
}

func (t *memTx) ListProcessed(_ context.Context, w models.Window) ([]models.ProcessedRecord, error) {
	window := models.Apply(t.m.processed, w)
	out := make([]models.ProcessedRecord, 0, len(window))
	for _, p := range window {
		raw, ok := t.rawByID(p.RawID)
		if !ok {
			continue
		}
		p.Raw = raw.View()
		out = append(out, p)
	}
	return out, nil
}

func (t *memTx) DeleteProcessed(_ context.Context, id int64) (bool, error) {
	for i, p := range t.m.processed {
		if p.ID == id {
			t.m.processed = append(t.m.processed[:i:i], t.m.processed[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (t *memTx) DeleteProcessedForRaw(_ context.Context, rawID int64) (int64, error) {
	kept := t.m.processed[:0:0]
	var removed int64
	for _, p := range t.m.processed {
		if p.RawID == rawID {
			removed++
			continue
		}
		kept = append(kept, p)
	}
	t.m.processed = kept
	return removed, nil
}
