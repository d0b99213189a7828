package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spacesedan/threatwatch/internal/models"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// Pool is the subset of pgxpool.Pool used by the store.
type Pool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

// Postgres is a Store backed by PostgreSQL.
type Postgres struct {
	pool Pool
}

func NewPostgres(pool Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(&pgTx{tx: tx}); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			slog.Warn("[DB] Rollback failed", slog.String("error", rbErr.Error()))
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *Postgres) Close() {
	p.pool.Close()
}

type pgTx struct {
	tx pgx.Tx
}

const rawColumns = `id, raw_text, time, source, lat, lon, author, url, emojis, processed`

func scanRaw(row pgx.Row) (models.RawRecord, error) {
	var (
		rec    models.RawRecord
		at     time.Time
		source string
	)
	err := row.Scan(&rec.ID, &rec.RawText, &at, &source, &rec.Lat, &rec.Lon,
		&rec.Author, &rec.URL, &rec.Emojis, &rec.Processed)
	if err != nil {
		return models.RawRecord{}, err
	}
	rec.Time = models.NewTimestamp(at)
	src, ok := models.ParseSource(source)
	if !ok {
		return models.RawRecord{}, fmt.Errorf("raw record %d has unknown source %q", rec.ID, source)
	}
	rec.Source = src
	return rec, nil
}

func (t *pgTx) FindRaw(ctx context.Context, text string, at time.Time) (*models.RawRecord, error) {
	query := `SELECT ` + rawColumns + ` FROM raw_records WHERE raw_text = $1 AND time = $2`

	rec, err := scanRaw(t.tx.QueryRow(ctx, query, text, at))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find raw record: %w", err)
	}
	return &rec, nil
}

func (t *pgTx) InsertRaw(ctx context.Context, rec models.RawRecord) (int64, error) {
	query := `
        INSERT INTO raw_records (raw_text, time, source, lat, lon, author, url, emojis, processed)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, FALSE)
        ON CONFLICT (raw_text, time) DO NOTHING
        RETURNING id
    `

	var id int64
	err := t.tx.QueryRow(ctx, query,
		rec.RawText, rec.Time.Time, rec.Source.String(), rec.Lat, rec.Lon,
		rec.Author, rec.URL, rec.Emojis,
	).Scan(&id)
	switch {
	case errors.Is(err, pgx.ErrNoRows), isPgCode(err, pgUniqueViolation):
		return 0, ErrDuplicate
	case err != nil:
		return 0, fmt.Errorf("insert raw record: %w", err)
	}
	return id, nil
}

func (t *pgTx) ListRaw(ctx context.Context, w models.Window) ([]models.RawRecord, error) {
	query := `SELECT ` + rawColumns + ` FROM raw_records ORDER BY id OFFSET $1 LIMIT $2`

	rows, err := t.tx.Query(ctx, query, w.Offset(), limitArg(w))
	if err != nil {
		return nil, fmt.Errorf("list raw records: %w", err)
	}
	defer rows.Close()

	records := []models.RawRecord{}
	for rows.Next() {
		rec, err := scanRaw(rows)
		if err != nil {
			return nil, fmt.Errorf("scan raw record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list raw records: %w", err)
	}
	return records, nil
}

func (t *pgTx) DeleteRaw(ctx context.Context, id int64) (bool, error) {
	tag, err := t.tx.Exec(ctx, `DELETE FROM raw_records WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete raw record %d: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (t *pgTx) MarkProcessed(ctx context.Context, rawID int64) error {
	tag, err := t.tx.Exec(ctx, `UPDATE raw_records SET processed = TRUE WHERE id = $1`, rawID)
	if err != nil {
		return fmt.Errorf("mark raw record %d processed: %w", rawID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *pgTx) InsertProcessed(ctx context.Context, rec models.ProcessedRecord) (int64, error) {
	query := `
        INSERT INTO processed_records (time, raw_id, threat_type)
        SELECT $1, id, $3 FROM raw_records WHERE id = $2
        RETURNING id
    `

	var id int64
	err := t.tx.QueryRow(ctx, query, rec.Time.Time, rec.RawID, rec.ThreatType.String()).Scan(&id)
	switch {
	case errors.Is(err, pgx.ErrNoRows), isPgCode(err, pgForeignKeyViolation):
		return 0, ErrRawNotFound
	case err != nil:
		return 0, fmt.Errorf("insert processed record: %w", err)
	}
	return id, nil
}

func (t *pgTx) ListProcessed(ctx context.Context, w models.Window) ([]models.ProcessedRecord, error) {
	query := `
        SELECT p.id, p.time, p.raw_id, p.threat_type,
               r.raw_text, r.time, r.source, r.lat, r.lon, r.author, r.url
        FROM processed_records p
        JOIN raw_records r ON r.id = p.raw_id
        ORDER BY p.id
        OFFSET $1 LIMIT $2
    `

	rows, err := t.tx.Query(ctx, query, w.Offset(), limitArg(w))
	if err != nil {
		return nil, fmt.Errorf("list processed records: %w", err)
	}
	defer rows.Close()

	records := []models.ProcessedRecord{}
	for rows.Next() {
		var (
			rec            models.ProcessedRecord
			at, rawAt      time.Time
			threat, source string
		)
		err := rows.Scan(&rec.ID, &at, &rec.RawID, &threat,
			&rec.Raw.RawText, &rawAt, &source, &rec.Raw.Lat, &rec.Raw.Lon, &rec.Raw.Author, &rec.Raw.URL)
		if err != nil {
			return nil, fmt.Errorf("scan processed record: %w", err)
		}

		var ok bool
		if rec.ThreatType, ok = models.ParseThreatType(threat); !ok {
			return nil, fmt.Errorf("processed record %d has unknown threat type %q", rec.ID, threat)
		}
		if rec.Raw.Source, ok = models.ParseSource(source); !ok {
			return nil, fmt.Errorf("raw record %d has unknown source %q", rec.RawID, source)
		}
		rec.Time = models.NewTimestamp(at)
		rec.Raw.Time = models.NewTimestamp(rawAt)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list processed records: %w", err)
	}
	return records, nil
}

func (t *pgTx) DeleteProcessed(ctx context.Context, id int64) (bool, error) {
	tag, err := t.tx.Exec(ctx, `DELETE FROM processed_records WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete processed record %d: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (t *pgTx) DeleteProcessedForRaw(ctx context.Context, rawID int64) (int64, error) {
	tag, err := t.tx.Exec(ctx, `DELETE FROM processed_records WHERE raw_id = $1`, rawID)
	if err != nil {
		return 0, fmt.Errorf("delete processed records of raw %d: %w", rawID, err)
	}
	return tag.RowsAffected(), nil
}

// limitArg maps an open upper bound to NULL, which postgres treats as LIMIT ALL.
func limitArg(w models.Window) any {
	if n, ok := w.Limit(); ok {
		return n
	}
	return nil
}

func isPgCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}
