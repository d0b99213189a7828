// Package ingest admits the rows of a bulk upload one at a time and reports
// the outcome of each.
package ingest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/spacesedan/threatwatch/internal/metrics"
	"github.com/spacesedan/threatwatch/internal/models"
	"github.com/spacesedan/threatwatch/internal/pipeline"
)

const (
	StatusAdded     = "added"
	StatusDuplicate = "duplicate"
	StatusInvalid   = "invalid"
	StatusFailed    = "failed"
)

// Admitter is the part of the pipeline the ingestor drives.
type Admitter interface {
	SubmitRaw(ctx context.Context, sub models.RawSubmission) (models.RawRecord, error)
	ProcessStored(ctx context.Context, raw models.RawRecord) (pipeline.Outcome, error)
}

// RowReport is the outcome of one row.
type RowReport struct {
	Row     int    `json:"row"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	RawID   int64  `json:"raw_id,omitempty"`
	Outcome string `json:"outcome,omitempty"`
	// Unclassified marks an admitted row whose classification failed.
	Unclassified bool `json:"unclassified,omitempty"`
}

// Report summarizes a batch.
type Report struct {
	Rows         []RowReport `json:"rows"`
	Added        int         `json:"added"`
	Duplicates   int         `json:"duplicates"`
	Invalid      int         `json:"invalid"`
	Failed       int         `json:"failed"`
	Unclassified int         `json:"unclassified"`
	Threats      int         `json:"threats"`
}

// Ingestor runs rows through admission and, when enabled, classification.
// Rows are handled sequentially and a rejected row never stops the batch.
type Ingestor struct {
	admitter Admitter
	classify bool
	metrics  *metrics.Metrics
}

type Option func(*Ingestor)

// WithClassification routes admitted rows through the classification path.
func WithClassification(enabled bool) Option {
	return func(i *Ingestor) { i.classify = enabled }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(i *Ingestor) { i.metrics = m }
}

func New(admitter Admitter, opts ...Option) *Ingestor {
	i := &Ingestor{admitter: admitter, classify: true}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Ingest reads a CSV upload and admits its rows. It fails only when the
// upload is not a readable CSV with a header row, or when ctx ends.
func (i *Ingestor) Ingest(ctx context.Context, r io.Reader) (Report, error) {
	start := time.Now()

	rows, err := ReadRows(r)
	if err != nil {
		return Report{}, err
	}

	report := Report{Rows: make([]RowReport, 0, len(rows))}
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		rr := i.ingestRow(ctx, row)
		i.metrics.BatchRow(rr.Status)
		report.add(rr)
	}

	slog.Info("[Ingestor] Batch complete",
		slog.Int("rows", len(rows)),
		slog.Int("added", report.Added),
		slog.Int("duplicates", report.Duplicates),
		slog.Int("invalid", report.Invalid),
		slog.Int("failed", report.Failed),
		slog.Int("unclassified", report.Unclassified),
		slog.Int("threats", report.Threats),
		slog.Duration("elapsed", time.Since(start)))
	return report, nil
}

func (i *Ingestor) ingestRow(ctx context.Context, row Row) RowReport {
	rr := RowReport{Row: row.Line}
	if row.Err != nil {
		rr.Status, rr.Message = StatusInvalid, row.Err.Error()
		return rr
	}

	raw, err := i.admitter.SubmitRaw(ctx, row.Submission)
	if err != nil {
		rr.Message = messageOf(err)
		switch pipeline.KindOf(err) {
		case pipeline.KindConflict:
			rr.Status = StatusDuplicate
		case pipeline.KindValidation:
			rr.Status = StatusInvalid
		default:
			rr.Status = StatusFailed
		}
		return rr
	}
	rr.Status, rr.RawID = StatusAdded, raw.ID

	if !i.classify {
		return rr
	}

	outcome, err := i.admitter.ProcessStored(ctx, raw)
	if err != nil {
		slog.Warn("[Ingestor] Classification failed for row",
			slog.Int("row", row.Line),
			slog.Int64("raw_id", raw.ID),
			slog.String("error", err.Error()))
		rr.Message, rr.Unclassified = messageOf(err), true
		return rr
	}
	rr.Outcome = outcome.Result.String()
	return rr
}

func (r *Report) add(rr RowReport) {
	r.Rows = append(r.Rows, rr)
	switch rr.Status {
	case StatusAdded:
		r.Added++
	case StatusDuplicate:
		r.Duplicates++
	case StatusInvalid:
		r.Invalid++
	case StatusFailed:
		r.Failed++
	}
	if rr.Unclassified {
		r.Unclassified++
	}
	if rr.Outcome == pipeline.ResultThreat.String() {
		r.Threats++
	}
}

func messageOf(err error) string {
	var pe *pipeline.Error
	if errors.As(err, &pe) {
		return pe.Message
	}
	return err.Error()
}
