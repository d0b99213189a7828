// Package pipeline composes validation, deduplication, geofencing, relevance
// and sentiment classification into the record admission operations.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spacesedan/threatwatch/internal/db"
	"github.com/spacesedan/threatwatch/internal/geofence"
	"github.com/spacesedan/threatwatch/internal/metrics"
	"github.com/spacesedan/threatwatch/internal/models"
	"github.com/spacesedan/threatwatch/internal/relevance"
	"github.com/spacesedan/threatwatch/internal/sentiment"
	"github.com/spacesedan/threatwatch/internal/validation"
)

// Service runs the request-scoped record operations. It holds no per-request
// state and is safe for concurrent use.
type Service struct {
	store      db.Store
	fence      *geofence.Fence
	relevance  *relevance.Filter
	classifier sentiment.Classifier
	metrics    *metrics.Metrics
	now        func() time.Time
}

type Option func(*Service)

// WithMetrics records pipeline metrics on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock overrides the clock used for classification times.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(store db.Store, fence *geofence.Fence, rel *relevance.Filter, classifier sentiment.Classifier, opts ...Option) *Service {
	s := &Service{
		store:      store,
		fence:      fence,
		relevance:  rel,
		classifier: classifier,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SubmitRaw validates and stores a raw record.
func (s *Service) SubmitRaw(ctx context.Context, sub models.RawSubmission) (models.RawRecord, error) {
	rec, err := validation.ValidateRaw(sub)
	if err != nil {
		s.metrics.RawSubmitted("invalid")
		return models.RawRecord{}, validationError(err.Error(), err)
	}

	err = s.store.WithTx(ctx, func(tx db.Tx) error {
		rec, err = admitRaw(ctx, tx, rec)
		return err
	})
	if err != nil {
		if IsDuplicate(err) {
			s.metrics.RawSubmitted("duplicate")
		}
		return models.RawRecord{}, asPipelineError(err)
	}

	s.metrics.RawSubmitted("added")
	slog.Debug("[Pipeline] Raw record added", slog.Int64("id", rec.ID))
	return rec, nil
}

// ListRaw returns the raw records at rank positions [min, max].
func (s *Service) ListRaw(ctx context.Context, minStr, maxStr string) ([]models.RawRecord, error) {
	w, err := ParseWindow(minStr, maxStr)
	if err != nil {
		return nil, err
	}

	out := []models.RawRecord{}
	err = s.store.WithTx(ctx, func(tx db.Tx) error {
		records, err := tx.ListRaw(ctx, w)
		if err != nil {
			return err
		}
		out = append(out, records...)
		return nil
	})
	if err != nil {
		return nil, asPipelineError(err)
	}
	return out, nil
}

// DeleteRaw removes a raw record and every processed record that references
// it in one unit of work. Deleting a missing id succeeds.
func (s *Service) DeleteRaw(ctx context.Context, id int64) error {
	err := s.store.WithTx(ctx, func(tx db.Tx) error {
		n, err := tx.DeleteProcessedForRaw(ctx, id)
		if err != nil {
			return err
		}
		deleted, err := tx.DeleteRaw(ctx, id)
		if err != nil {
			return err
		}
		if deleted {
			slog.Info("[Pipeline] Raw record deleted",
				slog.Int64("id", id),
				slog.Int64("processed_deleted", n))
		}
		return nil
	})
	return asPipelineError(err)
}

// SubmitProcessed stores a manual classification of an existing raw record.
func (s *Service) SubmitProcessed(ctx context.Context, sub models.ProcessedSubmission) (models.ProcessedRecord, error) {
	if !sub.Raw.Present() {
		return models.ProcessedRecord{}, validationError(validation.MissingParameter("raw").Message, nil)
	}
	if !sub.ThreatType.Present() {
		return models.ProcessedRecord{}, validationError(validation.MissingParameter("threat_type").Message, nil)
	}

	threat, ok := models.ParseThreatType(strings.TrimSpace(sub.ThreatType.Value))
	if !ok {
		return models.ProcessedRecord{}, validationError(MsgInvalidThreatType, nil)
	}

	at := s.now()
	if sub.Time.Present() {
		parsed, err := models.ParseTime(strings.TrimSpace(sub.Time.Value))
		if err != nil {
			return models.ProcessedRecord{}, validationError(validation.MsgInvalidTime, err)
		}
		at = parsed
	}

	rawID, err := validation.ParseID("raw", sub.Raw)
	if err != nil {
		return models.ProcessedRecord{}, validationError(MsgSourceNotFound, err)
	}

	rec := models.ProcessedRecord{
		Time:       models.NewTimestamp(at),
		RawID:      rawID,
		ThreatType: threat,
	}
	err = s.store.WithTx(ctx, func(tx db.Tx) error {
		rec.ID, err = insertProcessed(ctx, tx, rec)
		return err
	})
	if errors.Is(err, db.ErrRawNotFound) {
		return models.ProcessedRecord{}, validationError(MsgSourceNotFound, err)
	}
	if err != nil {
		return models.ProcessedRecord{}, asPipelineError(err)
	}
	return rec, nil
}

// ListProcessed returns the processed records at rank positions [min, max],
// each with its raw record embedded.
func (s *Service) ListProcessed(ctx context.Context, minStr, maxStr string) ([]models.ProcessedRecord, error) {
	w, err := ParseWindow(minStr, maxStr)
	if err != nil {
		return nil, err
	}

	out := []models.ProcessedRecord{}
	err = s.store.WithTx(ctx, func(tx db.Tx) error {
		records, err := tx.ListProcessed(ctx, w)
		if err != nil {
			return err
		}
		out = append(out, records...)
		return nil
	})
	if err != nil {
		return nil, asPipelineError(err)
	}
	return out, nil
}

// DeleteProcessed removes one processed record. The raw record is kept.
func (s *Service) DeleteProcessed(ctx context.Context, id int64) error {
	err := s.store.WithTx(ctx, func(tx db.Tx) error {
		_, err := tx.DeleteProcessed(ctx, id)
		return err
	})
	return asPipelineError(err)
}

// InstantProcess validates a submission and runs it through the
// classification path. Only a NEGATIVE record is persisted, together with
// its raw record. An existing raw record with the same text and time is
// reused.
func (s *Service) InstantProcess(ctx context.Context, sub models.RawSubmission) (Outcome, error) {
	rec, err := validation.ValidateRaw(sub)
	if err != nil {
		return Outcome{}, validationError(err.Error(), err)
	}

	outcome, threat, err := s.evaluate(ctx, rec)
	if err != nil || threat != models.ThreatNegative {
		return outcome, err
	}

	var processed models.ProcessedRecord
	err = s.store.WithTx(ctx, func(tx db.Tx) error {
		raw, err := admitRaw(ctx, tx, rec)
		if err != nil && (!IsDuplicate(err) || raw.ID == 0) {
			return err
		}
		processed, err = s.recordThreat(ctx, tx, raw)
		return err
	})
	if err != nil {
		return Outcome{}, asPipelineError(err)
	}

	return s.threatOutcome(processed), nil
}

// ProcessStored runs an already stored raw record through the classification
// path and records a NEGATIVE result against it.
func (s *Service) ProcessStored(ctx context.Context, raw models.RawRecord) (Outcome, error) {
	outcome, threat, err := s.evaluate(ctx, raw)
	if err != nil || threat != models.ThreatNegative {
		return outcome, err
	}

	var processed models.ProcessedRecord
	err = s.store.WithTx(ctx, func(tx db.Tx) error {
		processed, err = s.recordThreat(ctx, tx, raw)
		return err
	})
	if err != nil {
		return Outcome{}, asPipelineError(err)
	}

	return s.threatOutcome(processed), nil
}

// Health checks that the store is reachable.
func (s *Service) Health(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// EntityName is the monitored entity used in relevance outcomes.
func (s *Service) EntityName() string {
	return s.relevance.EntityName()
}

// evaluate runs the geofence, relevance and sentiment gates. The returned
// outcome is final unless the threat type is NEGATIVE.
func (s *Service) evaluate(ctx context.Context, rec models.RawRecord) (Outcome, models.ThreatType, error) {
	if !s.fence.Contains(rec.Lat, rec.Lon) {
		return s.finish(Outcome{Result: ResultOutOfRange, Message: MsgNotInRange}), models.ThreatUnknown, nil
	}

	hits := s.relevance.Match(rec.RawText)
	if len(hits) == 0 {
		msg := fmt.Sprintf(msgUnrelatedFormat, s.relevance.EntityName())
		return s.finish(Outcome{Result: ResultUnrelated, Message: msg}), models.ThreatUnknown, nil
	}
	slog.Debug("[Pipeline] Relevance keywords matched",
		slog.Int("hits", len(hits)),
		slog.String("first", hits[0].Term))

	start := time.Now()
	threat, err := s.classifier.Classify(ctx, rec.RawText)
	s.metrics.Classified(time.Since(start), err)
	if err != nil {
		slog.Error("[Pipeline] Sentiment classification failed",
			slog.Duration("elapsed", time.Since(start)),
			slog.String("error", err.Error()))
		return Outcome{}, models.ThreatUnknown, &Error{Kind: KindClassifier, Message: MsgClassifierFailed, Err: err}
	}

	if threat != models.ThreatNegative {
		return s.finish(Outcome{Result: ResultNonNegative, Message: MsgNonnegative}), threat, nil
	}
	return Outcome{}, threat, nil
}

func (s *Service) recordThreat(ctx context.Context, tx db.Tx, raw models.RawRecord) (models.ProcessedRecord, error) {
	rec := models.ProcessedRecord{
		Time:       models.NewTimestamp(s.now()),
		RawID:      raw.ID,
		Raw:        raw.View(),
		ThreatType: models.ThreatNegative,
	}
	id, err := insertProcessed(ctx, tx, rec)
	if err != nil {
		return rec, err
	}
	rec.ID = id
	return rec, nil
}

func (s *Service) threatOutcome(rec models.ProcessedRecord) Outcome {
	slog.Info("[Pipeline] Threat recorded",
		slog.Int64("id", rec.ID),
		slog.Int64("raw_id", rec.RawID))
	return s.finish(Outcome{Result: ResultThreat, Record: &rec})
}

func (s *Service) finish(o Outcome) Outcome {
	s.metrics.ClassificationOutcome(o.Result.String())
	return o
}

func insertProcessed(ctx context.Context, tx db.Tx, rec models.ProcessedRecord) (int64, error) {
	id, err := tx.InsertProcessed(ctx, rec)
	if err != nil {
		return 0, err
	}
	if err := tx.MarkProcessed(ctx, rec.RawID); err != nil {
		return 0, err
	}
	return id, nil
}

// asPipelineError keeps pipeline errors as they are and wraps anything else
// as an internal failure.
func asPipelineError(err error) error {
	if err == nil {
		return nil
	}
	var pe *Error
	if errors.As(err, &pe) {
		return pe
	}
	return internalError(err)
}
