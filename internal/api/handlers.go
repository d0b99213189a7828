package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/spacesedan/threatwatch/internal/ingest"
	"github.com/spacesedan/threatwatch/internal/metrics"
	"github.com/spacesedan/threatwatch/internal/models"
	"github.com/spacesedan/threatwatch/internal/monitoring"
	"github.com/spacesedan/threatwatch/internal/pipeline"
	"github.com/spacesedan/threatwatch/internal/validation"
)

const (
	MsgRawAdded           = "Raw entry successfully added"
	MsgRawDeleted         = "Raw entry successfully deleted"
	MsgProcessedAdded     = "Processed entry successfully added"
	MsgProcessedDeleted   = "Processed entry successfully deleted"
	MsgMissingRequestBody = "Missing request body"
	MsgInvalidCSV         = "Invalid csv file"

	healthTimeout = 3 * time.Second
)

// Handler serves the record API.
type Handler struct {
	service *pipeline.Service
	status  *monitoring.ClassifierStatus
	metrics *metrics.Metrics
}

func NewHandler(service *pipeline.Service, status *monitoring.ClassifierStatus, m *metrics.Metrics) *Handler {
	if status == nil {
		status = &monitoring.ClassifierStatus{}
	}
	return &Handler{service: service, status: status, metrics: m}
}

// HealthResponse is the body of the health endpoint.
type HealthResponse struct {
	DBStatus         string `json:"db_status"`
	ClassifierStatus string `json:"classifier_status"`
}

func (h *Handler) SubmitRaw(c *gin.Context) {
	var sub models.RawSubmission
	if !bindBody(c, &sub) {
		return
	}

	if _, err := h.service.SubmitRaw(c.Request.Context(), sub); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, MsgRawAdded)
}

func (h *Handler) ListRaw(c *gin.Context) {
	records, err := h.service.ListRaw(c.Request.Context(), c.Query("min"), c.Query("max"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

func (h *Handler) DeleteRaw(c *gin.Context) {
	id, ok := queryID(c)
	if !ok {
		return
	}
	if err := h.service.DeleteRaw(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, MsgRawDeleted)
}

func (h *Handler) SubmitProcessed(c *gin.Context) {
	var sub models.ProcessedSubmission
	if !bindBody(c, &sub) {
		return
	}

	if _, err := h.service.SubmitProcessed(c.Request.Context(), sub); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, MsgProcessedAdded)
}

func (h *Handler) ListProcessed(c *gin.Context) {
	records, err := h.service.ListProcessed(c.Request.Context(), c.Query("min"), c.Query("max"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

func (h *Handler) DeleteProcessed(c *gin.Context) {
	id, ok := queryID(c)
	if !ok {
		return
	}
	if err := h.service.DeleteProcessed(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, MsgProcessedDeleted)
}

func (h *Handler) InstantProcessing(c *gin.Context) {
	var sub models.RawSubmission
	if !bindBody(c, &sub) {
		return
	}

	outcome, err := h.service.InstantProcess(c.Request.Context(), sub)
	if err != nil {
		writeError(c, err)
		return
	}
	if outcome.Record != nil {
		c.JSON(http.StatusOK, outcome.Record)
		return
	}
	c.JSON(http.StatusOK, pipeline.MessageBody{Message: outcome.Message})
}

// UploadCSV admits every row of the multipart "file" field. Classification
// of admitted rows can be turned off with classify=false.
func (h *Handler) UploadCSV(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, validation.MissingParameter("file").Message)
		return
	}

	file, err := header.Open()
	if err != nil {
		writeError(c, err)
		return
	}
	defer file.Close()

	classify, err := strconv.ParseBool(c.DefaultQuery("classify", "true"))
	if err != nil {
		classify = true
	}
	ingestor := ingest.New(h.service, ingest.WithClassification(classify), ingest.WithMetrics(h.metrics))

	report, err := ingestor.Ingest(c.Request.Context(), file)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			writeError(c, err)
			return
		}
		slog.Warn("[API] Rejected csv upload",
			slog.String("file", header.Filename),
			slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, MsgInvalidCSV)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *Handler) HealthStatus(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	resp := HealthResponse{DBStatus: "Healthy", ClassifierStatus: h.status.String()}
	if err := h.service.Health(ctx); err != nil {
		slog.Error("[API] Store health check failed", slog.String("error", err.Error()))
		resp.DBStatus = "Unhealthy"
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func bindBody(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		if !errors.Is(err, io.EOF) {
			slog.Debug("[API] Invalid request body", slog.String("error", err.Error()))
		}
		c.JSON(http.StatusBadRequest, MsgMissingRequestBody)
		return false
	}
	return true
}

func queryID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(c.Query("id")), 10, 64)
	if err != nil || id < 1 {
		c.JSON(http.StatusBadRequest, validation.MissingParameter("id").Message)
		return 0, false
	}
	return id, true
}

// writeError maps a pipeline error to a status code and a JSON string body.
func writeError(c *gin.Context, err error) {
	var pe *pipeline.Error
	if !errors.As(err, &pe) {
		pe = &pipeline.Error{Kind: pipeline.KindInternal, Message: pipeline.MsgInternal, Err: err}
	}

	switch pe.Kind {
	case pipeline.KindValidation, pipeline.KindConflict, pipeline.KindRange:
		c.JSON(http.StatusBadRequest, pe.Message)
	case pipeline.KindClassifier:
		c.JSON(http.StatusBadGateway, pipeline.MsgClassifierFailed)
	default:
		slog.Error("[API] Request failed",
			slog.String("path", c.FullPath()),
			slog.String("error", pe.Error()))
		c.JSON(http.StatusInternalServerError, pipeline.MsgInternal)
	}
}
