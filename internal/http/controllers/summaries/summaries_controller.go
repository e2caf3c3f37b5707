// Package summaries expone el pipeline de resúmenes por HTTP.
// Toda respuesta es el sobre {success, message, data}; el status sale de la
// etapa en la que falló la operación.
package summaries

import (
	"context"
	"net/http"
	"strconv"

	httperrors "github.com/dropDatabas3/pdfsummary/internal/http/errors"
	"github.com/dropDatabas3/pdfsummary/internal/http/helpers"
	mw "github.com/dropDatabas3/pdfsummary/internal/http/middlewares"
	"github.com/dropDatabas3/pdfsummary/internal/observability/logger"
	"github.com/dropDatabas3/pdfsummary/internal/pipeline"
)

// Service es la parte del pipeline que usa el controller.
type Service interface {
	Summarize(ctx context.Context, up *pipeline.UploadResult) pipeline.Result[pipeline.SummaryData]
	Persist(ctx context.Context, externalUserID string, req pipeline.SaveRequest) pipeline.Result[pipeline.SavedData]
	List(ctx context.Context, externalUserID string, limit int) pipeline.Result[[]pipeline.SummaryItem]
}

type Controller struct {
	svc     Service
	maxBody int64
}

func NewController(svc Service, maxBody int64) *Controller {
	return &Controller{svc: svc, maxBody: maxBody}
}

// Generate maneja POST /v1/summaries/generate (body: UploadResult).
// El userId del body se reemplaza por el sujeto del token.
func (c *Controller) Generate(w http.ResponseWriter, r *http.Request) {
	var up pipeline.UploadResult
	if err := helpers.ReadJSON(w, r, &up, c.maxBody); err != nil {
		httperrors.WriteError(w, err)
		return
	}
	if uid := mw.GetUserID(r.Context()); uid != "" {
		up.ExternalUserID = uid
	}

	res := c.svc.Summarize(r.Context(), &up)
	writeResult(w, r, res.Success, res.Err, res)
}

// Save maneja POST /v1/summaries.
func (c *Controller) Save(w http.ResponseWriter, r *http.Request) {
	var req pipeline.SaveRequest
	if err := helpers.ReadJSON(w, r, &req, c.maxBody); err != nil {
		httperrors.WriteError(w, err)
		return
	}

	res := c.svc.Persist(r.Context(), mw.GetUserID(r.Context()), req)
	writeResult(w, r, res.Success, res.Err, res)
}

// List maneja GET /v1/summaries?limit=N.
func (c *Controller) List(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			httperrors.WriteError(w, httperrors.ErrInvalidParameter.WithDetail("limit must be a non-negative integer"))
			return
		}
		limit = n
	}

	res := c.svc.List(r.Context(), mw.GetUserID(r.Context()), limit)
	writeResult(w, r, res.Success, res.Err, res)
}

func writeResult(w http.ResponseWriter, r *http.Request, success bool, err error, body any) {
	status := http.StatusOK
	if !success {
		status = StatusFor(err)
		logger.From(r.Context()).Debug("pipeline result",
			logger.Stage(string(pipeline.StageOf(err))),
			logger.Status(status),
		)
	}
	helpers.WriteJSON(w, status, body)
}

// StatusFor traduce la etapa fallida a status HTTP.
func StatusFor(err error) int {
	switch pipeline.StageOf(err) {
	case pipeline.StageValidate:
		return http.StatusBadRequest
	case pipeline.StageAuth:
		return http.StatusUnauthorized
	case pipeline.StageExtract:
		return http.StatusUnprocessableEntity
	case pipeline.StageSummarize:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
