// Package pipeline orquesta upload → extracción → resumen, y el guardado que
// el cliente invoca por separado. Cada operación devuelve un Result; nunca
// propaga panics ni errores sueltos hacia arriba.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dropDatabas3/pdfsummary/internal/identity"
	"github.com/dropDatabas3/pdfsummary/internal/observability/logger"
	"github.com/dropDatabas3/pdfsummary/internal/store"
	"github.com/dropDatabas3/pdfsummary/internal/summarizer"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// UploadResult llega del servicio de uploads al completarse la subida.
type UploadResult struct {
	ExternalUserID string       `json:"userId"`
	File           UploadedFile `json:"file"`
}

type UploadedFile struct {
	URL  string `json:"url"`
	Name string `json:"name"`
}

func (u *UploadResult) empty() bool {
	return u == nil || (u.ExternalUserID == "" && u.File.URL == "" && u.File.Name == "")
}

type SummaryData struct {
	Summary  string `json:"summary"`
	Title    string `json:"title"`
	FileName string `json:"fileName"`
}

// SaveRequest es lo que el cliente manda para persistir un resumen ya generado.
type SaveRequest struct {
	Summary  string `json:"summary"`
	FileURL  string `json:"fileUrl"`
	Title    string `json:"title"`
	FileName string `json:"fileName"`
}

type SavedData struct {
	Saved bool   `json:"saved"`
	Title string `json:"title"`
}

type SummaryItem struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	FileName  string    `json:"fileName"`
	FileURL   string    `json:"fileUrl"`
	Summary   string    `json:"summary"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// Extractor obtiene el texto plano de un PDF por URL.
type Extractor interface {
	Extract(ctx context.Context, url string) (string, error)
}

// Persister guarda y lista resúmenes (store.Adapter).
type Persister interface {
	Save(ctx context.Context, rec store.SummaryRecord) (bool, error)
	List(ctx context.Context, internalUserID string, limit int) ([]store.SummaryView, error)
}

// Observer recibe la duración y el resultado de cada etapa (métricas).
type Observer interface {
	ObserveStage(stage string, success bool, d time.Duration)
}

type Options struct {
	Extractor  Extractor
	Summarizer summarizer.Summarizer
	Persister  Persister
	Observer   Observer // opcional
	// MaxInputChars tope de texto enviado al summarizer; 0 = summarizer.DefaultMaxInputChars.
	MaxInputChars int
}

type Pipeline struct {
	extractor  Extractor
	summarizer summarizer.Summarizer
	persister  Persister
	observer   Observer
	maxChars   int
}

func New(opts Options) *Pipeline {
	p := &Pipeline{
		extractor:  opts.Extractor,
		summarizer: opts.Summarizer,
		persister:  opts.Persister,
		observer:   opts.Observer,
		maxChars:   opts.MaxInputChars,
	}
	if p.maxChars == 0 {
		p.maxChars = summarizer.DefaultMaxInputChars
	}
	if p.observer == nil {
		p.observer = nopObserver{}
	}
	return p
}

// Summarize valida el upload, extrae el texto y pide el resumen. No persiste.
func (p *Pipeline) Summarize(ctx context.Context, up *UploadResult) Result[SummaryData] {
	log := logger.From(ctx).With(logger.Op("pipeline.summarize"))

	if up.empty() || strings.TrimSpace(up.File.URL) == "" {
		log.Info("rejected upload result")
		return fail[SummaryData](MsgUploadFailed, StageValidate, ErrInvalidUpload)
	}
	log = log.With(logger.FileName(up.File.Name), logger.ExternalID(up.ExternalUserID))

	start := time.Now()
	text, err := p.extractor.Extract(ctx, up.File.URL)
	p.observer.ObserveStage(string(StageExtract), err == nil, time.Since(start))
	if err != nil {
		log.Error("text extraction failed", logger.Stage(string(StageExtract)), logger.Err(err))
		return fail[SummaryData](MsgSummaryFailed, StageExtract, err)
	}

	input := summarizer.TrimText(text, p.maxChars)
	if len(input) != len(text) {
		log.Info("document truncated", logger.Chars("text_chars", len([]rune(text))), logger.Int("max_chars", p.maxChars))
	}

	start = time.Now()
	res, err := p.summarize(ctx, input)
	p.observer.ObserveStage(string(StageSummarize), err == nil, time.Since(start))
	if err != nil {
		log.Error("summarization failed", logger.Stage(string(StageSummarize)), logger.Err(err))
		return fail[SummaryData](MsgSummaryFailed, StageSummarize, err)
	}

	title := strings.TrimSpace(res.Title)
	if title == "" {
		title = FormatFileNameAsTitle(up.File.Name)
	}

	log.Info("summary generated", logger.Chars("summary_chars", len(res.Summary)))
	return ok(MsgSummaryOK, SummaryData{Summary: res.Summary, Title: title, FileName: up.File.Name})
}

// summarize normaliza las dos formas de falla del summarizer (error o Success=false).
func (p *Pipeline) summarize(ctx context.Context, text string) (res summarizer.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("summarizer panic: %v", r)
		}
	}()
	res, err = p.summarizer.Summarize(ctx, text)
	if err != nil {
		return res, err
	}
	if !res.Success || strings.TrimSpace(res.Summary) == "" {
		if res.Error != "" {
			return res, fmt.Errorf("%w: %s", ErrSummaryRejected, res.Error)
		}
		return res, ErrSummaryRejected
	}
	return res, nil
}

// Persist guarda un resumen ya generado para el usuario autenticado.
func (p *Pipeline) Persist(ctx context.Context, externalUserID string, req SaveRequest) Result[SavedData] {
	log := logger.From(ctx).With(logger.Op("pipeline.persist"))

	if strings.TrimSpace(externalUserID) == "" {
		return fail[SavedData](MsgNotAuthenticated, StageAuth, ErrNotAuthenticated)
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = FormatFileNameAsTitle(req.FileName)
	}
	rec := store.SummaryRecord{
		InternalUserID: identity.Map(externalUserID),
		ExternalUserID: externalUserID,
		FileURL:        req.FileURL,
		SummaryText:    req.Summary,
		Title:          title,
		FileName:       req.FileName,
	}

	start := time.Now()
	saved, err := p.persister.Save(ctx, rec)
	if err == nil && !saved {
		err = fmt.Errorf("Failed to save PDF summary: %w", store.ErrNoRows)
	}
	p.observer.ObserveStage(string(StagePersist), err == nil, time.Since(start))
	if err != nil {
		log.Error("persist failed", logger.Stage(string(StagePersist)), logger.UserID(rec.InternalUserID), logger.Err(err))
		return fail[SavedData](err.Error(), StagePersist, err)
	}

	log.Info("summary saved", logger.UserID(rec.InternalUserID), logger.FileName(req.FileName))
	return ok(MsgSavedOK, SavedData{Saved: true, Title: title})
}

// List devuelve los resúmenes del usuario, más nuevos primero.
func (p *Pipeline) List(ctx context.Context, externalUserID string, limit int) Result[[]SummaryItem] {
	if strings.TrimSpace(externalUserID) == "" {
		return fail[[]SummaryItem](MsgNotAuthenticated, StageAuth, ErrNotAuthenticated)
	}
	switch {
	case limit <= 0:
		limit = DefaultListLimit
	case limit > MaxListLimit:
		limit = MaxListLimit
	}

	rows, err := p.persister.List(ctx, identity.Map(externalUserID), limit)
	if err != nil {
		logger.From(ctx).Error("list summaries failed", logger.Stage(string(StageList)), logger.Err(err))
		return fail[[]SummaryItem](MsgListFailed, StageList, err)
	}

	items := make([]SummaryItem, 0, len(rows))
	for _, r := range rows {
		items = append(items, SummaryItem{
			ID:        r.ID,
			Title:     r.Title,
			FileName:  r.FileName,
			FileURL:   r.FileURL,
			Summary:   r.SummaryText,
			Status:    r.Status,
			CreatedAt: r.CreatedAt,
		})
	}
	return ok(MsgListOK, items)
}

type nopObserver struct{}

func (nopObserver) ObserveStage(string, bool, time.Duration) {}
