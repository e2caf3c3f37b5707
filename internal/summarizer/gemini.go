package summarizer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"

	"github.com/dropDatabas3/pdfsummary/internal/observability/logger"
)

// Config del cliente Gemini. Los parámetros de muestreo son punteros para que
// 0 sea configurable; nil toma el valor por defecto.
type Config struct {
	APIKey          string
	Model           string
	Temperature     *float64
	TopP            *float64
	TopK            *int
	MaxOutputTokens int
}

func (c Config) withDefaults() Config {
	if c.Model == "" {
		c.Model = "gemini-2.0-flash"
	}
	if c.Temperature == nil {
		c.Temperature = ptr(0.7)
	}
	if c.TopP == nil {
		c.TopP = ptr(0.95)
	}
	if c.TopK == nil {
		c.TopK = ptr(40)
	}
	if c.MaxOutputTokens == 0 {
		c.MaxOutputTokens = 4096
	}
	return c
}

func ptr[T any](v T) *T { return &v }

// generator es la parte de llms.Model que usamos.
type generator interface {
	GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error)
}

// Gemini implementa Summarizer sobre langchaingo/googleai.
type Gemini struct {
	cfg   Config
	model generator
}

var errEmptyResponse = errors.New("summarizer: empty response from model")

// NewGemini construye el cliente. Sin API key no falla: devuelve un cliente
// que responde Success=false en cada llamada (la validación fuerte es de config).
func NewGemini(ctx context.Context, cfg Config) (*Gemini, error) {
	cfg = cfg.withDefaults()
	g := &Gemini{cfg: cfg}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return g, nil
	}
	m, err := googleai.New(ctx,
		googleai.WithAPIKey(cfg.APIKey),
		googleai.WithDefaultModel(cfg.Model),
		googleai.WithHarmThreshold(googleai.HarmBlockMediumAndAbove),
	)
	if err != nil {
		return nil, fmt.Errorf("summarizer: init gemini: %w", err)
	}
	g.model = m
	return g, nil
}

// newWithGenerator se usa en tests para inyectar un modelo falso.
func newWithGenerator(cfg Config, m generator) *Gemini {
	return &Gemini{cfg: cfg.withDefaults(), model: m}
}

func (g *Gemini) Summarize(ctx context.Context, text string) (Result, error) {
	log := logger.From(ctx).With(logger.Component("summarizer"), logger.String("model", g.cfg.Model))

	if g.model == nil {
		log.Error("gemini api key not configured")
		return Result{Success: false, Error: ErrMissingAPIKey.Error()}, nil
	}

	msgs := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, SystemPrompt, userInstruction+text),
	}
	resp, err := g.model.GenerateContent(ctx, msgs,
		llms.WithTemperature(*g.cfg.Temperature),
		llms.WithTopP(*g.cfg.TopP),
		llms.WithTopK(*g.cfg.TopK),
		llms.WithMaxTokens(g.cfg.MaxOutputTokens),
	)
	if err != nil {
		log.Error("gemini generate failed", logger.Err(err))
		return Result{}, fmt.Errorf("summarizer: generate: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Content) == "" {
		log.Warn("gemini returned no content")
		return Result{Success: false, Error: errEmptyResponse.Error()}, nil
	}

	summary := resp.Choices[0].Content
	log.Debug("summary generated", logger.Chars("summary_chars", len(summary)), logger.String("stop_reason", resp.Choices[0].StopReason))
	return Result{Success: true, Summary: summary}, nil
}
