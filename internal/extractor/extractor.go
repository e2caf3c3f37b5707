// Package extractor descarga un PDF por URL y devuelve su texto plano.
package extractor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dropDatabas3/pdfsummary/internal/observability/logger"
)

// DefaultMaxFileBytes coincide con el límite del uploader (16 MiB).
const DefaultMaxFileBytes int64 = 16 << 20

var (
	ErrInvalidURL   = errors.New("extractor: invalid file url")
	ErrFetch        = errors.New("extractor: fetch failed")
	ErrTooLarge     = errors.New("extractor: file too large")
	ErrNotPDF       = errors.New("extractor: not a pdf")
	ErrNoText       = errors.New("extractor: no text content")
	ErrTooManyPages = errors.New("extractor: too many pages")
)

var pdfMagic = []byte("%PDF-")

// ParseFunc convierte los bytes de un PDF en texto.
type ParseFunc func(data []byte) (string, error)

type Options struct {
	HTTPClient   *http.Client
	MaxFileBytes int64
	// MaxPages 0 = sin límite.
	MaxPages int
	// Parse reemplaza el parser por defecto (pdfcpu + ledongthuc/pdf).
	Parse ParseFunc
}

type Extractor struct {
	client   *http.Client
	maxBytes int64
	parse    ParseFunc
}

func New(opts Options) *Extractor {
	e := &Extractor{
		client:   opts.HTTPClient,
		maxBytes: opts.MaxFileBytes,
		parse:    opts.Parse,
	}
	if e.client == nil {
		// sin timeout propio: lo acota el contexto del request
		e.client = &http.Client{Transport: http.DefaultTransport}
	}
	if e.maxBytes <= 0 {
		e.maxBytes = DefaultMaxFileBytes
	}
	if e.parse == nil {
		e.parse = PDFParser(opts.MaxPages)
	}
	return e
}

// Extract descarga rawURL y devuelve el texto extraído.
func (e *Extractor) Extract(ctx context.Context, rawURL string) (string, error) {
	log := logger.From(ctx).With(logger.Component("extractor"), logger.FileURL(rawURL))
	start := time.Now()

	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}

	data, err := e.fetch(ctx, u.String())
	if err != nil {
		log.Warn("pdf fetch failed", logger.Err(err))
		return "", err
	}
	if !bytes.HasPrefix(bytes.TrimLeft(data, " \t\r\n"), pdfMagic) {
		return "", ErrNotPDF
	}

	text, err := e.parse(data)
	if err != nil {
		log.Warn("pdf parse failed", logger.Err(err), logger.Bytes(len(data)))
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrNoText
	}

	log.Debug("pdf text extracted",
		logger.Bytes(len(data)),
		logger.Chars("text_chars", len([]rune(text))),
		logger.Duration(time.Since(start)),
	)
	return text, nil
}

func (e *Extractor) fetch(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	req.Header.Set("Accept", "application/pdf")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("%w: status %d", ErrFetch, resp.StatusCode)
	}
	if !acceptableContentType(resp.Header.Get("Content-Type")) {
		return nil, fmt.Errorf("%w: content-type %q", ErrNotPDF, resp.Header.Get("Content-Type"))
	}
	if resp.ContentLength > e.maxBytes {
		return nil, fmt.Errorf("%w: %d > %d bytes", ErrTooLarge, resp.ContentLength, e.maxBytes)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, e.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrFetch, err)
	}
	if int64(len(data)) > e.maxBytes {
		return nil, fmt.Errorf("%w: > %d bytes", ErrTooLarge, e.maxBytes)
	}
	return data, nil
}

// Los storages de uploads no siempre mandan application/pdf; el magic number
// decide en esos casos.
func acceptableContentType(ct string) bool {
	if ct == "" {
		return true
	}
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return false
	}
	switch mt {
	case "application/pdf", "application/x-pdf", "application/octet-stream", "binary/octet-stream":
		return true
	}
	return false
}
