package extractor

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

var disableConfigDir sync.Once

// PDFParser valida la estructura con pdfcpu y saca la capa de texto con
// ledongthuc/pdf. maxPages 0 = sin límite.
func PDFParser(maxPages int) ParseFunc {
	return func(data []byte) (string, error) {
		pages, err := validate(data)
		if err != nil {
			return "", err
		}
		if maxPages > 0 && pages > maxPages {
			return "", fmt.Errorf("%w: %d > %d", ErrTooManyPages, pages, maxPages)
		}
		return plainText(data)
	}
}

// validate devuelve la cantidad de páginas.
func validate(data []byte) (int, error) {
	disableConfigDir.Do(api.DisableConfigDir)

	conf := model.NewDefaultConfiguration()
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		return 0, fmt.Errorf("%w: pdfcpu: %w", ErrNotPDF, err)
	}
	return ctx.PageCount, nil
}

func plainText(data []byte) (text string, err error) {
	// ledongthuc/pdf entra en pánico con algunos streams rotos
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("%w: pdf reader panic: %v", ErrNoText, r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: open: %w", ErrNotPDF, err)
	}
	rd, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrNoText, err)
	}
	b, err := io.ReadAll(rd)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrNoText, err)
	}
	return strings.TrimSpace(string(b)), nil
}
