// Package summarizer convierte el texto extraído de un PDF en un resumen
// markdown usando un LLM remoto.
package summarizer

import (
	"context"
	"errors"
	"unicode/utf8"
)

// TruncationMarker se agrega al texto recortado por TrimText.
const TruncationMarker = "\n\n[Document truncated due to length...]"

// DefaultMaxInputChars es el tope de texto enviado al proveedor.
const DefaultMaxInputChars = 25000

var ErrMissingAPIKey = errors.New("summarizer: api key not configured")

// Result es la única forma del resumen fuera de este paquete: Summary es
// siempre texto plano markdown. Title es opcional.
type Result struct {
	Success bool
	Summary string
	Title   string
	Error   string
}

// Summarizer es lo que consume el pipeline. Un error devuelto y un Result con
// Success=false se tratan igual aguas arriba.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (Result, error)
}

// Func adapta una función a Summarizer (útil en tests).
type Func func(ctx context.Context, text string) (Result, error)

func (f Func) Summarize(ctx context.Context, text string) (Result, error) { return f(ctx, text) }

// TrimText deja pasar text si tiene como mucho max caracteres; si no, corta en
// exactamente max caracteres y agrega TruncationMarker. Cuenta runes, no bytes.
// max <= 0 desactiva el recorte.
func TrimText(text string, max int) string {
	if max <= 0 || utf8.RuneCountInString(text) <= max {
		return text
	}
	n := 0
	for i := range text {
		if n == max {
			return text[:i] + TruncationMarker
		}
		n++
	}
	return text
}
