package pipeline

import (
	"errors"
	"fmt"
)

// Mensajes visibles para el usuario.
const (
	MsgUploadFailed     = "File Upload Failed"
	MsgSummaryFailed    = "Failed to generate summary"
	MsgSummaryOK        = "Summary generated successfully"
	MsgNotAuthenticated = "User not authenticated"
	MsgSavedOK          = "PDF summary saved successfully"
	MsgListOK           = "Summaries loaded successfully"
	MsgListFailed       = "Failed to load summaries"
)

// Result es el sobre uniforme que devuelve cada operación. Data es nil
// siempre que Success es false. Err conserva la causa (con su etapa) para logs,
// métricas y el mapeo a status HTTP; no se serializa.
type Result[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    *T     `json:"data"`
	Err     error  `json:"-"`
}

func ok[T any](msg string, data T) Result[T] {
	return Result[T]{Success: true, Message: msg, Data: &data}
}

func fail[T any](msg string, stage Stage, err error) Result[T] {
	return Result[T]{Message: msg, Err: &StageError{Stage: stage, Err: err}}
}

// Stage identifica en qué paso falló una operación.
type Stage string

const (
	StageValidate  Stage = "validate"
	StageAuth      Stage = "auth"
	StageExtract   Stage = "extract"
	StageSummarize Stage = "summarize"
	StagePersist   Stage = "persist"
	StageList      Stage = "list"
)

var (
	ErrInvalidUpload    = errors.New("pipeline: upload result missing or without file url")
	ErrNotAuthenticated = errors.New("pipeline: no caller identity")
	ErrSummaryRejected  = errors.New("pipeline: summarizer reported failure")
)

type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s: %v", e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

// StageOf devuelve la etapa de err, o "" si no viene de un StageError.
func StageOf(err error) Stage {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}
