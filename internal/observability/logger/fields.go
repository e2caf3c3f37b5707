package logger

import (
	"time"

	"go.uber.org/zap"
)

// ─── HTTP ───

func RequestID(v string) zap.Field { return zap.String("request_id", v) }
func Method(v string) zap.Field { return zap.String("method", v) }
func Path(v string) zap.Field { return zap.String("path", v) }
func Status(v int) zap.Field { return zap.Int("status", v) }
func Bytes(v int) zap.Field { return zap.Int("bytes", v) }
func DurationMs(v int64) zap.Field { return zap.Int64("duration_ms", v) }
func Duration(v time.Duration) zap.Field { return zap.Duration("duration", v) }
func ClientIP(v string) zap.Field { return zap.String("client_ip", v) }

// ─── Dominio ───

// UserID es el id interno (UUID derivado). ExternalID es el del proveedor de auth.
func UserID(v string) zap.Field { return zap.String("user_id", v) }
func ExternalID(v string) zap.Field { return zap.String("external_user_id", v) }
func FileName(v string) zap.Field { return zap.String("file_name", v) }
func FileURL(v string) zap.Field { return zap.String("file_url", v) }

// Stage identifica la etapa del pipeline: validate | extract | summarize | persist.
func Stage(v string) zap.Field { return zap.String("stage", v) }

// Chars registra longitudes de texto (extraído, enviado al LLM, resumen).
func Chars(key string, n int) zap.Field { return zap.Int(key, n) }

// ─── Sistema ───

func Component(v string) zap.Field { return zap.String("component", v) }
func Op(v string) zap.Field { return zap.String("op", v) }
func Layer(v string) zap.Field { return zap.String("layer", v) }
func Err(err error) zap.Field { return zap.Error(err) }

func String(key, v string) zap.Field { return zap.String(key, v) }
func Int(key string, v int) zap.Field { return zap.Int(key, v) }
func Bool(key string, v bool) zap.Field { return zap.Bool(key, v) }
func Any(key string, v any) zap.Field { return zap.Any(key, v) }
