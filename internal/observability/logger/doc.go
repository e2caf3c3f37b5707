// Package logger expone un logger Zap único con soporte de scoping por contexto.
//
// Inicialización (una vez, en cmd/service):
//
//	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level, ServiceName: "pdfsummary"})
//	defer logger.Sync()
//
// En controllers y servicios se usa el logger del request:
//
//	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("Pipeline.Summarize"))
//	log.Warn("extraction failed", logger.Stage("extract"), logger.Err(err))
package logger
