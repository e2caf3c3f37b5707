package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dropDatabas3/pdfsummary/internal/app"
	"github.com/dropDatabas3/pdfsummary/internal/config"
	"github.com/dropDatabas3/pdfsummary/internal/jwt"
	"github.com/dropDatabas3/pdfsummary/internal/observability/logger"
)

func main() {
	_ = godotenv.Load(".env")     // base
	_ = godotenv.Load(".env.dev") // dev overrides

	if err := rootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var cfgPath string

	root := &cobra.Command{
		Use:          "pdfsummary",
		Short:        "Servicio de resúmenes de PDF (extracción + Gemini + Postgres)",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", envOr("CONFIG_PATH", "configs/config.yaml"), "Ruta del YAML de config (env CONFIG_PATH)")

	load := func() (*config.Config, error) {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return nil, err
		}
		logger.Init(logger.Config{
			Env:         cfg.App.Env,
			Level:       cfg.Log.Level,
			ServiceName: "pdfsummary",
			Version:     app.Version,
		})
		return cfg, nil
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Levanta el servidor HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if err := cfg.ValidateServe(); err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := app.New(ctx, cfg)
			if err != nil {
				logger.L().Error("startup failed", logger.Err(err))
				return err
			}
			defer a.Close()
			return a.Run(ctx)
		},
	}

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Aplica las migraciones del driver configurado y sale",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			res, err := app.Migrate(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			fmt.Printf("applied=%v skipped=%v duration=%s\n", res.Applied, res.Skipped, res.Duration)
			return nil
		},
	}

	// token: solo para desarrollo con secreto HS256 compartido
	var sub string
	var ttl time.Duration
	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Emite un JWT HS256 de desarrollo para --sub",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if sub == "" {
				return fmt.Errorf("--sub es requerido")
			}
			cfg, err := load()
			if err != nil {
				return err
			}
			if cfg.Auth.HMACSecret == "" {
				return fmt.Errorf("auth.hmac_secret no configurado")
			}
			tok, err := jwt.SignHS256(cfg.Auth.HMACSecret, sub, cfg.Auth.Issuer, cfg.Auth.Audience, ttl)
			if err != nil {
				return err
			}
			fmt.Println(tok)
			return nil
		},
	}
	tokenCmd.Flags().StringVar(&sub, "sub", "", "Id externo del usuario (claim sub)")
	tokenCmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "Vigencia del token")

	root.AddCommand(serveCmd, migrateCmd, tokenCmd)
	return root
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
