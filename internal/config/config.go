package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		// dev | staging | prod
		Env string `yaml:"app_env"`
	} `yaml:"app"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	Server struct {
		Addr               string   `yaml:"addr"`
		CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
		// Límite para bodies JSON (no aplica al PDF, que se descarga por URL).
		MaxBodyBytes    int64  `yaml:"max_body_bytes"`
		ShutdownTimeout string `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	Storage struct {
		Driver   string `yaml:"driver"` // postgres | sqlite
		DSN      string `yaml:"dsn"`
		Postgres struct {
			MaxOpenConns    int    `yaml:"max_open_conns"`
			MaxIdleConns    int    `yaml:"max_idle_conns"`
			ConnMaxLifetime string `yaml:"conn_max_lifetime"`
		} `yaml:"postgres"`
	} `yaml:"storage"`

	Cache struct {
		Kind  string `yaml:"kind"` // memory | redis
		Redis struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
		// TTL de la marca "usuario ya asegurado" del persistence adapter.
		KnownUserTTL string `yaml:"known_user_ttl"`
	} `yaml:"cache"`

	Rate struct {
		Enabled     bool   `yaml:"enabled"`
		Window      string `yaml:"window"`
		MaxRequests int    `yaml:"max_requests"`
	} `yaml:"rate"`

	Auth struct {
		// HS256 con secreto compartido o RS256 con la clave pública del proveedor.
		HMACSecret    string `yaml:"hmac_secret"`
		PublicKeyFile string `yaml:"public_key_file"`
		Issuer        string `yaml:"issuer"`
		Audience      string `yaml:"audience"`
	} `yaml:"auth"`

	Summarizer struct {
		APIKey string `yaml:"api_key"`
		Model  string `yaml:"model"`
		// nil = default; 0 es un valor válido (salida determinista)
		Temperature     *float64 `yaml:"temperature"`
		TopP            *float64 `yaml:"top_p"`
		TopK            *int     `yaml:"top_k"`
		MaxOutputTokens int      `yaml:"max_output_tokens"`
		MaxInputChars   int      `yaml:"max_input_chars"`
	} `yaml:"summarizer"`

	Extractor struct {
		MaxFileBytes int64 `yaml:"max_file_bytes"`
		MaxPages     int   `yaml:"max_pages"`
	} `yaml:"extractor"`

	Flags struct {
		Migrate bool `yaml:"migrate"`
	} `yaml:"flags"`
}

// Load lee el YAML (opcional: path vacío o inexistente => solo env + defaults),
// aplica overrides por env y valida.
func Load(path string) (*Config, error) {
	var c Config
	// bools con default true: se fijan antes del YAML para que solo los pise una clave explícita
	c.Rate.Enabled = true

	if strings.TrimSpace(path) != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(b, &c); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
			// sin archivo: seguimos con env
		default:
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	c.applyEnvOverrides()
	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.MaxBodyBytes == 0 {
		c.Server.MaxBodyBytes = 1 << 20
	}
	if c.Server.ShutdownTimeout == "" {
		c.Server.ShutdownTimeout = "15s"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "postgres"
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.Cache.KnownUserTTL == "" {
		c.Cache.KnownUserTTL = "1h"
	}
	if c.Rate.Window == "" {
		c.Rate.Window = "1m"
	}
	if c.Rate.MaxRequests == 0 {
		c.Rate.MaxRequests = 10
	}
	// Valores del cliente Gemini original
	if c.Summarizer.Model == "" {
		c.Summarizer.Model = "gemini-2.0-flash"
	}
	if c.Summarizer.Temperature == nil {
		c.Summarizer.Temperature = ptr(0.7)
	}
	if c.Summarizer.TopP == nil {
		c.Summarizer.TopP = ptr(0.95)
	}
	if c.Summarizer.TopK == nil {
		c.Summarizer.TopK = ptr(40)
	}
	if c.Summarizer.MaxOutputTokens == 0 {
		c.Summarizer.MaxOutputTokens = 4096
	}
	if c.Summarizer.MaxInputChars == 0 {
		c.Summarizer.MaxInputChars = 25000
	}
	if c.Extractor.MaxFileBytes == 0 {
		c.Extractor.MaxFileBytes = 16 << 20 // límite del uploader
	}
}

// Validate falla rápido ante configuración que rompería recién en runtime.
// Cubre lo que necesita cualquier comando; lo propio del servidor va en
// ValidateServe.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Storage.DSN) == "" {
		errs = append(errs, errors.New("storage.dsn is required (STORAGE_DSN)"))
	}
	switch c.Storage.Driver {
	case "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("storage.driver %q not supported", c.Storage.Driver))
	}
	switch c.Cache.Kind {
	case "memory":
	case "redis":
		if strings.TrimSpace(c.Cache.Redis.Addr) == "" {
			errs = append(errs, errors.New("cache.redis.addr is required when cache.kind=redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("cache.kind %q not supported", c.Cache.Kind))
	}
	for name, v := range map[string]string{
		"server.shutdown_timeout":            c.Server.ShutdownTimeout,
		"storage.postgres.conn_max_lifetime": c.Storage.Postgres.ConnMaxLifetime,
		"cache.known_user_ttl":               c.Cache.KnownUserTTL,
		"rate.window":                        c.Rate.Window,
	} {
		if v == "" {
			continue
		}
		if _, err := time.ParseDuration(v); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}

	if c.Summarizer.MaxInputChars < 0 || c.Extractor.MaxFileBytes < 0 {
		errs = append(errs, errors.New("limits must be positive"))
	}
	if t := c.Summarizer.Temperature; t != nil && (*t < 0 || *t > 2) {
		errs = append(errs, fmt.Errorf("summarizer.temperature %v out of range [0,2]", *t))
	}
	if p := c.Summarizer.TopP; p != nil && (*p < 0 || *p > 1) {
		errs = append(errs, fmt.Errorf("summarizer.top_p %v out of range [0,1]", *p))
	}
	if k := c.Summarizer.TopK; k != nil && *k < 0 {
		errs = append(errs, fmt.Errorf("summarizer.top_k %d must be >= 0", *k))
	}

	return errors.Join(errs...)
}

// ValidateServe agrega lo que exige el servidor HTTP: API key de Gemini y
// clave de verificación de JWT. migrate y token no lo llaman.
func (c *Config) ValidateServe() error {
	var errs []error
	if strings.TrimSpace(c.Summarizer.APIKey) == "" {
		errs = append(errs, errors.New("summarizer.api_key is required (GEMINI_API_KEY)"))
	}
	if c.Auth.HMACSecret == "" && c.Auth.PublicKeyFile == "" {
		errs = append(errs, errors.New("auth.hmac_secret or auth.public_key_file is required"))
	}
	return errors.Join(errs...)
}

// MustDuration parsea una duración ya validada por Validate.
func MustDuration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}

func ptr[T any](v T) *T { return &v }

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}

func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}

func getEnvInt64(key string) (int64, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
			return i, true
		}
	}
	return 0, false
}

func getEnvFloat(key string) (float64, bool) {
	if s, ok := getEnvStr(key); ok {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}

func getEnvCSV(key string) ([]string, bool) {
	s, ok := getEnvStr(key)
	if !ok {
		return nil, false
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out, true
}

// applyEnvOverrides pisa el YAML con variables de entorno.
func (c *Config) applyEnvOverrides() {
	// APP / LOG
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.Log.Level = v
	}

	// SERVER
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvCSV("SERVER_CORS_ALLOWED_ORIGINS"); ok {
		c.Server.CORSAllowedOrigins = v
	}
	if v, ok := getEnvInt64("SERVER_MAX_BODY_BYTES"); ok {
		c.Server.MaxBodyBytes = v
	}

	// STORAGE
	if v, ok := getEnvStr("STORAGE_DRIVER"); ok {
		c.Storage.Driver = strings.ToLower(v)
	}
	if v, ok := getEnvStr("STORAGE_DSN"); ok {
		c.Storage.DSN = v
	} else if v, ok := getEnvStr("DATABASE_URL"); ok {
		c.Storage.DSN = v
	}
	if v, ok := getEnvInt("POSTGRES_MAX_OPEN_CONNS"); ok {
		c.Storage.Postgres.MaxOpenConns = v
	}
	if v, ok := getEnvInt("POSTGRES_MAX_IDLE_CONNS"); ok {
		c.Storage.Postgres.MaxIdleConns = v
	}
	if v, ok := getEnvStr("POSTGRES_CONN_MAX_LIFETIME"); ok {
		c.Storage.Postgres.ConnMaxLifetime = v
	}

	// CACHE
	if v, ok := getEnvStr("CACHE_KIND"); ok {
		c.Cache.Kind = strings.ToLower(v)
	}
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Cache.Redis.Addr = v
	}
	if v, ok := getEnvStr("REDIS_PASSWORD"); ok {
		c.Cache.Redis.Password = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Cache.Redis.DB = v
	}
	if v, ok := getEnvStr("REDIS_PREFIX"); ok {
		c.Cache.Redis.Prefix = v
	}
	if v, ok := getEnvStr("CACHE_KNOWN_USER_TTL"); ok {
		c.Cache.KnownUserTTL = v
	}

	// RATE
	if v, ok := getEnvBool("RATE_ENABLED"); ok {
		c.Rate.Enabled = v
	}
	if v, ok := getEnvStr("RATE_WINDOW"); ok {
		c.Rate.Window = v
	}
	if v, ok := getEnvInt("RATE_MAX_REQUESTS"); ok {
		c.Rate.MaxRequests = v
	}

	// AUTH
	if v, ok := getEnvStr("AUTH_HMAC_SECRET"); ok {
		c.Auth.HMACSecret = v
	}
	if v, ok := getEnvStr("AUTH_PUBLIC_KEY_FILE"); ok {
		c.Auth.PublicKeyFile = v
	}
	if v, ok := getEnvStr("AUTH_ISSUER"); ok {
		c.Auth.Issuer = v
	}
	if v, ok := getEnvStr("AUTH_AUDIENCE"); ok {
		c.Auth.Audience = v
	}

	// SUMMARIZER
	if v, ok := getEnvStr("GEMINI_API_KEY"); ok {
		c.Summarizer.APIKey = v
	}
	if v, ok := getEnvStr("GEMINI_MODEL"); ok {
		c.Summarizer.Model = v
	}
	if v, ok := getEnvFloat("SUMMARIZER_TEMPERATURE"); ok {
		c.Summarizer.Temperature = &v
	}
	if v, ok := getEnvFloat("SUMMARIZER_TOP_P"); ok {
		c.Summarizer.TopP = &v
	}
	if v, ok := getEnvInt("SUMMARIZER_TOP_K"); ok {
		c.Summarizer.TopK = &v
	}
	if v, ok := getEnvInt("SUMMARIZER_MAX_OUTPUT_TOKENS"); ok {
		c.Summarizer.MaxOutputTokens = v
	}
	if v, ok := getEnvInt("SUMMARIZER_MAX_INPUT_CHARS"); ok {
		c.Summarizer.MaxInputChars = v
	}

	// EXTRACTOR
	if v, ok := getEnvInt64("EXTRACTOR_MAX_FILE_BYTES"); ok {
		c.Extractor.MaxFileBytes = v
	}
	if v, ok := getEnvInt("EXTRACTOR_MAX_PAGES"); ok {
		c.Extractor.MaxPages = v
	}

	// FLAGS
	if v, ok := getEnvBool("FLAGS_MIGRATE"); ok {
		c.Flags.Migrate = v
	}
}
