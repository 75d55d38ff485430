package config

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env          string             `json:"env"`
	Http         HttpConfig         `json:"http"`
	Postgres     PostgresConfig     `json:"postgres"`
	Redis        RedisConfig        `json:"redis"`
	Auth         AuthConfig         `json:"auth"`
	Verification VerificationConfig `json:"verification"`
	Geo          GeoConfig          `json:"geo"`
	Reports      ReportsConfig      `json:"reports"`
	Sessions     SessionsConfig     `json:"sessions"`
}

type HttpConfig struct {
	Port            string        `json:"port"`
	ReadTimeout     time.Duration `json:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
	RateLimitRPS    float64       `json:"rate_limit_rps"`
	RateLimitBurst  int           `json:"rate_limit_burst"`
}

type PostgresConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Database string `json:"database"`
	User     string `json:"user"`
	Password string `json:"password,omitempty"`
	SSLMode  string `json:"ssl_mode"`
	Migrate  bool   `json:"migrate"`

	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type RedisConfig struct {
	Addr     string `json:"addr"`
	Password string `json:"password,omitempty"`
	DB       int    `json:"db"`
}

type AuthConfig struct {
	JWTSecret string        `json:"-"`
	TokenTTL  time.Duration `json:"token_ttl"`
	Issuer    string        `json:"issuer"`
}

type VerificationConfig struct {
	// Mode is "accept_any" or "stored".
	Mode            string        `json:"mode"`
	CooldownSeconds int           `json:"cooldown_seconds"`
	CodeLength      int           `json:"code_length"`
	CodeTTL         time.Duration `json:"code_ttl"`
	DispatchURL     string        `json:"dispatch_url"`
	DispatchEnabled bool          `json:"dispatch_enabled"`
	Workers         int           `json:"workers"`
}

type GeoConfig struct {
	// Mode is "placeholder" or "nominatim".
	Mode      string        `json:"mode"`
	BaseURL   string        `json:"base_url"`
	UserAgent string        `json:"user_agent"`
	Timeout   time.Duration `json:"timeout"`
}

type ReportsConfig struct {
	PointsPerReport int           `json:"points_per_report"`
	CacheTTL        time.Duration `json:"cache_ttl"`
	RecentWindow    time.Duration `json:"recent_window"`
	PublicBaseURL   string        `json:"public_base_url"`
}

type SessionsConfig struct {
	TTL             time.Duration `json:"ttl"`
	JanitorInterval time.Duration `json:"janitor_interval"`
}

func Load(ctx context.Context) (*Config, error) {

	stdLogger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		stdLogger.Warn(".env load warning", slog.Any("error", err))
	}

	cfg := &Config{
		Env: getEnv("ENV", "local"),
		Http: HttpConfig{
			Port:            getEnv("HTTP_PORT", ":8080"),
			ReadTimeout:     getEnvDuration("HTTP_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvDuration("HTTP_WRITE_TIMEOUT", 15*time.Second),
			ShutdownTimeout: getEnvDuration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
			RateLimitRPS:    getEnvFloat("HTTP_RATE_LIMIT_RPS", 5),
			RateLimitBurst:  getEnvInt("HTTP_RATE_LIMIT_BURST", 10),
		},
		Postgres: PostgresConfig{
			Host:            getEnv("POSTGRES_HOST", "pg-local"),
			Port:            getEnvInt("POSTGRES_PORT", 5432),
			Database:        getEnv("POSTGRES_DB", "adespota"),
			User:            getEnv("POSTGRES_USER", "postgres"),
			Password:        getEnv("POSTGRES_PASSWORD", "postgres"),
			SSLMode:         getEnv("POSTGRES_SSL_MODE", "disable"),
			Migrate:         getEnvBool("POSTGRES_MIGRATE", true),
			MaxConns:        int32(getEnvInt("POSTGRES_MAX_CONNS", 20)),
			MinConns:        1,
			MaxConnLifetime: 1 * time.Hour,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "redis-local:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
			TokenTTL:  getEnvDuration("JWT_TTL", 24*time.Hour),
			Issuer:    getEnv("JWT_ISSUER", "adespota"),
		},
		Verification: VerificationConfig{
			Mode:            getEnv("VERIFICATION_MODE", "accept_any"),
			CooldownSeconds: getEnvInt("VERIFICATION_COOLDOWN_SECONDS", 60),
			CodeLength:      getEnvInt("VERIFICATION_CODE_LENGTH", 6),
			CodeTTL:         getEnvDuration("VERIFICATION_CODE_TTL", 15*time.Minute),
			DispatchURL:     getEnv("VERIFICATION_DISPATCH_URL", ""),
			DispatchEnabled: getEnvBool("VERIFICATION_DISPATCH_ENABLED", false),
			Workers:         getEnvInt("VERIFICATION_WORKERS", 2),
		},
		Geo: GeoConfig{
			Mode:      getEnv("GEO_MODE", "placeholder"),
			BaseURL:   getEnv("GEO_BASE_URL", "https://nominatim.openstreetmap.org"),
			UserAgent: getEnv("GEO_USER_AGENT", "adespota/1.0"),
			Timeout:   getEnvDuration("GEO_TIMEOUT", 5*time.Second),
		},
		Reports: ReportsConfig{
			PointsPerReport: getEnvInt("REPORTS_POINTS_PER_REPORT", 10),
			CacheTTL:        getEnvDuration("REPORTS_CACHE_TTL", 30*time.Second),
			RecentWindow:    getEnvDuration("REPORTS_RECENT_WINDOW", 7*24*time.Hour),
			PublicBaseURL:   getEnv("REPORTS_PUBLIC_BASE_URL", "https://www.adespotagr.org"),
		},
		Sessions: SessionsConfig{
			TTL:             getEnvDuration("SESSIONS_TTL", 30*time.Minute),
			JanitorInterval: getEnvDuration("SESSIONS_JANITOR_INTERVAL", time.Minute),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	stdLogger.Info("Config loaded successfully",
		slog.String("env", cfg.Env),
		slog.String("http_port", cfg.Http.Port),
		slog.String("postgres_db", cfg.Postgres.Database),
		slog.String("redis_addr", cfg.Redis.Addr),
		slog.String("verification_mode", cfg.Verification.Mode),
		slog.String("geo_mode", cfg.Geo.Mode))

	return cfg, nil
}

func (c *Config) Validate() error {

	if c.Http.Port == "" || c.Http.Port[0] != ':' {
		return errors.New("HTTP_PORT must start with ':' like ':8080'")
	}

	if c.Postgres.Host == "" {
		return errors.New("POSTGRES_HOST required")
	}

	if len(c.Auth.JWTSecret) < 16 {
		return errors.New("JWT_SECRET must be at least 16 characters")
	}

	switch c.Verification.Mode {
	case "accept_any", "stored":
	default:
		return errors.New("VERIFICATION_MODE must be accept_any or stored")
	}
	if c.Verification.CodeLength < 4 {
		return errors.New("VERIFICATION_CODE_LENGTH must be at least 4")
	}
	if c.Verification.CooldownSeconds <= 0 {
		return errors.New("VERIFICATION_COOLDOWN_SECONDS must be positive")
	}
	if c.Verification.DispatchEnabled && c.Verification.DispatchURL == "" {
		return errors.New("VERIFICATION_DISPATCH_URL required when dispatch is enabled")
	}

	switch c.Geo.Mode {
	case "placeholder", "nominatim":
	default:
		return errors.New("GEO_MODE must be placeholder or nominatim")
	}

	if c.Reports.PointsPerReport < 0 {
		return errors.New("REPORTS_POINTS_PER_REPORT must not be negative")
	}

	if c.Sessions.TTL <= 0 || c.Sessions.JanitorInterval <= 0 {
		return errors.New("SESSIONS_TTL and SESSIONS_JANITOR_INTERVAL must be positive")
	}

	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
