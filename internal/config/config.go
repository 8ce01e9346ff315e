package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Profile  string
	HTTPAddr string

	DatabaseURL   string
	RedisAddr     string
	RedisPassword string

	JWTIssuer       string
	JWTAudience     string
	JWTAccessSecret string
	TokenHashPepper string

	// Session lifecycle limits. WarningLeadTime must be strictly shorter
	// than IdleTimeout; a lead time at or past the idle limit would fire a
	// warning on every single request, so Load rejects it outright.
	IdleTimeout     time.Duration
	AbsoluteTimeout time.Duration
	WarningLeadTime time.Duration
	SweepInterval   time.Duration
	RevocationTTL   time.Duration

	OTELServiceName           string
	OTELEnvironment           string
	OTELExporterOTLPEndpoint  string
	OTELExporterOTLPInsecure  bool
	OTELMetricsEnabled        bool
	OTELTracesEnabled         bool
	OTELLogsEnabled           bool
	OTELMetricsExportInterval time.Duration

	LogDebug bool

	ShutdownTimeout              time.Duration
	ShutdownHTTPDrainTimeout     time.Duration
	ShutdownObservabilityTimeout time.Duration
}

func Load() (*Config, error) {
	cfg, err := load()
	profile := ""
	if cfg != nil {
		profile = cfg.Profile
	}
	recordConfigValidationEvent(context.Background(), profile, outcomeFor(err), classifyConfigLoadError(err))
	return cfg, err
}

func outcomeFor(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

func load() (*Config, error) {
	cfg := &Config{
		Profile:  getEnv("APP_PROFILE", "dev"),
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),

		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		JWTIssuer:       getEnv("JWT_ISSUER", "session-lifecycle-service"),
		JWTAudience:     getEnv("JWT_AUDIENCE", "session-lifecycle-service"),
		JWTAccessSecret: os.Getenv("JWT_ACCESS_SECRET"),
		TokenHashPepper: os.Getenv("TOKEN_HASH_PEPPER"),

		OTELServiceName:          getEnv("OTEL_SERVICE_NAME", "session-lifecycle-service"),
		OTELEnvironment:          getEnv("OTEL_ENVIRONMENT", "dev"),
		OTELExporterOTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
	}

	var err error
	if cfg.IdleTimeout, err = getDuration("SESSION_IDLE_TIMEOUT", 30*time.Minute); err != nil {
		return cfg, err
	}
	if cfg.AbsoluteTimeout, err = getDuration("SESSION_ABSOLUTE_TIMEOUT", 8*time.Hour); err != nil {
		return cfg, err
	}
	if cfg.WarningLeadTime, err = getDuration("SESSION_WARNING_LEAD_TIME", 5*time.Minute); err != nil {
		return cfg, err
	}
	if cfg.SweepInterval, err = getDuration("SESSION_SWEEP_INTERVAL", 5*time.Minute); err != nil {
		return cfg, err
	}
	if cfg.RevocationTTL, err = getDuration("SESSION_REVOCATION_TTL", 24*time.Hour); err != nil {
		return cfg, err
	}
	if cfg.OTELMetricsExportInterval, err = getDuration("OTEL_METRICS_EXPORT_INTERVAL", 15*time.Second); err != nil {
		return cfg, err
	}
	if cfg.ShutdownTimeout, err = getDuration("SHUTDOWN_TIMEOUT", 20*time.Second); err != nil {
		return cfg, err
	}
	if cfg.ShutdownHTTPDrainTimeout, err = getDuration("SHUTDOWN_HTTP_DRAIN_TIMEOUT", 10*time.Second); err != nil {
		return cfg, err
	}
	if cfg.ShutdownObservabilityTimeout, err = getDuration("SHUTDOWN_OBSERVABILITY_TIMEOUT", 5*time.Second); err != nil {
		return cfg, err
	}
	if cfg.OTELExporterOTLPInsecure, err = getBool("OTEL_EXPORTER_OTLP_INSECURE", true); err != nil {
		return cfg, err
	}
	if cfg.OTELMetricsEnabled, err = getBool("OTEL_METRICS_ENABLED", false); err != nil {
		return cfg, err
	}
	if cfg.OTELTracesEnabled, err = getBool("OTEL_TRACES_ENABLED", false); err != nil {
		return cfg, err
	}
	if cfg.OTELLogsEnabled, err = getBool("OTEL_LOGS_ENABLED", false); err != nil {
		return cfg, err
	}
	if cfg.LogDebug, err = getBool("LOG_DEBUG", false); err != nil {
		return cfg, err
	}

	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Profile == "prod" {
		if c.DatabaseURL == "" {
			return fmt.Errorf("validate config: DATABASE_URL is required")
		}
		if c.RedisAddr == "" {
			return fmt.Errorf("validate config: REDIS_ADDR is required")
		}
		if c.JWTAccessSecret == "" {
			return fmt.Errorf("validate config: JWT_ACCESS_SECRET is required")
		}
	}
	if c.IdleTimeout <= 0 {
		return fmt.Errorf("validate config: SESSION_IDLE_TIMEOUT must be positive")
	}
	if c.AbsoluteTimeout <= 0 {
		return fmt.Errorf("validate config: SESSION_ABSOLUTE_TIMEOUT must be positive")
	}
	if c.WarningLeadTime < 0 {
		return fmt.Errorf("validate config: SESSION_WARNING_LEAD_TIME must not be negative")
	}
	if c.WarningLeadTime >= c.IdleTimeout {
		return fmt.Errorf("validate config: SESSION_WARNING_LEAD_TIME must be shorter than SESSION_IDLE_TIMEOUT")
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("validate config: SESSION_SWEEP_INTERVAL must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}

func getBool(key string, fallback bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", key, err)
	}
	return v, nil
}
