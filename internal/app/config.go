package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/Sparkonix11/Knowtopia/internal/platform/envutil"
	"github.com/Sparkonix11/Knowtopia/internal/platform/logger"
)

type Config struct {
	Port           string
	Environment    string
	JWTSecretKey   string
	AccessTokenTTL time.Duration
	CookieSecure   bool
	AllowedOrigins []string

	// GCPEnabled turns on the Vision, Document AI, Speech and Video clients.
	GCPEnabled   bool
	LanguageCode string

	OtelServiceName   string
	SessionPurgeEvery time.Duration
}

func LoadConfig(log *logger.Logger) (Config, error) {
	cfg := Config{
		Port:              envutil.String("PORT", "8080"),
		Environment:       envutil.String("APP_ENV", "development"),
		JWTSecretKey:      strings.TrimSpace(envutil.String("JWT_SECRET_KEY", "")),
		AccessTokenTTL:    time.Duration(envutil.Int("ACCESS_TOKEN_TTL", 86400)) * time.Second,
		CookieSecure:      envutil.Bool("COOKIE_SECURE", false),
		AllowedOrigins:    envutil.List("CORS_ALLOWED_ORIGINS", nil),
		GCPEnabled:        envutil.Bool("GCP_ENABLED", gcpCredentialsPresent()),
		LanguageCode:      envutil.String("TRANSCRIPT_LANGUAGE_CODE", "en-US"),
		OtelServiceName:   envutil.String("OTEL_SERVICE_NAME", "knowtopia-api"),
		SessionPurgeEvery: time.Duration(envutil.Int("SESSION_PURGE_INTERVAL_SECONDS", 3600)) * time.Second,
	}
	if cfg.JWTSecretKey == "" {
		return cfg, fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if cfg.AccessTokenTTL <= 0 {
		log.Warn("ACCESS_TOKEN_TTL must be positive; using default", "value", cfg.AccessTokenTTL)
		cfg.AccessTokenTTL = 24 * time.Hour
	}
	return cfg, nil
}

func gcpCredentialsPresent() bool {
	return envutil.String("GOOGLE_APPLICATION_CREDENTIALS", "") != "" ||
		envutil.String("GOOGLE_APPLICATION_CREDENTIALS_JSON", "") != ""
}
