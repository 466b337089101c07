package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"server/internal/domain"
)

// defaultStylePrefix is the baked-in visual style applied to every subject
// when STYLE_PREFIX is not set.
const defaultStylePrefix = "High-detail digital illustration, soft volumetric lighting, " +
	"cohesive editorial style, clean composition, no text or watermarks."

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv           string
	Port             string
	SharedSecret     string
	DatabaseURL      string
	OpenAIAPIKey     string
	OpenAIBaseURL    string
	ImageModel       string
	StylePrefix      string
	DefaultAspect    domain.AspectRatio
	FastParallel     bool
	GenMaxAttempts   int
	GenBackoff       time.Duration
	GenTimeout       time.Duration
	AllowedOrigins   []string
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:           getEnv("APP_ENV", "development"),
		Port:             getEnv("PORT", "8080"),
		SharedSecret:     os.Getenv("API_SHARED_SECRET"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:    getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		ImageModel:       getEnv("IMAGE_MODEL", "gpt-image-1"),
		StylePrefix:      getEnv("STYLE_PREFIX", defaultStylePrefix),
		FastParallel:     getEnvBool("FAST_PARALLEL", true),
		AllowedOrigins:   splitCSV(os.Getenv("CORS_ALLOWED_ORIGINS")),
		GenMaxAttempts:   getEnvInt("GEN_MAX_ATTEMPTS", 3),
		GenBackoff:       time.Millisecond * time.Duration(getEnvInt("GEN_BACKOFF_MS", 750)),
		GenTimeout:       time.Second * time.Duration(getEnvInt("GEN_TIMEOUT_SECONDS", 50)),
		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 120)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
	}

	aspect, err := domain.ParseAspectRatio(getEnv("DEFAULT_ASPECT_RATIO", string(domain.DefaultAspectRatio)))
	if err != nil {
		return nil, fmt.Errorf("DEFAULT_ASPECT_RATIO: %w", err)
	}
	cfg.DefaultAspect = aspect

	if cfg.SharedSecret == "" {
		return nil, fmt.Errorf("API_SHARED_SECRET is required")
	}

	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func splitCSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
