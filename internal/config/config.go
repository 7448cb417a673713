package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// 補完プロバイダー名。
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// OAuth
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	// Completion provider
	CompletionProvider string
	GoogleAPIKey       string
	GeminiModel        string
	OpenAIAPIKey       string
	OpenAIModel        string
	AnalysisWordLimit  int
	AnalysisTimeout    time.Duration

	// Session
	SessionMaxAge          int
	SessionCleanupInterval time.Duration

	// Logging
	LogLevel string

	// Server
	ServerPort string
	BaseURL    string

	// Cookie
	CookieSecure bool
	CookieDomain string

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
// 補完プロバイダーのAPIキーは選択したプロバイダーの分のみ必須とする。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string
	required := func(key string) string {
		v := os.Getenv(key)
		if v == "" {
			missing = append(missing, key)
		}
		return v
	}

	cfg.DatabaseURL = required("DATABASE_URL")
	cfg.GoogleClientID = required("GOOGLE_CLIENT_ID")
	cfg.GoogleClientSecret = required("GOOGLE_CLIENT_SECRET")
	cfg.GoogleRedirectURL = required("GOOGLE_REDIRECT_URL")
	cfg.BaseURL = required("BASE_URL")

	cfg.CompletionProvider = strings.ToLower(getEnvString("COMPLETION_PROVIDER", ProviderGemini))
	switch cfg.CompletionProvider {
	case ProviderGemini:
		cfg.GoogleAPIKey = required("GOOGLE_API_KEY")
	case ProviderOpenAI:
		cfg.OpenAIAPIKey = required("OPENAI_API_KEY")
	default:
		return nil, fmt.Errorf("unsupported COMPLETION_PROVIDER: %q (want %q or %q)",
			cfg.CompletionProvider, ProviderGemini, ProviderOpenAI)
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.GeminiModel = getEnvString("GEMINI_MODEL", "")
	cfg.OpenAIModel = getEnvString("OPENAI_MODEL", "")
	cfg.AnalysisWordLimit = getEnvInt("ANALYSIS_WORD_LIMIT", 150)
	cfg.AnalysisTimeout = getEnvDuration("ANALYSIS_TIMEOUT", 60*time.Second)
	cfg.SessionMaxAge = getEnvInt("SESSION_MAX_AGE", 86400)
	cfg.SessionCleanupInterval = getEnvDuration("SESSION_CLEANUP_INTERVAL", time.Hour)
	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CookieSecure = strings.HasPrefix(cfg.BaseURL, "https://")
	cfg.CookieDomain = getEnvString("COOKIE_DOMAIN", "")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "")

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil || i <= 0 {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}
