package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port      string
	Debug     bool
	LogFormat string
	StaticDir string

	// Upstreams
	ToolboxURL string
	PubChemURL string

	// Language models
	AnthropicAPIKey       string
	AnthropicBaseURL      string
	GeminiAPIKey          string
	DefaultModel          string
	LLMMaxTokens          int
	LLMTimeout            time.Duration
	LLMConcurrentRequests int

	// Access
	JWTSecret          string
	CORSOrigins        []string
	RateLimitPerMinute int
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:      getEnvOrDefault("PORT", "5000"),
		Debug:     getEnvAsBool("DEBUG"),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "json"),
		StaticDir: getEnvOrDefault("STATIC_DIR", "."),

		ToolboxURL: strings.TrimRight(getEnvOrDefault("TOOLBOX_URL", "http://localhost:3000"), "/"),
		PubChemURL: strings.TrimRight(getEnvOrDefault("PUBCHEM_URL", "https://pubchem.ncbi.nlm.nih.gov/rest/pug"), "/"),

		AnthropicAPIKey:       os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicBaseURL:      os.Getenv("ANTHROPIC_BASE_URL"),
		GeminiAPIKey:          os.Getenv("GEMINI_API_KEY"),
		DefaultModel:          getEnvOrDefault("DEFAULT_MODEL", "claude-sonnet-4-5-20250929"),
		LLMMaxTokens:          getEnvAsIntOrDefault("LLM_MAX_TOKENS", 2048),
		LLMTimeout:            getEnvAsDurationOrDefault("LLM_TIMEOUT", 60*time.Second),
		LLMConcurrentRequests: getEnvAsIntOrDefault("LLM_CONCURRENT_REQUESTS", 5),

		JWTSecret:          os.Getenv("JWT_SECRET"),
		CORSOrigins:        getEnvAsList("CORS_ORIGINS", []string{"*"}),
		RateLimitPerMinute: getEnvAsIntOrDefault("RATE_LIMIT_PER_MINUTE", 0),
	}

	return cfg
}

// AuthEnabled reports whether protected routes require a bearer token.
func (c *Config) AuthEnabled() bool {
	return c.JWTSecret != ""
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvAsBool(key string) bool {
	return strings.EqualFold(strings.TrimSpace(os.Getenv(key)), "true")
}

func getEnvAsDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

func getEnvAsList(key string, defaultVal []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
