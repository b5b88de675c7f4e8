package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Load reads the .env file specified by MAIEUTICA_ENV (or .env by default),
// then loads the corresponding .secret file if it exists.
// All config is flat env vars read via os.Getenv after loading.
func Load() error {
	envFile := os.Getenv("MAIEUTICA_ENV")
	if envFile == "" {
		envFile = ".env"
	}

	// Load main env file (ignore error if file doesn't exist)
	_ = godotenv.Load(envFile)

	// Load secret sidecar if it exists
	_ = godotenv.Load(envFile + ".secret")

	return nil
}

func ServerPort() int {
	port, err := strconv.Atoi(os.Getenv("SERVER_PORT"))
	if err != nil {
		return 8080
	}
	return port
}

func ServerAddr() string {
	return fmt.Sprintf(":%d", ServerPort())
}

func DatabaseURL() string {
	return os.Getenv("DATABASE_URL")
}

func OpenAIAPIKey() string {
	return os.Getenv("OPENAI_API_KEY")
}

func AnthropicAPIKey() string {
	return os.Getenv("ANTHROPIC_API_KEY")
}

func GeminiAPIKey() string {
	return os.Getenv("GEMINI_API_KEY")
}

// LLMProvider returns the configured LLM provider.
// Defaults to "openai" if not set.
// Valid values: openai, anthropic, gemini, mock
func LLMProvider() string {
	p := os.Getenv("LLM_PROVIDER")
	if p == "" {
		return "openai"
	}
	return p
}

// LLMModel overrides the provider's default model when set.
func LLMModel() string {
	return os.Getenv("LLM_MODEL")
}

// LLMAPIKey returns the API key for the configured LLM provider.
func LLMAPIKey() string {
	switch LLMProvider() {
	case "anthropic":
		return AnthropicAPIKey()
	case "gemini":
		return GeminiAPIKey()
	case "mock":
		return ""
	default:
		return OpenAIAPIKey()
	}
}

// EmbeddingProvider returns the configured embedding provider.
// Defaults to "openai" if not set.
// Valid values: openai, mock, none
func EmbeddingProvider() string {
	p := os.Getenv("EMBEDDING_PROVIDER")
	if p == "" {
		return "openai"
	}
	return p
}

// EmbeddingAPIKey returns the API key for the configured embedding provider.
func EmbeddingAPIKey() string {
	switch EmbeddingProvider() {
	case "mock", "none":
		return ""
	default:
		return OpenAIAPIKey()
	}
}

// EventLogDir is where per-session event logs are written.
// Defaults to "logs/sessions".
func EventLogDir() string {
	dir := os.Getenv("EVENT_LOG_DIR")
	if dir == "" {
		return "logs/sessions"
	}
	return dir
}

// MaturityConfidenceThreshold gates snapshot creation.
// Defaults to 0.8 if not set or out of range.
func MaturityConfidenceThreshold() float64 {
	t, err := strconv.ParseFloat(os.Getenv("MATURITY_CONFIDENCE_THRESHOLD"), 64)
	if err != nil || t <= 0 || t > 1 {
		return 0.8
	}
	return t
}

// APIKey is the optional static key protecting the /v1 routes.
// Empty disables authentication.
func APIKey() string {
	return os.Getenv("API_KEY")
}

// RateLimitRPS returns requests per second limit.
// Defaults to 100 if not set.
func RateLimitRPS() float64 {
	rps, err := strconv.ParseFloat(os.Getenv("RATE_LIMIT_RPS"), 64)
	if err != nil || rps <= 0 {
		return 100
	}
	return rps
}

// RateLimitBurst returns the burst size for rate limiting.
// Defaults to 20 if not set.
func RateLimitBurst() int {
	burst, err := strconv.Atoi(os.Getenv("RATE_LIMIT_BURST"))
	if err != nil || burst <= 0 {
		return 20
	}
	return burst
}

// LogLevel returns the log level (debug, info, warn, error).
// Defaults to "info" if not set.
func LogLevel() string {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		return "info"
	}
	return level
}
