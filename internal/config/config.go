package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        int
	DatabaseURL string
	NatsURL     string
	NatsToken   string
	LogLevel    string

	OllamaURL   string
	OllamaModel string

	EmbedProvider  string // "ollama" or "openai"
	EmbedModel     string
	EmbedDimension int
	OpenAIAPIKey   string

	ChunkWidth   int
	ChunkOverlap int

	TopK           int
	ScoreThreshold float64

	LLMTimeout time.Duration
	SessionTTL time.Duration
}

// Load reads configuration from the environment, optionally seeded from a
// .env file. A missing .env file is not an error.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Port:        envInt("PARLEY_PORT", 8460),
		DatabaseURL: envStr("DATABASE_URL", ""),
		NatsURL:     envStr("NATS_URL", ""),
		NatsToken:   envStr("NATS_TOKEN", ""),
		LogLevel:    envStr("LOG_LEVEL", "info"),

		OllamaURL:   envStr("OLLAMA_URL", "http://localhost:11434"),
		OllamaModel: envStr("PARLEY_MODEL", "llama3.2:1b"),

		EmbedProvider:  envStr("EMBED_PROVIDER", "ollama"),
		EmbedModel:     envStr("EMBED_MODEL", "nomic-embed-text"),
		EmbedDimension: envInt("EMBED_DIMENSION", 768),
		OpenAIAPIKey:   envStr("OPENAI_API_KEY", ""),

		ChunkWidth:   envInt("CHUNK_WIDTH", 800),
		ChunkOverlap: envInt("CHUNK_OVERLAP", 100),

		TopK:           envInt("RETRIEVAL_TOP_K", 5),
		ScoreThreshold: envFloat("RETRIEVAL_THRESHOLD", 0.35),

		LLMTimeout: envDuration("LLM_TIMEOUT", 30*time.Second),
		SessionTTL: envDuration("SESSION_TTL", 24*time.Hour),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
