package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	APIPort  string `yaml:"api_port"`
	LogLevel string `yaml:"log_level"`

	// Empty DSN disables chat history persistence.
	PostgresDSN string `yaml:"postgres_dsn"`

	QdrantURL          string `yaml:"qdrant_url"`
	QdrantAPIKey       string `yaml:"qdrant_api_key"`
	QdrantCollectionEN string `yaml:"qdrant_collection_en"`
	QdrantCollectionUR string `yaml:"qdrant_collection_ur"`

	CohereAPIKey     string `yaml:"cohere_api_key"`
	CohereEmbedModel string `yaml:"cohere_embed_model"`

	GroqAPIKey        string `yaml:"groq_api_key"`
	GroqModel         string `yaml:"groq_model"`
	GroqFallbackModel string `yaml:"groq_fallback_model"`

	ChatTopK            int     `yaml:"chat_top_k"`
	ChatMinScore        float64 `yaml:"chat_min_score"`
	ChatMaxPromptChars  int     `yaml:"chat_max_prompt_chars"`
	ChatMaxAnswerTokens int     `yaml:"chat_max_answer_tokens"`
	ChatTimeoutSeconds  int     `yaml:"chat_timeout_seconds"`

	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`

	APIRateLimitRPS   float64 `yaml:"api_rate_limit_rps"`
	APIRateLimitBurst int     `yaml:"api_rate_limit_burst"`
	APIMaxConcurrent  int     `yaml:"api_max_concurrent"`
}

// Load reads configuration from the environment. When CONFIG_FILE points at
// a YAML file, its values overlay the environment-derived ones.
func Load() (Config, error) {
	cfg := Config{
		APIPort:  mustEnv("API_PORT", "8080"),
		LogLevel: mustEnv("LOG_LEVEL", "info"),

		PostgresDSN: mustEnv("POSTGRES_DSN", ""),

		QdrantURL:          mustEnv("QDRANT_URL", "http://localhost:6333"),
		QdrantAPIKey:       mustEnv("QDRANT_API_KEY", ""),
		QdrantCollectionEN: mustEnv("QDRANT_COLLECTION_EN", "textbook_en"),
		QdrantCollectionUR: mustEnv("QDRANT_COLLECTION_UR", "textbook_ur"),

		CohereAPIKey:     mustEnv("COHERE_API_KEY", ""),
		CohereEmbedModel: mustEnv("COHERE_EMBED_MODEL", "embed-multilingual-v3.0"),

		GroqAPIKey:        mustEnv("GROQ_API_KEY", ""),
		GroqModel:         mustEnv("GROQ_MODEL", "llama-3.1-70b-versatile"),
		GroqFallbackModel: mustEnv("GROQ_FALLBACK_MODEL", "llama-3.1-8b-instant"),

		ChatTopK:            mustEnvInt("CHAT_TOP_K", 5),
		ChatMinScore:        mustEnvFloat("CHAT_MIN_SCORE", 0.5),
		ChatMaxPromptChars:  mustEnvInt("CHAT_MAX_PROMPT_CHARS", 12000),
		ChatMaxAnswerTokens: mustEnvInt("CHAT_MAX_ANSWER_TOKENS", 1000),
		ChatTimeoutSeconds:  mustEnvInt("CHAT_TIMEOUT_SECONDS", 10),

		ChunkSize:    mustEnvInt("CHUNK_SIZE", 3200),
		ChunkOverlap: mustEnvInt("CHUNK_OVERLAP", 320),

		APIRateLimitRPS:   mustEnvFloat("API_RATE_LIMIT_RPS", 0),
		APIRateLimitBurst: mustEnvInt("API_RATE_LIMIT_BURST", 0),
		APIMaxConcurrent:  mustEnvInt("API_MAX_CONCURRENT", 0),
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	return cfg, nil
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}
