package config

import (
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	pkgRetry "github.com/futig/datachat/internal/pkg/retry"
	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	// Server configuration
	ServerAddr     string        `env:"SERVER_ADDR" envDefault:":8000"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"120s"`
	CORSOrigins    []string      `env:"CORS_ORIGINS" envDefault:"*" envSeparator:","`

	// External providers
	OpenAICfg    OpenAIConfig    `envPrefix:"OPENAI_"`
	EmbeddingCfg EmbeddingConfig `envPrefix:"EMBEDDING_"`
	LLMCfg       LLMConfig       `envPrefix:"LLM_"`

	// Pipeline configuration
	IngestCfg    IngestConfig    `envPrefix:"INGEST_"`
	RetrievalCfg RetrievalConfig `envPrefix:"RETRIEVAL_"`

	// Logging configuration
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// File upload configuration
	FileUploadCfg FileUploadConfig `envPrefix:"FILE_UPLOAD_"`

	// Mock configuration
	EnableMocks bool `env:"ENABLE_MOCKS" envDefault:"false"`

	// Telegram bot configuration (optional)
	TelegramCfg TelegramConfig `envPrefix:"TELEGRAM_"`

	// Environment (set from flag, not from env var)
	Environment string
}

// OpenAIConfig is shared by the embedding and completion connectors
type OpenAIConfig struct {
	HTTPClientConfig
	APIKey  string `env:"API_KEY"`
	BaseURL string `env:"BASE_URL"`
	OrgID   string `env:"ORG_ID"`
}

type EmbeddingConfig struct {
	Model       string               `env:"MODEL" envDefault:"text-embedding-3-small"`
	Dimension   int                  `env:"DIMENSION" envDefault:"1536"`
	BatchSize   int                  `env:"BATCH_SIZE" envDefault:"64"`
	Concurrency int                  `env:"CONCURRENCY" envDefault:"4"`
	Timeout     time.Duration        `env:"TIMEOUT" envDefault:"30s"`
	CacheTTL    time.Duration        `env:"CACHE_TTL" envDefault:"10m"`
	Retry       pkgRetry.RetryConfig `envPrefix:"RETRY_"`
}

type LLMConfig struct {
	Model       string               `env:"MODEL" envDefault:"gpt-4o"`
	Temperature float32              `env:"TEMPERATURE" envDefault:"0"`
	MaxTokens   int                  `env:"MAX_TOKENS" envDefault:"1024"`
	Seed        int                  `env:"SEED" envDefault:"26"`
	Timeout     time.Duration        `env:"TIMEOUT" envDefault:"60s"`
	Retry       pkgRetry.RetryConfig `envPrefix:"RETRY_"`
}

type IngestConfig struct {
	TextColumn   string `env:"TEXT_COLUMN"`
	ChunkSize    int    `env:"CHUNK_SIZE" envDefault:"2000"`
	ChunkOverlap int    `env:"CHUNK_OVERLAP" envDefault:"200"`
}

type RetrievalConfig struct {
	TopK            int    `env:"TOP_K" envDefault:"3"`
	MaxTopK         int    `env:"MAX_TOP_K" envDefault:"20"`
	DefaultTemplate string `env:"DEFAULT_TEMPLATE"`
	DocumentWords   int    `env:"DOCUMENT_WORD_LIMIT" envDefault:"250"`
}

type HTTPClientConfig struct {
	ConnTimeout           time.Duration `env:"CONN_TIMEOUT" envDefault:"10s"`
	KeepAlive             time.Duration `env:"KEEP_ALIVE" envDefault:"90s"`
	IdleConnTimeout       time.Duration `env:"IDLE_CONN_TIMEOUT" envDefault:"90s"`
	ResponseHeaderTimeout time.Duration `env:"RESPONSE_HEADER_TIMEOUT" envDefault:"60s"`
}

// FileUploadConfig holds file upload limits
type FileUploadConfig struct {
	MaxFileSize   int64 `env:"MAX_FILE_SIZE" envDefault:"10485760"`   // 10 MiB
	MaxUploadSize int64 `env:"MAX_UPLOAD_SIZE" envDefault:"33554432"` // 32 MiB
}

// TelegramConfig holds Telegram bot configuration
type TelegramConfig struct {
	BotToken           string `env:"BOT_TOKEN"`
	UpdateTimeout      int    `env:"UPDATE_TIMEOUT" envDefault:"60"`
	RateLimitPerMinute int    `env:"RATE_LIMIT_PER_MINUTE" envDefault:"20"`
	ShutdownTimeout    int    `env:"SHUTDOWN_TIMEOUT" envDefault:"30"` // seconds
}

func LoadConfig() (*Config, error) {
	envFlag := flag.String("env", "local", "Environment to run (local, prod, or custom)")
	flag.Parse()

	return Load(*envFlag)
}

// Load reads the env file for the given environment and parses the process environment.
func Load(environment string) (*Config, error) {
	envFile := getEnvFile(environment)
	// Try to load env file, but don't fail if it's missing.
	// In containerized/prod environments variables are usually set externally.
	if err := godotenv.Load(envFile); err != nil {
		fmt.Printf("Warning: could not load %s file (this is ok if env vars are set externally): %v\n", envFile, err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	cfg.Environment = environment

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func validateConfig(cfg *Config) error {
	var errors []string

	if !cfg.EnableMocks && cfg.OpenAICfg.APIKey == "" {
		errors = append(errors, "OPENAI_API_KEY is required unless ENABLE_MOCKS=true")
	}

	if cfg.LLMCfg.Temperature < 0 || cfg.LLMCfg.Temperature > 2 {
		errors = append(errors, fmt.Sprintf("LLM_TEMPERATURE must be between 0 and 2, got %g", cfg.LLMCfg.Temperature))
	}

	if cfg.EmbeddingCfg.Dimension < 1 {
		errors = append(errors, fmt.Sprintf("EMBEDDING_DIMENSION must be positive, got %d", cfg.EmbeddingCfg.Dimension))
	}

	if cfg.EmbeddingCfg.BatchSize < 1 || cfg.EmbeddingCfg.BatchSize > 2048 {
		errors = append(errors, fmt.Sprintf("EMBEDDING_BATCH_SIZE must be between 1 and 2048, got %d", cfg.EmbeddingCfg.BatchSize))
	}

	if cfg.EmbeddingCfg.Concurrency < 1 || cfg.EmbeddingCfg.Concurrency > 32 {
		errors = append(errors, fmt.Sprintf("EMBEDDING_CONCURRENCY must be between 1 and 32, got %d", cfg.EmbeddingCfg.Concurrency))
	}

	if cfg.RetrievalCfg.TopK < 1 || cfg.RetrievalCfg.TopK > cfg.RetrievalCfg.MaxTopK {
		errors = append(errors, fmt.Sprintf("RETRIEVAL_TOP_K must be between 1 and RETRIEVAL_MAX_TOP_K(%d), got %d", cfg.RetrievalCfg.MaxTopK, cfg.RetrievalCfg.TopK))
	}

	if cfg.IngestCfg.ChunkSize < 1 {
		errors = append(errors, fmt.Sprintf("INGEST_CHUNK_SIZE must be positive, got %d", cfg.IngestCfg.ChunkSize))
	}

	if cfg.IngestCfg.ChunkOverlap < 0 || cfg.IngestCfg.ChunkOverlap >= cfg.IngestCfg.ChunkSize {
		errors = append(errors, fmt.Sprintf("INGEST_CHUNK_OVERLAP must be between 0 and INGEST_CHUNK_SIZE(%d), got %d", cfg.IngestCfg.ChunkSize, cfg.IngestCfg.ChunkOverlap))
	}

	if cfg.TelegramCfg.RateLimitPerMinute < 1 || cfg.TelegramCfg.RateLimitPerMinute > 60 {
		errors = append(errors, fmt.Sprintf("TELEGRAM_RATE_LIMIT_PER_MINUTE must be between 1 and 60, got %d", cfg.TelegramCfg.RateLimitPerMinute))
	}

	if cfg.TelegramCfg.ShutdownTimeout < 1 || cfg.TelegramCfg.ShutdownTimeout > 300 {
		errors = append(errors, fmt.Sprintf("TELEGRAM_SHUTDOWN_TIMEOUT must be between 1 and 300 seconds, got %d", cfg.TelegramCfg.ShutdownTimeout))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation errors:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

func getEnvFile(environment string) string {
	switch environment {
	case "prod", "production":
		return ".env.prod"
	case "local", "dev", "development":
		return ".env.local"
	default:
		return fmt.Sprintf(".env.%s", environment)
	}
}
