package builder

import (
	"fmt"
	"net/http"
	"time"

	"github.com/futig/datachat/internal/api"
	chatapi "github.com/futig/datachat/internal/api/chat"
	"github.com/futig/datachat/internal/config"
	"github.com/futig/datachat/internal/entity"
	"github.com/futig/datachat/internal/index"
	"github.com/futig/datachat/internal/ingest"
	"github.com/futig/datachat/internal/integration/embedding"
	"github.com/futig/datachat/internal/integration/llm"
	"github.com/futig/datachat/internal/pkg/validator"
	"github.com/futig/datachat/internal/prompt"
	"github.com/futig/datachat/internal/retriever"
	"github.com/futig/datachat/internal/telegram"
	"github.com/futig/datachat/internal/usecase/chat"
	"go.uber.org/zap"
)

// Build wires the HTTP application
func Build() (*App, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := setupLogger(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}

	logger.Info("Building application",
		zap.String("environment", cfg.Environment),
		zap.String("server_addr", cfg.ServerAddr),
	)

	chatUC, fileValidator, err := BuildChat(cfg, logger)
	if err != nil {
		return nil, err
	}

	// Setup API handlers
	chatHandler := chatapi.NewHandler(chatUC, cfg.FileUploadCfg, fileValidator)
	logger.Info("API handlers initialized")

	// Setup router
	router := api.SetupRouter(chatHandler, cfg.CORSOrigins, cfg.RequestTimeout, logger)
	logger.Info("HTTP router configured")

	// Provider calls can take most of the request budget, the write deadline must outlive it
	server := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("Application built successfully",
		zap.String("environment", cfg.Environment),
	)

	return &App{
		server: server,
		logger: logger,
	}, nil
}

// BuildTelegramBot creates and initializes the Telegram bot
func BuildTelegramBot() (telegram.Bot, *zap.Logger, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := setupLogger(cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("setup logger: %w", err)
	}

	logger.Info("Building Telegram bot",
		zap.String("environment", cfg.Environment),
	)

	if cfg.TelegramCfg.BotToken == "" {
		return nil, nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required to run the bot")
	}

	chatUC, _, err := BuildChat(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	bot, err := telegram.NewBot(&cfg.TelegramCfg, cfg.FileUploadCfg.MaxFileSize, chatUC, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("initialize telegram bot: %w", err)
	}

	logger.Info("Telegram bot built successfully",
		zap.String("environment", cfg.Environment),
	)

	return bot, logger, nil
}

// BuildChat wires the ingest, index and generation pipeline shared by every transport
func BuildChat(cfg *config.Config, logger *zap.Logger) (*chat.ChatUsecase, *validator.Validator, error) {
	defaultTemplate, err := parseDefaultTemplate(cfg.RetrievalCfg.DefaultTemplate)
	if err != nil {
		return nil, nil, err
	}

	// Initialize external service connectors (with mock support)
	var embedder index.Embedder
	var generator chat.Generator

	if cfg.EnableMocks {
		logger.Info("Using mock connectors for external services")
		embedder = embedding.NewMockConnector(logger)
		generator = llm.NewMockConnector(logger)
	} else {
		logger.Info("Using real connectors for external services",
			zap.String("embedding_model", cfg.EmbeddingCfg.Model),
			zap.String("llm_model", cfg.LLMCfg.Model),
		)
		embedder = embedding.NewConnector(cfg.OpenAICfg, cfg.EmbeddingCfg, logger)
		generator = llm.NewConnector(cfg.OpenAICfg, cfg.LLMCfg, logger)
	}

	// Initialize validators
	fileValidator := validator.NewFileValidator(cfg.FileUploadCfg)

	seed := cfg.LLMCfg.Seed
	settings := chat.Settings{
		BatchSize:         cfg.EmbeddingCfg.BatchSize,
		Concurrency:       cfg.EmbeddingCfg.Concurrency,
		DefaultTopK:       cfg.RetrievalCfg.TopK,
		MaxTopK:           cfg.RetrievalCfg.MaxTopK,
		DefaultTemplate:   defaultTemplate,
		DocumentWordLimit: cfg.RetrievalCfg.DocumentWords,
		Generate: entity.GenerateOptions{
			Model:       cfg.LLMCfg.Model,
			Temperature: cfg.LLMCfg.Temperature,
			MaxTokens:   cfg.LLMCfg.MaxTokens,
			Seed:        &seed,
		},
	}

	chatUC := chat.NewUsecase(
		index.NewHolder(),
		ingest.NewIngestor(cfg.IngestCfg),
		embedder,
		retriever.New(embedder, cfg.EmbeddingCfg.CacheTTL),
		generator,
		fileValidator,
		settings,
		logger,
	)
	logger.Info("Use cases initialized")

	return chatUC, fileValidator, nil
}

func parseDefaultTemplate(name string) (prompt.TemplateID, error) {
	if name == "" {
		return "", nil
	}
	id, err := prompt.Parse(name)
	if err != nil {
		return "", fmt.Errorf("RETRIEVAL_DEFAULT_TEMPLATE: %w", err)
	}
	if id == prompt.DocumentChat {
		return "", fmt.Errorf("RETRIEVAL_DEFAULT_TEMPLATE: %s needs a whole document and cannot be a default", id)
	}
	return id, nil
}
