package telegram

import (
	"context"
	"fmt"

	"github.com/futig/datachat/internal/config"
	"github.com/futig/datachat/internal/telegram/bot"
	"github.com/futig/datachat/internal/telegram/handlers"
	"go.uber.org/zap"
)

// Bot is the main telegram bot interface
type Bot interface {
	Start(ctx context.Context) error
	Stop() error
}

// NewBot initializes the telegram bot with all dependencies
func NewBot(
	cfg *config.TelegramConfig,
	maxFileSize int64,
	chatUC handlers.ChatUsecase,
	logger *zap.Logger,
) (Bot, error) {
	b, err := bot.New(cfg, chatUC, logger)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}

	registerHandlers(b, maxFileSize, logger)

	logger.Info("telegram bot initialized successfully")

	return b, nil
}

// registerHandlers registers all handlers with the bot
func registerHandlers(b *bot.Bot, maxFileSize int64, logger *zap.Logger) {
	api := b.GetAPI()
	chatUC := b.GetChatUsecase()

	// Document messages replace the corpus
	downloader := handlers.NewDownloader(api, maxFileSize)
	b.RegisterHandler(handlers.NewDocumentHandler(api, chatUC, downloader, maxFileSize, logger))

	// Text messages are questions
	b.RegisterHandler(handlers.NewQuestionHandler(api, chatUC, logger))

	logger.Info("telegram handlers registered",
		zap.Int("handler_count", 2),
	)
}
