package bot

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/futig/datachat/internal/config"
	"github.com/futig/datachat/internal/telegram/handlers"
	"github.com/futig/datachat/internal/telegram/middleware"
	"github.com/futig/datachat/internal/telegram/render"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// Bot represents the Telegram bot
type Bot struct {
	api         *tgbotapi.BotAPI
	cfg         *config.TelegramConfig
	handlers    map[string]handlers.Handler
	chatUC      handlers.ChatUsecase
	logger      *zap.Logger
	loggingMW   *middleware.LoggingMiddleware
	recoveryMW  *middleware.RecoveryMiddleware
	rateLimitMW *middleware.RateLimiterMiddleware
	updatesChan tgbotapi.UpdatesChannel
	stopChan    chan struct{}
	wg          sync.WaitGroup
}

// New creates a new Telegram bot
func New(
	cfg *config.TelegramConfig,
	chatUC handlers.ChatUsecase,
	logger *zap.Logger,
) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("create bot API: %w", err)
	}

	logger.Info("telegram bot authorized",
		zap.String("username", api.Self.UserName),
		zap.Int64("id", api.Self.ID),
	)

	bot := &Bot{
		api:      api,
		cfg:      cfg,
		chatUC:   chatUC,
		logger:   logger,
		handlers: make(map[string]handlers.Handler),
		stopChan: make(chan struct{}),
	}

	bot.loggingMW = middleware.NewLoggingMiddleware(logger)
	bot.recoveryMW = middleware.NewRecoveryMiddleware(logger, api)
	bot.rateLimitMW = middleware.NewRateLimiterMiddleware(cfg.RateLimitPerMinute, logger, api)

	return bot, nil
}

// Start starts the bot
func (b *Bot) Start(ctx context.Context) error {
	b.logger.Info("starting telegram bot")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.cfg.UpdateTimeout

	b.updatesChan = b.api.GetUpdatesChan(u)

	ctx = ctxzap.ToContext(ctx, b.logger)

	go b.processUpdates(ctx)

	b.logger.Info("telegram bot started successfully")
	return nil
}

// Stop stops the bot gracefully with timeout
func (b *Bot) Stop() error {
	b.logger.Info("stopping telegram bot")

	close(b.stopChan)
	b.api.StopReceivingUpdates()
	b.rateLimitMW.Close()

	// Wait for all active handlers to complete
	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	shutdownTimeout := time.Duration(b.cfg.ShutdownTimeout) * time.Second
	select {
	case <-done:
		b.logger.Info("all handlers completed gracefully")
	case <-time.After(shutdownTimeout):
		b.logger.Warn("shutdown timeout exceeded, some handlers may not have completed",
			zap.Duration("timeout", shutdownTimeout),
		)
		return fmt.Errorf("shutdown timeout exceeded")
	}

	b.logger.Info("telegram bot stopped successfully")
	return nil
}

// processUpdates processes incoming updates
func (b *Bot) processUpdates(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			ctxzap.Info(ctx, "context cancelled, stopping update processing")
			return
		case <-b.stopChan:
			ctxzap.Info(ctx, "stop signal received, stopping update processing")
			return
		case update, ok := <-b.updatesChan:
			if !ok {
				return
			}
			b.wg.Add(1)
			go func(u tgbotapi.Update) {
				defer b.wg.Done()
				b.handleUpdateWithMiddleware(ctx, u)
			}(update)
		}
	}
}

// handleUpdateWithMiddleware processes update through middleware chain
func (b *Bot) handleUpdateWithMiddleware(ctx context.Context, update tgbotapi.Update) {
	b.rateLimitMW.Handle(update, func(u tgbotapi.Update) {
		b.loggingMW.Handle(u, func(u2 tgbotapi.Update) {
			b.recoveryMW.Handle(u2, func(u3 tgbotapi.Update) {
				b.handleUpdate(ctx, u3)
			})
		})
	})
}

// handleUpdate routes update to appropriate handler
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	message := update.Message
	if message == nil || message.From == nil {
		return
	}

	ctx = ctxzap.ToContext(ctx, b.logger.With(
		zap.Int("update_id", update.UpdateID),
		zap.Int64("user_id", message.From.ID),
	))

	if message.IsCommand() {
		b.handleCommand(ctx, message)
		return
	}

	kind := handlers.HandlerKindQuestion
	if message.Document != nil {
		kind = handlers.HandlerKindDocument
	} else if message.Text == "" {
		b.sendError(message.Chat.ID, render.MsgUnsupportedMessage)
		return
	}

	handler, exists := b.handlers[kind]
	if !exists {
		ctxzap.Warn(ctx, "no handler for message kind", zap.String("kind", kind))
		b.sendError(message.Chat.ID, render.ErrGeneric)
		return
	}

	msg := &handlers.Message{
		ChatID:    message.Chat.ID,
		UserID:    message.From.ID,
		MessageID: message.MessageID,
		Text:      message.Text,
		Document:  message.Document,
	}

	if err := handler.Handle(ctx, msg); err != nil {
		ctxzap.Error(ctx, "handler error",
			zap.Error(err),
			zap.String("kind", kind),
		)
		b.sendError(message.Chat.ID, render.ErrGeneric)
	}
}

// handleCommand handles bot commands
func (b *Bot) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	command := message.Command()

	ctxzap.Info(ctx, "command received", zap.String("command", command))

	switch command {
	case "start", "help":
		b.sendError(message.Chat.ID, render.MsgWelcome)
	case "status":
		b.handleStatusCommand(ctx, message)
	default:
		b.sendError(message.Chat.ID, render.ErrUnknownCommand)
	}
}

// handleStatusCommand reports the corpus currently loaded
func (b *Bot) handleStatusCommand(ctx context.Context, message *tgbotapi.Message) {
	info, err := b.chatUC.CorpusInfo(ctx)
	if err != nil {
		b.sendError(message.Chat.ID, render.ClassifyError(err))
		return
	}

	b.sendError(message.Chat.ID, render.RenderCorpusInfo(info))
}

// sendMessage sends a message to chat
func (b *Bot) sendMessage(chatID int64, text string) (tgbotapi.Message, error) {
	return b.api.Send(tgbotapi.NewMessage(chatID, text))
}

// sendError sends a message and only logs when delivery fails
func (b *Bot) sendError(chatID int64, text string) {
	if _, err := b.sendMessage(chatID, text); err != nil {
		b.logger.Error("failed to send message",
			zap.Error(err),
			zap.Int64("chat_id", chatID),
		)
	}
}

// RegisterHandler registers a handler for a message kind
func (b *Bot) RegisterHandler(handler handlers.Handler) {
	kind := handler.GetKind()

	if !handlers.IsValidKind(kind) {
		b.logger.Fatal("invalid handler kind",
			zap.String("kind", kind),
		)
	}

	b.handlers[kind] = handler
	b.logger.Info("handler registered",
		zap.String("kind", kind),
	)
}

// GetAPI returns the bot API instance (for handlers)
func (b *Bot) GetAPI() *tgbotapi.BotAPI {
	return b.api
}

// GetChatUsecase returns the chat usecase (for handlers)
func (b *Bot) GetChatUsecase() handlers.ChatUsecase {
	return b.chatUC
}
