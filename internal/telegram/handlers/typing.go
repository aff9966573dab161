package handlers

import (
	"context"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Telegram hides a chat action after five seconds
const chatActionInterval = 4 * time.Second

// TypingNotifier keeps a chat action ("typing", "upload_document") visible while work is in progress
type TypingNotifier struct {
	bot    Sender
	chatID int64
	action string
	logger *zap.Logger

	once sync.Once
	stop chan struct{}
	wg   sync.WaitGroup
}

func NewTypingNotifier(bot Sender, chatID int64, logger *zap.Logger) *TypingNotifier {
	return NewChatActionNotifier(bot, chatID, tgbotapi.ChatTyping, logger)
}

func NewChatActionNotifier(bot Sender, chatID int64, action string, logger *zap.Logger) *TypingNotifier {
	return &TypingNotifier{
		bot:    bot,
		chatID: chatID,
		action: action,
		logger: logger,
		stop:   make(chan struct{}),
	}
}

// Start sends the action now and then every few seconds until Stop or ctx is done
func (t *TypingNotifier) Start(ctx context.Context) {
	t.send()

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()

		ticker := time.NewTicker(chatActionInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				t.send()
			case <-t.stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop ends the notifier and waits for its goroutine. Safe to call more than once.
func (t *TypingNotifier) Stop() {
	t.once.Do(func() { close(t.stop) })
	t.wg.Wait()
}

func (t *TypingNotifier) send() {
	if _, err := t.bot.Request(tgbotapi.NewChatAction(t.chatID, t.action)); err != nil {
		t.logger.Warn("failed to send chat action",
			zap.Error(err),
			zap.String("action", t.action),
			zap.Int64("chat_id", t.chatID),
		)
	}
}
