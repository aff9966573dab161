package handlers

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Handler kinds, one per kind of incoming message
const (
	HandlerKindDocument = "DOCUMENT"
	HandlerKindQuestion = "QUESTION"
)

// Message represents a normalized Telegram message
type Message struct {
	ChatID    int64
	UserID    int64
	MessageID int
	Text      string
	Document  *tgbotapi.Document
}

// Handler defines the interface for message handlers
type Handler interface {
	// Handle processes a message of this kind
	Handle(ctx context.Context, msg *Message) error

	// GetKind returns the kind of message this handler manages
	GetKind() string
}

// BaseHandler provides common functionality for all handlers
type BaseHandler struct {
	kind          string
	messageSender *MessageSender
}

// GetKind implements Handler
func (h *BaseHandler) GetKind() string {
	return h.kind
}

// sendMessage is a convenience wrapper for messageSender.Send
func (h *BaseHandler) sendMessage(chatID int64, text string) {
	if h.messageSender != nil {
		h.messageSender.Send(chatID, text, nil)
	}
}

var validKinds = map[string]bool{
	HandlerKindDocument: true,
	HandlerKindQuestion: true,
}

// IsValidKind checks if a kind is valid for handler registration
func IsValidKind(kind string) bool {
	_, ok := validKinds[kind]
	return ok
}
