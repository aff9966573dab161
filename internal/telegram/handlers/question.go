package handlers

import (
	"context"
	"strings"

	"github.com/futig/datachat/internal/entity"
	"github.com/futig/datachat/internal/telegram/render"
	"go.uber.org/zap"
)

// QuestionHandler answers plain text messages from the current corpus
type QuestionHandler struct {
	BaseHandler
	bot    Sender
	chatUC ChatUsecase
	logger *zap.Logger
}

func NewQuestionHandler(bot Sender, chatUC ChatUsecase, logger *zap.Logger) *QuestionHandler {
	return &QuestionHandler{
		BaseHandler: BaseHandler{
			kind:          HandlerKindQuestion,
			messageSender: NewMessageSender(bot, logger),
		},
		bot:    bot,
		chatUC: chatUC,
		logger: logger,
	}
}

func (h *QuestionHandler) Handle(ctx context.Context, msg *Message) error {
	question := strings.TrimSpace(msg.Text)
	if question == "" {
		h.sendMessage(msg.ChatID, render.MsgUnsupportedMessage)
		return nil
	}

	typing := NewTypingNotifier(h.bot, msg.ChatID, h.logger)
	typing.Start(ctx)
	defer typing.Stop()

	res, err := h.chatUC.Ask(ctx, entity.AskRequest{Question: question})
	if err != nil {
		h.HandleError(ctx, msg.ChatID, err)
		return nil
	}

	h.sendMessage(msg.ChatID, render.RenderAnswer(res))
	return nil
}
