package handlers

import (
	"context"
	"fmt"

	"github.com/futig/datachat/internal/entity"
	"github.com/futig/datachat/internal/telegram/render"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// DocumentHandler turns a file sent to the bot into the current corpus
type DocumentHandler struct {
	BaseHandler
	bot        Sender
	chatUC     ChatUsecase
	downloader FileDownloader
	maxSize    int64
	logger     *zap.Logger
}

func NewDocumentHandler(bot Sender, chatUC ChatUsecase, downloader FileDownloader, maxSize int64, logger *zap.Logger) *DocumentHandler {
	return &DocumentHandler{
		BaseHandler: BaseHandler{
			kind:          HandlerKindDocument,
			messageSender: NewMessageSender(bot, logger),
		},
		bot:        bot,
		chatUC:     chatUC,
		downloader: downloader,
		maxSize:    maxSize,
		logger:     logger,
	}
}

func (h *DocumentHandler) Handle(ctx context.Context, msg *Message) error {
	doc := msg.Document
	if doc == nil {
		return fmt.Errorf("document handler called without a document")
	}

	ctx = ctxzap.ToContext(ctx, ctxzap.Extract(ctx).With(
		zap.String("filename", doc.FileName),
		zap.Int("file_size", doc.FileSize),
	))

	if int64(doc.FileSize) > h.maxSize {
		h.HandleError(ctx, msg.ChatID, fmt.Errorf("%w: %d bytes", entity.ErrFileTooLarge, doc.FileSize))
		return nil
	}

	h.sendMessage(msg.ChatID, fmt.Sprintf(render.MsgIndexing, doc.FileName))

	typing := NewChatActionNotifier(h.bot, msg.ChatID, tgbotapi.ChatUploadDocument, h.logger)
	typing.Start(ctx)
	defer typing.Stop()

	content, err := h.downloader.Download(ctx, doc.FileID)
	if err != nil {
		h.HandleError(ctx, msg.ChatID, fmt.Errorf("download: %w", err))
		return nil
	}

	info, err := h.chatUC.UploadCorpus(ctx, entity.Upload{
		Filename:    doc.FileName,
		ContentType: doc.MimeType,
		Content:     content,
	}, nil)
	if err != nil {
		h.HandleError(ctx, msg.ChatID, err)
		return nil
	}

	ctxzap.Info(ctx, "corpus uploaded via telegram", zap.String("corpus_id", info.ID))
	h.sendMessage(msg.ChatID, fmt.Sprintf(render.MsgCorpusLoaded, info.Source, info.ChunkCount))
	return nil
}
