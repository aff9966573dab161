package handlers

import (
	"context"

	"github.com/futig/datachat/internal/entity"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// ChatUsecase is the subset of chat operations the bot needs
type ChatUsecase interface {
	UploadCorpus(ctx context.Context, upload entity.Upload, progress func(done, total int)) (entity.CorpusInfo, error)
	Ask(ctx context.Context, req entity.AskRequest) (entity.AskResult, error)
	CorpusInfo(ctx context.Context) (entity.CorpusInfo, error)
}

// Sender is the part of *tgbotapi.BotAPI used to talk back to users
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// FileDownloader fetches the content of a file sent to the bot
type FileDownloader interface {
	Download(ctx context.Context, fileID string) ([]byte, error)
}
