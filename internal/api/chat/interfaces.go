package chat

import (
	"context"

	"github.com/futig/datachat/internal/entity"
)

type ChatUsecase interface {
	UploadCorpus(ctx context.Context, upload entity.Upload, progress func(done, total int)) (entity.CorpusInfo, error)
	Ask(ctx context.Context, req entity.AskRequest) (entity.AskResult, error)
	ChatWithDocument(ctx context.Context, upload entity.Upload, query string) (entity.Answer, error)
	CorpusInfo(ctx context.Context) (entity.CorpusInfo, error)
	DeleteCorpus(ctx context.Context) error
}
