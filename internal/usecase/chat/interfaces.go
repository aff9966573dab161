package chat

import (
	"context"

	"github.com/futig/datachat/internal/entity"
	"github.com/futig/datachat/internal/index"
)

type Ingestor interface {
	Ingest(upload entity.Upload) ([]entity.Chunk, error)
	DocumentText(upload entity.Upload) (string, error)
}

type Retriever interface {
	Retrieve(ctx context.Context, query string, idx *index.Index, k int) (entity.RetrievalResult, error)
}

type Generator interface {
	Generate(ctx context.Context, prompt entity.RenderedPrompt, opts entity.GenerateOptions) (entity.Answer, error)
}

type UploadValidator interface {
	ValidateUpload(upload entity.Upload) error
	ValidateAsk(req *entity.AskRequest, maxTopK int) error
}
