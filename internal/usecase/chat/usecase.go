package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/futig/datachat/internal/entity"
	"github.com/futig/datachat/internal/index"
	"github.com/futig/datachat/internal/prompt"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// Settings are the tunables the chat flow needs from configuration
type Settings struct {
	BatchSize         int
	Concurrency       int
	DefaultTopK       int
	MaxTopK           int
	DefaultTemplate   prompt.TemplateID // empty picks a template from the corpus kind
	DocumentWordLimit int
	Generate          entity.GenerateOptions
}

// ChatUsecase implements corpus upload and question answering
type ChatUsecase struct {
	holder    *index.Holder
	ingestor  Ingestor
	embedder  index.Embedder
	retriever Retriever
	generator Generator
	validator UploadValidator
	settings  Settings
	logger    *zap.Logger
}

// NewUsecase creates a new chat use case
func NewUsecase(
	holder *index.Holder,
	ingestor Ingestor,
	embedder index.Embedder,
	retriever Retriever,
	generator Generator,
	validator UploadValidator,
	settings Settings,
	logger *zap.Logger,
) *ChatUsecase {
	return &ChatUsecase{
		holder:    holder,
		ingestor:  ingestor,
		embedder:  embedder,
		retriever: retriever,
		generator: generator,
		validator: validator,
		settings:  settings,
		logger:    logger,
	}
}

// UploadCorpus ingests and embeds the upload, then makes it the current corpus.
// On any failure the previously loaded corpus stays in place.
func (uc *ChatUsecase) UploadCorpus(ctx context.Context, upload entity.Upload, progress func(done, total int)) (entity.CorpusInfo, error) {
	if err := uc.validator.ValidateUpload(upload); err != nil {
		return entity.CorpusInfo{}, err
	}

	chunks, err := uc.ingestor.Ingest(upload)
	if err != nil {
		return entity.CorpusInfo{}, fmt.Errorf("ingest %s: %w", upload.Filename, err)
	}

	var source string
	if len(chunks) > 0 {
		source = chunks[0].Metadata[entity.MetaSource]
	}

	start := time.Now()
	idx, err := uc.holder.Replace(ctx, func(ctx context.Context) (*index.Index, error) {
		return index.Build(ctx, chunks, uc.embedder, index.BuildOptions{
			Source:      source,
			BatchSize:   uc.settings.BatchSize,
			Concurrency: uc.settings.Concurrency,
			Progress:    progress,
		})
	})
	if err != nil {
		return entity.CorpusInfo{}, fmt.Errorf("build index: %w", err)
	}

	info := idx.Info()
	ctxzap.Info(ctx, "corpus loaded",
		zap.String("corpus_id", info.ID),
		zap.String("source", info.Source),
		zap.Int("chunk_count", info.ChunkCount),
		zap.Duration("took", time.Since(start)),
	)

	return info, nil
}

// Ask answers a question from the current corpus
func (uc *ChatUsecase) Ask(ctx context.Context, req entity.AskRequest) (entity.AskResult, error) {
	req.Normalize(uc.settings.DefaultTopK)
	if err := uc.validator.ValidateAsk(&req, uc.settings.MaxTopK); err != nil {
		return entity.AskResult{}, err
	}

	templateID := uc.settings.DefaultTemplate
	if req.Template != "" {
		id, err := prompt.Parse(req.Template)
		if err != nil {
			return entity.AskResult{}, err
		}
		templateID = id
	}
	if templateID == prompt.DocumentChat {
		return entity.AskResult{}, fmt.Errorf("%w: template %s needs a document, use /chat-with-document", entity.ErrInvalidParameter, templateID)
	}

	// One snapshot for the whole request, so a concurrent upload cannot mix corpora.
	idx, err := uc.holder.Current()
	if err != nil {
		return entity.AskResult{}, err
	}

	retrieved, err := uc.retriever.Retrieve(ctx, req.Question, idx, req.TopK)
	if err != nil {
		return entity.AskResult{}, fmt.Errorf("retrieve: %w", err)
	}

	chunks := retrieved.Chunks()
	if templateID == "" {
		templateID = prompt.DefaultFor(chunks)
	}

	rendered, err := prompt.Assemble(templateID, prompt.Input{Question: req.Question, Chunks: chunks})
	if err != nil {
		return entity.AskResult{}, err
	}

	answer, err := uc.generator.Generate(ctx, rendered, uc.settings.Generate)
	if err != nil {
		return entity.AskResult{}, fmt.Errorf("generate: %w", err)
	}

	ctxzap.Info(ctx, "question answered",
		zap.String("corpus_id", idx.ID()),
		zap.String("template", string(templateID)),
		zap.Int("retrieved", len(retrieved)),
	)

	return entity.AskResult{
		Answer:    answer,
		CorpusID:  idx.ID(),
		Retrieved: retrieved,
	}, nil
}

// ChatWithDocument answers from a whole document without touching the corpus
func (uc *ChatUsecase) ChatWithDocument(ctx context.Context, upload entity.Upload, query string) (entity.Answer, error) {
	if err := uc.validator.ValidateUpload(upload); err != nil {
		return entity.Answer{}, err
	}

	text, err := uc.ingestor.DocumentText(upload)
	if err != nil {
		return entity.Answer{}, fmt.Errorf("read %s: %w", upload.Filename, err)
	}

	rendered, err := prompt.Assemble(prompt.DocumentChat, prompt.Input{
		Question:  query,
		Document:  text,
		WordLimit: uc.settings.DocumentWordLimit,
	})
	if err != nil {
		return entity.Answer{}, err
	}

	answer, err := uc.generator.Generate(ctx, rendered, uc.settings.Generate)
	if err != nil {
		return entity.Answer{}, fmt.Errorf("generate: %w", err)
	}

	return answer, nil
}

func (uc *ChatUsecase) CorpusInfo(ctx context.Context) (entity.CorpusInfo, error) {
	idx, err := uc.holder.Current()
	if err != nil {
		return entity.CorpusInfo{}, err
	}
	return idx.Info(), nil
}

// DeleteCorpus drops the current corpus. Deleting when nothing is loaded is not an error.
func (uc *ChatUsecase) DeleteCorpus(ctx context.Context) error {
	if err := uc.holder.Clear(); err != nil {
		return err
	}

	ctxzap.Info(ctx, "corpus cleared")
	return nil
}
