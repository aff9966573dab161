package embedding

import (
	"context"
	"fmt"

	"github.com/futig/datachat/internal/config"
	"github.com/futig/datachat/internal/entity"
	"github.com/futig/datachat/internal/integration/common"
	pkgRetry "github.com/futig/datachat/internal/pkg/retry"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

type Connector struct {
	config config.EmbeddingConfig
	client *openai.Client
	logger *zap.Logger
}

func NewConnector(
	openAICfg config.OpenAIConfig,
	cfg config.EmbeddingConfig,
	logger *zap.Logger,
) *Connector {
	return &Connector{
		config: cfg,
		client: common.NewOpenAIClient(openAICfg),
		logger: logger,
	}
}

// Model returns the embedding model every vector of this connector is produced with
func (c *Connector) Model() string {
	return c.config.Model
}

func (c *Connector) Dimension() int {
	return c.config.Dimension
}

// Embed embeds texts in one provider call, preserving input order
func (c *Connector) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	ctxzap.Debug(ctx, "embedding texts via provider",
		zap.String("model", c.config.Model),
		zap.Int("count", len(texts)),
	)

	resp, err := pkgRetry.Do(ctx, &c.config.Retry, common.IsTransient,
		func(ctx context.Context) (openai.EmbeddingResponse, error) {
			callCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
			defer cancel()

			return c.client.CreateEmbeddings(callCtx, openai.EmbeddingRequest{
				Input: texts,
				Model: openai.EmbeddingModel(c.config.Model),
			})
		})
	if err != nil {
		ctxzap.Error(ctx, "embedding request failed", zap.Error(err))
		return nil, fmt.Errorf("%w: provider call: %v", entity.ErrEmbedding, err)
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("%w: expected %d vectors, got %d", entity.ErrEmbedding, len(texts), len(resp.Data))
	}

	vectors := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(texts) {
			return nil, fmt.Errorf("%w: vector index %d out of range", entity.ErrEmbedding, d.Index)
		}
		if vectors[d.Index] != nil {
			return nil, fmt.Errorf("%w: duplicate vector index %d", entity.ErrEmbedding, d.Index)
		}
		if len(d.Embedding) != c.config.Dimension {
			return nil, fmt.Errorf("%w: expected dimension %d, got %d", entity.ErrEmbedding, c.config.Dimension, len(d.Embedding))
		}
		vectors[d.Index] = d.Embedding
	}

	ctxzap.Debug(ctx, "texts embedded",
		zap.Int("count", len(vectors)),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
	)

	return vectors, nil
}
