package retriever

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/futig/datachat/internal/entity"
	"github.com/futig/datachat/internal/index"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

const defaultCacheTTL = 10 * time.Minute

// Retriever embeds questions with the same model the index was built with and
// delegates to the index for the exact nearest-neighbour search.
type Retriever struct {
	embedder index.Embedder
	cache    *cache.Cache
}

func New(embedder index.Embedder, cacheTTL time.Duration) *Retriever {
	if cacheTTL <= 0 {
		cacheTTL = defaultCacheTTL
	}
	return &Retriever{
		embedder: embedder,
		cache:    cache.New(cacheTTL, 2*cacheTTL),
	}
}

// Retrieve returns at most k chunks of idx ordered by ascending distance to query.
func (r *Retriever) Retrieve(ctx context.Context, query string, idx *index.Index, k int) (entity.RetrievalResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: empty query", entity.ErrInvalidParameter)
	}
	if idx == nil {
		return nil, entity.ErrNoCorpusLoaded
	}
	if model := r.embedder.Model(); model != idx.Model() {
		return nil, fmt.Errorf("%w: %w: index %q, query %q", entity.ErrEmbedding, entity.ErrModelMismatch, idx.Model(), model)
	}

	vec, err := r.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	results, err := idx.Nearest(vec, k)
	if err != nil {
		return nil, err
	}

	ctxzap.Debug(ctx, "chunks retrieved",
		zap.String("corpus_id", idx.ID()),
		zap.Int("k", k),
		zap.Int("result_count", len(results)),
	)

	return results, nil
}

func (r *Retriever) embedQuery(ctx context.Context, query string) ([]float32, error) {
	key := r.embedder.Model() + "\x00" + query
	if v, ok := r.cache.Get(key); ok {
		ctxzap.Debug(ctx, "query embedding served from cache")
		return v.([]float32), nil
	}

	vectors, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("%w: expected 1 query vector, got %d", entity.ErrEmbedding, len(vectors))
	}

	r.cache.SetDefault(key, vectors[0])
	return vectors[0], nil
}
