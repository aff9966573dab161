// Package index holds embedded chunks in memory and answers exact nearest-neighbour queries.
package index

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"math"
	"slices"
	"sync"
	"time"

	"github.com/futig/datachat/internal/entity"
	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	defaultBatchSize   = 64
	defaultConcurrency = 4
)

// Embedder turns texts into fixed-dimension vectors with a single model.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Model() string
	Dimension() int
}

type BuildOptions struct {
	Source      string
	BatchSize   int
	Concurrency int
	// Progress, when set, is called after every embedded batch with the number of embedded chunks so far.
	Progress func(done, total int)
}

// Index is an immutable snapshot: chunk i is stored with vectors[i].
// Vectors are L2-normalised so cosine distance is 1 - dot product.
type Index struct {
	id        string
	source    string
	model     string
	dimension int
	createdAt time.Time
	chunks    []entity.Chunk
	vectors   [][]float32
}

// Build embeds every chunk and returns a fully populated index, or an error and no index.
func Build(ctx context.Context, chunks []entity.Chunk, embedder Embedder, opts BuildOptions) (*Index, error) {
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: no chunks to index", entity.ErrIngest)
	}

	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}

	dim := embedder.Dimension()
	vectors := make([][]float32, len(chunks))

	var (
		progressMu sync.Mutex
		done       int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for start := 0; start < len(chunks); start += batchSize {
		start := start
		end := min(start+batchSize, len(chunks))

		g.Go(func() error {
			texts := make([]string, 0, end-start)
			for _, c := range chunks[start:end] {
				texts = append(texts, c.Text)
			}

			embedded, err := embedder.Embed(gctx, texts)
			if err != nil {
				return err
			}
			if len(embedded) != len(texts) {
				return fmt.Errorf("%w: expected %d vectors, got %d", entity.ErrEmbedding, len(texts), len(embedded))
			}

			for i, v := range embedded {
				if len(v) != dim {
					return fmt.Errorf("%w: chunk %d: expected dimension %d, got %d",
						entity.ErrEmbedding, chunks[start+i].ID, dim, len(v))
				}
				vectors[start+i] = normalize(v)
			}

			if opts.Progress != nil {
				progressMu.Lock()
				done += len(texts)
				opts.Progress(done, len(chunks))
				progressMu.Unlock()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	idx := &Index{
		id:        uuid.New().String(),
		source:    opts.Source,
		model:     embedder.Model(),
		dimension: dim,
		createdAt: time.Now().UTC(),
		chunks:    cloneChunks(chunks),
		vectors:   vectors,
	}

	ctxzap.Info(ctx, "index built",
		zap.String("corpus_id", idx.id),
		zap.String("model", idx.model),
		zap.Int("chunk_count", len(idx.chunks)),
		zap.Int("dimension", dim),
	)

	return idx, nil
}

// Nearest returns up to k chunks ordered by ascending cosine distance to vec.
// Ties are broken by chunk id so results are deterministic.
func (idx *Index) Nearest(vec []float32, k int) (entity.RetrievalResult, error) {
	if k < 1 {
		return nil, fmt.Errorf("%w: k must be >= 1, got %d", entity.ErrInvalidParameter, k)
	}
	if len(vec) != idx.dimension {
		return nil, fmt.Errorf("%w: query dimension %d, index dimension %d", entity.ErrEmbedding, len(vec), idx.dimension)
	}

	q := normalize(vec)

	results := make(entity.RetrievalResult, len(idx.chunks))
	for i, v := range idx.vectors {
		results[i] = entity.ScoredChunk{
			Chunk:    idx.chunks[i],
			Distance: 1 - dot(q, v),
		}
	}

	slices.SortFunc(results, func(a, b entity.ScoredChunk) int {
		if c := cmp.Compare(a.Distance, b.Distance); c != 0 {
			return c
		}
		return cmp.Compare(a.Chunk.ID, b.Chunk.ID)
	})

	if k < len(results) {
		results = results[:k]
	}
	for i := range results {
		results[i].Chunk.Metadata = maps.Clone(results[i].Chunk.Metadata)
	}
	return results, nil
}

func (idx *Index) ID() string           { return idx.id }
func (idx *Index) Model() string        { return idx.model }
func (idx *Index) Dimension() int       { return idx.dimension }
func (idx *Index) Len() int             { return len(idx.chunks) }
func (idx *Index) Source() string       { return idx.source }
func (idx *Index) CreatedAt() time.Time { return idx.createdAt }

// Chunks returns a deep copy of the indexed chunks in id order
func (idx *Index) Chunks() []entity.Chunk {
	return cloneChunks(idx.chunks)
}

// cloneChunks copies chunks together with their metadata maps, so neither the
// caller of Build nor a reader of results can alter an index after the fact.
func cloneChunks(chunks []entity.Chunk) []entity.Chunk {
	out := make([]entity.Chunk, len(chunks))
	for i, c := range chunks {
		c.Metadata = maps.Clone(c.Metadata)
		out[i] = c
	}
	return out
}

func (idx *Index) Info() entity.CorpusInfo {
	return entity.CorpusInfo{
		ID:         idx.id,
		Source:     idx.source,
		ChunkCount: len(idx.chunks),
		Model:      idx.model,
		Dimension:  idx.dimension,
		CreatedAt:  idx.createdAt,
	}
}

// normalize returns a unit-length copy of v; zero vectors stay zero
func normalize(v []float32) []float32 {
	out := make([]float32, len(v))
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return out
	}
	inv := 1 / math.Sqrt(sum)
	for i, x := range v {
		out[i] = float32(float64(x) * inv)
	}
	return out
}

func dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
