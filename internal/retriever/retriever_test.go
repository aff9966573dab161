package retriever

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/futig/datachat/internal/config"
	"github.com/futig/datachat/internal/entity"
	"github.com/futig/datachat/internal/index"
	"github.com/futig/datachat/internal/ingest"
	"github.com/futig/datachat/internal/integration/embedding"
	"go.uber.org/zap"
)

const policyCSV = `name,text
Alice,I support policy A
Bob,I oppose policy A
Alice,I still support policy A
`

func buildPolicyIndex(t *testing.T, emb index.Embedder) *index.Index {
	t.Helper()

	chunks, err := ingest.NewIngestor(config.IngestConfig{ChunkSize: 2000}).Ingest(entity.Upload{
		Filename: "policy.csv",
		Content:  []byte(policyCSV),
	})
	if err != nil {
		t.Fatal(err)
	}

	idx, err := index.Build(context.Background(), chunks, emb, index.BuildOptions{})
	if err != nil {
		t.Fatal(err)
	}
	return idx
}

func TestRetrieve_MatchingEntityRanksFirst(t *testing.T) {
	emb := embedding.NewMockConnector(zap.NewNop())
	idx := buildPolicyIndex(t, emb)
	r := New(emb, time.Minute)

	results, err := r.Retrieve(context.Background(), "What does Alice think about policy A?", idx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for _, res := range results {
		if res.Chunk.Metadata["name"] != "Alice" {
			t.Errorf("expected only Alice rows in top 2, got %q (%q)", res.Chunk.Metadata["name"], res.Chunk.Text)
		}
	}
	if results[0].Distance > results[1].Distance {
		t.Errorf("results not ordered by distance")
	}
}

func TestRetrieve_BoundsAndOrder(t *testing.T) {
	emb := embedding.NewMockConnector(zap.NewNop())
	idx := buildPolicyIndex(t, emb)
	r := New(emb, time.Minute)

	for k := 1; k <= 5; k++ {
		results, err := r.Retrieve(context.Background(), "policy A", idx, k)
		if err != nil {
			t.Fatal(err)
		}
		want := min(k, idx.Len())
		if len(results) != want {
			t.Errorf("k=%d: expected %d results, got %d", k, want, len(results))
		}
		for i := 1; i < len(results); i++ {
			if results[i].Distance < results[i-1].Distance {
				t.Errorf("k=%d: results out of order", k)
			}
		}
	}
}

func TestRetrieve_Deterministic(t *testing.T) {
	emb := embedding.NewMockConnector(zap.NewNop())
	idx := buildPolicyIndex(t, emb)
	r := New(emb, time.Minute)

	first, err := r.Retrieve(context.Background(), "Bob opposes", idx, 3)
	if err != nil {
		t.Fatal(err)
	}
	second, err := r.Retrieve(context.Background(), "Bob opposes", idx, 3)
	if err != nil {
		t.Fatal(err)
	}
	for i := range first {
		if first[i].Chunk.ID != second[i].Chunk.ID || first[i].Distance != second[i].Distance {
			t.Errorf("position %d differs between identical queries", i)
		}
	}
}

type renamedEmbedder struct {
	index.Embedder
	model string
}

func (e renamedEmbedder) Model() string { return e.model }

func TestRetrieve_ModelMismatch(t *testing.T) {
	emb := embedding.NewMockConnector(zap.NewNop())
	idx := buildPolicyIndex(t, emb)
	r := New(renamedEmbedder{Embedder: emb, model: "other-model"}, time.Minute)

	_, err := r.Retrieve(context.Background(), "policy", idx, 1)
	if !errors.Is(err, entity.ErrModelMismatch) || !errors.Is(err, entity.ErrEmbedding) {
		t.Errorf("expected model mismatch embedding error, got %v", err)
	}
}

type countingEmbedder struct {
	index.Embedder
	calls int
}

func (e *countingEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	e.calls++
	return e.Embedder.Embed(ctx, texts)
}

func TestRetrieve_CachesQueryEmbeddings(t *testing.T) {
	emb := &countingEmbedder{Embedder: embedding.NewMockConnector(zap.NewNop())}
	idx := buildPolicyIndex(t, emb)
	built := emb.calls
	r := New(emb, time.Minute)

	for i := 0; i < 3; i++ {
		if _, err := r.Retrieve(context.Background(), "policy A", idx, 1); err != nil {
			t.Fatal(err)
		}
	}
	if got := emb.calls - built; got != 1 {
		t.Errorf("expected 1 query embedding call, got %d", got)
	}
}

func TestRetrieve_InvalidInput(t *testing.T) {
	emb := embedding.NewMockConnector(zap.NewNop())
	idx := buildPolicyIndex(t, emb)
	r := New(emb, time.Minute)

	if _, err := r.Retrieve(context.Background(), "   ", idx, 1); !errors.Is(err, entity.ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter for blank query, got %v", err)
	}
	if _, err := r.Retrieve(context.Background(), "policy", nil, 1); !errors.Is(err, entity.ErrNoCorpusLoaded) {
		t.Errorf("expected ErrNoCorpusLoaded for nil index, got %v", err)
	}
	if _, err := r.Retrieve(context.Background(), "policy", idx, 0); !errors.Is(err, entity.ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter for k=0, got %v", err)
	}
}
