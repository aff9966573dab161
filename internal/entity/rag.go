package entity

import "time"

// Chunk is a unit of source text plus attribution metadata.
// Chunks are created by the ingestor and never modified afterwards.
type Chunk struct {
	ID       int               `json:"id"`
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Metadata keys set by the ingestor
const (
	MetaSource  = "source"
	MetaRow     = "row"
	MetaSegment = "segment"
)

// ScoredChunk is a retrieved chunk with its cosine distance to the query.
type ScoredChunk struct {
	Chunk    Chunk   `json:"chunk"`
	Distance float32 `json:"distance"`
}

// RetrievalResult is ordered by ascending distance.
type RetrievalResult []ScoredChunk

// Chunks returns the chunks in retrieval order.
func (r RetrievalResult) Chunks() []Chunk {
	chunks := make([]Chunk, len(r))
	for i, sc := range r {
		chunks[i] = sc.Chunk
	}
	return chunks
}

// Upload is a raw artifact delivered by a transport.
type Upload struct {
	Filename    string
	ContentType string
	Content     []byte
}

// CorpusInfo describes the currently loaded index.
type CorpusInfo struct {
	ID         string    `json:"corpus_id"`
	Source     string    `json:"source"`
	ChunkCount int       `json:"chunk_count"`
	Model      string    `json:"model"`
	Dimension  int       `json:"dimension"`
	CreatedAt  time.Time `json:"created_at"`
}
