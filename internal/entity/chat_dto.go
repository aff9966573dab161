package entity

// AskRequest is the body of POST /ask
type AskRequest struct {
	Question string `json:"question"`
	TopK     int    `json:"top_k,omitempty"`
	Template string `json:"template,omitempty"`
}

// Normalize fills defaults for optional fields
func (r *AskRequest) Normalize(defaultTopK int) {
	if r.TopK <= 0 {
		r.TopK = defaultTopK
	}
}

type SourceRef struct {
	ChunkID  int               `json:"chunk_id"`
	Distance float32           `json:"distance"`
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type AskResponse struct {
	Answer   string      `json:"answer"`
	CorpusID string      `json:"corpus_id"`
	Sources  []SourceRef `json:"sources"`
}

// AskResult is what the chat usecase returns for a question
type AskResult struct {
	Answer    Answer
	CorpusID  string
	Retrieved RetrievalResult
}

type UploadCorpusResponse struct {
	CorpusID   string `json:"corpus_id"`
	ChunkCount int    `json:"chunk_count"`
	Source     string `json:"source"`
	Model      string `json:"model"`
}

type DeleteCorpusResponse struct {
	Status string `json:"status"`
}

type ChatWithDocumentResponse struct {
	Answer string `json:"answer"`
}

// LegacyQueryRequest and LegacyQueryResponse keep the /query/ contract of the first prototype
type LegacyQueryRequest struct {
	Question string `json:"question"`
}

type LegacyQueryResponse struct {
	Response string `json:"response"`
}

type LegacyUploadResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
