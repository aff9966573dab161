package chat

import (
	"github.com/futig/datachat/internal/entity"
	"github.com/futig/datachat/internal/pkg/formatter"
)

func toSourceRefs(result entity.RetrievalResult) []entity.SourceRef {
	refs := make([]entity.SourceRef, 0, len(result))
	for _, sc := range result {
		refs = append(refs, entity.SourceRef{
			ChunkID:  sc.Chunk.ID,
			Distance: sc.Distance,
			Text:     sc.Chunk.Text,
			Metadata: sc.Chunk.Metadata,
		})
	}
	return refs
}

func toAskResponse(res entity.AskResult) *entity.AskResponse {
	return &entity.AskResponse{
		Answer:   res.Answer.Text,
		CorpusID: res.CorpusID,
		Sources:  toSourceRefs(res.Retrieved),
	}
}

func toUploadResponse(info entity.CorpusInfo) *entity.UploadCorpusResponse {
	return &entity.UploadCorpusResponse{
		CorpusID:   info.ID,
		ChunkCount: info.ChunkCount,
		Source:     info.Source,
		Model:      info.Model,
	}
}

func toExport(question string, res entity.AskResult) formatter.Export {
	return formatter.Export{
		Question: question,
		Answer:   res.Answer.Text,
		CorpusID: res.CorpusID,
		Sources:  toSourceRefs(res.Retrieved),
	}
}
