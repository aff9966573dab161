package ingest

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/futig/datachat/internal/entity"
)

// ingestText keeps short documents whole and splits long ones into overlapping windows
func (i *Ingestor) ingestText(text, source string) ([]entity.Chunk, error) {
	segments := splitText(strings.TrimSpace(text), i.chunkSize, i.chunkOverlap)

	chunks := make([]entity.Chunk, 0, len(segments))
	for _, seg := range segments {
		chunks = append(chunks, entity.Chunk{
			ID:   len(chunks),
			Text: seg,
			Metadata: map[string]string{
				entity.MetaSource:  source,
				entity.MetaSegment: strconv.Itoa(len(chunks) + 1),
			},
		})
	}
	return chunks, nil
}

// splitText cuts text into windows of at most size runes, each starting overlap runes
// before the previous one ended. A window ends on whitespace when one exists in its
// second half.
func splitText(text string, size, overlap int) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	if len(runes) <= size {
		return []string{text}
	}

	var segments []string
	start := 0
	for start < len(runes) {
		end := start + size
		if end >= len(runes) {
			end = len(runes)
		} else {
			for j := end; j > start+size/2; j-- {
				if unicode.IsSpace(runes[j]) {
					end = j
					break
				}
			}
		}

		if seg := strings.TrimSpace(string(runes[start:end])); seg != "" {
			segments = append(segments, seg)
		}
		if end == len(runes) {
			break
		}

		next := end - overlap
		if next <= start {
			next = end
		}
		start = next
	}
	return segments
}
