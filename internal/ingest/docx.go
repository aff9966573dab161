package ingest

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/futig/datachat/internal/entity"
	"github.com/unidoc/unioffice/document"
)

// extractDOCX returns the paragraph text of a .docx file, one paragraph per line.
// Close releases any scratch files unioffice created while unpacking.
func extractDOCX(raw []byte) (string, error) {
	doc, err := document.Read(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", fmt.Errorf("%w: read docx: %v", entity.ErrIngest, err)
	}
	defer doc.Close()

	var sb strings.Builder
	for _, p := range doc.Paragraphs() {
		for _, r := range p.Runs() {
			sb.WriteString(r.Text())
		}
		sb.WriteString("\n")
	}

	text := sb.String()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: docx has no text", entity.ErrIngest)
	}
	return text, nil
}
