// Package ingest turns uploaded artifacts into chunks ready for embedding.
package ingest

import (
	"bytes"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/futig/datachat/internal/config"
	"github.com/futig/datachat/internal/entity"
	"github.com/futig/datachat/internal/pkg/validator"
)

// Kind is the parsed form of an upload
type Kind string

const (
	KindCSV  Kind = "csv"
	KindText Kind = "text"
	KindDOCX Kind = "docx"
)

const docxMediaType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

type Ingestor struct {
	textColumn   string
	chunkSize    int
	chunkOverlap int
}

func NewIngestor(cfg config.IngestConfig) *Ingestor {
	size := cfg.ChunkSize
	if size <= 0 {
		size = 2000
	}
	overlap := cfg.ChunkOverlap
	if overlap < 0 || overlap >= size {
		overlap = 0
	}
	return &Ingestor{
		textColumn:   cfg.TextColumn,
		chunkSize:    size,
		chunkOverlap: overlap,
	}
}

// Ingest parses the upload into chunks. The raw bytes are not retained.
func (i *Ingestor) Ingest(upload entity.Upload) ([]entity.Chunk, error) {
	kind, err := DetectKind(upload.ContentType, upload.Filename)
	if err != nil {
		return nil, err
	}

	source := sourceName(upload.Filename)

	switch kind {
	case KindCSV:
		text, err := decodeText(upload.Content)
		if err != nil {
			return nil, err
		}
		return i.ingestCSV(text, source)
	case KindDOCX:
		text, err := extractDOCX(upload.Content)
		if err != nil {
			return nil, err
		}
		return i.ingestText(text, source)
	default:
		text, err := decodeText(upload.Content)
		if err != nil {
			return nil, err
		}
		return i.ingestText(text, source)
	}
}

// DocumentText returns the whole upload as text, for the document-chat flow
// where no index is built.
func (i *Ingestor) DocumentText(upload entity.Upload) (string, error) {
	kind, err := DetectKind(upload.ContentType, upload.Filename)
	if err != nil {
		return "", err
	}

	var text string
	if kind == KindDOCX {
		text, err = extractDOCX(upload.Content)
	} else {
		text, err = decodeText(upload.Content)
	}
	if err != nil {
		return "", err
	}

	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: document is empty", entity.ErrIngest)
	}
	return text, nil
}

// DetectKind picks the parser from the declared content type, falling back to the file extension
// for generic types such as application/octet-stream.
func DetectKind(contentType, filename string) (Kind, error) {
	if contentType != "" {
		mediaType, _, err := mime.ParseMediaType(contentType)
		if err == nil {
			switch mediaType {
			case "text/csv", "application/csv", "text/comma-separated-values":
				return KindCSV, nil
			case "text/plain", "text/markdown", "text/x-markdown":
				// text/plain is what many clients send for .csv files too
				if strings.EqualFold(filepath.Ext(filename), ".csv") {
					return KindCSV, nil
				}
				return KindText, nil
			case docxMediaType:
				return KindDOCX, nil
			}
		}
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return KindCSV, nil
	case ".txt", ".md", ".markdown", "":
		return KindText, nil
	case ".docx":
		return KindDOCX, nil
	}

	return "", fmt.Errorf("%w: %w: content type %q, file %q", entity.ErrIngest, entity.ErrUnsupportedFormat, contentType, filename)
}

func decodeText(raw []byte) (string, error) {
	raw = bytes.TrimPrefix(raw, utf8BOM)
	if !utf8.Valid(raw) {
		return "", fmt.Errorf("%w: content is not valid UTF-8", entity.ErrIngest)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return "", fmt.Errorf("%w: content is empty", entity.ErrIngest)
	}
	return string(raw), nil
}

func sourceName(filename string) string {
	if filename == "" {
		return "upload"
	}
	return validator.SanitizeFilename(filename)
}
