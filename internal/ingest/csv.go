package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/futig/datachat/internal/entity"
)

const emptyRowText = "(empty row)"

// ingestCSV produces one chunk per data row. The first record is the header.
// The row metadata counts CSV records, not file lines: encoding/csv skips lines
// that are completely empty, while rows of empty fields (",,") are kept.
func (i *Ingestor) ingestCSV(text, source string) ([]entity.Chunk, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: csv has no header row", entity.ErrIngest)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read csv header: %v", entity.ErrIngest, err)
	}
	header = normalizeHeader(header)

	textCol := -1
	if i.textColumn != "" {
		for idx, h := range header {
			if strings.EqualFold(h, i.textColumn) {
				textCol = idx
				break
			}
		}
	}

	var chunks []entity.Chunk
	for row := 1; ; row++ {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: read csv row %d: %v", entity.ErrIngest, row, err)
		}

		chunks = append(chunks, entity.Chunk{
			ID:       len(chunks),
			Text:     renderRow(header, record, textCol),
			Metadata: rowMetadata(header, record, source, row),
		})
	}

	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: csv has zero data rows", entity.ErrIngest)
	}

	return chunks, nil
}

func normalizeHeader(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if h == "" {
			h = columnName(i)
		}
		out[i] = h
	}
	return out
}

func columnName(i int) string {
	return "column_" + strconv.Itoa(i+1)
}

func headerAt(header []string, i int) string {
	if i < len(header) {
		return header[i]
	}
	return columnName(i)
}

// renderRow renders "column: value" lines, or only the designated text column when present
func renderRow(header, record []string, textCol int) string {
	if textCol >= 0 && textCol < len(record) {
		if v := strings.TrimSpace(record[textCol]); v != "" {
			return v
		}
	}

	lines := make([]string, 0, len(record))
	for i, v := range record {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		lines = append(lines, headerAt(header, i)+": "+v)
	}

	if len(lines) == 0 {
		return emptyRowText
	}
	return strings.Join(lines, "\n")
}

func rowMetadata(header, record []string, source string, row int) map[string]string {
	meta := make(map[string]string, len(record)+2)
	for i, v := range record {
		key := headerAt(header, i)
		if key == entity.MetaSource || key == entity.MetaRow {
			key = "column:" + key
		}
		meta[key] = v
	}
	meta[entity.MetaSource] = source
	meta[entity.MetaRow] = strconv.Itoa(row)
	return meta
}
