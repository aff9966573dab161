package ingest

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/futig/datachat/internal/config"
	"github.com/futig/datachat/internal/entity"
)

func newTestIngestor() *Ingestor {
	return NewIngestor(config.IngestConfig{ChunkSize: 100, ChunkOverlap: 20})
}

func TestIngestCSV_OneChunkPerRow(t *testing.T) {
	for _, n := range []int{1, 3, 17} {
		var sb strings.Builder
		sb.WriteString("name,full_text,date\n")
		for i := 0; i < n; i++ {
			fmt.Fprintf(&sb, "leader%d,\"statement %d, with comma\",2024-01-%02d\n", i, i, i%28+1)
		}

		chunks, err := newTestIngestor().Ingest(entity.Upload{
			Filename:    "tweets.csv",
			ContentType: "text/csv",
			Content:     []byte(sb.String()),
		})
		if err != nil {
			t.Fatalf("n=%d: unexpected error: %v", n, err)
		}
		if len(chunks) != n {
			t.Fatalf("n=%d: expected %d chunks, got %d", n, n, len(chunks))
		}
		for i, c := range chunks {
			if c.ID != i {
				t.Errorf("expected chunk id %d, got %d", i, c.ID)
			}
			if strings.TrimSpace(c.Text) == "" {
				t.Errorf("chunk %d has empty text", i)
			}
			if c.Metadata[entity.MetaRow] != fmt.Sprint(i+1) {
				t.Errorf("expected row %d, got %q", i+1, c.Metadata[entity.MetaRow])
			}
			if c.Metadata[entity.MetaSource] != "tweets.csv" {
				t.Errorf("expected source tweets.csv, got %q", c.Metadata[entity.MetaSource])
			}
		}
	}
}

func TestIngestCSV_RowRendering(t *testing.T) {
	raw := "name,text\nAlice,I support policy A\n"

	chunks, err := newTestIngestor().Ingest(entity.Upload{Filename: "a.csv", Content: []byte(raw)})
	if err != nil {
		t.Fatal(err)
	}

	want := "name: Alice\ntext: I support policy A"
	if chunks[0].Text != want {
		t.Errorf("expected %q, got %q", want, chunks[0].Text)
	}
	if chunks[0].Metadata["name"] != "Alice" {
		t.Errorf("expected name metadata Alice, got %q", chunks[0].Metadata["name"])
	}
}

func TestIngestCSV_TextColumn(t *testing.T) {
	ing := NewIngestor(config.IngestConfig{TextColumn: "full_text", ChunkSize: 100})
	raw := "name,full_text\nBob,I oppose policy A\nBob,\n"

	chunks, err := ing.Ingest(entity.Upload{Filename: "a.csv", Content: []byte(raw)})
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0].Text != "I oppose policy A" {
		t.Errorf("expected text column only, got %q", chunks[0].Text)
	}
	// blank text column falls back to the full row
	if chunks[1].Text != "name: Bob" {
		t.Errorf("expected fallback rendering, got %q", chunks[1].Text)
	}
}

func TestIngestCSV_BlankRowStillProducesText(t *testing.T) {
	chunks, err := newTestIngestor().Ingest(entity.Upload{Filename: "a.csv", Content: []byte("a,b\n,\n")})
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 1 || chunks[0].Text != emptyRowText {
		t.Errorf("expected one %q chunk, got %+v", emptyRowText, chunks)
	}
}

func TestIngestCSV_RowCountsRecordsNotLines(t *testing.T) {
	content := "name,city\nAlice,Paris\n\n,\nBob,Oslo\n"
	chunks, err := newTestIngestor().Ingest(entity.Upload{Filename: "a.csv", Content: []byte(content)})
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks (empty line skipped, empty fields kept), got %d", len(chunks))
	}
	if got := chunks[2].Metadata[entity.MetaRow]; got != "3" {
		t.Errorf("Bob is the third record, got row %q", got)
	}
}

func TestIngestCSV_ReservedHeaderNames(t *testing.T) {
	chunks, err := newTestIngestor().Ingest(entity.Upload{Filename: "x.csv", Content: []byte("source,row\nweb,7\n")})
	if err != nil {
		t.Fatal(err)
	}
	meta := chunks[0].Metadata
	if meta[entity.MetaSource] != "x.csv" || meta[entity.MetaRow] != "1" {
		t.Errorf("attribution metadata overwritten: %v", meta)
	}
	if meta["column:source"] != "web" || meta["column:row"] != "7" {
		t.Errorf("expected prefixed column values, got %v", meta)
	}
}

func TestIngest_Errors(t *testing.T) {
	tests := []struct {
		name   string
		upload entity.Upload
	}{
		{"header only csv", entity.Upload{Filename: "a.csv", Content: []byte("name,text\n")}},
		{"empty csv", entity.Upload{Filename: "a.csv", Content: []byte("")}},
		{"invalid utf8", entity.Upload{Filename: "a.txt", Content: []byte{0xff, 0xfe, 0xfd}}},
		{"blank text", entity.Upload{Filename: "a.txt", Content: []byte("  \n\t ")}},
		{"unsupported", entity.Upload{Filename: "a.png", ContentType: "image/png", Content: []byte("x")}},
		{"broken docx", entity.Upload{Filename: "a.docx", Content: []byte("not a zip")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestIngestor().Ingest(tt.upload)
			if !errors.Is(err, entity.ErrIngest) {
				t.Errorf("expected ErrIngest, got %v", err)
			}
		})
	}
}

func TestIngestText_ShortDocumentIsOneChunk(t *testing.T) {
	chunks, err := newTestIngestor().Ingest(entity.Upload{
		Filename:    "notes.txt",
		ContentType: "text/plain; charset=utf-8",
		Content:     []byte("\ufeffShort note about policy A."),
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Text != "Short note about policy A." {
		t.Errorf("unexpected text %q", chunks[0].Text)
	}
	if chunks[0].Metadata[entity.MetaSegment] != "1" {
		t.Errorf("expected segment 1, got %q", chunks[0].Metadata[entity.MetaSegment])
	}
}

func TestSplitText(t *testing.T) {
	text := strings.Repeat("word ", 100) // 500 runes

	segments := splitText(strings.TrimSpace(text), 100, 20)
	if len(segments) < 5 {
		t.Fatalf("expected at least 5 segments, got %d", len(segments))
	}
	for i, s := range segments {
		if n := len([]rune(s)); n > 100 {
			t.Errorf("segment %d has %d runes, max 100", i, n)
		}
		if strings.HasPrefix(s, " ") || strings.HasSuffix(s, " ") {
			t.Errorf("segment %d is not trimmed", i)
		}
	}

	// overlap: the end of one segment reappears at the start of the next
	tail := segments[0][len(segments[0])-4:]
	if !strings.Contains(segments[1], tail) {
		t.Errorf("expected overlap between segments, %q not in %q", tail, segments[1])
	}
}

func TestSplitText_NoWhitespace(t *testing.T) {
	text := strings.Repeat("x", 250)

	segments := splitText(text, 100, 0)
	if len(segments) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(segments))
	}
	if len(segments[2]) != 50 {
		t.Errorf("expected last segment of 50 runes, got %d", len(segments[2]))
	}
}

func TestDetectKind(t *testing.T) {
	tests := []struct {
		contentType string
		filename    string
		want        Kind
	}{
		{"text/csv", "", KindCSV},
		{"text/plain", "data.csv", KindCSV},
		{"application/octet-stream", "data.CSV", KindCSV},
		{"text/markdown", "readme.md", KindText},
		{"", "notes.txt", KindText},
		{docxMediaType, "", KindDOCX},
		{"application/octet-stream", "report.docx", KindDOCX},
	}

	for _, tt := range tests {
		got, err := DetectKind(tt.contentType, tt.filename)
		if err != nil {
			t.Errorf("DetectKind(%q, %q): unexpected error %v", tt.contentType, tt.filename, err)
			continue
		}
		if got != tt.want {
			t.Errorf("DetectKind(%q, %q) = %s, want %s", tt.contentType, tt.filename, got, tt.want)
		}
	}
}

func TestDocumentText(t *testing.T) {
	text, err := newTestIngestor().DocumentText(entity.Upload{Filename: "doc.txt", Content: []byte("whole document")})
	if err != nil {
		t.Fatal(err)
	}
	if text != "whole document" {
		t.Errorf("unexpected text %q", text)
	}
}
