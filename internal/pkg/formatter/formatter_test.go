package formatter

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/futig/datachat/internal/entity"
)

var sampleExport = Export{
	Question: "What does Alice think?",
	Answer:   "Alice supports policy A.\n- twice",
	CorpusID: "c1",
	Sources: []entity.SourceRef{
		{ChunkID: 0, Text: "name: Alice\ntext: I support policy A", Metadata: map[string]string{entity.MetaSource: "policy.csv", entity.MetaRow: "1"}},
	},
}

func TestMarkdownFormatter(t *testing.T) {
	out, err := NewMarkdownFormatter().Format(sampleExport)
	if err != nil {
		t.Fatal(err)
	}

	md := string(out)
	for _, want := range []string{
		"# Answer",
		"**Question:** What does Alice think?",
		"Alice supports policy A.",
		"## Sources",
		"- [1] (policy.csv, row 1) name: Alice text: I support policy A",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestBinaryFormatters(t *testing.T) {
	tests := []struct {
		format entity.ResultFormat
		magic  []byte
		ext    string
	}{
		{entity.FormatDOCX, []byte("PK"), ".docx"},
		{entity.FormatPDF, []byte("%PDF"), ".pdf"},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			f, err := NewFactory().Create(tt.format)
			if err != nil {
				t.Fatal(err)
			}
			out, err := f.Format(sampleExport)
			if err != nil && strings.Contains(strings.ToLower(err.Error()), "licen") {
				t.Skipf("%s export needs a license key: %v", tt.format, err)
			}
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.HasPrefix(out, tt.magic) {
				t.Errorf("unexpected header %q", out[:min(len(out), 8)])
			}
			if f.FileExtension() != tt.ext {
				t.Errorf("expected extension %s, got %s", tt.ext, f.FileExtension())
			}
		})
	}
}

func TestFactory_Unsupported(t *testing.T) {
	if _, err := NewFactory().Create(entity.FormatJSON); !errors.Is(err, entity.ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}
