package formatter

import (
	"fmt"
	"strings"

	"github.com/futig/datachat/internal/entity"
)

const baseTitle = "Answer"

// Export is an answered question ready to be rendered as a document
type Export struct {
	Question string
	Answer   string
	CorpusID string
	Sources  []entity.SourceRef
}

type Formatter interface {
	Format(export Export) ([]byte, error)
	ContentType() string
	FileExtension() string
}

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) Create(format entity.ResultFormat) (Formatter, error) {
	switch format {
	case entity.FormatMarkdown:
		return NewMarkdownFormatter(), nil
	case entity.FormatDOCX:
		return NewDOCXFormatter(), nil
	case entity.FormatPDF:
		return NewPDFFormatter(), nil
	default:
		return nil, fmt.Errorf("%w: %s", entity.ErrUnsupportedFormat, format)
	}
}

// sourceLine renders one source as "[n] (source, row 3) text" on a single line
func sourceLine(n int, src entity.SourceRef) string {
	var where []string
	if s := src.Metadata[entity.MetaSource]; s != "" {
		where = append(where, s)
	}
	if row := src.Metadata[entity.MetaRow]; row != "" {
		where = append(where, "row "+row)
	}
	if seg := src.Metadata[entity.MetaSegment]; seg != "" {
		where = append(where, "segment "+seg)
	}

	text := strings.Join(strings.Fields(src.Text), " ")
	if len(where) == 0 {
		return fmt.Sprintf("[%d] %s", n, text)
	}
	return fmt.Sprintf("[%d] (%s) %s", n, strings.Join(where, ", "), text)
}
