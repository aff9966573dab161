package formatter

import (
	"bytes"
	"fmt"
)

const (
	markdownContentType   = "text/markdown; charset=utf-8"
	markdownFileExtension = ".md"
)

type MarkdownFormatter struct{}

func NewMarkdownFormatter() *MarkdownFormatter {
	return &MarkdownFormatter{}
}

func (mf *MarkdownFormatter) Format(export Export) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# %s\n\n", baseTitle)
	fmt.Fprintf(&buf, "**Question:** %s\n\n", export.Question)
	fmt.Fprintf(&buf, "%s\n", export.Answer)

	if len(export.Sources) > 0 {
		buf.WriteString("\n## Sources\n\n")
		for i, src := range export.Sources {
			fmt.Fprintf(&buf, "- %s\n", sourceLine(i+1, src))
		}
	}
	return buf.Bytes(), nil
}

func (mf *MarkdownFormatter) ContentType() string {
	return markdownContentType
}

func (mf *MarkdownFormatter) FileExtension() string {
	return markdownFileExtension
}
