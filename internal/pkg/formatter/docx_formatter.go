package formatter

import (
	"bytes"
	"strings"

	"github.com/unidoc/unioffice/document"
)

const (
	docxContentType   = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	docxFileExtension = ".docx"
)

type DOCXFormatter struct{}

func NewDOCXFormatter() *DOCXFormatter {
	return &DOCXFormatter{}
}

func (df *DOCXFormatter) Format(export Export) ([]byte, error) {
	doc := document.New()
	defer doc.Close()

	heading(doc, "Heading1", baseTitle)

	question := doc.AddParagraph().AddRun()
	question.Properties().SetBold(true)
	question.AddText("Question: " + export.Question)

	doc.AddParagraph()

	// One paragraph per answer line keeps bullet lists readable in Word.
	for _, line := range strings.Split(export.Answer, "\n") {
		doc.AddParagraph().AddRun().AddText(line)
	}

	if len(export.Sources) > 0 {
		heading(doc, "Heading2", "Sources")
		for i, src := range export.Sources {
			doc.AddParagraph().AddRun().AddText(sourceLine(i+1, src))
		}
	}

	var buf bytes.Buffer
	if err := doc.Save(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func heading(doc *document.Document, style, text string) {
	par := doc.AddParagraph()
	par.SetStyle(style)
	par.AddRun().AddText(text)
}

func (df *DOCXFormatter) ContentType() string {
	return docxContentType
}

func (df *DOCXFormatter) FileExtension() string {
	return docxFileExtension
}
