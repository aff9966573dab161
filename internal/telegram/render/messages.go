package render

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"unicode/utf8"

	"github.com/futig/datachat/internal/entity"
)

// Telegram rejects messages longer than this many characters
const maxMessageLength = 4096

const (
	MsgWelcome = `👋 Hi! I answer questions about your data.

1. Send me a CSV, TXT, MD or DOCX file, it becomes the current corpus.
2. Ask anything in plain text, I answer from the most relevant rows or passages.

Commands:
/status - show the loaded corpus
/help - show this message`

	MsgIndexing = `⏳ Reading and indexing %s...`

	MsgCorpusLoaded = `✅ Loaded %s: %d chunks indexed.

Ask me a question about it.`

	MsgCorpusStatus = `📚 Current corpus: %s
Chunks: %d
Embedding model: %s
Loaded at: %s`

	MsgNoCorpus = `📭 No corpus loaded yet. Send me a CSV, TXT, MD or DOCX file first.`

	MsgUnsupportedMessage = `🤷 I only understand files and text questions.`

	ErrGeneric            = `❌ Something went wrong. Please try again.`
	ErrBusy               = `⏳ Another file is being indexed right now. Try again in a moment.`
	ErrInvalidFile        = `❌ Unsupported file. Send a CSV, TXT, MD or DOCX file up to the size limit.`
	ErrUnreadableFile     = `❌ I could not read this file: %s`
	ErrInvalidInput       = `❌ I did not understand the question. Please rephrase it.`
	ErrProvider           = `❌ The language model service failed. Please try again in a minute.`
	ErrModelChanged       = `❌ The embedding model changed since this corpus was loaded. Send the file again.`
	ErrNetworkIssue       = `❌ Connection problem. Please try again later.`
	ErrServiceUnavailable = `❌ The service is temporarily unavailable. Try again in a couple of minutes.`
	ErrTimeout            = `❌ That took too long. Please try again.`
	ErrUnknownCommand     = `❌ Unknown command. Use /help`
)

// Rate limit warnings, escalating with every warning sent since the last accepted message
var rateLimitWarnings = []string{
	`⚠️ Too many requests. Please slow down a little.`,
	`⚠️ Rate limit exceeded. Wait about 30 seconds before the next message.`,
	`🛑 You are sending messages too often. Please wait a minute.`,
}

// RateLimitWarning returns the n-th warning (1-based); later warnings repeat the last one
func RateLimitWarning(n int) string {
	if n < 1 {
		n = 1
	}
	if n > len(rateLimitWarnings) {
		n = len(rateLimitWarnings)
	}
	return rateLimitWarnings[n-1]
}

// RenderAnswer formats an answer with its numbered sources and keeps it within Telegram limits
func RenderAnswer(res entity.AskResult) string {
	var sb strings.Builder
	sb.WriteString(strings.TrimSpace(res.Answer.Text))

	if len(res.Retrieved) > 0 {
		sb.WriteString("\n\n📎 Sources:")
		for i, sc := range res.Retrieved {
			fmt.Fprintf(&sb, "\n%d. %s", i+1, sourceLabel(sc.Chunk))
		}
	}

	return Truncate(sb.String(), maxMessageLength)
}

// RenderCorpusInfo formats the loaded corpus for /status
func RenderCorpusInfo(info entity.CorpusInfo) string {
	return fmt.Sprintf(MsgCorpusStatus, info.Source, info.ChunkCount, info.Model, info.CreatedAt.Format("2006-01-02 15:04:05 MST"))
}

func sourceLabel(c entity.Chunk) string {
	switch {
	case c.Metadata[entity.MetaRow] != "":
		return fmt.Sprintf("%s, row %s", c.Metadata[entity.MetaSource], c.Metadata[entity.MetaRow])
	case c.Metadata[entity.MetaSegment] != "":
		return fmt.Sprintf("%s, part %s", c.Metadata[entity.MetaSource], c.Metadata[entity.MetaSegment])
	default:
		return c.Metadata[entity.MetaSource]
	}
}

// Truncate cuts s to at most limit runes, marking the cut with an ellipsis
func Truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit-1]) + "…"
}

// ClassifyError analyzes an error and returns an appropriate user-friendly message
func ClassifyError(err error) string {
	if err == nil {
		return ErrGeneric
	}

	switch {
	case errors.Is(err, entity.ErrUploadInProgress):
		return ErrBusy
	case errors.Is(err, entity.ErrNoCorpusLoaded):
		return MsgNoCorpus
	case errors.Is(err, entity.ErrIngest):
		return fmt.Sprintf(ErrUnreadableFile, err.Error())
	case errors.Is(err, entity.ErrInvalidExtension),
		errors.Is(err, entity.ErrFileTooLarge),
		errors.Is(err, entity.ErrInvalidFile):
		return ErrInvalidFile
	case errors.Is(err, entity.ErrMissingField), errors.Is(err, entity.ErrInvalidParameter):
		return ErrInvalidInput
	case errors.Is(err, entity.ErrModelMismatch):
		return ErrModelChanged
	case errors.Is(err, entity.ErrEmbedding), errors.Is(err, entity.ErrGeneration):
		return ErrProvider
	}

	// Check for timeout errors
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ErrTimeout
	}

	// Check for network errors
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return ErrTimeout
		}
		return ErrNetworkIssue
	}

	if strings.Contains(err.Error(), "connection refused") {
		return ErrServiceUnavailable
	}

	return ErrGeneric
}
