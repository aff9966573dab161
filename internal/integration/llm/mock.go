package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/futig/datachat/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// MockConnector answers without calling a provider; the answer echoes the question
// and the size of the prompt so pipelines can be exercised offline.
type MockConnector struct {
	logger *zap.Logger
}

func NewMockConnector(logger *zap.Logger) *MockConnector {
	return &MockConnector{
		logger: logger,
	}
}

func (m *MockConnector) Generate(ctx context.Context, prompt entity.RenderedPrompt, opts entity.GenerateOptions) (entity.Answer, error) {
	ctxzap.Info(ctx, "[MOCK] generating answer via LLM", zap.String("template", prompt.TemplateID))

	var total int
	for _, msg := range prompt.Messages {
		total += len(msg.Content)
	}

	var last string
	if n := len(prompt.Messages); n > 0 {
		last = prompt.Messages[n-1].Content
	}
	firstLine, _, _ := strings.Cut(strings.TrimSpace(last), "\n")

	answer := fmt.Sprintf("[MOCK %s] %d prompt characters. %s", prompt.TemplateID, total, firstLine)

	ctxzap.Info(ctx, "[MOCK] answer generated", zap.Int("answer_length", len(answer)))
	return entity.Answer{Text: answer}, nil
}
