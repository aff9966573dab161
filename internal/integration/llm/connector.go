package llm

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/futig/datachat/internal/config"
	"github.com/futig/datachat/internal/entity"
	"github.com/futig/datachat/internal/integration/common"
	pkgRetry "github.com/futig/datachat/internal/pkg/retry"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

type Connector struct {
	config config.LLMConfig
	client *openai.Client
	logger *zap.Logger
}

func NewConnector(
	openAICfg config.OpenAIConfig,
	cfg config.LLMConfig,
	logger *zap.Logger,
) *Connector {
	return &Connector{
		config: cfg,
		client: common.NewOpenAIClient(openAICfg),
		logger: logger,
	}
}

// Generate sends the rendered prompt to the chat completion endpoint and returns the text verbatim
func (c *Connector) Generate(ctx context.Context, prompt entity.RenderedPrompt, opts entity.GenerateOptions) (entity.Answer, error) {
	req := c.buildRequest(prompt, opts)

	ctxzap.Info(ctx, "generating answer via LLM service",
		zap.String("model", req.Model),
		zap.String("template", prompt.TemplateID),
		zap.Int("message_count", len(req.Messages)),
	)

	resp, err := pkgRetry.Do(ctx, &c.config.Retry, common.IsTransient,
		func(ctx context.Context) (openai.ChatCompletionResponse, error) {
			callCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
			defer cancel()

			return c.client.CreateChatCompletion(callCtx, req)
		})
	if err != nil {
		ctxzap.Error(ctx, "completion request failed", zap.Error(err))
		return entity.Answer{}, fmt.Errorf("%w: provider call: %v", entity.ErrGeneration, err)
	}

	if len(resp.Choices) == 0 {
		return entity.Answer{}, fmt.Errorf("%w: response has no choices", entity.ErrGeneration)
	}

	text := resp.Choices[0].Message.Content
	if strings.TrimSpace(text) == "" {
		return entity.Answer{}, fmt.Errorf("%w: empty completion (finish reason %q)", entity.ErrGeneration, resp.Choices[0].FinishReason)
	}

	ctxzap.Info(ctx, "answer generated successfully",
		zap.Int("answer_length", len(text)),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
	)

	return entity.Answer{Text: text}, nil
}

func (c *Connector) buildRequest(prompt entity.RenderedPrompt, opts entity.GenerateOptions) openai.ChatCompletionRequest {
	model := opts.Model
	if model == "" {
		model = c.config.Model
	}

	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.config.MaxTokens
	}

	// go-openai drops a zero temperature (omitempty) and the API then applies its default of 1.
	temperature := opts.Temperature
	if temperature == 0 {
		temperature = math.SmallestNonzeroFloat32
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(prompt.Messages))
	for _, m := range prompt.Messages {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	return openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
		Seed:        opts.Seed,
	}
}
