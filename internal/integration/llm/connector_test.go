package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/futig/datachat/internal/config"
	"github.com/futig/datachat/internal/entity"
	pkgRetry "github.com/futig/datachat/internal/pkg/retry"
	"go.uber.org/zap"
)

var testPrompt = entity.RenderedPrompt{
	TemplateID: "snippet-qa",
	Messages: []entity.Message{
		{Role: entity.RoleSystem, Content: "Answer from the snippets."},
		{Role: entity.RoleUser, Content: "<question>\nwho?\n</question>"},
	},
}

func newTestConnector(t *testing.T, handler http.HandlerFunc) *Connector {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewConnector(
		config.OpenAIConfig{APIKey: "test-key", BaseURL: srv.URL + "/v1"},
		config.LLMConfig{
			Model:     "gpt-test",
			MaxTokens: 64,
			Timeout:   5 * time.Second,
			Retry:     pkgRetry.RetryConfig{Attempts: 3, Delay: time.Millisecond, MaxDelay: 5 * time.Millisecond},
		},
		zap.NewNop(),
	)
}

func writeCompletion(w http.ResponseWriter, content string, choices int) {
	type choice struct {
		Index        int               `json:"index"`
		Message      map[string]string `json:"message"`
		FinishReason string            `json:"finish_reason"`
	}
	resp := struct {
		ID      string   `json:"id"`
		Object  string   `json:"object"`
		Model   string   `json:"model"`
		Choices []choice `json:"choices"`
	}{ID: "cmpl-1", Object: "chat.completion", Model: "gpt-test", Choices: []choice{}}
	for i := 0; i < choices; i++ {
		resp.Choices = append(resp.Choices, choice{
			Index:        i,
			Message:      map[string]string{"role": "assistant", "content": content},
			FinishReason: "stop",
		})
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func writeAPIError(w http.ResponseWriter, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(`{"error":{"message":"failure","type":"test_error"}}`))
}

func TestGenerate_Success(t *testing.T) {
	var body []byte
	c := newTestConnector(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		body, _ = io.ReadAll(r.Body)
		writeCompletion(w, "Alice said so.", 1)
	})

	seed := 26
	answer, err := c.Generate(context.Background(), testPrompt, entity.GenerateOptions{Seed: &seed})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer.Text != "Alice said so." {
		t.Errorf("answer = %q", answer.Text)
	}

	var req map[string]any
	if err := json.Unmarshal(body, &req); err != nil {
		t.Fatal(err)
	}
	if req["model"] != "gpt-test" {
		t.Errorf("model = %v, want the configured default", req["model"])
	}
	// A zero temperature must still reach the API, otherwise it applies its own default.
	temp, ok := req["temperature"].(float64)
	if !ok || temp <= 0 || temp > 1e-30 {
		t.Errorf("temperature = %v, want a positive value indistinguishable from 0", req["temperature"])
	}
	if req["seed"] != float64(26) {
		t.Errorf("seed = %v", req["seed"])
	}
	if msgs, _ := req["messages"].([]any); len(msgs) != 2 {
		t.Errorf("expected 2 messages, got %v", req["messages"])
	}
}

func TestGenerate_RetriesTransientErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestConnector(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeAPIError(w, http.StatusTooManyRequests)
	})

	_, err := c.Generate(context.Background(), testPrompt, entity.GenerateOptions{})
	if !errors.Is(err, entity.ErrGeneration) {
		t.Fatalf("expected ErrGeneration, got %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("expected 3 attempts for 429, got %d", got)
	}
}

func TestGenerate_RecoversAfterServerError(t *testing.T) {
	var calls atomic.Int32
	c := newTestConnector(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			writeAPIError(w, http.StatusBadGateway)
			return
		}
		writeCompletion(w, "second time lucky", 1)
	})

	answer, err := c.Generate(context.Background(), testPrompt, entity.GenerateOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer.Text != "second time lucky" || calls.Load() != 2 {
		t.Errorf("answer = %q after %d calls", answer.Text, calls.Load())
	}
}

func TestGenerate_PermanentErrorFailsFast(t *testing.T) {
	var calls atomic.Int32
	c := newTestConnector(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeAPIError(w, http.StatusBadRequest)
	})

	_, err := c.Generate(context.Background(), testPrompt, entity.GenerateOptions{})
	if !errors.Is(err, entity.ErrGeneration) {
		t.Fatalf("expected ErrGeneration, got %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("expected a single attempt for 400, got %d", got)
	}
}

func TestGenerate_MalformedResponses(t *testing.T) {
	tests := []struct {
		name    string
		content string
		choices int
		want    string
	}{
		{"no choices", "", 0, "no choices"},
		{"blank content", "  \n", 1, "empty completion"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestConnector(t, func(w http.ResponseWriter, r *http.Request) {
				writeCompletion(w, tt.content, tt.choices)
			})

			_, err := c.Generate(context.Background(), testPrompt, entity.GenerateOptions{})
			if !errors.Is(err, entity.ErrGeneration) {
				t.Fatalf("expected ErrGeneration, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q should mention %q", err, tt.want)
			}
		})
	}
}

func TestGenerate_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	c := NewConnector(
		config.OpenAIConfig{APIKey: "test-key", BaseURL: srv.URL + "/v1"},
		config.LLMConfig{
			Model:   "gpt-test",
			Timeout: 20 * time.Millisecond,
			Retry:   pkgRetry.RetryConfig{Attempts: 2, Delay: time.Millisecond, MaxDelay: time.Millisecond},
		},
		zap.NewNop(),
	)

	_, err := c.Generate(context.Background(), testPrompt, entity.GenerateOptions{})
	if !errors.Is(err, entity.ErrGeneration) {
		t.Fatalf("expected ErrGeneration on timeout, got %v", err)
	}
}
