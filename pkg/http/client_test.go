package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewClient_Options(t *testing.T) {
	client := NewClient(
		WithRequestTimeout(5*time.Second),
		WithResponseHeaderTimeout(7*time.Second),
	)

	if client.Timeout != 5*time.Second {
		t.Errorf("expected request timeout 5s, got %s", client.Timeout)
	}
	transport, ok := client.Transport.(*http.Transport)
	if !ok {
		t.Fatalf("expected *http.Transport without extra transports, got %T", client.Transport)
	}
	if transport.ResponseHeaderTimeout != 7*time.Second {
		t.Errorf("expected response header timeout 7s, got %s", transport.ResponseHeaderTimeout)
	}
}

func TestRequestLogging_RedactsSecrets(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	core, logs := observer.New(zapcore.DebugLevel)
	ctx := ctxzap.ToContext(context.Background(), zap.New(core))

	client := NewClient(WithRequestLogging())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/file/bot123:secret/doc.csv?x=1", nil)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Authorization", "Bearer sk-secret")
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	entries := logs.FilterMessage("HTTP outbound request").All()
	if len(entries) != 1 {
		t.Fatalf("expected one request log, got %d", len(entries))
	}

	fields := entries[0].ContextMap()
	if got := fields["url"]; got != srv.URL+"/file/botREDACTED/doc.csv" {
		t.Errorf("token leaked into url field: %v", got)
	}
	headers, ok := fields["headers"].(http.Header)
	if !ok {
		t.Fatalf("unexpected headers field %T", fields["headers"])
	}
	if headers.Get("Authorization") != "[REDACTED]" {
		t.Errorf("authorization header not redacted: %q", headers.Get("Authorization"))
	}
	if headers.Get("Accept") != "application/json" {
		t.Errorf("non-secret header changed: %q", headers.Get("Accept"))
	}
}

func TestRedactURL(t *testing.T) {
	u, _ := url.Parse("https://api.openai.com/v1/embeddings")
	if got := redactURL(u); got != "https://api.openai.com/v1/embeddings" {
		t.Errorf("plain url changed: %s", got)
	}
	if got := redactURL(nil); got != "" {
		t.Errorf("nil url should render empty, got %q", got)
	}
}
