package http

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// headers that must never reach the logs
var redactedHeaders = map[string]struct{}{
	"Authorization":       {},
	"Openai-Organization": {},
	"Api-Key":             {},
}

type logTransport struct {
	transport http.RoundTripper
}

func (t *logTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	start := time.Now()

	ctxzap.Debug(ctx, "HTTP outbound request",
		zap.String("method", req.Method),
		zap.String("url", redactURL(req.URL)),
		zap.Any("headers", redact(req.Header)),
		zap.Int64("content_length", req.ContentLength),
	)

	resp, err := t.transport.RoundTrip(req)
	if err != nil {
		ctxzap.Debug(ctx, "HTTP outbound request failed",
			zap.String("url", redactURL(req.URL)),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return nil, err
	}

	ctxzap.Debug(ctx, "HTTP outbound response",
		zap.String("url", redactURL(req.URL)),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	return resp, nil
}

func redact(h http.Header) http.Header {
	out := make(http.Header, len(h))
	for k, v := range h {
		if _, ok := redactedHeaders[http.CanonicalHeaderKey(k)]; ok {
			out[k] = []string{"[REDACTED]"}
			continue
		}
		out[k] = v
	}
	return out
}

// redactURL hides bot tokens that some APIs (Telegram file downloads) put in the path
func redactURL(u *url.URL) string {
	if u == nil {
		return ""
	}
	segments := strings.Split(u.Path, "/")
	for i, seg := range segments {
		if strings.HasPrefix(seg, "bot") && strings.Contains(seg, ":") {
			segments[i] = "botREDACTED"
		}
	}
	clone := *u
	clone.Path = strings.Join(segments, "/")
	clone.RawPath = ""
	clone.RawQuery = ""
	return clone.String()
}

// WithRequestLogging wraps the HTTP transport with logging of method, URL, redacted headers and timing.
func WithRequestLogging() HttpOpts {
	return WithTransport(func(rt http.RoundTripper) http.RoundTripper {
		return &logTransport{
			transport: rt,
		}
	})
}
