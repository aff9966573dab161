package common

import (
	"github.com/futig/datachat/internal/config"
	pkgHTTP "github.com/futig/datachat/pkg/http"
	openai "github.com/sashabaranov/go-openai"
)

// NewOpenAIClient builds a go-openai client on top of the shared HTTP client settings.
func NewOpenAIClient(cfg config.OpenAIConfig) *openai.Client {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if cfg.OrgID != "" {
		clientCfg.OrgID = cfg.OrgID
	}

	clientCfg.HTTPClient = pkgHTTP.NewClient(
		pkgHTTP.WithConnClientTimeout(cfg.ConnTimeout),
		pkgHTTP.WithClientKeepAlive(cfg.KeepAlive),
		pkgHTTP.WithIdleConnTimeout(cfg.IdleConnTimeout),
		pkgHTTP.WithResponseHeaderTimeout(cfg.ResponseHeaderTimeout),
		pkgHTTP.WithRequestLogging(),
	)

	return openai.NewClientWithConfig(clientCfg)
}
