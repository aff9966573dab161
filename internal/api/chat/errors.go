package chat

import (
	"context"
	"errors"
	"net/http"

	"github.com/futig/datachat/internal/entity"
	"github.com/futig/datachat/internal/pkg/response"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// statusFor maps a usecase error to a status code and a message that names the failure kind.
// Order matters: ingest failures can also carry ErrUnsupportedFormat, model mismatches also carry ErrEmbedding.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, entity.ErrUploadInProgress):
		return http.StatusConflict, "busy: another upload is in progress, retry later"
	case errors.Is(err, entity.ErrNoCorpusLoaded):
		return http.StatusBadRequest, "no corpus loaded, upload a file first"
	case errors.Is(err, entity.ErrIngest):
		return http.StatusUnprocessableEntity, "could not read the uploaded file: " + err.Error()
	case errors.Is(err, entity.ErrMissingField),
		errors.Is(err, entity.ErrInvalidParameter),
		errors.Is(err, entity.ErrInvalidFile),
		errors.Is(err, entity.ErrInvalidExtension),
		errors.Is(err, entity.ErrFileTooLarge),
		errors.Is(err, entity.ErrUnsupportedFormat):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, entity.ErrModelMismatch):
		return http.StatusBadGateway, "embedding model changed since the corpus was built, upload it again"
	case errors.Is(err, entity.ErrEmbedding):
		return http.StatusBadGateway, "embedding provider failed"
	case errors.Is(err, entity.ErrGeneration):
		return http.StatusBadGateway, "answer generation failed"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "request timed out"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

func (h *Handler) handleUsecaseError(ctx context.Context, w http.ResponseWriter, err error) {
	status, message := statusFor(err)
	h.respondError(ctx, w, status, message, err)
}

func (h *Handler) respondError(ctx context.Context, w http.ResponseWriter, status int, message string, err error) {
	switch {
	case status >= http.StatusInternalServerError:
		ctxzap.Error(ctx, message, zap.Error(err))
	case err != nil:
		ctxzap.Warn(ctx, message, zap.Error(err))
	default:
		ctxzap.Warn(ctx, message)
	}
	response.Error(w, status, message)
}
