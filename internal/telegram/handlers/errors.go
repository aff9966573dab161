package handlers

import (
	"context"
	"errors"

	"github.com/futig/datachat/internal/entity"
	"github.com/futig/datachat/internal/telegram/render"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// ErrorSeverity represents the severity level of an error
type ErrorSeverity int

const (
	SeverityWarning ErrorSeverity = iota
	SeverityError
)

// String returns string representation of error severity
func (s ErrorSeverity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// HandlerError represents a structured error with user message and logging info
type HandlerError struct {
	Err         error
	UserMessage string
	LogMessage  string
	Severity    ErrorSeverity
}

// classifyHandlerError splits errors caused by the user's input from failures on our side
func classifyHandlerError(err error) *HandlerError {
	handlerErr := &HandlerError{
		Err:         err,
		UserMessage: render.ClassifyError(err),
		LogMessage:  "handler error",
		Severity:    SeverityError,
	}

	switch {
	case err == nil:
		handlerErr.LogMessage = "unknown error"
		handlerErr.Severity = SeverityWarning
	case errors.Is(err, entity.ErrUploadInProgress):
		handlerErr.LogMessage = "upload rejected, another one in progress"
		handlerErr.Severity = SeverityWarning
	case errors.Is(err, entity.ErrNoCorpusLoaded):
		handlerErr.LogMessage = "question without corpus"
		handlerErr.Severity = SeverityWarning
	case errors.Is(err, entity.ErrIngest),
		errors.Is(err, entity.ErrInvalidExtension),
		errors.Is(err, entity.ErrFileTooLarge),
		errors.Is(err, entity.ErrInvalidFile):
		handlerErr.LogMessage = "rejected upload"
		handlerErr.Severity = SeverityWarning
	case errors.Is(err, entity.ErrMissingField), errors.Is(err, entity.ErrInvalidParameter):
		handlerErr.LogMessage = "invalid input"
		handlerErr.Severity = SeverityWarning
	case errors.Is(err, entity.ErrEmbedding):
		handlerErr.LogMessage = "embedding provider failed"
	case errors.Is(err, entity.ErrGeneration):
		handlerErr.LogMessage = "generation provider failed"
	}

	return handlerErr
}

// HandleError provides centralized error handling for all handlers
// It logs the error with appropriate severity and sends a user-friendly message
func (h *BaseHandler) HandleError(ctx context.Context, chatID int64, err error) {
	if err == nil {
		return
	}

	handlerErr := classifyHandlerError(err)

	switch handlerErr.Severity {
	case SeverityError:
		ctxzap.Error(ctx, handlerErr.LogMessage,
			zap.Error(handlerErr.Err),
			zap.Int64("chat_id", chatID),
		)
	case SeverityWarning:
		ctxzap.Warn(ctx, handlerErr.LogMessage,
			zap.Error(handlerErr.Err),
			zap.Int64("chat_id", chatID),
		)
	}

	h.sendMessage(chatID, handlerErr.UserMessage)
}
