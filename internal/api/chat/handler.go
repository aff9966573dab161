package chat

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/futig/datachat/internal/config"
	"github.com/futig/datachat/internal/entity"
	"github.com/futig/datachat/internal/pkg/formatter"
	"github.com/futig/datachat/internal/pkg/logger"
	"github.com/futig/datachat/internal/pkg/response"
	"github.com/futig/datachat/internal/pkg/validator"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const legacyUploadMessage = "File processed and vector store created successfully"

type Handler struct {
	usecase   ChatUsecase
	cfg       config.FileUploadConfig
	validator *validator.Validator
	formats   *formatter.Factory
}

func NewHandler(
	usecase ChatUsecase,
	cfg config.FileUploadConfig,
	validator *validator.Validator,
) *Handler {
	return &Handler{
		usecase:   usecase,
		cfg:       cfg,
		validator: validator,
		formats:   formatter.NewFactory(),
	}
}

// UploadCorpus handles POST /corpus
func (h *Handler) UploadCorpus(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "UploadCorpus")

	info, ok := h.upload(w, r.WithContext(ctx))
	if !ok {
		return
	}

	response.Created(w, toUploadResponse(info))
}

// LegacyUploadCSV handles POST /upload-csv/
func (h *Handler) LegacyUploadCSV(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "LegacyUploadCSV")

	if _, ok := h.upload(w, r.WithContext(ctx)); !ok {
		return
	}

	response.Success(w, &entity.LegacyUploadResponse{Message: legacyUploadMessage})
}

func (h *Handler) upload(w http.ResponseWriter, r *http.Request) (entity.CorpusInfo, bool) {
	ctx := r.Context()

	upload, ok := h.readUpload(w, r)
	if !ok {
		return entity.CorpusInfo{}, false
	}

	ctx = logger.AddFields(ctx,
		zap.String("filename", upload.Filename),
		zap.Int("size", len(upload.Content)),
	)
	ctxzap.Info(ctx, "uploading corpus")

	info, err := h.usecase.UploadCorpus(ctx, upload, nil)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return entity.CorpusInfo{}, false
	}

	ctxzap.Info(ctx, "corpus uploaded successfully", zap.String("corpus_id", info.ID))
	return info, true
}

// GetCorpus handles GET /corpus
func (h *Handler) GetCorpus(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "GetCorpus")

	info, err := h.usecase.CorpusInfo(ctx)
	if err != nil {
		if errors.Is(err, entity.ErrNoCorpusLoaded) {
			h.respondError(ctx, w, http.StatusNotFound, "no corpus loaded", nil)
			return
		}
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, info)
}

// DeleteCorpus handles DELETE /corpus
func (h *Handler) DeleteCorpus(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "DeleteCorpus")

	if err := h.usecase.DeleteCorpus(ctx); err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, &entity.DeleteCorpusResponse{Status: "deleted"})
}

// Ask handles POST /ask, optionally exporting the answer with ?format=markdown|docx|pdf
func (h *Handler) Ask(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "Ask")

	format := entity.FormatJSON
	if f := r.URL.Query().Get("format"); f != "" {
		if f == "md" {
			f = string(entity.FormatMarkdown)
		}
		format = entity.ResultFormat(f)
		if !format.IsValid() {
			h.respondError(ctx, w, http.StatusBadRequest, "format must be one of: json, markdown, docx, pdf", nil)
			return
		}
	}

	var req entity.AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid JSON body", err)
		return
	}

	ctx = logger.AddFields(ctx,
		zap.Int("top_k", req.TopK),
		zap.String("template", req.Template),
		zap.String("format", string(format)),
	)
	ctxzap.Debug(ctx, "answering question")

	res, err := h.usecase.Ask(ctx, req)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	ctxzap.Info(ctx, "question answered successfully",
		zap.String("corpus_id", res.CorpusID),
		zap.Int("sources", len(res.Retrieved)),
	)

	if format == entity.FormatJSON {
		response.Success(w, toAskResponse(res))
		return
	}

	fmtr, err := h.formats.Create(format)
	if err != nil {
		h.respondError(ctx, w, http.StatusNotImplemented, "format not implemented", err)
		return
	}

	body, err := fmtr.Format(toExport(req.Question, res))
	if err != nil {
		h.respondError(ctx, w, http.StatusInternalServerError, "failed to format answer", err)
		return
	}

	response.Attachment(w, fmtr.ContentType(), fmt.Sprintf("answer-%s%s", res.CorpusID, fmtr.FileExtension()), body)
}

// LegacyQuery handles POST /query/
func (h *Handler) LegacyQuery(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "LegacyQuery")

	var req entity.LegacyQueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid JSON body", err)
		return
	}

	res, err := h.usecase.Ask(ctx, entity.AskRequest{Question: req.Question})
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, &entity.LegacyQueryResponse{Response: res.Answer.Text})
}

// ChatWithDocument handles POST /chat-with-document
func (h *Handler) ChatWithDocument(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "ChatWithDocument")

	answer, ok := h.chatWithDocument(w, r.WithContext(ctx))
	if !ok {
		return
	}

	response.Success(w, &entity.ChatWithDocumentResponse{Answer: answer.Text})
}

// LegacyChatWithDocument handles POST /chat-with-document/
func (h *Handler) LegacyChatWithDocument(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "LegacyChatWithDocument")

	answer, ok := h.chatWithDocument(w, r.WithContext(ctx))
	if !ok {
		return
	}

	response.Success(w, &entity.LegacyQueryResponse{Response: answer.Text})
}

func (h *Handler) chatWithDocument(w http.ResponseWriter, r *http.Request) (entity.Answer, bool) {
	ctx := r.Context()

	upload, ok := h.readUpload(w, r)
	if !ok {
		return entity.Answer{}, false
	}

	query := r.FormValue("query")
	if strings.TrimSpace(query) == "" {
		h.respondError(ctx, w, http.StatusBadRequest, "query is required", nil)
		return entity.Answer{}, false
	}

	ctx = logger.AddFields(ctx, zap.String("filename", upload.Filename))

	answer, err := h.usecase.ChatWithDocument(ctx, upload, query)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return entity.Answer{}, false
	}

	ctxzap.Info(ctx, "document question answered successfully")
	return answer, true
}

// readUpload parses the multipart form and reads the "file" part into memory
func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request) (entity.Upload, bool) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadSize)
	if err := r.ParseMultipartForm(h.cfg.MaxUploadSize); err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid form data or size too large", err)
		return entity.Upload{}, false
	}

	file, fh, err := r.FormFile("file")
	if err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "file is required", err)
		return entity.Upload{}, false
	}
	defer file.Close()

	if err := h.validator.ValidateFileHeader(fh); err != nil {
		h.handleUsecaseError(ctx, w, err)
		return entity.Upload{}, false
	}

	content, err := io.ReadAll(io.LimitReader(file, h.cfg.MaxFileSize+1))
	if err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "failed to read file", err)
		return entity.Upload{}, false
	}

	return entity.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Content:     content,
	}, true
}
