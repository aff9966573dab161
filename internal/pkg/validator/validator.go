package validator

import (
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/futig/datachat/internal/config"
	"github.com/futig/datachat/internal/entity"
)

var AllowedExtensions = map[string]bool{
	".csv":  true,
	".txt":  true,
	".md":   true,
	".docx": true,
}

// Validator validates uploads and question requests
type Validator struct {
	cfg config.FileUploadConfig
}

func NewFileValidator(cfg config.FileUploadConfig) *Validator {
	return &Validator{cfg: cfg}
}

// ValidateFileHeader checks a multipart file before it is read into memory
func (v *Validator) ValidateFileHeader(fh *multipart.FileHeader) error {
	if fh == nil {
		return fmt.Errorf("%w: file", entity.ErrMissingField)
	}
	if err := v.validateName(fh.Filename); err != nil {
		return err
	}
	if fh.Size > v.cfg.MaxFileSize {
		return fmt.Errorf("%w: file '%s' is %d bytes (max %d)", entity.ErrFileTooLarge, fh.Filename, fh.Size, v.cfg.MaxFileSize)
	}
	return nil
}

// ValidateUpload checks an upload that arrived already in memory (telegram, CLI)
func (v *Validator) ValidateUpload(upload entity.Upload) error {
	if err := v.validateName(upload.Filename); err != nil {
		return err
	}
	if int64(len(upload.Content)) > v.cfg.MaxFileSize {
		return fmt.Errorf("%w: file '%s' is %d bytes (max %d)", entity.ErrFileTooLarge, upload.Filename, len(upload.Content), v.cfg.MaxFileSize)
	}
	if len(upload.Content) == 0 {
		return fmt.Errorf("%w: file '%s' is empty", entity.ErrInvalidFile, upload.Filename)
	}
	return nil
}

// ValidateAsk checks an already normalized question request
func (v *Validator) ValidateAsk(req *entity.AskRequest, maxTopK int) error {
	if strings.TrimSpace(req.Question) == "" {
		return fmt.Errorf("%w: question", entity.ErrMissingField)
	}
	if req.TopK < 1 || req.TopK > maxTopK {
		return fmt.Errorf("%w: top_k must be between 1 and %d, got %d", entity.ErrInvalidParameter, maxTopK, req.TopK)
	}
	return nil
}

func (v *Validator) validateName(filename string) error {
	if filename == "" {
		return fmt.Errorf("%w: filename", entity.ErrMissingField)
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := AllowedExtensions[ext]; !ok {
		return fmt.Errorf("%w: '%s' (allowed: csv, txt, md, docx)", entity.ErrInvalidExtension, ext)
	}
	return nil
}

// SanitizeFilename sanitizes a filename for logs and chunk attribution
func SanitizeFilename(filename string) string {
	filename = filepath.Base(filepath.ToSlash(strings.ReplaceAll(filename, `\`, "/")))
	replacer := strings.NewReplacer(
		" ", "_",
		"(", "",
		")", "",
		"[", "",
		"]", "",
		"{", "",
		"}", "",
	)
	return replacer.Replace(filename)
}
