package entity

import "errors"

// Domain errors
var (
	// Pipeline errors
	ErrIngest           = errors.New("ingest failed")
	ErrEmbedding        = errors.New("embedding failed")
	ErrGeneration       = errors.New("generation failed")
	ErrNoCorpusLoaded   = errors.New("no corpus loaded, upload a file first")
	ErrUploadInProgress = errors.New("another upload is in progress")
	ErrModelMismatch    = errors.New("embedding model differs from the one the index was built with")

	// File errors
	ErrInvalidFile       = errors.New("invalid file")
	ErrFileTooLarge      = errors.New("file too large")
	ErrInvalidExtension  = errors.New("invalid file extension")
	ErrUnsupportedFormat = errors.New("unsupported format")

	// Validation errors
	ErrMissingField     = errors.New("required field is missing")
	ErrInvalidParameter = errors.New("invalid parameter")
)
