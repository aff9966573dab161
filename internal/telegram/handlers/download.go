package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/futig/datachat/internal/entity"
	pkgHTTP "github.com/futig/datachat/pkg/http"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const downloadTimeout = 30 * time.Second

type fileGetter interface {
	GetFile(config tgbotapi.FileConfig) (tgbotapi.File, error)
}

// Downloader fetches files sent to the bot over HTTPS
type Downloader struct {
	files        fileGetter
	token        string
	fileEndpoint string
	client       *http.Client
	maxSize      int64
}

// NewDownloader creates a downloader for the bot's files, rejecting files above maxSize bytes
func NewDownloader(bot *tgbotapi.BotAPI, maxSize int64) *Downloader {
	return &Downloader{
		files:        bot,
		token:        bot.Token,
		fileEndpoint: tgbotapi.FileEndpoint,
		client: pkgHTTP.NewClient(
			pkgHTTP.WithRequestTimeout(downloadTimeout),
			pkgHTTP.WithTLSHandshakeTimeout(10*time.Second),
			pkgHTTP.WithRequestLogging(),
		),
		maxSize: maxSize,
	}
}

// Download implements FileDownloader
func (d *Downloader) Download(ctx context.Context, fileID string) ([]byte, error) {
	file, err := d.files.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("get file info: %w", err)
	}

	// Check file size before download
	if int64(file.FileSize) > d.maxSize {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", entity.ErrFileTooLarge, file.FileSize, d.maxSize)
	}

	fileURL := fmt.Sprintf(d.fileEndpoint, d.token, file.FilePath)

	parsedURL, err := url.Parse(fileURL)
	if err != nil {
		return nil, fmt.Errorf("invalid file URL: %w", err)
	}
	if parsedURL.Scheme != "https" {
		return nil, fmt.Errorf("insecure URL scheme: %s (expected https)", parsedURL.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	// Telegram's reported size can be missing, so the body is capped as well.
	data, err := io.ReadAll(io.LimitReader(resp.Body, d.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("read file data: %w", err)
	}
	if int64(len(data)) > d.maxSize {
		return nil, fmt.Errorf("%w: more than %d bytes", entity.ErrFileTooLarge, d.maxSize)
	}

	return data, nil
}
