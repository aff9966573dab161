// Package cli is the local command line transport: a file on disk is ingested, indexed and queried in one process.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/futig/datachat/internal/config"
	"github.com/futig/datachat/internal/entity"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	envName string
	verbose bool
	cfg     *config.Config
	logger  *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "datachat-cli",
	Short: "Ask questions about a CSV or text document",
	Long: `datachat-cli ingests a local CSV, text, markdown or docx file, embeds it
in memory and answers questions from its content.

Example usage:
  datachat-cli ask --file statements.csv "What did Alice say about taxes?"
  datachat-cli chunks --file notes.md`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		cfg, err = config.Load(envName)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if verbose {
			logger, err = zap.NewDevelopment()
			if err != nil {
				return fmt.Errorf("failed to create logger: %w", err)
			}
		} else {
			logger = zap.NewNop()
		}

		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envName, "env", "local", "environment whose .env file is loaded (local, prod, or custom)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log pipeline events to stderr")
}

// readUpload loads a local file the same way the HTTP transport receives one
func readUpload(path string) (entity.Upload, error) {
	info, err := os.Stat(path)
	if err != nil {
		return entity.Upload{}, fmt.Errorf("file does not exist: %w", err)
	}
	if info.IsDir() {
		return entity.Upload{}, fmt.Errorf("path is a directory: %s", path)
	}
	if info.Size() > cfg.FileUploadCfg.MaxFileSize {
		return entity.Upload{}, fmt.Errorf("%w: %d bytes exceeds %d", entity.ErrFileTooLarge, info.Size(), cfg.FileUploadCfg.MaxFileSize)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return entity.Upload{}, fmt.Errorf("read file: %w", err)
	}

	return entity.Upload{
		Filename: filepath.Base(path),
		Content:  content,
	}, nil
}
