package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/futig/datachat/internal/builder"
	"github.com/futig/datachat/internal/entity"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var (
	askFile     string
	askTopK     int
	askTemplate string
	askJSON     bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Index a file and answer a question from it",
	Long: `Index the given file in memory and answer a question using the
chunks closest to it.

Examples:
  datachat-cli ask --file data.csv "Who talked about healthcare?"
  datachat-cli ask --file notes.txt --top-k 5 --template cited-qa "Summarise the notes"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVarP(&askFile, "file", "f", "", "file to index (required)")
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0, "number of chunks to retrieve (default from config)")
	askCmd.Flags().StringVarP(&askTemplate, "template", "t", "", "prompt template (csv-qa, cited-qa, snippet-qa)")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output as JSON")
	askCmd.MarkFlagRequired("file")
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	upload, err := readUpload(askFile)
	if err != nil {
		return err
	}

	chatUC, _, err := builder.BuildChat(cfg, logger)
	if err != nil {
		return err
	}

	var bar *progressbar.ProgressBar
	var barMu sync.Mutex

	progress := func(done, total int) {
		barMu.Lock()
		defer barMu.Unlock()

		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription("Embedding"),
				progressbar.OptionOnCompletion(func() {
					fmt.Fprintln(os.Stderr)
				}),
			)
		}
		bar.Set(done)
	}

	info, err := chatUC.UploadCorpus(ctx, upload, progress)
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	result, err := chatUC.Ask(ctx, entity.AskRequest{
		Question: strings.Join(args, " "),
		TopK:     askTopK,
		Template: askTemplate,
	})
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if askJSON {
		return outputAskJSON(info, result)
	}

	fmt.Println(result.Answer.Text)
	fmt.Printf("\nSources (%s, %d chunks indexed):\n", info.Source, info.ChunkCount)
	for i, sc := range result.Retrieved {
		fmt.Printf("  %d. [%.3f] %s\n", i+1, sc.Distance, location(sc.Chunk))
	}

	return nil
}

func outputAskJSON(info entity.CorpusInfo, result entity.AskResult) error {
	sources := make([]entity.SourceRef, 0, len(result.Retrieved))
	for _, sc := range result.Retrieved {
		sources = append(sources, entity.SourceRef{
			ChunkID:  sc.Chunk.ID,
			Text:     sc.Chunk.Text,
			Distance: sc.Distance,
			Metadata: sc.Chunk.Metadata,
		})
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(entity.AskResponse{
		Answer:   result.Answer.Text,
		CorpusID: info.ID,
		Sources:  sources,
	})
}

func location(c entity.Chunk) string {
	src := c.Metadata[entity.MetaSource]
	if row, ok := c.Metadata[entity.MetaRow]; ok {
		return fmt.Sprintf("%s, row %s", src, row)
	}
	if seg, ok := c.Metadata[entity.MetaSegment]; ok {
		return fmt.Sprintf("%s, part %s", src, seg)
	}
	return src
}
