package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/futig/datachat/internal/ingest"
	"github.com/spf13/cobra"
)

var (
	chunksFile string
	chunksJSON bool
)

var chunksCmd = &cobra.Command{
	Use:   "chunks",
	Short: "Show how a file is split into chunks",
	Long: `Parse a file with the same ingestor the service uses and print its chunks.
Nothing is embedded, so no provider credentials are needed.

Examples:
  datachat-cli chunks --file data.csv
  datachat-cli chunks --file notes.md --json`,
	RunE: runChunks,
}

func init() {
	rootCmd.AddCommand(chunksCmd)
	chunksCmd.Flags().StringVarP(&chunksFile, "file", "f", "", "file to parse (required)")
	chunksCmd.Flags().BoolVar(&chunksJSON, "json", false, "output as JSON")
	chunksCmd.MarkFlagRequired("file")
}

func runChunks(cmd *cobra.Command, args []string) error {
	upload, err := readUpload(chunksFile)
	if err != nil {
		return err
	}

	chunks, err := ingest.NewIngestor(cfg.IngestCfg).Ingest(upload)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	if chunksJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(chunks)
	}

	for _, c := range chunks {
		fmt.Printf("#%d %s\n", c.ID, location(c))
		fmt.Println(indent(c.Text, "   "))
		fmt.Println()
	}
	fmt.Printf("%d chunks\n", len(chunks))

	return nil
}

func indent(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}
