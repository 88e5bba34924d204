package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/bull/docchat/internal/index"
	"github.com/bull/docchat/internal/ingest"
)

// previewChunks is how many chunks the ingest command shows.
const previewChunks = 3

var ingestCmd = &cobra.Command{
	Use:   "ingest <document>",
	Short: "Process a document and show chunking statistics",
	Long: `Extracts, chunks and embeds a document without asking anything.

Prints page and chunk counts, chunk size statistics, the chunks per page and
a preview of the first chunks with their embedding dimensions.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	fmt.Fprintf(out, "Processing %s...\n", args[0])
	info, err := a.Ingest(ctx, args[0])
	if err != nil {
		return fmt.Errorf("Ingestion failed: %w", err)
	}

	printInfo(out, info)
	printPreview(out, a.Session.Index())
	return nil
}

func printInfo(out io.Writer, info *ingest.Info) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Document processed!")
	fmt.Fprintf(out, "  Pages: %d\n", info.Pages)
	fmt.Fprintf(out, "  Chunks: %d\n", info.Chunks)
	fmt.Fprintf(out, "  Storage: %s\n", info.Storage)
	fmt.Fprintf(out, "  Embeddings: %s (%d dimensions)\n", info.Model, info.Dimension)
	fmt.Fprintf(out, "  Duration: %s\n", info.Duration.Round(time.Millisecond))

	stats := info.Stats
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Chunk statistics:")
	fmt.Fprintf(out, "  Total characters: %d\n", stats.TotalChars)
	fmt.Fprintf(out, "  Average length: %.1f\n", stats.AvgChars)
	fmt.Fprintf(out, "  Shortest: %d\n", stats.MinChars)
	fmt.Fprintf(out, "  Longest: %d\n", stats.MaxChars)

	pages := make([]int, 0, len(stats.PerPage))
	for p := range stats.PerPage {
		pages = append(pages, p)
	}
	sort.Ints(pages)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Chunks per page:")
	for _, p := range pages {
		fmt.Fprintf(out, "  Page %d: %d\n", p+1, stats.PerPage[p])
	}
}

func printPreview(out io.Writer, ix *index.Index) {
	chunks := ix.Chunks()
	if len(chunks) > previewChunks {
		chunks = chunks[:previewChunks]
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Preview:")
	for _, c := range chunks {
		text := strings.Join(strings.Fields(c.Text), " ")
		if r := []rune(text); len(r) > 100 {
			text = string(r[:100]) + "..."
		}
		fmt.Fprintf(out, "  [%d] page %d, %d dims: %s\n", c.Index, c.SourcePage+1, len(c.Embedding), text)
	}
}
